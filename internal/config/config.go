package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Common
	Env      string
	LogLevel string
	// API
	Port    string
	Storage string // pg | mem
	// Postgres
	DatabaseURL string
	// Quote providers
	CoinGeckoBase      string
	CoinGeckoAPIKey    string // optional; absence means the rate-limited demo tier
	AlphaVantageBase   string
	AlphaVantageAPIKey string // required for any stock fetch
	RequestTimeout     time.Duration
	// FX rate source
	FXProvider      string // fixed | exchangeratesapi
	ExchangeAPIBase string
	ExchangeAPIKey  string
	// Redis price cache
	CacheBackend  string // redis | none
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration
	// History writer
	HistoryBuffer int
	// Price poller (cmd/worker)
	PollEvery time.Duration
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoiDef(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

// Load reads environment variables and applies defaults.
func Load() Config {
	return Config{
		Env:                getEnv("ENV", "local"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		Port:               getEnv("PORT", "8080"),
		Storage:            getEnv("STORAGE", "pg"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		CoinGeckoBase:      getEnv("COINGECKO_API_BASE", "https://api.coingecko.com/api/v3"),
		CoinGeckoAPIKey:    getEnv("COINGECKO_API_KEY", ""),
		AlphaVantageBase:   getEnv("ALPHA_VANTAGE_API_BASE", "https://www.alphavantage.co"),
		AlphaVantageAPIKey: getEnv("ALPHA_VANTAGE_API_KEY", ""),
		RequestTimeout:     time.Duration(atoiDef(getEnv("REQUEST_TIMEOUT_MS", "10000"), 10000)) * time.Millisecond,
		FXProvider:         getEnv("FX_PROVIDER", "fixed"),
		ExchangeAPIBase:    getEnv("EXCHANGE_API_BASE", "https://api.exchangeratesapi.io"),
		ExchangeAPIKey:     getEnv("EXCHANGE_API_KEY", ""),
		CacheBackend:       getEnv("CACHE_BACKEND", "none"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            atoiDef(getEnv("REDIS_DB", "0"), 0),
		CacheTTL:           time.Duration(atoiDef(getEnv("PRICE_CACHE_TTL_MS", "300000"), 300000)) * time.Millisecond,
		HistoryBuffer:      atoiDef(getEnv("HISTORY_BUFFER", "256"), 256),
		PollEvery:          time.Duration(atoiDef(getEnv("POLL_INTERVAL_MS", "300000"), 300000)) * time.Millisecond,
	}
}
