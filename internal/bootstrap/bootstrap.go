// Package bootstrap assembles the service from configuration: storage
// backend, price cache, providers and the rate source are all chosen here
// and injected; nothing below this layer reads the environment.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pricenavi-service/internal/application"
	"pricenavi-service/internal/config"
	"pricenavi-service/internal/infrastructure/fxrate"
	"pricenavi-service/internal/infrastructure/httpx"
	"pricenavi-service/internal/infrastructure/memstore"
	"pricenavi-service/internal/infrastructure/pg"
	"pricenavi-service/internal/infrastructure/provider"
	redisstore "pricenavi-service/internal/infrastructure/redis"
	"pricenavi-service/internal/ratelimit"
)

var ErrMissingDBURL = fmt.Errorf("DATABASE_URL is required for STORAGE=pg")

// BuildStore selects the persistence backend. "pg" connects and migrates;
// "mem" serves dev and test profiles. The returned ping is nil for mem.
func BuildStore(ctx context.Context, cfg config.Config, log *zap.Logger) (application.Store, func(context.Context) error, func(), error) {
	switch cfg.Storage {
	case "pg":
		if cfg.DatabaseURL == "" {
			return nil, nil, func() {}, ErrMissingDBURL
		}
		db, err := pg.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, func() {}, err
		}
		if err := pg.RunMigrations(ctx, db); err != nil {
			db.Close()
			return nil, nil, func() {}, err
		}
		cleanup := func() {
			log.Info("closing pg")
			db.Close()
		}
		return pg.NewStore(db), db.Ping, cleanup, nil
	case "mem":
		return memstore.New(), nil, func() {}, nil
	default:
		return nil, nil, func() {}, fmt.Errorf("unsupported STORAGE=%q", cfg.Storage)
	}
}

// BuildCache returns the Redis-backed price cache, or nil when caching is
// disabled; the service falls back to its internal noop cache.
func BuildCache(cfg config.Config) (application.PriceCache, func(), error) {
	if cfg.CacheBackend != "redis" {
		return nil, func() {}, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	cleanup := func() { _ = client.Close() }
	return redisstore.NewPriceCache(client, cfg.CacheTTL), cleanup, nil
}

// BuildRateSource selects the USD to JPY rate source. The fixed source is
// the default and needs no credentials.
func BuildRateSource(cfg config.Config) application.RateSource {
	switch cfg.FXProvider {
	case "exchangeratesapi":
		return &fxrate.ExchangeRatesAPI{
			BaseURL: cfg.ExchangeAPIBase,
			APIKey:  cfg.ExchangeAPIKey,
			Client:  &httpx.Client{HTTP: &http.Client{Timeout: cfg.RequestTimeout}},
		}
	default:
		return &fxrate.Fixed{Value: decimal.NewFromInt(150)}
	}
}

// Providers groups the outbound quote adapters.
type Providers struct {
	Crypto *provider.CoinGecko
	Equity *provider.AlphaVantage
}

// BuildProviders constructs the quote adapters. Each Alpha Vantage instance
// gets its own limiter window; the API and the poller are separate
// processes, each entitled to its own upstream quota.
func BuildProviders(cfg config.Config) Providers {
	return Providers{
		Crypto: &provider.CoinGecko{
			BaseURL: cfg.CoinGeckoBase,
			APIKey:  cfg.CoinGeckoAPIKey,
			Client:  &http.Client{Timeout: cfg.RequestTimeout},
		},
		Equity: &provider.AlphaVantage{
			BaseURL: cfg.AlphaVantageBase,
			APIKey:  cfg.AlphaVantageAPIKey,
			Client:  &http.Client{Timeout: cfg.RequestTimeout},
			Limiter: ratelimit.New(),
		},
	}
}
