package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pricenavi-service/internal/application"
	"pricenavi-service/internal/domain"
)

const coinGeckoName = "CoinGecko"

// coinIDs maps ticker symbols to CoinGecko coin ids. Unmapped symbols fall
// back to the lower-cased symbol itself.
var coinIDs = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"BNB":   "binancecoin",
	"XRP":   "ripple",
	"ADA":   "cardano",
	"DOGE":  "dogecoin",
	"SOL":   "solana",
	"DOT":   "polkadot",
	"MATIC": "matic-network",
	"LINK":  "chainlink",
}

// CoinID resolves a ticker symbol to the upstream coin id.
func CoinID(symbol string) string {
	if id, ok := coinIDs[strings.ToUpper(symbol)]; ok {
		return id
	}
	return strings.ToLower(symbol)
}

// CoinGecko fetches crypto quotes. The upstream quotes USD and JPY in one
// response, so this adapter never converts currencies for live prices. The
// API key is optional: without one the client runs in the provider's
// rate-limited demo mode.
type CoinGecko struct {
	BaseURL string
	APIKey  string
	Client  *http.Client

	// HistoryRate is the fixed USD→JPY rate used to derive the JPY side of
	// historical series; the history endpoint only serves one currency and
	// no historical FX source exists. Defaults to 150.
	HistoryRate decimal.Decimal
}

var _ application.CryptoQuoter = (*CoinGecko)(nil)
var _ application.BitcoinFeed = (*CoinGecko)(nil)

var defaultHistoryRate = decimal.NewFromInt(150)

type cgQuote struct {
	USD          float64 `json:"usd"`
	JPY          float64 `json:"jpy"`
	USD24hChange float64 `json:"usd_24h_change"`
	JPY24hChange float64 `json:"jpy_24h_change"`
}

// GetPrice fetches the current dual-currency quote plus the 24h change for
// a ticker symbol.
func (c *CoinGecko) GetPrice(ctx context.Context, symbol string) (domain.AssetPrice, error) {
	id := CoinID(symbol)
	q, err := c.simplePrice(ctx, id, symbol)
	if err != nil {
		return domain.AssetPrice{}, err
	}
	return domain.AssetPrice{
		PriceUSD:  decimal.NewFromFloat(q.USD),
		PriceJPY:  decimal.NewFromFloat(q.JPY),
		Change24h: decimal.NewFromFloat(q.USD24hChange),
	}, nil
}

// GetHistory fetches the USD series for the trailing days and derives JPY
// with the fixed history rate.
func (c *CoinGecko) GetHistory(ctx context.Context, symbol string, days int) ([]domain.HistoryPoint, error) {
	prices, err := c.marketChart(ctx, CoinID(symbol), "usd", days)
	if err != nil {
		return nil, err
	}
	rate := c.HistoryRate
	if rate.IsZero() {
		rate = defaultHistoryRate
	}
	points := make([]domain.HistoryPoint, 0, len(prices))
	for _, p := range prices {
		usd := decimal.NewFromFloat(p.price)
		points = append(points, domain.HistoryPoint{
			Timestamp: p.ts,
			PriceUSD:  usd,
			PriceJPY:  domain.ConvertUSD(usd, rate),
		})
	}
	return points, nil
}

// Snapshot returns the dual-currency Bitcoin spot view for the dashboard
// widget.
func (c *CoinGecko) Snapshot(ctx context.Context) (domain.BitcoinSnapshot, error) {
	q, err := c.simplePrice(ctx, "bitcoin", "BTC")
	if err != nil {
		return domain.BitcoinSnapshot{}, err
	}
	return domain.BitcoinSnapshot{
		USD:          decimal.NewFromFloat(q.USD),
		USD24hChange: decimal.NewFromFloat(q.USD24hChange),
		JPY:          decimal.NewFromFloat(q.JPY),
		JPY24hChange: decimal.NewFromFloat(q.JPY24hChange),
	}, nil
}

// Chart returns the JPY chart series for Bitcoin over the trailing days.
func (c *CoinGecko) Chart(ctx context.Context, days int) ([]domain.ChartPoint, error) {
	prices, err := c.marketChart(ctx, "bitcoin", "jpy", days)
	if err != nil {
		return nil, err
	}
	points := make([]domain.ChartPoint, 0, len(prices))
	for _, p := range prices {
		points = append(points, domain.ChartPoint{
			Timestamp: p.ts,
			Price:     decimal.NewFromFloat(p.price),
		})
	}
	return points, nil
}

func (c *CoinGecko) simplePrice(ctx context.Context, id, symbol string) (cgQuote, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return cgQuote{}, fmt.Errorf("coingecko: invalid base url: %w", err)
	}
	u.Path += "/simple/price"
	q := u.Query()
	q.Set("ids", id)
	q.Set("vs_currencies", "usd,jpy")
	q.Set("include_24hr_change", "true")
	u.RawQuery = q.Encode()

	var body map[string]cgQuote
	if err := c.doJSON(ctx, u.String(), &body); err != nil {
		return cgQuote{}, err
	}
	quote, ok := body[id]
	if !ok {
		return cgQuote{}, &domain.DataNotFoundError{Provider: coinGeckoName, Symbol: symbol}
	}
	return quote, nil
}

type pricePoint struct {
	ts    time.Time
	price float64
}

func (c *CoinGecko) marketChart(ctx context.Context, id, currency string, days int) ([]pricePoint, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("coingecko: invalid base url: %w", err)
	}
	u.Path += "/coins/" + id + "/market_chart"
	q := u.Query()
	q.Set("vs_currency", currency)
	q.Set("days", fmt.Sprint(days))
	u.RawQuery = q.Encode()

	var body struct {
		Prices [][]float64 `json:"prices"`
	}
	if err := c.doJSON(ctx, u.String(), &body); err != nil {
		return nil, err
	}
	points := make([]pricePoint, 0, len(body.Prices))
	for _, pair := range body.Prices {
		if len(pair) < 2 {
			continue
		}
		points = append(points, pricePoint{
			ts:    time.UnixMilli(int64(pair[0])).UTC(),
			price: pair[1],
		})
	}
	return points, nil
}

func (c *CoinGecko) doJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("coingecko: create request: %w", err)
	}
	if c.APIKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.APIKey)
	}

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("coingecko: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &domain.ProviderError{Provider: coinGeckoName, Status: resp.StatusCode, Body: string(raw)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("coingecko: decode response: %w", err)
	}
	return nil
}
