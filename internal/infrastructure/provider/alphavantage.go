package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pricenavi-service/internal/application"
	"pricenavi-service/internal/domain"
	"pricenavi-service/internal/ratelimit"
)

const alphaVantageName = "Alpha Vantage"

// The free tier allows 5 requests per minute (and 25 per day, which the
// per-minute gate keeps us well under during normal dashboard use).
const (
	avMaxRequests = 5
	avWindow      = time.Minute
)

// AlphaVantage fetches USD equity quotes and daily series. Every network
// call passes the sliding-window gate first; a denied call fails fast with
// the computed wait and never reaches the network. The API key is required.
type AlphaVantage struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
	Limiter *ratelimit.Window
}

var _ application.EquityQuoter = (*AlphaVantage)(nil)

// GetPrice fetches the current quote for an equity ticker.
func (a *AlphaVantage) GetPrice(ctx context.Context, symbol string) (domain.EquityQuote, error) {
	var body struct {
		GlobalQuote struct {
			Symbol        string `json:"01. symbol"`
			Price         string `json:"05. price"`
			Change        string `json:"09. change"`
			ChangePercent string `json:"10. change percent"`
		} `json:"Global Quote"`
	}
	if err := a.query(ctx, "GLOBAL_QUOTE", symbol, &body); err != nil {
		return domain.EquityQuote{}, err
	}
	if body.GlobalQuote.Price == "" {
		return domain.EquityQuote{}, &domain.DataNotFoundError{Provider: alphaVantageName, Symbol: symbol}
	}

	price, err := decimal.NewFromString(body.GlobalQuote.Price)
	if err != nil {
		return domain.EquityQuote{}, fmt.Errorf("alphavantage: parse price %q: %w", body.GlobalQuote.Price, err)
	}
	pct := strings.TrimSuffix(body.GlobalQuote.ChangePercent, "%")
	change, err := decimal.NewFromString(pct)
	if err != nil {
		return domain.EquityQuote{}, fmt.Errorf("alphavantage: parse change percent %q: %w", body.GlobalQuote.ChangePercent, err)
	}
	return domain.EquityQuote{PriceUSD: price, ChangePercent: change}, nil
}

// GetHistory fetches the daily series for an equity ticker, sorted
// newest-first and truncated to days entries.
func (a *AlphaVantage) GetHistory(ctx context.Context, symbol string, days int) ([]domain.EquityBar, error) {
	var body struct {
		TimeSeries map[string]struct {
			Close  string `json:"4. close"`
			Volume string `json:"5. volume"`
		} `json:"Time Series (Daily)"`
	}
	if err := a.query(ctx, "TIME_SERIES_DAILY", symbol, &body); err != nil {
		return nil, err
	}
	if len(body.TimeSeries) == 0 {
		return nil, &domain.DataNotFoundError{Provider: alphaVantageName, Symbol: symbol}
	}

	bars := make([]domain.EquityBar, 0, len(body.TimeSeries))
	for date, v := range body.TimeSeries {
		d, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, fmt.Errorf("alphavantage: parse date %q: %w", date, err)
		}
		closePrice, err := decimal.NewFromString(v.Close)
		if err != nil {
			return nil, fmt.Errorf("alphavantage: parse close %q: %w", v.Close, err)
		}
		volume, err := decimal.NewFromString(v.Volume)
		if err != nil {
			return nil, fmt.Errorf("alphavantage: parse volume %q: %w", v.Volume, err)
		}
		bars = append(bars, domain.EquityBar{Date: d, Close: closePrice, Volume: volume})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.After(bars[j].Date) })
	if len(bars) > days {
		bars = bars[:days]
	}
	return bars, nil
}

func (a *AlphaVantage) query(ctx context.Context, function, symbol string, out any) error {
	if a.APIKey == "" {
		return &domain.ConfigError{Name: "ALPHA_VANTAGE_API_KEY"}
	}
	if err := a.gate(); err != nil {
		return err
	}

	u, err := url.Parse(a.BaseURL)
	if err != nil {
		return fmt.Errorf("alphavantage: invalid base url: %w", err)
	}
	u.Path += "/query"
	q := u.Query()
	q.Set("function", function)
	q.Set("symbol", symbol)
	q.Set("apikey", a.APIKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("alphavantage: create request: %w", err)
	}

	client := a.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("alphavantage: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &domain.ProviderError{Provider: alphaVantageName, Status: resp.StatusCode, Body: string(raw)}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("alphavantage: decode response: %w", err)
	}
	return nil
}

func (a *AlphaVantage) gate() error {
	if a.Limiter == nil {
		return nil
	}
	if a.Limiter.Allow(avMaxRequests, avWindow) {
		return nil
	}
	return &domain.RateLimitError{
		Provider:   alphaVantageName,
		RetryAfter: a.Limiter.WaitTime(avMaxRequests, avWindow),
	}
}
