package fxrate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"pricenavi-service/internal/application"
	"pricenavi-service/internal/domain"
	"pricenavi-service/internal/infrastructure/httpx"
)

const exchangeRatesLatestPath = "/v1/latest"

// ExchangeRatesAPI fetches the live USD to JPY rate from
// exchangeratesapi.io. The free plan only serves EUR-based rates, so the
// cross rate is derived from EUR/USD and EUR/JPY.
type ExchangeRatesAPI struct {
	BaseURL string
	APIKey  string
	Client  *httpx.Client
}

var _ application.RateSource = (*ExchangeRatesAPI)(nil)

type xrLatestResp struct {
	Success bool               `json:"success"`
	Base    string             `json:"base"`
	Rates   map[string]float64 `json:"rates"`
	Error   *struct {
		Code int    `json:"code"`
		Info string `json:"info"`
	} `json:"error,omitempty"`
}

func (p *ExchangeRatesAPI) Rate(ctx context.Context) (decimal.Decimal, error) {
	if p.BaseURL == "" || p.APIKey == "" {
		return decimal.Zero, &domain.ConfigError{Name: "EXCHANGE_RATES_API_KEY"}
	}

	u, err := url.Parse(p.BaseURL)
	if err != nil {
		return decimal.Zero, fmt.Errorf("exchangeratesapi: invalid base url: %w", err)
	}
	u.Path = exchangeRatesLatestPath
	q := u.Query()
	q.Set("access_key", p.APIKey)
	q.Set("symbols", "USD,JPY")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("exchangeratesapi: create request: %w", err)
	}

	client := p.Client
	if client == nil {
		client = &httpx.Client{}
	}
	var body xrLatestResp
	if err := client.DoJSON(ctx, req, &body); err != nil {
		return decimal.Zero, fmt.Errorf("exchangeratesapi: %w", err)
	}
	if !body.Success {
		if body.Error != nil {
			return decimal.Zero, fmt.Errorf("exchangeratesapi: %d %s", body.Error.Code, body.Error.Info)
		}
		return decimal.Zero, errors.New("exchangeratesapi: unsuccessful response")
	}

	eurUSD, ok := body.Rates["USD"]
	if !ok || eurUSD == 0 {
		return decimal.Zero, errors.New("exchangeratesapi: missing rate for USD")
	}
	eurJPY, ok := body.Rates["JPY"]
	if !ok {
		return decimal.Zero, errors.New("exchangeratesapi: missing rate for JPY")
	}

	rate := decimal.NewFromFloat(eurJPY).Div(decimal.NewFromFloat(eurUSD))
	return rate, nil
}
