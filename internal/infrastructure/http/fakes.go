package httpserver

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"pricenavi-service/internal/application"
	"pricenavi-service/internal/domain"
	"pricenavi-service/internal/infrastructure/memstore"
)

var _ application.CryptoQuoter = (*fakeCryptoQuoter)(nil)
var _ application.EquityQuoter = (*fakeEquityQuoter)(nil)
var _ application.RateSource = (*fakeRateSource)(nil)
var _ application.BitcoinFeed = (*fakeBitcoinFeed)(nil)

type fakeCryptoQuoter struct {
	prices map[string]domain.AssetPrice
	err    error
}

func (f *fakeCryptoQuoter) GetPrice(_ context.Context, symbol string) (domain.AssetPrice, error) {
	if f.err != nil {
		return domain.AssetPrice{}, f.err
	}
	p, ok := f.prices[symbol]
	if !ok {
		return domain.AssetPrice{}, &domain.DataNotFoundError{Provider: "fake", Symbol: symbol}
	}
	return p, nil
}

func (f *fakeCryptoQuoter) GetHistory(_ context.Context, _ string, days int) ([]domain.HistoryPoint, error) {
	if f.err != nil {
		return nil, f.err
	}
	points := make([]domain.HistoryPoint, 0, days)
	for i := 0; i < days; i++ {
		usd := decimal.NewFromInt(int64(60000 + i))
		points = append(points, domain.HistoryPoint{
			Timestamp: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			PriceUSD:  usd,
			PriceJPY:  usd.Mul(decimal.NewFromInt(150)),
		})
	}
	return points, nil
}

type fakeEquityQuoter struct {
	quotes map[string]domain.EquityQuote
	err    error
}

func (f *fakeEquityQuoter) GetPrice(_ context.Context, symbol string) (domain.EquityQuote, error) {
	if f.err != nil {
		return domain.EquityQuote{}, f.err
	}
	q, ok := f.quotes[symbol]
	if !ok {
		return domain.EquityQuote{}, &domain.DataNotFoundError{Provider: "fake", Symbol: symbol}
	}
	return q, nil
}

func (f *fakeEquityQuoter) GetHistory(_ context.Context, _ string, days int) ([]domain.EquityBar, error) {
	if f.err != nil {
		return nil, f.err
	}
	bars := make([]domain.EquityBar, 0, days)
	for i := 0; i < days; i++ {
		bars = append(bars, domain.EquityBar{
			Date:   time.Date(2025, 6, 7, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -i),
			Close:  decimal.NewFromInt(int64(150 - i)),
			Volume: decimal.NewFromInt(1000),
		})
	}
	return bars, nil
}

type fakeRateSource struct {
	rate decimal.Decimal
}

func (f *fakeRateSource) Rate(context.Context) (decimal.Decimal, error) {
	if f.rate.IsZero() {
		return decimal.NewFromInt(150), nil
	}
	return f.rate, nil
}

type fakeBitcoinFeed struct {
	snap domain.BitcoinSnapshot
	err  error
}

func (f *fakeBitcoinFeed) Snapshot(context.Context) (domain.BitcoinSnapshot, error) {
	if f.err != nil {
		return domain.BitcoinSnapshot{}, f.err
	}
	return f.snap, nil
}

func (f *fakeBitcoinFeed) Chart(_ context.Context, days int) ([]domain.ChartPoint, error) {
	if f.err != nil {
		return nil, f.err
	}
	points := make([]domain.ChartPoint, 0, days)
	for i := 0; i < days; i++ {
		points = append(points, domain.ChartPoint{
			Timestamp: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Price:     decimal.NewFromInt(int64(9000000 + i)),
		})
	}
	return points, nil
}

// NewInMemoryServer wires a Server against the mem store and static fake
// providers; used by handler tests and nowhere else.
func NewInMemoryServer() (*Server, *memstore.Store) {
	store := memstore.New()
	crypto := &fakeCryptoQuoter{prices: map[string]domain.AssetPrice{
		"BTC": {
			PriceUSD:  decimal.NewFromInt(65000),
			PriceJPY:  decimal.NewFromInt(9750000),
			Change24h: decimal.RequireFromString("2.4"),
		},
	}}
	equity := &fakeEquityQuoter{quotes: map[string]domain.EquityQuote{
		"AAPL": {
			PriceUSD:      decimal.RequireFromString("150.25"),
			ChangePercent: decimal.RequireFromString("-1.2"),
		},
	}}
	btc := &fakeBitcoinFeed{snap: domain.BitcoinSnapshot{
		USD:          decimal.NewFromInt(65000),
		USD24hChange: decimal.RequireFromString("2.4"),
		JPY:          decimal.NewFromInt(9750000),
		JPY24hChange: decimal.RequireFromString("2.3"),
	}}
	svc := application.NewPriceService(crypto, equity, &fakeRateSource{})
	return NewServer(svc, store, btc), store
}
