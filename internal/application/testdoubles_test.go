package application

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"pricenavi-service/internal/domain"
)

var errProviderDown = errors.New("provider down")

type fakeCryptoQuoter struct {
	price   domain.AssetPrice
	history []domain.HistoryPoint
	err     error

	calls    int
	lastDays int
}

func (f *fakeCryptoQuoter) GetPrice(_ context.Context, _ string) (domain.AssetPrice, error) {
	f.calls++
	if f.err != nil {
		return domain.AssetPrice{}, f.err
	}
	return f.price, nil
}

func (f *fakeCryptoQuoter) GetHistory(_ context.Context, _ string, days int) ([]domain.HistoryPoint, error) {
	f.lastDays = days
	if f.err != nil {
		return nil, f.err
	}
	return f.history, nil
}

type fakeEquityQuoter struct {
	quote domain.EquityQuote
	bars  []domain.EquityBar
	err   error

	calls int
}

func (f *fakeEquityQuoter) GetPrice(_ context.Context, _ string) (domain.EquityQuote, error) {
	f.calls++
	if f.err != nil {
		return domain.EquityQuote{}, f.err
	}
	return f.quote, nil
}

func (f *fakeEquityQuoter) GetHistory(_ context.Context, _ string, _ int) ([]domain.EquityBar, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.bars, nil
}

type fakeRateSource struct {
	rate  decimal.Decimal
	err   error
	calls int
}

func (f *fakeRateSource) Rate(context.Context) (decimal.Decimal, error) {
	f.calls++
	if f.err != nil {
		return decimal.Zero, f.err
	}
	return f.rate, nil
}

type cacheKey struct {
	typ    domain.AssetType
	symbol string
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[cacheKey]domain.AssetPrice
	getErr  error
	setErr  error
	sets    int
}

func (f *fakeCache) Get(_ context.Context, typ domain.AssetType, symbol string) (domain.AssetPrice, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return domain.AssetPrice{}, false, f.getErr
	}
	p, ok := f.entries[cacheKey{typ, symbol}]
	return p, ok, nil
}

func (f *fakeCache) Set(_ context.Context, typ domain.AssetType, symbol string, p domain.AssetPrice) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	if f.entries == nil {
		f.entries = map[cacheKey]domain.AssetPrice{}
	}
	f.entries[cacheKey{typ, symbol}] = p
	f.sets++
	return nil
}

type fakeSink struct {
	mu      sync.Mutex
	entries []domain.NewPriceHistory
}

func (f *fakeSink) Enqueue(h domain.NewPriceHistory) {
	f.mu.Lock()
	f.entries = append(f.entries, h)
	f.mu.Unlock()
}

func (f *fakeSink) all() []domain.NewPriceHistory {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.NewPriceHistory, len(f.entries))
	copy(out, f.entries)
	return out
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
