package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"pricenavi-service/internal/domain"
)

// PriceService is the single entry point for asset prices. It hides which
// adapter backs a given asset class, normalizes the two quote shapes into
// the canonical dual-currency record, and hands every successful observation
// to the history sink. Nothing in this layer retries: a provider failure
// surfaces to the caller as-is.
type PriceService struct {
	crypto CryptoQuoter
	equity EquityQuoter
	rates  RateSource
	cache  PriceCache
	sink   HistorySink
	clock  func() time.Time
	log    *zap.Logger
}

type Option func(*PriceService)

func WithClock(now func() time.Time) Option {
	return func(s *PriceService) { s.clock = now }
}

func WithCache(c PriceCache) Option {
	return func(s *PriceService) { s.cache = c }
}

func WithSink(sink HistorySink) Option {
	return func(s *PriceService) { s.sink = sink }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *PriceService) { s.log = l }
}

func NewPriceService(crypto CryptoQuoter, equity EquityQuoter, rates RateSource, opts ...Option) *PriceService {
	s := &PriceService{
		crypto: crypto,
		equity: equity,
		rates:  rates,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = nopCache{}
	}
	if s.sink == nil {
		s.sink = nopSink{}
	}
	if s.clock == nil {
		s.clock = time.Now
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// GetAssetPrice returns the current canonical price for a symbol. The crypto
// path passes the provider's dual-currency quote through untouched; the
// stock path fetches the USD quote and derives JPY with one rate obtained in
// the same call, so both values describe the same instant.
func (s *PriceService) GetAssetPrice(ctx context.Context, symbol string, typ domain.AssetType) (domain.AssetPrice, error) {
	if p, ok, err := s.cache.Get(ctx, typ, symbol); err != nil {
		s.log.Warn("price_cache.get_failed", zap.String("symbol", symbol), zap.Error(err))
	} else if ok {
		return p, nil
	}

	var price domain.AssetPrice
	switch typ {
	case domain.AssetTypeCrypto:
		p, err := s.crypto.GetPrice(ctx, symbol)
		if err != nil {
			return domain.AssetPrice{}, err
		}
		price = p
	case domain.AssetTypeStock:
		q, err := s.equity.GetPrice(ctx, symbol)
		if err != nil {
			return domain.AssetPrice{}, err
		}
		rate, err := s.rates.Rate(ctx)
		if err != nil {
			return domain.AssetPrice{}, fmt.Errorf("usd/jpy rate: %w", err)
		}
		price = domain.AssetPrice{
			PriceUSD:  q.PriceUSD,
			PriceJPY:  domain.ConvertUSD(q.PriceUSD, rate),
			Change24h: q.ChangePercent,
		}
	default:
		return domain.AssetPrice{}, fmt.Errorf("unknown asset type: %s", typ)
	}

	if err := s.cache.Set(ctx, typ, symbol, price); err != nil {
		s.log.Warn("price_cache.set_failed", zap.String("symbol", symbol), zap.Error(err))
	}
	return price, nil
}

// GetAssetHistory returns a historical series for a symbol, newest-first for
// stocks and in upstream order for crypto. Days defaults to 7. The stock
// path applies one rate, fetched once per call, to every point: no
// historical FX source exists, so the whole batch shares the current rate.
func (s *PriceService) GetAssetHistory(ctx context.Context, symbol string, typ domain.AssetType, days int) ([]domain.HistoryPoint, error) {
	if days <= 0 {
		days = 7
	}

	switch typ {
	case domain.AssetTypeCrypto:
		return s.crypto.GetHistory(ctx, symbol, days)
	case domain.AssetTypeStock:
		bars, err := s.equity.GetHistory(ctx, symbol, days)
		if err != nil {
			return nil, err
		}
		rate, err := s.rates.Rate(ctx)
		if err != nil {
			return nil, fmt.Errorf("usd/jpy rate: %w", err)
		}
		points := make([]domain.HistoryPoint, 0, len(bars))
		for _, b := range bars {
			vol := b.Volume
			points = append(points, domain.HistoryPoint{
				Timestamp: b.Date,
				PriceUSD:  b.Close,
				PriceJPY:  domain.ConvertUSD(b.Close, rate),
				Volume:    &vol,
			})
		}
		return points, nil
	default:
		return nil, fmt.Errorf("unknown asset type: %s", typ)
	}
}

// FetchAndRecord fetches the current price for a registered asset and
// enqueues a history observation. The enqueue never blocks and a failed
// write never surfaces here: persistence is fire-and-forget on every path.
func (s *PriceService) FetchAndRecord(ctx context.Context, asset domain.Asset) (domain.AssetPrice, error) {
	price, err := s.GetAssetPrice(ctx, asset.Symbol, asset.Type)
	if err != nil {
		return domain.AssetPrice{}, err
	}
	s.sink.Enqueue(domain.NewPriceHistory{
		AssetID:   asset.ID,
		PriceUSD:  price.PriceUSD,
		PriceJPY:  price.PriceJPY,
		Timestamp: s.clock().UTC(),
	})
	return price, nil
}

// BatchPrice is one successful entry of a batch fetch.
type BatchPrice struct {
	Symbol string
	Price  domain.AssetPrice
}

// GetBatchPrices fetches all assets concurrently. The result has one slot
// per input asset, in input order; a failed fetch leaves a nil slot and a
// log line, and never aborts the rest of the batch.
func (s *PriceService) GetBatchPrices(ctx context.Context, assets []domain.Asset) []*BatchPrice {
	results := make([]*BatchPrice, len(assets))

	var wg sync.WaitGroup
	for i, asset := range assets {
		wg.Add(1)
		go func(i int, asset domain.Asset) {
			defer wg.Done()
			price, err := s.FetchAndRecord(ctx, asset)
			if err != nil {
				s.log.Warn("batch_prices.fetch_failed",
					zap.String("symbol", asset.Symbol),
					zap.String("type", string(asset.Type)),
					zap.Error(err),
				)
				return
			}
			results[i] = &BatchPrice{Symbol: asset.Symbol, Price: price}
		}(i, asset)
	}
	wg.Wait()
	return results
}

type nopCache struct{}

func (nopCache) Get(context.Context, domain.AssetType, string) (domain.AssetPrice, bool, error) {
	return domain.AssetPrice{}, false, nil
}
func (nopCache) Set(context.Context, domain.AssetType, string, domain.AssetPrice) error { return nil }

type nopSink struct{}

func (nopSink) Enqueue(domain.NewPriceHistory) {}
