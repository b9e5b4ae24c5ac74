package worker_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"pricenavi-service/internal/application"
	"pricenavi-service/internal/domain"
	"pricenavi-service/internal/infrastructure/memstore"
	"pricenavi-service/internal/infrastructure/worker"
)

type staticCrypto struct{ price domain.AssetPrice }

func (s staticCrypto) GetPrice(context.Context, string) (domain.AssetPrice, error) {
	return s.price, nil
}

func (s staticCrypto) GetHistory(context.Context, string, int) ([]domain.HistoryPoint, error) {
	return nil, nil
}

type staticEquity struct{}

func (staticEquity) GetPrice(context.Context, string) (domain.EquityQuote, error) {
	return domain.EquityQuote{PriceUSD: decimal.NewFromInt(100)}, nil
}

func (staticEquity) GetHistory(context.Context, string, int) ([]domain.EquityBar, error) {
	return nil, nil
}

type staticRate struct{}

func (staticRate) Rate(context.Context) (decimal.Decimal, error) {
	return decimal.NewFromInt(150), nil
}

func TestPoller_RecordsHistoryEachTick(t *testing.T) {
	t.Parallel()
	store := memstore.New()
	ctx := context.Background()
	asset, err := store.CreateAsset(ctx, domain.NewAsset{Symbol: "BTC", Name: "Bitcoin", Type: domain.AssetTypeCrypto})
	require.NoError(t, err)

	writer := worker.NewHistoryWriter(store, 16, nil)
	svc := application.NewPriceService(
		staticCrypto{price: domain.AssetPrice{
			PriceUSD: decimal.NewFromInt(65000),
			PriceJPY: decimal.NewFromInt(9750000),
		}},
		staticEquity{},
		staticRate{},
		application.WithSink(writer),
	)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go writer.Start(runCtx)

	p := &worker.Poller{
		Store:     store,
		Svc:       svc,
		PollEvery: 20 * time.Millisecond,
	}
	go p.Start(runCtx)

	require.Eventually(t, func() bool {
		h, err := store.GetPriceHistory(ctx, asset.ID, 0)
		return err == nil && len(h) >= 2
	}, 2*time.Second, 10*time.Millisecond)

	h, err := store.GetPriceHistory(ctx, asset.ID, 1)
	require.NoError(t, err)
	require.True(t, h[0].PriceUSD.Equal(decimal.NewFromInt(65000)))
	require.True(t, h[0].PriceJPY.Equal(decimal.NewFromInt(9750000)))
}
