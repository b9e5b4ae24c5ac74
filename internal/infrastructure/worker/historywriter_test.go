package worker_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"pricenavi-service/internal/domain"
	"pricenavi-service/internal/infrastructure/memstore"
	"pricenavi-service/internal/infrastructure/worker"
)

func TestHistoryWriter_WritesEnqueued(t *testing.T) {
	t.Parallel()
	store := memstore.New()
	ctx := context.Background()
	asset, err := store.CreateAsset(ctx, domain.NewAsset{Symbol: "BTC", Name: "Bitcoin", Type: domain.AssetTypeCrypto})
	require.NoError(t, err)

	w := worker.NewHistoryWriter(store, 16, nil)
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		w.Start(runCtx)
		close(done)
	}()

	for i := 0; i < 3; i++ {
		w.Enqueue(domain.NewPriceHistory{
			AssetID:   asset.ID,
			PriceUSD:  decimal.NewFromInt(int64(65000 + i)),
			PriceJPY:  decimal.NewFromInt(int64((65000 + i) * 150)),
			Timestamp: time.Now().UTC(),
		})
	}

	require.Eventually(t, func() bool {
		h, err := store.GetPriceHistory(ctx, asset.ID, 0)
		return err == nil && len(h) == 3
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestHistoryWriter_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	t.Parallel()
	store := memstore.New()
	ctx := context.Background()
	asset, err := store.CreateAsset(ctx, domain.NewAsset{Symbol: "ETH", Name: "Ethereum", Type: domain.AssetTypeCrypto})
	require.NoError(t, err)

	// Writer never started: the buffer fills and extra entries must drop
	// without blocking the caller.
	w := worker.NewHistoryWriter(store, 2, nil)
	doneEnqueue := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			w.Enqueue(domain.NewPriceHistory{AssetID: asset.ID, Timestamp: time.Now().UTC()})
		}
		close(doneEnqueue)
	}()

	select {
	case <-doneEnqueue:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full buffer")
	}
}

func TestHistoryWriter_FlushesOnShutdown(t *testing.T) {
	t.Parallel()
	store := memstore.New()
	ctx := context.Background()
	asset, err := store.CreateAsset(ctx, domain.NewAsset{Symbol: "SOL", Name: "Solana", Type: domain.AssetTypeCrypto})
	require.NoError(t, err)

	w := worker.NewHistoryWriter(store, 16, nil)
	for i := 0; i < 4; i++ {
		w.Enqueue(domain.NewPriceHistory{
			AssetID:   asset.ID,
			PriceUSD:  decimal.NewFromInt(140),
			PriceJPY:  decimal.NewFromInt(21000),
			Timestamp: time.Now().UTC(),
		})
	}

	runCtx, cancel := context.WithCancel(ctx)
	cancel()
	done := make(chan struct{})
	go func() {
		w.Start(runCtx)
		close(done)
	}()
	<-done

	h, err := store.GetPriceHistory(ctx, asset.ID, 0)
	require.NoError(t, err)
	require.Len(t, h, 4, "queued entries flush on shutdown")
}
