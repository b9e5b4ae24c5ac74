package pg_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"pricenavi-service/internal/application"
	"pricenavi-service/internal/domain"
	"pricenavi-service/internal/infrastructure/pg"
)

func TestStore_Roundtrip(t *testing.T) {
	db, teardown := withPostgres(t)
	defer teardown()
	ctx := context.Background()
	store := pg.NewStore(db)

	asset, err := store.CreateAsset(ctx, domain.NewAsset{Symbol: "BTC", Name: "Bitcoin", Type: domain.AssetTypeCrypto})
	require.NoError(t, err)
	require.NotEmpty(t, asset.ID)

	_, err = store.CreateAsset(ctx, domain.NewAsset{Symbol: "btc", Name: "dup", Type: domain.AssetTypeCrypto})
	require.ErrorIs(t, err, application.ErrConflict)

	got, err := store.GetAssetByID(ctx, asset.ID)
	require.NoError(t, err)
	require.Equal(t, "BTC", got.Symbol)

	alert, err := store.CreateAlert(ctx, domain.NewAlert{
		AssetID:   asset.ID,
		Type:      domain.AlertTypeHigh,
		Threshold: decimal.RequireFromString("9500000.50"),
		Currency:  domain.CurrencyJPY,
		IsActive:  true,
	})
	require.NoError(t, err)

	alerts, err := store.GetAlertsByAssetID(ctx, asset.ID)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	require.True(t, alerts[0].Threshold.Equal(decimal.RequireFromString("9500000.50")), "numeric survives the roundtrip exactly")

	triggered := true
	now := time.Now().UTC().Truncate(time.Microsecond)
	updated, err := store.UpdateAlert(ctx, alert.ID, domain.AlertPatch{IsTriggered: &triggered, TriggeredAt: &now})
	require.NoError(t, err)
	require.True(t, updated.IsTriggered)
	require.True(t, updated.IsActive, "untouched fields survive a patch")

	vol := decimal.NewFromInt(12345)
	for i := 0; i < 3; i++ {
		_, err := store.AddPriceHistory(ctx, domain.NewPriceHistory{
			AssetID:   asset.ID,
			PriceUSD:  decimal.NewFromInt(int64(65000 + i)),
			PriceJPY:  decimal.NewFromInt(int64((65000 + i) * 150)),
			Volume:    &vol,
			Timestamp: now.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	history, err := store.GetPriceHistory(ctx, asset.ID, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.True(t, history[0].Timestamp.After(history[1].Timestamp), "newest first")
	require.NotNil(t, history[0].Volume)
}

func TestStore_DeleteAssetCascades(t *testing.T) {
	db, teardown := withPostgres(t)
	defer teardown()
	ctx := context.Background()
	store := pg.NewStore(db)

	asset, err := store.CreateAsset(ctx, domain.NewAsset{Symbol: "ETH", Name: "Ethereum", Type: domain.AssetTypeCrypto})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := store.CreateAlert(ctx, domain.NewAlert{
			AssetID:   asset.ID,
			Type:      domain.AlertTypeLow,
			Threshold: decimal.NewFromInt(2000),
			Currency:  domain.CurrencyUSD,
		})
		require.NoError(t, err)
	}
	for i := 0; i < 5; i++ {
		_, err := store.AddPriceHistory(ctx, domain.NewPriceHistory{
			AssetID:   asset.ID,
			PriceUSD:  decimal.NewFromInt(3000),
			PriceJPY:  decimal.NewFromInt(450000),
			Timestamp: time.Now().UTC(),
		})
		require.NoError(t, err)
	}

	require.NoError(t, store.DeleteAsset(ctx, asset.ID))

	alerts, err := store.GetAlertsByAssetID(ctx, asset.ID)
	require.NoError(t, err)
	require.Empty(t, alerts)
	history, err := store.GetPriceHistory(ctx, asset.ID, 0)
	require.NoError(t, err)
	require.Empty(t, history)

	require.ErrorIs(t, store.DeleteAsset(ctx, asset.ID), application.ErrNotFound)
}

func TestStore_OrphanWritesRejected(t *testing.T) {
	db, teardown := withPostgres(t)
	defer teardown()
	ctx := context.Background()
	store := pg.NewStore(db)

	_, err := store.CreateAlert(ctx, domain.NewAlert{
		AssetID:   "00000000-0000-0000-0000-000000000000",
		Type:      domain.AlertTypeHigh,
		Threshold: decimal.NewFromInt(1),
		Currency:  domain.CurrencyUSD,
	})
	require.ErrorIs(t, err, application.ErrNotFound)

	_, err = store.AddPriceHistory(ctx, domain.NewPriceHistory{
		AssetID:   "00000000-0000-0000-0000-000000000000",
		PriceUSD:  decimal.NewFromInt(1),
		PriceJPY:  decimal.NewFromInt(150),
		Timestamp: time.Now().UTC(),
	})
	require.ErrorIs(t, err, application.ErrNotFound)
}
