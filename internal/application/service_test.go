package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pricenavi-service/internal/domain"
)

func Test_GetAssetPrice_CryptoPassthrough(t *testing.T) {
	t.Parallel()
	crypto := &fakeCryptoQuoter{price: domain.AssetPrice{
		PriceUSD:  dec("65000"),
		PriceJPY:  dec("9823000.5"),
		Change24h: dec("2.4"),
	}}
	rates := &fakeRateSource{rate: dec("150")}
	svc := NewPriceService(crypto, &fakeEquityQuoter{}, rates)

	p, err := svc.GetAssetPrice(context.Background(), "BTC", domain.AssetTypeCrypto)
	require.NoError(t, err)
	// The provider's native JPY value survives untouched; the converter is
	// never consulted on the crypto path.
	require.True(t, p.PriceJPY.Equal(dec("9823000.5")))
	require.True(t, p.PriceUSD.Equal(dec("65000")))
	require.Equal(t, 0, rates.calls)
}

func Test_GetAssetPrice_StockConvertsWithCurrentRate(t *testing.T) {
	t.Parallel()
	equity := &fakeEquityQuoter{quote: domain.EquityQuote{
		PriceUSD:      dec("150.25"),
		ChangePercent: dec("-1.2"),
	}}
	rates := &fakeRateSource{rate: dec("150")}
	svc := NewPriceService(&fakeCryptoQuoter{}, equity, rates)

	p, err := svc.GetAssetPrice(context.Background(), "AAPL", domain.AssetTypeStock)
	require.NoError(t, err)
	require.True(t, p.PriceUSD.Equal(dec("150.25")))
	require.True(t, p.PriceJPY.Equal(dec("150.25").Mul(dec("150"))))
	require.True(t, p.Change24h.Equal(dec("-1.2")))
	require.Equal(t, 1, rates.calls)
}

func Test_GetAssetPrice_UnknownType(t *testing.T) {
	t.Parallel()
	svc := NewPriceService(&fakeCryptoQuoter{}, &fakeEquityQuoter{}, &fakeRateSource{})

	_, err := svc.GetAssetPrice(context.Background(), "X", domain.AssetType("bond"))
	require.Error(t, err)
}

func Test_GetAssetPrice_CacheHitSkipsProvider(t *testing.T) {
	t.Parallel()
	cached := domain.AssetPrice{PriceUSD: dec("1"), PriceJPY: dec("150"), Change24h: dec("0")}
	cache := &fakeCache{entries: map[cacheKey]domain.AssetPrice{
		{domain.AssetTypeCrypto, "BTC"}: cached,
	}}
	crypto := &fakeCryptoQuoter{err: errProviderDown}
	svc := NewPriceService(crypto, &fakeEquityQuoter{}, &fakeRateSource{}, WithCache(cache))

	p, err := svc.GetAssetPrice(context.Background(), "BTC", domain.AssetTypeCrypto)
	require.NoError(t, err)
	require.True(t, p.PriceUSD.Equal(dec("1")))
	require.Equal(t, 0, crypto.calls)
}

func Test_GetAssetPrice_PopulatesCacheAfterFetch(t *testing.T) {
	t.Parallel()
	cache := &fakeCache{}
	crypto := &fakeCryptoQuoter{price: domain.AssetPrice{PriceUSD: dec("2"), PriceJPY: dec("300")}}
	svc := NewPriceService(crypto, &fakeEquityQuoter{}, &fakeRateSource{}, WithCache(cache))

	_, err := svc.GetAssetPrice(context.Background(), "ETH", domain.AssetTypeCrypto)
	require.NoError(t, err)
	require.Equal(t, 1, cache.sets)
}

func Test_GetAssetPrice_CacheFailuresAreIgnored(t *testing.T) {
	t.Parallel()
	cache := &fakeCache{getErr: errProviderDown, setErr: errProviderDown}
	crypto := &fakeCryptoQuoter{price: domain.AssetPrice{PriceUSD: dec("2"), PriceJPY: dec("300")}}
	svc := NewPriceService(crypto, &fakeEquityQuoter{}, &fakeRateSource{}, WithCache(cache))

	p, err := svc.GetAssetPrice(context.Background(), "ETH", domain.AssetTypeCrypto)
	require.NoError(t, err)
	require.True(t, p.PriceUSD.Equal(dec("2")))
}

func Test_FetchAndRecord_EnqueuesObservation(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	sink := &fakeSink{}
	crypto := &fakeCryptoQuoter{price: domain.AssetPrice{
		PriceUSD: dec("65000"), PriceJPY: dec("9750000"), Change24h: dec("1.1"),
	}}
	svc := NewPriceService(crypto, &fakeEquityQuoter{}, &fakeRateSource{},
		WithSink(sink),
		WithClock(func() time.Time { return now }),
	)

	asset := domain.Asset{ID: "a-1", Symbol: "BTC", Type: domain.AssetTypeCrypto}
	_, err := svc.FetchAndRecord(context.Background(), asset)
	require.NoError(t, err)

	entries := sink.all()
	require.Len(t, entries, 1)
	require.Equal(t, "a-1", entries[0].AssetID)
	require.True(t, entries[0].PriceUSD.Equal(dec("65000")))
	require.True(t, entries[0].PriceJPY.Equal(dec("9750000")))
	require.Equal(t, now, entries[0].Timestamp)
}

func Test_FetchAndRecord_NoEntryOnFailure(t *testing.T) {
	t.Parallel()
	sink := &fakeSink{}
	crypto := &fakeCryptoQuoter{err: errProviderDown}
	svc := NewPriceService(crypto, &fakeEquityQuoter{}, &fakeRateSource{}, WithSink(sink))

	_, err := svc.FetchAndRecord(context.Background(), domain.Asset{ID: "a-1", Symbol: "BTC", Type: domain.AssetTypeCrypto})
	require.ErrorIs(t, err, errProviderDown)
	require.Empty(t, sink.all())
}

func Test_GetBatchPrices_PartialFailure(t *testing.T) {
	t.Parallel()
	crypto := &fakeCryptoQuoter{price: domain.AssetPrice{PriceUSD: dec("65000"), PriceJPY: dec("9750000")}}
	equity := &fakeEquityQuoter{err: errProviderDown}
	svc := NewPriceService(crypto, equity, &fakeRateSource{rate: dec("150")})

	assets := []domain.Asset{
		{ID: "a-1", Symbol: "BTC", Type: domain.AssetTypeCrypto},
		{ID: "a-2", Symbol: "INVALID", Type: domain.AssetTypeStock},
	}
	results := svc.GetBatchPrices(context.Background(), assets)

	require.Len(t, results, 2)
	require.NotNil(t, results[0])
	require.Equal(t, "BTC", results[0].Symbol)
	require.Nil(t, results[1], "failed fetch leaves a nil slot, batch survives")
}

func Test_GetBatchPrices_PreservesInputOrder(t *testing.T) {
	t.Parallel()
	crypto := &fakeCryptoQuoter{price: domain.AssetPrice{PriceUSD: dec("1"), PriceJPY: dec("150")}}
	svc := NewPriceService(crypto, &fakeEquityQuoter{}, &fakeRateSource{})

	assets := []domain.Asset{
		{ID: "a-1", Symbol: "BTC", Type: domain.AssetTypeCrypto},
		{ID: "a-2", Symbol: "ETH", Type: domain.AssetTypeCrypto},
		{ID: "a-3", Symbol: "SOL", Type: domain.AssetTypeCrypto},
	}
	results := svc.GetBatchPrices(context.Background(), assets)

	require.Len(t, results, 3)
	for i, asset := range assets {
		require.NotNil(t, results[i])
		require.Equal(t, asset.Symbol, results[i].Symbol)
	}
}

func Test_GetAssetHistory_StockAppliesOneRateToWholeBatch(t *testing.T) {
	t.Parallel()
	equity := &fakeEquityQuoter{bars: []domain.EquityBar{
		{Date: time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), Close: dec("151"), Volume: dec("1000")},
		{Date: time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC), Close: dec("149"), Volume: dec("2000")},
		{Date: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), Close: dec("150"), Volume: dec("1500")},
	}}
	rates := &fakeRateSource{rate: dec("147.5")}
	svc := NewPriceService(&fakeCryptoQuoter{}, equity, rates)

	points, err := svc.GetAssetHistory(context.Background(), "AAPL", domain.AssetTypeStock, 3)
	require.NoError(t, err)
	require.Len(t, points, 3)
	require.Equal(t, 1, rates.calls, "one rate fetch per call, not per point")
	for _, p := range points {
		require.True(t, p.PriceJPY.Equal(p.PriceUSD.Mul(dec("147.5"))))
		require.NotNil(t, p.Volume)
	}
}

func Test_GetAssetHistory_DaysDefaultsToSeven(t *testing.T) {
	t.Parallel()
	crypto := &fakeCryptoQuoter{}
	svc := NewPriceService(crypto, &fakeEquityQuoter{}, &fakeRateSource{})

	_, err := svc.GetAssetHistory(context.Background(), "BTC", domain.AssetTypeCrypto, 0)
	require.NoError(t, err)
	require.Equal(t, 7, crypto.lastDays)
}
