package application

import (
	"context"

	"github.com/shopspring/decimal"

	"pricenavi-service/internal/domain"
)

// Store is the persistence contract for asset metadata, alert configuration
// and price history. Backends are interchangeable; the service depends only
// on this interface.
type Store interface {
	GetAssets(ctx context.Context) ([]domain.Asset, error)
	GetAssetByID(ctx context.Context, id string) (domain.Asset, error)
	// CreateAsset assigns ID and CreatedAt.
	CreateAsset(ctx context.Context, a domain.NewAsset) (domain.Asset, error)
	// DeleteAsset cascade-deletes the asset's alerts and price history.
	DeleteAsset(ctx context.Context, id string) error

	GetAlerts(ctx context.Context) ([]domain.Alert, error)
	GetAlertsByAssetID(ctx context.Context, assetID string) ([]domain.Alert, error)
	CreateAlert(ctx context.Context, a domain.NewAlert) (domain.Alert, error)
	UpdateAlert(ctx context.Context, id string, patch domain.AlertPatch) (domain.Alert, error)
	DeleteAlert(ctx context.Context, id string) error

	// GetPriceHistory returns entries newest-first; limit <= 0 means all.
	GetPriceHistory(ctx context.Context, assetID string, limit int) ([]domain.PriceHistory, error)
	AddPriceHistory(ctx context.Context, h domain.NewPriceHistory) (domain.PriceHistory, error)
}

// CryptoQuoter fetches crypto quotes. The upstream returns USD and JPY from
// the same quote, so no currency conversion happens on this path.
type CryptoQuoter interface {
	GetPrice(ctx context.Context, symbol string) (domain.AssetPrice, error)
	GetHistory(ctx context.Context, symbol string, days int) ([]domain.HistoryPoint, error)
}

// EquityQuoter fetches USD-only equity quotes and daily series.
type EquityQuoter interface {
	GetPrice(ctx context.Context, symbol string) (domain.EquityQuote, error)
	GetHistory(ctx context.Context, symbol string, days int) ([]domain.EquityBar, error)
}

// RateSource returns the current USD→JPY conversion rate.
type RateSource interface {
	Rate(ctx context.Context) (decimal.Decimal, error)
}

// BitcoinFeed backs the dashboard's Bitcoin widget: a dual-currency spot
// snapshot plus a JPY chart series.
type BitcoinFeed interface {
	Snapshot(ctx context.Context) (domain.BitcoinSnapshot, error)
	Chart(ctx context.Context, days int) ([]domain.ChartPoint, error)
}

// PriceCache holds recent fetch results for a short staleness window. It is
// an optimization only: every method may fail without affecting correctness,
// and callers log and move on.
type PriceCache interface {
	Get(ctx context.Context, typ domain.AssetType, symbol string) (domain.AssetPrice, bool, error)
	Set(ctx context.Context, typ domain.AssetType, symbol string, p domain.AssetPrice) error
}

// HistorySink accepts price observations for asynchronous persistence.
// Enqueue must not block: a full sink drops the entry (logged by the
// implementation). A failed history write never fails a price response.
type HistorySink interface {
	Enqueue(h domain.NewPriceHistory)
}
