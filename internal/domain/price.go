package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetPrice is the canonical result of a single price fetch. Both currency
// values derive from the same quote instant: either the upstream returned
// both natively (crypto) or the JPY side was computed from the USD side with
// one rate obtained during the same call (stock). Records are built fresh
// per fetch and never mutated.
type AssetPrice struct {
	PriceUSD  decimal.Decimal `json:"price_usd"`
	PriceJPY  decimal.Decimal `json:"price_jpy"`
	Change24h decimal.Decimal `json:"change_24h"`
}

// HistoryPoint is one entry of a historical price series in the canonical
// dual-currency shape. Volume is absent for crypto series.
type HistoryPoint struct {
	Timestamp time.Time        `json:"timestamp"`
	PriceUSD  decimal.Decimal  `json:"price_usd"`
	PriceJPY  decimal.Decimal  `json:"price_jpy"`
	Volume    *decimal.Decimal `json:"volume,omitempty"`
}

// EquityQuote is the single-currency quote shape of the equities provider.
type EquityQuote struct {
	PriceUSD      decimal.Decimal
	ChangePercent decimal.Decimal
}

// EquityBar is one daily close from the equities provider, pre currency
// normalization.
type EquityBar struct {
	Date   time.Time
	Close  decimal.Decimal
	Volume decimal.Decimal
}

// PriceHistory is a persisted price observation. Entries are append-only and
// read back newest-first; they disappear only when their owning asset is
// deleted.
type PriceHistory struct {
	ID        string           `json:"id"`
	AssetID   string           `json:"asset_id"`
	PriceUSD  decimal.Decimal  `json:"price_usd"`
	PriceJPY  decimal.Decimal  `json:"price_jpy"`
	Volume    *decimal.Decimal `json:"volume"`
	Timestamp time.Time        `json:"timestamp"`
}

// NewPriceHistory carries the fields of an observation to persist; the store
// assigns the ID.
type NewPriceHistory struct {
	AssetID   string
	PriceUSD  decimal.Decimal
	PriceJPY  decimal.Decimal
	Volume    *decimal.Decimal
	Timestamp time.Time
}

// ConvertUSD converts a USD amount into the secondary currency using the
// given exchange rate.
func ConvertUSD(amountUSD, rate decimal.Decimal) decimal.Decimal {
	return amountUSD.Mul(rate)
}

// BitcoinSnapshot is the dual-currency spot view used by the dashboard's
// Bitcoin widget.
type BitcoinSnapshot struct {
	USD          decimal.Decimal `json:"usd"`
	USD24hChange decimal.Decimal `json:"usd_24h_change"`
	JPY          decimal.Decimal `json:"jpy"`
	JPY24hChange decimal.Decimal `json:"jpy_24h_change"`
}

// ChartPoint is one (timestamp, price) sample of a chart series.
type ChartPoint struct {
	Timestamp time.Time
	Price     decimal.Decimal
}
