package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AlertType string

const (
	AlertTypeHigh AlertType = "high"
	AlertTypeLow  AlertType = "low"
)

func ValidAlertType(s string) bool {
	return AlertType(s) == AlertTypeHigh || AlertType(s) == AlertTypeLow
}

type Currency string

const (
	CurrencyJPY Currency = "JPY"
	CurrencyUSD Currency = "USD"
)

func ValidCurrency(s string) bool {
	return Currency(s) == CurrencyJPY || Currency(s) == CurrencyUSD
}

// Alert is a user-configured price threshold on an asset. Alerts are plain
// configuration records here; nothing in this service evaluates them against
// live prices.
type Alert struct {
	ID          string          `json:"id"`
	AssetID     string          `json:"asset_id"`
	Type        AlertType       `json:"type"`
	Threshold   decimal.Decimal `json:"threshold"`
	Currency    Currency        `json:"currency"`
	IsActive    bool            `json:"is_active"`
	IsTriggered bool            `json:"is_triggered"`
	TriggeredAt *time.Time      `json:"triggered_at"`
	CreatedAt   time.Time       `json:"created_at"`
}

// NewAlert carries the caller-supplied fields of an alert; the store assigns
// ID and CreatedAt.
type NewAlert struct {
	AssetID     string          `json:"asset_id"`
	Type        AlertType       `json:"type"`
	Threshold   decimal.Decimal `json:"threshold"`
	Currency    Currency        `json:"currency"`
	IsActive    bool            `json:"is_active"`
	IsTriggered bool            `json:"is_triggered"`
	TriggeredAt *time.Time      `json:"triggered_at"`
}

// AlertPatch is a partial update; nil fields are left untouched.
type AlertPatch struct {
	Type        *AlertType       `json:"type"`
	Threshold   *decimal.Decimal `json:"threshold"`
	Currency    *Currency        `json:"currency"`
	IsActive    *bool            `json:"is_active"`
	IsTriggered *bool            `json:"is_triggered"`
	TriggeredAt *time.Time       `json:"triggered_at"`
}

// Apply copies the non-nil patch fields onto a.
func (p AlertPatch) Apply(a *Alert) {
	if p.Type != nil {
		a.Type = *p.Type
	}
	if p.Threshold != nil {
		a.Threshold = *p.Threshold
	}
	if p.Currency != nil {
		a.Currency = *p.Currency
	}
	if p.IsActive != nil {
		a.IsActive = *p.IsActive
	}
	if p.IsTriggered != nil {
		a.IsTriggered = *p.IsTriggered
	}
	if p.TriggeredAt != nil {
		a.TriggeredAt = p.TriggeredAt
	}
}
