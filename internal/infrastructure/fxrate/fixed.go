// Package fxrate supplies USD to JPY conversion rates. The dashboard ships
// with a fixed rate; a live source backed by exchangeratesapi.io can be
// swapped in through configuration.
package fxrate

import (
	"context"

	"github.com/shopspring/decimal"

	"pricenavi-service/internal/application"
)

// DefaultRate is the fixed USD to JPY rate used when no live source is
// configured.
var DefaultRate = decimal.NewFromInt(150)

// Fixed returns the same rate on every call. The zero value serves
// DefaultRate.
type Fixed struct {
	Value decimal.Decimal
}

var _ application.RateSource = (*Fixed)(nil)

func (f *Fixed) Rate(context.Context) (decimal.Decimal, error) {
	if f.Value.IsZero() {
		return DefaultRate, nil
	}
	return f.Value, nil
}
