package domain

import (
	"strings"
	"time"
)

type AssetType string

const (
	AssetTypeCrypto AssetType = "crypto"
	AssetTypeStock  AssetType = "stock"
)

func ValidAssetType(s string) bool {
	return AssetType(s) == AssetTypeCrypto || AssetType(s) == AssetTypeStock
}

// Asset is a tracked tradable instrument, identified by its ticker symbol.
// Symbols match case-insensitively.
type Asset struct {
	ID        string    `json:"id"`
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	Type      AssetType `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// NewAsset carries the caller-supplied fields of an asset; the store assigns
// ID and CreatedAt.
type NewAsset struct {
	Symbol string    `json:"symbol"`
	Name   string    `json:"name"`
	Type   AssetType `json:"type"`
}

// MatchesSymbol reports whether sym refers to this asset, ignoring case.
func (a Asset) MatchesSymbol(sym string) bool {
	return strings.EqualFold(a.Symbol, sym)
}
