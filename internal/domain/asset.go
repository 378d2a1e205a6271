package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Asset describes a custodied asset known to the registry.
type Asset struct {
	// Code is the asset's ticker within the fund, e.g. "GOLD".
	Code string `json:"code"`
	// Precision is the number of decimal places quotes and holdings of this
	// asset must carry. Holdings and quotes with disagreeing precision are a
	// configuration fault.
	Precision int32 `json:"precision"`
	// FeedSymbol is the symbol under which the external quote source prices
	// this asset, e.g. "tether" or "gold".
	FeedSymbol string `json:"feedSymbol"`
}

// AssetHolding is the custody adapter's position in one asset.
// Read-only to the valuation and transfer engines.
type AssetHolding struct {
	Asset     Asset           `json:"asset"`
	Quantity  decimal.Decimal `json:"quantity"`
	Precision int32           `json:"precision"`
}

// PriceQuote is one asset's price in base currency as served by a feed.
type PriceQuote struct {
	Asset     Asset           `json:"asset"`
	Price     decimal.Decimal `json:"price"`
	Precision int32           `json:"precision"`
	At        time.Time       `json:"at"`
}
