package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Offer represents a standing buy or sell order.
// IsValid goes from true (open) to false (filled or cancelled) and never back.
type Offer struct {
	ID           uuid.UUID       `json:"offer_id"`
	AssetID      uuid.UUID       `json:"asset_id"`
	UserID       uuid.UUID       `json:"user_id"`
	IsBuyer      bool            `json:"is_buyer"`
	Units        int64           `json:"units"`
	PricePerUnit decimal.Decimal `json:"price_perunit"`
	IsValid      bool            `json:"is_valid"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Side returns "buy" or "sell"
func (o *Offer) Side() string {
	return SideName(o.IsBuyer)
}

// TotalValue is units times the price per unit
func (o *Offer) TotalValue() decimal.Decimal {
	return o.PricePerUnit.Mul(decimal.NewFromInt(o.Units))
}

// SideName returns "buy" or "sell"
func SideName(isBuyer bool) string {
	if isBuyer {
		return "buy"
	}
	return "sell"
}

// OfferSortField is a column offers can be sorted by
type OfferSortField string

const (
	OfferSortCreatedAt    OfferSortField = "created_at"
	OfferSortPricePerUnit OfferSortField = "price_perunit"
	OfferSortUnits        OfferSortField = "units"
)

// Valid reports whether the sort field is known
func (f OfferSortField) Valid() bool {
	switch f {
	case OfferSortCreatedAt, OfferSortPricePerUnit, OfferSortUnits:
		return true
	}
	return false
}

// OfferQuery filters, sorts and paginates offers.
// Nil fields do not filter. Limit <= 0 returns every match.
type OfferQuery struct {
	AssetID       *uuid.UUID
	UserID        *uuid.UUID
	IsBuyer       *bool
	IsValid       *bool
	MinPrice      *decimal.Decimal
	MaxPrice      *decimal.Decimal
	MinUnits      *int64
	MaxUnits      *int64
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	SortBy        OfferSortField
	Descending    bool
	Limit         int
	Offset        int
}
