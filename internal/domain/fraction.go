package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Fraction represents a unit-bearing ownership record held by one user.
// Depleted fractions keep their row with zero units as an audit record.
type Fraction struct {
	ID               uuid.UUID       `json:"fraction_id"`
	AssetID          uuid.UUID       `json:"asset_id"`
	OwnerID          uuid.UUID       `json:"owner_id"`
	ParentFractionID *uuid.UUID      `json:"parent_fraction_id"` // Lineage only, never an ownership edge
	Units            int64           `json:"units"`
	IsActive         bool            `json:"is_active"`
	ValuePerUnit     decimal.Decimal `json:"value_perunit"`
	CreatedAt        time.Time       `json:"created_at"`
}

// Consume removes units from the fraction and deactivates it once depleted
func (f *Fraction) Consume(units int64) {
	f.Units -= units
	if f.Units == 0 {
		f.IsActive = false
	}
}

// TotalUnits sums the units of the given fractions
func TotalUnits(fractions []*Fraction) int64 {
	var total int64
	for _, f := range fractions {
		total += f.Units
	}
	return total
}

// AssetUnits is the number of active units a user holds of one asset
type AssetUnits struct {
	AssetID uuid.UUID
	Units   int64
}
