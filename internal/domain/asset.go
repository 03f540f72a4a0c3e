package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ValuePrecision is the number of decimal places kept for per-unit values.
// Rounding is half away from zero (decimal.DivRound).
const ValuePrecision = 2

// CheckPrecision rejects monetary inputs with more than ValuePrecision significant decimal places.
// Stored values are NUMERIC(20,2).
func CheckPrecision(field string, d decimal.Decimal) error {
	if d.Exponent() < -ValuePrecision && !d.Equal(d.Round(ValuePrecision)) {
		return NewValidationError(field, fmt.Sprintf("%s cannot have more than %d decimal places", field, ValuePrecision))
	}
	return nil
}

// Asset represents a fractionally owned asset.
// Only fractions of an asset are owned, never the asset itself.
type Asset struct {
	ID         uuid.UUID       `json:"asset_id"`
	Name       string          `json:"asset_name"`
	TotalUnit  int64           `json:"total_unit"` // Fixed denomination count
	UnitMin    int64           `json:"unit_min"`
	UnitMax    int64           `json:"unit_max"`
	TotalValue decimal.Decimal `json:"total_value"` // Authoritative current value, history is the audit trail
	CreatedAt  time.Time       `json:"created_at"`
}

// Validate ensures the asset adheres to domain rules
// CRITICAL: unit_min <= unit_max <= total_unit and a positive total value
func (a *Asset) Validate() error {
	if a.Name == "" {
		return NewValidationError("asset_name", "Asset name cannot be empty")
	}
	if a.TotalUnit <= 0 {
		return NewValidationError("total_unit", "total_unit must be positive")
	}
	if a.UnitMin <= 0 {
		return NewValidationError("unit_min", "unit_min must be positive")
	}
	if a.UnitMin > a.UnitMax {
		return NewValidationError("unit_min", "unit_min cannot exceed unit_max")
	}
	if a.UnitMax > a.TotalUnit {
		return NewValidationError("unit_max", "unit_max cannot exceed total_unit")
	}
	if a.TotalValue.LessThanOrEqual(decimal.Zero) {
		return NewValidationError("total_value", "total_value must be positive")
	}
	return CheckPrecision("total_value", a.TotalValue)
}

// ValuePerUnit divides the total value across all units
func (a *Asset) ValuePerUnit() decimal.Decimal {
	return a.TotalValue.DivRound(decimal.NewFromInt(a.TotalUnit), ValuePrecision)
}
