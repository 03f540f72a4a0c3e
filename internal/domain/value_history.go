package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ValueSource records why a valuation snapshot was written
type ValueSource string

const (
	ValueSourceInitialCreation ValueSource = "initial_creation"
	ValueSourceManualAdjust    ValueSource = "manual_adjust"
)

// AssetValueHistory is an append-only valuation snapshot.
// The row with the greatest RecordedAt is the latest value.
type AssetValueHistory struct {
	ID               uuid.UUID       `json:"id"`
	AssetID          uuid.UUID       `json:"asset_id"`
	Value            decimal.Decimal `json:"value"`
	Source           ValueSource     `json:"source"`
	AdjustedBy       uuid.UUID       `json:"adjusted_by"`
	AdjustmentReason string          `json:"adjustment_reason"`
	RecordedAt       time.Time       `json:"recorded_at"`
}
