package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionTypeTrade marks units moved by an executed offer
const TransactionTypeTrade = "trade"

// Transaction is an immutable record of units moving between two owners
type Transaction struct {
	ID              uuid.UUID       `json:"transaction_id"`
	AssetID         uuid.UUID       `json:"asset_id"`
	FractionID      uuid.UUID       `json:"fraction_id"` // Fraction created for the receiver
	OfferID         *uuid.UUID      `json:"offer_id"`
	FromOwnerID     uuid.UUID       `json:"from_owner_id"`
	ToOwnerID       uuid.UUID       `json:"to_owner_id"`
	UnitMoved       int64           `json:"unit_moved"`
	PricePerUnit    decimal.Decimal `json:"price_perunit"`
	TransactionType string          `json:"transaction_type"`
	TransactionAt   time.Time       `json:"transaction_at"`
}

// TransactionDirection selects which side of a transaction the queried user was on
type TransactionDirection string

const (
	DirectionAny  TransactionDirection = ""
	DirectionBuy  TransactionDirection = "buy"  // user received the units
	DirectionSell TransactionDirection = "sell" // user gave the units
)

// Valid reports whether the direction is known
func (d TransactionDirection) Valid() bool {
	switch d {
	case DirectionAny, DirectionBuy, DirectionSell:
		return true
	}
	return false
}

// TransactionQuery filters and paginates transactions, newest first.
// Nil fields do not filter. AssetID is resolved through the fraction the transaction created.
// Direction only applies together with UserID. Limit <= 0 returns every match.
type TransactionQuery struct {
	UserID     *uuid.UUID
	Direction  TransactionDirection
	AssetID    *uuid.UUID
	FractionID *uuid.UUID
	Limit      int
	Offset     int
}
