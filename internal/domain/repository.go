package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repositories return errors matching ErrNotFound (errors.Is) when a row does not exist.

// Transactor runs a function as one atomic unit of work.
// Repository calls made with the context passed to fn join the unit of work.
// If fn returns an error every write made inside it is rolled back.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository defines the interface for user persistence operations
type UserRepository interface {
	// GetByID retrieves a user by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)

	// GetByEmail retrieves a user by email
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Create creates a new user
	Create(ctx context.Context, user *User) error

	// Update persists name, email, is_manager and is_deleted of an existing user
	Update(ctx context.Context, user *User) error

	// List retrieves users matching the query
	List(ctx context.Context, query UserQuery) ([]*User, error)
}

// AssetRepository defines the interface for asset persistence operations
type AssetRepository interface {
	// GetByID retrieves an asset by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*Asset, error)

	// Create creates a new asset
	Create(ctx context.Context, asset *Asset) error

	// UpdateTotalValue sets the current value of an asset
	UpdateTotalValue(ctx context.Context, asset *Asset) error

	// List retrieves assets ordered by creation time
	// limit <= 0 returns all assets
	List(ctx context.Context, limit, offset int) ([]*Asset, error)
}

// FractionRepository defines the interface for fraction persistence operations
type FractionRepository interface {
	// GetByID retrieves a fraction by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*Fraction, error)

	// Create creates a new fraction
	Create(ctx context.Context, fraction *Fraction) error

	// Update persists units and is_active of an existing fraction
	Update(ctx context.Context, fraction *Fraction) error

	// ListActiveByOwnerAndAsset returns the owner's active fractions of an asset, oldest first
	// When forUpdate is true the rows stay locked until the unit of work ends
	ListActiveByOwnerAndAsset(ctx context.Context, ownerID, assetID uuid.UUID, forUpdate bool) ([]*Fraction, error)

	// SumActiveUnits returns the units the owner actively holds of an asset
	SumActiveUnits(ctx context.Context, ownerID, assetID uuid.UUID) (int64, error)

	// ActiveUnitsByAsset groups the owner's active units by asset
	ActiveUnitsByAsset(ctx context.Context, ownerID uuid.UUID) ([]AssetUnits, error)

	// ListByAsset returns every fraction of an asset (active and depleted), oldest first
	ListByAsset(ctx context.Context, assetID uuid.UUID) ([]*Fraction, error)

	// ListByOwner returns every fraction held by an owner, oldest first
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Fraction, error)
}

// OfferRepository defines the interface for offer persistence operations
type OfferRepository interface {
	// GetByID retrieves an offer by its ID
	// When forUpdate is true the row stays locked until the unit of work ends
	GetByID(ctx context.Context, id uuid.UUID, forUpdate bool) (*Offer, error)

	// Create creates a new offer
	Create(ctx context.Context, offer *Offer) error

	// Update persists the mutable fields of an offer
	Update(ctx context.Context, offer *Offer) error

	// HasActive reports whether the user already has a valid offer on that side of the asset
	// excludeID, when set, is ignored (used when an offer is being edited)
	HasActive(ctx context.Context, userID, assetID uuid.UUID, isBuyer bool, excludeID *uuid.UUID) (bool, error)

	// List retrieves offers matching the query
	List(ctx context.Context, query OfferQuery) ([]*Offer, error)

	// Count returns the number of offers matching the query, ignoring limit and offset
	Count(ctx context.Context, query OfferQuery) (int, error)
}

// TransactionRepository defines the interface for transaction persistence operations
type TransactionRepository interface {
	// Create appends a transaction record
	Create(ctx context.Context, tx *Transaction) error

	// GetByID retrieves a transaction by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)

	// List retrieves transactions matching the query, newest first
	List(ctx context.Context, query TransactionQuery) ([]*Transaction, error)

	// Count returns the number of transactions matching the query, ignoring limit and offset
	Count(ctx context.Context, query TransactionQuery) (int, error)
}

// AssetValueRepository defines the interface for asset value history persistence operations
type AssetValueRepository interface {
	// Add appends a new value history entry
	Add(ctx context.Context, entry *AssetValueHistory) error

	// GetLatest retrieves the most recent value entry for a given asset
	GetLatest(ctx context.Context, assetID uuid.UUID) (*AssetValueHistory, error)

	// List retrieves value entries of an asset in ascending time order
	// from and to are inclusive bounds and may be nil
	List(ctx context.Context, assetID uuid.UUID, from, to *time.Time) ([]*AssetValueHistory, error)
}

// Pinger checks that the store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}
