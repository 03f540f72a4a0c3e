package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/fraxion-backend/internal/domain"
)

// fractionRepository implements domain.FractionRepository
type fractionRepository struct {
	db *DB
}

// NewFractionRepository creates a new fraction repository
func NewFractionRepository(db *DB) domain.FractionRepository {
	return &fractionRepository{db: db}
}

const fractionColumns = `id, asset_id, owner_id, parent_fraction_id, units, is_active, value_perunit, created_at`

// fifoOrder is the deterministic depletion order: oldest first, id breaks ties
const fifoOrder = ` ORDER BY created_at ASC, id ASC`

func scanFraction(row interface{ Scan(dest ...any) error }) (*domain.Fraction, error) {
	var fraction domain.Fraction
	var parentID uuid.NullUUID
	var valueStr string

	if err := row.Scan(
		&fraction.ID,
		&fraction.AssetID,
		&fraction.OwnerID,
		&parentID,
		&fraction.Units,
		&fraction.IsActive,
		&valueStr,
		&fraction.CreatedAt,
	); err != nil {
		return nil, err
	}

	// Parse parent_fraction_id (nullable)
	if parentID.Valid {
		id := parentID.UUID
		fraction.ParentFractionID = &id
	}

	// Parse value_perunit (NUMERIC)
	value, err := decimal.NewFromString(valueStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse value_perunit: %w", err)
	}
	fraction.ValuePerUnit = value

	return &fraction, nil
}

func (r *fractionRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Fraction, error) {
	rows, err := r.db.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list fractions: %w", err)
	}
	defer rows.Close()

	fractions := make([]*domain.Fraction, 0)
	for rows.Next() {
		fraction, err := scanFraction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fraction: %w", err)
		}
		fractions = append(fractions, fraction)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate fractions: %w", err)
	}

	return fractions, nil
}

// GetByID retrieves a fraction by its ID
func (r *fractionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Fraction, error) {
	query := `SELECT ` + fractionColumns + ` FROM fractions WHERE id = $1`

	fraction, err := scanFraction(r.db.conn(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("fraction %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get fraction by ID: %w", err)
	}

	return fraction, nil
}

// Create creates a new fraction
func (r *fractionRepository) Create(ctx context.Context, fraction *domain.Fraction) error {
	query := `
		INSERT INTO fractions (id, asset_id, owner_id, parent_fraction_id, units, is_active, value_perunit, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	var parentID interface{}
	if fraction.ParentFractionID != nil {
		parentID = *fraction.ParentFractionID
	}

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		fraction.ID,
		fraction.AssetID,
		fraction.OwnerID,
		parentID,
		fraction.Units,
		fraction.IsActive,
		fraction.ValuePerUnit.String(),
		fraction.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create fraction: %w", err)
	}

	return nil
}

// Update persists units and is_active of an existing fraction
func (r *fractionRepository) Update(ctx context.Context, fraction *domain.Fraction) error {
	result, err := r.db.conn(ctx).ExecContext(ctx,
		`UPDATE fractions SET units = $1, is_active = $2 WHERE id = $3`,
		fraction.Units,
		fraction.IsActive,
		fraction.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update fraction: %w", err)
	}

	return expectOneRow(result, "fraction", fraction.ID)
}

// ListActiveByOwnerAndAsset returns the owner's active fractions of an asset, oldest first
func (r *fractionRepository) ListActiveByOwnerAndAsset(ctx context.Context, ownerID, assetID uuid.UUID, forUpdate bool) ([]*domain.Fraction, error) {
	query := `SELECT ` + fractionColumns + ` FROM fractions
		WHERE owner_id = $1 AND asset_id = $2 AND is_active = TRUE` + fifoOrder
	if forUpdate && inTx(ctx) {
		query += ` FOR UPDATE`
	}

	return r.list(ctx, query, ownerID, assetID)
}

// SumActiveUnits returns the units the owner actively holds of an asset
func (r *fractionRepository) SumActiveUnits(ctx context.Context, ownerID, assetID uuid.UUID) (int64, error) {
	query := `
		SELECT COALESCE(SUM(units), 0)
		FROM fractions
		WHERE owner_id = $1 AND asset_id = $2 AND is_active = TRUE
	`

	var total int64
	if err := r.db.conn(ctx).QueryRowContext(ctx, query, ownerID, assetID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum active units: %w", err)
	}

	return total, nil
}

// ActiveUnitsByAsset groups the owner's active units by asset
func (r *fractionRepository) ActiveUnitsByAsset(ctx context.Context, ownerID uuid.UUID) ([]domain.AssetUnits, error) {
	query := `
		SELECT asset_id, SUM(units)
		FROM fractions
		WHERE owner_id = $1 AND is_active = TRUE
		GROUP BY asset_id
		ORDER BY MIN(created_at) ASC
	`

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate holdings: %w", err)
	}
	defer rows.Close()

	holdings := make([]domain.AssetUnits, 0)
	for rows.Next() {
		var h domain.AssetUnits
		if err := rows.Scan(&h.AssetID, &h.Units); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate holdings: %w", err)
	}

	return holdings, nil
}

// ListByAsset returns every fraction of an asset, oldest first
func (r *fractionRepository) ListByAsset(ctx context.Context, assetID uuid.UUID) ([]*domain.Fraction, error) {
	return r.list(ctx, `SELECT `+fractionColumns+` FROM fractions WHERE asset_id = $1`+fifoOrder, assetID)
}

// ListByOwner returns every fraction held by an owner, oldest first
func (r *fractionRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Fraction, error) {
	return r.list(ctx, `SELECT `+fractionColumns+` FROM fractions WHERE owner_id = $1`+fifoOrder, ownerID)
}
