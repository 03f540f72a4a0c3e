package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/fraxion-backend/internal/domain"
)

// offerRepository implements domain.OfferRepository
type offerRepository struct {
	db *DB
}

// NewOfferRepository creates a new offer repository
func NewOfferRepository(db *DB) domain.OfferRepository {
	return &offerRepository{db: db}
}

// activeSideIndex allows one valid offer per user, asset and side
const activeSideIndex = "uq_offers_active_side"

// activeSideConflict reports a concurrent offer that won the race for the active side
func activeSideConflict(offer *domain.Offer) error {
	return domain.NewConflictError(fmt.Sprintf("User already has an active %s offer for this asset", offer.Side()))
}

const offerColumns = `id, asset_id, user_id, is_buyer, units, price_perunit, is_valid, created_at`

func scanOffer(row interface{ Scan(dest ...any) error }) (*domain.Offer, error) {
	var offer domain.Offer
	var priceStr string

	if err := row.Scan(
		&offer.ID,
		&offer.AssetID,
		&offer.UserID,
		&offer.IsBuyer,
		&offer.Units,
		&priceStr,
		&offer.IsValid,
		&offer.CreatedAt,
	); err != nil {
		return nil, err
	}

	// Parse price_perunit (NUMERIC)
	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse price_perunit: %w", err)
	}
	offer.PricePerUnit = price

	return &offer, nil
}

// GetByID retrieves an offer by its ID
func (r *offerRepository) GetByID(ctx context.Context, id uuid.UUID, forUpdate bool) (*domain.Offer, error) {
	query := `SELECT ` + offerColumns + ` FROM offers WHERE id = $1`
	if forUpdate && inTx(ctx) {
		query += ` FOR UPDATE`
	}

	offer, err := scanOffer(r.db.conn(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("offer %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get offer by ID: %w", err)
	}

	return offer, nil
}

// Create creates a new offer
func (r *offerRepository) Create(ctx context.Context, offer *domain.Offer) error {
	query := `
		INSERT INTO offers (id, asset_id, user_id, is_buyer, units, price_perunit, is_valid, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		offer.ID,
		offer.AssetID,
		offer.UserID,
		offer.IsBuyer,
		offer.Units,
		offer.PricePerUnit.String(),
		offer.IsValid,
		offer.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, activeSideIndex) {
			return activeSideConflict(offer)
		}
		return fmt.Errorf("failed to create offer: %w", err)
	}

	return nil
}

// Update persists the mutable fields of an offer
func (r *offerRepository) Update(ctx context.Context, offer *domain.Offer) error {
	query := `
		UPDATE offers
		SET is_buyer = $1, units = $2, price_perunit = $3, is_valid = $4
		WHERE id = $5
	`

	result, err := r.db.conn(ctx).ExecContext(ctx, query,
		offer.IsBuyer,
		offer.Units,
		offer.PricePerUnit.String(),
		offer.IsValid,
		offer.ID,
	)
	if err != nil {
		if isUniqueViolation(err, activeSideIndex) {
			return activeSideConflict(offer)
		}
		return fmt.Errorf("failed to update offer: %w", err)
	}

	return expectOneRow(result, "offer", offer.ID)
}

// HasActive reports whether the user already has a valid offer on that side of the asset
func (r *offerRepository) HasActive(ctx context.Context, userID, assetID uuid.UUID, isBuyer bool, excludeID *uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM offers
			WHERE user_id = $1 AND asset_id = $2 AND is_buyer = $3 AND is_valid = TRUE
			AND ($4::uuid IS NULL OR id <> $4::uuid)
		)
	`

	var exclude interface{}
	if excludeID != nil {
		exclude = *excludeID
	}

	var exists bool
	if err := r.db.conn(ctx).QueryRowContext(ctx, query, userID, assetID, isBuyer, exclude).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check active offers: %w", err)
	}

	return exists, nil
}

// whereClause renders the filters of q as a WHERE clause with positional arguments
func whereClause(q domain.OfferQuery) (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if q.AssetID != nil {
		add("asset_id = $%d", *q.AssetID)
	}
	if q.UserID != nil {
		add("user_id = $%d", *q.UserID)
	}
	if q.IsBuyer != nil {
		add("is_buyer = $%d", *q.IsBuyer)
	}
	if q.IsValid != nil {
		add("is_valid = $%d", *q.IsValid)
	}
	if q.MinPrice != nil {
		add("price_perunit >= $%d", q.MinPrice.String())
	}
	if q.MaxPrice != nil {
		add("price_perunit <= $%d", q.MaxPrice.String())
	}
	if q.MinUnits != nil {
		add("units >= $%d", *q.MinUnits)
	}
	if q.MaxUnits != nil {
		add("units <= $%d", *q.MaxUnits)
	}
	if q.CreatedAfter != nil {
		add("created_at >= $%d", *q.CreatedAfter)
	}
	if q.CreatedBefore != nil {
		add("created_at <= $%d", *q.CreatedBefore)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List retrieves offers matching the query
func (r *offerRepository) List(ctx context.Context, q domain.OfferQuery) ([]*domain.Offer, error) {
	where, args := whereClause(q)

	// SortBy is whitelisted by OfferSortField.Valid, never interpolated from raw input
	sortBy := domain.OfferSortCreatedAt
	if q.SortBy.Valid() {
		sortBy = q.SortBy
	}
	direction := "ASC"
	if q.Descending {
		direction = "DESC"
	}

	query := `SELECT ` + offerColumns + ` FROM offers` + where +
		fmt.Sprintf(" ORDER BY %s %s, created_at %s, id %s", sortBy, direction, direction, direction)

	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if q.Offset > 0 {
		args = append(args, q.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}
	defer rows.Close()

	offers := make([]*domain.Offer, 0)
	for rows.Next() {
		offer, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		offers = append(offers, offer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate offers: %w", err)
	}

	return offers, nil
}

// Count returns the number of offers matching the query, ignoring limit and offset
func (r *offerRepository) Count(ctx context.Context, q domain.OfferQuery) (int, error) {
	where, args := whereClause(q)

	var count int
	if err := r.db.conn(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM offers`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count offers: %w", err)
	}

	return count, nil
}
