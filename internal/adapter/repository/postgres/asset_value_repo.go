package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/fraxion-backend/internal/domain"
)

// assetValueRepository implements domain.AssetValueRepository
type assetValueRepository struct {
	db *DB
}

// NewAssetValueRepository creates a new asset value history repository
func NewAssetValueRepository(db *DB) domain.AssetValueRepository {
	return &assetValueRepository{db: db}
}

const assetValueColumns = `id, asset_id, value, source, adjusted_by, adjustment_reason, recorded_at`

func scanAssetValue(row interface{ Scan(dest ...any) error }) (*domain.AssetValueHistory, error) {
	var entry domain.AssetValueHistory
	var valueStr, source string

	if err := row.Scan(
		&entry.ID,
		&entry.AssetID,
		&valueStr,
		&source,
		&entry.AdjustedBy,
		&entry.AdjustmentReason,
		&entry.RecordedAt,
	); err != nil {
		return nil, err
	}

	value, err := decimal.NewFromString(valueStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse value: %w", err)
	}
	entry.Value = value
	entry.Source = domain.ValueSource(source)

	return &entry, nil
}

// Add appends a new value history entry
func (r *assetValueRepository) Add(ctx context.Context, entry *domain.AssetValueHistory) error {
	query := `
		INSERT INTO asset_value_history (id, asset_id, value, source, adjusted_by, adjustment_reason, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		entry.ID,
		entry.AssetID,
		entry.Value.String(),
		string(entry.Source),
		entry.AdjustedBy,
		entry.AdjustmentReason,
		entry.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add asset value: %w", err)
	}

	return nil
}

// GetLatest retrieves the most recent value entry for a given asset
func (r *assetValueRepository) GetLatest(ctx context.Context, assetID uuid.UUID) (*domain.AssetValueHistory, error) {
	query := `
		SELECT ` + assetValueColumns + `
		FROM asset_value_history
		WHERE asset_id = $1
		ORDER BY recorded_at DESC, id DESC
		LIMIT 1
	`

	entry, err := scanAssetValue(r.db.conn(ctx).QueryRowContext(ctx, query, assetID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("value history for asset %s: %w", assetID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get latest asset value: %w", err)
	}

	return entry, nil
}

// List retrieves value entries of an asset in ascending time order
func (r *assetValueRepository) List(ctx context.Context, assetID uuid.UUID, from, to *time.Time) ([]*domain.AssetValueHistory, error) {
	query := `
		SELECT ` + assetValueColumns + `
		FROM asset_value_history
		WHERE asset_id = $1
		AND ($2::timestamptz IS NULL OR recorded_at >= $2)
		AND ($3::timestamptz IS NULL OR recorded_at <= $3)
		ORDER BY recorded_at ASC, id ASC
	`

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, assetID, nullableTime(from), nullableTime(to))
	if err != nil {
		return nil, fmt.Errorf("failed to list asset values: %w", err)
	}
	defer rows.Close()

	entries := make([]*domain.AssetValueHistory, 0)
	for rows.Next() {
		entry, err := scanAssetValue(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset value: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate asset values: %w", err)
	}

	return entries, nil
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
