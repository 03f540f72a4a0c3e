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

// assetRepository implements domain.AssetRepository
type assetRepository struct {
	db *DB
}

// NewAssetRepository creates a new asset repository
func NewAssetRepository(db *DB) domain.AssetRepository {
	return &assetRepository{db: db}
}

const assetColumns = `id, name, total_unit, unit_min, unit_max, total_value, created_at`

func scanAsset(row interface{ Scan(dest ...any) error }) (*domain.Asset, error) {
	var asset domain.Asset
	var totalValueStr string

	if err := row.Scan(
		&asset.ID,
		&asset.Name,
		&asset.TotalUnit,
		&asset.UnitMin,
		&asset.UnitMax,
		&totalValueStr,
		&asset.CreatedAt,
	); err != nil {
		return nil, err
	}

	// Parse total_value (NUMERIC)
	totalValue, err := decimal.NewFromString(totalValueStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse total_value: %w", err)
	}
	asset.TotalValue = totalValue

	return &asset, nil
}

// GetByID retrieves an asset by its ID
func (r *assetRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE id = $1`

	asset, err := scanAsset(r.db.conn(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("asset %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get asset by ID: %w", err)
	}

	return asset, nil
}

// Create creates a new asset
func (r *assetRepository) Create(ctx context.Context, asset *domain.Asset) error {
	query := `
		INSERT INTO assets (id, name, total_unit, unit_min, unit_max, total_value, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		asset.ID,
		asset.Name,
		asset.TotalUnit,
		asset.UnitMin,
		asset.UnitMax,
		asset.TotalValue.String(),
		asset.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create asset: %w", err)
	}

	return nil
}

// UpdateTotalValue sets the current value of an asset
func (r *assetRepository) UpdateTotalValue(ctx context.Context, asset *domain.Asset) error {
	result, err := r.db.conn(ctx).ExecContext(ctx,
		`UPDATE assets SET total_value = $1 WHERE id = $2`,
		asset.TotalValue.String(),
		asset.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update asset value: %w", err)
	}

	return expectOneRow(result, "asset", asset.ID)
}

// List retrieves assets ordered by creation time
func (r *assetRepository) List(ctx context.Context, limit, offset int) ([]*domain.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets ORDER BY created_at ASC, id ASC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1 OFFSET $2`
		args = append(args, limit, offset)
	}

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	assets := make([]*domain.Asset, 0)
	for rows.Next() {
		asset, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, asset)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assets: %w", err)
	}

	return assets, nil
}

// expectOneRow turns an UPDATE that matched nothing into a not-found error
func expectOneRow(result sql.Result, entity string, id uuid.UUID) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %s: %w", entity, id, domain.ErrNotFound)
	}
	return nil
}
