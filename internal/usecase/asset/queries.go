package asset

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/simaogato/fraxion-backend/internal/domain"
)

// GetAsset retrieves an asset by its ID
func (s *AssetService) GetAsset(ctx context.Context, id uuid.UUID) (*domain.Asset, error) {
	asset, err := s.AssetRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Asset not found")
	}
	return asset, nil
}

// ListAssets pages through assets in creation order. perPage <= 0 returns every asset.
func (s *AssetService) ListAssets(ctx context.Context, page, perPage int) ([]*domain.Asset, error) {
	if perPage <= 0 {
		return s.AssetRepo.List(ctx, 0, 0)
	}
	page = max(page, 1)
	return s.AssetRepo.List(ctx, perPage, (page-1)*perPage)
}

// ListAssetFractions returns every fraction of an asset, depleted ones included
func (s *AssetService) ListAssetFractions(ctx context.Context, assetID uuid.UUID) ([]*domain.Fraction, error) {
	if _, err := s.GetAsset(ctx, assetID); err != nil {
		return nil, err
	}
	return s.FractionRepo.ListByAsset(ctx, assetID)
}

// ListValueHistory returns the value history of an asset oldest first, optionally bounded
func (s *AssetService) ListValueHistory(ctx context.Context, assetID uuid.UUID, from, to *time.Time) ([]*domain.AssetValueHistory, error) {
	if from != nil && to != nil && from.After(*to) {
		return nil, domain.NewValidationError("from", "from cannot be after to")
	}
	if _, err := s.GetAsset(ctx, assetID); err != nil {
		return nil, err
	}
	return s.ValueRepo.List(ctx, assetID, from, to)
}

// LatestValue returns the most recent history row of an asset
func (s *AssetService) LatestValue(ctx context.Context, assetID uuid.UUID) (*domain.AssetValueHistory, error) {
	entry, err := s.ValueRepo.GetLatest(ctx, assetID)
	if err != nil {
		return nil, notFound(err, "No value history for asset")
	}
	return entry, nil
}

// GetFraction retrieves a fraction by its ID
func (s *AssetService) GetFraction(ctx context.Context, id uuid.UUID) (*domain.Fraction, error) {
	fraction, err := s.FractionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Fraction not found")
	}
	return fraction, nil
}

// ListFractionsByOwner returns the fractions held by a user, oldest first
func (s *AssetService) ListFractionsByOwner(ctx context.Context, ownerID uuid.UUID, activeOnly bool) ([]*domain.Fraction, error) {
	fractions, err := s.FractionRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !activeOnly {
		return fractions, nil
	}

	active := make([]*domain.Fraction, 0, len(fractions))
	for _, f := range fractions {
		if f.IsActive {
			active = append(active, f)
		}
	}
	return active, nil
}
