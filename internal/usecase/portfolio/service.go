package portfolio

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/fraxion-backend/internal/domain"
)

const defaultPerPage = 20

// Holding is a user's active position in one asset
type Holding struct {
	AssetID        uuid.UUID       `json:"asset_id"`
	AssetName      string          `json:"asset_name"`
	Units          int64           `json:"units"`
	LatestValue    decimal.Decimal `json:"latest_value"`
	EstimatedValue decimal.Decimal `json:"estimated_value"`
}

// PortfolioService provides read-only views of a user's holdings
type PortfolioService struct {
	FractionRepo    domain.FractionRepository
	AssetRepo       domain.AssetRepository
	ValueRepo       domain.AssetValueRepository
	TransactionRepo domain.TransactionRepository
}

// NewPortfolioService creates a new PortfolioService instance
func NewPortfolioService(
	fractionRepo domain.FractionRepository,
	assetRepo domain.AssetRepository,
	valueRepo domain.AssetValueRepository,
	transactionRepo domain.TransactionRepository,
) *PortfolioService {
	return &PortfolioService{
		FractionRepo:    fractionRepo,
		AssetRepo:       assetRepo,
		ValueRepo:       valueRepo,
		TransactionRepo: transactionRepo,
	}
}

// UserOwningFractions groups the user's active units by asset and values them
// with the latest history row, falling back to the asset's current value
func (s *PortfolioService) UserOwningFractions(ctx context.Context, userID uuid.UUID) ([]Holding, error) {
	positions, err := s.FractionRepo.ActiveUnitsByAsset(ctx, userID)
	if err != nil {
		return nil, err
	}

	holdings := make([]Holding, 0, len(positions))
	for _, p := range positions {
		asset, err := s.AssetRepo.GetByID(ctx, p.AssetID)
		if err != nil {
			return nil, fmt.Errorf("failed to load asset %s: %w", p.AssetID, err)
		}

		latest := asset.TotalValue
		entry, err := s.ValueRepo.GetLatest(ctx, p.AssetID)
		switch {
		case err == nil:
			latest = entry.Value
		case !errors.Is(err, domain.ErrNotFound):
			return nil, err
		}

		holdings = append(holdings, Holding{
			AssetID:        asset.ID,
			AssetName:      asset.Name,
			Units:          p.Units,
			LatestValue:    latest,
			EstimatedValue: latest.Mul(decimal.NewFromInt(p.Units)).Round(domain.ValuePrecision),
		})
	}

	sort.SliceStable(holdings, func(i, j int) bool {
		if holdings[i].AssetName != holdings[j].AssetName {
			return holdings[i].AssetName < holdings[j].AssetName
		}
		return holdings[i].AssetID.String() < holdings[j].AssetID.String()
	})

	return holdings, nil
}

// UserTransactions pages through the trades a user sent or received, newest first.
// It returns the page and the total number of matching transactions.
func (s *PortfolioService) UserTransactions(ctx context.Context, userID uuid.UUID, assetID *uuid.UUID, page, perPage int) ([]*domain.Transaction, int, error) {
	page = max(page, 1)
	if perPage <= 0 {
		perPage = defaultPerPage
	}

	query := domain.TransactionQuery{UserID: &userID, AssetID: assetID}
	total, err := s.TransactionRepo.Count(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	query.Limit, query.Offset = perPage, (page-1)*perPage
	items, err := s.TransactionRepo.List(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}
