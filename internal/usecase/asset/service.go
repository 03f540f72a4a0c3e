package asset

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/simaogato/fraxion-backend/internal/domain"
)

// InitialValueReason is recorded on the first history row of every asset
const InitialValueReason = "Initial value"

// CreateAssetInput represents the input for creating an asset.
// Every field is required; nil means the field was missing or null.
type CreateAssetInput struct {
	AssetName  *string          `json:"asset_name"`
	TotalUnit  *int64           `json:"total_unit"`
	UnitMin    *int64           `json:"unit_min"`
	UnitMax    *int64           `json:"unit_max"`
	TotalValue *decimal.Decimal `json:"total_value"`
}

// CreateAssetResult holds the three rows written for a new asset
type CreateAssetResult struct {
	Asset        *domain.Asset             `json:"asset"`
	Fraction     *domain.Fraction          `json:"fraction"`
	ValueHistory *domain.AssetValueHistory `json:"value_history"`
}

// AssetService creates and revalues assets
type AssetService struct {
	Transactor   domain.Transactor
	AssetRepo    domain.AssetRepository
	FractionRepo domain.FractionRepository
	UserRepo     domain.UserRepository
	ValueRepo    domain.AssetValueRepository
	Events       domain.EventPublisher
	Logger       *zap.Logger
}

// NewAssetService creates a new AssetService instance
func NewAssetService(
	transactor domain.Transactor,
	assetRepo domain.AssetRepository,
	fractionRepo domain.FractionRepository,
	userRepo domain.UserRepository,
	valueRepo domain.AssetValueRepository,
	events domain.EventPublisher,
	logger *zap.Logger,
) *AssetService {
	return &AssetService{
		Transactor:   transactor,
		AssetRepo:    assetRepo,
		FractionRepo: fractionRepo,
		UserRepo:     userRepo,
		ValueRepo:    valueRepo,
		Events:       events,
		Logger:       logger,
	}
}

// CreateAssetWithInitialFraction creates an asset owned entirely by ownerID
// Logic:
//  1. The admin must be an active manager
//  2. Require every asset field
//  3. The owner must exist
//  4. Validate unit bounds and value
//  5. Write the asset, one fraction holding every unit and the initial history row
//
// All writes share one unit of work.
func (s *AssetService) CreateAssetWithInitialFraction(ctx context.Context, input CreateAssetInput, ownerID, adminUserID uuid.UUID) (*CreateAssetResult, error) {
	var result *CreateAssetResult

	err := s.Transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		// 1. Permission
		if err := s.requireManager(ctx, adminUserID, "Only managers can create assets"); err != nil {
			return err
		}

		// 2. Required fields
		switch {
		case input.AssetName == nil:
			return domain.NewMissingFieldError("asset_name")
		case input.TotalUnit == nil:
			return domain.NewMissingFieldError("total_unit")
		case input.UnitMin == nil:
			return domain.NewMissingFieldError("unit_min")
		case input.UnitMax == nil:
			return domain.NewMissingFieldError("unit_max")
		case input.TotalValue == nil:
			return domain.NewMissingFieldError("total_value")
		}

		// 3. Owner
		if _, err := s.UserRepo.GetByID(ctx, ownerID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.NewNotFoundError("Owner user not found")
			}
			return err
		}

		// 4. Constraints
		now := time.Now().UTC()
		asset := &domain.Asset{
			ID:         domain.NewID(),
			Name:       *input.AssetName,
			TotalUnit:  *input.TotalUnit,
			UnitMin:    *input.UnitMin,
			UnitMax:    *input.UnitMax,
			TotalValue: *input.TotalValue,
			CreatedAt:  now,
		}
		if err := asset.Validate(); err != nil {
			return err
		}

		// 5. Writes
		if err := s.AssetRepo.Create(ctx, asset); err != nil {
			return err
		}

		fraction := &domain.Fraction{
			ID:           domain.NewID(),
			AssetID:      asset.ID,
			OwnerID:      ownerID,
			Units:        asset.TotalUnit,
			IsActive:     true,
			ValuePerUnit: asset.ValuePerUnit(),
			CreatedAt:    now,
		}
		if err := s.FractionRepo.Create(ctx, fraction); err != nil {
			return err
		}

		entry := &domain.AssetValueHistory{
			ID:               domain.NewID(),
			AssetID:          asset.ID,
			Value:            asset.TotalValue,
			Source:           domain.ValueSourceInitialCreation,
			AdjustedBy:       adminUserID,
			AdjustmentReason: InitialValueReason,
			RecordedAt:       now,
		}
		if err := s.ValueRepo.Add(ctx, entry); err != nil {
			return err
		}

		result = &CreateAssetResult{Asset: asset, Fraction: fraction, ValueHistory: entry}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("asset created",
		zap.String("asset_id", result.Asset.ID.String()),
		zap.String("owner_id", ownerID.String()),
		zap.Int64("total_unit", result.Asset.TotalUnit),
	)
	s.Events.Publish(domain.Event{Type: domain.EventAssetCreated, Payload: result.Asset, At: result.Asset.CreatedAt})

	return result, nil
}

// AdjustAssetValue sets the current value of an asset and appends a history row.
// Earlier history rows are never modified.
func (s *AssetService) AdjustAssetValue(ctx context.Context, assetID uuid.UUID, value decimal.Decimal, reason string, adjustedBy uuid.UUID) (*domain.AssetValueHistory, error) {
	var entry *domain.AssetValueHistory

	err := s.Transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.requireManager(ctx, adjustedBy, "Only managers can adjust asset values"); err != nil {
			return err
		}

		if value.LessThanOrEqual(decimal.Zero) {
			return domain.NewValidationError("value", "value must be positive")
		}
		if err := domain.CheckPrecision("value", value); err != nil {
			return err
		}

		asset, err := s.AssetRepo.GetByID(ctx, assetID)
		if err != nil {
			return notFound(err, "Asset not found")
		}

		// The current value and its audit row always move together
		asset.TotalValue = value
		if err := s.AssetRepo.UpdateTotalValue(ctx, asset); err != nil {
			return err
		}

		entry = &domain.AssetValueHistory{
			ID:               domain.NewID(),
			AssetID:          asset.ID,
			Value:            value,
			Source:           domain.ValueSourceManualAdjust,
			AdjustedBy:       adjustedBy,
			AdjustmentReason: reason,
			RecordedAt:       time.Now().UTC(),
		}
		return s.ValueRepo.Add(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("asset value adjusted",
		zap.String("asset_id", assetID.String()),
		zap.String("value", value.String()),
		zap.String("adjusted_by", adjustedBy.String()),
	)
	s.Events.Publish(domain.Event{Type: domain.EventAssetValueAdjusted, Payload: entry, At: entry.RecordedAt})

	return entry, nil
}

func (s *AssetService) requireManager(ctx context.Context, userID uuid.UUID, message string) error {
	user, err := s.UserRepo.GetByID(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if !user.CanManageAssets() {
		return domain.NewPermissionError(message)
	}
	return nil
}

// notFound turns a repository miss into a user facing not-found error
func notFound(err error, message string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewNotFoundError(message)
	}
	return err
}
