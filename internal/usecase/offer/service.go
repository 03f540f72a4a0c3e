package offer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/simaogato/fraxion-backend/internal/domain"
	"github.com/simaogato/fraxion-backend/internal/usecase/accounting"
)

// CreateOfferInput represents the input for posting an offer.
// Every field is required; nil means the field was missing or null.
type CreateOfferInput struct {
	AssetID      *uuid.UUID       `json:"asset_id"`
	UserID       *uuid.UUID       `json:"user_id"`
	IsBuyer      *bool            `json:"is_buyer"`
	Units        *int64           `json:"units"`
	PricePerUnit *decimal.Decimal `json:"price_perunit"`
}

// UpdateOfferInput is a patch: only fields that are set are applied
type UpdateOfferInput struct {
	Units        domain.Optional[int64]           `json:"units"`
	PricePerUnit domain.Optional[decimal.Decimal] `json:"price_perunit"`
	IsBuyer      domain.Optional[bool]            `json:"is_buyer"`
}

// Outcomes reported by DeleteOffer
const (
	MessageOfferNotFound  = "Offer not found"
	MessageOfferInactive  = "Offer is already inactive"
	MessageOfferCancelled = "Offer cancelled successfully"
)

// DeleteResult reports the outcome of a cancellation
type DeleteResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ListOptions paginates offer queries. PerPage <= 0 returns every match.
type ListOptions struct {
	ActiveOnly bool
	Page       int
	PerPage    int
}

func (o ListOptions) apply(q domain.OfferQuery) domain.OfferQuery {
	if o.ActiveOnly {
		valid := true
		q.IsValid = &valid
	}
	if o.PerPage > 0 {
		page := max(o.Page, 1)
		q.Limit = o.PerPage
		q.Offset = (page - 1) * o.PerPage
	}
	return q
}

// OfferService handles the offer lifecycle: posting, editing and cancelling
type OfferService struct {
	Transactor   domain.Transactor
	OfferRepo    domain.OfferRepository
	FractionRepo domain.FractionRepository
	AssetRepo    domain.AssetRepository
	UserRepo     domain.UserRepository
	Events       domain.EventPublisher
	Logger       *zap.Logger
}

// NewOfferService creates a new OfferService instance
func NewOfferService(
	transactor domain.Transactor,
	offerRepo domain.OfferRepository,
	fractionRepo domain.FractionRepository,
	assetRepo domain.AssetRepository,
	userRepo domain.UserRepository,
	events domain.EventPublisher,
	logger *zap.Logger,
) *OfferService {
	return &OfferService{
		Transactor:   transactor,
		OfferRepo:    offerRepo,
		FractionRepo: fractionRepo,
		AssetRepo:    assetRepo,
		UserRepo:     userRepo,
		Events:       events,
		Logger:       logger,
	}
}

// CreateOffer posts a new open offer
// Logic:
//  1. Require asset_id, user_id, is_buyer, units and price_perunit
//  2. Resolve the user and the asset
//  3. Reject a second open offer on the same side of the same asset
//  4. Sell offers must be covered by the user's active holdings
//  5. Persist the offer as valid
func (s *OfferService) CreateOffer(ctx context.Context, input CreateOfferInput) (*domain.Offer, error) {
	// 1. Required fields, in a fixed order so the reported field is deterministic
	switch {
	case input.AssetID == nil:
		return nil, domain.NewMissingFieldError("asset_id")
	case input.UserID == nil:
		return nil, domain.NewMissingFieldError("user_id")
	case input.IsBuyer == nil:
		return nil, domain.NewMissingFieldError("is_buyer")
	case input.Units == nil:
		return nil, domain.NewMissingFieldError("units")
	case input.PricePerUnit == nil:
		return nil, domain.NewMissingFieldError("price_perunit")
	}

	offer := &domain.Offer{
		ID:           domain.NewID(),
		AssetID:      *input.AssetID,
		UserID:       *input.UserID,
		IsBuyer:      *input.IsBuyer,
		Units:        *input.Units,
		PricePerUnit: *input.PricePerUnit,
		IsValid:      true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := validateTerms(offer); err != nil {
		return nil, err
	}

	err := s.Transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		// 2. Resolve the user and the asset
		if _, err := s.UserRepo.GetByID(ctx, offer.UserID); err != nil {
			return notFound(err, "User not found")
		}
		if _, err := s.AssetRepo.GetByID(ctx, offer.AssetID); err != nil {
			return notFound(err, "Asset not found")
		}

		// 3. One open offer per user, asset and side
		if err := s.ensureNoActiveOffer(ctx, offer, nil); err != nil {
			return err
		}

		// 4. Sell side holdings
		if !offer.IsBuyer {
			if err := accounting.CheckSellerHoldings(ctx, s.FractionRepo, offer.UserID, offer.AssetID, offer.Units); err != nil {
				return err
			}
		}

		// 5. Persist
		return s.OfferRepo.Create(ctx, offer)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("offer created",
		zap.String("offer_id", offer.ID.String()),
		zap.String("side", offer.Side()),
		zap.Int64("units", offer.Units),
	)
	s.Events.Publish(domain.Event{Type: domain.EventOfferCreated, Payload: offer, At: offer.CreatedAt})

	return offer, nil
}

// UpdateOffer applies the supplied fields to an open offer.
// It returns (nil, nil) when the offer does not exist.
func (s *OfferService) UpdateOffer(ctx context.Context, id uuid.UUID, input UpdateOfferInput) (*domain.Offer, error) {
	var updated *domain.Offer

	err := s.Transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := s.OfferRepo.GetByID(ctx, id, true)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil
			}
			return err
		}

		if !current.IsValid {
			return domain.NewStateError("Cannot update an inactive offer")
		}

		next := *current
		if err := applyPatch(&next, input); err != nil {
			return err
		}
		if err := validateTerms(&next); err != nil {
			return err
		}

		sideChanged := next.IsBuyer != current.IsBuyer
		unitsChanged := next.Units != current.Units

		if sideChanged {
			if err := s.ensureNoActiveOffer(ctx, &next, &next.ID); err != nil {
				return err
			}
		}

		if !next.IsBuyer && (unitsChanged || sideChanged) {
			if err := accounting.CheckSellerHoldings(ctx, s.FractionRepo, next.UserID, next.AssetID, next.Units); err != nil {
				return err
			}
		}

		if err := s.OfferRepo.Update(ctx, &next); err != nil {
			return err
		}

		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}

	if updated != nil {
		s.Logger.Info("offer updated", zap.String("offer_id", updated.ID.String()))
	}

	return updated, nil
}

// DeleteOffer cancels an open offer. A missing or already inactive offer is a
// reported outcome, not an error.
func (s *OfferService) DeleteOffer(ctx context.Context, id uuid.UUID) (DeleteResult, error) {
	var result DeleteResult
	var cancelled *domain.Offer

	err := s.Transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		offer, err := s.OfferRepo.GetByID(ctx, id, true)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				result = DeleteResult{Success: false, Message: MessageOfferNotFound}
				return nil
			}
			return err
		}

		if !offer.IsValid {
			result = DeleteResult{Success: false, Message: MessageOfferInactive}
			return nil
		}

		offer.IsValid = false
		if err := s.OfferRepo.Update(ctx, offer); err != nil {
			return err
		}

		cancelled = offer
		result = DeleteResult{Success: true, Message: MessageOfferCancelled}
		return nil
	})
	if err != nil {
		return DeleteResult{}, err
	}

	if cancelled != nil {
		s.Logger.Info("offer cancelled", zap.String("offer_id", cancelled.ID.String()))
		s.Events.Publish(domain.Event{Type: domain.EventOfferCancelled, Payload: cancelled, At: time.Now().UTC()})
	}

	return result, nil
}

// GetOfferByID retrieves a single offer
func (s *OfferService) GetOfferByID(ctx context.Context, id uuid.UUID) (*domain.Offer, error) {
	offer, err := s.OfferRepo.GetByID(ctx, id, false)
	if err != nil {
		return nil, notFound(err, "Offer not found")
	}
	return offer, nil
}

// GetAllOffers lists offers across every asset, oldest first
func (s *OfferService) GetAllOffers(ctx context.Context, opts ListOptions) ([]*domain.Offer, error) {
	return s.OfferRepo.List(ctx, opts.apply(domain.OfferQuery{}))
}

// GetOffersByUser lists the offers posted by a user
func (s *OfferService) GetOffersByUser(ctx context.Context, userID uuid.UUID, opts ListOptions) ([]*domain.Offer, error) {
	return s.OfferRepo.List(ctx, opts.apply(domain.OfferQuery{UserID: &userID}))
}

// GetOffersByAsset lists both sides of an asset
func (s *OfferService) GetOffersByAsset(ctx context.Context, assetID uuid.UUID, opts ListOptions) ([]*domain.Offer, error) {
	return s.OfferRepo.List(ctx, opts.apply(domain.OfferQuery{AssetID: &assetID}))
}

// GetBuyOffers lists the buy side of an asset
func (s *OfferService) GetBuyOffers(ctx context.Context, assetID uuid.UUID, opts ListOptions) ([]*domain.Offer, error) {
	isBuyer := true
	return s.OfferRepo.List(ctx, opts.apply(domain.OfferQuery{AssetID: &assetID, IsBuyer: &isBuyer}))
}

// GetSellOffers lists the sell side of an asset
func (s *OfferService) GetSellOffers(ctx context.Context, assetID uuid.UUID, opts ListOptions) ([]*domain.Offer, error) {
	isBuyer := false
	return s.OfferRepo.List(ctx, opts.apply(domain.OfferQuery{AssetID: &assetID, IsBuyer: &isBuyer}))
}

func (s *OfferService) ensureNoActiveOffer(ctx context.Context, offer *domain.Offer, excludeID *uuid.UUID) error {
	exists, err := s.OfferRepo.HasActive(ctx, offer.UserID, offer.AssetID, offer.IsBuyer, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return domain.NewConflictError(fmt.Sprintf("User already has an active %s offer for this asset", offer.Side()))
	}
	return nil
}

func applyPatch(offer *domain.Offer, input UpdateOfferInput) error {
	if input.Units.Set {
		units, ok := input.Units.Get()
		if !ok {
			return domain.NewValidationError("units", "units cannot be null")
		}
		offer.Units = units
	}
	if input.PricePerUnit.Set {
		price, ok := input.PricePerUnit.Get()
		if !ok {
			return domain.NewValidationError("price_perunit", "price_perunit cannot be null")
		}
		offer.PricePerUnit = price
	}
	if input.IsBuyer.Set {
		isBuyer, ok := input.IsBuyer.Get()
		if !ok {
			return domain.NewValidationError("is_buyer", "is_buyer cannot be null")
		}
		offer.IsBuyer = isBuyer
	}
	return nil
}

func validateTerms(offer *domain.Offer) error {
	if offer.Units <= 0 {
		return domain.NewValidationError("units", "units must be positive")
	}
	if offer.PricePerUnit.LessThanOrEqual(decimal.Zero) {
		return domain.NewValidationError("price_perunit", "price_perunit must be positive")
	}
	return domain.CheckPrecision("price_perunit", offer.PricePerUnit)
}

// notFound turns a repository miss into a user facing not-found error
func notFound(err error, message string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewNotFoundError(message)
	}
	return err
}
