package trading

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/simaogato/fraxion-backend/internal/domain"
	"github.com/simaogato/fraxion-backend/internal/usecase/accounting"
)

// TradeResult is returned by a successful trade
type TradeResult struct {
	Success      bool                    `json:"success"`
	Message      string                  `json:"message"`
	TradeDetails accounting.TradeDetails `json:"trade_details"`
}

// TradingService executes one open offer against one counterparty
type TradingService struct {
	Transactor   domain.Transactor
	OfferRepo    domain.OfferRepository
	FractionRepo domain.FractionRepository
	UserRepo     domain.UserRepository
	Ledger       *accounting.Ledger
	Events       domain.EventPublisher
	Logger       *zap.Logger

	now func() time.Time
}

// NewTradingService creates a new TradingService instance
func NewTradingService(
	transactor domain.Transactor,
	offerRepo domain.OfferRepository,
	fractionRepo domain.FractionRepository,
	userRepo domain.UserRepository,
	ledger *accounting.Ledger,
	events domain.EventPublisher,
	logger *zap.Logger,
) *TradingService {
	return &TradingService{
		Transactor:   transactor,
		OfferRepo:    offerRepo,
		FractionRepo: fractionRepo,
		UserRepo:     userRepo,
		Ledger:       ledger,
		Events:       events,
		Logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// ExecuteTrade fills an open offer against the counterparty
// Logic:
//  1. Load and lock the offer
//  2. The offer must still be open
//  3. Reject self trades and unknown counterparties
//  4. Resolve buyer and seller from the offer side
//  5. Lock the seller's active fractions, oldest first
//  6. The seller must hold at least the offer units
//  7. Close the offer
//  8. Split the seller's fractions and record the transactions
//
// Everything runs in one unit of work. Business-rule failures are returned as is;
// any other failure from step 5 on is wrapped in a settlement error and nothing is kept.
func (s *TradingService) ExecuteTrade(ctx context.Context, offerID, counterpartyID uuid.UUID) (*TradeResult, error) {
	var settlement *accounting.Settlement

	err := s.Transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		// 1. Load and lock the offer
		offer, err := s.OfferRepo.GetByID(ctx, offerID, true)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.NewNotFoundError("Offer not found")
			}
			return err
		}

		// 2. Only open offers can be filled
		if !offer.IsValid {
			return domain.NewStateError("Offer is not active")
		}

		// 3. Counterparty checks
		if counterpartyID == offer.UserID {
			return domain.NewValidationError("counterparty_user_id", "Cannot trade with yourself")
		}
		if _, err := s.UserRepo.GetByID(ctx, counterpartyID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.NewNotFoundError("Counterparty user not found")
			}
			return err
		}

		// 4. Roles
		buyerID, sellerID := counterpartyID, offer.UserID
		if offer.IsBuyer {
			buyerID, sellerID = offer.UserID, counterpartyID
		}

		settlement, err = s.settle(ctx, offer, buyerID, sellerID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("trade executed",
		zap.String("offer_id", settlement.Details.OfferID.String()),
		zap.String("buyer_id", settlement.Details.BuyerID.String()),
		zap.String("seller_id", settlement.Details.SellerID.String()),
		zap.Int64("units", settlement.Details.UnitsTraded),
		zap.Int("transactions", settlement.Details.TransactionsCount),
	)
	s.Events.Publish(domain.Event{Type: domain.EventTradeExecuted, Payload: settlement.Details, At: s.now()})

	return &TradeResult{
		Success:      true,
		Message:      "Trade executed successfully",
		TradeDetails: settlement.Details,
	}, nil
}

// settle runs steps 5 to 8 of a trade inside the caller's unit of work
func (s *TradingService) settle(ctx context.Context, offer *domain.Offer, buyerID, sellerID uuid.UUID) (*accounting.Settlement, error) {
	// 5. Seller fractions, oldest first, locked until commit
	fractions, err := s.FractionRepo.ListActiveByOwnerAndAsset(ctx, sellerID, offer.AssetID, true)
	if err != nil {
		return nil, settlementError(err)
	}

	// 6. Holdings
	if err := accounting.EnsureSufficient(domain.TotalUnits(fractions), offer.Units); err != nil {
		return nil, err
	}

	// 7. Close the offer before touching fractions
	offer.IsValid = false
	if err := s.OfferRepo.Update(ctx, offer); err != nil {
		return nil, settlementError(err)
	}

	// 8. Split and record
	settlement, err := accounting.Plan(offer, buyerID, sellerID, fractions, s.now())
	if err != nil {
		return nil, settlementError(err)
	}
	if err := s.Ledger.Apply(ctx, settlement); err != nil {
		return nil, settlementError(err)
	}

	return settlement, nil
}

func settlementError(err error) error {
	if domain.IsDomainError(err) {
		return err
	}
	return domain.NewSettlementError(err)
}
