// Package accounting moves fraction units from a seller to a buyer.
//
// Plan is pure: it walks the seller's fractions oldest first and describes every
// row the trade touches. Ledger.Apply persists that description inside the caller's
// unit of work. Total units across all rows of an asset are unchanged by a plan.
package accounting

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/fraxion-backend/internal/domain"
)

// TradeDetails summarises a settled trade
type TradeDetails struct {
	OfferID           uuid.UUID       `json:"offer_id"`
	OfferType         string          `json:"offer_type"`
	AssetID           uuid.UUID       `json:"asset_id"`
	BuyerID           uuid.UUID       `json:"buyer_id"`
	SellerID          uuid.UUID       `json:"seller_id"`
	UnitsTraded       int64           `json:"units_traded"`
	PricePerUnit      decimal.Decimal `json:"price_perunit"`
	TotalValue        decimal.Decimal `json:"total_value"`
	TransactionsCount int             `json:"transactions_count"`
}

// Settlement lists the ledger mutations of one trade
type Settlement struct {
	Updated      []*domain.Fraction    // Seller fractions after consumption
	Created      []*domain.Fraction    // One buyer fraction per touched seller fraction
	Transactions []*domain.Transaction // One trade record per touched seller fraction
	Details      TradeDetails
}

// EnsureSufficient fails when available units cannot cover the request
func EnsureSufficient(available, requested int64) error {
	if available < requested {
		return domain.NewInsufficientHoldingsError(available)
	}
	return nil
}

// CheckSellerHoldings fails when the user actively holds fewer than units of the asset.
// Offer creation and offer updates share this check.
func CheckSellerHoldings(ctx context.Context, fractions domain.FractionRepository, userID, assetID uuid.UUID, units int64) error {
	available, err := fractions.SumActiveUnits(ctx, userID, assetID)
	if err != nil {
		return fmt.Errorf("failed to sum seller holdings: %w", err)
	}
	return EnsureSufficient(available, units)
}

// Plan consumes offer.Units from fractions in the given order (oldest first).
// The input fractions are not modified; Updated holds the consumed copies.
func Plan(offer *domain.Offer, buyerID, sellerID uuid.UUID, fractions []*domain.Fraction, now time.Time) (*Settlement, error) {
	if err := EnsureSufficient(domain.TotalUnits(fractions), offer.Units); err != nil {
		return nil, err
	}

	s := &Settlement{
		Details: TradeDetails{
			OfferID:      offer.ID,
			OfferType:    offer.Side(),
			AssetID:      offer.AssetID,
			BuyerID:      buyerID,
			SellerID:     sellerID,
			PricePerUnit: offer.PricePerUnit,
			TotalValue:   decimal.Zero,
		},
	}

	remaining := offer.Units
	for _, source := range fractions {
		if remaining == 0 {
			break
		}
		if source.Units <= 0 {
			continue
		}

		consumed := min(remaining, source.Units)

		updated := *source
		updated.Consume(consumed)
		s.Updated = append(s.Updated, &updated)

		parentID := source.ID
		received := &domain.Fraction{
			ID:               domain.NewID(),
			AssetID:          offer.AssetID,
			OwnerID:          buyerID,
			ParentFractionID: &parentID,
			Units:            consumed,
			IsActive:         true,
			ValuePerUnit:     offer.PricePerUnit,
			CreatedAt:        now,
		}
		s.Created = append(s.Created, received)

		offerID := offer.ID
		s.Transactions = append(s.Transactions, &domain.Transaction{
			ID:              domain.NewID(),
			AssetID:         offer.AssetID,
			FractionID:      received.ID,
			OfferID:         &offerID,
			FromOwnerID:     sellerID,
			ToOwnerID:       buyerID,
			UnitMoved:       consumed,
			PricePerUnit:    offer.PricePerUnit,
			TransactionType: domain.TransactionTypeTrade,
			TransactionAt:   now,
		})

		s.Details.UnitsTraded += consumed
		s.Details.TotalValue = s.Details.TotalValue.Add(offer.PricePerUnit.Mul(decimal.NewFromInt(consumed)))
		remaining -= consumed
	}

	s.Details.TransactionsCount = len(s.Transactions)
	return s, nil
}

// Conserved reports whether two snapshots of an asset's fractions hold the same number of units
func Conserved(before, after []*domain.Fraction) bool {
	return domain.TotalUnits(before) == domain.TotalUnits(after)
}

// Ledger persists settlements
type Ledger struct {
	FractionRepo    domain.FractionRepository
	TransactionRepo domain.TransactionRepository
}

// NewLedger creates a new Ledger instance
func NewLedger(fractionRepo domain.FractionRepository, transactionRepo domain.TransactionRepository) *Ledger {
	return &Ledger{
		FractionRepo:    fractionRepo,
		TransactionRepo: transactionRepo,
	}
}

// Apply writes seller updates, then buyer fractions, then transaction records.
// Buyer fractions go first among the inserts because transactions reference them.
func (l *Ledger) Apply(ctx context.Context, s *Settlement) error {
	for _, f := range s.Updated {
		if err := l.FractionRepo.Update(ctx, f); err != nil {
			return fmt.Errorf("failed to update seller fraction %s: %w", f.ID, err)
		}
	}

	for _, f := range s.Created {
		if err := l.FractionRepo.Create(ctx, f); err != nil {
			return fmt.Errorf("failed to create buyer fraction: %w", err)
		}
	}

	for _, tx := range s.Transactions {
		if err := l.TransactionRepo.Create(ctx, tx); err != nil {
			return fmt.Errorf("failed to record transaction: %w", err)
		}
	}

	return nil
}
