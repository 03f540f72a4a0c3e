package transaction

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/simaogato/fraxion-backend/internal/domain"
)

const defaultPerPage = 20

// Page selects a window of a transaction listing. PerPage <= 0 uses the default page size.
type Page struct {
	Page    int
	PerPage int
}

func (p Page) window() (limit, offset int) {
	page := max(p.Page, 1)
	perPage := p.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	return perPage, (page - 1) * perPage
}

// TransactionService provides read access to the immutable transaction log
type TransactionService struct {
	TransactionRepo domain.TransactionRepository
	AssetRepo       domain.AssetRepository
	FractionRepo    domain.FractionRepository
	UserRepo        domain.UserRepository
}

// NewTransactionService creates a new TransactionService instance
func NewTransactionService(
	transactionRepo domain.TransactionRepository,
	assetRepo domain.AssetRepository,
	fractionRepo domain.FractionRepository,
	userRepo domain.UserRepository,
) *TransactionService {
	return &TransactionService{
		TransactionRepo: transactionRepo,
		AssetRepo:       assetRepo,
		FractionRepo:    fractionRepo,
		UserRepo:        userRepo,
	}
}

// GetTransaction retrieves a transaction by its ID
func (s *TransactionService) GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	tx, err := s.TransactionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Transaction not found")
	}
	return tx, nil
}

// ListByAsset returns the trades of an asset newest first, with the total match count.
// The asset is resolved through the fraction each trade created.
func (s *TransactionService) ListByAsset(ctx context.Context, assetID uuid.UUID, page Page) ([]*domain.Transaction, int, error) {
	if _, err := s.AssetRepo.GetByID(ctx, assetID); err != nil {
		return nil, 0, notFound(err, "Asset not found")
	}
	return s.list(ctx, domain.TransactionQuery{AssetID: &assetID}, page)
}

// ListByFraction returns the trades that created a fraction, newest first
func (s *TransactionService) ListByFraction(ctx context.Context, fractionID uuid.UUID) ([]*domain.Transaction, error) {
	if _, err := s.FractionRepo.GetByID(ctx, fractionID); err != nil {
		return nil, notFound(err, "Fraction not found")
	}
	return s.TransactionRepo.List(ctx, domain.TransactionQuery{FractionID: &fractionID})
}

// ListByUser returns the trades of a user newest first, with the total match count.
// DirectionBuy keeps trades the user received units in, DirectionSell trades the user gave units in.
func (s *TransactionService) ListByUser(ctx context.Context, userID uuid.UUID, direction domain.TransactionDirection, page Page) ([]*domain.Transaction, int, error) {
	if !direction.Valid() {
		return nil, 0, domain.NewValidationError("direction", "direction must be 'buy' or 'sell'")
	}
	if _, err := s.UserRepo.GetByID(ctx, userID); err != nil {
		return nil, 0, notFound(err, "User not found")
	}
	return s.list(ctx, domain.TransactionQuery{UserID: &userID, Direction: direction}, page)
}

func (s *TransactionService) list(ctx context.Context, query domain.TransactionQuery, page Page) ([]*domain.Transaction, int, error) {
	total, err := s.TransactionRepo.Count(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	query.Limit, query.Offset = page.window()
	items, err := s.TransactionRepo.List(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// notFound turns a repository miss into a user facing not-found error
func notFound(err error, message string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewNotFoundError(message)
	}
	return err
}
