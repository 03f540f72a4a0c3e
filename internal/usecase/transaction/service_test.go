package transaction

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/fraxion-backend/internal/adapter/repository/memory"
	"github.com/simaogato/fraxion-backend/internal/domain"
)

type fixture struct {
	t       *testing.T
	store   *memory.Store
	service *TransactionService
	asset   *domain.Asset
	seller  *domain.User
	buyer   *domain.User
	at      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	f := &fixture{t: t, store: store, at: time.Now().UTC()}
	f.seller = f.addUser("seller")
	f.buyer = f.addUser("buyer")

	f.asset = &domain.Asset{ID: domain.NewID(), Name: "Quarry", TotalUnit: 100, UnitMin: 1, UnitMax: 100,
		TotalValue: decimal.NewFromInt(1000), CreatedAt: f.at}
	require.NoError(t, store.Assets().Create(ctx, f.asset))

	f.service = NewTransactionService(store.Transactions(), store.Assets(), store.Fractions(), store.Users())
	return f
}

func (f *fixture) addUser(name string) *domain.User {
	f.t.Helper()
	user := &domain.User{ID: domain.NewID(), Name: name, Email: name + "@example.com", CreatedAt: time.Now()}
	require.NoError(f.t, f.store.Users().Create(context.Background(), user))
	return user
}

// trade records units moving from one user to another, created minutes after the fixture start
func (f *fixture) trade(from, to *domain.User, units int64, minutes int) *domain.Transaction {
	f.t.Helper()
	ctx := context.Background()

	fraction := &domain.Fraction{ID: domain.NewID(), AssetID: f.asset.ID, OwnerID: to.ID, Units: units, IsActive: true,
		ValuePerUnit: decimal.NewFromInt(10), CreatedAt: f.at}
	require.NoError(f.t, f.store.Fractions().Create(ctx, fraction))

	tx := &domain.Transaction{ID: domain.NewID(), AssetID: f.asset.ID, FractionID: fraction.ID, FromOwnerID: from.ID,
		ToOwnerID: to.ID, UnitMoved: units, PricePerUnit: decimal.NewFromInt(10), TransactionType: domain.TransactionTypeTrade,
		TransactionAt: f.at.Add(time.Duration(minutes) * time.Minute)}
	require.NoError(f.t, f.store.Transactions().Create(ctx, tx))
	return tx
}

func TestGetTransaction(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tx := f.trade(f.seller, f.buyer, 5, 0)

	got, err := f.service.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.UnitMoved)

	_, err = f.service.GetTransaction(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "Transaction not found", err.Error())
}

func TestListByAsset(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first := f.trade(f.seller, f.buyer, 5, 0)
	second := f.trade(f.buyer, f.seller, 2, 1)
	third := f.trade(f.seller, f.buyer, 1, 2)

	items, total, err := f.service.ListByAsset(ctx, f.asset.ID, Page{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, items, 3)
	assert.Equal(t, []uuid.UUID{third.ID, second.ID, first.ID}, []uuid.UUID{items[0].ID, items[1].ID, items[2].ID})

	items, total, err = f.service.ListByAsset(ctx, f.asset.ID, Page{Page: 2, PerPage: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, items, 1)
	assert.Equal(t, first.ID, items[0].ID)

	_, _, err = f.service.ListByAsset(ctx, uuid.New(), Page{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "Asset not found", err.Error())
}

func TestListByFraction(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	tx := f.trade(f.seller, f.buyer, 5, 0)
	f.trade(f.seller, f.buyer, 1, 1)

	items, err := f.service.ListByFraction(ctx, tx.FractionID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, tx.ID, items[0].ID)

	_, err = f.service.ListByFraction(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListByUser_Direction(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	bought := f.trade(f.seller, f.buyer, 5, 0)
	sold := f.trade(f.buyer, f.seller, 2, 1)

	tests := []struct {
		name      string
		direction domain.TransactionDirection
		want      []uuid.UUID
	}{
		{"any", domain.DirectionAny, []uuid.UUID{sold.ID, bought.ID}},
		{"buy", domain.DirectionBuy, []uuid.UUID{bought.ID}},
		{"sell", domain.DirectionSell, []uuid.UUID{sold.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, total, err := f.service.ListByUser(ctx, f.buyer.ID, tt.direction, Page{})
			require.NoError(t, err)
			assert.Equal(t, len(tt.want), total)

			var got []uuid.UUID
			for _, item := range items {
				got = append(got, item.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}

	_, _, err := f.service.ListByUser(ctx, f.buyer.ID, "swap", Page{})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, _, err = f.service.ListByUser(ctx, uuid.New(), domain.DirectionAny, Page{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "User not found", err.Error())
}

// MockTransactionRepository is a mock implementation of TransactionRepository for testing
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) List(ctx context.Context, query domain.TransactionQuery) ([]*domain.Transaction, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) Count(ctx context.Context, query domain.TransactionQuery) (int, error) {
	args := m.Called(ctx, query)
	return args.Int(0), args.Error(1)
}

func TestGetTransaction_RepositoryFailure(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockTransactionRepository)
	service := NewTransactionService(mockRepo, nil, nil, nil)

	id := uuid.New()
	dbErr := errors.New("connection refused")
	mockRepo.On("GetByID", ctx, id).Return(nil, dbErr)

	_, err := service.GetTransaction(ctx, id)
	assert.ErrorIs(t, err, dbErr)
	assert.False(t, domain.IsDomainError(err))
	mockRepo.AssertExpectations(t)
}
