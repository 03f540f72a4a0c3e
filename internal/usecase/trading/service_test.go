package trading

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/simaogato/fraxion-backend/internal/adapter/repository/memory"
	"github.com/simaogato/fraxion-backend/internal/domain"
	"github.com/simaogato/fraxion-backend/internal/usecase/accounting"
)

type fixture struct {
	t       *testing.T
	store   *memory.Store
	asset   *domain.Asset
	seller  *domain.User
	buyer   *domain.User
	events  []domain.Event
	mu      sync.Mutex
	service *TradingService
}

func (f *fixture) Publish(event domain.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	f := &fixture{t: t, store: store}
	f.seller = f.addUser("seller")
	f.buyer = f.addUser("buyer")

	f.asset = &domain.Asset{
		ID: domain.NewID(), Name: "Orchard", TotalUnit: 1000, UnitMin: 1, UnitMax: 1000,
		TotalValue: decimal.NewFromInt(100000), CreatedAt: time.Now(),
	}
	require.NoError(t, store.Assets().Create(ctx, f.asset))

	f.service = NewTradingService(store, store.Offers(), store.Fractions(), store.Users(),
		accounting.NewLedger(store.Fractions(), store.Transactions()), f, zap.NewNop())
	return f
}

func (f *fixture) addUser(name string) *domain.User {
	f.t.Helper()
	user := &domain.User{ID: domain.NewID(), Name: name, Email: name + "@example.com", CreatedAt: time.Now()}
	require.NoError(f.t, f.store.Users().Create(context.Background(), user))
	return user
}

func (f *fixture) addFraction(owner *domain.User, units int64, createdAt time.Time) *domain.Fraction {
	f.t.Helper()
	fraction := &domain.Fraction{
		ID: domain.NewID(), AssetID: f.asset.ID, OwnerID: owner.ID, Units: units, IsActive: true,
		ValuePerUnit: decimal.NewFromInt(100), CreatedAt: createdAt,
	}
	require.NoError(f.t, f.store.Fractions().Create(context.Background(), fraction))
	return fraction
}

func (f *fixture) addOffer(owner *domain.User, isBuyer bool, units int64, price string) *domain.Offer {
	f.t.Helper()
	offer := &domain.Offer{
		ID: domain.NewID(), AssetID: f.asset.ID, UserID: owner.ID, IsBuyer: isBuyer, Units: units,
		PricePerUnit: decimal.RequireFromString(price), IsValid: true, CreatedAt: time.Now(),
	}
	require.NoError(f.t, f.store.Offers().Create(context.Background(), offer))
	return offer
}

func (f *fixture) fraction(id uuid.UUID) *domain.Fraction {
	f.t.Helper()
	fraction, err := f.store.Fractions().GetByID(context.Background(), id)
	require.NoError(f.t, err)
	return fraction
}

func (f *fixture) offerValid(id uuid.UUID) bool {
	f.t.Helper()
	offer, err := f.store.Offers().GetByID(context.Background(), id, false)
	require.NoError(f.t, err)
	return offer.IsValid
}

func (f *fixture) assetUnits() int64 {
	f.t.Helper()
	fractions, err := f.store.Fractions().ListByAsset(context.Background(), f.asset.ID)
	require.NoError(f.t, err)
	return domain.TotalUnits(fractions)
}

func TestExecuteTrade_SellOfferScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	source := f.addFraction(f.seller, 200, time.Now().Add(-time.Hour))
	offer := f.addOffer(f.seller, false, 50, "105.00")

	result, err := f.service.ExecuteTrade(ctx, offer.ID, f.buyer.ID)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "Trade executed successfully", result.Message)
	assert.Equal(t, int64(50), result.TradeDetails.UnitsTraded)
	assert.Equal(t, "5250", result.TradeDetails.TotalValue.String())
	assert.Equal(t, f.buyer.ID, result.TradeDetails.BuyerID)
	assert.Equal(t, f.seller.ID, result.TradeDetails.SellerID)

	seller := f.fraction(source.ID)
	assert.Equal(t, int64(150), seller.Units)
	assert.True(t, seller.IsActive)

	bought, err := f.store.Fractions().ListActiveByOwnerAndAsset(ctx, f.buyer.ID, f.asset.ID, false)
	require.NoError(t, err)
	require.Len(t, bought, 1)
	assert.Equal(t, int64(50), bought[0].Units)
	assert.True(t, bought[0].ValuePerUnit.Equal(decimal.RequireFromString("105.00")))

	txs, err := f.store.Transactions().List(ctx, domain.TransactionQuery{UserID: &f.buyer.ID})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, int64(50), txs[0].UnitMoved)
	assert.True(t, txs[0].PricePerUnit.Equal(decimal.RequireFromString("105.00")))
	assert.Equal(t, offer.ID, *txs[0].OfferID)

	assert.False(t, f.offerValid(offer.ID))
	assert.Equal(t, int64(200), f.assetUnits())

	require.Len(t, f.events, 1)
	assert.Equal(t, domain.EventTradeExecuted, f.events[0].Type)
}

func TestExecuteTrade_BuyOfferRoles(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// the buyer posts the offer, the seller accepts it as counterparty
	f.addFraction(f.seller, 20, time.Now())
	offer := f.addOffer(f.buyer, true, 20, "9.99")

	result, err := f.service.ExecuteTrade(ctx, offer.ID, f.seller.ID)
	require.NoError(t, err)
	assert.Equal(t, "buy", result.TradeDetails.OfferType)
	assert.Equal(t, f.buyer.ID, result.TradeDetails.BuyerID)
	assert.Equal(t, f.seller.ID, result.TradeDetails.SellerID)

	remaining, err := f.store.Fractions().SumActiveUnits(ctx, f.seller.ID, f.asset.ID)
	require.NoError(t, err)
	assert.Zero(t, remaining)
}

func TestExecuteTrade_FIFODepletion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	now := time.Now()
	first := f.addFraction(f.seller, 100, now.Add(-2*time.Hour))
	second := f.addFraction(f.seller, 80, now.Add(-time.Hour))
	offer := f.addOffer(f.seller, false, 150, "10.00")

	result, err := f.service.ExecuteTrade(ctx, offer.ID, f.buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.TradeDetails.TransactionsCount)

	a, b := f.fraction(first.ID), f.fraction(second.ID)
	assert.Equal(t, int64(0), a.Units)
	assert.False(t, a.IsActive)
	assert.Equal(t, int64(30), b.Units)
	assert.True(t, b.IsActive)

	assert.Equal(t, int64(180), f.assetUnits())
}

func TestExecuteTrade_SelfTrade(t *testing.T) {
	f := newFixture(t)
	f.addFraction(f.seller, 10, time.Now())
	offer := f.addOffer(f.seller, false, 5, "1.00")

	_, err := f.service.ExecuteTrade(context.Background(), offer.ID, f.seller.ID)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "Cannot trade with yourself", err.Error())
	assert.True(t, f.offerValid(offer.ID))
}

func TestExecuteTrade_OfferChecks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addFraction(f.seller, 10, time.Now())

	_, err := f.service.ExecuteTrade(ctx, uuid.New(), f.buyer.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, "Offer not found", err.Error())

	offer := f.addOffer(f.seller, false, 5, "1.00")
	_, err = f.service.ExecuteTrade(ctx, offer.ID, f.buyer.ID)
	require.NoError(t, err)

	// filled offers never reopen
	_, err = f.service.ExecuteTrade(ctx, offer.ID, f.buyer.ID)
	assert.ErrorIs(t, err, domain.ErrState)
	assert.Equal(t, "Offer is not active", err.Error())

	another := f.addOffer(f.seller, false, 1, "1.00")
	_, err = f.service.ExecuteTrade(ctx, another.ID, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.True(t, f.offerValid(another.ID))
}

func TestExecuteTrade_InsufficientHoldingsLeavesOfferOpen(t *testing.T) {
	f := newFixture(t)
	f.addFraction(f.seller, 10, time.Now())
	offer := f.addOffer(f.buyer, true, 25, "1.00")

	_, err := f.service.ExecuteTrade(context.Background(), offer.ID, f.seller.ID)
	assert.ErrorIs(t, err, domain.ErrInsufficientHoldings)
	assert.Equal(t, "Seller only has 10 units available", err.Error())
	assert.True(t, f.offerValid(offer.ID))
}

// failingTransactions rejects every insert
type failingTransactions struct {
	domain.TransactionRepository
	err error
}

func (r failingTransactions) Create(context.Context, *domain.Transaction) error {
	return r.err
}

func TestExecuteTrade_RollsBackOnSettlementFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	source := f.addFraction(f.seller, 100, time.Now())
	offer := f.addOffer(f.seller, false, 40, "2.00")

	diskFull := errors.New("disk full")
	f.service.Ledger = accounting.NewLedger(f.store.Fractions(), failingTransactions{f.store.Transactions(), diskFull})

	_, err := f.service.ExecuteTrade(ctx, offer.ID, f.buyer.ID)
	assert.ErrorIs(t, err, domain.ErrSettlement)
	assert.ErrorIs(t, err, diskFull)
	assert.Contains(t, err.Error(), "Trade execution failed: ")

	// nothing from the aborted trade survives
	assert.True(t, f.offerValid(offer.ID))
	assert.Equal(t, int64(100), f.fraction(source.ID).Units)
	bought, err := f.store.Fractions().ListByOwner(ctx, f.buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, bought)
	assert.Empty(t, f.events)
}

// failingFractions fails to load seller fractions
type failingFractions struct {
	domain.FractionRepository
}

func (failingFractions) ListActiveByOwnerAndAsset(context.Context, uuid.UUID, uuid.UUID, bool) ([]*domain.Fraction, error) {
	return nil, errors.New("lock timeout")
}

func TestExecuteTrade_WrapsLoadFailure(t *testing.T) {
	f := newFixture(t)
	offer := f.addOffer(f.seller, false, 1, "1.00")
	f.service.FractionRepo = failingFractions{f.store.Fractions()}

	_, err := f.service.ExecuteTrade(context.Background(), offer.ID, f.buyer.ID)
	assert.ErrorIs(t, err, domain.ErrSettlement)
	assert.Equal(t, "Trade execution failed: lock timeout", err.Error())
}

func TestExecuteTrade_ConcurrentTradesNeverOversell(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addFraction(f.seller, 100, time.Now())

	const buyers = 8
	offers := make([]*domain.Offer, buyers)
	for i := range offers {
		offers[i] = f.addOffer(f.addUser(uuid.NewString()), true, 30, "1.00")
	}

	var wg sync.WaitGroup
	errs := make([]error, buyers)
	for i, offer := range offers {
		wg.Add(1)
		go func(i int, offerID uuid.UUID) {
			defer wg.Done()
			_, errs[i] = f.service.ExecuteTrade(ctx, offerID, f.seller.ID)
		}(i, offer.ID)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrInsufficientHoldings)
	}
	assert.Equal(t, 3, succeeded)

	remaining, err := f.store.Fractions().SumActiveUnits(ctx, f.seller.ID, f.asset.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), remaining)
	assert.Equal(t, int64(100), f.assetUnits())
}
