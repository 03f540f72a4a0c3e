package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/fraxion-backend/internal/domain"
)

func seed(t *testing.T, s *Store) (*domain.User, *domain.Asset) {
	t.Helper()
	ctx := context.Background()

	user := &domain.User{ID: domain.NewID(), Name: "Lin", Email: "lin@example.com", CreatedAt: time.Now()}
	require.NoError(t, s.Users().Create(ctx, user))

	asset := &domain.Asset{ID: domain.NewID(), Name: "Barn", TotalUnit: 10, UnitMin: 1, UnitMax: 10,
		TotalValue: decimal.NewFromInt(10), CreatedAt: time.Now()}
	require.NoError(t, s.Assets().Create(ctx, asset))

	return user, asset
}

func TestWithinTransaction_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	user, asset := seed(t, s)

	boom := errors.New("boom")
	err := s.WithinTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, s.Fractions().Create(ctx, &domain.Fraction{
			ID: domain.NewID(), AssetID: asset.ID, OwnerID: user.ID, Units: 10, IsActive: true, CreatedAt: time.Now(),
		}))

		asset.TotalValue = decimal.NewFromInt(99)
		require.NoError(t, s.Assets().UpdateTotalValue(ctx, asset))

		// nested units of work join the outer one
		return s.WithinTransaction(ctx, func(ctx context.Context) error {
			return boom
		})
	})
	assert.ErrorIs(t, err, boom)

	fractions, err := s.Fractions().ListByAsset(ctx, asset.ID)
	require.NoError(t, err)
	assert.Empty(t, fractions)

	stored, err := s.Assets().GetByID(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, "10", stored.TotalValue.String())
}

func TestWithinTransaction_Commits(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	user, asset := seed(t, s)

	err := s.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.Fractions().Create(ctx, &domain.Fraction{
			ID: domain.NewID(), AssetID: asset.ID, OwnerID: user.ID, Units: 10, IsActive: true, CreatedAt: time.Now(),
		})
	})
	require.NoError(t, err)

	sum, err := s.Fractions().SumActiveUnits(ctx, user.ID, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), sum)
}

func TestWithinTransaction_IsolatesUncommittedWrites(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	user, asset := seed(t, s)

	fraction := &domain.Fraction{ID: domain.NewID(), AssetID: asset.ID, OwnerID: user.ID, Units: 10, IsActive: true, CreatedAt: time.Now()}
	require.NoError(t, s.Fractions().Create(ctx, fraction))

	outsider := &domain.User{ID: domain.NewID(), Name: "Outsider", Email: "outsider@example.com", CreatedAt: time.Now()}
	boom := errors.New("boom")

	var (
		outsideSum int64
		outsideErr error
	)
	err := s.WithinTransaction(ctx, func(txCtx context.Context) error {
		consumed := *fraction
		consumed.Consume(10)
		require.NoError(t, s.Fractions().Update(txCtx, &consumed))

		inside, err := s.Fractions().SumActiveUnits(txCtx, user.ID, asset.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), inside)

		done := make(chan struct{})
		go func() {
			defer close(done)
			outsideSum, outsideErr = s.Fractions().SumActiveUnits(ctx, user.ID, asset.ID)
			if outsideErr == nil {
				outsideErr = s.Users().Create(ctx, outsider)
			}
		}()
		<-done

		return boom
	})
	assert.ErrorIs(t, err, boom)

	require.NoError(t, outsideErr)
	assert.Equal(t, int64(10), outsideSum, "uncommitted consumption must not be visible outside the unit of work")

	sum, err := s.Fractions().SumActiveUnits(ctx, user.ID, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), sum)

	kept, err := s.Users().GetByID(ctx, outsider.ID)
	require.NoError(t, err, "rollback must not erase writes committed outside the unit of work")
	assert.Equal(t, "Outsider", kept.Name)
}

func TestWithinTransaction_CommitKeepsConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	user, asset := seed(t, s)

	at := time.Now()
	outsider := &domain.User{ID: domain.NewID(), Name: "Outsider", Email: "outsider@example.com", CreatedAt: at}
	inside := &domain.Fraction{ID: domain.NewID(), AssetID: asset.ID, OwnerID: user.ID, Units: 4, IsActive: true, CreatedAt: at}
	outside := &domain.Fraction{ID: domain.NewID(), AssetID: asset.ID, OwnerID: outsider.ID, Units: 6, IsActive: true, CreatedAt: at}

	err := s.WithinTransaction(ctx, func(txCtx context.Context) error {
		require.NoError(t, s.Fractions().Create(txCtx, inside))

		done := make(chan error)
		go func() {
			if err := s.Users().Create(ctx, outsider); err != nil {
				done <- err
				return
			}
			done <- s.Fractions().Create(ctx, outside)
		}()
		require.NoError(t, <-done)

		return nil
	})
	require.NoError(t, err)

	_, err = s.Users().GetByID(ctx, outsider.ID)
	assert.NoError(t, err)

	// rows inserted by the unit of work sort after rows committed while it ran
	fractions, err := s.Fractions().ListByAsset(ctx, asset.ID)
	require.NoError(t, err)
	require.Len(t, fractions, 2)
	assert.Equal(t, outside.ID, fractions[0].ID)
	assert.Equal(t, inside.ID, fractions[1].ID)
}

func TestUsers_EmailAndList(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	user, _ := seed(t, s)

	found, err := s.Users().GetByEmail(ctx, "lin@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = s.Users().GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	dup := &domain.User{ID: domain.NewID(), Name: "Copy", Email: "lin@example.com"}
	assert.ErrorIs(t, s.Users().Create(ctx, dup), domain.ErrConflict)

	manager := &domain.User{ID: domain.NewID(), Name: "Mo", Email: "mo@example.com", IsManager: true}
	require.NoError(t, s.Users().Create(ctx, manager))

	managers, err := s.Users().List(ctx, domain.UserQuery{ManagersOnly: true})
	require.NoError(t, err)
	require.Len(t, managers, 1)
	assert.Equal(t, manager.ID, managers[0].ID)

	user.IsDeleted = true
	require.NoError(t, s.Users().Update(ctx, user))

	active, err := s.Users().List(ctx, domain.UserQuery{})
	require.NoError(t, err)
	require.Len(t, active, 1)

	all, err := s.Users().List(ctx, domain.UserQuery{IncludeDeleted: true, Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, manager.ID, all[0].ID)

	manager.Email = "lin@example.com"
	assert.ErrorIs(t, s.Users().Update(ctx, manager), domain.ErrConflict)
}

func TestTransactions_Query(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seller, asset := seed(t, s)

	buyer := &domain.User{ID: domain.NewID(), Name: "Bo", Email: "bo@example.com"}
	require.NoError(t, s.Users().Create(ctx, buyer))

	other := &domain.Asset{ID: domain.NewID(), Name: "Mill", TotalUnit: 10, UnitMin: 1, UnitMax: 10, TotalValue: decimal.NewFromInt(10)}
	require.NoError(t, s.Assets().Create(ctx, other))

	at := time.Now()
	record := func(assetID uuid.UUID, from, to uuid.UUID, offset time.Duration) *domain.Transaction {
		f := &domain.Fraction{ID: domain.NewID(), AssetID: assetID, OwnerID: to, Units: 1, IsActive: true, CreatedAt: at}
		require.NoError(t, s.Fractions().Create(ctx, f))
		tx := &domain.Transaction{ID: domain.NewID(), AssetID: assetID, FractionID: f.ID, FromOwnerID: from, ToOwnerID: to,
			UnitMoved: 1, PricePerUnit: decimal.NewFromInt(1), TransactionType: domain.TransactionTypeTrade, TransactionAt: at.Add(offset)}
		require.NoError(t, s.Transactions().Create(ctx, tx))
		return tx
	}

	first := record(asset.ID, seller.ID, buyer.ID, 0)
	second := record(other.ID, seller.ID, buyer.ID, time.Minute)
	back := record(asset.ID, buyer.ID, seller.ID, 2*time.Minute)

	got, err := s.Transactions().GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.FractionID, got.FractionID)

	_, err = s.Transactions().GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	byAsset, err := s.Transactions().List(ctx, domain.TransactionQuery{AssetID: &asset.ID})
	require.NoError(t, err)
	require.Len(t, byAsset, 2)
	assert.Equal(t, back.ID, byAsset[0].ID, "newest first")

	byFraction, err := s.Transactions().List(ctx, domain.TransactionQuery{FractionID: &second.FractionID})
	require.NoError(t, err)
	require.Len(t, byFraction, 1)
	assert.Equal(t, second.ID, byFraction[0].ID)

	buys, err := s.Transactions().List(ctx, domain.TransactionQuery{UserID: &buyer.ID, Direction: domain.DirectionBuy})
	require.NoError(t, err)
	assert.Len(t, buys, 2)

	sells, err := s.Transactions().List(ctx, domain.TransactionQuery{UserID: &buyer.ID, Direction: domain.DirectionSell})
	require.NoError(t, err)
	require.Len(t, sells, 1)
	assert.Equal(t, back.ID, sells[0].ID)

	count, err := s.Transactions().Count(ctx, domain.TransactionQuery{UserID: &seller.ID, AssetID: &asset.ID, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestFractions_FIFOOrderWithTies(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	user, asset := seed(t, s)

	at := time.Now()
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		f := &domain.Fraction{ID: domain.NewID(), AssetID: asset.ID, OwnerID: user.ID, Units: 1, IsActive: true, CreatedAt: at}
		require.NoError(t, s.Fractions().Create(ctx, f))
		ids = append(ids, f.ID)
	}
	older := &domain.Fraction{ID: domain.NewID(), AssetID: asset.ID, OwnerID: user.ID, Units: 1, IsActive: true, CreatedAt: at.Add(-time.Minute)}
	require.NoError(t, s.Fractions().Create(ctx, older))

	active, err := s.Fractions().ListActiveByOwnerAndAsset(ctx, user.ID, asset.ID, true)
	require.NoError(t, err)
	require.Len(t, active, 4)
	assert.Equal(t, older.ID, active[0].ID)
	for i, id := range ids {
		assert.Equal(t, id, active[i+1].ID)
	}
}

func TestFractions_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	user, asset := seed(t, s)

	f := &domain.Fraction{ID: domain.NewID(), AssetID: asset.ID, OwnerID: user.ID, Units: 5, IsActive: true, CreatedAt: time.Now()}
	require.NoError(t, s.Fractions().Create(ctx, f))

	got, err := s.Fractions().GetByID(ctx, f.ID)
	require.NoError(t, err)
	got.Units = 0

	again, err := s.Fractions().GetByID(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), again.Units)
}

func TestFractions_RejectsUnknownOwner(t *testing.T) {
	s := NewStore()
	_, asset := seed(t, s)

	err := s.Fractions().Create(context.Background(), &domain.Fraction{ID: domain.NewID(), AssetID: asset.ID, OwnerID: uuid.New(), Units: 1})
	assert.Error(t, err)
}

func TestOffers_SortAndPaginate(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	_, asset := seed(t, s)

	prices := []string{"3.00", "1.00", "2.00"}
	for _, p := range prices {
		owner := &domain.User{ID: domain.NewID(), Name: p, Email: p + "@example.com"}
		require.NoError(t, s.Users().Create(ctx, owner))
		require.NoError(t, s.Offers().Create(ctx, &domain.Offer{
			ID: domain.NewID(), AssetID: asset.ID, UserID: owner.ID, Units: 1,
			PricePerUnit: decimal.RequireFromString(p), IsValid: true, CreatedAt: time.Now(),
		}))
	}

	offers, err := s.Offers().List(ctx, domain.OfferQuery{SortBy: domain.OfferSortPricePerUnit, Descending: true})
	require.NoError(t, err)
	require.Len(t, offers, 3)
	assert.Equal(t, "3", offers[0].PricePerUnit.String())
	assert.Equal(t, "1", offers[2].PricePerUnit.String())

	page, err := s.Offers().List(ctx, domain.OfferQuery{SortBy: domain.OfferSortPricePerUnit, Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "2", page[0].PricePerUnit.String())

	count, err := s.Offers().Count(ctx, domain.OfferQuery{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestOffers_OneActivePerSide(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	user, asset := seed(t, s)

	first := &domain.Offer{ID: domain.NewID(), AssetID: asset.ID, UserID: user.ID, IsBuyer: true, Units: 1,
		PricePerUnit: decimal.NewFromInt(1), IsValid: true}
	require.NoError(t, s.Offers().Create(ctx, first))

	second := *first
	second.ID = domain.NewID()
	err := s.Offers().Create(ctx, &second)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, "User already has an active buy offer for this asset", err.Error())

	first.IsValid = false
	require.NoError(t, s.Offers().Update(ctx, first))
	assert.NoError(t, s.Offers().Create(ctx, &second))
}

func TestAssetValues_LatestAndRange(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	user, asset := seed(t, s)

	_, err := s.AssetValues().GetLatest(ctx, asset.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	base := time.Now()
	for i, v := range []int64{100, 200, 300} {
		require.NoError(t, s.AssetValues().Add(ctx, &domain.AssetValueHistory{
			ID: domain.NewID(), AssetID: asset.ID, Value: decimal.NewFromInt(v), AdjustedBy: user.ID,
			RecordedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	latest, err := s.AssetValues().GetLatest(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, "300", latest.Value.String())

	from, to := base.Add(30*time.Minute), base.Add(90*time.Minute)
	ranged, err := s.AssetValues().List(ctx, asset.ID, &from, &to)
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, "200", ranged[0].Value.String())
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	assert.Equal(t, []int{1, 2, 3, 4, 5}, paginate(items, 0, 0))
	assert.Equal(t, []int{3, 4}, paginate(items, 2, 2))
	assert.Equal(t, []int{5}, paginate(items, 2, 4))
	assert.Equal(t, []int{}, paginate(items, 2, 9))
}
