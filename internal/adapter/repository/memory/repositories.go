package memory

import (
	"cmp"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/simaogato/fraxion-backend/internal/domain"
)

// Rows are stored and returned by value so callers never alias stored state.

type userRepository struct{ s *Store }

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var (
		user domain.User
		ok   bool
	)
	r.s.read(ctx, func(d *state) { user, ok = d.users[id] })
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var (
		user domain.User
		ok   bool
	)
	r.s.read(ctx, func(d *state) { user, ok = d.userByEmail(email) })
	if !ok {
		return nil, fmt.Errorf("user with email %s: %w", email, domain.ErrNotFound)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	return r.s.write(ctx, func(d *state) error {
		if _, exists := d.users[user.ID]; exists {
			return fmt.Errorf("failed to create user: duplicate id %s", user.ID)
		}
		if _, taken := d.userByEmail(user.Email); taken {
			return domain.NewConflictError("Email already exists")
		}
		d.users[user.ID] = *user
		d.stamp(user.ID)
		return nil
	})
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	return r.s.write(ctx, func(d *state) error {
		stored, ok := d.users[user.ID]
		if !ok {
			return fmt.Errorf("user %s: %w", user.ID, domain.ErrNotFound)
		}
		if other, taken := d.userByEmail(user.Email); taken && other.ID != user.ID {
			return domain.NewConflictError("Email already exists")
		}
		stored.Name = user.Name
		stored.Email = user.Email
		stored.IsManager = user.IsManager
		stored.IsDeleted = user.IsDeleted
		d.users[user.ID] = stored
		return nil
	})
}

func (r *userRepository) List(ctx context.Context, query domain.UserQuery) ([]*domain.User, error) {
	users := make([]*domain.User, 0)
	r.s.read(ctx, func(d *state) {
		for _, u := range d.users {
			if query.ManagersOnly && !u.IsManager {
				continue
			}
			if !query.IncludeDeleted && u.IsDeleted {
				continue
			}
			u := u
			users = append(users, &u)
		}
		sort.Slice(users, func(i, j int) bool {
			return d.seq[users[i].ID] < d.seq[users[j].ID]
		})
	})
	return paginate(users, query.Limit, query.Offset), nil
}

// userByEmail mirrors the unique index on users.email
func (d *state) userByEmail(email string) (domain.User, bool) {
	for _, u := range d.users {
		if u.Email == email {
			return u, true
		}
	}
	return domain.User{}, false
}

type assetRepository struct{ s *Store }

func (r *assetRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Asset, error) {
	var (
		asset domain.Asset
		ok    bool
	)
	r.s.read(ctx, func(d *state) { asset, ok = d.assets[id] })
	if !ok {
		return nil, fmt.Errorf("asset %s: %w", id, domain.ErrNotFound)
	}
	return &asset, nil
}

func (r *assetRepository) Create(ctx context.Context, asset *domain.Asset) error {
	return r.s.write(ctx, func(d *state) error {
		if _, exists := d.assets[asset.ID]; exists {
			return fmt.Errorf("failed to create asset: duplicate id %s", asset.ID)
		}
		d.assets[asset.ID] = *asset
		d.stamp(asset.ID)
		return nil
	})
}

func (r *assetRepository) UpdateTotalValue(ctx context.Context, asset *domain.Asset) error {
	return r.s.write(ctx, func(d *state) error {
		stored, ok := d.assets[asset.ID]
		if !ok {
			return fmt.Errorf("asset %s: %w", asset.ID, domain.ErrNotFound)
		}
		stored.TotalValue = asset.TotalValue
		d.assets[asset.ID] = stored
		return nil
	})
}

func (r *assetRepository) List(ctx context.Context, limit, offset int) ([]*domain.Asset, error) {
	var assets []*domain.Asset
	r.s.read(ctx, func(d *state) {
		for _, a := range d.assets {
			a := a
			assets = append(assets, &a)
		}
		sort.Slice(assets, func(i, j int) bool {
			return d.seq[assets[i].ID] < d.seq[assets[j].ID]
		})
	})
	return paginate(assets, limit, offset), nil
}

type fractionRepository struct{ s *Store }

func (r *fractionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Fraction, error) {
	var (
		fraction domain.Fraction
		ok       bool
	)
	r.s.read(ctx, func(d *state) { fraction, ok = d.fractions[id] })
	if !ok {
		return nil, fmt.Errorf("fraction %s: %w", id, domain.ErrNotFound)
	}
	return &fraction, nil
}

func (r *fractionRepository) Create(ctx context.Context, fraction *domain.Fraction) error {
	return r.s.write(ctx, func(d *state) error {
		if _, exists := d.fractions[fraction.ID]; exists {
			return fmt.Errorf("failed to create fraction: duplicate id %s", fraction.ID)
		}
		if _, ok := d.assets[fraction.AssetID]; !ok {
			return fmt.Errorf("failed to create fraction: asset %s does not exist", fraction.AssetID)
		}
		if _, ok := d.users[fraction.OwnerID]; !ok {
			return fmt.Errorf("failed to create fraction: owner %s does not exist", fraction.OwnerID)
		}
		d.fractions[fraction.ID] = *fraction
		d.stamp(fraction.ID)
		return nil
	})
}

func (r *fractionRepository) Update(ctx context.Context, fraction *domain.Fraction) error {
	return r.s.write(ctx, func(d *state) error {
		stored, ok := d.fractions[fraction.ID]
		if !ok {
			return fmt.Errorf("fraction %s: %w", fraction.ID, domain.ErrNotFound)
		}
		stored.Units = fraction.Units
		stored.IsActive = fraction.IsActive
		d.fractions[fraction.ID] = stored
		return nil
	})
}

func (r *fractionRepository) ListActiveByOwnerAndAsset(ctx context.Context, ownerID, assetID uuid.UUID, forUpdate bool) ([]*domain.Fraction, error) {
	return r.filter(ctx, func(f domain.Fraction) bool {
		return f.OwnerID == ownerID && f.AssetID == assetID && f.IsActive
	}), nil
}

func (r *fractionRepository) SumActiveUnits(ctx context.Context, ownerID, assetID uuid.UUID) (int64, error) {
	fractions, _ := r.ListActiveByOwnerAndAsset(ctx, ownerID, assetID, false)
	return domain.TotalUnits(fractions), nil
}

func (r *fractionRepository) ActiveUnitsByAsset(ctx context.Context, ownerID uuid.UUID) ([]domain.AssetUnits, error) {
	fractions := r.filter(ctx, func(f domain.Fraction) bool {
		return f.OwnerID == ownerID && f.IsActive
	})

	totals := make(map[uuid.UUID]int64)
	order := make([]uuid.UUID, 0)
	for _, f := range fractions {
		if _, seen := totals[f.AssetID]; !seen {
			order = append(order, f.AssetID)
		}
		totals[f.AssetID] += f.Units
	}

	result := make([]domain.AssetUnits, 0, len(order))
	for _, assetID := range order {
		result = append(result, domain.AssetUnits{AssetID: assetID, Units: totals[assetID]})
	}
	return result, nil
}

func (r *fractionRepository) ListByAsset(ctx context.Context, assetID uuid.UUID) ([]*domain.Fraction, error) {
	return r.filter(ctx, func(f domain.Fraction) bool { return f.AssetID == assetID }), nil
}

func (r *fractionRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Fraction, error) {
	return r.filter(ctx, func(f domain.Fraction) bool { return f.OwnerID == ownerID }), nil
}

// filter returns matching fractions oldest first (created_at, then insertion order)
func (r *fractionRepository) filter(ctx context.Context, match func(f domain.Fraction) bool) []*domain.Fraction {
	fractions := make([]*domain.Fraction, 0)
	r.s.read(ctx, func(d *state) {
		for _, f := range d.fractions {
			if match(f) {
				f := f
				fractions = append(fractions, &f)
			}
		}
		sort.Slice(fractions, func(i, j int) bool {
			if !fractions[i].CreatedAt.Equal(fractions[j].CreatedAt) {
				return fractions[i].CreatedAt.Before(fractions[j].CreatedAt)
			}
			return d.seq[fractions[i].ID] < d.seq[fractions[j].ID]
		})
	})
	return fractions
}

type offerRepository struct{ s *Store }

func (r *offerRepository) GetByID(ctx context.Context, id uuid.UUID, forUpdate bool) (*domain.Offer, error) {
	var (
		offer domain.Offer
		ok    bool
	)
	r.s.read(ctx, func(d *state) { offer, ok = d.offers[id] })
	if !ok {
		return nil, fmt.Errorf("offer %s: %w", id, domain.ErrNotFound)
	}
	return &offer, nil
}

func (r *offerRepository) Create(ctx context.Context, offer *domain.Offer) error {
	return r.s.write(ctx, func(d *state) error {
		if _, exists := d.offers[offer.ID]; exists {
			return fmt.Errorf("failed to create offer: duplicate id %s", offer.ID)
		}
		if err := d.checkActiveSide(offer); err != nil {
			return err
		}
		d.offers[offer.ID] = *offer
		d.stamp(offer.ID)
		return nil
	})
}

func (r *offerRepository) Update(ctx context.Context, offer *domain.Offer) error {
	return r.s.write(ctx, func(d *state) error {
		if _, ok := d.offers[offer.ID]; !ok {
			return fmt.Errorf("offer %s: %w", offer.ID, domain.ErrNotFound)
		}
		if err := d.checkActiveSide(offer); err != nil {
			return err
		}
		d.offers[offer.ID] = *offer
		return nil
	})
}

// checkActiveSide mirrors the partial unique index on (user_id, asset_id, is_buyer) of valid offers
func (d *state) checkActiveSide(offer *domain.Offer) error {
	if !offer.IsValid {
		return nil
	}
	for _, o := range d.offers {
		if o.ID != offer.ID && o.IsValid && o.UserID == offer.UserID && o.AssetID == offer.AssetID && o.IsBuyer == offer.IsBuyer {
			return domain.NewConflictError(fmt.Sprintf("User already has an active %s offer for this asset", offer.Side()))
		}
	}
	return nil
}

func (r *offerRepository) HasActive(ctx context.Context, userID, assetID uuid.UUID, isBuyer bool, excludeID *uuid.UUID) (bool, error) {
	found := false
	r.s.read(ctx, func(d *state) {
		for _, o := range d.offers {
			if excludeID != nil && o.ID == *excludeID {
				continue
			}
			if o.IsValid && o.UserID == userID && o.AssetID == assetID && o.IsBuyer == isBuyer {
				found = true
				return
			}
		}
	})
	return found, nil
}

func (r *offerRepository) List(ctx context.Context, query domain.OfferQuery) ([]*domain.Offer, error) {
	return paginate(r.match(ctx, query), query.Limit, query.Offset), nil
}

func (r *offerRepository) Count(ctx context.Context, query domain.OfferQuery) (int, error) {
	return len(r.match(ctx, query)), nil
}

func (r *offerRepository) match(ctx context.Context, q domain.OfferQuery) []*domain.Offer {
	offers := make([]*domain.Offer, 0)
	r.s.read(ctx, func(d *state) {
		for _, o := range d.offers {
			if !offerMatches(o, q) {
				continue
			}
			o := o
			offers = append(offers, &o)
		}
		sort.Slice(offers, func(i, j int) bool {
			a, b := offers[i], offers[j]
			c := compareOffers(a, b, q.SortBy)
			if c == 0 {
				c = cmp.Compare(d.seq[a.ID], d.seq[b.ID])
			}
			if q.Descending {
				return c > 0
			}
			return c < 0
		})
	})
	return offers
}

func compareOffers(a, b *domain.Offer, field domain.OfferSortField) int {
	switch field {
	case domain.OfferSortPricePerUnit:
		return a.PricePerUnit.Cmp(b.PricePerUnit)
	case domain.OfferSortUnits:
		return cmp.Compare(a.Units, b.Units)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func offerMatches(o domain.Offer, q domain.OfferQuery) bool {
	switch {
	case q.AssetID != nil && o.AssetID != *q.AssetID:
		return false
	case q.UserID != nil && o.UserID != *q.UserID:
		return false
	case q.IsBuyer != nil && o.IsBuyer != *q.IsBuyer:
		return false
	case q.IsValid != nil && o.IsValid != *q.IsValid:
		return false
	case q.MinPrice != nil && o.PricePerUnit.LessThan(*q.MinPrice):
		return false
	case q.MaxPrice != nil && o.PricePerUnit.GreaterThan(*q.MaxPrice):
		return false
	case q.MinUnits != nil && o.Units < *q.MinUnits:
		return false
	case q.MaxUnits != nil && o.Units > *q.MaxUnits:
		return false
	case q.CreatedAfter != nil && o.CreatedAt.Before(*q.CreatedAfter):
		return false
	case q.CreatedBefore != nil && o.CreatedAt.After(*q.CreatedBefore):
		return false
	}
	return true
}

type transactionRepository struct{ s *Store }

func (r *transactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	return r.s.write(ctx, func(d *state) error {
		if _, exists := d.transactions[tx.ID]; exists {
			return fmt.Errorf("failed to insert transaction: duplicate id %s", tx.ID)
		}
		if _, ok := d.fractions[tx.FractionID]; !ok {
			return fmt.Errorf("failed to insert transaction: fraction %s does not exist", tx.FractionID)
		}
		d.transactions[tx.ID] = *tx
		d.stamp(tx.ID)
		return nil
	})
}

func (r *transactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	var (
		tx domain.Transaction
		ok bool
	)
	r.s.read(ctx, func(d *state) { tx, ok = d.transactions[id] })
	if !ok {
		return nil, fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	}
	return &tx, nil
}

func (r *transactionRepository) List(ctx context.Context, query domain.TransactionQuery) ([]*domain.Transaction, error) {
	return paginate(r.match(ctx, query), query.Limit, query.Offset), nil
}

func (r *transactionRepository) Count(ctx context.Context, query domain.TransactionQuery) (int, error) {
	return len(r.match(ctx, query)), nil
}

// match joins each transaction to the fraction it created to apply the asset filter
func (r *transactionRepository) match(ctx context.Context, q domain.TransactionQuery) []*domain.Transaction {
	txs := make([]*domain.Transaction, 0)
	r.s.read(ctx, func(d *state) {
		for _, tx := range d.transactions {
			if q.UserID != nil && !involves(tx, *q.UserID, q.Direction) {
				continue
			}
			if q.FractionID != nil && tx.FractionID != *q.FractionID {
				continue
			}
			fraction, ok := d.fractions[tx.FractionID]
			if !ok {
				continue
			}
			if q.AssetID != nil && fraction.AssetID != *q.AssetID {
				continue
			}
			tx := tx
			txs = append(txs, &tx)
		}
		sort.Slice(txs, func(i, j int) bool {
			if !txs[i].TransactionAt.Equal(txs[j].TransactionAt) {
				return txs[i].TransactionAt.After(txs[j].TransactionAt)
			}
			return d.seq[txs[i].ID] > d.seq[txs[j].ID]
		})
	})
	return txs
}

func involves(tx domain.Transaction, userID uuid.UUID, direction domain.TransactionDirection) bool {
	switch direction {
	case domain.DirectionBuy:
		return tx.ToOwnerID == userID
	case domain.DirectionSell:
		return tx.FromOwnerID == userID
	default:
		return tx.FromOwnerID == userID || tx.ToOwnerID == userID
	}
}

type assetValueRepository struct{ s *Store }

func (r *assetValueRepository) Add(ctx context.Context, entry *domain.AssetValueHistory) error {
	return r.s.write(ctx, func(d *state) error {
		if _, ok := d.assets[entry.AssetID]; !ok {
			return fmt.Errorf("failed to insert asset value history entry: asset %s does not exist", entry.AssetID)
		}
		d.history[entry.ID] = *entry
		d.stamp(entry.ID)
		return nil
	})
}

func (r *assetValueRepository) GetLatest(ctx context.Context, assetID uuid.UUID) (*domain.AssetValueHistory, error) {
	entries, _ := r.List(ctx, assetID, nil, nil)
	if len(entries) == 0 {
		return nil, fmt.Errorf("no value history found for asset %s: %w", assetID, domain.ErrNotFound)
	}
	return entries[len(entries)-1], nil
}

func (r *assetValueRepository) List(ctx context.Context, assetID uuid.UUID, from, to *time.Time) ([]*domain.AssetValueHistory, error) {
	entries := make([]*domain.AssetValueHistory, 0)
	r.s.read(ctx, func(d *state) {
		for _, e := range d.history {
			if e.AssetID != assetID {
				continue
			}
			if from != nil && e.RecordedAt.Before(*from) {
				continue
			}
			if to != nil && e.RecordedAt.After(*to) {
				continue
			}
			e := e
			entries = append(entries, &e)
		}
		sort.Slice(entries, func(i, j int) bool {
			if !entries[i].RecordedAt.Equal(entries[j].RecordedAt) {
				return entries[i].RecordedAt.Before(entries[j].RecordedAt)
			}
			return d.seq[entries[i].ID] < d.seq[entries[j].ID]
		})
	})
	return entries, nil
}
