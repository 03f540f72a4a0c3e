// Package memory is an in-process ledger store. Units of work are serialised and
// write to a private copy of the tables that is merged into the committed tables
// only when the unit of work succeeds. Readers outside a unit of work only see committed rows.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/simaogato/fraxion-backend/internal/domain"
)

type state struct {
	users        map[uuid.UUID]domain.User
	assets       map[uuid.UUID]domain.Asset
	fractions    map[uuid.UUID]domain.Fraction
	offers       map[uuid.UUID]domain.Offer
	transactions map[uuid.UUID]domain.Transaction
	history      map[uuid.UUID]domain.AssetValueHistory

	// insertion order, used as the tie-break after created_at
	seq   map[uuid.UUID]int64
	clock int64
}

func newState() *state {
	return &state{
		users:        make(map[uuid.UUID]domain.User),
		assets:       make(map[uuid.UUID]domain.Asset),
		fractions:    make(map[uuid.UUID]domain.Fraction),
		offers:       make(map[uuid.UUID]domain.Offer),
		transactions: make(map[uuid.UUID]domain.Transaction),
		history:      make(map[uuid.UUID]domain.AssetValueHistory),
		seq:          make(map[uuid.UUID]int64),
	}
}

func (s *state) clone() *state {
	c := &state{
		users:        make(map[uuid.UUID]domain.User, len(s.users)),
		assets:       make(map[uuid.UUID]domain.Asset, len(s.assets)),
		fractions:    make(map[uuid.UUID]domain.Fraction, len(s.fractions)),
		offers:       make(map[uuid.UUID]domain.Offer, len(s.offers)),
		transactions: make(map[uuid.UUID]domain.Transaction, len(s.transactions)),
		history:      make(map[uuid.UUID]domain.AssetValueHistory, len(s.history)),
		seq:          make(map[uuid.UUID]int64, len(s.seq)),
		clock:        s.clock,
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.assets {
		c.assets[k] = v
	}
	for k, v := range s.fractions {
		c.fractions[k] = v
	}
	for k, v := range s.offers {
		c.offers[k] = v
	}
	for k, v := range s.transactions {
		c.transactions[k] = v
	}
	for k, v := range s.history {
		c.history[k] = v
	}
	for k, v := range s.seq {
		c.seq[k] = v
	}
	return c
}

func (s *state) stamp(id uuid.UUID) {
	s.clock++
	s.seq[id] = s.clock
}

// merge publishes the rows a unit of work changed relative to base.
// Rows changed outside the unit of work since base was taken are kept unless the unit of work changed them too.
func (s *state) merge(base, staged *state) {
	mergeTable(s.users, base.users, staged.users)
	mergeTable(s.assets, base.assets, staged.assets)
	mergeTable(s.fractions, base.fractions, staged.fractions)
	mergeTable(s.offers, base.offers, staged.offers)
	mergeTable(s.transactions, base.transactions, staged.transactions)
	mergeTable(s.history, base.history, staged.history)

	// rows inserted by the unit of work sort after rows committed meanwhile
	inserted := make([]uuid.UUID, 0)
	for id := range staged.seq {
		if _, ok := base.seq[id]; !ok {
			inserted = append(inserted, id)
		}
	}
	sort.Slice(inserted, func(i, j int) bool { return staged.seq[inserted[i]] < staged.seq[inserted[j]] })
	for _, id := range inserted {
		s.stamp(id)
	}
}

func mergeTable[V comparable](dst, base, staged map[uuid.UUID]V) {
	for id, row := range staged {
		if old, ok := base[id]; ok && old == row {
			continue
		}
		dst[id] = row
	}
}

// Store holds every table in memory and implements domain.Transactor
type Store struct {
	txMu sync.Mutex   // serialises units of work
	mu   sync.RWMutex // guards data
	data *state
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{data: newState()}
}

type txKey struct{}

// txState is the private copy of the tables owned by one unit of work
type txState struct {
	mu   sync.RWMutex
	base *state
	data *state
}

func txFromContext(ctx context.Context) *txState {
	tx, _ := ctx.Value(txKey{}).(*txState)
	return tx
}

// WithinTransaction runs fn as one unit of work. Nested calls join the outer unit of work.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	tx := &txState{base: s.data.clone()}
	s.mu.RUnlock()
	tx.data = tx.base.clone()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	tx.mu.RLock()
	defer tx.mu.RUnlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.merge(tx.base, tx.data)

	return nil
}

// Ping implements domain.Pinger
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// read runs fn against the unit of work's copy when ctx carries one, otherwise against committed rows
func (s *Store) read(ctx context.Context, fn func(d *state)) {
	if tx := txFromContext(ctx); tx != nil {
		tx.mu.RLock()
		defer tx.mu.RUnlock()
		fn(tx.data)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.data)
}

// write is read for mutations. Outside a unit of work the change is committed immediately.
func (s *Store) write(ctx context.Context, fn func(d *state) error) error {
	if tx := txFromContext(ctx); tx != nil {
		tx.mu.Lock()
		defer tx.mu.Unlock()
		return fn(tx.data)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.data)
}

// Users returns the user repository backed by this store
func (s *Store) Users() domain.UserRepository { return &userRepository{s} }

// Assets returns the asset repository backed by this store
func (s *Store) Assets() domain.AssetRepository { return &assetRepository{s} }

// Fractions returns the fraction repository backed by this store
func (s *Store) Fractions() domain.FractionRepository { return &fractionRepository{s} }

// Offers returns the offer repository backed by this store
func (s *Store) Offers() domain.OfferRepository { return &offerRepository{s} }

// Transactions returns the transaction repository backed by this store
func (s *Store) Transactions() domain.TransactionRepository { return &transactionRepository{s} }

// AssetValues returns the asset value history repository backed by this store
func (s *Store) AssetValues() domain.AssetValueRepository { return &assetValueRepository{s} }

func paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
