package postgres

import (
	"context"
	"fmt"

	"github.com/simaogato/fraxion-backend/internal/domain"
)

// transactor implements domain.Transactor on top of database/sql transactions
type transactor struct {
	db *DB
}

// NewTransactor creates a new transactor
func NewTransactor(db *DB) domain.Transactor {
	return &transactor{db: db}
}

// WithinTransaction begins a transaction, binds it to the context handed to fn and commits
// when fn succeeds. Nested calls join the outer transaction.
func (t *transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	// Start a database transaction
	dbTx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	if err := fn(context.WithValue(ctx, txKey{}, dbTx)); err != nil {
		return err
	}

	// Commit the transaction
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
