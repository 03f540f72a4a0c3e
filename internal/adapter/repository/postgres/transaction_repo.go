package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/fraxion-backend/internal/domain"
)

// transactionRepository implements domain.TransactionRepository
type transactionRepository struct {
	db *DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *DB) domain.TransactionRepository {
	return &transactionRepository{db: db}
}

// Create appends a transaction record
func (r *transactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	query := `
		INSERT INTO transactions (id, asset_id, fraction_id, offer_id, from_owner_id, to_owner_id,
			unit_moved, price_perunit, transaction_type, transaction_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	var offerID interface{}
	if tx.OfferID != nil {
		offerID = *tx.OfferID
	}

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		tx.ID,
		tx.AssetID,
		tx.FractionID,
		offerID,
		tx.FromOwnerID,
		tx.ToOwnerID,
		tx.UnitMoved,
		tx.PricePerUnit.String(),
		tx.TransactionType,
		tx.TransactionAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	return nil
}

const transactionColumns = `t.id, t.asset_id, t.fraction_id, t.offer_id, t.from_owner_id, t.to_owner_id,
	t.unit_moved, t.price_perunit, t.transaction_type, t.transaction_at`

// transactionFilter joins each transaction to the fraction it created so the asset filter
// follows the fraction, never the denormalised transactions.asset_id
func transactionFilter(q domain.TransactionQuery) (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, strings.ReplaceAll(cond, "$?", fmt.Sprintf("$%d", len(args))))
	}

	if q.UserID != nil {
		switch q.Direction {
		case domain.DirectionBuy:
			add("t.to_owner_id = $?", *q.UserID)
		case domain.DirectionSell:
			add("t.from_owner_id = $?", *q.UserID)
		default:
			add("(t.from_owner_id = $? OR t.to_owner_id = $?)", *q.UserID)
		}
	}
	if q.AssetID != nil {
		add("f.asset_id = $?", *q.AssetID)
	}
	if q.FractionID != nil {
		add("t.fraction_id = $?", *q.FractionID)
	}

	from := ` FROM transactions t JOIN fractions f ON f.id = t.fraction_id`
	if len(conds) == 0 {
		return from, nil
	}
	return from + " WHERE " + strings.Join(conds, " AND "), args
}

func scanTransaction(row interface{ Scan(dest ...any) error }) (*domain.Transaction, error) {
	var tx domain.Transaction
	var offerID uuid.NullUUID
	var priceStr string

	if err := row.Scan(
		&tx.ID,
		&tx.AssetID,
		&tx.FractionID,
		&offerID,
		&tx.FromOwnerID,
		&tx.ToOwnerID,
		&tx.UnitMoved,
		&priceStr,
		&tx.TransactionType,
		&tx.TransactionAt,
	); err != nil {
		return nil, err
	}

	if offerID.Valid {
		id := offerID.UUID
		tx.OfferID = &id
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse price_perunit: %w", err)
	}
	tx.PricePerUnit = price

	return &tx, nil
}

// GetByID retrieves a transaction by its ID
func (r *transactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions t WHERE t.id = $1`

	tx, err := scanTransaction(r.db.conn(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get transaction by ID: %w", err)
	}

	return tx, nil
}

// List retrieves transactions matching the query, newest first
func (r *transactionRepository) List(ctx context.Context, q domain.TransactionQuery) ([]*domain.Transaction, error) {
	from, args := transactionFilter(q)
	query := `SELECT ` + transactionColumns + from + ` ORDER BY t.transaction_at DESC, t.id DESC`

	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if q.Offset > 0 {
		args = append(args, q.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	transactions := make([]*domain.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return transactions, nil
}

// Count returns the number of transactions matching the query, ignoring limit and offset
func (r *transactionRepository) Count(ctx context.Context, q domain.TransactionQuery) (int, error) {
	from, args := transactionFilter(q)

	var count int
	if err := r.db.conn(ctx).QueryRowContext(ctx, `SELECT COUNT(*)`+from, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	return count, nil
}
