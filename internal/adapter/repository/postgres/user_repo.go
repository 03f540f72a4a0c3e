package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/simaogato/fraxion-backend/internal/domain"
)

// userRepository implements domain.UserRepository
type userRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) domain.UserRepository {
	return &userRepository{db: db}
}

// usersEmailKey is the constraint postgres generates for users.email UNIQUE
const usersEmailKey = "users_email_key"

const userColumns = `id, name, email, is_manager, is_deleted, created_at`

func scanUser(row interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.IsManager,
		&user.IsDeleted,
		&user.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByID retrieves a user by its ID
func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.db.conn(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return user, nil
}

// GetByEmail retrieves a user by email
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	user, err := scanUser(r.db.conn(ctx).QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user with email %s: %w", email, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// Create creates a new user
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, name, email, is_manager, is_deleted, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.conn(ctx).ExecContext(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.IsManager,
		user.IsDeleted,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, usersEmailKey) {
			return domain.NewConflictError("Email already exists")
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// Update persists name, email, is_manager and is_deleted of an existing user
func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET name = $1, email = $2, is_manager = $3, is_deleted = $4
		WHERE id = $5
	`

	result, err := r.db.conn(ctx).ExecContext(ctx, query,
		user.Name,
		user.Email,
		user.IsManager,
		user.IsDeleted,
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err, usersEmailKey) {
			return domain.NewConflictError("Email already exists")
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	return expectOneRow(result, "user", user.ID)
}

// List retrieves users matching the query in creation order
func (r *userRepository) List(ctx context.Context, q domain.UserQuery) ([]*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE (NOT $1::boolean OR is_manager)
		AND ($2::boolean OR NOT is_deleted)
		ORDER BY created_at ASC, id ASC
	`

	args := []any{q.ManagersOnly, q.IncludeDeleted}
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
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}
