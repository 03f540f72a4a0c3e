package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account that can own fractions and post offers
type User struct {
	ID        uuid.UUID `json:"user_id"`
	Name      string    `json:"user_name"`
	Email     string    `json:"email"`
	IsManager bool      `json:"is_manager"` // Managers may create and revalue assets
	IsDeleted bool      `json:"is_deleted"` // Soft delete, never removed by the core
	CreatedAt time.Time `json:"created_at"`
}

// Validate ensures the user adheres to domain rules
func (u *User) Validate() error {
	if u.Name == "" {
		return NewValidationError("user_name", "User name cannot be empty")
	}
	if u.Email == "" {
		return NewValidationError("email", "Email cannot be empty")
	}
	return nil
}

// CanManageAssets reports whether the user is an active manager
func (u *User) CanManageAssets() bool {
	return u != nil && u.IsManager && !u.IsDeleted
}

// UserQuery filters and paginates users in creation order. Limit <= 0 returns every match.
type UserQuery struct {
	ManagersOnly   bool
	IncludeDeleted bool
	Limit          int
	Offset         int
}
