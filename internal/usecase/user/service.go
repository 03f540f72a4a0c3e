package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/simaogato/fraxion-backend/internal/domain"
)

const defaultPerPage = 20

// MessageEmailTaken is returned when another account already uses the email
const MessageEmailTaken = "Email already exists"

// CreateUserInput represents the input for creating a user.
// Name and email are required; nil means the field was missing or null.
type CreateUserInput struct {
	Name      *string `json:"user_name"`
	Email     *string `json:"email" binding:"omitempty,email"`
	IsManager bool    `json:"is_manager"`
}

// UpdateUserInput carries the fields of a partial user update
type UpdateUserInput struct {
	Name      domain.Optional[string] `json:"user_name"`
	Email     domain.Optional[string] `json:"email"`
	IsManager domain.Optional[bool]   `json:"is_manager"`
}

// ListOptions paginates user listings
type ListOptions struct {
	Page           int
	PerPage        int
	IncludeDeleted bool
}

// UserService manages the accounts that own fractions and post offers
type UserService struct {
	Transactor domain.Transactor
	UserRepo   domain.UserRepository
	Logger     *zap.Logger
}

// NewUserService creates a new UserService instance
func NewUserService(transactor domain.Transactor, userRepo domain.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{
		Transactor: transactor,
		UserRepo:   userRepo,
		Logger:     logger,
	}
}

// CreateUser registers a new account
// Logic:
//  1. Require user_name and email
//  2. Reject an email already used by another account, deleted ones included
//  3. Persist
func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	// 1. Required fields
	switch {
	case input.Name == nil:
		return nil, domain.NewMissingFieldError("user_name")
	case input.Email == nil:
		return nil, domain.NewMissingFieldError("email")
	}

	user := &domain.User{
		ID:        domain.NewID(),
		Name:      strings.TrimSpace(*input.Name),
		Email:     normalizeEmail(*input.Email),
		IsManager: input.IsManager,
		CreatedAt: time.Now().UTC(),
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}

	err := s.Transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		// 2. Unique email
		if err := s.ensureEmailFree(ctx, user.Email, nil); err != nil {
			return err
		}

		// 3. Persist
		return s.UserRepo.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("user created",
		zap.String("user_id", user.ID.String()),
		zap.Bool("is_manager", user.IsManager),
	)

	return user, nil
}

// GetUser retrieves a user by its ID, soft deleted users included
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.UserRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "User not found")
	}
	return user, nil
}

// ListUsers pages through users in creation order
func (s *UserService) ListUsers(ctx context.Context, opts ListOptions) ([]*domain.User, error) {
	page := max(opts.Page, 1)
	perPage := opts.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	return s.UserRepo.List(ctx, domain.UserQuery{
		IncludeDeleted: opts.IncludeDeleted,
		Limit:          perPage,
		Offset:         (page - 1) * perPage,
	})
}

// GetManagers returns every active manager
func (s *UserService) GetManagers(ctx context.Context) ([]*domain.User, error) {
	return s.UserRepo.List(ctx, domain.UserQuery{ManagersOnly: true})
}

// UpdateUser applies the supplied fields to an active user
func (s *UserService) UpdateUser(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*domain.User, error) {
	var updated *domain.User

	err := s.Transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := s.UserRepo.GetByID(ctx, id)
		if err != nil {
			return notFound(err, "User not found")
		}
		if current.IsDeleted {
			return domain.NewStateError("Cannot update a deleted user")
		}

		next := *current
		if err := applyPatch(&next, input); err != nil {
			return err
		}
		if err := next.Validate(); err != nil {
			return err
		}

		if next.Email != current.Email {
			if err := s.ensureEmailFree(ctx, next.Email, &next.ID); err != nil {
				return err
			}
		}

		if err := s.UserRepo.Update(ctx, &next); err != nil {
			return err
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteUser soft deletes a user. Fractions, offers and transactions are kept;
// a deleted user can no longer manage assets.
func (s *UserService) DeleteUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var deleted *domain.User

	err := s.Transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		user, err := s.UserRepo.GetByID(ctx, id)
		if err != nil {
			return notFound(err, "User not found")
		}
		if user.IsDeleted {
			return domain.NewStateError("User is already deleted")
		}

		user.IsDeleted = true
		if err := s.UserRepo.Update(ctx, user); err != nil {
			return err
		}
		deleted = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("user deleted", zap.String("user_id", id.String()))
	return deleted, nil
}

func (s *UserService) ensureEmailFree(ctx context.Context, email string, excludeID *uuid.UUID) error {
	existing, err := s.UserRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	if excludeID != nil && existing.ID == *excludeID {
		return nil
	}
	return domain.NewConflictError(MessageEmailTaken)
}

func applyPatch(user *domain.User, input UpdateUserInput) error {
	if input.Name.Set {
		name, ok := input.Name.Get()
		if !ok {
			return domain.NewValidationError("user_name", "user_name cannot be null")
		}
		user.Name = strings.TrimSpace(name)
	}
	if input.Email.Set {
		email, ok := input.Email.Get()
		if !ok {
			return domain.NewValidationError("email", "email cannot be null")
		}
		user.Email = normalizeEmail(email)
	}
	if input.IsManager.Set {
		isManager, ok := input.IsManager.Get()
		if !ok {
			return domain.NewValidationError("is_manager", "is_manager cannot be null")
		}
		user.IsManager = isManager
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// notFound turns a repository miss into a user facing not-found error
func notFound(err error, message string) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewNotFoundError(message)
	}
	return err
}
