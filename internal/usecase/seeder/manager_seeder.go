package seeder

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/simaogato/fraxion-backend/internal/domain"
)

// Fixed UUID of the bootstrap manager. Asset creation needs at least one manager.
var SYS_MANAGER = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// BootstrapManager describes the manager account to be seeded
type BootstrapManager struct {
	Name  string
	Email string
}

// DefaultManager is seeded when no account details are configured
var DefaultManager = BootstrapManager{
	Name:  "System Manager",
	Email: "manager@fraxion.local",
}

// ManagerSeeder handles seeding of the bootstrap manager account
type ManagerSeeder struct {
	repo    domain.UserRepository
	manager BootstrapManager
	logger  *zap.Logger
}

// NewManagerSeeder creates a new ManagerSeeder instance
func NewManagerSeeder(repo domain.UserRepository, manager BootstrapManager, logger *zap.Logger) *ManagerSeeder {
	if manager.Name == "" {
		manager.Name = DefaultManager.Name
	}
	if manager.Email == "" {
		manager.Email = DefaultManager.Email
	}
	return &ManagerSeeder{
		repo:    repo,
		manager: manager,
		logger:  logger,
	}
}

// Seed ensures the bootstrap manager exists
// If the user doesn't exist, it creates it; an existing user is left untouched
func (s *ManagerSeeder) Seed(ctx context.Context) error {
	_, err := s.repo.GetByID(ctx, SYS_MANAGER)
	if err == nil {
		s.logger.Debug("bootstrap manager present", zap.String("user_id", SYS_MANAGER.String()))
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	user := &domain.User{
		ID:        SYS_MANAGER,
		Name:      s.manager.Name,
		Email:     s.manager.Email,
		IsManager: true,
		CreatedAt: time.Now().UTC(),
	}

	// Validate before creating
	if err := user.Validate(); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return err
	}

	s.logger.Info("bootstrap manager created", zap.String("user_id", SYS_MANAGER.String()), zap.String("email", user.Email))
	return nil
}
