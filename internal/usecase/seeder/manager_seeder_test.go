package seeder

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/simaogato/fraxion-backend/internal/domain"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, query domain.UserQuery) ([]*domain.User, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}

func TestManagerSeeder_Seed_ManagerMissing(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	seeder := NewManagerSeeder(mockRepo, BootstrapManager{}, zap.NewNop())

	mockRepo.On("GetByID", ctx, SYS_MANAGER).Return(nil, fmt.Errorf("user %s: %w", SYS_MANAGER, domain.ErrNotFound))
	mockRepo.On("Create", ctx, mock.MatchedBy(func(user *domain.User) bool {
		return user.ID == SYS_MANAGER &&
			user.Name == DefaultManager.Name &&
			user.Email == DefaultManager.Email &&
			user.IsManager &&
			!user.IsDeleted
	})).Return(nil)

	err := seeder.Seed(ctx)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestManagerSeeder_Seed_ManagerExists(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	seeder := NewManagerSeeder(mockRepo, BootstrapManager{Name: "Ops", Email: "ops@example.com"}, zap.NewNop())

	mockRepo.On("GetByID", ctx, SYS_MANAGER).Return(&domain.User{ID: SYS_MANAGER, IsManager: true}, nil)

	err := seeder.Seed(ctx)

	assert.NoError(t, err)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestManagerSeeder_Seed_LookupFails(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	seeder := NewManagerSeeder(mockRepo, BootstrapManager{}, zap.NewNop())

	dbErr := errors.New("connection refused")
	mockRepo.On("GetByID", ctx, SYS_MANAGER).Return(nil, dbErr)

	err := seeder.Seed(ctx)

	assert.ErrorIs(t, err, dbErr)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestManagerSeeder_Seed_CreateFails(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	seeder := NewManagerSeeder(mockRepo, BootstrapManager{Name: "Ops", Email: "ops@example.com"}, zap.NewNop())

	mockRepo.On("GetByID", ctx, SYS_MANAGER).Return(nil, domain.ErrNotFound)
	mockRepo.On("Create", ctx, mock.MatchedBy(func(user *domain.User) bool {
		return user.Email == "ops@example.com"
	})).Return(errors.New("duplicate email"))

	err := seeder.Seed(ctx)

	assert.EqualError(t, err, "duplicate email")
	mockRepo.AssertExpectations(t)
}
