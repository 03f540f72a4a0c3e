package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_KindMatching(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
		msg  string
	}{
		{"Missing field", NewMissingFieldError("units"), ErrValidation, "Missing required field: units"},
		{"Conflict", NewConflictError("User already has an active buy offer for this asset"), ErrConflict, "User already has an active buy offer for this asset"},
		{"Insufficient", NewInsufficientHoldingsError(30), ErrInsufficientHoldings, "Seller only has 30 units available"},
		{"Permission", NewPermissionError("Only managers can create assets"), ErrPermission, "Only managers can create assets"},
		{"Not found", NewNotFoundError("Offer not found"), ErrNotFound, "Offer not found"},
		{"State", NewStateError("Offer is not active"), ErrState, "Offer is not active"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.err, tt.kind))
			assert.Equal(t, tt.msg, tt.err.Error())
			assert.True(t, IsDomainError(tt.err))
			assert.False(t, errors.Is(tt.err, ErrSettlement))
		})
	}
}

func TestNewSettlementError_WrapsCause(t *testing.T) {
	cause := fmt.Errorf("failed to insert fraction: %w", errors.New("connection reset"))
	err := NewSettlementError(cause)

	assert.True(t, errors.Is(err, ErrSettlement))
	assert.Equal(t, "Trade execution failed: failed to insert fraction: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)

	// Kinds of a wrapped domain error remain visible
	wrapped := NewSettlementError(NewInsufficientHoldingsError(10))
	assert.True(t, errors.Is(wrapped, ErrSettlement))
	assert.True(t, errors.Is(wrapped, ErrInsufficientHoldings))
}

func TestIsDomainError_PlainError(t *testing.T) {
	assert.False(t, IsDomainError(errors.New("boom")))
	assert.True(t, IsDomainError(fmt.Errorf("context: %w", NewStateError("x"))))
}
