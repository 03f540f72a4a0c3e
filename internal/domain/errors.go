package domain

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. A DomainError matches its kind with errors.Is, so callers
// can branch on the kind without inspecting messages.
var (
	ErrValidation           = errors.New("validation error")
	ErrConflict             = errors.New("conflict error")
	ErrInsufficientHoldings = errors.New("insufficient holdings")
	ErrPermission           = errors.New("permission denied")
	ErrNotFound             = errors.New("not found")
	ErrState                = errors.New("invalid state")
	ErrSettlement           = errors.New("settlement failed")
)

// DomainError is a business-rule failure raised by the use cases.
// Message is user facing and is surfaced verbatim by the transport layer.
type DomainError struct {
	Kind    error
	Field   string
	Message string
	Cause   error
}

// Error returns the user facing message
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is the kind of this error
func (e *DomainError) Is(target error) bool {
	return e.Kind == target
}

// Unwrap exposes the underlying cause (settlement errors wrap the failure that aborted the trade)
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a validation error, optionally bound to an input field
func NewValidationError(field, message string) error {
	return &DomainError{Kind: ErrValidation, Field: field, Message: message}
}

// NewMissingFieldError reports a required field that was absent or null
func NewMissingFieldError(field string) error {
	return NewValidationError(field, fmt.Sprintf("Missing required field: %s", field))
}

// NewConflictError creates a conflict error
func NewConflictError(message string) error {
	return &DomainError{Kind: ErrConflict, Message: message}
}

// NewInsufficientHoldingsError reports how many units the seller actually holds
func NewInsufficientHoldingsError(available int64) error {
	return &DomainError{
		Kind:    ErrInsufficientHoldings,
		Field:   "units",
		Message: fmt.Sprintf("Seller only has %d units available", available),
	}
}

// NewPermissionError creates a permission error
func NewPermissionError(message string) error {
	return &DomainError{Kind: ErrPermission, Message: message}
}

// NewNotFoundError creates a not-found error
func NewNotFoundError(message string) error {
	return &DomainError{Kind: ErrNotFound, Message: message}
}

// NewStateError creates an invalid-state error
func NewStateError(message string) error {
	return &DomainError{Kind: ErrState, Message: message}
}

// NewSettlementError wraps the failure that aborted a trade
func NewSettlementError(cause error) error {
	return &DomainError{
		Kind:    ErrSettlement,
		Message: fmt.Sprintf("Trade execution failed: %v", cause),
		Cause:   cause,
	}
}

// IsDomainError reports whether err carries a DomainError anywhere in its chain
func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}
