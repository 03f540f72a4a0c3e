package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simaogato/fraxion-backend/internal/domain"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// errorStatus maps a domain error kind to its HTTP status and kind name
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, domain.ErrInsufficientHoldings):
		return http.StatusBadRequest, "insufficient_holdings"
	case errors.Is(err, domain.ErrPermission):
		return http.StatusForbidden, "permission_error"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "conflict_error"
	case errors.Is(err, domain.ErrState):
		return http.StatusConflict, "state_error"
	case errors.Is(err, domain.ErrSettlement):
		return http.StatusInternalServerError, "settlement_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// respondError writes err. Messages of non-domain errors are not exposed.
func respondError(c *gin.Context, err error) {
	status, kind := errorStatus(err)
	body := ErrorResponse{Error: kind, Message: err.Error()}

	var de *domain.DomainError
	if errors.As(err, &de) {
		body.Field = de.Field
	} else {
		body.Message = "internal server error"
	}

	_ = c.Error(err)
	c.JSON(status, body)
}
