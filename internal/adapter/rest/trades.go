package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/simaogato/fraxion-backend/internal/domain"
)

// TradeRequest fills an open offer on behalf of the counterparty
type TradeRequest struct {
	OfferID            *uuid.UUID `json:"offer_id"`
	CounterpartyUserID *uuid.UUID `json:"counterparty_user_id"`
}

func (h *Handler) executeTrade(c *gin.Context) {
	var req TradeRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}
	switch {
	case req.OfferID == nil:
		respondError(c, domain.NewMissingFieldError("offer_id"))
		return
	case req.CounterpartyUserID == nil:
		respondError(c, domain.NewMissingFieldError("counterparty_user_id"))
		return
	}

	result, err := h.Trading.ExecuteTrade(c.Request.Context(), *req.OfferID, *req.CounterpartyUserID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
