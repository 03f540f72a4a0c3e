package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simaogato/fraxion-backend/internal/domain"
	"github.com/simaogato/fraxion-backend/internal/usecase/portfolio"
)

// TransactionPage is one page of a transaction history
type TransactionPage struct {
	Transactions []*domain.Transaction `json:"transactions"`
	Total        int                   `json:"total"`
	Page         int                   `json:"page"`
	PerPage      int                   `json:"per_page"`
}

func (h *Handler) holdings(c *gin.Context) {
	userID, err := pathID(c, "user_id")
	if err != nil {
		respondError(c, err)
		return
	}

	holdings, err := h.Portfolio.UserOwningFractions(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if holdings == nil {
		holdings = []portfolio.Holding{}
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "holdings": holdings})
}

func (h *Handler) transactions(c *gin.Context) {
	userID, err := pathID(c, "user_id")
	if err != nil {
		respondError(c, err)
		return
	}
	assetID, err := queryUUID(c, "asset_id")
	if err != nil {
		respondError(c, err)
		return
	}
	page, perPage, err := pagination(c)
	if err != nil {
		respondError(c, err)
		return
	}

	txs, total, err := h.Portfolio.UserTransactions(c.Request.Context(), userID, assetID, page, perPage)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTransactionPage(txs, total, page, perPage))
}
