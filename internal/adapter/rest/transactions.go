package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simaogato/fraxion-backend/internal/domain"
	"github.com/simaogato/fraxion-backend/internal/usecase/transaction"
)

func (h *Handler) getTransaction(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	found, err := h.Transactions.GetTransaction(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, found)
}

func (h *Handler) assetTransactions(c *gin.Context) {
	assetID, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	page, perPage, err := pagination(c)
	if err != nil {
		respondError(c, err)
		return
	}

	txs, total, err := h.Transactions.ListByAsset(c.Request.Context(), assetID, transaction.Page{Page: page, PerPage: perPage})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTransactionPage(txs, total, page, perPage))
}

func (h *Handler) fractionTransactions(c *gin.Context) {
	fractionID, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	txs, err := h.Transactions.ListByFraction(c.Request.Context(), fractionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTransactionPage(txs, len(txs), 1, len(txs)))
}

// userTransactions filters by direction=buy (units received) or direction=sell (units given)
func (h *Handler) userTransactions(c *gin.Context) {
	userID, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	page, perPage, err := pagination(c)
	if err != nil {
		respondError(c, err)
		return
	}
	direction := domain.TransactionDirection(c.Query("direction"))

	txs, total, err := h.Transactions.ListByUser(c.Request.Context(), userID, direction, transaction.Page{Page: page, PerPage: perPage})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTransactionPage(txs, total, page, perPage))
}

func newTransactionPage(txs []*domain.Transaction, total, page, perPage int) TransactionPage {
	if txs == nil {
		txs = []*domain.Transaction{}
	}
	return TransactionPage{Transactions: txs, Total: total, Page: page, PerPage: perPage}
}
