package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/fraxion-backend/internal/domain"
	"github.com/simaogato/fraxion-backend/internal/usecase/asset"
)

// CreateAssetRequest carries the asset fields plus who owns and who authorises it
type CreateAssetRequest struct {
	asset.CreateAssetInput
	OwnerID    *uuid.UUID `json:"owner_id"`
	AdjustedBy *uuid.UUID `json:"adjusted_by"`
}

// AdjustValueRequest revalues an asset
type AdjustValueRequest struct {
	Value      *decimal.Decimal `json:"value"`
	Reason     string           `json:"reason"`
	AdjustedBy *uuid.UUID       `json:"adjusted_by"`
}

func (h *Handler) createAsset(c *gin.Context) {
	var req CreateAssetRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}
	switch {
	case req.OwnerID == nil:
		respondError(c, domain.NewMissingFieldError("owner_id"))
		return
	case req.AdjustedBy == nil:
		respondError(c, domain.NewMissingFieldError("adjusted_by"))
		return
	}

	result, err := h.Assets.CreateAssetWithInitialFraction(c.Request.Context(), req.CreateAssetInput, *req.OwnerID, *req.AdjustedBy)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *Handler) listAssets(c *gin.Context) {
	page, perPage, err := pagination(c)
	if err != nil {
		respondError(c, err)
		return
	}

	assets, err := h.Assets.ListAssets(c.Request.Context(), page, perPage)
	if err != nil {
		respondError(c, err)
		return
	}
	if assets == nil {
		assets = []*domain.Asset{}
	}
	c.JSON(http.StatusOK, gin.H{"assets": assets, "count": len(assets)})
}

func (h *Handler) getAsset(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	found, err := h.Assets.GetAsset(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, found)
}

func (h *Handler) listAssetFractions(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	fractions, err := h.Assets.ListAssetFractions(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondFractions(c, fractions)
}

func (h *Handler) listValues(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	from, err := queryTime(c, "from")
	if err != nil {
		respondError(c, err)
		return
	}
	to, err := queryTime(c, "to")
	if err != nil {
		respondError(c, err)
		return
	}

	history, err := h.Assets.ListValueHistory(c.Request.Context(), id, from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	if history == nil {
		history = []*domain.AssetValueHistory{}
	}
	c.JSON(http.StatusOK, gin.H{"asset_id": id, "values": history, "count": len(history)})
}

func (h *Handler) latestValue(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	latest, err := h.Assets.LatestValue(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, latest)
}

func (h *Handler) adjustValue(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	var req AdjustValueRequest
	if err := bindJSON(c, &req); err != nil {
		respondError(c, err)
		return
	}
	switch {
	case req.Value == nil:
		respondError(c, domain.NewMissingFieldError("value"))
		return
	case req.AdjustedBy == nil:
		respondError(c, domain.NewMissingFieldError("adjusted_by"))
		return
	}

	entry, err := h.Assets.AdjustAssetValue(c.Request.Context(), id, *req.Value, req.Reason, *req.AdjustedBy)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *Handler) getFraction(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	fraction, err := h.Assets.GetFraction(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, fraction)
}

func (h *Handler) userFractions(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	activeOnly, err := queryBool(c, "active_only", false)
	if err != nil {
		respondError(c, err)
		return
	}

	fractions, err := h.Assets.ListFractionsByOwner(c.Request.Context(), id, activeOnly)
	if err != nil {
		respondError(c, err)
		return
	}
	respondFractions(c, fractions)
}

func respondFractions(c *gin.Context, fractions []*domain.Fraction) {
	if fractions == nil {
		fractions = []*domain.Fraction{}
	}
	c.JSON(http.StatusOK, gin.H{"fractions": fractions, "count": len(fractions)})
}
