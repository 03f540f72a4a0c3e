package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/simaogato/fraxion-backend/internal/domain"
	"github.com/simaogato/fraxion-backend/internal/usecase/offer"
)

// OfferList is the body of the plain offer listings
type OfferList struct {
	Offers []*domain.Offer `json:"offers"`
	Count  int             `json:"count"`
}

func newOfferList(offers []*domain.Offer) OfferList {
	if offers == nil {
		offers = []*domain.Offer{}
	}
	return OfferList{Offers: offers, Count: len(offers)}
}

func (h *Handler) createOffer(c *gin.Context) {
	var input offer.CreateOfferInput
	if err := bindJSON(c, &input); err != nil {
		respondError(c, err)
		return
	}

	created, err := h.Offers.CreateOffer(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) getOffer(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	found, err := h.Offers.GetOfferByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, found)
}

func (h *Handler) updateOffer(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	var input offer.UpdateOfferInput
	if err := bindJSON(c, &input); err != nil {
		respondError(c, err)
		return
	}

	updated, err := h.Offers.UpdateOffer(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	if updated == nil {
		respondError(c, domain.NewNotFoundError("Offer not found"))
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) deleteOffer(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.Offers.DeleteOffer(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	switch {
	case result.Success:
	case result.Message == offer.MessageOfferNotFound:
		status = http.StatusNotFound
	default:
		status = http.StatusConflict
	}
	c.JSON(status, result)
}

func listOptions(c *gin.Context) (offer.ListOptions, error) {
	activeOnly, err := queryBool(c, "active_only", true)
	if err != nil {
		return offer.ListOptions{}, err
	}
	page, perPage, err := pagination(c)
	if err != nil {
		return offer.ListOptions{}, err
	}
	return offer.ListOptions{ActiveOnly: activeOnly, Page: page, PerPage: perPage}, nil
}

// listBy runs one of the offer listings keyed by a path id
func (h *Handler) listBy(c *gin.Context, list func(id uuid.UUID, opts offer.ListOptions) ([]*domain.Offer, error)) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}
	opts, err := listOptions(c)
	if err != nil {
		respondError(c, err)
		return
	}

	offers, err := list(id, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOfferList(offers))
}

func (h *Handler) listOffers(c *gin.Context) {
	opts, err := listOptions(c)
	if err != nil {
		respondError(c, err)
		return
	}

	offers, err := h.Offers.GetAllOffers(c.Request.Context(), opts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newOfferList(offers))
}

func (h *Handler) userOffers(c *gin.Context) {
	h.listBy(c, func(id uuid.UUID, opts offer.ListOptions) ([]*domain.Offer, error) {
		return h.Offers.GetOffersByUser(c.Request.Context(), id, opts)
	})
}

func (h *Handler) assetOffers(c *gin.Context) {
	h.listBy(c, func(id uuid.UUID, opts offer.ListOptions) ([]*domain.Offer, error) {
		return h.Offers.GetOffersByAsset(c.Request.Context(), id, opts)
	})
}

func (h *Handler) buyOffers(c *gin.Context) {
	h.listBy(c, func(id uuid.UUID, opts offer.ListOptions) ([]*domain.Offer, error) {
		return h.Offers.GetBuyOffers(c.Request.Context(), id, opts)
	})
}

func (h *Handler) sellOffers(c *gin.Context) {
	h.listBy(c, func(id uuid.UUID, opts offer.ListOptions) ([]*domain.Offer, error) {
		return h.Offers.GetSellOffers(c.Request.Context(), id, opts)
	})
}

func (h *Handler) filterOffers(c *gin.Context) {
	filter, err := offerFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}

	page, err := h.Offers.FilterOffers(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) priceStatistics(c *gin.Context) {
	assetID, err := queryUUID(c, "asset_id")
	if err != nil {
		respondError(c, err)
		return
	}
	days, err := queryInt64(c, "days")
	if err != nil {
		respondError(c, err)
		return
	}
	lookback := 0
	if days != nil {
		if *days == 0 {
			respondError(c, domain.NewValidationError("days", "Days must be between 1 and 365"))
			return
		}
		lookback = int(*days)
	}

	stats, err := h.Offers.PriceStatistics(c.Request.Context(), assetID, lookback)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func offerFilter(c *gin.Context) (offer.OfferFilter, error) {
	f := offer.OfferFilter{
		OfferType: c.Query("offer_type"),
		Validity:  offer.Validity(c.Query("is_valid")),
		SortBy:    c.Query("sort_by"),
		Order:     c.Query("order"),
	}

	var err error
	if f.AssetID, err = queryUUID(c, "asset_id"); err != nil {
		return f, err
	}
	if f.UserID, err = queryUUID(c, "user_id"); err != nil {
		return f, err
	}
	if f.MinPrice, err = queryDecimal(c, "min_price"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = queryDecimal(c, "max_price"); err != nil {
		return f, err
	}
	if f.MinUnits, err = queryInt64(c, "min_units"); err != nil {
		return f, err
	}
	if f.MaxUnits, err = queryInt64(c, "max_units"); err != nil {
		return f, err
	}
	if f.CreatedAfter, err = queryTime(c, "created_after"); err != nil {
		return f, err
	}
	if f.CreatedBefore, err = queryTime(c, "created_before"); err != nil {
		return f, err
	}

	page, err := queryInt64(c, "page")
	if err != nil {
		return f, err
	}
	if page != nil {
		f.Page = int(*page)
	}
	perPage, err := queryInt64(c, "per_page")
	if err != nil {
		return f, err
	}
	if perPage != nil {
		f.PerPage = int(*perPage)
	}

	return f, nil
}

func (h *Handler) orderBook(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		respondError(c, err)
		return
	}

	book, err := h.Offers.GetOrderBook(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}
