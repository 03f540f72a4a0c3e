package offer

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/fraxion-backend/internal/domain"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// Validity selects offers by state in FilterOffers
type Validity string

const (
	ValidityActive   Validity = "active"
	ValidityInactive Validity = "inactive"
	ValidityAll      Validity = "all"
)

// OfferFilter describes a search over offers. Zero values do not filter,
// except Validity which defaults to active offers only.
type OfferFilter struct {
	AssetID       *uuid.UUID
	UserID        *uuid.UUID
	OfferType     string // buy or sell
	MinPrice      *decimal.Decimal
	MaxPrice      *decimal.Decimal
	MinUnits      *int64
	MaxUnits      *int64
	Validity      Validity
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	SortBy        string // created_at, price_perunit or units
	Order         string // asc or desc, defaults to desc
	Page          int
	PerPage       int
}

// Pagination describes where a page sits in the full result set
type Pagination struct {
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// OfferPage is one page of filtered offers
type OfferPage struct {
	Offers     []*domain.Offer `json:"offers"`
	Pagination Pagination      `json:"pagination"`
}

// OrderBook is the open interest on both sides of an asset
type OrderBook struct {
	AssetID    uuid.UUID        `json:"asset_id"`
	BuyOffers  []*domain.Offer  `json:"buy_offers"`  // Highest price first
	SellOffers []*domain.Offer  `json:"sell_offers"` // Lowest price first
	BuyCount   int              `json:"buy_count"`
	SellCount  int              `json:"sell_count"`
	BestBid    *decimal.Decimal `json:"best_bid"`
	BestAsk    *decimal.Decimal `json:"best_ask"`
	Spread     *decimal.Decimal `json:"spread"` // Best ask minus best bid, when both sides exist
}

func (f OfferFilter) query() (domain.OfferQuery, error) {
	q := domain.OfferQuery{
		AssetID:       f.AssetID,
		UserID:        f.UserID,
		MinPrice:      f.MinPrice,
		MaxPrice:      f.MaxPrice,
		MinUnits:      f.MinUnits,
		MaxUnits:      f.MaxUnits,
		CreatedAfter:  f.CreatedAfter,
		CreatedBefore: f.CreatedBefore,
		SortBy:        domain.OfferSortCreatedAt,
		Descending:    true,
	}

	switch strings.ToLower(f.OfferType) {
	case "":
	case "buy":
		isBuyer := true
		q.IsBuyer = &isBuyer
	case "sell":
		isBuyer := false
		q.IsBuyer = &isBuyer
	default:
		return q, domain.NewValidationError("offer_type", "offer_type must be buy or sell")
	}

	switch f.Validity {
	case "", ValidityActive:
		valid := true
		q.IsValid = &valid
	case ValidityInactive:
		valid := false
		q.IsValid = &valid
	case ValidityAll:
	default:
		return q, domain.NewValidationError("is_valid", "is_valid must be active, inactive or all")
	}

	if f.SortBy != "" {
		q.SortBy = domain.OfferSortField(f.SortBy)
		if !q.SortBy.Valid() {
			return q, domain.NewValidationError("sort_by", "sort_by must be created_at, price_perunit or units")
		}
	}

	switch strings.ToLower(f.Order) {
	case "", "desc":
	case "asc":
		q.Descending = false
	default:
		return q, domain.NewValidationError("order", "order must be asc or desc")
	}

	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return q, domain.NewValidationError("min_price", "min_price cannot exceed max_price")
	}
	if f.MinUnits != nil && f.MaxUnits != nil && *f.MinUnits > *f.MaxUnits {
		return q, domain.NewValidationError("min_units", "min_units cannot exceed max_units")
	}

	return q, nil
}

// FilterOffers searches offers and returns one page with pagination info
func (s *OfferService) FilterOffers(ctx context.Context, filter OfferFilter) (*OfferPage, error) {
	q, err := filter.query()
	if err != nil {
		return nil, err
	}

	page := max(filter.Page, 1)
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	perPage = min(perPage, maxPerPage)

	total, err := s.OfferRepo.Count(ctx, q)
	if err != nil {
		return nil, err
	}

	q.Limit = perPage
	q.Offset = (page - 1) * perPage
	offers, err := s.OfferRepo.List(ctx, q)
	if err != nil {
		return nil, err
	}

	totalPages := (total + perPage - 1) / perPage

	return &OfferPage{
		Offers: offers,
		Pagination: Pagination{
			Total:      total,
			Page:       page,
			PerPage:    perPage,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
			HasPrev:    page > 1,
		},
	}, nil
}

// GetOrderBook returns the open offers of an asset, best prices first
func (s *OfferService) GetOrderBook(ctx context.Context, assetID uuid.UUID) (*OrderBook, error) {
	if _, err := s.AssetRepo.GetByID(ctx, assetID); err != nil {
		return nil, notFound(err, "Asset not found")
	}

	valid, isBuyer, isSeller := true, true, false

	buys, err := s.OfferRepo.List(ctx, domain.OfferQuery{
		AssetID:    &assetID,
		IsBuyer:    &isBuyer,
		IsValid:    &valid,
		SortBy:     domain.OfferSortPricePerUnit,
		Descending: true,
	})
	if err != nil {
		return nil, err
	}

	sells, err := s.OfferRepo.List(ctx, domain.OfferQuery{
		AssetID: &assetID,
		IsBuyer: &isSeller,
		IsValid: &valid,
		SortBy:  domain.OfferSortPricePerUnit,
	})
	if err != nil {
		return nil, err
	}

	book := &OrderBook{
		AssetID:    assetID,
		BuyOffers:  buys,
		SellOffers: sells,
		BuyCount:   len(buys),
		SellCount:  len(sells),
	}
	if len(buys) > 0 {
		bid := buys[0].PricePerUnit
		book.BestBid = &bid
	}
	if len(sells) > 0 {
		ask := sells[0].PricePerUnit
		book.BestAsk = &ask
	}
	if book.BestBid != nil && book.BestAsk != nil {
		spread := book.BestAsk.Sub(*book.BestBid)
		book.Spread = &spread
	}

	return book, nil
}
