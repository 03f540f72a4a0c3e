package offer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/fraxion-backend/internal/domain"
)

const (
	defaultStatisticsDays = 30
	maxStatisticsDays     = 365
)

// MessageNoStatistics is reported when no active offer was created in the period
const MessageNoStatistics = "No offers found in the specified period"

// PriceSummary aggregates prices over every offer in the period
type PriceSummary struct {
	Count    int             `json:"count"`
	AvgPrice decimal.Decimal `json:"avg_price"`
	MinPrice decimal.Decimal `json:"min_price"`
	MaxPrice decimal.Decimal `json:"max_price"`
}

// BidSummary aggregates the buy side. Prices are zero when the side is empty.
type BidSummary struct {
	Count      int             `json:"count"`
	AvgPrice   decimal.Decimal `json:"avg_price"`
	HighestBid decimal.Decimal `json:"highest_bid"`
}

// AskSummary aggregates the sell side. Prices are zero when the side is empty.
type AskSummary struct {
	Count     int             `json:"count"`
	AvgPrice  decimal.Decimal `json:"avg_price"`
	LowestAsk decimal.Decimal `json:"lowest_ask"`
}

// SpreadSummary is the lowest ask minus the highest bid, zero unless both sides exist
type SpreadSummary struct {
	Value      decimal.Decimal `json:"value"`
	Percentage decimal.Decimal `json:"percentage"` // Relative to the highest bid
}

// PriceStatistics describes the prices of active offers created in the last PeriodDays days
type PriceStatistics struct {
	AssetID       *uuid.UUID     `json:"asset_id"`
	PeriodDays    int            `json:"period_days"`
	DataAvailable bool           `json:"data_available"`
	Message       string         `json:"message,omitempty"`
	AllOffers     *PriceSummary  `json:"all_offers,omitempty"`
	BuyOffers     *BidSummary    `json:"buy_offers,omitempty"`
	SellOffers    *AskSummary    `json:"sell_offers,omitempty"`
	Spread        *SpreadSummary `json:"spread,omitempty"`
}

// PriceStatistics summarises active offers created within the last days days,
// optionally restricted to one asset. Zero days uses the 30 day default.
func (s *OfferService) PriceStatistics(ctx context.Context, assetID *uuid.UUID, days int) (*PriceStatistics, error) {
	if days == 0 {
		days = defaultStatisticsDays
	}
	if days < 1 || days > maxStatisticsDays {
		return nil, domain.NewValidationError("days", "Days must be between 1 and 365")
	}
	if assetID != nil {
		if _, err := s.AssetRepo.GetByID(ctx, *assetID); err != nil {
			return nil, notFound(err, "Asset not found")
		}
	}

	valid := true
	cutoff := time.Now().UTC().AddDate(0, 0, -days)
	offers, err := s.OfferRepo.List(ctx, domain.OfferQuery{
		AssetID:      assetID,
		IsValid:      &valid,
		CreatedAfter: &cutoff,
	})
	if err != nil {
		return nil, err
	}

	stats := &PriceStatistics{AssetID: assetID, PeriodDays: days}
	if len(offers) == 0 {
		stats.Message = MessageNoStatistics
		return stats, nil
	}

	var all, bids, asks []decimal.Decimal
	for _, o := range offers {
		all = append(all, o.PricePerUnit)
		if o.IsBuyer {
			bids = append(bids, o.PricePerUnit)
		} else {
			asks = append(asks, o.PricePerUnit)
		}
	}

	stats.DataAvailable = true
	stats.AllOffers = &PriceSummary{
		Count:    len(all),
		AvgPrice: average(all),
		MinPrice: decimal.Min(all[0], all[1:]...),
		MaxPrice: decimal.Max(all[0], all[1:]...),
	}
	stats.BuyOffers = &BidSummary{Count: len(bids), AvgPrice: average(bids)}
	stats.SellOffers = &AskSummary{Count: len(asks), AvgPrice: average(asks)}
	stats.Spread = &SpreadSummary{}

	if len(bids) > 0 {
		stats.BuyOffers.HighestBid = decimal.Max(bids[0], bids[1:]...)
	}
	if len(asks) > 0 {
		stats.SellOffers.LowestAsk = decimal.Min(asks[0], asks[1:]...)
	}
	if len(bids) > 0 && len(asks) > 0 {
		spread := stats.SellOffers.LowestAsk.Sub(stats.BuyOffers.HighestBid)
		stats.Spread.Value = spread
		stats.Spread.Percentage = spread.Div(stats.BuyOffers.HighestBid).Mul(decimal.NewFromInt(100)).Round(domain.ValuePrecision)
	}

	return stats, nil
}

// average is rounded to ValuePrecision, zero for no prices
func average(prices []decimal.Decimal) decimal.Decimal {
	if len(prices) == 0 {
		return decimal.Zero
	}
	return decimal.Sum(prices[0], prices[1:]...).DivRound(decimal.NewFromInt(int64(len(prices))), domain.ValuePrecision)
}
