package fairness

import (
	"context"
	"fmt"
	"math"

	"github.com/tradewind/crossintel/crossintel/database/models"
	"github.com/tradewind/crossintel/crossintel/database/repositories"
)

const maxLoyaltyDiscountPct = 5

// volumeDiscountTiers maps the quantity-to-minimum-order ratio to a
// discount percentage. Sorted by descending MinRatio.
var volumeDiscountTiers = []struct {
	MinRatio float64
	Pct      float64
}{
	{MinRatio: 10, Pct: 10},
	{MinRatio: 5, Pct: 5},
	{MinRatio: 2, Pct: 2},
}

// urgencyPremiumTiers maps days-to-deadline to a premium percentage.
// Sorted by ascending MaxDays.
var urgencyPremiumTiers = []struct {
	MaxDays float64
	Pct     float64
}{
	{MaxDays: 1, Pct: 15},
	{MaxDays: 3, Pct: 10},
	{MaxDays: 7, Pct: 5},
}

// PricingGuidance is the quote recommendation generated for a seller
// answering one RFQ.
type PricingGuidance struct {
	RFQID              string
	SellerID           string
	BuyerID            string
	MarketMedian       float64
	LoyaltyDiscountPct float64
	VolumeDiscountPct  float64
	UrgencyPremiumPct  float64
	RecommendedPrice   float64
	SuggestedRange     PriceRange
	WinProbability     float64
}

// GeneratePricingGuidance builds a quote recommendation for the seller
// answering the given RFQ. It fails with a NotFoundError when the RFQ does
// not resolve.
func (a *Analyzer) GeneratePricingGuidance(ctx context.Context, sellerID, rfqID string) (*PricingGuidance, error) {
	rfq, err := a.repo.GetRFQ(ctx, rfqID)
	if err != nil {
		return nil, err
	}

	market, err := a.marketData(ctx, rfq.ListingID)
	if err != nil {
		return nil, err
	}
	listing, err := a.repo.GetListing(ctx, rfq.ListingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load listing: %w", err)
	}
	txs, err := a.repo.GetTransactionHistory(ctx, rfq.BuyerID, sellerID, repositories.DefaultTransactionLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction history: %w", err)
	}

	loyalty := math.Min(maxLoyaltyDiscountPct, float64(len(txs)))
	volume := VolumeDiscount(rfq.Quantity, listing.MinOrderQty)

	daysToDeadline := rfq.DeadlineAt.Sub(a.now()).Hours() / 24
	urgency := urgencyPremium(daysToDeadline)

	recommended := market.Median * (1 - (loyalty+volume)/100) * (1 + urgency/100)

	return &PricingGuidance{
		RFQID:              rfqID,
		SellerID:           sellerID,
		BuyerID:            rfq.BuyerID,
		MarketMedian:       market.Median,
		LoyaltyDiscountPct: loyalty,
		VolumeDiscountPct:  volume,
		UrgencyPremiumPct:  urgency,
		RecommendedPrice:   recommended,
		SuggestedRange:     suggestedRange(market, rfq.Quantity),
		WinProbability:     winProbability(market.Prices, recommended, txs),
	}, nil
}

// VolumeDiscount returns the tiered discount percentage for an order of
// the given quantity against the listing's minimum order quantity.
func VolumeDiscount(quantity, minOrderQty int) float64 {
	if minOrderQty <= 0 {
		minOrderQty = 1
	}
	ratio := float64(quantity) / float64(minOrderQty)
	for _, tier := range volumeDiscountTiers {
		if ratio >= tier.MinRatio {
			return tier.Pct
		}
	}
	return 0
}

func urgencyPremium(daysToDeadline float64) float64 {
	for _, tier := range urgencyPremiumTiers {
		if daysToDeadline <= tier.MaxDays {
			return tier.Pct
		}
	}
	return 0
}

// winProbability combines the recommended price's position in the market
// (cheaper quotes win more) with the strength of the prior relationship.
func winProbability(prices []float64, recommended float64, txs []*models.Transaction) float64 {
	percentile := pricePercentile(prices, recommended)

	relationship := 50.0
	if len(txs) > 0 {
		var completed int
		for _, tx := range txs {
			if !tx.Disputed {
				completed++
			}
		}
		successRate := float64(completed) / float64(len(txs))
		relationship = math.Min(100, 50+float64(len(txs))*5+successRate*30)
	}

	return math.Min(95, (100-percentile)*0.7+relationship*0.3)
}
