// Package fairness evaluates proposed prices against the market price
// distribution of peer listings, from both the buyer's and the seller's
// side. The equilibrium score takes the minimum of the two because a fair
// deal has to work for both parties, not on average.
package fairness

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/tradewind/crossintel/crossintel/database/models"
	"github.com/tradewind/crossintel/crossintel/database/repositories"
)

const (
	minPeerSample = 2

	// Seller margin is estimated against an assumed 70% cost floor on the
	// market median. A proper COGS feed would replace this.
	assumedCostRatio = 0.7

	gougingPercentile    = 90
	gougingBuyerScore    = 30
	unsustainableScore   = 20
	maxVolumeBonus       = 20
	maxVolumeDiscountPct = 0.1
)

// thresholdStep maps a lower bound to a score. Tables are walked in order,
// so steps must be sorted by descending Min.
type thresholdStep struct {
	Min   float64
	Score float64
}

// buyerFairnessSteps scores the buyer's side from the price percentile.
// Lower percentile means cheaper relative to peers.
var buyerFairnessSteps = []struct {
	MaxPercentile float64
	Score         float64
}{
	{MaxPercentile: 25, Score: 100},
	{MaxPercentile: 50, Score: 80},
	{MaxPercentile: 75, Score: 60},
	{MaxPercentile: 90, Score: 40},
}

const buyerFairnessFloor = 20

// sellerMarginSteps scores the seller's side from the estimated margin
// share of the proposed price.
var sellerMarginSteps = []thresholdStep{
	{Min: 0.25, Score: 100},
	{Min: 0.15, Score: 80},
	{Min: 0.08, Score: 60},
	{Min: 0.03, Score: 40},
}

const (
	sellerMarginFloor = 20
	belowCostScore    = 10
)

// PriceRange is the suggested quoting window for a listing.
type PriceRange struct {
	Min     float64
	Optimal float64
	Max     float64
}

// FairnessReport is the transient outcome of one fairness analysis.
type FairnessReport struct {
	ItemID             string
	SellerID           string
	ProposedPrice      float64
	Quantity           int
	Percentile         float64
	BuyerFairness      float64
	SellerFairness     float64
	Equilibrium        float64
	IsPriceGouging     bool
	IsUnsustainablyLow bool
	SuggestedRange     PriceRange
	SampleSize         int
}

// Analyzer evaluates price fairness and derives quote pricing guidance.
type Analyzer struct {
	repo repositories.ProfileRepository
	now  func() time.Time
}

func NewAnalyzer(repo repositories.ProfileRepository) *Analyzer {
	return &Analyzer{repo: repo, now: time.Now}
}

// AnalyzePriceFairness scores a proposed price for one item against its
// category's price distribution. Items with no market peers fall back to
// synthetic bands derived from the item's own price.
func (a *Analyzer) AnalyzePriceFairness(ctx context.Context, itemID, sellerID string, proposedPrice float64, quantity int) (*FairnessReport, error) {
	market, err := a.marketData(ctx, itemID)
	if err != nil {
		return nil, err
	}

	percentile := pricePercentile(market.Prices, proposedPrice)
	buyer := buyerFairness(percentile)
	seller := sellerFairness(proposedPrice, market.Median, quantity)

	return &FairnessReport{
		ItemID:             itemID,
		SellerID:           sellerID,
		ProposedPrice:      proposedPrice,
		Quantity:           quantity,
		Percentile:         percentile,
		BuyerFairness:      buyer,
		SellerFairness:     seller,
		Equilibrium:        math.Min(buyer, seller),
		IsPriceGouging:     percentile > gougingPercentile && buyer < gougingBuyerScore,
		IsUnsustainablyLow: seller < unsustainableScore,
		SuggestedRange:     suggestedRange(market, quantity),
		SampleSize:         market.SampleSize,
	}, nil
}

// marketData loads the item's peer price distribution, substituting
// synthetic bands when the item has no real peers.
func (a *Analyzer) marketData(ctx context.Context, itemID string) (*models.MarketPriceData, error) {
	market, err := a.repo.GetMarketPriceData(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load market prices: %w", err)
	}
	if market.SampleSize >= minPeerSample {
		return market, nil
	}

	listing, err := a.repo.GetListing(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load listing for synthetic bands: %w", err)
	}
	return syntheticMarket(market, listing.Price), nil
}

// syntheticMarket builds a stand-in distribution from the item's own price
// using fixed ±10%/±20% bands.
func syntheticMarket(market *models.MarketPriceData, ownPrice float64) *models.MarketPriceData {
	bands := models.PercentileBands{
		P10: ownPrice * 0.8,
		P25: ownPrice * 0.9,
		P75: ownPrice * 1.1,
		P90: ownPrice * 1.2,
	}
	return &models.MarketPriceData{
		ItemID:      market.ItemID,
		Category:    market.Category,
		Subcategory: market.Subcategory,
		Median:      ownPrice,
		Prices:      []float64{bands.P10, bands.P25, ownPrice, bands.P75, bands.P90},
		Percentiles: bands,
		SampleSize:  market.SampleSize,
	}
}

// pricePercentile is the share of sample prices at or below the proposed
// price, as a percentage.
func pricePercentile(prices []float64, proposed float64) float64 {
	if len(prices) == 0 {
		return 50
	}
	idx := sort.SearchFloat64s(prices, proposed)
	for idx < len(prices) && prices[idx] <= proposed {
		idx++
	}
	return float64(idx) / float64(len(prices)) * 100
}

func buyerFairness(percentile float64) float64 {
	for _, step := range buyerFairnessSteps {
		if percentile <= step.MaxPercentile {
			return step.Score
		}
	}
	return buyerFairnessFloor
}

// sellerFairness estimates the seller's margin share of the proposed price
// and scores it through the ordered step table, plus a small volume bonus.
func sellerFairness(price, median float64, quantity int) float64 {
	if price <= 0 {
		return 0
	}

	margin := (price - assumedCostRatio*median) / price

	score := float64(sellerMarginFloor)
	if margin < 0 {
		// Selling below the assumed cost floor.
		score = belowCostScore
	} else {
		for _, step := range sellerMarginSteps {
			if margin >= step.Min {
				score = step.Score
				break
			}
		}
	}

	bonus := math.Min(maxVolumeBonus, float64(quantity)/50)
	return math.Min(100, score+bonus)
}

// suggestedRange derives the quoting window from the percentile bands, with
// larger orders pulling the floor and optimal point down.
func suggestedRange(market *models.MarketPriceData, quantity int) PriceRange {
	volumeDiscount := math.Min(maxVolumeDiscountPct, float64(quantity)/1000)
	return PriceRange{
		Min:     market.Percentiles.P25 * (1 - volumeDiscount),
		Optimal: market.Median * (1 - volumeDiscount/2),
		Max:     market.Percentiles.P75,
	}
}
