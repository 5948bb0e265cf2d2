package fairness

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tradewind/crossintel/crossintel/database/models"
	"github.com/tradewind/crossintel/crossintel/database/repositories"
)

// fakeRepo covers what the analyzer reads: market distributions, listings,
// RFQs, and pair transaction history.
type fakeRepo struct {
	market   map[string]*models.MarketPriceData
	listings map[string]*models.Listing
	rfqs     map[string]*models.RFQ
	txs      []*models.Transaction
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		market:   make(map[string]*models.MarketPriceData),
		listings: make(map[string]*models.Listing),
		rfqs:     make(map[string]*models.RFQ),
	}
}

func (f *fakeRepo) GetBuyerProfile(ctx context.Context, buyerID string) (*models.BuyerProfile, error) {
	return models.DefaultBuyerProfile(buyerID), nil
}

func (f *fakeRepo) GetSellerProfile(ctx context.Context, sellerID string) (*models.SellerProfile, error) {
	return models.DefaultSellerProfile(sellerID), nil
}

func (f *fakeRepo) GetTransactionHistory(ctx context.Context, buyerID, sellerID string, limit int) ([]*models.Transaction, error) {
	return f.txs, nil
}

func (f *fakeRepo) GetMarketPriceData(ctx context.Context, itemID string) (*models.MarketPriceData, error) {
	if m, ok := f.market[itemID]; ok {
		return m, nil
	}
	return &models.MarketPriceData{ItemID: itemID}, nil
}

func (f *fakeRepo) GetTrustEvents(ctx context.Context, userID string, limit int) ([]*models.TrustEvent, error) {
	return nil, nil
}

func (f *fakeRepo) GetAccountCreatedAt(ctx context.Context, userID string) (time.Time, error) {
	return time.Now(), nil
}

func (f *fakeRepo) AppendTrustEvent(ctx context.Context, event *models.TrustEvent) error { return nil }

func (f *fakeRepo) UpsertTrustScoreCache(ctx context.Context, score *models.TrustScore) error {
	return nil
}

func (f *fakeRepo) FindActiveSellers(ctx context.Context, category string) ([]string, error) {
	return nil, nil
}

func (f *fakeRepo) GetRFQ(ctx context.Context, rfqID string) (*models.RFQ, error) {
	if r, ok := f.rfqs[rfqID]; ok {
		return r, nil
	}
	return nil, &repositories.NotFoundError{Entity: "rfqs", ID: rfqID}
}

func (f *fakeRepo) GetListing(ctx context.Context, listingID string) (*models.Listing, error) {
	if l, ok := f.listings[listingID]; ok {
		return l, nil
	}
	return nil, &repositories.NotFoundError{Entity: "listings", ID: listingID}
}

func marketFor(prices []float64) *models.MarketPriceData {
	data := &models.MarketPriceData{
		Prices:     prices,
		SampleSize: len(prices),
	}
	if len(prices) > 0 {
		data.Median = prices[len(prices)/2]
		data.Percentiles = models.PercentileBands{
			P10: prices[0],
			P25: prices[len(prices)/4],
			P75: prices[len(prices)*3/4],
			P90: prices[len(prices)-1],
		}
	}
	return data
}

func TestMedianPriceIsFairToBuyer(t *testing.T) {
	repo := newFakeRepo()
	repo.market["item-1"] = marketFor([]float64{80, 90, 100, 110, 120})

	analyzer := NewAnalyzer(repo)
	report, err := analyzer.AnalyzePriceFairness(context.Background(), "item-1", "s", 100, 1)
	require.NoError(t, err)

	require.GreaterOrEqual(t, report.BuyerFairness, float64(60))
	require.Equal(t, math.Min(report.BuyerFairness, report.SellerFairness), report.Equilibrium)
	require.False(t, report.IsPriceGouging)
}

func TestBuyerFairnessSteps(t *testing.T) {
	tests := []struct {
		percentile float64
		want       float64
	}{
		{10, 100},
		{25, 100},
		{40, 80},
		{50, 80},
		{60, 60},
		{75, 60},
		{85, 40},
		{90, 40},
		{95, 20},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, buyerFairness(tt.percentile), "percentile %v", tt.percentile)
	}
}

func TestGougingFlag(t *testing.T) {
	repo := newFakeRepo()
	repo.market["item-1"] = marketFor([]float64{50, 55, 60, 65, 70, 75, 80, 85, 90, 95})

	analyzer := NewAnalyzer(repo)
	report, err := analyzer.AnalyzePriceFairness(context.Background(), "item-1", "s", 200, 1)
	require.NoError(t, err)

	require.Greater(t, report.Percentile, float64(90))
	require.Less(t, report.BuyerFairness, float64(30))
	require.True(t, report.IsPriceGouging)
}

func TestUnsustainablyLowFlag(t *testing.T) {
	repo := newFakeRepo()
	repo.market["item-1"] = marketFor([]float64{80, 90, 100, 110, 120})

	analyzer := NewAnalyzer(repo)
	// Price below the assumed cost floor: margin is negative.
	report, err := analyzer.AnalyzePriceFairness(context.Background(), "item-1", "s", 60, 1)
	require.NoError(t, err)
	require.True(t, report.IsUnsustainablyLow)
}

func TestSyntheticBandsWithoutPeers(t *testing.T) {
	repo := newFakeRepo()
	repo.listings["lonely"] = &models.Listing{ID: "lonely", SellerID: "s", Price: 100}

	analyzer := NewAnalyzer(repo)
	report, err := analyzer.AnalyzePriceFairness(context.Background(), "lonely", "s", 100, 1)
	require.NoError(t, err)

	discount := 1.0 / 1000 // quantity 1
	require.InDelta(t, 90*(1-discount), report.SuggestedRange.Min, 1e-9)
	require.InDelta(t, 100*(1-discount/2), report.SuggestedRange.Optimal, 1e-9)
	require.InDelta(t, 110, report.SuggestedRange.Max, 1e-9)
	require.GreaterOrEqual(t, report.Equilibrium, float64(0))
}

func TestSuggestedRangeVolumeDiscount(t *testing.T) {
	market := marketFor([]float64{80, 90, 100, 110, 120})

	small := suggestedRange(market, 1)
	bulk := suggestedRange(market, 100) // 10% discount cap

	require.Less(t, bulk.Min, small.Min)
	require.Less(t, bulk.Optimal, small.Optimal)
	require.Equal(t, small.Max, bulk.Max)
	require.InDelta(t, market.Percentiles.P25*0.9, bulk.Min, 1e-9)
}

func TestVolumeDiscountTiers(t *testing.T) {
	tests := []struct {
		quantity, minOrder int
		want               float64
	}{
		{12, 1, 10},
		{10, 1, 10},
		{6, 1, 5},
		{2, 1, 2},
		{1, 1, 0},
		{50, 10, 5},
		{5, 0, 5}, // zero minimum treated as 1
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, VolumeDiscount(tt.quantity, tt.minOrder),
			"quantity %d min %d", tt.quantity, tt.minOrder)
	}
}

func TestUrgencyPremiumTiers(t *testing.T) {
	require.Equal(t, float64(15), urgencyPremium(0.5))
	require.Equal(t, float64(10), urgencyPremium(2))
	require.Equal(t, float64(5), urgencyPremium(6))
	require.Equal(t, float64(0), urgencyPremium(14))
}

func TestGeneratePricingGuidanceNotFound(t *testing.T) {
	analyzer := NewAnalyzer(newFakeRepo())
	_, err := analyzer.GeneratePricingGuidance(context.Background(), "s", "missing-rfq")
	require.Error(t, err)
	require.True(t, repositories.IsNotFound(err))
}

func TestGeneratePricingGuidance(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	repo.listings["item-1"] = &models.Listing{ID: "item-1", SellerID: "s", Price: 100, MinOrderQty: 1}
	repo.market["item-1"] = marketFor([]float64{80, 90, 100, 110, 120})
	repo.rfqs["rfq-1"] = &models.RFQ{
		ID:         "rfq-1",
		BuyerID:    "b",
		ListingID:  "item-1",
		Quantity:   12,
		DeadlineAt: now.AddDate(0, 0, 2),
		Status:     models.RFQOpen,
	}
	repo.txs = []*models.Transaction{
		{BuyerID: "b", SellerID: "s", CompletedAt: now.AddDate(0, 0, -10)},
		{BuyerID: "b", SellerID: "s", CompletedAt: now.AddDate(0, 0, -30)},
	}

	analyzer := NewAnalyzer(repo)
	analyzer.now = func() time.Time { return now }

	guidance, err := analyzer.GeneratePricingGuidance(context.Background(), "s", "rfq-1")
	require.NoError(t, err)

	require.Equal(t, float64(100), guidance.MarketMedian)
	require.Equal(t, float64(2), guidance.LoyaltyDiscountPct)
	require.Equal(t, float64(10), guidance.VolumeDiscountPct)
	require.Equal(t, float64(10), guidance.UrgencyPremiumPct)

	// median * (1 - 12%) * (1 + 10%)
	require.InDelta(t, 100*0.88*1.10, guidance.RecommendedPrice, 1e-9)

	require.Greater(t, guidance.WinProbability, float64(0))
	require.LessOrEqual(t, guidance.WinProbability, float64(95))
}

func TestPricePercentile(t *testing.T) {
	prices := []float64{80, 90, 100, 110, 120}

	require.Equal(t, float64(60), pricePercentile(prices, 100))
	require.Equal(t, float64(0), pricePercentile(prices, 70))
	require.Equal(t, float64(100), pricePercentile(prices, 130))
	require.Equal(t, float64(50), pricePercentile(nil, 100))
}
