// Package match computes buyer-seller compatibility scores. Every factor is
// normalized to [0,100] before the weighted composite so no single signal
// can dominate through scale alone.
package match

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/tradewind/crossintel/crossintel/database/models"
	"github.com/tradewind/crossintel/crossintel/database/repositories"
)

const (
	defaultMatchLimit     = 10
	maxConcurrentMatches  = 8
	geographicPlaceholder = 70 // geo matching is not modeled yet

	elasticityDirectThreshold = 0.7
)

// FactorWeights is the immutable weight table for the affinity composite.
// The weights sum to 1.0.
type FactorWeights struct {
	CategoryAffinity  float64
	PriceAlignment    float64
	ReliabilityMatch  float64
	RelationshipBonus float64
	CapacityFit       float64
	GeographicScore   float64
	ResponseTimeMatch float64
}

// DefaultWeights returns the production affinity weight table.
func DefaultWeights() FactorWeights {
	return FactorWeights{
		CategoryAffinity:  0.20,
		PriceAlignment:    0.20,
		ReliabilityMatch:  0.15,
		RelationshipBonus: 0.20,
		CapacityFit:       0.10,
		GeographicScore:   0.05,
		ResponseTimeMatch: 0.10,
	}
}

// Sum returns the total of all weights. A valid table sums to 1.0.
func (w FactorWeights) Sum() float64 {
	return w.CategoryAffinity + w.PriceAlignment + w.ReliabilityMatch +
		w.RelationshipBonus + w.CapacityFit + w.GeographicScore + w.ResponseTimeMatch
}

// Factors holds the seven named affinity components, each in [0,100].
type Factors struct {
	CategoryAffinity  float64
	PriceAlignment    float64
	ReliabilityMatch  float64
	RelationshipBonus float64
	CapacityFit       float64
	GeographicScore   float64
	ResponseTimeMatch float64
}

// MatchResult is the transient outcome of one affinity computation.
type MatchResult struct {
	BuyerID    string
	SellerID   string
	ItemID     string
	Score      float64
	Factors    Factors
	Confidence float64
}

// Matcher scores buyer-seller pairs from their profiles and shared history.
type Matcher struct {
	repo    repositories.ProfileRepository
	weights FactorWeights
}

func NewMatcher(repo repositories.ProfileRepository, weights FactorWeights) *Matcher {
	return &Matcher{repo: repo, weights: weights}
}

// CalculateAffinity computes the weighted compatibility score between one
// buyer and one seller. itemID is optional; when present it focuses price
// competitiveness on the item's category.
func (m *Matcher) CalculateAffinity(ctx context.Context, buyerID, sellerID, itemID string) (*MatchResult, error) {
	buyer, err := m.repo.GetBuyerProfile(ctx, buyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load buyer profile: %w", err)
	}
	seller, err := m.repo.GetSellerProfile(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load seller profile: %w", err)
	}
	txs, err := m.repo.GetTransactionHistory(ctx, buyerID, sellerID, repositories.DefaultTransactionLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction history: %w", err)
	}

	category := ""
	if itemID != "" {
		if listing, err := m.repo.GetListing(ctx, itemID); err == nil {
			category = listing.Category
		}
	}

	factors := Factors{
		CategoryAffinity:  categoryAffinity(buyer, seller),
		PriceAlignment:    priceAlignment(buyer, seller, category),
		ReliabilityMatch:  reliabilityMatch(buyer, seller),
		RelationshipBonus: relationshipBonus(txs),
		CapacityFit:       capacityFit(buyer, seller),
		GeographicScore:   geographicPlaceholder,
		ResponseTimeMatch: responseTimeMatch(buyer, seller),
	}

	composite := factors.CategoryAffinity*m.weights.CategoryAffinity +
		factors.PriceAlignment*m.weights.PriceAlignment +
		factors.ReliabilityMatch*m.weights.ReliabilityMatch +
		factors.RelationshipBonus*m.weights.RelationshipBonus +
		factors.CapacityFit*m.weights.CapacityFit +
		factors.GeographicScore*m.weights.GeographicScore +
		factors.ResponseTimeMatch*m.weights.ResponseTimeMatch

	return &MatchResult{
		BuyerID:    buyerID,
		SellerID:   sellerID,
		ItemID:     itemID,
		Score:      math.Round(clamp(composite)*10) / 10,
		Factors:    factors,
		Confidence: math.Min(100, 30+float64(len(txs))*7),
	}, nil
}

// MatchSellers ranks active sellers for a buyer by affinity, best first.
func (m *Matcher) MatchSellers(ctx context.Context, buyerID, category string, limit int) ([]*MatchResult, error) {
	if limit <= 0 {
		limit = defaultMatchLimit
	}

	sellerIDs, err := m.repo.FindActiveSellers(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate sellers: %w", err)
	}

	results := make([]*MatchResult, len(sellerIDs))
	g, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(maxConcurrentMatches)
	var mu sync.Mutex

	for i, sellerID := range sellerIDs {
		i, sellerID := i, sellerID
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			result, err := m.CalculateAffinity(gctx, buyerID, sellerID, "")
			if err != nil {
				return fmt.Errorf("affinity for seller %s: %w", sellerID, err)
			}
			mu.Lock()
			results[i] = result
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].SellerID < results[j].SellerID
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// categoryAffinity measures the weighted overlap between what the buyer
// cares about and where the seller is strong.
func categoryAffinity(buyer *models.BuyerProfile, seller *models.SellerProfile) float64 {
	if len(buyer.CategoryAffinity) == 0 {
		return 50 // no recorded preferences
	}
	if len(seller.CategoryStrength) == 0 {
		return 50
	}

	var weighted, totalWeight float64
	for category, weight := range buyer.CategoryAffinity {
		if weight <= 0 {
			continue
		}
		weighted += weight * seller.CategoryStrength[category]
		totalWeight += weight
	}
	if totalWeight == 0 {
		return 50
	}
	return clamp(weighted / totalWeight)
}

// priceAlignment weights seller competitiveness by how price-sensitive the
// buyer is. Elastic buyers take competitiveness directly; inelastic buyers
// mostly don't care, so competitiveness only moves the top band.
func priceAlignment(buyer *models.BuyerProfile, seller *models.SellerProfile, category string) float64 {
	competitiveness := seller.AvgCompetitiveness(category)
	if buyer.PriceElasticity > elasticityDirectThreshold {
		return clamp(competitiveness)
	}
	return clamp(70 + 0.3*competitiveness)
}

// reliabilityMatch compares seller on-time delivery against the buyer's
// quality threshold. Shortfall is penalized steeply; surplus decays the
// score slightly since reliability beyond the threshold is overkill.
func reliabilityMatch(buyer *models.BuyerProfile, seller *models.SellerProfile) float64 {
	if seller.OnTimeRate >= buyer.QualityThreshold {
		surplus := seller.OnTimeRate - buyer.QualityThreshold
		return clamp(100 - surplus*20)
	}
	shortfall := buyer.QualityThreshold - seller.OnTimeRate
	return clamp(100 - shortfall*200)
}

// relationshipBonus rewards an established trading relationship.
func relationshipBonus(txs []*models.Transaction) float64 {
	if len(txs) == 0 {
		return 50
	}
	var completed int
	for _, tx := range txs {
		if !tx.Disputed {
			completed++
		}
	}
	successRate := float64(completed) / float64(len(txs))
	return math.Min(100, 50+float64(len(txs))*5+successRate*30)
}

// capacityFit compares the buyer's implied weekly order volume against the
// seller's spare capacity.
func capacityFit(buyer *models.BuyerProfile, seller *models.SellerProfile) float64 {
	needed := buyer.OrderFrequency
	if needed <= 0 {
		return 100
	}
	spare := seller.SpareWeeklyCapacity()
	if spare >= needed {
		return 100
	}
	return clamp(100 * spare / needed)
}

// responseTimeMatch scores the seller's responsiveness against the buyer's
// urgency-implied expectation.
func responseTimeMatch(buyer *models.BuyerProfile, seller *models.SellerProfile) float64 {
	expected := buyer.ResponseExpectation()
	if seller.AvgResponseHours <= expected {
		return 100
	}
	overrun := (seller.AvgResponseHours - expected) / expected
	return clamp(100 - overrun*100)
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
