// Package ranking reduces per-listing signals to one composite score and
// orders search results with a seller-diversity constraint, so no single
// seller can monopolize the top of the results page.
package ranking

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sahilm/fuzzy"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/tradewind/crossintel/crossintel/database/models"
	"github.com/tradewind/crossintel/crossintel/database/repositories"
	"github.com/tradewind/crossintel/crossintel/intel/match"
	"github.com/tradewind/crossintel/crossintel/intel/trust"
)

const (
	maxConcurrentFactors = 8

	// Diversity constraint: at most maxPerSeller listings from one seller
	// within the first diversityWindow accepted positions.
	diversityWindow = 20
	maxPerSeller    = 3

	freshnessDecayPerDay = 2
	neutralScore         = 50
)

// Result is one ranked listing with its factor breakdown.
type Result struct {
	Listing  *models.Listing
	BuyerID  string
	Score    float64
	Factors  Factors
	Position int
}

// Engine assembles ranking factors per listing and orders candidate sets.
// It builds on the affinity matcher and trust engine rather than reloading
// their inputs.
type Engine struct {
	repo    repositories.ProfileRepository
	matcher *match.Matcher
	trust   *trust.Engine
	weights Weights
	now     func() time.Time
}

func NewEngine(repo repositories.ProfileRepository, matcher *match.Matcher, trustEngine *trust.Engine, weights Weights) *Engine {
	return &Engine{
		repo:    repo,
		matcher: matcher,
		trust:   trustEngine,
		weights: weights,
		now:     time.Now,
	}
}

// CalculateRankingFactors assembles the ten factors for one listing and
// buyer. query may be empty, in which case text relevance is neutral.
func (e *Engine) CalculateRankingFactors(ctx context.Context, listing *models.Listing, buyerID, query string) (*Factors, error) {
	buyer, err := e.repo.GetBuyerProfile(ctx, buyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load buyer profile: %w", err)
	}
	seller, err := e.repo.GetSellerProfile(ctx, listing.SellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load seller profile: %w", err)
	}

	affinity, err := e.matcher.CalculateAffinity(ctx, buyerID, listing.SellerID, listing.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute affinity: %w", err)
	}
	trustScore, err := e.trust.CalculateScore(ctx, listing.SellerID, models.RoleSeller)
	if err != nil {
		return nil, fmt.Errorf("failed to compute seller trust: %w", err)
	}

	competitiveness := seller.AvgCompetitiveness(listing.Category)

	return &Factors{
		TextRelevance:       textRelevance(query, listing),
		FilterMatch:         filterMatch(buyer, listing),
		AffinityScore:       affinity.Score,
		TrustBoost:          trustScore.Score,
		FairnessBoost:       clamp(competitiveness),
		ConversionPotential: conversionPotential(buyer, listing),
		MarginPotential:     clamp(100 - competitiveness),
		RetentionImpact:     affinity.Factors.RelationshipBonus,
		ListingFreshness:    e.listingFreshness(listing),
		SellerActivityScore: clamp(seller.CapacityUtilization * 100),
	}, nil
}

// RankListingsForBuyer scores every candidate, sorts descending, and applies
// the seller-diversity pass to the head of the list.
func (e *Engine) RankListingsForBuyer(ctx context.Context, listings []*models.Listing, buyerID, query string) ([]*Result, error) {
	results := make([]*Result, len(listings))
	g, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(maxConcurrentFactors)
	var mu sync.Mutex

	for i, listing := range listings {
		i, listing := i, listing
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			factors, err := e.CalculateRankingFactors(gctx, listing, buyerID, query)
			if err != nil {
				return fmt.Errorf("ranking factors for listing %s: %w", listing.ID, err)
			}
			mu.Lock()
			results[i] = &Result{
				Listing: listing,
				BuyerID: buyerID,
				Score:   math.Round(factors.Composite(e.weights)*10) / 10,
				Factors: *factors,
			}
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
		return results[i].Listing.ID < results[j].Listing.ID
	})

	ranked := applyDiversity(results)
	for i, r := range ranked {
		r.Position = i + 1
	}
	return ranked, nil
}

// applyDiversity walks the sorted list and drops a listing when its seller
// already holds maxPerSeller of the first diversityWindow accepted slots.
// Once the window is filled, remaining listings pass unrestricted.
func applyDiversity(sorted []*Result) []*Result {
	accepted := make([]*Result, 0, len(sorted))
	perSeller := make(map[string]int)

	for _, r := range sorted {
		if len(accepted) < diversityWindow {
			if perSeller[r.Listing.SellerID] >= maxPerSeller {
				continue
			}
			perSeller[r.Listing.SellerID]++
		}
		accepted = append(accepted, r)
	}
	return accepted
}

// textRelevance fuzzy-matches the query against the listing's title and
// keywords. No query means no text signal, so the factor stays neutral.
func textRelevance(query string, listing *models.Listing) float64 {
	if strings.TrimSpace(query) == "" {
		return neutralScore
	}

	haystack := listing.Title
	if listing.Keywords != "" {
		haystack += " " + listing.Keywords
	}

	matches := fuzzy.Find(query, []string{haystack})
	if len(matches) == 0 {
		return 10
	}
	// fuzzy scores grow with consecutive and word-boundary matches; anchor
	// any hit at 60 and let strong hits approach 100.
	return clamp(60 + float64(matches[0].Score))
}

// filterMatch scores how well the listing's category fits the buyer's
// recorded preferences.
func filterMatch(buyer *models.BuyerProfile, listing *models.Listing) float64 {
	if len(buyer.CategoryAffinity) == 0 {
		return neutralScore
	}
	weight, ok := buyer.CategoryAffinity[listing.Category]
	if !ok {
		return neutralScore
	}
	return clamp(weight)
}

// conversionPotential measures how well the listing price overlaps the
// buyer's typical spending range, taken as 0.5x to 1.5x their average
// order value.
func conversionPotential(buyer *models.BuyerProfile, listing *models.Listing) float64 {
	if buyer.AvgOrderValue <= 0 {
		return neutralScore
	}

	low := buyer.AvgOrderValue * 0.5
	high := buyer.AvgOrderValue * 1.5
	if listing.Price >= low && listing.Price <= high {
		return 100
	}

	var distance float64
	if listing.Price < low {
		distance = (low - listing.Price) / low
	} else {
		distance = (listing.Price - high) / high
	}
	return clamp(100 - distance*100)
}

// listingFreshness decays from 100 at freshnessDecayPerDay points per day
// since the listing was last updated.
func (e *Engine) listingFreshness(listing *models.Listing) float64 {
	days := e.now().Sub(listing.UpdatedAt).Hours() / 24
	if days < 0 {
		days = 0
	}
	return clamp(100 - freshnessDecayPerDay*days)
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
