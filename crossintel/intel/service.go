// Package intel wires the four scoring engines behind one transport-agnostic
// facade. Every method returns plain structs so callers can sit behind any
// transport without leaking engine internals.
package intel

import (
	"context"
	"time"

	"github.com/tradewind/crossintel/crossintel/database/models"
	"github.com/tradewind/crossintel/crossintel/database/repositories"
	"github.com/tradewind/crossintel/crossintel/intel/audit"
	"github.com/tradewind/crossintel/crossintel/intel/fairness"
	"github.com/tradewind/crossintel/crossintel/intel/match"
	"github.com/tradewind/crossintel/crossintel/intel/ranking"
	"github.com/tradewind/crossintel/crossintel/intel/trust"
)

// Service bundles the trust, match, fairness, and ranking engines over one
// shared repository.
type Service struct {
	Trust    *trust.Engine
	Matcher  *match.Matcher
	Fairness *fairness.Analyzer
	Ranking  *ranking.Engine

	scheduler *trust.Scheduler
}

// Options tunes the engines at construction time. Zero values fall back to
// the production defaults.
type Options struct {
	TrustConfig       *trust.Config
	MatchWeights      *match.FactorWeights
	RankingWeights    *ranking.Weights
	RecomputeInterval time.Duration
}

// NewService constructs the engine stack. trail may be nil when no audit
// sink is configured.
func NewService(repo repositories.ProfileRepository, trail *audit.Trail, opts Options) *Service {
	trustCfg := trust.DefaultConfig()
	if opts.TrustConfig != nil {
		trustCfg = *opts.TrustConfig
	}
	matchWeights := match.DefaultWeights()
	if opts.MatchWeights != nil {
		matchWeights = *opts.MatchWeights
	}
	rankWeights := ranking.DefaultWeights()
	if opts.RankingWeights != nil {
		rankWeights = *opts.RankingWeights
	}

	trustEngine := trust.NewEngine(repo, trail, trustCfg)
	matcher := match.NewMatcher(repo, matchWeights)

	return &Service{
		Trust:     trustEngine,
		Matcher:   matcher,
		Fairness:  fairness.NewAnalyzer(repo),
		Ranking:   ranking.NewEngine(repo, matcher, trustEngine, rankWeights),
		scheduler: trust.NewScheduler(trustEngine, repo, opts.RecomputeInterval),
	}
}

// StartScheduler launches the periodic trust recompute sweep. It returns
// immediately; the sweep stops when ctx is cancelled.
func (s *Service) StartScheduler(ctx context.Context) {
	s.scheduler.Start(ctx)
}

// CalculateTrustScore returns the user's current trust score, served from
// cache when fresh.
func (s *Service) CalculateTrustScore(ctx context.Context, userID string, role models.TrustRole) (*models.TrustScore, error) {
	return s.Trust.CalculateScore(ctx, userID, role)
}

// RecordTrustEvent appends a trust event and returns the recomputed score.
func (s *Service) RecordTrustEvent(ctx context.Context, userID string, role models.TrustRole, eventType models.TrustEventType, eventCtx map[string]string) (*models.TrustScore, error) {
	return s.Trust.RecordEvent(ctx, userID, role, eventType, eventCtx)
}

// RelationshipTrust computes pairwise trust from the shared transaction
// history of one buyer and one seller.
func (s *Service) RelationshipTrust(ctx context.Context, buyerID, sellerID string) (*trust.RelationshipTrust, error) {
	return s.Trust.RelationshipTrust(ctx, buyerID, sellerID)
}

// CalculateBuyerSellerAffinity scores one buyer-seller pair.
func (s *Service) CalculateBuyerSellerAffinity(ctx context.Context, buyerID, sellerID, itemID string) (*match.MatchResult, error) {
	return s.Matcher.CalculateAffinity(ctx, buyerID, sellerID, itemID)
}

// MatchedSellers ranks active sellers for a buyer by affinity.
func (s *Service) MatchedSellers(ctx context.Context, buyerID, category string, limit int) ([]*match.MatchResult, error) {
	return s.Matcher.MatchSellers(ctx, buyerID, category, limit)
}

// AnalyzePriceFairness evaluates a proposed price against the item's market
// distribution.
func (s *Service) AnalyzePriceFairness(ctx context.Context, itemID, sellerID string, proposedPrice float64, quantity int) (*fairness.FairnessReport, error) {
	return s.Fairness.AnalyzePriceFairness(ctx, itemID, sellerID, proposedPrice, quantity)
}

// GeneratePricingGuidance builds a quote recommendation for a seller
// answering an RFQ.
func (s *Service) GeneratePricingGuidance(ctx context.Context, sellerID, rfqID string) (*fairness.PricingGuidance, error) {
	return s.Fairness.GeneratePricingGuidance(ctx, sellerID, rfqID)
}

// CalculateRankingFactors assembles the ranking factor breakdown for one
// listing and buyer.
func (s *Service) CalculateRankingFactors(ctx context.Context, listing *models.Listing, buyerID, query string) (*ranking.Factors, error) {
	return s.Ranking.CalculateRankingFactors(ctx, listing, buyerID, query)
}

// RankListingsForBuyer scores and orders a candidate set with the
// seller-diversity constraint applied.
func (s *Service) RankListingsForBuyer(ctx context.Context, listings []*models.Listing, buyerID, query string) ([]*ranking.Result, error) {
	return s.Ranking.RankListingsForBuyer(ctx, listings, buyerID, query)
}

// RecomputeSellerTrustScore forces a fresh recomputation for one seller,
// bypassing the cache TTL.
func (s *Service) RecomputeSellerTrustScore(ctx context.Context, sellerID string) (*models.TrustScore, error) {
	return s.Trust.RecomputeScore(ctx, sellerID, models.RoleSeller)
}
