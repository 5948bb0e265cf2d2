package trust

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"

	"github.com/tradewind/crossintel/crossintel/database/models"
	"github.com/tradewind/crossintel/crossintel/database/repositories"
	"github.com/tradewind/crossintel/crossintel/intel/audit"
	"github.com/tradewind/crossintel/crossintel/logger"
)

const (
	scoreCacheSize = 10000

	baseScoreNew         = 30 // accounts younger than 30 days
	baseScoreDefault     = 50
	baseScoreSeasoned    = 60 // accounts older than a year
	trendWindowDays      = 30
	trendRisingThreshold = 5
	negativeWindowDays   = 90
)

// RelationshipTrust is the pairwise trust derived purely from the shared
// transaction history of one buyer and one seller. It is distinct from the
// general per-account trust score.
type RelationshipTrust struct {
	BuyerID          string
	SellerID         string
	TrustScore       float64
	TransactionCount int
	SuccessRate      float64
	DaysSinceLast    float64
}

type cachedScore struct {
	score    *models.TrustScore
	cachedAt time.Time
}

// Engine converts a user's append-only event history into a bounded
// reputation score, level, and trend. Scores are a pure function of the
// event log plus account age; the cache table is derived state only.
type Engine struct {
	repo  repositories.ProfileRepository
	trail *audit.Trail
	cfg   Config
	cache *lru.Cache

	// userLocks serializes recompute+upsert per user so concurrent events
	// for the same account cannot overwrite the cache from stale reads.
	mu        sync.Mutex
	userLocks map[string]*sync.Mutex

	now func() time.Time
}

func NewEngine(repo repositories.ProfileRepository, trail *audit.Trail, cfg Config) *Engine {
	cache, _ := lru.New(scoreCacheSize)
	return &Engine{
		repo:      repo,
		trail:     trail,
		cfg:       cfg,
		cache:     cache,
		userLocks: make(map[string]*sync.Mutex),
		now:       time.Now,
	}
}

func (e *Engine) userLock(userID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.userLocks[userID]
	if !ok {
		l = &sync.Mutex{}
		e.userLocks[userID] = l
	}
	return l
}

// RecordEvent appends a new trust event for the user and recomputes their
// cached score. The event write must succeed or the call fails; the audit
// trail write is best-effort and its result is ignored by design.
func (e *Engine) RecordEvent(ctx context.Context, userID string, role models.TrustRole, eventType models.TrustEventType, eventCtx map[string]string) (*models.TrustScore, error) {
	spec, ok := e.cfg.Catalog[eventType]
	if !ok {
		return nil, fmt.Errorf("unknown trust event type %q", eventType)
	}

	event := &models.TrustEvent{
		EventID:   uuid.NewString(),
		UserID:    userID,
		EventType: eventType,
		Impact:    spec.Impact,
		DecayRate: spec.DecayRate,
		Context:   eventCtx,
		CreatedAt: e.now(),
	}

	if err := e.repo.AppendTrustEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to append trust event: %w", err)
	}

	score, err := e.RecomputeScore(ctx, userID, role)
	if err != nil {
		return nil, err
	}

	// Best-effort: the trail logs its own failures.
	_ = e.trail.Record(ctx, audit.Entry{
		EventID:   event.EventID,
		UserID:    userID,
		EventType: string(eventType),
		Impact:    spec.Impact,
		Context:   eventCtx,
		Score:     score.Score,
		Timestamp: event.CreatedAt,
	})

	return score, nil
}

// CalculateScore returns the user's current trust score, serving a recent
// cached value when available and recomputing from the event log otherwise.
func (e *Engine) CalculateScore(ctx context.Context, userID string, role models.TrustRole) (*models.TrustScore, error) {
	if cached, ok := e.cache.Get(userID); ok {
		if c, ok := cached.(cachedScore); ok && e.now().Sub(c.cachedAt) < e.cfg.CacheTTL {
			return c.score, nil
		}
	}
	return e.RecomputeScore(ctx, userID, role)
}

// RecomputeScore rebuilds the score from the full event history, upserts
// the cache table, and refreshes the in-memory cache. Writes for one user
// are serialized (see §userLocks) so last-writer-wins cannot regress the
// cache to a stale view.
func (e *Engine) RecomputeScore(ctx context.Context, userID string, role models.TrustRole) (*models.TrustScore, error) {
	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	start := e.now()

	events, err := e.repo.GetTrustEvents(ctx, userID, e.cfg.EventLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load trust events: %w", err)
	}

	createdAt, err := e.repo.GetAccountCreatedAt(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account age: %w", err)
	}

	score := e.computeScore(userID, role, events, createdAt)

	if err := e.repo.UpsertTrustScoreCache(ctx, score); err != nil {
		return nil, fmt.Errorf("failed to upsert trust score: %w", err)
	}
	e.cache.Add(userID, cachedScore{score: score, cachedAt: e.now()})

	logger.LogScore("trust", "recompute", userID, e.now().Sub(start), nil)
	return score, nil
}

// computeScore is the pure scoring function over an event snapshot.
func (e *Engine) computeScore(userID string, role models.TrustRole, events []*models.TrustEvent, createdAt time.Time) *models.TrustScore {
	now := e.now()
	accountAgeDays := now.Sub(createdAt).Hours() / 24
	if accountAgeDays < 0 {
		accountAgeDays = 0
	}

	base := baseScoreDefault
	switch {
	case accountAgeDays < 30:
		base = baseScoreNew
	case accountAgeDays > 365:
		base = baseScoreSeasoned
	}

	var contributions, trendSum float64
	var negatives90 int
	for _, ev := range events {
		ageDays := now.Sub(ev.CreatedAt).Hours() / 24
		if ageDays < 0 {
			ageDays = 0
		}
		contributions += decayedImpact(ev.Impact, ev.DecayRate, ageDays)

		if ageDays <= trendWindowDays {
			trendSum += ev.Impact
		}
		if ev.Impact < 0 && ageDays <= negativeWindowDays {
			negatives90++
		}
	}

	raw := clampScore(float64(base) + contributions)

	trend := models.TrendStable
	if trendSum > trendRisingThreshold {
		trend = models.TrendRising
	} else if trendSum < -trendRisingThreshold {
		trend = models.TrendFalling
	}

	confidence := math.Min(50, float64(len(events))*5) + math.Min(50, accountAgeDays/7)

	return &models.TrustScore{
		UserID:           userID,
		Role:             role,
		Score:            raw,
		Level:            e.classifyLevel(raw, negatives90),
		Trend:            trend,
		Confidence:       confidence,
		EventCount:       len(events),
		NegativeEvents90: negatives90,
		LastUpdated:      now,
	}
}

// classifyLevel applies the negative-event overrides first, then walks the
// ordered threshold table.
func (e *Engine) classifyLevel(score float64, negatives90 int) models.TrustLevel {
	if negatives90 > e.cfg.SuspendedNegativeEvents {
		return models.LevelSuspended
	}
	if negatives90 > e.cfg.AtRiskNegativeEvents {
		return models.LevelAtRisk
	}
	for _, t := range e.cfg.Levels {
		if score >= t.MinScore {
			return t.Level
		}
	}
	return models.LevelUnverified
}

// RelationshipTrust computes pairwise trust from the shared transaction
// history. No history yields neutral defaults rather than an error.
func (e *Engine) RelationshipTrust(ctx context.Context, buyerID, sellerID string) (*RelationshipTrust, error) {
	txs, err := e.repo.GetTransactionHistory(ctx, buyerID, sellerID, repositories.DefaultTransactionLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction history: %w", err)
	}

	rel := &RelationshipTrust{
		BuyerID:    buyerID,
		SellerID:   sellerID,
		TrustScore: 50,
	}
	if len(txs) == 0 {
		return rel, nil
	}

	now := e.now()
	var completed int
	daysSinceLast := math.Inf(1)
	for _, tx := range txs {
		if tx.Disputed {
			continue
		}
		completed++
		if d := now.Sub(tx.CompletedAt).Hours() / 24; d < daysSinceLast {
			daysSinceLast = d
		}
	}

	rel.TransactionCount = len(txs)
	rel.SuccessRate = float64(completed) / float64(len(txs))

	recencyBonus := 0.0
	if completed > 0 {
		rel.DaysSinceLast = daysSinceLast
		recencyBonus = math.Max(0, 20-daysSinceLast)
	}

	rel.TrustScore = math.Min(100,
		50+rel.SuccessRate*30+math.Min(float64(len(txs)), 10)*2+recencyBonus)

	return rel, nil
}

// decayedImpact applies exponential time decay to an event's impact. The
// result keeps the impact's sign and shrinks monotonically toward zero as
// the event ages.
func decayedImpact(impact, decayRate, ageDays float64) float64 {
	return impact * math.Exp(-decayRate*ageDays/365)
}

func clampScore(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
