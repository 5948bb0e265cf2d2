package trust

import (
	"time"

	"github.com/tradewind/crossintel/crossintel/database/models"
)

// EventSpec pairs the base impact of an event kind with its decay rate.
// Higher decay rates make an event's influence fade faster.
type EventSpec struct {
	Impact    float64
	DecayRate float64
}

// LevelThreshold maps a minimum score to a trust level. Thresholds are
// checked in order, so the slice must be sorted by descending MinScore.
type LevelThreshold struct {
	MinScore float64
	Level    models.TrustLevel
}

// Config is the immutable tuning table for the trust engine. Constructing
// engines with alternate tables keeps tests free of global state.
type Config struct {
	// Catalog maps each event kind to its scoring parameters. Recording an
	// event type absent from the catalog is an error.
	Catalog map[models.TrustEventType]EventSpec

	// Levels is the ordered score threshold table (descending MinScore).
	Levels []LevelThreshold

	// AtRiskNegativeEvents and SuspendedNegativeEvents are the trailing-90d
	// negative event counts that override the score thresholds.
	AtRiskNegativeEvents    int
	SuspendedNegativeEvents int

	// EventLimit caps how much history one recomputation loads.
	EventLimit int

	// CacheTTL bounds how long a cached score may serve reads before a
	// fresh recomputation.
	CacheTTL time.Duration
}

// DefaultConfig returns the production scoring table.
func DefaultConfig() Config {
	return Config{
		Catalog: map[models.TrustEventType]EventSpec{
			models.EventOrderCompleted:   {Impact: 10, DecayRate: 1.0},
			models.EventOnTimeDelivery:   {Impact: 5, DecayRate: 1.2},
			models.EventPositiveReview:   {Impact: 7, DecayRate: 0.8},
			models.EventVerifiedProfile:  {Impact: 15, DecayRate: 0.3},
			models.EventDisputeResolved:  {Impact: 3, DecayRate: 1.0},
			models.EventRepeatPurchase:   {Impact: 4, DecayRate: 1.0},
			models.EventLateDelivery:     {Impact: -8, DecayRate: 0.9},
			models.EventOrderCancelled:   {Impact: -10, DecayRate: 0.8},
			models.EventQualityComplaint: {Impact: -12, DecayRate: 0.6},
			models.EventPaymentDelay:     {Impact: -6, DecayRate: 0.9},
			models.EventDisputeFiled:     {Impact: -15, DecayRate: 0.5},
			models.EventPolicyViolation:  {Impact: -20, DecayRate: 0.3},
			models.EventNegativeReview:   {Impact: -7, DecayRate: 0.8},
		},
		Levels: []LevelThreshold{
			{MinScore: 90, Level: models.LevelPremium},
			{MinScore: 75, Level: models.LevelTrusted},
			{MinScore: 60, Level: models.LevelEstablished},
			{MinScore: 40, Level: models.LevelEmerging},
			{MinScore: 0, Level: models.LevelUnverified},
		},
		AtRiskNegativeEvents:    3,
		SuspendedNegativeEvents: 6,
		EventLimit:              500,
		CacheTTL:                5 * time.Minute,
	}
}
