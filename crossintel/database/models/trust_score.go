package models

import (
	"time"

	"github.com/uptrace/bun"
)

// TrustLevel buckets a numeric trust score into a categorical tier.
type TrustLevel string

const (
	LevelUnverified  TrustLevel = "unverified"
	LevelEmerging    TrustLevel = "emerging"
	LevelEstablished TrustLevel = "established"
	LevelTrusted     TrustLevel = "trusted"
	LevelPremium     TrustLevel = "premium"
	LevelAtRisk      TrustLevel = "at_risk"
	LevelSuspended   TrustLevel = "suspended"
)

// TrustTrend describes the short-window direction of a user's reputation.
type TrustTrend string

const (
	TrendRising  TrustTrend = "rising"
	TrendStable  TrustTrend = "stable"
	TrendFalling TrustTrend = "falling"
)

// TrustRole distinguishes which side of the marketplace a score describes.
type TrustRole string

const (
	RoleBuyer  TrustRole = "buyer"
	RoleSeller TrustRole = "seller"
)

// TrustScore is the cached result of a full recomputation over a user's
// event log. It is derived state: the event log is the source of truth and
// the cache is overwritten wholesale on every recompute.
type TrustScore struct {
	bun.BaseModel `bun:"table:trust_scores,alias:ts"`

	UserID           string     `bun:"user_id,pk"`
	Role             TrustRole  `bun:"role,notnull"`
	Score            float64    `bun:"score,notnull"`
	Level            TrustLevel `bun:"level,notnull"`
	Trend            TrustTrend `bun:"trend,notnull"`
	Confidence       float64    `bun:"confidence,notnull"`
	EventCount       int        `bun:"event_count,notnull"`
	NegativeEvents90 int        `bun:"negative_events_90d,notnull"`
	LastUpdated      time.Time  `bun:"last_updated,notnull"`
}
