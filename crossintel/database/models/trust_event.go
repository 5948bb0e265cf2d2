package models

import (
	"time"

	"github.com/uptrace/bun"
)

// TrustEventType identifies one of the catalogued reputation events.
type TrustEventType string

const (
	EventOrderCompleted   TrustEventType = "order_completed"
	EventOnTimeDelivery   TrustEventType = "on_time_delivery"
	EventPositiveReview   TrustEventType = "positive_review"
	EventVerifiedProfile  TrustEventType = "verified_profile"
	EventDisputeResolved  TrustEventType = "dispute_resolved"
	EventRepeatPurchase   TrustEventType = "repeat_purchase"
	EventLateDelivery     TrustEventType = "late_delivery"
	EventOrderCancelled   TrustEventType = "order_cancelled"
	EventQualityComplaint TrustEventType = "quality_complaint"
	EventPaymentDelay     TrustEventType = "payment_delay"
	EventDisputeFiled     TrustEventType = "dispute_filed"
	EventPolicyViolation  TrustEventType = "policy_violation"
	EventNegativeReview   TrustEventType = "negative_review"
)

// TrustEvent is a single append-only entry in a user's reputation history.
// Events are immutable once written; the score engine only ever reads them.
type TrustEvent struct {
	bun.BaseModel `bun:"table:trust_events,alias:te"`

	ID        int64             `bun:"id,pk,autoincrement"`
	EventID   string            `bun:"event_id,notnull,unique"`
	UserID    string            `bun:"user_id,notnull"`
	EventType TrustEventType    `bun:"event_type,notnull"`
	Impact    float64           `bun:"impact,notnull"`
	DecayRate float64           `bun:"decay_rate,notnull"`
	Context   map[string]string `bun:"context,type:jsonb"`
	CreatedAt time.Time         `bun:"created_at,notnull"`
}
