package models

import (
	"time"

	"github.com/uptrace/bun"
)

// UrgencyProfile captures how quickly a buyer expects sellers to respond.
type UrgencyProfile string

const (
	UrgencyPatient  UrgencyProfile = "patient"
	UrgencyStandard UrgencyProfile = "standard"
	UrgencyUrgent   UrgencyProfile = "urgent"
	UrgencyCritical UrgencyProfile = "critical"
)

// BuyerProfile holds the behavioral intelligence the matcher reads for one
// buyer. A missing row is never an error: DefaultBuyerProfile substitutes
// neutral values so matching degrades gracefully for new accounts.
type BuyerProfile struct {
	bun.BaseModel `bun:"table:buyer_profiles,alias:bp"`

	UserID           string             `bun:"user_id,pk"`
	Segment          string             `bun:"segment,notnull,default:'general'"`
	AvgOrderValue    float64            `bun:"avg_order_value,notnull,default:0"`
	OrderFrequency   float64            `bun:"order_frequency,notnull,default:0"` // orders per week
	PriceElasticity  float64            `bun:"price_elasticity,notnull,default:0.5"`
	QualityThreshold float64            `bun:"quality_threshold,notnull,default:0.8"`
	LoyaltyIndex     float64            `bun:"loyalty_index,notnull,default:0.5"`
	ExplorationRate  float64            `bun:"exploration_rate,notnull,default:0.3"`
	Urgency          UrgencyProfile     `bun:"urgency,notnull,default:'standard'"`
	CategoryAffinity map[string]float64 `bun:"category_affinity,type:jsonb"` // category -> weight 0-100
	CreatedAt        time.Time          `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt        time.Time          `bun:"updated_at,notnull"`
}

// DefaultBuyerProfile returns the neutral profile used when a buyer has no
// stored intelligence yet.
func DefaultBuyerProfile(userID string) *BuyerProfile {
	return &BuyerProfile{
		UserID:           userID,
		Segment:          "general",
		PriceElasticity:  0.5,
		QualityThreshold: 0.8,
		LoyaltyIndex:     0.5,
		ExplorationRate:  0.3,
		Urgency:          UrgencyStandard,
	}
}

// ResponseExpectation converts the urgency profile into the longest seller
// response time (in hours) the buyer tolerates without penalty.
func (bp *BuyerProfile) ResponseExpectation() float64 {
	switch bp.Urgency {
	case UrgencyPatient:
		return 72
	case UrgencyUrgent:
		return 8
	case UrgencyCritical:
		return 2
	default:
		return 24
	}
}
