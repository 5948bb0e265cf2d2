package models

import (
	"time"

	"github.com/uptrace/bun"
)

// SellerProfile holds the performance intelligence the engines read for one
// seller. As with buyers, missing rows fall back to DefaultSellerProfile.
type SellerProfile struct {
	bun.BaseModel `bun:"table:seller_profiles,alias:sp"`

	UserID               string             `bun:"user_id,pk"`
	Tier                 string             `bun:"tier,notnull,default:'standard'"`
	OnTimeRate           float64            `bun:"on_time_rate,notnull,default:0.85"`
	QualityScore         float64            `bun:"quality_score,notnull,default:70"`
	AvgResponseHours     float64            `bun:"avg_response_hours,notnull,default:24"`
	QuoteAcceptRate      float64            `bun:"quote_accept_rate,notnull,default:0.5"`
	CapacityUtilization  float64            `bun:"capacity_utilization,notnull,default:0.5"`
	MaxWeeklyOrders      int                `bun:"max_weekly_orders,notnull,default:20"`
	CategoryStrength     map[string]float64 `bun:"category_strength,type:jsonb"`      // category -> strength 0-100
	PriceCompetitiveness map[string]float64 `bun:"price_competitiveness,type:jsonb"`  // category -> score 0-100
	Active               bool               `bun:"active,notnull,default:true"`
	CreatedAt            time.Time          `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt            time.Time          `bun:"updated_at,notnull"`
}

// DefaultSellerProfile returns the neutral profile used when a seller has no
// stored intelligence yet.
func DefaultSellerProfile(userID string) *SellerProfile {
	return &SellerProfile{
		UserID:              userID,
		Tier:                "standard",
		OnTimeRate:          0.85,
		QualityScore:        70,
		AvgResponseHours:    24,
		QuoteAcceptRate:     0.5,
		CapacityUtilization: 0.5,
		MaxWeeklyOrders:     20,
		Active:              true,
	}
}

// AvgCompetitiveness averages the per-category price competitiveness map,
// optionally restricted to a single category. Sellers with no recorded data
// score a neutral 50.
func (sp *SellerProfile) AvgCompetitiveness(category string) float64 {
	if len(sp.PriceCompetitiveness) == 0 {
		return 50
	}
	if category != "" {
		if v, ok := sp.PriceCompetitiveness[category]; ok {
			return v
		}
	}
	var sum float64
	for _, v := range sp.PriceCompetitiveness {
		sum += v
	}
	return sum / float64(len(sp.PriceCompetitiveness))
}

// SpareWeeklyCapacity estimates how many additional orders per week the
// seller can absorb at current utilization.
func (sp *SellerProfile) SpareWeeklyCapacity() float64 {
	spare := float64(sp.MaxWeeklyOrders) * (1 - sp.CapacityUtilization)
	if spare < 0 {
		return 0
	}
	return spare
}
