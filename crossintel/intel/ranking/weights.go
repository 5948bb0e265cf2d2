package ranking

// Weights is the immutable factor weight table for the ranking composite.
// The weights sum to 1.0.
type Weights struct {
	TextRelevance       float64
	FilterMatch         float64
	AffinityScore       float64
	TrustBoost          float64
	FairnessBoost       float64
	ConversionPotential float64
	MarginPotential     float64
	RetentionImpact     float64
	ListingFreshness    float64
	SellerActivityScore float64
}

// DefaultWeights returns the production ranking weight table.
func DefaultWeights() Weights {
	return Weights{
		TextRelevance:       0.25,
		FilterMatch:         0.15,
		AffinityScore:       0.15,
		TrustBoost:          0.10,
		FairnessBoost:       0.10,
		ConversionPotential: 0.08,
		MarginPotential:     0.05,
		RetentionImpact:     0.07,
		ListingFreshness:    0.03,
		SellerActivityScore: 0.02,
	}
}

// Sum returns the total of all weights. A valid table sums to 1.0.
func (w Weights) Sum() float64 {
	return w.TextRelevance + w.FilterMatch + w.AffinityScore + w.TrustBoost +
		w.FairnessBoost + w.ConversionPotential + w.MarginPotential +
		w.RetentionImpact + w.ListingFreshness + w.SellerActivityScore
}

// Factors holds the ten named ranking components, each in [0,100].
type Factors struct {
	TextRelevance       float64
	FilterMatch         float64
	AffinityScore       float64
	TrustBoost          float64
	FairnessBoost       float64
	ConversionPotential float64
	MarginPotential     float64
	RetentionImpact     float64
	ListingFreshness    float64
	SellerActivityScore float64
}

// Composite reduces the factors to one score using the weight table.
func (f Factors) Composite(w Weights) float64 {
	return f.TextRelevance*w.TextRelevance +
		f.FilterMatch*w.FilterMatch +
		f.AffinityScore*w.AffinityScore +
		f.TrustBoost*w.TrustBoost +
		f.FairnessBoost*w.FairnessBoost +
		f.ConversionPotential*w.ConversionPotential +
		f.MarginPotential*w.MarginPotential +
		f.RetentionImpact*w.RetentionImpact +
		f.ListingFreshness*w.ListingFreshness +
		f.SellerActivityScore*w.SellerActivityScore
}
