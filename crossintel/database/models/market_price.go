package models

// PercentileBands marks the p10/p25/p75/p90 points of a market price
// distribution.
type PercentileBands struct {
	P10 float64
	P25 float64
	P75 float64
	P90 float64
}

// MarketPriceData is the derived price distribution for items sharing a
// category+subcategory. It is computed per request from peer listings and
// never persisted.
type MarketPriceData struct {
	ItemID      string
	Category    string
	Subcategory string
	Median      float64
	Prices      []float64
	Percentiles PercentileBands
	SampleSize  int
}
