package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"github.com/tradewind/crossintel/crossintel/database/models"
)

const (
	DefaultTransactionLimit = 50
	DefaultTrustEventLimit  = 500
)

// ProfileRepository is the data-access contract the scoring engines consume.
// It performs no computation beyond deriving the market price distribution;
// every engine pulls what it needs through this interface per call.
type ProfileRepository interface {
	GetBuyerProfile(ctx context.Context, buyerID string) (*models.BuyerProfile, error)
	GetSellerProfile(ctx context.Context, sellerID string) (*models.SellerProfile, error)
	GetTransactionHistory(ctx context.Context, buyerID, sellerID string, limit int) ([]*models.Transaction, error)
	GetMarketPriceData(ctx context.Context, itemID string) (*models.MarketPriceData, error)
	GetTrustEvents(ctx context.Context, userID string, limit int) ([]*models.TrustEvent, error)
	GetAccountCreatedAt(ctx context.Context, userID string) (time.Time, error)
	AppendTrustEvent(ctx context.Context, event *models.TrustEvent) error
	UpsertTrustScoreCache(ctx context.Context, score *models.TrustScore) error
	FindActiveSellers(ctx context.Context, category string) ([]string, error)
	GetRFQ(ctx context.Context, rfqID string) (*models.RFQ, error)
	GetListing(ctx context.Context, listingID string) (*models.Listing, error)
}

type profileRepository struct {
	*BaseRepository
}

func NewProfileRepository(db *bun.DB) ProfileRepository {
	return &profileRepository{BaseRepository: NewBaseRepository(db)}
}

// GetBuyerProfile never fails on a missing row: new buyers get the neutral
// default profile so matching degrades gracefully.
func (r *profileRepository) GetBuyerProfile(ctx context.Context, buyerID string) (*models.BuyerProfile, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	profile := new(models.BuyerProfile)
	err := r.DB().NewSelect().
		Model(profile).
		Where("user_id = ?", buyerID).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DefaultBuyerProfile(buyerID), nil
		}
		return nil, r.HandleErrorWithID("select", "buyer_profile", buyerID, err)
	}
	return profile, nil
}

// GetSellerProfile mirrors GetBuyerProfile: missing rows substitute defaults.
func (r *profileRepository) GetSellerProfile(ctx context.Context, sellerID string) (*models.SellerProfile, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	profile := new(models.SellerProfile)
	err := r.DB().NewSelect().
		Model(profile).
		Where("user_id = ?", sellerID).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DefaultSellerProfile(sellerID), nil
		}
		return nil, r.HandleErrorWithID("select", "seller_profile", sellerID, err)
	}
	return profile, nil
}

// GetTransactionHistory returns the pair's shared history, newest first.
func (r *profileRepository) GetTransactionHistory(ctx context.Context, buyerID, sellerID string, limit int) ([]*models.Transaction, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	if limit <= 0 {
		limit = DefaultTransactionLimit
	}

	var txs []*models.Transaction
	err := r.DB().NewSelect().
		Model(&txs).
		Where("buyer_id = ? AND seller_id = ?", buyerID, sellerID).
		Order("completed_at DESC").
		Limit(limit).
		Scan(ctx)

	if err != nil {
		return nil, r.HandleError("select", "transactions", err)
	}
	return txs, nil
}

// GetMarketPriceData derives the price distribution from active peer
// listings sharing the item's category+subcategory. The item's own price is
// part of the sample. Callers handle the no-peer fallback.
func (r *profileRepository) GetMarketPriceData(ctx context.Context, itemID string) (*models.MarketPriceData, error) {
	listing, err := r.GetListing(ctx, itemID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var prices []float64
	err = r.DB().NewSelect().
		Model((*models.Listing)(nil)).
		Column("price").
		Where("category = ?", listing.Category).
		Where("subcategory = ?", listing.Subcategory).
		Where("active = true").
		Order("price ASC").
		Scan(ctx, &prices)

	if err != nil {
		return nil, r.HandleError("select", "market_prices", err)
	}

	data := &models.MarketPriceData{
		ItemID:      itemID,
		Category:    listing.Category,
		Subcategory: listing.Subcategory,
		Prices:      prices,
		SampleSize:  len(prices),
	}
	if len(prices) > 0 {
		data.Median = percentileOf(prices, 50)
		data.Percentiles = models.PercentileBands{
			P10: percentileOf(prices, 10),
			P25: percentileOf(prices, 25),
			P75: percentileOf(prices, 75),
			P90: percentileOf(prices, 90),
		}
	}
	return data, nil
}

// percentileOf returns the pth percentile of an ascending-sorted sample
// using nearest-rank interpolation.
func percentileOf(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(rank)
	hi := lo + 1
	if hi >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// GetTrustEvents returns a user's event history, newest first.
func (r *profileRepository) GetTrustEvents(ctx context.Context, userID string, limit int) ([]*models.TrustEvent, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	if limit <= 0 {
		limit = DefaultTrustEventLimit
	}

	var events []*models.TrustEvent
	err := r.DB().NewSelect().
		Model(&events).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)

	if err != nil {
		return nil, r.HandleError("select", "trust_events", err)
	}
	return events, nil
}

// GetAccountCreatedAt reads the earliest known timestamp for a user across
// the profile tables. Users with no profile row are treated as brand new.
func (r *profileRepository) GetAccountCreatedAt(ctx context.Context, userID string) (time.Time, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var createdAt time.Time
	err := r.DB().NewSelect().
		ColumnExpr("MIN(created_at)").
		TableExpr(`(
			SELECT created_at FROM buyer_profiles WHERE user_id = ?
			UNION ALL
			SELECT created_at FROM seller_profiles WHERE user_id = ?
		) accounts`, userID, userID).
		Scan(ctx, &createdAt)

	if err != nil || createdAt.IsZero() {
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, r.HandleErrorWithID("select", "account", userID, err)
		}
		return time.Now(), nil
	}
	return createdAt, nil
}

func (r *profileRepository) AppendTrustEvent(ctx context.Context, event *models.TrustEvent) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	_, err := r.DB().NewInsert().Model(event).Exec(ctx)
	return r.HandleError("insert", "trust_event", err)
}

// UpsertTrustScoreCache overwrites the cached score wholesale. Recomputation
// is idempotent, so last-writer-wins is acceptable here (see the engine's
// per-user serialization).
func (r *profileRepository) UpsertTrustScoreCache(ctx context.Context, score *models.TrustScore) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	_, err := r.DB().NewInsert().
		Model(score).
		On("CONFLICT (user_id) DO UPDATE").
		Set("role = EXCLUDED.role").
		Set("score = EXCLUDED.score").
		Set("level = EXCLUDED.level").
		Set("trend = EXCLUDED.trend").
		Set("confidence = EXCLUDED.confidence").
		Set("event_count = EXCLUDED.event_count").
		Set("negative_events_90d = EXCLUDED.negative_events_90d").
		Set("last_updated = EXCLUDED.last_updated").
		Exec(ctx)

	return r.HandleErrorWithID("upsert", "trust_score", score.UserID, err)
}

// FindActiveSellers returns distinct active seller IDs, optionally filtered
// to those with listings in the given category.
func (r *profileRepository) FindActiveSellers(ctx context.Context, category string) ([]string, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	q := r.DB().NewSelect().
		Model((*models.SellerProfile)(nil)).
		ColumnExpr("DISTINCT sp.user_id").
		Where("sp.active = true")

	if category != "" {
		q = q.Join("JOIN listings l ON l.seller_id = sp.user_id").
			Where("l.category = ?", category).
			Where("l.active = true")
	}

	var sellerIDs []string
	if err := q.Scan(ctx, &sellerIDs); err != nil {
		return nil, r.HandleError("select", "active_sellers", err)
	}
	return sellerIDs, nil
}

func (r *profileRepository) GetRFQ(ctx context.Context, rfqID string) (*models.RFQ, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	rfq := new(models.RFQ)
	err := r.DB().NewSelect().
		Model(rfq).
		Where("id = ?", rfqID).
		Scan(ctx)

	if err != nil {
		return nil, r.HandleErrorWithID("select", "rfq", rfqID, err)
	}
	return rfq, nil
}

func (r *profileRepository) GetListing(ctx context.Context, listingID string) (*models.Listing, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	listing := new(models.Listing)
	err := r.DB().NewSelect().
		Model(listing).
		Where("id = ?", listingID).
		Scan(ctx)

	if err != nil {
		return nil, r.HandleErrorWithID("select", "listing", listingID, err)
	}
	return listing, nil
}
