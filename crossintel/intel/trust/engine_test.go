package trust

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tradewind/crossintel/crossintel/database/models"
)

// fakeRepo is an in-memory ProfileRepository covering what the trust engine
// touches. Unused reads return zero values.
type fakeRepo struct {
	events    map[string][]*models.TrustEvent
	createdAt map[string]time.Time
	txs       []*models.Transaction
	upserted  []*models.TrustScore
	sellers   []string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		events:    make(map[string][]*models.TrustEvent),
		createdAt: make(map[string]time.Time),
	}
}

func (f *fakeRepo) GetBuyerProfile(ctx context.Context, buyerID string) (*models.BuyerProfile, error) {
	return models.DefaultBuyerProfile(buyerID), nil
}

func (f *fakeRepo) GetSellerProfile(ctx context.Context, sellerID string) (*models.SellerProfile, error) {
	return models.DefaultSellerProfile(sellerID), nil
}

func (f *fakeRepo) GetTransactionHistory(ctx context.Context, buyerID, sellerID string, limit int) ([]*models.Transaction, error) {
	return f.txs, nil
}

func (f *fakeRepo) GetMarketPriceData(ctx context.Context, itemID string) (*models.MarketPriceData, error) {
	return &models.MarketPriceData{ItemID: itemID}, nil
}

func (f *fakeRepo) GetTrustEvents(ctx context.Context, userID string, limit int) ([]*models.TrustEvent, error) {
	events := f.events[userID]
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

func (f *fakeRepo) GetAccountCreatedAt(ctx context.Context, userID string) (time.Time, error) {
	if t, ok := f.createdAt[userID]; ok {
		return t, nil
	}
	return time.Now(), nil
}

func (f *fakeRepo) AppendTrustEvent(ctx context.Context, event *models.TrustEvent) error {
	f.events[event.UserID] = append([]*models.TrustEvent{event}, f.events[event.UserID]...)
	return nil
}

func (f *fakeRepo) UpsertTrustScoreCache(ctx context.Context, score *models.TrustScore) error {
	f.upserted = append(f.upserted, score)
	return nil
}

func (f *fakeRepo) FindActiveSellers(ctx context.Context, category string) ([]string, error) {
	return f.sellers, nil
}

func (f *fakeRepo) GetRFQ(ctx context.Context, rfqID string) (*models.RFQ, error) {
	return nil, nil
}

func (f *fakeRepo) GetListing(ctx context.Context, listingID string) (*models.Listing, error) {
	return nil, nil
}

func newTestEngine(repo *fakeRepo, now time.Time) *Engine {
	e := NewEngine(repo, nil, DefaultConfig())
	e.now = func() time.Time { return now }
	return e
}

func TestNewAccountWithNoEvents(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	repo.createdAt["buyer-1"] = now

	engine := newTestEngine(repo, now)
	score, err := engine.RecomputeScore(context.Background(), "buyer-1", models.RoleBuyer)
	require.NoError(t, err)

	require.Equal(t, float64(30), score.Score)
	require.Equal(t, models.LevelUnverified, score.Level)
	require.Equal(t, models.TrendStable, score.Trend)
	require.Zero(t, score.EventCount)
}

func TestScoreAlwaysWithinBounds(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		eventType models.TrustEventType
		count     int
	}{
		{"many positives", models.EventVerifiedProfile, 40},
		{"many negatives", models.EventPolicyViolation, 40},
		{"no events", models.EventOrderCompleted, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo()
			repo.createdAt["u"] = now.AddDate(-2, 0, 0)
			engine := newTestEngine(repo, now)

			for i := 0; i < tt.count; i++ {
				_, err := engine.RecordEvent(context.Background(), "u", models.RoleSeller, tt.eventType, nil)
				require.NoError(t, err)
			}

			score, err := engine.CalculateScore(context.Background(), "u", models.RoleSeller)
			require.NoError(t, err)
			require.GreaterOrEqual(t, score.Score, float64(0))
			require.LessOrEqual(t, score.Score, float64(100))
		})
	}
}

func TestPolicyViolationLowersScore(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	repo.createdAt["seller-1"] = now.AddDate(0, -6, 0)

	engine := newTestEngine(repo, now)
	ctx := context.Background()

	before, err := engine.RecordEvent(ctx, "seller-1", models.RoleSeller, models.EventOrderCompleted, nil)
	require.NoError(t, err)

	after, err := engine.RecordEvent(ctx, "seller-1", models.RoleSeller, models.EventPolicyViolation, nil)
	require.NoError(t, err)

	require.Less(t, after.Score, before.Score)
}

func TestRecordEventUnknownTypeFails(t *testing.T) {
	engine := newTestEngine(newFakeRepo(), time.Now())
	_, err := engine.RecordEvent(context.Background(), "u", models.RoleBuyer, models.TrustEventType("bogus"), nil)
	require.Error(t, err)
}

func TestRecordThenReadReflectsNewEvent(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	repo.createdAt["seller-2"] = now.AddDate(0, -3, 0)

	engine := newTestEngine(repo, now)
	ctx := context.Background()

	baseline, err := engine.CalculateScore(ctx, "seller-2", models.RoleSeller)
	require.NoError(t, err)

	recorded, err := engine.RecordEvent(ctx, "seller-2", models.RoleSeller, models.EventPositiveReview, map[string]string{"order": "o-1"})
	require.NoError(t, err)
	require.Greater(t, recorded.Score, baseline.Score)

	read, err := engine.CalculateScore(ctx, "seller-2", models.RoleSeller)
	require.NoError(t, err)
	require.Equal(t, recorded.Score, read.Score)
	require.Equal(t, recorded.EventCount, read.EventCount)
}

func TestDecayedImpactMonotonic(t *testing.T) {
	prev := decayedImpact(10, 1.0, 0)
	require.Equal(t, float64(10), prev)

	for age := 30.0; age <= 720; age += 30 {
		cur := decayedImpact(10, 1.0, age)
		require.Less(t, cur, prev)
		require.Greater(t, cur, float64(0))
		prev = cur
	}

	// Negative impacts shrink toward zero without flipping sign.
	require.Greater(t, decayedImpact(-10, 1.0, 300), decayedImpact(-10, 1.0, 30))
	require.Less(t, decayedImpact(-10, 1.0, 300), float64(0))
}

func TestLevelClassification(t *testing.T) {
	engine := newTestEngine(newFakeRepo(), time.Now())

	tests := []struct {
		name        string
		score       float64
		negatives90 int
		want        models.TrustLevel
	}{
		{"premium", 95, 0, models.LevelPremium},
		{"trusted", 80, 0, models.LevelTrusted},
		{"established", 65, 0, models.LevelEstablished},
		{"emerging", 45, 0, models.LevelEmerging},
		{"unverified", 20, 0, models.LevelUnverified},
		{"boundary premium", 90, 0, models.LevelPremium},
		{"at risk overrides score", 95, 4, models.LevelAtRisk},
		{"at risk boundary not crossed", 95, 3, models.LevelPremium},
		{"suspended overrides at risk", 95, 7, models.LevelSuspended},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, engine.classifyLevel(tt.score, tt.negatives90))
		})
	}
}

func TestTrendFollowsRecentImpacts(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	repo.createdAt["u"] = now.AddDate(-1, 0, 0)
	engine := newTestEngine(repo, now)
	ctx := context.Background()

	score, err := engine.RecordEvent(ctx, "u", models.RoleSeller, models.EventOrderCompleted, nil)
	require.NoError(t, err)
	require.Equal(t, models.TrendRising, score.Trend)

	score, err = engine.RecordEvent(ctx, "u", models.RoleSeller, models.EventDisputeFiled, nil)
	require.NoError(t, err)
	score, err = engine.RecordEvent(ctx, "u", models.RoleSeller, models.EventDisputeFiled, nil)
	require.NoError(t, err)
	require.Equal(t, models.TrendFalling, score.Trend)
}

func TestRelationshipTrustNoHistory(t *testing.T) {
	engine := newTestEngine(newFakeRepo(), time.Now())

	rel, err := engine.RelationshipTrust(context.Background(), "b", "s")
	require.NoError(t, err)
	require.Equal(t, float64(50), rel.TrustScore)
	require.Zero(t, rel.TransactionCount)
	require.Zero(t, rel.SuccessRate)
}

func TestRelationshipTrustWithHistory(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	repo.txs = []*models.Transaction{
		{BuyerID: "b", SellerID: "s", TotalPrice: 100, CompletedAt: now.AddDate(0, 0, -5)},
		{BuyerID: "b", SellerID: "s", TotalPrice: 200, CompletedAt: now.AddDate(0, 0, -40)},
		{BuyerID: "b", SellerID: "s", TotalPrice: 150, CompletedAt: now.AddDate(0, 0, -60), Disputed: true},
	}

	engine := newTestEngine(repo, now)
	rel, err := engine.RelationshipTrust(context.Background(), "b", "s")
	require.NoError(t, err)

	require.Equal(t, 3, rel.TransactionCount)
	require.InDelta(t, 2.0/3.0, rel.SuccessRate, 1e-9)
	require.InDelta(t, 5, rel.DaysSinceLast, 1e-9)

	// 50 + successRate*30 + min(3,10)*2 + (20-5)
	want := 50 + (2.0/3.0)*30 + 6 + 15
	require.InDelta(t, want, rel.TrustScore, 1e-9)
}

func TestRelationshipTrustCapped(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	for i := 0; i < 20; i++ {
		repo.txs = append(repo.txs, &models.Transaction{
			BuyerID: "b", SellerID: "s", CompletedAt: now.AddDate(0, 0, -1),
		})
	}

	engine := newTestEngine(repo, now)
	rel, err := engine.RelationshipTrust(context.Background(), "b", "s")
	require.NoError(t, err)
	require.Equal(t, float64(100), rel.TrustScore)
}

func TestSchedulerRecomputeAll(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	repo.sellers = []string{"s1", "s2", "s3"}
	for _, id := range repo.sellers {
		repo.createdAt[id] = now.AddDate(-1, 0, 0)
	}

	engine := newTestEngine(repo, now)
	sched := NewScheduler(engine, repo, 0)

	require.NoError(t, sched.RecomputeAll(context.Background()))
	require.Len(t, repo.upserted, 3)
}
