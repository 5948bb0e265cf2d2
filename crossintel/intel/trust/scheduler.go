package trust

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/tradewind/crossintel/crossintel/database/models"
	"github.com/tradewind/crossintel/crossintel/database/repositories"
)

const (
	defaultRecomputeInterval = 6 * time.Hour
	maxConcurrentRecomputes  = 4
	recomputeTimeout         = 30 * time.Minute
)

// Scheduler periodically recomputes trust scores for every active seller so
// cached scores keep decaying even for accounts with no fresh events.
type Scheduler struct {
	engine   *Engine
	repo     repositories.ProfileRepository
	interval time.Duration
}

func NewScheduler(engine *Engine, repo repositories.ProfileRepository, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = defaultRecomputeInterval
	}
	return &Scheduler{
		engine:   engine,
		repo:     repo,
		interval: interval,
	}
}

// Start launches the recompute loop. It returns immediately; the loop stops
// when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runCtx, cancel := context.WithTimeout(context.Background(), recomputeTimeout)
				if err := s.RecomputeAll(runCtx); err != nil {
					slog.Error("Scheduled trust recompute failed",
						slog.String("type", "score"),
						slog.Any("error", err))
				}
				cancel()
			}
		}
	}()
}

// RecomputeAll refreshes every active seller's trust score, bounded by a
// worker semaphore. Individual failures are counted and logged; one bad
// account does not abort the sweep.
func (s *Scheduler) RecomputeAll(ctx context.Context) error {
	start := time.Now()

	sellerIDs, err := s.repo.FindActiveSellers(ctx, "")
	if err != nil {
		return err
	}

	var failures int32
	g, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(maxConcurrentRecomputes)

	for _, sellerID := range sellerIDs {
		sellerID := sellerID
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			if _, err := s.engine.RecomputeScore(gctx, sellerID, models.RoleSeller); err != nil {
				atomic.AddInt32(&failures, 1)
				slog.Warn("Trust recompute failed for seller",
					slog.String("type", "score"),
					slog.String("seller_id", sellerID),
					slog.Any("error", err))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("Trust recompute sweep completed",
		slog.String("type", "score"),
		slog.Int("sellers", len(sellerIDs)),
		slog.Int("failures", int(atomic.LoadInt32(&failures))),
		slog.Duration("took", time.Since(start)))
	return nil
}
