package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"microsubd/internal/domain/entity"
	"microsubd/internal/usecase/feed"
)

// DefaultBatchConcurrency is spec.md §5's BATCH_CONCURRENCY: the default
// number of concurrent Processor invocations fanned out per tick.
const DefaultBatchConcurrency = 5

// tickSchedule runs the ticker once a minute; interval(tier) is always a
// whole number of minutes, so a per-minute tick is the finest granularity
// that ever matters.
const tickSchedule = "@every 1m"

// feedsPerTick caps how many due feeds one tick drains, keeping a single
// slow tick from growing unboundedly as subscriptions accumulate.
const feedsPerTick = 200

// FeedProcessor runs the C7 Processor pipeline for one feed. Implemented by
// internal/usecase/process.Service; kept as an interface here so the
// scheduler never imports the processor package directly.
type FeedProcessor interface {
	ProcessFeed(ctx context.Context, feedID int64) error
}

// LeaseRenewer re-subscribes WebSub leases nearing expiry. Implemented by
// internal/usecase/websub.Service; piggy-backed on the same tick that
// drains due feeds (spec.md §4.7, §9) rather than run on its own timer.
type LeaseRenewer interface {
	RenewExpiringLeases(ctx context.Context) error
}

// Scheduler is the C6 Tier Scheduler: a single logical ticker that fans out
// up to BatchConcurrency concurrent Processor invocations per tick.
type Scheduler struct {
	Feeds     *feed.Service
	Processor FeedProcessor
	Logger    *slog.Logger

	// Leases, when set, is renewed once per tick alongside the due-feed
	// drain. Nil disables renewal (e.g. in tests that don't care about it).
	Leases LeaseRenewer

	// BatchConcurrency overrides DefaultBatchConcurrency when positive,
	// threaded from worker.SchedulerConfig.FetchConcurrency.
	BatchConcurrency int

	ticking atomic.Bool
	locksMu sync.Mutex
	locks   map[int64]*sync.Mutex
}

// New builds a Scheduler ready to Start.
func New(feeds *feed.Service, processor FeedProcessor, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		Feeds:     feeds,
		Processor: processor,
		Logger:    logger,
		locks:     make(map[int64]*sync.Mutex),
	}
}

// Start registers the tick job on a cron.Cron in loc and starts it,
// grounded on cmd/worker/main.go's cron.New(cron.WithLocation(loc)) +
// AddFunc wiring, generalized from a once-daily schedule to @every 1m.
// schedule overrides the default tickSchedule; pass "" to keep the default.
func (s *Scheduler) Start(ctx context.Context, loc *time.Location, schedule string) (*cron.Cron, error) {
	if loc == nil {
		loc = time.UTC
	}
	if schedule == "" {
		schedule = tickSchedule
	}
	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(schedule, func() { s.Tick(ctx) }); err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}

// feedLock returns the striped mutex guarding feedID, so that a slow
// Processor run for one feed can never overlap with another tick's attempt
// to process the same feed (spec.md §9).
func (s *Scheduler) feedLock(feedID int64) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[feedID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[feedID] = l
	}
	return l
}

// Tick drains due feeds and processes up to BatchConcurrency of them
// concurrently. Non-reentrant: a tick that is still running when the next
// one fires is skipped rather than overlapped (spec.md §9's scheduler
// fairness invariant).
func (s *Scheduler) Tick(ctx context.Context) {
	if !s.ticking.CompareAndSwap(false, true) {
		s.Logger.Warn("scheduler tick skipped: previous tick still running")
		return
	}
	defer s.ticking.Store(false)

	if s.Leases != nil {
		if err := s.Leases.RenewExpiringLeases(ctx); err != nil {
			s.Logger.Warn("scheduler: renew expiring websub leases", slog.Any("error", err))
		}
	}

	feeds, err := s.Feeds.GetFeedsToFetch(ctx, time.Now(), feedsPerTick)
	if err != nil {
		s.Logger.Error("scheduler: list feeds to fetch", slog.Any("error", err))
		return
	}
	if len(feeds) == 0 {
		return
	}

	s.dispatch(ctx, feeds)
}

func (s *Scheduler) dispatch(ctx context.Context, feeds []*entity.Feed) {
	concurrency := s.BatchConcurrency
	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}
	sem := make(chan struct{}, concurrency)
	eg, egCtx := errgroup.WithContext(ctx)

	for _, f := range feeds {
		f := f
		eg.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			lock := s.feedLock(f.ID)
			lock.Lock()
			defer lock.Unlock()

			if err := s.Processor.ProcessFeed(egCtx, f.ID); err != nil {
				s.Logger.Warn("scheduler: process feed failed",
					slog.Int64("feed_id", f.ID), slog.String("url", f.URL), slog.Any("error", err))
			}
			return nil
		})
	}

	_ = eg.Wait()
}
