// Package schedule drives the three periodic maintenance tasks: cache
// warming, cache sweeping, and metadata sweeping.
package schedule

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"pressfeed/internal/personalize"
	"pressfeed/internal/store"
	"pressfeed/pkg/press"
)

const (
	// DefaultWarmInterval is how often the cache-warm task runs.
	DefaultWarmInterval = 5 * time.Minute
	// DefaultCacheSweepInterval is how often expired cache entries are purged.
	DefaultCacheSweepInterval = 10 * time.Minute
	// DefaultMetadataSweepInterval is how often old article metadata is purged.
	DefaultMetadataSweepInterval = 60 * time.Minute
	// DefaultWarmUserLimit bounds how many users one warm cycle serves, which
	// bounds upstream call volume.
	DefaultWarmUserLimit = 10
)

// FeedWarmer pre-computes one user's personalized feed, populating the
// shared search cache as a side effect.
type FeedWarmer interface {
	Personalize(ctx context.Context, preferences []string) (personalize.Feed, error)
}

// CacheSweeper removes expired cache entries.
type CacheSweeper interface {
	Sweep() int
}

// MetadataSweeper removes stale article metadata.
type MetadataSweeper interface {
	SweepMetadata(maxAge time.Duration) int
}

// Option mutates scheduler configuration.
type Option func(*Scheduler)

// WithLogger injects a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(scheduler *Scheduler) {
		if logger != nil {
			scheduler.logger = logger
		}
	}
}

// WithWarmInterval overrides the cache-warm cadence.
func WithWarmInterval(interval time.Duration) Option {
	return func(scheduler *Scheduler) {
		if interval > 0 {
			scheduler.warmInterval = interval
		}
	}
}

// WithCacheSweepInterval overrides the cache-sweep cadence.
func WithCacheSweepInterval(interval time.Duration) Option {
	return func(scheduler *Scheduler) {
		if interval > 0 {
			scheduler.cacheSweepInterval = interval
		}
	}
}

// WithMetadataSweepInterval overrides the metadata-sweep cadence.
func WithMetadataSweepInterval(interval time.Duration) Option {
	return func(scheduler *Scheduler) {
		if interval > 0 {
			scheduler.metadataSweepInterval = interval
		}
	}
}

// WithMetadataMaxAge overrides the metadata age threshold passed to the sweep.
func WithMetadataMaxAge(maxAge time.Duration) Option {
	return func(scheduler *Scheduler) {
		if maxAge > 0 {
			scheduler.metadataMaxAge = maxAge
		}
	}
}

// WithWarmUserLimit overrides the per-cycle warm batch bound.
func WithWarmUserLimit(limit int) Option {
	return func(scheduler *Scheduler) {
		if limit > 0 {
			scheduler.warmUserLimit = limit
		}
	}
}

// Scheduler owns the three periodic tasks. It has exactly two states,
// stopped and running: Start launches all three tickers or none, Stop
// cancels all future firings. Neither interrupts an in-flight cycle.
type Scheduler struct {
	logger *slog.Logger

	warmer      FeedWarmer
	cacheSweep  CacheSweeper
	metaSweep   MetadataSweeper
	preferences press.PreferenceStore

	warmInterval          time.Duration
	cacheSweepInterval    time.Duration
	metadataSweepInterval time.Duration
	metadataMaxAge        time.Duration
	warmUserLimit         int

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    sync.WaitGroup
}

// New creates a stopped scheduler over the shared components.
func New(
	warmer FeedWarmer,
	cacheSweep CacheSweeper,
	metaSweep MetadataSweeper,
	preferences press.PreferenceStore,
	options ...Option,
) *Scheduler {
	scheduler := &Scheduler{
		logger:                slog.Default(),
		warmer:                warmer,
		cacheSweep:            cacheSweep,
		metaSweep:             metaSweep,
		preferences:           preferences,
		warmInterval:          DefaultWarmInterval,
		cacheSweepInterval:    DefaultCacheSweepInterval,
		metadataSweepInterval: DefaultMetadataSweepInterval,
		metadataMaxAge:        store.DefaultMetadataMaxAge,
		warmUserLimit:         DefaultWarmUserLimit,
	}
	for _, option := range options {
		option(scheduler)
	}

	return scheduler
}

// Start launches all three periodic tasks. It is a no-op when already running.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}

	taskCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.running = true

	s.launchLocked(taskCtx, "cache-warm", s.warmInterval, s.warmCycle)
	s.launchLocked(taskCtx, "cache-sweep", s.cacheSweepInterval, s.cacheSweepCycle)
	s.launchLocked(taskCtx, "metadata-sweep", s.metadataSweepInterval, s.metadataSweepCycle)

	s.logger.InfoContext(ctx,
		"scheduler started",
		"warm_interval", s.warmInterval,
		"cache_sweep_interval", s.cacheSweepInterval,
		"metadata_sweep_interval", s.metadataSweepInterval,
	)
}

// Stop cancels all future task firings and waits for in-flight cycles to
// finish. It is a no-op when already stopped.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	s.running = false
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	s.done.Wait()

	s.logger.Info("scheduler stopped")
}

// Running reports the current lifecycle state.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

func (s *Scheduler) launchLocked(ctx context.Context, name string, interval time.Duration, cycle func(context.Context) error) {
	s.done.Add(1)
	go func() {
		defer s.done.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := runSafely(name+" cycle", func() error {
					return cycle(ctx)
				}); err != nil {
					// Errors never stop the scheduler; the next cycle
					// proceeds on schedule.
					s.logger.WarnContext(ctx, "scheduled task cycle failed", "task", name, "error", err)
				}
			}
		}
	}()
}

// warmCycle re-runs personalization for a bounded prefix of known users so
// their next request hits a warm cache. Per-user failures are logged and the
// batch continues.
func (s *Scheduler) warmCycle(ctx context.Context) error {
	users, err := s.preferences.KnownUsers(ctx)
	if err != nil {
		return err
	}
	if len(users) > s.warmUserLimit {
		users = users[:s.warmUserLimit]
	}

	warmed := 0
	for _, userID := range users {
		preferences, err := s.preferences.Preferences(ctx, userID)
		if err != nil {
			s.logger.WarnContext(ctx, "warm task skipped user", "user", userID, "error", err)
			continue
		}
		if len(preferences) == 0 {
			continue
		}
		if _, err := s.warmer.Personalize(ctx, preferences); err != nil {
			s.logger.WarnContext(ctx, "warm task skipped user", "user", userID, "error", err)
			continue
		}
		warmed++
	}

	s.logger.DebugContext(ctx, "cache warm cycle finished", "users", len(users), "warmed", warmed)

	return nil
}

func (s *Scheduler) cacheSweepCycle(ctx context.Context) error {
	removed := s.cacheSweep.Sweep()
	s.logger.DebugContext(ctx, "cache sweep cycle finished", "removed", removed)

	return nil
}

func (s *Scheduler) metadataSweepCycle(ctx context.Context) error {
	removed := s.metaSweep.SweepMetadata(s.metadataMaxAge)
	s.logger.DebugContext(ctx, "metadata sweep cycle finished", "removed", removed)

	return nil
}
