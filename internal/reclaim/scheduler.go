// Package reclaim runs the recurring sweep that returns stale claims to
// the word pool.
package reclaim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/wordclaim/internal/platform/logger"
	"github.com/phrazzld/wordclaim/internal/store"
)

// ErrLeaseUnavailable is returned by RunOnce when the sweep lease could not
// be checked. The tick is skipped.
var ErrLeaseUnavailable = errors.New("reclaim lease unavailable")

// Config holds configuration for the Scheduler.
type Config struct {
	// Interval is how often the sweep runs. Defaults to one minute.
	Interval time.Duration

	// Timeout is how long a claim may stay assigned before it is reclaimed.
	// It must match the timeout used by the claim path. Defaults to two minutes.
	Timeout time.Duration

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// DefaultConfig returns a Config with the reference interval and timeout.
func DefaultConfig() Config {
	return Config{
		Interval: time.Minute,
		Timeout:  2 * time.Minute,
		Now:      time.Now,
	}
}

// Lease decides which of several replicas sweeps on a given tick.
type Lease interface {
	// Acquire reports whether this process holds the lease for ttl.
	Acquire(ctx context.Context, ttl time.Duration) (bool, error)
}

// Metrics receives sweep results. Implementations must be safe for
// concurrent use.
type Metrics interface {
	ObserveSweep(reclaimed int64, err error)
}

// Scheduler periodically reclaims stale assignments on its own goroutine.
// It shares no state with request handlers; all coordination happens
// through the word store.
type Scheduler struct {
	words   store.WordStore
	config  Config
	lease   Lease
	metrics Metrics
	logger  *slog.Logger

	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	startOnce  sync.Once
	stopOnce   sync.Once
}

// NewScheduler creates a new Scheduler. Call Start to begin sweeping.
func NewScheduler(words store.WordStore, config Config, logger *slog.Logger) *Scheduler {
	if words == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("words cannot be nil")
	}

	defaults := DefaultConfig()
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.Now == nil {
		config.Now = defaults.Now
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		words:      words,
		config:     config,
		logger:     logger.With(slog.String("component", "reclaim_scheduler")),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// SetLease makes the scheduler sweep only on ticks where it holds lease.
// It must be called before Start.
func (s *Scheduler) SetLease(lease Lease) {
	s.lease = lease
}

// SetMetrics installs a sweep metrics sink. It must be called before Start.
func (s *Scheduler) SetMetrics(metrics Metrics) {
	s.metrics = metrics
}

// Start launches the sweep goroutine. Subsequent calls do nothing.
func (s *Scheduler) Start() {
	s.startOnce.Do(func() {
		s.logger.Info("starting reclaim scheduler",
			slog.Duration("interval", s.config.Interval),
			slog.Duration("timeout", s.config.Timeout),
			slog.Bool("leased", s.lease != nil))

		s.wg.Add(1)
		go s.loop()
	})
}

// Stop cancels the sweep goroutine and waits for an in-flight sweep to
// finish. It is safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.cancelFunc()
		s.wg.Wait()
		s.logger.Info("reclaim scheduler stopped")
	})
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return

		case <-ticker.C:
			// A sweep is not cancelled by Stop once started.
			ctx := logger.WithLogger(context.Background(), s.logger)
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.Error("reclaim sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}

// RunOnce performs a single sweep and returns how many words were reclaimed.
// Re-running it after a failure changes no already-correct state.
func (s *Scheduler) RunOnce(ctx context.Context) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if s.lease != nil {
		// The lease expires before the next tick so any replica can take it.
		held, err := s.lease.Acquire(ctx, s.config.Interval*9/10)
		if err != nil {
			log.Warn("skipping reclaim sweep, lease check failed", slog.String("error", err.Error()))
			err = fmt.Errorf("%w: %v", ErrLeaseUnavailable, err)
			s.observe(0, err)
			return 0, err
		}
		if !held {
			log.Debug("skipping reclaim sweep, another replica holds the lease")
			return 0, nil
		}
	}

	cutoff := s.config.Now().UTC().Add(-s.config.Timeout)
	reclaimed, err := s.words.ReclaimStale(ctx, cutoff)
	s.observe(reclaimed, err)
	if err != nil {
		return 0, fmt.Errorf("failed to reclaim stale words: %w", err)
	}

	if reclaimed > 0 {
		log.Info("reclaimed stale words",
			slog.Int64("count", reclaimed),
			slog.Time("cutoff", cutoff))
	} else {
		log.Debug("no stale words to reclaim")
	}
	return reclaimed, nil
}

func (s *Scheduler) observe(reclaimed int64, err error) {
	if s.metrics != nil {
		s.metrics.ObserveSweep(reclaimed, err)
	}
}
