// Package async runs mailbox syncs in the background.
package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/refcue/internal/ingest"
)

// Syncer is satisfied by the ingest service.
type Syncer interface {
	Sync(ctx context.Context) (ingest.SyncReport, error)
}

// Scheduler runs a sync on a fixed interval and on demand. Runs never
// overlap; a trigger that arrives while one is pending is dropped.
type Scheduler struct {
	syncer   Syncer
	logger   *slog.Logger
	interval time.Duration
	timeout  time.Duration

	trigger chan string
	stop    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once

	mu     sync.Mutex
	closed bool
	runs   int
}

type Option func(*Scheduler)

// WithInterval sets the period between runs. Zero disables the ticker.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d >= 0 {
			s.interval = d
		}
	}
}

// WithRunTimeout bounds each background run.
func WithRunTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func NewScheduler(syncer Syncer, logger *slog.Logger, opts ...Option) *Scheduler {
	s := &Scheduler{
		syncer:  syncer,
		logger:  logger,
		timeout: 2 * time.Minute,
		trigger: make(chan string, 1),
		stop:    make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	s.start()
	return s
}

func (s *Scheduler) start() {
	s.once.Do(func() {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.logger.Info("sync scheduler started", "interval", s.interval)

			var tick <-chan time.Time
			if s.interval > 0 {
				t := time.NewTicker(s.interval)
				defer t.Stop()
				tick = t.C
			}
			for {
				select {
				case <-s.stop:
					s.logger.Info("sync scheduler stopped")
					return
				case <-tick:
					s.run("interval")
				case reason := <-s.trigger:
					s.run(reason)
				}
			}
		}()
	})
}

func (s *Scheduler) run(reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	go func() {
		select {
		case <-s.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	report, err := s.syncer.Sync(ctx)
	s.mu.Lock()
	s.runs++
	s.mu.Unlock()
	if err != nil {
		s.logger.Error("background sync failed", "reason", reason, "error", err)
		return
	}
	s.logger.Info("background sync finished", "reason", reason, "created", report.SyncedCount, "seen", report.TotalEmailsSeen)
}

// Trigger asks for a run soon. It reports false when the scheduler is
// shutting down or a run is already pending.
func (s *Scheduler) Trigger(reason string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.logger.Warn("cannot trigger sync: scheduler is shutting down", "reason", reason)
		return false
	}
	select {
	case s.trigger <- reason:
		return true
	default:
		s.logger.Debug("sync already pending", "reason", reason)
		return false
	}
}

// Runs reports how many runs have finished.
func (s *Scheduler) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

// Shutdown stops the ticker, cancels a run in progress and waits for the
// worker to exit or ctx to end.
func (s *Scheduler) Shutdown(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.stop)
	s.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); s.wg.Wait() }()

	select {
	case <-ctx.Done():
		s.logger.Warn("shutdown interrupted by context")
	case <-done:
		s.logger.Info("sync scheduler shutdown complete")
	}
}
