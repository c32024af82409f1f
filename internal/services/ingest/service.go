package ingest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/refcue/internal/ingest"
)

// Service runs mailbox syncs one at a time within this process.
type Service struct {
	ingestor ingest.Ingestor
	timeout  time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	lastRun time.Time
}

// NewService creates a sync service. A positive timeout bounds each run.
func NewService(ing ingest.Ingestor, timeout time.Duration, logger *slog.Logger) *Service {
	return &Service{
		ingestor: ing,
		timeout:  timeout,
		logger:   logger,
	}
}

// Sync runs one ingestion pass, waiting for any run already in progress.
// The report is returned alongside ErrIngest failures so callers can show
// partial progress.
func (s *Service) Sync(ctx context.Context) (ingest.SyncReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	s.logger.Info("starting mailbox sync", "timeout", s.timeout)
	report, err := s.ingestor.Sync(ctx)
	s.lastRun = start
	if err != nil {
		s.logger.Error("mailbox sync failed", "duration", time.Since(start), "created", report.SyncedCount, "error", err)
		return report, err
	}
	s.logger.Info("mailbox sync succeeded",
		"duration", time.Since(start),
		"seen", report.TotalEmailsSeen,
		"created", report.SyncedCount,
		"skipped", len(report.SkippedExistingMessageIDs))
	return report, nil
}

// LastRun reports when the most recent sync started, zero if none has.
func (s *Service) LastRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRun
}
