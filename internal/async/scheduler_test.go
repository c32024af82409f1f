package async_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/joseph-ayodele/refcue/internal/async"
	"github.com/joseph-ayodele/refcue/internal/ingest"
	"github.com/joseph-ayodele/refcue/internal/testutil"
)

type countingSyncer struct {
	calls atomic.Int32
	block bool
}

func (c *countingSyncer) Sync(ctx context.Context) (ingest.SyncReport, error) {
	c.calls.Add(1)
	if c.block {
		<-ctx.Done()
		return ingest.SyncReport{}, ctx.Err()
	}
	return ingest.SyncReport{SyncedCount: 1}, nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSchedulerTrigger(t *testing.T) {
	syncer := &countingSyncer{}
	s := async.NewScheduler(syncer, testutil.Logger(t))
	defer s.Shutdown(context.Background())

	if !s.Trigger("test") {
		t.Fatal("trigger refused")
	}
	waitFor(t, func() bool { return s.Runs() == 1 })
	if got := syncer.calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestSchedulerInterval(t *testing.T) {
	syncer := &countingSyncer{}
	s := async.NewScheduler(syncer, testutil.Logger(t), async.WithInterval(10*time.Millisecond))
	defer s.Shutdown(context.Background())

	waitFor(t, func() bool { return s.Runs() >= 3 })
}

func TestSchedulerShutdownCancelsRun(t *testing.T) {
	syncer := &countingSyncer{block: true}
	s := async.NewScheduler(syncer, testutil.Logger(t), async.WithRunTimeout(time.Hour))
	s.Trigger("test")
	waitFor(t, func() bool { return syncer.calls.Load() == 1 })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Shutdown(ctx)
	if ctx.Err() != nil {
		t.Fatal("shutdown did not cancel the blocked run")
	}
	if s.Trigger("late") {
		t.Error("trigger accepted after shutdown")
	}
}
