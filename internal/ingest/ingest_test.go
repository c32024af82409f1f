package ingest_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/joseph-ayodele/refcue/constants"
	"github.com/joseph-ayodele/refcue/internal/common"
	"github.com/joseph-ayodele/refcue/internal/entity"
	"github.com/joseph-ayodele/refcue/internal/ingest"
	"github.com/joseph-ayodele/refcue/internal/mailbox"
	"github.com/joseph-ayodele/refcue/internal/repository"
	"github.com/joseph-ayodele/refcue/internal/testutil"
	"github.com/joseph-ayodele/refcue/internal/utils"
)

type fakeMailbox struct {
	msgs  []mailbox.RawMessage
	err   error
	calls int
}

func (f *fakeMailbox) Search(_ context.Context, _ string, _ int) ([]mailbox.RawMessage, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.msgs, nil
}

var t0 = time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

func msg(id, subject, snippet string, offset time.Duration) mailbox.RawMessage {
	return mailbox.RawMessage{ID: id, ThreadID: "t-" + id, Subject: subject, Snippet: snippet, InternalDate: t0.Add(offset)}
}

func setup(t *testing.T, mb mailbox.Client) (*ingest.ConnectionIngestor, repository.ConnectionRepository) {
	t.Helper()
	db := testutil.NewDB(t)
	logger := testutil.Logger(t)
	conns := repository.NewConnectionRepository(db, logger)
	return ingest.NewConnectionIngestor(mb, conns, logger), conns
}

func TestSyncCreatesAndSkips(t *testing.T) {
	mb := &fakeMailbox{msgs: []mailbox.RawMessage{
		msg("m1", "Jane Doe accepted your invitation", "Jane Doe works at Acme Corp.", 0),
		msg("m2", "John accepted your invitation", "", time.Hour),
		msg("m3", "Ann accepted your invitation", "Ann works at Globex", 2*time.Hour),
	}}
	ing, conns := setup(t, mb)
	ctx := context.Background()

	existing, err := conns.Create(ctx, &entity.Connection{Name: "John", EmailMessageID: utils.Ptr("m2")})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	report, err := ing.Sync(ctx)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if report.TotalEmailsSeen != 3 || report.SyncedCount != 2 || len(report.CreatedConnectionIDs) != 2 {
		t.Fatalf("report = %+v", report)
	}
	if diff := cmp.Diff([]string{"m2"}, report.SkippedExistingMessageIDs); diff != "" {
		t.Errorf("skipped (-want +got):\n%s", diff)
	}

	jane, err := conns.GetByID(ctx, report.CreatedConnectionIDs[0])
	if err != nil {
		t.Fatalf("get created: %v", err)
	}
	want := &entity.Connection{
		ID:             jane.ID,
		Name:           "Jane Doe",
		CompanyGuess:   utils.Ptr("Acme Corp"),
		Source:         constants.SourceLinkedInEmail,
		EmailMessageID: utils.Ptr("m1"),
		RawSubject:     utils.Ptr("Jane Doe accepted your invitation"),
		RawSnippet:     utils.Ptr("Jane Doe works at Acme Corp."),
		AcceptedAt:     t0,
		Status:         constants.ConnectionStatusNew,
	}
	if diff := cmp.Diff(want, jane); diff != "" {
		t.Errorf("created connection (-want +got):\n%s", diff)
	}

	// The pre-existing row is untouched.
	john, err := conns.GetByID(ctx, existing.ID)
	if err != nil {
		t.Fatalf("get existing: %v", err)
	}
	if john.RawSubject != nil || !john.AcceptedAt.Equal(existing.AcceptedAt) {
		t.Errorf("existing row mutated: %+v", john)
	}
}

func TestSyncIsIdempotent(t *testing.T) {
	mb := &fakeMailbox{msgs: []mailbox.RawMessage{
		msg("m1", "Jane accepted your invitation", "", 0),
		msg("m2", "John accepted your invitation", "", time.Minute),
	}}
	ing, conns := setup(t, mb)
	ctx := context.Background()

	first, err := ing.Sync(ctx)
	if err != nil {
		t.Fatalf("first sync: %v", err)
	}
	second, err := ing.Sync(ctx)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if first.SyncedCount != 2 || second.SyncedCount != 0 {
		t.Errorf("synced counts = %d, %d; want 2, 0", first.SyncedCount, second.SyncedCount)
	}
	if first.TotalEmailsSeen != second.TotalEmailsSeen {
		t.Errorf("total seen changed: %d then %d", first.TotalEmailsSeen, second.TotalEmailsSeen)
	}
	if diff := cmp.Diff([]string{"m1", "m2"}, second.SkippedExistingMessageIDs); diff != "" {
		t.Errorf("second skipped (-want +got):\n%s", diff)
	}

	all, err := conns.List(ctx, entity.ConnectionFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("got %d connections, want 2", len(all))
	}
}

func TestSyncDuplicateIDsInOneRun(t *testing.T) {
	mb := &fakeMailbox{msgs: []mailbox.RawMessage{
		msg("m1", "Jane accepted your invitation", "", 0),
		msg("m1", "Jane accepted your invitation", "", 0),
	}}
	ing, _ := setup(t, mb)

	report, err := ing.Sync(context.Background())
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if report.SyncedCount != 1 || len(report.SkippedExistingMessageIDs) != 1 || report.TotalEmailsSeen != 2 {
		t.Errorf("report = %+v", report)
	}
}

func TestSyncEmptyMailbox(t *testing.T) {
	ing, _ := setup(t, &fakeMailbox{})
	report, err := ing.Sync(context.Background())
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if report.SyncedCount != 0 || report.TotalEmailsSeen != 0 {
		t.Errorf("report = %+v", report)
	}
	if report.CreatedConnectionIDs == nil || report.SkippedExistingMessageIDs == nil {
		t.Errorf("lists must be empty, not nil, so they encode as []")
	}
}

func TestSyncMailboxFailure(t *testing.T) {
	for _, sentinel := range []error{common.ErrAuth, common.ErrRemote} {
		t.Run(sentinel.Error(), func(t *testing.T) {
			ing, conns := setup(t, &fakeMailbox{err: common.NewAppError("X", "search", sentinel)})
			report, err := ing.Sync(context.Background())
			if !errors.Is(err, sentinel) {
				t.Fatalf("err = %v, want %v", err, sentinel)
			}
			if errors.Is(err, common.ErrIngest) {
				t.Errorf("mailbox failure reported as ingest failure")
			}
			if report.TotalEmailsSeen != 0 || report.CreatedConnectionIDs != nil {
				t.Errorf("report = %+v, want zero", report)
			}
			all, _ := conns.List(context.Background(), entity.ConnectionFilter{})
			if len(all) != 0 {
				t.Errorf("rows written on mailbox failure")
			}
		})
	}
}

// failingConnections fails CreateIfAbsent for one message id.
type failingConnections struct {
	repository.ConnectionRepository
	failOn string
}

func (f *failingConnections) CreateIfAbsent(ctx context.Context, c *entity.Connection) (*entity.Connection, bool, error) {
	if c.EmailMessageID != nil && *c.EmailMessageID == f.failOn {
		return nil, false, common.NewAppError("STORAGE_ERROR", "insert connection", common.ErrStorage)
	}
	return f.ConnectionRepository.CreateIfAbsent(ctx, c)
}

func TestSyncStorageFailureAbortsRun(t *testing.T) {
	mb := &fakeMailbox{msgs: []mailbox.RawMessage{
		msg("m1", "Jane accepted your invitation", "", 0),
		msg("m2", "John accepted your invitation", "", time.Minute),
		msg("m3", "Ann accepted your invitation", "", 2*time.Minute),
	}}
	db := testutil.NewDB(t)
	logger := testutil.Logger(t)
	conns := repository.NewConnectionRepository(db, logger)
	ing := ingest.NewConnectionIngestor(mb, &failingConnections{ConnectionRepository: conns, failOn: "m2"}, logger)

	report, err := ing.Sync(context.Background())
	if !errors.Is(err, common.ErrIngest) || !errors.Is(err, common.ErrStorage) {
		t.Fatalf("err = %v, want ErrIngest wrapping ErrStorage", err)
	}
	if report.SyncedCount != 1 || report.TotalEmailsSeen != 3 {
		t.Errorf("partial report = %+v", report)
	}

	all, err := conns.List(context.Background(), entity.ConnectionFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 || utils.StrOrEmpty(all[0].EmailMessageID) != "m1" {
		t.Errorf("committed rows = %+v, want only m1", all)
	}
}

func TestSyncCancelled(t *testing.T) {
	mb := &fakeMailbox{msgs: []mailbox.RawMessage{msg("m1", "Jane accepted your invitation", "", 0)}}
	ing, _ := setup(t, mb)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ing.Sync(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
