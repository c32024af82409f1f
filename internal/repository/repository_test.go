package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/refcue/constants"
	"github.com/joseph-ayodele/refcue/internal/common"
	"github.com/joseph-ayodele/refcue/internal/entity"
	"github.com/joseph-ayodele/refcue/internal/repository"
	"github.com/joseph-ayodele/refcue/internal/testutil"
	"github.com/joseph-ayodele/refcue/internal/utils"
)

type repos struct {
	jobs        repository.JobRepository
	connections repository.ConnectionRepository
	referrals   repository.ReferralRepository
}

func newRepos(t *testing.T) repos {
	t.Helper()
	db := testutil.NewDB(t)
	logger := testutil.Logger(t)
	return repos{
		jobs:        repository.NewJobRepository(db, logger),
		connections: repository.NewConnectionRepository(db, logger),
		referrals:   repository.NewReferralRepository(db, logger),
	}
}

func mustJob(t *testing.T, r repos, company, role string) *entity.Job {
	t.Helper()
	j, err := r.jobs.Create(context.Background(), &entity.Job{Company: company, Role: role})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	return j
}

func mustConnection(t *testing.T, r repos, name, messageID string) *entity.Connection {
	t.Helper()
	c := &entity.Connection{Name: name}
	if messageID != "" {
		c.EmailMessageID = &messageID
	}
	got, err := r.connections.Create(context.Background(), c)
	if err != nil {
		t.Fatalf("create connection: %v", err)
	}
	return got
}

func TestJobCreateAndGet(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	deadline, _ := utils.ParseYMD("2025-03-01")

	created, err := r.jobs.Create(ctx, &entity.Job{
		Company:  "Acme",
		Role:     "Backend Engineer",
		Link:     utils.Ptr("https://acme.example/jobs/1"),
		Deadline: &deadline,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Status != constants.JobStatusActive {
		t.Errorf("status = %q, want active", created.Status)
	}
	if !created.CreatedAt.Equal(created.UpdatedAt) {
		t.Errorf("created_at %v != updated_at %v", created.CreatedAt, created.UpdatedAt)
	}

	got, err := r.jobs.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff(created, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestJobGetMissing(t *testing.T) {
	r := newRepos(t)
	_, err := r.jobs.GetByID(context.Background(), uuid.New())
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestJobListFilters(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	first := mustJob(t, r, "Acme Corp", "SRE")
	mustJob(t, r, "Globex", "SWE")
	third := mustJob(t, r, "ACME Labs", "PM")

	applied := constants.JobStatusApplied
	if _, err := r.jobs.Update(ctx, first.ID, repository.JobPatch{Status: &applied}); err != nil {
		t.Fatalf("update: %v", err)
	}

	all, err := r.jobs.List(ctx, entity.JobFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("list: got %d rows, want 3", len(all))
	}
	if all[0].ID != third.ID {
		t.Errorf("list order: first %v, want newest %v", all[0].ID, third.ID)
	}

	acme, err := r.jobs.List(ctx, entity.JobFilter{Company: "acme"})
	if err != nil {
		t.Fatalf("list company: %v", err)
	}
	if len(acme) != 2 {
		t.Errorf("company filter: got %d rows, want 2", len(acme))
	}

	both, err := r.jobs.List(ctx, entity.JobFilter{Company: "acme", Status: constants.JobStatusApplied})
	if err != nil {
		t.Fatalf("list both: %v", err)
	}
	if len(both) != 1 || both[0].ID != first.ID {
		t.Errorf("combined filter: got %+v", both)
	}
}

func TestJobUpdatePatchesOnlyGivenFields(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	deadline, _ := utils.ParseYMD("2025-06-30")
	job, err := r.jobs.Create(ctx, &entity.Job{Company: "Acme", Role: "SRE", Link: utils.Ptr("https://a.example"), Deadline: &deadline})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := r.jobs.Update(ctx, job.ID, repository.JobPatch{
		Role: utils.Ptr("Staff SRE"),
		Link: utils.Clear[string](),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Role != "Staff SRE" || updated.Company != "Acme" {
		t.Errorf("role/company = %q/%q", updated.Role, updated.Company)
	}
	if updated.Link != nil {
		t.Errorf("link = %v, want cleared", *updated.Link)
	}
	if updated.Deadline == nil || !updated.Deadline.Equal(deadline) {
		t.Errorf("deadline = %v, want %v", updated.Deadline, deadline)
	}
	if updated.UpdatedAt.Before(job.UpdatedAt) {
		t.Errorf("updated_at went backwards")
	}

	if _, err := r.jobs.Update(ctx, uuid.New(), repository.JobPatch{Role: utils.Ptr("x")}); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("update missing: err = %v, want ErrNotFound", err)
	}
}

func TestConnectionDefaultsAndLookup(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	c, err := r.connections.Create(ctx, &entity.Connection{EmailMessageID: utils.Ptr("m-1")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Name != constants.UnknownName || c.Source != constants.SourceLinkedInEmail || c.Status != constants.ConnectionStatusNew {
		t.Errorf("defaults = %q/%q/%q", c.Name, c.Source, c.Status)
	}

	got, found, err := r.connections.FindByMessageID(ctx, "m-1")
	if err != nil || !found {
		t.Fatalf("find: found=%v err=%v", found, err)
	}
	if got.ID != c.ID {
		t.Errorf("found id %v, want %v", got.ID, c.ID)
	}
	if _, found, _ := r.connections.FindByMessageID(ctx, "m-2"); found {
		t.Errorf("m-2 should not be found")
	}
}

func TestConnectionMessageIDUnique(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	mustConnection(t, r, "Jane", "m-1")

	_, err := r.connections.Create(ctx, &entity.Connection{Name: "Jane again", EmailMessageID: utils.Ptr("m-1")})
	if !errors.Is(err, common.ErrConflict) {
		t.Fatalf("duplicate create: err = %v, want ErrConflict", err)
	}

	row, created, err := r.connections.CreateIfAbsent(ctx, &entity.Connection{Name: "Jane again", EmailMessageID: utils.Ptr("m-1")})
	if err != nil || created || row != nil {
		t.Fatalf("CreateIfAbsent duplicate: row=%v created=%v err=%v", row, created, err)
	}

	row, created, err = r.connections.CreateIfAbsent(ctx, &entity.Connection{Name: "John", EmailMessageID: utils.Ptr("m-2")})
	if err != nil || !created || row == nil {
		t.Fatalf("CreateIfAbsent new: row=%v created=%v err=%v", row, created, err)
	}

	// NULL message ids do not collide.
	mustConnection(t, r, "Manual A", "")
	mustConnection(t, r, "Manual B", "")

	all, err := r.connections.List(ctx, entity.ConnectionFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("got %d connections, want 4", len(all))
	}
}

func TestConnectionListOrderAndStatus(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i, name := range []string{"Old", "Mid", "New"} {
		c, err := r.connections.Create(ctx, &entity.Connection{Name: name, AcceptedAt: base.Add(time.Duration(i) * time.Hour)})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, c.ID)
	}
	if _, err := r.connections.UpdateStatus(ctx, ids[1], constants.ConnectionStatusProcessed); err != nil {
		t.Fatalf("update status: %v", err)
	}

	all, err := r.connections.List(ctx, entity.ConnectionFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var names []string
	for _, c := range all {
		names = append(names, c.Name)
	}
	if diff := cmp.Diff([]string{"New", "Mid", "Old"}, names); diff != "" {
		t.Errorf("order (-want +got):\n%s", diff)
	}
	if !all[0].AcceptedAt.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("accepted_at = %v", all[0].AcceptedAt)
	}

	processed, err := r.connections.List(ctx, entity.ConnectionFilter{Status: constants.ConnectionStatusProcessed})
	if err != nil {
		t.Fatalf("list processed: %v", err)
	}
	if len(processed) != 1 || processed[0].ID != ids[1] {
		t.Errorf("processed filter = %+v", processed)
	}
}

func TestReferralCreateRequiresBothEnds(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	job := mustJob(t, r, "Acme", "SRE")
	conn := mustConnection(t, r, "Jane", "m-1")

	cases := []struct {
		name  string
		jobID uuid.UUID
		conID uuid.UUID
	}{
		{"missing job", uuid.New(), conn.ID},
		{"missing connection", job.ID, uuid.New()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := r.referrals.Create(ctx, &entity.ReferralOpportunity{JobID: tc.jobID, ConnectionID: tc.conID})
			if !errors.Is(err, common.ErrNotFound) || !errors.Is(err, common.ErrReferentialIntegrity) {
				t.Fatalf("err = %v, want missing reference", err)
			}
		})
	}

	list, err := r.referrals.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("failed creates left %d rows", len(list))
	}
}

func TestReferralLifecycle(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	job := mustJob(t, r, "Acme", "SRE")
	conn := mustConnection(t, r, "Jane", "m-1")

	created, err := r.referrals.Create(ctx, &entity.ReferralOpportunity{JobID: job.ID, ConnectionID: conn.ID, Note: utils.Ptr("ask Jane")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Status != constants.ReferralStatusNew {
		t.Errorf("status = %q, want new", created.Status)
	}
	if created.Job.Company != "Acme" || created.Connection.Name != "Jane" {
		t.Errorf("embedded ends = %q/%q", created.Job.Company, created.Connection.Name)
	}

	got, err := r.referrals.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff(created, got); diff != "" {
		t.Errorf("get mismatch (-want +got):\n%s", diff)
	}

	contacted := constants.ReferralStatusContacted
	updated, err := r.referrals.Update(ctx, created.ID, repository.ReferralPatch{Status: &contacted, Note: utils.Clear[string]()})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != contacted || updated.Note != nil {
		t.Errorf("updated = %q/%v", updated.Status, updated.Note)
	}

	if err := r.referrals.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := r.referrals.GetByID(ctx, created.ID); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("get after delete: err = %v", err)
	}
	if err := r.referrals.Delete(ctx, created.ID); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("second delete: err = %v", err)
	}
}

func TestDeleteCascadesToReferrals(t *testing.T) {
	r := newRepos(t)
	ctx := context.Background()
	jobA := mustJob(t, r, "Acme", "SRE")
	jobB := mustJob(t, r, "Globex", "SWE")
	jane := mustConnection(t, r, "Jane", "m-1")
	john := mustConnection(t, r, "John", "m-2")

	for _, pair := range [][2]uuid.UUID{{jobA.ID, jane.ID}, {jobA.ID, john.ID}, {jobB.ID, jane.ID}, {jobB.ID, john.ID}} {
		if _, err := r.referrals.Create(ctx, &entity.ReferralOpportunity{JobID: pair[0], ConnectionID: pair[1]}); err != nil {
			t.Fatalf("create referral: %v", err)
		}
	}

	if err := r.jobs.Delete(ctx, jobA.ID); err != nil {
		t.Fatalf("delete job: %v", err)
	}
	if err := r.connections.Delete(ctx, jane.ID); err != nil {
		t.Fatalf("delete connection: %v", err)
	}

	list, err := r.referrals.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("got %d referrals, want 1", len(list))
	}
	if list[0].JobID != jobB.ID || list[0].ConnectionID != john.ID {
		t.Errorf("survivor = job %v conn %v", list[0].JobID, list[0].ConnectionID)
	}

	if err := r.jobs.Delete(ctx, jobA.ID); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("second job delete: err = %v", err)
	}
}
