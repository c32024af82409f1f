package job_test

import (
	"context"
	"errors"
	"testing"

	"github.com/joseph-ayodele/refcue/constants"
	"github.com/joseph-ayodele/refcue/internal/common"
	"github.com/joseph-ayodele/refcue/internal/repository"
	"github.com/joseph-ayodele/refcue/internal/services/job"
	"github.com/joseph-ayodele/refcue/internal/testutil"
	"github.com/joseph-ayodele/refcue/internal/utils"
)

func newService(t *testing.T) *job.Service {
	t.Helper()
	db := testutil.NewDB(t)
	logger := testutil.Logger(t)
	return job.NewService(repository.NewJobRepository(db, logger), logger)
}

func fields(t *testing.T, err error) map[string]bool {
	t.Helper()
	var verrs common.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("err = %v, want ValidationErrors", err)
	}
	out := map[string]bool{}
	for _, e := range verrs {
		out[e.Field] = true
	}
	return out
}

func TestCreateJobValidation(t *testing.T) {
	svc := newService(t)
	cases := []struct {
		name  string
		req   job.CreateJobRequest
		field string
	}{
		{"missing company", job.CreateJobRequest{Role: "SRE"}, "company"},
		{"blank role", job.CreateJobRequest{Company: "Acme", Role: "   "}, "role"},
		{"bad status", job.CreateJobRequest{Company: "Acme", Role: "SRE", Status: "hired"}, "status"},
		{"relative link", job.CreateJobRequest{Company: "Acme", Role: "SRE", Link: utils.Ptr("/jobs/1")}, "link"},
		{"bad deadline", job.CreateJobRequest{Company: "Acme", Role: "SRE", Deadline: utils.Ptr("03/01/2025")}, "deadline"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateJob(context.Background(), tc.req)
			if !errors.Is(err, common.ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
			if !fields(t, err)[tc.field] {
				t.Errorf("no error reported for %q: %v", tc.field, err)
			}
		})
	}
}

func TestCreateAndUpdateJob(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	j, err := svc.CreateJob(ctx, job.CreateJobRequest{
		Company:  " Acme Corp ",
		Role:     "SRE",
		Link:     utils.Ptr("https://acme.example/jobs/1"),
		Deadline: utils.Ptr("2025-03-01"),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if j.Company != "Acme Corp" || j.Status != constants.JobStatusActive {
		t.Errorf("created = %q/%q", j.Company, j.Status)
	}
	if got := utils.FormatYMD(j.Deadline); got == nil || *got != "2025-03-01" {
		t.Errorf("deadline = %v", got)
	}

	updated, err := svc.UpdateJob(ctx, j.ID.String(), job.UpdateJobRequest{
		Status:   utils.Ptr("applied"),
		Deadline: utils.Clear[string](),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != constants.JobStatusApplied || updated.Deadline != nil || updated.Link == nil {
		t.Errorf("updated = %+v", updated)
	}

	if _, err := svc.UpdateJob(ctx, j.ID.String(), job.UpdateJobRequest{Company: utils.Ptr("")}); !errors.Is(err, common.ErrValidation) {
		t.Errorf("blank company update: err = %v", err)
	}
}

func TestJobIDValidation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	if _, err := svc.GetJob(ctx, "not-a-uuid"); !errors.Is(err, common.ErrValidation) {
		t.Errorf("get malformed id: err = %v, want ErrValidation", err)
	}
	if err := svc.DeleteJob(ctx, "123"); !errors.Is(err, common.ErrValidation) {
		t.Errorf("delete malformed id: err = %v, want ErrValidation", err)
	}
	if _, err := svc.GetJob(ctx, "00000000-0000-0000-0000-000000000001"); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("get unknown id: err = %v, want ErrNotFound", err)
	}
}

func TestListJobsRejectsUnknownStatus(t *testing.T) {
	svc := newService(t)
	_, err := svc.ListJobs(context.Background(), job.ListJobsRequest{Status: "bogus"})
	if !fields(t, err)["status_filter"] {
		t.Errorf("err = %v, want status_filter failure", err)
	}
}
