package export_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/refcue/constants"
	"github.com/joseph-ayodele/refcue/internal/entity"
	"github.com/joseph-ayodele/refcue/internal/export"
	"github.com/joseph-ayodele/refcue/internal/repository"
	"github.com/joseph-ayodele/refcue/internal/testutil"
	"github.com/joseph-ayodele/refcue/internal/utils"
)

func TestExportReferralsXLSX(t *testing.T) {
	db := testutil.NewDB(t)
	logger := testutil.Logger(t)
	ctx := context.Background()
	jobs := repository.NewJobRepository(db, logger)
	conns := repository.NewConnectionRepository(db, logger)
	refs := repository.NewReferralRepository(db, logger)

	deadline, _ := utils.ParseYMD("2025-04-01")
	j, err := jobs.Create(ctx, &entity.Job{Company: "Acme", Role: "SRE", Deadline: &deadline})
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"Jane", "John"} {
		c, err := conns.Create(ctx, &entity.Connection{Name: name, CompanyGuess: utils.Ptr("Acme")})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := refs.Create(ctx, &entity.ReferralOpportunity{JobID: j.ID, ConnectionID: c.ID, Note: utils.Ptr("hi " + name)}); err != nil {
			t.Fatal(err)
		}
	}

	svc := export.NewService(refs, logger)
	b, err := svc.ExportReferralsXLSX(ctx, "")
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(export.SheetName)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	if diff := cmp.Diff(export.Headers, rows[0]); diff != "" {
		t.Errorf("header (-want +got):\n%s", diff)
	}
	// newest referral first
	if rows[1][5] != "John" || rows[1][3] != "2025-04-01" || rows[1][9] != "hi John" {
		t.Errorf("first data row = %v", rows[1])
	}

	b, err = svc.ExportReferralsXLSX(ctx, constants.ReferralStatusDone)
	if err != nil {
		t.Fatalf("filtered export: %v", err)
	}
	f2, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	defer f2.Close()
	rows, _ = f2.GetRows(export.SheetName)
	if len(rows) != 1 {
		t.Errorf("filtered export has %d rows, want header only", len(rows))
	}
}
