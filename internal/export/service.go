package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/refcue/constants"
	"github.com/joseph-ayodele/refcue/internal/entity"
	"github.com/joseph-ayodele/refcue/internal/repository"
	"github.com/joseph-ayodele/refcue/internal/utils"
)

// SheetName is the worksheet holding the referral rows.
const SheetName = "Referrals"

// Headers is the first row of the referral sheet.
var Headers = []string{
	"Company",
	"Role",
	"Job Status",
	"Deadline",
	"Job Link",
	"Connection",
	"Company Guess",
	"Accepted At",
	"Referral Status",
	"Note",
	"Created At",
}

// Service produces XLSX bytes for referral exports.
type Service struct {
	referralRepo repository.ReferralRepository
	logger       *slog.Logger
}

func NewService(repo repository.ReferralRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{referralRepo: repo, logger: logger}
}

// ExportReferralsXLSX returns a workbook with one row per referral, newest
// first. A non-empty status keeps only referrals in that status.
func (s *Service) ExportReferralsXLSX(ctx context.Context, status constants.ReferralStatus) ([]byte, error) {
	start := time.Now()

	refs, err := s.referralRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("query referrals: %w", err)
	}
	if status != "" {
		kept := refs[:0]
		for _, r := range refs {
			if r.Status == status {
				kept = append(kept, r)
			}
		}
		refs = kept
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, err
	}

	for i, h := range Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetName, cell, h)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		last, _ := excelize.CoordinatesToCellName(len(Headers), 1)
		_ = f.SetCellStyle(SheetName, "A1", last, style)
	}

	for i, r := range refs {
		writeRow(f, i+2, r)
	}

	_ = f.SetColWidth(SheetName, "A", "B", 24) // company, role
	_ = f.SetColWidth(SheetName, "C", "D", 12) // status, deadline
	_ = f.SetColWidth(SheetName, "E", "E", 40) // link
	_ = f.SetColWidth(SheetName, "F", "G", 24) // connection
	_ = f.SetColWidth(SheetName, "H", "I", 20)
	_ = f.SetColWidth(SheetName, "J", "J", 48) // note
	_ = f.SetColWidth(SheetName, "K", "K", 20)
	_ = f.SetPanes(SheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(refs),
		"status", string(status),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, row int, r *entity.ReferralDetail) {
	write := func(col int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(SheetName, cell, v)
	}
	write(1, r.Job.Company)
	write(2, r.Job.Role)
	write(3, string(r.Job.Status))
	write(4, utils.StrOrEmpty(utils.FormatYMD(r.Job.Deadline)))
	write(5, utils.StrOrEmpty(r.Job.Link))
	write(6, r.Connection.Name)
	write(7, utils.StrOrEmpty(r.Connection.CompanyGuess))
	write(8, r.Connection.AcceptedAt.Format(time.RFC3339))
	write(9, string(r.Status))
	write(10, truncate(utils.StrOrEmpty(r.Note), 500))
	write(11, r.CreatedAt.Format(time.RFC3339))
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if n <= 0 || len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
