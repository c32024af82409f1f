package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joseph-ayodele/refcue/internal/common"
	"github.com/joseph-ayodele/refcue/internal/export"
	"github.com/joseph-ayodele/refcue/internal/ingest"
	"github.com/joseph-ayodele/refcue/internal/mailbox"
	repo "github.com/joseph-ayodele/refcue/internal/repository"
	"github.com/joseph-ayodele/refcue/internal/server"
	ingestsvc "github.com/joseph-ayodele/refcue/internal/services/ingest"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		out        = flag.String("out", "", "also write a referral XLSX export to this path")
		query      = flag.String("query", "", "mailbox search query (defaults to GMAIL_QUERY)")
		maxResults = flag.Int("max", 0, "maximum messages to read (defaults to GMAIL_MAX_RESULTS)")
	)
	flag.Parse()

	cfg, err := common.LoadConfig()
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(2)
	}
	if *query != "" {
		cfg.Gmail.Query = *query
	}
	if *maxResults > 0 {
		cfg.Gmail.MaxResults = *maxResults
	}
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(2)
	}

	// Logs go to stderr so stdout carries only the report.
	logger := common.NewLogger(os.Stderr, cfg.Log)
	slog.SetDefault(logger)

	ctx := context.Background()
	db, err := server.ConnectDB(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close(logger)

	connsRepo := repo.NewConnectionRepository(db, logger)
	mb := mailbox.NewFileClient(cfg.Gmail.CredentialsFile, cfg.Gmail.TokenFile, logger)
	ingestor := ingest.NewConnectionIngestor(mb, connsRepo, logger)
	ingestor.Query = cfg.Gmail.Query
	ingestor.MaxResults = cfg.Gmail.MaxResults

	report, syncErr := ingestsvc.NewService(ingestor, cfg.Sync.Timeout, logger).Sync(ctx)
	if syncErr != nil && !errors.Is(syncErr, common.ErrIngest) {
		logger.Error("sync failed", "error", syncErr)
		if errors.Is(syncErr, common.ErrAuth) {
			printError("Mailbox credential missing or expired; run gmail-auth first.\n")
		}
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		logger.Error("failed to write report", "error", err)
		os.Exit(1)
	}
	if syncErr != nil {
		logger.Error("sync aborted", "error", syncErr)
		os.Exit(1)
	}

	if *out != "" {
		xlsxBytes, err := export.NewService(repo.NewReferralRepository(db, logger), logger).ExportReferralsXLSX(ctx, "")
		if err != nil {
			logger.Error("failed to export referrals", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*out, xlsxBytes, 0o644); err != nil {
			logger.Error("failed to write output file", "error", err)
			os.Exit(1)
		}
		logger.Info("export written", "output", *out)
	}
}
