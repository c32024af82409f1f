package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joseph-ayodele/refcue/internal/async"
	"github.com/joseph-ayodele/refcue/internal/common"
	"github.com/joseph-ayodele/refcue/internal/export"
	"github.com/joseph-ayodele/refcue/internal/ingest"
	"github.com/joseph-ayodele/refcue/internal/mailbox"
	repo "github.com/joseph-ayodele/refcue/internal/repository"
	"github.com/joseph-ayodele/refcue/internal/server"
	"github.com/joseph-ayodele/refcue/internal/services/connection"
	ingestsvc "github.com/joseph-ayodele/refcue/internal/services/ingest"
	"github.com/joseph-ayodele/refcue/internal/services/job"
	"github.com/joseph-ayodele/refcue/internal/services/referral"
)

func main() {
	cfg, err := common.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(2)
	}
	logger := common.NewLogger(os.Stdout, cfg.Log)
	slog.SetDefault(logger)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := server.ConnectDB(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close(logger)

	if err := server.PingDB(ctx, db, logger, 5*time.Second); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	jobsRepo := repo.NewJobRepository(db, logger)
	connsRepo := repo.NewConnectionRepository(db, logger)
	referralsRepo := repo.NewReferralRepository(db, logger)

	mb := mailbox.NewFileClient(cfg.Gmail.CredentialsFile, cfg.Gmail.TokenFile, logger)
	ingestor := ingest.NewConnectionIngestor(mb, connsRepo, logger)
	ingestor.Query = cfg.Gmail.Query
	ingestor.MaxResults = cfg.Gmail.MaxResults
	syncService := ingestsvc.NewService(ingestor, cfg.Sync.Timeout, logger)

	app, err := server.NewApp(server.Deps{
		Jobs:        job.NewService(jobsRepo, logger),
		Connections: connection.NewService(connsRepo, logger),
		Referrals:   referral.NewService(referralsRepo, logger),
		Export:      export.NewService(referralsRepo, logger),
		Sync:        syncService,
	}, logger)
	if err != nil {
		logger.Error("failed to build http app", "error", err)
		os.Exit(1)
	}

	var scheduler *async.Scheduler
	if cfg.Sync.Interval > 0 {
		scheduler = async.NewScheduler(syncService, logger,
			async.WithInterval(cfg.Sync.Interval),
			async.WithRunTimeout(cfg.Sync.Timeout),
		)
		scheduler.Trigger("startup")
	}

	var health *server.HealthServer
	if cfg.Server.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
		if err != nil {
			logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
			os.Exit(1)
		}
		health = server.NewHealthServer(func(ctx context.Context) error {
			return db.HealthCheck(ctx, 2*time.Second, logger)
		}, 15*time.Second, logger)
		go func() {
			if err := health.Serve(lis); err != nil {
				logger.Error("grpc health server exited", "error", err)
			}
		}()
	}

	logger.Info("refcue listening", "addr", cfg.Server.HTTPAddr, "sync_interval", cfg.Sync.Interval)
	errCh := make(chan error, 1)
	go func() { errCh <- app.Listen(cfg.Server.HTTPAddr) }()

	select {
	case <-ctx.Done():
		logger.Info("shutting down...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, net.ErrClosed) {
			logger.Error("http server exited", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if scheduler != nil {
		scheduler.Shutdown(shutdownCtx)
	}
	if health != nil {
		health.Stop()
	}
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	logger.Info("stopped")
}
