// Package server exposes RefCue over HTTP, with an optional gRPC health
// endpoint for orchestrators.
package server

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/joseph-ayodele/refcue/constants"
	"github.com/joseph-ayodele/refcue/internal/export"
	"github.com/joseph-ayodele/refcue/internal/services/connection"
	"github.com/joseph-ayodele/refcue/internal/services/job"
	"github.com/joseph-ayodele/refcue/internal/services/referral"
)

// Deps are the services the HTTP surface calls.
type Deps struct {
	Jobs        *job.Service
	Connections *connection.Service
	Referrals   *referral.Service
	Export      *export.Service
	Sync        Syncer
}

// NewApp builds the Fiber app with every route registered.
func NewApp(deps Deps, logger *slog.Logger) (*fiber.App, error) {
	schemas, err := CompileSchemas()
	if err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		AppName:               constants.ServiceName,
		ErrorHandler:          ErrorHandler(logger),
		DisableStartupMessage: true,
	})
	app.Use(RequestContext(logger), AccessLog(logger))

	registerHealth(app)
	NewJobHandler(deps.Jobs, schemas, logger).Register(app)
	NewConnectionHandler(deps.Connections, schemas, logger).Register(app)
	NewReferralHandler(deps.Referrals, deps.Export, schemas, logger).Register(app)
	NewSyncHandler(deps.Sync, logger).Register(app)
	return app, nil
}
