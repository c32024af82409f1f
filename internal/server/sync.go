package server

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/joseph-ayodele/refcue/internal/common"
	"github.com/joseph-ayodele/refcue/internal/ingest"
)

// Syncer runs one mailbox sync.
type Syncer interface {
	Sync(ctx context.Context) (ingest.SyncReport, error)
}

// syncErrorResponse carries the partial report of an aborted run.
type syncErrorResponse struct {
	ErrorResponse
	Report ingest.SyncReport `json:"report"`
}

type SyncHandler struct {
	syncer Syncer
	logger *slog.Logger
}

func NewSyncHandler(syncer Syncer, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{syncer: syncer, logger: logger}
}

func (h *SyncHandler) Register(r fiber.Router) {
	r.Post("/gmail/sync", h.sync)
}

func (h *SyncHandler) sync(c *fiber.Ctx) error {
	report, err := h.syncer.Sync(c.UserContext())
	if err != nil {
		if errors.Is(err, common.ErrIngest) {
			status, body := errorBody(err)
			common.LoggerFromContext(c.UserContext(), h.logger).Error("sync aborted",
				"created", report.SyncedCount, "error", err)
			return c.Status(status).JSON(syncErrorResponse{ErrorResponse: body, Report: report})
		}
		return err
	}
	return c.JSON(report)
}
