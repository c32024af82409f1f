// Package ingest turns mailbox notifications into Connection rows.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/refcue/constants"
	"github.com/joseph-ayodele/refcue/internal/common"
	"github.com/joseph-ayodele/refcue/internal/entity"
	"github.com/joseph-ayodele/refcue/internal/mailbox"
	"github.com/joseph-ayodele/refcue/internal/repository"
)

// SyncReport summarizes one sync run.
type SyncReport struct {
	SyncedCount               int         `json:"synced_count"`
	CreatedConnectionIDs      []uuid.UUID `json:"created_connection_ids"`
	SkippedExistingMessageIDs []string    `json:"skipped_existing_message_ids"`
	TotalEmailsSeen           int         `json:"total_emails_seen"`
}

func newReport() SyncReport {
	return SyncReport{
		CreatedConnectionIDs:      []uuid.UUID{},
		SkippedExistingMessageIDs: []string{},
	}
}

// Ingestor is the behavior the service depends on.
type Ingestor interface {
	Sync(ctx context.Context) (SyncReport, error)
}

// ConnectionIngestor searches the mailbox and stores one Connection per
// previously unseen message id.
type ConnectionIngestor struct {
	Mailbox     mailbox.Client
	Connections repository.ConnectionRepository
	Query       string
	MaxResults  int
	logger      *slog.Logger
}

func NewConnectionIngestor(mb mailbox.Client, conns repository.ConnectionRepository, logger *slog.Logger) *ConnectionIngestor {
	return &ConnectionIngestor{
		Mailbox:     mb,
		Connections: conns,
		Query:       mailbox.DefaultQuery,
		MaxResults:  mailbox.DefaultMaxResults,
		logger:      logger,
	}
}

// Sync runs one ingestion pass. Messages are handled in mailbox order, one
// at a time.
//
// Mailbox errors are returned as is with an empty report. A storage error
// stops the run: the returned report covers the messages handled before it
// and the error wraps common.ErrIngest. Rows created earlier stay committed.
func (i *ConnectionIngestor) Sync(ctx context.Context) (SyncReport, error) {
	report := newReport()

	msgs, err := i.Mailbox.Search(ctx, i.Query, i.MaxResults)
	if err != nil {
		i.logger.Error("mailbox search failed", "error", err)
		return SyncReport{}, err
	}
	report.TotalEmailsSeen = len(msgs)

	for _, msg := range msgs {
		if err := ctx.Err(); err != nil {
			return report, ingestError(msg.ID, err)
		}
		created, id, err := i.ingestMessage(ctx, msg)
		if err != nil {
			i.logger.Error("ingest aborted", "email_message_id", msg.ID, "error", err)
			return report, ingestError(msg.ID, err)
		}
		if created {
			report.CreatedConnectionIDs = append(report.CreatedConnectionIDs, id)
		} else {
			report.SkippedExistingMessageIDs = append(report.SkippedExistingMessageIDs, msg.ID)
		}
		report.SyncedCount = len(report.CreatedConnectionIDs)
	}

	i.logger.Info("sync completed",
		"seen", report.TotalEmailsSeen,
		"created", report.SyncedCount,
		"skipped", len(report.SkippedExistingMessageIDs))
	return report, nil
}

func (i *ConnectionIngestor) ingestMessage(ctx context.Context, msg mailbox.RawMessage) (bool, uuid.UUID, error) {
	if _, found, err := i.Connections.FindByMessageID(ctx, msg.ID); err != nil {
		return false, uuid.Nil, err
	} else if found {
		i.logger.Debug("message already ingested", "email_message_id", msg.ID)
		return false, uuid.Nil, nil
	}

	parsed := Parse(msg.Subject, msg.Snippet)
	id := msg.ID
	subject := msg.Subject
	snippet := msg.Snippet
	row, created, err := i.Connections.CreateIfAbsent(ctx, &entity.Connection{
		Name:           parsed.Name,
		CompanyGuess:   parsed.CompanyGuess,
		Source:         constants.SourceLinkedInEmail,
		EmailMessageID: &id,
		RawSubject:     &subject,
		RawSnippet:     &snippet,
		AcceptedAt:     msg.InternalDate,
		Status:         constants.ConnectionStatusNew,
	})
	if err != nil {
		return false, uuid.Nil, err
	}
	if !created {
		return false, uuid.Nil, nil
	}
	i.logger.Info("connection created", "connection_id", row.ID, "name", row.Name, "email_message_id", msg.ID)
	return true, row.ID, nil
}

func ingestError(messageID string, err error) error {
	return common.NewAppError("INGEST_ABORTED", "message "+messageID, fmt.Errorf("%w: %w", common.ErrIngest, err))
}
