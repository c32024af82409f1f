package mailbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/joseph-ayodele/refcue/internal/common"
)

const gmailUser = "me"

// GmailClient implements Client on the Gmail REST API.
type GmailClient struct {
	svc    *gmail.Service
	logger *slog.Logger
}

// NewGmailClient builds a client from API options, typically
// option.WithTokenSource. Tests pass option.WithEndpoint and
// option.WithHTTPClient.
func NewGmailClient(ctx context.Context, logger *slog.Logger, opts ...option.ClientOption) (*GmailClient, error) {
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, remoteError("create gmail service", err)
	}
	return &GmailClient{svc: svc, logger: logger}, nil
}

// NewGmailClientFromFiles loads the stored credential and builds a client.
func NewGmailClientFromFiles(ctx context.Context, credentialsFile, tokenFile string, logger *slog.Logger) (*GmailClient, error) {
	ts, err := TokenSource(ctx, credentialsFile, tokenFile, logger)
	if err != nil {
		return nil, err
	}
	return NewGmailClient(ctx, logger, option.WithTokenSource(ts))
}

func (c *GmailClient) Search(ctx context.Context, query string, maxResults int) ([]RawMessage, error) {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	c.logger.Debug("searching mailbox", "query", query, "max_results", maxResults)

	list, err := c.svc.Users.Messages.List(gmailUser).
		Q(query).
		MaxResults(int64(maxResults)).
		Context(ctx).
		Do()
	if err != nil {
		c.logger.Error("mailbox search failed", "error", err)
		return nil, classify("list messages", err)
	}

	out := make([]RawMessage, 0, len(list.Messages))
	for _, ref := range list.Messages {
		msg, err := c.svc.Users.Messages.Get(gmailUser, ref.Id).
			Format("metadata").
			MetadataHeaders("Subject").
			Context(ctx).
			Do()
		if err != nil {
			c.logger.Error("mailbox fetch failed", "message_id", ref.Id, "error", err)
			return nil, classify("get message "+ref.Id, err)
		}
		out = append(out, toRawMessage(msg))
	}
	c.logger.Info("mailbox search complete", "messages", len(out))
	return out, nil
}

// Profile returns the authenticated account's address.
func (c *GmailClient) Profile(ctx context.Context) (string, error) {
	p, err := c.svc.Users.GetProfile(gmailUser).Context(ctx).Do()
	if err != nil {
		return "", classify("get profile", err)
	}
	return p.EmailAddress, nil
}

func toRawMessage(m *gmail.Message) RawMessage {
	raw := RawMessage{
		ID:           m.Id,
		ThreadID:     m.ThreadId,
		Snippet:      m.Snippet,
		InternalDate: time.UnixMilli(m.InternalDate).UTC(),
	}
	if m.Payload != nil {
		for _, h := range m.Payload.Headers {
			if strings.EqualFold(h.Name, "Subject") {
				raw.Subject = h.Value
				break
			}
		}
	}
	return raw
}

// classify maps API and transport failures onto ErrAuth or ErrRemote.
func classify(op string, err error) error {
	if errors.Is(err, common.ErrAuth) {
		return err
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return authError(op, err)
		}
		return remoteError(op, err)
	}
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return authError(op, err)
	}
	return remoteError(op, err)
}

func remoteError(op string, err error) error {
	return common.NewAppError("REMOTE", op, fmt.Errorf("%w: %w", common.ErrRemote, err))
}
