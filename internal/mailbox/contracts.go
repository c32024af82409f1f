// Package mailbox reads connection-acceptance notifications from a mailbox.
package mailbox

import (
	"context"
	"time"
)

// DefaultQuery matches LinkedIn "accepted your invitation" notifications.
const DefaultQuery = `"accepted your invitation" from:(notifications-noreply@linkedin.com)`

// DefaultMaxResults bounds one search.
const DefaultMaxResults = 50

// RawMessage is the subset of a mailbox message the ingestor needs.
type RawMessage struct {
	ID           string // mailbox-assigned, stable across syncs
	ThreadID     string
	Subject      string
	Snippet      string
	InternalDate time.Time // UTC
}

// Client searches a mailbox.
//
// Errors wrap common.ErrAuth when the credential is missing or rejected and
// common.ErrRemote for any other failure. Calls are not retried.
type Client interface {
	Search(ctx context.Context, query string, maxResults int) ([]RawMessage, error)
}
