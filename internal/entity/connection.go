package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/joseph-ayodele/refcue/constants"
)

// Connection represents an accepted LinkedIn invitation.
type Connection struct {
	ID             uuid.UUID
	Name           string
	CompanyGuess   *string
	Source         string
	EmailMessageID *string // mailbox message id; unique when set
	RawSubject     *string
	RawSnippet     *string
	AcceptedAt     time.Time
	Status         constants.ConnectionStatus
}

// ConnectionFilter narrows ListConnections.
type ConnectionFilter struct {
	Status constants.ConnectionStatus
}
