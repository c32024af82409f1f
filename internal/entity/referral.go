package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/joseph-ayodele/refcue/constants"
)

// ReferralOpportunity links a Job to a Connection who might refer for it.
type ReferralOpportunity struct {
	ID           uuid.UUID
	JobID        uuid.UUID
	ConnectionID uuid.UUID
	CreatedAt    time.Time
	Status       constants.ReferralStatus
	Note         *string
}

// ReferralDetail is a ReferralOpportunity with both ends loaded.
type ReferralDetail struct {
	ReferralOpportunity
	Job        Job
	Connection Connection
}
