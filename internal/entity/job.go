package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/joseph-ayodele/refcue/constants"
)

// Job represents a tracked job application for data transfer between layers.
type Job struct {
	ID         uuid.UUID
	Company    string
	Role       string
	ExternalID *string // posting id on the employer's board
	Link       *string
	Deadline   *time.Time // date only, midnight UTC
	Status     constants.JobStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// JobFilter narrows ListJobs. Empty fields do not filter.
type JobFilter struct {
	Status  constants.JobStatus
	Company string // case-insensitive substring
}
