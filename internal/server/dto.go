package server

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/refcue/internal/entity"
	"github.com/joseph-ayodele/refcue/internal/utils"
)

type JobResponse struct {
	ID        uuid.UUID `json:"id"`
	Company   string    `json:"company"`
	Role      string    `json:"role"`
	JobID     *string   `json:"job_id"`
	Link      *string   `json:"link"`
	Deadline  *string   `json:"deadline"` // YYYY-MM-DD
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toJobResponse(j *entity.Job) JobResponse {
	return JobResponse{
		ID:        j.ID,
		Company:   j.Company,
		Role:      j.Role,
		JobID:     j.ExternalID,
		Link:      j.Link,
		Deadline:  utils.FormatYMD(j.Deadline),
		Status:    string(j.Status),
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

type ConnectionResponse struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	CompanyGuess   *string   `json:"company_guess"`
	Source         string    `json:"source"`
	EmailMessageID *string   `json:"email_message_id"`
	RawSubject     *string   `json:"raw_subject"`
	RawSnippet     *string   `json:"raw_snippet"`
	AcceptedAt     time.Time `json:"accepted_at"`
	Status         string    `json:"status"`
}

func toConnectionResponse(c *entity.Connection) ConnectionResponse {
	return ConnectionResponse{
		ID:             c.ID,
		Name:           c.Name,
		CompanyGuess:   c.CompanyGuess,
		Source:         c.Source,
		EmailMessageID: c.EmailMessageID,
		RawSubject:     c.RawSubject,
		RawSnippet:     c.RawSnippet,
		AcceptedAt:     c.AcceptedAt,
		Status:         string(c.Status),
	}
}

type ReferralResponse struct {
	ID           uuid.UUID          `json:"id"`
	JobID        uuid.UUID          `json:"job_id"`
	ConnectionID uuid.UUID          `json:"connection_id"`
	CreatedAt    time.Time          `json:"created_at"`
	Status       string             `json:"status"`
	Note         *string            `json:"note"`
	Job          JobResponse        `json:"job"`
	Connection   ConnectionResponse `json:"connection"`
}

func toReferralResponse(d *entity.ReferralDetail) ReferralResponse {
	return ReferralResponse{
		ID:           d.ID,
		JobID:        d.JobID,
		ConnectionID: d.ConnectionID,
		CreatedAt:    d.CreatedAt,
		Status:       string(d.Status),
		Note:         d.Note,
		Job:          toJobResponse(&d.Job),
		Connection:   toConnectionResponse(&d.Connection),
	}
}

func mapSlice[T, R any](in []*T, f func(*T) R) []R {
	out := make([]R, 0, len(in))
	for _, v := range in {
		out = append(out, f(v))
	}
	return out
}

// Request bodies. Schemas have already checked types by decode time.

type createJobBody struct {
	Company  string  `json:"company"`
	Role     string  `json:"role"`
	JobID    *string `json:"job_id"`
	Link     *string `json:"link"`
	Deadline *string `json:"deadline"`
	Status   string  `json:"status"`
}

type createConnectionBody struct {
	Name         string  `json:"name"`
	CompanyGuess *string `json:"company_guess"`
	Source       *string `json:"source"`
}

type updateConnectionBody struct {
	Status string `json:"status"`
}

type createReferralBody struct {
	JobID        string  `json:"job_id"`
	ConnectionID string  `json:"connection_id"`
	Note         *string `json:"note"`
}

// OptionalString tells an absent JSON field apart from an explicit null.
type OptionalString struct {
	utils.Patch[string]
}

func (o *OptionalString) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

type updateJobBody struct {
	Company  *string        `json:"company"`
	Role     *string        `json:"role"`
	JobID    OptionalString `json:"job_id"`
	Link     OptionalString `json:"link"`
	Deadline OptionalString `json:"deadline"`
	Status   *string        `json:"status"`
}

type updateReferralBody struct {
	Status *string        `json:"status"`
	Note   OptionalString `json:"note"`
}
