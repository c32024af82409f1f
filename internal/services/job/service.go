package job

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/refcue/constants"
	"github.com/joseph-ayodele/refcue/internal/common"
	"github.com/joseph-ayodele/refcue/internal/entity"
	"github.com/joseph-ayodele/refcue/internal/repository"
	"github.com/joseph-ayodele/refcue/internal/services"
	"github.com/joseph-ayodele/refcue/internal/utils"
)

var validStatus = common.OneOf(constants.EnumValidator(constants.JobStatuses()...))

// Service handles job business logic.
type Service struct {
	jobRepo repository.JobRepository
	logger  *slog.Logger
}

// NewService creates a new job service.
func NewService(jobRepo repository.JobRepository, logger *slog.Logger) *Service {
	return &Service{
		jobRepo: jobRepo,
		logger:  logger,
	}
}

// CreateJobRequest represents job creation parameters. Deadline is YYYY-MM-DD.
type CreateJobRequest struct {
	Company    string
	Role       string
	ExternalID *string
	Link       *string
	Deadline   *string
	Status     string
}

// CreateJob creates a new job.
func (s *Service) CreateJob(ctx context.Context, req CreateJobRequest) (*entity.Job, error) {
	status := strings.TrimSpace(req.Status)
	if status == "" {
		status = string(constants.JobStatusActive)
	}

	v := common.NewValidator()
	v.Field("company", req.Company, common.Required, common.MaxLength(services.MaxNameLength))
	v.Field("role", req.Role, common.Required, common.MaxLength(services.MaxNameLength))
	v.Field("job_id", req.ExternalID, common.MaxLength(services.MaxNameLength))
	v.Field("link", utils.TrimmedOrNil(req.Link), common.AbsoluteURL)
	v.Field("status", status, validStatus)
	deadline := parseDeadline(v, utils.TrimmedOrNil(req.Deadline))
	if err := v.Error(); err != nil {
		s.logger.Warn("invalid create job request", "error", err)
		return nil, err
	}

	job, err := s.jobRepo.Create(ctx, &entity.Job{
		Company:    strings.TrimSpace(req.Company),
		Role:       strings.TrimSpace(req.Role),
		ExternalID: utils.TrimmedOrNil(req.ExternalID),
		Link:       utils.TrimmedOrNil(req.Link),
		Deadline:   deadline,
		Status:     constants.JobStatus(status),
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("job created successfully", "job_id", job.ID, "company", job.Company, "role", job.Role)
	return job, nil
}

// GetJob fetches a job by id.
func (s *Service) GetJob(ctx context.Context, rawID string) (*entity.Job, error) {
	id, err := services.ParseID("id", rawID)
	if err != nil {
		return nil, err
	}
	return s.jobRepo.GetByID(ctx, id)
}

// ListJobsRequest filters ListJobs. Empty fields match everything.
type ListJobsRequest struct {
	Status  string
	Company string
}

// ListJobs returns jobs newest first.
func (s *Service) ListJobs(ctx context.Context, req ListJobsRequest) ([]*entity.Job, error) {
	status := strings.TrimSpace(req.Status)
	if status != "" {
		if err := common.NewValidator().Field("status_filter", status, validStatus).Error(); err != nil {
			return nil, err
		}
	}
	jobs, err := s.jobRepo.List(ctx, entity.JobFilter{
		Status:  constants.JobStatus(status),
		Company: strings.TrimSpace(req.Company),
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("listed jobs", "count", len(jobs), "status", status, "company", req.Company)
	return jobs, nil
}

// UpdateJobRequest carries only the fields the caller supplied.
type UpdateJobRequest struct {
	Company    *string
	Role       *string
	ExternalID utils.Patch[string]
	Link       utils.Patch[string]
	Deadline   utils.Patch[string]
	Status     *string
}

// UpdateJob applies a partial update.
func (s *Service) UpdateJob(ctx context.Context, rawID string, req UpdateJobRequest) (*entity.Job, error) {
	id, err := services.ParseID("id", rawID)
	if err != nil {
		return nil, err
	}

	v := common.NewValidator()
	if req.Company != nil {
		v.Field("company", req.Company, common.Required, common.MaxLength(services.MaxNameLength))
	}
	if req.Role != nil {
		v.Field("role", req.Role, common.Required, common.MaxLength(services.MaxNameLength))
	}
	if req.Status != nil {
		v.Field("status", strings.TrimSpace(*req.Status), validStatus)
	}
	extID := services.TrimPatch(req.ExternalID)
	link := services.TrimPatch(req.Link)
	v.Field("job_id", extID.Value, common.MaxLength(services.MaxNameLength))
	v.Field("link", link.Value, common.AbsoluteURL)

	var deadline utils.Patch[time.Time]
	if dl := services.TrimPatch(req.Deadline); dl.Set {
		deadline = utils.Patch[time.Time]{Set: true, Value: parseDeadline(v, dl.Value)}
	}
	if err := v.Error(); err != nil {
		s.logger.Warn("invalid update job request", "job_id", id, "error", err)
		return nil, err
	}

	patch := repository.JobPatch{
		ExternalID: extID,
		Link:       link,
		Deadline:   deadline,
	}
	if req.Company != nil {
		patch.Company = utils.Ptr(strings.TrimSpace(*req.Company))
	}
	if req.Role != nil {
		patch.Role = utils.Ptr(strings.TrimSpace(*req.Role))
	}
	if req.Status != nil {
		patch.Status = utils.Ptr(constants.JobStatus(strings.TrimSpace(*req.Status)))
	}

	job, err := s.jobRepo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.logger.Info("job updated successfully", "job_id", id)
	return job, nil
}

// DeleteJob removes a job and its referral opportunities.
func (s *Service) DeleteJob(ctx context.Context, rawID string) error {
	id, err := services.ParseID("id", rawID)
	if err != nil {
		return err
	}
	if err := s.jobRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("job deleted successfully", "job_id", id)
	return nil
}

func parseDeadline(v *common.Validator, raw *string) *time.Time {
	if raw == nil {
		return nil
	}
	t, err := utils.ParseYMD(*raw)
	if err != nil {
		v.Add("deadline", *raw, "must be a date in YYYY-MM-DD format")
		return nil
	}
	return &t
}
