package referral

import (
	"context"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/refcue/constants"
	"github.com/joseph-ayodele/refcue/internal/common"
	"github.com/joseph-ayodele/refcue/internal/entity"
	"github.com/joseph-ayodele/refcue/internal/repository"
	"github.com/joseph-ayodele/refcue/internal/services"
	"github.com/joseph-ayodele/refcue/internal/utils"
)

var validStatus = common.OneOf(constants.EnumValidator(constants.ReferralStatuses()...))

// Service handles referral opportunity business logic.
type Service struct {
	referralRepo repository.ReferralRepository
	logger       *slog.Logger
}

func NewService(referralRepo repository.ReferralRepository, logger *slog.Logger) *Service {
	return &Service{referralRepo: referralRepo, logger: logger}
}

type CreateReferralRequest struct {
	JobID        string
	ConnectionID string
	Note         *string
}

// CreateReferral links a job and a connection. It fails with a not-found
// error when either does not exist.
func (s *Service) CreateReferral(ctx context.Context, req CreateReferralRequest) (*entity.ReferralDetail, error) {
	v := common.NewValidator()
	v.Field("job_id", strings.TrimSpace(req.JobID), common.UUID)
	v.Field("connection_id", strings.TrimSpace(req.ConnectionID), common.UUID)
	if err := v.Error(); err != nil {
		return nil, err
	}
	jobID, _ := services.ParseID("job_id", req.JobID)
	connID, _ := services.ParseID("connection_id", req.ConnectionID)

	d, err := s.referralRepo.Create(ctx, &entity.ReferralOpportunity{
		JobID:        jobID,
		ConnectionID: connID,
		Status:       constants.ReferralStatusNew,
		Note:         utils.TrimmedOrNil(req.Note),
	})
	if err != nil {
		s.logger.Warn("create referral failed", "job_id", jobID, "connection_id", connID, "error", err)
		return nil, err
	}
	s.logger.Info("referral created successfully", "referral_id", d.ID, "job_id", jobID, "connection_id", connID)
	return d, nil
}

func (s *Service) GetReferral(ctx context.Context, rawID string) (*entity.ReferralDetail, error) {
	id, err := services.ParseID("id", rawID)
	if err != nil {
		return nil, err
	}
	return s.referralRepo.GetByID(ctx, id)
}

// ListReferrals returns referrals newest first with both ends loaded.
func (s *Service) ListReferrals(ctx context.Context) ([]*entity.ReferralDetail, error) {
	return s.referralRepo.List(ctx)
}

type UpdateReferralRequest struct {
	Status *string
	Note   utils.Patch[string]
}

func (s *Service) UpdateReferral(ctx context.Context, rawID string, req UpdateReferralRequest) (*entity.ReferralDetail, error) {
	id, err := services.ParseID("id", rawID)
	if err != nil {
		return nil, err
	}
	patch := repository.ReferralPatch{Note: services.TrimPatch(req.Note)}
	if req.Status != nil {
		status := strings.TrimSpace(*req.Status)
		if err := common.NewValidator().Field("status", status, validStatus).Error(); err != nil {
			return nil, err
		}
		patch.Status = utils.Ptr(constants.ReferralStatus(status))
	}
	d, err := s.referralRepo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.logger.Info("referral updated successfully", "referral_id", id, "status", d.Status)
	return d, nil
}

func (s *Service) DeleteReferral(ctx context.Context, rawID string) error {
	id, err := services.ParseID("id", rawID)
	if err != nil {
		return err
	}
	if err := s.referralRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("referral deleted successfully", "referral_id", id)
	return nil
}
