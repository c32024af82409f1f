package connection

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

var validStatus = common.OneOf(constants.EnumValidator(constants.ConnectionStatuses()...))

// Service handles manual connection management. Mailbox-sourced
// connections are written by the ingest package.
type Service struct {
	connRepo repository.ConnectionRepository
	logger   *slog.Logger
}

func NewService(connRepo repository.ConnectionRepository, logger *slog.Logger) *Service {
	return &Service{connRepo: connRepo, logger: logger}
}

type CreateConnectionRequest struct {
	Name         string
	CompanyGuess *string
	Source       *string
}

func (s *Service) CreateConnection(ctx context.Context, req CreateConnectionRequest) (*entity.Connection, error) {
	v := common.NewValidator()
	v.Field("name", req.Name, common.Required, common.MaxLength(services.MaxNameLength))
	v.Field("company_guess", req.CompanyGuess, common.MaxLength(services.MaxNameLength))
	v.Field("source", req.Source, common.MaxLength(services.MaxSourceLength))
	if err := v.Error(); err != nil {
		s.logger.Warn("invalid create connection request", "error", err)
		return nil, err
	}

	c, err := s.connRepo.Create(ctx, &entity.Connection{
		Name:         strings.TrimSpace(req.Name),
		CompanyGuess: utils.TrimmedOrNil(req.CompanyGuess),
		Source:       utils.StrOrEmpty(utils.TrimmedOrNil(req.Source)),
		Status:       constants.ConnectionStatusNew,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("connection created successfully", "connection_id", c.ID, "name", c.Name)
	return c, nil
}

func (s *Service) GetConnection(ctx context.Context, rawID string) (*entity.Connection, error) {
	id, err := services.ParseID("id", rawID)
	if err != nil {
		return nil, err
	}
	return s.connRepo.GetByID(ctx, id)
}

// ListConnections returns connections by accepted_at, newest first.
func (s *Service) ListConnections(ctx context.Context, status string) ([]*entity.Connection, error) {
	status = strings.TrimSpace(status)
	if status != "" {
		if err := common.NewValidator().Field("status", status, validStatus).Error(); err != nil {
			return nil, err
		}
	}
	return s.connRepo.List(ctx, entity.ConnectionFilter{Status: constants.ConnectionStatus(status)})
}

func (s *Service) UpdateConnectionStatus(ctx context.Context, rawID, status string) (*entity.Connection, error) {
	id, err := services.ParseID("id", rawID)
	if err != nil {
		return nil, err
	}
	status = strings.TrimSpace(status)
	if err := common.NewValidator().Field("status", status, common.Required, validStatus).Error(); err != nil {
		return nil, err
	}
	c, err := s.connRepo.UpdateStatus(ctx, id, constants.ConnectionStatus(status))
	if err != nil {
		return nil, err
	}
	s.logger.Info("connection status updated", "connection_id", id, "status", status)
	return c, nil
}

// DeleteConnection removes a connection and its referral opportunities.
func (s *Service) DeleteConnection(ctx context.Context, rawID string) error {
	id, err := services.ParseID("id", rawID)
	if err != nil {
		return err
	}
	if err := s.connRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("connection deleted successfully", "connection_id", id)
	return nil
}
