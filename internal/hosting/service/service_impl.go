package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/hostbill/internal/clock"
	hostingdomain "github.com/smallbiznis/hostbill/internal/hosting/domain"
	"github.com/smallbiznis/hostbill/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParams struct {
	fx.In

	Logger     *zap.Logger
	DB         *gorm.DB
	Clock      clock.Clock
	Repository hostingdomain.Repository
}

type lifecycleService struct {
	log   *zap.Logger
	db    *gorm.DB
	clock clock.Clock
	repo  hostingdomain.Repository
}

func NewService(p ServiceParams) hostingdomain.LifecycleService {
	return &lifecycleService{
		log:   p.Logger.Named("hosting.service"),
		db:    p.DB,
		clock: p.Clock,
		repo:  p.Repository,
	}
}

func (s *lifecycleService) List(ctx context.Context, req hostingdomain.ListServicesRequest) (hostingdomain.ListServicesResponse, error) {
	limit := req.PageSize
	if limit <= 0 {
		limit = 20
	}
	if limit > 250 {
		limit = 250
	}

	status := hostingdomain.ServiceStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	switch status {
	case "", hostingdomain.StatusActive, hostingdomain.StatusSuspended, hostingdomain.StatusCanceled:
	default:
		return hostingdomain.ListServicesResponse{}, hostingdomain.ErrInvalidStatus
	}

	var afterID snowflake.ID
	if token := strings.TrimSpace(req.PageToken); token != "" {
		cursor, err := pagination.DecodeCursor(token)
		if err != nil {
			return hostingdomain.ListServicesResponse{}, hostingdomain.ErrInvalidPageToken
		}
		id, err := strconv.ParseInt(cursor.ID, 10, 64)
		if err != nil {
			return hostingdomain.ListServicesResponse{}, hostingdomain.ErrInvalidPageToken
		}
		afterID = snowflake.ID(id)
	}

	services, err := s.repo.List(ctx, s.db, req.CustomerID, status, afterID, limit+1)
	if err != nil {
		return hostingdomain.ListServicesResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(services, limit, func(svc *hostingdomain.Service) string {
		token, encodeErr := pagination.EncodeCursor(pagination.Cursor{ID: svc.ID.String()})
		if encodeErr != nil {
			return ""
		}
		return token
	})

	if len(services) > limit {
		services = services[:limit]
	}
	out := make([]hostingdomain.Service, 0, len(services))
	for _, svc := range services {
		out = append(out, *svc)
	}

	return hostingdomain.ListServicesResponse{PageInfo: *pageInfo, Services: out}, nil
}

func (s *lifecycleService) GetByID(ctx context.Context, id snowflake.ID) (hostingdomain.ServiceDetail, error) {
	service, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return hostingdomain.ServiceDetail{}, err
	}
	if service == nil {
		return hostingdomain.ServiceDetail{}, hostingdomain.ErrNotFound
	}

	addons, err := s.repo.ListAddOns(ctx, s.db, id)
	if err != nil {
		return hostingdomain.ServiceDetail{}, err
	}

	return hostingdomain.ServiceDetail{Service: *service, AddOns: addons}, nil
}

func (s *lifecycleService) Suspend(ctx context.Context, id snowflake.ID) (hostingdomain.Service, error) {
	return s.transition(ctx, id, hostingdomain.StatusSuspended)
}

func (s *lifecycleService) Cancel(ctx context.Context, id snowflake.ID) (hostingdomain.Service, error) {
	return s.transition(ctx, id, hostingdomain.StatusCanceled)
}

func (s *lifecycleService) Reactivate(ctx context.Context, id snowflake.ID) (hostingdomain.Service, error) {
	return s.transition(ctx, id, hostingdomain.StatusActive)
}

func (s *lifecycleService) transition(ctx context.Context, id snowflake.ID, target hostingdomain.ServiceStatus) (hostingdomain.Service, error) {
	var updated hostingdomain.Service
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		service, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if service == nil {
			return hostingdomain.ErrNotFound
		}

		if service.Status == target {
			updated = *service
			return nil
		}
		if !hostingdomain.TransitionAllowed(service.Status, target) {
			return hostingdomain.ErrInvalidTransition
		}

		now := s.clock.Now().UTC()
		switch target {
		case hostingdomain.StatusSuspended:
			service.SuspendedAt = &now
		case hostingdomain.StatusCanceled:
			service.CanceledAt = &now
		case hostingdomain.StatusActive:
			service.SuspendedAt = nil
		}
		service.Status = target
		service.UpdatedAt = now

		if err := s.repo.UpdateLifecycle(ctx, tx, service); err != nil {
			return err
		}
		updated = *service
		return nil
	})
	if err != nil {
		return hostingdomain.Service{}, err
	}

	s.log.Info("service_transition",
		zap.String("service_id", id.String()),
		zap.String("status", string(updated.Status)),
	)
	return updated, nil
}
