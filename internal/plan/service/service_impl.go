package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	gosimpleslug "github.com/gosimple/slug"
	"github.com/smallbiznis/hostbill/internal/clock"
	plandomain "github.com/smallbiznis/hostbill/internal/plan/domain"
	"github.com/smallbiznis/hostbill/pkg/db"
	"github.com/smallbiznis/hostbill/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParams struct {
	fx.In

	Logger     *zap.Logger
	DB         *gorm.DB
	Node       *snowflake.Node
	Clock      clock.Clock
	Repository plandomain.Repository
}

type planService struct {
	log   *zap.Logger
	db    *gorm.DB
	node  *snowflake.Node
	clock clock.Clock
	repo  plandomain.Repository
}

func NewService(p ServiceParams) plandomain.Service {
	return &planService{
		log:   p.Logger.Named("plan.service"),
		db:    p.DB,
		node:  p.Node,
		clock: p.Clock,
		repo:  p.Repository,
	}
}

func (s *planService) List(ctx context.Context, req plandomain.ListPlansRequest) (plandomain.ListPlansResponse, error) {
	limit := req.PageSize
	if limit <= 0 {
		limit = 20
	}
	if limit > 250 {
		limit = 250
	}

	var afterID snowflake.ID
	if token := strings.TrimSpace(req.PageToken); token != "" {
		cursor, err := pagination.DecodeCursor(token)
		if err != nil {
			return plandomain.ListPlansResponse{}, plandomain.ErrInvalidPageToken
		}
		id, err := strconv.ParseInt(cursor.ID, 10, 64)
		if err != nil {
			return plandomain.ListPlansResponse{}, plandomain.ErrInvalidPageToken
		}
		afterID = snowflake.ID(id)
	}

	plans, err := s.repo.List(ctx, s.db, req.IncludeInactive, afterID, limit+1)
	if err != nil {
		return plandomain.ListPlansResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(plans, limit, func(p *plandomain.Plan) string {
		token, encodeErr := pagination.EncodeCursor(pagination.Cursor{ID: p.ID.String()})
		if encodeErr != nil {
			return ""
		}
		return token
	})

	if len(plans) > limit {
		plans = plans[:limit]
	}
	out := make([]plandomain.Plan, 0, len(plans))
	for _, p := range plans {
		out = append(out, *p)
	}

	return plandomain.ListPlansResponse{PageInfo: *pageInfo, Plans: out}, nil
}

func (s *planService) GetBySlug(ctx context.Context, slug string) (plandomain.PlanDetail, error) {
	slug = strings.TrimSpace(strings.ToLower(slug))
	if slug == "" {
		return plandomain.PlanDetail{}, plandomain.ErrInvalidSlug
	}

	plan, err := s.repo.FindBySlug(ctx, s.db, slug)
	if err != nil {
		return plandomain.PlanDetail{}, err
	}
	if plan == nil {
		return plandomain.PlanDetail{}, plandomain.ErrNotFound
	}

	addons, err := s.repo.ListActiveAddOns(ctx, s.db, plan.ID)
	if err != nil {
		return plandomain.PlanDetail{}, err
	}

	return plandomain.PlanDetail{Plan: *plan, AddOns: addons}, nil
}

func (s *planService) Create(ctx context.Context, req plandomain.CreatePlanRequest) (plandomain.Plan, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return plandomain.Plan{}, plandomain.ErrInvalidName
	}
	if req.MonthlyPriceCents <= 0 {
		return plandomain.Plan{}, plandomain.ErrInvalidPrice
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if len(currency) != 3 {
		return plandomain.Plan{}, plandomain.ErrInvalidCurrency
	}

	now := s.clock.Now().UTC()
	plan := plandomain.Plan{
		ID:                s.node.Generate(),
		Slug:              gosimpleslug.Make(name),
		Name:              name,
		Description:       req.Description,
		MonthlyPriceCents: req.MonthlyPriceCents,
		Currency:          currency,
		Active:            true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &plan); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return plandomain.ErrDuplicateSlug
			}
			return err
		}
		for _, code := range req.AddOnCodes {
			addon, err := s.repo.FindAddOnByCode(ctx, tx, strings.TrimSpace(code))
			if err != nil {
				return err
			}
			if addon == nil {
				return plandomain.ErrAddOnNotFound
			}
			if err := s.repo.LinkAddOn(ctx, tx, plan.ID, addon.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return plandomain.Plan{}, err
	}

	s.log.Info("plan_created",
		zap.String("plan_id", plan.ID.String()),
		zap.String("slug", plan.Slug),
		zap.Int64("monthly_price_cents", plan.MonthlyPriceCents),
	)
	return plan, nil
}

func (s *planService) CreateAddOn(ctx context.Context, req plandomain.CreateAddOnRequest) (plandomain.AddOn, error) {
	code := strings.TrimSpace(strings.ToLower(req.Code))
	if code == "" {
		return plandomain.AddOn{}, plandomain.ErrInvalidCode
	}
	if strings.TrimSpace(req.Name) == "" {
		return plandomain.AddOn{}, plandomain.ErrInvalidName
	}
	if req.MonthlyPriceCents <= 0 {
		return plandomain.AddOn{}, plandomain.ErrInvalidPrice
	}

	now := s.clock.Now().UTC()
	addon := plandomain.AddOn{
		ID:                s.node.Generate(),
		Code:              code,
		Name:              strings.TrimSpace(req.Name),
		MonthlyPriceCents: req.MonthlyPriceCents,
		Active:            true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.repo.InsertAddOn(ctx, s.db, &addon); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return plandomain.AddOn{}, plandomain.ErrDuplicateCode
		}
		return plandomain.AddOn{}, err
	}
	return addon, nil
}
