package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/hostbill/pkg/db/pagination"
)

type ListPlansRequest struct {
	IncludeInactive bool
	PageToken       string
	PageSize        int
}

type ListPlansResponse struct {
	pagination.PageInfo
	Plans []Plan `json:"plans"`
}

type CreatePlanRequest struct {
	Name              string   `json:"name"`
	Description       *string  `json:"description,omitempty"`
	MonthlyPriceCents int64    `json:"monthly_price_cents"`
	Currency          string   `json:"currency"`
	AddOnCodes        []string `json:"add_on_codes,omitempty"`
}

type CreateAddOnRequest struct {
	Code              string `json:"code"`
	Name              string `json:"name"`
	MonthlyPriceCents int64  `json:"monthly_price_cents"`
}

// PlanDetail is a plan together with its allowed, active add-ons.
type PlanDetail struct {
	Plan   Plan    `json:"plan"`
	AddOns []AddOn `json:"add_ons"`
}

type Service interface {
	List(ctx context.Context, req ListPlansRequest) (ListPlansResponse, error)
	GetBySlug(ctx context.Context, slug string) (PlanDetail, error)
	Create(ctx context.Context, req CreatePlanRequest) (Plan, error)
	CreateAddOn(ctx context.Context, req CreateAddOnRequest) (AddOn, error)
}

var (
	ErrNotFound         = errors.New("plan_not_found")
	ErrAddOnNotFound    = errors.New("addon_not_found")
	ErrInvalidSlug      = errors.New("invalid_slug")
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidCode      = errors.New("invalid_code")
	ErrInvalidPrice     = errors.New("invalid_price")
	ErrInvalidCurrency  = errors.New("invalid_currency")
	ErrDuplicateSlug    = errors.New("duplicate_slug")
	ErrDuplicateCode    = errors.New("duplicate_code")
	ErrInvalidPageToken = errors.New("invalid_page_token")
)
