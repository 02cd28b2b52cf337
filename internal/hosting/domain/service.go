package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/hostbill/pkg/db/pagination"
)

type ListServicesRequest struct {
	CustomerID snowflake.ID
	Status     string
	PageToken  string
	PageSize   int
}

type ListServicesResponse struct {
	pagination.PageInfo
	Services []Service `json:"services"`
}

// ServiceDetail is a service with its add-on snapshots.
type ServiceDetail struct {
	Service Service        `json:"service"`
	AddOns  []ServiceAddOn `json:"add_ons"`
}

type LifecycleService interface {
	List(ctx context.Context, req ListServicesRequest) (ListServicesResponse, error)
	GetByID(ctx context.Context, id snowflake.ID) (ServiceDetail, error)
	Suspend(ctx context.Context, id snowflake.ID) (Service, error)
	Cancel(ctx context.Context, id snowflake.ID) (Service, error)
	Reactivate(ctx context.Context, id snowflake.ID) (Service, error)
}

var (
	ErrNotFound          = errors.New("service_not_found")
	ErrInvalidStatus     = errors.New("invalid_status")
	ErrInvalidTransition = errors.New("invalid_transition")
	ErrInvalidPageToken  = errors.New("invalid_page_token")
)

// TransitionAllowed reports whether a status change is legal. Reactivation
// is only possible from SUSPENDED; cancellation is terminal.
func TransitionAllowed(current, target ServiceStatus) bool {
	switch current {
	case StatusActive:
		return target == StatusSuspended || target == StatusCanceled
	case StatusSuspended:
		return target == StatusActive || target == StatusCanceled
	default:
		return false
	}
}
