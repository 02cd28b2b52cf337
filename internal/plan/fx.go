package plan

import (
	"github.com/smallbiznis/hostbill/internal/plan/repository"
	"github.com/smallbiznis/hostbill/internal/plan/service"
	"go.uber.org/fx"
)

var Module = fx.Module("plan.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
