package hosting

import (
	"github.com/smallbiznis/hostbill/internal/hosting/repository"
	"github.com/smallbiznis/hostbill/internal/hosting/service"
	"go.uber.org/fx"
)

var Module = fx.Module("hosting.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
