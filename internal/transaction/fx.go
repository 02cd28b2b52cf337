package transaction

import (
	"github.com/smallbiznis/hostbill/internal/transaction/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("transaction.repository",
	fx.Provide(repository.Provide),
)
