package account

import (
	"github.com/stagecast/encore/internal/account/repository"
	"github.com/stagecast/encore/internal/account/service"
	"go.uber.org/fx"
)

var Module = fx.Module("account.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
