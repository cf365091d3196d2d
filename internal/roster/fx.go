package roster

import (
	"github.com/stagecast/encore/internal/roster/repository"
	"github.com/stagecast/encore/internal/roster/service"
	"go.uber.org/fx"
)

var Module = fx.Module("roster.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
