package refresh

import (
	"github.com/stagecast/encore/internal/refresh/service"
	"go.uber.org/fx"
)

var Module = fx.Module("refresh.service",
	fx.Provide(service.New),
)
