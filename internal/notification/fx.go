package notification

import (
	"github.com/stagecast/encore/internal/notification/repository"
	"github.com/stagecast/encore/internal/notification/service"
	"go.uber.org/fx"
)

var Module = fx.Module("notification.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
