package snapshot

import (
	"github.com/stagecast/encore/internal/cache"
	"github.com/stagecast/encore/internal/snapshot/repository"
	"github.com/stagecast/encore/internal/snapshot/service"
	"go.uber.org/fx"
)

var Module = fx.Module("snapshot.service",
	fx.Provide(cache.NewSnapshotReadCache),
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
