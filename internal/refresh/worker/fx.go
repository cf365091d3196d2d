package worker

import (
	"context"

	"github.com/stagecast/encore/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("refresh.worker",
	fx.Provide(func(cfg config.Config) Config {
		c := DefaultConfig()
		if cfg.Social.WorkerPollInterval > 0 {
			c.PollInterval = cfg.Social.WorkerPollInterval
		}
		return c
	}),
	fx.Provide(NewWorker),
	fx.Invoke(runWorker),
)

func runWorker(lc fx.Lifecycle, cfg config.Config, worker *Worker) {
	if !cfg.Social.WorkerEnabled {
		return
	}

	runCtx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go worker.RunForever(runCtx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
