package worker

import (
	"context"
	"time"

	accountdomain "github.com/stagecast/encore/internal/account/domain"
	"github.com/stagecast/encore/internal/clock"
	"github.com/stagecast/encore/internal/config"
	"github.com/stagecast/encore/internal/refresh/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Cfg         config.Config
	Clock       clock.Clock
	AccountRepo accountdomain.Repository
	Refresh     domain.Service
	Config      Config `optional:"true"`
}

// Worker refreshes the stalest linked accounts in the background so
// interactive reads mostly hit fresh snapshots. It goes through the refresh
// service, so a worker fetch and a user-triggered fetch of the same account
// coalesce.
type Worker struct {
	db          *gorm.DB
	log         *zap.Logger
	ttl         time.Duration
	clock       clock.Clock
	accountRepo accountdomain.Repository
	refresh     domain.Service
	cfg         Config
}

func NewWorker(p Params) *Worker {
	return &Worker{
		db:          p.DB,
		log:         p.Log.Named("refresh.worker"),
		ttl:         p.Cfg.Social.SnapshotTTL,
		clock:       p.Clock,
		accountRepo: p.AccountRepo,
		refresh:     p.Refresh,
		cfg:         p.Config.withDefaults(),
	}
}

func (w *Worker) RunForever(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if err := w.RunOnce(ctx); err != nil {
			w.log.Warn("refresh sweep failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) RunOnce(parentCtx context.Context) error {
	ctx, cancel := context.WithTimeout(parentCtx, w.cfg.RunTimeout)
	defer cancel()

	staleBefore := w.clock.Now().Add(-w.ttl)
	accounts, err := w.accountRepo.ListActiveStale(ctx, w.db, staleBefore, w.cfg.BatchSize)
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		return nil
	}

	refreshed := 0
	for _, account := range accounts {
		if ctx.Err() != nil {
			break
		}
		if err := w.refresh.Refresh(ctx, account.ProfileID, account.Platform); err != nil {
			w.log.Warn("background refresh failed",
				zap.String("profile_id", account.ProfileID.String()),
				zap.String("platform", account.Platform.String()),
				zap.Error(err),
			)
			continue
		}
		refreshed++
	}

	w.log.Info("refresh sweep complete",
		zap.Int("stale", len(accounts)),
		zap.Int("refreshed", refreshed),
	)
	return nil
}
