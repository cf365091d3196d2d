package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/stagecast/encore/internal/account/domain"
	"github.com/stagecast/encore/internal/clock"
	"github.com/stagecast/encore/internal/config"
	"github.com/stagecast/encore/internal/fetcher"
	fetcherdomain "github.com/stagecast/encore/internal/fetcher/domain"
	notificationdomain "github.com/stagecast/encore/internal/notification/domain"
	obsmetrics "github.com/stagecast/encore/internal/observability/metrics"
	"github.com/stagecast/encore/internal/platform"
	"github.com/stagecast/encore/internal/ratelimit"
	"github.com/stagecast/encore/internal/refresh/domain"
	rosterdomain "github.com/stagecast/encore/internal/roster/domain"
	snapshotdomain "github.com/stagecast/encore/internal/snapshot/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const (
	refreshLockTTL   = 30 * time.Second
	peerPollInterval = 500 * time.Millisecond
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	Cfg           config.Config
	Clock         clock.Clock
	RosterRepo    rosterdomain.Repository
	AccountRepo   accountdomain.Repository
	Snapshots     snapshotdomain.Service
	Notifications notificationdomain.Service
	Registry      *fetcher.Registry
	Locker        *ratelimit.Locker       `optional:"true"`
	FetchLimiter  *ratelimit.FetchLimiter `optional:"true"`
	Metrics       *obsmetrics.Metrics     `optional:"true"`
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	cfg           config.SocialConfig
	clock         clock.Clock
	rosterRepo    rosterdomain.Repository
	accountRepo   accountdomain.Repository
	snapshots     snapshotdomain.Service
	notifications notificationdomain.Service
	registry      *fetcher.Registry
	locker        *ratelimit.Locker
	fetchLimiter  *ratelimit.FetchLimiter
	metrics       *obsmetrics.Metrics

	peerWait time.Duration
	peerPoll time.Duration

	group singleflight.Group
}

func New(p Params) domain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("refresh.service"),
		cfg:           p.Cfg.Social,
		clock:         p.Clock,
		rosterRepo:    p.RosterRepo,
		accountRepo:   p.AccountRepo,
		snapshots:     p.Snapshots,
		notifications: p.Notifications,
		registry:      p.Registry,
		locker:        p.Locker,
		fetchLimiter:  p.FetchLimiter,
		metrics:       p.Metrics,
		peerWait:      refreshLockTTL,
		peerPoll:      peerPollInterval,
	}
}

// GetMetrics resolves every requested platform concurrently. Fetch failures
// never fail the whole read: the affected entry degrades to its last stored
// snapshot and is flagged unavailable.
func (s *Service) GetMetrics(ctx context.Context, req domain.GetMetricsRequest) (domain.Report, error) {
	profileID, err := snowflake.ParseString(req.ProfileID)
	if err != nil {
		return nil, domain.ErrInvalidProfileID
	}

	profile, err := s.rosterRepo.FindByID(ctx, s.db, profileID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, domain.ErrProfileNotFound
	}

	accounts, err := s.resolveAccounts(ctx, profileID, req.Platform)
	if err != nil {
		return nil, err
	}

	report := make(domain.Report, len(accounts))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, account := range accounts {
		account := account
		g.Go(func() error {
			entry := s.resolveEntry(gctx, account, req.ForceRefresh)
			mu.Lock()
			report[account.Platform] = entry
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return report, nil
}

// Refresh forces one (profile, platform) pair through the fetch path. Used
// by the background worker; shares the singleflight group with interactive
// reads so the two never double-fetch.
func (s *Service) Refresh(ctx context.Context, profileID snowflake.ID, p platform.Platform) error {
	account, err := s.accountRepo.FindActive(ctx, s.db, profileID, p)
	if err != nil {
		return err
	}
	if account == nil {
		return domain.ErrNotLinked
	}

	_, err = s.refreshOne(ctx, account)
	return err
}

func (s *Service) resolveAccounts(ctx context.Context, profileID snowflake.ID, requested string) ([]*accountdomain.LinkedAccount, error) {
	if requested == "" {
		return s.accountRepo.ListActive(ctx, s.db, profileID)
	}

	p, err := platform.Parse(requested)
	if err != nil {
		return nil, err
	}
	account, err := s.accountRepo.FindActive(ctx, s.db, profileID, p)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, domain.ErrNotLinked
	}
	return []*accountdomain.LinkedAccount{account}, nil
}

// resolveEntry serves from the snapshot cache when fresh, otherwise refreshes
// through singleflight. A failed refresh falls back to the stale snapshot.
func (s *Service) resolveEntry(ctx context.Context, account *accountdomain.LinkedAccount, force bool) domain.Entry {
	entry := domain.Entry{
		Platform: account.Platform,
		Username: account.Username,
	}

	current, err := s.snapshots.Read(ctx, account.ProfileID, account.Platform)
	if err != nil {
		entry.Unavailable = true
		entry.FetchError = err.Error()
		return entry
	}

	stale := s.snapshots.IsStale(current, s.cfg.SnapshotTTL)
	if !force && !stale {
		entry.Snapshot = current
		return entry
	}

	refreshed, err := s.refreshOne(ctx, account)
	if err != nil {
		s.log.Warn("refresh failed, serving last snapshot",
			zap.String("profile_id", account.ProfileID.String()),
			zap.String("platform", account.Platform.String()),
			zap.Error(err),
		)
		entry.Snapshot = current
		entry.Stale = stale
		entry.Unavailable = true
		entry.FetchError = err.Error()
		return entry
	}

	entry.Snapshot = refreshed
	entry.Refreshed = true
	return entry
}

// refreshOne coalesces concurrent refreshes of the same (profile, platform)
// into a single upstream fetch. The fetch itself runs on a context detached
// from the caller so one abandoned request cannot starve the other waiters.
func (s *Service) refreshOne(ctx context.Context, account *accountdomain.LinkedAccount) (*snapshotdomain.MetricSnapshot, error) {
	key := account.ProfileID.String() + "|" + account.Platform.String()

	value, err, shared := s.group.Do(key, func() (any, error) {
		return s.doFetch(context.WithoutCancel(ctx), account)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.metrics.RecordRefreshCoalesced(ctx, account.Platform.String())
		s.log.Debug("refresh coalesced", zap.String("key", key))
	}
	return value.(*snapshotdomain.MetricSnapshot), nil
}

func (s *Service) doFetch(ctx context.Context, account *accountdomain.LinkedAccount) (*snapshotdomain.MetricSnapshot, error) {
	if allowed, err := s.fetchLimiter.Allow(ctx, account.Platform); err != nil {
		s.log.Warn("fetch budget check failed", zap.Error(err))
	} else if !allowed {
		return nil, fetcherdomain.Unavailable(account.Platform, account.Username, errors.New("shared fetch budget exhausted"))
	}

	if s.locker != nil {
		key := "refresh:" + account.ProfileID.String() + ":" + account.Platform.String()
		token, acquired, err := s.locker.TryLock(ctx, key, refreshLockTTL)
		if err != nil {
			s.log.Warn("refresh lock unavailable, proceeding unlocked", zap.Error(err))
		} else if !acquired {
			// Another replica is already fetching; serve whatever it wrote.
			return s.waitForPeer(ctx, account)
		} else {
			defer func() {
				if err := s.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
					s.log.Warn("refresh lock release failed", zap.Error(err))
				}
			}()
		}
	}

	adapter, ok := s.registry.Adapter(account.Platform)
	if !ok {
		return nil, platform.ErrUnsupported
	}

	result, err := adapter.Fetch(ctx, account.Username)
	if err != nil {
		s.metrics.RecordPlatformFetch(ctx, account.Platform.String(), "failure")
		return nil, err
	}
	s.metrics.RecordPlatformFetch(ctx, account.Platform.String(), "success")

	written, err := s.snapshots.Write(ctx, snapshotdomain.WriteRequest{
		ProfileID:  account.ProfileID,
		Platform:   account.Platform,
		Bag:        result.Bag,
		Provenance: result.Provenance,
		FetchedAt:  s.clock.Now(),
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordSnapshotWrite(ctx, account.Platform.String(), string(written.Provenance))

	previous, err := s.snapshots.Previous(ctx, written.AccountID, written.ID)
	if err != nil {
		s.log.Warn("previous snapshot lookup failed, skipping notification rules", zap.Error(err))
	} else if _, err := s.notifications.EvaluateTransition(ctx, previous, written); err != nil {
		s.log.Warn("notification evaluation failed", zap.Error(err))
	}

	return &written, nil
}

// waitForPeer polls briefly for the snapshot the lock-holding replica is
// writing, then settles for the current row. A deadline with no row at all
// is an unavailable fetch, never a nil success.
func (s *Service) waitForPeer(ctx context.Context, account *accountdomain.LinkedAccount) (*snapshotdomain.MetricSnapshot, error) {
	deadline := time.NewTimer(s.peerWait)
	defer deadline.Stop()
	tick := time.NewTicker(s.peerPoll)
	defer tick.Stop()

	before, err := s.snapshots.Read(ctx, account.ProfileID, account.Platform)
	if err != nil {
		return nil, err
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			if before == nil {
				return nil, fetcherdomain.Unavailable(account.Platform, account.Username, errors.New("peer refresh produced no snapshot"))
			}
			return before, nil
		case <-tick.C:
			latest, err := s.snapshots.Read(ctx, account.ProfileID, account.Platform)
			if err != nil {
				return nil, err
			}
			if latest != nil && (before == nil || latest.ID != before.ID) {
				return latest, nil
			}
		}
	}
}
