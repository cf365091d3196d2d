package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/stagecast/encore/internal/account/domain"
	"github.com/stagecast/encore/internal/cache"
	"github.com/stagecast/encore/internal/clock"
	"github.com/stagecast/encore/internal/platform"
	"github.com/stagecast/encore/internal/snapshot/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	AccountRepo accountdomain.Repository
	ReadCache   cache.SnapshotReadCache `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	accountRepo accountdomain.Repository
	readCache   cache.SnapshotReadCache
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("snapshot.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		accountRepo: p.AccountRepo,
		readCache:   p.ReadCache,
	}
}

// Read returns the latest snapshot for (profile, platform) regardless of its
// age, or nil when none exists. Staleness is the caller's decision.
func (s *Service) Read(ctx context.Context, profileID snowflake.ID, p platform.Platform) (*domain.MetricSnapshot, error) {
	if s.readCache != nil {
		if cached, ok := s.readCache.Get(profileID.String(), p.String()); ok {
			return cached, nil
		}
	}

	account, err := s.accountRepo.FindActive(ctx, s.db, profileID, p)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, nil
	}

	snapshot, err := s.repo.FindLatestByAccount(ctx, s.db, account.ID)
	if err != nil {
		return nil, err
	}

	if snapshot != nil && s.readCache != nil {
		s.readCache.Set(profileID.String(), p.String(), snapshot)
	}
	return snapshot, nil
}

// Write appends a new immutable snapshot. The row is inserted fully formed
// and only published to the read cache after the insert commits, so readers
// never observe a partial snapshot.
func (s *Service) Write(ctx context.Context, req domain.WriteRequest) (domain.MetricSnapshot, error) {
	account, err := s.accountRepo.FindActive(ctx, s.db, req.ProfileID, req.Platform)
	if err != nil {
		return domain.MetricSnapshot{}, err
	}
	if account == nil {
		return domain.MetricSnapshot{}, domain.ErrNotLinked
	}

	fetchedAt := req.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = s.clock.Now()
	}

	snapshot := domain.MetricSnapshot{
		ID:         s.genID.Generate(),
		AccountID:  account.ID,
		ProfileID:  req.ProfileID,
		Platform:   req.Platform,
		Provenance: req.Provenance,
		Bag:        datatypes.NewJSONType(req.Bag),
		FetchedAt:  fetchedAt.UTC(),
		CreatedAt:  s.clock.Now(),
	}

	if err := s.repo.Insert(ctx, s.db, &snapshot); err != nil {
		return domain.MetricSnapshot{}, err
	}

	if s.readCache != nil {
		s.readCache.Set(req.ProfileID.String(), req.Platform.String(), &snapshot)
	}
	return snapshot, nil
}

func (s *Service) Previous(ctx context.Context, accountID, beforeID snowflake.ID) (*domain.MetricSnapshot, error) {
	return s.repo.FindPrevious(ctx, s.db, accountID, beforeID)
}

// IsStale reports whether the snapshot is older than ttl. A snapshot exactly
// ttl old is still fresh.
func (s *Service) IsStale(snapshot *domain.MetricSnapshot, ttl time.Duration) bool {
	if snapshot == nil {
		return true
	}
	if ttl <= 0 {
		return false
	}
	return s.clock.Now().Sub(snapshot.FetchedAt) > ttl
}
