package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stagecast/encore/internal/account/domain"
	"github.com/stagecast/encore/internal/cache"
	"github.com/stagecast/encore/internal/platform"
	rosterdomain "github.com/stagecast/encore/internal/roster/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       domain.Repository
	RosterRepo rosterdomain.Repository
	ReadCache  cache.SnapshotReadCache `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       domain.Repository
	rosterRepo rosterdomain.Repository
	readCache  cache.SnapshotReadCache
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("account.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		rosterRepo: p.RosterRepo,
		readCache:  p.ReadCache,
	}
}

// Link records a platform username for a profile. An existing active row for
// the same (profile, platform) is deactivated first so the pair never has two
// active rows; the old row stays behind for audit and snapshot history.
func (s *Service) Link(ctx context.Context, req domain.LinkRequest) (domain.LinkedAccount, error) {
	profileID, err := parseProfileID(req.ProfileID)
	if err != nil {
		return domain.LinkedAccount{}, err
	}

	p, err := platform.Parse(req.Platform)
	if err != nil {
		return domain.LinkedAccount{}, err
	}

	username := platform.NormalizeUsername(req.Username)
	if username == "" {
		return domain.LinkedAccount{}, domain.ErrInvalidUsername
	}

	profile, err := s.rosterRepo.FindByID(ctx, s.db, profileID)
	if err != nil {
		return domain.LinkedAccount{}, err
	}
	if profile == nil {
		return domain.LinkedAccount{}, domain.ErrProfileNotFound
	}

	now := time.Now().UTC()
	account := domain.LinkedAccount{
		ID:        s.genID.Generate(),
		ProfileID: profileID,
		Platform:  p,
		Username:  username,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Deactivate(ctx, tx, profileID, p); err != nil {
			return err
		}
		return s.repo.Insert(ctx, tx, &account)
	})
	if err != nil {
		return domain.LinkedAccount{}, err
	}
	s.invalidateSnapshots(profileID, p)

	s.log.Info("account linked",
		zap.String("profile_id", profileID.String()),
		zap.String("platform", p.String()),
	)
	return account, nil
}

// Unlink deactivates the active row for (profile, platform). A missing active
// row is a no-op, not an error.
func (s *Service) Unlink(ctx context.Context, req domain.UnlinkRequest) error {
	profileID, err := parseProfileID(req.ProfileID)
	if err != nil {
		return err
	}

	p, err := platform.Parse(req.Platform)
	if err != nil {
		return err
	}

	if err := s.repo.Deactivate(ctx, s.db, profileID, p); err != nil {
		return err
	}
	s.invalidateSnapshots(profileID, p)
	return nil
}

// invalidateSnapshots drops the cached snapshot for (profile, platform) so a
// read after a link change never serves the previous account's metrics.
func (s *Service) invalidateSnapshots(profileID snowflake.ID, p platform.Platform) {
	if s.readCache == nil {
		return
	}
	s.readCache.Invalidate(profileID.String(), p.String())
}

func (s *Service) ListLinked(ctx context.Context, req domain.ListLinkedRequest) ([]domain.LinkedAccount, error) {
	profileID, err := parseProfileID(req.ProfileID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.ListActive(ctx, s.db, profileID)
	if err != nil {
		return nil, err
	}

	accounts := make([]domain.LinkedAccount, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		accounts = append(accounts, *item)
	}
	return accounts, nil
}

func parseProfileID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidProfileID
	}
	return id, nil
}
