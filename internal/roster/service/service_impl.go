package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stagecast/encore/internal/roster/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("roster.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateProfileRequest) (domain.Profile, error) {
	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		return domain.Profile{}, domain.ErrInvalidDisplayName
	}

	now := time.Now().UTC()
	profile := domain.Profile{
		ID:          s.genID.Generate(),
		DisplayName: name,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Insert(ctx, s.db, &profile); err != nil {
		return domain.Profile{}, err
	}

	return profile, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetProfileRequest) (domain.Profile, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil || id == 0 {
		return domain.Profile{}, domain.ErrInvalidID
	}

	profile, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Profile{}, err
	}
	if profile == nil {
		return domain.Profile{}, domain.ErrNotFound
	}
	return *profile, nil
}

func (s *Service) List(ctx context.Context, req domain.ListProfilesRequest) ([]domain.Profile, error) {
	limit := int(req.Limit)
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	items, err := s.repo.List(ctx, s.db, limit)
	if err != nil {
		return nil, err
	}

	profiles := make([]domain.Profile, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		profiles = append(profiles, *item)
	}
	return profiles, nil
}
