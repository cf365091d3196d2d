package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/stagecast/encore/internal/roster/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, profile *domain.Profile) error {
	return db.WithContext(ctx).Create(profile).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Profile, error) {
	var profile domain.Profile
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Take(&profile).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, limit int) ([]*domain.Profile, error) {
	var profiles []*domain.Profile
	err := db.WithContext(ctx).
		Order("display_name asc, id asc").
		Limit(limit).
		Find(&profiles).Error
	if err != nil {
		return nil, err
	}
	return profiles, nil
}
