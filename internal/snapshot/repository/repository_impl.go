package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/stagecast/encore/internal/snapshot/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, snapshot *domain.MetricSnapshot) error {
	return db.WithContext(ctx).Create(snapshot).Error
}

func (r *repo) FindLatestByAccount(ctx context.Context, db *gorm.DB, accountID snowflake.ID) (*domain.MetricSnapshot, error) {
	var snapshot domain.MetricSnapshot
	err := db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("fetched_at desc, id desc").
		Take(&snapshot).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &snapshot, nil
}

func (r *repo) FindPrevious(ctx context.Context, db *gorm.DB, accountID, beforeID snowflake.ID) (*domain.MetricSnapshot, error) {
	var snapshot domain.MetricSnapshot
	err := db.WithContext(ctx).
		Where("account_id = ? AND id < ?", accountID, beforeID).
		Order("id desc").
		Take(&snapshot).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &snapshot, nil
}
