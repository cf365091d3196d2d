package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/stagecast/encore/internal/notification/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertMarker(ctx context.Context, db *gorm.DB, marker *domain.EvaluatedSnapshot) error {
	return db.WithContext(ctx).Create(marker).Error
}

func (r *repo) InsertAll(ctx context.Context, db *gorm.DB, notifications []domain.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&notifications).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Notification, error) {
	var notification domain.Notification
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Take(&notification).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &notification, nil
}

func (r *repo) ListByProfile(ctx context.Context, db *gorm.DB, profileID snowflake.ID, unreadOnly bool, limit int) ([]domain.Notification, error) {
	query := db.WithContext(ctx).
		Where("profile_id = ? AND dismissed = ?", profileID, false).
		Order("created_at desc, id desc")
	if unreadOnly {
		query = query.Where("read = ?", false)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var notifications []domain.Notification
	if err := query.Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *repo) MarkRead(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("id = ?", id).
		Update("read", true).Error
}

func (r *repo) MarkAllRead(ctx context.Context, db *gorm.DB, profileID snowflake.ID) error {
	return db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("profile_id = ? AND read = ?", profileID, false).
		Update("read", true).Error
}

func (r *repo) Dismiss(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("id = ?", id).
		Update("dismissed", true).Error
}
