package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stagecast/encore/internal/account/domain"
	"github.com/stagecast/encore/internal/platform"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, account *domain.LinkedAccount) error {
	return db.WithContext(ctx).Create(account).Error
}

func (r *repo) FindActive(ctx context.Context, db *gorm.DB, profileID snowflake.ID, p platform.Platform) (*domain.LinkedAccount, error) {
	var account domain.LinkedAccount
	err := db.WithContext(ctx).
		Where("profile_id = ? AND platform = ? AND active = ?", profileID, p, true).
		Take(&account).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.LinkedAccount, error) {
	var account domain.LinkedAccount
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Take(&account).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *repo) ListActive(ctx context.Context, db *gorm.DB, profileID snowflake.ID) ([]*domain.LinkedAccount, error) {
	var accounts []*domain.LinkedAccount
	err := db.WithContext(ctx).
		Where("profile_id = ? AND active = ?", profileID, true).
		Order("platform asc").
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

// ListActiveStale returns active accounts whose latest snapshot predates
// staleBefore, or which have no snapshot at all. Feeds the refresh worker.
func (r *repo) ListActiveStale(ctx context.Context, db *gorm.DB, staleBefore time.Time, limit int) ([]*domain.LinkedAccount, error) {
	var accounts []*domain.LinkedAccount
	err := db.WithContext(ctx).Raw(
		`SELECT la.*
		 FROM linked_accounts la
		 LEFT JOIN (
		   SELECT account_id, MAX(fetched_at) AS last_fetched_at
		   FROM metric_snapshots
		   GROUP BY account_id
		 ) ms ON ms.account_id = la.id
		 WHERE la.active = ?
		   AND (ms.last_fetched_at IS NULL OR ms.last_fetched_at < ?)
		 ORDER BY ms.last_fetched_at ASC
		 LIMIT ?`,
		true,
		staleBefore,
		limit,
	).Scan(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *repo) Deactivate(ctx context.Context, db *gorm.DB, profileID snowflake.ID, p platform.Platform) error {
	return db.WithContext(ctx).
		Model(&domain.LinkedAccount{}).
		Where("profile_id = ? AND platform = ? AND active = ?", profileID, p, true).
		Updates(map[string]any{
			"active":     false,
			"updated_at": time.Now().UTC(),
		}).Error
}
