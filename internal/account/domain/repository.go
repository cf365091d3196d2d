package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stagecast/encore/internal/platform"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, account *LinkedAccount) error
	FindActive(ctx context.Context, db *gorm.DB, profileID snowflake.ID, p platform.Platform) (*LinkedAccount, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*LinkedAccount, error)
	ListActive(ctx context.Context, db *gorm.DB, profileID snowflake.ID) ([]*LinkedAccount, error)
	ListActiveStale(ctx context.Context, db *gorm.DB, staleBefore time.Time, limit int) ([]*LinkedAccount, error)
	Deactivate(ctx context.Context, db *gorm.DB, profileID snowflake.ID, p platform.Platform) error
}
