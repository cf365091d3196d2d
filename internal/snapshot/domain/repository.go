package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, snapshot *MetricSnapshot) error
	FindLatestByAccount(ctx context.Context, db *gorm.DB, accountID snowflake.ID) (*MetricSnapshot, error)
	FindPrevious(ctx context.Context, db *gorm.DB, accountID, beforeID snowflake.ID) (*MetricSnapshot, error)
}
