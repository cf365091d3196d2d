package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertMarker(ctx context.Context, db *gorm.DB, marker *EvaluatedSnapshot) error
	InsertAll(ctx context.Context, db *gorm.DB, notifications []Notification) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Notification, error)
	ListByProfile(ctx context.Context, db *gorm.DB, profileID snowflake.ID, unreadOnly bool, limit int) ([]Notification, error)
	MarkRead(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	MarkAllRead(ctx context.Context, db *gorm.DB, profileID snowflake.ID) error
	Dismiss(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
