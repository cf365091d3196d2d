package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stagecast/encore/internal/platform"
)

type Category string

const (
	CategoryMilestone   Category = "milestone"
	CategoryGrowth      Category = "growth"
	CategoryImprovement Category = "improvement"
	CategoryWarning     Category = "warning"
)

type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Notification is an agent-facing alert derived from a snapshot transition.
type Notification struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	ProfileID  snowflake.ID      `gorm:"not null;index" json:"profile_id"`
	AccountID  snowflake.ID      `gorm:"not null" json:"account_id"`
	SnapshotID snowflake.ID      `gorm:"not null" json:"snapshot_id"`
	Platform   platform.Platform `gorm:"not null" json:"platform"`
	Category   Category          `gorm:"not null" json:"category"`
	Priority   Priority          `gorm:"not null;default:normal" json:"priority"`
	Message    string            `gorm:"not null" json:"message"`
	Read       bool              `gorm:"not null;default:false" json:"read"`
	Dismissed  bool              `gorm:"not null;default:false" json:"dismissed"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

// EvaluatedSnapshot marks a snapshot whose transition rules have already run.
// The unique snapshot id makes evaluation exactly-once across replicas.
type EvaluatedSnapshot struct {
	SnapshotID snowflake.ID `gorm:"primaryKey" json:"snapshot_id"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (EvaluatedSnapshot) TableName() string {
	return "evaluated_snapshots"
}
