package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stagecast/encore/internal/platform"
)

// LinkedAccount associates a profile with a username on one platform.
// Rows are never hard-deleted; unlinking flips Active so historical
// snapshots keep a valid owner.
type LinkedAccount struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	ProfileID snowflake.ID      `gorm:"not null;index:idx_linked_accounts_profile" json:"profile_id"`
	Platform  platform.Platform `gorm:"not null;index:idx_linked_accounts_profile" json:"platform"`
	Username  string            `gorm:"not null" json:"username"`
	Active    bool              `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (LinkedAccount) TableName() string {
	return "linked_accounts"
}
