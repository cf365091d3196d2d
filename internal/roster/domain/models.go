package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Profile is a performer managed by the agency. The wider console owns its
// lifecycle; this subsystem only reads it and hangs linked accounts off it.
type Profile struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	DisplayName string       `gorm:"not null" json:"display_name"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}
