package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stagecast/encore/internal/platform"
	"gorm.io/datatypes"
)

// Provenance records which data-source tier produced a snapshot.
type Provenance string

const (
	ProvenanceOfficialAPI  Provenance = "official_api"
	ProvenancePublicScrape Provenance = "public_scrape"
	ProvenanceMinimal      Provenance = "minimal"
)

// MetricSnapshot is one immutable, normalized measurement of a linked
// account. Rows are append-only; the current value for a (profile, platform)
// pair is always the most recent row. Corrections are new rows.
type MetricSnapshot struct {
	ID         snowflake.ID                     `gorm:"primaryKey" json:"id"`
	AccountID  snowflake.ID                     `gorm:"not null;index:idx_snapshots_account_fetched" json:"account_id"`
	ProfileID  snowflake.ID                     `gorm:"not null;index" json:"profile_id"`
	Platform   platform.Platform                `gorm:"not null" json:"platform"`
	Provenance Provenance                       `gorm:"not null" json:"provenance"`
	Bag        datatypes.JSONType[MetricBag]    `gorm:"not null" json:"bag"`
	FetchedAt  time.Time                        `gorm:"not null;index:idx_snapshots_account_fetched" json:"fetched_at"`
	CreatedAt  time.Time                        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (MetricSnapshot) TableName() string {
	return "metric_snapshots"
}

// Metrics unwraps the stored bag.
func (s MetricSnapshot) Metrics() MetricBag {
	return s.Bag.Data()
}
