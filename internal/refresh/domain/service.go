package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/stagecast/encore/internal/platform"
	snapshotdomain "github.com/stagecast/encore/internal/snapshot/domain"
)

// Entry is the per-platform outcome of one metrics read: the snapshot served
// (possibly stale, possibly nil) plus how it got there.
type Entry struct {
	Platform    platform.Platform              `json:"platform"`
	Username    string                         `json:"username"`
	Snapshot    *snapshotdomain.MetricSnapshot `json:"snapshot"`
	Stale       bool                           `json:"stale"`
	Refreshed   bool                           `json:"refreshed"`
	Unavailable bool                           `json:"unavailable"`
	FetchError  string                         `json:"fetch_error,omitempty"`
}

// Report maps each linked platform to its entry.
type Report map[platform.Platform]Entry

type GetMetricsRequest struct {
	ProfileID    string
	Platform     string // empty means every linked platform
	ForceRefresh bool
}

// Service orchestrates reads through the snapshot cache, refreshing stale or
// force-refreshed entries from the platform adapters. Concurrent refreshes of
// the same (profile, platform) coalesce into one upstream fetch; a failed
// fetch degrades to the last stored snapshot instead of an error.
type Service interface {
	GetMetrics(ctx context.Context, req GetMetricsRequest) (Report, error)
	Refresh(ctx context.Context, profileID snowflake.ID, p platform.Platform) error
}

var (
	ErrInvalidProfileID = errors.New("invalid_profile_id")
	ErrProfileNotFound  = errors.New("profile_not_found")
	ErrNotLinked        = errors.New("not_linked")
)
