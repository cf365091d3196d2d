package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stagecast/encore/internal/platform"
)

type WriteRequest struct {
	ProfileID  snowflake.ID
	Platform   platform.Platform
	Bag        MetricBag
	Provenance Provenance
	FetchedAt  time.Time
}

// Service is the metrics cache. Reads return the latest snapshot regardless
// of age; the caller decides what stale means via IsStale.
type Service interface {
	Read(ctx context.Context, profileID snowflake.ID, p platform.Platform) (*MetricSnapshot, error)
	Write(ctx context.Context, req WriteRequest) (MetricSnapshot, error)
	Previous(ctx context.Context, accountID, beforeID snowflake.ID) (*MetricSnapshot, error)
	IsStale(snapshot *MetricSnapshot, ttl time.Duration) bool
}

var (
	ErrNotLinked = errors.New("not_linked")
)
