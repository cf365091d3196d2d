package cache

import (
	"strings"
	"time"

	snapshotdomain "github.com/stagecast/encore/internal/snapshot/domain"
)

const defaultSnapshotReadTTL = 30 * time.Second

// SnapshotReadCache keeps the latest snapshot per (profile, platform) hot so
// dashboard polling does not hit the database on every read. It is a read
// accelerator only; the database stays the source of truth.
type SnapshotReadCache interface {
	Get(profileID, platformID string) (*snapshotdomain.MetricSnapshot, bool)
	Set(profileID, platformID string, snapshot *snapshotdomain.MetricSnapshot)
	Invalidate(profileID, platformID string)
}

type snapshotReadCache struct {
	snapshots Cache[string, *snapshotdomain.MetricSnapshot]
	ttl       time.Duration
}

// NewSnapshotReadCache returns an in-memory cache tuned for metric reads.
func NewSnapshotReadCache() SnapshotReadCache {
	return &snapshotReadCache{
		snapshots: NewTTLCache[string, *snapshotdomain.MetricSnapshot](),
		ttl:       defaultSnapshotReadTTL,
	}
}

func (c *snapshotReadCache) Get(profileID, platformID string) (*snapshotdomain.MetricSnapshot, bool) {
	return c.snapshots.Get(cacheKey(profileID, platformID))
}

func (c *snapshotReadCache) Set(profileID, platformID string, snapshot *snapshotdomain.MetricSnapshot) {
	if snapshot == nil {
		return
	}
	c.snapshots.Set(cacheKey(profileID, platformID), snapshot, c.ttl)
}

func (c *snapshotReadCache) Invalidate(profileID, platformID string) {
	c.snapshots.Delete(cacheKey(profileID, platformID))
}

func cacheKey(parts ...string) string {
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		values = append(values, strings.ToLower(trimmed))
	}
	return strings.Join(values, "|")
}
