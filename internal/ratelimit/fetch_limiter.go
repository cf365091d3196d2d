package ratelimit

import (
	"context"
	"fmt"

	redis "github.com/redis/go-redis/v9"
	"github.com/stagecast/encore/internal/config"
	"github.com/stagecast/encore/internal/platform"
)

const keyPlatformFetch = "fetch:platform:%s"

// FetchLimiter shares the per-platform outbound fetch budget across
// replicas. A nil limiter (no redis configured) always allows; each replica
// still enforces its own in-process rate.
type FetchLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewFetchLimiter(client *redis.Client, cfg config.Config) *FetchLimiter {
	if client == nil {
		return nil
	}
	return &FetchLimiter{
		bucket: NewTokenBucket(client),
		rate:   cfg.Social.FetchRate,
		burst:  cfg.Social.FetchBurst,
	}
}

func (l *FetchLimiter) Allow(ctx context.Context, p platform.Platform) (bool, error) {
	if l == nil || l.bucket == nil {
		return true, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyPlatformFetch, p), l.rate, l.burst)
}
