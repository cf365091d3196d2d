package adapters

import (
	"context"

	"github.com/stagecast/encore/internal/fetcher/domain"
	"github.com/stagecast/encore/internal/platform"
	snapshotdomain "github.com/stagecast/encore/internal/snapshot/domain"
	"go.uber.org/zap"
)

// Tier is one data source attempt in an adapter's fixed priority order.
type Tier struct {
	Provenance snapshotdomain.Provenance
	Run        func(ctx context.Context) (snapshotdomain.MetricBag, error)
}

// RunTiers walks the tiers in order and returns the first success together
// with its provenance. When every tier fails the result is an
// UnavailableError carrying the last cause.
func RunTiers(ctx context.Context, log *zap.Logger, p platform.Platform, username string, tiers []Tier) (domain.Result, error) {
	var lastErr error
	for _, tier := range tiers {
		if err := ctx.Err(); err != nil {
			return domain.Result{}, domain.Unavailable(p, username, err)
		}

		bag, err := tier.Run(ctx)
		if err != nil {
			lastErr = err
			log.Debug("fetch tier failed",
				zap.String("platform", p.String()),
				zap.String("username", username),
				zap.String("tier", string(tier.Provenance)),
				zap.Error(err),
			)
			continue
		}
		return domain.Result{Bag: bag, Provenance: tier.Provenance}, nil
	}
	return domain.Result{}, domain.Unavailable(p, username, lastErr)
}
