package adapters

import (
	"context"
	"errors"
	"testing"

	fetcherdomain "github.com/stagecast/encore/internal/fetcher/domain"
	"github.com/stagecast/encore/internal/platform"
	snapshotdomain "github.com/stagecast/encore/internal/snapshot/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRunTiersFirstSuccessWins(t *testing.T) {
	ran := []string{}
	tiers := []Tier{
		{
			Provenance: snapshotdomain.ProvenanceOfficialAPI,
			Run: func(ctx context.Context) (snapshotdomain.MetricBag, error) {
				ran = append(ran, "api")
				return snapshotdomain.MetricBag{}, errors.New("api blocked")
			},
		},
		{
			Provenance: snapshotdomain.ProvenancePublicScrape,
			Run: func(ctx context.Context) (snapshotdomain.MetricBag, error) {
				ran = append(ran, "scrape")
				return snapshotdomain.NewFollowerBag(snapshotdomain.FollowerMetrics{Followers: 100}), nil
			},
		},
		{
			Provenance: snapshotdomain.ProvenanceMinimal,
			Run: func(ctx context.Context) (snapshotdomain.MetricBag, error) {
				ran = append(ran, "minimal")
				return snapshotdomain.MetricBag{}, nil
			},
		},
	}

	result, err := RunTiers(context.Background(), zap.NewNop(), platform.Instagram, "performer", tiers)
	require.NoError(t, err)
	assert.Equal(t, snapshotdomain.ProvenancePublicScrape, result.Provenance)
	assert.Equal(t, int64(100), result.Bag.Audience())
	assert.Equal(t, []string{"api", "scrape"}, ran, "later tiers never run after a success")
}

func TestRunTiersAllFail(t *testing.T) {
	cause := errors.New("blocked")
	tiers := []Tier{
		{
			Provenance: snapshotdomain.ProvenancePublicScrape,
			Run: func(ctx context.Context) (snapshotdomain.MetricBag, error) {
				return snapshotdomain.MetricBag{}, cause
			},
		},
	}

	_, err := RunTiers(context.Background(), zap.NewNop(), platform.TikTok, "performer", tiers)
	require.Error(t, err)
	assert.ErrorIs(t, err, fetcherdomain.ErrUnavailable)

	var unavailable *fetcherdomain.UnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, platform.TikTok, unavailable.Platform)
	assert.Equal(t, "performer", unavailable.Username)
}

func TestRunTiersCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tiers := []Tier{
		{
			Provenance: snapshotdomain.ProvenancePublicScrape,
			Run: func(ctx context.Context) (snapshotdomain.MetricBag, error) {
				t.Fatal("tier must not run on a cancelled context")
				return snapshotdomain.MetricBag{}, nil
			},
		},
	}

	_, err := RunTiers(ctx, zap.NewNop(), platform.Instagram, "performer", tiers)
	assert.ErrorIs(t, err, fetcherdomain.ErrUnavailable)
}
