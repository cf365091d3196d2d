package aggregate

import (
	"testing"
	"time"

	"github.com/stagecast/encore/internal/platform"
	refreshdomain "github.com/stagecast/encore/internal/refresh/domain"
	snapshotdomain "github.com/stagecast/encore/internal/snapshot/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func entryWith(p platform.Platform, bag snapshotdomain.MetricBag, fetchedAt time.Time) refreshdomain.Entry {
	return refreshdomain.Entry{
		Platform: p,
		Snapshot: &snapshotdomain.MetricSnapshot{
			Platform:  p,
			Bag:       datatypes.NewJSONType(bag),
			FetchedAt: fetchedAt,
		},
	}
}

func TestSummarizeEmptyReport(t *testing.T) {
	summary := Summarize(refreshdomain.Report{})
	assert.Zero(t, summary.TotalFollowers)
	assert.Zero(t, summary.PlatformCount)
	assert.Nil(t, summary.AverageEngagement)
	assert.Nil(t, summary.LastUpdate)
}

func TestSummarizeMixedCategories(t *testing.T) {
	older := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	newer := older.Add(2 * time.Hour)
	igRate := 4.0
	ttRate := 2.0

	report := refreshdomain.Report{
		platform.Instagram: entryWith(platform.Instagram, snapshotdomain.NewFollowerBag(snapshotdomain.FollowerMetrics{
			Followers:      10000,
			EngagementRate: &igRate,
		}), newer),
		platform.TikTok: entryWith(platform.TikTok, snapshotdomain.NewFollowerBag(snapshotdomain.FollowerMetrics{
			Followers:      5000,
			EngagementRate: &ttRate,
		}), older),
		platform.YouTube: entryWith(platform.YouTube, snapshotdomain.NewSubscriberBag(snapshotdomain.SubscriberMetrics{
			Subscribers: 2000,
		}), newer),
		platform.Spotify: entryWith(platform.Spotify, snapshotdomain.NewListenerBag(snapshotdomain.ListenerMetrics{
			MonthlyListeners: 800,
		}), newer),
	}

	summary := Summarize(report)
	assert.Equal(t, int64(17800), summary.TotalFollowers, "followers, subscribers and listeners sum into one headline")
	assert.Equal(t, 4, summary.PlatformCount)

	require.NotNil(t, summary.AverageEngagement, "average covers only platforms exposing a rate")
	assert.InDelta(t, 3.0, *summary.AverageEngagement, 0.001)

	require.NotNil(t, summary.LastUpdate)
	assert.Equal(t, newer, *summary.LastUpdate, "the most recent fetch stamp wins")
}

func TestSummarizeSkipsMissingSnapshots(t *testing.T) {
	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	report := refreshdomain.Report{
		platform.Instagram: entryWith(platform.Instagram, snapshotdomain.NewFollowerBag(snapshotdomain.FollowerMetrics{
			Followers: 3000,
		}), at),
		platform.Twitter: {Platform: platform.Twitter, Unavailable: true},
	}

	summary := Summarize(report)
	assert.Equal(t, int64(3000), summary.TotalFollowers)
	assert.Equal(t, 1, summary.PlatformCount, "entries without a snapshot contribute nothing")
	assert.Nil(t, summary.AverageEngagement)
}
