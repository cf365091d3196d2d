package aggregate

import (
	"time"

	refreshdomain "github.com/stagecast/encore/internal/refresh/domain"
)

// Summary is the cross-platform rollup shown at the top of a profile page.
// Audience counts of different kinds (followers, subscribers, monthly
// listeners) are summed into one headline number.
type Summary struct {
	TotalFollowers    int64      `json:"total_followers"`
	AverageEngagement *float64   `json:"average_engagement"`
	PlatformCount     int        `json:"platform_count"`
	LastUpdate        *time.Time `json:"last_update"`
}

// Summarize rolls a report up into a Summary. Entries without a snapshot
// contribute nothing; the average engagement covers only platforms that
// expose an engagement rate. LastUpdate is the most recent fetch time among
// the counted platforms.
func Summarize(report refreshdomain.Report) Summary {
	var summary Summary
	var engagementSum float64
	var engagementCount int

	for _, entry := range report {
		if entry.Snapshot == nil {
			continue
		}

		bag := entry.Snapshot.Metrics()
		summary.TotalFollowers += bag.Audience()
		summary.PlatformCount++

		if rate := bag.Engagement(); rate != nil {
			engagementSum += *rate
			engagementCount++
		}

		fetchedAt := entry.Snapshot.FetchedAt
		if summary.LastUpdate == nil || fetchedAt.After(*summary.LastUpdate) {
			stamp := fetchedAt
			summary.LastUpdate = &stamp
		}
	}

	if engagementCount > 0 {
		average := engagementSum / float64(engagementCount)
		summary.AverageEngagement = &average
	}
	return summary
}
