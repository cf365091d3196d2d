package domain

import (
	"github.com/stagecast/encore/internal/platform"
)

// PostStat is a compact view of one public post used for engagement context.
type PostStat struct {
	URL      string `json:"url,omitempty"`
	Likes    int64  `json:"likes"`
	Comments int64  `json:"comments"`
}

// FollowerMetrics is the shape exposed by Instagram, TikTok, Facebook and
// Twitter. Absent fields normalize to zero/nil, never to missing keys.
type FollowerMetrics struct {
	Followers      int64      `json:"followers"`
	Following      int64      `json:"following"`
	Posts          int64      `json:"posts"`
	EngagementRate *float64   `json:"engagement_rate"`
	RecentPosts    []PostStat `json:"recent_posts"`
	TopPost        *PostStat  `json:"top_post"`
}

// SubscriberMetrics is the YouTube shape.
type SubscriberMetrics struct {
	Subscribers int64 `json:"subscribers"`
	Views       int64 `json:"views"`
	Videos      int64 `json:"videos"`
}

// ListenerMetrics is the Spotify/SoundCloud shape.
type ListenerMetrics struct {
	MonthlyListeners int64 `json:"monthly_listeners"`
	Plays            int64 `json:"plays"`
	Streams          int64 `json:"streams"`
	Likes            int64 `json:"likes"`
	Playlists        int64 `json:"playlists"`
}

// MetricBag is the normalized measurement for one platform, tagged by
// category so consumers can switch exhaustively instead of probing
// optional fields.
type MetricBag struct {
	Category   platform.Category  `json:"category"`
	Follower   *FollowerMetrics   `json:"follower,omitempty"`
	Subscriber *SubscriberMetrics `json:"subscriber,omitempty"`
	Listener   *ListenerMetrics   `json:"listener,omitempty"`
}

// NewFollowerBag builds a follower-category bag, filling absent sub-structs.
func NewFollowerBag(m FollowerMetrics) MetricBag {
	if m.RecentPosts == nil {
		m.RecentPosts = []PostStat{}
	}
	return MetricBag{Category: platform.CategoryFollower, Follower: &m}
}

func NewSubscriberBag(m SubscriberMetrics) MetricBag {
	return MetricBag{Category: platform.CategorySubscriber, Subscriber: &m}
}

func NewListenerBag(m ListenerMetrics) MetricBag {
	return MetricBag{Category: platform.CategoryListener, Listener: &m}
}

// Audience returns the follower-equivalent headline number for the bag.
func (b MetricBag) Audience() int64 {
	switch b.Category {
	case platform.CategoryFollower:
		if b.Follower != nil {
			return b.Follower.Followers
		}
	case platform.CategorySubscriber:
		if b.Subscriber != nil {
			return b.Subscriber.Subscribers
		}
	case platform.CategoryListener:
		if b.Listener != nil {
			return b.Listener.MonthlyListeners
		}
	}
	return 0
}

// Engagement returns the engagement rate where the platform exposes one.
func (b MetricBag) Engagement() *float64 {
	if b.Category == platform.CategoryFollower && b.Follower != nil {
		return b.Follower.EngagementRate
	}
	return nil
}
