package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/stagecast/encore/internal/config"
	"github.com/stagecast/encore/internal/fetcher/adapters"
	"github.com/stagecast/encore/internal/fetcher/domain"
	"github.com/stagecast/encore/internal/platform"
	snapshotdomain "github.com/stagecast/encore/internal/snapshot/domain"
	"go.uber.org/zap"
)

type Adapter struct {
	client *resty.Client
	cfg    config.SocialConfig
	log    *zap.Logger
}

func New(client *resty.Client, cfg config.SocialConfig, log *zap.Logger) *Adapter {
	return &Adapter{
		client: client,
		cfg:    cfg,
		log:    log.Named("adapters.youtube"),
	}
}

func (a *Adapter) Platform() platform.Platform {
	return platform.YouTube
}

func (a *Adapter) Fetch(ctx context.Context, username string) (domain.Result, error) {
	tiers := make([]adapters.Tier, 0, 2)
	if a.cfg.YouTubeAPIKey != "" {
		tiers = append(tiers, adapters.Tier{
			Provenance: snapshotdomain.ProvenanceOfficialAPI,
			Run:        func(ctx context.Context) (snapshotdomain.MetricBag, error) { return a.fetchDataAPI(ctx, username) },
		})
	}
	tiers = append(tiers, adapters.Tier{
		Provenance: snapshotdomain.ProvenancePublicScrape,
		Run:        func(ctx context.Context) (snapshotdomain.MetricBag, error) { return a.scrapeChannelPage(ctx, username) },
	})
	return adapters.RunTiers(ctx, a.log, a.Platform(), username, tiers)
}

type channelListResponse struct {
	Items []struct {
		Statistics struct {
			SubscriberCount string `json:"subscriberCount"`
			ViewCount       string `json:"viewCount"`
			VideoCount      string `json:"videoCount"`
		} `json:"statistics"`
	} `json:"items"`
}

func (a *Adapter) fetchDataAPI(ctx context.Context, username string) (snapshotdomain.MetricBag, error) {
	resp, err := a.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"part":      "statistics",
			"forHandle": username,
			"key":       a.cfg.YouTubeAPIKey,
		}).
		Get("https://www.googleapis.com/youtube/v3/channels")
	if err != nil {
		return snapshotdomain.MetricBag{}, err
	}
	if resp.StatusCode() != 200 {
		return snapshotdomain.MetricBag{}, fmt.Errorf("channels.list status %d", resp.StatusCode())
	}

	var payload channelListResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return snapshotdomain.MetricBag{}, err
	}
	if len(payload.Items) == 0 {
		return snapshotdomain.MetricBag{}, fmt.Errorf("channel not found for handle %q", username)
	}

	stats := payload.Items[0].Statistics
	subscribers, err := strconv.ParseInt(stats.SubscriberCount, 10, 64)
	if err != nil {
		return snapshotdomain.MetricBag{}, adapters.ErrNoCount
	}

	metrics := snapshotdomain.SubscriberMetrics{Subscribers: subscribers}
	if views, err := strconv.ParseInt(stats.ViewCount, 10, 64); err == nil {
		metrics.Views = views
	}
	if videos, err := strconv.ParseInt(stats.VideoCount, 10, 64); err == nil {
		metrics.Videos = videos
	}
	return snapshotdomain.NewSubscriberBag(metrics), nil
}

// scrapeChannelPage reads the hydration JSON of the public channel page. The
// subscriber count there is an approximation ("1.2M subscribers").
func (a *Adapter) scrapeChannelPage(ctx context.Context, username string) (snapshotdomain.MetricBag, error) {
	resp, err := a.client.R().
		SetContext(ctx).
		Get("https://www.youtube.com/@" + username + "/about")
	if err != nil {
		return snapshotdomain.MetricBag{}, err
	}
	if resp.StatusCode() != 200 {
		return snapshotdomain.MetricBag{}, fmt.Errorf("channel page status %d", resp.StatusCode())
	}

	page := resp.String()
	raw := adapters.JSONStringField(page, "subscriberCountText")
	if raw == "" {
		// Newer layouts nest the text under simpleText.
		if idx := strings.Index(page, "subscriberCountText"); idx >= 0 {
			raw = adapters.JSONStringField(page[idx:], "simpleText")
		}
	}
	if raw == "" {
		return snapshotdomain.MetricBag{}, adapters.ErrNoCount
	}

	subscribers, err := adapters.CountBefore(raw+" subscribers", "subscribers")
	if err != nil {
		return snapshotdomain.MetricBag{}, err
	}

	metrics := snapshotdomain.SubscriberMetrics{Subscribers: subscribers}
	if videos, ok := adapters.JSONNumberField(page, "videoCount"); ok {
		metrics.Videos = videos
	}
	return snapshotdomain.NewSubscriberBag(metrics), nil
}
