package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
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
		log:    log.Named("adapters.twitter"),
	}
}

func (a *Adapter) Platform() platform.Platform {
	return platform.Twitter
}

func (a *Adapter) Fetch(ctx context.Context, username string) (domain.Result, error) {
	return adapters.RunTiers(ctx, a.log, a.Platform(), username, []adapters.Tier{
		{
			Provenance: snapshotdomain.ProvenanceOfficialAPI,
			Run:        func(ctx context.Context) (snapshotdomain.MetricBag, error) { return a.fetchSyndication(ctx, username) },
		},
		{
			Provenance: snapshotdomain.ProvenancePublicScrape,
			Run:        func(ctx context.Context) (snapshotdomain.MetricBag, error) { return a.scrapeProfilePage(ctx, username) },
		},
	})
}

type syndicationInfo struct {
	FollowersCount int64 `json:"followers_count"`
}

// fetchSyndication uses the follow-button syndication endpoint, the only
// keyless endpoint still returning exact counts.
func (a *Adapter) fetchSyndication(ctx context.Context, username string) (snapshotdomain.MetricBag, error) {
	resp, err := a.client.R().
		SetContext(ctx).
		SetQueryParam("screen_names", username).
		Get("https://cdn.syndication.twimg.com/widgets/followbutton/info.json")
	if err != nil {
		return snapshotdomain.MetricBag{}, err
	}
	if resp.StatusCode() != 200 {
		return snapshotdomain.MetricBag{}, fmt.Errorf("syndication status %d", resp.StatusCode())
	}

	var payload []syndicationInfo
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return snapshotdomain.MetricBag{}, err
	}
	if len(payload) == 0 {
		return snapshotdomain.MetricBag{}, fmt.Errorf("no account for screen name %q", username)
	}

	return snapshotdomain.NewFollowerBag(snapshotdomain.FollowerMetrics{
		Followers: payload[0].FollowersCount,
	}), nil
}

func (a *Adapter) scrapeProfilePage(ctx context.Context, username string) (snapshotdomain.MetricBag, error) {
	resp, err := a.client.R().
		SetContext(ctx).
		Get("https://x.com/" + username)
	if err != nil {
		return snapshotdomain.MetricBag{}, err
	}
	if resp.StatusCode() != 200 {
		return snapshotdomain.MetricBag{}, fmt.Errorf("profile page status %d", resp.StatusCode())
	}

	page := resp.String()
	if followers, ok := adapters.JSONNumberField(page, "followers_count"); ok {
		metrics := snapshotdomain.FollowerMetrics{Followers: followers}
		if following, ok := adapters.JSONNumberField(page, "friends_count"); ok {
			metrics.Following = following
		}
		if posts, ok := adapters.JSONNumberField(page, "statuses_count"); ok {
			metrics.Posts = posts
		}
		return snapshotdomain.NewFollowerBag(metrics), nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return snapshotdomain.MetricBag{}, err
	}
	followers, err := adapters.CountBefore(adapters.MetaContent(doc, "og:description"), "Followers")
	if err != nil {
		return snapshotdomain.MetricBag{}, err
	}
	return snapshotdomain.NewFollowerBag(snapshotdomain.FollowerMetrics{
		Followers: followers,
	}), nil
}
