package tiktok

import (
	"context"
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
		log:    log.Named("adapters.tiktok"),
	}
}

func (a *Adapter) Platform() platform.Platform {
	return platform.TikTok
}

func (a *Adapter) Fetch(ctx context.Context, username string) (domain.Result, error) {
	page, err := a.profilePage(ctx, username)
	if err != nil {
		return domain.Result{}, domain.Unavailable(a.Platform(), username, err)
	}

	return adapters.RunTiers(ctx, a.log, a.Platform(), username, []adapters.Tier{
		{
			Provenance: snapshotdomain.ProvenancePublicScrape,
			Run:        func(ctx context.Context) (snapshotdomain.MetricBag, error) { return parseRehydrationState(page) },
		},
		{
			Provenance: snapshotdomain.ProvenancePublicScrape,
			Run:        func(ctx context.Context) (snapshotdomain.MetricBag, error) { return parseMetaTags(page) },
		},
	})
}

func (a *Adapter) profilePage(ctx context.Context, username string) (string, error) {
	resp, err := a.client.R().
		SetContext(ctx).
		Get("https://www.tiktok.com/@" + username)
	if err != nil {
		return "", err
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("profile page status %d", resp.StatusCode())
	}
	return resp.String(), nil
}

// parseRehydrationState reads the stats out of the SIGI/universal-data JSON
// blob the profile page embeds for hydration.
func parseRehydrationState(page string) (snapshotdomain.MetricBag, error) {
	followers, ok := adapters.JSONNumberField(page, "followerCount")
	if !ok {
		return snapshotdomain.MetricBag{}, adapters.ErrNoCount
	}

	metrics := snapshotdomain.FollowerMetrics{Followers: followers}
	if following, ok := adapters.JSONNumberField(page, "followingCount"); ok {
		metrics.Following = following
	}
	if videos, ok := adapters.JSONNumberField(page, "videoCount"); ok {
		metrics.Posts = videos
	}
	return snapshotdomain.NewFollowerBag(metrics), nil
}

// parseMetaTags falls back to the og:description, which reads like
// "12.3K Followers, 456 Following, 7.8M Likes".
func parseMetaTags(page string) (snapshotdomain.MetricBag, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return snapshotdomain.MetricBag{}, err
	}

	description := adapters.MetaContent(doc, "og:description")
	followers, err := adapters.CountBefore(description, "Followers")
	if err != nil {
		return snapshotdomain.MetricBag{}, err
	}

	metrics := snapshotdomain.FollowerMetrics{Followers: followers}
	if following, err := adapters.CountBefore(description, "Following"); err == nil {
		metrics.Following = following
	}
	return snapshotdomain.NewFollowerBag(metrics), nil
}
