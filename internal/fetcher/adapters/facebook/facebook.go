package facebook

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

// Adapter covers public facebook pages. There is no key-free official API,
// so the scrape tier is the primary source and the minimal tier only
// confirms the page resolves.
type Adapter struct {
	client *resty.Client
	cfg    config.SocialConfig
	log    *zap.Logger
}

func New(client *resty.Client, cfg config.SocialConfig, log *zap.Logger) *Adapter {
	return &Adapter{
		client: client,
		cfg:    cfg,
		log:    log.Named("adapters.facebook"),
	}
}

func (a *Adapter) Platform() platform.Platform {
	return platform.Facebook
}

func (a *Adapter) Fetch(ctx context.Context, username string) (domain.Result, error) {
	page, err := a.pageHTML(ctx, username)
	if err != nil {
		return domain.Result{}, domain.Unavailable(a.Platform(), username, err)
	}

	return adapters.RunTiers(ctx, a.log, a.Platform(), username, []adapters.Tier{
		{
			Provenance: snapshotdomain.ProvenancePublicScrape,
			Run:        func(ctx context.Context) (snapshotdomain.MetricBag, error) { return parsePageCounts(page) },
		},
		{
			Provenance: snapshotdomain.ProvenanceMinimal,
			Run:        func(ctx context.Context) (snapshotdomain.MetricBag, error) { return confirmPage(page) },
		},
	})
}

func (a *Adapter) pageHTML(ctx context.Context, username string) (string, error) {
	resp, err := a.client.R().
		SetContext(ctx).
		Get("https://www.facebook.com/" + username)
	if err != nil {
		return "", err
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("page status %d", resp.StatusCode())
	}
	return resp.String(), nil
}

// parsePageCounts reads the page meta description, which reads like
// "Artist Name. 1,234,567 likes · 89,012 talking about this.".
func parsePageCounts(page string) (snapshotdomain.MetricBag, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return snapshotdomain.MetricBag{}, err
	}

	description := adapters.MetaContent(doc, "og:description")
	if description == "" {
		description = adapters.MetaContent(doc, "description")
	}
	likes, err := adapters.CountBefore(description, "likes")
	if err != nil {
		// Some pages surface followers instead of likes.
		likes, err = adapters.CountBefore(description, "followers")
	}
	if err != nil {
		return snapshotdomain.MetricBag{}, err
	}

	return snapshotdomain.NewFollowerBag(snapshotdomain.FollowerMetrics{
		Followers: likes,
	}), nil
}

func confirmPage(page string) (snapshotdomain.MetricBag, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return snapshotdomain.MetricBag{}, err
	}
	if adapters.MetaContent(doc, "og:title") == "" {
		return snapshotdomain.MetricBag{}, adapters.ErrNoCount
	}
	return snapshotdomain.NewFollowerBag(snapshotdomain.FollowerMetrics{}), nil
}
