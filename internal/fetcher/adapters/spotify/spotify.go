package spotify

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

// Adapter reads artist pages by spotify artist id, which is what gets
// linked as the account username for this platform.
type Adapter struct {
	client *resty.Client
	cfg    config.SocialConfig
	log    *zap.Logger
}

func New(client *resty.Client, cfg config.SocialConfig, log *zap.Logger) *Adapter {
	return &Adapter{
		client: client,
		cfg:    cfg,
		log:    log.Named("adapters.spotify"),
	}
}

func (a *Adapter) Platform() platform.Platform {
	return platform.Spotify
}

func (a *Adapter) Fetch(ctx context.Context, username string) (domain.Result, error) {
	return adapters.RunTiers(ctx, a.log, a.Platform(), username, []adapters.Tier{
		{
			Provenance: snapshotdomain.ProvenancePublicScrape,
			Run:        func(ctx context.Context) (snapshotdomain.MetricBag, error) { return a.scrapeArtistPage(ctx, username) },
		},
		{
			Provenance: snapshotdomain.ProvenanceMinimal,
			Run:        func(ctx context.Context) (snapshotdomain.MetricBag, error) { return a.confirmViaOEmbed(ctx, username) },
		},
	})
}

// scrapeArtistPage reads the public artist page meta description, which
// carries "Artist · 12.3M monthly listeners.".
func (a *Adapter) scrapeArtistPage(ctx context.Context, username string) (snapshotdomain.MetricBag, error) {
	resp, err := a.client.R().
		SetContext(ctx).
		Get("https://open.spotify.com/artist/" + username)
	if err != nil {
		return snapshotdomain.MetricBag{}, err
	}
	if resp.StatusCode() != 200 {
		return snapshotdomain.MetricBag{}, fmt.Errorf("artist page status %d", resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
	if err != nil {
		return snapshotdomain.MetricBag{}, err
	}

	description := adapters.MetaContent(doc, "og:description")
	if description == "" {
		description = adapters.MetaContent(doc, "description")
	}
	listeners, err := adapters.CountBefore(description, "monthly listeners")
	if err != nil {
		return snapshotdomain.MetricBag{}, err
	}

	return snapshotdomain.NewListenerBag(snapshotdomain.ListenerMetrics{
		MonthlyListeners: listeners,
	}), nil
}

// confirmViaOEmbed proves the artist exists when the page scrape yields no
// count, producing a zero-count minimal record rather than an outage.
func (a *Adapter) confirmViaOEmbed(ctx context.Context, username string) (snapshotdomain.MetricBag, error) {
	resp, err := a.client.R().
		SetContext(ctx).
		SetQueryParam("url", "https://open.spotify.com/artist/"+username).
		Get("https://open.spotify.com/oembed")
	if err != nil {
		return snapshotdomain.MetricBag{}, err
	}
	if resp.StatusCode() != 200 {
		return snapshotdomain.MetricBag{}, fmt.Errorf("oembed status %d", resp.StatusCode())
	}
	return snapshotdomain.NewListenerBag(snapshotdomain.ListenerMetrics{}), nil
}
