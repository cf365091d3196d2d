package soundcloud

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
		log:    log.Named("adapters.soundcloud"),
	}
}

func (a *Adapter) Platform() platform.Platform {
	return platform.SoundCloud
}

func (a *Adapter) Fetch(ctx context.Context, username string) (domain.Result, error) {
	tiers := make([]adapters.Tier, 0, 3)
	if a.cfg.SoundCloudClientID != "" {
		tiers = append(tiers, adapters.Tier{
			Provenance: snapshotdomain.ProvenanceOfficialAPI,
			Run:        func(ctx context.Context) (snapshotdomain.MetricBag, error) { return a.resolveViaAPI(ctx, username) },
		})
	}
	tiers = append(tiers,
		adapters.Tier{
			Provenance: snapshotdomain.ProvenancePublicScrape,
			Run:        func(ctx context.Context) (snapshotdomain.MetricBag, error) { return a.scrapeProfilePage(ctx, username) },
		},
		adapters.Tier{
			Provenance: snapshotdomain.ProvenanceMinimal,
			Run:        func(ctx context.Context) (snapshotdomain.MetricBag, error) { return a.confirmViaOEmbed(ctx, username) },
		},
	)
	return adapters.RunTiers(ctx, a.log, a.Platform(), username, tiers)
}

type resolveResponse struct {
	FollowersCount int64 `json:"followers_count"`
	LikesCount     int64 `json:"likes_count"`
	PlaylistCount  int64 `json:"playlist_count"`
	TrackCount     int64 `json:"track_count"`
}

func (a *Adapter) resolveViaAPI(ctx context.Context, username string) (snapshotdomain.MetricBag, error) {
	resp, err := a.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"url":       "https://soundcloud.com/" + username,
			"client_id": a.cfg.SoundCloudClientID,
		}).
		Get("https://api-v2.soundcloud.com/resolve")
	if err != nil {
		return snapshotdomain.MetricBag{}, err
	}
	if resp.StatusCode() != 200 {
		return snapshotdomain.MetricBag{}, fmt.Errorf("resolve status %d", resp.StatusCode())
	}

	var payload resolveResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return snapshotdomain.MetricBag{}, err
	}

	return snapshotdomain.NewListenerBag(snapshotdomain.ListenerMetrics{
		MonthlyListeners: payload.FollowersCount,
		Likes:            payload.LikesCount,
		Playlists:        payload.PlaylistCount,
	}), nil
}

// scrapeProfilePage reads the soundcloud:follower_count meta tag present on
// public profile pages.
func (a *Adapter) scrapeProfilePage(ctx context.Context, username string) (snapshotdomain.MetricBag, error) {
	resp, err := a.client.R().
		SetContext(ctx).
		Get("https://soundcloud.com/" + username)
	if err != nil {
		return snapshotdomain.MetricBag{}, err
	}
	if resp.StatusCode() != 200 {
		return snapshotdomain.MetricBag{}, fmt.Errorf("profile page status %d", resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
	if err != nil {
		return snapshotdomain.MetricBag{}, err
	}

	followers, err := adapters.ParseApproxCount(adapters.MetaContent(doc, "soundcloud:follower_count"))
	if err != nil {
		return snapshotdomain.MetricBag{}, err
	}
	return snapshotdomain.NewListenerBag(snapshotdomain.ListenerMetrics{
		MonthlyListeners: followers,
	}), nil
}

func (a *Adapter) confirmViaOEmbed(ctx context.Context, username string) (snapshotdomain.MetricBag, error) {
	resp, err := a.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"url":    "https://soundcloud.com/" + username,
			"format": "json",
		}).
		Get("https://soundcloud.com/oembed")
	if err != nil {
		return snapshotdomain.MetricBag{}, err
	}
	if resp.StatusCode() != 200 {
		return snapshotdomain.MetricBag{}, fmt.Errorf("oembed status %d", resp.StatusCode())
	}
	return snapshotdomain.NewListenerBag(snapshotdomain.ListenerMetrics{}), nil
}
