package instagram

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

// Web app id published in every instagram.com page; required by the
// web_profile_info endpoint.
const webAppID = "936619743392459"

type Adapter struct {
	client *resty.Client
	cfg    config.SocialConfig
	log    *zap.Logger
}

func New(client *resty.Client, cfg config.SocialConfig, log *zap.Logger) *Adapter {
	return &Adapter{
		client: client,
		cfg:    cfg,
		log:    log.Named("adapters.instagram"),
	}
}

func (a *Adapter) Platform() platform.Platform {
	return platform.Instagram
}

func (a *Adapter) Fetch(ctx context.Context, username string) (domain.Result, error) {
	return adapters.RunTiers(ctx, a.log, a.Platform(), username, []adapters.Tier{
		{
			Provenance: snapshotdomain.ProvenanceOfficialAPI,
			Run:        func(ctx context.Context) (snapshotdomain.MetricBag, error) { return a.fetchWebProfile(ctx, username) },
		},
		{
			Provenance: snapshotdomain.ProvenancePublicScrape,
			Run:        func(ctx context.Context) (snapshotdomain.MetricBag, error) { return a.scrapeProfilePage(ctx, username) },
		},
	})
}

type webProfileResponse struct {
	Data struct {
		User struct {
			EdgeFollowedBy struct {
				Count int64 `json:"count"`
			} `json:"edge_followed_by"`
			EdgeFollow struct {
				Count int64 `json:"count"`
			} `json:"edge_follow"`
			EdgeOwnerToTimelineMedia struct {
				Count int64 `json:"count"`
				Edges []struct {
					Node struct {
						Shortcode   string `json:"shortcode"`
						EdgeLikedBy struct {
							Count int64 `json:"count"`
						} `json:"edge_liked_by"`
						EdgeMediaToComment struct {
							Count int64 `json:"count"`
						} `json:"edge_media_to_comment"`
					} `json:"node"`
				} `json:"edges"`
			} `json:"edge_owner_to_timeline_media"`
		} `json:"user"`
	} `json:"data"`
}

func (a *Adapter) fetchWebProfile(ctx context.Context, username string) (snapshotdomain.MetricBag, error) {
	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("X-IG-App-ID", webAppID).
		SetQueryParam("username", username).
		Get("https://i.instagram.com/api/v1/users/web_profile_info/")
	if err != nil {
		return snapshotdomain.MetricBag{}, err
	}
	if resp.StatusCode() != 200 {
		return snapshotdomain.MetricBag{}, fmt.Errorf("web_profile_info status %d", resp.StatusCode())
	}

	var payload webProfileResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return snapshotdomain.MetricBag{}, err
	}

	user := payload.Data.User
	metrics := snapshotdomain.FollowerMetrics{
		Followers: user.EdgeFollowedBy.Count,
		Following: user.EdgeFollow.Count,
		Posts:     user.EdgeOwnerToTimelineMedia.Count,
	}

	var top *snapshotdomain.PostStat
	var interactions int64
	for _, edge := range user.EdgeOwnerToTimelineMedia.Edges {
		post := snapshotdomain.PostStat{
			URL:      "https://www.instagram.com/p/" + edge.Node.Shortcode + "/",
			Likes:    edge.Node.EdgeLikedBy.Count,
			Comments: edge.Node.EdgeMediaToComment.Count,
		}
		metrics.RecentPosts = append(metrics.RecentPosts, post)
		interactions += post.Likes + post.Comments
		if top == nil || post.Likes > top.Likes {
			clone := post
			top = &clone
		}
	}
	metrics.TopPost = top

	if count := int64(len(metrics.RecentPosts)); count > 0 && metrics.Followers > 0 {
		rate := float64(interactions) / float64(count) / float64(metrics.Followers) * 100
		metrics.EngagementRate = &rate
	}

	return snapshotdomain.NewFollowerBag(metrics), nil
}

// scrapeProfilePage falls back to the public og:description, which carries
// "1,234 Followers, 56 Following, 78 Posts".
func (a *Adapter) scrapeProfilePage(ctx context.Context, username string) (snapshotdomain.MetricBag, error) {
	resp, err := a.client.R().
		SetContext(ctx).
		Get("https://www.instagram.com/" + username + "/")
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

	description := adapters.MetaContent(doc, "og:description")
	followers, err := adapters.CountBefore(description, "Followers")
	if err != nil {
		return snapshotdomain.MetricBag{}, err
	}

	metrics := snapshotdomain.FollowerMetrics{Followers: followers}
	if following, err := adapters.CountBefore(description, "Following"); err == nil {
		metrics.Following = following
	}
	if posts, err := adapters.CountBefore(description, "Posts"); err == nil {
		metrics.Posts = posts
	}
	return snapshotdomain.NewFollowerBag(metrics), nil
}
