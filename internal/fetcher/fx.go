package fetcher

import (
	"github.com/go-resty/resty/v2"
	"github.com/stagecast/encore/internal/config"
	"github.com/stagecast/encore/internal/fetcher/adapters/facebook"
	"github.com/stagecast/encore/internal/fetcher/adapters/instagram"
	"github.com/stagecast/encore/internal/fetcher/adapters/soundcloud"
	"github.com/stagecast/encore/internal/fetcher/adapters/spotify"
	"github.com/stagecast/encore/internal/fetcher/adapters/tiktok"
	"github.com/stagecast/encore/internal/fetcher/adapters/twitter"
	"github.com/stagecast/encore/internal/fetcher/adapters/youtube"
	"github.com/stagecast/encore/internal/fetcher/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var Module = fx.Module("fetcher",
	fx.Provide(NewClient),
	fx.Provide(func(client *resty.Client, cfg config.Config, log *zap.Logger) *Registry {
		adapters := []domain.Adapter{
			instagram.New(client, cfg.Social, log),
			tiktok.New(client, cfg.Social, log),
			youtube.New(client, cfg.Social, log),
			spotify.New(client, cfg.Social, log),
			soundcloud.New(client, cfg.Social, log),
			facebook.New(client, cfg.Social, log),
			twitter.New(client, cfg.Social, log),
		}
		wrapped := make([]domain.Adapter, 0, len(adapters))
		for _, adapter := range adapters {
			limiter := rate.NewLimiter(rate.Limit(cfg.Social.FetchRate), cfg.Social.FetchBurst)
			wrapped = append(wrapped, WithRateLimit(WithBreaker(adapter, log), limiter))
		}
		return NewRegistry(wrapped...)
	}),
)
