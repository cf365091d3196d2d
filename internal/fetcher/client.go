package fetcher

import (
	"github.com/go-resty/resty/v2"
	"github.com/stagecast/encore/internal/config"
)

// NewClient builds the shared outbound HTTP client for platform adapters.
func NewClient(cfg config.Config) *resty.Client {
	return resty.New().
		SetTimeout(cfg.Social.FetchTimeout).
		SetHeader("User-Agent", cfg.Social.UserAgent).
		SetHeader("Accept-Language", "en-US,en;q=0.9").
		SetRetryCount(1)
}
