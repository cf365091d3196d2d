package fetcher

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stagecast/encore/internal/fetcher/domain"
	"github.com/stagecast/encore/internal/platform"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type breakerAdapter struct {
	next    domain.Adapter
	breaker *gobreaker.CircuitBreaker
}

// WithBreaker trips the adapter open after repeated upstream failures so a
// struggling platform does not burn the whole fetch budget.
func WithBreaker(next domain.Adapter, log *zap.Logger) domain.Adapter {
	settings := gobreaker.Settings{
		Name:    next.Platform().String(),
		Timeout: 2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("fetch breaker state change",
				zap.String("platform", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}
	return &breakerAdapter{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

func (a *breakerAdapter) Platform() platform.Platform {
	return a.next.Platform()
}

func (a *breakerAdapter) Fetch(ctx context.Context, username string) (domain.Result, error) {
	value, err := a.breaker.Execute(func() (any, error) {
		return a.next.Fetch(ctx, username)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return domain.Result{}, domain.Unavailable(a.Platform(), username, err)
		}
		return domain.Result{}, err
	}
	return value.(domain.Result), nil
}

type rateLimitedAdapter struct {
	next    domain.Adapter
	limiter *rate.Limiter
}

// WithRateLimit bounds outbound request rate per platform.
func WithRateLimit(next domain.Adapter, limiter *rate.Limiter) domain.Adapter {
	return &rateLimitedAdapter{next: next, limiter: limiter}
}

func (a *rateLimitedAdapter) Platform() platform.Platform {
	return a.next.Platform()
}

func (a *rateLimitedAdapter) Fetch(ctx context.Context, username string) (domain.Result, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return domain.Result{}, domain.Unavailable(a.Platform(), username, err)
	}
	return a.next.Fetch(ctx, username)
}
