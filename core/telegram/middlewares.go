package telegram

import (
	"time"

	coreconfig "github.com/m3rciful/airdropbot/core/config"
	"github.com/m3rciful/airdropbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// DefaultMiddlewares returns the global chain: panic recovery, request
// context, the rate limit gate, then message counters. The gate is omitted
// when limiter is nil.
func DefaultMiddlewares(cfg *coreconfig.Config, limiter middleware.Gate, onLimited tele.HandlerFunc) []Middleware {
	mws := []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
		{Name: "logger", Use: middleware.LoggerMiddleware},
	}
	if limiter != nil {
		exclude := map[string]struct{}{}
		if cfg != nil {
			for _, kind := range cfg.RateLimit.ExcludeUpdates {
				exclude[kind] = struct{}{}
			}
		}
		mws = append(mws, Middleware{
			Name: "rate_limit",
			Use: middleware.RateLimitMiddleware(middleware.RateLimitOptions{
				Gate:      limiter,
				Exclude:   exclude,
				OnLimited: onLimited,
			}),
		})
	}
	return append(mws, Middleware{Name: "metrics", Use: middleware.MessageMetricsMiddleware})
}

// RateLimitInterval converts the configured interval. Zero or negative means disabled.
func RateLimitInterval(cfg *coreconfig.Config) time.Duration {
	if cfg == nil || cfg.RateLimit.IntervalMS <= 0 {
		return 0
	}
	return time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond
}
