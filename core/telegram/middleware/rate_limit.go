package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/airdropbot/core/logger"
	tghelpers "github.com/m3rciful/airdropbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RateLimiter remembers when each user was last let through.
// Allow is a single check-and-record step: a rejected call leaves the
// stored timestamp untouched.
type RateLimiter struct {
	interval time.Duration
	now      func() time.Time

	mu   sync.Mutex
	last map[int64]time.Time
}

// NewRateLimiter returns a limiter that admits one request per user per interval.
// A non-positive interval admits everything.
func NewRateLimiter(interval time.Duration) *RateLimiter {
	return &RateLimiter{interval: interval, now: time.Now, last: make(map[int64]time.Time)}
}

// Interval returns the configured minimum spacing between requests.
func (l *RateLimiter) Interval() time.Duration {
	return l.interval
}

// Allow reports whether userID may proceed now.
func (l *RateLimiter) Allow(userID int64) bool {
	return l.AllowAt(userID, l.now())
}

// AllowAt is Allow evaluated at the given instant.
func (l *RateLimiter) AllowAt(userID int64, at time.Time) bool {
	if l.interval <= 0 {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if prev, ok := l.last[userID]; ok && at.Sub(prev) < l.interval {
		return false
	}
	l.last[userID] = at
	return true
}

// Prune forgets users whose last accepted request is at least one interval
// older than at. Their next request is admitted either way.
func (l *RateLimiter) Prune(at time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for id, prev := range l.last {
		if at.Sub(prev) >= l.interval {
			delete(l.last, id)
			n++
		}
	}
	return n
}

// Gate is the check-and-record operation used by RateLimitMiddleware.
type Gate interface {
	Allow(userID int64) bool
}

// RateLimitOptions configures RateLimitMiddleware.
type RateLimitOptions struct {
	Gate Gate
	// Exclude lists update kinds (callback, message, inline_query) that bypass the gate.
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
}

func updateKind(u tele.Update) string {
	switch {
	case u.Callback != nil:
		return "callback"
	case u.Message != nil:
		return "message"
	case u.Query != nil:
		return "inline_query"
	}
	return "other"
}

// RateLimitMiddleware drops updates from users that hit the gate and
// answers them with OnLimited instead.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if opts.Gate == nil || user == nil {
				return next(c)
			}
			if _, skip := opts.Exclude[updateKind(c.Update())]; skip {
				return next(c)
			}
			if opts.Gate.Allow(user.ID) {
				return next(c)
			}
			ctx := tghelpers.BuildContext(c)
			logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "tg.rate_limit",
				slog.String("status", "rate_limited"),
			)
			if opts.OnLimited != nil {
				return opts.OnLimited(c)
			}
			return nil
		}
	}
}
