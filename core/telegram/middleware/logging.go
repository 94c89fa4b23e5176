package middleware

import (
	"log/slog"
	"time"

	"github.com/m3rciful/airdropbot/core/logger"
	tghelpers "github.com/m3rciful/airdropbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

const startedKey = "update_start"

// LoggerMiddleware attaches the request context and logs a sampled receipt line.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		c.Set(startedKey, time.Now())
		ctx := tghelpers.BuildContext(c)
		if logger.ShouldSampleDebug() {
			attrs := []slog.Attr{slog.String("status", "ok")}
			if ch := c.Chat(); ch != nil {
				attrs = append(attrs, slog.String("chat_type", string(ch.Type)))
			}
			if u := c.Sender(); u != nil && u.Username != "" {
				attrs = append(attrs, slog.String("username", logger.SanitizeLimit(u.Username, 64)))
			}
			if t := c.Text(); t != "" {
				attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 256)))
			}
			logger.LogEvent(ctx, logger.TG, slog.LevelDebug, "update.received", attrs...)
		}
		return next(c)
	}
}

// StartedAt returns when LoggerMiddleware saw the update, or now.
func StartedAt(c tele.Context) time.Time {
	if t, ok := c.Get(startedKey).(time.Time); ok {
		return t
	}
	return time.Now()
}
