package router

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/m3rciful/airdropbot/core/logger"
	tghelpers "github.com/m3rciful/airdropbot/core/telegram/helpers"
	"github.com/m3rciful/airdropbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// Outcome lets a handler report a domain outcome (committed, declined, ...)
// for the summary line instead of the default ok/fail.
func Outcome(c tele.Context, outcome string) {
	c.Set(outcomeKey, outcome)
}

const outcomeKey = "outcome"

// coder is implemented by errors that carry a stable machine readable code.
type coder interface{ Code() string }

// summarize runs fn under handler name and writes one handler.handled line.
func summarize(c tele.Context, name string, fn tele.HandlerFunc) error {
	ctx := tghelpers.WithHandler(c, name)
	start := middleware.StartedAt(c)
	err := fn(c)

	status, outcome := "ok", "ok"
	if err != nil {
		status, outcome = "fail", "fail"
	}
	if o, ok := c.Get(outcomeKey).(string); ok && o != "" {
		outcome = o
	}
	msgs, kb := middleware.Counters(c)
	attrs := []slog.Attr{
		slog.String("status", status),
		slog.String("outcome", outcome),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Duration("duration", logger.Took(start)),
	}
	if err != nil {
		attrs = append(attrs, slog.String("err", logger.SanitizeLimit(err.Error(), 256)))
		var cd coder
		if errors.As(err, &cd) {
			attrs = append(attrs, slog.String("err_code", strings.ToUpper(cd.Code())))
		}
	}
	logger.LogEvent(ctx, logger.TG, slog.LevelInfo, "handler.handled", attrs...)
	return err
}

func handlerName(key string) string {
	key = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(key), "/"))
	if key == "" {
		return "unknown"
	}
	return strings.ReplaceAll(key, " ", "_")
}
