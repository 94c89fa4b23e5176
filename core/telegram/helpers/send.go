package helpers

import (
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/airdropbot/core/logger"
	"github.com/m3rciful/airdropbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var dispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher installs the dispatcher used by the Send helpers. Passing nil
// makes them send synchronously.
func SetDispatcher(d *sender.Dispatcher) {
	dispatcher.Store(d)
}

func submit(c tele.Context, action string, run func() error) error {
	d := dispatcher.Load()
	if d == nil {
		return run()
	}
	ctx := BuildContext(c)
	_, chatID := IDs(c)
	err := d.Enqueue(ctx, chatID, action, "sendMessage", run)
	if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("action", action),
			logger.Err(err),
		)
		return run()
	}
	return err
}

// SendText sends plain text without a parse mode.
func SendText(c tele.Context, text string, opts ...any) error {
	return submit(c, "send.text", func() error {
		return c.Send(text, opts...)
	})
}

// SendTexts sends each part as its own message, in order.
func SendTexts(c tele.Context, parts []string, opts ...any) error {
	for _, p := range parts {
		if err := SendText(c, p, opts...); err != nil {
			return err
		}
	}
	return nil
}
