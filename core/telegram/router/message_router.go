package router

import (
	"strings"

	tg "github.com/m3rciful/airdropbot/core/telegram"
	"github.com/m3rciful/airdropbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// Flow is a multi-step conversation that owns a user's free text while active.
type Flow interface {
	Active(userID int64) bool
	Handle(c tele.Context) error
}

// TextOptions configures TextRoutes.
type TextOptions struct {
	CommandOptions
	// UnknownCommand answers slash commands that are not registered.
	UnknownCommand tele.HandlerFunc
}

// TextRoutes routes free text. Slash commands never reach the flow: known ones
// run their handler, unknown ones go to UnknownCommand. Other text goes to
// the flow when it is active for the sender and to the registry fallback otherwise.
func TextRoutes(flow Flow, reg *tg.Registry, opts TextOptions) []tg.Route {
	guard := middleware.AdminOnly(opts.AdminID, opts.OnAdminReject)
	handler := func(c tele.Context) error {
		text := strings.TrimSpace(c.Text())
		if strings.HasPrefix(text, "/") {
			name, _, _ := strings.Cut(text, " ")
			if reg != nil {
				if key, cmd, ok := reg.Lookup(name); ok {
					h := cmd.Handler
					if cmd.AdminOnly {
						h = guard(h)
					}
					return summarize(c, handlerName(key), h)
				}
			}
			if opts.UnknownCommand != nil {
				return summarize(c, "unknown_command", opts.UnknownCommand)
			}
			return nil
		}
		if u := c.Sender(); flow != nil && u != nil && flow.Active(u.ID) {
			return summarize(c, "form", flow.Handle)
		}
		if reg != nil && reg.TextFallback() != nil {
			return summarize(c, "fallback", reg.TextFallback())
		}
		return nil
	}
	return []tg.Route{{Endpoint: tele.OnText, Handler: handler}}
}
