package router

import (
	"log/slog"

	"github.com/m3rciful/airdropbot/core/logger"
	tg "github.com/m3rciful/airdropbot/core/telegram"
	"github.com/m3rciful/airdropbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandOptions configures CommandRoutes.
type CommandOptions struct {
	AdminID       int64
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes turns every registered command into a route. Admin-only
// commands are guarded by middleware.AdminOnly.
func CommandRoutes(reg *tg.Registry, opts CommandOptions) []tg.Route {
	if reg == nil {
		return nil
	}
	guard := middleware.AdminOnly(opts.AdminID, opts.OnAdminReject)
	routes := make([]tg.Route, 0, len(reg.Commands()))
	for name, cmd := range reg.Commands() {
		name, h := name, cmd.Handler
		if cmd.AdminOnly {
			h = guard(h)
		}
		routes = append(routes, tg.Route{
			Endpoint: name,
			Handler: func(c tele.Context) error {
				return summarize(c, handlerName(name), h)
			},
		})
		for _, alias := range cmd.Aliases {
			routes = append(routes, tg.Route{
				Endpoint: "/" + alias,
				Handler: func(c tele.Context) error {
					return summarize(c, handlerName(name), h)
				},
			})
		}
	}
	logger.TWire.Info("tg.wire",
		slog.String("event", "commands.routed"),
		slog.Int("count", len(routes)),
	)
	return routes
}
