package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/m3rciful/airdropbot/core/logger"
	"github.com/m3rciful/airdropbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

// Registry collects the bot's slash commands and the free text fallback.
// It is populated during wiring and read-only afterwards.
type Registry struct {
	commands     map[string]commands.Command
	textFallback tele.HandlerFunc
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]commands.Command)}
}

// RegisterCommand adds cmd under name, which must start with a slash.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) error {
	switch {
	case !strings.HasPrefix(name, "/") || len(name) < 2:
		return fmt.Errorf("register %q: command must start with '/'", name)
	case cmd.Handler == nil:
		return fmt.Errorf("register %q: nil handler", name)
	case cmd.Description == "":
		return fmt.Errorf("register %q: empty description", name)
	}
	if _, dup := r.commands[name]; dup {
		return fmt.Errorf("register %q: already registered", name)
	}
	r.commands[name] = cmd
	logger.TWire.LogAttrs(context.Background(), slog.LevelDebug, "register.command",
		slog.String("name", name),
		slog.Bool("admin_only", cmd.AdminOnly),
	)
	return nil
}

// Commands returns the registered commands keyed by name.
func (r *Registry) Commands() map[string]commands.Command {
	return r.commands
}

// Lookup resolves name or one of the aliases to its canonical command.
// A trailing bot mention such as /list@my_bot is ignored.
func (r *Registry) Lookup(name string) (string, commands.Command, bool) {
	name, _, _ = strings.Cut(strings.TrimSpace(name), "@")
	if !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	if cmd, ok := r.commands[name]; ok {
		return name, cmd, true
	}
	for key, cmd := range r.commands {
		for _, alias := range cmd.Aliases {
			if "/"+strings.TrimPrefix(alias, "/") == name {
				return key, cmd, true
			}
		}
	}
	return "", commands.Command{}, false
}

// MenuCommands lists commands for the Telegram command menu sorted by name.
func (r *Registry) MenuCommands() []tele.Command {
	list := make([]tele.Command, 0, len(r.commands))
	for name, cmd := range r.commands {
		if cmd.Visible() {
			list = append(list, tele.Command{Text: strings.TrimPrefix(name, "/"), Description: cmd.Description})
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Text < list[j].Text })
	return list
}

// SetTextFallback sets the handler for text that matches no command and no active flow.
func (r *Registry) SetTextFallback(h tele.HandlerFunc) {
	r.textFallback = h
}

// TextFallback returns the handler set by SetTextFallback.
func (r *Registry) TextFallback() tele.HandlerFunc {
	return r.textFallback
}

// PublishCommands sends the menu to Telegram via setMyCommands. Failures are logged only.
func PublishCommands(bot *tele.Bot, reg *Registry) {
	list := reg.MenuCommands()
	if err := bot.SetCommands(list); err != nil {
		logger.TWire.LogAttrs(context.Background(), slog.LevelError, "register.commands.set_failed",
			logger.Err(err),
		)
		return
	}
	logger.TWire.LogAttrs(context.Background(), slog.LevelInfo, "register.commands.published",
		slog.Int("count", len(list)),
	)
}
