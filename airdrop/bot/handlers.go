// Package bot binds the airdrop conversation, listing and backup features to
// Telegram commands.
package bot

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/airdropbot/airdrop"
	"github.com/m3rciful/airdropbot/airdrop/form"
	"github.com/m3rciful/airdropbot/airdrop/listing"
	"github.com/m3rciful/airdropbot/core/logger"
	tg "github.com/m3rciful/airdropbot/core/telegram"
	"github.com/m3rciful/airdropbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/airdropbot/core/telegram/helpers"
	"github.com/m3rciful/airdropbot/core/telegram/keyboard"
	"github.com/m3rciful/airdropbot/core/telegram/router"

	tele "gopkg.in/telebot.v4"
)

// Rows reads the current table of records.
type Rows interface {
	Records(ctx context.Context) ([]airdrop.Record, error)
}

// Backuper copies the row store.
type Backuper interface {
	Backup(ctx context.Context) (string, error)
}

// Options configures New.
type Options struct {
	Forms   *form.Machine
	Rows    Rows
	Backups Backuper
	// AdminID restricts /backup when non-zero.
	AdminID int64
	// RateLimit is the window quoted in the rate limit notice.
	RateLimit time.Duration
}

// Handlers serves the bot's commands and conversation.
type Handlers struct {
	forms     *form.Machine
	rows      Rows
	backups   Backuper
	adminID   int64
	rateLimit time.Duration
	log       *slog.Logger
}

// New returns handlers over the given collaborators.
func New(opts Options) *Handlers {
	return &Handlers{
		forms:     opts.Forms,
		rows:      opts.Rows,
		backups:   opts.Backups,
		adminID:   opts.AdminID,
		rateLimit: opts.RateLimit,
		log:       logger.Component("listing"),
	}
}

// Register adds every command to reg and sets the idle text fallback.
func (h *Handlers) Register(reg *tg.Registry) error {
	cmds := []struct {
		name string
		cmd  commands.Command
	}{
		{"/start", commands.Command{Handler: h.Start, Description: "Mulai input data"}},
		{"/cancel", commands.Command{Handler: h.Cancel, Description: "Batalkan"}},
		{"/help", commands.Command{Handler: h.Help, Description: "Bantuan"}},
		{"/list", commands.Command{Handler: h.List, Description: "Lihat semua airdrop aktif"}},
		{"/backup", commands.Command{Handler: h.Backup, Description: "Backup data", AdminOnly: h.adminID != 0}},
	}
	for _, c := range cmds {
		if err := reg.RegisterCommand(c.name, c.cmd); err != nil {
			return err
		}
	}
	reg.SetTextFallback(h.Idle)
	return nil
}

// Routes returns the command routes and the free text route.
func (h *Handlers) Routes(reg *tg.Registry) []tg.Route {
	opts := router.CommandOptions{AdminID: h.adminID, OnAdminReject: h.AdminReject}
	routes := router.CommandRoutes(reg, opts)
	return append(routes, router.TextRoutes(Flow{h: h}, reg, router.TextOptions{
		CommandOptions: opts,
		UnknownCommand: h.UnknownCommand,
	})...)
}

// Start opens or resumes the sender's form.
func (h *Handlers) Start(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	userID, _ := tghelpers.IDs(c)
	return h.reply(c, h.forms.Start(ctx, userID))
}

// Cancel discards the sender's form.
func (h *Handlers) Cancel(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	userID, _ := tghelpers.IDs(c)
	r, _ := h.forms.Cancel(ctx, userID)
	return h.reply(c, r)
}

// Help sends the usage text.
func (h *Handlers) Help(c tele.Context) error {
	return tghelpers.SendText(c, helpText)
}

// List parses the /list arguments and sends the requested page, split into
// several messages when it is long.
func (h *Handlers) List(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	q, err := listing.ParseArgs(c.Args())
	if err != nil {
		var ae *listing.ArgError
		if errors.As(err, &ae) {
			logger.LogEvent(ctx, h.log, slog.LevelInfo, "list.rejected",
				slog.String("status", "fail"),
				slog.String("err_code", strings.ToUpper(ae.Code())),
			)
			router.Outcome(c, "fail")
			return tghelpers.SendText(c, ae.Msg)
		}
		return err
	}
	start := time.Now()
	records, err := h.rows.Records(ctx)
	if err != nil {
		router.Outcome(c, "fail")
		return tghelpers.SendText(c, textListFailed)
	}
	page := listing.Render(records, q)
	logger.LogEvent(ctx, h.log, slog.LevelInfo, "list.rendered",
		slog.String("status", "ok"),
		slog.String("filter", q.Kind.String()),
		slog.Int("count", page.Matches),
		slog.Int("page", page.Number),
		slog.Int("pages", page.Total),
		slog.Duration("duration", logger.Took(start)),
	)
	return tghelpers.SendTexts(c, listing.Chunk(page.Text, listing.ChunkSize))
}

// Backup copies the store now and reports the copy's name.
func (h *Handlers) Backup(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	name, err := h.backups.Backup(ctx)
	if err != nil {
		router.Outcome(c, "fail")
		return tghelpers.SendText(c, textBackupFailed)
	}
	return tghelpers.SendText(c, backupDone(name))
}

// RateLimited answers a request rejected by the rate limit gate.
func (h *Handlers) RateLimited(c tele.Context) error {
	router.Outcome(c, "rate_limited")
	return tghelpers.SendText(c, waitText(h.rateLimit))
}

// AdminReject answers a non-admin calling an admin command.
func (h *Handlers) AdminReject(c tele.Context) error {
	return tghelpers.SendText(c, textAdminOnly)
}

// UnknownCommand answers slash commands that are not registered.
func (h *Handlers) UnknownCommand(c tele.Context) error {
	return tghelpers.SendText(c, textUnknownCommand)
}

// Idle answers free text from a user without a form in progress.
func (h *Handlers) Idle(c tele.Context) error {
	return tghelpers.SendText(c, textIdle)
}

func (h *Handlers) reply(c tele.Context, r form.Reply) error {
	if r.Outcome != "" {
		router.Outcome(c, r.Outcome)
	}
	switch {
	case len(r.Choices) > 0:
		return tghelpers.SendText(c, r.Text, keyboard.OneTime(r.Choices...))
	case r.RemoveKeyboard:
		return tghelpers.SendText(c, r.Text, keyboard.Remove())
	default:
		return tghelpers.SendText(c, r.Text)
	}
}

// Flow feeds free text to the form machine.
type Flow struct{ h *Handlers }

// Active reports whether userID has a form in progress.
func (f Flow) Active(userID int64) bool {
	return f.h.forms.Active(userID)
}

// Handle applies the message text to the sender's form.
func (f Flow) Handle(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	userID, _ := tghelpers.IDs(c)
	r, ok := f.h.forms.Handle(ctx, userID, c.Text())
	if !ok {
		return f.h.Idle(c)
	}
	return f.h.reply(c, r)
}
