package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/airdropbot/airdrop/bot"
	"github.com/m3rciful/airdropbot/airdrop/form"
	"github.com/m3rciful/airdropbot/airdrop/scheduler"
	"github.com/m3rciful/airdropbot/airdrop/store"
	"github.com/m3rciful/airdropbot/airdrop/sweep"
	"github.com/m3rciful/airdropbot/core/bootstrap"
	corecmd "github.com/m3rciful/airdropbot/core/cmd"
	"github.com/m3rciful/airdropbot/core/logger"
	tg "github.com/m3rciful/airdropbot/core/telegram"
	"github.com/m3rciful/airdropbot/core/telegram/middleware"
	"github.com/m3rciful/airdropbot/migrations"
)

// App holds the wired components of a running bot.
type App struct {
	cfg *Config
	loc *time.Location

	Store   *store.Gateway
	Forms   *form.Machine
	Limiter *middleware.RateLimiter

	handlers *bot.Handlers
	sched    *scheduler.Scheduler
}

// Bootstrap initializes logging, opens the configured store and builds the
// conversation, rate limiter, handlers and scheduler.
func Bootstrap(ctx context.Context, cfg *Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config")
	}
	opts := bootstrap.Options{Config: &cfg.Config, Database: cfg.DatabaseConfig()}
	if opts.Database != nil {
		opts.Migrations = migrations.FS
	}
	res, err := bootstrap.Run(ctx, opts)
	if err != nil {
		return nil, err
	}

	backend, err := openBackend(ctx, cfg, res)
	if err != nil {
		return nil, err
	}

	loc := cfg.Location()
	clock := func() time.Time { return time.Now().In(loc) }
	gw, err := store.NewGateway(backend, store.WithClock(clock))
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	forms := form.New(form.Options{Committer: gw, Timeout: cfg.ConversationTimeout()})
	limiter := middleware.NewRateLimiter(tg.RateLimitInterval(&cfg.Config))

	a := &App{
		cfg:     cfg,
		loc:     loc,
		Store:   gw,
		Forms:   forms,
		Limiter: limiter,
		handlers: bot.New(bot.Options{
			Forms:     forms,
			Rows:      gw,
			Backups:   gw,
			AdminID:   cfg.Telegram.AdminID,
			RateLimit: limiter.Interval(),
		}),
		sched: scheduler.New(loc),
	}
	jobs := scheduler.Jobs(scheduler.Specs{
		Backup:      cfg.Schedule.Backup,
		StatusSweep: cfg.Schedule.StatusSweep,
		EvictEvery:  cfg.EvictInterval(),
	}, scheduler.Deps{Store: gw, Forms: forms, Limiter: limiter, Now: clock})
	for _, job := range jobs {
		if err := a.sched.Add(job); err != nil {
			_ = gw.Close()
			return nil, err
		}
	}
	logger.Component("app").Info("app wired",
		slog.String("event", "bootstrap"),
		slog.String("mode", cfg.Store.Driver),
		slog.String("sheet", backend.Name()),
		slog.Int("count", len(jobs)),
	)
	return a, nil
}

func openBackend(ctx context.Context, cfg *Config, res *bootstrap.Result) (store.Backend, error) {
	switch cfg.Store.Driver {
	case DriverPostgres:
		if res.DB == nil {
			return nil, fmt.Errorf("app: postgres driver without database connection")
		}
		return store.NewPostgres(res.DB), nil
	case DriverSheets:
		return store.OpenSheets(ctx, store.SheetsConfig{
			SpreadsheetID:   cfg.Store.SpreadsheetID,
			SheetName:       cfg.Store.SheetName,
			CredentialsPath: cfg.Store.CredentialsPath,
		})
	}
	return nil, fmt.Errorf("app: unknown store driver %q", cfg.Store.Driver)
}

// TelegramRunOptions registers the commands and returns the run options with
// the scheduler tied to the bot's lifecycle.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	reg := tg.NewRegistry()
	if err := a.handlers.Register(reg); err != nil {
		return tg.RunOptions{}, err
	}
	var gate middleware.Gate
	if a.Limiter.Interval() > 0 {
		gate = a.Limiter
	}
	return tg.RunOptions{
		Config:      &a.cfg.Config,
		Registry:    reg,
		Middlewares: tg.DefaultMiddlewares(&a.cfg.Config, gate, a.handlers.RateLimited),
		Routes:      a.handlers.Routes(reg),
		OnStart: func(context.Context, tg.Runtime) error {
			a.sched.Start()
			return nil
		},
		OnStop: func(ctx context.Context, _ tg.Runtime) error {
			ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			a.sched.Stop(ctx)
			return nil
		},
	}, nil
}

// Sweep runs the status sweep once.
func (a *App) Sweep(ctx context.Context) (int, error) {
	return sweep.Run(ctx, a.Store, time.Now().In(a.loc))
}

// Backup copies the store once.
func (a *App) Backup(ctx context.Context) (string, error) {
	return a.Store.Backup(ctx)
}

// Close releases the store.
func (a *App) Close() error {
	return a.Store.Close()
}

// LoadCarrier adapts LoadConfig to the command runner.
func LoadCarrier(path string) (corecmd.ConfigCarrier, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// BootstrapCarrier adapts Bootstrap to the command runner.
func BootstrapCarrier(ctx context.Context, c corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
	cfg, ok := c.(*Config)
	if !ok {
		return nil, errors.New("app: unexpected config type")
	}
	a, err := Bootstrap(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return a, nil
}
