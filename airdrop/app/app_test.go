package app

import (
	"context"
	"testing"
	"time"

	"github.com/m3rciful/airdropbot/airdrop/bot"
	"github.com/m3rciful/airdropbot/airdrop/form"
	"github.com/m3rciful/airdropbot/airdrop/scheduler"
	coreconfig "github.com/m3rciful/airdropbot/core/config"
	tg "github.com/m3rciful/airdropbot/core/telegram"
	"github.com/m3rciful/airdropbot/core/telegram/middleware"
)

func testApp(intervalMS int) *App {
	cfg := &Config{Config: coreconfig.Config{RateLimit: coreconfig.RateLimitConfig{IntervalMS: intervalMS}}}
	limiter := middleware.NewRateLimiter(time.Duration(max(intervalMS, 0)) * time.Millisecond)
	forms := form.New(form.Options{})
	return &App{
		cfg:      cfg,
		loc:      time.UTC,
		Forms:    forms,
		Limiter:  limiter,
		handlers: bot.New(bot.Options{Forms: forms, RateLimit: limiter.Interval()}),
		sched:    scheduler.New(time.UTC),
	}
}

func middlewareNames(a *App, t *testing.T) []string {
	t.Helper()
	opts, err := a.TelegramRunOptions()
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, mw := range opts.Middlewares {
		names = append(names, mw.Name)
	}
	return names
}

func TestRunOptionsIncludeRateLimitGate(t *testing.T) {
	names := middlewareNames(testApp(5000), t)
	want := []string{"recover", "logger", "rate_limit", "metrics"}
	if len(names) != len(want) {
		t.Fatalf("middlewares = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("middlewares = %v", names)
		}
	}
	if got := middlewareNames(testApp(-1), t); len(got) != 3 {
		t.Fatalf("disabled limiter still installed: %v", got)
	}
}

func TestRunOptionsLifecycle(t *testing.T) {
	a := testApp(5000)
	opts, err := a.TelegramRunOptions()
	if err != nil {
		t.Fatal(err)
	}
	if len(opts.Routes) == 0 || len(opts.Registry.Commands()) != 5 {
		t.Fatalf("routes=%d commands=%d", len(opts.Routes), len(opts.Registry.Commands()))
	}
	if err := opts.OnStart(context.Background(), tg.Runtime{}); err != nil {
		t.Fatal(err)
	}
	if err := opts.OnStop(context.Background(), tg.Runtime{}); err != nil {
		t.Fatal(err)
	}
}

func TestBootstrapNilConfig(t *testing.T) {
	if _, err := Bootstrap(context.Background(), nil); err == nil {
		t.Fatal("nil config accepted")
	}
}
