package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizeDefaults(t *testing.T) {
	cfg := &Config{Telegram: TelegramConfig{Token: "123:abc"}}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run mode = %q, want %q", cfg.Telegram.RunMode, RunModeLongpoll)
	}
	if cfg.RateLimit.IntervalMS != DefaultRateLimitIntervalMS {
		t.Fatalf("interval = %d, want %d", cfg.RateLimit.IntervalMS, DefaultRateLimitIntervalMS)
	}
}

func TestNormalizeRejects(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"missing token", Config{}},
		{"webhook without url", Config{
			Telegram: TelegramConfig{Token: "t", RunMode: "webhook"},
		}},
		{"unknown run mode", Config{
			Telegram: TelegramConfig{Token: "t", RunMode: "smoke-signals"},
		}},
		{"bad exclusion", Config{
			Telegram:  TelegramConfig{Token: "t"},
			RateLimit: RateLimitConfig{ExcludeUpdates: []string{"photo"}},
		}},
	}
	for _, tc := range cases {
		cfg := tc.cfg
		if err := Normalize(&cfg); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestNormalizeKeepsNegativeInterval(t *testing.T) {
	cfg := &Config{
		Telegram:  TelegramConfig{Token: "t", RunMode: "polling"},
		RateLimit: RateLimitConfig{IntervalMS: -1, ExcludeUpdates: []string{" Callback "}},
	}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if cfg.RateLimit.IntervalMS != -1 {
		t.Fatalf("interval = %d, want -1", cfg.RateLimit.IntervalMS)
	}
	if cfg.RateLimit.ExcludeUpdates[0] != UpdateCallback {
		t.Fatalf("exclusion = %q", cfg.RateLimit.ExcludeUpdates[0])
	}
}

func TestLoadOverlaysEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := "telegram:\n  token: from-file\nlogging:\n  level: debug\n"
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("BOT_TOKEN", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "from-env" {
		t.Fatalf("token = %q, want env override", cfg.Telegram.Token)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("level = %q", cfg.Logging.Level)
	}
}
