package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

const minimal = `
telegram:
  token: "123:abc"
store:
  spreadsheet_id: "sheet-1"
`

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, minimal))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store.Driver != DriverSheets || cfg.Store.SheetName != "airdropbot" || cfg.Store.CredentialsPath != "credentials.json" {
		t.Fatalf("store = %+v", cfg.Store)
	}
	if cfg.ConversationTimeout() != 600*time.Second || cfg.EvictInterval() != 30*time.Second {
		t.Fatalf("conversation = %+v", cfg.Conversation)
	}
	if cfg.Schedule.Backup != "59 23 * * *" || cfg.Schedule.StatusSweep != "0 0 * * *" {
		t.Fatalf("schedule = %+v", cfg.Schedule)
	}
	if cfg.RateLimit.IntervalMS != 5000 || cfg.Telegram.RunMode != "longpoll" {
		t.Fatalf("core = %+v", cfg.Config)
	}
	if cfg.CoreConfig().Telegram.Token != "123:abc" {
		t.Fatal("core config not shared")
	}
	if cfg.DatabaseConfig() != nil {
		t.Fatal("database config for sheets driver")
	}
}

func TestLoadConfigEnvOverlay(t *testing.T) {
	t.Setenv("SPREADSHEET_ID", "from-env")
	t.Setenv("SHEET_NAME", "drops")
	cfg, err := LoadConfig(writeConfig(t, minimal))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store.SpreadsheetID != "from-env" || cfg.Store.SheetName != "drops" {
		t.Fatalf("store = %+v", cfg.Store)
	}
}

func TestLoadConfigRejects(t *testing.T) {
	cases := map[string]string{
		"spreadsheet": "telegram:\n  token: x\n",
		"driver":      minimal + "  driver: mongo\n",
		"postgres":    "telegram:\n  token: x\nstore:\n  driver: postgres\n",
		"cron":        minimal + "schedule:\n  backup: \"every night\"\n",
		"timezone":    minimal + "schedule:\n  timezone: Mars/Olympus\n",
		"timeout":     minimal + "conversation:\n  timeout_seconds: -5\n",
	}
	for name, body := range cases {
		if _, err := LoadConfig(writeConfig(t, body)); err == nil {
			t.Errorf("%s: config accepted", name)
		}
	}
}

func TestLoadConfigPostgres(t *testing.T) {
	body := `
telegram:
  token: x
store:
  driver: POSTGRES
database:
  host: db
  port: "5432"
  user: bot
  name: airdrops
schedule:
  timezone: Asia/Jakarta
`
	cfg, err := LoadConfig(writeConfig(t, body))
	if err != nil {
		t.Fatal(err)
	}
	if db := cfg.DatabaseConfig(); db == nil || db.Host != "db" {
		t.Fatalf("database = %+v", db)
	}
	if cfg.Store.CredentialsPath != "" {
		t.Fatal("credentials default applied to postgres driver")
	}
	if !strings.Contains(cfg.Location().String(), "Jakarta") {
		t.Fatalf("location = %s", cfg.Location())
	}
}
