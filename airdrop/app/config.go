// Package app loads the airdrop bot configuration and wires the store, the
// conversation, the scheduler and the Telegram handlers together.
package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"

	coreconfig "github.com/m3rciful/airdropbot/core/config"
	coredatabase "github.com/m3rciful/airdropbot/core/database"
)

// Store drivers.
const (
	DriverSheets   = "sheets"
	DriverPostgres = "postgres"
)

const (
	defaultSheetName       = "airdropbot"
	defaultCredentialsPath = "credentials.json"
)

// StoreConfig selects and locates the row store.
type StoreConfig struct {
	Driver          string `yaml:"driver" envconfig:"STORE_DRIVER" validate:"oneof=sheets postgres"`
	SpreadsheetID   string `yaml:"spreadsheet_id" envconfig:"SPREADSHEET_ID" validate:"required_if=Driver sheets"`
	SheetName       string `yaml:"sheet_name" envconfig:"SHEET_NAME" validate:"required"`
	CredentialsPath string `yaml:"credentials_path" envconfig:"CREDENTIALS_PATH"`
}

// ConversationConfig tunes the form sessions.
type ConversationConfig struct {
	TimeoutSeconds       int `yaml:"timeout_seconds" envconfig:"CONVERSATION_TIMEOUT_SECONDS" validate:"gte=0"`
	EvictIntervalSeconds int `yaml:"evict_interval_seconds" validate:"gte=0"`
}

// ScheduleConfig holds the cron specs of the daily jobs.
type ScheduleConfig struct {
	Timezone    string `yaml:"timezone" envconfig:"SCHEDULE_TIMEZONE" validate:"omitempty,timezone"`
	Backup      string `yaml:"backup" validate:"required"`
	StatusSweep string `yaml:"status_sweep" validate:"required"`
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database     coredatabase.Config `yaml:"database"`
	Store        StoreConfig         `yaml:"store"`
	Conversation ConversationConfig  `yaml:"conversation"`
	Schedule     ScheduleConfig      `yaml:"schedule"`
}

// CoreConfig returns the shared core section.
func (c *Config) CoreConfig() *coreconfig.Config { return &c.Config }

// LoadConfig reads path, overlays the environment, fills defaults and validates.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	if c.Store.Driver == "" {
		c.Store.Driver = DriverSheets
	}
	if c.Store.SheetName == "" {
		c.Store.SheetName = defaultSheetName
	}
	if c.Store.Driver == DriverSheets && c.Store.CredentialsPath == "" {
		c.Store.CredentialsPath = defaultCredentialsPath
	}
	if c.Conversation.TimeoutSeconds == 0 {
		c.Conversation.TimeoutSeconds = 600
	}
	if c.Conversation.EvictIntervalSeconds == 0 {
		c.Conversation.EvictIntervalSeconds = 30
	}
	if c.Schedule.Backup == "" {
		c.Schedule.Backup = "59 23 * * *"
	}
	if c.Schedule.StatusSweep == "" {
		c.Schedule.StatusSweep = "0 0 * * *"
	}
}

// Validate checks field constraints, the cron specs and the postgres
// connection settings when that driver is selected.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	for _, section := range []any{c.Store, c.Conversation, c.Schedule} {
		if err := v.Struct(section); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
	}
	for name, spec := range map[string]string{
		"schedule.backup":       c.Schedule.Backup,
		"schedule.status_sweep": c.Schedule.StatusSweep,
	} {
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, spec, err)
		}
	}
	if c.Store.Driver == DriverPostgres {
		db := c.Database
		if db.Host == "" || db.Port == "" || db.User == "" || db.Name == "" {
			return fmt.Errorf("database.host, port, user and name are required when store.driver is %q", DriverPostgres)
		}
	}
	return nil
}

// Location resolves schedule.timezone, defaulting to the process location.
func (c *Config) Location() *time.Location {
	if c.Schedule.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// ConversationTimeout returns the session inactivity limit.
func (c *Config) ConversationTimeout() time.Duration {
	return time.Duration(c.Conversation.TimeoutSeconds) * time.Second
}

// EvictInterval returns how often idle sessions are swept.
func (c *Config) EvictInterval() time.Duration {
	return time.Duration(c.Conversation.EvictIntervalSeconds) * time.Second
}

// DatabaseConfig returns the postgres settings, nil unless that driver is selected.
func (c *Config) DatabaseConfig() *coredatabase.Config {
	if c.Store.Driver != DriverPostgres {
		return nil
	}
	db := c.Database
	return &db
}
