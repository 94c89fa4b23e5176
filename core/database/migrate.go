package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/m3rciful/airdropbot/core/logger"
)

// Migrate applies every pending up migration found under dir in fsys.
func Migrate(ctx context.Context, cfg Config, fsys fs.FS, dir string) error {
	if err := WaitReady(ctx, cfg, 30*time.Second, 2*time.Second); err != nil {
		logger.MIG.Error("db not ready", slog.String("event", "db.migrate"), logger.Err(err))
		return err
	}

	src, err := iofs.New(fsys, dir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, cfg.URL())
	if err != nil {
		logger.MIG.Error("init failed", slog.String("event", "db.migrate"), logger.Err(err))
		return fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()

	from, _, _ := m.Version()
	start := time.Now()
	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.MIG.Error("migration failed",
			slog.String("event", "db.migrate"),
			slog.Duration("duration", logger.Took(start)),
			logger.Err(err),
		)
		return fmt.Errorf("apply migrations: %w", err)
	}
	to, _, _ := m.Version()
	logger.MIG.Info("migrations summary",
		slog.String("event", "db.migrate"),
		slog.Uint64("from_ver", uint64(from)),
		slog.Uint64("to_ver", uint64(to)),
		slog.Bool("changed", to != from),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}
