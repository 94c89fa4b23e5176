// Package store is the row store gateway in front of the spreadsheet (or
// postgres) table that holds airdrop records.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/m3rciful/airdropbot/airdrop"
	"github.com/m3rciful/airdropbot/core/logger"
)

// ErrUnavailable wraps every failure of the underlying store.
var ErrUnavailable = errors.New("store unavailable")

// ErrInvalidRecord is returned when a record fails validation before append.
var ErrInvalidRecord = errors.New("invalid record")

// BackupPrefix starts the name of every backup copy.
const BackupPrefix = "backup_"

const backupLayout = "20060102_150405"

// Backend is a table of string rows whose first row is the header.
type Backend interface {
	// Rows returns every row including the header.
	Rows(ctx context.Context) ([][]string, error)
	// AppendRow adds row after the last one. It either fully succeeds or changes nothing.
	AppendRow(ctx context.Context, row []string) error
	// UpdateStatus rewrites the status cell of the given rows in one call.
	UpdateStatus(ctx context.Context, updates []airdrop.StatusUpdate) error
	// Snapshot copies the table under name.
	Snapshot(ctx context.Context, name string) error
	// Name identifies the table in logs.
	Name() string
	Close() error
}

// Gateway adds status derivation, timestamps, validation and backup naming
// on top of a Backend.
type Gateway struct {
	backend  Backend
	validate *validator.Validate
	now      func() time.Time
}

// Option customizes a Gateway.
type Option func(*Gateway)

// WithClock sets the clock used for status derivation, timestamps and backup names.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGateway wraps b.
func NewGateway(b Backend, opts ...Option) (*Gateway, error) {
	v, err := NewValidator()
	if err != nil {
		return nil, err
	}
	g := &Gateway{backend: b, validate: v, now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// FetchAll returns every row, header first.
func (g *Gateway) FetchAll(ctx context.Context) ([][]string, error) {
	start := time.Now()
	rows, err := g.backend.Rows(ctx)
	if err != nil {
		g.fail(ctx, "store.fetch", start, err)
		return nil, fmt.Errorf("%w: fetch rows: %w", ErrUnavailable, err)
	}
	logger.LogEvent(ctx, logger.Store, slog.LevelDebug, "store.fetch",
		slog.String("status", "ok"),
		slog.String("sheet", g.backend.Name()),
		slog.Int("rows", len(rows)),
		slog.Duration("duration", logger.Took(start)),
	)
	return rows, nil
}

// Records returns every data row decoded in sheet order.
func (g *Gateway) Records(ctx context.Context) ([]airdrop.Record, error) {
	rows, err := g.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	entries := airdrop.DecodeTable(rows)
	out := make([]airdrop.Record, len(entries))
	for i, e := range entries {
		out[i] = e.Record
	}
	return out, nil
}

// Append derives r's status from its deadline, stamps the creation time and
// writes it as a new row.
func (g *Gateway) Append(ctx context.Context, r airdrop.Record) error {
	now := g.now()
	r.Status = airdrop.DeriveStatus(r.Deadline, now)
	r.Timestamp = now.Format(airdrop.TimestampLayout)
	if err := g.validate.Struct(r); err != nil {
		logger.LogEvent(ctx, logger.Store, slog.LevelWarn, "store.append",
			slog.String("status", "fail"),
			logger.Err(err),
		)
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	start := time.Now()
	if err := g.backend.AppendRow(ctx, r.Row()); err != nil {
		g.fail(ctx, "store.append", start, err)
		return fmt.Errorf("%w: append row: %w", ErrUnavailable, err)
	}
	logger.LogEvent(ctx, logger.Store, slog.LevelInfo, "store.append",
		slog.String("status", "ok"),
		slog.String("sheet", g.backend.Name()),
		slog.String("state", r.Status),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

// BatchUpdateStatus writes every update in a single backend call.
func (g *Gateway) BatchUpdateStatus(ctx context.Context, updates []airdrop.StatusUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	for _, u := range updates {
		if u.Row < 2 {
			return fmt.Errorf("batch update: row %d addresses the header", u.Row)
		}
	}
	start := time.Now()
	if err := g.backend.UpdateStatus(ctx, updates); err != nil {
		g.fail(ctx, "store.update", start, err)
		return fmt.Errorf("%w: update status: %w", ErrUnavailable, err)
	}
	logger.LogEvent(ctx, logger.Store, slog.LevelInfo, "store.update",
		slog.String("status", "ok"),
		slog.Int("updated", len(updates)),
		slog.Duration("duration", logger.Took(start)),
	)
	return nil
}

// Backup copies the table to backup_YYYYMMDD_HHMMSS and returns that name.
func (g *Gateway) Backup(ctx context.Context) (string, error) {
	name := BackupName(g.now())
	start := time.Now()
	if err := g.backend.Snapshot(ctx, name); err != nil {
		g.fail(ctx, "store.backup", start, err)
		return "", fmt.Errorf("%w: backup %s: %w", ErrUnavailable, name, err)
	}
	logger.LogEvent(ctx, logger.Store, slog.LevelInfo, "store.backup",
		slog.String("status", "ok"),
		slog.String("sheet", g.backend.Name()),
		slog.String("backup", name),
		slog.Duration("duration", logger.Took(start)),
	)
	return name, nil
}

// Close releases the backend.
func (g *Gateway) Close() error {
	return g.backend.Close()
}

// BackupName formats the copy name for a backup taken at t.
func BackupName(t time.Time) string {
	return BackupPrefix + t.Format(backupLayout)
}

func (g *Gateway) fail(ctx context.Context, event string, start time.Time, err error) {
	logger.LogEvent(ctx, logger.Store, slog.LevelError, event,
		slog.String("status", "error"),
		slog.String("sheet", g.backend.Name()),
		slog.Duration("duration", logger.Took(start)),
		logger.Err(err),
	)
}
