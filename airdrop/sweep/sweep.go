// Package sweep marks airdrops whose deadline has passed as Ended.
package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/airdropbot/airdrop"
	"github.com/m3rciful/airdropbot/core/logger"
)

// Gateway is the slice of the row store the sweep needs.
type Gateway interface {
	FetchAll(ctx context.Context) ([][]string, error)
	BatchUpdateStatus(ctx context.Context, updates []airdrop.StatusUpdate) error
}

// Plan returns an Ended update for every entry whose deadline parses, lies
// strictly before now and whose status is not already Ended.
func Plan(entries []airdrop.Entry, now time.Time) []airdrop.StatusUpdate {
	var out []airdrop.StatusUpdate
	for _, e := range entries {
		if e.Record.Status == airdrop.StatusEnded {
			continue
		}
		if airdrop.Expired(e.Record.Deadline, now) {
			out = append(out, airdrop.StatusUpdate{Row: e.Row, Status: airdrop.StatusEnded})
		}
	}
	return out
}

// Run fetches every row, plans the updates and writes them in one batch.
// It returns the number of rows marked.
func Run(ctx context.Context, gw Gateway, now time.Time) (int, error) {
	start := time.Now()
	rows, err := gw.FetchAll(ctx)
	if err != nil {
		logger.Error(ctx, "sweep", "sweep.fetch", slog.String("status", "error"), logger.Err(err))
		return 0, fmt.Errorf("sweep: fetch rows: %w", err)
	}
	entries := airdrop.DecodeTable(rows)
	updates := Plan(entries, now)
	if len(updates) == 0 {
		logger.Info(ctx, "sweep", "sweep.done",
			slog.String("status", "skip"),
			slog.Int("rows", len(entries)),
			slog.Int("updated", 0),
			slog.Duration("duration", logger.Took(start)),
		)
		return 0, nil
	}
	if err := gw.BatchUpdateStatus(ctx, updates); err != nil {
		logger.Error(ctx, "sweep", "sweep.update",
			slog.String("status", "error"),
			slog.Int("count", len(updates)),
			logger.Err(err),
		)
		return 0, fmt.Errorf("sweep: update status: %w", err)
	}
	logger.Info(ctx, "sweep", "sweep.done",
		slog.String("status", "ok"),
		slog.Int("rows", len(entries)),
		slog.Int("updated", len(updates)),
		slog.Duration("duration", logger.Took(start)),
	)
	return len(updates), nil
}
