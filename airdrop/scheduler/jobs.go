package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/airdropbot/airdrop/sweep"
	"github.com/m3rciful/airdropbot/core/logger"
)

// Default cron specs.
const (
	DefaultBackupSpec = "59 23 * * *"
	DefaultSweepSpec  = "0 0 * * *"
	DefaultEvictEvery = 30 * time.Second
)

// Backuper copies the row store.
type Backuper interface {
	Backup(ctx context.Context) (string, error)
}

// Store is what the daily jobs need from the row store.
type Store interface {
	Backuper
	sweep.Gateway
}

// Evictor drops idle conversation sessions.
type Evictor interface {
	EvictIdle(ctx context.Context) int
}

// Pruner forgets stale rate limit entries.
type Pruner interface {
	Prune(at time.Time) int
}

// Specs holds the schedule for each job.
type Specs struct {
	Backup      string
	StatusSweep string
	EvictEvery  time.Duration
}

// Deps are the collaborators the jobs act on. Nil collaborators skip their job.
type Deps struct {
	Store   Store
	Forms   Evictor
	Limiter Pruner
	Now     func() time.Time
}

// Jobs builds the job list for specs.
func Jobs(specs Specs, deps Deps) []Job {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if specs.Backup == "" {
		specs.Backup = DefaultBackupSpec
	}
	if specs.StatusSweep == "" {
		specs.StatusSweep = DefaultSweepSpec
	}
	if specs.EvictEvery <= 0 {
		specs.EvictEvery = DefaultEvictEvery
	}

	var jobs []Job
	if deps.Store != nil {
		jobs = append(jobs,
			Job{Name: "backup", Spec: specs.Backup, Run: func(ctx context.Context) error {
				name, err := deps.Store.Backup(ctx)
				if err != nil {
					return err
				}
				logger.LogEvent(ctx, logger.Jobs, slog.LevelInfo, "backup.created", slog.String("backup", name))
				return nil
			}},
			Job{Name: "status_sweep", Spec: specs.StatusSweep, Run: func(ctx context.Context) error {
				_, err := sweep.Run(ctx, deps.Store, deps.Now())
				return err
			}},
		)
	}
	if deps.Forms != nil || deps.Limiter != nil {
		jobs = append(jobs, Job{
			Name: "housekeeping",
			Spec: fmt.Sprintf("@every %s", specs.EvictEvery),
			Run: func(ctx context.Context) error {
				var sessions, limits int
				if deps.Forms != nil {
					sessions = deps.Forms.EvictIdle(ctx)
				}
				if deps.Limiter != nil {
					limits = deps.Limiter.Prune(deps.Now())
				}
				if sessions > 0 || limits > 0 {
					logger.LogEvent(ctx, logger.Jobs, slog.LevelDebug, "housekeeping.evicted",
						slog.Int("sessions", sessions),
						slog.Int("rate_limits", limits),
					)
				}
				return nil
			},
		})
	}
	return jobs
}
