// Package scheduler runs the periodic jobs: daily backup, daily status sweep
// and housekeeping of in-memory state.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/m3rciful/airdropbot/core/logger"
)

// Job is a named function run on a cron schedule.
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) error
}

// Scheduler wraps a cron runner whose jobs never overlap themselves and
// survive panics.
type Scheduler struct {
	cron *cron.Cron
	ctx  context.Context
	stop context.CancelFunc
}

// New returns a stopped scheduler evaluating specs in loc.
func New(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	log := cronLogger{}
	ctx, stop := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(log),
			cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
		),
		ctx:  ctx,
		stop: stop,
	}
}

// Add registers job. An invalid spec is a configuration error.
func (s *Scheduler) Add(job Job) error {
	if job.Run == nil {
		return fmt.Errorf("scheduler: job %q has no func", job.Name)
	}
	_, err := s.cron.AddFunc(job.Spec, func() {
		_ = RunJob(s.ctx, job)
	})
	if err != nil {
		return fmt.Errorf("scheduler: job %q spec %q: %w", job.Name, job.Spec, err)
	}
	logger.Jobs.Info("job scheduled",
		slog.String("event", "job.scheduled"),
		slog.String("op", job.Name),
		slog.String("spec", job.Spec),
	)
	return nil
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs, cancels the context of running ones and waits for
// them until ctx ends.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	s.stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// RunJob runs job once under a fresh job:<uuid> request id and logs the result.
func RunJob(ctx context.Context, job Job) error {
	ctx = logger.WithRID(ctx, "job:"+uuid.NewString())
	ctx = logger.WithLogger(ctx, logger.Jobs)
	start := time.Now()
	err := job.Run(ctx)
	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelError
	}
	logger.LogEvent(ctx, logger.Jobs, level, "job.done",
		slog.String("status", logger.Status(err)),
		slog.String("op", job.Name),
		slog.Duration("duration", logger.Took(start)),
		logger.Err(err),
	)
	return err
}

// cronLogger routes cron's own messages to the jobs logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	logger.Jobs.Debug(msg, append([]any{"event", "cron." + msg}, keysAndValues...)...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	logger.Jobs.Error(msg, append([]any{"event", "cron." + msg, "err", err}, keysAndValues...)...)
}
