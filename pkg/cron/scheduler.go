// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/FACorreiaa/statement-converter/pkg/storage"
)

// Scheduler removes stored conversion outputs once they are older than the
// retention period.
type Scheduler struct {
	cron      *cron.Cron
	store     storage.Storage
	schedule  string
	retention time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// NewScheduler creates a new job scheduler.
func NewScheduler(store storage.Storage, schedule string, retention time.Duration, logger *slog.Logger) *Scheduler {
	// Standard 5-field format plus descriptors such as @every 10m
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:      c,
		store:     store,
		schedule:  schedule,
		retention: retention,
		now:       time.Now,
		logger:    logger,
	}
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, func() { s.Sweep(context.Background()) }); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.String("schedule", s.schedule),
		slog.Duration("retention", s.retention),
		slog.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// Sweep deletes expired outputs and returns how many were removed.
func (s *Scheduler) Sweep(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	files, err := s.store.List(ctx)
	if err != nil {
		s.logger.Error("failed to list stored outputs", slog.Any("error", err))
		return 0
	}

	cutoff := s.now().Add(-s.retention)
	removed, failed := 0, 0
	for _, f := range files {
		if !f.CreatedAt.Before(cutoff) {
			continue
		}
		if err := s.store.Delete(ctx, f.JobID); err != nil {
			s.logger.Warn("failed to delete expired output",
				slog.String("job_id", f.JobID.String()),
				slog.Any("error", err),
			)
			failed++
			continue
		}
		removed++
	}

	s.logger.Info("output sweep completed",
		slog.Int("removed", removed),
		slog.Int("failed", failed),
		slog.Int("kept", len(files)-removed-failed),
	)
	return removed
}
