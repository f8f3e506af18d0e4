// Package jobs runs background maintenance on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule prunes idle visitors once a minute.
const DefaultSchedule = "@every 1m"

// Pruner removes visitors idle for longer than ttl.
type Pruner interface {
	Prune(ttl time.Duration) int
	Len() int
}

// Janitor tears down idle visitor sessions.
type Janitor struct {
	pruner   Pruner
	ttl      time.Duration
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger
}

// NewJanitor creates a janitor. An empty schedule uses DefaultSchedule.
func NewJanitor(pruner Pruner, ttl time.Duration, schedule string, logger *slog.Logger) *Janitor {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Janitor{
		pruner:   pruner,
		ttl:      ttl,
		schedule: schedule,
		cron:     cron.New(),
		logger:   logger.With("component", "session_janitor"),
	}
}

// Start schedules the prune job.
func (j *Janitor) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, func() { j.RunOnce() }); err != nil {
		return fmt.Errorf("scheduling janitor %q: %w", j.schedule, err)
	}

	j.cron.Start()
	j.logger.Info("janitor started", "schedule", j.schedule, "ttl", j.ttl)
	return nil
}

// Stop halts the schedule and waits for a running job to finish.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info("janitor stopped")
}

// RunOnce prunes idle visitors now and returns how many were removed.
func (j *Janitor) RunOnce() int {
	removed := j.pruner.Prune(j.ttl)
	if removed > 0 {
		j.logger.InfoContext(context.Background(), "pruned idle visitors", "removed", removed, "remaining", j.pruner.Len())
	}
	return removed
}
