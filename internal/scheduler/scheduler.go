package scheduler

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/stoik/email-fraud-classifier/internal/domain"
)

// Job is the work run on every tick
type Job func(ctx context.Context) error

// Scheduler runs a job on a cron schedule until its context ends.
// Runs never overlap: the next tick is computed after the job returns.
type Scheduler struct {
	spec     string
	schedule cron.Schedule
	job      Job
	logger   *slog.Logger
}

// New parses spec, a standard 5-field cron expression (minute hour
// day-of-month month day-of-week) or a descriptor such as "@hourly" or
// "@every 30m". An invalid spec is a ConfigError.
func New(spec string, job Job, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, domain.NewConfigError("retrain schedule is empty")
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil, domain.NewConfigError("invalid retrain schedule %q: %v", spec, err)
	}

	return &Scheduler{spec: spec, schedule: schedule, job: job, logger: logger}, nil
}

// Next returns the first activation after t
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}

// Run blocks, running the job at every activation, and returns nil once ctx
// is done. Job failures are logged and don't stop the schedule.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("retraining scheduled", "cron", s.spec)

	for {
		now := time.Now()
		next := s.schedule.Next(now)
		s.logger.Debug("next retraining", "at", next.Format(time.RFC3339), "in", next.Sub(now).Round(time.Second))

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		if err := s.job(ctx); err != nil {
			s.logger.Error("scheduled retraining failed", "error", err)
			continue
		}
		s.logger.Info("scheduled retraining complete")
	}
}
