// Package daemon rebuilds the site on a fixed interval.
package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/site"
)

// Builder runs one generation.
type Builder interface {
	Generate(ctx context.Context) (*site.Report, error)
}

// Scheduler wraps a gocron scheduler running periodic builds.
type Scheduler struct {
	scheduler gocron.Scheduler
	builder   Builder
	interval  time.Duration
}

// NewScheduler creates a scheduler building every interval.
func NewScheduler(builder Builder, interval time.Duration) (*Scheduler, error) {
	if interval <= 0 {
		return nil, errors.ConfigError("schedule interval must be positive").
			WithContext("interval", interval.String()).Build()
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryRuntime, "failed to create scheduler").Build()
	}
	return &Scheduler{scheduler: s, builder: builder, interval: interval}, nil
}

// Run builds immediately and then every interval until ctx is done. A build
// still running when the next one is due delays it instead of overlapping.
func (s *Scheduler) Run(ctx context.Context) error {
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() { s.build(ctx) }),
		gocron.WithName("site-build"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "failed to create periodic build job").Build()
	}

	slog.Info("Starting scheduler", slog.String("job", job.ID().String()), slog.Duration("interval", s.interval))
	s.scheduler.Start()
	<-ctx.Done()

	slog.Info("Stopping scheduler")
	if err := s.scheduler.Shutdown(); err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "scheduler shutdown failed").Build()
	}
	return nil
}

func (s *Scheduler) build(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	report, err := s.builder.Generate(ctx)
	if err != nil {
		slog.Error("Scheduled build failed", logfields.Error(err))
		return
	}
	for _, w := range report.Warnings {
		slog.Warn("Unresolved link", logfields.BuildID(report.BuildID), logfields.Source(w.Source),
			logfields.Target(w.Target), slog.Int("line", w.Line))
	}
}
