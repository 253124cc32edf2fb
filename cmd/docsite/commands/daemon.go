package commands

import (
	"log/slog"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docsite/internal/daemon"
	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/site"
)

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct {
	Interval    string `short:"i" help:"Rebuild interval (overrides schedule.interval)"`
	MetricsAddr string `name:"metrics-addr" help:"Expose metrics on this address when metrics are enabled"`
}

func (d *DaemonCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	if d.Interval != "" {
		if _, err := time.ParseDuration(d.Interval); err != nil {
			return errors.NewError(errors.CategoryValidation, "invalid interval").
				WithContext("interval", d.Interval).WithCause(err).Build()
		}
		cfg.Schedule.Interval = d.Interval
	}

	ctx, cancel := signalContext()
	defer cancel()

	reg := prom.NewRegistry()
	var recorder metrics.Recorder
	if cfg.Metrics.Enabled {
		recorder = metrics.NewPrometheusRecorder(reg)
	}

	gen, cleanup, err := newGenerator(cfg, site.OptionsFromConfig(cfg), recorder, g.Logger)
	if err != nil {
		return err
	}
	defer cleanup()

	scheduler, err := daemon.NewScheduler(gen, cfg.Schedule.IntervalDuration())
	if err != nil {
		return err
	}

	if cfg.Metrics.Enabled && d.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, metrics.HTTPHandler(reg))
		go func() {
			if err := serveHTTP(ctx, g, d.MetricsAddr, mux); err != nil {
				slog.Error("Metrics server stopped", logfields.Error(err))
			}
		}()
	}

	slog.Info("Daemon started", slog.Duration("interval", cfg.Schedule.IntervalDuration()))
	return scheduler.Run(ctx)
}
