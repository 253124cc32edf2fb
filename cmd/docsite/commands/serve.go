package commands

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/render"
	"git.home.luguber.info/inful/docsite/internal/site"
	"git.home.luguber.info/inful/docsite/internal/watch"
)

const shutdownTimeout = 10 * time.Second

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Addr    string `short:"a" help:"Listen address (overrides serve.addr)"`
	Content string `short:"C" help:"Content directory (overrides content.dir)"`
	Output  string `short:"o" help:"Output directory (overrides output.directory)"`
	NoWatch bool   `name:"no-watch" help:"Do not rebuild on content changes"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	s.apply(cfg)

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

	report, err := gen.Generate(ctx)
	if err != nil {
		return err
	}
	printWarnings(g, report)

	handler, err := siteHandler(cfg, reg)
	if err != nil {
		return err
	}

	if cfg.Serve.ShouldWatch() && cfg.Source.Git == nil {
		w := watch.New(cfg.Content.Dir, cfg.Serve.DebounceDuration(), func(ctx context.Context) {
			// Failures are logged by the generator; the last good output stays served.
			if r, err := gen.Generate(ctx); err == nil {
				printWarnings(g, r)
			}
		}, cfg.Output.Directory)
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := w.Run(ctx); err != nil {
				slog.Error("Watcher stopped", logfields.Error(err))
			}
		}()
		// Runs before cleanup so a rebuild never records into a closed store.
		defer func() {
			cancel()
			wg.Wait()
		}()
	}

	return serveHTTP(ctx, g, cfg.Serve.Addr, handler)
}

func (s *ServeCmd) apply(cfg *config.Config) {
	if s.Addr != "" {
		cfg.Serve.Addr = s.Addr
	}
	if s.Content != "" {
		cfg.Content.Dir = s.Content
	}
	if s.Output != "" {
		cfg.Output.Directory = s.Output
	}
	if s.NoWatch {
		off := false
		cfg.Serve.Watch = &off
	}
}

// siteHandler serves the output directory under the base URL path, plus the
// metrics endpoint when enabled.
func siteHandler(cfg *config.Config, reg *prom.Registry) (http.Handler, error) {
	basePath, err := render.BasePath(cfg.Site.BaseURL)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "invalid base URL").
			WithContext("base_url", cfg.Site.BaseURL).Build()
	}
	mux := http.NewServeMux()
	files := http.FileServer(http.Dir(cfg.Output.Directory))
	if basePath == "" {
		mux.Handle("/", files)
	} else {
		mux.Handle(basePath+"/", http.StripPrefix(basePath, files))
		mux.Handle("/", http.RedirectHandler(basePath+"/", http.StatusFound))
	}
	if cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, metrics.HTTPHandler(reg))
	}
	return mux, nil
}

// serveHTTP runs an HTTP server until ctx is canceled.
func serveHTTP(ctx context.Context, g *Global, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		g.printf("Serving on http://%s/\n", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return errors.WrapError(err, errors.CategoryRuntime, "HTTP server failed").
				WithContext("addr", addr).Build()
		}
		return nil
	case <-ctx.Done():
		slog.Info("Shutdown signal received, stopping server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "failed to stop HTTP server").Build()
	}
	return nil
}
