// Package site runs the generation pipeline: load, group, render and write.
package site

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/docmodel"
	"git.home.luguber.info/inful/docsite/internal/docstore"
	"git.home.luguber.info/inful/docsite/internal/events"
	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/history"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/markdown"
	"git.home.luguber.info/inful/docsite/internal/menu"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/render"
	"git.home.luguber.info/inful/docsite/internal/source"
)

// Stage names used in logs and metrics.
const (
	StageSource = "source"
	StageLoad   = "load"
	StageGroup  = "group"
	StageRender = "render"
	StageWrite  = "write"
)

// Options configures a Generator.
type Options struct {
	ContentDir string
	OutputDir  string
	Extensions []string
	Render     render.Options
	Workers    int
	Clean      bool
	WriteNav   bool
}

// OptionsFromConfig derives generator options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ContentDir: cfg.Content.Dir,
		OutputDir:  cfg.Output.Directory,
		Extensions: cfg.Content.Extensions,
		Render: render.Options{
			Markdown: markdown.Options{
				Extensions: cfg.Render.Extensions,
				Unsafe:     cfg.Render.Unsafe,
				HardWraps:  cfg.Render.HardWraps,
			},
			SiteTitle: cfg.Site.Title,
			BaseURL:   cfg.Site.BaseURL,
			Layout:    cfg.Site.Layout,
		},
		Workers:  cfg.Render.Workers,
		Clean:    cfg.Output.ShouldClean(),
		WriteNav: cfg.Output.WriteNav(),
	}
}

// Fetcher provides a fresh content checkout before each run.
type Fetcher interface {
	Fetch(ctx context.Context) (source.Checkout, error)
}

// Generator produces the site. Runs are serialised; a Generator may be
// reused for rebuilds.
type Generator struct {
	opts        Options
	recorder    metrics.Recorder
	history     history.Store
	historyKeep int
	emitter     *events.Emitter
	fetcher     Fetcher
	logger      *slog.Logger
	newID       func() string

	mu sync.Mutex
}

// Option customises a Generator.
type Option func(*Generator)

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option { return func(g *Generator) { g.recorder = r } }

// WithHistory records every run in store, keeping the newest keep runs (0 keeps all).
func WithHistory(store history.Store, keep int) Option {
	return func(g *Generator) { g.history, g.historyKeep = store, keep }
}

// WithEmitter publishes run events.
func WithEmitter(e *events.Emitter) Option { return func(g *Generator) { g.emitter = e } }

// WithFetcher fetches content before each run; ContentDir is then taken
// relative to the fetched directory.
func WithFetcher(f Fetcher) Option { return func(g *Generator) { g.fetcher = f } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(g *Generator) { g.logger = l } }

// New constructs a Generator.
func New(opts Options, options ...Option) *Generator {
	g := &Generator{
		opts:     opts,
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
		newID:    uuid.NewString,
	}
	for _, o := range options {
		o(g)
	}
	return g
}

// Generate runs the pipeline once. Fatal conditions abort the run and are
// returned; unresolved links are collected in the report. The report is
// returned even when the run fails.
func (g *Generator) Generate(ctx context.Context) (*Report, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	report := &Report{BuildID: g.newID(), StartedAt: time.Now()}
	log := g.logger.With(logfields.BuildID(report.BuildID))
	log.Info("Build started", logfields.Source(g.opts.ContentDir), logfields.Output(g.opts.OutputDir))

	err := g.run(ctx, log, report)
	report.Duration = time.Since(report.StartedAt)
	report.Outcome = outcomeOf(err, report)

	g.recorder.ObserveBuildDuration(report.Duration)
	g.recorder.IncBuildOutcome(report.Outcome)
	g.recorder.AddWarnings(len(report.Warnings))
	g.record(ctx, log, report, err)
	g.publish(ctx, log, report, err)

	if err != nil {
		log.Error("Build failed", logfields.Error(err), logfields.Since(report.StartedAt))
		return report, err
	}
	log.Info("Build completed",
		logfields.Count(report.Pages),
		slog.Int("warnings", len(report.Warnings)),
		logfields.Since(report.StartedAt))
	return report, nil
}

func (g *Generator) run(ctx context.Context, log *slog.Logger, report *Report) error {
	contentDir := g.opts.ContentDir
	if g.fetcher != nil {
		err := g.stage(ctx, log, StageSource, func() error {
			checkout, err := g.fetcher.Fetch(ctx)
			if err != nil {
				return err
			}
			contentDir = filepath.Join(checkout.Dir, g.opts.ContentDir)
			report.Commit = checkout.Commit
			return nil
		})
		if err != nil {
			return err
		}
	}

	if g.opts.Clean {
		if err := checkCleanTarget(contentDir, g.opts.OutputDir); err != nil {
			return err
		}
	}

	var store *docstore.Store
	err := g.stage(ctx, log, StageLoad, func() error {
		var err error
		store, err = docstore.Load(ctx, contentDir, docstore.Options{Extensions: g.opts.Extensions})
		return err
	})
	if err != nil {
		return err
	}
	report.Documents = store.Len()
	g.recorder.SetDocuments(store.Len())

	docs := discoveryOrder(store.All())
	var tree menu.Tree
	_ = g.stage(ctx, log, StageGroup, func() error {
		tree = menu.Build(docs)
		report.Menus = tree.Names()
		for _, name := range report.Menus {
			log.Debug("Menu built", logfields.Menu(name), logfields.Count(len(tree.Group(name).Entries)))
		}
		return nil
	})

	var pages []*render.Page
	err = g.stage(ctx, log, StageRender, func() error {
		r, err := render.New(store, g.opts.Render)
		if err != nil {
			return err
		}
		g.recorder.SetRenderWorkers(g.opts.Workers)
		results := runOrdered(ctx, docs, g.opts.Workers, func(doc *docmodel.Document) (*render.Page, error) {
			return r.Render(doc, tree)
		})
		pages = make([]*render.Page, 0, len(results))
		for _, res := range results {
			if res.Err != nil {
				return res.Err
			}
			pages = append(pages, res.Value)
			report.Warnings = append(report.Warnings, res.Value.Warnings...)
		}
		return nil
	})
	if err != nil {
		return err
	}
	sortWarnings(report.Warnings)

	err = g.stage(ctx, log, StageWrite, func() error {
		w := render.NewWriter(g.opts.OutputDir)
		if g.opts.Clean {
			var err error
			if w, err = render.NewStagingWriter(g.opts.OutputDir); err != nil {
				return err
			}
			defer w.Discard()
		}
		for _, p := range pages {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := w.WritePage(p); err != nil {
				return err
			}
		}
		if g.opts.WriteNav {
			basePath, _ := render.BasePath(g.opts.Render.BaseURL)
			if err := w.WriteNav(tree, basePath); err != nil {
				return err
			}
		}
		return w.Commit()
	})
	if err != nil {
		return err
	}
	report.Pages = len(pages)
	report.Fingerprint = siteFingerprint(docs)
	return nil
}

// checkCleanTarget refuses to replace an output directory that is, or
// contains, the content directory.
func checkCleanTarget(contentDir, outputDir string) error {
	content, output := resolveDir(contentDir), resolveDir(outputDir)
	rel, err := filepath.Rel(output, content)
	if err != nil {
		return nil
	}
	if rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
		return errors.ConfigError("output directory contains the content directory; refusing to clean it").
			WithPath(outputDir).
			WithContext("content", contentDir).
			Build()
	}
	return nil
}

// resolveDir returns an absolute path with symlinks resolved when it exists.
func resolveDir(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return filepath.Clean(dir)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real
	}
	return abs
}

// stage times fn and classifies its result. Cancellation is reported as a
// runtime error wrapping the context error.
func (g *Generator) stage(ctx context.Context, log *slog.Logger, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		g.recorder.IncStageResult(name, metrics.ResultCanceled)
		return canceled(err)
	}
	start := time.Now()
	err := fn()
	g.recorder.ObserveStageDuration(name, time.Since(start))

	switch {
	case err == nil:
		g.recorder.IncStageResult(name, metrics.ResultSuccess)
		log.Debug("Stage finished", logfields.Stage(name), logfields.Since(start))
		return nil
	case stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded):
		g.recorder.IncStageResult(name, metrics.ResultCanceled)
		return canceled(err)
	default:
		g.recorder.IncStageResult(name, metrics.ResultFatal)
		return err
	}
}

func canceled(err error) error {
	if errors.IsClassified(err) {
		return err
	}
	return errors.WrapError(err, errors.CategoryRuntime, "build canceled").Fatal().Build()
}

func (g *Generator) record(ctx context.Context, log *slog.Logger, report *Report, runErr error) {
	if g.history == nil {
		return
	}
	// Record even when ctx was canceled so the aborted run is visible.
	ctx = context.WithoutCancel(ctx)
	run := history.Run{
		BuildID:     report.BuildID,
		StartedAt:   report.StartedAt,
		FinishedAt:  report.StartedAt.Add(report.Duration),
		Outcome:     string(report.Outcome),
		Documents:   report.Documents,
		Pages:       report.Pages,
		Warnings:    len(report.Warnings),
		Fingerprint: report.Fingerprint,
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}
	warnings := make([]history.Warning, len(report.Warnings))
	for i, w := range report.Warnings {
		warnings[i] = history.Warning{Source: w.Source, Target: w.Target, Line: w.Line}
	}
	if err := g.history.Record(ctx, run, warnings); err != nil {
		log.Warn("Failed to record build history", logfields.Error(err))
		return
	}
	if g.historyKeep > 0 {
		if n, err := g.history.Prune(ctx, g.historyKeep); err != nil {
			log.Warn("Failed to prune build history", logfields.Error(err))
		} else if n > 0 {
			log.Debug("Pruned build history", logfields.Count(int(n)))
		}
	}
}

func (g *Generator) publish(ctx context.Context, log *slog.Logger, report *Report, runErr error) {
	if g.emitter == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	links := make([]events.LinkUnresolved, len(report.Warnings))
	for i, w := range report.Warnings {
		links[i] = events.LinkUnresolved{BuildID: report.BuildID, Source: w.Source, Target: w.Target, Line: w.Line}
	}
	if err := g.emitter.LinksUnresolved(ctx, links); err != nil {
		log.Warn("Failed to publish link events", logfields.Error(err))
	}

	ev := events.BuildCompleted{
		BuildID:     report.BuildID,
		Outcome:     string(report.Outcome),
		Documents:   report.Documents,
		Pages:       report.Pages,
		Warnings:    len(report.Warnings),
		DurationMS:  report.Duration.Milliseconds(),
		Fingerprint: report.Fingerprint,
	}
	if runErr != nil {
		ev.Error = runErr.Error()
	}
	if err := g.emitter.BuildCompleted(ctx, ev); err != nil {
		log.Warn("Failed to publish build event", logfields.Error(err))
	}
}

func outcomeOf(err error, report *Report) metrics.BuildOutcome {
	switch {
	case err == nil && report.HasWarnings():
		return metrics.OutcomeWarning
	case err == nil:
		return metrics.OutcomeSuccess
	case stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeCanceled
	default:
		return metrics.OutcomeFailed
	}
}

func discoveryOrder(docs []*docmodel.Document) []*docmodel.Document {
	sort.Slice(docs, func(i, j int) bool { return docs[i].Order < docs[j].Order })
	return docs
}

// siteFingerprint hashes every document path with its content fingerprint.
func siteFingerprint(docs []*docmodel.Document) string {
	lines := make([]string, len(docs))
	for i, d := range docs {
		lines[i] = fmt.Sprintf("%s:%s", d.Path, d.Fingerprint)
	}
	sort.Strings(lines)
	return mdfp.CalculateFingerprintFromParts("", strings.Join(lines, "\n"))
}
