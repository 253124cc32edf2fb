// Package commands implements the docsite command line.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/events"
	"git.home.luguber.info/inful/docsite/internal/history"
	"git.home.luguber.info/inful/docsite/internal/logfields"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/site"
	"git.home.luguber.info/inful/docsite/internal/source"
)

// LogLevelEnv overrides the configured log level.
const LogLevelEnv = "DOCSITE_LOG_LEVEL"

const natsConnectTimeout = 5 * time.Second

// Global is shared state passed to every command.
type Global struct {
	Logger *slog.Logger
	// Out receives user facing output; nil means stdout.
	Out io.Writer
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

func (g *Global) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(g.out(), format, args...)
}

// CLI definition and global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"docsite.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build      BuildCmd   `cmd:"" help:"Generate the site once"`
	Serve      ServeCmd   `cmd:"" help:"Generate, serve over HTTP and rebuild on changes"`
	Check      CheckCmd   `cmd:"" help:"Check internal links of the generated site"`
	New        NewCmd     `cmd:"" help:"Scaffold a new page"`
	History    HistoryCmd `cmd:"" help:"List recent build runs"`
	Daemon     DaemonCmd  `cmd:"" help:"Rebuild the site on a fixed interval"`
	Init       InitCmd    `cmd:"" help:"Write an example configuration file"`
	VersionCmd VersionCmd `cmd:"" name:"version" help:"Print version and build metadata"`
}

// AfterApply runs after flag parsing and installs a provisional logger; the
// configured format is applied once the config file is loaded.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	slog.SetDefault(config.NewLogger(os.Stderr, config.LogFormatText, c.logLevel(config.LogLevelInfo)))
	return nil
}

func (c *CLI) logLevel(configured config.LogLevel) slog.Level {
	if c.Verbose {
		return slog.LevelDebug
	}
	if env := os.Getenv(LogLevelEnv); env != "" {
		return config.NormalizeLogLevel(env).Slog()
	}
	return configured.Slog()
}

// loadConfig reads the configuration. The default file may be absent, an
// explicitly named one may not.
func (c *CLI) loadConfig(g *Global) (*config.Config, error) {
	path := c.Config
	if path == "" {
		path = config.DefaultFile
	}
	cfg, err := config.LoadOrDefault(path, !c.isDefaultConfig())
	if err != nil {
		return nil, err
	}
	logger := config.NewLogger(os.Stderr, cfg.Logging.Format, c.logLevel(cfg.Logging.Level))
	slog.SetDefault(logger)
	if g != nil {
		g.Logger = logger
	}
	return cfg, nil
}

func (c *CLI) isDefaultConfig() bool {
	return c.Config == "" || c.Config == config.DefaultFile
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// newGenerator wires a Generator with the history store, event emitter and
// git source enabled in cfg. The returned cleanup releases them; it is nil
// when an error is returned.
func newGenerator(cfg *config.Config, opts site.Options, recorder metrics.Recorder, logger *slog.Logger) (*site.Generator, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}
	options := []site.Option{site.WithLogger(logger)}
	if recorder != nil {
		options = append(options, site.WithRecorder(recorder))
	}

	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn("Failed to release resource", logfields.Error(err))
			}
		}
	}

	if cfg.History.Enabled {
		store, err := history.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, store.Close)
		options = append(options, site.WithHistory(store, cfg.History.Keep))
	}

	if cfg.Events.Enabled {
		pub, err := events.ConnectNATS(cfg.Events.URL, natsConnectTimeout)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		emitter := events.NewEmitter(pub, cfg.Events.SubjectPrefix)
		closers = append(closers, emitter.Close)
		options = append(options, site.WithEmitter(emitter))
	}

	if g := cfg.Source.Git; g != nil {
		gitOpts := source.GitOptions{
			URL:       g.URL,
			Branch:    g.Branch,
			Depth:     g.Depth,
			Workspace: g.Workspace,
		}
		if g.Auth != nil {
			gitOpts.Username = g.Auth.Username
			gitOpts.Token = g.Auth.Token
		}
		options = append(options, site.WithFetcher(source.NewGit(gitOpts)))
	}

	return site.New(opts, options...), cleanup, nil
}

// printWarnings lists unresolved links after a successful run.
func printWarnings(g *Global, report *site.Report) {
	if report == nil || !report.HasWarnings() {
		return
	}
	g.printf("%d unresolved link(s):\n", len(report.Warnings))
	for _, w := range report.Warnings {
		g.printf("  %s\n", w.String())
	}
}
