package config

import "runtime"

const (
	defaultTitle         = "Documentation"
	defaultContentDir    = "docs"
	defaultOutputDir     = "public"
	defaultHistoryPath   = ".docsite/history.db"
	defaultHistoryKeep   = 100
	defaultEventsURL     = "nats://127.0.0.1:4222"
	defaultSubjectPrefix = "docsite"
	defaultMetricsPath   = "/metrics"
	defaultServeAddr     = "127.0.0.1:1313"
	defaultDebounce      = "300ms"
	defaultInterval      = "15m"
	defaultGitBranch     = "main"
	defaultGitDepth      = 1
	defaultGitWorkspace  = ".docsite/source"
	maxDefaultWorkers    = 8
)

func applyDefaults(cfg *Config) {
	if cfg.Site.Title == "" {
		cfg.Site.Title = defaultTitle
	}
	if cfg.Content.Dir == "" {
		cfg.Content.Dir = defaultContentDir
	}
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = defaultOutputDir
	}
	if cfg.Render.Workers == 0 {
		cfg.Render.Workers = min(runtime.NumCPU(), maxDefaultWorkers)
	}
	if g := cfg.Source.Git; g != nil {
		if g.Branch == "" {
			g.Branch = defaultGitBranch
		}
		if g.Depth == 0 {
			g.Depth = defaultGitDepth
		}
		if g.Workspace == "" {
			g.Workspace = defaultGitWorkspace
		}
	}
	if cfg.History.Path == "" {
		cfg.History.Path = defaultHistoryPath
	}
	if cfg.History.Keep == 0 {
		cfg.History.Keep = defaultHistoryKeep
	}
	if cfg.Events.URL == "" {
		cfg.Events.URL = defaultEventsURL
	}
	if cfg.Events.SubjectPrefix == "" {
		cfg.Events.SubjectPrefix = defaultSubjectPrefix
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = defaultMetricsPath
	}
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
	if cfg.Schedule.Interval == "" {
		cfg.Schedule.Interval = defaultInterval
	}
	if cfg.Serve.Addr == "" {
		cfg.Serve.Addr = defaultServeAddr
	}
	if cfg.Serve.Debounce == "" {
		cfg.Serve.Debounce = defaultDebounce
	}
}
