// Package config loads and validates the docsite.yaml configuration file.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// DefaultFile is the configuration file looked up when none is given.
const DefaultFile = "docsite.yaml"

// Config is the complete site configuration.
type Config struct {
	Site     SiteConfig     `yaml:"site"`
	Content  ContentConfig  `yaml:"content"`
	Output   OutputConfig   `yaml:"output"`
	Render   RenderConfig   `yaml:"render"`
	Source   SourceConfig   `yaml:"source,omitempty"`
	History  HistoryConfig  `yaml:"history,omitempty"`
	Events   EventsConfig   `yaml:"events,omitempty"`
	Metrics  MetricsConfig  `yaml:"metrics,omitempty"`
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
	Schedule ScheduleConfig `yaml:"schedule,omitempty"`
	Serve    ServeConfig    `yaml:"serve,omitempty"`
}

// SiteConfig describes the generated site.
type SiteConfig struct {
	Title   string `yaml:"title"`
	BaseURL string `yaml:"base_url,omitempty"`
	// Layout is an optional html/template file replacing the built-in page layout.
	Layout string `yaml:"layout,omitempty"`
}

// ContentConfig locates the Markdown sources.
type ContentConfig struct {
	// Dir is the content root; with a git source it is relative to the clone.
	Dir        string   `yaml:"dir"`
	Extensions []string `yaml:"extensions,omitempty"`
}

// OutputConfig controls where pages are written.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Clean     *bool  `yaml:"clean,omitempty"` // default true
	Nav       *bool  `yaml:"nav,omitempty"`   // write nav.json, default true
}

// ShouldClean reports whether the output directory is emptied before writing.
func (o OutputConfig) ShouldClean() bool { return o.Clean == nil || *o.Clean }

// WriteNav reports whether nav.json is written.
func (o OutputConfig) WriteNav() bool { return o.Nav == nil || *o.Nav }

// RenderConfig tunes Markdown rendering.
type RenderConfig struct {
	Workers    int      `yaml:"workers,omitempty"`
	Unsafe     bool     `yaml:"unsafe,omitempty"`
	HardWraps  bool     `yaml:"hard_wraps,omitempty"`
	Extensions []string `yaml:"extensions,omitempty"`
}

// SourceConfig selects where content comes from; empty means the local content dir.
type SourceConfig struct {
	Git *GitSource `yaml:"git,omitempty"`
}

// GitSource clones content from a git repository before each build.
type GitSource struct {
	URL       string      `yaml:"url"`
	Branch    string      `yaml:"branch,omitempty"`
	Depth     int         `yaml:"depth,omitempty"`
	Workspace string      `yaml:"workspace,omitempty"`
	Auth      *AuthConfig `yaml:"auth,omitempty"`
}

// AuthConfig holds HTTP basic credentials for a git source.
type AuthConfig struct {
	Username string `yaml:"username,omitempty"`
	Token    string `yaml:"token,omitempty"`
}

// HistoryConfig enables the SQLite build history.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
	Keep    int    `yaml:"keep,omitempty"`
}

// EventsConfig enables publishing build events to NATS.
type EventsConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url,omitempty"`
	SubjectPrefix string `yaml:"subject_prefix,omitempty"`
}

// MetricsConfig enables Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// LoggingConfig selects log level and handler format.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level,omitempty"`
	Format LogFormat `yaml:"format,omitempty"`
}

// ScheduleConfig configures periodic rebuilds in daemon mode.
type ScheduleConfig struct {
	Interval string `yaml:"interval,omitempty"`
}

// IntervalDuration parses Interval; it is validated on load.
func (s ScheduleConfig) IntervalDuration() time.Duration {
	d, _ := time.ParseDuration(s.Interval)
	return d
}

// ServeConfig configures the preview server.
type ServeConfig struct {
	Addr     string `yaml:"addr,omitempty"`
	Watch    *bool  `yaml:"watch,omitempty"` // default true
	Debounce string `yaml:"debounce,omitempty"`
}

// ShouldWatch reports whether content changes trigger rebuilds.
func (s ServeConfig) ShouldWatch() bool { return s.Watch == nil || *s.Watch }

// DebounceDuration parses Debounce; it is validated on load.
func (s ServeConfig) DebounceDuration() time.Duration {
	d, _ := time.ParseDuration(s.Debounce)
	return d
}

// Load reads a configuration file, expanding ${VAR} references from the
// environment (after .env files are loaded), applying defaults and
// validating the result.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	// #nosec G304 -- configuration path is chosen by the operator.
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").WithPath(configPath).Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			Fatal().WithPath(configPath).Build()
	}
	return Parse(data, configPath)
}

// LoadOrDefault loads configPath when it exists. A missing file is only an
// error when required is set; otherwise defaults are returned.
func LoadOrDefault(configPath string, required bool) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) && !required {
		loadEnvFiles()
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg, nil
	}
	return Load(configPath)
}

// Parse decodes configuration bytes. source names the origin in errors.
func Parse(data []byte, source string) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").
			Fatal().WithPath(source).Build()
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, errors.WrapError(err, errors.CategoryValidation, "configuration validation failed").
			Fatal().WithPath(source).Build()
	}
	return &cfg, nil
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithPath(configPath).Build()
	}

	example := Config{
		Site:    SiteConfig{Title: "Documentation", BaseURL: "https://docs.example.com/"},
		Content: ContentConfig{Dir: "./docs"},
		Output:  OutputConfig{Directory: "./public"},
		Render:  RenderConfig{Workers: 4, Extensions: []string{"gfm", "footnote", "definition"}},
		History: HistoryConfig{Enabled: true, Path: "./.docsite/history.db", Keep: 50},
		Metrics: MetricsConfig{Enabled: true, Path: "/metrics"},
		Logging: LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
		Serve:   ServeConfig{Addr: "127.0.0.1:1313", Debounce: "300ms"},
	}
	data, err := yaml.Marshal(&example)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal config").Build()
	}
	// #nosec G306 -- example configuration holds no secrets.
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").
			WithPath(configPath).Build()
	}
	return nil
}
