package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"git.home.luguber.info/inful/docsite/internal/markdown"
)

// Validate checks the configuration after defaults were applied.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Site),
		validation.Field(&c.Content),
		validation.Field(&c.Output),
		validation.Field(&c.Render),
		validation.Field(&c.Source),
		validation.Field(&c.History),
		validation.Field(&c.Events),
		validation.Field(&c.Metrics),
		validation.Field(&c.Logging),
		validation.Field(&c.Schedule),
		validation.Field(&c.Serve),
	)
}

func (s SiteConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Title, validation.Required),
		validation.Field(&s.BaseURL, validation.By(baseURL)),
	)
}

func (c ContentConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.Extensions, validation.Each(validation.By(fileExtension))),
	)
}

func (o OutputConfig) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.Directory, validation.Required),
	)
}

func (r RenderConfig) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Workers, validation.Min(1), validation.Max(64)),
		validation.Field(&r.Extensions, validation.Each(validation.By(markdownExtension))),
	)
}

func (s SourceConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Git),
	)
}

func (g GitSource) Validate() error {
	return validation.ValidateStruct(&g,
		validation.Field(&g.URL, validation.Required),
		validation.Field(&g.Depth, validation.Min(0)),
		validation.Field(&g.Workspace, validation.Required),
	)
}

func (h HistoryConfig) Validate() error {
	return validation.ValidateStruct(&h,
		validation.Field(&h.Path, validation.When(h.Enabled, validation.Required)),
		validation.Field(&h.Keep, validation.Min(0)),
	)
}

func (e EventsConfig) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.URL, validation.When(e.Enabled, validation.Required)),
		validation.Field(&e.SubjectPrefix, validation.When(e.Enabled, validation.Required),
			validation.By(subjectToken)),
	)
}

func (m MetricsConfig) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Path, validation.When(m.Enabled, validation.Required),
			validation.By(absolutePath)),
	)
}

func (l LoggingConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError)),
		validation.Field(&l.Format, validation.In(LogFormatText, LogFormatJSON)),
	)
}

func (s ScheduleConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Interval, validation.By(positiveDuration)),
	)
}

func (s ServeConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Addr, validation.Required),
		validation.Field(&s.Debounce, validation.By(positiveDuration)),
	)
}

func baseURL(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("must be a valid URL: %w", err)
	}
	if u.Scheme != "" && u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	return nil
}

func fileExtension(value any) error {
	s, _ := value.(string)
	if !strings.HasPrefix(s, ".") || len(s) < 2 {
		return fmt.Errorf("extension %q must start with a dot", s)
	}
	return nil
}

func markdownExtension(value any) error {
	s, _ := value.(string)
	if !markdown.KnownExtension(s) {
		return fmt.Errorf("unknown markdown extension %q", s)
	}
	return nil
}

func subjectToken(value any) error {
	s, _ := value.(string)
	if strings.ContainsAny(s, " *>") {
		return fmt.Errorf("subject prefix %q must not contain spaces or wildcards", s)
	}
	return nil
}

func absolutePath(value any) error {
	s, _ := value.(string)
	if s != "" && !strings.HasPrefix(s, "/") {
		return fmt.Errorf("path %q must start with /", s)
	}
	return nil
}

func positiveDuration(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q", s)
	}
	if d <= 0 {
		return fmt.Errorf("duration %q must be positive", s)
	}
	return nil
}
