package commands

import (
	"time"

	"git.home.luguber.info/inful/docsite/internal/config"
	"git.home.luguber.info/inful/docsite/internal/site"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Content string `short:"C" help:"Content directory (overrides content.dir)"`
	Output  string `short:"o" help:"Output directory (overrides output.directory)"`
	BaseURL string `name:"base-url" help:"Public base URL (overrides site.base_url)"`
	Workers int    `short:"w" help:"Render workers (overrides render.workers)"`
	NoClean bool   `name:"no-clean" help:"Keep existing files in the output directory"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	b.apply(cfg)

	ctx, cancel := signalContext()
	defer cancel()

	gen, cleanup, err := newGenerator(cfg, site.OptionsFromConfig(cfg), nil, g.Logger)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := gen.Generate(ctx)
	if err != nil {
		return err
	}
	g.printf("Built %d page(s) from %d document(s) into %s in %s\n",
		report.Pages, report.Documents, cfg.Output.Directory, report.Duration.Round(time.Millisecond))
	printWarnings(g, report)
	return nil
}

// apply copies flag overrides onto cfg.
func (b *BuildCmd) apply(cfg *config.Config) {
	if b.Content != "" {
		cfg.Content.Dir = b.Content
	}
	if b.Output != "" {
		cfg.Output.Directory = b.Output
	}
	if b.BaseURL != "" {
		cfg.Site.BaseURL = b.BaseURL
	}
	if b.Workers > 0 {
		cfg.Render.Workers = b.Workers
	}
	if b.NoClean {
		clean := false
		cfg.Output.Clean = &clean
	}
}
