package commands

import (
	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/linkcheck"
	"git.home.luguber.info/inful/docsite/internal/render"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct {
	Output string `short:"o" help:"Generated site directory (overrides output.directory)"`
}

func (c *CheckCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	if c.Output != "" {
		cfg.Output.Directory = c.Output
	}
	basePath, err := render.BasePath(cfg.Site.BaseURL)
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "invalid base URL").
			WithContext("base_url", cfg.Site.BaseURL).Build()
	}

	ctx, cancel := signalContext()
	defer cancel()

	res, err := linkcheck.New(cfg.Output.Directory, basePath).Check(ctx)
	if err != nil {
		return err
	}
	g.printf("Checked %d link(s) in %d page(s)\n", res.Links, res.Pages)
	if len(res.Broken) == 0 {
		return nil
	}
	for _, b := range res.Broken {
		g.printf("  %s: <%s> %s\n", b.Page, b.Tag, b.URL)
	}
	return errors.NewError(errors.CategoryValidation, "broken internal links found").
		WithContext("count", len(res.Broken)).
		WithPath(cfg.Output.Directory).Build()
}
