package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int    `short:"n" default:"10" help:"Number of runs to list"`
	Build string `arg:"" optional:"" help:"Show one run with its warnings"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	if _, err := os.Stat(cfg.History.Path); os.IsNotExist(err) {
		g.printf("No build history at %s\n", cfg.History.Path)
		return nil
	}

	store, err := history.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	if h.Build != "" {
		return h.show(ctx, g, store)
	}

	runs, err := store.Recent(ctx, h.Limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		g.printf("No builds recorded\n")
		return nil
	}
	tw := tabwriter.NewWriter(g.out(), 0, 4, 2, ' ', 0)
	_, _ = tw.Write([]byte("BUILD\tSTARTED\tOUTCOME\tDOCS\tPAGES\tWARNINGS\tDURATION\n"))
	for _, r := range runs {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			r.BuildID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Outcome,
			r.Documents, r.Pages, r.Warnings, r.Duration().Round(time.Millisecond))
	}
	if err := tw.Flush(); err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to write history table").Build()
	}
	return nil
}

func (h *HistoryCmd) show(ctx context.Context, g *Global, store history.Store) error {
	run, warnings, err := store.Get(ctx, h.Build)
	if err != nil {
		return err
	}
	g.printf("Build:       %s\n", run.BuildID)
	g.printf("Started:     %s\n", run.StartedAt.Local().Format(time.RFC3339))
	g.printf("Duration:    %s\n", run.Duration().Round(time.Millisecond))
	g.printf("Outcome:     %s\n", run.Outcome)
	g.printf("Documents:   %d\n", run.Documents)
	g.printf("Pages:       %d\n", run.Pages)
	g.printf("Fingerprint: %s\n", run.Fingerprint)
	if run.Error != "" {
		g.printf("Error:       %s\n", run.Error)
	}
	for _, w := range warnings {
		g.printf("  %s:%d: unresolved link %q\n", w.Source, w.Line, w.Target)
	}
	return nil
}
