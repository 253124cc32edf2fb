package site

import (
	"sort"
	"time"

	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/render"
)

// Report summarises a generation run.
type Report struct {
	BuildID   string
	StartedAt time.Time
	Documents int
	Pages     int
	// Menus lists the menu groups, sorted.
	Menus []string
	// Warnings holds every unresolved link, sorted by source path then line.
	Warnings    []render.Warning
	Duration    time.Duration
	Fingerprint string
	Outcome     metrics.BuildOutcome
	// Commit is the source revision when content came from git.
	Commit string
}

// HasWarnings reports whether any non-fatal condition was collected.
func (r *Report) HasWarnings() bool { return len(r.Warnings) > 0 }

func sortWarnings(ws []render.Warning) {
	sort.SliceStable(ws, func(i, j int) bool {
		a, b := ws[i], ws[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		return a.Line < b.Line
	})
}
