package site

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsite/internal/docstore"
	"git.home.luguber.info/inful/docsite/internal/events"
	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/frontmatter"
	"git.home.luguber.info/inful/docsite/internal/history"
	"git.home.luguber.info/inful/docsite/internal/metrics"
	"git.home.luguber.info/inful/docsite/internal/render"
	"git.home.luguber.info/inful/docsite/internal/source"
)

func writeContent(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func testOptions(t *testing.T, content string) Options {
	t.Helper()
	return Options{
		ContentDir: content,
		OutputDir:  filepath.Join(t.TempDir(), "public"),
		Workers:    3,
		Clean:      true,
		WriteNav:   true,
		Render:     render.Options{SiteTitle: "Futures"},
	}
}

type recordingRecorder struct {
	metrics.NoopRecorder
	mu       sync.Mutex
	stages   map[string]metrics.ResultLabel
	outcome  metrics.BuildOutcome
	warnings int
}

func newRecordingRecorder() *recordingRecorder {
	return &recordingRecorder{stages: map[string]metrics.ResultLabel{}}
}

func (r *recordingRecorder) IncStageResult(stage string, result metrics.ResultLabel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages[stage] = result
}

func (r *recordingRecorder) IncBuildOutcome(o metrics.BuildOutcome) { r.outcome = o }
func (r *recordingRecorder) AddWarnings(n int)                      { r.warnings += n }

type capturePublisher struct {
	subjects []string
}

func (c *capturePublisher) Publish(_ context.Context, subject string, _ []byte) error {
	c.subjects = append(c.subjects, subject)
	return nil
}

func (c *capturePublisher) Close() error { return nil }

func TestGenerate_MenuOrderedByWeight(t *testing.T) {
	content := writeContent(t, map[string]string{
		"a.md": "---\ntitle: A\nmenu: docs_intro\nweight: 100\n---\nalpha\n",
		"b.md": "---\ntitle: B\nmenu: docs_intro\nweight: 10\n---\nbeta\n",
		"c.md": "---\ntitle: C\n---\nnot in a menu\n",
	})
	opts := testOptions(t, content)
	rec := newRecordingRecorder()

	report, err := New(opts, WithRecorder(rec)).Generate(t.Context())
	require.NoError(t, err)

	assert.Equal(t, 3, report.Documents)
	assert.Equal(t, 3, report.Pages)
	assert.Equal(t, []string{"docs_intro"}, report.Menus)
	assert.Empty(t, report.Warnings)
	assert.NotEmpty(t, report.BuildID)
	assert.NotEmpty(t, report.Fingerprint)
	assert.Equal(t, metrics.OutcomeSuccess, report.Outcome)
	assert.Equal(t, metrics.OutcomeSuccess, rec.outcome)
	for _, stage := range []string{StageLoad, StageGroup, StageRender, StageWrite} {
		assert.Equal(t, metrics.ResultSuccess, rec.stages[stage], stage)
	}

	raw, err := os.ReadFile(filepath.Join(opts.OutputDir, render.NavFile))
	require.NoError(t, err)
	var nav []render.NavMenu
	require.NoError(t, json.Unmarshal(raw, &nav))
	require.Len(t, nav, 1)
	require.Len(t, nav[0].Items, 2)
	assert.Equal(t, "B", nav[0].Items[0].Name)
	assert.Equal(t, "A", nav[0].Items[1].Name)

	page, err := os.ReadFile(filepath.Join(opts.OutputDir, "a.html"))
	require.NoError(t, err)
	html := string(page)
	assert.Less(t, strings.Index(html, `href="/b.html"`), strings.Index(html, `href="/a.html"`))
}

func TestGenerate_UnresolvedLinkIsWarning(t *testing.T) {
	content := writeContent(t, map[string]string{
		"guide/intro.md": "---\ntitle: Intro\n---\nSee [x](missing.md) and [y](../ok.md).\n",
		"ok.md":          "---\ntitle: OK\n---\nBack to [intro](guide/intro.md) or [gone](gone.md).\n",
	})
	opts := testOptions(t, content)

	store, err := history.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	pub := &capturePublisher{}
	rec := newRecordingRecorder()

	gen := New(opts, WithHistory(store, 10), WithEmitter(events.NewEmitter(pub, "docsite")), WithRecorder(rec))
	report, err := gen.Generate(t.Context())
	require.NoError(t, err)

	require.Len(t, report.Warnings, 2)
	assert.Equal(t, "guide/intro.md", report.Warnings[0].Source)
	assert.Equal(t, "missing.md", report.Warnings[0].Target)
	assert.Equal(t, "ok.md", report.Warnings[1].Source)
	assert.Equal(t, metrics.OutcomeWarning, report.Outcome)
	assert.Equal(t, 2, rec.warnings)

	intro, err := os.ReadFile(filepath.Join(opts.OutputDir, "guide", "intro.html"))
	require.NoError(t, err)
	assert.Contains(t, string(intro), `href="missing.md"`)
	assert.Contains(t, string(intro), `href="/ok.html"`)

	run, warnings, err := store.Get(t.Context(), report.BuildID)
	require.NoError(t, err)
	assert.Equal(t, "warning", run.Outcome)
	assert.Equal(t, 2, run.Warnings)
	assert.Len(t, warnings, 2)

	assert.Equal(t, []string{
		"docsite.link.unresolved",
		"docsite.link.unresolved",
		"docsite.build.completed",
	}, pub.subjects)
}

func TestGenerate_MalformedFrontMatterAborts(t *testing.T) {
	content := writeContent(t, map[string]string{
		"good.md":   "---\ntitle: Good\n---\n",
		"broken.md": "---\ntitle: Broken\nno closing fence\n",
	})
	opts := testOptions(t, content)
	store, err := history.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	report, err := New(opts, WithHistory(store, 0)).Generate(t.Context())
	require.Error(t, err)
	require.ErrorIs(t, err, frontmatter.ErrMissingClosingDelimiter)
	assert.True(t, errors.HasCategory(err, errors.CategoryFrontMatter))
	assert.Contains(t, err.Error(), "broken.md")
	assert.Equal(t, metrics.OutcomeFailed, report.Outcome)

	_, statErr := os.Stat(opts.OutputDir)
	assert.True(t, os.IsNotExist(statErr))

	run, _, err := store.Get(t.Context(), report.BuildID)
	require.NoError(t, err)
	assert.Equal(t, "failed", run.Outcome)
	assert.NotEmpty(t, run.Error)
}

func TestGenerate_DuplicatePathAborts(t *testing.T) {
	content := writeContent(t, map[string]string{
		"guide/index.md":  "one",
		"guide/_index.md": "two",
	})

	_, err := New(testOptions(t, content)).Generate(t.Context())
	require.Error(t, err)
	require.ErrorIs(t, err, docstore.ErrDuplicatePath)
	assert.Contains(t, err.Error(), "guide")
}

func TestGenerate_Canceled(t *testing.T) {
	content := writeContent(t, map[string]string{"a.md": "a"})
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	rec := newRecordingRecorder()

	report, err := New(testOptions(t, content), WithRecorder(rec)).Generate(ctx)
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, metrics.OutcomeCanceled, report.Outcome)
}

func TestGenerate_CleanRemovesStaleOutput(t *testing.T) {
	content := writeContent(t, map[string]string{"a.md": "a"})
	opts := testOptions(t, content)
	stale := filepath.Join(opts.OutputDir, "old.html")
	require.NoError(t, os.MkdirAll(opts.OutputDir, 0o755))
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	_, err := New(opts).Generate(t.Context())
	require.NoError(t, err)
	assert.NoFileExists(t, stale)
	assert.FileExists(t, filepath.Join(opts.OutputDir, "a.html"))

	opts.Clean = false
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))
	_, err = New(opts).Generate(t.Context())
	require.NoError(t, err)
	assert.FileExists(t, stale)
}

func TestGenerate_CleanRefusesOutputHoldingContent(t *testing.T) {
	root := t.TempDir()
	content := filepath.Join(root, "docs")
	require.NoError(t, os.MkdirAll(content, 0o755))
	intro := filepath.Join(content, "intro.md")
	require.NoError(t, os.WriteFile(intro, []byte("# Intro\n"), 0o644))

	for name, output := range map[string]string{
		"parent":         root,
		"same":           content,
		"dotted":         filepath.Join(content, "sub", ".."),
		"trailing-slash": content + string(filepath.Separator),
	} {
		t.Run(name, func(t *testing.T) {
			opts := testOptions(t, content)
			opts.OutputDir = output

			_, err := New(opts).Generate(t.Context())
			require.Error(t, err)
			assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
			assert.FileExists(t, intro)
		})
	}

	opts := testOptions(t, content)
	opts.OutputDir = root
	opts.Clean = false
	_, err := New(opts).Generate(t.Context())
	require.NoError(t, err)
	assert.FileExists(t, intro)
	assert.FileExists(t, filepath.Join(root, "intro.html"))
}

func TestGenerate_FailedRunKeepsPreviousOutput(t *testing.T) {
	content := writeContent(t, map[string]string{"a.md": "a"})
	opts := testOptions(t, content)
	_, err := New(opts).Generate(t.Context())
	require.NoError(t, err)

	opts.Render.Layout = filepath.Join(t.TempDir(), "missing.html")
	_, err = New(opts).Generate(t.Context())
	require.Error(t, err)
	assert.FileExists(t, filepath.Join(opts.OutputDir, "a.html"))
}

func TestGenerate_FingerprintTracksContent(t *testing.T) {
	content := writeContent(t, map[string]string{"a.md": "---\ntitle: A\n---\none\n"})
	gen := New(testOptions(t, content))

	first, err := gen.Generate(t.Context())
	require.NoError(t, err)
	again, err := gen.Generate(t.Context())
	require.NoError(t, err)
	assert.Equal(t, first.Fingerprint, again.Fingerprint)
	assert.NotEqual(t, first.BuildID, again.BuildID)

	require.NoError(t, os.WriteFile(filepath.Join(content, "a.md"), []byte("---\ntitle: A\n---\ntwo\n"), 0o644))
	changed, err := gen.Generate(t.Context())
	require.NoError(t, err)
	assert.NotEqual(t, first.Fingerprint, changed.Fingerprint)
}

type fakeFetcher struct {
	dir string
	err error
}

func (f fakeFetcher) Fetch(context.Context) (source.Checkout, error) {
	return source.Checkout{Dir: f.dir, Commit: "0123456789abcdef"}, f.err
}

func TestGenerate_FetcherProvidesContent(t *testing.T) {
	repo := writeContent(t, map[string]string{"docs/index.md": "---\ntitle: Home\n---\n"})
	opts := testOptions(t, "docs")

	report, err := New(opts, WithFetcher(fakeFetcher{dir: repo})).Generate(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "0123456789abcdef", report.Commit)
	assert.FileExists(t, filepath.Join(opts.OutputDir, "index.html"))

	fetchErr := errors.SourceError("clone failed").Build()
	_, err = New(opts, WithFetcher(fakeFetcher{err: fetchErr})).Generate(t.Context())
	require.ErrorIs(t, err, fetchErr)
}

func TestOptionsFromConfigDefaults(t *testing.T) {
	cfg := mustDefaultConfig(t)
	opts := OptionsFromConfig(cfg)

	assert.Equal(t, "docs", opts.ContentDir)
	assert.Equal(t, "public", opts.OutputDir)
	assert.True(t, opts.Clean)
	assert.True(t, opts.WriteNav)
	assert.Equal(t, "Documentation", opts.Render.SiteTitle)
	assert.Positive(t, opts.Workers)
}
