package docstore

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsite/internal/docmodel"
	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func TestLoad_ParsesDocumentsKeyedByPath(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"index.md":                "---\ntitle: Home\n---\nWelcome\n",
		"docs/getting-started.md": "---\ntitle: Getting Started\nmenu: docs_intro\nweight: 10\n---\nHi\n",
		"docs/server/_index.md":   "---\ntitle: Server\n---\n",
		"notes.txt":               "ignored",
	})

	s, err := Load(t.Context(), root, Options{})
	require.NoError(t, err)
	require.Equal(t, 3, s.Len())

	doc, err := s.Get("docs/getting-started")
	require.NoError(t, err)
	assert.Equal(t, "Getting Started", doc.Title)
	assert.Equal(t, "docs/getting-started.md", doc.SourcePath)
	assert.Equal(t, 10, doc.Weight)
	assert.Equal(t, []docmodel.MenuRef{docmodel.Simple("docs_intro")}, doc.Menus)
	assert.Equal(t, []byte("Hi\n"), doc.Body)
	assert.NotEmpty(t, doc.Fingerprint)

	home, err := s.Get("")
	require.NoError(t, err)
	assert.True(t, home.Index)

	server, err := s.Get("docs/server")
	require.NoError(t, err)
	assert.True(t, server.Index)

	_, err = s.Get("missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLoad_DiscoveryOrderIsLexical(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"b.md":   "b",
		"a.md":   "a",
		"c/a.md": "ca",
	})

	s, err := Load(t.Context(), root, Options{})
	require.NoError(t, err)

	docs := s.All()
	sort.Slice(docs, func(i, j int) bool { return docs[i].Order < docs[j].Order })
	var got []string
	for _, d := range docs {
		got = append(got, d.SourcePath)
	}
	assert.Equal(t, []string{"a.md", "b.md", "c/a.md"}, got)
}

func TestLoad_NoFrontMatterDocumentIsStored(t *testing.T) {
	root := writeFiles(t, map[string]string{"plain.md": "# Plain\n"})

	s, err := Load(t.Context(), root, Options{})
	require.NoError(t, err)

	all := s.All()
	require.Len(t, all, 1)
	assert.Empty(t, all[0].Menus)
	assert.Zero(t, all[0].Weight)
}

func TestLoad_DuplicatePath(t *testing.T) {
	pairs := [][2]string{
		{"guide/Intro.md", "guide/intro.markdown"},
		{"guide/intro.md", "guide/intro/index.md"},
		{"guide/intro/_index.md", "guide/intro.markdown"},
		{"zeta.md", "Zeta.markdown"},
	}

	for _, pair := range pairs {
		for _, ordered := range [][2]string{pair, {pair[1], pair[0]}} {
			root := writeFiles(t, map[string]string{
				ordered[0]: "---\ntitle: one\n---\n",
				ordered[1]: "---\ntitle: two\n---\n",
			})

			_, err := Load(t.Context(), root, Options{})
			require.Error(t, err, "pair %v", ordered)
			require.ErrorIs(t, err, ErrDuplicatePath)
			require.True(t, errors.HasCategory(err, errors.CategoryDuplicatePath))

			classified, ok := errors.AsClassified(err)
			require.True(t, ok)
			first, _ := classified.Context().GetString("first")
			second, _ := classified.Context().GetString("second")
			assert.ElementsMatch(t, []string{pair[0], pair[1]}, []string{first, second})
		}
	}
}

func TestLoad_MalformedFrontMatterNamesSource(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"ok.md":     "---\ntitle: ok\n---\n",
		"broken.md": "---\ntitle: broken\n\nno closing fence\n",
	})

	_, err := Load(t.Context(), root, Options{})
	require.Error(t, err)
	require.ErrorIs(t, err, ErrMalformedFrontMatter)
	require.True(t, errors.HasCategory(err, errors.CategoryFrontMatter))
	assert.Contains(t, err.Error(), "broken.md")
}

func TestLoad_SkipsDocIgnoreAndHiddenDirectories(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"keep.md":             "keep",
		"drafts/.docignore":   "",
		"drafts/wip.md":       "wip",
		".git/description.md": "git",
	})

	s, err := Load(t.Context(), root, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
}

func TestLoad_CustomExtensions(t *testing.T) {
	root := writeFiles(t, map[string]string{"a.md": "a", "b.mdx": "b"})

	s, err := Load(t.Context(), root, Options{Extensions: []string{"mdx"}})
	require.NoError(t, err)
	require.Equal(t, 1, s.Len())
	_, err = s.Get("b")
	require.NoError(t, err)
}

func TestLoad_MissingDirectory(t *testing.T) {
	_, err := Load(t.Context(), filepath.Join(t.TempDir(), "nope"), Options{})
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryFileSystem))
}

func TestLoad_CanceledContext(t *testing.T) {
	root := writeFiles(t, map[string]string{"a.md": "a"})

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := Load(ctx, root, Options{})
	require.ErrorIs(t, err, context.Canceled)
}
