package docstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePath(t *testing.T) {
	cases := []struct {
		in    string
		path  string
		index bool
	}{
		{"intro.md", "intro", false},
		{"Guide/Intro.md", "guide/intro", false},
		{"guide/intro/index.md", "guide/intro", true},
		{"guide/_index.markdown", "guide", true},
		{"index.md", "", true},
		{`guide\windows.md`, "guide/windows", false},
		{"./guide/../faq.md", "faq", false},
		// "é" composed and decomposed normalise to the same path.
		{"café.md", "café", false},
		{"cafe\u0301.md", "café", false},
	}
	for _, c := range cases {
		p, idx := NormalizePath(c.in)
		assert.Equal(t, c.path, p, c.in)
		assert.Equal(t, c.index, idx, c.in)
	}
}

func TestResolve(t *testing.T) {
	root := writeFiles(t, map[string]string{
		"index.md":             "home",
		"guide/_index.md":      "guide",
		"guide/intro.md":       "intro",
		"guide/server/tls.md":  "tls",
		"runtime/overview.md":  "overview",
		"guide/images/arch.md": "not an image",
	})
	s, err := Load(t.Context(), root, Options{})
	require.NoError(t, err)

	from, err := s.Get("guide/intro")
	require.NoError(t, err)

	cases := []struct {
		target string
		want   string
		ok     bool
	}{
		{"server/tls.md", "guide/server/tls", true},
		{"./server/TLS.md", "guide/server/tls", true},
		{"../runtime/overview.md", "runtime/overview", true},
		{"/runtime/overview.md", "runtime/overview", true},
		{"../runtime/overview.html", "runtime/overview", true},
		{"server/tls", "guide/server/tls", true},
		{"./", "guide", true},
		{"../", "", true},
		{"_index.md", "guide", true},
		{"missing.md", "", false},
		{"../../outside.md", "", false},
		{"images/arch.png", "", false},
		{"server%2Ftls.md", "guide/server/tls", true},
	}
	for _, c := range cases {
		doc, ok := s.Resolve(from, c.target)
		require.Equal(t, c.ok, ok, c.target)
		if c.ok {
			assert.Equal(t, c.want, doc.Path, c.target)
		}
	}
}

func TestIsDocumentTarget(t *testing.T) {
	s, err := Load(t.Context(), t.TempDir(), Options{})
	require.NoError(t, err)

	assert.True(t, s.IsDocumentTarget("intro.md"))
	assert.True(t, s.IsDocumentTarget("intro.MARKDOWN"))
	assert.True(t, s.IsDocumentTarget("intro.html"))
	assert.True(t, s.IsDocumentTarget("intro"))
	assert.True(t, s.IsDocumentTarget("guide/"))
	assert.False(t, s.IsDocumentTarget("images/arch.png"))
	assert.False(t, s.IsDocumentTarget("files/sample.tar.gz"))
}
