// Package markdown configures the goldmark engine used to render document
// bodies and exposes the link analysis the renderer rewrites.
package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
)

// Options controls how Markdown is parsed and rendered.
type Options struct {
	// Extensions names goldmark extensions to enable; empty selects GFM,
	// footnotes and definition lists.
	Extensions []string
	// Unsafe allows raw HTML in bodies to pass through.
	Unsafe bool
	// HardWraps renders soft line breaks as <br>.
	HardWraps bool
}

var extensionRegistry = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"tables":        extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"autolink":      extension.Linkify,
	"tasklist":      extension.TaskList,
	"definition":    extension.DefinitionList,
	"footnote":      extension.Footnote,
	"typographer":   extension.Typographer,
}

// NewEngine builds a goldmark.Markdown for the options. Unknown extension
// names are ignored. The returned engine is safe for concurrent use.
func NewEngine(opts Options) goldmark.Markdown {
	rendererOptions := []renderer.Option{}
	if opts.Unsafe {
		rendererOptions = append(rendererOptions, html.WithUnsafe())
	}
	if opts.HardWraps {
		rendererOptions = append(rendererOptions, html.WithHardWraps())
	}

	return goldmark.New(
		goldmark.WithExtensions(collectExtensions(opts.Extensions)...),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(rendererOptions...),
	)
}

// KnownExtension reports whether name is a supported extension.
func KnownExtension(name string) bool {
	_, ok := extensionRegistry[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

func collectExtensions(names []string) []goldmark.Extender {
	if len(names) == 0 {
		return []goldmark.Extender{extension.GFM, extension.Footnote, extension.DefinitionList}
	}

	var extenders []goldmark.Extender
	seen := map[string]struct{}{}
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, ok := seen[key]; ok {
			continue
		}
		ext, ok := extensionRegistry[key]
		if !ok {
			continue
		}
		extenders = append(extenders, ext)
		seen[key] = struct{}{}
	}
	return extenders
}

// Parse parses a Markdown body (front matter already removed) into an AST.
// Reference-style links are resolved into Link nodes by the parser.
func Parse(md goldmark.Markdown, body []byte) gmast.Node {
	return md.Parser().Parse(text.NewReader(body))
}
