// Package render converts documents into HTML pages and writes them out.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"path"
	"strings"

	"github.com/yuin/goldmark"

	"git.home.luguber.info/inful/docsite/internal/docmodel"
	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/markdown"
	"git.home.luguber.info/inful/docsite/internal/menu"
)

// Resolver finds the document a link target points at.
type Resolver interface {
	Resolve(from *docmodel.Document, target string) (*docmodel.Document, bool)
	// IsDocumentTarget reports whether target names a content source or a
	// rendered page rather than an asset.
	IsDocumentTarget(target string) bool
}

// Options configures a Renderer.
type Options struct {
	Markdown  markdown.Options
	SiteTitle string
	// BaseURL is the public site URL; only its path is used to prefix links.
	BaseURL string
	// Layout is a path to an html/template file; empty uses the built-in layout.
	Layout string
}

// Page is a rendered document.
type Page struct {
	Document *docmodel.Document
	Body     template.HTML
	HTML     []byte
	Warnings []Warning
}

// Renderer turns documents into pages. It holds no per-page state and is
// safe for concurrent use once constructed.
type Renderer struct {
	md        goldmark.Markdown
	resolver  Resolver
	layout    *template.Template
	siteTitle string
	basePath  string
}

// New constructs a Renderer resolving cross-document links through resolver.
func New(resolver Resolver, opts Options) (*Renderer, error) {
	layout, err := loadLayout(opts.Layout)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "invalid page layout").
			Fatal().WithPath(opts.Layout).Build()
	}
	basePath, err := BasePath(opts.BaseURL)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "invalid base URL").
			Fatal().WithContext("base_url", opts.BaseURL).Build()
	}
	return &Renderer{
		md:        markdown.NewEngine(opts.Markdown),
		resolver:  resolver,
		layout:    layout,
		siteTitle: opts.SiteTitle,
		basePath:  basePath,
	}, nil
}

// BasePath extracts the path prefix of a base URL without trailing slash
// ("https://example.com/docs/" -> "/docs", "/" -> "").
func BasePath(baseURL string) (string, error) {
	if baseURL == "" {
		return "", nil
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	p := strings.TrimSuffix(u.Path, "/")
	if p != "" && !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p, nil
}

// URL returns the public link of a document.
func (r *Renderer) URL(doc *docmodel.Document) string {
	return r.basePath + doc.URLPath()
}

// Render converts the document body to HTML and applies the page layout.
//
// Relative links that resolve to a document are rewritten to its URL keeping
// query and fragment. Relative links to missing documents are left unchanged
// and produce one warning per occurrence; links to assets are left alone.
// External, fragment-only and absolute links are never touched. Fenced code blocks are emitted
// verbatim with their language class.
func (r *Renderer) Render(doc *docmodel.Document, tree menu.Tree) (*Page, error) {
	root := markdown.Parse(r.md, doc.Body)

	var warnings []Warning
	for _, link := range markdown.Links(root, doc.Body) {
		if link.Kind != markdown.LinkKindRelative {
			continue
		}
		target, suffix := markdown.SplitDestination(link.Destination)
		if target == "" {
			continue
		}
		if resolved, ok := r.resolver.Resolve(doc, target); ok {
			link.Rewrite(r.URL(resolved) + suffix)
			continue
		}
		if !r.resolver.IsDocumentTarget(target) {
			continue
		}
		warnings = append(warnings, Warning{
			Source: doc.SourcePath,
			Path:   doc.Path,
			Target: link.Destination,
			Line:   link.Line,
		})
	}

	var body bytes.Buffer
	if err := r.md.Renderer().Render(&body, doc.Body, root); err != nil {
		return nil, errors.RenderError("markdown rendering failed").
			WithCause(err).WithPath(doc.SourcePath).Build()
	}

	data := LayoutData{
		SiteTitle: r.siteTitle,
		Title:     pageTitle(doc),
		Path:      doc.Path,
		BasePath:  r.basePath,
		Content:   template.HTML(body.String()), // #nosec G203 -- goldmark output; raw HTML only when enabled in config.
		Menus:     Navigation(tree, doc, r.basePath),
		Extra:     doc.Extra,
	}
	var out bytes.Buffer
	if err := r.layout.Execute(&out, data); err != nil {
		return nil, errors.RenderError("page layout failed").
			WithCause(err).WithPath(doc.SourcePath).Build()
	}

	return &Page{
		Document: doc,
		Body:     data.Content,
		HTML:     out.Bytes(),
		Warnings: warnings,
	}, nil
}

func pageTitle(doc *docmodel.Document) string {
	if doc.Title != "" {
		return doc.Title
	}
	if doc.Index && doc.Path == "" {
		return ""
	}
	base := path.Base(doc.SourcePath)
	if doc.Index {
		base = path.Base(doc.Dir())
	}
	return strings.TrimSuffix(base, path.Ext(base))
}

func (p *Page) String() string {
	return fmt.Sprintf("%s -> %s", p.Document.SourcePath, p.Document.OutputPath())
}
