// Package docmodel defines the documents a site is generated from.
//
// Documents are created once by the store at load time and are read-only
// afterwards, so they can be shared between render workers without locking.
package docmodel

import (
	"path"
	"strings"
)

// MenuRef assigns a document to a navigation menu.
//
// A reference is either simple (only the menu identifier) or named, in which
// case Name replaces the document title inside that menu only. Weight, when
// set, overrides the document weight for that menu only.
type MenuRef struct {
	Menu   string
	Name   string
	Weight *int
}

// Simple returns a reference to menu without a display-name override.
func Simple(menu string) MenuRef { return MenuRef{Menu: menu} }

// Named returns a reference to menu that displays name instead of the title.
func Named(menu, name string) MenuRef { return MenuRef{Menu: menu, Name: name} }

// IsNamed reports whether the reference overrides the display name.
func (r MenuRef) IsNamed() bool { return r.Name != "" }

// DisplayName returns the navigation label for a document with the given title.
func (r MenuRef) DisplayName(title string) string {
	if r.IsNamed() {
		return r.Name
	}
	return title
}

// Document is a parsed content source.
type Document struct {
	// Path is the normalised identifier, unique across a store
	// (e.g. "guide/intro"; the root index is "").
	Path string
	// SourcePath is the slash separated source file path relative to the content root.
	SourcePath string
	// Index is set for index sources (index.md, _index.md) that stand for their directory.
	Index bool

	Title  string
	Menus  []MenuRef
	Weight int
	Body   []byte
	// Extra holds front matter keys that are preserved but not interpreted.
	Extra map[string]any

	// Order is the discovery position of the source; it breaks weight ties.
	Order int
	// Fingerprint is a content hash over front matter and body.
	Fingerprint string
}

// MenuRef returns the document's reference to menu, if any.
func (d *Document) MenuRef(menu string) (MenuRef, bool) {
	for _, ref := range d.Menus {
		if ref.Menu == menu {
			return ref, true
		}
	}
	return MenuRef{}, false
}

// WeightIn returns the ordering weight of the document inside ref's menu.
func (d *Document) WeightIn(ref MenuRef) int {
	if ref.Weight != nil {
		return *ref.Weight
	}
	return d.Weight
}

// OutputPath returns the slash separated output file path relative to the output root.
func (d *Document) OutputPath() string {
	if d.Index {
		return path.Join(d.Path, "index.html")
	}
	return d.Path + ".html"
}

// URLPath returns the site-relative URL of the rendered document, starting with "/".
func (d *Document) URLPath() string {
	if d.Index {
		if d.Path == "" {
			return "/"
		}
		return "/" + d.Path + "/"
	}
	return "/" + d.Path + ".html"
}

// Dir returns the slash separated directory of the source relative to the content root.
func (d *Document) Dir() string {
	dir := path.Dir(d.SourcePath)
	if dir == "." {
		return ""
	}
	return dir
}

// ExtraString returns an uninterpreted front matter value rendered as text.
func (d *Document) ExtraString(key string) string {
	v, ok := d.Extra[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}
