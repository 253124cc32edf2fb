// Package menu groups documents into navigation menus.
package menu

import (
	"sort"

	"git.home.luguber.info/inful/docsite/internal/docmodel"
)

// Entry is one navigation item.
type Entry struct {
	Document *docmodel.Document
	// Name is the label shown in navigation: the menu's display-name
	// override when declared, otherwise the document title.
	Name   string
	Weight int
}

// Group is the ordered set of entries sharing a menu identifier.
type Group struct {
	Name    string
	Entries []Entry
}

// Tree maps menu identifiers to their groups.
type Tree map[string]*Group

// Build groups documents by declared menu and orders each group by weight
// ascending, ties broken by discovery order. The result does not depend on
// the order of docs. Documents without a menu are left out.
func Build(docs []*docmodel.Document) Tree {
	tree := make(Tree)
	for _, doc := range docs {
		for _, ref := range doc.Menus {
			if ref.Menu == "" {
				continue
			}
			g, ok := tree[ref.Menu]
			if !ok {
				g = &Group{Name: ref.Menu}
				tree[ref.Menu] = g
			}
			g.Entries = append(g.Entries, Entry{
				Document: doc,
				Name:     ref.DisplayName(doc.Title),
				Weight:   doc.WeightIn(ref),
			})
		}
	}

	for _, g := range tree {
		sort.SliceStable(g.Entries, func(i, j int) bool {
			a, b := g.Entries[i], g.Entries[j]
			if a.Weight != b.Weight {
				return a.Weight < b.Weight
			}
			return a.Document.Order < b.Document.Order
		})
	}
	return tree
}

// Names returns the menu identifiers sorted alphabetically.
func (t Tree) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Group returns the named group or nil.
func (t Tree) Group(name string) *Group {
	return t[name]
}

// Contains reports whether doc appears in any group.
func (t Tree) Contains(doc *docmodel.Document) bool {
	for _, g := range t {
		for _, e := range g.Entries {
			if e.Document == doc {
				return true
			}
		}
	}
	return false
}

// Paths returns the document paths of the group in display order.
func (g *Group) Paths() []string {
	out := make([]string, len(g.Entries))
	for i, e := range g.Entries {
		out[i] = e.Document.Path
	}
	return out
}
