package markdown

import (
	"bytes"
	"net/url"
	"strings"

	gmast "github.com/yuin/goldmark/ast"
)

// LinkKind classifies a link destination.
type LinkKind string

const (
	LinkKindRelative LinkKind = "relative" // another document or asset in the site
	LinkKindAbsolute LinkKind = "absolute" // site-root relative path ("/guide/intro.md")
	LinkKindExternal LinkKind = "external" // has a scheme or is protocol relative
	LinkKindFragment LinkKind = "fragment" // "#anchor" within the same page
)

// Link is an inline or reference-style link found in a parsed body.
type Link struct {
	Kind        LinkKind
	Destination string
	// Line is the 1-based source line of the block holding the link.
	Line int

	node *gmast.Link
}

// Rewrite replaces the destination of the link in the AST.
func (l *Link) Rewrite(destination string) {
	l.Destination = destination
	if l.node != nil {
		l.node.Destination = []byte(destination)
	}
}

// Links walks root and returns every link node in document order. Each
// occurrence of a reference-style link is returned separately.
func Links(root gmast.Node, source []byte) []*Link {
	var links []*Link
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if node, ok := n.(*gmast.Link); ok {
			dest := string(node.Destination)
			links = append(links, &Link{
				Kind:        Classify(dest),
				Destination: dest,
				Line:        lineOf(node, source),
				node:        node,
			})
		}
		return gmast.WalkContinue, nil
	})
	return links
}

// Classify determines the kind of a link destination.
func Classify(dest string) LinkKind {
	switch {
	case strings.HasPrefix(dest, "#"):
		return LinkKindFragment
	case strings.HasPrefix(dest, "//"):
		return LinkKindExternal
	case strings.HasPrefix(dest, "/"):
		return LinkKindAbsolute
	}
	if u, err := url.Parse(dest); err == nil && u.Scheme != "" {
		return LinkKindExternal
	}
	if i := strings.Index(dest, ":"); i > 0 && !strings.ContainsAny(dest[:i], "/?#") {
		// mailto:, tel: and schemes url.Parse rejects.
		return LinkKindExternal
	}
	return LinkKindRelative
}

// SplitDestination separates the path of a destination from its query and
// fragment suffix ("intro.md?x=1#setup" -> "intro.md", "?x=1#setup").
func SplitDestination(dest string) (pathPart, suffix string) {
	if i := strings.IndexAny(dest, "?#"); i >= 0 {
		return dest[:i], dest[i:]
	}
	return dest, ""
}

// lineOf returns the 1-based source line of a link, using the position of
// its text when available and the enclosing block otherwise.
func lineOf(n gmast.Node, source []byte) int {
	if t, ok := n.FirstChild().(*gmast.Text); ok {
		return lineAt(source, t.Segment.Start)
	}
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Type() != gmast.TypeBlock {
			continue
		}
		if lines := p.Lines(); lines != nil && lines.Len() > 0 {
			return lineAt(source, lines.At(0).Start)
		}
	}
	return 0
}

func lineAt(source []byte, offset int) int {
	offset = min(offset, len(source))
	return bytes.Count(source[:offset], []byte("\n")) + 1
}
