package docmodel

import (
	"bytes"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// CodeSnippet is the literal content of a fenced code block.
type CodeSnippet struct {
	Language string
	Source   string
}

// Snippets returns the fenced code blocks of the document body in order.
func (d *Document) Snippets() []CodeSnippet {
	return ExtractSnippets(d.Body)
}

// ExtractSnippets parses a Markdown body and returns its fenced code blocks.
func ExtractSnippets(body []byte) []CodeSnippet {
	root := goldmark.New().Parser().Parse(text.NewReader(body))

	var snippets []CodeSnippet
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		block, ok := n.(*gmast.FencedCodeBlock)
		if !ok {
			return gmast.WalkContinue, nil
		}

		var src bytes.Buffer
		lines := block.Lines()
		for i := range lines.Len() {
			seg := lines.At(i)
			src.Write(seg.Value(body))
		}
		snippets = append(snippets, CodeSnippet{
			Language: string(block.Language(body)),
			Source:   src.String(),
		})
		return gmast.WalkSkipChildren, nil
	})
	return snippets
}
