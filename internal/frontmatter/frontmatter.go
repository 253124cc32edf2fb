package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format identifies the syntax of a front matter block.
type Format string

const (
	FormatNone Format = ""
	FormatYAML Format = "yaml" // --- delimited
	FormatTOML Format = "toml" // +++ delimited
)

// Delimiter returns the fence line used for the format.
func (f Format) Delimiter() string {
	switch f {
	case FormatYAML:
		return "---"
	case FormatTOML:
		return "+++"
	default:
		return ""
	}
}

// Style captures formatting details needed for stable rewriting.
//
// It focuses on newline/trailing newline shape and does not attempt to
// preserve original YAML or TOML formatting.
type Style struct {
	Newline            string
	HasTrailingNewline bool
}

var (
	// ErrMissingClosingDelimiter indicates the document started with a front
	// matter delimiter but did not contain a closing delimiter.
	ErrMissingClosingDelimiter = errors.New("front matter start delimiter found but closing delimiter is missing")

	// ErrInvalidFrontMatter indicates the block could not be decoded or a
	// recognised key holds a value of the wrong shape.
	ErrInvalidFrontMatter = errors.New("invalid front matter")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Split separates a leading front matter block from the Markdown body.
//
// A block opens with a line holding only `---` (YAML) or `+++` (TOML),
// optionally followed by spaces or tabs, and closes with the next line holding
// the same fence. If the document does not
// start with a fence, format is FormatNone and body is the full input.
func Split(content []byte) (frontmatter []byte, body []byte, format Format, style Style, err error) {
	content = bytes.TrimPrefix(content, utf8BOM)
	style = detectStyle(content)

	firstLine, rest, _ := cutLine(content)
	switch string(trimFence(firstLine)) {
	case FormatYAML.Delimiter():
		format = FormatYAML
	case FormatTOML.Delimiter():
		format = FormatTOML
	default:
		return nil, content, FormatNone, style, nil
	}

	fence := []byte(format.Delimiter())
	start := len(content) - len(rest)
	for remaining := rest; len(remaining) > 0; {
		line, next, _ := cutLine(remaining)
		if bytes.Equal(trimFence(line), fence) {
			end := len(content) - len(remaining)
			return content[start:end], next, format, style, nil
		}
		remaining = next
	}
	return nil, nil, FormatNone, style, ErrMissingClosingDelimiter
}

// cutLine returns the first line without its terminator, the remainder after
// the terminator and whether a terminator was found.
func cutLine(b []byte) (line []byte, rest []byte, found bool) {
	idx := bytes.IndexByte(b, '\n')
	if idx < 0 {
		return bytes.TrimSuffix(b, []byte("\r")), nil, false
	}
	return bytes.TrimSuffix(b[:idx], []byte("\r")), b[idx+1:], true
}

// trimFence drops trailing blanks so "---  " still counts as a fence.
func trimFence(line []byte) []byte { return bytes.TrimRight(line, " \t") }

// Join reassembles a document from raw front matter and body.
//
// If format is FormatNone, Join returns body as-is.
func Join(frontmatter []byte, body []byte, format Format, style Style) []byte {
	if format == FormatNone {
		return body
	}

	nl := style.Newline
	if nl == "" {
		nl = "\n"
	}
	fence := []byte(format.Delimiter() + nl)

	out := make([]byte, 0, 2*len(fence)+len(frontmatter)+len(body))
	out = append(out, fence...)
	out = append(out, frontmatter...)
	out = append(out, fence...)
	out = append(out, body...)
	return out
}

// ParseFields decodes a raw front matter block (without delimiters) into a map.
func ParseFields(raw []byte, format Format) (map[string]any, error) {
	fields := map[string]any{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return fields, nil
	}

	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(raw, &fields)
	case FormatTOML:
		err = toml.Unmarshal(raw, &fields)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrInvalidFrontMatter, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidFrontMatter, format, err)
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

func detectStyle(content []byte) Style {
	newline := "\n"
	if idx := bytes.IndexByte(content, '\n'); idx > 0 && content[idx-1] == '\r' {
		newline = "\r\n"
	}

	return Style{
		Newline:            newline,
		HasTrailingNewline: len(content) > 0 && content[len(content)-1] == '\n',
	}
}
