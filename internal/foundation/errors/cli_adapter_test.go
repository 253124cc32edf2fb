package errors

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "validation", err: NewError(CategoryValidation, "invalid input").Build(), expected: 2},
		{name: "config", err: ConfigError("bad config").Build(), expected: 7},
		{name: "front matter", err: FrontMatterError("unterminated").Build(), expected: 11},
		{name: "duplicate path", err: DuplicatePathError("duplicate").Build(), expected: 11},
		{name: "source", err: SourceError("clone failed").Build(), expected: 8},
		{name: "internal", err: InternalError("boom").Build(), expected: 10},
		{name: "unclassified error", err: errors.New("unknown error"), expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(tt.err); got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	err := FrontMatterError("front matter is not terminated").WithPath("guide/intro.md").Build()

	plain := NewCLIErrorAdapter(false, nil).FormatError(err)
	if plain != "Error: guide/intro.md: front matter is not terminated" {
		t.Errorf("unexpected message %q", plain)
	}

	verbose := NewCLIErrorAdapter(true, nil).FormatError(err)
	if !strings.Contains(verbose, "path=guide/intro.md") {
		t.Errorf("expected verbose message to include context, got %q", verbose)
	}

	if got := NewCLIErrorAdapter(false, nil).FormatError(errors.New("x")); got != "Error: x" {
		t.Errorf("unexpected unclassified message %q", got)
	}
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var out bytes.Buffer
	var code int
	adapter := NewCLIErrorAdapter(false, slog.Default())
	adapter.out = &out
	adapter.exit = func(c int) { code = c }

	adapter.HandleError(DuplicatePathError("duplicate output path").WithPath("guide").Build())

	if code != 11 {
		t.Errorf("expected exit code 11, got %d", code)
	}
	if !strings.Contains(out.String(), "guide: duplicate output path") {
		t.Errorf("unexpected output %q", out.String())
	}
}
