package logfields

import (
	"errors"
	"log/slog"
	"testing"
	"time"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"BuildID", KeyBuildID, "b1", BuildID("b1")},
		{"Stage", KeyStage, "render", Stage("render")},
		{"Path", KeyPath, "guide/intro", Path("guide/intro")},
		{"Source", KeySource, "guide/intro.md", Source("guide/intro.md")},
		{"Target", KeyTarget, "missing.md", Target("missing.md")},
		{"Menu", KeyMenu, "docs_intro", Menu("docs_intro")},
		{"Output", KeyOutput, "public", Output("public")},
		{"URL", KeyURL, "nats://localhost:4222", URL("nats://localhost:4222")},
		{"Subject", KeySubject, "docsite.build", Subject("docsite.build")},
	}
	for _, c := range cases {
		if c.attr.Key != c.attrKey {
			t.Errorf("%s: key = %q, want %q", c.name, c.attr.Key, c.attrKey)
		}
		if c.attr.Value.String() != c.attrVal {
			t.Errorf("%s: value = %q, want %q", c.name, c.attr.Value.String(), c.attrVal)
		}
	}
}

func TestNumericAndErrorHelpers(t *testing.T) {
	if a := Count(3); a.Key != KeyCount || a.Value.Int64() != 3 {
		t.Errorf("unexpected count attr %v", a)
	}
	if a := Error(nil); a.Value.String() != "" {
		t.Errorf("nil error should render empty, got %q", a.Value.String())
	}
	if a := Error(errors.New("boom")); a.Value.String() != "boom" {
		t.Errorf("unexpected error attr %v", a)
	}
	if a := Since(time.Now().Add(-time.Second)); a.Key != KeyDurationMS || a.Value.Float64() < 1000 {
		t.Errorf("unexpected duration attr %v", a)
	}
}
