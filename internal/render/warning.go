package render

import (
	"fmt"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// Warning reports a relative link whose target is not in the store. The
// link is left unchanged in the output.
type Warning struct {
	Source string // source file of the linking document
	Path   string // document path of the linking document
	Target string // link destination as written
	Line   int
}

func (w Warning) String() string {
	if w.Line > 0 {
		return fmt.Sprintf("%s:%d: unresolved link %q", w.Source, w.Line, w.Target)
	}
	return fmt.Sprintf("%s: unresolved link %q", w.Source, w.Target)
}

// Err converts the warning into a non-fatal classified error.
func (w Warning) Err() *errors.ClassifiedError {
	return errors.UnresolvedLinkWarning("link target not found").
		WithPath(w.Source).
		WithContext("target", w.Target).
		WithContext("line", w.Line).
		Build()
}
