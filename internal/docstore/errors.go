package docstore

import "errors"

var (
	// ErrNotFound indicates no document is stored under the requested path.
	ErrNotFound = errors.New("document not found")

	// ErrDuplicatePath indicates two sources normalise to the same document path.
	ErrDuplicatePath = errors.New("duplicate document path")

	// ErrMalformedFrontMatter indicates a source could not be loaded because of its front matter.
	ErrMalformedFrontMatter = errors.New("malformed front matter")
)
