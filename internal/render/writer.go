package render

import (
	"encoding/json"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/menu"
)

// NavFile is the navigation data file written next to the pages for
// external templates.
const NavFile = "nav.json"

// Writer writes pages below an output directory mirroring the source tree.
type Writer struct {
	dir string
	// target is the directory a staged tree replaces on Commit.
	target string
}

// NewWriter returns a writer adding files to dir in place.
func NewWriter(dir string) *Writer { return &Writer{dir: dir} }

// NewStagingWriter returns a writer filling a fresh sibling of dir. Commit
// swaps it in for dir, so readers of dir never see a half written site and
// files left over from earlier runs disappear.
func NewStagingWriter(dir string) (*Writer, error) {
	target := filepath.Clean(dir)
	parent := filepath.Dir(target)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to create output parent").
			Fatal().WithPath(parent).Build()
	}
	staging, err := os.MkdirTemp(parent, "."+filepath.Base(target)+".staging-")
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to create staging directory").
			Fatal().WithPath(parent).Build()
	}
	// #nosec G302 -- the published site root must be world readable.
	if err := os.Chmod(staging, 0o755); err != nil {
		_ = os.RemoveAll(staging)
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to prepare staging directory").
			Fatal().WithPath(staging).Build()
	}
	return &Writer{dir: staging, target: target}, nil
}

// Dir returns the directory files are currently written to.
func (w *Writer) Dir() string { return w.dir }

// Commit replaces the target with the staged tree. It is a no-op for an
// in-place writer.
func (w *Writer) Commit() error {
	if w.target == "" {
		return nil
	}
	previous := w.dir + ".previous"
	if err := os.Rename(w.target, previous); err != nil && !os.IsNotExist(err) {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to move previous output aside").
			Fatal().WithPath(w.target).Build()
	}
	if err := os.Rename(w.dir, w.target); err != nil {
		_ = os.Rename(previous, w.target)
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to publish output directory").
			Fatal().WithPath(w.target).Build()
	}
	if err := os.RemoveAll(previous); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to remove previous output").
			Fatal().WithPath(previous).Build()
	}
	w.dir, w.target = w.target, ""
	return nil
}

// Discard removes an uncommitted staged tree; the target is left untouched.
func (w *Writer) Discard() {
	if w.target != "" {
		_ = os.RemoveAll(w.dir)
	}
}

// WritePage writes the page to its output path.
func (w *Writer) WritePage(p *Page) error {
	return w.write(filepath.FromSlash(p.Document.OutputPath()), p.HTML)
}

// WriteNav writes the menu tree as JSON.
func (w *Writer) WriteNav(tree menu.Tree, basePath string) error {
	data, err := json.MarshalIndent(Navigation(tree, nil, basePath), "", "  ")
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to encode navigation").Fatal().Build()
	}
	return w.write(NavFile, append(data, '\n'))
}

func (w *Writer) write(rel string, data []byte) error {
	dst := filepath.Join(w.dir, rel)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create output directory").
			Fatal().WithPath(filepath.Dir(dst)).Build()
	}
	// #nosec G306 -- generated site files are world readable by design of static hosting.
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write output file").
			Fatal().WithPath(dst).Build()
	}
	return nil
}
