// Package docstore loads a directory of content sources into an in-memory
// collection of documents keyed by path.
package docstore

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/docsite/internal/docmodel"
	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/frontmatter"
	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// DocIgnoreFile marks a directory whose subtree is excluded from discovery.
const DocIgnoreFile = ".docignore"

// DefaultExtensions lists the source extensions loaded when Options leaves them empty.
var DefaultExtensions = []string{".md", ".markdown"}

// Options controls discovery.
type Options struct {
	Extensions []string
}

// Store is a read-only collection of documents after Load returns.
type Store struct {
	root string
	docs map[string]*docmodel.Document
	exts map[string]struct{}
}

// Load discovers every content source below dir, parses it and inserts the
// result keyed by normalised path.
//
// Discovery walks the tree in lexical order, which defines Document.Order.
// Malformed front matter and two sources normalising onto the same path are
// fatal and reported with the offending source paths.
func Load(ctx context.Context, dir string, opts Options) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "content directory is not accessible").
			Fatal().WithPath(dir).Build()
	}
	if !info.IsDir() {
		return nil, errors.FileSystemError("content path is not a directory").WithPath(dir).Build()
	}

	s := &Store{
		root: dir,
		docs: make(map[string]*docmodel.Document),
		exts: extensionSet(opts.Extensions),
	}

	order := 0
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			if p != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if _, err := os.Stat(filepath.Join(p, DocIgnoreFile)); err == nil {
				slog.Info("Skipping directory with .docignore", logfields.Path(p))
				return filepath.SkipDir
			}
			return nil
		}
		if !s.accepts(d.Name()) {
			return nil
		}

		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		doc, err := loadDocument(p, filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		doc.Order = order
		order++
		return s.insert(doc)
	})
	if err != nil {
		if errors.IsClassified(err) || ctx.Err() != nil {
			return nil, err
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "content discovery failed").
			Fatal().WithPath(dir).Build()
	}

	slog.Debug("Content loaded", logfields.Path(dir), logfields.Count(len(s.docs)))
	return s, nil
}

func loadDocument(absPath, rel string) (*docmodel.Document, error) {
	// #nosec G304 -- path comes from walking the configured content directory.
	content, err := os.ReadFile(absPath)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read source").
			Fatal().WithPath(rel).Build()
	}

	meta, body, err := frontmatter.Parse(content)
	if err != nil {
		return nil, errors.FrontMatterError("front matter is malformed").
			WithPath(rel).
			WithCause(fmt.Errorf("%w: %w", ErrMalformedFrontMatter, err)).
			Build()
	}

	docPath, index := NormalizePath(rel)
	return &docmodel.Document{
		Path:        docPath,
		SourcePath:  rel,
		Index:       index,
		Title:       meta.Title,
		Menus:       meta.Menus,
		Weight:      meta.Weight,
		Body:        body,
		Extra:       meta.Extra,
		Fingerprint: mdfp.CalculateFingerprintFromParts(strings.TrimSpace(string(meta.Raw)), string(body)),
	}, nil
}

func (s *Store) insert(doc *docmodel.Document) error {
	if existing, ok := s.docs[doc.Path]; ok {
		return errors.DuplicatePathError("two sources resolve to the same path").
			WithPath(doc.Path).
			WithContext("first", existing.SourcePath).
			WithContext("second", doc.SourcePath).
			WithCause(fmt.Errorf("%w: %s and %s", ErrDuplicatePath, existing.SourcePath, doc.SourcePath)).
			Build()
	}
	s.docs[doc.Path] = doc
	return nil
}

func (s *Store) accepts(name string) bool {
	_, ok := s.exts[strings.ToLower(filepath.Ext(name))]
	return ok
}

func extensionSet(exts []string) map[string]struct{} {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		set[e] = struct{}{}
	}
	return set
}

// Root returns the directory the store was loaded from.
func (s *Store) Root() string { return s.root }

// Len returns the number of stored documents.
func (s *Store) Len() int { return len(s.docs) }

// Get returns the document stored under path.
func (s *Store) Get(docPath string) (*docmodel.Document, error) {
	if doc, ok := s.docs[docPath]; ok {
		return doc, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, docPath)
}

// All returns every stored document. The order is unspecified.
func (s *Store) All() []*docmodel.Document {
	out := make([]*docmodel.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		out = append(out, doc)
	}
	return out
}

// Resolve looks up the document a link target points at, relative to from.
//
// target is a link destination without fragment or query; it may be
// percent-encoded. Absolute targets ("/guide/intro.md") are taken relative
// to the content root. Targets escaping the root never resolve.
func (s *Store) Resolve(from *docmodel.Document, target string) (*docmodel.Document, bool) {
	if decoded, err := url.PathUnescape(target); err == nil {
		target = decoded
	}
	if target == "" {
		return nil, false
	}

	var rel string
	if strings.HasPrefix(target, "/") {
		rel = strings.TrimPrefix(path.Clean(target), "/")
	} else {
		rel = path.Clean(path.Join(from.Dir(), target))
		if rel == ".." || strings.HasPrefix(rel, "../") {
			return nil, false
		}
		if rel == "." {
			rel = ""
		}
	}

	if strings.HasSuffix(target, "/") || rel == "" {
		doc, ok := s.docs[fold(rel)]
		return doc, ok
	}

	// Assets and other files are not documents; rendered .html targets are.
	if ext := strings.ToLower(path.Ext(rel)); ext != "" && ext != ".html" && !s.accepts(rel) {
		return nil, false
	}
	docPath, _ := NormalizePath(rel)
	doc, ok := s.docs[docPath]
	return doc, ok
}

// IsDocumentTarget reports whether a link target names a content source or a
// rendered page, as opposed to an image or other asset.
func (s *Store) IsDocumentTarget(target string) bool {
	if strings.HasSuffix(target, "/") {
		return true
	}
	ext := strings.ToLower(path.Ext(target))
	return ext == "" || ext == ".html" || s.accepts(target)
}
