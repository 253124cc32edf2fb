// Package linkcheck verifies that internal links of a generated site point
// at files that exist in the output directory.
package linkcheck

import (
	"context"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// Broken is an internal link whose target file is missing.
type Broken struct {
	Page string // output-relative page path
	URL  string
	Tag  string
}

// Result summarises a check run.
type Result struct {
	Pages  int
	Links  int
	Broken []Broken
}

// Checker scans an output directory.
type Checker struct {
	root     string
	basePath string
}

// New returns a checker for the site in root published under basePath
// (for example "/docs"; empty for the host root).
func New(root, basePath string) *Checker {
	return &Checker{root: root, basePath: strings.TrimSuffix(basePath, "/")}
}

// Check parses every HTML page below the root. Broken links are sorted by
// page, then URL.
func (c *Checker) Check(ctx context.Context) (*Result, error) {
	res := &Result{}
	err := filepath.WalkDir(c.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(p), ".html") {
			return nil
		}
		rel, err := filepath.Rel(c.root, p)
		if err != nil {
			return err
		}
		return c.checkPage(filepath.ToSlash(rel), p, res)
	})
	if err != nil {
		if errors.IsClassified(err) {
			return nil, err
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to scan output").
			WithPath(c.root).Build()
	}
	sort.Slice(res.Broken, func(i, j int) bool {
		if res.Broken[i].Page != res.Broken[j].Page {
			return res.Broken[i].Page < res.Broken[j].Page
		}
		return res.Broken[i].URL < res.Broken[j].URL
	})
	return res, nil
}

func (c *Checker) checkPage(page, file string, res *Result) error {
	// #nosec G304 -- file comes from walking the output directory.
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	links, err := ExtractLinks(f)
	if err != nil {
		return errors.WrapError(err, errors.CategoryValidation, "invalid page").WithPath(page).Build()
	}
	res.Pages++
	for _, l := range links {
		target, ok := c.target(page, l.URL)
		if !ok {
			continue
		}
		res.Links++
		if !c.exists(target) {
			res.Broken = append(res.Broken, Broken{Page: page, URL: l.URL, Tag: l.Tag})
		}
	}
	return nil
}

// target maps a link to an output-relative file path. External links,
// fragments and special schemes are not checked.
func (c *Checker) target(page, link string) (string, bool) {
	if link == "" || strings.HasPrefix(link, "#") {
		return "", false
	}
	u, err := url.Parse(link)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Path == "" {
		return "", false
	}
	p := u.Path
	if strings.HasPrefix(p, "/") {
		if c.basePath != "" {
			if p != c.basePath && !strings.HasPrefix(p, c.basePath+"/") {
				return "", false
			}
			p = strings.TrimPrefix(p, c.basePath)
		}
		p = path.Clean("/" + p)
	} else {
		p = path.Clean(path.Join("/", path.Dir(page), p))
	}
	if strings.HasSuffix(u.Path, "/") || p == "/" {
		p = path.Join(p, "index.html")
	}
	return strings.TrimPrefix(p, "/"), true
}

func (c *Checker) exists(rel string) bool {
	info, err := os.Stat(filepath.Join(c.root, filepath.FromSlash(rel)))
	if err != nil {
		return false
	}
	if info.IsDir() {
		_, err = os.Stat(filepath.Join(c.root, filepath.FromSlash(rel), "index.html"))
		return err == nil
	}
	return true
}
