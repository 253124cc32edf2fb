package commands

import (
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/docsite/internal/docmodel"
	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/frontmatter"
)

// NewCmd implements the 'new' command.
type NewCmd struct {
	Path   string   `arg:"" help:"Page path relative to the content directory (e.g. guide/install.md)"`
	Title  string   `short:"t" help:"Page title (defaults to a title derived from the file name)"`
	Menu   []string `short:"m" help:"Menu identifiers the page is listed in"`
	Name   string   `help:"Menu display name overriding the title"`
	Weight int      `help:"Ordering weight within menus"`
	Force  bool     `help:"Overwrite an existing page"`
}

func (n *NewCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}

	rel := filepath.Clean(filepath.FromSlash(n.Path))
	if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return errors.NewError(errors.CategoryValidation, "page path must stay inside the content directory").
			WithPath(n.Path).Build()
	}
	if filepath.Ext(rel) == "" {
		rel += ".md"
	}
	target := filepath.Join(cfg.Content.Dir, rel)

	if _, err := os.Stat(target); err == nil && !n.Force {
		return errors.FileSystemError("page already exists (use --force to overwrite)").WithPath(target).Build()
	}

	content, err := n.scaffold(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create page directory").
			WithPath(filepath.Dir(target)).Build()
	}
	// #nosec G306 -- content pages are world readable.
	if err := os.WriteFile(target, content, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write page").WithPath(target).Build()
	}
	g.printf("Created %s\n", target)
	return nil
}

// scaffold renders front matter and a heading for a new page at rel.
func (n *NewCmd) scaffold(rel string) ([]byte, error) {
	meta := frontmatter.Metadata{Title: n.Title, Weight: n.Weight}
	if meta.Title == "" {
		meta.Title = titleFromPath(rel)
	}
	for _, m := range n.Menu {
		ref := docmodel.Simple(m)
		if n.Name != "" {
			ref = docmodel.Named(m, n.Name)
		}
		meta.Menus = append(meta.Menus, ref)
	}

	style := frontmatter.Style{Newline: "\n", HasTrailingNewline: true}
	fm, err := frontmatter.SerializeYAML(meta, style)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to serialize front matter").Build()
	}
	body := []byte("\n# " + meta.Title + "\n")
	return frontmatter.Join(fm, body, frontmatter.FormatYAML, style), nil
}

// titleFromPath derives "Getting Started" from "guide/getting-started.md";
// index pages use their directory name.
func titleFromPath(rel string) string {
	base := strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel))
	if base == "index" || base == "_index" {
		if dir := filepath.Base(filepath.Dir(rel)); dir != "." {
			base = dir
		} else {
			base = "home"
		}
	}
	words := strings.FieldsFunc(base, func(r rune) bool { return r == '-' || r == '_' || r == ' ' })
	return cases.Title(language.Und).String(strings.Join(words, " "))
}
