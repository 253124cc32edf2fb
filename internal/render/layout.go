package render

import (
	"fmt"
	"html/template"
	"os"

	"git.home.luguber.info/inful/docsite/internal/docmodel"
	"git.home.luguber.info/inful/docsite/internal/menu"
)

// NavItem is one link of a rendered menu.
type NavItem struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	URL     string `json:"url"`
	Weight  int    `json:"weight"`
	Current bool   `json:"current,omitempty"`
}

// NavMenu is a rendered menu group.
type NavMenu struct {
	Name  string    `json:"name"`
	Items []NavItem `json:"items"`
}

// LayoutData is passed to the page template.
type LayoutData struct {
	SiteTitle string
	Title     string
	Path      string
	BasePath  string
	Content   template.HTML
	Menus     []NavMenu
	Extra     map[string]any
}

const defaultLayout = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{ if and .Title .SiteTitle }}{{ .Title }} | {{ .SiteTitle }}{{ else }}{{ .Title }}{{ .SiteTitle }}{{ end }}</title>
</head>
<body>
<header><a href="{{ .BasePath }}/">{{ .SiteTitle }}</a></header>
{{- range .Menus }}
<nav data-menu="{{ .Name }}">
<ul>
{{- range .Items }}
<li{{ if .Current }} class="active"{{ end }}><a href="{{ .URL }}">{{ .Name }}</a></li>
{{- end }}
</ul>
</nav>
{{- end }}
<main>
{{ if .Title }}<h1>{{ .Title }}</h1>
{{ end }}{{ .Content }}
</main>
</body>
</html>
`

func loadLayout(path string) (*template.Template, error) {
	if path == "" {
		return template.New("page").Parse(defaultLayout)
	}
	// #nosec G304 -- layout path comes from site configuration.
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}
	return template.New("page").Parse(string(src))
}

// Navigation converts a menu tree into template data, marking entries that
// point at current. basePath prefixes every URL.
func Navigation(tree menu.Tree, current *docmodel.Document, basePath string) []NavMenu {
	names := tree.Names()
	menus := make([]NavMenu, 0, len(names))
	for _, name := range names {
		g := tree.Group(name)
		items := make([]NavItem, 0, len(g.Entries))
		for _, e := range g.Entries {
			items = append(items, NavItem{
				Name:    e.Name,
				Path:    e.Document.Path,
				URL:     basePath + e.Document.URLPath(),
				Weight:  e.Weight,
				Current: current != nil && e.Document == current,
			})
		}
		menus = append(menus, NavMenu{Name: name, Items: items})
	}
	return menus
}
