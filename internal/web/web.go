// Package web holds the HTML templates of the serve command.
package web

import (
	"embed"
	"html/template"
	"io/fs"
)

//go:embed templates
var assets embed.FS

// Pages are the parsed page templates. Each one is the shared layout plus the
// page's content block, executed by the name "base.html".
type Pages struct {
	Home  *template.Template
	State *template.Template
}

// ParsePages builds every page from the embedded templates.
func ParsePages(funcs template.FuncMap) (*Pages, error) {
	return parsePages(assets, funcs)
}

func parsePages(fsys fs.FS, funcs template.FuncMap) (*Pages, error) {
	// Pages are parsed separately so their content blocks do not collide.
	base, err := template.New("base.html").Funcs(funcs).ParseFS(fsys, "templates/base.html")
	if err != nil {
		return nil, err
	}
	page := func(name string) (*template.Template, error) {
		t, err := base.Clone()
		if err != nil {
			return nil, err
		}
		return t.ParseFS(fsys, "templates/"+name)
	}

	var p Pages
	if p.Home, err = page("home.html"); err != nil {
		return nil, err
	}
	if p.State, err = page("state.html"); err != nil {
		return nil, err
	}
	return &p, nil
}
