// Package web holds the server-rendered pages.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "layout.html"

// Data is the value passed to a page template.
type Data map[string]any

// Views renders pages wrapped in the shared layout.
type Views struct {
	pages map[string]*template.Template
}

// NewViews parses every page template with the layout.
func NewViews() (*Views, error) {
	return ParseViews(templateFS, "templates")
}

// ParseViews parses the pages found in dir of fsys.
func ParseViews(fsys fs.FS, dir string) (*Views, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading templates: %w", err)
	}

	pages := make(map[string]*template.Template)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == layoutFile || path.Ext(name) != ".html" {
			continue
		}

		page := strings.TrimSuffix(name, ".html")
		tmpl, err := template.New(page).ParseFS(fsys, path.Join(dir, layoutFile), path.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		pages[page] = tmpl
	}

	return &Views{pages: pages}, nil
}

// Render executes page into w. On error w may hold partial output, so
// callers writing to a response should render into a buffer first.
func (v *Views) Render(w io.Writer, page string, data Data) error {
	tmpl, ok := v.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}

	if err := tmpl.ExecuteTemplate(w, "layout", data); err != nil {
		return fmt.Errorf("rendering %s: %w", page, err)
	}
	return nil
}
