// Package views renders the HTML pages of the web client.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
)

//go:embed templates
var templateFS embed.FS

// DefaultLayout wraps every page unless Render is given another layout.
const DefaultLayout = "layout"

// Engine implements fiber.Views over the embedded templates. Each page is
// parsed together with the layout and the shared partials.
type Engine struct {
	fsys  fs.FS
	funcs template.FuncMap

	mu    sync.RWMutex
	pages map[string]*template.Template
}

var _ fiber.Views = (*Engine)(nil)

// New returns an engine over the embedded templates. Call Load (fiber does
// it on startup) before rendering.
func New() *Engine {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		panic(err)
	}
	return NewFromFS(sub)
}

// NewFromFS reads layout.html, partials/*.html and pages/*.html from fsys.
func NewFromFS(fsys fs.FS) *Engine {
	return &Engine{fsys: fsys, funcs: Funcs()}
}

func (e *Engine) Load() error {
	base, err := template.New("base").Funcs(e.funcs).ParseFS(e.fsys, "layout.html", "partials/*.html")
	if err != nil {
		return fmt.Errorf("parsing layout: %w", err)
	}

	files, err := fs.Glob(e.fsys, "pages/*.html")
	if err != nil {
		return err
	}

	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		t, err := base.Clone()
		if err != nil {
			return err
		}
		if _, err := t.ParseFS(e.fsys, file); err != nil {
			return fmt.Errorf("parsing %s: %w", file, err)
		}
		pages[strings.TrimSuffix(path.Base(file), ".html")] = t
	}

	e.mu.Lock()
	e.pages = pages
	e.mu.Unlock()
	return nil
}

// Render executes page `name` inside the layout.
func (e *Engine) Render(w io.Writer, name string, binding interface{}, layout ...string) error {
	e.mu.RLock()
	t, ok := e.pages[name]
	e.mu.RUnlock()
	if !ok {
		return fmt.Errorf("views: template %q not found", name)
	}

	l := DefaultLayout
	if len(layout) > 0 && layout[0] != "" {
		l = layout[0]
	}
	return t.ExecuteTemplate(w, l, binding)
}

// Has reports whether a page template exists.
func (e *Engine) Has(name string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.pages[name]
	return ok
}
