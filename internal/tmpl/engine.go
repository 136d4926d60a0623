// internal/tmpl/engine.go
//
// Central template engine: parses the views/ tree into one template set,
// injects the site func map, and renders by logical name.
//
// Naming
// ------
// Every file under the views root is addressable by its slash-separated
// relative path ("home.html", "pages/blog/index.html"), so page templates
// can pull in shared fragments with {{ template "layouts/nav.html" . }}.
//
// The parsed set is held in a small LRU keyed by the views root and
// dropped on Invalidate, which the dev server's watcher calls before a
// rebuild.
package tmpl

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/yanizio/vellum/internal/cache"
	"github.com/yanizio/vellum/internal/content"
	"github.com/yanizio/vellum/internal/query"
)

// QueryAPI answers the template query functions.  The site builder
// implements it over the loaded article corpus and JSON store.
type QueryAPI interface {
	Articles(spec *query.Spec) ([]content.Record, error)
	Store(spec *query.Spec) ([]content.Record, error)
}

// Engine renders the views tree for one site.
type Engine struct {
	root      string // views directory
	urlOrigin string // absolute-link base for rel_to_abs
	api       QueryAPI

	mu  sync.Mutex
	lru *cache.LRU[string, *template.Template]
}

// New builds an engine over the views directory.  api may be nil; a
// template that calls a query function then fails its render.
func New(viewsDir, urlOrigin string, api QueryAPI) *Engine {
	return &Engine{
		root:      viewsDir,
		urlOrigin: urlOrigin,
		api:       api,
		lru:       cache.New[string, *template.Template](8),
	}
}

// Invalidate drops the parsed set; the next render re-parses the tree.
func (e *Engine) Invalidate() {
	e.mu.Lock()
	e.lru.Remove(e.root)
	e.mu.Unlock()
}

// Render executes the named template with data and returns the HTML.
func (e *Engine) Render(name string, data any) (string, error) {
	set, err := e.set()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := set.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// RawSource returns the unparsed text of the named template plus its
// absolute path, for front-matter and pagination-call extraction.
func (e *Engine) RawSource(name string) (string, string, error) {
	path := filepath.Join(e.root, filepath.FromSlash(name))
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	abs, _ := filepath.Abs(path)
	return string(raw), abs, nil
}

// PageNames lists the page templates (everything under pages/), in walk
// order, by logical name.
func (e *Engine) PageNames() ([]string, error) {
	base := filepath.Join(e.root, "pages")
	if _, err := os.Stat(base); err != nil {
		return nil, nil
	}
	var names []string
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(d.Name(), ".html") {
			return err
		}
		rel, _ := filepath.Rel(e.root, path)
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	return names, err
}

// set returns the parsed template set, parsing the tree on a cache miss.
func (e *Engine) set() (*template.Template, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if t, ok := e.lru.Get(e.root); ok {
		return t, nil
	}
	t, err := e.parseAll()
	if err != nil {
		return nil, err
	}
	e.lru.Add(e.root, t)
	return t, nil
}

func (e *Engine) parseAll() (*template.Template, error) {
	zap.S().Debugw("parsing template tree", "dir", e.root)
	root := template.New("").Funcs(e.funcMap())
	err := filepath.WalkDir(e.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(d.Name(), ".html") {
			return err
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(e.root, path)
		name := filepath.ToSlash(rel)
		if _, err := root.New(name).Parse(string(raw)); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return root, nil
}
