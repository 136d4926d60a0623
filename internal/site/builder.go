// internal/site/builder.go
//
// Build orchestration: loads the markdown corpus and JSON store, wires
// the template engine's query backend, and writes the whole site into
// the build directory.
//
// Output layout
// -------------
//
//	build/index.html                      ← views/home.html
//	build/<page>/index.html               ← views/pages/<page>.html
//	build/<page>/page/<n>/index.html      ← paginated templates
//	build/<segment>/<article>/index.html  ← markdown articles
//	build/static/…, build/favicon.ico     ← assets
//
// Every generated page is wrapped in the document shell (head.Builder)
// and has its front-matter markers stripped before it hits disk.
package site

import (
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/yanizio/vellum/internal/assets"
	"github.com/yanizio/vellum/internal/config"
	"github.com/yanizio/vellum/internal/content"
	"github.com/yanizio/vellum/internal/head"
	"github.com/yanizio/vellum/internal/paginate"
	"github.com/yanizio/vellum/internal/query"
	"github.com/yanizio/vellum/internal/tmpl"
)

// Builder holds the per-build state.  Construct with New, call Build;
// the dev server reuses one Builder and calls Build again on changes.
type Builder struct {
	cfg    *config.Config
	engine *tmpl.Engine
	shell  *head.Builder

	// Loaded fresh on every Build.
	partials map[string]any
	store    map[string]any
	records  []content.Record
}

// New wires a Builder from configuration.
func New(cfg *config.Config) *Builder {
	b := &Builder{
		cfg:   cfg,
		shell: head.New(cfg.Site.Metadata),
	}
	b.engine = tmpl.New(cfg.Paths.Abs(cfg.Paths.Views), cfg.Site.URLOrigin, b)
	return b
}

// Build regenerates the entire site.  The build directory is recreated
// from scratch so deleted sources disappear from the output.
func (b *Builder) Build(ctx context.Context) error {
	buildDir := b.cfg.Paths.Abs(b.cfg.Paths.Build)
	if err := os.RemoveAll(buildDir); err != nil {
		return fmt.Errorf("refresh build dir: %w", err)
	}
	if err := os.MkdirAll(buildDir, 0o755); err != nil {
		return err
	}
	b.engine.Invalidate()

	loader := content.NewMarkdownLoader(b.cfg.Paths.Abs(b.cfg.Paths.Markdown), b.cfg.Site.CodeStyle)

	var err error
	if b.partials, err = loader.LoadPartials(); err != nil {
		return err
	}
	if b.store, err = content.LoadStore(b.cfg.Paths.Abs(b.cfg.Paths.Store)); err != nil {
		return err
	}

	pages, err := loader.LoadArticles()
	if err != nil {
		return err
	}
	meta := content.SiteMeta{URLOrigin: b.cfg.Site.URLOrigin, Timezone: b.cfg.Site.Timezone}
	b.records = b.records[:0]
	for _, p := range pages {
		rec, err := content.FormatArticle(p, meta)
		if err != nil {
			return err
		}
		b.records = append(b.records, rec)
	}

	if err := b.writeArticlePages(pages, buildDir); err != nil {
		return err
	}
	if err := b.writeHome(buildDir); err != nil {
		return err
	}
	if err := b.writePages(buildDir); err != nil {
		return err
	}

	if err := assets.Write(ctx, assets.Paths{
		Favicon:  b.cfg.Paths.Abs(b.cfg.Paths.Favicon),
		Scripts:  b.cfg.Paths.Abs(b.cfg.Paths.Scripts),
		Images:   b.cfg.Paths.Abs(b.cfg.Paths.Images),
		Styles:   b.cfg.Paths.Abs(b.cfg.Paths.Styles),
		BuildDir: buildDir,
	}); err != nil {
		return err
	}

	zap.S().Infow("site built",
		"articles", len(pages), "build_dir", buildDir)
	return nil
}

//
// query backend (tmpl.QueryAPI / paginate.QueryAPI)
//

// Articles serves get_articles: the formatted article corpus with drafts
// excluded through every filter stage.
func (b *Builder) Articles(spec *query.Spec) ([]content.Record, error) {
	return query.EvaluateArticles(b.records, spec), nil
}

// Store serves query_store.  The spec must name a collection, which must
// be a top-level key of the merged JSON store.  A single object is
// wrapped as a one-element list so both shapes query uniformly.
func (b *Builder) Store(spec *query.Spec) ([]content.Record, error) {
	if spec == nil || spec.Collection == "" {
		return nil, fmt.Errorf("store query: 'collection' must name a top-level store key")
	}
	data, ok := b.store[spec.Collection]
	if !ok {
		return nil, fmt.Errorf("store query: collection %q not found", spec.Collection)
	}

	var records []content.Record
	switch t := data.(type) {
	case []any:
		for i, e := range t {
			m, ok := e.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("store query: collection %q item %d is not an object", spec.Collection, i)
			}
			records = append(records, content.Record(m))
		}
	case map[string]any:
		records = []content.Record{content.Record(t)}
	default:
		return nil, fmt.Errorf("store query: collection %q is not an object or list", spec.Collection)
	}
	return query.Evaluate(records, spec), nil
}

//
// render arguments
//

// baseArgs assembles a fresh render-argument map: partials, store data,
// site values, and the non-paginated pagination defaults.  Callers may
// mutate their copy freely.
func (b *Builder) baseArgs() map[string]any {
	args := make(map[string]any, len(b.partials)+len(b.store)+4)
	for k, v := range b.partials {
		args[k] = v
	}
	for k, v := range b.store {
		args[k] = v
	}
	args["site"] = map[string]any{
		"name":       b.cfg.Site.Name,
		"url_origin": b.cfg.Site.URLOrigin,
	}
	args["metadata"] = b.cfg.Site.Metadata
	args["pagination"] = paginate.DefaultMap()
	return args
}

//
// page writers
//

// writeArticlePages renders every non-draft markdown article through the
// nearest layout template in the views/articles tree.
func (b *Builder) writeArticlePages(pages []*content.Page, buildDir string) error {
	for _, p := range pages {
		if content.Truthy(p.FrontMatter["draft"]) {
			zap.S().Debugw("skipping draft article", "path", p.SrcPath)
			continue
		}
		layout, err := b.articleLayout(p.URLSegment)
		if err != nil {
			return fmt.Errorf("%s: %w", p.SrcPath, err)
		}

		args := b.baseArgs()
		args["article"] = template.HTML(p.HTML)

		dest := filepath.Join(buildDir,
			filepath.FromSlash(strings.Trim(p.URLSegment, "/")),
			p.Name, "index.html")
		if err := b.writeShelled(layout, args, p.FrontMatter, dest); err != nil {
			return fmt.Errorf("%s: %w", p.SrcPath, err)
		}
	}
	return nil
}

// articleLayout finds the layout template closest to an article's
// directory, walking up until views/articles/layout.html.
func (b *Builder) articleLayout(urlSegment string) (string, error) {
	viewsDir := b.cfg.Paths.Abs(b.cfg.Paths.Views)
	var segments []string
	if trimmed := strings.Trim(urlSegment, "/"); trimmed != "" {
		segments = strings.Split(trimmed, "/")
	}
	for i := len(segments); i >= 0; i-- {
		parts := append([]string{"articles"}, segments[:i]...)
		name := strings.Join(append(parts, "layout.html"), "/")
		if _, err := os.Stat(filepath.Join(viewsDir, filepath.FromSlash(name))); err == nil {
			return name, nil
		}
	}
	return "", fmt.Errorf("no articles/layout.html found in %s", viewsDir)
}

// writeHome renders views/home.html to build/index.html.  A site without
// a home template is unusual but legal.
func (b *Builder) writeHome(buildDir string) error {
	raw, srcPath, err := b.engine.RawSource("home.html")
	if err != nil {
		if os.IsNotExist(err) {
			zap.S().Warnw("no home.html template, skipping site index")
			return nil
		}
		return err
	}
	fm, err := content.ExtractFrontMatter(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", srcPath, err)
	}
	return b.writeShelled("home.html", b.baseArgs(), fm, filepath.Join(buildDir, "index.html"))
}

// writePages renders every template under views/pages, one output
// directory per template.  Templates whose front matter sets 'paginate'
// are expanded by the pagination resolver instead.
func (b *Builder) writePages(buildDir string) error {
	names, err := b.engine.PageNames()
	if err != nil {
		return err
	}
	resolver := &paginate.Resolver{
		API: b,
		Render: func(name string, args map[string]any) (string, error) {
			return b.engine.Render(name, args)
		},
		DocHead:  func(fm map[string]any) string { return string(b.shell.DocHead(fm)) },
		DocTail:  func() string { return string(b.shell.DocTail()) },
		BaseArgs: b.baseArgs,
		BuildDir: buildDir,
	}

	for _, name := range names {
		raw, srcPath, err := b.engine.RawSource(name)
		if err != nil {
			return err
		}
		fm, err := content.ExtractFrontMatter(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", srcPath, err)
		}

		rel := strings.TrimSuffix(strings.TrimPrefix(name, "pages/"), ".html")
		dest := filepath.Join(buildDir, filepath.FromSlash(rel), "index.html")

		if fm != nil && fm["paginate"] != nil {
			if _, err := resolver.Resolve(name, raw, srcPath, dest, fm); err != nil {
				return err
			}
			continue
		}
		if err := b.writeShelled(name, b.baseArgs(), fm, dest); err != nil {
			return fmt.Errorf("%s: %w", srcPath, err)
		}
	}
	return nil
}

// writeShelled renders one template, wraps it in the document shell, and
// writes the front-matter-stripped result.
func (b *Builder) writeShelled(name string, args map[string]any, fm map[string]any, dest string) error {
	body, err := b.engine.Render(name, args)
	if err != nil {
		return err
	}
	html := string(b.shell.DocHead(fm)) + body + "\n" + string(b.shell.DocTail())
	html = content.StripFrontMatter(html)

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	zap.S().Debugw("writing page", "template", name, "dest", dest)
	return os.WriteFile(dest, []byte(html), 0o644)
}
