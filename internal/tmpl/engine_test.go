// internal/tmpl/engine_test.go

package tmpl

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yanizio/vellum/internal/content"
	"github.com/yanizio/vellum/internal/query"
)

type fakeAPI struct {
	articles []content.Record
	store    map[string][]content.Record
	lastSpec *query.Spec
}

func (f *fakeAPI) Articles(spec *query.Spec) ([]content.Record, error) {
	f.lastSpec = spec
	return query.EvaluateArticles(f.articles, spec), nil
}

func (f *fakeAPI) Store(spec *query.Spec) ([]content.Record, error) {
	f.lastSpec = spec
	return query.Evaluate(f.store[spec.Collection], spec), nil
}

func writeView(t *testing.T, root, name, body string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func testEngine(t *testing.T) (*Engine, *fakeAPI, string) {
	t.Helper()
	root := t.TempDir()
	api := &fakeAPI{
		articles: []content.Record{
			{"title": "One", "category": "tech", "draft": false},
			{"title": "Two", "category": "news", "draft": false},
			{"title": "Hidden", "category": "tech", "draft": true},
		},
		store: map[string][]content.Record{
			"team": {{"name": "Ada"}, {"name": "Grace"}},
		},
	}
	return New(root, "https://example.com", api), api, root
}

func TestRenderByRelativeName(t *testing.T) {
	e, _, root := testEngine(t)
	writeView(t, root, "layouts/nav.html", `<nav>menu</nav>`)
	writeView(t, root, "pages/blog/index.html", `{{ template "layouts/nav.html" . }}<h1>{{ .title }}</h1>`)

	got, err := e.Render("pages/blog/index.html", map[string]any{"title": "Blog"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "<nav>menu</nav>") || !strings.Contains(got, "<h1>Blog</h1>") {
		t.Fatalf("render = %q", got)
	}
}

func TestGetArticlesFunc(t *testing.T) {
	e, _, root := testEngine(t)
	writeView(t, root, "list.html", "{{ range get_articles `{'where': {'category': 'tech'}}` }}[{{ .title }}]{{ end }}")

	got, err := e.Render("list.html", nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != "[One]" {
		t.Fatalf("got %q, want drafts and news excluded", got)
	}
}

func TestGetArticlesNoArg(t *testing.T) {
	e, _, root := testEngine(t)
	writeView(t, root, "all.html", `{{ range get_articles }}[{{ .title }}]{{ end }}`)

	got, err := e.Render("all.html", nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != "[One][Two]" {
		t.Fatalf("got %q", got)
	}
}

func TestQueryStoreFunc(t *testing.T) {
	e, _, root := testEngine(t)
	writeView(t, root, "team.html", "{{ range query_store `{'collection': 'team', 'order_by': {'desc': 'name'}}` }}[{{ .name }}]{{ end }}")

	got, err := e.Render("team.html", nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != "[Grace][Ada]" {
		t.Fatalf("got %q", got)
	}
}

func TestQueryStoreRequiresCollection(t *testing.T) {
	e, _, root := testEngine(t)
	writeView(t, root, "bad.html", "{{ range query_store `{'limit': 3}` }}{{ end }}")

	if _, err := e.Render("bad.html", nil); err == nil {
		t.Fatal("query_store without collection should error")
	}
}

func TestMalformedFilterLiteralFailsRender(t *testing.T) {
	e, _, root := testEngine(t)
	writeView(t, root, "bad.html", "{{ range get_articles `{'where': {'a': }` }}{{ end }}")

	if _, err := e.Render("bad.html", nil); err == nil {
		t.Fatal("malformed literal should fail the render")
	}
}

func TestRawSource(t *testing.T) {
	e, _, root := testEngine(t)
	writeView(t, root, "pages/index.html", "raw {{ text }}")

	text, abs, err := e.RawSource("pages/index.html")
	if err != nil {
		t.Fatal(err)
	}
	if text != "raw {{ text }}" {
		t.Fatalf("text = %q", text)
	}
	if !filepath.IsAbs(abs) {
		t.Fatalf("abs = %q", abs)
	}
}

func TestPageNames(t *testing.T) {
	e, _, root := testEngine(t)
	writeView(t, root, "home.html", "x")
	writeView(t, root, "pages/about.html", "x")
	writeView(t, root, "pages/blog/index.html", "x")

	names, err := e.PageNames()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"pages/about.html", "pages/blog/index.html"}
	if len(names) != len(want) || names[0] != want[0] || names[1] != want[1] {
		t.Fatalf("names = %v, want %v", names, want)
	}
}

func TestInvalidateReparses(t *testing.T) {
	e, _, root := testEngine(t)
	writeView(t, root, "p.html", "v1")
	if got, _ := e.Render("p.html", nil); got != "v1" {
		t.Fatalf("got %q", got)
	}

	writeView(t, root, "p.html", "v2")
	if got, _ := e.Render("p.html", nil); got != "v1" {
		t.Fatalf("cached set should still serve v1, got %q", got)
	}

	e.Invalidate()
	if got, _ := e.Render("p.html", nil); got != "v2" {
		t.Fatalf("after invalidate got %q", got)
	}
}

func TestGetExcerpt(t *testing.T) {
	html := "<p>The quick brown fox jumps over the lazy dog.</p><p>Second <em>paragraph</em> here.</p>"
	got := getExcerpt(html, 30)
	if got != "The quick brown fox jumps..." {
		t.Fatalf("excerpt = %q", got)
	}

	if got := getExcerpt("<div>no paragraphs <b>bold</b></div>"); got != "no paragraphs bold" {
		t.Fatalf("tag-strip fallback = %q", got)
	}

	withFM := "<p>@frontmatter\n{'title': 'x'}\n@endfrontmatter</p><p>Real text.</p>"
	if got := getExcerpt(withFM); got != "Real text." {
		t.Fatalf("front matter leaked: %q", got)
	}
}

func TestRFC822(t *testing.T) {
	dt := time.Date(2025, time.January, 15, 9, 30, 0, 0, time.UTC)
	if got := rfc822(dt); got != "Wed, 15 Jan 2025 09:30:00 +0000" {
		t.Fatalf("rfc822 = %q", got)
	}
	if got := rfc822("2025-01-15"); !strings.Contains(got, "1000") {
		t.Fatalf("string input should yield the minimal date, got %q", got)
	}
	if got := rfc822(nil); !strings.Contains(got, "1000") {
		t.Fatalf("nil input should yield the minimal date, got %q", got)
	}
}

func TestRelToAbs(t *testing.T) {
	e, _, _ := testEngine(t)
	in := `<a href="/about">about</a><img src='/img/x.png'><pre><a href="/keep">verbatim</a></pre>`
	got := string(e.relToAbs(in))
	if !strings.Contains(got, `href="https://example.com/about"`) {
		t.Fatalf("href not rewritten: %q", got)
	}
	if !strings.Contains(got, `src="https://example.com/img/x.png"`) {
		t.Fatalf("src not rewritten: %q", got)
	}
	if !strings.Contains(got, `<pre><a href="/keep">verbatim</a></pre>`) {
		t.Fatalf("pre content was rewritten: %q", got)
	}

	bare := New(t.TempDir(), "", nil)
	if got := string(bare.relToAbs(`<a href="/x">x</a>`)); got != `<a href="/x">x</a>` {
		t.Fatalf("empty origin should be a no-op: %q", got)
	}
}

func TestDictAndSafe(t *testing.T) {
	m := dict("a", 1, "b", "two")
	if m["a"] != 1 || m["b"] != "two" {
		t.Fatalf("dict = %v", m)
	}
	if safe("<b>x</b>") != "<b>x</b>" {
		t.Fatal("safe should pass HTML through")
	}
}
