// internal/paginate/paginate_test.go

package paginate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yanizio/vellum/internal/content"
	"github.com/yanizio/vellum/internal/query"
)

type stubAPI struct {
	articles []content.Record
	lastSpec *query.Spec
}

func (s *stubAPI) Articles(spec *query.Spec) ([]content.Record, error) {
	s.lastSpec = spec
	return query.EvaluateArticles(s.articles, spec), nil
}

func (s *stubAPI) Store(spec *query.Spec) ([]content.Record, error) {
	if spec == nil || spec.Collection == "" {
		return nil, fmt.Errorf("store: collection not specified")
	}
	return nil, fmt.Errorf("store: collection %q not found", spec.Collection)
}

func nArticles(n int) []content.Record {
	out := make([]content.Record, n)
	for i := range out {
		out[i] = content.Record{"title": fmt.Sprintf("post-%02d", i), "draft": false}
	}
	return out
}

func testResolver(t *testing.T, api *stubAPI) (*Resolver, string) {
	t.Helper()
	build := t.TempDir()
	return &Resolver{
		API: api,
		Render: func(name string, args map[string]any) (string, error) {
			pg := args["pagination"].(map[string]any)
			return fmt.Sprintf("page %v of %v window %v-%v",
				pg["current_page"], pg["total_pages"], pg["offset"], pg["end"]), nil
		},
		DocHead:  func(fm map[string]any) string { return "<html><body>" },
		DocTail:  func() string { return "</body></html>" },
		BaseArgs: func() map[string]any { return map[string]any{} },
		BuildDir: build,
	}, build
}

const blogSrc = "@frontmatter\n{'paginate': 'get_articles', 'per_page': 10}\n@endfrontmatter\n" +
	"{{ range get_articles `{'order_by': {'asc': 'title'}, 'offset': 3, 'limit': 2}` }}{{ end }}"

func fm(perPage any) map[string]any {
	return map[string]any{"paginate": "get_articles", "per_page": perPage}
}

func TestResolveWritesPageFiles(t *testing.T) {
	api := &stubAPI{articles: nArticles(25)}
	r, build := testResolver(t, api)
	dest := filepath.Join(build, "blog", "index.html")

	pages, err := r.Resolve("pages/blog/index.html", blogSrc, "/src/blog.html", dest, fm(10))
	if err != nil {
		t.Fatal(err)
	}
	if pages != 3 {
		t.Fatalf("pages = %d, want 3", pages)
	}

	// Authored offset/limit must not shrink the corpus being paginated.
	if api.lastSpec.Offset != nil || api.lastSpec.Limit != nil {
		t.Fatalf("offset/limit not stripped: %+v", api.lastSpec)
	}

	first, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(first), "page 1 of 3 window 0-10") {
		t.Fatalf("page 1 content: %q", first)
	}
	second, err := os.ReadFile(filepath.Join(build, "blog", "page", "2", "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(second), "page 2 of 3 window 10-20") {
		t.Fatalf("page 2 content: %q", second)
	}
	third, err := os.ReadFile(filepath.Join(build, "blog", "page", "3", "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	// The last page's window clamps to the item count.
	if !strings.Contains(string(third), "page 3 of 3 window 20-25") {
		t.Fatalf("page 3 content: %q", third)
	}
	if _, err := os.Stat(filepath.Join(build, "blog", "page", "1")); !os.IsNotExist(err) {
		t.Fatal("page 1 must live at the canonical destination, not /page/1/")
	}
	if _, err := os.Stat(filepath.Join(build, "blog", "page", "4")); !os.IsNotExist(err) {
		t.Fatal("no fourth page expected")
	}
}

// The stock paginated template drives its query window with live
// pagination expressions; those members must be stripped before the
// count, never rejected as malformed.
func TestResolveDynamicOffsetLimit(t *testing.T) {
	arts := nArticles(25)
	for _, a := range arts {
		a["category"] = "technology"
	}
	api := &stubAPI{articles: arts}
	r, build := testResolver(t, api)
	dest := filepath.Join(build, "blog", "index.html")

	src := "@frontmatter\n{'paginate': 'get_articles', 'per_page': 10}\n@endfrontmatter\n" +
		"{{ range slice (get_articles `{" +
		"'where': {'category': 'technology'}, " +
		"'limit': pagination.per_page, " +
		"'offset': pagination.per_page * (pagination.current_page - 1)}`) " +
		".pagination.offset .pagination.end }}{{ end }}"

	pages, err := r.Resolve("p", src, "/src/blog.html", dest, fm(10))
	if err != nil {
		t.Fatal(err)
	}
	if pages != 3 {
		t.Fatalf("pages = %d, want 3", pages)
	}
	if api.lastSpec.Offset != nil || api.lastSpec.Limit != nil {
		t.Fatalf("dynamic offset/limit should be stripped: %+v", api.lastSpec)
	}
	if len(api.lastSpec.Conds) != 1 || api.lastSpec.Conds[0].Field != "category" {
		t.Fatalf("where clause lost: %+v", api.lastSpec)
	}
}

func TestResolveSinglePageCounts(t *testing.T) {
	cases := []struct {
		items, perPage, want int
	}{
		{0, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
	}
	for _, tc := range cases {
		api := &stubAPI{articles: nArticles(tc.items)}
		r, build := testResolver(t, api)
		dest := filepath.Join(build, "blog", "index.html")
		pages, err := r.Resolve("p", blogSrc, "/src/blog.html", dest, fm(tc.perPage))
		if err != nil {
			t.Fatal(err)
		}
		if pages != tc.want {
			t.Fatalf("%d items / %d per page = %d pages, want %d", tc.items, tc.perPage, pages, tc.want)
		}
	}
}

func TestResolvePerPageString(t *testing.T) {
	api := &stubAPI{articles: nArticles(12)}
	r, build := testResolver(t, api)
	dest := filepath.Join(build, "blog", "index.html")
	pages, err := r.Resolve("p", blogSrc, "/src/blog.html", dest, fm("5"))
	if err != nil {
		t.Fatal(err)
	}
	if pages != 3 {
		t.Fatalf("pages = %d, want 3", pages)
	}
}

func TestResolveErrors(t *testing.T) {
	api := &stubAPI{articles: nArticles(5)}
	r, build := testResolver(t, api)
	dest := filepath.Join(build, "blog", "index.html")

	_, err := r.Resolve("p", blogSrc, "/src/b.html", dest, map[string]any{"paginate": "get_pages", "per_page": 5})
	if !errors.Is(err, ErrUnsupportedPaginationTarget) {
		t.Fatalf("err = %v", err)
	}

	for _, perPage := range []any{nil, "lots", 0, -3, 2.5} {
		_, err = r.Resolve("p", blogSrc, "/src/b.html", dest, fm(perPage))
		if !errors.Is(err, ErrMissingPageSize) {
			t.Fatalf("per_page %v: err = %v", perPage, err)
		}
	}

	_, err = r.Resolve("p", "no call here", "/src/b.html", dest, fm(5))
	if !errors.Is(err, ErrPaginationCallNotFound) {
		t.Fatalf("err = %v", err)
	}

	two := "{{ get_articles }} {{ get_articles }}"
	_, err = r.Resolve("p", two, "/src/b.html", dest, fm(5))
	if !errors.Is(err, ErrAmbiguousPaginationCall) {
		t.Fatalf("err = %v", err)
	}

	bad := "{{ range get_articles `{'where': {'a': }` }}{{ end }}"
	if _, err = r.Resolve("p", bad, "/src/b.html", dest, fm(5)); err == nil {
		t.Fatal("unparseable filter literal should fail the build")
	}
}

func TestExtractSpecShapes(t *testing.T) {
	cases := []string{
		"{{ range get_articles `{'limit': 3}` }}",
		`{{ range get_articles "{'limit': 3}" }}`,
		"get_articles({'limit': 3})",
		"get_articles( filters = {'limit': 3} )",
	}
	for _, src := range cases {
		spec, err := extractSpec(src, "get_articles")
		if err != nil {
			t.Fatalf("%q: %v", src, err)
		}
		if spec.Limit == nil || *spec.Limit != 3 {
			t.Fatalf("%q: spec = %+v", src, spec)
		}
	}

	spec, err := extractSpec("{{ range get_articles `{}` }}", "get_articles")
	if err != nil || spec.Conds != nil || spec.OrderBy != nil {
		t.Fatalf("empty braces: spec=%+v err=%v", spec, err)
	}

	spec, err = extractSpec("{{ range get_articles }}", "get_articles")
	if err != nil || spec == nil {
		t.Fatalf("no argument: spec=%+v err=%v", spec, err)
	}
	spec, err = extractSpec("get_articles()", "get_articles")
	if err != nil || spec == nil {
		t.Fatalf("empty parens: spec=%+v err=%v", spec, err)
	}

	// An argument the scanner cannot read is not an implicit match-all.
	if _, err = extractSpec(`{{ range get_articles (printf "{'limit': %d}" 3) }}`, "get_articles"); err == nil {
		t.Fatal("non-literal argument should be rejected")
	}
	if _, err = extractSpec("{{ range get_articles $filters }}", "get_articles"); err == nil {
		t.Fatal("variable argument should be rejected")
	}

	nested := "get_articles `{'where': {'title': {'contains': '}'}}}`"
	spec, err = extractSpec(nested, "get_articles")
	if err != nil || len(spec.Conds) != 1 {
		t.Fatalf("quoted brace: spec=%+v err=%v", spec, err)
	}
}

func TestContextMap(t *testing.T) {
	m := Context{TotalItems: 25, CurrentPage: 2, PerPage: 10, TotalPages: 3, RootPagePath: "blog"}.Map()
	if m["has_previous"] != true || m["has_next"] != true {
		t.Fatalf("flags: %v", m)
	}
	if m["previous_page"] != 1 || m["next_page"] != 3 {
		t.Fatalf("neighbors: %v", m)
	}
	if m["previous_page_url"] != "/blog/" {
		t.Fatalf("previous_page_url = %v, want canonical root", m["previous_page_url"])
	}
	if m["next_page_url"] != "/blog/page/3/" {
		t.Fatalf("next_page_url = %v", m["next_page_url"])
	}
	if m["offset"] != 10 || m["end"] != 20 {
		t.Fatalf("window: offset=%v end=%v", m["offset"], m["end"])
	}

	last := Context{TotalItems: 25, CurrentPage: 3, PerPage: 10, TotalPages: 3}.Map()
	if last["offset"] != 20 || last["end"] != 25 {
		t.Fatalf("last-page window must clamp: offset=%v end=%v", last["offset"], last["end"])
	}

	edge := Context{TotalItems: 5, CurrentPage: 1, PerPage: 10, TotalPages: 1}.Map()
	if edge["previous_page"] != nil || edge["next_page"] != nil {
		t.Fatalf("edges should be nil: %v", edge)
	}
	if edge["previous_page_url"] != "/" {
		t.Fatalf("root previous url = %v", edge["previous_page_url"])
	}
	if edge["page_links"] != "" {
		t.Fatalf("single page should have no links: %v", edge["page_links"])
	}
}

func TestDefaultMap(t *testing.T) {
	m := DefaultMap()
	if m["current_page"] != 1 || m["per_page"] != 10 || m["total_pages"] != 0 {
		t.Fatalf("defaults: %v", m)
	}
	if m["page_links"] != "" || m["next_page_url"] != nil {
		t.Fatalf("defaults: %v", m)
	}
	if m["offset"] != 0 || m["end"] != 0 {
		t.Fatalf("non-paginated window: %v", m)
	}
}

func TestLinkMarkupSmallSet(t *testing.T) {
	got := LinkMarkup("blog", 2, 3)
	for _, want := range []string{
		"<nav class='pagination'>",
		"<ul class='pagination-list'>",
		"<li class='pagination-previous'><a href='/blog/'><span>Previous</span></a></li>",
		"<li class='pagination-item'><a href='/blog/'>1</a></li>",
		"<li class='pagination-item active'>2</li>",
		"<li class='pagination-item'><a href='/blog/page/3/'>3</a></li>",
		"<li class='pagination-next'><a href='/blog/page/3/'><span>Next</span></a></li>",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in:\n%s", want, got)
		}
	}
	if strings.Contains(got, "ellipsis") {
		t.Fatalf("small sets have no ellipsis:\n%s", got)
	}
}

func TestLinkMarkupTruncated(t *testing.T) {
	got := LinkMarkup("blog", 8, 15)
	for _, want := range []string{
		"<li class='pagination-item'><a href='/blog/'>1</a></li>",
		"<li class='pagination-item'><a href='/blog/page/6/'>6</a></li>",
		"<li class='pagination-item'><a href='/blog/page/7/'>7</a></li>",
		"<li class='pagination-item active'>8</li>",
		"<li class='pagination-item'><a href='/blog/page/9/'>9</a></li>",
		"<li class='pagination-item'><a href='/blog/page/10/'>10</a></li>",
		"<li class='pagination-item'><a href='/blog/page/15/'>15</a></li>",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in:\n%s", want, got)
		}
	}
	if n := strings.Count(got, "pagination-ellipsis"); n != 2 {
		t.Fatalf("ellipsis count = %d, want 2:\n%s", n, got)
	}
	if strings.Contains(got, ">5<") || strings.Contains(got, ">11<") {
		t.Fatalf("pages outside the window leaked:\n%s", got)
	}
}

func TestLinkMarkupRootPageSet(t *testing.T) {
	got := LinkMarkup("", 1, 2)
	if !strings.Contains(got, "<li class='pagination-next'><a href='/page/2/'><span>Next</span></a></li>") {
		t.Fatalf("root page set next url:\n%s", got)
	}
	if strings.Contains(got, "//") {
		t.Fatalf("doubled slash in root urls:\n%s", got)
	}
}
