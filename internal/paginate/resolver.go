// internal/paginate/resolver.go
//
// Static pagination: a page template whose front matter sets
//
//	'paginate': 'get_articles'   (or 'query_store')
//	'per_page': 10
//
// is expanded into one output file per page.  The filter specification
// is recovered from the template's own query call in the raw source, its
// offset and limit dropped, and the full result set counted; the
// template then renders once per page with a fresh .pagination context.
//
// Output layout: page 1 lands at the template's canonical destination,
// page n at <dir>/page/<n>/index.html.
//
// Extraction is deliberately strict: exactly one call to the paginated
// function may appear in the source.  Zero means the front matter lied;
// more than one is ambiguous — both fail the build rather than guess.
package paginate

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/yanizio/vellum/internal/content"
	"github.com/yanizio/vellum/internal/query"
	"github.com/yanizio/vellum/internal/relaxed"
)

var (
	ErrUnsupportedPaginationTarget = errors.New("paginate: unsupported 'paginate' value, want get_articles or query_store")
	ErrMissingPageSize             = errors.New("paginate: 'per_page' missing or not a positive integer")
	ErrPaginationCallNotFound      = errors.New("paginate: no call to the paginated function found in template")
	ErrAmbiguousPaginationCall     = errors.New("paginate: multiple calls to the paginated function found in template")
)

// QueryAPI answers the two paginated query targets.
type QueryAPI interface {
	Articles(spec *query.Spec) ([]content.Record, error)
	Store(spec *query.Spec) ([]content.Record, error)
}

// Resolver expands one paginated template into its page files.  The
// render plumbing is injected so the resolver stays independent of the
// site builder's wiring.
type Resolver struct {
	API      QueryAPI
	Render   func(name string, args map[string]any) (string, error)
	DocHead  func(fm map[string]any) string
	DocTail  func() string
	BaseArgs func() map[string]any // fresh copy of the shared render arguments
	BuildDir string
}

// Resolve writes every page of one paginated template.  name is the
// template's logical name, srcText its raw source, dest the canonical
// page-1 output path, fm its front matter.  Returns the page count.
func (r *Resolver) Resolve(name, srcText, srcPath, dest string, fm map[string]any) (int, error) {
	target, _ := fm["paginate"].(string)
	if target != "get_articles" && target != "query_store" {
		return 0, fmt.Errorf("%w: %q in %s", ErrUnsupportedPaginationTarget, fm["paginate"], srcPath)
	}

	perPage, ok := pageSize(fm["per_page"])
	if !ok {
		return 0, fmt.Errorf("%w: %v in %s", ErrMissingPageSize, fm["per_page"], srcPath)
	}

	spec, err := extractSpec(srcText, target)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", srcPath, err)
	}

	var items []content.Record
	switch target {
	case "get_articles":
		items, err = r.API.Articles(spec)
	case "query_store":
		items, err = r.API.Store(spec)
	}
	if err != nil {
		return 0, fmt.Errorf("%s: paginated query: %w", srcPath, err)
	}

	totalItems := len(items)
	totalPages := int(math.Ceil(float64(totalItems) / float64(perPage)))
	if totalPages < 1 {
		totalPages = 1
	}

	rootPath, err := filepath.Rel(r.BuildDir, filepath.Dir(dest))
	if err != nil {
		return 0, fmt.Errorf("%s: page root outside build dir: %w", dest, err)
	}
	rootPath = filepath.ToSlash(rootPath)
	if rootPath == "." {
		rootPath = ""
	}

	zap.S().Infow("paginating template",
		"template", name, "target", target,
		"total_items", totalItems, "per_page", perPage, "total_pages", totalPages)

	for page := 1; page <= totalPages; page++ {
		ctx := Context{
			TotalItems:   totalItems,
			CurrentPage:  page,
			PerPage:      perPage,
			TotalPages:   totalPages,
			RootPagePath: rootPath,
		}
		args := r.BaseArgs()
		args["pagination"] = ctx.Map()

		body, err := r.Render(name, args)
		if err != nil {
			return 0, fmt.Errorf("%s: page %d: %w", srcPath, page, err)
		}
		html := r.DocHead(fm) + body + "\n" + r.DocTail()
		html = content.StripFrontMatter(html)

		out := dest
		if page > 1 {
			out = filepath.Join(filepath.Dir(dest), "page", strconv.Itoa(page), "index.html")
		}
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return 0, err
		}
		if err := os.WriteFile(out, []byte(html), 0o644); err != nil {
			return 0, err
		}
	}
	return totalPages, nil
}

// pageSize accepts an int, a float that is really an int (relaxed
// literals parse numbers as float64), or a numeric string.
func pageSize(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, t > 0
	case int64:
		return int(t), t > 0
	case float64:
		n := int(t)
		return n, float64(n) == t && n > 0
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		return n, err == nil && n > 0
	}
	return 0, false
}

// extractSpec recovers the filter specification from the template's
// query call.  The call site looks like
//
//	{{ range get_articles `{'where': ...}` }}
//
// but older layouts wrote it function-style with parentheses and a
// filters= keyword, so the scanner tolerates an optional '(', an
// optional filters= prefix, and an optional quote before the literal.
func extractSpec(src, fn string) (*query.Spec, error) {
	// The front matter names the paginated function too ('paginate':
	// 'get_articles'); only the template body holds the call.
	src = content.StripFrontMatter(src)
	count := strings.Count(src, fn)
	if count == 0 {
		return nil, fmt.Errorf("%w: %s", ErrPaginationCallNotFound, fn)
	}
	if count > 1 {
		return nil, fmt.Errorf("%w: %s appears %d times", ErrAmbiguousPaginationCall, fn, count)
	}

	rest := src[strings.Index(src, fn)+len(fn):]
	i := 0
	skipWS := func() {
		for i < len(rest) && (rest[i] == ' ' || rest[i] == '\t' || rest[i] == '\n' || rest[i] == '\r') {
			i++
		}
	}
	skipWS()
	if i < len(rest) && rest[i] == '(' {
		i++
		skipWS()
	}
	if strings.HasPrefix(rest[i:], "filters") {
		i += len("filters")
		skipWS()
		if i < len(rest) && rest[i] == '=' {
			i++
			skipWS()
		}
	}
	quoted := false
	if i < len(rest) && (rest[i] == '`' || rest[i] == '\'' || rest[i] == '"') {
		quoted = true
		i++
		skipWS()
	}
	if i >= len(rest) || rest[i] != '{' {
		// A call with no argument paginates the whole corpus.  Anything
		// else in argument position is something the scanner cannot read
		// (a variable, a printf pipeline) — refuse rather than silently
		// count the wrong result set.
		if !quoted && (i >= len(rest) || rest[i] == ')' || strings.HasPrefix(rest[i:], "}}")) {
			return &query.Spec{}, nil
		}
		return nil, fmt.Errorf("%s argument is not an object literal", fn)
	}

	literal, ok := balancedBraces(rest[i:])
	if !ok {
		return nil, fmt.Errorf("unbalanced braces in %s call", fn)
	}
	if strings.TrimSpace(literal[1:len(literal)-1]) == "" {
		return &query.Spec{}, nil
	}

	v, err := relaxed.Parse(literal)
	if err != nil {
		zap.S().Errorw("cannot parse pagination filter literal", "function", fn, "err", err)
		return nil, fmt.Errorf("pagination filters: %w", err)
	}
	// Pagination owns the slicing: authored offset/limit members —
	// integers or live pagination expressions alike — are dropped before
	// the full result set is counted.
	v = v.Without("offset", "limit")
	spec, err := query.ParseSpec(v)
	if err != nil {
		zap.S().Errorw("invalid pagination filter specification", "function", fn, "err", err)
		return nil, fmt.Errorf("pagination filters: %w", err)
	}
	return spec, nil
}

// balancedBraces returns the prefix of s spanning one balanced {...}
// group.  Braces inside quoted strings do not count; a backslash escapes
// the next character inside quotes.
func balancedBraces(s string) (string, bool) {
	depth := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			quote = c
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}
	return "", false
}
