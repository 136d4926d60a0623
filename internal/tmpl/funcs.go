// internal/tmpl/funcs.go
//
// The site func map.  Query functions take their filter specification as
// a relaxed literal in a string argument:
//
//	{{ range get_articles `{'where': {'category': 'tech'}, 'limit': 5}` }}
//	{{ range query_store `{'collection': 'team'}` }}
//
// so authors write the same loose JSON they use in front matter.
// Paginated templates take their page window from .pagination:
//
//	{{ range slice (get_articles `{…}`) .pagination.offset .pagination.end }}
package tmpl

import (
	"fmt"
	"html/template"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/vellum/internal/content"
	"github.com/yanizio/vellum/internal/query"
	"github.com/yanizio/vellum/internal/relaxed"
)

func (e *Engine) funcMap() template.FuncMap {
	return template.FuncMap{
		"get_articles": e.getArticles,
		"query_store":  e.queryStore,
		"get_excerpt":  getExcerpt,
		"rfc822":       rfc822,
		"rel_to_abs":   e.relToAbs,
		"now":          func() time.Time { return time.Now().UTC() },
		"dict":         dict,
		"safe":         safe,
	}
}

// parseSpecArg turns an optional relaxed-literal argument into a Spec.
// No argument (or a blank one) means no filtering.
func parseSpecArg(args []string) (*query.Spec, error) {
	if len(args) == 0 {
		return nil, nil
	}
	if len(args) > 1 {
		return nil, fmt.Errorf("expected at most one filter argument, got %d", len(args))
	}
	text := strings.TrimSpace(args[0])
	text = strings.TrimPrefix(text, "filters=")
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	v, err := relaxed.Parse(text)
	if err != nil {
		return nil, err
	}
	return query.ParseSpec(v)
}

func (e *Engine) getArticles(args ...string) ([]content.Record, error) {
	if e.api == nil {
		return nil, fmt.Errorf("get_articles: no query backend wired")
	}
	spec, err := parseSpecArg(args)
	if err != nil {
		return nil, fmt.Errorf("get_articles: %w", err)
	}
	return e.api.Articles(spec)
}

func (e *Engine) queryStore(args ...string) ([]content.Record, error) {
	if e.api == nil {
		return nil, fmt.Errorf("query_store: no query backend wired")
	}
	spec, err := parseSpecArg(args)
	if err != nil {
		return nil, fmt.Errorf("query_store: %w", err)
	}
	if spec == nil || spec.Collection == "" {
		return nil, fmt.Errorf("query_store: 'collection' must name a top-level store key")
	}
	return e.api.Store(spec)
}

var (
	paraPat = regexp.MustCompile(`(?s)<p>(.*?)</p>`)
	tagPat  = regexp.MustCompile(`<.*?>`)
)

// getExcerpt produces a plain-text excerpt from rendered HTML: paragraph
// contents when the fragment has <p> tags, the tag-stripped text
// otherwise, truncated at the last space before the length limit.
func getExcerpt(v any, length ...int) string {
	limit := 100
	if len(length) > 0 {
		limit = length[0]
	}
	text := content.StripFrontMatter(htmlArg(v))

	var excerpt string
	if matches := paraPat.FindAllStringSubmatch(text, -1); len(matches) > 0 {
		parts := make([]string, len(matches))
		for i, m := range matches {
			parts[i] = m[1]
		}
		excerpt = strings.Join(parts, " ")
	} else {
		excerpt = text
	}
	excerpt = tagPat.ReplaceAllString(excerpt, "")

	if len(excerpt) > limit {
		if last := strings.LastIndex(excerpt[:limit], " "); last != -1 {
			excerpt = excerpt[:last] + "..."
		} else {
			excerpt = excerpt[:limit] + "..."
		}
	}
	return strings.TrimSpace(excerpt)
}

// rfc822 formats a datetime for RSS.  A string or nil value is an
// authoring mistake; it warns and yields an obviously-minimal date
// instead of breaking the feed render.
func rfc822(v any) string {
	t, ok := v.(time.Time)
	if !ok {
		zap.S().Warnw("rfc822 expects a datetime, returning minimal date", "got", fmt.Sprintf("%T", v))
		t = time.Date(1000, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return t.Format("Mon, 02 Jan 2006 15:04:05 +0000")
}

var (
	preCodePat = regexp.MustCompile(`(?s)<(code|pre)[^>]*>.*?</(?:code|pre)>`)
	hrefPat    = regexp.MustCompile(`href=["'](/[^"']*)["']`)
	srcPat     = regexp.MustCompile(`src=["'](/[^"']*)["']`)
)

// relToAbs rewrites root-relative href/src URLs to absolute ones using
// the site origin.  Content inside <code> and <pre> is left untouched —
// documentation about URLs must not get rewritten.
func (e *Engine) relToAbs(v any) template.HTML {
	html := htmlArg(v)
	origin := strings.TrimRight(e.urlOrigin, "/")
	if origin == "" {
		return template.HTML(html)
	}

	var protected []string
	html = preCodePat.ReplaceAllStringFunc(html, func(m string) string {
		protected = append(protected, m)
		return fmt.Sprintf("\x00vellum:%d\x00", len(protected)-1)
	})

	html = hrefPat.ReplaceAllString(html, `href="`+origin+`$1"`)
	html = srcPat.ReplaceAllString(html, `src="`+origin+`$1"`)

	for i, original := range protected {
		html = strings.Replace(html, fmt.Sprintf("\x00vellum:%d\x00", i), original, 1)
	}
	return template.HTML(html)
}

// dict builds a map in templates: {{ dict "k" 1 "k2" "v" }}.
func dict(kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		m[key] = kv[i+1]
	}
	return m
}

// safe marks a string as pre-escaped HTML.
func safe(v any) template.HTML { return template.HTML(htmlArg(v)) }

func htmlArg(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case template.HTML:
		return string(t)
	}
	return fmt.Sprint(v)
}
