// internal/head/builder.go
//
// The Builder assembles the HTML shell wrapped around every generated
// page: doctype, <html lang>, the <head> element, and the opening and
// closing <body> tags.  It is scoped to one build — construct it with the
// site's global metadata, then call DocHead per page with that page's
// front matter.
//
// Merge rule
// ----------
// Every head field resolves front matter first, global metadata second,
// then a built-in default.  lang, body_id, and body_class steer the
// enclosing elements instead of producing tags.
//
// Features
// --------
//   - DocHead  – doctype through the opening <body> tag.
//   - DocTail  – module <script> plus closing </body></html>.
//   - Fixed tag order, empty fields omitted, list-or-string tolerance
//     for keywords, preconnects, stylesheets, and head_extra.
package head

import (
	"fmt"
	"html/template"
	"strings"
)

// Default asset locations inside the build tree.
const (
	DefaultStylesLink  = "/static/styles/main.css"
	DefaultScriptLink  = "/static/scripts/main.js"
	DefaultFaviconLink = `<link rel="icon" type="image/x-icon" href="/favicon.ico">`
)

// Builder holds the site-wide head configuration.  Safe for concurrent
// reads; it is never mutated after construction.
type Builder struct {
	global      map[string]any
	stylesLink  string
	scriptLink  string
	faviconLink string
}

// New builds a Builder over the site's global metadata mapping (usually
// the "metadata" block of site configuration).  A nil mapping is fine;
// every field then falls back to its built-in default.
func New(global map[string]any) *Builder {
	if global == nil {
		global = map[string]any{}
	}
	return &Builder{
		global:      global,
		stylesLink:  DefaultStylesLink,
		scriptLink:  DefaultScriptLink,
		faviconLink: DefaultFaviconLink,
	}
}

// ------------------------------------------------------------------
// Field resolution
// ------------------------------------------------------------------

func (b *Builder) field(fm map[string]any, key, def string) string {
	if v, ok := fm[key]; ok {
		return toStr(v)
	}
	if v, ok := b.global[key]; ok {
		return toStr(v)
	}
	return def
}

// fieldList resolves a field that may be authored as a list or a single
// string.
func (b *Builder) fieldList(fm map[string]any, key string) []string {
	v, ok := fm[key]
	if !ok {
		v, ok = b.global[key]
	}
	if !ok || v == nil {
		return nil
	}
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			out = append(out, toStr(e))
		}
		return out
	case []string:
		return t
	case string:
		if t == "" {
			return nil
		}
		return []string{t}
	}
	return []string{toStr(v)}
}

func toStr(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// ------------------------------------------------------------------
// Document shell
// ------------------------------------------------------------------

// DocHead renders everything from <!DOCTYPE html> through the opening
// <body> tag for one page.  fm is the page's front matter; nil means no
// per-page overrides.
func (b *Builder) DocHead(fm map[string]any) template.HTML {
	if fm == nil {
		fm = map[string]any{}
	}

	lang := b.field(fm, "lang", "en")
	bodyID := b.field(fm, "body_id", "")
	bodyClass := b.field(fm, "body_class", "")

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n")
	fmt.Fprintf(&sb, "<html lang=%q>\n", lang)
	sb.WriteString("<head>\n")

	tag := func(s string) {
		if s != "" {
			sb.WriteString(s)
			sb.WriteByte('\n')
		}
	}

	tag(fmt.Sprintf(`<meta charset=%q>`, b.field(fm, "charset", "UTF-8")))
	tag(`<meta name="viewport" content="width=device-width, initial-scale=1.0">`)
	tag(fmt.Sprintf("<title>%s</title>", template.HTMLEscapeString(b.field(fm, "title", "Vellum"))))
	tag(metaName("description", b.field(fm, "description", "")))
	if kw := b.fieldList(fm, "keywords"); len(kw) > 0 {
		tag(metaName("keywords", strings.Join(kw, ",")))
	}
	tag(metaName("author", b.field(fm, "author", "")))
	tag(metaName("theme-color", b.field(fm, "theme_color", "")))
	tag(metaProp("og:image", b.field(fm, "og_image", "")))
	tag(metaProp("og:image:alt", b.field(fm, "og_image_alt", "")))
	tag(metaProp("og:title", b.field(fm, "og_title", "")))
	tag(metaProp("og:description", b.field(fm, "og_description", "")))
	tag(metaProp("og:url", b.field(fm, "og_url", "")))
	tag(metaProp("og:type", b.field(fm, "og_type", "")))
	tag(metaProp("og:site_name", b.field(fm, "og_site_name", "")))
	tag(metaProp("og:locale", b.field(fm, "og_locale", "")))
	if c := b.field(fm, "canonical", ""); c != "" {
		tag(fmt.Sprintf(`<link rel="canonical" href=%q>`, c))
	}
	if font := b.field(fm, "google_font_link", ""); font != "" {
		tag(`<link rel="preconnect" href="https://fonts.googleapis.com">`)
		tag(`<link rel="preconnect" href="https://fonts.gstatic.com" crossorigin>`)
		tag(fmt.Sprintf(`<link href=%q rel="stylesheet">`, font))
	}
	for _, pc := range b.fieldList(fm, "preconnects") {
		tag(fmt.Sprintf(`<link rel="preconnect" href=%q>`, pc))
	}
	for _, sheet := range b.fieldList(fm, "stylesheets") {
		tag(fmt.Sprintf(`<link rel="stylesheet" href=%q>`, sheet))
	}
	tag(metaName("robots", b.field(fm, "robots", "")))
	// head_extra passes through verbatim: authors use it for analytics
	// snippets and verification tags the builder has no schema for.
	for _, extra := range b.fieldList(fm, "head_extra") {
		tag(extra)
	}
	tag(b.faviconLink)
	tag(fmt.Sprintf(`<link href=%q rel="stylesheet" />`, b.stylesLink))

	sb.WriteString("</head>\n<body")
	if bodyID != "" {
		fmt.Fprintf(&sb, " id=%q", bodyID)
	}
	if bodyClass != "" {
		fmt.Fprintf(&sb, " class=%q", bodyClass)
	}
	sb.WriteString(">\n")
	return template.HTML(sb.String())
}

// DocTail renders the page's closing section: the site script as an ES
// module, then </body></html>.
func (b *Builder) DocTail() template.HTML {
	return template.HTML(fmt.Sprintf("<script type=\"module\" src=%q></script>\n</body>\n</html>\n", b.scriptLink))
}

func metaName(name, content string) string {
	if content == "" {
		return ""
	}
	return fmt.Sprintf(`<meta name=%q content=%q>`, name, content)
}

func metaProp(prop, content string) string {
	if content == "" {
		return ""
	}
	return fmt.Sprintf(`<meta property=%q content=%q>`, prop, content)
}
