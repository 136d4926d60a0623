// internal/content/article.go
//
// Article record assembly: front matter + converted HTML → one flat
// Record with normalized fields, the shape the query evaluator and the
// listing templates consume.
package content

import (
	"fmt"
	"html/template"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"
)

// SiteMeta carries the site-wide values article formatting needs.
type SiteMeta struct {
	URLOrigin string // e.g. "https://example.com", empty disables links
	Timezone  string // IANA name for *_dt_local fields, empty disables
}

// FormatArticle builds the immutable Record for one article page.
//
// Datetime fields are coerced to time.Time here, once per build, so the
// evaluator can compare them directly.  published_datetime and
// modified_datetime must be full UTC datetimes; date accepts a date-only
// form too.  An unparseable value is an authoring error and fails the
// build naming the file.
func FormatArticle(p *Page, meta SiteMeta) (Record, error) {
	fm := p.FrontMatter
	if fm == nil {
		fm = map[string]any{}
	}

	urlPath := path.Join(p.URLSegment, p.Name)
	if !strings.HasPrefix(urlPath, "/") {
		urlPath = "/" + urlPath
	}
	link := ""
	if meta.URLOrigin != "" {
		link = strings.TrimRight(meta.URLOrigin, "/") + urlPath
	}

	rec := Record{
		"file_name":          p.Name,
		"directory":          p.URLSegment,
		"path":               urlPath,
		"title":              str(fm, "title"),
		"description":        str(fm, "description"),
		"summary":            str(fm, "summary"),
		"keywords":           seq(fm, "keywords"),
		"author":             str(fm, "author"),
		"category":           str(fm, "category"),
		"tags":               seq(fm, "tags"),
		"date":               fm["date"],
		"published_datetime": fm["published_datetime"],
		"published_dt_local": nil,
		"draft":              fm["draft"] != nil && Truthy(fm["draft"]),
		"image":              str(fm, "image"),
		"image_alt":          str(fm, "image_alt"),
		"content":            template.HTML(p.HTML),
		"modified_datetime":  fm["modified_datetime"],
		"modified_dt_local":  nil,
		"extra":              fm["extra"],
		"link":               link,
	}

	var loc *time.Location
	if meta.Timezone != "" {
		var err error
		loc, err = time.LoadLocation(meta.Timezone)
		if err != nil {
			return nil, fmt.Errorf("%s: timezone %q: %w", p.SrcPath, meta.Timezone, err)
		}
	}

	if s, ok := fm["published_datetime"].(string); ok && s != "" {
		t, err := time.Parse(LayoutDateTime, s)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid published_datetime %q, expected YYYY-MM-DDTHH:MM:SSZ", p.SrcPath, s)
		}
		rec["published_datetime"] = t
		if loc != nil {
			rec["published_dt_local"] = t.In(loc)
		}
	}
	if s, ok := fm["modified_datetime"].(string); ok && s != "" {
		t, err := time.Parse(LayoutDateTime, s)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid modified_datetime %q, expected YYYY-MM-DDTHH:MM:SSZ", p.SrcPath, s)
		}
		rec["modified_datetime"] = t
		if loc != nil {
			rec["modified_dt_local"] = t.In(loc)
		}
	}
	if s, ok := fm["date"].(string); ok && s != "" {
		t, ok := CoerceDate(s)
		if !ok {
			return nil, fmt.Errorf("%s: invalid date %q, expected YYYY-MM-DD or YYYY-MM-DDTHH:MM:SSZ", p.SrcPath, s)
		}
		rec["date"] = t
	}

	if rec["draft"] == true {
		zap.S().Debugw("article is a draft", "path", p.SrcPath)
	}
	return rec, nil
}

func str(fm map[string]any, key string) string {
	if s, ok := fm[key].(string); ok {
		return s
	}
	return ""
}

func seq(fm map[string]any, key string) []any {
	if s, ok := fm[key].([]any); ok {
		return s
	}
	return []any{}
}
