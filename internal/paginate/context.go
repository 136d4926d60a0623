// internal/paginate/context.go
//
// Per-page pagination state and the link markup templates see as
// .pagination.page_links.  Every page gets a freshly built map; nothing
// here is shared or mutated between pages.
package paginate

import (
	"fmt"
	"strings"
)

// Context is the pagination state for one generated page.
type Context struct {
	TotalItems   int
	CurrentPage  int
	PerPage      int
	TotalPages   int
	RootPagePath string // page-set root relative to the build dir, "" at site root
}

// Map renders the context as the render-argument mapping exposed to
// templates.  previous_page and next_page are nil at the edges;
// the *_url fields are always populated, the previous URL clamping to
// the canonical root page.  offset and end are this page's half-open
// window into the full result set, pre-clamped so
// {{ slice … .pagination.offset .pagination.end }} is always in range.
func (c Context) Map() map[string]any {
	offset := (c.CurrentPage - 1) * c.PerPage
	if offset > c.TotalItems {
		offset = c.TotalItems
	}
	end := offset + c.PerPage
	if end > c.TotalItems {
		end = c.TotalItems
	}
	m := map[string]any{
		"total_items":       c.TotalItems,
		"current_page":      c.CurrentPage,
		"per_page":          c.PerPage,
		"total_pages":       c.TotalPages,
		"offset":            offset,
		"end":               end,
		"has_previous":      c.CurrentPage > 1,
		"has_next":          c.CurrentPage < c.TotalPages,
		"previous_page":     nil,
		"next_page":         nil,
		"previous_page_url": pageURL(c.RootPagePath, c.CurrentPage-1),
		"next_page_url":     pageURL(c.RootPagePath, c.CurrentPage+1),
		"page_links":        LinkMarkup(c.RootPagePath, c.CurrentPage, c.TotalPages),
	}
	if c.CurrentPage > 1 {
		m["previous_page"] = c.CurrentPage - 1
	}
	if c.CurrentPage < c.TotalPages {
		m["next_page"] = c.CurrentPage + 1
	}
	return m
}

// DefaultMap is the pagination render argument for pages that do not
// paginate, so templates can always address .pagination fields.
func DefaultMap() map[string]any {
	return map[string]any{
		"total_items":       0,
		"current_page":      1,
		"per_page":          10,
		"total_pages":       0,
		"offset":            0,
		"end":               0,
		"has_previous":      false,
		"has_next":          false,
		"previous_page":     nil,
		"next_page":         nil,
		"previous_page_url": nil,
		"next_page_url":     nil,
		"page_links":        "",
	}
}

// pageURL builds the URL for page n of a page set.  Page 1 is the
// canonical root page — never /page/1/.
func pageURL(rootPath string, n int) string {
	base := "/"
	if trimmed := strings.Trim(rootPath, "/"); trimmed != "" && trimmed != "." {
		base = "/" + trimmed + "/"
	}
	if n <= 1 {
		return base
	}
	return fmt.Sprintf("%spage/%d/", base, n)
}

// LinkMarkup renders the numbered pagination nav for one page.  Empty
// when the set fits on a single page.
//
// Up to 10 pages every page gets a link.  Beyond that the list shows
// page 1, a window of current±2, and the last page, with one ellipsis
// per gap.
func LinkMarkup(rootPath string, current, total int) string {
	if total <= 1 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("<nav class='pagination'>\n<ul class='pagination-list'>\n")

	if current > 1 {
		fmt.Fprintf(&sb, "<li class='pagination-previous'><a href='%s'><span>Previous</span></a></li>\n",
			pageURL(rootPath, current-1))
	}

	writeNumberedLinks(&sb, rootPath, current, total)

	if current < total {
		fmt.Fprintf(&sb, "<li class='pagination-next'><a href='%s'><span>Next</span></a></li>\n",
			pageURL(rootPath, current+1))
	}

	sb.WriteString("</ul>\n</nav>\n")
	return sb.String()
}

func writeNumberedLinks(sb *strings.Builder, rootPath string, current, total int) {
	if total <= 10 {
		for i := 1; i <= total; i++ {
			writePageLink(sb, rootPath, i, current)
		}
		return
	}

	start := max(1, current-2)
	end := min(total, current+2)

	if start > 1 {
		writePageLink(sb, rootPath, 1, current)
		if start > 2 {
			sb.WriteString("<li class='pagination-ellipsis'>…</li>\n")
		}
	}
	for i := start; i <= end; i++ {
		writePageLink(sb, rootPath, i, current)
	}
	if end < total {
		if end < total-1 {
			sb.WriteString("<li class='pagination-ellipsis'>…</li>\n")
		}
		writePageLink(sb, rootPath, total, current)
	}
}

func writePageLink(sb *strings.Builder, rootPath string, n, current int) {
	if n == current {
		fmt.Fprintf(sb, "<li class='pagination-item active'>%d</li>\n", n)
		return
	}
	fmt.Fprintf(sb, "<li class='pagination-item'><a href='%s'>%d</a></li>\n", pageURL(rootPath, n), n)
}
