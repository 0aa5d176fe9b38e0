package feedparser

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// sanitizePolicy is the HTML allow-list applied to every item's content
// before storage (spec.md §4.2, §9 "sanitizer trust boundary"): feed and
// webmention-source HTML is always untrusted, regardless of source
// reputation.
var sanitizePolicy = newSanitizePolicy()

func newSanitizePolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("span", "div", "code", "pre")
	p.AllowAttrs("target").OnElements("a")
	p.AllowAttrs("loading").OnElements("img")
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// SanitizeHTML strips disallowed tags/attributes from untrusted item HTML.
func SanitizeHTML(html string) string {
	return sanitizePolicy.Sanitize(html)
}

// PlainText derives a plain-text rendering of sanitized HTML for the
// Content.Text field, by stripping all remaining tags.
func PlainText(html string) string {
	stripped := bluemonday.StrictPolicy().Sanitize(html)
	return strings.TrimSpace(stripped)
}
