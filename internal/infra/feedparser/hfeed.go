package feedparser

import (
	"bytes"
	"net/url"
	"strings"
	"time"

	"willnorris.com/go/microformats"
)

// ParseHFeed parses an h-feed microformats2 document (or a bare page of
// h-entry/h-as-note items, per spec.md §4.2's IndieWeb fallback: a page
// without an h-feed wrapper but containing h-entry children is still a
// feed of one).
func ParseHFeed(body []byte, pageURL string) (FeedMeta, []NormalizedItem) {
	base, _ := url.Parse(pageURL)
	data := microformats.Parse(bytes.NewReader(body), base)

	meta := FeedMeta{}
	entries := collectEntries(data.Items)

	for _, mf := range data.Items {
		if hasType(mf, "h-feed") {
			meta.Title = firstString(mf.Properties["name"])
			meta.Photo = firstURL(mf.Properties["photo"])
		}
	}

	items := make([]NormalizedItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, normalizeHEntry(e))
	}
	return meta, items
}

func collectEntries(items []*microformats.Microformat) []*microformats.Microformat {
	var out []*microformats.Microformat
	for _, mf := range items {
		if hasType(mf, "h-entry") || hasType(mf, "h-as-note") || hasType(mf, "h-as-article") {
			out = append(out, mf)
			continue
		}
		if hasType(mf, "h-feed") {
			out = append(out, collectEntries(mf.Children)...)
			continue
		}
		out = append(out, collectEntries(mf.Children)...)
	}
	return out
}

func hasType(mf *microformats.Microformat, t string) bool {
	for _, ty := range mf.Type {
		if ty == t {
			return true
		}
	}
	return false
}

func normalizeHEntry(mf *microformats.Microformat) NormalizedItem {
	ni := NormalizedItem{
		URL:       firstURL(mf.Properties["url"]),
		Name:      firstString(mf.Properties["name"]),
		Summary:   firstString(mf.Properties["summary"]),
		Category:  stringSlice(mf.Properties["category"]),
		LikeOf:    urlSlice(mf.Properties["like-of"]),
		RepostOf:  urlSlice(mf.Properties["repost-of"]),
		BookmarkOf: urlSlice(mf.Properties["bookmark-of"]),
		InReplyTo: urlSlice(mf.Properties["in-reply-to"]),
		Photo:     urlSlice(mf.Properties["photo"]),
		Video:     urlSlice(mf.Properties["video"]),
		Audio:     urlSlice(mf.Properties["audio"]),
	}

	if contentHTML, contentTxt := embeddedValue(mf.Properties["content"]); contentHTML != "" || contentTxt != "" {
		if contentHTML != "" {
			sanitized := SanitizeHTML(contentHTML)
			ni.ContentHTM = sanitized
			ni.ContentTxt = PlainText(sanitized)
		} else {
			ni.ContentTxt = contentTxt
		}
	}
	if ni.ContentTxt == "" {
		ni.ContentTxt = ni.Summary
	}

	ni.Published = parseDTProperty(mf.Properties["published"])
	if ni.Published.IsZero() {
		ni.Published = time.Now().UTC()
	}
	if u := parseDTProperty(mf.Properties["updated"]); !u.IsZero() {
		ni.Updated = &u
	}

	if authors := mf.Properties["author"]; len(authors) > 0 {
		if card, ok := authors[0].(*microformats.Microformat); ok {
			ni.AuthorName = firstString(card.Properties["name"])
			ni.AuthorURL = firstURL(card.Properties["url"])
			ni.AuthorPhoto = firstURL(card.Properties["photo"])
		} else {
			ni.AuthorName = firstString(authors)
		}
	}

	return ni
}

func firstString(vals []interface{}) string {
	if len(vals) == 0 {
		return ""
	}
	if s, ok := vals[0].(string); ok {
		return s
	}
	if mf, ok := vals[0].(*microformats.Microformat); ok {
		return mf.Value
	}
	return ""
}

func firstURL(vals []interface{}) string {
	return firstString(vals)
}

func stringSlice(vals []interface{}) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func urlSlice(vals []interface{}) []string {
	return stringSlice(vals)
}

// embeddedValue unwraps an e-* property's {"html": ..., "value": ...} shape.
func embeddedValue(vals []interface{}) (html, text string) {
	if len(vals) == 0 {
		return "", ""
	}
	switch v := vals[0].(type) {
	case string:
		return "", strings.TrimSpace(v)
	case map[string]string:
		return v["html"], v["value"]
	case map[string]interface{}:
		h, _ := v["html"].(string)
		val, _ := v["value"].(string)
		return h, val
	}
	return "", ""
}

func parseDTProperty(vals []interface{}) time.Time {
	s := firstString(vals)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
