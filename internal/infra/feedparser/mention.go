package feedparser

import (
	"bytes"
	"net/url"
	"strings"

	"willnorris.com/go/microformats"
)

// Mention is a single h-entry matched against a webmention target, with its
// classified interaction type.
type Mention struct {
	Item NormalizedItem
	Type string // like, repost, bookmark, reply, mention
}

// FindMention parses source's HTML for microformats2 and locates the first
// h-entry (in document order) whose interaction arrays reference target,
// ignoring a trailing slash on either side. Mention type follows spec.md
// §4.8's precedence: like-of > repost-of > bookmark-of > in-reply-to >
// mention. When no entry's interaction arrays reference target but the page
// contains at least one h-entry, the first entry is used with type
// "mention" — the caller has already confirmed a plain-HTML backlink to
// target exists. Author falls back to a page-level h-card when the entry
// carries none.
func FindMention(body []byte, pageURL, target string) (Mention, bool) {
	base, _ := url.Parse(pageURL)
	data := microformats.Parse(bytes.NewReader(body), base)
	entries := collectEntries(data.Items)
	normalizedTarget := strings.TrimSuffix(target, "/")

	for _, mf := range entries {
		item := normalizeHEntry(mf)
		if mentionType, ok := classifyMention(item, normalizedTarget); ok {
			fillAuthorFallback(&item, data.Items)
			return Mention{Item: item, Type: mentionType}, true
		}
	}

	if len(entries) > 0 {
		item := normalizeHEntry(entries[0])
		fillAuthorFallback(&item, data.Items)
		return Mention{Item: item, Type: "mention"}, true
	}

	return Mention{}, false
}

func classifyMention(item NormalizedItem, target string) (string, bool) {
	switch {
	case containsURL(item.LikeOf, target):
		return "like", true
	case containsURL(item.RepostOf, target):
		return "repost", true
	case containsURL(item.BookmarkOf, target):
		return "bookmark", true
	case containsURL(item.InReplyTo, target):
		return "reply", true
	default:
		return "", false
	}
}

func containsURL(urls []string, target string) bool {
	for _, u := range urls {
		if strings.TrimSuffix(u, "/") == target {
			return true
		}
	}
	return false
}

func fillAuthorFallback(item *NormalizedItem, pageItems []*microformats.Microformat) {
	if item.AuthorName != "" || item.AuthorURL != "" {
		return
	}
	item.AuthorName, item.AuthorURL, item.AuthorPhoto = pageHCard(pageItems)
}

func pageHCard(items []*microformats.Microformat) (name, authorURL, photo string) {
	for _, mf := range items {
		if hasType(mf, "h-card") {
			return firstString(mf.Properties["name"]), firstURL(mf.Properties["url"]), firstURL(mf.Properties["photo"])
		}
	}
	return "", "", ""
}
