package feedparser

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// ParseRSS parses an RSS or Atom document, grounded on the teacher's
// scraper.RSSFetcher.doFetch gofeed usage, generalized from a network fetch
// into a pure in-memory parse so the Processor can call it after the
// Fetcher's own conditional-GET/retry/circuit-breaker fetch.
func ParseRSS(body []byte) (FeedMeta, []NormalizedItem, error) {
	fp := gofeed.NewParser()
	feed, err := fp.Parse(bytes.NewReader(body))
	if err != nil {
		return FeedMeta{}, nil, fmt.Errorf("feedparser: parse rss/atom: %w", err)
	}

	meta := FeedMeta{Title: feed.Title}
	if feed.Image != nil {
		meta.Photo = feed.Image.URL
	}
	meta.HubURL, meta.SelfURL = scanHubLinks(body)

	items := make([]NormalizedItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		items = append(items, normalizeRSSItem(it))
	}
	return meta, items, nil
}

func normalizeRSSItem(it *gofeed.Item) NormalizedItem {
	published := time.Now().UTC()
	if it.PublishedParsed != nil {
		published = it.PublishedParsed.UTC()
	} else if it.UpdatedParsed != nil {
		published = it.UpdatedParsed.UTC()
	}

	var updated *time.Time
	if it.UpdatedParsed != nil {
		u := it.UpdatedParsed.UTC()
		updated = &u
	}

	contentHTML := it.Content
	if contentHTML == "" {
		contentHTML = it.Description
	}
	sanitized := SanitizeHTML(contentHTML)

	summary := it.Description
	if summary == "" {
		summary = PlainText(sanitized)
		if len(summary) > 400 {
			summary = summary[:400]
		}
	}

	ni := NormalizedItem{
		URL:        it.Link,
		Name:       it.Title,
		Summary:    strings.TrimSpace(summary),
		ContentTxt: PlainText(sanitized),
		ContentHTM: sanitized,
		Published:  published,
		Updated:    updated,
		Category:   it.Categories,
	}

	if it.Author != nil {
		ni.AuthorName = it.Author.Name
	} else if len(it.Authors) > 0 {
		ni.AuthorName = it.Authors[0].Name
	}

	for _, enc := range it.Enclosures {
		switch {
		case strings.HasPrefix(enc.Type, "image/"):
			ni.Photo = append(ni.Photo, enc.URL)
		case strings.HasPrefix(enc.Type, "video/"):
			ni.Video = append(ni.Video, enc.URL)
		case strings.HasPrefix(enc.Type, "audio/"):
			ni.Audio = append(ni.Audio, enc.URL)
		}
	}

	return ni
}
