// Package feedparser detects and normalizes RSS, Atom, JSON Feed, and h-feed
// documents into the uniform entity.Item schema (spec.md §4.2 C2 Parser).
//
// Grounded on internal/infra/scraper/rss.go's gofeed wrapping, generalized
// from "scrape an article body" to "normalize a feed's worth of items", and
// extended with JSON Feed and microformats2 h-feed support the teacher never
// needed.
package feedparser

import "time"

// Type is a detected feed document format.
type Type string

const (
	TypeRSS         Type = "rss"
	TypeAtom        Type = "atom"
	TypeJSONFeed    Type = "jsonfeed"
	TypeHFeed       Type = "hfeed"
	TypeActivityPub Type = "activitypub"
	TypeUnknown     Type = "unknown"
)

// FeedMeta is feed-level metadata extracted alongside its items.
type FeedMeta struct {
	Title   string
	Photo   string
	HubURL  string
	SelfURL string
}

// NormalizedItem is a parser-stage item, pre-uid-assignment. The caller
// (C2 Normalizer / C7 Processor) assigns ChannelID, FeedID, and UID before
// handing it to the Item Store.
type NormalizedItem struct {
	URL        string
	Name       string
	Summary    string
	ContentTxt string
	ContentHTM string
	Published  time.Time
	Updated    *time.Time
	AuthorName string
	AuthorURL  string
	AuthorPhoto string
	Category   []string
	Photo      []string
	Video      []string
	Audio      []string
	LikeOf     []string
	RepostOf   []string
	BookmarkOf []string
	InReplyTo  []string
}
