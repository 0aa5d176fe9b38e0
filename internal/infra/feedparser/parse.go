package feedparser

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ErrActivityPub is returned when Parse detects an ActivityPub document; the
// Processor treats this as a non-retryable per-feed error (spec.md
// Non-goals: ActivityPub is detected, never ingested).
var ErrActivityPub = fmt.Errorf("feedparser: activitypub documents are not ingested")

// ErrUnknownFormat is returned when the document format cannot be determined.
var ErrUnknownFormat = fmt.Errorf("feedparser: unrecognized feed format")

// Parse dispatches to the format-specific parser based on Detect's
// classification.
func Parse(contentType string, body []byte, pageURL string) (Type, FeedMeta, []NormalizedItem, error) {
	t := Detect(contentType, body)
	switch t {
	case TypeRSS, TypeAtom:
		meta, items, err := ParseRSS(body)
		return t, meta, items, err
	case TypeJSONFeed:
		meta, items, err := ParseJSONFeed(body)
		return t, meta, items, err
	case TypeHFeed:
		meta, items := ParseHFeed(body, pageURL)
		return t, meta, items, nil
	case TypeActivityPub:
		return t, FeedMeta{}, nil, ErrActivityPub
	default:
		return t, FeedMeta{}, nil, ErrUnknownFormat
	}
}

// UID computes the stable, content-addressed item identifier defined in
// spec.md §9: hex24(SHA-256(feedURL + "::" + sourceID)), where sourceID is
// the item's canonical URL (or its feed-native id, e.g. an Atom <id>, when
// the URL is absent or shared across entries).
func UID(feedURL, sourceID string) string {
	sum := sha256.Sum256([]byte(feedURL + "::" + sourceID))
	return hex.EncodeToString(sum[:])[:24]
}
