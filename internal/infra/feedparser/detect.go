package feedparser

import (
	"bytes"
	"strings"
)

// Detect classifies a fetched document by content-type hint and body
// sniffing, per spec.md §4.2's format-detection table. ActivityPub documents
// are detected and explicitly rejected (spec.md Non-goals).
func Detect(contentType string, body []byte) Type {
	ct := strings.ToLower(contentType)
	trimmed := bytes.TrimSpace(body)

	switch {
	case strings.Contains(ct, "application/json") || looksLikeJSON(trimmed):
		if bytes.Contains(trimmed, []byte(`"version"`)) && bytes.Contains(trimmed, []byte("jsonfeed.org")) {
			return TypeJSONFeed
		}
		if isActivityPubJSON(trimmed) {
			return TypeActivityPub
		}
		if bytes.Contains(trimmed, []byte(`"items"`)) {
			return TypeJSONFeed
		}
		return TypeUnknown

	case bytes.Contains(trimmed, []byte("<feed")):
		return TypeAtom

	case bytes.Contains(trimmed, []byte("<rss")) || bytes.Contains(trimmed, []byte("<rdf:RDF")):
		return TypeRSS

	case strings.Contains(ct, "text/html") || bytes.Contains(bytes.ToLower(trimmed), []byte("<html")):
		if bytes.Contains(trimmed, []byte("h-feed")) {
			return TypeHFeed
		}
		return TypeUnknown

	default:
		return TypeUnknown
	}
}

func looksLikeJSON(b []byte) bool {
	return len(b) > 0 && (b[0] == '{' || b[0] == '[')
}

// isActivityPubJSON sniffs for an ActivityStreams/ActivityPub context,
// which the Parser rejects rather than normalizes (spec.md Non-goals:
// ActivityPub is detected, never ingested).
func isActivityPubJSON(b []byte) bool {
	return bytes.Contains(b, []byte("www.w3.org/ns/activitystreams"))
}
