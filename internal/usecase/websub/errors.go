// Package websub provides the C8 WebSub Subscriber + Callback: outbound
// subscribe requests, inbound verify/receive callback handling, and lease
// renewal. New package; subscribe uses internal/resilience/{retry,
// circuitbreaker} exactly as the Fetcher (C1) does.
package websub

import "errors"

var (
	// ErrFeedNotFound is returned when a callback references an unknown feed.
	ErrFeedNotFound = errors.New("websub: feed not found")
	// ErrTopicMismatch is returned when a verify callback's hub.topic does
	// not match the feed's url or recorded websub.topic.
	ErrTopicMismatch = errors.New("websub: topic mismatch")
	// ErrSignatureMismatch is returned when an inbound push's HMAC signature
	// does not match the feed's recorded secret.
	ErrSignatureMismatch = errors.New("websub: signature mismatch")
	// ErrHubRejected is returned when a hub's subscribe response is neither
	// 202 nor 204.
	ErrHubRejected = errors.New("websub: hub rejected subscription request")
)
