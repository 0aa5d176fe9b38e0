// Package feed provides the C4 Feed Store use cases: following/unfollowing a
// feed URL within a channel, and the tier-scheduler's read path. Grounded on
// internal/usecase/source/service.go's service-wraps-repository shape.
package feed

import "errors"

var (
	// ErrFeedNotFound is returned when a feed lookup by ID/URL finds nothing.
	ErrFeedNotFound = errors.New("feed: not found")
	// ErrInvalidFeedID is returned for non-positive feed IDs.
	ErrInvalidFeedID = errors.New("feed: invalid id")
	// ErrAlreadyFollowing is returned when Follow targets a (channel, url)
	// pair that already has an active subscription.
	ErrAlreadyFollowing = errors.New("feed: already following")
)
