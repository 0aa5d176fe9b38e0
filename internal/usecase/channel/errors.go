// Package channel provides the C5 Channel/Filter Store use cases: channel
// CRUD and ordering, per-channel filter settings, and the owner's mute/block
// lists. Grounded on internal/usecase/source/service.go's service-wraps-
// repository shape.
package channel

import "errors"

var (
	// ErrChannelNotFound is returned when a channel lookup finds nothing.
	ErrChannelNotFound = errors.New("channel: not found")
	// ErrInvalidChannelID is returned for non-positive channel IDs.
	ErrInvalidChannelID = errors.New("channel: invalid id")
	// ErrCannotDeleteNotifications is returned when Delete targets the
	// pinned notifications channel (spec.md §3: "never destroyed").
	ErrCannotDeleteNotifications = errors.New("channel: the notifications channel cannot be deleted")
)
