package entity

import (
	"fmt"
	"time"
)

// FilterSettings is a channel's per-channel filter configuration: items
// whose interaction kind is in ExcludeTypes, or whose text matches
// ExcludeRegex, are rejected at the Processor boundary (spec.md §4.4).
type FilterSettings struct {
	ExcludeTypes []string
	ExcludeRegex string
}

// NotificationsUID is the reserved external short id for the one channel per
// owner that receives webmention-derived notifications. Pinned at Order=-1,
// created on demand, never destroyed (spec.md §3).
const NotificationsUID = "notifications"

// Channel is a user-named grouping of feed subscriptions with an associated
// timeline and filter rules. Channel deletion cascades to its Feeds and
// Items.
type Channel struct {
	ID      int64
	UID     string // external short id, 8-24 alphanumeric chars, unique per owner
	Owner   string
	Name    string
	Order   int // signed; notifications channel pinned at -1
	Filter  FilterSettings

	CreatedAt time.Time
}

// Validate checks the channel's required fields.
func (c *Channel) Validate() error {
	if c.Name == "" {
		return &ValidationError{Field: "name", Message: "channel name is required"}
	}
	if len(c.Name) > 100 {
		return &ValidationError{Field: "name", Message: "channel name must not exceed 100 characters"}
	}
	if c.UID != "" && (len(c.UID) < 8 || len(c.UID) > 24) {
		return fmt.Errorf("invalid channel uid length: %d (must be 8-24)", len(c.UID))
	}
	return nil
}

// IsNotifications reports whether this is the pinned notifications channel.
func (c *Channel) IsNotifications() bool {
	return c.UID == NotificationsUID
}
