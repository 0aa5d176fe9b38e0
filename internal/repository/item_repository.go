package repository

import (
	"context"
	"time"

	"microsubd/internal/domain/entity"
)

// Cursor encodes a timeline pagination position as (published, id), per
// spec.md §4.3 / §9: opaque to clients, base64url(json{t, i}).
type Cursor struct {
	Published time.Time
	ID        int64
}

// TimelineQuery is the input to GetTimeline.
type TimelineQuery struct {
	ChannelID int64
	Owner     string
	Before    *Cursor // strictly newer than this cursor
	After     *Cursor // strictly older than this cursor
	Limit     int     // default 20, max 100
	ShowRead  bool
}

// TimelinePage is the result of a timeline query: items newest-first, plus
// cursors for the adjacent pages when one exists.
type TimelinePage struct {
	Items       []*entity.Item
	NextBefore  *Cursor // cursor to fetch the page of items newer than this page
	NextAfter   *Cursor // cursor to fetch the page of items older than this page
}

// ItemRepository is the C3 Item Store persistence boundary: idempotent
// insert/dedup, read-state, cursor pagination, retention/cleanup.
type ItemRepository interface {
	// AddItem inserts item unless (channelID, uid) already exists (including
	// as a stripped skeleton), in which case it is a silent duplicate no-op.
	// Returns true if a new record was created.
	AddItem(ctx context.Context, item *entity.Item) (created bool, err error)

	GetTimeline(ctx context.Context, q TimelineQuery) (*TimelinePage, error)

	// MarkRead/MarkUnread match entries by internal id, uid, or url; the
	// sentinel entry "last-read-entry" matches every item in the channel.
	MarkRead(ctx context.Context, channelID int64, entries []string, owner string) (updated int, err error)
	MarkUnread(ctx context.Context, channelID int64, entries []string, owner string) (updated int, err error)

	// RemoveEntries hard-deletes items matched by internal id, uid, or url
	// from channelID, for the timeline method=remove action (spec.md §6).
	RemoveEntries(ctx context.Context, channelID int64, entries []string) (removed int, err error)

	// Cleanup enforces the retention state machine for one (channel, owner):
	// keeps the newest MAX_FULL_READ_ITEMS read items fully; strips older
	// feed-sourced read items, hard-deletes older push-only read items.
	// Never touches unread items.
	Cleanup(ctx context.Context, channelID int64, owner string, maxFullRead int) error

	// CleanupAll runs Cleanup for every (channel, owner) pair found in the
	// data; invoked once on startup.
	CleanupAll(ctx context.Context, maxFullRead int) error

	// UnreadCount counts items with published within retentionDays and
	// Stripped == false.
	UnreadCount(ctx context.Context, channelID int64, owner string, retentionDays int) (int64, error)

	// DeleteByAuthorURL cascade-deletes items in owner's channels where
	// Item.Author.URL == authorURL (block propagation).
	DeleteByAuthorURL(ctx context.Context, owner, authorURL string) (deleted int64, err error)

	// DeleteByChannel deletes all items belonging to a channel (channel
	// deletion cascade).
	DeleteByChannel(ctx context.Context, channelID int64) error

	// DeleteByFeed deletes all items belonging to a feed (feed deletion
	// cascade).
	DeleteByFeed(ctx context.Context, feedID int64) error

	// UpsertNotification upserts a notification item keyed by (source,
	// target) in the owner's notifications channel: updates if present,
	// inserts otherwise. Used by the webmention verifier.
	UpsertNotification(ctx context.Context, channelID int64, item *entity.Item, sourceURL, targetURL string) error

	// DeleteNotification removes a notification keyed by (source, target),
	// used when a re-verify finds the source no longer references the
	// target.
	DeleteNotification(ctx context.Context, channelID int64, sourceURL, targetURL string) error
}
