package entity

import "time"

// Content holds an item's body in both sanitized HTML and stripped-text form.
type Content struct {
	Text string
	HTML string
}

// Author is the attributed author of an Item, when one could be resolved.
type Author struct {
	Name  string
	URL   string
	Photo string
}

// Source records where an Item came from: its canonical page and, if it
// arrived via polling, the feed that produced it.
type Source struct {
	URL     string
	FeedURL string
}

// Item is a single normalized entry belonging to (Channel, Feed). It is the
// uniform representation every Parser variant (C2) converges on, and the
// unit the Item Store (C3) deduplicates, paginates, and retains.
//
// Uniqueness invariant: (ChannelID, UID) is unique. A "stripped" item is a
// dedup skeleton — ChannelID, FeedID, UID, and ReadBy survive; everything
// else is zeroed and Stripped is set true. Stripped items never appear in a
// timeline but still satisfy the uniqueness constraint, so the poller cannot
// re-ingest the same guid.
type Item struct {
	ID        int64
	ChannelID int64
	FeedID    *int64 // nil for push-only / notification-only items
	UID       string // hex24(SHA-256(feedUrl + "::" + sourceId))
	URL       string
	Type      string // entry, event, review, rsvp, checkin, ... (jf2 post-type)

	Name    string
	Summary string
	Content Content

	Published time.Time
	Updated   *time.Time

	Author Author

	Category []string
	Photo    []string
	Video    []string
	Audio    []string

	LikeOf      []string
	RepostOf    []string
	BookmarkOf  []string
	InReplyTo   []string

	Src Source

	ReadBy []string // owner ids that have marked this item read

	Stripped bool

	CreatedAt time.Time
}

// InteractionType computes the jf2 post-type from an item's interaction
// arrays, in the precedence order spec.md §4.8 defines for webmentions and
// §4.4 reuses for the type filter: like-of > repost-of > bookmark-of >
// in-reply-to > mention, falling back to rsvp/checkin/post.
func (i *Item) InteractionType() string {
	switch {
	case len(i.LikeOf) > 0:
		return "like"
	case len(i.RepostOf) > 0:
		return "repost"
	case len(i.BookmarkOf) > 0:
		return "bookmark"
	case len(i.InReplyTo) > 0:
		return "reply"
	case i.Type == "rsvp":
		return "rsvp"
	case i.Type == "checkin":
		return "checkin"
	default:
		return "post"
	}
}

// IsReadBy reports whether owner has marked this item read.
func (i *Item) IsReadBy(owner string) bool {
	for _, o := range i.ReadBy {
		if o == owner {
			return true
		}
	}
	return false
}

// Strip reduces the item to its dedup skeleton per spec.md §4.3: keeps
// ChannelID, FeedID, UID, ReadBy; clears everything else and sets Stripped.
func (i *Item) Strip() {
	i.URL = ""
	i.Type = ""
	i.Name = ""
	i.Summary = ""
	i.Content = Content{}
	i.Updated = nil
	i.Author = Author{}
	i.Category = nil
	i.Photo = nil
	i.Video = nil
	i.Audio = nil
	i.LikeOf = nil
	i.RepostOf = nil
	i.BookmarkOf = nil
	i.InReplyTo = nil
	i.Src = Source{}
	i.Stripped = true
}
