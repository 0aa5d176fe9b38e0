package entity

import "time"

// Mute is an owner-scoped suppression of items sourced from a URL, optionally
// limited to one channel (empty ChannelUID means global). Uniqueness:
// (Owner, ChannelUID, URL).
type Mute struct {
	ID         int64
	Owner      string
	ChannelUID string // "" = global
	URL        string
	CreatedAt  time.Time
}

// Block is an owner-scoped, always-global suppression of an author. Blocking
// issues a cascade delete of items where Item.Author.URL == AuthorURL in all
// of the owner's channels (spec.md §4.3). Uniqueness: (Owner, AuthorURL).
type Block struct {
	ID        int64
	Owner     string
	AuthorURL string
	CreatedAt time.Time
}
