package entity

import (
	"fmt"
	"time"
)

// WebSub holds a feed's push-subscription state with a publisher's hub.
type WebSub struct {
	Hub          string
	Topic        string
	Secret       string
	LeaseSeconds int
	ExpiresAt    *time.Time
	Pending      bool
}

// Feed is a subscription record tying a Channel to an external feed URL and
// its polling state. Uniqueness invariant: (ChannelID, URL) is unique.
type Feed struct {
	ID        int64
	ChannelID int64
	URL       string

	Title string
	Photo string

	Tier       int // 0..10, governs interval = 2^tier minutes
	Unmodified int // consecutive no-new-item fetches

	NextFetchAt   time.Time
	LastFetchedAt *time.Time

	ETag         string
	LastModified string

	Status           string // active, error
	LastError        string
	LastErrorAt      *time.Time
	ConsecutiveErrors int

	ItemCount int64

	WebSub *WebSub

	CreatedAt time.Time
}

const (
	FeedStatusActive = "active"
	FeedStatusError  = "error"
)

// Validate checks the feed's required fields, grounded on the teacher's
// Source.Validate() pattern of defaulting then checking.
func (f *Feed) Validate() error {
	if f.URL == "" {
		return &ValidationError{Field: "url", Message: "feed url is required"}
	}
	if f.Tier < 0 || f.Tier > 10 {
		return fmt.Errorf("invalid tier: %d (must be 0..10)", f.Tier)
	}
	if f.Status == "" {
		f.Status = FeedStatusActive
	}
	if f.Status != FeedStatusActive && f.Status != FeedStatusError {
		return fmt.Errorf("invalid status: %s", f.Status)
	}
	return nil
}
