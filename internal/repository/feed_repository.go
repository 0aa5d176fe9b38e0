package repository

import (
	"context"
	"time"

	"microsubd/internal/domain/entity"
)

// FeedRepository is the C4 Feed Store persistence boundary: subscription
// CRUD, tier-scheduler queries, and fetch-result bookkeeping.
type FeedRepository interface {
	Get(ctx context.Context, id int64) (*entity.Feed, error)
	GetByChannelAndURL(ctx context.Context, channelID int64, url string) (*entity.Feed, error)
	ListByChannel(ctx context.Context, channelID int64) ([]*entity.Feed, error)

	// GetFeedsToFetch returns feeds with NextFetchAt <= now, ordered oldest
	// first, capped at limit. Used by the tier scheduler's tick.
	GetFeedsToFetch(ctx context.Context, now time.Time, limit int) ([]*entity.Feed, error)

	// GetFeedsWithExpiringLease returns WebSub-subscribed feeds whose
	// WebSub.ExpiresAt is within the given horizon of now (spec.md §4.7 lease
	// renewal).
	GetFeedsWithExpiringLease(ctx context.Context, now time.Time, horizon time.Duration) ([]*entity.Feed, error)

	Create(ctx context.Context, feed *entity.Feed) error
	Update(ctx context.Context, feed *entity.Feed) error
	Delete(ctx context.Context, id int64) error

	// UpdateAfterFetch persists the outcome of one C7 Processor run: tier,
	// NextFetchAt, conditional-GET validators, item count delta, and
	// error/status bookkeeping, in a single statement.
	UpdateAfterFetch(ctx context.Context, feed *entity.Feed) error

	// UpdateWebSub persists WebSub subscription state changes (subscribe
	// request sent, verified, lease renewed, unsubscribed).
	UpdateWebSub(ctx context.Context, feedID int64, ws *entity.WebSub) error

	// GetByWebSubTopic looks up the feed matching a push notification's topic
	// URL, used by the WebSub callback receiver.
	GetByWebSubTopic(ctx context.Context, topic string) (*entity.Feed, error)
}
