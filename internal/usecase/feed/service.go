package feed

import (
	"context"
	"fmt"
	"time"

	"microsubd/internal/domain/entity"
	"microsubd/internal/repository"
)

// initialTier is the tier a newly-followed feed starts at: interval =
// 2^0 minutes, so it is fetched promptly while its cadence is unknown.
const initialTier = 0

// Service provides C4 Feed Store use cases.
type Service struct {
	Feeds repository.FeedRepository
}

// Follow subscribes channelID to url, grounded on source.Service.Create's
// validate-then-create shape. Returns ErrAlreadyFollowing if the pair
// already exists (spec.md's follow is not idempotent creation).
func (s *Service) Follow(ctx context.Context, channelID int64, url string) (*entity.Feed, error) {
	if channelID <= 0 {
		return nil, entity.ErrInvalidInput
	}
	if err := entity.ValidateURL(url); err != nil {
		return nil, fmt.Errorf("validate feed url: %w", err)
	}

	existing, err := s.Feeds.GetByChannelAndURL(ctx, channelID, url)
	if err != nil {
		return nil, fmt.Errorf("check existing feed: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyFollowing
	}

	f := &entity.Feed{
		ChannelID:   channelID,
		URL:         url,
		Tier:        initialTier,
		NextFetchAt: time.Now(),
		Status:      entity.FeedStatusActive,
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}

	if err := s.Feeds.Create(ctx, f); err != nil {
		return nil, fmt.Errorf("create feed: %w", err)
	}
	return f, nil
}

// Unfollow removes a channel's subscription to feedID.
func (s *Service) Unfollow(ctx context.Context, channelID, feedID int64) error {
	if feedID <= 0 {
		return ErrInvalidFeedID
	}

	f, err := s.Feeds.Get(ctx, feedID)
	if err != nil {
		return fmt.Errorf("get feed: %w", err)
	}
	if f == nil || f.ChannelID != channelID {
		return ErrFeedNotFound
	}

	if err := s.Feeds.Delete(ctx, feedID); err != nil {
		return fmt.Errorf("delete feed: %w", err)
	}
	return nil
}

// UnfollowByURL resolves url to its feed within channelID and unfollows it,
// for callers (the Microsub `unfollow` action) that only have the feed's
// URL rather than its internal id.
func (s *Service) UnfollowByURL(ctx context.Context, channelID int64, url string) error {
	f, err := s.Feeds.GetByChannelAndURL(ctx, channelID, url)
	if err != nil {
		return fmt.Errorf("get feed by url: %w", err)
	}
	if f == nil {
		return ErrFeedNotFound
	}
	return s.Unfollow(ctx, channelID, f.ID)
}

// ListByChannel returns every feed a channel follows.
func (s *Service) ListByChannel(ctx context.Context, channelID int64) ([]*entity.Feed, error) {
	feeds, err := s.Feeds.ListByChannel(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("list feeds: %w", err)
	}
	return feeds, nil
}

// GetFeedsToFetch returns the batch of feeds due for polling, the tier
// scheduler's read path (spec.md §4.4).
func (s *Service) GetFeedsToFetch(ctx context.Context, now time.Time, limit int) ([]*entity.Feed, error) {
	if limit <= 0 {
		limit = 1
	}
	feeds, err := s.Feeds.GetFeedsToFetch(ctx, now, limit)
	if err != nil {
		return nil, fmt.Errorf("get feeds to fetch: %w", err)
	}
	return feeds, nil
}

// RefreshNow forces feedID to the front of the fetch queue by setting its
// NextFetchAt to now, without altering its tier.
func (s *Service) RefreshNow(ctx context.Context, feedID int64) error {
	if feedID <= 0 {
		return ErrInvalidFeedID
	}

	f, err := s.Feeds.Get(ctx, feedID)
	if err != nil {
		return fmt.Errorf("get feed: %w", err)
	}
	if f == nil {
		return ErrFeedNotFound
	}

	f.NextFetchAt = time.Now()
	if err := s.Feeds.Update(ctx, f); err != nil {
		return fmt.Errorf("update feed: %w", err)
	}
	return nil
}
