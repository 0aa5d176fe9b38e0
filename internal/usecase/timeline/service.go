// Package timeline provides the C3 Item Store use cases: timeline assembly,
// read-state transitions, unread counting, and retention cleanup. It is a
// thin wrap over repository.ItemRepository, grounded on
// internal/usecase/article/service.go's service-wraps-repository shape.
package timeline

import (
	"context"
	"fmt"

	"microsubd/internal/domain/entity"
	"microsubd/internal/repository"
)

const (
	defaultLimit = 20
	maxLimit     = 100

	// DefaultMaxFullReadItems is spec.md §4.3's MAX_FULL_READ_ITEMS.
	DefaultMaxFullReadItems = 200
	// DefaultUnreadRetentionDays is spec.md §4.3's unread-count window.
	DefaultUnreadRetentionDays = 30
)

// Service provides C3 Item Store use cases.
type Service struct {
	Items repository.ItemRepository
}

// GetTimeline returns a page of a channel's timeline, clamping Limit to
// [1, maxLimit] and defaulting it to defaultLimit when unset.
func (s *Service) GetTimeline(ctx context.Context, q repository.TimelineQuery) (*repository.TimelinePage, error) {
	if q.ChannelID <= 0 {
		return nil, entity.ErrInvalidInput
	}
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}

	page, err := s.Items.GetTimeline(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("get timeline: %w", err)
	}
	return page, nil
}

// MarkRead marks entries read for owner in channelID. entries of
// "last-read-entry" marks every item in the channel.
func (s *Service) MarkRead(ctx context.Context, channelID int64, entries []string, owner string) (int, error) {
	if channelID <= 0 || len(entries) == 0 {
		return 0, entity.ErrInvalidInput
	}
	updated, err := s.Items.MarkRead(ctx, channelID, entries, owner)
	if err != nil {
		return 0, fmt.Errorf("mark read: %w", err)
	}
	if err := s.Cleanup(ctx, channelID, owner); err != nil {
		return updated, fmt.Errorf("mark read: %w", err)
	}
	return updated, nil
}

// MarkUnread reverses MarkRead for the given entries.
func (s *Service) MarkUnread(ctx context.Context, channelID int64, entries []string, owner string) (int, error) {
	if channelID <= 0 || len(entries) == 0 {
		return 0, entity.ErrInvalidInput
	}
	updated, err := s.Items.MarkUnread(ctx, channelID, entries, owner)
	if err != nil {
		return 0, fmt.Errorf("mark unread: %w", err)
	}
	return updated, nil
}

// Remove hard-deletes entries from a channel's timeline (timeline
// method=remove, spec.md §6).
func (s *Service) Remove(ctx context.Context, channelID int64, entries []string) (int, error) {
	if channelID <= 0 || len(entries) == 0 {
		return 0, entity.ErrInvalidInput
	}
	removed, err := s.Items.RemoveEntries(ctx, channelID, entries)
	if err != nil {
		return 0, fmt.Errorf("remove entries: %w", err)
	}
	return removed, nil
}

// UnreadCount reports the number of unread, unstripped items within the
// retention window for a channel/owner.
func (s *Service) UnreadCount(ctx context.Context, channelID int64, owner string) (int64, error) {
	count, err := s.Items.UnreadCount(ctx, channelID, owner, DefaultUnreadRetentionDays)
	if err != nil {
		return 0, fmt.Errorf("unread count: %w", err)
	}
	return count, nil
}

// Cleanup enforces the retention state machine for one channel/owner pair:
// strips or deletes read items beyond MAX_FULL_READ_ITEMS, never touching
// unread items. Intended to run after every MarkRead and on a periodic
// sweep (spec.md §4.3).
func (s *Service) Cleanup(ctx context.Context, channelID int64, owner string) error {
	if err := s.Items.Cleanup(ctx, channelID, owner, DefaultMaxFullReadItems); err != nil {
		return fmt.Errorf("cleanup: %w", err)
	}
	return nil
}

// CleanupAll runs Cleanup over every (channel, owner) pair found in the
// data; invoked once on process startup to recover from any gap in the
// periodic sweep (spec.md §4.3).
func (s *Service) CleanupAll(ctx context.Context) error {
	if err := s.Items.CleanupAll(ctx, DefaultMaxFullReadItems); err != nil {
		return fmt.Errorf("cleanup all: %w", err)
	}
	return nil
}
