package channel

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"microsubd/internal/domain/entity"
	"microsubd/internal/repository"
)

// uidLength is within entity.Channel.Validate's 8-24 alphanumeric bound.
const uidLength = 16

func newUID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:uidLength]
}

// Service provides C5 Channel/Filter Store use cases.
type Service struct {
	Channels repository.ChannelRepository
	Mutes    repository.MuteBlockRepository
	Items    repository.ItemRepository
}

// ListChannels returns owner's channels, notifications-first by Order.
func (s *Service) ListChannels(ctx context.Context, owner string) ([]*entity.Channel, error) {
	channels, err := s.Channels.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	return channels, nil
}

// CreateChannel creates a new named channel for owner, assigning it a fresh
// external UID.
func (s *Service) CreateChannel(ctx context.Context, owner, name string) (*entity.Channel, error) {
	c := &entity.Channel{
		UID:   newUID(),
		Owner: owner,
		Name:  name,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	if err := s.Channels.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create channel: %w", err)
	}
	return c, nil
}

// EnsureNotificationsChannel returns owner's pinned notifications channel,
// creating it on first use (spec.md §3: "created on demand").
func (s *Service) EnsureNotificationsChannel(ctx context.Context, owner string) (*entity.Channel, error) {
	existing, err := s.Channels.GetByUID(ctx, owner, entity.NotificationsUID)
	if err != nil {
		return nil, fmt.Errorf("get notifications channel: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	c := &entity.Channel{
		UID:   entity.NotificationsUID,
		Owner: owner,
		Name:  "Notifications",
		Order: -1,
	}
	if err := s.Channels.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create notifications channel: %w", err)
	}
	return c, nil
}

// UpdateChannel renames channelID. Empty name leaves it unchanged.
func (s *Service) UpdateChannel(ctx context.Context, owner string, channelID int64, name string) (*entity.Channel, error) {
	if channelID <= 0 {
		return nil, ErrInvalidChannelID
	}

	c, err := s.Channels.Get(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("get channel: %w", err)
	}
	if c == nil || c.Owner != owner {
		return nil, ErrChannelNotFound
	}

	if name != "" {
		c.Name = name
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	if err := s.Channels.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update channel: %w", err)
	}
	return c, nil
}

// SetFilter replaces channelID's filter settings.
func (s *Service) SetFilter(ctx context.Context, owner string, channelID int64, filter entity.FilterSettings) error {
	if channelID <= 0 {
		return ErrInvalidChannelID
	}

	c, err := s.Channels.Get(ctx, channelID)
	if err != nil {
		return fmt.Errorf("get channel: %w", err)
	}
	if c == nil || c.Owner != owner {
		return ErrChannelNotFound
	}

	if filter.ExcludeRegex != "" {
		if _, err := regexp.Compile(filter.ExcludeRegex); err != nil {
			return &entity.ValidationError{Field: "excludeRegex", Message: "not a valid regular expression"}
		}
	}

	c.Filter = filter
	if err := s.Channels.Update(ctx, c); err != nil {
		return fmt.Errorf("update channel filter: %w", err)
	}
	return nil
}

// DeleteChannel removes channelID and, per spec.md §3, cascades to its feeds
// and items at the persistence layer. The pinned notifications channel can
// never be deleted.
func (s *Service) DeleteChannel(ctx context.Context, owner string, channelID int64) error {
	if channelID <= 0 {
		return ErrInvalidChannelID
	}

	c, err := s.Channels.Get(ctx, channelID)
	if err != nil {
		return fmt.Errorf("get channel: %w", err)
	}
	if c == nil || c.Owner != owner {
		return ErrChannelNotFound
	}
	if c.IsNotifications() {
		return ErrCannotDeleteNotifications
	}

	if err := s.Channels.Delete(ctx, channelID); err != nil {
		return fmt.Errorf("delete channel: %w", err)
	}
	return nil
}

// OrderChannels persists a full reordering of owner's channels, keyed by
// external UID (spec.md §6's "method=order").
func (s *Service) OrderChannels(ctx context.Context, owner string, order map[string]int) error {
	if len(order) == 0 {
		return entity.ErrInvalidInput
	}
	if err := s.Channels.Reorder(ctx, owner, order); err != nil {
		return fmt.Errorf("reorder channels: %w", err)
	}
	return nil
}

// Mute suppresses items sourced from url for owner, optionally scoped to one
// channel (empty channelUID means global).
func (s *Service) Mute(ctx context.Context, owner, channelUID, url string) error {
	if err := entity.ValidateURL(url); err != nil {
		return fmt.Errorf("validate mute url: %w", err)
	}
	if err := s.Mutes.CreateMute(ctx, &entity.Mute{Owner: owner, ChannelUID: channelUID, URL: url}); err != nil {
		return fmt.Errorf("create mute: %w", err)
	}
	return nil
}

// Unmute reverses Mute.
func (s *Service) Unmute(ctx context.Context, owner, channelUID, url string) error {
	if err := s.Mutes.DeleteMute(ctx, owner, channelUID, url); err != nil {
		return fmt.Errorf("delete mute: %w", err)
	}
	return nil
}

// ListMutes returns owner's full mute list.
func (s *Service) ListMutes(ctx context.Context, owner string) ([]*entity.Mute, error) {
	mutes, err := s.Mutes.ListMutes(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list mutes: %w", err)
	}
	return mutes, nil
}

// Block suppresses authorURL globally for owner, cascading a delete of that
// author's items across every channel at the persistence layer.
func (s *Service) Block(ctx context.Context, owner, authorURL string) error {
	if err := entity.ValidateURL(authorURL); err != nil {
		return fmt.Errorf("validate block url: %w", err)
	}
	if err := s.Mutes.CreateBlock(ctx, &entity.Block{Owner: owner, AuthorURL: authorURL}); err != nil {
		return fmt.Errorf("create block: %w", err)
	}
	if _, err := s.Items.DeleteByAuthorURL(ctx, owner, authorURL); err != nil {
		return fmt.Errorf("delete blocked author's items: %w", err)
	}
	return nil
}

// Unblock reverses Block.
func (s *Service) Unblock(ctx context.Context, owner, authorURL string) error {
	if err := s.Mutes.DeleteBlock(ctx, owner, authorURL); err != nil {
		return fmt.Errorf("delete block: %w", err)
	}
	return nil
}

// ListBlocks returns owner's full block list.
func (s *Service) ListBlocks(ctx context.Context, owner string) ([]*entity.Block, error) {
	blocks, err := s.Mutes.ListBlocks(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	return blocks, nil
}
