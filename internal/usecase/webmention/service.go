package webmention

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"microsubd/internal/domain/entity"
	"microsubd/internal/infra/feedparser"
	"microsubd/internal/repository"
)

// SourceFetch is the result of fetching a webmention source page.
type SourceFetch struct {
	Body        []byte
	ContentType string
}

// Fetcher retrieves a webmention source page for verification.
type Fetcher interface {
	Fetch(ctx context.Context, sourceURL string) (*SourceFetch, error)
}

// NotificationsChannelEnsurer returns owner's pinned notifications channel,
// creating it on first use. Implemented by internal/usecase/channel.Service
// (spec.md §3: "created on demand").
type NotificationsChannelEnsurer interface {
	EnsureNotificationsChannel(ctx context.Context, owner string) (*entity.Channel, error)
}

// Service implements the C9 Webmention Receiver + Verifier.
type Service struct {
	Ensurer NotificationsChannelEnsurer
	Mutes   repository.MuteBlockRepository
	Items   repository.ItemRepository
	Fetcher Fetcher
	Logger  *slog.Logger
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Receive validates an inbound webmention's source and target. The caller
// responds 202 on success and hands off to Verify asynchronously (spec.md
// §4.8) — Receive itself does no I/O.
func (s *Service) Receive(source, target string) error {
	if err := entity.ValidateURL(source); err != nil {
		return err
	}
	if err := entity.ValidateURL(target); err != nil {
		return err
	}
	return nil
}

// Verify fetches source, confirms it still references target, classifies
// the mention, and persists it as a notification for owner. Verification
// failures are never surfaced beyond the original 202 (spec.md §7): on any
// failure the entry is simply removed or left unpersisted.
func (s *Service) Verify(ctx context.Context, owner, source, target string) error {
	ch, err := s.resolveNotificationsChannel(ctx, owner)
	if err != nil {
		return err
	}

	res, err := s.Fetcher.Fetch(ctx, source)
	if err != nil {
		s.logger().Info("webmention: source fetch failed, dropping",
			slog.String("source", source), slog.String("target", target), slog.Any("error", err))
		return s.Items.DeleteNotification(ctx, ch.ID, source, target)
	}

	if !referencesTarget(res.Body, target) {
		return s.Items.DeleteNotification(ctx, ch.ID, source, target)
	}

	blocked, err := s.Mutes.IsBlocked(ctx, owner, source)
	if err != nil {
		return fmt.Errorf("check blocked author: %w", err)
	}
	if blocked {
		return nil
	}

	mention, found := feedparser.FindMention(res.Body, source, target)
	if !found {
		return s.Items.DeleteNotification(ctx, ch.ID, source, target)
	}

	item := buildNotificationItem(ch.ID, source, target, mention)
	if err := s.Items.UpsertNotification(ctx, ch.ID, item, source, target); err != nil {
		return fmt.Errorf("upsert notification: %w", err)
	}
	return nil
}

func (s *Service) resolveNotificationsChannel(ctx context.Context, owner string) (*entity.Channel, error) {
	ch, err := s.Ensurer.EnsureNotificationsChannel(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("ensure notifications channel: %w", err)
	}
	return ch, nil
}

// referencesTarget reports whether body contains a plain href to target,
// ignoring a trailing slash on either side (spec.md §4.8).
func referencesTarget(body []byte, target string) bool {
	trimmed := strings.TrimSuffix(target, "/")
	return bytes.Contains(body, []byte(`href="`+trimmed+`"`)) ||
		bytes.Contains(body, []byte(`href="`+trimmed+`/"`))
}

func buildNotificationItem(channelID int64, source, target string, m feedparser.Mention) *entity.Item {
	ni := m.Item
	return &entity.Item{
		ChannelID:  channelID,
		UID:        feedparser.UID(target, source),
		URL:        ni.URL,
		Type:       m.Type,
		Name:       ni.Name,
		Summary:    ni.Summary,
		Content:    entity.Content{Text: ni.ContentTxt, HTML: ni.ContentHTM},
		Published:  ni.Published,
		Updated:    ni.Updated,
		Author:     entity.Author{Name: ni.AuthorName, URL: ni.AuthorURL, Photo: ni.AuthorPhoto},
		Category:   ni.Category,
		Photo:      ni.Photo,
		LikeOf:     ni.LikeOf,
		RepostOf:   ni.RepostOf,
		BookmarkOf: ni.BookmarkOf,
		InReplyTo:  ni.InReplyTo,
		Src:        entity.Source{URL: source},
		CreatedAt:  time.Now(),
	}
}
