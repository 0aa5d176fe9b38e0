// Package process provides the C7 Processor: the pipeline gluing the
// Fetcher (C1) and Parser (C2) to the Filter check (C5), Item Store (C3),
// and Feed Store (C4) tier update, per spec.md §4.6. Grounded on
// internal/usecase/fetch/service.go's processSingleSource shape, rewritten
// for the six-step pipeline spec.md names instead of the teacher's
// fetch-summarize-store flow.
package process

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"microsubd/internal/domain/entity"
	"microsubd/internal/infra/feedparser"
	"microsubd/internal/repository"
	"microsubd/internal/usecase/channel"
	"microsubd/internal/usecase/event"
	"microsubd/internal/usecase/scheduler"
)

// FetchResult is the subset of infra/fetcher.Result the Processor consumes,
// kept as a local type so this package never imports infra/fetcher directly
// (the Fetcher interface below stands in for it; production wiring adapts
// *fetcher.Fetcher to satisfy it).
type FetchResult struct {
	Body         []byte
	ContentType  string
	ETag         string
	LastModified string
	NotModified  bool
	HubURL       string
	SelfURL      string
}

// Fetcher retrieves a feed document, conditional on previously-saved
// validators.
type Fetcher interface {
	Fetch(ctx context.Context, url, etag, lastModified string) (*FetchResult, error)
}

// ParseFunc parses a feed document into normalized items; satisfied by
// feedparser.Parse.
type ParseFunc func(contentType string, body []byte, pageURL string) (feedparser.Type, feedparser.FeedMeta, []feedparser.NormalizedItem, error)

// WebSubSubscriber initiates a WebSub subscription when the Processor
// discovers a new or changed hub URL (spec.md §4.6 step 6). Implemented by
// internal/usecase/websub.Service.
type WebSubSubscriber interface {
	Subscribe(ctx context.Context, feedID int64, hub, topic string) error
}

// Service provides the C7 Processor.
type Service struct {
	Feeds    repository.FeedRepository
	Items    repository.ItemRepository
	Channels repository.ChannelRepository
	Mutes    repository.MuteBlockRepository

	Fetcher Fetcher
	Parse   ParseFunc
	WebSub  WebSubSubscriber // optional; nil disables step 6
	Events  *event.Publisher // optional; nil disables notification

	Logger *slog.Logger
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// ProcessFeed runs the full six-step pipeline for one scheduled feed
// (spec.md §4.6).
func (s *Service) ProcessFeed(ctx context.Context, feedID int64) error {
	f, err := s.Feeds.Get(ctx, feedID)
	if err != nil {
		return err
	}
	if f == nil {
		return nil
	}

	// Step 1: fetch with saved validators.
	res, err := s.Fetcher.Fetch(ctx, f.URL, f.ETag, f.LastModified)
	if err != nil {
		s.logger().Warn("processor: fetch failed", slog.Int64("feed_id", f.ID), slog.Any("error", err))
		s.finishWithOutcome(ctx, f, 0, true, "")
		return nil
	}
	if res.NotModified {
		s.finishWithOutcome(ctx, f, 0, false, "")
		return nil
	}

	// Step 2: parse.
	_, meta, items, err := s.Parse(res.ContentType, res.Body, f.URL)
	if err != nil {
		s.logger().Warn("processor: parse failed", slog.Int64("feed_id", f.ID), slog.Any("error", err))
		f.LastError = err.Error()
		s.finishWithOutcome(ctx, f, 0, true, "")
		return nil
	}

	newItemCount, procErr := s.storeItems(ctx, f, items)
	if procErr != nil {
		return procErr
	}

	f.ETag = res.ETag
	f.LastModified = res.LastModified
	if f.Title == "" && meta.Title != "" {
		f.Title = meta.Title
	}
	if f.Photo == "" && meta.Photo != "" {
		f.Photo = meta.Photo
	}

	s.finishWithOutcome(ctx, f, newItemCount, false, "")

	// Step 6: hub discovery.
	if meta.HubURL != "" && (f.WebSub == nil || f.WebSub.Hub != meta.HubURL) && s.WebSub != nil {
		topic := meta.SelfURL
		if topic == "" {
			topic = f.URL
		}
		if err := s.WebSub.Subscribe(ctx, f.ID, meta.HubURL, topic); err != nil {
			s.logger().Warn("processor: websub subscribe failed", slog.Int64("feed_id", f.ID), slog.Any("error", err))
		}
	}

	return nil
}

// ProcessPushedContent runs steps 3-6 on content delivered directly by a
// WebSub hub callback (spec.md §4.7's "Receive" path). The push path never
// touches tier (spec.md §4.7).
func (s *Service) ProcessPushedContent(ctx context.Context, feedID int64, contentType string, body []byte) error {
	f, err := s.Feeds.Get(ctx, feedID)
	if err != nil {
		return err
	}
	if f == nil {
		return entity.ErrNotFound
	}

	_, meta, items, err := s.Parse(contentType, body, f.URL)
	if err != nil {
		s.logger().Warn("processor: push parse failed", slog.Int64("feed_id", f.ID), slog.Any("error", err))
		return nil
	}

	if _, err := s.storeItems(ctx, f, items); err != nil {
		return err
	}

	if f.Title == "" && meta.Title != "" {
		f.Title = meta.Title
	}
	if f.Photo == "" && meta.Photo != "" {
		f.Photo = meta.Photo
	}
	if err := s.Feeds.Update(ctx, f); err != nil {
		return err
	}

	if meta.HubURL != "" && (f.WebSub == nil || f.WebSub.Hub != meta.HubURL) && s.WebSub != nil {
		topic := meta.SelfURL
		if topic == "" {
			topic = f.URL
		}
		if err := s.WebSub.Subscribe(ctx, f.ID, meta.HubURL, topic); err != nil {
			s.logger().Warn("processor: websub subscribe failed", slog.Int64("feed_id", f.ID), slog.Any("error", err))
		}
	}

	return nil
}

// storeItems resolves the owning Channel and its filter settings (step 3),
// then filters and inserts each normalized item (step 4).
func (s *Service) storeItems(ctx context.Context, f *entity.Feed, items []feedparser.NormalizedItem) (int, error) {
	ch, err := s.Channels.Get(ctx, f.ChannelID)
	if err != nil {
		return 0, err
	}
	if ch == nil {
		return 0, errors.New("processor: owning channel not found")
	}

	newItemCount := 0
	for _, ni := range items {
		sourceID := ni.URL
		if sourceID == "" {
			sourceID = ni.Name
		}

		item := &entity.Item{
			ChannelID: f.ChannelID,
			FeedID:    &f.ID,
			UID:       feedparser.UID(f.URL, sourceID),
			URL:       ni.URL,
			Name:      ni.Name,
			Summary:   ni.Summary,
			Content:   entity.Content{Text: ni.ContentTxt, HTML: ni.ContentHTM},
			Published: ni.Published,
			Updated:   ni.Updated,
			Author:    entity.Author{Name: ni.AuthorName, URL: ni.AuthorURL, Photo: ni.AuthorPhoto},
			Category:  ni.Category,
			Photo:     ni.Photo,
			Video:     ni.Video,
			Audio:     ni.Audio,
			LikeOf:    ni.LikeOf,
			RepostOf:  ni.RepostOf,
			BookmarkOf: ni.BookmarkOf,
			InReplyTo: ni.InReplyTo,
			Src:       entity.Source{URL: ni.URL, FeedURL: f.URL},
		}

		if !channel.Passes(item, ch.Filter) {
			continue
		}
		if muted, err := s.Mutes.IsMuted(ctx, ch.Owner, ch.UID, item.Src.URL); err == nil && muted {
			continue
		}
		if blocked, err := s.Mutes.IsBlocked(ctx, ch.Owner, item.Author.URL); err == nil && blocked {
			continue
		}

		created, err := s.Items.AddItem(ctx, item)
		if err != nil {
			s.logger().Warn("processor: add item failed", slog.Int64("feed_id", f.ID), slog.String("uid", item.UID), slog.Any("error", err))
			continue
		}
		if created {
			newItemCount++
			if s.Events != nil {
				s.Events.Publish(event.TimelineEvent{Kind: event.KindNewItem, ChannelID: ch.ID, Owner: ch.Owner, Item: item})
			}
		}
	}

	return newItemCount, nil
}

// finishWithOutcome runs the tier update (step 5) and persists the fetch
// outcome in a single UpdateAfterFetch call.
func (s *Service) finishWithOutcome(ctx context.Context, f *entity.Feed, newItemCount int, fetchErr bool, errMsg string) {
	next := scheduler.CalculateNewTier(
		scheduler.TierState{Tier: f.Tier, Unmodified: f.Unmodified},
		newItemCount > 0,
		fetchErr,
	)
	f.Tier = next.Tier
	f.Unmodified = next.Unmodified
	f.NextFetchAt = time.Now().Add(scheduler.IntervalForTier(f.Tier))
	now := time.Now()
	f.LastFetchedAt = &now
	f.ItemCount += int64(newItemCount)

	if fetchErr {
		f.Status = entity.FeedStatusError
		f.ConsecutiveErrors++
		if errMsg != "" {
			f.LastError = errMsg
		}
		f.LastErrorAt = &now
	} else {
		f.Status = entity.FeedStatusActive
		f.ConsecutiveErrors = 0
		f.LastError = ""
		f.LastErrorAt = nil
	}

	if err := s.Feeds.UpdateAfterFetch(ctx, f); err != nil {
		s.logger().Error("processor: persist fetch outcome failed", slog.Int64("feed_id", f.ID), slog.Any("error", err))
	}
}
