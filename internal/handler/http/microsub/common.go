package microsub

import (
	"context"
	"errors"
	"fmt"

	"microsubd/internal/domain/entity"
	"microsubd/internal/infra/feedparser"
	"microsubd/internal/usecase/channel"
	"microsubd/internal/usecase/process"
)

var (
	errMissingOwner      = errors.New("missing authenticated owner")
	errUnknownAction     = errors.New("unknown action")
	errMissingQuery      = errors.New("missing query")
	errEventsUnsupported = errors.New("events: SSE fan-out is served by an external collaborator, not this endpoint")
	errRateLimited       = errors.New("rate limit exceeded")
)

// resolveChannel maps an external channel uid, scoped to owner, to its
// entity.Channel. The Microsub API addresses channels by uid; the Channel
// Store's own service methods take internal ids.
func resolveChannel(ctx context.Context, channels *channel.Service, owner, uid string) (*entity.Channel, error) {
	if uid == "" {
		return nil, entity.ErrInvalidInput
	}
	all, err := channels.ListChannels(ctx, owner)
	if err != nil {
		return nil, err
	}
	for _, c := range all {
		if c.UID == uid {
			return c, nil
		}
	}
	return nil, entity.ErrNotFound
}

// fetchAndParse runs an unconditional (no etag/last-modified) fetch-then-
// parse against url, the shared ad hoc Fetcher+Parser invocation behind
// both preview and search (SPEC_FULL.md §11) — neither persists anything.
func fetchAndParse(ctx context.Context, fetcher process.Fetcher, parse process.ParseFunc, url string) (feedparser.FeedMeta, []feedparser.NormalizedItem, error) {
	if url == "" {
		return feedparser.FeedMeta{}, nil, entity.ErrInvalidInput
	}
	if err := entity.ValidateURL(url); err != nil {
		return feedparser.FeedMeta{}, nil, fmt.Errorf("validate url: %w", err)
	}

	res, err := fetcher.Fetch(ctx, url, "", "")
	if err != nil {
		return feedparser.FeedMeta{}, nil, fmt.Errorf("%w: %v", entity.ErrUpstream, err)
	}

	_, meta, items, err := parse(res.ContentType, res.Body, url)
	if err != nil {
		return feedparser.FeedMeta{}, nil, fmt.Errorf("parse: %w", err)
	}
	return meta, items, nil
}
