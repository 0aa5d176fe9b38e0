package webmention

import (
	"context"

	"microsubd/internal/infra/fetcher"
)

// FetcherAdapter adapts *fetcher.Fetcher (C1) to the webmention.Fetcher
// interface, the one seam where this package touches the concrete HTTP
// implementation.
type FetcherAdapter struct {
	Fetcher *fetcher.Fetcher
}

func (a *FetcherAdapter) Fetch(ctx context.Context, sourceURL string) (*SourceFetch, error) {
	res, err := a.Fetcher.Fetch(ctx, sourceURL, "", "")
	if err != nil {
		return nil, err
	}
	return &SourceFetch{Body: res.Body, ContentType: res.ContentType}, nil
}
