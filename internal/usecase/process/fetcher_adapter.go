package process

import (
	"context"

	"microsubd/internal/infra/fetcher"
)

// FetcherAdapter adapts *fetcher.Fetcher (C1) to the process.Fetcher
// interface, keeping this package's dependency on the concrete HTTP
// implementation to one narrow seam.
type FetcherAdapter struct {
	Fetcher *fetcher.Fetcher
}

func (a *FetcherAdapter) Fetch(ctx context.Context, url, etag, lastModified string) (*FetchResult, error) {
	res, err := a.Fetcher.Fetch(ctx, url, etag, lastModified)
	if err != nil {
		return nil, err
	}
	return &FetchResult{
		Body:         res.Body,
		ContentType:  res.ContentType,
		ETag:         res.ETag,
		LastModified: res.LastModified,
		NotModified:  res.NotModified,
		HubURL:       res.HubURL,
		SelfURL:      res.SelfURL,
	}, nil
}
