package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"microsubd/internal/resilience/circuitbreaker"
	"microsubd/internal/resilience/retry"
)

// Result is the outcome of one conditional GET against a feed or
// webmention-source URL.
type Result struct {
	StatusCode   int
	Body         []byte
	ContentType  string
	ETag         string
	LastModified string
	NotModified  bool // true on HTTP 304
	// HubURL and SelfURL are discovered from RFC 5988 Link headers carrying
	// rel="hub" / rel="self", per spec.md §4.7 WebSub discovery.
	HubURL  string
	SelfURL string
}

// Fetcher performs SSRF-safe, circuit-broken, retried HTTP fetches.
type Fetcher struct {
	cfg            Config
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

func New(cfg Config) *Fetcher {
	return &Fetcher{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= cfg.MaxRedirects {
					return fmt.Errorf("stopped after %d redirects", cfg.MaxRedirects)
				}
				if err := validateURL(req.URL.String(), cfg.DenyPrivateIPs); err != nil {
					return err
				}
				return nil
			},
		},
		circuitBreaker: circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
		retryConfig:    retry.FeedFetchConfig(),
	}
}

// Fetch performs a conditional GET, sending If-None-Match/If-Modified-Since
// when etag/lastModified are non-empty, wrapped in retry-with-backoff and a
// circuit breaker (same resilience posture as the teacher's RSSFetcher).
func (f *Fetcher) Fetch(ctx context.Context, url, etag, lastModified string) (*Result, error) {
	var result *Result

	retryErr := retry.WithBackoff(ctx, f.retryConfig, func() error {
		cbResult, err := f.circuitBreaker.Execute(func() (interface{}, error) {
			return f.doFetch(ctx, url, etag, lastModified)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("feed fetch circuit breaker open, request rejected",
					slog.String("service", "feed-fetch"),
					slog.String("url", url),
					slog.String("state", f.circuitBreaker.State().String()))
			}
			return err
		}
		result = cbResult.(*Result)
		return nil
	})
	if retryErr != nil {
		return nil, retryErr
	}
	return result, nil
}

func (f *Fetcher) doFetch(ctx context.Context, url, etag, lastModified string) (*Result, error) {
	if err := validateURL(url, f.cfg.DenyPrivateIPs); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "application/atom+xml, application/rss+xml, application/json, text/html;q=0.9, */*;q=0.5")
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastModified != "" {
		req.Header.Set("If-Modified-Since", lastModified)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetcher: do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	result := &Result{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		ETag:        resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
	}
	result.HubURL, result.SelfURL = parseLinkHeader(resp.Header.Get("Link"))

	if resp.StatusCode == http.StatusNotModified {
		result.NotModified = true
		return result, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetcher: unexpected status %d for %s", resp.StatusCode, url)
	}

	limited := io.LimitReader(resp.Body, f.cfg.MaxBodySize+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("fetcher: read body: %w", err)
	}
	if int64(len(body)) > f.cfg.MaxBodySize {
		return nil, fmt.Errorf("fetcher: response body exceeds %d bytes", f.cfg.MaxBodySize)
	}
	result.Body = bytes.TrimSpace(body)
	return result, nil
}

var linkHeaderPart = regexp.MustCompile(`<([^>]+)>\s*;\s*rel\s*=\s*"?([^";,]+)"?`)

// parseLinkHeader extracts hub and self URLs from an RFC 5988 Link header,
// the wire mechanism by which a feed advertises its WebSub hub (spec.md §4.7).
func parseLinkHeader(header string) (hub, self string) {
	if header == "" {
		return "", ""
	}
	for _, part := range strings.Split(header, ",") {
		m := linkHeaderPart.FindStringSubmatch(part)
		if m == nil {
			continue
		}
		url, rel := m[1], m[2]
		switch rel {
		case "hub":
			hub = url
		case "self":
			self = url
		}
	}
	return hub, self
}
