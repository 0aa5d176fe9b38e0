package websub

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1" //nolint:gosec // X-Hub-Signature (legacy, non-256) is sha1 by the WebSub spec itself.
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"microsubd/internal/domain/entity"
	"microsubd/internal/repository"
	"microsubd/internal/resilience/circuitbreaker"
	"microsubd/internal/resilience/retry"
)

// DefaultLeaseSeconds is spec.md §4.7's hub.lease_seconds (7 days).
const DefaultLeaseSeconds = 604800

// RenewalHorizon is spec.md §4.7's "expiresAt <= now + 24h should be
// re-subscribed" window.
const RenewalHorizon = 24 * time.Hour

const secretBytes = 32 // randomHex(32): 32 bytes -> 64 hex chars.

// ContentProcessor runs Processor steps 3-6 on pushed content; implemented
// by internal/usecase/process.Service.
type ContentProcessor interface {
	ProcessPushedContent(ctx context.Context, feedID int64, contentType string, body []byte) error
}

// Config holds the subscriber's outbound settings.
type Config struct {
	// CallbackBaseURL is the public base the hub POSTs back to; the full
	// callback is CallbackBaseURL + "/microsub/websub/" + feedId.
	CallbackBaseURL string
	LeaseSeconds    int
}

// Service provides the C8 WebSub Subscriber + Callback.
type Service struct {
	Feeds     repository.FeedRepository
	Processor ContentProcessor
	Client    *http.Client
	Config    Config

	circuitBreaker *circuitbreaker.CircuitBreaker
	Logger         *slog.Logger
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Service) breaker() *circuitbreaker.CircuitBreaker {
	if s.circuitBreaker == nil {
		s.circuitBreaker = circuitbreaker.New(circuitbreaker.FeedFetchConfig())
	}
	return s.circuitBreaker
}

func (s *Service) leaseSeconds() int {
	if s.Config.LeaseSeconds > 0 {
		return s.Config.LeaseSeconds
	}
	return DefaultLeaseSeconds
}

func (s *Service) callbackURL(feedID int64) string {
	return fmt.Sprintf("%s/microsub/websub/%d", strings.TrimRight(s.Config.CallbackBaseURL, "/"), feedID)
}

func randomSecret() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Subscribe POSTs a subscribe request to hub for topic, grounded on
// spec.md §4.7: hub.mode=subscribe, hub.topic, hub.callback, a fresh
// hub.secret, and hub.lease_seconds. Accepts 202/204; persists
// {hub, topic, secret, pending:true} on accept.
func (s *Service) Subscribe(ctx context.Context, feedID int64, hub, topic string) error {
	secret, err := randomSecret()
	if err != nil {
		return fmt.Errorf("generate websub secret: %w", err)
	}

	form := url.Values{
		"hub.mode":          {"subscribe"},
		"hub.topic":         {topic},
		"hub.callback":      {s.callbackURL(feedID)},
		"hub.secret":        {secret},
		"hub.lease_seconds": {strconv.Itoa(s.leaseSeconds())},
	}

	if err := s.postHub(ctx, hub, form); err != nil {
		return err
	}

	ws := &entity.WebSub{Hub: hub, Topic: topic, Secret: secret, LeaseSeconds: s.leaseSeconds(), Pending: true}
	if err := s.Feeds.UpdateWebSub(ctx, feedID, ws); err != nil {
		return fmt.Errorf("persist websub subscription: %w", err)
	}
	return nil
}

// Unsubscribe POSTs an unsubscribe request on feed deletion (spec.md §4.7).
// The hub's response is ignored beyond logging; the local record is cleared
// regardless, since the feed is going away either way.
func (s *Service) Unsubscribe(ctx context.Context, feedID int64) error {
	f, err := s.Feeds.Get(ctx, feedID)
	if err != nil {
		return fmt.Errorf("get feed: %w", err)
	}
	if f == nil || f.WebSub == nil {
		return nil
	}

	form := url.Values{
		"hub.mode":     {"unsubscribe"},
		"hub.topic":    {f.WebSub.Topic},
		"hub.callback": {s.callbackURL(feedID)},
	}
	if err := s.postHub(ctx, f.WebSub.Hub, form); err != nil {
		s.logger().Warn("websub: unsubscribe request failed, clearing local state anyway",
			slog.Int64("feed_id", feedID), slog.Any("error", err))
	}

	return s.Feeds.UpdateWebSub(ctx, feedID, nil)
}

func (s *Service) postHub(ctx context.Context, hub string, form url.Values) error {
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	cfg := retry.FeedFetchConfig()
	return retry.WithBackoff(ctx, cfg, func() error {
		_, err := s.breaker().Execute(func() (interface{}, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, hub, strings.NewReader(form.Encode()))
			if err != nil {
				return nil, err
			}
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

			resp, err := client.Do(req)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close()
			_, _ = io.Copy(io.Discard, resp.Body)

			if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusNoContent {
				return nil, ErrHubRejected
			}
			return nil, nil
		})
		return err
	})
}

// VerifyCallback handles the hub's GET verification request (spec.md §4.7):
// rejects if the feed is unknown or topic doesn't match, otherwise persists
// the lease and returns the challenge to echo back verbatim.
func (s *Service) VerifyCallback(ctx context.Context, feedID int64, topic, challenge string, leaseSeconds int) (string, error) {
	f, err := s.Feeds.Get(ctx, feedID)
	if err != nil {
		return "", fmt.Errorf("get feed: %w", err)
	}
	if f == nil {
		return "", ErrFeedNotFound
	}

	matchesURL := topic == f.URL
	matchesStoredTopic := f.WebSub != nil && f.WebSub.Topic == topic
	if !matchesURL && !matchesStoredTopic {
		return "", ErrTopicMismatch
	}

	if leaseSeconds <= 0 {
		leaseSeconds = s.leaseSeconds()
	}
	expiresAt := time.Now().Add(time.Duration(leaseSeconds) * time.Second)

	secret := ""
	if f.WebSub != nil {
		secret = f.WebSub.Secret
	}
	ws := &entity.WebSub{Hub: hubOf(f), Topic: topic, Secret: secret, LeaseSeconds: leaseSeconds, ExpiresAt: &expiresAt, Pending: false}
	if err := s.Feeds.UpdateWebSub(ctx, feedID, ws); err != nil {
		return "", fmt.Errorf("persist websub lease: %w", err)
	}

	return challenge, nil
}

func hubOf(f *entity.Feed) string {
	if f.WebSub != nil {
		return f.WebSub.Hub
	}
	return ""
}

// ReceiveCallback handles the hub's POST push notification (spec.md §4.7):
// verifies the HMAC signature when a secret is on record, then hands the
// body to the Processor's steps 3-6. The push path never touches tier.
func (s *Service) ReceiveCallback(ctx context.Context, feedID int64, contentType string, body []byte, sigHeader256, sigHeaderLegacy string) error {
	f, err := s.Feeds.Get(ctx, feedID)
	if err != nil {
		return fmt.Errorf("get feed: %w", err)
	}
	if f == nil {
		return ErrFeedNotFound
	}

	if f.WebSub != nil && f.WebSub.Secret != "" {
		if !verifySignature(f.WebSub.Secret, body, sigHeader256, sigHeaderLegacy) {
			return ErrSignatureMismatch
		}
	}

	return s.Processor.ProcessPushedContent(ctx, feedID, contentType, body)
}

// verifySignature checks sigHeader256 (X-Hub-Signature-256, "sha256=<hex>")
// first, falling back to sigHeaderLegacy (X-Hub-Signature, "sha1=<hex>"),
// comparing in constant time (spec.md §4.7).
func verifySignature(secret string, body []byte, sigHeader256, sigHeaderLegacy string) bool {
	if sig, ok := strings.CutPrefix(sigHeader256, "sha256="); ok {
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(body)
		expected := mac.Sum(nil)
		got, err := hex.DecodeString(sig)
		if err != nil {
			return false
		}
		return hmac.Equal(expected, got)
	}

	if sig, ok := strings.CutPrefix(sigHeaderLegacy, "sha1="); ok {
		mac := hmac.New(sha1.New, []byte(secret))
		mac.Write(body)
		expected := mac.Sum(nil)
		got, err := hex.DecodeString(sig)
		if err != nil {
			return false
		}
		return hmac.Equal(expected, got)
	}

	return false
}

// RenewExpiringLeases re-subscribes every feed whose lease expires within
// RenewalHorizon (spec.md §4.7, resolving the §9 open question in favor of
// an unconditional renewal sweep).
func (s *Service) RenewExpiringLeases(ctx context.Context) error {
	feeds, err := s.Feeds.GetFeedsWithExpiringLease(ctx, time.Now(), RenewalHorizon)
	if err != nil {
		return fmt.Errorf("list feeds with expiring lease: %w", err)
	}

	for _, f := range feeds {
		if f.WebSub == nil {
			continue
		}
		if err := s.Subscribe(ctx, f.ID, f.WebSub.Hub, f.WebSub.Topic); err != nil {
			s.logger().Warn("websub: lease renewal failed", slog.Int64("feed_id", f.ID), slog.Any("error", err))
		}
	}
	return nil
}
