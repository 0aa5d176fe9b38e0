package websub_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"microsubd/internal/domain/entity"
	"microsubd/internal/repository"
	"microsubd/internal/usecase/websub"
)

type stubFeedRepo struct {
	repository.FeedRepository
	feed       *entity.Feed
	lastWebSub *entity.WebSub
	expiring   []*entity.Feed
}

func (s *stubFeedRepo) Get(_ context.Context, _ int64) (*entity.Feed, error) { return s.feed, nil }
func (s *stubFeedRepo) UpdateWebSub(_ context.Context, _ int64, ws *entity.WebSub) error {
	s.lastWebSub = ws
	if s.feed != nil {
		s.feed.WebSub = ws
	}
	return nil
}
func (s *stubFeedRepo) GetFeedsWithExpiringLease(_ context.Context, _ time.Time, _ time.Duration) ([]*entity.Feed, error) {
	return s.expiring, nil
}

type stubProcessor struct {
	called      bool
	feedID      int64
	contentType string
	body        []byte
}

func (p *stubProcessor) ProcessPushedContent(_ context.Context, feedID int64, contentType string, body []byte) error {
	p.called = true
	p.feedID = feedID
	p.contentType = contentType
	p.body = body
	return nil
}

func TestService_Subscribe_PersistsOnAccept(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "subscribe", r.FormValue("hub.mode"))
		assert.Equal(t, "https://example.com/feed.xml", r.FormValue("hub.topic"))
		assert.NotEmpty(t, r.FormValue("hub.secret"))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	feeds := &stubFeedRepo{feed: &entity.Feed{ID: 1, URL: "https://example.com/feed.xml"}}
	svc := &websub.Service{Feeds: feeds, Config: websub.Config{CallbackBaseURL: "https://reader.example"}}

	err := svc.Subscribe(context.Background(), 1, srv.URL, "https://example.com/feed.xml")
	require.NoError(t, err)
	require.NotNil(t, feeds.lastWebSub)
	assert.True(t, feeds.lastWebSub.Pending)
	assert.Equal(t, srv.URL, feeds.lastWebSub.Hub)
}

func TestService_Subscribe_RejectedByHub(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	feeds := &stubFeedRepo{feed: &entity.Feed{ID: 1, URL: "https://example.com/feed.xml"}}
	svc := &websub.Service{Feeds: feeds, Config: websub.Config{CallbackBaseURL: "https://reader.example"}}

	err := svc.Subscribe(context.Background(), 1, srv.URL, "https://example.com/feed.xml")
	assert.Error(t, err)
	assert.Nil(t, feeds.lastWebSub)
}

func TestService_VerifyCallback_MatchesFeedURL(t *testing.T) {
	feeds := &stubFeedRepo{feed: &entity.Feed{ID: 1, URL: "https://example.com/feed.xml"}}
	svc := &websub.Service{Feeds: feeds}

	challenge, err := svc.VerifyCallback(context.Background(), 1, "https://example.com/feed.xml", "chal123", 604800)
	require.NoError(t, err)
	assert.Equal(t, "chal123", challenge)
	require.NotNil(t, feeds.lastWebSub)
	assert.False(t, feeds.lastWebSub.Pending)
}

func TestService_VerifyCallback_TopicMismatch(t *testing.T) {
	feeds := &stubFeedRepo{feed: &entity.Feed{ID: 1, URL: "https://example.com/feed.xml"}}
	svc := &websub.Service{Feeds: feeds}

	_, err := svc.VerifyCallback(context.Background(), 1, "https://other.example/feed.xml", "chal", 0)
	assert.ErrorIs(t, err, websub.ErrTopicMismatch)
}

func TestService_VerifyCallback_UnknownFeed(t *testing.T) {
	feeds := &stubFeedRepo{}
	svc := &websub.Service{Feeds: feeds}

	_, err := svc.VerifyCallback(context.Background(), 999, "https://example.com/feed.xml", "chal", 0)
	assert.ErrorIs(t, err, websub.ErrFeedNotFound)
}

func TestService_ReceiveCallback_ValidSignature(t *testing.T) {
	secret := "s3cr3t"
	body := []byte("<rss>push</rss>")
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	sig := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	feeds := &stubFeedRepo{feed: &entity.Feed{ID: 1, WebSub: &entity.WebSub{Secret: secret}}}
	proc := &stubProcessor{}
	svc := &websub.Service{Feeds: feeds, Processor: proc}

	err := svc.ReceiveCallback(context.Background(), 1, "application/rss+xml", body, sig, "")
	require.NoError(t, err)
	assert.True(t, proc.called)
}

func TestService_ReceiveCallback_InvalidSignature(t *testing.T) {
	feeds := &stubFeedRepo{feed: &entity.Feed{ID: 1, WebSub: &entity.WebSub{Secret: "s3cr3t"}}}
	proc := &stubProcessor{}
	svc := &websub.Service{Feeds: feeds, Processor: proc}

	err := svc.ReceiveCallback(context.Background(), 1, "application/rss+xml", []byte("body"), "sha256=deadbeef", "")
	assert.ErrorIs(t, err, websub.ErrSignatureMismatch)
	assert.False(t, proc.called)
}

func TestService_ReceiveCallback_NoSecretOnRecordSkipsVerification(t *testing.T) {
	feeds := &stubFeedRepo{feed: &entity.Feed{ID: 1}}
	proc := &stubProcessor{}
	svc := &websub.Service{Feeds: feeds, Processor: proc}

	err := svc.ReceiveCallback(context.Background(), 1, "application/rss+xml", []byte("body"), "", "")
	require.NoError(t, err)
	assert.True(t, proc.called)
}

func TestService_Unsubscribe_ClearsLocalState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	feeds := &stubFeedRepo{feed: &entity.Feed{ID: 1, WebSub: &entity.WebSub{Hub: srv.URL, Topic: "https://example.com/feed.xml"}}}
	svc := &websub.Service{Feeds: feeds, Config: websub.Config{CallbackBaseURL: "https://reader.example"}}

	err := svc.Unsubscribe(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, feeds.lastWebSub)
}

func TestService_RenewExpiringLeases(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	feeds := &stubFeedRepo{
		feed: &entity.Feed{ID: 1, URL: "https://example.com/feed.xml"},
		expiring: []*entity.Feed{
			{ID: 1, URL: "https://example.com/feed.xml", WebSub: &entity.WebSub{Hub: srv.URL, Topic: "https://example.com/feed.xml"}},
		},
	}
	svc := &websub.Service{Feeds: feeds, Config: websub.Config{CallbackBaseURL: "https://reader.example"}}

	require.NoError(t, svc.RenewExpiringLeases(context.Background()))
	require.NotNil(t, feeds.lastWebSub)
	assert.True(t, feeds.lastWebSub.Pending)
}
