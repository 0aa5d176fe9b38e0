package microsub

import (
	"log/slog"
	"net/http"
	"time"

	httpmw "microsubd/internal/handler/http"
	"microsubd/internal/handler/http/respond"
	"microsubd/internal/usecase/channel"
	"microsubd/internal/usecase/feed"
	"microsubd/internal/usecase/process"
	"microsubd/internal/usecase/timeline"
	"microsubd/internal/usecase/webmention"
	"microsubd/internal/usecase/websub"
)

// Deps collects every usecase service the Microsub surface dispatches to.
type Deps struct {
	Channels    *channel.Service
	Feeds       *feed.Service
	Timeline    *timeline.Service
	WebSub      *websub.Service
	Webmention  *webmention.Service
	Fetcher     process.Fetcher
	Parse       process.ParseFunc
	Logger      *slog.Logger
	RateLimiter *InboundRateLimiter // applied to the unauthenticated inbound endpoints
}

// Mount wires every Microsub action and the inbound push/webmention
// endpoints onto mux, rooted at mountPath (default "/microsub", spec.md
// §6's configuration table). mountPath must not have a trailing slash.
func Mount(mux *http.ServeMux, mountPath string, d Deps) {
	action := &actionDispatcher{
		channels: &ChannelsHandler{Channels: d.Channels, Timeline: d.Timeline},
		timeline: &TimelineHandler{Channels: d.Channels, Timeline: d.Timeline},
		follow:   &FollowHandler{Channels: d.Channels, Feeds: d.Feeds, Unfollow: false},
		unfollow: &FollowHandler{Channels: d.Channels, Feeds: d.Feeds, Unfollow: true},
		mute:     &MuteBlockHandler{Channels: d.Channels, Action: "mute"},
		unmute:   &MuteBlockHandler{Channels: d.Channels, Action: "unmute"},
		block:    &MuteBlockHandler{Channels: d.Channels, Action: "block"},
		unblock:  &MuteBlockHandler{Channels: d.Channels, Action: "unblock"},
		preview:  &PreviewHandler{Fetcher: d.Fetcher, Parse: d.Parse},
		search:   &SearchHandler{Fetcher: d.Fetcher, Parse: d.Parse},
	}

	mux.Handle(mountPath, withMiddleware(action, d.Logger))

	webmentionHandler := &WebmentionHandler{Service: d.Webmention, Logger: d.Logger}
	mux.Handle("/webmention", withInboundMiddleware(webmentionHandler, d.Logger, d.RateLimiter))

	websubHandler := &WebSubHandler{Service: d.WebSub, PathPrefix: mountPath + "/websub/"}
	mux.Handle(mountPath+"/websub/", withInboundMiddleware(websubHandler, d.Logger, d.RateLimiter))
}

// actionDispatcher routes a request to one of the Microsub actions by its
// `action` query/form parameter, the protocol's single-endpoint convention
// (spec.md §6).
type actionDispatcher struct {
	channels http.Handler
	timeline http.Handler
	follow   http.Handler
	unfollow http.Handler
	mute     http.Handler
	unmute   http.Handler
	block    http.Handler
	unblock  http.Handler
	preview  http.Handler
	search   http.Handler
}

func (d *actionDispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respond.Error(w, http.StatusBadRequest, err)
		return
	}

	switch r.Form.Get("action") {
	case "channels", "":
		d.channels.ServeHTTP(w, r)
	case "timeline":
		d.timeline.ServeHTTP(w, r)
	case "follow":
		d.follow.ServeHTTP(w, r)
	case "unfollow":
		d.unfollow.ServeHTTP(w, r)
	case "mute":
		d.mute.ServeHTTP(w, r)
	case "unmute":
		d.unmute.ServeHTTP(w, r)
	case "block":
		d.block.ServeHTTP(w, r)
	case "unblock":
		d.unblock.ServeHTTP(w, r)
	case "preview":
		d.preview.ServeHTTP(w, r)
	case "search":
		d.search.ServeHTTP(w, r)
	case "events":
		// SSE fan-out is an external collaborator (spec.md §1); the core
		// only exposes the publish hook (internal/usecase/event).
		respond.Error(w, http.StatusNotImplemented, errEventsUnsupported)
	default:
		respond.Error(w, http.StatusBadRequest, errUnknownAction)
	}
}

// withMiddleware applies the authenticated Microsub API's ambient stack.
func withMiddleware(h http.Handler, logger *slog.Logger) http.Handler {
	wrapped := httpmw.InputValidation()(h)
	wrapped = httpmw.Timeout(30 * time.Second)(wrapped)
	wrapped = httpmw.LimitRequestBody(1 << 20)(wrapped)
	wrapped = httpmw.Recover(logger)(wrapped)
	wrapped = httpmw.Logging(logger)(wrapped)
	return wrapped
}

// withInboundMiddleware additionally rate-limits the unauthenticated
// inbound endpoints (webmention receive, WebSub callback) against abuse.
func withInboundMiddleware(h http.Handler, logger *slog.Logger, rl *InboundRateLimiter) http.Handler {
	wrapped := withMiddleware(h, logger)
	if rl != nil {
		wrapped = rl.Limit(wrapped)
	}
	return wrapped
}
