package microsub

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"microsubd/internal/handler/http/respond"
	"microsubd/internal/usecase/webmention"
)

// WebmentionHandler serves POST /webmention (spec.md §6). Receiving is
// synchronous and cheap (shape validation only); verification is fetched
// and classified asynchronously, so the sender always gets a fast 202
// regardless of the outcome (spec.md §4.8, §7).
type WebmentionHandler struct {
	Service *webmention.Service
	Logger  *slog.Logger

	// VerifyTimeout bounds the detached verification goroutine. Zero uses
	// a 30s default.
	VerifyTimeout time.Duration
}

func (h *WebmentionHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *WebmentionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// The endpoint is unauthenticated by design: senders are arbitrary
	// third-party sites. The routing layer resolves which owner's
	// notifications channel target belongs to and places it in context,
	// same as the authenticated Microsub API (spec.md §1 excludes
	// authentication/session extraction from the core).
	owner := OwnerFromContext(r.Context())
	if owner == "" {
		respond.Error(w, http.StatusUnauthorized, errMissingOwner)
		return
	}
	if err := r.ParseForm(); err != nil {
		respond.Error(w, http.StatusBadRequest, err)
		return
	}
	source := r.FormValue("source")
	target := r.FormValue("target")

	if err := h.Service.Receive(source, target); err != nil {
		writeError(w, err)
		return
	}

	timeout := h.VerifyTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := h.Service.Verify(ctx, owner, source, target); err != nil {
			h.logger().Info("webmention: verify failed",
				slog.String("source", source), slog.String("target", target), slog.Any("error", err))
		}
	}()

	w.WriteHeader(http.StatusAccepted)
}
