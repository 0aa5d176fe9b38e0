package microsub

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"microsubd/internal/handler/http/pathutil"
	"microsubd/internal/handler/http/respond"
	"microsubd/internal/usecase/websub"
)

// WebSubHandler serves GET/POST /microsub/websub/{feedId} (spec.md §4.7,
// §6): GET is the hub's verification request, POST is the content push.
// PathPrefix is stripped to recover feedId, matching pathutil.ExtractID's
// prefix-trim convention.
type WebSubHandler struct {
	Service    *websub.Service
	PathPrefix string // e.g. "/microsub/websub/"
}

func (h *WebSubHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	feedID, err := pathutil.ExtractID(r.URL.Path, h.PathPrefix)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.verify(w, r, feedID)
	case http.MethodPost:
		h.receive(w, r, feedID)
	default:
		respond.Error(w, http.StatusMethodNotAllowed, errUnknownAction)
	}
}

func (h *WebSubHandler) verify(w http.ResponseWriter, r *http.Request, feedID int64) {
	q := r.URL.Query()
	mode := q.Get("hub.mode")
	if mode != "subscribe" && mode != "unsubscribe" {
		respond.Error(w, http.StatusBadRequest, errUnknownAction)
		return
	}

	topic := q.Get("hub.topic")
	challenge := q.Get("hub.challenge")
	leaseSeconds, _ := strconv.Atoi(q.Get("hub.lease_seconds"))

	echo, err := h.Service.VerifyCallback(r.Context(), feedID, topic, challenge, leaseSeconds)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(echo))
}

func (h *WebSubHandler) receive(w http.ResponseWriter, r *http.Request, feedID int64) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 10<<20))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err)
		return
	}

	err = h.Service.ReceiveCallback(r.Context(), feedID, r.Header.Get("Content-Type"), body,
		r.Header.Get("X-Hub-Signature-256"), r.Header.Get("X-Hub-Signature"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *WebSubHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, websub.ErrFeedNotFound):
		respond.Error(w, http.StatusNotFound, err)
	case errors.Is(err, websub.ErrTopicMismatch), errors.Is(err, websub.ErrSignatureMismatch):
		respond.Error(w, http.StatusBadRequest, err)
	default:
		respond.SafeError(w, http.StatusInternalServerError, err)
	}
}
