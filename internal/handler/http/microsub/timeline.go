package microsub

import (
	"net/http"
	"strconv"

	"microsubd/internal/common/cursor"
	"microsubd/internal/handler/http/respond"
	"microsubd/internal/repository"
	"microsubd/internal/usecase/channel"
	"microsubd/internal/usecase/timeline"
)

// TimelineHandler serves GET/POST microsub?action=timeline (spec.md §6).
type TimelineHandler struct {
	Channels *channel.Service
	Timeline *timeline.Service
}

func (h *TimelineHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	owner := OwnerFromContext(r.Context())
	if owner == "" {
		respond.Error(w, http.StatusUnauthorized, errMissingOwner)
		return
	}
	if err := r.ParseForm(); err != nil {
		respond.Error(w, http.StatusBadRequest, err)
		return
	}

	c, err := resolveChannel(r.Context(), h.Channels, owner, r.FormValue("channel"))
	if err != nil {
		writeError(w, err)
		return
	}

	if r.Method == http.MethodGet {
		h.get(w, r, c.ID, owner)
		return
	}
	h.mutate(w, r, c.ID, owner)
}

func (h *TimelineHandler) get(w http.ResponseWriter, r *http.Request, channelID int64, owner string) {
	before, err := cursor.Decode(r.FormValue("before"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err)
		return
	}
	after, err := cursor.Decode(r.FormValue("after"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err)
		return
	}
	limit, _ := strconv.Atoi(r.FormValue("limit"))
	showRead := r.FormValue("showRead") == "true" || r.FormValue("showRead") == "1"

	page, err := h.Timeline.GetTimeline(r.Context(), repository.TimelineQuery{
		ChannelID: channelID,
		Owner:     owner,
		Before:    before,
		After:     after,
		Limit:     limit,
		ShowRead:  showRead,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	items := make([]ItemDTO, 0, len(page.Items))
	for _, it := range page.Items {
		items = append(items, itemDTO(it, owner))
	}
	respond.JSON(w, http.StatusOK, map[string]any{"items": items, "paging": pagingDTO(page)})
}

func (h *TimelineHandler) mutate(w http.ResponseWriter, r *http.Request, channelID int64, owner string) {
	entries := r.Form["entry[]"]
	if len(entries) == 0 {
		entries = r.Form["entry"]
	}

	var (
		n   int
		err error
	)
	switch r.FormValue("method") {
	case "mark_read":
		n, err = h.Timeline.MarkRead(r.Context(), channelID, entries, owner)
	case "mark_unread":
		n, err = h.Timeline.MarkUnread(r.Context(), channelID, entries, owner)
	case "remove":
		n, err = h.Timeline.Remove(r.Context(), channelID, entries)
	default:
		respond.Error(w, http.StatusBadRequest, errUnknownAction)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	if r.FormValue("method") == "remove" {
		respond.JSON(w, http.StatusOK, map[string]any{"result": "ok", "removed": n})
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"result": "ok", "updated": n})
}
