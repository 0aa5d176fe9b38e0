package microsub

import (
	"net/http"

	"microsubd/internal/handler/http/respond"
	"microsubd/internal/usecase/channel"
	"microsubd/internal/usecase/timeline"
)

// ChannelsHandler serves GET/POST microsub?action=channels (spec.md §6).
type ChannelsHandler struct {
	Channels *channel.Service
	Timeline *timeline.Service
}

func (h *ChannelsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	owner := OwnerFromContext(r.Context())
	if owner == "" {
		respond.Error(w, http.StatusUnauthorized, errMissingOwner)
		return
	}

	if r.Method == http.MethodGet {
		h.list(w, r, owner)
		return
	}

	if err := r.ParseForm(); err != nil {
		respond.Error(w, http.StatusBadRequest, err)
		return
	}
	switch r.FormValue("method") {
	case "delete":
		h.delete(w, r, owner)
	case "order":
		h.order(w, r, owner)
	case "update":
		h.update(w, r, owner)
	case "", "create":
		h.create(w, r, owner)
	default:
		respond.Error(w, http.StatusBadRequest, errUnknownAction)
	}
}

func (h *ChannelsHandler) list(w http.ResponseWriter, r *http.Request, owner string) {
	channels, err := h.Channels.ListChannels(r.Context(), owner)
	if err != nil {
		writeError(w, err)
		return
	}
	dtos := make([]ChannelDTO, 0, len(channels))
	for _, c := range channels {
		unread, _ := h.Timeline.UnreadCount(r.Context(), c.ID, owner, timeline.DefaultUnreadRetentionDays)
		dtos = append(dtos, ChannelDTO{UID: c.UID, Name: c.Name, Unread: unread})
	}
	respond.JSON(w, http.StatusOK, map[string]any{"channels": dtos})
}

func (h *ChannelsHandler) create(w http.ResponseWriter, r *http.Request, owner string) {
	name := r.FormValue("name")
	c, err := h.Channels.CreateChannel(r.Context(), owner, name)
	if err != nil {
		writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, ChannelDTO{UID: c.UID, Name: c.Name})
}

func (h *ChannelsHandler) update(w http.ResponseWriter, r *http.Request, owner string) {
	c, err := resolveChannel(r.Context(), h.Channels, owner, r.FormValue("uid"))
	if err != nil {
		writeError(w, err)
		return
	}
	updated, err := h.Channels.UpdateChannel(r.Context(), owner, c.ID, r.FormValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, ChannelDTO{UID: updated.UID, Name: updated.Name})
}

func (h *ChannelsHandler) delete(w http.ResponseWriter, r *http.Request, owner string) {
	c, err := resolveChannel(r.Context(), h.Channels, owner, r.FormValue("uid"))
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Channels.DeleteChannel(r.Context(), owner, c.ID); err != nil {
		writeError(w, err)
		return
	}
	h.list(w, r, owner)
}

func (h *ChannelsHandler) order(w http.ResponseWriter, r *http.Request, owner string) {
	uids := r.Form["channels[]"]
	if len(uids) == 0 {
		uids = r.Form["channels"]
	}
	order := make(map[string]int, len(uids))
	for i, uid := range uids {
		order[uid] = i
	}
	if err := h.Channels.OrderChannels(r.Context(), owner, order); err != nil {
		writeError(w, err)
		return
	}
	h.list(w, r, owner)
}
