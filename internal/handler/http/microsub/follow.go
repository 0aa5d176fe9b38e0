package microsub

import (
	"net/http"

	"microsubd/internal/handler/http/respond"
	"microsubd/internal/usecase/channel"
	"microsubd/internal/usecase/feed"
)

// FollowHandler serves POST microsub?action=follow and action=unfollow
// (spec.md §6).
type FollowHandler struct {
	Channels *channel.Service
	Feeds    *feed.Service
	Unfollow bool // true serves the unfollow action, false follow
}

func (h *FollowHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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
	url := r.FormValue("url")

	if h.Unfollow {
		if err := h.Feeds.UnfollowByURL(r.Context(), c.ID, url); err != nil {
			writeError(w, err)
			return
		}
		respond.JSON(w, http.StatusOK, map[string]string{"result": "ok"})
		return
	}

	f, err := h.Feeds.Follow(r.Context(), c.ID, url)
	switch {
	case err == nil:
		respond.JSON(w, http.StatusCreated, feedDTO(f))
	case err == feed.ErrAlreadyFollowing:
		// ConflictError maps to idempotent success (spec.md §7).
		existing, getErr := h.Feeds.ListByChannel(r.Context(), c.ID)
		if getErr != nil {
			writeError(w, getErr)
			return
		}
		for _, ef := range existing {
			if ef.URL == url {
				respond.JSON(w, http.StatusOK, feedDTO(ef))
				return
			}
		}
		respond.JSON(w, http.StatusOK, map[string]string{"result": "ok"})
	default:
		writeError(w, err)
	}
}
