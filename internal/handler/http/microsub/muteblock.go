package microsub

import (
	"net/http"

	"microsubd/internal/handler/http/respond"
	"microsubd/internal/usecase/channel"
)

// MuteBlockHandler serves POST microsub for the mute/unmute/block/unblock
// actions (spec.md §6). Action selects which of the four it performs.
type MuteBlockHandler struct {
	Channels *channel.Service
	Action   string // "mute", "unmute", "block", "unblock"
}

func (h *MuteBlockHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	owner := OwnerFromContext(r.Context())
	if owner == "" {
		respond.Error(w, http.StatusUnauthorized, errMissingOwner)
		return
	}
	if err := r.ParseForm(); err != nil {
		respond.Error(w, http.StatusBadRequest, err)
		return
	}
	url := r.FormValue("url")

	var err error
	switch h.Action {
	case "mute":
		err = h.Channels.Mute(r.Context(), owner, r.FormValue("channel"), url)
	case "unmute":
		err = h.Channels.Unmute(r.Context(), owner, r.FormValue("channel"), url)
	case "block":
		err = h.Channels.Block(r.Context(), owner, url)
	case "unblock":
		err = h.Channels.Unblock(r.Context(), owner, url)
	default:
		respond.Error(w, http.StatusBadRequest, errUnknownAction)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"result": "ok"})
}
