package microsub

import (
	"errors"
	"net/http"

	"microsubd/internal/domain/entity"
	"microsubd/internal/handler/http/respond"
	"microsubd/internal/usecase/channel"
	"microsubd/internal/usecase/feed"
)

// writeError maps a usecase error onto the HTTP status codes spec.md §7
// assigns to each error kind: ValidationError/invalid input -> 400,
// NotFound -> 404, UpstreamError -> 502, everything else -> 500.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		return
	case errors.Is(err, entity.ErrInvalidInput), errors.Is(err, entity.ErrValidationFailed):
		respond.Error(w, http.StatusBadRequest, err)
	case errors.Is(err, entity.ErrNotFound),
		errors.Is(err, channel.ErrChannelNotFound),
		errors.Is(err, feed.ErrFeedNotFound):
		respond.Error(w, http.StatusNotFound, err)
	case errors.Is(err, entity.ErrUpstream):
		respond.Error(w, http.StatusBadGateway, err)
	case errors.Is(err, channel.ErrInvalidChannelID), errors.Is(err, feed.ErrInvalidFeedID):
		respond.Error(w, http.StatusBadRequest, err)
	case errors.Is(err, channel.ErrCannotDeleteNotifications):
		respond.Error(w, http.StatusForbidden, err)
	default:
		var ve *entity.ValidationError
		if errors.As(err, &ve) {
			respond.Error(w, http.StatusBadRequest, err)
			return
		}
		respond.SafeError(w, http.StatusInternalServerError, err)
	}
}
