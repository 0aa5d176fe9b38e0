package microsub

import (
	"net/http"

	"microsubd/internal/handler/http/respond"
	"microsubd/internal/usecase/process"
)

// SearchHandler serves GET/POST microsub?action=search (spec.md §6,
// SPEC_FULL.md §11): query is treated as a candidate feed URL and run
// through the same Fetcher+Parser pair preview uses, with nothing saved.
// A query that does not resolve to a parseable feed yields zero results
// rather than an error.
type SearchHandler struct {
	Fetcher process.Fetcher
	Parse   process.ParseFunc
}

func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respond.Error(w, http.StatusBadRequest, err)
		return
	}
	query := r.FormValue("query")
	if query == "" {
		respond.Error(w, http.StatusBadRequest, errMissingQuery)
		return
	}

	meta, _, err := fetchAndParse(r.Context(), h.Fetcher, h.Parse, query)
	if err != nil {
		respond.JSON(w, http.StatusOK, map[string]any{"results": []FeedDTO{}})
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"results": []FeedDTO{{Type: "feed", URL: query, Name: meta.Title, Photo: meta.Photo}},
	})
}
