package microsub

import (
	"net/http"

	"microsubd/internal/handler/http/respond"
	"microsubd/internal/usecase/process"
)

// previewItemCap is spec.md §6's "up to 10 items" for both preview and
// search.
const previewItemCap = 10

// PreviewHandler serves GET/POST microsub?action=preview (spec.md §6,
// SPEC_FULL.md §11): an ad hoc Fetcher+Parser invocation against url with
// nothing saved — no Feed or Item is created, unlike follow.
type PreviewHandler struct {
	Fetcher process.Fetcher
	Parse   process.ParseFunc
}

func (h *PreviewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respond.Error(w, http.StatusBadRequest, err)
		return
	}
	url := r.FormValue("url")

	meta, items, err := fetchAndParse(r.Context(), h.Fetcher, h.Parse, url)
	if err != nil {
		writeError(w, err)
		return
	}

	dtos := make([]ItemDTO, 0, len(items))
	for i, ni := range items {
		if i >= previewItemCap {
			break
		}
		dtos = append(dtos, normalizedItemDTO(ni, url, url))
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"type":  "feed",
		"url":   url,
		"name":  meta.Title,
		"photo": meta.Photo,
		"items": dtos,
	})
}
