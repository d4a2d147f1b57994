package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jamshare/backend/internal/catalog"
)

// CatalogHandler proxies the external music-file provider: folder listing,
// search, and stream-URL resolution. The session core only ever sees the
// opaque song triples these responses carry.
type CatalogHandler struct {
	client *catalog.Client
}

// NewCatalogHandler creates a CatalogHandler over the given provider client.
func NewCatalogHandler(c *catalog.Client) *CatalogHandler {
	return &CatalogHandler{client: c}
}

// ListFiles returns folders and music files under a folder id ("root" or
// empty for the provider root).
func (h *CatalogHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	folderID := chi.URLParam(r, "folderId")
	if folderID == "root" {
		folderID = ""
	}

	listing, err := h.client.ListFiles(r.Context(), folderID)
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusBadGateway, "internal_error", "catalog listing failed", err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

// Search finds music files matching the q query parameter.
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "search query is required")
		return
	}
	folderID := r.URL.Query().Get("folderId")

	files, err := h.client.Search(r.Context(), query, folderID)
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusBadGateway, "internal_error", "catalog search failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]catalog.File{"files": files})
}

// StreamURL resolves the streaming location for a file id.
func (h *CatalogHandler) StreamURL(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileId")

	info, err := h.client.StreamURL(r.Context(), fileID)
	if err != nil {
		writeErrorWithCause(r.Context(), w, http.StatusBadGateway, "internal_error", "failed to resolve stream url", err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}
