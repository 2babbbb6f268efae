package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"media-library/internal/albums"
	"media-library/internal/photolibrary"
)

// GetAlbums lists user and smart albums.
func (h *Handlers) GetAlbums(w http.ResponseWriter, r *http.Request) {
	list, err := h.lib.GetAlbums(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if list == nil {
		list = []albums.AlbumItem{}
	}
	writeJSONStatus(w, http.StatusOK, list)
}

// GetMoments lists moments between the from and to query dates.
func (h *Handlers) GetMoments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.lib.GetMoments(r.Context(), photolibrary.MomentOptions{
		From: q.Get("from"),
		To:   q.Get("to"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if list == nil {
		list = []albums.AlbumItem{}
	}
	writeJSONStatus(w, http.StatusOK, list)
}

// saveRequest names the media to import: a data URI, a local path or
// file URL, or an http(s) URL.
type saveRequest struct {
	URL string `json:"url"`
}

func (h *Handlers) saveSource(w http.ResponseWriter, r *http.Request) (source, album string, ok bool) {
	var req saveRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return "", "", false
	}
	if strings.TrimSpace(req.URL) == "" {
		writeBadRequest(w, "url is required")
		return "", "", false
	}
	return req.URL, mux.Vars(r)["album"], true
}

// SaveImage imports an image into the album named in the path.
func (h *Handlers) SaveImage(w http.ResponseWriter, r *http.Request) {
	source, album, ok := h.saveSource(w, r)
	if !ok {
		return
	}

	item, err := h.lib.SaveImage(r.Context(), source, album)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, item)
}

// SaveVideo imports a video into the album named in the path.
func (h *Handlers) SaveVideo(w http.ResponseWriter, r *http.Request) {
	source, album, ok := h.saveSource(w, r)
	if !ok {
		return
	}

	if err := h.lib.SaveVideo(r.Context(), source, album); err != nil {
		writeError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, map[string]string{"status": "saved"})
}
