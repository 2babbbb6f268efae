package handlers

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"media-library/internal/library"
	"media-library/internal/logging"
	"media-library/internal/photolibrary"
	"media-library/internal/render"
	"media-library/internal/streaming"
)

// libraryOptions reads getLibrary options from the query string on top
// of the defaults.
func libraryOptions(r *http.Request) (library.Options, error) {
	opts := library.DefaultOptions()
	q := queryReader{r: r}
	q.intVal("thumbnailWidth", &opts.ThumbnailWidth)
	q.intVal("thumbnailHeight", &opts.ThumbnailHeight)
	q.floatVal("quality", &opts.Quality)
	q.intVal("itemsInChunk", &opts.ItemsInChunk)
	q.floatVal("chunkTimeSec", &opts.ChunkTimeSec)
	q.boolVal("useOriginalFileNames", &opts.UseOriginalFileNames)
	q.boolVal("includeImages", &opts.IncludeImages)
	q.boolVal("includeVideos", &opts.IncludeVideos)
	q.boolVal("includeAlbumData", &opts.IncludeAlbumData)
	q.boolVal("includeCloudData", &opts.IncludeCloudData)
	q.intVal("maxItems", &opts.MaxItems)
	if q.err != nil {
		return opts, q.err
	}
	if opts.Quality > 1 {
		return opts, errors.New("invalid quality: want a value in [0, 1]")
	}
	return opts, nil
}

// GetLibrary streams the library as newline-delimited JSON chunks.
func (h *Handlers) GetLibrary(w http.ResponseWriter, r *http.Request) {
	opts, err := libraryOptions(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	stream, err := h.lib.GetLibrary(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := streaming.WriteChunks(r.Context(), w, stream, h.stream); err != nil &&
		!errors.Is(err, streaming.ErrClientGone) {
		logging.Warn("Library stream ended early: %v", err)
	}
}

func thumbnailOptions(r *http.Request) (photolibrary.ThumbnailOptions, error) {
	var opts photolibrary.ThumbnailOptions
	q := queryReader{r: r}
	q.intVal("width", &opts.Width)
	q.intVal("height", &opts.Height)
	q.floatVal("quality", &opts.Quality)
	q.boolVal("dataURL", &opts.DataURL)
	if q.err != nil {
		return opts, q.err
	}
	if opts.Quality > 1 {
		return opts, errors.New("invalid quality: want a value in [0, 1]")
	}
	return opts, nil
}

// writeImage sends a render either as raw bytes or, for data URL
// requests, as JSON.
func writeImage(w http.ResponseWriter, r *http.Request, img *render.RenderedImage) {
	if img.DataURL != "" {
		w.Header().Set("Content-Type", "application/json")
		writeJSON(w, img)
		return
	}
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if notModified(w, r, img.Data) {
		return
	}
	w.Header().Set("Content-Type", img.MimeType)
	if _, err := w.Write(img.Data); err != nil {
		logging.Debug("failed to write image: %v", err)
	}
}

// GetThumbnail serves an orientation-corrected thumbnail.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	opts, err := thumbnailOptions(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	img, err := h.lib.GetThumbnail(r.Context(), mux.Vars(r)["id"], opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeImage(w, r, img)
}

// GetPhoto serves the full-size image, upright.
func (h *Handlers) GetPhoto(w http.ResponseWriter, r *http.Request) {
	var opts photolibrary.PhotoOptions
	q := queryReader{r: r}
	q.boolVal("dataURL", &opts.DataURL)
	if q.err != nil {
		writeBadRequest(w, q.err.Error())
		return
	}

	img, err := h.lib.GetPhoto(r.Context(), mux.Vars(r)["id"], opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeImage(w, r, img)
}

// GetLibraryItemBytes serves the stored bytes of an asset.
func (h *Handlers) GetLibraryItemBytes(w http.ResponseWriter, r *http.Request) {
	data, mimeType, err := h.lib.GetLibraryItemBytes(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	if notModified(w, r, data) {
		return
	}
	w.Header().Set("Content-Type", mimeType)
	if err := streaming.StreamWithTimeout(r.Context(), w, bytes.NewReader(data), h.stream); err != nil &&
		!errors.Is(err, streaming.ErrClientGone) {
		logging.Warn("Failed to send item bytes: %v", err)
	}
}

// StopCaching ends the prefetch session.
func (h *Handlers) StopCaching(w http.ResponseWriter, _ *http.Request) {
	h.lib.StopCaching()
	w.WriteHeader(http.StatusNoContent)
}

type favoriteRequest struct {
	Favorite bool `json:"favorite"`
}

// SetFavorite flags or unflags an asset.
func (h *Handlers) SetFavorite(w http.ResponseWriter, r *http.Request) {
	var req favoriteRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}
	if err := h.lib.SetFavorite(r.Context(), mux.Vars(r)["id"], req.Favorite); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
