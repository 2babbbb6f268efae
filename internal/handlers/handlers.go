package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"media-library/internal/indexer"
	"media-library/internal/photolibrary"
	"media-library/internal/streaming"
)

// HealthSource reports indexer readiness.
type HealthSource interface {
	IsReady() bool
	GetHealthStatus() indexer.HealthStatus
}

// Handlers serves the API over one library service.
type Handlers struct {
	lib    *photolibrary.Service
	health HealthSource
	stream streaming.TimeoutWriterConfig
}

// New returns handlers for lib. health defaults to lib's indexer.
func New(lib *photolibrary.Service, health HealthSource) *Handlers {
	if health == nil {
		health = lib.Indexer()
	}
	return &Handlers{
		lib:    lib,
		health: health,
		stream: streaming.DefaultTimeoutWriterConfig(),
	}
}

// Register adds every route to r.
func (h *Handlers) Register(r *mux.Router) {
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet)
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/library", h.GetLibrary).Methods(http.MethodGet).Name("getLibrary")

	api.HandleFunc("/authorization", h.GetAuthorization).Methods(http.MethodGet).Name("isAuthorized")
	api.HandleFunc("/authorization", h.RequestAuthorization).Methods(http.MethodPost).Name("requestAuthorization")

	api.HandleFunc("/albums", h.GetAlbums).Methods(http.MethodGet).Name("getAlbums")
	api.HandleFunc("/moments", h.GetMoments).Methods(http.MethodGet).Name("getMoments")
	api.HandleFunc("/albums/{album}/images", h.SaveImage).Methods(http.MethodPost).Name("saveImage")
	api.HandleFunc("/albums/{album}/videos", h.SaveVideo).Methods(http.MethodPost).Name("saveVideo")

	api.HandleFunc("/thumbnail/{id}", h.GetThumbnail).Methods(http.MethodGet).Name("getThumbnail")
	api.HandleFunc("/photo/{id}", h.GetPhoto).Methods(http.MethodGet).Name("getPhoto")
	api.HandleFunc("/items/{id}/bytes", h.GetLibraryItemBytes).Methods(http.MethodGet).Name("getLibraryItemBytes")
	api.HandleFunc("/items/{id}/favorite", h.SetFavorite).Methods(http.MethodPut).Name("setFavorite")

	api.HandleFunc("/cache", h.StopCaching).Methods(http.MethodDelete).Name("stopCaching")
	api.HandleFunc("/reindex", h.TriggerReindex).Methods(http.MethodPost).Name("reindex")
}

// Router builds a router with every route registered.
func (h *Handlers) Router() *mux.Router {
	r := mux.NewRouter()
	h.Register(r)
	return r
}
