package handlers

import (
	"net/http"
	"runtime"
	"time"

	"media-library/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status            string `json:"status"`
	Ready             bool   `json:"ready"`
	Version           string `json:"version"`
	Uptime            string `json:"uptime"`
	Indexing          bool   `json:"indexing"`
	LastIndexed       string `json:"lastIndexed,omitempty"`
	InitialIndexError string `json:"initialIndexError,omitempty"`

	FilesIndexed   int64 `json:"filesIndexed"`
	FoldersIndexed int64 `json:"foldersIndexed"`

	Authorized bool `json:"authorized"`

	GoVersion    string `json:"goVersion"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	healthStatus := h.health.GetHealthStatus()

	response := HealthResponse{
		Ready:          healthStatus.Ready,
		Version:        startup.Version,
		Uptime:         healthStatus.Uptime,
		Indexing:       healthStatus.Indexing,
		FilesIndexed:   healthStatus.FilesIndexed,
		FoldersIndexed: healthStatus.FoldersIndexed,
		GoVersion:      runtime.Version(),
		NumGoroutine:   runtime.NumGoroutine(),
	}
	if h.lib != nil {
		response.Authorized = h.lib.IsAuthorized()
	}

	if healthStatus.Ready {
		response.Status = statusHealthy
	} else {
		response.Status = statusStarting
	}
	if !healthStatus.LastIndexed.IsZero() {
		response.LastIndexed = healthStatus.LastIndexed.Format(time.RFC3339)
	}
	if healthStatus.InitialIndexError != "" {
		response.InitialIndexError = healthStatus.InitialIndexError
		response.Status = statusDegraded
	}

	status := http.StatusOK
	if !healthStatus.Ready {
		status = http.StatusServiceUnavailable
	}
	writeJSONStatus(w, status, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{"status": "alive"})
	}
}

// ReadinessCheck returns 200 only when the service is ready to accept traffic
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	if h.health.IsReady() {
		writeJSONStatus(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}
	writeJSONStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
}

// TriggerReindex schedules a catalogue re-index and returns at once.
func (h *Handlers) TriggerReindex(w http.ResponseWriter, _ *http.Request) {
	h.lib.Reindex()
	writeJSONStatus(w, http.StatusAccepted, map[string]string{"status": "reindex started"})
}
