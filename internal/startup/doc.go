// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig]:
//
//   - MEDIA_DIR: media store root (default: /media)
//   - DATABASE_DIR: catalogue directory (default: /database)
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: serve /metrics (default: true)
//   - INDEX_INTERVAL: full re-index interval as Go duration, 0 disables (default: 30m)
//   - WATCH_ENABLED: fsnotify change detection (default: true)
//   - MOMENT_GAP: time gap that splits moments (default: 6h)
//   - PLACES_FILE: CSV gazetteer (name,lat,lon) naming moments (default: none)
//   - AUTH_MODE: prompt, grant or deny (default: grant)
//   - SETTINGS_URL: where callers are sent after a permanent denial (default: none)
//   - CACHE_TTL: prefetch cache entry lifetime (default: 10m)
//   - PREFETCH_RATE: prefetch renders per second, 0 unlimited (default: 20)
//   - ENRICH_WORKERS: enrichment concurrency or "auto" (default: auto)
//   - FETCH_TIMEOUT: remote import download timeout (default: 30s)
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//   - LOG_HEALTH_CHECKS: log health probe requests (default: true)
//
// Malformed booleans and numbers fall back to their defaults with a
// warning. Malformed durations, an unknown AUTH_MODE and a bad
// ENRICH_WORKERS are configuration errors.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo]:
//
//	go build -ldflags "-X media-library/internal/startup.Version=1.2.0"
//
// # Lifecycle Logging
//
// The Log* functions print the banner-style sections the server emits
// while starting and stopping.
package startup
