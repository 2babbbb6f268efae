// Package metrics provides Prometheus instrumentation for the media library
// service.
//
// All metrics are registered with promauto when the package is loaded and
// are prefixed with "media_library_" so they do not collide with other
// exporters on the same scrape target. InitializeMetrics pre-populates the
// known label combinations, so dashboards show zeros instead of gaps until
// the first event of each kind.
//
// # Metric Categories
//
// ## HTTP Metrics
//
// Recorded by middleware.Metrics for every routed request:
//   - HTTPRequestsTotal: Counter by method, route template and status
//   - HTTPRequestDuration: Histogram by method and route template
//   - HTTPRequestsInFlight: Gauge of requests being served
//
// Paths are labelled with the mux route template ("/api/thumbnail/{id}"),
// never the raw URL, to keep label cardinality bounded.
//
// ## Catalogue Metrics
//
// Recorded by the catalog store around each query and transaction:
//   - DBQueryTotal: Counter by operation and status
//   - DBQueryDuration: Histogram by operation
//   - DBTransactionDuration: Histogram by result (commit or rollback)
//   - DBConnectionsOpen: Gauge of open SQLite connections
//   - DBSizeBytes: Gauge of database file sizes ("main", "wal")
//
// ## Library Pipeline Metrics
//
// Track library enumeration and chunk assembly:
//   - EnumerationsTotal: Counter by outcome ("complete", "canceled", "error", "denied")
//   - EnumerationItems: Histogram of items per enumeration
//   - ChunksEmitted: Counter by flush trigger ("size", "time", "last")
//   - EnrichmentsTotal: Counter by media kind and status ("resolved", "unresolved")
//   - EnrichmentDuration: Histogram by media kind
//   - EnrichmentsInFlight: Gauge of enrichment tasks running
//
// A growing share of "time" chunks means enrichment is slower than the
// chunk interval; a high "unresolved" count usually points at missing
// files on the media volume.
//
// ## Render Metrics
//
// Track on-demand renders and the thumbnail prefetch cache:
//   - RendersTotal: Counter by type ("thumbnail", "photo") and status
//   - RenderDuration: Histogram by type
//   - CacheHits, CacheMisses: Counters of prefetch cache lookups
//   - CacheActive: Gauge, 1 while a caching session is running
//   - CacheEntries: Gauge of cached thumbnails
//   - PrefetchTotal: Counter by status ("rendered", "dropped", "unavailable")
//
// ## Authorization and Import Metrics
//
//   - AuthorizationRequestsTotal: Counter by capability and outcome
//     ("authorized", "denied", "redirected", "error")
//   - ImportsTotal: Counter by kind (image, video) and status
//   - ImportBytes: Counter of bytes written by imports, by kind
//
// ## Indexer Metrics
//
// Track catalogue refreshes from the media directory:
//   - IndexerRunsTotal, IndexerErrors, IndexerFilesProcessed: Counters
//   - IndexerLastRunTimestamp, IndexerLastRunDuration: Gauges of the last run
//   - IndexerIsRunning: Gauge, 1 while an index pass is active
//   - IndexerParallelWorkers: Gauge of walker goroutines
//   - IndexerMomentsBuilt: Gauge of moments after the last pass
//   - WatcherEventsTotal: Counter of fsnotify events by op
//   - WatcherErrors, WatchedDirectories: watcher health
//
// ## Catalogue Content Metrics
//
// Refreshed by the Collector rather than on each write:
//   - AssetsTotal: Gauge by kind (image, video, audio, other)
//   - CollectionsTotal: Gauge by kind ("album", "smart", "moment")
//
// ## Filesystem Metrics
//
// Per-volume timing and NFS stale handle retries, labelled with the
// volume names given to filesystem.NewVolumeResolver ("media", "database"):
//   - FilesystemOperationDuration, FilesystemOperationErrors
//   - FilesystemRetryAttempts, FilesystemRetrySuccess, FilesystemRetryFailures
//   - FilesystemRetryDuration
//   - FilesystemStaleErrors
//
// The filesystem package records through the Observer returned by
// NewFilesystemObserver, so it never imports this package:
//
//	filesystem.SetObserver(metrics.NewFilesystemObserver())
//
// ## Memory Metrics
//
// Set by memory.Monitor on every sample:
//   - MemoryUsageRatio: Gauge of heap usage as a fraction of the limit
//   - MemoryPaused: Gauge, 1 while background rendering is held back
//   - MemoryPausesTotal: Counter of pauses
//
// ## Build Information
//
//   - AppInfo: Gauge fixed at 1 with version, commit and go_version labels
//
// # Collector
//
// Content counts are too expensive to maintain on every write, so a
// Collector polls a StatsProvider (the catalogue store) on an interval:
//
//	collector := metrics.NewCollector(lib, time.Minute)
//	collector.Start()
//	defer collector.Stop()
//
// A failed poll is logged and the previous values stay in place. Stop
// blocks until the collection loop has exited.
//
// # Exposition
//
// The registry is served by handlers.MetricsHandler on a separate port
// (METRICS_PORT, default 9090) so it is not reachable through the public
// listener. Set METRICS_ENABLED=false to skip that listener entirely; the
// counters are still maintained in memory.
//
// # Example Queries
//
// Request rate by route:
//
//	sum by (path) (rate(media_library_http_requests_total[5m]))
//
// 95th percentile thumbnail render time:
//
//	histogram_quantile(0.95, sum by (le) (rate(media_library_render_duration_seconds_bucket{type="thumbnail"}[5m])))
//
// Prefetch cache hit ratio:
//
//	rate(media_library_cache_hits_total[5m]) /
//	  (rate(media_library_cache_hits_total[5m]) + rate(media_library_cache_misses_total[5m]))
//
// Share of chunks flushed by the timer:
//
//	sum(rate(media_library_chunks_emitted_total{trigger="time"}[5m])) /
//	  sum(rate(media_library_chunks_emitted_total[5m]))
package metrics
