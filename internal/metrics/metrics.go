package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_library_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_library_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_library_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Catalogue database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_library_db_queries_total",
			Help: "Total number of catalogue queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_library_db_query_duration_seconds",
			Help:    "Catalogue query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_library_db_transaction_duration_seconds",
			Help:    "Catalogue transaction duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		},
		[]string{"result"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_library_db_connections_open",
			Help: "Number of open catalogue connections",
		},
	)

	DBSizeBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_library_db_size_bytes",
			Help: "Size of SQLite catalogue files in bytes",
		},
		[]string{"file"}, // "main", "wal"
	)
)

// Library pipeline metrics
var (
	EnumerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_library_enumerations_total",
			Help: "Total number of getLibrary enumerations by outcome",
		},
		[]string{"status"}, // "complete", "canceled", "error", "denied"
	)

	EnumerationItems = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_library_enumeration_items",
			Help:    "Number of items emitted per enumeration",
			Buckets: prometheus.ExponentialBuckets(1, 4, 9),
		},
	)

	ChunksEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_library_chunks_emitted_total",
			Help: "Chunks flushed by the assembler, by trigger",
		},
		[]string{"trigger"}, // "last", "size", "time"
	)

	EnrichmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_library_enrichments_total",
			Help: "Item enrichments by media kind and outcome",
		},
		[]string{"kind", "status"}, // status: "resolved", "unresolved"
	)

	EnrichmentDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_library_enrichment_duration_seconds",
			Help:    "Time spent enriching a single item",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"kind"},
	)

	EnrichmentsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_library_enrichments_in_flight",
			Help: "Number of enrichments currently running",
		},
	)
)

// Render and prefetch cache metrics
var (
	RendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_library_renders_total",
			Help: "Image renders by request type and outcome",
		},
		[]string{"type", "status"}, // type: "thumbnail", "photo"; status: "success", "unavailable"
	)

	RenderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_library_render_duration_seconds",
			Help:    "Render duration by request type",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"type"},
	)

	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_library_cache_hits_total",
			Help: "Thumbnail requests served from the prefetch cache",
		},
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_library_cache_misses_total",
			Help: "Thumbnail requests rendered on demand",
		},
	)

	CacheActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_library_cache_active",
			Help: "Whether a prefetch caching session is active (1 = active)",
		},
	)

	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_library_cache_entries",
			Help: "Number of rendered images held by the prefetch cache",
		},
	)

	PrefetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_library_prefetch_total",
			Help: "Prefetch requests by outcome",
		},
		[]string{"status"}, // "rendered", "dropped", "unavailable"
	)
)

// Authorization and import metrics
var (
	AuthorizationRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_library_authorization_requests_total",
			Help: "Authorization requests by capability and outcome",
		},
		[]string{"capability", "outcome"},
	)

	ImportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_library_imports_total",
			Help: "MediaWriter imports by kind and outcome",
		},
		[]string{"kind", "status"},
	)

	ImportBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_library_import_bytes_total",
			Help: "Bytes written into the store by MediaWriter",
		},
		[]string{"kind"},
	)
)

// Indexer metrics
var (
	IndexerRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_library_indexer_runs_total",
			Help: "Total number of indexer runs",
		},
	)

	IndexerLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_library_indexer_last_run_timestamp",
			Help: "Timestamp of the last indexer run",
		},
	)

	IndexerLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_library_indexer_last_run_duration_seconds",
			Help: "Duration of the last indexer run in seconds",
		},
	)

	IndexerFilesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_library_indexer_files_processed_total",
			Help: "Total number of media files processed by the indexer",
		},
	)

	IndexerErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_library_indexer_errors_total",
			Help: "Total number of indexer errors",
		},
	)

	IndexerIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_library_indexer_running",
			Help: "Whether the indexer is currently running (1 = running, 0 = idle)",
		},
	)

	IndexerParallelWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_library_indexer_parallel_workers",
			Help: "Number of workers used by the last parallel walk",
		},
	)

	IndexerMomentsBuilt = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_library_indexer_moments",
			Help: "Number of moments produced by the last clustering pass",
		},
	)

	WatcherEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_library_watcher_events_total",
			Help: "Filesystem watcher events by operation",
		},
		[]string{"op"},
	)

	WatcherErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_library_watcher_errors_total",
			Help: "Filesystem watcher errors",
		},
	)

	WatchedDirectories = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_library_watched_directories",
			Help: "Number of directories under fsnotify watch",
		},
	)
)

// Catalogue content metrics, refreshed by the Collector
var (
	AssetsTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_library_assets",
			Help: "Number of catalogued assets by media kind",
		},
		[]string{"kind"},
	)

	CollectionsTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_library_collections",
			Help: "Number of collections by kind",
		},
		[]string{"kind"}, // "album", "smart", "moment"
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_library_filesystem_operation_duration_seconds",
			Help:    "Filesystem operation duration by volume and operation",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_library_filesystem_operation_errors_total",
			Help: "Filesystem operation errors by volume and operation",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_library_filesystem_retry_attempts_total",
			Help: "Retries caused by stale NFS file handles",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_library_filesystem_retry_success_total",
			Help: "Operations that succeeded after at least one retry",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_library_filesystem_retry_failures_total",
			Help: "Operations that failed after exhausting retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_library_filesystem_retry_duration_seconds",
			Help:    "Total time spent in retried filesystem operations",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_library_filesystem_stale_errors_total",
			Help: "ESTALE errors observed",
		},
		[]string{"operation", "volume"},
	)
)

// Memory backpressure metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_library_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the configured memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_library_memory_paused",
			Help: "Whether background rendering is paused for memory (1 = paused)",
		},
	)

	MemoryPausesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_library_memory_pauses_total",
			Help: "Total number of times background rendering paused for memory",
		},
	)
)

// AppInfo exposes build information as labels
var AppInfo = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "media_library_app_info",
		Help: "Application build information",
	},
	[]string{"version", "commit", "go_version"},
)
