package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"media-library/internal/catalog"
	"media-library/internal/logging"
	"media-library/internal/metrics"
	"media-library/internal/video"
)

const (
	// Minimum files to index before marking server as ready
	minFilesForReady = 100

	// Delay between batches to allow other operations
	batchDelay = 10 * time.Millisecond
)

// Config configures an Indexer.
type Config struct {
	// MediaDir is the root of the media store.
	MediaDir string
	// IndexInterval is the period of full re-indexes; 0 disables them.
	IndexInterval time.Duration
	// Watch enables fsnotify change detection.
	Watch bool
	// Debounce is the quiet period after a change before re-indexing.
	Debounce time.Duration
	// Moments controls moment clustering.
	Moments MomentConfig
}

// Indexer manages the indexing of media files in the media directory.
type Indexer struct {
	store  *catalog.Store
	prober *video.Prober
	config Config

	cancel               context.CancelFunc
	wg                   sync.WaitGroup
	stopOnce             sync.Once
	indexMu              sync.Mutex
	isIndexing           bool
	lastIndexTime        time.Time
	initialIndexComplete bool
	initialIndexError    error
	startTime            time.Time

	// Progress tracking
	filesIndexed   atomic.Int64
	foldersIndexed atomic.Int64
	indexProgress  atomic.Value

	// Parallel walker configuration
	parallelConfig ParallelWalkerConfig

	// Callback when indexing completes
	onIndexComplete func()
}

// IndexProgress tracks the current indexing progress
type IndexProgress struct {
	FilesIndexed   int64     `json:"filesIndexed"`
	FoldersIndexed int64     `json:"foldersIndexed"`
	IsIndexing     bool      `json:"isIndexing"`
	StartedAt      time.Time `json:"startedAt,omitempty"`
}

// New creates a new Indexer. prober may be nil.
func New(store *catalog.Store, prober *video.Prober, config Config) *Indexer {
	if config.Moments.Gap <= 0 {
		config.Moments.Gap = DefaultMomentConfig().Gap
	}
	idx := &Indexer{
		store:          store,
		prober:         prober,
		config:         config,
		startTime:      time.Now(),
		parallelConfig: DefaultParallelWalkerConfig(),
	}
	idx.indexProgress.Store(IndexProgress{})
	return idx
}

// SetParallelConfig sets the parallel walker configuration.
func (idx *Indexer) SetParallelConfig(config ParallelWalkerConfig) {
	idx.parallelConfig = config
}

// SetOnIndexComplete sets a callback to be invoked when indexing completes.
func (idx *Indexer) SetOnIndexComplete(callback func()) {
	idx.onIndexComplete = callback
}

// Start runs the initial index in the background and starts change
// detection and periodic re-indexing. Everything stops when ctx is done
// or Stop is called.
func (idx *Indexer) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	idx.cancel = cancel

	var w *watcher
	if idx.config.Watch {
		var err error
		w, err = newWatcher(idx.config.MediaDir, idx.config.Debounce, func() { idx.TriggerIndex(ctx) })
		if err != nil {
			cancel()
			return fmt.Errorf("failed to start file watcher: %w", err)
		}
	}

	idx.wg.Add(1)
	go func() {
		defer idx.wg.Done()
		logging.Info("Starting initial index in background...")
		if err := idx.Index(ctx); err != nil {
			logging.Error("Initial index error: %v", err)
			idx.indexMu.Lock()
			idx.initialIndexError = err
			idx.indexMu.Unlock()
		}
	}()

	if w != nil {
		idx.wg.Add(1)
		go func() {
			defer idx.wg.Done()
			w.run(ctx)
		}()
	}

	if idx.config.IndexInterval > 0 {
		idx.wg.Add(1)
		go func() {
			defer idx.wg.Done()
			idx.periodicIndex(ctx)
		}()
	}

	return nil
}

// Stop cancels running work and waits for background goroutines.
func (idx *Indexer) Stop() {
	idx.stopOnce.Do(func() {
		if idx.cancel != nil {
			idx.cancel()
		}
		idx.wg.Wait()
	})
}

// IsReady returns true if the server is ready to accept traffic.
func (idx *Indexer) IsReady() bool {
	if idx.filesIndexed.Load() >= minFilesForReady {
		return true
	}

	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	return idx.initialIndexComplete
}

// getProgress safely retrieves the current IndexProgress.
func (idx *Indexer) getProgress() IndexProgress {
	if progress, ok := idx.indexProgress.Load().(IndexProgress); ok {
		return progress
	}
	return IndexProgress{}
}

// GetHealthStatus returns detailed health information.
func (idx *Indexer) GetHealthStatus() HealthStatus {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()

	progress := idx.getProgress()

	status := HealthStatus{
		Ready:          idx.initialIndexComplete || idx.filesIndexed.Load() >= minFilesForReady,
		Indexing:       idx.isIndexing,
		StartTime:      idx.startTime,
		Uptime:         time.Since(idx.startTime).String(),
		LastIndexed:    idx.lastIndexTime,
		FilesIndexed:   idx.filesIndexed.Load(),
		FoldersIndexed: idx.foldersIndexed.Load(),
	}

	if idx.isIndexing {
		status.IndexProgress = &progress
	}

	if idx.initialIndexError != nil {
		status.InitialIndexError = idx.initialIndexError.Error()
	}

	return status
}

// HealthStatus contains health check information.
type HealthStatus struct {
	Ready             bool           `json:"ready"`
	Indexing          bool           `json:"indexing"`
	StartTime         time.Time      `json:"startTime"`
	Uptime            string         `json:"uptime"`
	LastIndexed       time.Time      `json:"lastIndexed,omitempty"`
	InitialIndexError string         `json:"initialIndexError,omitempty"`
	FilesIndexed      int64          `json:"filesIndexed"`
	FoldersIndexed    int64          `json:"foldersIndexed"`
	IndexProgress     *IndexProgress `json:"indexProgress,omitempty"`
}

// Index performs a full index of the media directory. A call while an
// index is running returns immediately.
func (idx *Indexer) Index(ctx context.Context) error {
	if !idx.tryStartIndexing() {
		logging.Info("Index already in progress, skipping...")
		return nil
	}
	defer idx.finishIndexing()

	metrics.IndexerIsRunning.Set(1)
	defer metrics.IndexerIsRunning.Set(0)
	metrics.IndexerRunsTotal.Inc()

	startTime := time.Now()
	logging.Info("Starting file indexing...")
	idx.resetCounters(startTime)

	// An unreachable root must not look like an empty library.
	if _, err := os.Stat(idx.config.MediaDir); err != nil {
		metrics.IndexerErrors.Inc()
		return fmt.Errorf("media directory unavailable: %w", err)
	}

	walker := NewParallelWalker(ctx, idx.config.MediaDir, idx.prober, idx.parallelConfig)
	entries, err := walker.Walk()
	if err != nil {
		metrics.IndexerErrors.Inc()
		return fmt.Errorf("parallel walk error: %w", err)
	}

	totalFiles, totalFolders, _ := walker.Stats()
	idx.foldersIndexed.Store(totalFolders)

	if err := idx.processBatchedEntries(ctx, entries, startTime); err != nil {
		metrics.IndexerErrors.Inc()
		return err
	}

	if err := idx.linkAlbums(ctx, entries); err != nil {
		logging.Error("Error linking folder albums: %v", err)
		metrics.IndexerErrors.Inc()
	}

	if err := idx.cleanupMissingFiles(ctx, startTime); err != nil {
		logging.Error("Error cleaning up missing files: %v", err)
		metrics.IndexerErrors.Inc()
	}

	if err := idx.rebuildMoments(ctx); err != nil {
		logging.Error("Error rebuilding moments: %v", err)
		metrics.IndexerErrors.Inc()
	}

	idx.finalizeIndex(startTime, totalFiles, totalFolders)

	metrics.IndexerLastRunTimestamp.Set(float64(time.Now().Unix()))
	metrics.IndexerLastRunDuration.Set(time.Since(startTime).Seconds())
	metrics.IndexerFilesProcessed.Add(float64(totalFiles))

	return nil
}

// processBatchedEntries upserts entries in batches; each entry's asset id
// is filled in from the catalogue.
func (idx *Indexer) processBatchedEntries(ctx context.Context, entries []Entry, seenAt time.Time) error {
	total := len(entries)
	batchSize := max(idx.parallelConfig.BatchSize, 1)
	logging.Info("Processing %d files in batches of %d", total, batchSize)

	assets := make([]catalog.Asset, total)
	for i := range entries {
		assets[i] = entries[i].Asset
	}

	for i := 0; i < total; i += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := min(i+batchSize, total)
		if err := idx.store.UpsertAssets(ctx, assets[i:end], seenAt); err != nil {
			return fmt.Errorf("failed to upsert batch: %w", err)
		}
		for j := i; j < end; j++ {
			entries[j].Asset.ID = assets[j].ID
		}

		idx.filesIndexed.Store(int64(end))
		idx.updateProgress(seenAt)

		if end < total {
			time.Sleep(batchDelay)
		}
		if end%5000 == 0 || end == total {
			logging.Info("Catalogue upsert progress: %d/%d files", end, total)
		}
	}
	return nil
}

// linkAlbums files entries under the album named by their folder.
func (idx *Indexer) linkAlbums(ctx context.Context, entries []Entry) error {
	byAlbum := make(map[string][]string)
	for _, e := range entries {
		if e.Album != "" && e.Asset.ID != "" {
			byAlbum[e.Album] = append(byAlbum[e.Album], e.Asset.ID)
		}
	}

	var errs []error
	for title, ids := range byAlbum {
		col, created, err := idx.store.GetOrCreateAlbum(ctx, title)
		if err != nil {
			errs = append(errs, fmt.Errorf("album %q: %w", title, err))
			continue
		}
		if created {
			logging.Info("Created album %q from folder", title)
		}
		if err := idx.store.LinkAssets(ctx, col.ID, ids...); err != nil {
			errs = append(errs, fmt.Errorf("album %q: %w", title, err))
		}
	}
	return errors.Join(errs...)
}

// cleanupMissingFiles removes indexed assets whose files were not seen in
// this run, then drops folder albums left empty and refreshes smart albums.
func (idx *Indexer) cleanupMissingFiles(ctx context.Context, indexTime time.Time) error {
	deleted, err := idx.store.DeleteMissingAssets(ctx, indexTime)
	if err != nil {
		return err
	}
	if deleted > 0 {
		logging.Info("Removed %d missing files from catalogue", deleted)
	}

	pruned, err := idx.store.PruneEmptyAlbums(ctx)
	if err != nil {
		return err
	}
	if pruned > 0 {
		logging.Info("Removed %d empty albums", pruned)
	}

	return idx.store.RefreshSmartAlbums(ctx)
}

// rebuildMoments re-clusters every catalogued asset into moments.
func (idx *Indexer) rebuildMoments(ctx context.Context) error {
	cursor, err := idx.store.Assets(ctx, catalog.Filter{IncludeImages: true, IncludeVideos: true, IncludeCloud: true})
	if err != nil {
		return err
	}
	defer cursor.Close()

	var points []momentPoint
	for cursor.Next() {
		a := cursor.Asset()
		points = append(points, momentPoint{id: a.ID, taken: a.CreationDate, lat: a.Latitude, lon: a.Longitude})
	}
	if err := cursor.Err(); err != nil {
		return err
	}

	moments := clusterMoments(points, idx.config.Moments)
	if err := idx.store.ReplaceMoments(ctx, moments); err != nil {
		return err
	}
	metrics.IndexerMomentsBuilt.Set(float64(len(moments)))
	logging.Debug("Clustered %d assets into %d moments", len(points), len(moments))
	return nil
}

// tryStartIndexing attempts to start indexing, returns false if already in progress.
func (idx *Indexer) tryStartIndexing() bool {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()

	if idx.isIndexing {
		return false
	}
	idx.isIndexing = true
	return true
}

// finishIndexing marks indexing as complete.
func (idx *Indexer) finishIndexing() {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()

	idx.isIndexing = false
	idx.initialIndexComplete = true

	progress := idx.getProgress()
	progress.IsIndexing = false
	idx.indexProgress.Store(progress)
}

// resetCounters resets the indexing counters.
func (idx *Indexer) resetCounters(startTime time.Time) {
	idx.filesIndexed.Store(0)
	idx.foldersIndexed.Store(0)
	idx.indexProgress.Store(IndexProgress{
		IsIndexing: true,
		StartedAt:  startTime,
	})
}

// updateProgress updates the indexing progress.
func (idx *Indexer) updateProgress(startTime time.Time) {
	idx.indexProgress.Store(IndexProgress{
		FilesIndexed:   idx.filesIndexed.Load(),
		FoldersIndexed: idx.foldersIndexed.Load(),
		IsIndexing:     true,
		StartedAt:      startTime,
	})
}

// finalizeIndex records completion and notifies the callback.
func (idx *Indexer) finalizeIndex(startTime time.Time, totalFiles, totalFolders int64) {
	duration := time.Since(startTime)

	idx.indexMu.Lock()
	idx.lastIndexTime = time.Now()
	idx.indexMu.Unlock()

	idx.indexProgress.Store(IndexProgress{
		FilesIndexed:   totalFiles,
		FoldersIndexed: totalFolders,
		IsIndexing:     false,
	})

	logging.Info("Index complete: %d files, %d folders in %v", totalFiles, totalFolders, duration)

	if idx.onIndexComplete != nil {
		idx.onIndexComplete()
	}
}

func (idx *Indexer) periodicIndex(ctx context.Context) {
	ticker := time.NewTicker(idx.config.IndexInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			logging.Debug("Periodic re-index triggered")
			if err := idx.Index(ctx); err != nil {
				logging.Error("periodic re-index failed: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// IsIndexing returns whether an index operation is currently in progress.
func (idx *Indexer) IsIndexing() bool {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	return idx.isIndexing
}

// LastIndexTime returns the time of the last completed index operation.
func (idx *Indexer) LastIndexTime() time.Time {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	return idx.lastIndexTime
}

// TriggerIndex starts a re-index in the background.
func (idx *Indexer) TriggerIndex(ctx context.Context) {
	go func() {
		if err := idx.Index(ctx); err != nil {
			logging.Error("triggered re-index failed: %v", err)
		}
	}()
}

// GetProgress returns the current indexing progress.
func (idx *Indexer) GetProgress() IndexProgress {
	return idx.getProgress()
}
