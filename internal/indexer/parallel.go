package indexer

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"media-library/internal/catalog"
	"media-library/internal/logging"
	"media-library/internal/metrics"
	"media-library/internal/video"
)

// ParallelWalkerConfig configures the parallel directory walker
type ParallelWalkerConfig struct {
	// NumWorkers is the number of parallel workers
	NumWorkers int
	// BatchSize is the number of assets per catalogue upsert
	BatchSize int
	// ChannelBuffer is the size of the work channel buffer
	ChannelBuffer int
	// SkipHidden skips files and directories starting with "."
	SkipHidden bool
}

// DefaultParallelWalkerConfig returns sensible defaults based on available resources
func DefaultParallelWalkerConfig() ParallelWalkerConfig {
	// 3 workers is safe for NFS; INDEX_WORKERS overrides it
	numWorkers := 3
	if override := os.Getenv("INDEX_WORKERS"); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			numWorkers = count
		}
	}

	return ParallelWalkerConfig{
		NumWorkers:    numWorkers,
		BatchSize:     500,
		ChannelBuffer: 1000,
		SkipHidden:    true,
	}
}

// fileJob represents a file to be processed
type fileJob struct {
	path    string
	info    os.FileInfo
	relPath string
}

// Entry is one walked media file.
type Entry struct {
	Asset catalog.Asset
	// Album is the user album the file belongs to, empty for none.
	Album string
}

// fileResult represents a processed file
type fileResult struct {
	entry *Entry
	err   error
}

// ParallelWalker walks directories in parallel
type ParallelWalker struct {
	config   ParallelWalkerConfig
	mediaDir string
	prober   *video.Prober

	// Channels
	jobs    chan fileJob
	results chan fileResult

	// Synchronization
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	// Statistics
	filesProcessed   atomic.Int64
	foldersProcessed atomic.Int64
	errorsCount      atomic.Int64
}

// NewParallelWalker creates a new parallel directory walker. prober may be
// nil, in which case video duration and size stay unknown.
func NewParallelWalker(ctx context.Context, mediaDir string, prober *video.Prober, config ParallelWalkerConfig) *ParallelWalker {
	if config.NumWorkers <= 0 {
		config.NumWorkers = 1
	}
	ctx, cancel := context.WithCancel(ctx)

	return &ParallelWalker{
		config:   config,
		mediaDir: mediaDir,
		prober:   prober,
		jobs:     make(chan fileJob, config.ChannelBuffer),
		results:  make(chan fileResult, config.ChannelBuffer),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Walk performs a parallel walk of the directory tree and returns every
// catalogued media file found. A cancelled walk returns what was found so
// far together with the context error.
func (pw *ParallelWalker) Walk() ([]Entry, error) {
	logging.Info("Starting parallel directory walk with %d workers", pw.config.NumWorkers)
	startTime := time.Now()

	metrics.IndexerParallelWorkers.Set(float64(pw.config.NumWorkers))

	for i := 0; i < pw.config.NumWorkers; i++ {
		pw.wg.Add(1)
		go pw.worker(i)
	}

	var entries []Entry
	var collectorWg sync.WaitGroup

	collectorWg.Add(1)
	go func() {
		defer collectorWg.Done()
		for result := range pw.results {
			if result.err != nil {
				pw.errorsCount.Add(1)
				logging.Debug("Error processing file: %v", result.err)
				continue
			}
			if result.entry != nil {
				entries = append(entries, *result.entry)
			}
		}
	}()

	err := pw.walkAndEnqueue()

	// Close jobs channel to signal workers to stop
	close(pw.jobs)
	pw.wg.Wait()
	close(pw.results)
	collectorWg.Wait()

	logging.Info("Parallel walk complete: %d files, %d folders in %v (errors: %d)",
		pw.filesProcessed.Load(),
		pw.foldersProcessed.Load(),
		time.Since(startTime),
		pw.errorsCount.Load())

	if err != nil {
		return entries, err
	}
	return entries, pw.ctx.Err()
}

// walkAndEnqueue walks the directory tree and sends jobs to workers
func (pw *ParallelWalker) walkAndEnqueue() error {
	return filepath.WalkDir(pw.mediaDir, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-pw.ctx.Done():
			return fs.SkipAll
		default:
		}

		if err != nil {
			logging.Warn("Error accessing path %s: %v", path, err)
			return nil // Continue walking
		}

		relPath, err := filepath.Rel(pw.mediaDir, path)
		if err != nil || relPath == "." {
			//nolint:nilerr // skip this entry, keep walking
			return nil
		}

		if pw.config.SkipHidden && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			pw.foldersProcessed.Add(1)
			return nil
		}

		info, err := d.Info()
		if err != nil {
			logging.Warn("Error getting info for %s: %v", path, err)
			return nil
		}

		select {
		case pw.jobs <- fileJob{path: path, info: info, relPath: relPath}:
		case <-pw.ctx.Done():
			return fs.SkipAll
		}
		return nil
	})
}

// worker processes files from the jobs channel
func (pw *ParallelWalker) worker(id int) {
	defer pw.wg.Done()

	logging.Debug("Worker %d started", id)

	for job := range pw.jobs {
		if pw.ctx.Err() != nil {
			continue // drain so the walker never blocks
		}

		entry, err := describe(pw.ctx, pw.prober, job)
		if err == nil && entry != nil {
			pw.filesProcessed.Add(1)
		}

		select {
		case pw.results <- fileResult{entry: entry, err: err}:
		case <-pw.ctx.Done():
		}
	}

	logging.Debug("Worker %d finished", id)
}

// Stop cancels the parallel walk
func (pw *ParallelWalker) Stop() {
	pw.cancel()
}

// Stats returns current processing statistics
func (pw *ParallelWalker) Stats() (files, folders, errors int64) {
	return pw.filesProcessed.Load(), pw.foldersProcessed.Load(), pw.errorsCount.Load()
}
