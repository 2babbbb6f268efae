package photolibrary

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"media-library/internal/albums"
	"media-library/internal/authz"
	"media-library/internal/catalog"
	"media-library/internal/importer"
	"media-library/internal/indexer"
	"media-library/internal/library"
	"media-library/internal/logging"
	"media-library/internal/memory"
	"media-library/internal/metrics"
	"media-library/internal/render"
	"media-library/internal/video"
)

const (
	databaseFile = "library.db"
	importFolder = ".imports"

	// placeRadiusKm is how far a gazetteer entry may be from a moment and
	// still name it.
	placeRadiusKm = 25
)

// Config holds everything needed to build a Service.
type Config struct {
	MediaDir    string
	DatabaseDir string

	// AuthMode selects the prompter: grant, deny or prompt.
	AuthMode string
	// Prompter overrides AuthMode when set.
	Prompter    authz.Prompter
	SettingsURL string

	CacheTTL     time.Duration
	PrefetchRate float64
	// EnrichWorkers overrides the enrichment concurrency; 0 picks a default.
	EnrichWorkers int
	FetchTimeout  time.Duration
	// MemoryLimitBytes pauses prefetch renders near the limit; 0 uses
	// GOMEMLIMIT when set.
	MemoryLimitBytes int64

	// Index starts the background indexer. When false the catalogue is
	// only updated by Reindex.
	Index         bool
	IndexInterval time.Duration
	Watch         bool
	MomentGap     time.Duration
	PlacesFile    string
}

// Service is the media library. The zero value is not usable.
type Service struct {
	config Config

	store    *catalog.Store
	gate     *authz.Gate
	prober   *video.Prober
	renderer *render.Renderer
	cache    *render.Cache
	pipeline *library.Pipeline
	albums   *albums.Catalog
	writer   *importer.Writer
	indexer  *indexer.Indexer
	memory   *memory.Monitor

	// ctx outlives individual requests; background work started on
	// behalf of a caller runs under it.
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	closed  bool
	running sync.WaitGroup
}

// New opens the catalogue and wires every component. The returned
// Service must be closed.
func New(ctx context.Context, config Config) (*Service, error) {
	if config.MediaDir == "" {
		return nil, fmt.Errorf("media directory is required")
	}
	if config.DatabaseDir == "" {
		return nil, fmt.Errorf("database directory is required")
	}
	if err := os.MkdirAll(config.DatabaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	prompter := config.Prompter
	if prompter == nil {
		var err error
		prompter, err = authz.PrompterForMode(config.AuthMode)
		if err != nil {
			return nil, err
		}
	}

	var places *indexer.Gazetteer
	if config.PlacesFile != "" {
		var err error
		places, err = indexer.LoadPlaces(config.PlacesFile, placeRadiusKm)
		if err != nil {
			return nil, err
		}
		logging.Info("Loaded %d places from %s", places.Len(), config.PlacesFile)
	}

	store, err := catalog.Open(ctx,
		filepath.Join(config.DatabaseDir, databaseFile),
		filepath.Join(config.MediaDir, importFolder))
	if err != nil {
		return nil, err
	}

	gate, err := authz.NewGate(ctx, store, prompter, authz.URLNavigator{URL: config.SettingsURL})
	if err != nil {
		if closeErr := store.Close(); closeErr != nil {
			logging.Warn("failed to close catalogue: %v", closeErr)
		}
		return nil, err
	}

	prober := video.NewProber()
	renderer := render.NewRenderer(store, prober)

	memConfig := memory.DefaultConfig()
	memConfig.MemoryLimitBytes = config.MemoryLimitBytes
	monitor := memory.NewMonitor(memConfig)

	cacheConfig := render.DefaultCacheConfig()
	cacheConfig.Backpressure = monitor
	if config.CacheTTL > 0 {
		cacheConfig.TTL = config.CacheTTL
	}
	if config.PrefetchRate > 0 {
		cacheConfig.PerSecond = config.PrefetchRate
	}

	var pipelineOpts []library.Option
	if config.EnrichWorkers > 0 {
		pipelineOpts = append(pipelineOpts, library.WithWorkers(config.EnrichWorkers))
	}

	moments := indexer.DefaultMomentConfig()
	if config.MomentGap > 0 {
		moments.Gap = config.MomentGap
	}
	moments.Places = places

	svcCtx, cancel := context.WithCancel(context.Background())
	s := &Service{
		config:   config,
		store:    store,
		gate:     gate,
		prober:   prober,
		renderer: renderer,
		cache:    render.NewCache(renderer, cacheConfig),
		pipeline: library.NewPipeline(store, library.NewMetadataEnricher(store), pipelineOpts...),
		albums:   albums.NewCatalog(store, time.Local),
		writer:   importer.NewWriter(store, prober, importer.Config{FetchTimeout: config.FetchTimeout}),
		indexer: indexer.New(store, prober, indexer.Config{
			MediaDir:      config.MediaDir,
			IndexInterval: config.IndexInterval,
			Watch:         config.Watch,
			Moments:       moments,
		}),
		memory: monitor,
		ctx:    svcCtx,
		cancel: cancel,
	}
	monitor.Start()

	if config.Index {
		if err := s.indexer.Start(svcCtx); err != nil {
			s.Close()
			return nil, err
		}
	}

	return s, nil
}

// Close stops background work and closes the catalogue.
func (s *Service) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.memory.Stop()
	s.cache.Stop()
	s.cancel()
	s.indexer.Stop()
	s.running.Wait()
	return s.store.Close()
}

// Stats reports catalogue totals for the metrics collector.
func (s *Service) Stats(ctx context.Context) (metrics.CatalogStats, error) {
	return s.store.Stats(ctx)
}

// Indexer exposes the background indexer for health reporting.
func (s *Service) Indexer() *indexer.Indexer {
	return s.indexer
}

// Prober exposes the video tool prober for startup reporting.
func (s *Service) Prober() *video.Prober {
	return s.prober
}

// Reindex schedules a full catalogue re-index. It returns immediately;
// an index already in progress absorbs the request.
func (s *Service) Reindex() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.running.Add(1)
	go func() {
		defer s.running.Done()
		if err := s.indexer.Index(s.ctx); err != nil {
			logging.Error("triggered re-index failed: %v", err)
		}
	}()
}

// IndexNow re-indexes the catalogue synchronously.
func (s *Service) IndexNow(ctx context.Context) error {
	return s.indexer.Index(ctx)
}
