package render

import (
	"context"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"media-library/internal/logging"
	"media-library/internal/metrics"
	"media-library/internal/workers"
)

// Thumbnailer renders a single thumbnail.
type Thumbnailer interface {
	Thumbnail(ctx context.Context, id string, spec Spec) (*RenderedImage, error)
}

// Backpressure holds prefetch renders back, for example while memory is
// short. Wait returns an error only when ctx ends.
type Backpressure interface {
	Wait(ctx context.Context) error
}

// CacheConfig tunes the prefetch cache.
type CacheConfig struct {
	// TTL is how long a rendered thumbnail is kept.
	TTL time.Duration
	// PerSecond caps prefetch renders; 0 means unlimited.
	PerSecond float64
	// Workers is the number of concurrent prefetch renders.
	Workers int
	// QueueSize bounds pending prefetch ids; extra ids are dropped.
	QueueSize int
	// Backpressure, when set, is consulted before every prefetch render.
	Backpressure Backpressure
}

// DefaultCacheConfig returns the cache settings used by the service.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:       10 * time.Minute,
		PerSecond: 20,
		Workers:   workers.ForCPU(4),
		QueueSize: 1024,
	}
}

// Cache renders thumbnails ahead of requests for one caching session at
// a time. Start and Stop are mutually exclusive.
type Cache struct {
	renderer Thumbnailer
	config   CacheConfig

	mu      sync.Mutex
	session *session
}

type session struct {
	spec    Spec
	store   *gocache.Cache
	queue   chan string
	limiter *rate.Limiter
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewCache returns an idle cache in front of renderer.
func NewCache(renderer Thumbnailer, config CacheConfig) *Cache {
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 1024
	}
	if config.TTL <= 0 {
		config.TTL = 10 * time.Minute
	}
	return &Cache{renderer: renderer, config: config}
}

func cacheKey(id string, spec Spec) string {
	return fmt.Sprintf("%s:%dx%d:%g", id, spec.Width, spec.Height, spec.Quality)
}

// Start begins a caching session for spec, stopping any active session
// first.
func (c *Cache) Start(spec Spec) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()

	limit := rate.Inf
	burst := 1
	if c.config.PerSecond > 0 {
		limit = rate.Limit(c.config.PerSecond)
		burst = max(1, int(c.config.PerSecond))
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		spec:    Spec{Width: spec.Width, Height: spec.Height, Quality: spec.Quality},
		store:   gocache.New(c.config.TTL, 2*c.config.TTL),
		queue:   make(chan string, c.config.QueueSize),
		limiter: rate.NewLimiter(limit, burst),
		ctx:     ctx,
		cancel:  cancel,
	}

	for range c.config.Workers {
		s.wg.Add(1)
		go c.worker(s)
	}

	c.session = s
	metrics.CacheActive.Set(1)
	logging.Debug("Prefetch cache started (%dx%d q=%.2f, %d workers)", spec.Width, spec.Height, spec.Quality, c.config.Workers)
}

// Stop ends the active session, cancelling outstanding prefetches and
// releasing every cached render. It is a no-op when idle.
func (c *Cache) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Cache) stopLocked() {
	s := c.session
	if s == nil {
		return
	}
	c.session = nil

	s.cancel()
	s.wg.Wait()
	s.store.Flush()

	metrics.CacheActive.Set(0)
	metrics.CacheEntries.Set(0)
	logging.Debug("Prefetch cache stopped")
}

// Active reports whether a session is running.
func (c *Cache) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

// Prefetch queues ids for rendering in the active session. Without a
// session it does nothing; ids that do not fit in the queue are dropped.
func (c *Cache) Prefetch(ids ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.session
	if s == nil {
		return
	}
	for _, id := range ids {
		select {
		case s.queue <- id:
		default:
			metrics.PrefetchTotal.WithLabelValues("dropped").Inc()
		}
	}
}

func (c *Cache) worker(s *session) {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case id := <-s.queue:
			key := cacheKey(id, s.spec)
			if _, ok := s.store.Get(key); ok {
				continue
			}
			if bp := c.config.Backpressure; bp != nil {
				if err := bp.Wait(s.ctx); err != nil {
					return
				}
			}
			if err := s.limiter.Wait(s.ctx); err != nil {
				return
			}
			img, err := c.renderer.Thumbnail(s.ctx, id, s.spec)
			if err != nil {
				metrics.PrefetchTotal.WithLabelValues("unavailable").Inc()
				logging.Debug("Prefetch %s: %v", id, err)
				continue
			}
			if s.ctx.Err() != nil {
				return
			}
			s.store.SetDefault(key, img)
			metrics.PrefetchTotal.WithLabelValues("rendered").Inc()
			metrics.CacheEntries.Set(float64(s.store.ItemCount()))
		}
	}
}

// Thumbnail serves a render from the active session when it was
// prefetched with the same size and quality, and renders on demand
// otherwise.
func (c *Cache) Thumbnail(ctx context.Context, id string, spec Spec) (*RenderedImage, error) {
	if img, ok := c.lookup(id, spec); ok {
		metrics.CacheHits.Inc()
		if spec.DataURL {
			return img.AsDataURL(), nil
		}
		return img, nil
	}
	metrics.CacheMisses.Inc()

	raw := spec
	raw.DataURL = false
	img, err := c.renderer.Thumbnail(ctx, id, raw)
	if err != nil {
		return nil, err
	}
	c.remember(id, spec, img)

	if spec.DataURL {
		return img.AsDataURL(), nil
	}
	return img, nil
}

func (c *Cache) lookup(id string, spec Spec) (*RenderedImage, bool) {
	c.mu.Lock()
	s := c.session
	c.mu.Unlock()
	if s == nil || !sameSize(s.spec, spec) {
		return nil, false
	}
	v, ok := s.store.Get(cacheKey(id, s.spec))
	if !ok {
		return nil, false
	}
	return v.(*RenderedImage), true
}

func (c *Cache) remember(id string, spec Spec, img *RenderedImage) {
	c.mu.Lock()
	s := c.session
	c.mu.Unlock()
	if s == nil || !sameSize(s.spec, spec) {
		return
	}
	s.store.SetDefault(cacheKey(id, s.spec), img)
	metrics.CacheEntries.Set(float64(s.store.ItemCount()))
}

func sameSize(a, b Spec) bool {
	return a.Width == b.Width && a.Height == b.Height && a.Quality == b.Quality
}
