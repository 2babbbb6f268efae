package library

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"media-library/internal/catalog"
	"media-library/internal/logging"
	"media-library/internal/metrics"
	"media-library/internal/workers"
)

// AssetSource enumerates catalogue rows.
type AssetSource interface {
	Assets(ctx context.Context, f catalog.Filter) (*catalog.Cursor, error)
	CollectionsContaining(ctx context.Context, assetID string) ([]string, error)
}

// Prefetcher receives the ids of every emitted chunk.
type Prefetcher interface {
	Prefetch(ids ...string)
}

// Pipeline runs getLibrary enumerations.
type Pipeline struct {
	source   AssetSource
	enricher Enricher
	workers  int
	now      func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithWorkers bounds concurrent enrichments.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithClock replaces the clock used by the chunk time trigger.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// NewPipeline builds a pipeline over source.
func NewPipeline(source AssetSource, enricher Enricher, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:   source,
		enricher: enricher,
		workers:  workers.ForIO(32),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run starts an enumeration. The cursor is opened before Run returns so
// catalogue errors surface immediately; everything after is streamed.
// A non-nil prefetch receives the ids of each chunk as it is emitted.
func (p *Pipeline) Run(ctx context.Context, opts Options, prefetch Prefetcher) (*Stream, error) {
	ctx, cancel := context.WithCancel(ctx)

	cursor, err := p.source.Assets(ctx, opts.Filter())
	if err != nil {
		cancel()
		metrics.EnumerationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to enumerate assets: %w", err)
	}

	out := make(chan Chunk, 1)
	s := &Stream{
		C:      out,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		defer close(out)
		defer cancel()
		defer func() {
			if err := cursor.Close(); err != nil {
				logging.Warn("failed to close asset cursor: %v", err)
			}
		}()
		s.err = p.run(ctx, cursor, opts, prefetch, out)
	}()

	return s, nil
}

func (p *Pipeline) run(ctx context.Context, cursor *catalog.Cursor, opts Options, prefetch Prefetcher, out chan<- Chunk) error {
	start := time.Now()

	var total atomic.Int64
	total.Store(-1)

	items := make(chan *LibraryItem, p.workers)
	completed := make(chan LibraryItem, p.workers)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(items)
		return p.enumerate(gctx, cursor, opts, items, &total)
	})

	g.Go(func() error {
		defer close(completed)
		var fan errgroup.Group
		fan.SetLimit(p.workers)
		for item := range items {
			fan.Go(func() error {
				p.enricher.Enrich(gctx, item)
				if err := gctx.Err(); err != nil {
					return err
				}
				select {
				case completed <- *item:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		}
		return fan.Wait()
	})

	asm := newAssembler(opts, p.now)
	emitted := 0
	lastSent := false
	send := func(c Chunk, trigger string) bool {
		if ctx.Err() != nil {
			return false
		}
		select {
		case out <- c:
			metrics.ChunksEmitted.WithLabelValues(trigger).Inc()
			emitted += len(c.Library)
			lastSent = c.IsLastChunk
			if prefetch != nil && len(c.Library) > 0 {
				ids := make([]string, len(c.Library))
				for i := range c.Library {
					ids[i] = c.Library[i].ID
				}
				prefetch.Prefetch(ids...)
			}
			return true
		case <-ctx.Done():
			return false
		}
	}

	for item := range completed {
		if c, trigger, ok := asm.add(item, total.Load()); ok {
			if !send(c, trigger) {
				break
			}
		}
	}

	err := g.Wait()
	if err == nil && !lastSent {
		err = ctx.Err()
	}

	// Only an empty enumeration reaches here without a final chunk.
	if err == nil && !lastSent {
		if !send(asm.finish(), "last") {
			err = ctx.Err()
		}
	}

	status := "complete"
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = "canceled"
	case err != nil:
		status = "error"
	}
	metrics.EnumerationsTotal.WithLabelValues(status).Inc()
	metrics.EnumerationItems.Observe(float64(emitted))
	logging.Debug("Enumeration %s: %d items in %d chunks (%v)", status, emitted, asm.chunkNum, time.Since(start))

	return err
}

// enumerate walks the cursor with one row of lookahead so the final item
// is marked before it is dispatched.
func (p *Pipeline) enumerate(ctx context.Context, cursor *catalog.Cursor, opts Options, items chan<- *LibraryItem, total *atomic.Int64) error {
	dispatch := func(item *LibraryItem) error {
		select {
		case items <- item:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	var pending *LibraryItem
	var count int64
	for cursor.Next() {
		item := ItemFromAsset(cursor.Asset(), opts.UseOriginalFileNames)
		if opts.IncludeAlbumData {
			ids, err := p.source.CollectionsContaining(ctx, item.ID)
			if err != nil {
				logging.Warn("Album lookup failed for %s: %v", item.ID, err)
			}
			item.AlbumIDs = ids
		}

		if pending != nil {
			if err := dispatch(pending); err != nil {
				return err
			}
		}
		pending = &item
		count++
	}
	if err := cursor.Err(); err != nil {
		return fmt.Errorf("asset cursor: %w", err)
	}

	total.Store(count)
	if pending != nil {
		return dispatch(pending)
	}
	return nil
}
