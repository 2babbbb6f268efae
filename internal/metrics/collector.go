package metrics

import (
	"context"
	"time"

	"media-library/internal/logging"
)

// CatalogStats is a snapshot of catalogue content counts.
type CatalogStats struct {
	Images   int
	Videos   int
	Audio    int
	Other    int
	Albums   int
	Smart    int
	Moments  int
	DBBytes  int64
	WALBytes int64
}

// StatsProvider is implemented by the catalogue store.
type StatsProvider interface {
	Stats(ctx context.Context) (CatalogStats, error)
}

// Collector periodically refreshes catalogue content gauges.
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
	done          chan struct{}
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the collection loop and waits for it to exit.
func (c *Collector) Stop() {
	close(c.stopChan)
	<-c.done
}

func (c *Collector) collectLoop() {
	defer close(c.done)

	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stats, err := c.statsProvider.Stats(ctx)
	if err != nil {
		logging.Warn("Metrics collection failed: %v", err)
		return
	}

	AssetsTotal.WithLabelValues("image").Set(float64(stats.Images))
	AssetsTotal.WithLabelValues("video").Set(float64(stats.Videos))
	AssetsTotal.WithLabelValues("audio").Set(float64(stats.Audio))
	AssetsTotal.WithLabelValues("other").Set(float64(stats.Other))
	CollectionsTotal.WithLabelValues("album").Set(float64(stats.Albums))
	CollectionsTotal.WithLabelValues("smart").Set(float64(stats.Smart))
	CollectionsTotal.WithLabelValues("moment").Set(float64(stats.Moments))
	DBSizeBytes.WithLabelValues("main").Set(float64(stats.DBBytes))
	DBSizeBytes.WithLabelValues("wal").Set(float64(stats.WALBytes))

	logging.Debug("Metrics collected: images=%d, videos=%d, albums=%d, moments=%d",
		stats.Images, stats.Videos, stats.Albums, stats.Moments)
}
