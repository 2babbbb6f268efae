package library

import (
	"context"
	"errors"
	"time"

	"media-library/internal/catalog"
	"media-library/internal/logging"
	"media-library/internal/mediatypes"
	"media-library/internal/metadata"
	"media-library/internal/metrics"
)

// Enricher augments a single item in place. It must not fail the item:
// anything it cannot resolve stays nil.
type Enricher interface {
	Enrich(ctx context.Context, item *LibraryItem)
}

// ResourceSource gives access to stored asset bytes.
type ResourceSource interface {
	ReadAsset(ctx context.Context, id string) ([]byte, catalog.Asset, error)
	VideoResource(ctx context.Context, id string) (catalog.VideoResource, error)
}

// MetadataEnricher resolves file paths and image metadata.
type MetadataEnricher struct {
	source ResourceSource
}

// NewMetadataEnricher returns an enricher reading from source.
func NewMetadataEnricher(source ResourceSource) *MetadataEnricher {
	return &MetadataEnricher{source: source}
}

// Enrich branches on the item's media kind.
func (e *MetadataEnricher) Enrich(ctx context.Context, item *LibraryItem) {
	kind := item.Kind()
	start := time.Now()
	metrics.EnrichmentsInFlight.Inc()
	defer metrics.EnrichmentsInFlight.Dec()

	resolved := false
	switch kind {
	case mediatypes.KindImage:
		resolved = e.enrichImage(ctx, item)
	case mediatypes.KindVideo:
		resolved = e.enrichVideo(ctx, item)
	default:
		// Audio and unknown kinds complete without a path.
	}

	status := "unresolved"
	if resolved {
		status = "resolved"
	}
	metrics.EnrichmentsTotal.WithLabelValues(string(kind), status).Inc()
	metrics.EnrichmentDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
}

func (e *MetadataEnricher) enrichImage(ctx context.Context, item *LibraryItem) bool {
	data, asset, err := e.source.ReadAsset(ctx, item.ID)
	if err != nil {
		logging.Debug("Enrich %s: image data unavailable: %v", item.ID, err)
		return false
	}

	ext, err := metadata.Parse(data)
	if err != nil && !errors.Is(err, metadata.ErrNoMetadata) {
		logging.Debug("Enrich %s: metadata: %v", item.ID, err)
	}
	item.Metadata = ext

	path := asset.Path
	item.FilePath = &path
	return true
}

func (e *MetadataEnricher) enrichVideo(ctx context.Context, item *LibraryItem) bool {
	res, err := e.source.VideoResource(ctx, item.ID)
	if err != nil {
		logging.Debug("Enrich %s: video resource unavailable: %v", item.ID, err)
		return false
	}

	path := res.FilePath()
	if path == "" {
		return false
	}
	item.FilePath = &path
	return true
}
