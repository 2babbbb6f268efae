package albums

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"media-library/internal/catalog"
	"media-library/internal/library"
	"media-library/internal/logging"
)

// QueryDateLayout is the layout of moment range bounds.
const QueryDateLayout = "2006-01-02"

// ErrInvalidDate is returned for a range bound that is not YYYY-MM-DD.
var ErrInvalidDate = errors.New("invalid date")

// AlbumItem is an album, smart album or moment. Only moments list their
// members.
type AlbumItem struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Location  *string  `json:"location,omitempty"`
	StartDate *string  `json:"startDate,omitempty"`
	EndDate   *string  `json:"endDate,omitempty"`
	ItemIDs   []string `json:"itemIds"`
}

// Store is the catalogue view the album catalog reads.
type Store interface {
	ListCollections(ctx context.Context, kinds ...catalog.CollectionKind) ([]catalog.Collection, error)
	ListMoments(ctx context.Context, from, to time.Time) ([]catalog.Collection, error)
	CollectionAssetIDs(ctx context.Context, collectionID string) ([]string, error)
}

// Catalog answers album and moment queries.
type Catalog struct {
	store Store
	loc   *time.Location
}

// NewCatalog returns a catalog over store. Range bounds are interpreted in
// loc, or time.Local when loc is nil.
func NewCatalog(store Store, loc *time.Location) *Catalog {
	if loc == nil {
		loc = time.Local
	}
	return &Catalog{store: store, loc: loc}
}

// ListAlbums returns every user album followed by the smart albums. Only
// id and title are filled in; membership is reported per item by the
// library stream, so ItemIDs stays empty.
func (c *Catalog) ListAlbums(ctx context.Context) ([]AlbumItem, error) {
	cols, err := c.store.ListCollections(ctx, catalog.KindAlbum, catalog.KindSmart)
	if err != nil {
		return nil, fmt.Errorf("failed to list albums: %w", err)
	}

	items := make([]AlbumItem, 0, len(cols))
	for _, col := range cols {
		items = append(items, AlbumItem{ID: col.ID, Title: col.Title, ItemIDs: []string{}})
	}
	return items, nil
}

// ListMoments returns the moments lying within [from, to], newest first.
// Bounds are YYYY-MM-DD dates; to covers its whole day and an empty bound
// is open. Moments without place names are left out.
func (c *Catalog) ListMoments(ctx context.Context, from, to string) ([]AlbumItem, error) {
	start, end, err := c.parseRange(from, to)
	if err != nil {
		return nil, err
	}

	cols, err := c.store.ListMoments(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list moments: %w", err)
	}

	items := []AlbumItem{}
	for _, col := range cols {
		if len(col.Locations) == 0 {
			continue
		}
		ids, err := c.store.CollectionAssetIDs(ctx, col.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list members of moment %s: %w", col.ID, err)
		}

		location := strings.Join(col.Locations, ", ")
		items = append(items, AlbumItem{
			ID:        col.ID,
			Title:     col.Title,
			Location:  &location,
			StartDate: c.formatDate(col.StartDate),
			EndDate:   c.formatDate(col.EndDate),
			ItemIDs:   ids,
		})
	}

	logging.Debug("Moments %q..%q: %d of %d have locations", from, to, len(items), len(cols))
	return items, nil
}

func (c *Catalog) parseRange(from, to string) (start, end time.Time, err error) {
	if from != "" {
		start, err = time.ParseInLocation(QueryDateLayout, from, c.loc)
		if err != nil {
			return start, end, fmt.Errorf("%w: from %q", ErrInvalidDate, from)
		}
	}
	if to != "" {
		day, err := time.ParseInLocation(QueryDateLayout, to, c.loc)
		if err != nil {
			return start, end, fmt.Errorf("%w: to %q", ErrInvalidDate, to)
		}
		end = day.AddDate(0, 0, 1).Add(-time.Millisecond)
	}
	return start, end, nil
}

func (c *Catalog) formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.In(c.loc).Format(library.DateLayout)
	return &s
}
