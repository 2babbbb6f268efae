package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"media-library/internal/logging"
)

// Smart album titles.
const (
	SmartFavorites = "Favorites"
	SmartVideos    = "Videos"
)

var smartNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("media-library:smart-albums"))

// smartAlbums maps each smart album to the predicate selecting its members.
var smartAlbums = []struct {
	title string
	where string
}{
	{SmartFavorites, "is_favorite = 1"},
	{SmartVideos, "media_type = 'video'"},
}

// SmartAlbumID returns the stable id of a smart album.
func SmartAlbumID(title string) string {
	return uuid.NewSHA1(smartNamespace, []byte(title)).String()
}

func (s *Store) ensureSmartAlbums(ctx context.Context) error {
	for _, sa := range smartAlbums {
		_, err := s.db.ExecContext(ctx,
			"INSERT OR IGNORE INTO collections (id, title, kind) VALUES (?, ?, ?)",
			SmartAlbumID(sa.title), sa.title, string(KindSmart),
		)
		if err != nil {
			return fmt.Errorf("failed to create smart album %q: %w", sa.title, err)
		}
	}
	return s.RefreshSmartAlbums(ctx)
}

// RefreshSmartAlbums recomputes smart album membership from asset flags.
func (s *Store) RefreshSmartAlbums(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { recordQuery("refresh_smart_albums", start, err) }()

	tx, finish, err := s.beginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { err = finish(err) }()

	for _, sa := range smartAlbums {
		id := SmartAlbumID(sa.title)
		if _, err = tx.ExecContext(ctx, "DELETE FROM collection_assets WHERE collection_id = ?", id); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO collection_assets (collection_id, asset_id) SELECT ?, id FROM assets WHERE "+sa.where,
			id,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// GetOrCreateAlbum returns the user album titled title, creating it if it
// does not exist. created reports whether this call created it.
func (s *Store) GetOrCreateAlbum(ctx context.Context, title string) (c Collection, created bool, err error) {
	start := time.Now()
	defer func() { recordQuery("get_or_create_album", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	c = Collection{Title: title, Kind: KindAlbum}

	err = s.db.QueryRowContext(ctx,
		"SELECT id FROM collections WHERE kind = ? AND title = ?", string(KindAlbum), title,
	).Scan(&c.ID)
	if err == nil {
		return c, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Collection{}, false, err
	}

	c.ID = uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO collections (id, title, kind) VALUES (?, ?, ?)", c.ID, title, string(KindAlbum),
	)
	if err != nil {
		// Another process sharing the database may have won the race.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			err = s.db.QueryRowContext(ctx,
				"SELECT id FROM collections WHERE kind = ? AND title = ?", string(KindAlbum), title,
			).Scan(&c.ID)
			return c, false, err
		}
		return Collection{}, false, err
	}

	logging.Debug("Created album %q (%s)", title, c.ID)
	return c, true, nil
}

// LinkAssets adds assets to a collection. Existing links are kept.
func (s *Store) LinkAssets(ctx context.Context, collectionID string, assetIDs ...string) (err error) {
	start := time.Now()
	defer func() { recordQuery("link_asset", start, err) }()

	tx, finish, err := s.beginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { err = finish(err) }()

	for _, id := range assetIDs {
		_, err = tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO collection_assets (collection_id, asset_id) VALUES (?, ?)",
			collectionID, id,
		)
		if err != nil {
			return fmt.Errorf("failed to link %s: %w", id, err)
		}
	}
	return nil
}

// AddToAlbum links assets into the user album titled title, creating the
// album when it is missing. Lookup, creation and links commit together,
// so PruneEmptyAlbums never sees a newly created album without members.
func (s *Store) AddToAlbum(ctx context.Context, title string, assetIDs ...string) (c Collection, created bool, err error) {
	start := time.Now()
	defer func() { recordQuery("add_to_album", start, err) }()

	tx, finish, err := s.beginTx(ctx)
	if err != nil {
		return Collection{}, false, err
	}
	defer func() { err = finish(err) }()

	c = Collection{Title: title, Kind: KindAlbum}
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM collections WHERE kind = ? AND title = ?", string(KindAlbum), title,
	).Scan(&c.ID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		c.ID = uuid.NewString()
		_, err = tx.ExecContext(ctx,
			"INSERT INTO collections (id, title, kind) VALUES (?, ?, ?)", c.ID, title, string(KindAlbum),
		)
		if err != nil {
			return Collection{}, false, fmt.Errorf("failed to create album %q: %w", title, err)
		}
		created = true
	case err != nil:
		return Collection{}, false, err
	}

	for _, id := range assetIDs {
		_, err = tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO collection_assets (collection_id, asset_id) VALUES (?, ?)",
			c.ID, id,
		)
		if err != nil {
			return Collection{}, false, fmt.Errorf("failed to link %s: %w", id, err)
		}
	}
	return c, created, nil
}

// CollectionsContaining returns the ids of the user and smart albums the
// asset belongs to, ordered by title.
func (s *Store) CollectionsContaining(ctx context.Context, assetID string) (ids []string, err error) {
	start := time.Now()
	defer func() { recordQuery("collections_containing", start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
	SELECT c.id FROM collections c
	JOIN collection_assets ca ON ca.collection_id = c.id
	WHERE ca.asset_id = ? AND c.kind IN (?, ?)
	ORDER BY c.title, c.id`,
		assetID, string(KindAlbum), string(KindSmart),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids = []string{}
	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	err = rows.Err()
	return ids, err
}

// ListCollections returns collections of the given kinds ordered by kind
// then title, with their location names.
func (s *Store) ListCollections(ctx context.Context, kinds ...CollectionKind) (cols []Collection, err error) {
	start := time.Now()
	defer func() { recordQuery("list_collections", start, err) }()

	if len(kinds) == 0 {
		return []Collection{}, nil
	}

	args := make([]any, len(kinds))
	for i, k := range kinds {
		args[i] = string(k)
	}

	query := "SELECT id, title, kind, start_date, end_date FROM collections WHERE kind IN (?" +
		strings.Repeat(", ?", len(kinds)-1) + ") ORDER BY kind, title, id"
	return s.queryCollections(ctx, query, args...)
}

// ListMoments returns moments whose span lies within [from, to], newest
// first. A zero bound is open.
func (s *Store) ListMoments(ctx context.Context, from, to time.Time) (cols []Collection, err error) {
	start := time.Now()
	defer func() { recordQuery("list_collections", start, err) }()

	query := "SELECT id, title, kind, start_date, end_date FROM collections WHERE kind = ?"
	args := []any{string(KindMoment)}
	if !from.IsZero() {
		query += " AND start_date >= ?"
		args = append(args, from.UnixMilli())
	}
	if !to.IsZero() {
		query += " AND end_date <= ?"
		args = append(args, to.UnixMilli())
	}
	query += " ORDER BY start_date DESC, id"
	return s.queryCollections(ctx, query, args...)
}

func (s *Store) queryCollections(ctx context.Context, query string, args ...any) ([]Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	cols := []Collection{}
	index := make(map[string]int)
	for rows.Next() {
		var c Collection
		var kind string
		var startDate, endDate sql.NullInt64
		if err := rows.Scan(&c.ID, &c.Title, &kind, &startDate, &endDate); err != nil {
			rows.Close()
			return nil, err
		}
		c.Kind = CollectionKind(kind)
		c.StartDate = nullTime(startDate)
		c.EndDate = nullTime(endDate)
		index[c.ID] = len(cols)
		cols = append(cols, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return cols, nil
	}

	locRows, err := s.db.QueryContext(ctx,
		"SELECT collection_id, name FROM collection_locations ORDER BY collection_id, position")
	if err != nil {
		return nil, err
	}
	defer locRows.Close()

	for locRows.Next() {
		var id, name string
		if err := locRows.Scan(&id, &name); err != nil {
			return nil, err
		}
		if i, ok := index[id]; ok {
			cols[i].Locations = append(cols[i].Locations, name)
		}
	}
	return cols, locRows.Err()
}

func nullTime(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.UnixMilli(v.Int64)
	return &t
}

// CollectionAssetIDs returns the member ids of a collection, newest first.
func (s *Store) CollectionAssetIDs(ctx context.Context, collectionID string) (ids []string, err error) {
	start := time.Now()
	defer func() { recordQuery("collection_assets", start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
	SELECT a.id FROM assets a
	JOIN collection_assets ca ON ca.asset_id = a.id
	WHERE ca.collection_id = ?
	ORDER BY a.creation_date DESC, a.id`, collectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids = []string{}
	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	err = rows.Err()
	return ids, err
}

// ReplaceMoments swaps the full moment set in one transaction.
func (s *Store) ReplaceMoments(ctx context.Context, moments []Moment) (err error) {
	start := time.Now()
	defer func() { recordQuery("replace_moments", start, err) }()

	tx, finish, err := s.beginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { err = finish(err) }()

	if _, err = tx.ExecContext(ctx, "DELETE FROM collections WHERE kind = ?", string(KindMoment)); err != nil {
		return err
	}

	for _, m := range moments {
		id := uuid.NewString()
		_, err = tx.ExecContext(ctx,
			"INSERT INTO collections (id, title, kind, start_date, end_date) VALUES (?, ?, ?, ?, ?)",
			id, m.Title, string(KindMoment), m.StartDate.UnixMilli(), m.EndDate.UnixMilli(),
		)
		if err != nil {
			return err
		}
		for pos, name := range m.Locations {
			_, err = tx.ExecContext(ctx,
				"INSERT INTO collection_locations (collection_id, position, name) VALUES (?, ?, ?)",
				id, pos, name,
			)
			if err != nil {
				return err
			}
		}
		for _, assetID := range m.AssetIDs {
			_, err = tx.ExecContext(ctx,
				"INSERT OR IGNORE INTO collection_assets (collection_id, asset_id) VALUES (?, ?)",
				id, assetID,
			)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// PruneEmptyAlbums removes user albums left without members.
func (s *Store) PruneEmptyAlbums(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	result, err := s.db.ExecContext(ctx, `
	DELETE FROM collections
	WHERE kind = ? AND id NOT IN (SELECT DISTINCT collection_id FROM collection_assets)`,
		string(KindAlbum))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
