package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"media-library/internal/mediaerr"
	"media-library/internal/mediatypes"
)

const assetColumns = `id, file_name, original_file_name, path, mime_type, media_type, source, origin,
	width, height, creation_date, latitude, longitude, speed, is_favorite, burst_identifier,
	represents_burst, duration, sandbox_token, size`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(row rowScanner) (Asset, error) {
	var a Asset
	var kind, source, origin string
	var created int64
	var lat, lon, speed sql.NullFloat64

	err := row.Scan(
		&a.ID, &a.FileName, &a.OriginalFileName, &a.Path, &a.MimeType, &kind, &source, &origin,
		&a.Width, &a.Height, &created, &lat, &lon, &speed, &a.IsFavorite, &a.BurstIdentifier,
		&a.RepresentsBurst, &a.Duration, &a.SandboxToken, &a.Size,
	)
	if err != nil {
		return a, err
	}

	a.Kind = mediatypes.Kind(kind)
	a.Source = mediatypes.Source(source)
	a.Origin = Origin(origin)
	a.CreationDate = time.UnixMilli(created)
	a.Latitude = nullFloat(lat)
	a.Longitude = nullFloat(lon)
	a.Speed = nullFloat(speed)
	return a, nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func floatArg(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

// Cursor is a lazy, forward-only sequence of assets.
type Cursor struct {
	rows    *sql.Rows
	current Asset
	err     error
}

// Next advances to the next asset. It returns false at the end of the
// sequence or on error; check Err afterwards.
func (c *Cursor) Next() bool {
	if c.rows == nil || c.err != nil {
		return false
	}
	if !c.rows.Next() {
		c.err = c.rows.Err()
		return false
	}
	c.current, c.err = scanAsset(c.rows)
	return c.err == nil
}

// Asset returns the asset at the cursor position.
func (c *Cursor) Asset() Asset {
	return c.current
}

// Err returns the first error encountered while iterating.
func (c *Cursor) Err() error {
	return c.err
}

// Close releases the cursor's database resources.
func (c *Cursor) Close() error {
	if c.rows == nil {
		return nil
	}
	return c.rows.Close()
}

// Assets opens a cursor over the assets selected by f, newest first.
// Rows are read lazily as the cursor advances, so ctx must stay live
// until the cursor is closed.
func (s *Store) Assets(ctx context.Context, f Filter) (*Cursor, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_assets", start, err) }()

	var kinds []any
	if f.IncludeImages {
		kinds = append(kinds, string(mediatypes.KindImage))
	}
	if f.IncludeVideos {
		kinds = append(kinds, string(mediatypes.KindVideo))
	}
	if len(kinds) == 0 {
		return &Cursor{}, nil
	}

	var b strings.Builder
	b.WriteString("SELECT " + assetColumns + " FROM assets WHERE media_type IN (?")
	b.WriteString(strings.Repeat(", ?", len(kinds)-1))
	b.WriteString(")")
	args := kinds
	if !f.IncludeCloud {
		b.WriteString(" AND source != ?")
		args = append(args, string(mediatypes.SourceCloud))
	}
	b.WriteString(" ORDER BY creation_date DESC, id ASC")
	if f.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, f.Limit)
	}

	s.mu.RLock()
	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	s.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}
	return &Cursor{rows: rows}, nil
}

// GetAsset returns a single asset. A missing id yields mediaerr.ErrNotFound.
func (s *Store) GetAsset(ctx context.Context, id string) (Asset, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_asset", start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var a Asset
	a, err = scanAsset(s.db.QueryRowContext(ctx, "SELECT "+assetColumns+" FROM assets WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return Asset{}, mediaerr.New(mediaerr.ErrNotFound, "catalog.GetAsset", nil).WithAsset(id)
	}
	return a, err
}

// InsertAsset records a new asset, assigning a fresh id when a.ID is empty.
func (s *Store) InsertAsset(ctx context.Context, a *Asset) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("insert_asset", start, err) }()

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Origin == "" {
		a.Origin = OriginImported
	}
	if a.Source == "" {
		a.Source = mediatypes.SourceLocal
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = s.db.ExecContext(ctx, `
	INSERT INTO assets (`+assetColumns+`, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		assetArgs(a, time.Now())...,
	)
	return err
}

func assetArgs(a *Asset, seenAt time.Time) []any {
	return []any{
		a.ID, a.FileName, a.OriginalFileName, a.Path, a.MimeType, string(a.Kind), string(a.Source), string(a.Origin),
		a.Width, a.Height, a.CreationDate.UnixMilli(), floatArg(a.Latitude), floatArg(a.Longitude), floatArg(a.Speed),
		a.IsFavorite, a.BurstIdentifier, a.RepresentsBurst, a.Duration, a.SandboxToken, a.Size,
		seenAt.UnixMilli(),
	}
}

// DeleteAsset removes an asset and its album links.
func (s *Store) DeleteAsset(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, "DELETE FROM assets WHERE id = ?", id)
	return err
}

// UpsertAssets records indexed assets keyed by path in one transaction.
// Existing rows keep their id and favorite flag; every element's ID is
// set to the stored id on return.
func (s *Store) UpsertAssets(ctx context.Context, assets []Asset, seenAt time.Time) (err error) {
	start := time.Now()
	defer func() { recordQuery("upsert_asset", start, err) }()

	tx, finish, err := s.beginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { err = finish(err) }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO assets (`+assetColumns+`, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(path) DO UPDATE SET
		file_name = excluded.file_name,
		original_file_name = excluded.original_file_name,
		mime_type = excluded.mime_type,
		media_type = excluded.media_type,
		source = excluded.source,
		width = excluded.width,
		height = excluded.height,
		creation_date = excluded.creation_date,
		latitude = excluded.latitude,
		longitude = excluded.longitude,
		speed = excluded.speed,
		burst_identifier = excluded.burst_identifier,
		represents_burst = excluded.represents_burst,
		duration = excluded.duration,
		sandbox_token = excluded.sandbox_token,
		size = excluded.size,
		updated_at = excluded.updated_at
	RETURNING id`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range assets {
		a := &assets[i]
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		a.Origin = OriginIndexed
		if a.Source == "" {
			a.Source = mediatypes.SourceLocal
		}
		if err = stmt.QueryRowContext(ctx, assetArgs(a, seenAt)...).Scan(&a.ID); err != nil {
			return fmt.Errorf("failed to upsert %s: %w", a.Path, err)
		}
	}

	return nil
}

// DeleteMissingAssets removes indexed assets not seen since cutoff.
// Imported assets are never removed here.
func (s *Store) DeleteMissingAssets(ctx context.Context, cutoff time.Time) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("delete_missing_assets", start, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	result, err := s.db.ExecContext(ctx,
		"DELETE FROM assets WHERE origin = ? AND updated_at < ?",
		string(OriginIndexed), cutoff.UnixMilli(),
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// SetFavorite flags or unflags an asset and refreshes the Favorites
// smart album.
func (s *Store) SetFavorite(ctx context.Context, id string, favorite bool) error {
	s.mu.Lock()
	ctx2, cancel := context.WithTimeout(ctx, defaultTimeout)
	result, err := s.db.ExecContext(ctx2, "UPDATE assets SET is_favorite = ? WHERE id = ?", favorite, id)
	cancel()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return mediaerr.New(mediaerr.ErrNotFound, "catalog.SetFavorite", nil).WithAsset(id)
	}
	return s.RefreshSmartAlbums(ctx)
}
