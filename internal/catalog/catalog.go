package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"media-library/internal/logging"
	"media-library/internal/metrics"
)

// Default timeout for catalogue operations
const defaultTimeout = 5 * time.Second

// Store is the SQLite-backed media catalogue.
type Store struct {
	db        *sql.DB
	dbPath    string
	importDir string
	mu        sync.RWMutex
}

// Open opens (creating if needed) the catalogue at dbPath. Imported
// media are written below importDir.
func Open(ctx context.Context, dbPath, importDir string) (*Store, error) {
	logging.Info("Catalogue path: %s", dbPath)

	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_temp_store=MEMORY&_busy_timeout=5000&_foreign_keys=on", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalogue: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close catalogue after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to catalogue: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:        db,
		dbPath:    dbPath,
		importDir: importDir,
	}

	if err := s.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close catalogue after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize catalogue schema: %w", err)
	}

	logging.Info("Catalogue initialized successfully at %s", dbPath)
	return s, nil
}

func (s *Store) initialize(ctx context.Context) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("initialize_schema", start, err) }()

	schema := `
	CREATE TABLE IF NOT EXISTS assets (
		id TEXT PRIMARY KEY,
		file_name TEXT NOT NULL,
		original_file_name TEXT NOT NULL,
		path TEXT NOT NULL UNIQUE,
		mime_type TEXT NOT NULL,
		media_type TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT 'local',
		origin TEXT NOT NULL DEFAULT 'indexed',
		width INTEGER NOT NULL DEFAULT 0,
		height INTEGER NOT NULL DEFAULT 0,
		creation_date INTEGER NOT NULL,
		latitude REAL,
		longitude REAL,
		speed REAL,
		is_favorite INTEGER NOT NULL DEFAULT 0,
		burst_identifier TEXT NOT NULL DEFAULT '',
		represents_burst INTEGER NOT NULL DEFAULT 0,
		duration REAL NOT NULL DEFAULT 0,
		sandbox_token TEXT NOT NULL DEFAULT '',
		size INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_assets_creation ON assets(creation_date DESC, id);
	CREATE INDEX IF NOT EXISTS idx_assets_media_type ON assets(media_type);

	CREATE TABLE IF NOT EXISTS collections (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		kind TEXT NOT NULL,
		start_date INTEGER,
		end_date INTEGER,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_collections_album_title
		ON collections(title) WHERE kind = 'album';
	CREATE INDEX IF NOT EXISTS idx_collections_kind ON collections(kind);

	CREATE TABLE IF NOT EXISTS collection_assets (
		collection_id TEXT NOT NULL,
		asset_id TEXT NOT NULL,
		PRIMARY KEY (collection_id, asset_id),
		FOREIGN KEY (collection_id) REFERENCES collections(id) ON DELETE CASCADE,
		FOREIGN KEY (asset_id) REFERENCES assets(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_collection_assets_asset ON collection_assets(asset_id);

	CREATE TABLE IF NOT EXISTS collection_locations (
		collection_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		PRIMARY KEY (collection_id, position),
		FOREIGN KEY (collection_id) REFERENCES collections(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT
	);
	`

	_, err = s.db.ExecContext(ctx, schema)
	if err != nil {
		return err
	}

	err = s.ensureSmartAlbums(ctx)
	return err
}

// Close closes the catalogue.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// ImportDir returns the directory MediaWriter stores imported media in.
func (s *Store) ImportDir() string {
	return s.importDir
}

// beginTx starts a write transaction under the store's write lock. The
// returned finish function commits or rolls back depending on err and
// releases the lock.
func (s *Store) beginTx(ctx context.Context) (*sql.Tx, func(err error) error, error) {
	s.mu.Lock()
	txStart := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.mu.Unlock()
		return nil, nil, err
	}

	finish := func(err error) error {
		defer s.mu.Unlock()
		duration := time.Since(txStart).Seconds()

		if err != nil {
			metrics.DBTransactionDuration.WithLabelValues("rollback").Observe(duration)
			if rbErr := tx.Rollback(); rbErr != nil {
				return errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
			}
			return err
		}

		metrics.DBTransactionDuration.WithLabelValues("commit").Observe(duration)
		return tx.Commit()
	}

	return tx, finish, nil
}

// Stats reports catalogue content counts for the metrics collector.
func (s *Store) Stats(ctx context.Context) (metrics.CatalogStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var stats metrics.CatalogStats

	rows, err := s.db.QueryContext(ctx, `SELECT media_type, COUNT(*) FROM assets GROUP BY media_type`)
	if err != nil {
		return stats, err
	}
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			rows.Close()
			return stats, err
		}
		switch kind {
		case "image":
			stats.Images = n
		case "video":
			stats.Videos = n
		case "audio":
			stats.Audio = n
		default:
			stats.Other += n
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return stats, err
	}

	rows, err = s.db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM collections GROUP BY kind`)
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return stats, err
		}
		switch CollectionKind(kind) {
		case KindAlbum:
			stats.Albums = n
		case KindSmart:
			stats.Smart = n
		case KindMoment:
			stats.Moments = n
		}
	}

	if info, err := os.Stat(s.dbPath); err == nil {
		stats.DBBytes = info.Size()
	}
	if info, err := os.Stat(s.dbPath + "-wal"); err == nil {
		stats.WALBytes = info.Size()
	}

	metrics.DBConnectionsOpen.Set(float64(s.db.Stats().OpenConnections))

	return stats, rows.Err()
}

// DefaultPath returns the catalogue file location inside dir.
func DefaultPath(dir string) string {
	return filepath.Join(dir, "library.db")
}

// recordQuery records catalogue query metrics
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}
