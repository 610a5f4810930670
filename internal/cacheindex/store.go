// Package cacheindex keeps a version-tagged SQLite index of downloaded
// archives. Cache cleanup trusts only the index, never filename heuristics.
package cacheindex

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no entry exists for the requested version.
var ErrNotFound = errors.New("cache entry not found")

// Entry describes one cached archive.
type Entry struct {
	Version      string
	Filename     string
	Path         string
	Size         int64
	DownloadedAt time.Time
}

// Store is the SQLite-backed index.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the index database at dbPath.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open index database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate index database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) migrate() error {
	schema := `CREATE TABLE IF NOT EXISTS archives (
		path TEXT PRIMARY KEY,
		version TEXT NOT NULL,
		filename TEXT NOT NULL,
		size INTEGER NOT NULL DEFAULT 0,
		downloaded_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_archives_version ON archives(version);`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// Record inserts or replaces the entry for its path.
func (s *Store) Record(e Entry) error {
	if e.DownloadedAt.IsZero() {
		e.DownloadedAt = time.Now()
	}
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO archives (path, version, filename, size, downloaded_at)
		 VALUES (?, ?, ?, ?, ?)`,
		e.Path, e.Version, e.Filename, e.Size, e.DownloadedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record cache entry: %w", err)
	}
	return nil
}

// Lookup returns the entry for version, or ErrNotFound.
func (s *Store) Lookup(version string) (*Entry, error) {
	row := s.db.QueryRow(
		`SELECT path, version, filename, size, downloaded_at
		 FROM archives WHERE version = ? ORDER BY downloaded_at DESC LIMIT 1`,
		version,
	)

	var e Entry
	err := row.Scan(&e.Path, &e.Version, &e.Filename, &e.Size, &e.DownloadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up cache entry: %w", err)
	}
	return &e, nil
}

// List returns all entries, newest first.
func (s *Store) List() ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT path, version, filename, size, downloaded_at
		 FROM archives ORDER BY downloaded_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list cache entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Path, &e.Version, &e.Filename, &e.Size, &e.DownloadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cache entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune deletes every indexed archive whose version differs from
// keepVersion, removing both the file and the row. Rows whose file has
// vanished are dropped regardless of version. Returns the number of rows
// removed.
func (s *Store) Prune(keepVersion string) (int, error) {
	entries, err := s.List()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, e := range entries {
		stale := e.Version != keepVersion
		if !stale {
			if _, err := os.Stat(e.Path); os.IsNotExist(err) {
				stale = true
			}
		}
		if !stale {
			continue
		}

		if err := os.Remove(e.Path); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("failed to delete cached archive: %w", err)
		}
		if _, err := s.db.Exec(`DELETE FROM archives WHERE path = ?`, e.Path); err != nil {
			return removed, fmt.Errorf("failed to delete cache entry: %w", err)
		}
		removed++
	}
	return removed, nil
}

// Clear removes every indexed archive and row. Returns the number removed.
func (s *Store) Clear() (int, error) {
	return s.Prune("")
}

// FilePath returns the canonical cache location for a release asset.
func FilePath(cacheDir, version, filename string) string {
	return filepath.Join(cacheDir, fmt.Sprintf("v%s_%s", version, filename))
}
