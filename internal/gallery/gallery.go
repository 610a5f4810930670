// Package gallery stores imported design entries in a small SQLite database.
package gallery

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Item is one gallery entry.
type Item struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Kind      string `json:"kind"`
	Author    string `json:"author"`
	JSONPath  string `json:"json_path"`
	ImagePath string `json:"image_path,omitempty"`
	AddedAt   int64  `json:"added_at"`
}

// Store is the gallery database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the gallery database under dataDir.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create gallery data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "gallery.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open gallery database: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS designs (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		kind TEXT NOT NULL,
		author TEXT NOT NULL,
		json_path TEXT NOT NULL,
		image_path TEXT,
		added_at INTEGER NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create gallery table: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Add inserts or replaces an entry by ID.
func (s *Store) Add(item Item) error {
	if item.AddedAt == 0 {
		item.AddedAt = time.Now().Unix()
	}

	var imagePath any
	if item.ImagePath != "" {
		imagePath = item.ImagePath
	}

	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO designs (id, title, kind, author, json_path, image_path, added_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.Title, item.Kind, item.Author, item.JSONPath, imagePath, item.AddedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert gallery entry: %w", err)
	}
	return nil
}

// List returns all entries, newest first.
func (s *Store) List() ([]Item, error) {
	rows, err := s.db.Query(
		`SELECT id, title, kind, author, json_path, image_path, added_at
		 FROM designs ORDER BY added_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list gallery entries: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		var imagePath sql.NullString
		if err := rows.Scan(&item.ID, &item.Title, &item.Kind, &item.Author,
			&item.JSONPath, &imagePath, &item.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan gallery entry: %w", err)
		}
		item.ImagePath = imagePath.String
		items = append(items, item)
	}
	return items, rows.Err()
}
