package softengine

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	// Pure-Go SQLite driver for database/sql (backs localStorage).
	_ "github.com/glebarez/sqlite"
)

// pageStorage persists window.localStorage contents, keyed by document
// origin so different pages do not see each other's entries. Backed by a
// SQLite file under the base directory, or kept in memory when no base
// directory is configured.
type pageStorage struct {
	db *sql.DB
}

func openPageStorage(baseDir string) (*pageStorage, error) {
	dsn := ":memory:"
	if baseDir != "" {
		if err := os.MkdirAll(baseDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating storage directory: %w", err)
		}
		dsn = filepath.Join(baseDir, "storage.db")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening page storage %q: %w", dsn, err)
	}
	// A second pooled connection to :memory: would see a different,
	// empty database.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		origin TEXT NOT NULL,
		key    TEXT NOT NULL,
		value  TEXT NOT NULL,
		PRIMARY KEY (origin, key)
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating kv table: %w", err)
	}
	return &pageStorage{db: db}, nil
}

func (s *pageStorage) get(origin, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE origin = ? AND key = ?`, origin, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *pageStorage) set(origin, key, value string) error {
	_, err := s.db.Exec(`INSERT INTO kv (origin, key, value) VALUES (?, ?, ?)
		ON CONFLICT (origin, key) DO UPDATE SET value = excluded.value`, origin, key, value)
	return err
}

func (s *pageStorage) remove(origin, key string) error {
	_, err := s.db.Exec(`DELETE FROM kv WHERE origin = ? AND key = ?`, origin, key)
	return err
}

func (s *pageStorage) clear(origin string) error {
	_, err := s.db.Exec(`DELETE FROM kv WHERE origin = ?`, origin)
	return err
}

func (s *pageStorage) close() error {
	return s.db.Close()
}
