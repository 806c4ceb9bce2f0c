// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package upload

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Cache maps payload digests to previously returned host URLs so
// reconverting a document never re-uploads unchanged images (R6.1).
// Safe for concurrent use by upload workers.
type Cache struct {
	db *sql.DB
}

// OpenCache opens or creates the upload cache database at path, creating
// parent directories and the schema as needed (R6.2).
func OpenCache(path string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	c := &Cache{db: db}
	if err := c.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return c, nil
}

// Close releases the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS uploads (
			digest TEXT PRIMARY KEY,
			url TEXT NOT NULL,
			size_bytes INTEGER NOT NULL,
			uploaded_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_uploads_uploaded_at ON uploads(uploaded_at)`,
	}
	for _, stmt := range statements {
		if _, err := c.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Lookup returns the hosted URL for a payload digest. The second return
// is false on a miss.
func (c *Cache) Lookup(digest string) (string, bool, error) {
	var url string
	err := c.db.QueryRow(`SELECT url FROM uploads WHERE digest = ?`, digest).Scan(&url)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying cache: %w", err)
	}
	return url, true, nil
}

// Store records a successful upload. An existing entry for the digest is
// refreshed with the latest URL.
func (c *Cache) Store(digest, url string, sizeBytes int) error {
	_, err := c.db.Exec(
		`INSERT INTO uploads (digest, url, size_bytes, uploaded_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(digest) DO UPDATE SET url=excluded.url, uploaded_at=excluded.uploaded_at`,
		digest, url, sizeBytes, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("storing cache entry: %w", err)
	}
	return nil
}

// CacheStats summarizes cache contents for the cache stats command (R6.3).
type CacheStats struct {
	Entries int
	Bytes   int64
}

// Stats returns entry and payload byte counts.
func (c *Cache) Stats() (CacheStats, error) {
	var stats CacheStats
	err := c.db.QueryRow(
		`SELECT count(*), COALESCE(sum(size_bytes), 0) FROM uploads`,
	).Scan(&stats.Entries, &stats.Bytes)
	if err != nil {
		return CacheStats{}, fmt.Errorf("querying cache stats: %w", err)
	}
	return stats, nil
}

// Purge removes every cache entry and returns how many were dropped.
func (c *Cache) Purge() (int64, error) {
	res, err := c.db.Exec(`DELETE FROM uploads`)
	if err != nil {
		return 0, fmt.Errorf("purging cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting purged entries: %w", err)
	}
	return n, nil
}

// Digest returns the cache key for a payload: its SHA-256 hex digest.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
