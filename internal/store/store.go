// Package store persists classification runs for later querying.
// DuckDB is used by default; paths ending in .sqlite or .sqlite3 use SQLite.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb"
	_ "modernc.org/sqlite"
)

// Backend identifies the database engine behind a Store.
type Backend string

// Supported backends.
const (
	DuckDB Backend = "duckdb"
	SQLite Backend = "sqlite"
)

// BackendFor returns the backend used for a database path.
func BackendFor(path string) Backend {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".sqlite", ".sqlite3":
		return SQLite
	}
	return DuckDB
}

// Store manages a database connection for classification results.
type Store struct {
	db      *sql.DB
	path    string
	backend Backend
}

// Open opens or creates a results database at the given path.
// Use an empty string for an in-memory DuckDB database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create results directory: %w", err)
		}
	}

	backend := BackendFor(path)
	db, err := sql.Open(string(backend), path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", backend, err)
	}
	if backend == SQLite {
		// One writer at a time; avoids SQLITE_BUSY between pooled connections.
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db, path: path, backend: backend}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Backend returns the database engine in use.
func (s *Store) Backend() Backend {
	return s.backend
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		run_id VARCHAR PRIMARY KEY,
		started_at VARCHAR,
		genome_path VARCHAR,
		genome_size BIGINT,
		variants_path VARCHAR,
		variants_size BIGINT,
		min_coverage BIGINT,
		gap_distance BIGINT,
		min_frequency DOUBLE,
		codon_index VARCHAR,
		accepted BIGINT,
		rejected BIGINT
	)`); err != nil {
		return err
	}

	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS classifications (
		run_id VARCHAR,
		line BIGINT,
		contig VARCHAR,
		pos BIGINT,
		ref VARCHAR,
		alt VARCHAR,
		locus_tag VARCHAR,
		accepted BOOLEAN,
		reason VARCHAR,
		old_aa VARCHAR,
		new_aa VARCHAR,
		diagnostic VARCHAR
	)`)
	return err
}
