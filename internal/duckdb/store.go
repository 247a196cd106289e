// Package duckdb persists correlation and enrichment runs in DuckDB.
// Parsed ontologies are cached separately as gob files (fast, pure Go).
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection holding run results.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
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

// Path returns the database path, empty for in-memory stores.
func (s *Store) Path() string {
	return s.path
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id VARCHAR PRIMARY KEY,
			created_at TIMESTAMP,
			version VARCHAR,
			pool_mode VARCHAR,
			min_r DOUBLE,
			max_fdr DOUBLE,
			direction VARCHAR,
			alpha DOUBLE,
			universe_policy VARCHAR
		)`,
		`CREATE TABLE IF NOT EXISTS run_inputs (
			run_id VARCHAR,
			role VARCHAR,
			path VARCHAR,
			size BIGINT,
			mod_time TIMESTAMP,
			PRIMARY KEY (run_id, role, path)
		)`,
		`CREATE TABLE IF NOT EXISTS correlation_results (
			run_id VARCHAR,
			gene_a VARCHAR,
			gene_b VARCHAR,
			class VARCHAR,
			r DOUBLE,
			p DOUBLE,
			fdr DOUBLE,
			n_samples BIGINT,
			pool VARCHAR,
			PRIMARY KEY (run_id, gene_a, gene_b)
		)`,
		`CREATE TABLE IF NOT EXISTS enrichment_results (
			run_id VARCHAR,
			go_id VARCHAR,
			name VARCHAR,
			namespace VARCHAR,
			depth BIGINT,
			enrichment VARCHAR,
			study_count BIGINT,
			study_total BIGINT,
			pop_count BIGINT,
			pop_total BIGINT,
			p DOUBLE,
			p_two_sided DOUBLE,
			fdr DOUBLE,
			reject BOOLEAN,
			study_genes VARCHAR,
			PRIMARY KEY (run_id, go_id)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
