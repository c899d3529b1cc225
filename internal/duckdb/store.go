// Package duckdb persists transcripts and conversion results in DuckDB.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection holding imported transcripts and
// cached conversion results.
type Store struct {
	db      *sql.DB
	path    string
	writeMu sync.Mutex // serialises use of the staging table
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
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

var schema = []string{
	`CREATE TABLE IF NOT EXISTS hgvs_results (
		chrom VARCHAR,
		pos BIGINT,
		ref VARCHAR,
		alt VARCHAR,
		sv_length BIGINT,
		transcript_id VARCHAR,
		gene_name VARCHAR,
		hgvs VARCHAR,
		PRIMARY KEY (chrom, pos, ref, alt, sv_length, transcript_id)
	)`,
	`CREATE TABLE IF NOT EXISTS hgvs_results_staging AS SELECT * FROM hgvs_results LIMIT 0`,
	`CREATE TABLE IF NOT EXISTS transcripts (
		id VARCHAR PRIMARY KEY,
		gene_name VARCHAR,
		chrom VARCHAR,
		tx_start BIGINT,
		tx_end BIGINT,
		strand TINYINT,
		cds_start BIGINT,
		cds_end BIGINT
	)`,
	`CREATE TABLE IF NOT EXISTS exons (
		transcript_id VARCHAR,
		number INTEGER,
		exon_start BIGINT,
		exon_end BIGINT
	)`,
	`CREATE TABLE IF NOT EXISTS metadata (
		key VARCHAR PRIMARY KEY,
		value VARCHAR
	)`,
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
