package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-hgvs/internal/convert"
)

// resultKey is the composite key for deduplicating results before writing.
type resultKey struct {
	chrom, ref, alt, transcriptID string
	pos, svLength                 int64
}

// WriteResults batch-inserts conversion results using the Appender API.
// Rows already present are left untouched.
func (s *Store) WriteResults(results []*convert.Result) error {
	if len(results) == 0 {
		return nil
	}

	seen := make(map[resultKey]bool, len(results))
	deduped := make([]*convert.Result, 0, len(results))
	for _, r := range results {
		k := resultKey{r.Chrom, r.Ref, r.Alt, r.TranscriptID, r.Pos, r.SVLength}
		if !seen[k] {
			seen[k] = true
			deduped = append(deduped, r)
		}
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	ctx := context.Background()
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	// The appender cannot skip existing keys, so rows land in a staging
	// table first and are merged with INSERT OR IGNORE.

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "hgvs_results_staging")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}

	for _, r := range deduped {
		if err := appender.AppendRow(
			r.Chrom, r.Pos, r.Ref, r.Alt, r.SVLength,
			r.TranscriptID, r.GeneName, r.HGVS,
		); err != nil {
			appender.Close()
			return fmt.Errorf("append result: %w", err)
		}
	}
	if err := appender.Close(); err != nil {
		return fmt.Errorf("flush results: %w", err)
	}

	if _, err := conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO hgvs_results SELECT * FROM hgvs_results_staging`); err != nil {
		return fmt.Errorf("insert results: %w", err)
	}
	if _, err := conn.ExecContext(ctx, `DELETE FROM hgvs_results_staging`); err != nil {
		return fmt.Errorf("clear staging table: %w", err)
	}
	return nil
}

// ClearResults removes all cached results.
func (s *Store) ClearResults() error {
	_, err := s.db.Exec("DELETE FROM hgvs_results")
	return err
}

// ResultCount returns the number of cached names.
func (s *Store) ResultCount() (int64, error) {
	var n int64
	err := s.db.QueryRow("SELECT count(*) FROM hgvs_results").Scan(&n)
	return n, err
}

const resultColumns = `chrom, pos, ref, alt, sv_length, transcript_id, gene_name, hgvs`

// LookupResults returns the cached names of a variant, genomic name first.
func (s *Store) LookupResults(chrom string, pos int64, ref, alt string, svLength int64) ([]*convert.Result, error) {
	rows, err := s.db.Query(`SELECT `+resultColumns+`
		FROM hgvs_results
		WHERE chrom=? AND pos=? AND ref=? AND alt=? AND sv_length=?
		ORDER BY transcript_id`,
		chrom, pos, ref, alt, svLength)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

// SearchByGene returns all cached names on transcripts of a gene.
func (s *Store) SearchByGene(geneName string) ([]*convert.Result, error) {
	rows, err := s.db.Query(`SELECT `+resultColumns+`
		FROM hgvs_results
		WHERE gene_name=?
		ORDER BY chrom, pos, transcript_id`, geneName)
	if err != nil {
		return nil, fmt.Errorf("query by gene: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

// SearchByName returns the cached results whose name matches exactly.
func (s *Store) SearchByName(name string) ([]*convert.Result, error) {
	rows, err := s.db.Query(`SELECT `+resultColumns+`
		FROM hgvs_results
		WHERE hgvs=?`, name)
	if err != nil {
		return nil, fmt.Errorf("query by name: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

// scanResults scans rows into Result slices.
func scanResults(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]*convert.Result, error) {
	var results []*convert.Result
	for rows.Next() {
		var r convert.Result
		if err := rows.Scan(
			&r.Chrom, &r.Pos, &r.Ref, &r.Alt, &r.SVLength,
			&r.TranscriptID, &r.GeneName, &r.HGVS,
		); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return results, nil
}
