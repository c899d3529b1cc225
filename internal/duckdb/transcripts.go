package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-hgvs/internal/cache"
)

// ImportTranscripts replaces the stored transcripts with the contents of c.
// When c holds several transcripts with one ID, the one returned by
// c.GetTranscript wins.
func (s *Store) ImportTranscripts(c *cache.Cache) (int, error) {
	ctx := context.Background()
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return 0, fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	for _, stmt := range []string{"DELETE FROM exons", "DELETE FROM transcripts"} {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return 0, fmt.Errorf("clear transcripts: %w", err)
		}
	}

	var txApp, exApp *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		if txApp, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "transcripts"); err != nil {
			return err
		}
		exApp, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "exons")
		return err
	}); err != nil {
		if txApp != nil {
			txApp.Close()
		}
		return 0, fmt.Errorf("create appender: %w", err)
	}

	n, err := appendTranscripts(c, txApp, exApp)
	if cerr := txApp.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("flush transcripts: %w", cerr)
	}
	if cerr := exApp.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("flush exons: %w", cerr)
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

func appendTranscripts(c *cache.Cache, txApp, exApp *goduckdb.Appender) (int, error) {
	n := 0
	for _, chrom := range c.Chromosomes() {
		for _, t := range c.FindTranscriptsByChrom(chrom) {
			if c.GetTranscript(t.ID) != t {
				continue
			}
			if err := txApp.AppendRow(
				t.ID, t.GeneName, t.Chrom, t.Start, t.End, t.Strand, t.CDSStart, t.CDSEnd,
			); err != nil {
				return 0, fmt.Errorf("append transcript %s: %w", t.ID, err)
			}
			for _, e := range t.Exons {
				if err := exApp.AppendRow(t.ID, int32(e.Number), e.Start, e.End); err != nil {
					return 0, fmt.Errorf("append exon of %s: %w", t.ID, err)
				}
			}
			n++
		}
	}
	return n, nil
}

// TranscriptCount returns the number of stored transcripts.
func (s *Store) TranscriptCount() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT count(*) FROM transcripts").Scan(&n)
	return n, err
}

const transcriptColumns = `id, gene_name, chrom, tx_start, tx_end, strand, cds_start, cds_end`

// FetchTranscript reads one transcript with its exons. A versionless ID
// (NM_000352) matches the highest stored version. It returns nil, nil when
// the transcript is absent.
func (s *Store) FetchTranscript(id string) (*cache.Transcript, error) {
	var row *sql.Row
	if strings.IndexByte(id, '.') >= 0 {
		row = s.db.QueryRow(`SELECT `+transcriptColumns+` FROM transcripts WHERE id=?`, id)
	} else {
		row = s.db.QueryRow(`SELECT `+transcriptColumns+` FROM transcripts
			WHERE split_part(id, '.', 1)=?
			ORDER BY TRY_CAST(split_part(id, '.', 2) AS BIGINT) DESC NULLS LAST
			LIMIT 1`, id)
	}

	t, err := scanTranscript(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query transcript %s: %w", id, err)
	}

	rows, err := s.db.Query(`SELECT number, exon_start, exon_end FROM exons
		WHERE transcript_id=? ORDER BY exon_start`, t.ID)
	if err != nil {
		return nil, fmt.Errorf("query exons of %s: %w", t.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var e cache.Exon
		var number int32
		if err := rows.Scan(&number, &e.Start, &e.End); err != nil {
			return nil, fmt.Errorf("scan exon of %s: %w", t.ID, err)
		}
		e.Number = int(number)
		t.Exons = append(t.Exons, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exons of %s: %w", t.ID, err)
	}
	return t, nil
}

// GetTranscript implements cache.TranscriptSource. Query errors read as a
// missing transcript; use FetchTranscript to see them.
func (s *Store) GetTranscript(id string) *cache.Transcript {
	t, err := s.FetchTranscript(id)
	if err != nil {
		return nil
	}
	return t
}

// LoadTranscripts adds every stored transcript to c. The caller builds the
// index afterwards.
func (s *Store) LoadTranscripts(c *cache.Cache) (int, error) {
	rows, err := s.db.Query(`SELECT ` + transcriptColumns + ` FROM transcripts ORDER BY chrom, tx_start, id`)
	if err != nil {
		return 0, fmt.Errorf("query transcripts: %w", err)
	}

	var ts []*cache.Transcript
	byID := make(map[string]*cache.Transcript)
	for rows.Next() {
		t, err := scanTranscript(rows)
		if err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan transcript: %w", err)
		}
		ts = append(ts, t)
		byID[t.ID] = t
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate transcripts: %w", err)
	}

	exRows, err := s.db.Query(`SELECT transcript_id, number, exon_start, exon_end FROM exons
		ORDER BY transcript_id, exon_start`)
	if err != nil {
		return 0, fmt.Errorf("query exons: %w", err)
	}
	defer exRows.Close()

	for exRows.Next() {
		var id string
		var number int32
		var e cache.Exon
		if err := exRows.Scan(&id, &number, &e.Start, &e.End); err != nil {
			return 0, fmt.Errorf("scan exon: %w", err)
		}
		e.Number = int(number)
		if t := byID[id]; t != nil {
			t.Exons = append(t.Exons, e)
		}
	}
	if err := exRows.Err(); err != nil {
		return 0, fmt.Errorf("iterate exons: %w", err)
	}

	for _, t := range ts {
		c.AddTranscript(t)
	}
	return len(ts), nil
}

func scanTranscript(row interface{ Scan(dest ...any) error }) (*cache.Transcript, error) {
	var t cache.Transcript
	if err := row.Scan(&t.ID, &t.GeneName, &t.Chrom, &t.Start, &t.End, &t.Strand, &t.CDSStart, &t.CDSEnd); err != nil {
		return nil, err
	}
	return &t, nil
}
