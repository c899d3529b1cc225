package duckdb

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// String renders the size and modification time, which identify a file
// version.
func (fp FileFingerprint) String() string {
	return strconv.FormatInt(fp.Size, 10) + "@" + fp.ModTime.UTC().Format(time.RFC3339Nano)
}

// SetMeta stores a metadata value.
func (s *Store) SetMeta(key, value string) error {
	if _, err := s.db.Exec(`INSERT OR REPLACE INTO metadata VALUES (?, ?)`, key, value); err != nil {
		return fmt.Errorf("set metadata %s: %w", key, err)
	}
	return nil
}

// GetMeta returns a metadata value and whether it is set.
func (s *Store) GetMeta(key string) (string, bool, error) {
	var v string
	err := s.db.QueryRow(`SELECT value FROM metadata WHERE key=?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get metadata %s: %w", key, err)
	}
	return v, true, nil
}

// SourceValid reports whether the file recorded under key still matches fp.
func (s *Store) SourceValid(key string, fp FileFingerprint) bool {
	v, ok, err := s.GetMeta(key)
	return err == nil && ok && v == fp.String()
}

// RecordSource stores fp under key.
func (s *Store) RecordSource(key string, fp FileFingerprint) error {
	return s.SetMeta(key, fp.String())
}

// EnsureResultSettings drops cached results produced under different
// formatting settings and records the current ones. It reports whether
// results were cleared.
func (s *Store) EnsureResultSettings(settings string) (bool, error) {
	prev, ok, err := s.GetMeta("result_settings")
	if err != nil {
		return false, err
	}
	if ok && prev == settings {
		return false, nil
	}
	if err := s.ClearResults(); err != nil {
		return false, fmt.Errorf("clear results: %w", err)
	}
	return ok, s.SetMeta("result_settings", settings)
}
