// Package cache provides transcript storage and loading functionality.
package cache

import (
	"sort"
	"strings"
)

// Cache is an in-memory transcript table indexed by ID and chromosome.
// It is populated by a loader and treated as read-only afterwards.
type Cache struct {
	// transcripts stores transcripts indexed by chromosome
	transcripts map[string][]*Transcript
	byID        map[string]*Transcript
	trees       map[string]*IntervalTree
}

// New creates a new empty cache.
func New() *Cache {
	return &Cache{
		transcripts: make(map[string][]*Transcript),
		byID:        make(map[string]*Transcript),
	}
}

// AddTranscript adds a transcript to the cache. A later transcript with the
// same ID replaces the earlier one in ID lookups.
func (c *Cache) AddTranscript(t *Transcript) {
	chrom := t.Chrom
	c.transcripts[chrom] = append(c.transcripts[chrom], t)
	c.byID[t.ID] = t
	c.trees = nil
}

// GetTranscript returns a specific transcript by ID, or nil if not found.
// A versionless ID (NM_000352) matches the highest loaded version.
func (c *Cache) GetTranscript(id string) *Transcript {
	if t, ok := c.byID[id]; ok {
		return t
	}
	if strings.IndexByte(id, '.') >= 0 {
		return nil
	}
	var best *Transcript
	for tid, t := range c.byID {
		base, version, ok := strings.Cut(tid, ".")
		if !ok || base != id {
			continue
		}
		if best == nil || compareVersions(version, versionOf(best.ID)) > 0 {
			best = t
		}
	}
	return best
}

// BuildIndex builds per-chromosome interval trees. It must be called after
// loading and before concurrent use of FindTranscripts.
func (c *Cache) BuildIndex() {
	trees := make(map[string]*IntervalTree, len(c.transcripts))
	for chrom, transcripts := range c.transcripts {
		trees[chrom] = BuildIntervalTree(transcripts)
	}
	c.trees = trees
}

// FindTranscripts returns all transcripts that overlap a given genomic position.
// The chromosome may be given with or without the "chr" prefix.
func (c *Cache) FindTranscripts(chrom string, pos int64) []*Transcript {
	chrom = c.resolveChrom(chrom)
	if c.trees != nil {
		tree, ok := c.trees[chrom]
		if !ok {
			return nil
		}
		result := tree.FindOverlaps(pos)
		sortByID(result)
		return result
	}

	var result []*Transcript
	for _, t := range c.transcripts[chrom] {
		if t.Contains(pos) {
			result = append(result, t)
		}
	}
	sortByID(result)
	return result
}

// FindTranscriptsInRange returns all transcripts overlapping the closed
// range [start, end].
func (c *Cache) FindTranscriptsInRange(chrom string, start, end int64) []*Transcript {
	if end < start {
		return nil
	}
	chrom = c.resolveChrom(chrom)
	if c.trees != nil {
		tree, ok := c.trees[chrom]
		if !ok {
			return nil
		}
		result := tree.FindRange(start, end)
		sortByID(result)
		return result
	}

	var result []*Transcript
	for _, t := range c.transcripts[chrom] {
		if t.Start <= end && t.End >= start {
			result = append(result, t)
		}
	}
	sortByID(result)
	return result
}

// TranscriptCount returns the total number of transcripts in the cache.
func (c *Cache) TranscriptCount() int {
	count := 0
	for _, transcripts := range c.transcripts {
		count += len(transcripts)
	}
	return count
}

// Chromosomes returns a sorted list of chromosomes in the cache.
func (c *Cache) Chromosomes() []string {
	chroms := make([]string, 0, len(c.transcripts))
	for chrom := range c.transcripts {
		chroms = append(chroms, chrom)
	}
	sort.Strings(chroms)
	return chroms
}

// FindTranscriptsByChrom returns all transcripts for a chromosome.
func (c *Cache) FindTranscriptsByChrom(chrom string) []*Transcript {
	return c.transcripts[c.resolveChrom(chrom)]
}

// resolveChrom maps "11" to "chr11" and back when only the other spelling
// is loaded.
func (c *Cache) resolveChrom(chrom string) string {
	if _, ok := c.transcripts[chrom]; ok {
		return chrom
	}
	if alt := NormalizeChrom(chrom); alt != chrom {
		return alt
	}
	return "chr" + chrom
}

func sortByID(ts []*Transcript) {
	sort.Slice(ts, func(i, j int) bool { return ts[i].ID < ts[j].ID })
}

func versionOf(id string) string {
	_, v, _ := strings.Cut(id, ".")
	return v
}

// compareVersions compares numeric version suffixes, falling back to
// string comparison for non-numeric versions.
func compareVersions(a, b string) int {
	if len(a) != len(b) && isDigits(a) && isDigits(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
