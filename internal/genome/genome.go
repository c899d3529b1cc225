// Package genome provides random-access reference sequence sources.
//
// All sources use 1-based inclusive coordinates: Sequence(chrom, start, end)
// returns the bases at positions start..end. An empty range (end == start-1)
// returns "". Lookups outside the sequence fail with *SequenceRangeError.
package genome

import (
	"fmt"
	"strings"
)

// SequenceRangeError reports a lookup outside the bounds of a reference
// sequence, or on a sequence the reference does not contain.
type SequenceRangeError struct {
	Chrom  string
	Start  int64
	End    int64
	Length int64 // -1 when the sequence is unknown
}

func (e *SequenceRangeError) Error() string {
	if e.Length < 0 {
		return fmt.Sprintf("sequence %q not found in reference", e.Chrom)
	}
	return fmt.Sprintf("range %s:%d-%d outside sequence of length %d", e.Chrom, e.Start, e.End, e.Length)
}

// checkRange validates a 1-based inclusive range against a sequence length.
func checkRange(chrom string, start, end, length int64) error {
	if start < 1 || end < start-1 || end > length {
		return &SequenceRangeError{Chrom: chrom, Start: start, End: end, Length: length}
	}
	return nil
}

// Memory is an in-memory reference, mostly useful for tests and small
// targeted references. Each sequence may start at an arbitrary position so
// that a short window can stand in for a whole chromosome. It is read-only
// after construction.
type Memory struct {
	seqs map[string]region
}

type region struct {
	start int64
	seq   string
}

// NewMemory creates a reference from chromosome name to sequence.
// Sequences are upper-cased.
func NewMemory(seqs map[string]string) *Memory {
	m := &Memory{seqs: make(map[string]region, len(seqs))}
	for name, s := range seqs {
		m.seqs[name] = region{start: 1, seq: strings.ToUpper(s)}
	}
	return m
}

// WithRegion adds seq as the bases of chrom starting at position start,
// replacing any earlier sequence for chrom. Positions before start are out
// of range.
func (m *Memory) WithRegion(chrom string, start int64, seq string) *Memory {
	m.seqs[chrom] = region{start: start, seq: strings.ToUpper(seq)}
	return m
}

// Sequence returns bases start..end (1-based, inclusive) of chrom.
func (m *Memory) Sequence(chrom string, start, end int64) (string, error) {
	name, ok := resolveName(chrom, func(n string) bool {
		_, ok := m.seqs[n]
		return ok
	})
	if !ok {
		return "", &SequenceRangeError{Chrom: chrom, Start: start, End: end, Length: -1}
	}
	r := m.seqs[name]
	last := r.start + int64(len(r.seq)) - 1
	if start < r.start {
		return "", &SequenceRangeError{Chrom: chrom, Start: start, End: end, Length: last}
	}
	if err := checkRange(chrom, start, end, last); err != nil {
		return "", err
	}
	return r.seq[start-r.start : end-r.start+1], nil
}

// resolveName finds chrom in a reference, retrying with the "chr" prefix
// added or removed.
func resolveName(chrom string, has func(string) bool) (string, bool) {
	if has(chrom) {
		return chrom, true
	}
	alt := "chr" + chrom
	if strings.HasPrefix(chrom, "chr") {
		alt = chrom[3:]
	}
	if has(alt) {
		return alt, true
	}
	return "", false
}
