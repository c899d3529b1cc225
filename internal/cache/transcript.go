// Package cache provides transcript storage and loading functionality.
package cache

import (
	"fmt"
	"sort"
)

// Transcript represents a specific gene isoform.
//
// All coordinates are 1-based and inclusive. Exons are kept in ascending
// genomic order regardless of strand.
type Transcript struct {
	ID       string // Transcript ID with version (e.g., NM_000352.3)
	GeneName string // Parent gene symbol
	Chrom    string // Chromosome
	Start    int64  // Transcript start
	End      int64  // Transcript end
	Strand   int8   // +1 or -1
	Exons    []Exon // Exons, ascending genomic order
	CDSStart int64  // CDS start (genomic), 0 if non-coding
	CDSEnd   int64  // CDS end (genomic), 0 if non-coding
}

// Exon represents a single exon within a transcript.
type Exon struct {
	Number int   // Exon number in transcription order (1-based)
	Start  int64 // Genomic start
	End    int64 // Genomic end
}

// Len returns the number of bases in the exon.
func (e Exon) Len() int64 {
	return e.End - e.Start + 1
}

// IsCoding returns true if the transcript has a coding sequence.
func (t *Transcript) IsCoding() bool {
	return t.CDSStart > 0 && t.CDSEnd > 0
}

// IsForwardStrand returns true if the transcript is on the forward strand.
func (t *Transcript) IsForwardStrand() bool {
	return t.Strand == 1
}

// IsReverseStrand returns true if the transcript is on the reverse strand.
func (t *Transcript) IsReverseStrand() bool {
	return t.Strand == -1
}

// Contains returns true if the given position is within the transcript boundaries.
func (t *Transcript) Contains(pos int64) bool {
	return pos >= t.Start && pos <= t.End
}

// ContainsCDS returns true if the given position is within the CDS boundaries.
func (t *Transcript) ContainsCDS(pos int64) bool {
	if !t.IsCoding() {
		return false
	}
	return pos >= t.CDSStart && pos <= t.CDSEnd
}

// FindExon returns the exon containing the given genomic position, or nil if
// the position is not exonic.
func (t *Transcript) FindExon(pos int64) *Exon {
	i := sort.Search(len(t.Exons), func(i int) bool {
		return t.Exons[i].End >= pos
	})
	if i < len(t.Exons) && t.Exons[i].Start <= pos {
		return &t.Exons[i]
	}
	return nil
}

// ExonicLength returns the number of exonic bases in the transcript.
func (t *Transcript) ExonicLength() int64 {
	var n int64
	for _, e := range t.Exons {
		n += e.Len()
	}
	return n
}

// Validate checks the structural invariants of the transcript: sorted,
// non-overlapping exons within the transcript span and a CDS that starts
// and ends inside exons.
func (t *Transcript) Validate() error {
	if t.Strand != 1 && t.Strand != -1 {
		return fmt.Errorf("transcript %s: invalid strand %d", t.ID, t.Strand)
	}
	if len(t.Exons) == 0 {
		return fmt.Errorf("transcript %s: no exons", t.ID)
	}
	for i, e := range t.Exons {
		if e.Start > e.End {
			return fmt.Errorf("transcript %s: exon %d has start %d after end %d", t.ID, i+1, e.Start, e.End)
		}
		if i > 0 && e.Start <= t.Exons[i-1].End {
			return fmt.Errorf("transcript %s: exon %d overlaps or is out of order", t.ID, i+1)
		}
	}
	if t.Exons[0].Start < t.Start || t.Exons[len(t.Exons)-1].End > t.End {
		return fmt.Errorf("transcript %s: exons extend beyond transcript %d-%d", t.ID, t.Start, t.End)
	}
	if t.IsCoding() {
		if t.CDSStart > t.CDSEnd {
			return fmt.Errorf("transcript %s: CDS start %d after end %d", t.ID, t.CDSStart, t.CDSEnd)
		}
		if t.FindExon(t.CDSStart) == nil || t.FindExon(t.CDSEnd) == nil {
			return fmt.Errorf("transcript %s: CDS %d-%d not within exons", t.ID, t.CDSStart, t.CDSEnd)
		}
	}
	return nil
}

// NumberExons assigns exon numbers in transcription order.
func (t *Transcript) NumberExons() {
	n := len(t.Exons)
	for i := range t.Exons {
		if t.IsReverseStrand() {
			t.Exons[i].Number = n - i
		} else {
			t.Exons[i].Number = i + 1
		}
	}
}
