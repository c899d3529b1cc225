// Package hgvs converts variants between genomic coordinates and HGVS
// nucleotide nomenclature.
//
// The package is pure: transcripts and reference sequences are supplied by
// the caller through read-only values and interfaces, and no function keeps
// state between calls.
package hgvs

import (
	"cmp"
	"strconv"
)

// Landmark selects the origin a cDNA coordinate is counted from.
type Landmark int8

const (
	// CodingStart counts from the first base of the start codon (c.1).
	CodingStart Landmark = iota
	// CodingEnd counts from the last base of the stop codon (c.*1 follows it).
	CodingEnd
)

func (l Landmark) String() string {
	if l == CodingEnd {
		return "coding_end"
	}
	return "coding_start"
}

// CDNACoord is a transcript-relative coordinate: a position along the
// spliced transcript plus a signed offset into the adjacent intron.
//
// Coord is never 0. With CodingStart, negative values lie upstream of the
// start codon. With CodingEnd, Coord is positive and counts bases past the
// stop codon. A positive Offset lies downstream (3') of the exon base in
// transcription direction, a negative Offset upstream of it.
type CDNACoord struct {
	Coord    int64
	Offset   int64
	Landmark Landmark
}

// NewCDNACoord returns a coordinate relative to the start codon.
func NewCDNACoord(coord, offset int64) CDNACoord {
	return CDNACoord{Coord: coord, Offset: offset}
}

// IsIntronic reports whether the coordinate carries an intronic offset.
func (c CDNACoord) IsIntronic() bool {
	return c.Offset != 0
}

// Compare orders coordinates by landmark, coord, then offset.
func (c CDNACoord) Compare(o CDNACoord) int {
	if r := cmp.Compare(c.Landmark, o.Landmark); r != 0 {
		return r
	}
	if r := cmp.Compare(c.Coord, o.Coord); r != 0 {
		return r
	}
	return cmp.Compare(c.Offset, o.Offset)
}

// String renders the coordinate in HGVS form: 215, -14, *37, 88+1, 89-2.
func (c CDNACoord) String() string {
	var b []byte
	if c.Landmark == CodingEnd {
		b = append(b, '*')
	}
	b = strconv.AppendInt(b, c.Coord, 10)
	if c.Offset > 0 {
		b = append(b, '+')
	}
	if c.Offset != 0 {
		b = strconv.AppendInt(b, c.Offset, 10)
	}
	return string(b)
}

// ParseCDNACoord parses a single coordinate such as "215-10" or "*37".
func ParseCDNACoord(s string) (CDNACoord, error) {
	p := &nameParser{in: s}
	c, err := p.coord(KindCoding)
	if err != nil {
		return CDNACoord{}, err
	}
	if !p.eof() {
		return CDNACoord{}, p.fail("end of coordinate")
	}
	return c, nil
}
