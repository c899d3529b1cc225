package hgvs

import (
	"errors"
	"fmt"
)

// ErrTranscriptNotFound is returned when a name refers to a transcript the
// lookup does not know.
var ErrTranscriptNotFound = errors.New("transcript not found")

// ErrEmptyVariant is returned when both alleles are empty and no
// structural variant length was given.
var ErrEmptyVariant = errors.New("ref and alt alleles are both empty")

// MalformedNameError reports a grammar violation in an HGVS name.
type MalformedNameError struct {
	Input    string // the full name
	Pos      int    // byte offset of the offending token
	Token    string // offending substring, empty at end of input
	Expected string // expected token class
}

func (e *MalformedNameError) Error() string {
	found := "end of input"
	if e.Token != "" {
		found = fmt.Sprintf("%q", e.Token)
	}
	return fmt.Sprintf("malformed HGVS name %q: expected %s at offset %d, found %s",
		e.Input, e.Expected, e.Pos, found)
}

// OutOfTranscriptError reports a position or name that has no
// interpretable context on the given transcript.
type OutOfTranscriptError struct {
	Transcript string
	Chrom      string
	Pos        int64
	Reason     string
}

func (e *OutOfTranscriptError) Error() string {
	if e.Pos != 0 {
		return fmt.Sprintf("%s:%d is outside transcript %s: %s", e.Chrom, e.Pos, e.Transcript, e.Reason)
	}
	return fmt.Sprintf("transcript %s: %s", e.Transcript, e.Reason)
}

// InvalidCoordinateError reports a cDNA coordinate inconsistent with the
// transcript structure, such as an intronic offset longer than the intron.
type InvalidCoordinateError struct {
	Transcript string
	Coord      CDNACoord
	Reason     string
}

func (e *InvalidCoordinateError) Error() string {
	return fmt.Sprintf("invalid coordinate %s on transcript %s: %s", e.Coord, e.Transcript, e.Reason)
}

// InvalidBaseError reports a character outside ACGTN in an allele.
type InvalidBaseError struct {
	Allele string
	Index  int
}

func (e *InvalidBaseError) Error() string {
	return fmt.Sprintf("invalid base %q at index %d of allele %q", e.Allele[e.Index], e.Index, e.Allele)
}

// ReferenceMismatchError reports a reference allele in a name that
// disagrees with the reference genome.
type ReferenceMismatchError struct {
	Chrom    string
	Pos      int64
	Expected string // allele stated by the name, genomic orientation
	Actual   string // bases in the reference
}

func (e *ReferenceMismatchError) Error() string {
	return fmt.Sprintf("reference mismatch at %s:%d: name has %s, genome has %s",
		e.Chrom, e.Pos, e.Expected, e.Actual)
}
