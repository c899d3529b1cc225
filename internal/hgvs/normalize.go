package hgvs

import (
	"errors"
	"strings"

	"github.com/inodb/vibe-hgvs/internal/genome"
)

// SequenceSource provides reference bases for 1-based inclusive ranges.
// Sequence(chrom, start, start-1) returns "".
type SequenceSource interface {
	Sequence(chrom string, start, end int64) (string, error)
}

var complement = [256]byte{'A': 'T', 'C': 'G', 'G': 'C', 'T': 'A', 'N': 'N'}

// ValidateBases upper-cases seq and checks that it contains only A, C, G,
// T and N.
func ValidateBases(seq string) (string, error) {
	up := strings.ToUpper(seq)
	for i := 0; i < len(up); i++ {
		if complement[up[i]] == 0 {
			return "", &InvalidBaseError{Allele: seq, Index: i}
		}
	}
	return up, nil
}

// ReverseComplement returns the reverse complement of an upper-case DNA
// sequence. N complements to N.
func ReverseComplement(seq string) (string, error) {
	b := make([]byte, len(seq))
	for i := 0; i < len(seq); i++ {
		c := complement[seq[i]]
		if c == 0 {
			return "", &InvalidBaseError{Allele: seq, Index: i}
		}
		b[len(seq)-1-i] = c
	}
	return string(b), nil
}

func mustReverseComplement(seq string) string {
	rc, err := ReverseComplement(seq)
	if err != nil {
		panic(err)
	}
	return rc
}

// TrimAlleles removes the shared prefix, advancing pos, and then the shared
// suffix of ref and alt.
func TrimAlleles(pos int64, ref, alt string) (int64, string, string) {
	for len(ref) > 0 && len(alt) > 0 && ref[0] == alt[0] {
		ref, alt = ref[1:], alt[1:]
		pos++
	}
	for len(ref) > 0 && len(alt) > 0 && ref[len(ref)-1] == alt[len(alt)-1] {
		ref, alt = ref[:len(ref)-1], alt[:len(alt)-1]
	}
	return pos, ref, alt
}

// Classify returns the mutation type of trimmed alleles.
func Classify(ref, alt string) MutationType {
	switch {
	case ref == alt:
		return Identity
	case alt == "":
		return Deletion
	case ref == "":
		return Insertion
	case len(ref) == 1 && len(alt) == 1:
		return Substitution
	}
	return DelIns
}

// Allele is a variant reduced to its minimal form on a transcript.
type Allele struct {
	Pos   int64  // genomic position of the first affected base
	Ref   string // genomic orientation
	Alt   string // genomic orientation
	TxRef string // transcript orientation
	TxAlt string // transcript orientation
	Type  MutationType
}

// Normalize validates, trims and classifies a genomic variant and expresses
// its alleles in the orientation of strand (1 or -1).
func Normalize(pos int64, ref, alt string, strand int8) (*Allele, error) {
	ref, err := ValidateBases(ref)
	if err != nil {
		return nil, err
	}
	alt, err = ValidateBases(alt)
	if err != nil {
		return nil, err
	}

	a := &Allele{Pos: pos, Ref: ref, Alt: alt, Type: Identity}
	if ref != alt {
		a.Pos, a.Ref, a.Alt = TrimAlleles(pos, ref, alt)
		a.Type = Classify(a.Ref, a.Alt)
	}
	a.orient(strand)
	return a, nil
}

func (a *Allele) orient(strand int8) {
	a.TxRef, a.TxAlt = a.Ref, a.Alt
	if strand < 0 {
		a.TxRef = mustReverseComplement(a.Ref)
		a.TxAlt = mustReverseComplement(a.Alt)
	}
}

// Justify shifts a pure insertion or deletion as far as possible in
// direction dir (1 towards higher positions, -1 towards lower) while it
// describes the same sequence change. Other alleles are returned unchanged.
// Shifting stops at the ends of the reference sequence.
func Justify(seq SequenceSource, chrom string, pos int64, ref, alt string, dir int) (int64, string, string, error) {
	if (ref == "") == (alt == "") {
		return pos, ref, alt, nil
	}
	s := []byte(ref + alt)
	n := int64(len(s))
	if dir >= 0 {
		// next base after the event: pos+len(ref) for both cases.
		next := pos + int64(len(ref))
		for {
			b, ok, err := baseAt(seq, chrom, next)
			if err != nil {
				return 0, "", "", err
			}
			if !ok || b != s[0] {
				break
			}
			s = append(s[1:], s[0])
			pos++
			next++
		}
	} else {
		for {
			b, ok, err := baseAt(seq, chrom, pos-1)
			if err != nil {
				return 0, "", "", err
			}
			if !ok || b != s[n-1] {
				break
			}
			s = append([]byte{s[n-1]}, s[:n-1]...)
			pos--
		}
	}
	if ref != "" {
		return pos, string(s), "", nil
	}
	return pos, "", string(s), nil
}

// findDuplicate reports whether inserting ins between pos-1 and pos
// duplicates an adjacent copy of the same bases. The copy on the 5' side in
// transcription direction is preferred. It returns the duplicated range.
func findDuplicate(seq SequenceSource, chrom string, pos int64, ins string, dir int) (start, end int64, ok bool, err error) {
	n := int64(len(ins))
	before := [2]int64{pos - n, pos - 1}
	after := [2]int64{pos, pos + n - 1}
	order := [][2]int64{before, after}
	if dir < 0 {
		order = [][2]int64{after, before}
	}
	for _, r := range order {
		got, found, err := rangeAt(seq, chrom, r[0], r[1])
		if err != nil {
			return 0, 0, false, err
		}
		if found && got == ins {
			return r[0], r[1], true, nil
		}
	}
	return 0, 0, false, nil
}

// rangeAt fetches reference bases, reporting ok=false when the range runs
// off the sequence.
func rangeAt(seq SequenceSource, chrom string, start, end int64) (string, bool, error) {
	if start < 1 {
		return "", false, nil
	}
	s, err := seq.Sequence(chrom, start, end)
	if err != nil {
		var rerr *genome.SequenceRangeError
		if errors.As(err, &rerr) && rerr.Length >= 0 {
			return "", false, nil
		}
		return "", false, err
	}
	return strings.ToUpper(s), true, nil
}

func baseAt(seq SequenceSource, chrom string, pos int64) (byte, bool, error) {
	s, ok, err := rangeAt(seq, chrom, pos, pos)
	if err != nil || !ok || len(s) != 1 {
		return 0, false, err
	}
	return s[0], true, nil
}
