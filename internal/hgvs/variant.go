package hgvs

import (
	"fmt"
	"strconv"

	"github.com/inodb/vibe-hgvs/internal/cache"
)

// MaxLiteralLength is the longest allele ParseVariant reads from the
// reference for a name that gives only a base count. Longer deletions and
// duplications are returned as structural variants.
const MaxLiteralLength = 50

// TranscriptLookup resolves a transcript accession, returning nil when the
// transcript is unknown.
type TranscriptLookup interface {
	GetTranscript(id string) *cache.Transcript
}

// Variant is a genomic variant with 1-based position and forward-strand
// alleles. An empty Ref is an insertion between Pos-1 and Pos. SVLength is
// non-zero for structural variants whose alleles are given only by length:
// negative for a deletion starting at Pos, positive for an insertion.
type Variant struct {
	Chrom    string
	Pos      int64
	Ref      string
	Alt      string
	SVLength int64
}

func (v Variant) String() string {
	s := v.Chrom + ":" + strconv.FormatInt(v.Pos, 10) + ":" + orDash(v.Ref) + ":" + orDash(v.Alt)
	if v.SVLength != 0 {
		s += ":sv" + strconv.FormatInt(v.SVLength, 10)
	}
	return s
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// VCF returns the variant in VCF representation: empty alleles are padded
// with the preceding reference base (the following base at position 1) and
// structural variants use symbolic <DEL> and <INS> alleles.
func (v Variant) VCF(seq SequenceSource) (Variant, error) {
	if v.Ref != "" && v.Alt != "" && v.SVLength == 0 {
		return v, nil
	}
	if v.Pos <= 1 {
		if v.SVLength != 0 {
			return Variant{}, fmt.Errorf("cannot pad structural variant at %s:%d", v.Chrom, v.Pos)
		}
		end := v.Pos + int64(len(v.Ref))
		b, err := seq.Sequence(v.Chrom, end, end)
		if err != nil {
			return Variant{}, fmt.Errorf("read padding base: %w", err)
		}
		return Variant{Chrom: v.Chrom, Pos: v.Pos, Ref: v.Ref + b, Alt: v.Alt + b}, nil
	}

	b, err := seq.Sequence(v.Chrom, v.Pos-1, v.Pos-1)
	if err != nil {
		return Variant{}, fmt.Errorf("read padding base: %w", err)
	}
	out := Variant{Chrom: v.Chrom, Pos: v.Pos - 1, Ref: b + v.Ref, Alt: b + v.Alt, SVLength: v.SVLength}
	switch {
	case v.SVLength < 0:
		out.Ref, out.Alt = b, "<DEL>"
	case v.SVLength > 0:
		out.Ref, out.Alt = b, "<INS>"
	}
	return out, nil
}

// ParseVariant parses an HGVS name and converts it to a genomic variant.
// Transcript names are resolved through lookup; g. and m. names use the
// accession as the chromosome name. Reference alleles stated in the name are
// checked against seq.
func ParseVariant(name string, seq SequenceSource, lookup TranscriptLookup) (*Variant, error) {
	n, err := ParseName(name)
	if err != nil {
		return nil, err
	}
	return NameToVariant(n, seq, lookup)
}

// NameToVariant converts a parsed name to a genomic variant. Alleles of a
// hand-built name are validated the same way the parser validates them.
func NameToVariant(n *Name, seq SequenceSource, lookup TranscriptLookup) (*Variant, error) {
	chrom := n.Transcript
	var (
		start, end int64
		strand     int8 = 1
		err        error
	)
	ref, err := ValidateBases(n.Ref)
	if err != nil {
		return nil, err
	}
	alt, err := ValidateBases(n.Alt)
	if err != nil {
		return nil, err
	}

	if n.Kind.IsTranscript() {
		var t *cache.Transcript
		if lookup != nil {
			t = lookup.GetTranscript(n.Transcript)
		}
		if t == nil {
			return nil, fmt.Errorf("%w: %s", ErrTranscriptNotFound, n.Transcript)
		}
		if n.Kind == KindCoding && !t.IsCoding() {
			return nil, &OutOfTranscriptError{Transcript: t.ID, Reason: "c. name on a non-coding transcript"}
		}
		if n.Kind == KindNonCoding && t.IsCoding() {
			return nil, &OutOfTranscriptError{Transcript: t.ID, Reason: "n. name on a coding transcript"}
		}
		var l *txLayout
		if l, err = newLayout(t); err != nil {
			return nil, err
		}
		if start, err = l.cdnaToGenomic(n.Start); err != nil {
			return nil, err
		}
		if end, err = l.cdnaToGenomic(n.End); err != nil {
			return nil, err
		}
		if t.IsReverseStrand() {
			start, end = end, start
		}
		chrom, strand = t.Chrom, t.Strand
	} else {
		start, end = n.Start.Coord, n.End.Coord
	}

	if strand < 0 {
		if ref, err = ReverseComplement(ref); err != nil {
			return nil, err
		}
		if alt, err = ReverseComplement(alt); err != nil {
			return nil, err
		}
	}
	v := &Variant{Chrom: chrom, Pos: start}
	width := end - start + 1
	if n.MutationType != Insertion && ref != "" && int64(len(ref)) != width {
		return nil, &InvalidCoordinateError{Transcript: n.Transcript, Coord: n.Start,
			Reason: fmt.Sprintf("allele %s does not span range of %d bases", n.Ref, width)}
	}

	switch n.MutationType {
	case Insertion:
		if end != start+1 {
			return nil, &InvalidCoordinateError{Transcript: n.Transcript, Coord: n.Start, Reason: "insertion flanks are not adjacent"}
		}
		v.Pos = end
		if alt != "" {
			v.Alt = alt
		} else {
			v.SVLength = n.AltLength
		}
		return v, nil

	case Deletion:
		if n.RefLength > 0 && n.RefLength != width {
			return nil, &InvalidCoordinateError{Transcript: n.Transcript, Coord: n.Start,
				Reason: fmt.Sprintf("deletion length %d does not match range of %d bases", n.RefLength, width)}
		}
		if ref == "" && width > MaxLiteralLength {
			v.SVLength = -width
			return v, nil
		}
		if v.Ref, err = checkedReference(seq, chrom, start, end, ref); err != nil {
			return nil, err
		}
		return v, nil

	case Duplication:
		if n.RefLength > 0 && n.RefLength != width {
			return nil, &InvalidCoordinateError{Transcript: n.Transcript, Coord: n.Start,
				Reason: fmt.Sprintf("duplication length %d does not match range of %d bases", n.RefLength, width)}
		}
		v.Pos = end + 1
		if ref == "" && width > MaxLiteralLength {
			v.SVLength = width
			return v, nil
		}
		if v.Alt, err = checkedReference(seq, chrom, start, end, ref); err != nil {
			return nil, err
		}
		return v, nil

	case Substitution, DelIns:
		if v.Ref, err = checkedReference(seq, chrom, start, end, ref); err != nil {
			return nil, err
		}
		v.Alt = alt
		return v, nil

	case Inversion:
		if v.Ref, err = checkedReference(seq, chrom, start, end, ref); err != nil {
			return nil, err
		}
		if v.Alt, err = ReverseComplement(v.Ref); err != nil {
			return nil, err
		}
		return v, nil

	case Identity:
		if v.Ref, err = checkedReference(seq, chrom, start, end, ref); err != nil {
			return nil, err
		}
		v.Alt = v.Ref
		return v, nil
	}
	return nil, fmt.Errorf("unsupported mutation type %s", n.MutationType)
}

// checkedReference reads start..end from seq and compares it with the
// allele stated in the name, if any.
func checkedReference(seq SequenceSource, chrom string, start, end int64, stated string) (string, error) {
	if seq == nil {
		if stated == "" {
			return "", fmt.Errorf("reference sequence required for %s:%d-%d", chrom, start, end)
		}
		return stated, nil
	}
	actual, err := seq.Sequence(chrom, start, end)
	if err != nil {
		return "", fmt.Errorf("read reference: %w", err)
	}
	actual, err = ValidateBases(actual)
	if err != nil {
		return "", err
	}
	if stated != "" && stated != actual {
		return "", &ReferenceMismatchError{Chrom: chrom, Pos: start, Expected: stated, Actual: actual}
	}
	return actual, nil
}
