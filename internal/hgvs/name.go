package hgvs

import (
	"strconv"
	"strings"
)

// DefaultMaxAlleleLength is the longest deleted or duplicated allele that
// is written out literally; longer alleles are rendered as a base count.
const DefaultMaxAlleleLength = 4

// Name is a parsed or constructed HGVS nucleotide name.
//
// Ref and Alt are in transcript orientation for transcript kinds. When an
// allele is known only by length, the literal is empty and the matching
// length field is set.
type Name struct {
	Transcript   string
	Gene         string
	Kind         Kind
	MutationType MutationType
	Start        CDNACoord
	End          CDNACoord
	Ref          string
	Alt          string
	RefLength    int64
	AltLength    int64
}

// String renders the name with DefaultMaxAlleleLength.
func (n *Name) String() string {
	return n.Format(DefaultMaxAlleleLength)
}

// Format renders the name. Deleted, duplicated and inverted alleles longer
// than maxAlleleLength are rendered as a count; inserted alleles are always
// literal when known.
func (n *Name) Format(maxAlleleLength int) string {
	var sb strings.Builder
	sb.WriteString(n.Transcript)
	if n.Gene != "" {
		sb.WriteByte('(')
		sb.WriteString(n.Gene)
		sb.WriteByte(')')
	}
	sb.WriteByte(':')
	sb.WriteByte(byte(n.Kind))
	sb.WriteByte('.')
	sb.WriteString(n.FormatCoords())
	sb.WriteString(n.FormatEdit(maxAlleleLength))
	return sb.String()
}

// FormatCoords renders the position or range part of the name.
func (n *Name) FormatCoords() string {
	if n.Start == n.End {
		return n.Start.String()
	}
	return n.Start.String() + "_" + n.End.String()
}

// FormatEdit renders the edit part of the name, e.g. "A>G" or "del4780".
func (n *Name) FormatEdit(maxAlleleLength int) string {
	ref := n.refText(maxAlleleLength)
	switch n.MutationType {
	case Substitution:
		return n.Ref + ">" + n.Alt
	case Deletion:
		return "del" + ref
	case Duplication:
		return "dup" + ref
	case Inversion:
		return "inv" + ref
	case Insertion:
		return "ins" + n.altText()
	case DelIns:
		return "del" + ref + "ins" + n.altText()
	case Identity:
		if len(n.Ref) > maxAlleleLength {
			return "="
		}
		return n.Ref + "="
	}
	return ""
}

func (n *Name) refText(maxAlleleLength int) string {
	switch {
	case len(n.Ref) > 0 && len(n.Ref) <= maxAlleleLength:
		return n.Ref
	case len(n.Ref) > 0:
		return strconv.Itoa(len(n.Ref))
	case n.RefLength > 0:
		return strconv.FormatInt(n.RefLength, 10)
	}
	return ""
}

func (n *Name) altText() string {
	if n.Alt != "" {
		return n.Alt
	}
	if n.AltLength > 0 {
		return strconv.FormatInt(n.AltLength, 10)
	}
	return ""
}
