// Package vcf reads VCF records as input for batch HGVS conversion.
package vcf

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnsupportedAllele is returned for ALT values that do not describe a
// single sequence change: missing alleles, spanning deletions, breakends
// and symbolic types other than <DEL> and <INS>.
var ErrUnsupportedAllele = errors.New("unsupported alternate allele")

// Variant represents a single record from a VCF file.
type Variant struct {
	Chrom   string            // Chromosome name (e.g., "12", "chr12")
	Pos     int64             // 1-based genomic position
	ID      string            // Variant identifier (e.g., rs ID)
	Ref     string            // Reference allele
	Alt     string            // Alternate allele (single allele after splitting)
	Qual    float64           // Quality score
	Filter  string            // Filter status (PASS or filter name)
	Info    map[string]string // INFO key-value pairs; flags map to ""
	RawInfo string            // INFO column as read
}

// IsSymbolic reports whether Alt is a symbolic allele such as <DEL>.
func (v *Variant) IsSymbolic() bool {
	return strings.HasPrefix(v.Alt, "<") && strings.HasSuffix(v.Alt, ">")
}

// IsMultiAllelic reports whether Alt lists more than one allele.
func (v *Variant) IsMultiAllelic() bool {
	return strings.Contains(v.Alt, ",")
}

// Location returns chrom:pos.
func (v *Variant) Location() string {
	return v.Chrom + ":" + strconv.FormatInt(v.Pos, 10)
}

// Alleles maps the record onto the 1-based minimal-allele convention used
// for HGVS formatting. Literal alleles pass through unchanged. Symbolic
// <DEL> and <INS> records drop their padding base: the change starts at
// Pos+1, both alleles are empty and svLength carries the signed length
// (negative for deletions). Literal records that also carry SVLEN keep it
// so long events can be rendered by length.
func (v *Variant) Alleles() (pos int64, ref, alt string, svLength int64, err error) {
	switch {
	case v.Alt == "" || v.Alt == "." || v.Alt == "*":
		return 0, "", "", 0, fmt.Errorf("%w: %q at %s", ErrUnsupportedAllele, v.Alt, v.Location())
	case strings.ContainsAny(v.Alt, "[]"):
		return 0, "", "", 0, fmt.Errorf("%w: breakend %q at %s", ErrUnsupportedAllele, v.Alt, v.Location())
	case v.IsMultiAllelic():
		return 0, "", "", 0, fmt.Errorf("%w: multi-allelic %q at %s", ErrUnsupportedAllele, v.Alt, v.Location())
	}

	if v.IsSymbolic() {
		n, err := v.svLen()
		if err != nil {
			return 0, "", "", 0, err
		}
		typ, _, _ := strings.Cut(v.Alt[1:len(v.Alt)-1], ":")
		if typ != "DEL" && typ != "INS" {
			return 0, "", "", 0, fmt.Errorf("%w: %s at %s", ErrUnsupportedAllele, v.Alt, v.Location())
		}
		if n == 0 {
			return 0, "", "", 0, fmt.Errorf("%w: %s without SVLEN or END at %s", ErrUnsupportedAllele, v.Alt, v.Location())
		}
		if typ == "DEL" {
			n = -n
		}
		return v.Pos + 1, "", "", n, nil
	}

	if _, ok := v.Info["SVLEN"]; ok {
		n, err := v.svLen()
		if err != nil {
			return 0, "", "", 0, err
		}
		if len(v.Ref) > len(v.Alt) {
			n = -n
		}
		svLength = n
	}
	return v.Pos, v.Ref, v.Alt, svLength, nil
}

// svLen returns the absolute event length from SVLEN, falling back to
// END-POS. A record without either yields 0.
func (v *Variant) svLen() (int64, error) {
	if s, ok := v.Info["SVLEN"]; ok {
		// A list that did not match the ALT count keeps its first value.
		s, _, _ = strings.Cut(s, ",")
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid SVLEN %q at %s: %w", s, v.Location(), err)
		}
		if n < 0 {
			n = -n
		}
		return n, nil
	}
	if s, ok := v.Info["END"]; ok {
		end, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid END %q at %s: %w", s, v.Location(), err)
		}
		if end <= v.Pos {
			return 0, fmt.Errorf("END %d not after POS at %s", end, v.Location())
		}
		return end - v.Pos, nil
	}
	return 0, nil
}
