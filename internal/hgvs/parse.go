package hgvs

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseName parses an HGVS nucleotide name of the form
//
//	accession["(" gene ")"] ":" kind "." position ["_" position] edit
//
// Supported edits are substitution (A>G), del, ins, dup, delins, inv and
// identity (=). Alleles may be literal bases or, for del, ins, dup and inv,
// a base count. r. names use lower-case RNA bases, which are returned as
// upper-case DNA. Any grammar violation yields *MalformedNameError.
func ParseName(name string) (*Name, error) {
	p := &nameParser{in: name}
	if i := strings.IndexFunc(name, unicode.IsSpace); i >= 0 {
		return nil, p.failAt(i, "name without whitespace")
	}

	n := &Name{}
	n.Transcript = p.until("():")
	if n.Transcript == "" {
		return nil, p.fail("transcript accession")
	}
	if p.consume("(") {
		n.Gene = p.until("():")
		if n.Gene == "" {
			return nil, p.fail("gene symbol")
		}
		if !p.consume(")") {
			return nil, p.fail("')'")
		}
	}
	if !p.consume(":") {
		return nil, p.fail("':'")
	}
	k, ok := parseKind(p.peek())
	if !ok {
		return nil, p.fail("coordinate kind (c, n, g, m or r)")
	}
	p.pos++
	n.Kind = k
	if !p.consume(".") {
		return nil, p.fail("'.'")
	}

	var err error
	if n.Start, err = p.coord(k); err != nil {
		return nil, err
	}
	n.End = n.Start
	rangeAt := p.pos
	if p.consume("_") {
		if n.End, err = p.coord(k); err != nil {
			return nil, err
		}
		if n.End.Compare(n.Start) < 0 {
			return nil, p.failAt(rangeAt+1, "range end not before its start")
		}
	}

	editAt := p.pos
	if err := p.edit(n); err != nil {
		return nil, err
	}
	if !p.eof() {
		return nil, p.fail("end of name")
	}

	switch n.MutationType {
	case Substitution:
		if n.Start != n.End {
			return nil, p.failAt(rangeAt, "single position for a substitution")
		}
	case Insertion:
		if n.Start == n.End {
			return nil, p.failAt(editAt, "flanking range for an insertion")
		}
	}
	return n, nil
}

// nameParser is a cursor over an HGVS name.
type nameParser struct {
	in  string
	pos int
}

func (p *nameParser) eof() bool {
	return p.pos >= len(p.in)
}

func (p *nameParser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.in[p.pos]
}

func (p *nameParser) fail(expected string) error {
	return p.failAt(p.pos, expected)
}

func (p *nameParser) failAt(pos int, expected string) error {
	var tok string
	if pos < len(p.in) {
		tok = p.in[pos:]
		if len(tok) > 12 {
			tok = tok[:12]
		}
	}
	return &MalformedNameError{Input: p.in, Pos: pos, Token: tok, Expected: expected}
}

func (p *nameParser) consume(lit string) bool {
	if strings.HasPrefix(p.in[p.pos:], lit) {
		p.pos += len(lit)
		return true
	}
	return false
}

// until consumes bytes up to the first byte in stop.
func (p *nameParser) until(stop string) string {
	start := p.pos
	for !p.eof() && strings.IndexByte(stop, p.peek()) < 0 {
		p.pos++
	}
	return p.in[start:p.pos]
}

// number consumes a run of decimal digits. ok is false when there is none.
func (p *nameParser) number() (v int64, ok bool, err error) {
	start := p.pos
	for !p.eof() && p.peek() >= '0' && p.peek() <= '9' {
		p.pos++
	}
	if start == p.pos {
		return 0, false, nil
	}
	v, perr := strconv.ParseInt(p.in[start:p.pos], 10, 64)
	if perr != nil {
		return 0, false, p.failAt(start, "number in range")
	}
	return v, true, nil
}

// coord parses one position. Transcript kinds accept the "-" and "*"
// prefixes and an intronic offset; g. and m. accept plain positive integers.
func (p *nameParser) coord(k Kind) (CDNACoord, error) {
	var c CDNACoord
	sign := int64(1)
	switch p.peek() {
	case '*':
		if k != KindCoding && k != KindRNA {
			return c, p.fail("position")
		}
		p.pos++
		c.Landmark = CodingEnd
	case '-':
		if !k.IsTranscript() {
			return c, p.fail("position")
		}
		p.pos++
		sign = -1
	}

	at := p.pos
	v, ok, err := p.number()
	if err != nil {
		return c, err
	}
	if !ok {
		return c, p.fail("position")
	}
	if v == 0 {
		return c, p.failAt(at, "nonzero position")
	}
	c.Coord = sign * v

	if b := p.peek(); k.IsTranscript() && (b == '+' || b == '-') {
		p.pos++
		at := p.pos
		off, ok, err := p.number()
		if err != nil {
			return c, err
		}
		if !ok {
			return c, p.fail("intronic offset")
		}
		if off == 0 {
			return c, p.failAt(at, "nonzero intronic offset")
		}
		if b == '-' {
			off = -off
		}
		c.Offset = off
	}
	return c, nil
}

func (p *nameParser) edit(n *Name) error {
	k := n.Kind
	switch {
	case p.consume("delins"):
		n.MutationType = DelIns
		if n.Alt = p.bases(k); n.Alt == "" {
			return p.fail("inserted bases")
		}
	case p.consume("del"):
		n.MutationType = Deletion
		if err := p.allele(k, &n.Ref, &n.RefLength); err != nil {
			return err
		}
		if p.consume("ins") {
			n.MutationType = DelIns
			if n.Alt = p.bases(k); n.Alt == "" {
				return p.fail("inserted bases")
			}
		}
	case p.consume("ins"):
		n.MutationType = Insertion
		if err := p.allele(k, &n.Alt, &n.AltLength); err != nil {
			return err
		}
		if n.Alt == "" && n.AltLength == 0 {
			return p.fail("inserted bases or length")
		}
	case p.consume("dup"):
		n.MutationType = Duplication
		return p.allele(k, &n.Ref, &n.RefLength)
	case p.consume("inv"):
		n.MutationType = Inversion
		return p.allele(k, &n.Ref, &n.RefLength)
	case p.consume("="):
		n.MutationType = Identity
	default:
		at := p.pos
		ref := p.bases(k)
		if ref == "" {
			return p.fail("edit (>, del, ins, dup, delins, inv or =)")
		}
		switch {
		case p.consume(">"):
			if len(ref) != 1 {
				return p.failAt(at, "single reference base")
			}
			altAt := p.pos
			alt := p.bases(k)
			if len(alt) != 1 {
				return p.failAt(altAt, "single alternate base")
			}
			n.MutationType = Substitution
			n.Ref, n.Alt = ref, alt
		case p.consume("="):
			n.MutationType = Identity
			n.Ref = ref
		default:
			return p.fail("'>' or '='")
		}
	}
	return nil
}

// allele parses an optional literal sequence or base count.
func (p *nameParser) allele(k Kind, seq *string, length *int64) error {
	at := p.pos
	v, ok, err := p.number()
	if err != nil {
		return err
	}
	if ok {
		if v == 0 {
			return p.failAt(at, "nonzero allele length")
		}
		*length = v
		return nil
	}
	*seq = p.bases(k)
	return nil
}

// bases consumes a run of nucleotide letters, returned as upper-case DNA.
func (p *nameParser) bases(k Kind) string {
	start := p.pos
	for !p.eof() && isNameBase(k, p.peek()) {
		p.pos++
	}
	s := p.in[start:p.pos]
	if k == KindRNA {
		s = strings.ToUpper(strings.ReplaceAll(s, "u", "t"))
	}
	return s
}

func isNameBase(k Kind, b byte) bool {
	if k == KindRNA {
		return strings.IndexByte("acgun", b) >= 0
	}
	return strings.IndexByte("ACGTN", b) >= 0
}
