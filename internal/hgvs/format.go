package hgvs

import (
	"github.com/inodb/vibe-hgvs/internal/cache"
)

// FormatOption configures FormatName and BuildName.
type FormatOption func(*formatOptions)

type formatOptions struct {
	svLength        int64
	maxAlleleLength int
	justify         bool
}

func defaultFormatOptions() formatOptions {
	return formatOptions{maxAlleleLength: DefaultMaxAlleleLength, justify: true}
}

// WithSVLength marks the variant as structural: negative values are
// deletions of that many bases starting at pos, positive values insertions
// between pos-1 and pos. The alleles may then be empty.
func WithSVLength(n int64) FormatOption {
	return func(o *formatOptions) { o.svLength = n }
}

// WithMaxAlleleLength sets the longest allele rendered literally.
func WithMaxAlleleLength(n int) FormatOption {
	return func(o *formatOptions) { o.maxAlleleLength = n }
}

// WithJustify shifts indels to their 3'-most position in transcription
// direction and reports insertions of an adjacent copy as dup. It is on by
// default and has no effect without a SequenceSource.
func WithJustify(on bool) FormatOption {
	return func(o *formatOptions) { o.justify = on }
}

// FormatName renders a genomic variant as an HGVS name on transcript t.
// The name uses c. numbering for coding transcripts and n. otherwise.
func FormatName(chrom string, pos int64, ref, alt string, seq SequenceSource, t *cache.Transcript, opts ...FormatOption) (string, error) {
	if t == nil {
		return "", &OutOfTranscriptError{Chrom: chrom, Pos: pos, Reason: "no transcript"}
	}
	o := defaultFormatOptions()
	for _, opt := range opts {
		opt(&o)
	}
	n, err := buildName(chrom, pos, ref, alt, seq, t, o)
	if err != nil {
		return "", err
	}
	return n.Format(o.maxAlleleLength), nil
}

// BuildName is FormatName without the final rendering.
func BuildName(chrom string, pos int64, ref, alt string, seq SequenceSource, t *cache.Transcript, opts ...FormatOption) (*Name, error) {
	if t == nil {
		return nil, &OutOfTranscriptError{Chrom: chrom, Pos: pos, Reason: "no transcript"}
	}
	o := defaultFormatOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return buildName(chrom, pos, ref, alt, seq, t, o)
}

// FormatGenomicName renders a variant as a g. name on the reference
// sequence chrom.
func FormatGenomicName(chrom string, pos int64, ref, alt string, seq SequenceSource, opts ...FormatOption) (string, error) {
	o := defaultFormatOptions()
	for _, opt := range opts {
		opt(&o)
	}
	n, err := buildName(chrom, pos, ref, alt, seq, nil, o)
	if err != nil {
		return "", err
	}
	return n.Format(o.maxAlleleLength), nil
}

// coordMapper projects genomic positions onto the name's coordinate system.
type coordMapper struct {
	layout *txLayout
}

func (m coordMapper) dir() int {
	if m.layout == nil {
		return 1
	}
	return int(m.layout.dir)
}

func (m coordMapper) coord(pos int64) CDNACoord {
	if m.layout == nil {
		return CDNACoord{Coord: pos}
	}
	return m.layout.genomicToCDNA(pos)
}

func buildName(chrom string, pos int64, ref, alt string, seq SequenceSource, t *cache.Transcript, o formatOptions) (*Name, error) {
	n := &Name{Transcript: chrom, Kind: KindGenomic}
	var m coordMapper
	strand := int8(1)
	if t != nil {
		if cache.NormalizeChrom(chrom) != cache.NormalizeChrom(t.Chrom) {
			return nil, &OutOfTranscriptError{Transcript: t.ID, Chrom: chrom, Pos: pos, Reason: "variant is on a different chromosome (" + t.Chrom + ")"}
		}
		l, err := newLayout(t)
		if err != nil {
			return nil, err
		}
		m.layout = l
		strand = t.Strand
		n.Transcript, n.Gene, n.Kind = t.ID, t.GeneName, KindNonCoding
		if t.IsCoding() {
			n.Kind = KindCoding
		}
	}

	a, err := Normalize(pos, ref, alt, strand)
	if err != nil {
		return nil, err
	}

	var start, end int64
	svLen := abs(o.svLength)
	isSV := o.svLength != 0 && ((a.Ref == "" && a.Alt == "") || svLen > int64(o.maxAlleleLength))

	switch {
	case isSV && o.svLength < 0:
		n.MutationType = Deletion
		n.RefLength = svLen
		start, end = a.Pos, a.Pos+svLen-1
	case isSV:
		n.MutationType = Insertion
		n.AltLength = svLen
		start, end = a.Pos-1, a.Pos
	case a.Ref == "" && a.Alt == "":
		return nil, ErrEmptyVariant
	default:
		if o.justify && seq != nil && a.Type != Identity {
			p, r, al, err := Justify(seq, chrom, a.Pos, a.Ref, a.Alt, m.dir())
			if err != nil {
				return nil, err
			}
			a.Pos, a.Ref, a.Alt = p, r, al
			a.orient(strand)
		}
		n.MutationType = a.Type
		start, end = a.Pos, a.Pos+int64(len(a.Ref))-1

		if a.Type == Insertion {
			start, end = a.Pos-1, a.Pos
			if o.justify && seq != nil {
				ds, de, dup, err := findDuplicate(seq, chrom, a.Pos, a.Alt, m.dir())
				if err != nil {
					return nil, err
				}
				if dup {
					n.MutationType = Duplication
					start, end = ds, de
				}
			}
		}

		switch n.MutationType {
		case Substitution, DelIns:
			n.Ref, n.Alt = a.TxRef, a.TxAlt
		case Deletion, Identity:
			n.Ref = a.TxRef
		case Insertion:
			n.Alt = a.TxAlt
		case Duplication:
			n.Ref = a.TxAlt
		}
	}

	if m.dir() < 0 {
		start, end = end, start
	}
	n.Start, n.End = m.coord(start), m.coord(end)
	return n, nil
}
