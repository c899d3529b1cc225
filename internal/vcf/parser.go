package vcf

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// maxLineLength bounds a single VCF line. Long INFO columns from SV callers
// exceed bufio.Scanner's default.
const maxLineLength = 16 << 20

// Parser reads site records from a VCF stream. Only the eight fixed columns
// are kept; FORMAT and sample columns are skipped.
type Parser struct {
	sc      *bufio.Scanner
	closers []io.Closer
	line    int
	header  []string
}

// NewParser opens a plain or gzip/bgzip compressed VCF file. A path of "-"
// reads stdin.
func NewParser(path string) (*Parser, error) {
	if path == "-" {
		return NewParserFromReader(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vcf file: %w", err)
	}
	r, closers, err := decompress(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	p, err := newParser(r, closers)
	if err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

// NewParserFromReader reads an uncompressed VCF stream. The caller owns r.
func NewParserFromReader(r io.Reader) (*Parser, error) {
	p, err := newParser(r, nil)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// decompress wraps f in a gzip reader when it starts with the gzip magic.
// The returned closers release the gzip reader before the file.
func decompress(f *os.File) (io.Reader, []io.Closer, error) {
	br := bufio.NewReader(f)
	magic, err := br.Peek(2)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("read vcf header: %w", err)
	}
	if len(magic) < 2 || magic[0] != 0x1f || magic[1] != 0x8b {
		return br, []io.Closer{f}, nil
	}
	zr, err := gzip.NewReader(br)
	if err != nil {
		return nil, nil, fmt.Errorf("create gzip reader: %w", err)
	}
	return zr, []io.Closer{zr, f}, nil
}

// newParser always returns a parser so the caller can close it on error.
func newParser(r io.Reader, closers []io.Closer) (*Parser, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineLength)
	p := &Parser{sc: sc, closers: closers}
	return p, p.readHeader()
}

// readHeader consumes meta lines up to and including #CHROM.
func (p *Parser) readHeader() error {
	for p.sc.Scan() {
		p.line++
		line := p.sc.Text()
		switch {
		case strings.HasPrefix(line, "##"):
			p.header = append(p.header, line)
		case strings.HasPrefix(line, "#CHROM"):
			if n := strings.Count(line, "\t") + 1; n < 8 {
				return p.errorf("#CHROM line has %d columns, expected at least 8", n)
			}
			p.header = append(p.header, line)
			return nil
		default:
			return p.errorf("expected #CHROM header line")
		}
	}
	if err := p.sc.Err(); err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	return p.errorf("no #CHROM header line found")
}

// Next returns the next record, or nil, nil at the end of the stream. Blank
// lines are skipped.
func (p *Parser) Next() (*Variant, error) {
	for p.sc.Scan() {
		p.line++
		if line := p.sc.Text(); line != "" {
			return p.parseRecord(line)
		}
	}
	if err := p.sc.Err(); err != nil {
		return nil, fmt.Errorf("read variant line: %w", err)
	}
	return nil, nil
}

// Fixed column indexes.
const (
	colChrom = iota
	colPos
	colID
	colRef
	colAlt
	colQual
	colFilter
	colInfo
	numColumns
)

func (p *Parser) parseRecord(line string) (*Variant, error) {
	var cols [numColumns]string
	rest := line
	n := 0
	for ; n < numColumns; n++ {
		var more bool
		cols[n], rest, more = strings.Cut(rest, "\t")
		if !more {
			n++
			break
		}
	}
	if n < numColumns {
		return nil, p.errorf("expected at least 8 columns, found %d", n)
	}

	pos, err := strconv.ParseInt(cols[colPos], 10, 64)
	if err != nil || pos < 0 {
		return nil, p.errorf("invalid position: %s", cols[colPos])
	}
	var qual float64
	if cols[colQual] != "." {
		if qual, err = strconv.ParseFloat(cols[colQual], 64); err != nil {
			return nil, p.errorf("invalid quality: %s", cols[colQual])
		}
	}

	return &Variant{
		Chrom:   cols[colChrom],
		Pos:     pos,
		ID:      cols[colID],
		Ref:     strings.ToUpper(cols[colRef]),
		Alt:     cols[colAlt],
		Qual:    qual,
		Filter:  cols[colFilter],
		Info:    parseInfo(cols[colInfo]),
		RawInfo: cols[colInfo],
	}, nil
}

// parseInfo splits an INFO column into key/value pairs. Flags map to "".
func parseInfo(col string) map[string]string {
	info := make(map[string]string)
	if col == "." {
		return info
	}
	for col != "" {
		var kv string
		kv, col, _ = strings.Cut(col, ";")
		if kv == "" {
			continue
		}
		k, v, _ := strings.Cut(kv, "=")
		info[k] = v
	}
	return info
}

// SplitMultiAllelic returns one record per ALT allele. A per-allele SVLEN
// list is split along with the alleles; otherwise the INFO map is shared.
func SplitMultiAllelic(v *Variant) []*Variant {
	if !v.IsMultiAllelic() {
		return []*Variant{v}
	}
	alts := strings.Split(v.Alt, ",")
	var svlens []string
	if s, ok := v.Info["SVLEN"]; ok {
		if l := strings.Split(s, ","); len(l) == len(alts) {
			svlens = l
		}
	}

	out := make([]*Variant, len(alts))
	for i, alt := range alts {
		split := *v
		split.Alt = alt
		if svlens != nil {
			split.Info = make(map[string]string, len(v.Info))
			for k, val := range v.Info {
				split.Info[k] = val
			}
			split.Info["SVLEN"] = svlens[i]
		}
		out[i] = &split
	}
	return out
}

// Header returns the ## meta lines followed by the #CHROM line.
func (p *Parser) Header() []string {
	return p.header
}

// LineNumber returns the number of lines read so far.
func (p *Parser) LineNumber() int {
	return p.line
}

// Close releases the decompressor and the file, if the parser opened them.
func (p *Parser) Close() error {
	var errs []error
	for _, c := range p.closers {
		errs = append(errs, c.Close())
	}
	p.closers = nil
	return errors.Join(errs...)
}

func (p *Parser) errorf(format string, args ...any) *ParseError {
	return &ParseError{Line: p.line, Message: fmt.Sprintf(format, args...)}
}

// ParseError is a malformed VCF line.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("vcf parse error at line %d: %s", e.Line, e.Message)
}
