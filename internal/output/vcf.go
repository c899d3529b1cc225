package output

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/vibe-hgvs/internal/convert"
	"github.com/inodb/vibe-hgvs/internal/hgvs"
	"github.com/inodb/vibe-hgvs/internal/vcf"
)

// HGVS sub-field names.
var hgvsFields = []string{"Allele", "Feature", "HGVS"}

// infoEscaper percent-encodes characters that may not appear in INFO values.
var infoEscaper = strings.NewReplacer("%", "%25", ";", "%3B", "=", "%3D", ",", "%2C", " ", "%20")

// VCFWriter copies input records and adds an HGVS INFO field holding every
// name computed for the record. Results are buffered per record and flushed
// when the position changes.
type VCFWriter struct {
	w           *bufio.Writer
	headerLines []string // original VCF header lines (## and #CHROM)

	// Buffered state for the current record.
	currentChrom string
	currentPos   int64
	hasVariant   bool
	first        *vcf.Variant
	alts         []string
	entries      []string
}

// NewVCFWriter creates a new VCF output writer.
func NewVCFWriter(w io.Writer, headerLines []string) *VCFWriter {
	return &VCFWriter{
		w:           bufio.NewWriter(w),
		headerLines: headerLines,
	}
}

// WriteHeader writes the original header lines with an inserted HGVS INFO line.
func (vw *VCFWriter) WriteHeader() error {
	infoLine := fmt.Sprintf(
		"##INFO=<ID=HGVS,Number=.,Type=String,Description=\"HGVS names from vibe-hgvs. Format: %s\">",
		strings.Join(hgvsFields, "|"),
	)

	for _, line := range vw.headerLines {
		if strings.HasPrefix(line, "#CHROM") {
			if _, err := vw.w.WriteString(infoLine + "\n"); err != nil {
				return err
			}
			// Sample columns are not carried over.
			if fields := strings.Split(line, "\t"); len(fields) > 8 {
				line = strings.Join(fields[:8], "\t")
			}
		}
		if _, err := vw.w.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// Write buffers a result for the given variant. When a new position is
// encountered the previous record is written.
func (vw *VCFWriter) Write(v *vcf.Variant, r *convert.Result) error {
	if vw.hasVariant && (vw.currentChrom != v.Chrom || vw.currentPos != v.Pos) {
		if err := vw.flushVariant(); err != nil {
			return err
		}
	}

	if !vw.hasVariant {
		vw.currentChrom = v.Chrom
		vw.currentPos = v.Pos
		vw.hasVariant = true
		vw.first = v
	}

	found := false
	for _, a := range vw.alts {
		if a == v.Alt {
			found = true
			break
		}
	}
	if !found {
		vw.alts = append(vw.alts, v.Alt)
	}

	vw.entries = append(vw.entries, v.Alt+"|"+r.TranscriptID+"|"+infoEscaper.Replace(r.HGVS))
	return nil
}

// Flush writes any buffered record and flushes the underlying writer.
func (vw *VCFWriter) Flush() error {
	if vw.hasVariant {
		if err := vw.flushVariant(); err != nil {
			return err
		}
	}
	return vw.w.Flush()
}

// flushVariant writes the buffered record with its HGVS entries.
func (vw *VCFWriter) flushVariant() error {
	v := vw.first
	info := stripInfoKey(v.RawInfo, "HGVS")

	var lb strings.Builder
	lb.Grow(256)

	lb.WriteString(v.Chrom)
	lb.WriteByte('\t')
	lb.WriteString(strconv.FormatInt(v.Pos, 10))
	lb.WriteByte('\t')
	lb.WriteString(v.ID)
	lb.WriteByte('\t')
	lb.WriteString(v.Ref)
	lb.WriteByte('\t')
	lb.WriteString(strings.Join(vw.alts, ","))
	lb.WriteByte('\t')
	if v.Qual != 0 {
		lb.WriteString(strconv.FormatFloat(v.Qual, 'g', -1, 64))
	} else {
		lb.WriteByte('.')
	}
	lb.WriteByte('\t')
	lb.WriteString(v.Filter)
	lb.WriteByte('\t')
	if info != "." {
		lb.WriteString(info)
		lb.WriteByte(';')
	}
	lb.WriteString("HGVS=")
	lb.WriteString(strings.Join(vw.entries, ","))
	lb.WriteByte('\n')

	if _, err := vw.w.WriteString(lb.String()); err != nil {
		return err
	}

	vw.hasVariant = false
	vw.first = nil
	vw.alts = nil
	vw.entries = nil
	return nil
}

// stripInfoKey removes key (as key=value or flag) from a raw INFO string.
func stripInfoKey(rawInfo, key string) string {
	if rawInfo == "" || rawInfo == "." {
		return "."
	}
	if !strings.Contains(rawInfo, key) {
		return rawInfo
	}

	var kept []string
	for _, field := range strings.Split(rawInfo, ";") {
		if field == key || strings.HasPrefix(field, key+"=") {
			continue
		}
		kept = append(kept, field)
	}
	if len(kept) == 0 {
		return "."
	}
	return strings.Join(kept, ";")
}

// PaddingError reports a variant whose VCF padding base could not be read.
// The writer stays usable.
type PaddingError struct {
	Name string
	Err  error
}

func (e *PaddingError) Error() string {
	return fmt.Sprintf("pad %s: %v", e.Name, e.Err)
}

func (e *PaddingError) Unwrap() error {
	return e.Err
}

// NameVCFWriter writes parsed HGVS names as VCF records. Empty alleles are
// padded with a reference base and length-only variants become symbolic
// <DEL> and <INS> records.
type NameVCFWriter struct {
	w   *bufio.Writer
	seq hgvs.SequenceSource
}

// NewNameVCFWriter creates a writer that reads padding bases from seq.
func NewNameVCFWriter(w io.Writer, seq hgvs.SequenceSource) *NameVCFWriter {
	return &NameVCFWriter{w: bufio.NewWriter(w), seq: seq}
}

// WriteHeader writes a minimal VCF header.
func (nw *NameVCFWriter) WriteHeader() error {
	_, err := nw.w.WriteString(`##fileformat=VCFv4.2
##source=vibe-hgvs
##INFO=<ID=SVTYPE,Number=1,Type=String,Description="Type of structural variant">
##INFO=<ID=SVLEN,Number=1,Type=Integer,Description="Difference in length between REF and ALT alleles">
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO
`)
	return err
}

// Write writes the variant parsed from name, using name as the record ID.
func (nw *NameVCFWriter) Write(name string, v *hgvs.Variant) error {
	rec, err := v.VCF(nw.seq)
	if err != nil {
		return &PaddingError{Name: name, Err: err}
	}

	alt := rec.Alt
	if rec.Alt == rec.Ref {
		alt = "."
	}
	info := "."
	switch {
	case rec.SVLength < 0:
		info = "SVTYPE=DEL;SVLEN=" + strconv.FormatInt(rec.SVLength, 10)
	case rec.SVLength > 0:
		info = "SVTYPE=INS;SVLEN=" + strconv.FormatInt(rec.SVLength, 10)
	}

	values := []string{
		rec.Chrom,
		strconv.FormatInt(rec.Pos, 10),
		strings.ReplaceAll(name, ";", "%3B"),
		rec.Ref,
		alt,
		".",
		".",
		info,
	}
	_, err = nw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (nw *NameVCFWriter) Flush() error {
	return nw.w.Flush()
}
