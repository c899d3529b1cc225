// Package output provides conversion output formatters.
package output

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/vibe-hgvs/internal/convert"
	"github.com/inodb/vibe-hgvs/internal/hgvs"
	"github.com/inodb/vibe-hgvs/internal/vcf"
)

// TabWriter writes conversion results in tab-delimited format, one row per
// name.
type TabWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewTabWriter creates a new tab-delimited writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{
		w: bufio.NewWriter(w),
		columns: []string{
			"#Uploaded_variation",
			"Location",
			"Ref",
			"Alt",
			"Feature",
			"Gene",
			"HGVS",
		},
	}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

// Write writes a single result for the input record v.
func (tw *TabWriter) Write(v *vcf.Variant, r *convert.Result) error {
	values := []string{
		orDash(v.ID),
		v.Location(),
		orDash(v.Ref),
		orDash(v.Alt),
		orDash(r.TranscriptID),
		orDash(r.GeneName),
		r.HGVS,
	}
	_, err := tw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}

// NameTabWriter writes parsed HGVS names with their genomic variant.
type NameTabWriter struct {
	w *bufio.Writer
}

// NewNameTabWriter creates a writer for parse results.
func NewNameTabWriter(w io.Writer) *NameTabWriter {
	return &NameTabWriter{w: bufio.NewWriter(w)}
}

// WriteHeader writes the header line.
func (nw *NameTabWriter) WriteHeader() error {
	_, err := nw.w.WriteString("#HGVS\tChrom\tPos\tRef\tAlt\tSVLength\n")
	return err
}

// Write writes one parsed name.
func (nw *NameTabWriter) Write(name string, v *hgvs.Variant) error {
	values := []string{
		name,
		v.Chrom,
		strconv.FormatInt(v.Pos, 10),
		orDash(v.Ref),
		orDash(v.Alt),
		strconv.FormatInt(v.SVLength, 10),
	}
	_, err := nw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (nw *NameTabWriter) Flush() error {
	return nw.w.Flush()
}

func orDash(s string) string {
	if s == "" || s == "." {
		return "-"
	}
	return s
}
