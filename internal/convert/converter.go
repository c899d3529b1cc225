// Package convert runs HGVS conversion over batches of VCF records.
package convert

import (
	"fmt"
	"runtime"

	"go.uber.org/zap"

	"github.com/inodb/vibe-hgvs/internal/cache"
	"github.com/inodb/vibe-hgvs/internal/hgvs"
	"github.com/inodb/vibe-hgvs/internal/vcf"
)

// TranscriptIndex resolves transcripts by accession and by genomic overlap.
type TranscriptIndex interface {
	GetTranscript(id string) *cache.Transcript
	FindTranscriptsInRange(chrom string, start, end int64) []*cache.Transcript
}

// ResultStore persists conversion results between runs.
type ResultStore interface {
	// LookupResults returns the stored results for a variant, or none.
	LookupResults(chrom string, pos int64, ref, alt string, svLength int64) ([]*Result, error)
	// WriteResults stores freshly computed results.
	WriteResults(results []*Result) error
}

// Result is one HGVS name for a variant. The genomic name has no
// TranscriptID. Pos, Ref, Alt and SVLength hold the variant as handed to the
// formatter, after symbolic alleles are resolved.
type Result struct {
	Chrom        string
	Pos          int64
	Ref          string
	Alt          string
	SVLength     int64
	TranscriptID string
	GeneName     string
	HGVS         string
}

// Converter formats VCF records as HGVS names on every overlapping
// transcript.
type Converter struct {
	index           TranscriptIndex
	seq             hgvs.SequenceSource
	store           ResultStore
	logger          *zap.Logger
	workers         int
	maxAlleleLength int
	justify         bool
	batchSize       int
}

// NewConverter creates a converter. seq may be nil, in which case names
// are formatted without 3' justification or duplication detection.
func NewConverter(index TranscriptIndex, seq hgvs.SequenceSource) *Converter {
	return &Converter{
		index:           index,
		seq:             seq,
		logger:          zap.NewNop(),
		maxAlleleLength: hgvs.DefaultMaxAlleleLength,
		justify:         true,
		batchSize:       1000,
	}
}

// SetLogger sets the logger for warning and info messages.
func (c *Converter) SetLogger(l *zap.Logger) {
	c.logger = l
}

// SetWorkers sets the worker count; 0 means runtime.NumCPU().
func (c *Converter) SetWorkers(n int) {
	c.workers = n
}

// SetMaxAlleleLength sets the longest allele rendered literally.
func (c *Converter) SetMaxAlleleLength(n int) {
	c.maxAlleleLength = n
}

// SetJustify enables 3' justification and duplication detection.
func (c *Converter) SetJustify(on bool) {
	c.justify = on
}

// SetResultStore enables reuse and persistence of results.
func (c *Converter) SetResultStore(s ResultStore) {
	c.store = s
}

func (c *Converter) formatOptions(svLength int64) []hgvs.FormatOption {
	return []hgvs.FormatOption{
		hgvs.WithSVLength(svLength),
		hgvs.WithMaxAlleleLength(c.maxAlleleLength),
		hgvs.WithJustify(c.justify && c.seq != nil),
	}
}

// Convert returns the genomic name of v followed by one name per
// overlapping transcript. Transcripts that cannot represent the variant are
// logged and skipped.
func (c *Converter) Convert(v *vcf.Variant) ([]*Result, error) {
	results, _, err := c.convert(v)
	return results, err
}

func (c *Converter) convert(v *vcf.Variant) ([]*Result, bool, error) {
	pos, ref, alt, sv, err := v.Alleles()
	if err != nil {
		return nil, false, err
	}

	if c.store != nil {
		cached, err := c.store.LookupResults(v.Chrom, pos, ref, alt, sv)
		if err != nil {
			c.logger.Warn("result lookup failed", zap.String("variant", v.Location()), zap.Error(err))
		} else if len(cached) > 0 {
			return cached, true, nil
		}
	}

	opts := c.formatOptions(sv)
	g, err := hgvs.FormatGenomicName(v.Chrom, pos, ref, alt, c.seq, opts...)
	if err != nil {
		return nil, false, err
	}

	base := Result{Chrom: v.Chrom, Pos: pos, Ref: ref, Alt: alt, SVLength: sv}
	genomic := base
	genomic.HGVS = g
	results := []*Result{&genomic}

	start, end := affectedSpan(pos, ref, sv)
	for _, t := range c.index.FindTranscriptsInRange(v.Chrom, start, end) {
		name, err := hgvs.FormatName(v.Chrom, pos, ref, alt, c.seq, t, opts...)
		if err != nil {
			c.logger.Warn("failed to format name",
				zap.String("variant", v.Location()),
				zap.String("transcript", t.ID),
				zap.Error(err))
			continue
		}
		r := base
		r.TranscriptID, r.GeneName, r.HGVS = t.ID, t.GeneName, name
		results = append(results, &r)
	}
	return results, false, nil
}

// Parse resolves an HGVS name to a genomic variant.
func (c *Converter) Parse(name string) (*hgvs.Variant, error) {
	return hgvs.ParseVariant(name, c.seq, c.index)
}

// affectedSpan returns the reference bases touched by the variant. An
// insertion touches both flanking bases.
func affectedSpan(pos int64, ref string, svLength int64) (int64, int64) {
	switch {
	case ref != "":
		return pos, pos + int64(len(ref)) - 1
	case svLength < 0:
		return pos, pos - svLength - 1
	default:
		return pos - 1, pos
	}
}

// ConvertAll converts all variants from a parser. Multi-allelic records are
// split first. Records that fail to convert are logged and skipped.
func (c *Converter) ConvertAll(parser vcf.VariantParser, w Writer) error {
	workers := c.workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	items := make(chan WorkItem, 2*workers)
	// stop ends reading early once a result cannot be written.
	stop := make(chan struct{})
	var parseErr error
	variantCount := 0

	go func() {
		defer close(items)
		seq := 0
		for {
			select {
			case <-stop:
				return
			default:
			}
			v, err := parser.Next()
			if err != nil {
				parseErr = fmt.Errorf("read variant: %w", err)
				return
			}
			if v == nil {
				return
			}
			variantCount++

			// Split multi-allelic variants, each gets its own sequence number.
			for _, variant := range vcf.SplitMultiAllelic(v) {
				select {
				case items <- WorkItem{Seq: seq, Variant: variant}:
				case <-stop:
					return
				}
				seq++
			}
		}
	}()

	results := c.ParallelConvert(items, workers)

	var pending []*Result
	var failed, names, cached int
	if err := OrderedCollect(results, func(r WorkResult) error {
		if r.Err != nil {
			failed++
			c.logger.Warn("failed to convert variant",
				zap.String("chrom", r.Variant.Chrom),
				zap.Int64("pos", r.Variant.Pos),
				zap.String("ref", r.Variant.Ref),
				zap.String("alt", r.Variant.Alt),
				zap.Error(r.Err))
			return nil
		}
		for _, res := range r.Results {
			if err := w.Write(r.Variant, res); err != nil {
				close(stop)
				return fmt.Errorf("write result: %w", err)
			}
		}
		names += len(r.Results)
		if r.Cached {
			cached++
			return nil
		}
		if c.store != nil {
			pending = append(pending, r.Results...)
			if len(pending) >= c.batchSize {
				if err := c.store.WriteResults(pending); err != nil {
					close(stop)
					return fmt.Errorf("store results: %w", err)
				}
				pending = pending[:0]
			}
		}
		return nil
	}); err != nil {
		return err
	}

	if parseErr != nil {
		return parseErr
	}

	if c.store != nil && len(pending) > 0 {
		if err := c.store.WriteResults(pending); err != nil {
			return fmt.Errorf("store results: %w", err)
		}
	}

	c.logger.Info("conversion finished",
		zap.Int("records", variantCount),
		zap.Int("names", names),
		zap.Int("cached", cached),
		zap.Int("failed", failed))

	return w.Flush()
}

// Writer receives conversion results in input order.
type Writer interface {
	Write(v *vcf.Variant, r *Result) error
	Flush() error
}
