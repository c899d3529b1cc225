package cache

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// RefGeneLoader loads transcripts from a UCSC refGene (genePred) table.
//
// Columns: [bin] name chrom strand txStart txEnd cdsStart cdsEnd exonCount
// exonStarts exonEnds [score name2 cdsStartStat cdsEndStat exonFrames].
// Starts are 0-based, ends are 1-based; the loader converts to 1-based
// inclusive coordinates. Rows with cdsStart == cdsEnd are non-coding.
type RefGeneLoader struct {
	path     string
	logger   *zap.Logger
	keepAlts bool
}

// NewRefGeneLoader creates a loader for a refGene file (optionally gzipped).
func NewRefGeneLoader(path string) *RefGeneLoader {
	return &RefGeneLoader{path: path, logger: zap.NewNop()}
}

// SetLogger sets the logger for skipped-row warnings.
func (l *RefGeneLoader) SetLogger(logger *zap.Logger) {
	l.logger = logger
}

// SetKeepAltContigs controls whether rows on alt/random/unplaced contigs
// (chromosome names containing '_') are loaded. They are skipped by default.
func (l *RefGeneLoader) SetKeepAltContigs(keep bool) {
	l.keepAlts = keep
}

// Load loads all transcripts from the refGene file into the cache.
func (l *RefGeneLoader) Load(c *Cache) error {
	r, closeFn, err := openReader(l.path)
	if err != nil {
		return fmt.Errorf("open refGene file: %w", err)
	}
	defer closeFn()

	transcripts, err := l.parse(r)
	if err != nil {
		return err
	}
	for _, t := range transcripts {
		c.AddTranscript(t)
	}
	return nil
}

// parse reads refGene rows. The first row for a transcript ID wins.
func (l *RefGeneLoader) parse(r io.Reader) ([]*Transcript, error) {
	scanner := newLineScanner(r)

	var transcripts []*Transcript
	seen := make(map[string]bool)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		t, err := ParseRefGeneLine(line)
		if err != nil {
			return nil, fmt.Errorf("refGene line %d: %w", lineNum, err)
		}
		if !l.keepAlts && strings.Contains(t.Chrom, "_") {
			continue
		}
		if seen[t.ID] {
			l.logger.Debug("skipping duplicate transcript",
				zap.String("transcript", t.ID),
				zap.String("chrom", t.Chrom),
				zap.Int("line", lineNum))
			continue
		}
		seen[t.ID] = true
		transcripts = append(transcripts, t)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan refGene: %w", err)
	}
	return transcripts, nil
}

// ParseRefGeneLine parses a single refGene row, with or without the
// leading bin column.
func ParseRefGeneLine(line string) (*Transcript, error) {
	fields := strings.Split(line, "\t")
	// Detect the optional bin column by where the strand lands.
	if len(fields) > 3 && (fields[3] == "+" || fields[3] == "-") {
		fields = fields[1:]
	}
	if len(fields) < 10 {
		return nil, fmt.Errorf("expected at least 10 columns, found %d", len(fields))
	}

	strand, err := parseStrand(fields[2])
	if err != nil {
		return nil, err
	}

	nums := make([]int64, 4)
	for i, col := range fields[3:7] {
		n, err := strconv.ParseInt(col, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid coordinate %q", col)
		}
		nums[i] = n
	}
	txStart, txEnd, cdsStart, cdsEnd := nums[0], nums[1], nums[2], nums[3]

	exonCount, err := strconv.Atoi(fields[7])
	if err != nil {
		return nil, fmt.Errorf("invalid exon count %q", fields[7])
	}
	starts, err := parseCoordList(fields[8])
	if err != nil {
		return nil, fmt.Errorf("exonStarts: %w", err)
	}
	ends, err := parseCoordList(fields[9])
	if err != nil {
		return nil, fmt.Errorf("exonEnds: %w", err)
	}
	if len(starts) != exonCount || len(ends) != exonCount {
		return nil, fmt.Errorf("exon count %d does not match %d starts / %d ends",
			exonCount, len(starts), len(ends))
	}

	t := &Transcript{
		ID:     fields[0],
		Chrom:  fields[1],
		Start:  txStart + 1,
		End:    txEnd,
		Strand: strand,
		Exons:  make([]Exon, exonCount),
	}
	if len(fields) > 11 {
		t.GeneName = fields[11]
	}
	if cdsStart < cdsEnd {
		t.CDSStart = cdsStart + 1
		t.CDSEnd = cdsEnd
	}
	for i := range starts {
		t.Exons[i] = Exon{Start: starts[i] + 1, End: ends[i]}
	}
	t.NumberExons()

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// parseCoordList parses a comma-separated coordinate list with an optional
// trailing comma.
func parseCoordList(s string) ([]int64, error) {
	s = strings.TrimSuffix(s, ",")
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, len(parts))
	for i, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid coordinate %q", p)
		}
		out[i] = n
	}
	return out, nil
}
