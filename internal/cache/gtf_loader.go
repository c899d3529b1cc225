package cache

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// GTFLoader loads transcript data from GENCODE/Ensembl GTF files.
// Transcript IDs keep their version suffix, since HGVS names are
// version-qualified.
type GTFLoader struct {
	path   string
	logger *zap.Logger
}

// NewGTFLoader creates a new GTF loader.
func NewGTFLoader(path string) *GTFLoader {
	return &GTFLoader{path: path, logger: zap.NewNop()}
}

// SetLogger sets the logger for skipped-line diagnostics.
func (l *GTFLoader) SetLogger(logger *zap.Logger) {
	l.logger = logger
}

// Load loads all transcripts from the GTF file into the cache.
func (l *GTFLoader) Load(c *Cache) error {
	r, closeFn, err := openReader(l.path)
	if err != nil {
		return fmt.Errorf("open GTF file: %w", err)
	}
	defer closeFn()

	transcripts, err := l.parseGTF(r)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(transcripts))
	for id := range transcripts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		c.AddTranscript(transcripts[id])
	}
	return nil
}

// gtfFeature represents a parsed GTF line.
type gtfFeature struct {
	chrom       string
	featureType string
	start       int64
	end         int64
	strand      string
	attributes  map[string]string
}

// parseGTF parses GTF content and returns transcripts keyed by ID.
func (l *GTFLoader) parseGTF(reader io.Reader) (map[string]*Transcript, error) {
	scanner := newLineScanner(reader)

	transcripts := make(map[string]*Transcript)
	cdsByTranscript := make(map[string][2]int64)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if strings.HasPrefix(line, "#") || line == "" {
			continue
		}

		feat, err := parseGTFLine(line)
		if err != nil {
			l.logger.Debug("skipping malformed GTF line", zap.Int("line", lineNum), zap.Error(err))
			continue
		}

		transcriptID := feat.attributes["transcript_id"]
		if transcriptID == "" {
			continue
		}
		if v := feat.attributes["transcript_version"]; v != "" && !strings.Contains(transcriptID, ".") {
			transcriptID += "." + v
		}

		t, ok := transcripts[transcriptID]
		if !ok {
			strand, err := parseStrand(feat.strand)
			if err != nil {
				l.logger.Debug("skipping GTF line", zap.Int("line", lineNum), zap.Error(err))
				continue
			}
			t = &Transcript{
				ID:       transcriptID,
				GeneName: feat.attributes["gene_name"],
				Chrom:    feat.chrom,
				Strand:   strand,
			}
			transcripts[transcriptID] = t
		}

		switch feat.featureType {
		case "transcript":
			t.Start, t.End = feat.start, feat.end

		case "exon":
			t.Exons = append(t.Exons, Exon{Start: feat.start, End: feat.end})

		// GENCODE CDS features exclude the stop codon; HGVS numbering includes it.
		case "CDS", "start_codon", "stop_codon":
			cds, seen := cdsByTranscript[transcriptID]
			if !seen || feat.start < cds[0] {
				cds[0] = feat.start
			}
			if feat.end > cds[1] {
				cds[1] = feat.end
			}
			cdsByTranscript[transcriptID] = cds
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan GTF: %w", err)
	}

	for id, t := range transcripts {
		if len(t.Exons) == 0 {
			delete(transcripts, id)
			continue
		}
		sort.Slice(t.Exons, func(i, j int) bool {
			return t.Exons[i].Start < t.Exons[j].Start
		})
		if t.Start == 0 {
			t.Start = t.Exons[0].Start
			t.End = t.Exons[len(t.Exons)-1].End
		}
		if cds, ok := cdsByTranscript[id]; ok {
			t.CDSStart, t.CDSEnd = cds[0], cds[1]
		}
		t.NumberExons()
		if err := t.Validate(); err != nil {
			l.logger.Warn("dropping inconsistent transcript", zap.String("transcript", id), zap.Error(err))
			delete(transcripts, id)
		}
	}

	return transcripts, nil
}

// parseGTFLine parses a single GTF line.
func parseGTFLine(line string) (*gtfFeature, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 9 {
		return nil, fmt.Errorf("invalid GTF line: expected 9 fields, got %d", len(fields))
	}

	start, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse start: %w", err)
	}
	end, err := strconv.ParseInt(fields[4], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse end: %w", err)
	}

	return &gtfFeature{
		chrom:       fields[0],
		featureType: fields[2],
		start:       start,
		end:         end,
		strand:      fields[6],
		attributes:  parseAttributes(fields[8]),
	}, nil
}

// parseAttributes parses the GTF attribute column.
// Format: key "value"; key "value"; ...
// Repeated keys (tag) keep the first value.
func parseAttributes(attrStr string) map[string]string {
	attrs := make(map[string]string)
	for _, part := range strings.Split(attrStr, ";") {
		part = strings.TrimSpace(part)
		key, value, ok := strings.Cut(part, " ")
		if !ok {
			continue
		}
		if _, dup := attrs[key]; dup {
			continue
		}
		attrs[key] = strings.Trim(strings.TrimSpace(value), "\"")
	}
	return attrs
}
