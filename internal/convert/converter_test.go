package convert

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-hgvs/internal/cache"
	"github.com/inodb/vibe-hgvs/internal/genome"
	"github.com/inodb/vibe-hgvs/internal/hgvs"
	"github.com/inodb/vibe-hgvs/internal/vcf"
)

const repeatSeq = "GGGCCCTTTAAACAGCAGCAGTTTGGGAAACCCTTTGGGA"

func testIndex(t *testing.T) *cache.Cache {
	t.Helper()
	c := cache.New()
	c.AddTranscript(&cache.Transcript{ID: "NR_TEST.1", GeneName: "TST", Chrom: "chr2", Start: 1, End: 40, Strand: 1,
		Exons: []cache.Exon{{Number: 1, Start: 1, End: 40}}})
	c.AddTranscript(&cache.Transcript{ID: "NR_REV.1", Chrom: "chr2", Start: 1, End: 40, Strand: -1,
		Exons: []cache.Exon{{Number: 1, Start: 1, End: 40}}})
	// no exons: every name on it fails and is skipped
	c.AddTranscript(&cache.Transcript{ID: "NR_BROKEN.1", Chrom: "chr2", Start: 1, End: 40, Strand: 1})
	c.BuildIndex()
	return c
}

func testConverter(t *testing.T) *Converter {
	t.Helper()
	return NewConverter(testIndex(t), genome.NewMemory(map[string]string{"chr2": repeatSeq}))
}

func names(rs []*Result) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.HGVS
	}
	return out
}

func TestConvert(t *testing.T) {
	c := testConverter(t)

	tests := []struct {
		name string
		v    vcf.Variant
		want []string
	}{
		{"substitution", vcf.Variant{Chrom: "chr2", Pos: 10, Ref: "A", Alt: "T"},
			[]string{"chr2:g.10A>T", "NR_REV.1:n.31T>A", "NR_TEST.1(TST):n.10A>T"}},
		{"insertion becomes dup", vcf.Variant{Chrom: "chr2", Pos: 21, Ref: "G", Alt: "GCAG"},
			[]string{"chr2:g.19_21dupCAG", "NR_REV.1:n.26_28dupCTG", "NR_TEST.1(TST):n.19_21dupCAG"}},
		{"symbolic deletion", vcf.Variant{Chrom: "chr2", Pos: 9, Ref: "T", Alt: "<DEL>",
			Info: map[string]string{"SVLEN": "-5"}},
			[]string{"chr2:g.10_14del5", "NR_REV.1:n.27_31del5", "NR_TEST.1(TST):n.10_14del5"}},
		{"intergenic", vcf.Variant{Chrom: "chr3", Pos: 10, Ref: "A", Alt: "T"},
			[]string{"chr3:g.10A>T"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs, err := c.Convert(&tt.v)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(rs))
			for _, r := range rs {
				assert.Equal(t, tt.v.Chrom, r.Chrom)
			}
		})
	}
}

func TestConvert_ResultFields(t *testing.T) {
	rs, err := testConverter(t).Convert(&vcf.Variant{Chrom: "chr2", Pos: 9, Ref: "T", Alt: "<DEL>",
		Info: map[string]string{"SVLEN": "-5"}})
	require.NoError(t, err)
	require.Len(t, rs, 3)

	assert.Equal(t, &Result{Chrom: "chr2", Pos: 10, SVLength: -5, HGVS: "chr2:g.10_14del5"}, rs[0])
	assert.Equal(t, "NR_TEST.1", rs[2].TranscriptID)
	assert.Equal(t, "TST", rs[2].GeneName)
}

func TestConvert_Options(t *testing.T) {
	c := testConverter(t)
	c.SetJustify(false)
	rs, err := c.Convert(&vcf.Variant{Chrom: "chr2", Pos: 21, Ref: "G", Alt: "GCAG"})
	require.NoError(t, err)
	assert.Equal(t, "NR_TEST.1(TST):n.21_22insCAG", rs[2].HGVS)

	c = testConverter(t)
	c.SetMaxAlleleLength(2)
	rs, err = c.Convert(&vcf.Variant{Chrom: "chr2", Pos: 3, Ref: "GCCC", Alt: "G"})
	require.NoError(t, err)
	assert.Equal(t, "NR_TEST.1(TST):n.4_6del3", rs[2].HGVS)

	// without a reference nothing is justified
	c = NewConverter(testIndex(t), nil)
	rs, err = c.Convert(&vcf.Variant{Chrom: "chr2", Pos: 21, Ref: "G", Alt: "GCAG"})
	require.NoError(t, err)
	assert.Equal(t, "chr2:g.21_22insCAG", rs[0].HGVS)
}

func TestConvert_Errors(t *testing.T) {
	c := testConverter(t)

	_, err := c.Convert(&vcf.Variant{Chrom: "chr2", Pos: 10, Ref: "A", Alt: "."})
	assert.ErrorIs(t, err, vcf.ErrUnsupportedAllele)

	_, err = c.Convert(&vcf.Variant{Chrom: "chr2", Pos: 10, Ref: "X", Alt: "T"})
	var ibe *hgvs.InvalidBaseError
	assert.ErrorAs(t, err, &ibe)
}

func TestParse(t *testing.T) {
	c := testConverter(t)

	v, err := c.Parse("NR_TEST.1:n.19_21dup")
	require.NoError(t, err)
	assert.Equal(t, hgvs.Variant{Chrom: "chr2", Pos: 22, Alt: "CAG"}, *v)

	_, err = c.Parse("NR_MISSING.1:n.5C>T")
	assert.ErrorIs(t, err, hgvs.ErrTranscriptNotFound)
}

func TestAffectedSpan(t *testing.T) {
	s, e := affectedSpan(10, "ACG", 0)
	assert.Equal(t, [2]int64{10, 12}, [2]int64{s, e})
	s, e = affectedSpan(10, "", -5)
	assert.Equal(t, [2]int64{10, 14}, [2]int64{s, e})
	s, e = affectedSpan(10, "", 300)
	assert.Equal(t, [2]int64{9, 10}, [2]int64{s, e})
}

type row struct {
	variant string
	hgvs    string
}

type recordingWriter struct {
	rows    []row
	flushed bool
	failAt  int
}

func (w *recordingWriter) Write(v *vcf.Variant, r *Result) error {
	if w.failAt > 0 && len(w.rows)+1 == w.failAt {
		return errors.New("disk full")
	}
	w.rows = append(w.rows, row{v.Location() + ":" + v.Alt, r.HGVS})
	return nil
}

func (w *recordingWriter) Flush() error {
	w.flushed = true
	return nil
}

type memoryStore struct {
	mu      sync.Mutex
	results map[string][]*Result
	writes  int
}

func storeKey(chrom string, pos int64, ref, alt string, sv int64) string {
	return (&hgvs.Variant{Chrom: chrom, Pos: pos, Ref: ref, Alt: alt, SVLength: sv}).String()
}

func (s *memoryStore) LookupResults(chrom string, pos int64, ref, alt string, sv int64) ([]*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results[storeKey(chrom, pos, ref, alt, sv)], nil
}

func (s *memoryStore) WriteResults(results []*Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	for _, r := range results {
		k := storeKey(r.Chrom, r.Pos, r.Ref, r.Alt, r.SVLength)
		s.results[k] = append(s.results[k], r)
	}
	return nil
}

const batchVCF = `##fileformat=VCFv4.2
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO
chr2	10	.	A	T,G	.	.	.
chr2	10	.	X	T	.	.	.
chr2	21	.	G	GCAG	.	.	.
chr3	5	.	C	.	.	.	.
`

func TestConvertAll(t *testing.T) {
	c := testConverter(t)
	c.SetWorkers(4)

	parser, err := vcf.NewParserFromReader(strings.NewReader(batchVCF))
	require.NoError(t, err)

	w := &recordingWriter{}
	require.NoError(t, c.ConvertAll(parser, w))
	assert.True(t, w.flushed)

	assert.Equal(t, []row{
		{"chr2:10:T", "chr2:g.10A>T"},
		{"chr2:10:T", "NR_REV.1:n.31T>A"},
		{"chr2:10:T", "NR_TEST.1(TST):n.10A>T"},
		{"chr2:10:G", "chr2:g.10A>G"},
		{"chr2:10:G", "NR_REV.1:n.31T>C"},
		{"chr2:10:G", "NR_TEST.1(TST):n.10A>G"},
		{"chr2:21:GCAG", "chr2:g.19_21dupCAG"},
		{"chr2:21:GCAG", "NR_REV.1:n.26_28dupCTG"},
		{"chr2:21:GCAG", "NR_TEST.1(TST):n.19_21dupCAG"},
	}, w.rows)
}

func TestConvertAll_ResultStore(t *testing.T) {
	store := &memoryStore{results: map[string][]*Result{}}
	run := func() *recordingWriter {
		c := testConverter(t)
		c.SetResultStore(store)
		parser, err := vcf.NewParserFromReader(strings.NewReader(batchVCF))
		require.NoError(t, err)
		w := &recordingWriter{}
		require.NoError(t, c.ConvertAll(parser, w))
		return w
	}

	first := run()
	assert.Equal(t, 1, store.writes)
	assert.Len(t, store.results, 3)

	second := run()
	assert.Equal(t, 1, store.writes, "cached results are not stored again")
	assert.Equal(t, first.rows, second.rows)
}

func TestConvertAll_WriteError(t *testing.T) {
	c := testConverter(t)
	parser, err := vcf.NewParserFromReader(strings.NewReader(batchVCF))
	require.NoError(t, err)

	w := &recordingWriter{failAt: 2}
	err = c.ConvertAll(parser, w)
	assert.ErrorContains(t, err, "disk full")
	assert.False(t, w.flushed)
}

// endlessParser yields the same SNV until total records have been read.
type endlessParser struct {
	total int
	reads int
}

func (p *endlessParser) Next() (*vcf.Variant, error) {
	if p.reads == p.total {
		return nil, nil
	}
	p.reads++
	return &vcf.Variant{Chrom: "chr2", Pos: 10, Ref: "A", Alt: "T"}, nil
}

func (p *endlessParser) Close() error    { return nil }
func (p *endlessParser) LineNumber() int { return p.reads }

func TestConvertAll_WriteErrorStopsReading(t *testing.T) {
	c := testConverter(t)
	c.SetWorkers(2)
	parser := &endlessParser{total: 100000}

	err := c.ConvertAll(parser, &recordingWriter{failAt: 1})
	assert.ErrorContains(t, err, "disk full")
	assert.Less(t, parser.reads, parser.total)
}

func TestConvertAll_ParseError(t *testing.T) {
	c := testConverter(t)
	in := "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\nchr2\t10\t.\tA\tT\t.\t.\t.\nchr2\tbad\n"
	parser, err := vcf.NewParserFromReader(strings.NewReader(in))
	require.NoError(t, err)

	err = c.ConvertAll(parser, &recordingWriter{})
	var pe *vcf.ParseError
	assert.ErrorAs(t, err, &pe)
}
