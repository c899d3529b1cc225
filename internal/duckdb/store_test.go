package duckdb

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-hgvs/internal/cache"
	"github.com/inodb/vibe-hgvs/internal/convert"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func abcc8Results() []*convert.Result {
	return []*convert.Result{
		{Chrom: "chr11", Pos: 17496508, Ref: "T", Alt: "C", HGVS: "chr11:g.17496508T>C"},
		{Chrom: "chr11", Pos: 17496508, Ref: "T", Alt: "C", TranscriptID: "NM_000352.3", GeneName: "ABCC8",
			HGVS: "NM_000352.3(ABCC8):c.215A>G"},
		{Chrom: "chr11", Pos: 17496508, Ref: "T", Alt: "C", TranscriptID: "NM_001287174.1", GeneName: "ABCC8",
			HGVS: "NM_001287174.1(ABCC8):c.215A>G"},
	}
}

// --- Result cache tests ---

func TestOpenClose(t *testing.T) {
	s := openInMemory(t)
	assert.NotNil(t, s.DB())
	assert.Empty(t, s.Path())
}

func TestOpen_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "hgvs.duckdb")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.FileExists(t, path)
}

func TestWriteAndLookupResults(t *testing.T) {
	s := openInMemory(t)

	require.NoError(t, s.WriteResults(abcc8Results()))

	got, err := s.LookupResults("chr11", 17496508, "T", "C", 0)
	require.NoError(t, err)
	assert.Equal(t, abcc8Results(), got)

	got, err = s.LookupResults("chr11", 17496508, "T", "G", 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWriteResults_Duplicates(t *testing.T) {
	s := openInMemory(t)

	rs := abcc8Results()
	require.NoError(t, s.WriteResults(append(rs, rs[1])))
	require.NoError(t, s.WriteResults(rs))

	n, err := s.ResultCount()
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestWriteResults_StructuralVariant(t *testing.T) {
	s := openInMemory(t)

	sv := &convert.Result{Chrom: "chrY", Pos: 24861625, SVLength: -4780, TranscriptID: "NM_001388484.1",
		GeneName: "DAZ4", HGVS: "NM_001388484.1(DAZ4):c.1210-436_1354-437del4780"}
	require.NoError(t, s.WriteResults([]*convert.Result{sv}))

	got, err := s.LookupResults("chrY", 24861625, "", "", -4780)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, sv, got[0])

	got, err = s.LookupResults("chrY", 24861625, "", "", 4780)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestClearResults(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.WriteResults(abcc8Results()))
	require.NoError(t, s.ClearResults())

	got, err := s.LookupResults("chr11", 17496508, "T", "C", 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearch(t *testing.T) {
	s := openInMemory(t)
	require.NoError(t, s.WriteResults(abcc8Results()))

	found, err := s.SearchByGene("ABCC8")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = s.SearchByGene("NOTEXIST")
	require.NoError(t, err)
	assert.Empty(t, found)

	found, err = s.SearchByName("NM_000352.3(ABCC8):c.215A>G")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, int64(17496508), found[0].Pos)
}

// --- Transcript table tests ---

func testCache() *cache.Cache {
	c := cache.New()
	c.AddTranscript(&cache.Transcript{
		ID: "NM_000352.3", GeneName: "ABCC8", Chrom: "chr11", Start: 17414432, End: 17498392, Strand: -1,
		CDSStart: 17415847, CDSEnd: 17498176,
		Exons: []cache.Exon{
			{Number: 2, Start: 17414432, End: 17415878},
			{Number: 1, Start: 17498000, End: 17498392},
		},
	})
	c.AddTranscript(&cache.Transcript{
		ID: "NM_000352.10", GeneName: "ABCC8", Chrom: "chr11", Start: 17414432, End: 17498392, Strand: -1,
		Exons: []cache.Exon{{Number: 1, Start: 17414432, End: 17498392}},
	})
	c.AddTranscript(&cache.Transcript{
		ID: "NR_TEST.1", Chrom: "chr2", Start: 1, End: 40, Strand: 1,
		Exons: []cache.Exon{{Number: 1, Start: 1, End: 40}},
	})
	return c
}

func TestImportAndFetchTranscripts(t *testing.T) {
	s := openInMemory(t)

	n, err := s.ImportTranscripts(testCache())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	count, err := s.TranscriptCount()
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	tx, err := s.FetchTranscript("NM_000352.3")
	require.NoError(t, err)
	require.NotNil(t, tx)
	assert.Equal(t, testCache().GetTranscript("NM_000352.3"), tx)

	tx = s.GetTranscript("NM_000352")
	require.NotNil(t, tx)
	assert.Equal(t, "NM_000352.10", tx.ID, "numeric version order")

	tx, err = s.FetchTranscript("NM_999.1")
	require.NoError(t, err)
	assert.Nil(t, tx)
}

func TestImportTranscripts_Replaces(t *testing.T) {
	s := openInMemory(t)
	_, err := s.ImportTranscripts(testCache())
	require.NoError(t, err)

	c := cache.New()
	c.AddTranscript(&cache.Transcript{ID: "NR_ONLY.1", Chrom: "chr3", Start: 1, End: 10, Strand: 1,
		Exons: []cache.Exon{{Number: 1, Start: 1, End: 10}}})
	n, err := s.ImportTranscripts(c)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Nil(t, s.GetTranscript("NR_TEST.1"))
}

func TestLoadTranscripts(t *testing.T) {
	s := openInMemory(t)
	_, err := s.ImportTranscripts(testCache())
	require.NoError(t, err)

	c := cache.New()
	n, err := s.LoadTranscripts(c)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	c.BuildIndex()

	assert.Equal(t, []string{"chr11", "chr2"}, c.Chromosomes())
	assert.Len(t, c.FindTranscripts("chr11", 17415000), 2)
	assert.Len(t, c.GetTranscript("NM_000352.3").Exons, 2)
}

func TestLRUOverStore(t *testing.T) {
	s := openInMemory(t)
	_, err := s.ImportTranscripts(testCache())
	require.NoError(t, err)

	l, err := cache.NewLRULookup(s, 8)
	require.NoError(t, err)
	assert.Equal(t, "ABCC8", l.GetTranscript("NM_000352.3").GeneName)
	assert.Equal(t, "ABCC8", l.GetTranscript("NM_000352.3").GeneName)
	assert.Equal(t, int64(1), l.Stats().Hits)
}

// --- Metadata tests ---

func TestMeta(t *testing.T) {
	s := openInMemory(t)

	_, ok, err := s.GetMeta("k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetMeta("k", "v1"))
	require.NoError(t, s.SetMeta("k", "v2"))
	v, ok, err := s.GetMeta("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v2", v)
}

func TestSourceValidation(t *testing.T) {
	s := openInMemory(t)

	now := time.Now()
	fp := FileFingerprint{Path: "genes.refGene", Size: 1000, ModTime: now}
	assert.False(t, s.SourceValid("refgene", fp))

	require.NoError(t, s.RecordSource("refgene", fp))
	assert.True(t, s.SourceValid("refgene", fp))

	changed := fp
	changed.Size = 9999
	assert.False(t, s.SourceValid("refgene", changed))

	changed = fp
	changed.ModTime = now.Add(time.Hour)
	assert.False(t, s.SourceValid("refgene", changed))
}

func TestStatFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hgvs.duckdb")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	fp, err := StatFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, fp.Path)
	assert.Positive(t, fp.Size)

	_, err = StatFile(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestEnsureResultSettings(t *testing.T) {
	s := openInMemory(t)

	cleared, err := s.EnsureResultSettings("max=4;justify=true")
	require.NoError(t, err)
	assert.False(t, cleared)
	require.NoError(t, s.WriteResults(abcc8Results()))

	cleared, err = s.EnsureResultSettings("max=4;justify=true")
	require.NoError(t, err)
	assert.False(t, cleared)
	n, err := s.ResultCount()
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	cleared, err = s.EnsureResultSettings("max=10;justify=true")
	require.NoError(t, err)
	assert.True(t, cleared)
	n, err = s.ResultCount()
	require.NoError(t, err)
	assert.Zero(t, n)
}
