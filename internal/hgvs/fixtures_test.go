package hgvs

import (
	"strings"

	"github.com/inodb/vibe-hgvs/internal/cache"
	"github.com/inodb/vibe-hgvs/internal/genome"
)

func exons(bounds ...int64) []cache.Exon {
	out := make([]cache.Exon, 0, len(bounds)/2)
	for i := 0; i+1 < len(bounds); i += 2 {
		out = append(out, cache.Exon{Start: bounds[i], End: bounds[i+1]})
	}
	return out
}

func newTranscript(id, gene, chrom string, strand int8, cdsStart, cdsEnd int64, ex []cache.Exon) *cache.Transcript {
	t := &cache.Transcript{
		ID:       id,
		GeneName: gene,
		Chrom:    chrom,
		Strand:   strand,
		Start:    ex[0].Start,
		End:      ex[len(ex)-1].End,
		Exons:    ex,
		CDSStart: cdsStart,
		CDSEnd:   cdsEnd,
	}
	t.NumberExons()
	return t
}

// abcc8Exonic places chr11:17496508 on c.215 of a reverse-strand
// transcript: c.1-c.201 in the first exon, c.202-c.223 in the second.
func abcc8Exonic() *cache.Transcript {
	return newTranscript("NM_000352.3", "ABCC8", "chr11", -1, 17490100, 17498200,
		exons(17490000, 17490500, 17496500, 17496521, 17498000, 17498300))
}

// abcc8Intronic places chr11:17496508 ten bases upstream of an exon
// starting at c.215.
func abcc8Intronic() *cache.Transcript {
	return newTranscript("NM_000352.3", "ABCC8", "chr11", -1, 17490100, 17498200,
		exons(17490000, 17490500, 17496400, 17496498, 17497000, 17497012, 17498000, 17498300))
}

// daz4 puts c.1209 at the end of exon 2 and c.1210-c.1353 in exon 3.
func daz4() *cache.Transcript {
	return newTranscript("NM_001388484.1", "DAZ4", "chrY", 1, 24850000, 24867000,
		exons(24849900, 24850999, 24859792, 24860000, 24862061, 24862204, 24866841, 24867500))
}

// per1 puts c.3600 at the last base of its first exon.
func per1() *cache.Transcript {
	return newTranscript("NM_002616.3", "PER1", "chr17", -1, 8140400, 8145403,
		exons(8140000, 8140500, 8141804, 8145500))
}

// forward is a small coding transcript on chr1 with exons of 100, 100
// and 60 bases and 50 bases of 5' UTR: c.1 is at 151, c.170 at 520.
func forward() *cache.Transcript {
	return newTranscript("NM_TEST.1", "TST", "chr1", 1, 151, 520,
		exons(101, 200, 301, 400, 501, 560))
}

// mirror reflects t onto the opposite strand of a chromosome of length n.
func mirror(t *cache.Transcript, n int64) *cache.Transcript {
	ex := make([]cache.Exon, len(t.Exons))
	for i, e := range t.Exons {
		ex[len(ex)-1-i] = cache.Exon{Start: n + 1 - e.End, End: n + 1 - e.Start}
	}
	var cdsStart, cdsEnd int64
	if t.IsCoding() {
		cdsStart, cdsEnd = n+1-t.CDSEnd, n+1-t.CDSStart
	}
	return newTranscript(t.ID+"-rev", t.GeneName, t.Chrom, -t.Strand, cdsStart, cdsEnd, ex)
}

// repeatSeq is the chr2 reference for indel tests:
//
//	1 GGG CCC TTT AAA CAGCAGCAG TTT GGG AAA CCC TTT GGG A 40
const repeatSeq = "GGGCCCTTTAAACAGCAGCAGTTTGGGAAACCCTTTGGGA"

func repeatForward() *cache.Transcript {
	return newTranscript("NR_TEST.1", "RPT", "chr2", 1, 0, 0, exons(1, 40))
}

func repeatReverse() *cache.Transcript {
	return newTranscript("NR_REV.1", "RPT", "chr2", -1, 0, 0, exons(1, 40))
}

// window returns n filler bases starting at start with single-base
// overrides.
func window(start int64, n int, set map[int64]byte) string {
	b := []byte(strings.Repeat("ACGT", n/4+1))[:n]
	for pos, base := range set {
		b[pos-start] = base
	}
	return string(b)
}

func testGenome() *genome.Memory {
	g := genome.NewMemory(map[string]string{"chr2": repeatSeq})
	g.WithRegion("chr11", 17496400, window(17496400, 200, map[int64]byte{17496508: 'T'}))
	return g
}

func testLookup(ts ...*cache.Transcript) *cache.Cache {
	c := cache.New()
	for _, t := range ts {
		c.AddTranscript(t)
	}
	return c
}
