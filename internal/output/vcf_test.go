package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-hgvs/internal/convert"
	"github.com/inodb/vibe-hgvs/internal/genome"
	"github.com/inodb/vibe-hgvs/internal/hgvs"
	"github.com/inodb/vibe-hgvs/internal/vcf"
)

var testHeader = []string{
	"##fileformat=VCFv4.2",
	"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tS1",
}

func TestVCFWriter_Header(t *testing.T) {
	var buf bytes.Buffer
	w := NewVCFWriter(&buf, testHeader)
	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.Flush())

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "##fileformat=VCFv4.2", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "##INFO=<ID=HGVS,"))
	assert.Contains(t, lines[1], "Format: Allele|Feature|HGVS")
	assert.Equal(t, "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO", lines[2])
}

func TestVCFWriter_GroupsAlleles(t *testing.T) {
	var buf bytes.Buffer
	w := NewVCFWriter(&buf, nil)

	t1 := &vcf.Variant{Chrom: "chr2", Pos: 10, ID: ".", Ref: "A", Alt: "T", Qual: 30, Filter: "PASS",
		RawInfo: "DP=10;HGVS=old"}
	t2 := *t1
	t2.Alt = "G"
	next := &vcf.Variant{Chrom: "chr2", Pos: 5, ID: "id2", Ref: "C", Alt: "C", Filter: ".", RawInfo: "."}

	require.NoError(t, w.Write(t1, &convert.Result{HGVS: "chr2:g.10A>T"}))
	require.NoError(t, w.Write(t1, &convert.Result{TranscriptID: "NR_TEST.1", HGVS: "NR_TEST.1:n.10A>T"}))
	require.NoError(t, w.Write(&t2, &convert.Result{HGVS: "chr2:g.10A>G"}))
	require.NoError(t, w.Write(next, &convert.Result{TranscriptID: "NR_TEST.1", HGVS: "NR_TEST.1:n.5C="}))
	require.NoError(t, w.Flush())

	assert.Equal(t,
		"chr2\t10\t.\tA\tT,G\t30\tPASS\tDP=10;HGVS=T||chr2:g.10A>T,T|NR_TEST.1|NR_TEST.1:n.10A>T,G||chr2:g.10A>G\n"+
			"chr2\t5\tid2\tC\tC\t.\t.\tHGVS=C|NR_TEST.1|NR_TEST.1:n.5C%3D\n",
		buf.String())
}

func TestStripInfoKey(t *testing.T) {
	assert.Equal(t, ".", stripInfoKey("", "HGVS"))
	assert.Equal(t, "DP=1", stripInfoKey("DP=1", "HGVS"))
	assert.Equal(t, "DP=1;HGVSX=2", stripInfoKey("HGVS=a;DP=1;HGVS;HGVSX=2", "HGVS"))
	assert.Equal(t, ".", stripInfoKey("HGVS=a", "HGVS"))
}

func TestNameVCFWriter(t *testing.T) {
	g := genome.NewMemory(map[string]string{"chr2": "GGGCCCTTTAAACAGCAGCAGTTTGGGAAACCCTTTGGGA"})

	var buf bytes.Buffer
	w := NewNameVCFWriter(&buf, g)
	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.Write("chr2:g.4C>T", &hgvs.Variant{Chrom: "chr2", Pos: 4, Ref: "C", Alt: "T"}))
	require.NoError(t, w.Write("NR_TEST.1:n.19_21dup", &hgvs.Variant{Chrom: "chr2", Pos: 22, Alt: "CAG"}))
	require.NoError(t, w.Write("NR_TEST.1:n.10_14del5", &hgvs.Variant{Chrom: "chr2", Pos: 10, SVLength: -5}))
	require.NoError(t, w.Write("NR_TEST.1:n.5=", &hgvs.Variant{Chrom: "chr2", Pos: 5, Ref: "C", Alt: "C"}))
	require.NoError(t, w.Flush())

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 9)
	assert.Equal(t, "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO", lines[4])
	assert.Equal(t, "chr2\t4\tchr2:g.4C>T\tC\tT\t.\t.\t.", lines[5])
	assert.Equal(t, "chr2\t21\tNR_TEST.1:n.19_21dup\tG\tGCAG\t.\t.\t.", lines[6])
	assert.Equal(t, "chr2\t9\tNR_TEST.1:n.10_14del5\tT\t<DEL>\t.\t.\tSVTYPE=DEL;SVLEN=-5", lines[7])
	assert.Equal(t, "chr2\t5\tNR_TEST.1:n.5=\tC\t.\t.\t.\t.", lines[8])
}

func TestNameVCFWriter_PaddingError(t *testing.T) {
	var buf bytes.Buffer
	w := NewNameVCFWriter(&buf, genome.NewMemory(map[string]string{}))
	err := w.Write("chr9:g.5del", &hgvs.Variant{Chrom: "chr9", Pos: 5, Ref: "A"})
	assert.ErrorContains(t, err, "pad chr9:g.5del")
	var pe *PaddingError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "chr9:g.5del", pe.Name)
}
