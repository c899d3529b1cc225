package genome

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testFASTA = ">chr1\nACGTACGTAC\nGTACGTAC\n>chr2\nttttGGGGcc\n"

// name, length, offset, line bases, line width
const testFAI = "chr1\t18\t6\t10\t11\nchr2\t10\t32\t10\t11\n"

func writeFASTA(t *testing.T, withIndex bool) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ref.fa")
	require.NoError(t, os.WriteFile(path, []byte(testFASTA), 0o644))
	if withIndex {
		require.NoError(t, os.WriteFile(path+".fai", []byte(testFAI), 0o644))
	}
	return path
}

func TestFASTA_Sequence(t *testing.T) {
	for _, withIndex := range []bool{true, false} {
		g, err := OpenFASTA(writeFASTA(t, withIndex))
		require.NoError(t, err)

		s, err := g.Sequence("chr1", 1, 4)
		require.NoError(t, err)
		assert.Equal(t, "ACGT", s)

		s, err = g.Sequence("chr1", 9, 12)
		require.NoError(t, err)
		assert.Equal(t, "ACGT", s, "spans a line break")

		s, err = g.Sequence("2", 3, 6)
		require.NoError(t, err)
		assert.Equal(t, "TTGG", s, "upper-cased, chr alias")

		s, err = g.Sequence("chr1", 18, 17)
		require.NoError(t, err)
		assert.Empty(t, s)

		var sre *SequenceRangeError
		_, err = g.Sequence("chr1", 18, 19)
		require.ErrorAs(t, err, &sre)
		assert.Equal(t, int64(18), sre.Length)

		_, err = g.Sequence("chrM", 1, 1)
		require.ErrorAs(t, err, &sre)

		n, ok := g.Length("chr2")
		assert.True(t, ok)
		assert.Equal(t, int64(10), n)

		require.NoError(t, g.Close())
	}
}

func TestFASTA_Concurrent(t *testing.T) {
	g, err := OpenFASTA(writeFASTA(t, true))
	require.NoError(t, err)
	defer g.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s, err := g.Sequence("chr1", 5, 14)
				assert.NoError(t, err)
				assert.Equal(t, "ACGTACGTAC", s)
			}
		}()
	}
	wg.Wait()
}

func TestOpenFASTA_Errors(t *testing.T) {
	_, err := OpenFASTA("ref.fa.gz")
	assert.Error(t, err)

	_, err = OpenFASTA(filepath.Join(t.TempDir(), "missing.fa"))
	assert.Error(t, err)
}
