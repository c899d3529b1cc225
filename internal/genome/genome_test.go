package genome

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_Sequence(t *testing.T) {
	m := NewMemory(map[string]string{"chr1": "acgtACGTNN"})

	s, err := m.Sequence("chr1", 1, 4)
	require.NoError(t, err)
	assert.Equal(t, "ACGT", s)

	s, err = m.Sequence("1", 9, 10)
	require.NoError(t, err)
	assert.Equal(t, "NN", s, "chr prefix is optional")

	s, err = m.Sequence("chr1", 5, 4)
	require.NoError(t, err)
	assert.Empty(t, s, "empty range")

	for _, r := range [][2]int64{{0, 1}, {10, 11}, {5, 3}} {
		_, err := m.Sequence("chr1", r[0], r[1])
		var sre *SequenceRangeError
		require.ErrorAs(t, err, &sre, "%v", r)
		assert.Equal(t, int64(10), sre.Length)
	}

	_, err = m.Sequence("chrZ", 1, 1)
	var sre *SequenceRangeError
	require.ErrorAs(t, err, &sre)
	assert.Equal(t, int64(-1), sre.Length)
	assert.Contains(t, err.Error(), "not found")
}

func TestMemory_WithRegion(t *testing.T) {
	m := NewMemory(nil).WithRegion("chr11", 1000, "acgt")

	s, err := m.Sequence("chr11", 1001, 1003)
	require.NoError(t, err)
	assert.Equal(t, "CGT", s)

	s, err = m.Sequence("11", 1000, 1000)
	require.NoError(t, err)
	assert.Equal(t, "A", s)

	_, err = m.Sequence("chr11", 999, 1000)
	var sre *SequenceRangeError
	require.ErrorAs(t, err, &sre)
	assert.Equal(t, int64(1003), sre.Length)

	_, err = m.Sequence("chr11", 1003, 1004)
	assert.ErrorAs(t, err, &sre)
}
