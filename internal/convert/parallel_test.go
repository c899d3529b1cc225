package convert

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-hgvs/internal/cache"
	"github.com/inodb/vibe-hgvs/internal/vcf"
)

// emptyIndex knows no transcripts, so every variant gets only its g. name.
type emptyIndex struct{}

func (emptyIndex) GetTranscript(string) *cache.Transcript { return nil }

func (emptyIndex) FindTranscriptsInRange(string, int64, int64) []*cache.Transcript { return nil }

func makeItems(n int) <-chan WorkItem {
	ch := make(chan WorkItem, n)
	for i := 0; i < n; i++ {
		ch <- WorkItem{
			Seq: i,
			Variant: &vcf.Variant{
				Chrom: "1",
				Pos:   int64(100 + i),
				Ref:   "A",
				Alt:   "T",
			},
		}
	}
	close(ch)
	return ch
}

func TestParallelConvert_OrderPreservation(t *testing.T) {
	c := NewConverter(emptyIndex{}, nil)

	results := c.ParallelConvert(makeItems(200), 8)

	var collected []int
	err := OrderedCollect(results, func(r WorkResult) error {
		require.NoError(t, r.Err)
		collected = append(collected, r.Seq)
		return nil
	})
	require.NoError(t, err)

	assert.Len(t, collected, 200)
	for i, seq := range collected {
		assert.Equal(t, i, seq, "result %d out of order", i)
	}
}

func TestParallelConvert_SingleWorker(t *testing.T) {
	c := NewConverter(emptyIndex{}, nil)

	results := c.ParallelConvert(makeItems(50), 1)

	var collected []int
	err := OrderedCollect(results, func(r WorkResult) error {
		collected = append(collected, r.Seq)
		return nil
	})
	require.NoError(t, err)

	assert.Len(t, collected, 50)
	for i, seq := range collected {
		assert.Equal(t, i, seq)
	}
}

func TestParallelConvert_EmptyInput(t *testing.T) {
	c := NewConverter(emptyIndex{}, nil)

	ch := make(chan WorkItem)
	close(ch)

	count := 0
	err := OrderedCollect(c.ParallelConvert(ch, 4), func(r WorkResult) error {
		count++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestOrderedCollect_EarlyError(t *testing.T) {
	c := NewConverter(emptyIndex{}, nil)

	count := 0
	err := OrderedCollect(c.ParallelConvert(makeItems(100), 4), func(r WorkResult) error {
		count++
		if count == 5 {
			return fmt.Errorf("stop at 5")
		}
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, 5, count)
}

func TestParallelConvert_ProducesNames(t *testing.T) {
	c := NewConverter(emptyIndex{}, nil)

	err := OrderedCollect(c.ParallelConvert(makeItems(5), 2), func(r WorkResult) error {
		require.NoError(t, r.Err)
		require.Len(t, r.Results, 1)
		assert.Equal(t, fmt.Sprintf("1:g.%dA>T", 100+r.Seq), r.Results[0].HGVS)
		assert.False(t, r.Cached)
		return nil
	})
	require.NoError(t, err)
}
