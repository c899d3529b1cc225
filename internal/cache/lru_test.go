package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	mu    sync.Mutex
	calls map[string]int
	c     *Cache
}

func (s *countingSource) GetTranscript(id string) *Transcript {
	s.mu.Lock()
	s.calls[id]++
	s.mu.Unlock()
	return s.c.GetTranscript(id)
}

func newCountingSource() *countingSource {
	c := New()
	for _, tr := range testTranscripts() {
		c.AddTranscript(tr)
	}
	return &countingSource{calls: map[string]int{}, c: c}
}

func TestLRULookup(t *testing.T) {
	src := newCountingSource()
	l, err := NewLRULookup(src, 2)
	require.NoError(t, err)

	assert.Equal(t, "PER1", l.GetTranscript("NM_002616.3").GeneName)
	assert.Equal(t, "PER1", l.GetTranscript("NM_002616.3").GeneName)
	assert.Equal(t, 1, src.calls["NM_002616.3"])

	assert.Nil(t, l.GetTranscript("NM_MISSING.1"))
	assert.Nil(t, l.GetTranscript("NM_MISSING.1"))
	assert.Equal(t, 2, src.calls["NM_MISSING.1"], "misses are not cached")

	stats := l.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(3), stats.Misses)
	assert.Equal(t, 1, stats.Size)

	// evicts the least recently used entry
	l.GetTranscript("NM_000352.3")
	l.GetTranscript("NM_001.1")
	l.GetTranscript("NM_002616.3")
	assert.Equal(t, 2, src.calls["NM_002616.3"])

	l.Purge()
	assert.Zero(t, l.Stats().Size)
}

func TestLRULookup_InvalidSize(t *testing.T) {
	_, err := NewLRULookup(newCountingSource(), 0)
	assert.Error(t, err)
}

func TestLRULookup_Concurrent(t *testing.T) {
	l, err := NewLRULookup(newCountingSource(), 8)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.NotNil(t, l.GetTranscript("NM_000352.3"))
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1600), l.Stats().Hits+l.Stats().Misses)
}
