package cache

import (
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// TranscriptSource returns a transcript by ID, or nil when absent.
type TranscriptSource interface {
	GetTranscript(id string) *Transcript
}

// LRULookup decorates a TranscriptSource with a bounded in-memory cache.
// Misses are not cached, so transcripts added to the backing source later
// become visible. Safe for concurrent use.
type LRULookup struct {
	src    TranscriptSource
	lru    *lru.Cache[string, *Transcript]
	hits   atomic.Int64
	misses atomic.Int64
}

// LookupStats reports cache effectiveness.
type LookupStats struct {
	Hits   int64
	Misses int64
	Size   int
}

// NewLRULookup wraps src with an LRU cache holding up to size transcripts.
func NewLRULookup(src TranscriptSource, size int) (*LRULookup, error) {
	c, err := lru.New[string, *Transcript](size)
	if err != nil {
		return nil, fmt.Errorf("create transcript LRU: %w", err)
	}
	return &LRULookup{src: src, lru: c}, nil
}

// GetTranscript returns the cached transcript or fetches it from the source.
func (l *LRULookup) GetTranscript(id string) *Transcript {
	if t, ok := l.lru.Get(id); ok {
		l.hits.Add(1)
		return t
	}
	l.misses.Add(1)
	t := l.src.GetTranscript(id)
	if t != nil {
		l.lru.Add(id, t)
	}
	return t
}

// Purge drops all cached transcripts.
func (l *LRULookup) Purge() {
	l.lru.Purge()
}

// Stats returns hit/miss counters and the current cache size.
func (l *LRULookup) Stats() LookupStats {
	return LookupStats{
		Hits:   l.hits.Load(),
		Misses: l.misses.Load(),
		Size:   l.lru.Len(),
	}
}
