package cache

import "sort"

// IntervalTree answers "which transcripts span this position" queries over a
// static, start-sorted slice with a prefix-max array of ends for pruning.
// It is built once after loading and never modified.
type IntervalTree struct {
	spans  []span
	maxEnd []int64 // maxEnd[i] = max(end) over spans[:i+1]
}

type span struct {
	start, end int64
	tx         *Transcript
}

// BuildIntervalTree creates an interval tree from a slice of transcripts.
func BuildIntervalTree(transcripts []*Transcript) *IntervalTree {
	if len(transcripts) == 0 {
		return &IntervalTree{}
	}

	spans := make([]span, len(transcripts))
	for i, t := range transcripts {
		spans[i] = span{start: t.Start, end: t.End, tx: t}
	}
	sort.Slice(spans, func(i, j int) bool {
		return spans[i].start < spans[j].start
	})

	// Prefix max: any span at or before i ends no later than maxEnd[i].
	maxEnd := make([]int64, len(spans))
	maxEnd[0] = spans[0].end
	for i := 1; i < len(spans); i++ {
		maxEnd[i] = max(maxEnd[i-1], spans[i].end)
	}

	return &IntervalTree{spans: spans, maxEnd: maxEnd}
}

// FindOverlaps returns all transcripts whose [Start, End] range contains pos.
func (t *IntervalTree) FindOverlaps(pos int64) []*Transcript {
	return t.FindRange(pos, pos)
}

// FindRange returns all transcripts overlapping the closed range [start, end].
func (t *IntervalTree) FindRange(start, end int64) []*Transcript {
	if len(t.spans) == 0 || end < start {
		return nil
	}

	// Candidates start at or before end.
	hi := sort.Search(len(t.spans), func(i int) bool {
		return t.spans[i].start > end
	})

	var result []*Transcript
	for i := hi - 1; i >= 0; i-- {
		if t.maxEnd[i] < start {
			break
		}
		if t.spans[i].end >= start {
			result = append(result, t.spans[i].tx)
		}
	}
	return result
}

// Len returns the number of indexed transcripts.
func (t *IntervalTree) Len() int {
	return len(t.spans)
}
