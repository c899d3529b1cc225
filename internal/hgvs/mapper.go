package hgvs

import (
	"github.com/inodb/vibe-hgvs/internal/cache"
)

// span is an exon projected onto the transcription axis, where positions
// increase 5' to 3' regardless of strand. For a reverse-strand transcript a
// genomic position g projects to -g.
type span struct {
	a, b int64 // inclusive, a <= b
}

func (s span) len() int64 { return s.b - s.a + 1 }

// txLayout holds the strand-independent view of a transcript needed to move
// between genomic and cDNA coordinates.
type txLayout struct {
	t      *cache.Transcript
	dir    int64
	exons  []span // transcription order
	utr5   int64  // exonic bases before the start codon
	cdsLen int64  // exonic bases from start codon to stop codon
	coding bool
}

func newLayout(t *cache.Transcript) (*txLayout, error) {
	if t == nil {
		return nil, &OutOfTranscriptError{Reason: "no transcript"}
	}
	if len(t.Exons) == 0 {
		return nil, &OutOfTranscriptError{Transcript: t.ID, Reason: "transcript has no exons"}
	}
	dir := int64(t.Strand)
	if dir != 1 && dir != -1 {
		return nil, &OutOfTranscriptError{Transcript: t.ID, Reason: "transcript has no strand"}
	}

	l := &txLayout{t: t, dir: dir, exons: make([]span, len(t.Exons))}
	for i, e := range t.Exons {
		s := span{a: e.Start, b: e.End}
		if dir < 0 {
			s = span{a: -e.End, b: -e.Start}
			l.exons[len(t.Exons)-1-i] = s
			continue
		}
		l.exons[i] = s
	}

	if t.IsCoding() {
		first, last := t.CDSStart, t.CDSEnd
		if dir < 0 {
			first, last = last, first
		}
		fp, ok1 := l.exonicPos(dir * first)
		lp, ok2 := l.exonicPos(dir * last)
		if !ok1 || !ok2 {
			return nil, &OutOfTranscriptError{Transcript: t.ID, Reason: "coding region boundary is not exonic"}
		}
		l.coding = true
		l.utr5 = fp - 1
		l.cdsLen = lp - fp + 1
	}
	return l, nil
}

// exonicPos returns the 1-based spliced transcript position of an exonic
// position on the transcription axis.
func (l *txLayout) exonicPos(o int64) (int64, bool) {
	var off int64
	for _, e := range l.exons {
		if o >= e.a && o <= e.b {
			return off + o - e.a + 1, true
		}
		off += e.len()
	}
	return 0, false
}

// txPosition maps a position on the transcription axis to a spliced
// transcript position and intronic offset. Positions outside the transcript
// extend the first or last exon and carry no offset.
func (l *txLayout) txPosition(o int64) (pos, offset int64) {
	var (
		best     int64
		bestDist int64 = -1
		bestOff  int64
		bestIdx  int
		off      int64
	)
	for i, e := range l.exons {
		var d int64
		switch {
		case o < e.a:
			d = e.a - o
		case o > e.b:
			d = -(o - e.b)
		}
		if ad := abs(d); bestDist < 0 || ad < bestDist {
			best, bestDist, bestOff, bestIdx = d, ad, off, i
		}
		off += e.len()
	}

	e := l.exons[bestIdx]
	switch {
	case best == 0:
		return bestOff + o - e.a + 1, 0
	case best > 0:
		pos, offset = bestOff+1, -best
	default:
		pos, offset = bestOff+e.len(), -best
	}
	if o < l.exons[0].a || o > l.exons[len(l.exons)-1].b {
		return pos + offset, 0
	}
	return pos, offset
}

func (l *txLayout) toCDNA(pos, offset int64) CDNACoord {
	c := CDNACoord{Coord: pos - l.utr5, Offset: offset}
	switch {
	case c.Coord <= 0:
		c.Coord--
	case l.coding && c.Coord > l.cdsLen:
		c.Coord -= l.cdsLen
		c.Landmark = CodingEnd
	}
	return c
}

// fromCDNA returns the spliced transcript position of a cDNA coordinate,
// ignoring its offset.
func (l *txLayout) fromCDNA(c CDNACoord) (int64, error) {
	if c.Coord == 0 {
		return 0, &InvalidCoordinateError{Transcript: l.t.ID, Coord: c, Reason: "position 0 does not exist"}
	}
	if c.Landmark == CodingEnd {
		if !l.coding {
			return 0, &OutOfTranscriptError{Transcript: l.t.ID, Reason: "stop codon coordinate on a non-coding transcript"}
		}
		if c.Coord < 0 {
			return 0, &OutOfTranscriptError{Transcript: l.t.ID, Reason: "negative position after the stop codon"}
		}
		return l.utr5 + l.cdsLen + c.Coord, nil
	}
	if c.Coord > 0 {
		return l.utr5 + c.Coord, nil
	}
	return l.utr5 + c.Coord + 1, nil
}

// axisPosition maps a spliced transcript position and offset back onto the
// transcription axis.
func (l *txLayout) axisPosition(c CDNACoord, pos int64) (int64, error) {
	first, last := l.exons[0], l.exons[len(l.exons)-1]
	if pos < 1 {
		if c.IsIntronic() {
			return 0, &InvalidCoordinateError{Transcript: l.t.ID, Coord: c, Reason: "intronic offset outside the transcript"}
		}
		return first.a + pos - 1, nil
	}

	rem := pos
	for i, e := range l.exons {
		if rem > e.len() {
			rem -= e.len()
			continue
		}
		switch {
		case c.Offset > 0:
			if rem != e.len() {
				return 0, &InvalidCoordinateError{Transcript: l.t.ID, Coord: c, Reason: "positive offset from a base that does not end an exon"}
			}
			if i+1 < len(l.exons) && c.Offset > l.exons[i+1].a-e.b-1 {
				return 0, &InvalidCoordinateError{Transcript: l.t.ID, Coord: c, Reason: "offset exceeds intron length"}
			}
		case c.Offset < 0:
			if rem != 1 {
				return 0, &InvalidCoordinateError{Transcript: l.t.ID, Coord: c, Reason: "negative offset from a base that does not start an exon"}
			}
			if i > 0 && -c.Offset > e.a-l.exons[i-1].b-1 {
				return 0, &InvalidCoordinateError{Transcript: l.t.ID, Coord: c, Reason: "offset exceeds intron length"}
			}
		}
		return e.a + rem - 1 + c.Offset, nil
	}

	if c.IsIntronic() {
		return 0, &InvalidCoordinateError{Transcript: l.t.ID, Coord: c, Reason: "intronic offset outside the transcript"}
	}
	return last.b + rem, nil
}

// GenomicToCDNA maps a 1-based genomic position to a cDNA coordinate on t.
// Intronic positions are expressed relative to the nearest exon boundary,
// ties resolving to the upstream exon. Positions outside the transcript are
// counted past its first or last base.
func GenomicToCDNA(t *cache.Transcript, pos int64) (CDNACoord, error) {
	l, err := newLayout(t)
	if err != nil {
		return CDNACoord{}, err
	}
	return l.genomicToCDNA(pos), nil
}

func (l *txLayout) genomicToCDNA(pos int64) CDNACoord {
	return l.toCDNA(l.txPosition(l.dir * pos))
}

// CDNAToGenomic maps a cDNA coordinate on t to a 1-based genomic position.
// It is the inverse of GenomicToCDNA.
func CDNAToGenomic(t *cache.Transcript, c CDNACoord) (int64, error) {
	l, err := newLayout(t)
	if err != nil {
		return 0, err
	}
	return l.cdnaToGenomic(c)
}

func (l *txLayout) cdnaToGenomic(c CDNACoord) (int64, error) {
	pos, err := l.fromCDNA(c)
	if err != nil {
		return 0, err
	}
	o, err := l.axisPosition(c, pos)
	if err != nil {
		return 0, err
	}
	return l.dir * o, nil
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
