package genome

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/biogo/hts/fai"
)

// FASTA is an indexed (samtools faidx) FASTA reference. Reads seek into the
// file using the .fai index; a mutex serialises access to the shared handle
// so one FASTA may serve concurrent callers.
type FASTA struct {
	mu   sync.Mutex
	f    *os.File
	file *fai.File
	idx  fai.Index
}

// OpenFASTA opens path and its index at path + ".fai". When no index file
// exists the index is built in memory by scanning the FASTA once.
// Compressed FASTA is not supported.
func OpenFASTA(path string) (*FASTA, error) {
	if strings.HasSuffix(path, ".gz") {
		return nil, fmt.Errorf("open FASTA %s: compressed references are not supported", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open FASTA file: %w", err)
	}

	idx, err := readIndex(path, f)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &FASTA{f: f, file: fai.NewFile(f, idx), idx: idx}, nil
}

func readIndex(path string, f *os.File) (fai.Index, error) {
	ir, err := os.Open(path + ".fai")
	if err == nil {
		defer ir.Close()
		idx, err := fai.ReadFrom(ir)
		if err != nil {
			return nil, fmt.Errorf("read FASTA index: %w", err)
		}
		return idx, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("open FASTA index: %w", err)
	}

	idx, err := fai.NewIndex(f)
	if err != nil {
		return nil, fmt.Errorf("index FASTA: %w", err)
	}
	return idx, nil
}

// Sequence returns bases start..end (1-based, inclusive) of chrom.
func (g *FASTA) Sequence(chrom string, start, end int64) (string, error) {
	name, ok := resolveName(chrom, func(n string) bool {
		_, ok := g.idx[n]
		return ok
	})
	if !ok {
		return "", &SequenceRangeError{Chrom: chrom, Start: start, End: end, Length: -1}
	}
	if err := checkRange(chrom, start, end, int64(g.idx[name].Length)); err != nil {
		return "", err
	}
	if end == start-1 {
		return "", nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	seq, err := g.file.SeqRange(name, int(start-1), int(end))
	if err != nil {
		return "", fmt.Errorf("seek %s:%d-%d: %w", chrom, start, end, err)
	}
	var buf bytes.Buffer
	buf.Grow(int(end - start + 1))
	if _, err := io.Copy(&buf, seq); err != nil {
		return "", fmt.Errorf("read %s:%d-%d: %w", chrom, start, end, err)
	}
	return strings.ToUpper(buf.String()), nil
}

// Length returns the length of a reference sequence.
func (g *FASTA) Length(chrom string) (int64, bool) {
	name, ok := resolveName(chrom, func(n string) bool {
		_, ok := g.idx[n]
		return ok
	})
	if !ok {
		return 0, false
	}
	return int64(g.idx[name].Length), true
}

// Close closes the underlying file.
func (g *FASTA) Close() error {
	return g.f.Close()
}
