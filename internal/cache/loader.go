package cache

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Loader populates a cache from a gene model source.
type Loader interface {
	Load(c *Cache) error
}

// openReader opens path for reading, transparently decompressing .gz files.
// The returned close function releases both readers.
func openReader(path string) (io.Reader, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, f.Close, nil
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("open gzip reader: %w", err)
	}
	return gz, func() error {
		gz.Close()
		return f.Close()
	}, nil
}

func newLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	// refGene exon lists on long genes exceed the default token size
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 4*1024*1024)
	return scanner
}

// parseStrand converts a strand column to +1/-1.
func parseStrand(s string) (int8, error) {
	switch s {
	case "+":
		return 1, nil
	case "-":
		return -1, nil
	}
	return 0, fmt.Errorf("invalid strand %q", s)
}

// NormalizeChrom returns the chromosome name without a "chr" prefix, so that
// "chr11" and "11" compare equal.
func NormalizeChrom(chrom string) string {
	if len(chrom) > 3 && chrom[:3] == "chr" {
		return chrom[3:]
	}
	return chrom
}
