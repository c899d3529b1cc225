package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-hgvs/internal/cache"
	"github.com/inodb/vibe-hgvs/internal/duckdb"
	"github.com/inodb/vibe-hgvs/internal/genome"
	"github.com/inodb/vibe-hgvs/internal/hgvs"
)

var errNoTranscripts = errors.New("no transcript source configured\n" +
	"Hint: pass --db, --refgene or --gtf, or download annotations with: vibe-hgvs download")

// openGenome opens genome.fasta. It returns a nil source when no reference
// is configured; names are then formatted without 3' justification.
func openGenome(logger *zap.Logger) (hgvs.SequenceSource, func() error, error) {
	path := viper.GetString("genome.fasta")
	if path == "" {
		logger.Warn("no reference FASTA configured, indels will not be justified")
		return nil, func() error { return nil }, nil
	}
	g, err := genome.OpenFASTA(path)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("opened reference", zap.String("fasta", path))
	return g, g.Close, nil
}

// transcriptSource names the file transcripts are read from and the loader
// for it. The database wins over flat files.
func transcriptSource() (path string, loader func(*cache.Cache, *zap.Logger) error, err error) {
	if p := viper.GetString("transcripts.db"); p != "" {
		return p, func(c *cache.Cache, _ *zap.Logger) error {
			s, err := duckdb.Open(p)
			if err != nil {
				return err
			}
			defer s.Close()
			_, err = s.LoadTranscripts(c)
			return err
		}, nil
	}
	if p := viper.GetString("transcripts.refgene"); p != "" {
		return p, refGeneLoader(p), nil
	}
	if p := viper.GetString("transcripts.gtf"); p != "" {
		return p, func(c *cache.Cache, logger *zap.Logger) error {
			l := cache.NewGTFLoader(p)
			l.SetLogger(logger)
			return l.Load(c)
		}, nil
	}
	if p := findRefGene(viper.GetString("assembly")); p != "" {
		return p, refGeneLoader(p), nil
	}
	return "", nil, errNoTranscripts
}

func refGeneLoader(path string) func(*cache.Cache, *zap.Logger) error {
	return func(c *cache.Cache, logger *zap.Logger) error {
		l := cache.NewRefGeneLoader(path)
		l.SetLogger(logger)
		return l.Load(c)
	}
}

// loadIndex reads every transcript into memory and builds the overlap
// index used by batch conversion.
func loadIndex(logger *zap.Logger) (*cache.Cache, string, error) {
	path, load, err := transcriptSource()
	if err != nil {
		return nil, "", err
	}
	c := cache.New()
	if err := load(c, logger); err != nil {
		return nil, "", fmt.Errorf("load transcripts from %s: %w", path, err)
	}
	c.BuildIndex()
	logger.Info("loaded transcripts",
		zap.String("source", path),
		zap.Int("transcripts", c.TranscriptCount()),
		zap.Int("chromosomes", len(c.Chromosomes())))
	return c, path, nil
}

// transcriptLookup resolves transcripts by accession only. A DuckDB source
// is queried on demand through an LRU; flat files are loaded in full.
func transcriptLookup(logger *zap.Logger) (hgvs.TranscriptLookup, func() error, error) {
	if p := viper.GetString("transcripts.db"); p != "" {
		s, err := duckdb.Open(p)
		if err != nil {
			return nil, nil, err
		}
		lookup, err := cache.NewLRULookup(s, viper.GetInt("cache.size"))
		if err != nil {
			s.Close()
			return nil, nil, err
		}
		return lookup, func() error {
			st := lookup.Stats()
			logger.Debug("transcript lookups", zap.Int64("hits", st.Hits), zap.Int64("misses", st.Misses))
			return s.Close()
		}, nil
	}
	c, _, err := loadIndex(logger)
	if err != nil {
		return nil, nil, err
	}
	return c, func() error { return nil }, nil
}

// findRefGene looks for a refGene file fetched by 'download'.
func findRefGene(assembly string) string {
	dir := defaultDataDir(assembly)
	if dir == "" {
		return ""
	}
	p := filepath.Join(dir, refGeneFileName)
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}

// alleleArg maps the command-line placeholders for an empty allele.
func alleleArg(s string) string {
	if s == "." || s == "-" {
		return ""
	}
	return s
}
