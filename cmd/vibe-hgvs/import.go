package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/vibe-hgvs/internal/cache"
	"github.com/inodb/vibe-hgvs/internal/duckdb"
)

const transcriptSourceKey = "transcripts_source"

func newImportCmd() *cobra.Command {
	var (
		refGenePath string
		gtfPath     string
		dbPath      string
		keepAlts    bool
		force       bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import transcripts into a DuckDB database",
		Long: `Import transcripts from a refGene (genePred) or GENCODE GTF file into a
DuckDB database. Commands configured with transcripts.db then look
transcripts up on demand instead of loading the whole file.

The import is skipped when the database already holds the same version of
the source file.`,
		Example: `  vibe-hgvs import --refgene refGene.txt.gz --db transcripts.duckdb
  vibe-hgvs import --gtf gencode.v46.annotation.gtf.gz --db gencode.duckdb`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (refGenePath == "") == (gtfPath == "") {
				return errors.New("exactly one of --refgene or --gtf is required")
			}
			if dbPath == "" {
				return errors.New("--db is required")
			}

			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			var loader cache.Loader
			source := refGenePath
			if refGenePath != "" {
				l := cache.NewRefGeneLoader(refGenePath)
				l.SetLogger(logger)
				l.SetKeepAltContigs(keepAlts)
				loader = l
			} else {
				source = gtfPath
				l := cache.NewGTFLoader(gtfPath)
				l.SetLogger(logger)
				loader = l
			}
			return runImport(loader, source, dbPath, force, logger)
		},
	}

	cmd.Flags().StringVar(&refGenePath, "refgene", "", "refGene (genePred) file, optionally gzipped")
	cmd.Flags().StringVar(&gtfPath, "gtf", "", "GENCODE GTF file, optionally gzipped")
	cmd.Flags().StringVar(&dbPath, "db", "", "Output DuckDB file")
	cmd.Flags().BoolVar(&keepAlts, "keep-alt-contigs", false, "Keep transcripts on _alt, _fix and _random contigs")
	cmd.Flags().BoolVar(&force, "force", false, "Re-import even if the database is up to date")
	return cmd
}

func runImport(loader cache.Loader, source, dbPath string, force bool, logger *zap.Logger) error {
	fp, err := duckdb.StatFile(source)
	if err != nil {
		return fmt.Errorf("stat %s: %w", source, err)
	}

	store, err := duckdb.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if !force && store.SourceValid(transcriptSourceKey, fp) {
		n, _ := store.TranscriptCount()
		logger.Info("transcripts already up to date", zap.String("db", dbPath), zap.Int("transcripts", n))
		return nil
	}

	c := cache.New()
	if err := loader.Load(c); err != nil {
		return fmt.Errorf("load %s: %w", source, err)
	}
	if c.TranscriptCount() == 0 {
		return fmt.Errorf("no transcripts found in %s", source)
	}

	n, err := store.ImportTranscripts(c)
	if err != nil {
		return err
	}
	if err := store.RecordSource(transcriptSourceKey, fp); err != nil {
		return err
	}
	// Names cached under the old transcripts are stale.
	if err := store.ClearResults(); err != nil {
		return err
	}

	var size string
	if info, err := os.Stat(dbPath); err == nil {
		size = formatSize(info.Size())
	}
	logger.Info("imported transcripts",
		zap.String("source", source),
		zap.String("db", dbPath),
		zap.Int("transcripts", n),
		zap.Int("chromosomes", len(c.Chromosomes())),
		zap.String("size", size))
	return nil
}
