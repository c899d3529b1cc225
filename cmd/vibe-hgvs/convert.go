package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-hgvs/internal/convert"
	"github.com/inodb/vibe-hgvs/internal/duckdb"
	"github.com/inodb/vibe-hgvs/internal/output"
	"github.com/inodb/vibe-hgvs/internal/vcf"
)

// resultWriter is implemented by output.TabWriter and output.VCFWriter.
type resultWriter interface {
	convert.Writer
	WriteHeader() error
}

func newConvertCmd() *cobra.Command {
	var (
		outputFile   string
		outputFormat string
		resultCache  string
	)

	cmd := &cobra.Command{
		Use:   "convert <input.vcf>",
		Short: "Name every variant in a VCF file on all overlapping transcripts",
		Long: `Convert every record of a VCF file (plain or gzipped, '-' for stdin) to
a g. name and one HGVS name per overlapping transcript.

Symbolic <DEL> and <INS> records are named by length using SVLEN or END.
With --cache, names are stored in a DuckDB file and reused by later runs
with the same transcripts and formatting settings.`,
		Example: `  vibe-hgvs convert input.vcf.gz -o names.tsv
  vibe-hgvs convert input.vcf -f vcf -o annotated.vcf
  vibe-hgvs convert input.vcf --cache results.duckdb --workers 8`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			parser, err := vcf.NewParser(args[0])
			if err != nil {
				return err
			}
			defer parser.Close()

			idx, source, err := loadIndex(logger)
			if err != nil {
				return err
			}
			seq, closeSeq, err := openGenome(logger)
			if err != nil {
				return err
			}
			defer closeSeq()

			conv := convert.NewConverter(idx, seq)
			conv.SetLogger(logger)
			conv.SetWorkers(viper.GetInt("convert.workers"))
			conv.SetMaxAlleleLength(viper.GetInt("format.max_allele_length"))
			conv.SetJustify(viper.GetBool("format.justify"))

			if resultCache != "" {
				store, err := openResultCache(resultCache, source, seq != nil, logger)
				if err != nil {
					return err
				}
				defer store.Close()
				conv.SetResultStore(store)
			}

			var out io.Writer = cmd.OutOrStdout()
			if outputFile != "" {
				f, err := os.Create(outputFile)
				if err != nil {
					return fmt.Errorf("creating output file: %w", err)
				}
				defer f.Close()
				out = f
			}

			var w resultWriter
			switch outputFormat {
			case "tab":
				w = output.NewTabWriter(out)
			case "vcf":
				w = output.NewVCFWriter(out, parser.Header())
			default:
				return fmt.Errorf("unknown output format %q", outputFormat)
			}
			if err := w.WriteHeader(); err != nil {
				return fmt.Errorf("writing header: %w", err)
			}

			return conv.ConvertAll(parser, w)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVarP(&outputFormat, "output-format", "f", "tab", "Output format: tab, vcf")
	cmd.Flags().StringVar(&resultCache, "cache", "", "DuckDB file to reuse and store names")
	cmd.Flags().Int("workers", 0, "Conversion workers (default: number of CPUs)")
	addFormatFlags(cmd)

	bindFormat := cmd.PreRunE
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if err := viper.BindPFlag("convert.workers", cmd.Flags().Lookup("workers")); err != nil {
			return err
		}
		return bindFormat(cmd, args)
	}
	return cmd
}

// openResultCache opens the result store and drops names computed under
// other settings or from another version of the transcript source.
func openResultCache(path, source string, haveGenome bool, logger *zap.Logger) (*duckdb.Store, error) {
	fp, err := duckdb.StatFile(source)
	if err != nil {
		return nil, fmt.Errorf("stat transcript source: %w", err)
	}
	settings := fmt.Sprintf("transcripts=%s@%s;max_allele_length=%d;justify=%t",
		source, fp, viper.GetInt("format.max_allele_length"),
		viper.GetBool("format.justify") && haveGenome)

	store, err := duckdb.Open(path)
	if err != nil {
		return nil, err
	}
	cleared, err := store.EnsureResultSettings(settings)
	if err != nil {
		store.Close()
		return nil, err
	}
	if cleared {
		logger.Info("settings changed, cleared cached names", zap.String("cache", path))
	}
	n, err := store.ResultCount()
	if err == nil {
		logger.Info("opened result cache", zap.String("cache", path), zap.Int64("names", n))
	}
	return store, nil
}
