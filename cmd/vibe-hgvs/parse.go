package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/vibe-hgvs/internal/hgvs"
	"github.com/inodb/vibe-hgvs/internal/output"
)

// nameWriter is implemented by output.NameTabWriter and
// output.NameVCFWriter.
type nameWriter interface {
	WriteHeader() error
	Write(name string, v *hgvs.Variant) error
	Flush() error
}

func newParseCmd() *cobra.Command {
	var (
		namesFile string
		asVCF     bool
	)

	cmd := &cobra.Command{
		Use:   "parse [name...]",
		Short: "Resolve HGVS names to genomic variants",
		Long: `Resolve HGVS c., n., r. and g. names to genomic chrom/pos/ref/alt.

Output is tab-separated with empty alleles shown as '-', or a minimal VCF
with --vcf (requires a reference FASTA for the padding base).`,
		Example: `  vibe-hgvs parse 'NM_000352.3:c.215A>G'
  vibe-hgvs parse --file names.txt --vcf > variants.vcf`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && namesFile == "" {
				return errors.New("no names given; pass names as arguments or use --file")
			}
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			lookup, closeLookup, err := transcriptLookup(logger)
			if err != nil {
				return err
			}
			defer closeLookup()

			seq, closeSeq, err := openGenome(logger)
			if err != nil {
				return err
			}
			defer closeSeq()

			names := args
			if namesFile != "" {
				fromFile, err := readNames(namesFile)
				if err != nil {
					return err
				}
				names = append(names, fromFile...)
			}

			var w nameWriter
			if asVCF {
				if seq == nil {
					return errors.New("--vcf requires a reference FASTA (--fasta or genome.fasta)")
				}
				w = output.NewNameVCFWriter(cmd.OutOrStdout(), seq)
			} else {
				w = output.NewNameTabWriter(cmd.OutOrStdout())
			}
			return runParse(names, lookup, seq, w, logger)
		},
	}

	cmd.Flags().StringVarP(&namesFile, "file", "f", "", "Read names from a file, one per line ('-' for stdin)")
	cmd.Flags().BoolVar(&asVCF, "vcf", false, "Write VCF instead of tab-separated output")
	return cmd
}

// runParse writes one record per name that resolves. Failures are logged
// and reported together at the end.
func runParse(names []string, lookup hgvs.TranscriptLookup, seq hgvs.SequenceSource, w nameWriter, logger *zap.Logger) error {
	if err := w.WriteHeader(); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	failed := 0
	for _, name := range names {
		v, err := hgvs.ParseVariant(name, seq, lookup)
		if err == nil {
			err = w.Write(name, v)
			var pe *output.PaddingError
			if err != nil && !errors.As(err, &pe) {
				return err
			}
		}
		if err != nil {
			failed++
			logger.Warn("failed to parse name", zap.String("name", name), zap.Error(err))
		}
	}

	if err := w.Flush(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d names could not be resolved", failed, len(names))
	}
	return nil
}

// readNames reads one name per line, skipping blank lines and # comments.
func readNames(path string) ([]string, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var names []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return names, nil
}
