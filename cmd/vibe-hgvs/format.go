package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/vibe-hgvs/internal/hgvs"
)

func newFormatCmd() *cobra.Command {
	var (
		transcriptID string
		svLength     int64
	)

	cmd := &cobra.Command{
		Use:   "format <chrom> <pos> <ref> <alt>",
		Short: "Format a genomic variant as an HGVS name",
		Long: `Format a genomic variant as an HGVS name on a transcript, or as a g.
name on the chromosome when no transcript is given.

Alleles are minimal (no VCF padding base); use '.' or '-' for an empty
allele. Structural variants give the length with --sv-length: negative
for a deletion of that many bases starting at pos, positive for an
insertion before pos.`,
		Example: `  vibe-hgvs format chr11 17496508 T C -t NM_000352.3
  vibe-hgvs format chrY 24861625 - - -t NM_001388484.1 --sv-length -4780
  vibe-hgvs format chr2 22 - CAG`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil || pos < 1 {
				return fmt.Errorf("invalid position %q", args[1])
			}

			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			seq, closeSeq, err := openGenome(logger)
			if err != nil {
				return err
			}
			defer closeSeq()

			opts := formatOptions(seq, svLength)
			chrom, ref, alt := args[0], alleleArg(args[2]), alleleArg(args[3])

			var name string
			if transcriptID == "" {
				name, err = hgvs.FormatGenomicName(chrom, pos, ref, alt, seq, opts...)
			} else {
				lookup, closeLookup, lerr := transcriptLookup(logger)
				if lerr != nil {
					return lerr
				}
				defer closeLookup()

				t := lookup.GetTranscript(transcriptID)
				if t == nil {
					return fmt.Errorf("%w: %s", hgvs.ErrTranscriptNotFound, transcriptID)
				}
				name, err = hgvs.FormatName(chrom, pos, ref, alt, seq, t, opts...)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&transcriptID, "transcript", "t", "", "Transcript accession (e.g. NM_000352.3)")
	cmd.Flags().Int64Var(&svLength, "sv-length", 0, "Structural variant length (negative for deletions)")
	addFormatFlags(cmd)
	return cmd
}

func addFormatFlags(cmd *cobra.Command) {
	cmd.Flags().Int("max-allele-length", hgvs.DefaultMaxAlleleLength, "Longest allele written out literally")
	cmd.Flags().Bool("justify", true, "Shift indels 3' and report duplications")
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		// Several commands share these keys; bind the running command's flags.
		if err := viper.BindPFlag("format.max_allele_length", cmd.Flags().Lookup("max-allele-length")); err != nil {
			return err
		}
		return viper.BindPFlag("format.justify", cmd.Flags().Lookup("justify"))
	}
}

// formatOptions returns the configured formatting options. Justification
// needs a reference and is dropped without one.
func formatOptions(seq hgvs.SequenceSource, svLength int64) []hgvs.FormatOption {
	return []hgvs.FormatOption{
		hgvs.WithSVLength(svLength),
		hgvs.WithMaxAlleleLength(viper.GetInt("format.max_allele_length")),
		hgvs.WithJustify(viper.GetBool("format.justify") && seq != nil),
	}
}
