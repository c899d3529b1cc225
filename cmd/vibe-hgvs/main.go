// Package main provides the vibe-hgvs command-line tool.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/inodb/vibe-hgvs/internal/hgvs"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitError
	}
	return ExitSuccess
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vibe-hgvs",
		Short: "Convert between HGVS names and genomic variants",
		Long: `vibe-hgvs parses HGVS c./n./g. names into genomic chrom/pos/ref/alt
variants and formats genomic variants as HGVS names on RefSeq or GENCODE
transcripts.`,
		Example: `  # One-time setup
  vibe-hgvs download --assembly hg38
  vibe-hgvs import --refgene ~/.vibe-hgvs/hg38/refGene.txt.gz --db ~/.vibe-hgvs/hg38/transcripts.duckdb
  vibe-hgvs config set transcripts.db ~/.vibe-hgvs/hg38/transcripts.duckdb
  vibe-hgvs config set genome.fasta /data/hg38.fa

  vibe-hgvs parse 'NM_000352.3:c.215A>G'
  vibe-hgvs format chr11 17496508 T C -t NM_000352.3
  vibe-hgvs convert input.vcf.gz -o names.tsv`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default ~/.vibe-hgvs.yaml)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Verbose (debug) logging")
	pf.String("fasta", "", "Indexed reference FASTA")
	pf.String("refgene", "", "refGene (genePred) transcript file")
	pf.String("gtf", "", "GENCODE GTF transcript file")
	pf.String("db", "", "DuckDB transcript database created by 'import'")
	pf.String("assembly", "hg38", "Assembly used to find downloaded files: hg19 or hg38")

	for key, name := range map[string]string{
		"genome.fasta":        "fasta",
		"transcripts.refgene": "refgene",
		"transcripts.gtf":     "gtf",
		"transcripts.db":      "db",
		"assembly":            "assembly",
	} {
		_ = viper.BindPFlag(key, pf.Lookup(name))
	}

	cmd.AddCommand(
		newParseCmd(),
		newFormatCmd(),
		newConvertCmd(),
		newImportCmd(),
		newServeCmd(),
		newDownloadCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return cmd
}

func setDefaults() {
	viper.SetDefault("assembly", "hg38")
	viper.SetDefault("format.max_allele_length", hgvs.DefaultMaxAlleleLength)
	viper.SetDefault("format.justify", true)
	viper.SetDefault("cache.size", 10000)
	viper.SetDefault("convert.workers", 0)
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.rate_limit", 0)
	viper.SetDefault("server.burst", 20)
}

// initConfig reads ~/.vibe-hgvs.yaml (or --config) and VIBE_HGVS_*
// environment variables. A missing default config file is not an error.
func initConfig() error {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".vibe-hgvs")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("VIBE_HGVS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	return nil
}

func newLogger() (*zap.Logger, error) {
	if verbose {
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		return cfg.Build()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// defaultDataDir returns ~/.vibe-hgvs/<assembly>, where 'download' puts
// its files.
func defaultDataDir(assembly string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".vibe-hgvs", strings.ToLower(assembly))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "vibe-hgvs version %s (%s) built %s\n", version, commit, date)
		},
	}
}
