package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/vibe-hgvs/internal/convert"
	"github.com/inodb/vibe-hgvs/internal/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve HGVS parsing and formatting over HTTP",
		Long: `Serve the HTTP API:

  GET /health
  GET /api/v1/parse?name=NM_000352.3:c.215A>G
  GET /api/v1/format?chrom=chr11&pos=17496508&ref=T&alt=C&transcript=NM_000352.3
  GET /api/v1/convert?chrom=chr11&pos=17496508&ref=T&alt=C`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			for key, name := range map[string]string{
				"server.addr":       "addr",
				"server.rate_limit": "rate-limit",
				"server.burst":      "burst",
			} {
				if err := viper.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
					return err
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			idx, _, err := loadIndex(logger)
			if err != nil {
				return err
			}
			seq, closeSeq, err := openGenome(logger)
			if err != nil {
				return err
			}
			defer closeSeq()

			opts := server.DefaultOptions()
			opts.MaxAlleleLength = viper.GetInt("format.max_allele_length")
			opts.Justify = viper.GetBool("format.justify")
			opts.RateLimit = viper.GetFloat64("server.rate_limit")
			opts.Burst = viper.GetInt("server.burst")
			opts.Debug = verbose

			conv := convert.NewConverter(idx, seq)
			conv.SetLogger(logger)
			conv.SetMaxAlleleLength(opts.MaxAlleleLength)
			conv.SetJustify(opts.Justify)

			srv := server.New(idx, seq, opts)
			srv.SetLogger(logger)
			srv.SetConverter(conv)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx, viper.GetString("server.addr"))
		},
	}

	cmd.Flags().String("addr", ":8080", "Listen address")
	cmd.Flags().Float64("rate-limit", 0, "Requests per second across all clients (0: unlimited)")
	cmd.Flags().Int("burst", 20, "Rate limiter burst size")
	return cmd
}
