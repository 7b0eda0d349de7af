package main

import (
	"github.com/spf13/cobra"

	"card-catalog/internal/ingest"
)

func loadCmd() *cobra.Command {
	var (
		csvPath    string
		clearFirst bool
		batchSize  int
		samples    int
	)

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Insert the cards from a ManaBox CSV export",
		Long: `Insert the cards from a ManaBox CSV export, then verify what was stored.

Examples:
  ingest load --csv ManaBox_Collection.csv
  ingest load --csv export.csv --clear --batch-size 1000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close(ctx)

			ctx, release, err := acquireIngestLock(ctx, s.cfg, s.logger)
			if err != nil {
				return err
			}
			defer release()

			if clearFirst {
				if _, err := ingest.Clear(ctx, s.store, s.logger); err != nil {
					return err
				}
			}

			loader := ingest.NewLoader(s.store, ingest.WithBatchSize(batchSize), ingest.WithLogger(s.logger))
			if _, err := loader.LoadFile(ctx, csvPath); err != nil {
				s.logger.Error("Ingestion failed", err)
				return err
			}

			_, err = ingest.Verify(ctx, s.store, samples, s.logger)
			return err
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", ingest.DefaultCSVPath, "path to the ManaBox CSV export")
	cmd.Flags().BoolVar(&clearFirst, "clear", false, "delete every stored card before loading")
	cmd.Flags().IntVar(&batchSize, "batch-size", ingest.DefaultBatchSize, "cards per insert")
	cmd.Flags().IntVar(&samples, "samples", ingest.DefaultSamples, "sample documents to show after loading")

	return cmd
}
