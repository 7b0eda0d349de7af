package main

import (
	"github.com/spf13/cobra"

	"card-catalog/internal/ingest"
)

func verifyCmd() *cobra.Command {
	var samples int

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Show how many cards are stored and a few samples",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			s, err := openSession(ctx)
			if err != nil {
				return err
			}
			defer s.Close(ctx)

			_, err = ingest.Verify(ctx, s.store, samples, s.logger)
			return err
		},
	}

	cmd.Flags().IntVar(&samples, "samples", ingest.DefaultSamples, "sample documents to show")

	return cmd
}
