// Command ingest loads a ManaBox collection export into MongoDB and checks
// what was stored. It runs on the host, so MongoDB defaults to localhost.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	mongoURI string
	logLevel string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "ingest",
		Short:         "Load and verify the card collection",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&mongoURI, "mongo-uri", "", "MongoDB connection URI (overrides MONGO_* settings)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(loadCmd())
	rootCmd.AddCommand(verifyCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
