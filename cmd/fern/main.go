// Command fern runs the lost-and-found matching service.
package main

import (
	"fmt"
	"os"

	"github.com/Gobusters/ectologger"
	"github.com/spf13/cobra"

	"github.com/Ramsey-B/fern/config"
)

var (
	cfg    *config.Config
	logger ectologger.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "fern",
		Short:         "Lost-and-found report matching service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if cfg, err = config.Load(); err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if logger, err = newLogger(cfg); err != nil {
				return fmt.Errorf("failed to build logger: %w", err)
			}
			return nil
		},
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newMatchCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
