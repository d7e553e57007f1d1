package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Ramsey-B/fern/pkg/startup"
)

func newMatchCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "match [report-id]",
		Short: "Run auto-match for one report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			reportID := args[0]

			a := &app{cfg: cfg, logger: logger}
			s := startup.NewStartup(logger, 1)
			a.dependencies(s, false)
			if err := s.Start(ctx); err != nil {
				return err
			}
			defer func() { _ = s.Stop(context.Background()) }()

			if err := a.build(); err != nil {
				return err
			}

			if dryRun {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(a.manager.Candidates(ctx, reportID))
			}

			created := a.manager.RunAutoMatchForReport(ctx, reportID)
			fmt.Printf("Created %d new matches for report %s\n", created, reportID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print ranked candidates without saving")
	return cmd
}
