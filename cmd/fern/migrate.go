package main

import (
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := &app{cfg: cfg, logger: logger}
			if err := a.connectDatabase(cmd.Context()); err != nil {
				return err
			}
			defer a.db.Close()

			return a.migrate()
		},
	}
}
