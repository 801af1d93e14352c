package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banshee-data/scenevec/internal/store"
)

func newMigrateCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Inspect or change the results database schema version",
		Long:  "Opening a database always migrates it to the latest schema; down rolls back one step.",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", DefaultDBPath, "results database")

	printVersion := func(cmd *cobra.Command, s *store.Store) error {
		v, dirty, err := s.MigrateVersion()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty=%v)\n", v, dirty)
		return nil
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Print the schema version",
		Args:  cobra.NoArgs,
		RunE: withStore(&dbPath, func(cmd *cobra.Command, s *store.Store, args []string) error {
			return printVersion(cmd, s)
		}),
	}
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		Args:  cobra.NoArgs,
		RunE: withStore(&dbPath, func(cmd *cobra.Command, s *store.Store, args []string) error {
			if err := s.MigrateDown(); err != nil {
				return err
			}
			return printVersion(cmd, s)
		}),
	}

	cmd.AddCommand(status, down)
	return cmd
}
