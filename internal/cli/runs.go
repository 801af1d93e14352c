package cli

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/banshee-data/scenevec/internal/simlog/features"
	"github.com/banshee-data/scenevec/internal/store"
)

// DefaultDBPath is the results database used when --db is not given.
const DefaultDBPath = "scenevec.db"

func withStore(dbPath *string, fn func(cmd *cobra.Command, s *store.Store, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := store.Open(*dbPath)
		if err != nil {
			return fmt.Errorf("open %s: %w", *dbPath, err)
		}
		defer s.Close()
		return fn(cmd, s, args)
	}
}

func newRunsCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List, show and delete stored runs",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", DefaultDBPath, "results database")

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored runs, newest first",
		Args:  cobra.NoArgs,
		RunE: withStore(&dbPath, func(cmd *cobra.Command, s *store.Store, args []string) error {
			runs, err := s.ListRuns(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN\tSTARTED\tFRAMES\tWINDOW\tMAP\tSOURCE")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n",
					r.ID, r.StartedAt.Format(time.RFC3339), r.Frames, r.Window, r.MapName, r.SourcePath)
			}
			return tw.Flush()
		}),
	}

	var (
		kind string
		raw  bool
	)
	show := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print one stored matrix",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(&dbPath, func(cmd *cobra.Command, s *store.Store, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("run id: %w", err)
			}
			k, err := features.ParseKind(kind)
			if err != nil {
				return err
			}
			m, err := s.LoadMatrix(cmd.Context(), id, k, !raw)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 1, ' ', 0)
			fmt.Fprintln(tw, "frame\t"+strings.Join(m.Columns, "\t"))
			for r, row := range m.Rows {
				cells := make([]string, len(row))
				for c, v := range row {
					cells[c] = strconv.FormatFloat(v, 'g', -1, 64)
				}
				fmt.Fprintf(tw, "%d\t%s\n", m.FrameIndex[r], strings.Join(cells, "\t"))
			}
			return tw.Flush()
		}),
	}
	show.Flags().StringVar(&kind, "kind", string(features.KindScene), "matrix kind: scene, actor, ego_action or obstacle")
	show.Flags().BoolVar(&raw, "raw", false, "show the raw matrix instead of the denoised one")

	del := &cobra.Command{
		Use:   "delete <run-id>...",
		Short: "Delete stored runs",
		Args:  cobra.MinimumNArgs(1),
		RunE: withStore(&dbPath, func(cmd *cobra.Command, s *store.Store, args []string) error {
			for _, a := range args {
				id, err := uuid.Parse(a)
				if err != nil {
					return fmt.Errorf("run id %q: %w", a, err)
				}
				if err := s.DeleteRun(cmd.Context(), id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
			}
			return nil
		}),
	}

	cmd.AddCommand(list, show, del)
	return cmd
}
