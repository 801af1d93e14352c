package cli

import (
	"github.com/spf13/cobra"
)

func newExtractCmd(g *globals) *cobra.Command {
	var out outputs

	cmd := &cobra.Command{
		Use:   "extract <log>",
		Short: "Extract feature vectors from one log",
		Long:  "Run the full pipeline over one log and write the vectors as CSV, JSON or into a results database.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := out.validate(); err != nil {
				return err
			}
			r, err := g.runner()
			if err != nil {
				return err
			}
			res, err := r.Run(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			s, err := out.openStore()
			if err != nil {
				return err
			}
			if s != nil {
				defer s.Close()
			}
			if err := out.write(cmd.Context(), s, res); err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), res, out.raw)
			return nil
		},
	}

	cmd.Flags().StringVar(&out.csvDir, "csv", "", "directory for one CSV per matrix")
	cmd.Flags().StringVar(&out.jsonDir, "json", "", "directory for the JSON vector document")
	cmd.Flags().StringVar(&out.dbPath, "db", "", "results database to save the run into")
	cmd.Flags().BoolVar(&out.raw, "raw", false, "summarise the raw matrices instead of the denoised ones")

	return cmd
}
