package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banshee-data/scenevec/internal/security"
	"github.com/banshee-data/scenevec/internal/visual"
)

func newPlotCmd(g *globals) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "plot <log>",
		Short: "Render PNG heatmaps of the denoised feature matrices",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := security.ValidateExportPath(outDir); err != nil {
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
			paths, err := visual.RenderHeatmaps(outDir, res)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "out", "plots", "directory for the PNG files")
	return cmd
}
