package cli

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banshee-data/scenevec/internal/fsutil"
	"github.com/banshee-data/scenevec/internal/security"
	"github.com/banshee-data/scenevec/internal/visual"
)

func newReportCmd(g *globals) *cobra.Command {
	var (
		outPath string
		ro      visual.ReportOptions
	)

	cmd := &cobra.Command{
		Use:   "report <log>",
		Short: "Write an HTML report of a log's feature vectors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outPath == "" {
				outPath = security.StemFor(args[0]) + ".html"
			}
			if err := security.ValidateExportPath(outPath); err != nil {
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

			var buf bytes.Buffer
			if err := visual.RenderReport(&buf, res, ro); err != nil {
				return err
			}
			if err := (fsutil.OSFileSystem{}).WriteFile(outPath, buf.Bytes(), 0644); err != nil {
				return fmt.Errorf("write %s: %w", outPath, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "HTML file to write (default <log name>.html)")
	cmd.Flags().StringVar(&ro.AssetsHost, "assets-host", "", "URL prefix serving the echarts scripts")
	cmd.Flags().BoolVar(&ro.Raw, "raw", false, "chart the raw matrices instead of the denoised ones")
	return cmd
}
