package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/banshee-data/scenevec/internal/fsutil"
	"github.com/banshee-data/scenevec/internal/monitoring"
	"github.com/banshee-data/scenevec/internal/simlog/batch"
	"github.com/banshee-data/scenevec/internal/simlog/pipeline"
)

func newBatchCmd(g *globals) *cobra.Command {
	var (
		out      outputs
		pattern  string
		workers  int
		failFast bool
	)

	cmd := &cobra.Command{
		Use:   "batch <dir>",
		Short: "Extract feature vectors from every log in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := out.validate(); err != nil {
				return err
			}
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			paths, err := batch.Glob(fsutil.OSFileSystem{}, args[0], pattern)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return fmt.Errorf("no logs matching %q in %s", pattern, args[0])
			}
			if workers < 1 {
				workers = cfg.GetWorkers()
			}

			s, err := out.openStore()
			if err != nil {
				return err
			}
			if s != nil {
				defer s.Close()
			}

			runner := batch.New(pipeline.NewRunner(cfg), workers, batch.WithFailFast(failFast))
			outcomes, runErr := runner.Run(cmd.Context(), paths)

			w := cmd.OutOrStdout()
			for _, o := range outcomes {
				if o.Err != nil {
					fmt.Fprintf(w, "FAIL %s: %v\n", o.Path, o.Err)
					continue
				}
				if err := out.write(cmd.Context(), s, o.Result); err != nil {
					return err
				}
				printSummary(w, o.Result, out.raw)
			}
			monitoring.Opsf("batch: %d of %d logs failed", runner.Failed(), len(paths))
			fmt.Fprintf(w, "%d logs, %d failed\n", len(paths), runner.Failed())

			if runErr != nil {
				return runErr
			}
			if runner.Failed() > 0 {
				return fmt.Errorf("%d of %d logs failed", runner.Failed(), len(paths))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&pattern, "pattern", batch.DefaultPattern, "glob selecting logs inside the directory")
	cmd.Flags().IntVar(&workers, "workers", 0, "logs processed concurrently (default from config)")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "stop starting new logs after the first failure")
	cmd.Flags().StringVar(&out.csvDir, "csv", "", "directory for one CSV per matrix per log")
	cmd.Flags().StringVar(&out.jsonDir, "json", "", "directory for one JSON vector document per log")
	cmd.Flags().StringVar(&out.dbPath, "db", "", "results database to save every run into")
	cmd.Flags().BoolVar(&out.raw, "raw", false, "summarise the raw matrices instead of the denoised ones")

	return cmd
}
