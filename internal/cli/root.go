// Package cli wires the scenevec subcommands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/banshee-data/scenevec/internal/config"
	"github.com/banshee-data/scenevec/internal/monitoring"
	"github.com/banshee-data/scenevec/internal/simlog/pipeline"
	"github.com/banshee-data/scenevec/internal/version"
)

// globals holds the persistent flags shared by every subcommand.
type globals struct {
	configPath string
	verbose    bool
	trace      bool
}

// NewRootCmd builds the scenevec command tree.
func NewRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:   "scenevec",
		Short: "Turn driving-simulator telemetry logs into feature vectors",
		Long: "scenevec parses CARLA-style telemetry logs into per-frame scene, actor, ego-action " +
			"and obstacle feature vectors, smooths them, and exports, stores or plots the result.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			g.configureLogging(cmd.ErrOrStderr())
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&g.configPath, "config", "", "pipeline config file (.json, .yaml or .yml)")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "log per-stage timings and data-quality notes")
	root.PersistentFlags().BoolVar(&g.trace, "trace", false, "log per-entity parse detail (implies --verbose)")

	root.AddCommand(
		newExtractCmd(g),
		newBatchCmd(g),
		newInspectCmd(g),
		newPlotCmd(g),
		newReportCmd(g),
		newRunsCmd(),
		newMigrateCmd(),
		newServeCmd(g),
	)

	root.Version = version.Version
	root.SetVersionTemplate(fmt.Sprintf("scenevec %s\n", version.String()))
	return root
}

// Execute runs the root command with ctx and exits non-zero on error.
func Execute(ctx context.Context) {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func (g *globals) configureLogging(w io.Writer) {
	lw := monitoring.LogWriters{Ops: w}
	if g.verbose || g.trace {
		lw.Diag = w
	}
	if g.trace {
		lw.Trace = w
	}
	monitoring.SetLogWriters(lw)
}

func (g *globals) loadConfig() (*config.PipelineConfig, error) {
	if g.configPath == "" {
		return config.EmptyPipelineConfig(), nil
	}
	cfg, err := config.LoadPipelineConfig(g.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func (g *globals) runner() (*pipeline.Runner, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cfg), nil
}
