package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newInspectCmd(g *globals) *cobra.Command {
	var showFrames bool

	cmd := &cobra.Command{
		Use:   "inspect <log>",
		Short: "Describe the map and frames of a log without building vectors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := g.runner()
			if err != nil {
				return err
			}
			log, enc, err := r.Parse(args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "file:        %s (%s)\n", args[0], enc)
			fmt.Fprintf(w, "map:         %q\n", log.Map.Name())
			fmt.Fprintf(w, "crosswalks:  %d\n", len(log.Map.Crosswalks))
			fmt.Fprintf(w, "junctions:   %d\n", len(log.Map.Junctions))
			fmt.Fprintf(w, "frames:      %d\n", len(log.Frames))
			fmt.Fprintf(w, "mismatches:  %d\n", log.Mismatches)
			if !showFrames {
				return nil
			}

			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FRAME\tTIME\tEGOS\tVEHICLES\tLIGHTS\tSIGNS\tPEDESTRIANS")
			for _, f := range log.Frames {
				elapsed := "-"
				if f.Elapsed != nil {
					elapsed = f.Elapsed.String()
				}
				fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%d\t%d\n", f.Index, elapsed,
					len(f.Egos), len(f.Vehicles), len(f.TrafficLights), len(f.TrafficSigns), len(f.Pedestrians))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&showFrames, "frames", false, "list every frame with its actor counts")
	return cmd
}
