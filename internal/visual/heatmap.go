// Package visual renders feature matrices as PNG heatmaps and HTML reports.
package visual

import (
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/scenevec/internal/monitoring"
	"github.com/banshee-data/scenevec/internal/security"
	"github.com/banshee-data/scenevec/internal/simlog/features"
	"github.com/banshee-data/scenevec/internal/simlog/pipeline"
)

// Heatmap image size.
const (
	heatmapWidth  = 10 * vg.Inch
	heatmapHeight = 5 * vg.Inch
)

// matrixGrid adapts a dense feature matrix to plotter.GridXYZ, with rows
// on the x axis and columns on the y axis.
type matrixGrid struct {
	d *mat.Dense
}

func (g matrixGrid) Dims() (c, r int) {
	rows, cols := g.d.Dims()
	return rows, cols
}

func (g matrixGrid) Z(c, r int) float64 { return g.d.At(c, r) }
func (g matrixGrid) X(c int) float64    { return float64(c) }
func (g matrixGrid) Y(r int) float64    { return float64(r) }

// HeatmapName returns the PNG file name for one kind.
func HeatmapName(prefix string, kind features.Kind) string {
	return fmt.Sprintf("%s_%s_heatmap.png", security.SanitizeFilename(prefix), kind)
}

// newHeatmap builds the plot for m, or nil when m has no cells.
func newHeatmap(m features.Matrix, title string) *plot.Plot {
	d := m.Dense()
	if d == nil {
		return nil
	}
	hm := plotter.NewHeatMap(matrixGrid{d}, palette.Heat(12, 1))
	if hm.Max <= hm.Min {
		hm.Max = hm.Min + 1
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "row"
	p.Y.Label.Text = "column"
	p.Add(hm)
	return p
}

// RenderHeatmaps writes one PNG per denoised matrix of res into dir,
// creating dir if needed. Matrices without rows or columns are skipped.
// It returns the paths written.
func RenderHeatmaps(dir string, res *pipeline.Result) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}
	prefix := security.StemFor(res.SourcePath)

	var written []string
	for _, m := range res.Denoised {
		p := newHeatmap(m, fmt.Sprintf("%s %s vectors (window %d)", prefix, m.Kind, res.Window))
		if p == nil {
			monitoring.Diagf("visual: %s matrix is empty, no heatmap", m.Kind)
			continue
		}
		path, err := security.JoinWithin(dir, HeatmapName(prefix, m.Kind))
		if err != nil {
			return written, err
		}
		if err := p.Save(heatmapWidth, heatmapHeight, path); err != nil {
			return written, fmt.Errorf("save %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}
