package visual

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/scenevec/internal/simlog/features"
	"github.com/banshee-data/scenevec/internal/simlog/pipeline"
)

// DefaultAssetsHost serves the echarts JavaScript for rendered pages.
const DefaultAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

var viridis = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// ReportOptions adjusts RenderReport.
type ReportOptions struct {
	AssetsHost string
	// Raw plots the undenoised matrices instead.
	Raw bool
}

// RenderReport writes an HTML page for res: an occupancy scatter of the
// set cells of each matrix followed by a bar chart of column activity.
func RenderReport(w io.Writer, res *pipeline.Result, o ReportOptions) error {
	host := o.AssetsHost
	if host == "" {
		host = DefaultAssetsHost
	}
	set := res.Denoised
	if o.Raw {
		set = res.Raw
	}

	page := components.NewPage()
	page.SetAssetsHost(host)
	page.PageTitle = fmt.Sprintf("scenevec %s", res.SourcePath)
	for _, m := range set {
		page.AddCharts(occupancyChart(m, res, host), activityChart(m, host))
	}
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

// occupancyChart plots one point per non-zero cell at (row, column).
func occupancyChart(m features.Matrix, res *pipeline.Result, host string) *charts.Scatter {
	pts := make([]opts.ScatterData, 0, m.Len())
	maxValue := 1.0
	for r, row := range m.Rows {
		for c, v := range row {
			if v == 0 {
				continue
			}
			maxValue = max(maxValue, v)
			pts = append(pts, opts.ScatterData{Value: []interface{}{m.FrameIndex[r], c, v}})
		}
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "420px", AssetsHost: host}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s vectors", m.Kind),
			Subtitle: fmt.Sprintf("run=%s rows=%d columns=%d set=%d", res.RunID, m.Len(), m.Width(), len(pts)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "frame", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: m.Columns}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxValue),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: viridis},
		}),
	)
	scatter.AddSeries(string(m.Kind), pts, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))
	return scatter
}

// activityChart plots the fraction of rows each column is set in.
func activityChart(m features.Matrix, host string) *charts.Bar {
	activity := m.Activity()
	y := make([]opts.BarData, len(activity))
	for i, a := range activity {
		y[i] = opts.BarData{Value: a}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "360px", AssetsHost: host}),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("%s column activity", m.Kind)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(m.Columns).
		AddSeries("activity", y)
	return bar
}
