package report

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"hero-analyzer/internal/stats"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

const (
	chartWidth  = 20 * vg.Inch
	chartHeight = 5 * vg.Inch
	baseline    = 0.5
)

var (
	barColor      = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	baselineColor = color.RGBA{R: 255, A: 255}
)

// Chart describes one rendered bar chart
type Chart struct {
	Metric   string
	File     string
	Baseline bool
}

// StandardCharts are rendered on every reducer run
var StandardCharts = []Chart{
	{Metric: ColumnUsageRate, File: "heroes_pick_distribution.png"},
	{Metric: ColumnBanRate, File: "heroes_ban_distribution.png"},
	{Metric: ColumnWinRate, File: "heroes_winrate_distribution.png", Baseline: true},
}

// RenderBarChart plots metric per hero, sorted descending, and saves it to
// path. The image format follows the file extension. With withBaseline a red
// horizontal line is drawn at 0.5.
func RenderBarChart(rows []stats.HeroStatsRow, metric, path string, withBaseline bool) error {
	if len(rows) == 0 {
		return fmt.Errorf("no rows to plot")
	}
	if _, ok := MetricValue(stats.HeroStatsRow{}, metric); !ok {
		return fmt.Errorf("cannot plot column %q", metric)
	}

	sorted, err := SortRows(rows, metric, true)
	if err != nil {
		return err
	}

	values := make(plotter.Values, len(sorted))
	names := make([]string, len(sorted))
	for i, r := range sorted {
		values[i], _ = MetricValue(r, metric)
		names[i] = r.HeroName
	}

	p := plot.New()
	p.Y.Label.Text = metric
	p.Legend.Top = true

	bars, err := plotter.NewBarChart(values, vg.Points(8))
	if err != nil {
		return fmt.Errorf("failed to build bar chart: %w", err)
	}
	bars.Color = barColor
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.Legend.Add(metric, bars)

	if withBaseline {
		line, err := plotter.NewLine(plotter.XYs{
			{X: -0.5, Y: baseline},
			{X: float64(len(sorted)) - 0.5, Y: baseline},
		})
		if err != nil {
			return fmt.Errorf("failed to build baseline: %w", err)
		}
		line.Color = baselineColor
		line.Width = vg.Points(1)
		p.Add(line)
	}

	p.NominalX(names...)
	p.X.Tick.Label.Rotation = math.Pi / 2
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create chart directory: %w", err)
	}
	if err := p.Save(chartWidth, chartHeight, path); err != nil {
		return fmt.Errorf("failed to save chart: %w", err)
	}
	return nil
}

// RenderCharts renders the standard chart set into dir and returns the written paths
func RenderCharts(dir string, rows []stats.HeroStatsRow) ([]string, error) {
	paths := make([]string, 0, len(StandardCharts))
	for _, c := range StandardCharts {
		path := filepath.Join(dir, c.File)
		if err := RenderBarChart(rows, c.Metric, path, c.Baseline); err != nil {
			return paths, fmt.Errorf("%s: %w", c.Metric, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
