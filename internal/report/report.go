// Package report writes a self-contained HTML summary of a cross-match run:
// where the matched galaxies sit on the sky, how their separations are
// distributed, and how many figures were drawn.
package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Bins is the number of separation histogram bins.
const Bins = 10

// Point is one matched galaxy.
type Point struct {
	Name             string
	RA               float64
	Dec              float64
	SeparationArcsec float64
}

// Summary is everything the report shows.
type Summary struct {
	RunID             string
	CatalogueRows     int
	Detections        int
	MatchRadiusArcsec float64
	Matches           []Point
	Rendered          int
	Skipped           int
}

// Histogram bins separations into Bins equal bins over [0, upper), where
// upper is the match radius or, if larger, just above the widest
// separation. It returns the bin lower edges and counts.
func Histogram(seps []float64, radius float64) (edges, counts []float64) {
	upper := radius
	if len(seps) > 0 {
		upper = math.Max(upper, floats.Max(seps))
	}
	if upper <= 0 {
		upper = 1
	}
	upper = math.Nextafter(upper, math.Inf(1))

	dividers := floats.Span(make([]float64, Bins+1), 0, upper)
	x := append([]float64(nil), seps...)
	sort.Float64s(x)
	counts = stat.Histogram(nil, dividers, x, nil)
	return dividers[:Bins], counts
}

// Write renders the summary page to w.
func Write(w io.Writer, s Summary) error {
	page := components.NewPage()
	page.SetPageTitle("Radio/optical cross-match")
	page.AddCharts(skyChart(s), separationChart(s), outcomeChart(s))
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

// Save writes the summary page to path.
func Save(path string, s Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := Write(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func skyChart(s Summary) *charts.Scatter {
	data := make([]opts.ScatterData, 0, len(s.Matches))
	for _, m := range s.Matches {
		data = append(data, opts.ScatterData{
			Name:  m.Name,
			Value: []interface{}{m.RA, m.Dec, m.SeparationArcsec},
		})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Matched galaxies",
			Subtitle: fmt.Sprintf("run=%s matched=%d of %d catalogue rows, %d radio detections", s.RunID, len(s.Matches), s.CatalogueRows, s.Detections),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "RA (deg)", NameLocation: "middle", NameGap: 25, Scale: opts.Bool(true), Inverse: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Dec (deg)", NameLocation: "middle", NameGap: 40, Scale: opts.Bool(true)}),
	)
	scatter.AddSeries("matches", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))
	return scatter
}

func separationChart(s Summary) *charts.Bar {
	seps := make([]float64, len(s.Matches))
	for i, m := range s.Matches {
		seps[i] = m.SeparationArcsec
	}
	edges, counts := Histogram(seps, s.MatchRadiusArcsec)

	x := make([]string, len(edges))
	y := make([]opts.BarData, len(counts))
	for i := range edges {
		x[i] = fmt.Sprintf("%.2f", edges[i])
		y[i] = opts.BarData{Value: counts[i]}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: "Separation", Subtitle: fmt.Sprintf("match radius %.2f arcsec", s.MatchRadiusArcsec)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "arcsec", NameLocation: "middle", NameGap: 25}),
	)
	bar.SetXAxis(x).AddSeries("galaxies", y)
	return bar
}

func outcomeChart(s Summary) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "300px"}),
		charts.WithTitleOpts(opts.Title{Title: "Figures"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis([]string{"rendered", "skipped"}).
		AddSeries("figures", []opts.BarData{{Value: s.Rendered}, {Value: s.Skipped}},
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)
	return bar
}
