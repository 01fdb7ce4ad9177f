// Package chart renders the visual parts of a file report: the numeric
// series line chart as PNG and the colour scale of the correlation heatmap.
package chart

import (
	"errors"
	"fmt"
	"io"
	"math"

	gochart "github.com/wcharczuk/go-chart/v2"

	"github.com/JonMunkholm/sweeper/internal/table"
)

// ErrNoData is returned when no series has a single plottable point.
var ErrNoData = errors.New("no numeric data to chart")

// Default canvas size in pixels.
const (
	DefaultWidth  = 960
	DefaultHeight = 420
)

// Options controls the rendered image.
type Options struct {
	Title  string
	Width  int
	Height int
}

// RenderSeries draws one line per series against the row index and writes
// a PNG to w. Missing values are skipped, leaving the line to bridge them.
func RenderSeries(w io.Writer, series []table.Series, opts Options) error {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}

	var plotted []gochart.Series
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, s := range series {
		xs, ys := points(s.Values)
		if len(xs) == 0 {
			continue
		}
		// A single point has a zero-width x range, which go-chart rejects.
		if len(xs) == 1 {
			xs = append(xs, xs[0]+1)
			ys = append(ys, ys[0])
		}
		for _, y := range ys {
			lo, hi = math.Min(lo, y), math.Max(hi, y)
		}
		color := gochart.GetDefaultColor(i)
		plotted = append(plotted, gochart.ContinuousSeries{
			Name:    s.Name,
			XValues: xs,
			YValues: ys,
			Style: gochart.Style{
				StrokeColor: color,
				StrokeWidth: 2,
				DotColor:    color,
				DotWidth:    2.5,
			},
		})
	}
	if len(plotted) == 0 {
		return ErrNoData
	}

	yAxis := gochart.YAxis{}
	if lo == hi {
		yAxis.Range = &gochart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}

	ch := gochart.Chart{
		Title:      opts.Title,
		Width:      opts.Width,
		Height:     opts.Height,
		Background: gochart.Style{Padding: gochart.Box{Top: 24, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      gochart.XAxis{Name: "row"},
		YAxis:      yAxis,
		Series:     plotted,
	}
	ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}

	if err := ch.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

func points(vals []float64) (xs, ys []float64) {
	for i, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		xs = append(xs, float64(i))
		ys = append(ys, v)
	}
	return xs, ys
}
