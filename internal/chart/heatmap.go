package chart

import (
	"fmt"
	"math"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Diverging blue-white-red scale anchored at -1, 0 and 1.
var (
	coolEnd  = drawing.Color{R: 59, G: 76, B: 192, A: 255}
	midPoint = drawing.Color{R: 221, G: 221, B: 221, A: 255}
	warmEnd  = drawing.Color{R: 180, G: 4, B: 38, A: 255}
	noValue  = drawing.Color{R: 245, G: 245, B: 245, A: 255}
)

// HeatColor maps a correlation in [-1, 1] onto the diverging scale. Values
// outside the range are clamped; NaN gets a neutral background.
func HeatColor(v float64) drawing.Color {
	if math.IsNaN(v) {
		return noValue
	}
	v = math.Max(-1, math.Min(1, v))
	if v < 0 {
		return lerp(midPoint, coolEnd, -v)
	}
	return lerp(midPoint, warmEnd, v)
}

// Hex renders c as #rrggbb for use in CSS.
func Hex(c drawing.Color) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// TextColor picks black or white text for legibility on background c.
func TextColor(c drawing.Color) string {
	// Rec. 601 luma.
	luma := 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
	if luma < 140 {
		return "#ffffff"
	}
	return "#000000"
}

// FormatCorrelation renders a matrix cell the way the heatmap annotates it.
func FormatCorrelation(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return fmt.Sprintf("%.2f", v)
}

func lerp(a, b drawing.Color, t float64) drawing.Color {
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return drawing.Color{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
}
