package patches

import (
	"image/color"

	"github.com/banshee-data/dtplot/internal/transform"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg/draw"
)

// LineCollection is a set of open polylines drawn with one style. When
// Values is set and the style has a color map, each line is stroked with
// the color of its value.
type LineCollection struct {
	Lines  []Patch
	Values []float64
	Style  Style
}

// NewLineCollection returns an empty collection drawn with style.
func NewLineCollection(style Style) *LineCollection {
	return &LineCollection{Style: style}
}

// Len returns the number of lines.
func (c *LineCollection) Len() int {
	return len(c.Lines)
}

// Add appends a line.
func (c *LineCollection) Add(l Patch) {
	c.Lines = append(c.Lines, l)
}

// Norm returns the style norm, or one spanning the values.
func (c *LineCollection) Norm() Norm {
	if c.Style.Norm != nil {
		return *c.Style.Norm
	}
	return AutoNorm(c.Values)
}

// StrokeColors resolves the color of every line; nil entries are skipped.
func (c *LineCollection) StrokeColors() []color.Color {
	out := make([]color.Color, len(c.Lines))
	if c.Style.ColorMap == nil || len(c.Values) != len(c.Lines) {
		for i := range out {
			out[i] = c.Style.Edge
		}
		return out
	}
	n := c.Norm()
	for i, v := range c.Values {
		out[i] = c.Style.colorFor(v, n)
	}
	return out
}

// Transform returns a copy of the collection with every line mapped by t.
func (c *LineCollection) Transform(t transform.Affine2) *LineCollection {
	out := &LineCollection{Values: c.Values, Style: c.Style}
	out.Lines = make([]Patch, len(c.Lines))
	for i, l := range c.Lines {
		out.Lines[i] = l.Transform(t)
	}
	return out
}

// Plot implements plot.Plotter.
func (c *LineCollection) Plot(cv draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&cv)
	for i, clr := range c.StrokeColors() {
		if clr == nil {
			continue
		}
		cv.StrokeLines(c.Style.lineStyle(clr), cv.ClipLinesXY(c.Lines[i].points(trX, trY, false))...)
	}
}

// DataRange implements plot.DataRanger, with the empty range of
// Collection.DataRange when there are no lines.
func (c *LineCollection) DataRange() (xmin, xmax, ymin, ymax float64) {
	return dataRange(c.Lines)
}

// Thumbnail implements plot.Thumbnailer with a horizontal line in the
// edge color.
func (c *LineCollection) Thumbnail(cv *draw.Canvas) {
	if c.Style.Edge == nil {
		return
	}
	y := cv.Center().Y
	cv.StrokeLine2(c.Style.lineStyle(c.Style.Edge), cv.Min.X, y, cv.Max.X, y)
}

var (
	_ plot.Plotter     = (*LineCollection)(nil)
	_ plot.DataRanger  = (*LineCollection)(nil)
	_ plot.Thumbnailer = (*LineCollection)(nil)
)
