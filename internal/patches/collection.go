// Package patches turns DT geometry into drawable polygons and lines that
// plug into gonum/plot.
package patches

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/banshee-data/dtplot/internal/transform"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// ErrValuesLength is returned when a value slice does not match the
// number of patches.
var ErrValuesLength = errors.New("values do not match patches")

// Rect is an axis-aligned rectangle given by its lower-left corner.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// Patch returns the rectangle as a counter-clockwise polygon.
func (r Rect) Patch() Patch {
	return Patch{
		{X: r.X, Y: r.Y},
		{X: r.X + r.Width, Y: r.Y},
		{X: r.X + r.Width, Y: r.Y + r.Height},
		{X: r.X, Y: r.Y + r.Height},
	}
}

// Patch is a closed polygon in data coordinates.
type Patch []r2.Vec

// Transform returns the patch mapped by t.
func (p Patch) Transform(t transform.Affine2) Patch {
	out := make(Patch, len(p))
	for i, v := range p {
		out[i] = t.Apply(v)
	}
	return out
}

// Bounds returns the lower-left and upper-right corners enclosing p.
func (p Patch) Bounds() (lo, hi r2.Vec) {
	if len(p) == 0 {
		return r2.Vec{}, r2.Vec{}
	}
	lo, hi = p[0], p[0]
	for _, v := range p[1:] {
		lo = r2.Vec{X: math.Min(lo.X, v.X), Y: math.Min(lo.Y, v.Y)}
		hi = r2.Vec{X: math.Max(hi.X, v.X), Y: math.Max(hi.Y, v.Y)}
	}
	return lo, hi
}

// Center is the mean of the patch vertices.
func (p Patch) Center() r2.Vec {
	var c r2.Vec
	for _, v := range p {
		c = r2.Add(c, v)
	}
	if len(p) == 0 {
		return c
	}
	return r2.Scale(1/float64(len(p)), c)
}

// Contains reports whether pt lies inside the polygon.
func (p Patch) Contains(pt r2.Vec) bool {
	in := false
	for i, j := 0, len(p)-1; i < len(p); j, i = i, i+1 {
		a, b := p[i], p[j]
		if (a.Y > pt.Y) != (b.Y > pt.Y) &&
			pt.X < (b.X-a.X)*(pt.Y-a.Y)/(b.Y-a.Y)+a.X {
			in = !in
		}
	}
	return in
}

func (p Patch) points(trX, trY func(float64) vg.Length, closed bool) []vg.Point {
	pts := make([]vg.Point, 0, len(p)+1)
	for _, v := range p {
		pts = append(pts, vg.Point{X: trX(v.X), Y: trY(v.Y)})
	}
	if closed && len(p) > 0 {
		pts = append(pts, pts[0])
	}
	return pts
}

// Collection is a set of patches drawn with one style. When Values is set
// and the style has a color map, each patch is filled from its value.
type Collection struct {
	Patches []Patch
	Values  []float64
	Style   Style
}

// NewCollection returns an empty collection drawn with style.
func NewCollection(style Style) *Collection {
	return &Collection{Style: style}
}

// Len returns the number of patches.
func (c *Collection) Len() int {
	return len(c.Patches)
}

// Add appends a patch.
func (c *Collection) Add(p Patch) {
	c.Patches = append(c.Patches, p)
}

// SetValues sets the per-patch values used for color mapping.
func (c *Collection) SetValues(values []float64) error {
	if values != nil && len(values) != len(c.Patches) {
		return fmt.Errorf("%w: %d values for %d patches", ErrValuesLength, len(values), len(c.Patches))
	}
	c.Values = values
	return nil
}

// Norm returns the style norm, or one spanning the values.
func (c *Collection) Norm() Norm {
	if c.Style.Norm != nil {
		return *c.Style.Norm
	}
	return AutoNorm(c.Values)
}

// FillColors resolves the fill color of every patch; nil entries are not
// filled.
func (c *Collection) FillColors() []color.Color {
	out := make([]color.Color, len(c.Patches))
	if c.Style.ColorMap == nil || len(c.Values) != len(c.Patches) {
		for i := range out {
			out[i] = c.Style.Fill
		}
		return out
	}
	n := c.Norm()
	for i, v := range c.Values {
		out[i] = c.Style.colorFor(v, n)
	}
	return out
}

// Transform returns a copy of the collection with every patch mapped by t.
func (c *Collection) Transform(t transform.Affine2) *Collection {
	out := &Collection{Values: c.Values, Style: c.Style}
	out.Patches = make([]Patch, len(c.Patches))
	for i, p := range c.Patches {
		out.Patches[i] = p.Transform(t)
	}
	return out
}

// Pick returns the index of the last patch containing pt, or -1.
func (c *Collection) Pick(pt r2.Vec) int {
	for i := len(c.Patches) - 1; i >= 0; i-- {
		if c.Patches[i].Contains(pt) {
			return i
		}
	}
	return -1
}

// Plot implements plot.Plotter.
func (c *Collection) Plot(cv draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&cv)
	fills := c.FillColors()
	for i, p := range c.Patches {
		if fills[i] != nil {
			cv.FillPolygon(fills[i], cv.ClipPolygonXY(p.points(trX, trY, false)))
		}
		if c.Style.Edge != nil {
			cv.StrokeLines(c.Style.lineStyle(c.Style.Edge), cv.ClipLinesXY(p.points(trX, trY, true))...)
		}
	}
}

// DataRange implements plot.DataRanger. An empty collection reports
// (+Inf, -Inf, +Inf, -Inf) and leaves the plot axes untouched.
func (c *Collection) DataRange() (xmin, xmax, ymin, ymax float64) {
	return dataRange(c.Patches)
}

// Thumbnail implements plot.Thumbnailer.
func (c *Collection) Thumbnail(cv *draw.Canvas) {
	pts := []vg.Point{
		{X: cv.Min.X, Y: cv.Min.Y},
		{X: cv.Min.X, Y: cv.Max.Y},
		{X: cv.Max.X, Y: cv.Max.Y},
		{X: cv.Max.X, Y: cv.Min.Y},
	}
	if c.Style.Fill != nil {
		cv.FillPolygon(c.Style.Fill, cv.ClipPolygonY(pts))
	}
	if c.Style.Edge != nil {
		cv.StrokeLines(c.Style.lineStyle(c.Style.Edge), cv.ClipLinesY(append(pts, pts[0]))...)
	}
}

func dataRange(ps []Patch) (xmin, xmax, ymin, ymax float64) {
	xmin, ymin = math.Inf(1), math.Inf(1)
	xmax, ymax = math.Inf(-1), math.Inf(-1)
	for _, p := range ps {
		lo, hi := p.Bounds()
		if len(p) == 0 {
			continue
		}
		xmin, xmax = math.Min(xmin, lo.X), math.Max(xmax, hi.X)
		ymin, ymax = math.Min(ymin, lo.Y), math.Max(ymax, hi.Y)
	}
	return xmin, xmax, ymin, ymax
}

var (
	_ plot.Plotter     = (*Collection)(nil)
	_ plot.DataRanger  = (*Collection)(nil)
	_ plot.Thumbnailer = (*Collection)(nil)
)
