// Package render assembles patch collections into figures and writes them
// out as images or interactive HTML.
package render

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"path/filepath"
	"strings"

	"github.com/banshee-data/dtplot/internal/fsutil"
	"github.com/banshee-data/dtplot/internal/patches"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ErrUnsupportedFormat is returned for output files whose extension is
// not png, svg or pdf.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// Formats lists the accepted output extensions.
var Formats = []string{"png", "svg", "pdf"}

// Limits fix the plotted data range.
type Limits struct {
	XMin, XMax float64
	YMin, YMax float64
}

// Figure is one plot of DT collections.
type Figure struct {
	Title  string
	XLabel string
	YLabel string
	// Limits overrides the data range when set.
	Limits *Limits
	// EqualAspect sizes the figure so one unit spans the same length on
	// both axes.
	EqualAspect bool

	plotters []plot.Plotter
	labels   []legendEntry
}

type legendEntry struct {
	label string
	thumb plot.Thumbnailer
}

// NewFigure returns an empty figure.
func NewFigure(title, xLabel, yLabel string) *Figure {
	return &Figure{Title: title, XLabel: xLabel, YLabel: yLabel, EqualAspect: true}
}

// Add appends plotters, drawn in order.
func (f *Figure) Add(ps ...plot.Plotter) {
	f.plotters = append(f.plotters, ps...)
}

// AddStation adds the bounds and cells of a station patch.
func (f *Figure) AddStation(sp *patches.StationPatch) {
	for _, c := range sp.Collections() {
		f.Add(c)
	}
}

// AddLegend labels a plotter in the legend.
func (f *Figure) AddLegend(label string, t plot.Thumbnailer) {
	f.labels = append(f.labels, legendEntry{label: label, thumb: t})
}

// DataRange is the union of the ranges of every plotter, or Limits when
// set.
func (f *Figure) DataRange() Limits {
	if f.Limits != nil {
		return *f.Limits
	}
	l := Limits{XMin: math.Inf(1), XMax: math.Inf(-1), YMin: math.Inf(1), YMax: math.Inf(-1)}
	for _, p := range f.plotters {
		dr, ok := p.(plot.DataRanger)
		if !ok {
			continue
		}
		xmin, xmax, ymin, ymax := dr.DataRange()
		l.XMin, l.XMax = math.Min(l.XMin, xmin), math.Max(l.XMax, xmax)
		l.YMin, l.YMax = math.Min(l.YMin, ymin), math.Max(l.YMax, ymax)
	}
	if math.IsInf(l.XMin, 1) {
		return Limits{}
	}
	return l
}

// Plot builds the gonum plot.
func (f *Figure) Plot() *plot.Plot {
	p := plot.New()
	p.Title.Text = f.Title
	p.X.Label.Text = f.XLabel
	p.Y.Label.Text = f.YLabel
	p.Add(f.plotters...)
	for _, e := range f.labels {
		p.Legend.Add(e.label, e.thumb)
	}
	p.Legend.Top = true

	if f.Limits != nil {
		p.X.Min, p.X.Max = f.Limits.XMin, f.Limits.XMax
		p.Y.Min, p.Y.Max = f.Limits.YMin, f.Limits.YMax
	}
	return p
}

// Size returns the canvas size for a figure width. With EqualAspect the
// height follows the data range, kept within [width/4, 4*width].
func (f *Figure) Size(width vg.Length) (vg.Length, vg.Length) {
	if !f.EqualAspect {
		return width, width * 3 / 4
	}
	l := f.DataRange()
	dx, dy := l.XMax-l.XMin, l.YMax-l.YMin
	if dx <= 0 || dy <= 0 {
		return width, width
	}
	ratio := math.Min(math.Max(dy/dx, 0.25), 4)
	return width, vg.Length(float64(width) * ratio)
}

// Format returns the output format for path from its extension.
func Format(path string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	for _, f := range Formats {
		if ext == f {
			return ext, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
}

// Save writes the figure to path on fsys. The format follows the file
// extension.
func (f *Figure) Save(fsys fsutil.FileSystem, path string, width vg.Length) error {
	format, err := Format(path)
	if err != nil {
		return err
	}
	w, h := f.Size(width)
	wt, err := f.Plot().WriterTo(w, h, format)
	if err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	return fsutil.WriteTo(fsys, path, wt)
}

// SaveColorBar writes a vertical color bar for cm over norm to path.
func SaveColorBar(fsys fsutil.FileSystem, path, label string, cm palette.ColorMap, norm patches.Norm) error {
	format, err := Format(path)
	if err != nil {
		return err
	}
	if norm.Max <= norm.Min {
		return fmt.Errorf("color bar range [%g, %g] is empty", norm.Min, norm.Max)
	}
	cb := &plotter.ColorBar{ColorMap: rescaled{ColorMap: cm, min: norm.Min, max: norm.Max}, Vertical: true}
	p := plot.New()
	p.HideX()
	p.Y.Label.Text = label
	p.Add(cb)
	wt, err := p.WriterTo(vg.Inch, 4*vg.Inch, format)
	if err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	return fsutil.WriteTo(fsys, path, wt)
}

// rescaled presents cm over [min, max] without changing the shared map.
type rescaled struct {
	palette.ColorMap
	min, max float64
}

func (r rescaled) Min() float64 { return r.min }
func (r rescaled) Max() float64 { return r.max }

func (r rescaled) At(v float64) (color.Color, error) {
	lo, hi := r.ColorMap.Min(), r.ColorMap.Max()
	t := (v - r.min) / (r.max - r.min)
	return r.ColorMap.At(math.Min(math.Max(lo+t*(hi-lo), lo), hi))
}
