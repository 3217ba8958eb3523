package patches

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Style describes how a collection is drawn. Nil colors are not drawn.
type Style struct {
	Fill      color.Color
	Edge      color.Color
	LineWidth vg.Length
	Dashes    []vg.Length

	// ColorMap fills patches (or strokes lines) from their values.
	ColorMap palette.ColorMap
	// Norm maps values onto the color map. Nil autoscales to the values.
	Norm *Norm
	// Over is used for values above Norm.Max; nil clamps to the top color.
	Over color.Color
}

// IsZero reports whether no field of s is set.
func (s Style) IsZero() bool {
	return s.Fill == nil && s.Edge == nil && s.LineWidth == 0 && len(s.Dashes) == 0 &&
		s.ColorMap == nil && s.Norm == nil && s.Over == nil
}

// Merge returns s with every field set in o overriding it.
func (s Style) Merge(o Style) Style {
	if o.Fill != nil {
		s.Fill = o.Fill
	}
	if o.Edge != nil {
		s.Edge = o.Edge
	}
	if o.LineWidth != 0 {
		s.LineWidth = o.LineWidth
	}
	if len(o.Dashes) > 0 {
		s.Dashes = o.Dashes
	}
	if o.ColorMap != nil {
		s.ColorMap = o.ColorMap
	}
	if o.Norm != nil {
		s.Norm = o.Norm
	}
	if o.Over != nil {
		s.Over = o.Over
	}
	return s
}

func (s Style) lineStyle(c color.Color) draw.LineStyle {
	w := s.LineWidth
	if w == 0 {
		w = vg.Points(0.5)
	}
	return draw.LineStyle{Color: c, Width: w, Dashes: s.Dashes}
}

// DefaultPatchStyle outlines patches in black without filling them.
func DefaultPatchStyle() Style {
	return Style{Edge: color.Black, LineWidth: vg.Points(0.5)}
}

// DefaultLineStyle draws thin black lines.
func DefaultLineStyle() Style {
	return Style{Edge: color.Black, LineWidth: vg.Points(0.8)}
}

// Norm linearly maps [Min, Max] onto the color map. Values below Min are
// left unfilled; values above Max clamp to the top color unless the style
// sets Over and Clip is false.
type Norm struct {
	Min  float64
	Max  float64
	Clip bool
}

// AutoNorm spans the finite values. A constant or empty input yields a
// unit wide range.
func AutoNorm(values []float64) Norm {
	n := Norm{Min: math.Inf(1), Max: math.Inf(-1)}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		n.Min = math.Min(n.Min, v)
		n.Max = math.Max(n.Max, v)
	}
	if math.IsInf(n.Min, 1) {
		return Norm{Min: 0, Max: 1}
	}
	if n.Max == n.Min {
		n.Max = n.Min + 1
	}
	return n
}

// Scale returns the position of v in [0, 1] and false when v is NaN or
// below Min. Values above Max return 1.
func (n Norm) Scale(v float64) (float64, bool) {
	if math.IsNaN(v) || v < n.Min {
		return 0, false
	}
	if n.Max <= n.Min || v >= n.Max {
		return 1, true
	}
	return (v - n.Min) / (n.Max - n.Min), true
}

// colorFor resolves the color of value v under norm n. Nil means the patch
// is not filled.
func (s Style) colorFor(v float64, n Norm) color.Color {
	if s.ColorMap == nil {
		return s.Fill
	}
	t, ok := n.Scale(v)
	if !ok {
		return nil
	}
	if v > n.Max && s.Over != nil && !n.Clip {
		return s.Over
	}
	lo, hi := s.ColorMap.Min(), s.ColorMap.Max()
	x := math.Min(math.Max(lo+t*(hi-lo), lo), hi)
	c, err := s.ColorMap.At(x)
	if err != nil {
		return nil
	}
	return c
}

var namedColors = map[string]color.Color{
	"k":     color.Black,
	"black": color.Black,
	"w":     color.White,
	"white": color.White,
	"r":     color.NRGBA{R: 255, A: 255},
	"red":   color.NRGBA{R: 255, A: 255},
	"g":     color.NRGBA{G: 128, A: 255},
	"green": color.NRGBA{G: 128, A: 255},
	"b":     color.NRGBA{B: 255, A: 255},
	"blue":  color.NRGBA{B: 255, A: 255},
	"gray":  color.NRGBA{R: 128, G: 128, B: 128, A: 255},
	"grey":  color.NRGBA{R: 128, G: 128, B: 128, A: 255},
}

// ParseColor reads "#rrggbb", "#rrggbbaa" or a basic color name. "none"
// and the empty string give a nil color.
func ParseColor(s string) (color.Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "none" {
		return nil, nil
	}
	if c, ok := namedColors[s]; ok {
		return c, nil
	}
	hex, ok := strings.CutPrefix(s, "#")
	if !ok || (len(hex) != 6 && len(hex) != 8) {
		return nil, fmt.Errorf("invalid color %q", s)
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
