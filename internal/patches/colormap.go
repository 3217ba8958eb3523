package patches

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"sort"

	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
)

// ErrUnknownColorMap is returned by ColorMapByName for unsupported names.
var ErrUnknownColorMap = errors.New("unknown color map")

// viridisStops sample the viridis map at ten evenly spaced points.
var viridisStops = []string{
	"#440154", "#482777", "#3e4989", "#31688e", "#26828e",
	"#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725",
}

// Gradient is a palette.ColorMap interpolating linearly in RGB between
// evenly spaced color stops.
type Gradient struct {
	stops    []color.NRGBA
	min, max float64
	alpha    float64
}

// NewGradient builds a gradient over [0, 1] from at least two stops.
func NewGradient(stops ...color.Color) (*Gradient, error) {
	if len(stops) < 2 {
		return nil, fmt.Errorf("gradient needs at least 2 stops, got %d", len(stops))
	}
	g := &Gradient{min: 0, max: 1, alpha: 1}
	for _, c := range stops {
		g.stops = append(g.stops, color.NRGBAModel.Convert(c).(color.NRGBA))
	}
	return g, nil
}

// Viridis returns the perceptually uniform viridis gradient.
func Viridis() *Gradient {
	stops := make([]color.Color, len(viridisStops))
	for i, s := range viridisStops {
		c, err := ParseColor(s)
		if err != nil {
			panic(err)
		}
		stops[i] = c
	}
	g, _ := NewGradient(stops...)
	return g
}

// At implements palette.ColorMap.
func (g *Gradient) At(v float64) (color.Color, error) {
	switch {
	case g.max <= g.min:
		return nil, fmt.Errorf("gradient max (%g) <= min (%g)", g.max, g.min)
	case math.IsNaN(v):
		return nil, palette.ErrNaN
	case v < g.min:
		return nil, palette.ErrUnderflow
	case v > g.max:
		return nil, palette.ErrOverflow
	}
	pos := (v - g.min) / (g.max - g.min) * float64(len(g.stops)-1)
	i := int(pos)
	if i >= len(g.stops)-1 {
		i = len(g.stops) - 2
	}
	frac := pos - float64(i)
	a, b := g.stops[i], g.stops[i+1]
	lerp := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + frac*(float64(y)-float64(x))))
	}
	return color.NRGBA{
		R: lerp(a.R, b.R),
		G: lerp(a.G, b.G),
		B: lerp(a.B, b.B),
		A: uint8(math.Round(g.alpha * float64(lerp(a.A, b.A)))),
	}, nil
}

// Max implements palette.ColorMap.
func (g *Gradient) Max() float64 { return g.max }

// SetMax implements palette.ColorMap.
func (g *Gradient) SetMax(v float64) { g.max = v }

// Min implements palette.ColorMap.
func (g *Gradient) Min() float64 { return g.min }

// SetMin implements palette.ColorMap.
func (g *Gradient) SetMin(v float64) { g.min = v }

// Alpha implements palette.ColorMap.
func (g *Gradient) Alpha() float64 { return g.alpha }

// SetAlpha implements palette.ColorMap. It panics outside [0, 1].
func (g *Gradient) SetAlpha(a float64) {
	if a < 0 || a > 1 {
		panic(fmt.Sprintf("gradient: invalid alpha %g", a))
	}
	g.alpha = a
}

// Palette implements palette.ColorMap.
func (g *Gradient) Palette(n int) palette.Palette {
	colors := make([]color.Color, n)
	for i := range colors {
		v := g.min
		if n > 1 {
			v += float64(i) / float64(n-1) * (g.max - g.min)
		}
		colors[i], _ = g.At(math.Min(v, g.max))
	}
	return plte(colors)
}

type plte []color.Color

func (p plte) Colors() []color.Color { return p }

var colorMaps = map[string]func() palette.ColorMap{
	"viridis":   func() palette.ColorMap { return Viridis() },
	"blackbody": moreland.BlackBody,
	"kindlmann": moreland.Kindlmann,
	"bluered":   func() palette.ColorMap { return moreland.SmoothBlueRed() },
	"heat": func() palette.ColorMap {
		g, _ := NewGradient(palette.Heat(64, 1).Colors()...)
		return g
	},
}

// ColorMapNames lists the names accepted by ColorMapByName.
func ColorMapNames() []string {
	names := make([]string, 0, len(colorMaps))
	for k := range colorMaps {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// ColorMapByName returns a fresh color map spanning [0, 1].
func ColorMapByName(name string) (palette.ColorMap, error) {
	fn, ok := colorMaps[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColorMap, name)
	}
	cm := fn()
	cm.SetMax(1)
	cm.SetMin(0)
	return cm, nil
}
