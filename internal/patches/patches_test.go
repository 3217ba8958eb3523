package patches

import (
	"bytes"
	"image/color"
	"math"
	"testing"

	"github.com/banshee-data/dtplot/internal/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/vg"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.Color
		wantErr bool
	}{
		{"#ff8000", color.NRGBA{R: 255, G: 128, A: 255}, false},
		{"#FF800080", color.NRGBA{R: 255, G: 128, A: 128}, false},
		{"k", color.Black, false},
		{" none ", nil, false},
		{"", nil, false},
		{"#12345", nil, true},
		{"#gg0000", nil, true},
		{"chartreuse", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStyle_Merge(t *testing.T) {
	assert.True(t, Style{}.IsZero())
	assert.False(t, DefaultPatchStyle().IsZero())

	base := DefaultPatchStyle()
	merged := base.Merge(Style{Fill: color.White, LineWidth: vg.Points(2)})
	assert.Equal(t, color.Black, merged.Edge)
	assert.Equal(t, color.White, merged.Fill)
	assert.Equal(t, vg.Points(2), merged.LineWidth)
	assert.Equal(t, base, base.Merge(Style{}))
}

func TestNorm(t *testing.T) {
	n := Norm{Min: 100, Max: 300}

	v, ok := n.Scale(200)
	assert.True(t, ok)
	assert.InDelta(t, 0.5, v, 1e-12)

	_, ok = n.Scale(99)
	assert.False(t, ok, "values below min are not filled")
	_, ok = n.Scale(math.NaN())
	assert.False(t, ok)

	v, ok = n.Scale(1000)
	assert.True(t, ok)
	assert.Equal(t, 1.0, v)

	assert.Equal(t, Norm{Min: -1, Max: 4}, AutoNorm([]float64{3, -1, math.NaN(), 4, math.Inf(1)}))
	assert.Equal(t, Norm{Min: 2, Max: 3}, AutoNorm([]float64{2, 2}))
	assert.Equal(t, Norm{Min: 0, Max: 1}, AutoNorm(nil))
}

func TestStyle_ColorFor(t *testing.T) {
	cm, err := ColorMapByName("viridis")
	require.NoError(t, err)
	over := color.NRGBA{R: 255, A: 255}
	s := Style{ColorMap: cm, Over: over}
	n := Norm{Min: 0, Max: 10}

	assert.Nil(t, s.colorFor(-1, n))
	assert.Nil(t, s.colorFor(math.NaN(), n))
	assert.Equal(t, color.NRGBA{R: 0x44, G: 0x01, B: 0x54, A: 255}, s.colorFor(0, n))
	assert.Equal(t, color.NRGBA{R: 0xfd, G: 0xe7, B: 0x25, A: 255}, s.colorFor(10, n))
	assert.Equal(t, over, s.colorFor(11, n))

	n.Clip = true
	assert.Equal(t, color.NRGBA{R: 0xfd, G: 0xe7, B: 0x25, A: 255}, s.colorFor(11, n))

	plain := Style{Fill: color.White}
	assert.Equal(t, color.White, plain.colorFor(-5, n))
}

func TestGradient(t *testing.T) {
	g, err := NewGradient(color.Black, color.White)
	require.NoError(t, err)

	c, err := g.At(0.5)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 128, G: 128, B: 128, A: 255}, c)

	_, err = g.At(-0.1)
	assert.ErrorIs(t, err, palette.ErrUnderflow)
	_, err = g.At(1.1)
	assert.ErrorIs(t, err, palette.ErrOverflow)
	_, err = g.At(math.NaN())
	assert.ErrorIs(t, err, palette.ErrNaN)

	g.SetAlpha(0.5)
	c, _ = g.At(1)
	assert.Equal(t, uint8(128), c.(color.NRGBA).A)
	assert.Panics(t, func() { g.SetAlpha(2) })

	assert.Len(t, g.Palette(5).Colors(), 5)

	_, err = NewGradient(color.Black)
	assert.Error(t, err)
}

func TestColorMapByName(t *testing.T) {
	for _, name := range ColorMapNames() {
		t.Run(name, func(t *testing.T) {
			cm, err := ColorMapByName(name)
			require.NoError(t, err)
			for _, v := range []float64{0, 0.25, 0.5, 1} {
				_, err := cm.At(v)
				assert.NoError(t, err, "value %g", v)
			}
		})
	}
	assert.Equal(t, []string{"blackbody", "bluered", "heat", "kindlmann", "viridis"}, ColorMapNames())

	_, err := ColorMapByName("jet")
	assert.ErrorIs(t, err, ErrUnknownColorMap)
}

func TestPatch(t *testing.T) {
	p := Rect{X: -1, Y: -2, Width: 4, Height: 2}.Patch()
	lo, hi := p.Bounds()
	assert.Equal(t, r2.Vec{X: -1, Y: -2}, lo)
	assert.Equal(t, r2.Vec{X: 3, Y: 0}, hi)
	assert.Equal(t, r2.Vec{X: 1, Y: -1}, p.Center())

	assert.True(t, p.Contains(r2.Vec{X: 0, Y: -1}))
	assert.False(t, p.Contains(r2.Vec{X: 4, Y: -1}))

	moved := p.Transform(transform.Identity2().Translate(1, 2))
	assert.Equal(t, r2.Vec{X: 2, Y: 1}, moved.Center())
	assert.Equal(t, r2.Vec{X: 1, Y: -1}, p.Center(), "transform must not modify the source")
}

func TestCollection(t *testing.T) {
	c := NewCollection(DefaultPatchStyle())
	c.Add(Rect{X: 0, Y: 0, Width: 1, Height: 1}.Patch())
	c.Add(Rect{X: 2, Y: -3, Width: 1, Height: 1}.Patch())
	assert.Equal(t, 2, c.Len())

	xmin, xmax, ymin, ymax := c.DataRange()
	assert.Equal(t, []float64{0, 3, -3, 1}, []float64{xmin, xmax, ymin, ymax})

	assert.ErrorIs(t, c.SetValues([]float64{1}), ErrValuesLength)
	require.NoError(t, c.SetValues([]float64{1, 5}))

	assert.Equal(t, []color.Color{nil, nil}, c.FillColors())
	c.Style.ColorMap = Viridis()
	fills := c.FillColors()
	assert.NotNil(t, fills[0])
	assert.NotEqual(t, fills[0], fills[1])

	assert.Equal(t, 1, c.Pick(r2.Vec{X: 2.5, Y: -2.5}))
	assert.Equal(t, -1, c.Pick(r2.Vec{X: 10, Y: 10}))

	var empty Collection
	xmin, xmax, ymin, ymax = empty.DataRange()
	assert.True(t, math.IsInf(xmin, 1) && math.IsInf(ymin, 1), "min %g %g", xmin, ymin)
	assert.True(t, math.IsInf(xmax, -1) && math.IsInf(ymax, -1), "max %g %g", xmax, ymax)

	var noLines LineCollection
	xmin, xmax, _, _ = noLines.DataRange()
	assert.True(t, math.IsInf(xmin, 1) && math.IsInf(xmax, -1))
}

func TestCollection_EmptyKeepsPlotRange(t *testing.T) {
	c := NewCollection(DefaultPatchStyle())
	c.Add(Rect{X: 250, Y: 400, Width: 20, Height: 30}.Patch())

	p := plot.New()
	p.Add(c, NewCollection(DefaultPatchStyle()), NewLineCollection(DefaultLineStyle()))
	assert.Equal(t, []float64{250, 270, 400, 430}, []float64{p.X.Min, p.X.Max, p.Y.Min, p.Y.Max})
}

func TestCollection_FillColorsLengthMismatch(t *testing.T) {
	c := NewCollection(Style{Fill: color.White, ColorMap: Viridis()})
	c.Add(Rect{Width: 1, Height: 1}.Patch())
	c.Values = []float64{1, 2}

	var fills []color.Color
	require.NotPanics(t, func() { fills = c.FillColors() })
	assert.Equal(t, []color.Color{color.White}, fills)

	c.Values = nil
	assert.Equal(t, []color.Color{color.White}, c.FillColors())
}

func TestCollection_Render(t *testing.T) {
	c := NewCollection(Style{Edge: color.Black, ColorMap: Viridis()})
	c.Add(Rect{Width: 1, Height: 1}.Patch())
	c.Add(Rect{X: 1, Width: 1, Height: 1}.Patch())
	require.NoError(t, c.SetValues([]float64{0, 1}))

	lines := NewLineCollection(DefaultLineStyle())
	lines.Add(Patch{{X: 0, Y: 0}, {X: 2, Y: 1}})

	p := plot.New()
	p.Add(c, lines)
	p.Legend.Add("cells", c)

	wt, err := p.WriterTo(4*vg.Inch, 3*vg.Inch, "png")
	require.NoError(t, err)
	var buf bytes.Buffer
	_, err = wt.WriteTo(&buf)
	require.NoError(t, err)
	assert.Greater(t, buf.Len(), 0)
}

func TestLineCollection(t *testing.T) {
	c := NewLineCollection(Style{Edge: color.Black})
	c.Add(Patch{{X: 0, Y: 0}, {X: 1, Y: 1}})
	c.Add(Patch{{X: -1, Y: 2}, {X: 0, Y: 3}})

	assert.Equal(t, []color.Color{color.Black, color.Black}, c.StrokeColors())

	c.Style.ColorMap = Viridis()
	c.Style.Norm = &Norm{Min: 1, Max: 2}
	c.Values = []float64{0, 2}
	colors := c.StrokeColors()
	assert.Nil(t, colors[0])
	assert.NotNil(t, colors[1])

	moved := c.Transform(transform.Identity2().Scale(2, 1))
	xmin, xmax, _, _ := moved.DataRange()
	assert.Equal(t, -2.0, xmin)
	assert.Equal(t, 2.0, xmax)
}
