package geometry

import (
	"testing"

	"github.com/banshee-data/dtplot/internal/testutil"
	"github.com/banshee-data/dtplot/internal/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gonum.org/v1/gonum/spatial/r3"
)

const tol = 1e-6

func assertVec(t *testing.T, want, got r3.Vec) {
	t.Helper()
	assert.InDelta(t, 0, r3.Norm(r3.Sub(want, got)), tol, "want %v, got %v", want, got)
}

func newFixtureStation(t *testing.T, wheel, sector, station int, opts ...Option) *Station {
	t.Helper()
	st, err := NewStation(fixtureGeometry(t), wheel, sector, station, opts...)
	require.NoError(t, err)
	return st
}

func TestNewStation_Errors(t *testing.T) {
	g := fixtureGeometry(t)

	_, err := NewStation(g, 3, 1, 1)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = NewStation(g, 0, 15, 1)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = NewStation(g, 0, 1, 5)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = NewStation(g, 1, 1, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewStation_Tree(t *testing.T) {
	st := newFixtureStation(t, -2, 1, 1)

	assert.Equal(t, "Wheel -2, Sector 1, Station 1", st.Name())
	assert.Equal(t, ChamberKey{Wheel: -2, Sector: 1, Station: 1}, st.Key())
	assert.Equal(t, Bounds{Width: 26, Height: 30, Length: 22}, st.Bounds)
	require.Len(t, st.SuperLayers(), 3)

	for _, sl := range st.SuperLayers() {
		assert.Same(t, st, sl.Parent())
		require.Len(t, sl.Layers(), 4)
		for _, l := range sl.Layers() {
			assert.Same(t, sl, l.Parent())
			first, last := l.CellRange()
			assert.Equal(t, 1, first)
			want := testutil.PhiCells
			if sl.Number == 2 {
				want = testutil.ThetaCells
			}
			assert.Equal(t, want, last)
			assert.Len(t, l.Cells(), want)
			for _, c := range l.Cells() {
				assert.Same(t, l, c.Parent())
				assert.Equal(t, Bounds{Width: 4.2, Height: 1.3, Length: 20}, c.Bounds)
			}
		}
	}

	assert.Nil(t, st.SuperLayer(4))
	assert.Nil(t, st.SuperLayer(1).Layer(5))
}

func TestNewStation_CellPositions(t *testing.T) {
	st := newFixtureStation(t, -2, 1, 1)

	c, err := st.SuperLayer(1).Layer(1).Cell(1)
	require.NoError(t, err)
	assertVec(t, r3.Vec{X: -10.5, Y: 0, Z: -11.95}, c.LocalCenter)
	assertVec(t, r3.Vec{X: 418.05, Y: 10.5, Z: -532}, c.GlobalCenter)
	assertVec(t, r3.Vec{X: -12.6, Y: -10, Z: -12.6}, c.LocalMin())

	c, err = st.SuperLayer(1).Layer(1).Cell(6)
	require.NoError(t, err)
	assertVec(t, r3.Vec{X: 10.5, Y: 0, Z: -11.95}, c.LocalCenter)

	c, err = st.SuperLayer(2).Layer(1).Cell(1)
	require.NoError(t, err)
	assertVec(t, r3.Vec{X: 0, Y: 8.4, Z: -1.95}, c.LocalCenter)
	assertVec(t, st.ToGlobal(c.LocalCenter), c.GlobalCenter)
}

func TestLayer_CellOutOfRange(t *testing.T) {
	st := newFixtureStation(t, -2, 1, 1)
	l := st.SuperLayer(2).Layer(3)

	for _, w := range []int{0, 6, -1} {
		_, err := l.Cell(w)
		assert.ErrorIs(t, err, ErrInvalidCell)
	}
}

func TestStation_Validate(t *testing.T) {
	for _, c := range testutil.DefaultChambers {
		st := newFixtureStation(t, c.Wheel, c.Sector, c.Station)
		assert.NoError(t, st.Validate(tol), st.Name())
	}
}

func TestStation_ValidateInconsistent(t *testing.T) {
	st := newFixtureStation(t, 1, 5, 1)

	st.SuperLayer(3).GlobalCenter.X += 1
	st.SuperLayer(1).LocalCenter.Z -= 20

	err := st.Validate(tol)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInconsistent)
	assert.Contains(t, err.Error(), "SL3 global center")
	assert.Contains(t, err.Error(), "SL1 extends outside the station")
}

func TestStation_ToCMS(t *testing.T) {
	st := newFixtureStation(t, 1, 5, 1)
	want := testutil.Chamber{Wheel: 1, Sector: 5, Station: 1}.ToCMS()

	p := r3.Vec{X: 3, Y: -4, Z: 5}
	assertVec(t, want.Apply(p), st.ToGlobal(p))
	assertVec(t, st.GlobalCenter, st.ToGlobal(r3.Vec{}))
}

func TestTransformer_CellToCMS(t *testing.T) {
	st := newFixtureStation(t, 0, 4, 2)

	st.EachCell(func(sl *SuperLayer, l *Layer, c *DriftCell) {
		m := c.Transformer()

		got, err := m.Transform(r3.Vec{}, transform.FrameCell, transform.FrameStation)
		require.NoError(t, err)
		assertVec(t, c.LocalCenter, got)

		got, err = m.Transform(r3.Vec{}, transform.FrameCell, transform.FrameCMS)
		require.NoError(t, err)
		assertVec(t, c.GlobalCenter, got)

		got, err = m.Transform(r3.Vec{}, transform.FrameLayer, transform.FrameStation)
		require.NoError(t, err)
		assertVec(t, l.LocalCenter, got)

		back, err := m.Transform(c.GlobalCenter, transform.FrameCMS, transform.FrameCell)
		require.NoError(t, err)
		assertVec(t, r3.Vec{}, back)
	})
}

func TestTransformer_Chains(t *testing.T) {
	st := newFixtureStation(t, 1, 5, 1)
	sl := st.SuperLayer(2)
	l := sl.Layer(3)
	c, err := l.Cell(1)
	require.NoError(t, err)

	assert.Equal(t, []transform.FrameName{transform.FrameStation}, st.Transformer().Frames())
	assert.Equal(t, []transform.FrameName{transform.FrameStation, transform.FrameSuperLayer}, sl.Transformer().Frames())
	assert.Equal(t, []transform.FrameName{
		transform.FrameStation, transform.FrameSuperLayer, transform.FrameLayer, transform.FrameCell,
	}, c.Transformer().Frames())

	assert.NotPanics(t, func() {
		for range 3 {
			l.Transformer()
			c.Transformer()
		}
	})
}

func TestSuperLayer_Rotation(t *testing.T) {
	st := newFixtureStation(t, -2, 1, 1)

	assert.Equal(t, transform.IdentityRotation(), st.SuperLayer(1).Rotation())
	assert.Equal(t, transform.SL2ToStation, st.SuperLayer(2).Rotation())

	// SL2 wires run along the station x axis
	box := st.SuperLayer(2).StationBox()
	assertVec(t, r3.Vec{X: 25.2, Y: 21, Z: 5.2}, box.Size())

	assertVec(t, r3.Vec{X: 1, Y: 0, Z: 1}, st.SuperLayer(2).ToStationPoint(r3.Vec{X: 0, Y: 1, Z: 1}))
}

func TestStation_SetCellInfo(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	st := newFixtureStation(t, -2, 1, 1, WithLogger(zap.New(core)))

	applied := st.SetCellInfo([]CellInfo{
		{SuperLayer: 1, Layer: 1, Wire: 1, Values: map[string]float64{"time": 300, "adc": 12}},
		{SuperLayer: 2, Layer: 4, Wire: 5, Values: map[string]float64{"time": 120}},
		{SuperLayer: 2, Layer: 4, Wire: 6, Values: map[string]float64{"time": 1}},
		{SuperLayer: 4, Layer: 1, Wire: 1, Values: map[string]float64{"time": 1}},
		{SuperLayer: 1, Layer: 9, Wire: 1, Values: map[string]float64{"time": 1}},
	})
	assert.Equal(t, 2, applied)
	assert.Equal(t, 3, logs.FilterMessageSnippet("skipping cell info").Len())

	c, _ := st.SuperLayer(1).Layer(1).Cell(1)
	assert.Equal(t, 300.0, c.DriftTime())
	assert.Equal(t, 12.0, c.Value("adc"))
	assert.Equal(t, []string{"adc", "time"}, c.ValueNames())

	c, _ = st.SuperLayer(1).Layer(1).Cell(2)
	assert.False(t, c.HasValue(DriftTime))
	assert.Equal(t, 0.0, c.DriftTime())
}

func TestWithCellInfo(t *testing.T) {
	st := newFixtureStation(t, 2, 2, 1, WithCellInfo([]CellInfo{
		{SuperLayer: 3, Layer: 2, Wire: 4, Values: map[string]float64{"time": 42}},
	}))

	c, err := st.SuperLayer(3).Layer(2).Cell(4)
	require.NoError(t, err)
	assert.Equal(t, 42.0, c.DriftTime())

	c.SetDriftTime(7)
	assert.Equal(t, 7.0, c.Value(DriftTime))
}
