package transform

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

const eps = 1e-9

func assertVec(t *testing.T, want, got r3.Vec) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, eps, "x")
	assert.InDelta(t, want.Y, got.Y, eps, "y")
	assert.InDelta(t, want.Z, got.Z, eps, "z")
}

func TestChangeFrame(t *testing.T) {
	p := r3.Vec{X: 1, Y: 2, Z: 3}

	got, err := ChangeFrame(p, FrameSL2, FrameStation)
	require.NoError(t, err)
	assertVec(t, r3.Vec{X: 2, Y: -1, Z: 3}, got)

	back, err := ChangeFrame(got, FrameStation, FrameSL2)
	require.NoError(t, err)
	assertVec(t, p, back)

	same, err := ChangeFrame(p, FrameCMS, FrameCMS)
	require.NoError(t, err)
	assert.Equal(t, p, same)

	_, err = ChangeFrame(p, FrameStation, FrameCMS)
	assert.True(t, errors.Is(err, ErrUnsupportedFrame))
}

func TestAffine3InverseAndCompose(t *testing.T) {
	a := NewAffine3(SL2ToStation, r3.Vec{X: 10, Y: -5, Z: 2})
	inv, err := a.Inverse()
	require.NoError(t, err)

	p := r3.Vec{X: 3, Y: 4, Z: 5}
	assertVec(t, p, inv.Apply(a.Apply(p)))
	assertVec(t, p, a.Then(inv).Apply(p))

	b := Translation3(r3.Vec{X: 1})
	// a then b: rotate, translate by a, then translate by b
	assertVec(t, r3.Vec{X: 4 + 10 + 1, Y: -3 - 5, Z: 7}, a.Then(b).Apply(p))
	assertVec(t, r3.Vec{X: 4, Y: -3, Z: 5}, a.ApplyVector(p))
}

func TestZeroValueIsIdentity(t *testing.T) {
	var a Affine3
	p := r3.Vec{X: 1, Y: 2, Z: 3}
	assert.Equal(t, p, a.Apply(p))

	var b Affine2
	assert.True(t, b.IsIdentity())
}

func TestStationToCMS(t *testing.T) {
	center := r3.Vec{X: 430, Y: 0, Z: -532}
	toCMS, err := StationToCMS(center, r3.Vec{X: 2, Y: 0, Z: 0})
	require.NoError(t, err)

	assertVec(t, center, toCMS.Apply(r3.Vec{}))
	// station z follows the normal, y runs along -z(CMS)
	assertVec(t, r3.Vec{X: 431, Y: 0, Z: -532}, toCMS.Apply(r3.Vec{Z: 1}))
	assertVec(t, r3.Vec{X: 430, Y: 0, Z: -533}, toCMS.Apply(r3.Vec{Y: 1}))
	assertVec(t, r3.Vec{X: 430, Y: -1, Z: -532}, toCMS.Apply(r3.Vec{X: 1}))

	_, err = StationToCMS(center, r3.Vec{})
	assert.ErrorIs(t, err, ErrDegenerateDirection)
	_, err = StationToCMS(center, r3.Vec{Z: 1})
	assert.ErrorIs(t, err, ErrDegenerateDirection)
}

func TestProjections(t *testing.T) {
	s, c := math.Sincos(math.Pi / 6)
	center := r3.Vec{X: 500 * c, Y: 500 * s, Z: 266}
	toCMS, err := StationToCMS(center, r3.Vec{X: c, Y: s})
	require.NoError(t, err)

	local := r3.Vec{X: 12, Y: 0, Z: -7}
	global := toCMS.Apply(local)

	phi := PhiProjection(toCMS).Apply(r2.Vec{X: local.X, Y: local.Z})
	assert.InDelta(t, global.X, phi.X, eps)
	assert.InDelta(t, global.Y, phi.Y, eps)

	onAxis := r3.Vec{X: 0, Y: 40, Z: 5}
	g := toCMS.Apply(onAxis)
	eta := EtaProjection(toCMS).Apply(r2.Vec{X: onAxis.Y, Y: onAxis.Z})
	assert.InDelta(t, g.Z, eta.X, eps)
	assert.InDelta(t, math.Hypot(g.X, g.Y), eta.Y, eps)
}

func TestAffine2(t *testing.T) {
	tr := Identity2().Scale(-1, -1).Translate(10, 20)
	got := tr.Apply(r2.Vec{X: 1, Y: 2})
	assert.InDelta(t, 9, got.X, eps)
	assert.InDelta(t, 18, got.Y, eps)

	rot := Identity2().RotateDegAround(1, 1, 90)
	got = rot.Apply(r2.Vec{X: 2, Y: 1})
	assert.InDelta(t, 1, got.X, eps)
	assert.InDelta(t, 2, got.Y, eps)

	inv, err := tr.Inverse()
	require.NoError(t, err)
	back := inv.Apply(tr.Apply(r2.Vec{X: 3, Y: -4}))
	assert.InDelta(t, 3, back.X, eps)
	assert.InDelta(t, -4, back.Y, eps)
}

func TestManager(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Add(FrameCell, FrameLayer, Translation3(r3.Vec{X: 2})))
	require.NoError(t, m.Add(FrameLayer, FrameStation, NewAffine3(SL2ToStation, r3.Vec{Z: 1})))
	require.NoError(t, m.Add(FrameStation, FrameCMS, Translation3(r3.Vec{X: 100})))

	got, err := m.Transform(r3.Vec{}, FrameCell, FrameCMS)
	require.NoError(t, err)
	assertVec(t, r3.Vec{X: 100, Y: -2, Z: 1}, got)

	back, err := m.Transform(got, FrameCMS, FrameCell)
	require.NoError(t, err)
	assertVec(t, r3.Vec{}, back)

	_, err = m.Transform(r3.Vec{}, FrameCell, FrameSL2)
	assert.ErrorIs(t, err, ErrUnsupportedFrame)

	assert.Error(t, m.Add(FrameCell, FrameStation, Identity3()))
	assert.Equal(t, []FrameName{FrameCell, FrameLayer, FrameStation}, m.Frames())
}

func TestManager_MustAdd(t *testing.T) {
	m := NewManager().
		MustAdd(FrameLayer, FrameStation, Translation3(r3.Vec{Z: 1})).
		MustAdd(FrameStation, FrameCMS, Translation3(r3.Vec{X: 100}))
	got, err := m.Transform(r3.Vec{}, FrameLayer, FrameCMS)
	require.NoError(t, err)
	assertVec(t, r3.Vec{X: 100, Z: 1}, got)

	assert.Panics(t, func() { m.MustAdd(FrameLayer, FrameCMS, Identity3()) })
	assert.Panics(t, func() { NewManager().MustAdd(FrameCMS, FrameCMS, Identity3()) })
}
