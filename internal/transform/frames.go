package transform

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// FrameName identifies a reference frame of the DT geometry.
type FrameName string

const (
	FrameCell       FrameName = "Cell"
	FrameLayer      FrameName = "Layer"
	FrameSuperLayer FrameName = "SuperLayer"
	FrameSL2        FrameName = "SL2"
	FrameStation    FrameName = "Station"
	FrameCMS        FrameName = "CMS"
)

var (
	// ErrUnsupportedFrame is returned when no transformation is known
	// between two frames.
	ErrUnsupportedFrame = errors.New("unsupported frame transformation")
	// ErrDegenerateDirection is returned when a station normal vector cannot
	// define a frame.
	ErrDegenerateDirection = errors.New("degenerate station direction")
)

// SL2ToStation maps super layer 2 coordinates onto the station frame. The
// theta super layer is rotated by pi/2 around z with respect to the station.
var SL2ToStation = Rotation{
	{0, 1, 0},
	{-1, 0, 0},
	{0, 0, 1},
}

// ChangeFrame moves a point between the SL2 and Station frames.
func ChangeFrame(p r3.Vec, from, to FrameName) (r3.Vec, error) {
	if from == to {
		return p, nil
	}
	switch {
	case from == FrameSL2 && to == FrameStation:
		return SL2ToStation.Apply(p), nil
	case from == FrameStation && to == FrameSL2:
		return SL2ToStation.Transpose().Apply(p), nil
	}
	return r3.Vec{}, fmt.Errorf("%w: %s to %s", ErrUnsupportedFrame, from, to)
}

// StationToCMS builds the transform from a station frame into the CMS frame.
// The station z axis follows the chamber normal, y points along -z(CMS) and
// x completes the right-handed frame.
func StationToCMS(center, normal r3.Vec) (Affine3, error) {
	if r3.Norm(normal) == 0 {
		return Affine3{}, ErrDegenerateDirection
	}
	z := r3.Unit(normal)
	y := r3.Vec{X: 0, Y: 0, Z: -1}
	x := r3.Cross(y, z)
	if r3.Norm(x) < 1e-12 {
		return Affine3{}, fmt.Errorf("%w: normal %v is parallel to the beam axis", ErrDegenerateDirection, normal)
	}
	x = r3.Unit(x)
	return NewAffine3(RotationFromColumns(x, y, z), center), nil
}

// PhiProjection returns the plane transform mapping station (x, z) onto
// CMS (X, Y). It is exact for every point of the station since the station
// y axis has no transverse component.
func PhiProjection(toCMS Affine3) Affine2 {
	return NewAffine2(
		toCMS.At(0, 0), toCMS.At(0, 2), toCMS.At(0, 3),
		toCMS.At(1, 0), toCMS.At(1, 2), toCMS.At(1, 3),
	)
}

// EtaProjection returns the plane transform mapping station (y, z) onto
// CMS (Z, R), with R measured along the radial direction of the station
// center.
func EtaProjection(toCMS Affine3) Affine2 {
	tx, ty, tz := toCMS.At(0, 3), toCMS.At(1, 3), toCMS.At(2, 3)
	r := math.Hypot(tx, ty)
	ry, rz := 0.0, 1.0
	if r > 0 {
		ry = (toCMS.At(0, 1)*tx + toCMS.At(1, 1)*ty) / r
		rz = (toCMS.At(0, 2)*tx + toCMS.At(1, 2)*ty) / r
	}
	return NewAffine2(
		toCMS.At(2, 1), toCMS.At(2, 2), tz,
		ry, rz, r,
	)
}
