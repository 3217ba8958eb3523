package transform

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
)

// Affine2 is a homogeneous 3x3 transform in the plane. It is what drawn
// collections carry between patch coordinates and plot data coordinates.
// The zero value is the identity.
type Affine2 struct {
	m *mat.Dense
}

// Identity2 returns the identity transform.
func Identity2() Affine2 {
	return Affine2{m: identity(3)}
}

// NewAffine2 builds the transform
//
//	x' = a*x + b*y + c
//	y' = d*x + e*y + f
func NewAffine2(a, b, c, d, e, f float64) Affine2 {
	return Affine2{m: mat.NewDense(3, 3, []float64{
		a, b, c,
		d, e, f,
		0, 0, 1,
	})}
}

func (t Affine2) dense() *mat.Dense {
	if t.m == nil {
		return identity(3)
	}
	return t.m
}

// At returns the matrix element at row i, column j.
func (t Affine2) At(i, j int) float64 {
	return t.dense().At(i, j)
}

// Then returns the transform that applies t first and next afterwards.
func (t Affine2) Then(next Affine2) Affine2 {
	var out mat.Dense
	out.Mul(next.dense(), t.dense())
	return Affine2{m: &out}
}

// Translate appends a translation.
func (t Affine2) Translate(tx, ty float64) Affine2 {
	return t.Then(NewAffine2(1, 0, tx, 0, 1, ty))
}

// Scale appends a scaling about the origin.
func (t Affine2) Scale(sx, sy float64) Affine2 {
	return t.Then(NewAffine2(sx, 0, 0, 0, sy, 0))
}

// Rotate appends a counter-clockwise rotation by theta radians.
func (t Affine2) Rotate(theta float64) Affine2 {
	s, c := math.Sincos(theta)
	return t.Then(NewAffine2(c, -s, 0, s, c, 0))
}

// RotateDegAround appends a rotation by deg degrees around (x, y).
func (t Affine2) RotateDegAround(x, y, deg float64) Affine2 {
	return t.Translate(-x, -y).Rotate(deg * math.Pi / 180).Translate(x, y)
}

// Apply transforms the point p.
func (t Affine2) Apply(p r2.Vec) r2.Vec {
	d := t.dense()
	return r2.Vec{
		X: d.At(0, 0)*p.X + d.At(0, 1)*p.Y + d.At(0, 2),
		Y: d.At(1, 0)*p.X + d.At(1, 1)*p.Y + d.At(1, 2),
	}
}

// Inverse returns the inverse transform.
func (t Affine2) Inverse() (Affine2, error) {
	var inv mat.Dense
	if err := inv.Inverse(t.dense()); err != nil {
		return Affine2{}, err
	}
	return Affine2{m: &inv}, nil
}

// IsIdentity reports whether t leaves every point unchanged.
func (t Affine2) IsIdentity() bool {
	return mat.EqualApprox(t.dense(), identity(3), 1e-12)
}
