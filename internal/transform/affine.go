// Package transform provides the affine transforms used to move points
// between the DT frames (cell, layer, super layer, station) and the global
// CMS frame, and the 2-D transforms applied to drawn patches.
package transform

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Rotation is a row-major 3x3 rotation matrix.
type Rotation [3][3]float64

// IdentityRotation returns the identity rotation.
func IdentityRotation() Rotation {
	return Rotation{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// RotationFromColumns builds the rotation whose columns are the given axes.
func RotationFromColumns(x, y, z r3.Vec) Rotation {
	return Rotation{
		{x.X, y.X, z.X},
		{x.Y, y.Y, z.Y},
		{x.Z, y.Z, z.Z},
	}
}

// Apply rotates v.
func (r Rotation) Apply(v r3.Vec) r3.Vec {
	return r3.Vec{
		X: r[0][0]*v.X + r[0][1]*v.Y + r[0][2]*v.Z,
		Y: r[1][0]*v.X + r[1][1]*v.Y + r[1][2]*v.Z,
		Z: r[2][0]*v.X + r[2][1]*v.Y + r[2][2]*v.Z,
	}
}

// Transpose returns the inverse of an orthonormal rotation.
func (r Rotation) Transpose() Rotation {
	var t Rotation
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			t[i][j] = r[j][i]
		}
	}
	return t
}

// Affine3 is a homogeneous 4x4 transform acting on points in R³.
// The zero value is the identity.
type Affine3 struct {
	m *mat.Dense
}

func identity(n int) *mat.Dense {
	d := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		d.Set(i, i, 1)
	}
	return d
}

// Identity3 returns the identity transform.
func Identity3() Affine3 {
	return Affine3{m: identity(4)}
}

// NewAffine3 builds a transform that rotates by rot and then translates by t.
func NewAffine3(rot Rotation, t r3.Vec) Affine3 {
	m := identity(4)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.Set(i, j, rot[i][j])
		}
	}
	m.Set(0, 3, t.X)
	m.Set(1, 3, t.Y)
	m.Set(2, 3, t.Z)
	return Affine3{m: m}
}

// Translation3 returns a pure translation.
func Translation3(t r3.Vec) Affine3 {
	return NewAffine3(IdentityRotation(), t)
}

func (a Affine3) dense() *mat.Dense {
	if a.m == nil {
		return identity(4)
	}
	return a.m
}

// At returns the matrix element at row i, column j.
func (a Affine3) At(i, j int) float64 {
	return a.dense().At(i, j)
}

// Then returns the transform that applies a first and b afterwards.
func (a Affine3) Then(b Affine3) Affine3 {
	var out mat.Dense
	out.Mul(b.dense(), a.dense())
	return Affine3{m: &out}
}

// Apply transforms the point p.
func (a Affine3) Apply(p r3.Vec) r3.Vec {
	in := mat.NewVecDense(4, []float64{p.X, p.Y, p.Z, 1})
	var out mat.VecDense
	out.MulVec(a.dense(), in)
	w := out.AtVec(3)
	if w == 0 {
		w = 1
	}
	return r3.Vec{X: out.AtVec(0) / w, Y: out.AtVec(1) / w, Z: out.AtVec(2) / w}
}

// ApplyVector transforms a direction, ignoring the translation part.
func (a Affine3) ApplyVector(v r3.Vec) r3.Vec {
	return a.Rotation().Apply(v)
}

// Rotation returns the linear part of the transform.
func (a Affine3) Rotation() Rotation {
	d := a.dense()
	var r Rotation
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			r[i][j] = d.At(i, j)
		}
	}
	return r
}

// Translation returns the translation part of the transform.
func (a Affine3) Translation() r3.Vec {
	d := a.dense()
	return r3.Vec{X: d.At(0, 3), Y: d.At(1, 3), Z: d.At(2, 3)}
}

// Inverse returns the inverse transform.
func (a Affine3) Inverse() (Affine3, error) {
	var inv mat.Dense
	if err := inv.Inverse(a.dense()); err != nil {
		return Affine3{}, fmt.Errorf("invert transform: %w", err)
	}
	return Affine3{m: &inv}, nil
}

// String formats the matrix for diagnostics.
func (a Affine3) String() string {
	return fmt.Sprintf("%v", mat.Formatted(a.dense(), mat.Squeeze()))
}
