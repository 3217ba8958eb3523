package geometry

import (
	"fmt"
	"math"

	"github.com/banshee-data/dtplot/internal/transform"
	"gonum.org/v1/gonum/spatial/r3"
)

// Bounds are the dimensions of a frame: width along local x, height along
// local z and length along local y.
type Bounds struct {
	Width  float64
	Height float64
	Length float64
}

func (b Bounds) half() r3.Vec {
	return r3.Vec{X: b.Width / 2, Y: b.Length / 2, Z: b.Height / 2}
}

// Frame is the cubic volume shared by every node of the station tree.
// LocalCenter is expressed in the owning station frame and GlobalCenter in
// the CMS frame.
type Frame struct {
	ID           int
	Number       int
	Bounds       Bounds
	LocalCenter  r3.Vec
	GlobalCenter r3.Vec
	Direction    r3.Vec
}

// Base returns the frame itself, so that tree nodes satisfy Framed.
func (f *Frame) Base() *Frame {
	return f
}

// LocalMin is the lower corner of the frame around its local center.
func (f *Frame) LocalMin() r3.Vec {
	return r3.Sub(f.LocalCenter, f.Bounds.half())
}

// GlobalMin is the lower corner of the frame around its global center.
func (f *Frame) GlobalMin() r3.Vec {
	return r3.Sub(f.GlobalCenter, f.Bounds.half())
}

func (f *Frame) String() string {
	return fmt.Sprintf("id: %d, number: %d, local_center: %v, global_center: %v, bounds: %v",
		f.ID, f.Number, f.LocalCenter, f.GlobalCenter, f.Bounds)
}

func frameFromElement(el *Element) (Frame, error) {
	var f Frame
	var err error
	if f.ID, err = el.IntAttr("rawId"); err != nil {
		return Frame{}, err
	}
	if f.LocalCenter, err = el.Vector("LocalPosition"); err != nil {
		return Frame{}, err
	}
	if f.GlobalCenter, err = el.Vector("GlobalPosition"); err != nil {
		return Frame{}, err
	}
	if f.Direction, err = el.Vector("NormalVector"); err != nil {
		return Frame{}, err
	}
	if f.Bounds, err = el.Bounds(); err != nil {
		return Frame{}, err
	}
	return f, nil
}

// Box is an axis-aligned extent in the station frame.
type Box struct {
	Min r3.Vec
	Max r3.Vec
}

func boxAround(center r3.Vec, b Bounds, rot transform.Rotation) Box {
	h := b.half()
	var ext r3.Vec
	ext.X = math.Abs(rot[0][0])*h.X + math.Abs(rot[0][1])*h.Y + math.Abs(rot[0][2])*h.Z
	ext.Y = math.Abs(rot[1][0])*h.X + math.Abs(rot[1][1])*h.Y + math.Abs(rot[1][2])*h.Z
	ext.Z = math.Abs(rot[2][0])*h.X + math.Abs(rot[2][1])*h.Y + math.Abs(rot[2][2])*h.Z
	return Box{Min: r3.Sub(center, ext), Max: r3.Add(center, ext)}
}

// Size returns the box extent along each axis.
func (b Box) Size() r3.Vec {
	return r3.Sub(b.Max, b.Min)
}

// Contains reports whether o lies within b, allowing tol on every side.
func (b Box) Contains(o Box, tol float64) bool {
	return o.Min.X >= b.Min.X-tol && o.Min.Y >= b.Min.Y-tol && o.Min.Z >= b.Min.Z-tol &&
		o.Max.X <= b.Max.X+tol && o.Max.Y <= b.Max.Y+tol && o.Max.Z <= b.Max.Z+tol
}

// Union returns the smallest box enclosing b and o.
func (b Box) Union(o Box) Box {
	return Box{
		Min: r3.Vec{X: math.Min(b.Min.X, o.Min.X), Y: math.Min(b.Min.Y, o.Min.Y), Z: math.Min(b.Min.Z, o.Min.Z)},
		Max: r3.Vec{X: math.Max(b.Max.X, o.Max.X), Y: math.Max(b.Max.Y, o.Max.Y), Z: math.Max(b.Max.Z, o.Max.Z)},
	}
}

// Framed is implemented by every node of the station tree.
type Framed interface {
	Base() *Frame
	// StationBox is the node extent in its station frame.
	StationBox() Box
}
