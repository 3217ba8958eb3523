// Package testutil provides shared test fixtures.
//
// The geometry fixture is a reduced DT geometry document with the same
// element layout as the CMS description, small enough to check by hand.
package testutil

import (
	"fmt"
	"math"
	"strings"

	"github.com/banshee-data/dtplot/internal/fsutil"
	"github.com/banshee-data/dtplot/internal/transform"
	"gonum.org/v1/gonum/spatial/r3"
)

// Fixture dimensions, in cm.
const (
	CellWidth  = 4.2
	CellHeight = 1.3
	CellLength = 20.0

	StationWidth  = 26.0
	StationHeight = 30.0
	StationLength = 22.0

	PhiCells   = 6 // wires per layer in SL1 and SL3
	ThetaCells = 5 // wires per layer in SL2

	// BaseRadius is the distance of station 1 from the beam line.
	BaseRadius = 430.0
	// WheelPitch is the distance between wheel centers along the beam.
	WheelPitch = 266.0
)

// LayerOffsets are the layer centers along the super layer z axis.
var LayerOffsets = [4]float64{-1.95, -0.65, 0.65, 1.95}

// SuperLayerZ are the super layer centers along the station z axis.
var SuperLayerZ = [3]float64{-10, 0, 10}

// Chamber addresses a fixture chamber.
type Chamber struct {
	Wheel   int
	Sector  int
	Station int
}

// DefaultChambers are the chambers written by GeometryXML when none are
// given.
var DefaultChambers = []Chamber{
	{Wheel: -2, Sector: 1, Station: 1},
	{Wheel: 0, Sector: 4, Station: 2},
	{Wheel: 1, Sector: 5, Station: 1},
	{Wheel: 2, Sector: 2, Station: 1},
}

// RawID is the rawId given to a chamber; super layers and layers add
// sl*100 and l*10.
func (c Chamber) RawID() int {
	return (((c.Wheel+3)*100+c.Sector)*10 + c.Station) * 1000
}

// HasThetaLayer reports whether the chamber carries SL2.
func (c Chamber) HasThetaLayer() bool {
	return c.Station != 4
}

// Phi is the azimuth of the chamber center.
func (c Chamber) Phi() float64 {
	return float64(c.Sector-1) * math.Pi / 6
}

// GlobalCenter is the chamber center in the CMS frame.
func (c Chamber) GlobalCenter() r3.Vec {
	r := BaseRadius + 100*float64(c.Station-1)
	return r3.Vec{X: r * math.Cos(c.Phi()), Y: r * math.Sin(c.Phi()), Z: float64(c.Wheel) * WheelPitch}
}

// Normal is the chamber normal vector, pointing away from the beam.
func (c Chamber) Normal() r3.Vec {
	return r3.Vec{X: math.Cos(c.Phi()), Y: math.Sin(c.Phi())}
}

// ToCMS is the station to CMS transform of the chamber.
func (c Chamber) ToCMS() transform.Affine3 {
	a, err := transform.StationToCMS(c.GlobalCenter(), c.Normal())
	if err != nil {
		panic(err)
	}
	return a
}

func vec(v r3.Vec) string {
	return fmt.Sprintf("(%.12g, %.12g, %.12g)", clean(v.X), clean(v.Y), clean(v.Z))
}

func clean(f float64) float64 {
	if math.Abs(f) < 1e-9 {
		return 0
	}
	return f
}

type xmlWriter struct {
	b     strings.Builder
	depth int
}

func (w *xmlWriter) line(format string, args ...any) {
	w.b.WriteString(strings.Repeat("  ", w.depth))
	fmt.Fprintf(&w.b, format, args...)
	w.b.WriteByte('\n')
}

func (w *xmlWriter) frame(local, global, normal r3.Vec, width, height, length float64) {
	w.line("<GlobalPosition>%s</GlobalPosition>", vec(global))
	w.line("<LocalPosition>%s</LocalPosition>", vec(local))
	w.line("<NormalVector>%s</NormalVector>", vec(normal))
	w.line(`<Bounds width="%g" height="%g" length="%g" thickness="%g"/>`, width, height, length, height)
}

// GeometryXML renders a geometry document holding the given chambers, or
// DefaultChambers when none are given.
//
// Every chamber has the same layout: SL1 and SL3 carry PhiCells wires per
// layer, SL2 carries ThetaCells wires and is rotated onto the station y
// axis. Station 4 chambers have no SL2, like the MB4 chambers. Global
// positions are consistent with Chamber.ToCMS.
func GeometryXML(chambers ...Chamber) string {
	if len(chambers) == 0 {
		chambers = DefaultChambers
	}
	w := &xmlWriter{}
	w.line(`<?xml version="1.0" encoding="UTF-8"?>`)
	w.line("<DTGeometry>")
	w.depth++
	w.line("<Topology>")
	w.depth++
	w.line("<cellWidth>%g</cellWidth>", CellWidth)
	w.line("<cellHeight>%g</cellHeight>", CellHeight)
	w.line("<cellLength>%g</cellLength>", CellLength)
	w.depth--
	w.line("</Topology>")
	w.line("<Chambers>")
	w.depth++
	for _, c := range chambers {
		writeChamber(w, c)
	}
	w.depth--
	w.line("</Chambers>")
	w.depth--
	w.line("</DTGeometry>")
	return w.b.String()
}

func writeChamber(w *xmlWriter, c Chamber) {
	toCMS := c.ToCMS()
	normal := c.Normal()
	w.line(`<Chamber Id=" Wh:%d St:%d Se:%d " rawId="%d">`, c.Wheel, c.Station, c.Sector, c.RawID())
	w.depth++
	w.frame(r3.Vec{}, c.GlobalCenter(), normal, StationWidth, StationHeight, StationLength)
	for sl := 1; sl <= 3; sl++ {
		if sl == 2 && !c.HasThetaLayer() {
			continue
		}
		cells, length := PhiCells, 20.0
		if sl == 2 {
			cells, length = ThetaCells, 25.2
		}
		width := float64(cells) * CellWidth
		slCenter := r3.Vec{Z: SuperLayerZ[sl-1]}
		w.line(`<SuperLayer superLayerNumber="%d" rawId="%d">`, sl, c.RawID()+sl*100)
		w.depth++
		w.frame(slCenter, toCMS.Apply(slCenter), normal, width, 4*CellHeight, length)
		for l := 1; l <= 4; l++ {
			lCenter := r3.Add(slCenter, r3.Vec{Z: LayerOffsets[l-1]})
			w.line(`<Layer layerNumber="%d" rawId="%d">`, l, c.RawID()+sl*100+l*10)
			w.depth++
			w.frame(lCenter, toCMS.Apply(lCenter), normal, width, CellHeight, length)
			w.line(`<Wires width="%g" height="%g" length="%g" firstWire="1" lastWire="%d"/>`,
				width, CellHeight, CellLength, cells)
			w.depth--
			w.line("</Layer>")
		}
		w.depth--
		w.line("</SuperLayer>")
	}
	w.depth--
	w.line("</Chamber>")
}

// WriteGeometry stores the fixture document at path on fsys.
func WriteGeometry(fsys *fsutil.MemoryFileSystem, path string, chambers ...Chamber) {
	fsys.WriteFile(path, []byte(GeometryXML(chambers...)))
}
