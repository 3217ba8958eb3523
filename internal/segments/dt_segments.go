package segments

import (
	"fmt"
	"math"

	"github.com/banshee-data/dtplot/internal/fsutil"
	"github.com/banshee-data/dtplot/internal/geometry"
	"gonum.org/v1/gonum/spatial/r3"
)

// DTSegments are the segments reconstructed in one station.
type DTSegments struct {
	Segments

	station *geometry.Station
}

// NewDTSegments binds segments built from records to st. Each record holds
// the segment center in the station frame (x, y, z), its angles in degrees
// (phi, theta), an optional index and any extra fields, e.g.
// {"index": 1, "x": 1.2, "y": 0, "z": 0, "phi": 30, "theta": 10, "quality": 3}.
func NewDTSegments(st *geometry.Station, records []map[string]any) (*DTSegments, error) {
	ds := &DTSegments{station: st}
	for i, rec := range records {
		seg, err := segmentFromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("segment record %d: %w", i, err)
		}
		ds.AddSegment(seg)
	}
	return ds, nil
}

// Station returns the owning station.
func (ds *DTSegments) Station() *geometry.Station {
	return ds.station
}

// Wheel returns the wheel of the owning station.
func (ds *DTSegments) Wheel() int {
	return ds.station.Wheel
}

// Sector returns the sector of the owning station.
func (ds *DTSegments) Sector() int {
	return ds.station.Sector
}

// Subset binds ss, typically one group of GroupBy, to the station of ds.
func (ds *DTSegments) Subset(ss *Segments) *DTSegments {
	return &DTSegments{Segments: *ss, station: ds.station}
}

// AddSegment attaches seg to the station and fills its global center.
func (ds *DTSegments) AddSegment(seg *Segment) {
	seg.parent = &ds.station.Frame
	seg.GlobalCenter = ds.station.ToGlobal(seg.LocalCenter)
	ds.Add(seg)
}

func segmentFromRecord(rec map[string]any) (*Segment, error) {
	var v [5]float64
	for i, key := range []string{"x", "y", "z", "phi", "theta"} {
		f, ok := geometry.ToNumber(rec[key])
		if !ok {
			return nil, fmt.Errorf("%w: %q is missing or not a number", ErrIncompleteSegment, key)
		}
		v[i] = f
	}
	seg := &Segment{
		LocalCenter: r3.Vec{X: v[0], Y: v[1], Z: v[2]},
		Attrs:       make(map[string]any),
	}
	phi, theta := v[3]*math.Pi/180, v[4]*math.Pi/180
	seg.Direction = r3.Vec{X: math.Sin(phi), Y: math.Cos(phi), Z: math.Sin(theta)}

	if idx, ok := rec["index"]; ok {
		n, ok := geometry.ToNumber(idx)
		if !ok {
			return nil, fmt.Errorf("segment index %v is not a number", idx)
		}
		seg.Number = int(n)
	}
	for k, val := range rec {
		switch k {
		case "x", "y", "z", "phi", "theta", "index":
			continue
		}
		seg.Attrs[k] = val
	}
	return seg, nil
}

// LoadRecords reads a JSON or YAML list of segment records.
func LoadRecords(fsys fsutil.FileSystem, path string) ([]map[string]any, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read segments: %w", err)
	}
	return geometry.DecodeRecords(path, data)
}
