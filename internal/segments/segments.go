// Package segments holds reconstructed track segments and binds them to a
// DT station so they can be drawn over its cells.
package segments

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/banshee-data/dtplot/internal/geometry"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrIncompleteSegment is returned for records missing a position or
	// an angle.
	ErrIncompleteSegment = errors.New("segment record needs x, y, z, phi and theta")
	// ErrSegmentNotFound is returned when no segment has the requested
	// number.
	ErrSegmentNotFound = errors.New("segment not found")
	// ErrMissingAttribute is returned by GroupBy when a segment lacks one
	// of the grouping attributes.
	ErrMissingAttribute = errors.New("segment attribute missing")
)

// defaultHeight is the chamber height assumed for segments without a
// parent frame.
const defaultHeight = 36.0

// overhang is how far a drawn segment extends past the chamber faces.
const overhang = 5.0

// Segment is a straight track piece through a chamber. LocalCenter is
// expressed in the station frame.
type Segment struct {
	Number       int
	LocalCenter  r3.Vec
	GlobalCenter r3.Vec
	Direction    r3.Vec
	Attrs        map[string]any

	parent *geometry.Frame
}

// Parent returns the frame the segment lives in, or nil.
func (s *Segment) Parent() *geometry.Frame {
	return s.parent
}

// Attr returns an extra record field.
func (s *Segment) Attr(name string) (any, bool) {
	v, ok := s.Attrs[name]
	return v, ok
}

// Value returns a numeric extra field, or 0 when it is unset or not a
// number.
func (s *Segment) Value(name string) float64 {
	f, _ := geometry.ToNumber(s.Attrs[name])
	return f
}

// Size is the drawn length of the segment: it crosses the chamber height
// plus the overhang on the phi view.
func (s *Segment) Size() float64 {
	h := defaultHeight
	if s.parent != nil {
		h = s.parent.Bounds.Height
	}
	return (h + overhang) / math.Abs(s.Direction.Y)
}

// PhiEndpoints returns the segment end points on the station (x, z) plane.
func (s *Segment) PhiEndpoints() (start, end r2.Vec) {
	size := s.Size()
	half := r2.Vec{X: s.Direction.X * size / 2, Y: s.Direction.Y * size / 2}
	c := r2.Vec{X: s.LocalCenter.X, Y: s.LocalCenter.Z}
	return r2.Sub(c, half), r2.Add(c, half)
}

func (s *Segment) String() string {
	return fmt.Sprintf("Segment %d: local_center: %v, global_center: %v, direction: %v",
		s.Number, s.LocalCenter, s.GlobalCenter, s.Direction)
}

// Segments is an ordered collection of segments.
type Segments struct {
	items []*Segment
}

// NewSegments returns a collection holding segs.
func NewSegments(segs ...*Segment) *Segments {
	return &Segments{items: append([]*Segment(nil), segs...)}
}

// Len returns the number of segments.
func (ss *Segments) Len() int {
	return len(ss.items)
}

// At returns the i-th segment.
func (ss *Segments) At(i int) *Segment {
	return ss.items[i]
}

// All returns the segments in insertion order.
func (ss *Segments) All() []*Segment {
	return ss.items
}

// Add appends a segment.
func (ss *Segments) Add(s *Segment) {
	ss.items = append(ss.items, s)
}

// Remove drops every segment with the given number and reports whether
// any was found.
func (ss *Segments) Remove(number int) bool {
	kept := ss.items[:0]
	for _, s := range ss.items {
		if s.Number != number {
			kept = append(kept, s)
		}
	}
	removed := len(kept) != len(ss.items)
	clear(ss.items[len(kept):])
	ss.items = kept
	return removed
}

// ByNumber returns the segments whose number is one of numbers.
func (ss *Segments) ByNumber(numbers ...int) []*Segment {
	var out []*Segment
	for _, s := range ss.items {
		for _, n := range numbers {
			if s.Number == n {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

// Get returns the first segment with the given number.
func (ss *Segments) Get(number int) (*Segment, error) {
	for _, s := range ss.items {
		if s.Number == number {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: number %d", ErrSegmentNotFound, number)
}

// Group is a set of segments sharing the same attribute values.
type Group struct {
	Key      []any
	Segments *Segments
}

// GroupBy partitions the segments by the values of the named attributes.
// Groups keep the order in which their first member appears. Every segment
// must carry every attribute.
func (ss *Segments) GroupBy(attrs ...string) ([]Group, error) {
	var groups []Group
	index := make(map[string]int)
	for _, s := range ss.items {
		key := make([]any, len(attrs))
		parts := make([]string, len(attrs))
		for i, a := range attrs {
			v, ok := s.Attrs[a]
			if !ok {
				return nil, fmt.Errorf("%w: segment %d has no %q", ErrMissingAttribute, s.Number, a)
			}
			key[i] = v
			parts[i] = fmt.Sprintf("%T:%v", v, v)
		}
		id := strings.Join(parts, "\x00")
		i, ok := index[id]
		if !ok {
			i = len(groups)
			index[id] = i
			groups = append(groups, Group{Key: key, Segments: NewSegments()})
		}
		groups[i].Segments.Add(s)
	}
	return groups, nil
}

// AttrNames lists every extra field used by the segments.
func (ss *Segments) AttrNames() []string {
	seen := make(map[string]bool)
	for _, s := range ss.items {
		for k := range s.Attrs {
			seen[k] = true
		}
	}
	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
