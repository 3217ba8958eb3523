package patches

import (
	"fmt"

	"github.com/banshee-data/dtplot/internal/segments"
)

// SegmentsOptions configure a SegmentsPatch.
type SegmentsOptions struct {
	View     View
	Global   bool
	Inverted bool
	// VMap names the segment field mapped onto the line colors.
	VMap  string
	Style Style
}

// SegmentsPatch draws the segments of one station as lines on the phi
// view.
type SegmentsPatch struct {
	segments *segments.DTSegments
	global   bool
	inverted bool
	vmap     string

	base  []Patch
	lines *LineCollection
}

// NewSegmentsPatch builds the lines for ds. Only the phi view is
// supported.
func NewSegmentsPatch(ds *segments.DTSegments, opts SegmentsOptions) (*SegmentsPatch, error) {
	if opts.View == "" {
		opts.View = PhiView
	}
	if opts.View != PhiView {
		return nil, fmt.Errorf("%w: segments can only be drawn on the %s view, got %q", ErrUnsupportedView, PhiView, opts.View)
	}
	if opts.VMap == "" {
		opts.VMap = "quality"
	}
	style := opts.Style
	if style.IsZero() {
		style = DefaultLineStyle()
	}
	sp := &SegmentsPatch{
		segments: ds,
		global:   opts.Global,
		inverted: opts.Inverted && !opts.Global,
		lines:    NewLineCollection(style),
	}
	for _, s := range ds.All() {
		start, end := s.PhiEndpoints()
		sp.base = append(sp.base, Patch{start, end})
	}
	sp.redraw()
	sp.ChangeVMap(opts.VMap)
	return sp, nil
}

func (sp *SegmentsPatch) redraw() {
	t := viewTransform(sp.segments.Station(), PhiView, sp.global, sp.inverted)
	sp.lines.Lines = transformAll(sp.base, t)
}

// Lines returns the segment lines.
func (sp *SegmentsPatch) Lines() *LineCollection { return sp.lines }

// Global reports whether the lines are drawn in CMS coordinates.
func (sp *SegmentsPatch) Global() bool { return sp.global }

// Inverted reports whether the local view is flipped.
func (sp *SegmentsPatch) Inverted() bool { return sp.inverted }

// VMap returns the mapped segment field.
func (sp *SegmentsPatch) VMap() string { return sp.vmap }

// ChangeVMap maps another segment field onto the line colors. Segments
// without it take the value 0.
func (sp *SegmentsPatch) ChangeVMap(name string) {
	sp.vmap = name
	values := make([]float64, sp.segments.Len())
	for i, s := range sp.segments.All() {
		values[i] = s.Value(name)
	}
	sp.lines.Values = values
}

// InvertView toggles the local inversion. It does nothing on a global
// patch.
func (sp *SegmentsPatch) InvertView() {
	if sp.global {
		return
	}
	sp.inverted = !sp.inverted
	sp.redraw()
}

// MoveToGlobal redraws the lines in CMS coordinates.
func (sp *SegmentsPatch) MoveToGlobal() {
	sp.inverted = false
	sp.global = true
	sp.redraw()
}
