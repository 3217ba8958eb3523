package patches

import (
	"errors"
	"fmt"

	"github.com/banshee-data/dtplot/internal/geometry"
	"github.com/banshee-data/dtplot/internal/transform"
	"gonum.org/v1/gonum/spatial/r2"
)

// View selects the plane a station is drawn on.
type View string

const (
	// PhiView draws the station (x, z) plane, seen along the beam.
	PhiView View = "phi"
	// EtaView draws the station (y, z) plane, seen from the side.
	EtaView View = "eta"
)

// ErrUnsupportedView is returned for unknown views and for views a patch
// cannot draw.
var ErrUnsupportedView = errors.New("unsupported view")

// ParseView reads "phi" or "eta".
func ParseView(s string) (View, error) {
	switch View(s) {
	case PhiView, EtaView:
		return View(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedView, s)
}

// InversionFactors returns the axis flips that show a station as it is
// seen from its readout side. Wheel 0 sectors 1, 4, 5, 8, 9, 12 and 13
// are oriented like the negative wheels.
func InversionFactors(wheel, sector int, view View) (fx, fy float64) {
	negative := wheel < 0
	if wheel == 0 {
		switch sector {
		case 1, 4, 5, 8, 9, 12, 13:
			negative = true
		}
	}
	if negative {
		if view == PhiView {
			return -1, -1
		}
		return 1, -1
	}
	if view == PhiView {
		return 1, -1
	}
	return -1, -1
}

// Options configure a StationPatch.
type Options struct {
	View View
	// Global draws in CMS coordinates instead of the station frame.
	Global bool
	// Inverted flips the local view; it is ignored when Global is set.
	Inverted bool
	// VMap names the cell annotation mapped onto the cell colors.
	VMap string

	BoundsStyle Style
	CellsStyle  Style
	// Style applies to both collections on top of their own style.
	Style Style
}

func (o Options) withDefaults() Options {
	if o.View == "" {
		o.View = PhiView
	}
	if o.VMap == "" {
		o.VMap = geometry.DriftTime
	}
	if o.BoundsStyle.IsZero() {
		o.BoundsStyle = DefaultPatchStyle()
	}
	if o.CellsStyle.IsZero() {
		o.CellsStyle = DefaultPatchStyle()
	}
	if o.Global {
		o.Inverted = false
	}
	return o
}

// StationPatch draws a station as two collections: the bounds of the
// station and its super layers, and one patch per drift cell. The phi view
// draws the SL1 and SL3 cells, the eta view the SL2 cells.
type StationPatch struct {
	station  *geometry.Station
	view     View
	global   bool
	inverted bool
	vmap     string

	cells      []*geometry.DriftCell
	boundsBase []Patch
	cellsBase  []Patch

	bounds *Collection
	cellsC *Collection
}

// NewStationPatch builds the collections for st.
func NewStationPatch(st *geometry.Station, opts Options) (*StationPatch, error) {
	opts = opts.withDefaults()
	if _, err := ParseView(string(opts.View)); err != nil {
		return nil, err
	}
	sp := &StationPatch{
		station:  st,
		view:     opts.View,
		global:   opts.Global,
		inverted: opts.Inverted,
		vmap:     opts.VMap,
		bounds:   NewCollection(opts.BoundsStyle.Merge(opts.Style)),
		cellsC:   NewCollection(opts.CellsStyle.Merge(opts.Style)),
	}

	sp.boundsBase = append(sp.boundsBase, sp.rect(st.StationBox()).Patch())
	for _, sl := range st.SuperLayers() {
		sp.boundsBase = append(sp.boundsBase, sp.rect(sl.StationBox()).Patch())
	}
	st.EachCell(func(sl *geometry.SuperLayer, _ *geometry.Layer, c *geometry.DriftCell) {
		if (sp.view == PhiView) == (sl.Number == 2) {
			return
		}
		sp.cells = append(sp.cells, c)
		sp.cellsBase = append(sp.cellsBase, sp.rect(c.StationBox()).Patch())
	})

	sp.redraw()
	sp.ChangeVMap(sp.vmap)
	return sp, nil
}

func (sp *StationPatch) rect(b geometry.Box) Rect {
	size := b.Size()
	if sp.view == EtaView {
		return Rect{X: b.Min.Y, Y: b.Min.Z, Width: size.Y, Height: size.Z}
	}
	return Rect{X: b.Min.X, Y: b.Min.Z, Width: size.X, Height: size.Z}
}

// viewTransform maps station plane coordinates onto the drawn plane.
func (sp *StationPatch) viewTransform() transform.Affine2 {
	return viewTransform(sp.station, sp.view, sp.global, sp.inverted)
}

func viewTransform(st *geometry.Station, view View, global, inverted bool) transform.Affine2 {
	switch {
	case global && view == EtaView:
		return transform.EtaProjection(st.ToCMS())
	case global:
		return transform.PhiProjection(st.ToCMS())
	case inverted:
		fx, fy := InversionFactors(st.Wheel, st.Sector, view)
		return transform.Identity2().Scale(fx, fy)
	}
	return transform.Identity2()
}

func (sp *StationPatch) redraw() {
	t := sp.viewTransform()
	sp.bounds.Patches = transformAll(sp.boundsBase, t)
	sp.cellsC.Patches = transformAll(sp.cellsBase, t)
}

func transformAll(ps []Patch, t transform.Affine2) []Patch {
	out := make([]Patch, len(ps))
	for i, p := range ps {
		out[i] = p.Transform(t)
	}
	return out
}

// Station returns the drawn station.
func (sp *StationPatch) Station() *geometry.Station { return sp.station }

// View returns the drawn plane.
func (sp *StationPatch) View() View { return sp.view }

// Global reports whether the patch is drawn in CMS coordinates.
func (sp *StationPatch) Global() bool { return sp.global }

// Inverted reports whether the local view is flipped.
func (sp *StationPatch) Inverted() bool { return sp.inverted }

// VMap returns the mapped cell annotation.
func (sp *StationPatch) VMap() string { return sp.vmap }

// Bounds returns the station and super layer outlines.
func (sp *StationPatch) Bounds() *Collection { return sp.bounds }

// Cells returns the drift cell patches.
func (sp *StationPatch) Cells() *Collection { return sp.cellsC }

// DrawnCells returns the cells in the order of the cell patches.
func (sp *StationPatch) DrawnCells() []*geometry.DriftCell { return sp.cells }

// Collections returns the bounds and cells collections, in drawing order.
func (sp *StationPatch) Collections() []*Collection {
	return []*Collection{sp.bounds, sp.cellsC}
}

// ChangeVMap maps another cell annotation onto the cell colors. Cells
// without it take the value 0.
func (sp *StationPatch) ChangeVMap(name string) {
	sp.vmap = name
	values := make([]float64, len(sp.cells))
	for i, c := range sp.cells {
		values[i] = c.Value(name)
	}
	sp.cellsC.Values = values
}

// InvertView toggles the local inversion. It does nothing on a global
// patch.
func (sp *StationPatch) InvertView() {
	if sp.global {
		return
	}
	sp.inverted = !sp.inverted
	sp.redraw()
}

// MoveToGlobal redraws the patch in CMS coordinates, undoing any
// inversion.
func (sp *StationPatch) MoveToGlobal() {
	sp.inverted = false
	sp.global = true
	sp.redraw()
}

// Pick returns the drift cell drawn under pt, or nil.
func (sp *StationPatch) Pick(pt r2.Vec) *geometry.DriftCell {
	if i := sp.cellsC.Pick(pt); i >= 0 {
		return sp.cells[i]
	}
	return nil
}
