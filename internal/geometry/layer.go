package geometry

import (
	"fmt"

	"github.com/banshee-data/dtplot/internal/transform"
	"gonum.org/v1/gonum/spatial/r3"
)

// Layer is one plane of drift cells.
type Layer struct {
	Frame

	parent    *SuperLayer
	cells     []*DriftCell
	firstCell int
	lastCell  int
	topology  Topology
}

func newLayer(g *Geometry, el *Element, parent *SuperLayer) (*Layer, error) {
	number, err := el.IntAttr("layerNumber")
	if err != nil {
		return nil, err
	}
	if number < 1 || number > 4 {
		return nil, fmt.Errorf("%w: layer number %d must be between 1 and 4", ErrOutOfRange, number)
	}
	frame, err := frameFromElement(el)
	if err != nil {
		return nil, fmt.Errorf("L%d: %w", number, err)
	}
	frame.Number = number

	first, last, err := el.WiresRange()
	if err != nil {
		return nil, fmt.Errorf("L%d: %w", number, err)
	}

	topo, err := g.Topology()
	if local := el.Find("Topology"); local != nil {
		topo, err = local.topology()
	}
	if err != nil {
		return nil, fmt.Errorf("L%d: %w", number, err)
	}

	l := &Layer{
		Frame:     frame,
		parent:    parent,
		firstCell: first,
		lastCell:  last,
		topology:  topo,
	}
	l.buildCells()
	return l, nil
}

// buildCells lays the cells side by side along the layer x axis, centered
// on the layer.
func (l *Layer) buildCells() {
	n := l.lastCell - l.firstCell + 1
	w := l.topology.CellWidth
	station := l.parent.parent
	l.cells = make([]*DriftCell, 0, n)
	for wire := l.firstCell; wire <= l.lastCell; wire++ {
		x := (float64(wire-l.firstCell)+0.5)*w - float64(n)*w/2
		local := l.ToStationPoint(r3.Vec{X: x})
		c := &DriftCell{
			Frame: Frame{
				ID:     wire,
				Number: wire,
				Bounds: Bounds{
					Width:  l.topology.CellWidth,
					Height: l.topology.CellHeight,
					Length: l.topology.CellLength,
				},
				LocalCenter:  local,
				GlobalCenter: station.toCMS.Apply(local),
				Direction:    l.Direction,
			},
			parent: l,
			layerX: x,
		}
		l.cells = append(l.cells, c)
	}
}

// Parent returns the owning super layer.
func (l *Layer) Parent() *SuperLayer {
	return l.parent
}

// Cells returns the cells ordered by wire number.
func (l *Layer) Cells() []*DriftCell {
	return l.cells
}

// CellRange returns the first and last wire numbers.
func (l *Layer) CellRange() (first, last int) {
	return l.firstCell, l.lastCell
}

// Topology returns the cell dimensions used by the layer.
func (l *Layer) Topology() Topology {
	return l.topology
}

// Cell returns the cell with the given wire number. Numbers outside the
// layer range fail with ErrInvalidCell.
func (l *Layer) Cell(wire int) (*DriftCell, error) {
	if wire < l.firstCell || wire > l.lastCell {
		return nil, fmt.Errorf("%w: %d not in %d..%d", ErrInvalidCell, wire, l.firstCell, l.lastCell)
	}
	return l.cells[wire-l.firstCell], nil
}

// ToSuperLayer maps layer coordinates into the super layer frame. Layers
// share the orientation of their super layer.
func (l *Layer) ToSuperLayer() transform.Affine3 {
	offset := l.parent.rot.Transpose().Apply(r3.Sub(l.LocalCenter, l.parent.LocalCenter))
	return transform.Translation3(offset)
}

// ToStationPoint maps a point given in the layer frame.
func (l *Layer) ToStationPoint(p r3.Vec) r3.Vec {
	return r3.Add(l.LocalCenter, l.parent.rot.Apply(p))
}

// StationBox returns the layer extent in the station frame.
func (l *Layer) StationBox() Box {
	return boxAround(l.LocalCenter, l.Bounds, l.parent.rot)
}

// Transformer links Layer -> SuperLayer -> Station -> CMS.
func (l *Layer) Transformer() *transform.Manager {
	return l.parent.Transformer().MustAdd(transform.FrameLayer, transform.FrameSuperLayer, l.ToSuperLayer())
}
