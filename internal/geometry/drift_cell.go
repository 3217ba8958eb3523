package geometry

import (
	"sort"

	"github.com/banshee-data/dtplot/internal/transform"
	"gonum.org/v1/gonum/spatial/r3"
)

// DriftTime is the annotation name holding the cell drift time.
const DriftTime = "time"

// DriftCell is the leaf of the tree. Its bounds come from the geometry
// topology; ID and Number are the wire number.
type DriftCell struct {
	Frame

	parent *Layer
	layerX float64
	values map[string]float64
}

// Parent returns the owning layer.
func (c *DriftCell) Parent() *Layer {
	return c.parent
}

// Value returns the named annotation, or 0 when unset.
func (c *DriftCell) Value(name string) float64 {
	return c.values[name]
}

// HasValue reports whether the named annotation is set.
func (c *DriftCell) HasValue(name string) bool {
	_, ok := c.values[name]
	return ok
}

// SetValue sets the named annotation.
func (c *DriftCell) SetValue(name string, v float64) {
	if c.values == nil {
		c.values = make(map[string]float64)
	}
	c.values[name] = v
}

// ValueNames lists the annotations set on the cell.
func (c *DriftCell) ValueNames() []string {
	names := make([]string, 0, len(c.values))
	for k := range c.values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// DriftTime returns the drift time annotation.
func (c *DriftCell) DriftTime() float64 {
	return c.Value(DriftTime)
}

// SetDriftTime sets the drift time annotation.
func (c *DriftCell) SetDriftTime(t float64) {
	c.SetValue(DriftTime, t)
}

// ToLayer maps cell coordinates into the layer frame.
func (c *DriftCell) ToLayer() transform.Affine3 {
	return transform.Translation3(r3.Vec{X: c.layerX})
}

// StationBox returns the cell extent in the station frame.
func (c *DriftCell) StationBox() Box {
	return boxAround(c.LocalCenter, c.Bounds, c.parent.parent.rot)
}

// Transformer links Cell -> Layer -> SuperLayer -> Station -> CMS.
func (c *DriftCell) Transformer() *transform.Manager {
	return c.parent.Transformer().MustAdd(transform.FrameCell, transform.FrameLayer, c.ToLayer())
}
