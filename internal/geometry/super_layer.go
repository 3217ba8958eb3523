package geometry

import (
	"fmt"

	"github.com/banshee-data/dtplot/internal/transform"
	"gonum.org/v1/gonum/spatial/r3"
)

// SuperLayer groups four layers. SL1 and SL3 measure phi; SL2 measures
// theta and is rotated with respect to the station.
type SuperLayer struct {
	Frame

	parent *Station
	layers []*Layer
	rot    transform.Rotation
}

func newSuperLayer(g *Geometry, el *Element, parent *Station) (*SuperLayer, error) {
	number, err := el.IntAttr("superLayerNumber")
	if err != nil {
		return nil, err
	}
	if number < 1 || number > 3 {
		return nil, fmt.Errorf("%w: super layer number %d must be between 1 and 3", ErrOutOfRange, number)
	}
	frame, err := frameFromElement(el)
	if err != nil {
		return nil, fmt.Errorf("SL%d: %w", number, err)
	}
	frame.Number = number

	sl := &SuperLayer{Frame: frame, parent: parent, rot: transform.IdentityRotation()}
	if number == 2 {
		sl.rot = transform.SL2ToStation
	}
	for _, lEl := range el.FindAll("Layer") {
		l, err := newLayer(g, lEl, sl)
		if err != nil {
			return nil, fmt.Errorf("SL%d: %w", number, err)
		}
		sl.layers = append(sl.layers, l)
	}
	return sl, nil
}

// Parent returns the owning station.
func (sl *SuperLayer) Parent() *Station {
	return sl.parent
}

// Layers returns the layers in document order.
func (sl *SuperLayer) Layers() []*Layer {
	return sl.layers
}

// Layer returns the layer with the given number, or nil.
func (sl *SuperLayer) Layer(n int) *Layer {
	for _, l := range sl.layers {
		if l.Number == n {
			return l
		}
	}
	return nil
}

// Rotation returns the rotation from the super layer frame to the station.
func (sl *SuperLayer) Rotation() transform.Rotation {
	return sl.rot
}

// ToStation maps super layer coordinates into the station frame.
func (sl *SuperLayer) ToStation() transform.Affine3 {
	return transform.NewAffine3(sl.rot, sl.LocalCenter)
}

// StationBox returns the super layer extent in the station frame.
func (sl *SuperLayer) StationBox() Box {
	return boxAround(sl.LocalCenter, sl.Bounds, sl.rot)
}

// Transformer links SuperLayer -> Station -> CMS.
func (sl *SuperLayer) Transformer() *transform.Manager {
	return sl.parent.Transformer().MustAdd(transform.FrameSuperLayer, transform.FrameStation, sl.ToStation())
}

// ToStationPoint maps a point given in the super layer frame.
func (sl *SuperLayer) ToStationPoint(p r3.Vec) r3.Vec {
	return r3.Add(sl.LocalCenter, sl.rot.Apply(p))
}
