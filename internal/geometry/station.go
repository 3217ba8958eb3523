package geometry

import (
	"errors"
	"fmt"

	"github.com/banshee-data/dtplot/internal/transform"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r3"
)

// Station is a DT chamber and the root of the geometry tree. The tree is
// built once by NewStation and is read-only afterwards, apart from cell
// annotations.
type Station struct {
	Frame
	Wheel  int
	Sector int

	superLayers []*SuperLayer
	toCMS       transform.Affine3
	logger      *zap.Logger
}

// NewStation builds the chamber at (wheel, sector, station) from g.
func NewStation(g *Geometry, wheel, sector, station int, opts ...Option) (*Station, error) {
	key := ChamberKey{Wheel: wheel, Sector: sector, Station: station}
	if err := key.Validate(); err != nil {
		return nil, err
	}
	o := buildOptions(opts)

	el, err := g.Get(Query{Chamber: &key})
	if err != nil {
		return nil, err
	}
	frame, err := frameFromElement(el)
	if err != nil {
		return nil, fmt.Errorf("chamber %s: %w", key, err)
	}
	frame.Number = station

	toCMS, err := transform.StationToCMS(frame.GlobalCenter, frame.Direction)
	if err != nil {
		return nil, fmt.Errorf("chamber %s: %w", key, err)
	}

	st := &Station{
		Frame:  frame,
		Wheel:  wheel,
		Sector: sector,
		toCMS:  toCMS,
		logger: o.logger.With(zap.Stringer("chamber", key)),
	}
	for _, slEl := range el.FindAll("SuperLayer") {
		sl, err := newSuperLayer(g, slEl, st)
		if err != nil {
			return nil, fmt.Errorf("chamber %s: %w", key, err)
		}
		st.superLayers = append(st.superLayers, sl)
	}
	st.logger.Debug("station built", zap.Int("super_layers", len(st.superLayers)))

	if o.cellInfo != nil {
		st.SetCellInfo(o.cellInfo)
	}
	return st, nil
}

// Key returns the chamber address.
func (s *Station) Key() ChamberKey {
	return ChamberKey{Wheel: s.Wheel, Sector: s.Sector, Station: s.Number}
}

// Name returns "Wheel W, Sector S, Station N".
func (s *Station) Name() string {
	return fmt.Sprintf("Wheel %d, Sector %d, Station %d", s.Wheel, s.Sector, s.Number)
}

// SuperLayers returns the super layers in document order.
func (s *Station) SuperLayers() []*SuperLayer {
	return s.superLayers
}

// SuperLayer returns the super layer with the given number, or nil.
func (s *Station) SuperLayer(n int) *SuperLayer {
	for _, sl := range s.superLayers {
		if sl.Number == n {
			return sl
		}
	}
	return nil
}

// ToCMS returns the transform from the station frame into the CMS frame.
func (s *Station) ToCMS() transform.Affine3 {
	return s.toCMS
}

// StationBox returns the chamber extent in its own frame.
func (s *Station) StationBox() Box {
	return boxAround(s.LocalCenter, s.Bounds, transform.IdentityRotation())
}

// Transformer links the Station frame to CMS.
func (s *Station) Transformer() *transform.Manager {
	return transform.NewManager().MustAdd(transform.FrameStation, transform.FrameCMS, s.toCMS)
}

// ToGlobal maps a station-frame point into the CMS frame.
func (s *Station) ToGlobal(p r3.Vec) r3.Vec {
	return s.toCMS.Apply(p)
}

// EachCell calls fn for every cell in tree order.
func (s *Station) EachCell(fn func(sl *SuperLayer, l *Layer, c *DriftCell)) {
	for _, sl := range s.superLayers {
		for _, l := range sl.layers {
			for _, c := range l.cells {
				fn(sl, l, c)
			}
		}
	}
}

// SetCellInfo annotates cells with the given scalars. Entries addressing a
// cell that does not exist are skipped. It returns how many were applied.
func (s *Station) SetCellInfo(infos []CellInfo) int {
	applied := 0
	for _, info := range infos {
		sl := s.SuperLayer(info.SuperLayer)
		if sl == nil {
			s.logger.Debug("skipping cell info: no super layer", zap.Int("sl", info.SuperLayer))
			continue
		}
		l := sl.Layer(info.Layer)
		if l == nil {
			s.logger.Debug("skipping cell info: no layer", zap.Int("sl", info.SuperLayer), zap.Int("l", info.Layer))
			continue
		}
		c, err := l.Cell(info.Wire)
		if err != nil || c == nil {
			s.logger.Debug("skipping cell info: no cell",
				zap.Int("sl", info.SuperLayer), zap.Int("l", info.Layer), zap.Int("w", info.Wire))
			continue
		}
		for name, v := range info.Values {
			c.SetValue(name, v)
		}
		applied++
	}
	return applied
}

// Validate checks that every non-leaf frame encloses its children and that
// the global centers read from the geometry agree with the station
// transform. Differences up to tol are accepted.
func (s *Station) Validate(tol float64) error {
	var errs []error
	box := s.StationBox()
	checkGlobal := func(name string, f *Frame) {
		want := s.toCMS.Apply(f.LocalCenter)
		if r3.Norm(r3.Sub(want, f.GlobalCenter)) > tol {
			errs = append(errs, fmt.Errorf("%w: %s global center %v, transform gives %v", ErrInconsistent, name, f.GlobalCenter, want))
		}
	}
	for _, sl := range s.superLayers {
		slName := fmt.Sprintf("SL%d", sl.Number)
		slBox := sl.StationBox()
		if !box.Contains(slBox, tol) {
			errs = append(errs, fmt.Errorf("%w: %s extends outside the station", ErrInconsistent, slName))
		}
		checkGlobal(slName, &sl.Frame)
		for _, l := range sl.layers {
			lName := fmt.Sprintf("%s L%d", slName, l.Number)
			lBox := l.StationBox()
			if !slBox.Contains(lBox, tol) {
				errs = append(errs, fmt.Errorf("%w: %s extends outside its super layer", ErrInconsistent, lName))
			}
			checkGlobal(lName, &l.Frame)
			if len(l.cells) == 0 {
				continue
			}
			cells := l.cells[0].StationBox()
			for _, c := range l.cells[1:] {
				cells = cells.Union(c.StationBox())
			}
			if !lBox.Contains(cells, tol) {
				errs = append(errs, fmt.Errorf("%w: %s cells extend outside the layer", ErrInconsistent, lName))
			}
		}
	}
	return errors.Join(errs...)
}

func (s *Station) String() string {
	return fmt.Sprintf("%s: %s", s.Name(), s.Frame.String())
}
