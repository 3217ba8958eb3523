// Package geometry reads the CMS DT geometry description and builds the
// Station -> SuperLayer -> Layer -> DriftCell tree used for drawing.
package geometry

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/banshee-data/dtplot/internal/fsutil"
)

// ChamberKey addresses a physical chamber.
type ChamberKey struct {
	Wheel   int
	Sector  int
	Station int
}

func (k ChamberKey) String() string {
	return fmt.Sprintf("Wh:%d St:%d Se:%d", k.Wheel, k.Station, k.Sector)
}

// Validate checks the address against the detector layout.
func (k ChamberKey) Validate() error {
	if k.Wheel < -2 || k.Wheel > 2 {
		return fmt.Errorf("%w: wheel %d must be between -2 and 2", ErrOutOfRange, k.Wheel)
	}
	if k.Sector < 1 || k.Sector > 14 {
		return fmt.Errorf("%w: sector %d must be between 1 and 14", ErrOutOfRange, k.Sector)
	}
	if k.Station < 1 || k.Station > 4 {
		return fmt.Errorf("%w: station %d must be between 1 and 4", ErrOutOfRange, k.Station)
	}
	return nil
}

// parseChamberID reads Chamber Id attributes such as " Wh:-2 St:1 Se:1 ".
func parseChamberID(id string) (ChamberKey, bool) {
	var k ChamberKey
	seen := 0
	for _, field := range strings.Fields(id) {
		name, value, ok := strings.Cut(field, ":")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return ChamberKey{}, false
		}
		switch name {
		case "Wh":
			k.Wheel = n
		case "St":
			k.Station = n
		case "Se":
			k.Sector = n
		default:
			continue
		}
		seen++
	}
	return k, seen == 3
}

// Geometry is a parsed geometry document. It is read-only once loaded and
// safe for concurrent use.
type Geometry struct {
	root     *Element
	byRawID  map[string]*Element
	chambers map[ChamberKey]*Element
	topology Topology
	topoErr  error
}

// ParseGeometry reads a geometry document.
func ParseGeometry(r io.Reader) (*Geometry, error) {
	root, err := parseElements(r)
	if err != nil {
		return nil, err
	}
	g := &Geometry{
		root:     root,
		byRawID:  make(map[string]*Element),
		chambers: make(map[ChamberKey]*Element),
	}
	root.walk(func(el *Element) {
		if id, ok := el.Attr("rawId"); ok {
			if _, dup := g.byRawID[id]; !dup {
				g.byRawID[id] = el
			}
		}
		if el.Name == "Chamber" {
			if id, ok := el.Attr("Id"); ok {
				if k, ok := parseChamberID(id); ok {
					g.chambers[k] = el
				}
			}
		}
	})
	if topo := root.Find("Topology"); topo != nil {
		g.topology, g.topoErr = topo.topology()
	} else if root.Name == "Topology" {
		g.topology, g.topoErr = root.topology()
	} else {
		g.topoErr = fmt.Errorf("%w: Topology", ErrNotFound)
	}
	return g, nil
}

// LoadGeometry parses the geometry file at path.
func LoadGeometry(fsys fsutil.FileSystem, path string) (*Geometry, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read geometry: %w", err)
	}
	g, err := ParseGeometry(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse geometry %s: %w", path, err)
	}
	return g, nil
}

// Root returns the document element.
func (g *Geometry) Root() *Element {
	return g.root
}

// Topology returns the document-wide drift cell dimensions.
func (g *Geometry) Topology() (Topology, error) {
	return g.topology, g.topoErr
}

// Chambers lists every addressable chamber, ordered by wheel, sector and
// station.
func (g *Geometry) Chambers() []ChamberKey {
	keys := make([]ChamberKey, 0, len(g.chambers))
	for k := range g.chambers {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Wheel != b.Wheel {
			return a.Wheel < b.Wheel
		}
		if a.Sector != b.Sector {
			return a.Sector < b.Sector
		}
		return a.Station < b.Station
	})
	return keys
}

// Query selects an element of the geometry. Zero fields are unset. Each
// set field narrows the search below the previous match.
type Query struct {
	RawID      int
	Chamber    *ChamberKey
	SuperLayer int
	Layer      int
	Wire       int
}

func (q Query) String() string {
	var b strings.Builder
	b.WriteString(".")
	if q.RawID != 0 {
		fmt.Fprintf(&b, "//*[@rawId='%d']", q.RawID)
	}
	if q.Chamber != nil {
		fmt.Fprintf(&b, "//Chamber[@Id=' %s ']", q.Chamber)
	}
	if q.SuperLayer != 0 {
		fmt.Fprintf(&b, "//SuperLayer[@superLayerNumber='%d']", q.SuperLayer)
	}
	if q.Layer != 0 {
		fmt.Fprintf(&b, "//Layer[@layerNumber='%d']", q.Layer)
	}
	if q.Wire != 0 {
		fmt.Fprintf(&b, "//Wire[@wireNumber='%d']", q.Wire)
	}
	return b.String()
}

// Get resolves q to an element. It fails with ErrNotFound when any step of
// the query has no match.
func (g *Geometry) Get(q Query) (*Element, error) {
	cur := g.root
	notFound := func() error {
		return fmt.Errorf("%w: element for query %s", ErrNotFound, q)
	}
	if q.RawID != 0 {
		el, ok := g.byRawID[strconv.Itoa(q.RawID)]
		if !ok {
			return nil, notFound()
		}
		cur = el
	}
	if q.Chamber != nil {
		if cur == g.root {
			el, ok := g.chambers[*q.Chamber]
			if !ok {
				return nil, notFound()
			}
			cur = el
		} else {
			var match *Element
			for _, el := range cur.FindAll("Chamber") {
				id, _ := el.Attr("Id")
				if k, ok := parseChamberID(id); ok && k == *q.Chamber {
					match = el
					break
				}
			}
			if match == nil {
				return nil, notFound()
			}
			cur = match
		}
	}
	steps := []struct {
		n          int
		name, attr string
	}{
		{q.SuperLayer, "SuperLayer", "superLayerNumber"},
		{q.Layer, "Layer", "layerNumber"},
		{q.Wire, "Wire", "wireNumber"},
	}
	for _, s := range steps {
		if s.n == 0 {
			continue
		}
		cur = cur.FindWhere(s.name, s.attr, strconv.Itoa(s.n))
		if cur == nil {
			return nil, notFound()
		}
	}
	return cur, nil
}

// RawID returns the rawId of the chamber at k.
func (g *Geometry) RawID(k ChamberKey) (int, error) {
	el, err := g.Get(Query{Chamber: &k})
	if err != nil {
		return 0, err
	}
	return el.IntAttr("rawId")
}
