package testutil

import (
	"encoding/xml"
	"io"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestGeometryXML_WellFormed(t *testing.T) {
	t.Parallel()

	dec := xml.NewDecoder(strings.NewReader(GeometryXML()))
	chambers := 0
	for {
		tok, err := dec.Token()
		if err != nil {
			require.ErrorIs(t, err, io.EOF)
			break
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == "Chamber" {
			chambers++
		}
	}
	assert.Equal(t, len(DefaultChambers), chambers)
}

func TestGeometryXML_ChamberID(t *testing.T) {
	t.Parallel()

	doc := GeometryXML(Chamber{Wheel: -2, Sector: 1, Station: 1})
	assert.Contains(t, doc, `Id=" Wh:-2 St:1 Se:1 "`)
	assert.Contains(t, doc, `rawId="1011000"`)
	assert.Contains(t, doc, `firstWire="1" lastWire="6"`)
	assert.Contains(t, doc, `firstWire="1" lastWire="5"`)
}

func TestChamber_ToCMS(t *testing.T) {
	t.Parallel()

	c := Chamber{Wheel: -2, Sector: 1, Station: 1}
	got := c.ToCMS().Apply(r3.Vec{X: -10.5, Z: -11.95})
	want := r3.Vec{X: 418.05, Y: 10.5, Z: -532}
	assert.InDelta(t, 0, r3.Norm(r3.Sub(got, want)), 1e-9)

	c = Chamber{Wheel: 0, Sector: 4, Station: 2}
	g := c.GlobalCenter()
	assert.InDelta(t, 530, math.Hypot(g.X, g.Y), 1e-9)
	assert.InDelta(t, 0, g.Z, 1e-12)
}

func TestGeometryXML_StationFourHasNoThetaLayer(t *testing.T) {
	t.Parallel()

	c := Chamber{Wheel: 1, Sector: 5, Station: 4}
	assert.False(t, c.HasThetaLayer())
	doc := GeometryXML(c)
	assert.Contains(t, doc, `superLayerNumber="1"`)
	assert.Contains(t, doc, `superLayerNumber="3"`)
	assert.NotContains(t, doc, `superLayerNumber="2"`)
	assert.NotContains(t, doc, `lastWire="5"`)
}
