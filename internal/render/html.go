package render

import (
	"fmt"
	"io"
	"math"

	"github.com/banshee-data/dtplot/internal/patches"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// viridisStops are the visual map colors of the HTML cell map.
var viridisStops = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// HTMLOptions configure HTMLCellMap.
type HTMLOptions struct {
	Title string
	// AssetsHost overrides where the echarts scripts are loaded from.
	AssetsHost string
	// SymbolSize is the marker size in pixels.
	SymbolSize int
	Width      string
	Height     string
}

func (o HTMLOptions) withDefaults() HTMLOptions {
	if o.Title == "" {
		o.Title = "DT cells"
	}
	if o.SymbolSize <= 0 {
		o.SymbolSize = 4
	}
	if o.Width == "" {
		o.Width = "900px"
	}
	if o.Height == "" {
		o.Height = "900px"
	}
	return o
}

// CellPoint is one drawn cell centre of an HTML cell map.
type CellPoint struct {
	Name  string
	X, Y  float64
	Value float64
}

// CellPoints lists the centres of the drawn cells of each patch, in the
// coordinates the patch is currently drawn in.
func CellPoints(sps ...*patches.StationPatch) []CellPoint {
	var pts []CellPoint
	for _, sp := range sps {
		cells := sp.DrawnCells()
		key := sp.Station().Key()
		for i, p := range sp.Cells().Patches {
			c := cells[i]
			l := c.Parent()
			ctr := p.Center()
			pts = append(pts, CellPoint{
				Name:  fmt.Sprintf("%s SL%d L%d W%d", key, l.Parent().Number, l.Number, c.Number),
				X:     ctr.X,
				Y:     ctr.Y,
				Value: c.Value(sp.VMap()),
			})
		}
	}
	return pts
}

// HTMLCellMap writes an interactive scatter of the drawn cells of sps,
// colored by their mapped annotation. Hovering a cell shows its address.
func HTMLCellMap(w io.Writer, o HTMLOptions, sps ...*patches.StationPatch) error {
	o = o.withDefaults()
	pts := CellPoints(sps...)
	if len(pts) == 0 {
		return fmt.Errorf("no cells to draw")
	}

	vmap := sps[0].VMap()
	lo, hi := math.Inf(1), math.Inf(-1)
	data := make([]opts.ScatterData, 0, len(pts))
	for _, p := range pts {
		lo, hi = math.Min(lo, p.Value), math.Max(hi, p.Value)
		data = append(data, opts.ScatterData{Name: p.Name, Value: []interface{}{p.X, p.Y, p.Value}})
	}
	if hi <= lo {
		hi = lo + 1
	}

	initOpts := opts.Initialization{PageTitle: o.Title, Width: o.Width, Height: o.Height}
	if o.AssetsHost != "" {
		initOpts.AssetsHost = o.AssetsHost
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts),
		charts.WithTitleOpts(opts.Title{Title: o.Title, Subtitle: fmt.Sprintf("value=%s cells=%d", vmap, len(data))}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:      opts.Bool(true),
			Formatter: opts.FuncOpts("function (p) { return p.name + '<br/>' + p.value[2]; }"),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "x (cm)", NameLocation: "middle", NameGap: 25, Scale: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "y (cm)", NameLocation: "middle", NameGap: 30, Scale: opts.Bool(true)}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(lo),
			Max:        float32(hi),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: viridisStops},
		}),
	)
	scatter.AddSeries(vmap, data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: o.SymbolSize}))

	if err := scatter.Render(w); err != nil {
		return fmt.Errorf("render cell map: %w", err)
	}
	return nil
}
