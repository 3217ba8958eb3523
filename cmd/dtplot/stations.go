package main

import (
	"errors"
	"fmt"

	"github.com/banshee-data/dtplot/internal/config"
	"github.com/banshee-data/dtplot/internal/geometry"
	"github.com/banshee-data/dtplot/internal/patches"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// selection picks the stations to draw and where their cell values come
// from.
type selection struct {
	wheel, sector, station int
	cellInfo               string
	event                  string
}

func (s *selection) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVar(&s.wheel, "wheel", 0, "Wheel, -2 to 2; alone it selects the whole wheel")
	f.IntVar(&s.sector, "sector", 0, "Sector, 1 to 14")
	f.IntVar(&s.station, "station", 0, "Station, 1 to 4")
	f.StringVar(&s.cellInfo, "cellinfo", "", "JSON or YAML file of per-cell values (sl, l, w, ...)")
	f.StringVar(&s.event, "event", "", "Hits database event supplying the cell values")
	cmd.MarkFlagsMutuallyExclusive("cellinfo", "event")
	cmd.MarkFlagsRequiredTogether("sector", "station")
}

// single reports whether one station was named.
func (s *selection) single(cmd *cobra.Command) bool {
	return cmd.Flags().Changed("sector")
}

// source names the origin of the cell values for output directories.
func (s *selection) source() string {
	switch {
	case s.cellInfo != "":
		return s.cellInfo
	case s.event != "":
		return "event_" + s.event
	}
	return ""
}

// plotFlags override the plot config from the command line.
type plotFlags struct {
	view      string
	global    bool
	inverted  bool
	vmap      string
	colormap  string
	normMin   float64
	normMax   float64
	colorbar  bool
	format    string
	outputDir string
	width     float64
	workers   int
}

func (p *plotFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&p.view, "view", "phi", "Drawn plane: phi or eta")
	f.BoolVar(&p.global, "global", false, "Draw in CMS coordinates")
	f.BoolVar(&p.inverted, "inverted", false, "Flip the local view to the global orientation")
	f.StringVar(&p.vmap, "vmap", "time", "Cell value mapped onto the colors")
	f.StringVar(&p.colormap, "colormap", "viridis", "Colormap name")
	f.Float64Var(&p.normMin, "vmin", 0, "Lower end of the color range")
	f.Float64Var(&p.normMax, "vmax", 0, "Upper end of the color range")
	f.BoolVar(&p.colorbar, "colorbar", false, "Also write a color bar")
	f.StringVar(&p.format, "format", "png", "Output format: png, svg or pdf")
	f.StringVar(&p.outputDir, "output-dir", "plots", "Base output directory")
	f.Float64Var(&p.width, "width", 6, "Figure width in inches")
	f.IntVar(&p.workers, "workers", 4, "Stations built concurrently")
	cmd.MarkFlagsRequiredTogether("vmin", "vmax")
}

// config merges the changed flags over the loaded config.
func (p *plotFlags) config(cmd *cobra.Command, base *config.PlotConfig) (*config.PlotConfig, error) {
	f := cmd.Flags()
	o := config.EmptyPlotConfig()
	if f.Changed("view") {
		o.View = &p.view
	}
	if f.Changed("global") {
		o.Global = &p.global
	}
	if f.Changed("inverted") {
		o.Inverted = &p.inverted
	}
	if f.Changed("vmap") {
		o.VMap = &p.vmap
	}
	if f.Changed("colormap") {
		o.ColorMap = &p.colormap
	}
	if f.Changed("vmin") {
		o.NormMin, o.NormMax = &p.normMin, &p.normMax
	}
	if f.Changed("colorbar") {
		o.ColorBar = &p.colorbar
	}
	if f.Changed("format") {
		o.Format = &p.format
	}
	if f.Changed("output-dir") {
		o.OutputDir = &p.outputDir
	}
	if f.Changed("width") {
		o.Width = &p.width
	}
	if f.Changed("workers") {
		o.Workers = &p.workers
	}
	cfg := base.Merge(o)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// stations builds the selected stations with their cell values.
func (a *app) stations(cmd *cobra.Command, sel *selection, cfg *config.PlotConfig) ([]*geometry.Station, error) {
	ctx := cmd.Context()
	g, err := a.loadGeometry()
	if err != nil {
		return nil, err
	}

	opts := []geometry.Option{geometry.WithLogger(a.log)}
	if sel.cellInfo != "" {
		infos, err := geometry.LoadCellInfo(a.fsys, sel.cellInfo)
		if err != nil {
			return nil, err
		}
		opts = append(opts, geometry.WithCellInfo(infos))
	}

	var keys []geometry.ChamberKey
	switch {
	case sel.single(cmd):
		keys = []geometry.ChamberKey{{Wheel: sel.wheel, Sector: sel.sector, Station: sel.station}}
	case cmd.Flags().Changed("wheel"):
		keys = geometry.WheelKeys(g, sel.wheel)
		if len(keys) == 0 {
			return nil, fmt.Errorf("%w: no chambers in wheel %d", geometry.ErrNotFound, sel.wheel)
		}
	case sel.event != "":
		// keys come from the event below
	default:
		return nil, errors.New("select a station with --wheel, --sector and --station, or a whole wheel with --wheel")
	}

	if sel.event == "" {
		return a.build(cmd, g, keys, cfg, opts)
	}

	store, err := a.openDB(false)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	if keys == nil {
		if keys, err = store.Chambers(ctx, sel.event); err != nil {
			return nil, err
		}
		if len(keys) == 0 {
			return nil, fmt.Errorf("event %s has no hits", sel.event)
		}
	}
	stations, err := a.build(cmd, g, keys, cfg, opts)
	if err != nil {
		return nil, err
	}
	for _, st := range stations {
		infos, err := store.CellInfoFor(ctx, sel.event, st.Key())
		if err != nil {
			return nil, err
		}
		n := st.SetCellInfo(infos)
		a.log.Debug("applied event hits", zap.Stringer("chamber", st.Key()), zap.Int("cells", n))
	}
	return stations, nil
}

func (a *app) build(cmd *cobra.Command, g *geometry.Geometry, keys []geometry.ChamberKey, cfg *config.PlotConfig, opts []geometry.Option) ([]*geometry.Station, error) {
	stations, err := geometry.BuildStations(cmd.Context(), g, keys, cfg.GetWorkers(), opts...)
	if err != nil {
		return nil, err
	}
	tol := cfg.GetValidateTolerance()
	for _, st := range stations {
		if err := st.Validate(tol); err != nil {
			a.log.Warn("station geometry is inconsistent", zap.Stringer("chamber", st.Key()), zap.Error(err))
		}
	}
	return stations, nil
}

// stationPatches draws every station with the config options. Without a
// fixed color range, all patches share the range of their combined
// values.
func stationPatches(stations []*geometry.Station, cfg *config.PlotConfig) ([]*patches.StationPatch, error) {
	opts, err := cfg.StationOptions()
	if err != nil {
		return nil, err
	}
	sps := make([]*patches.StationPatch, 0, len(stations))
	var values []float64
	for _, st := range stations {
		sp, err := patches.NewStationPatch(st, opts)
		if err != nil {
			return nil, err
		}
		sps = append(sps, sp)
		values = append(values, sp.Cells().Values...)
	}
	if cfg.GetNorm() == nil && len(sps) > 1 {
		n := patches.AutoNorm(values)
		for _, sp := range sps {
			sp.Cells().Style.Norm = &n
		}
	}
	return sps, nil
}

// axisLabels names the drawn axes of a view.
func axisLabels(view patches.View, global bool) (x, y string) {
	switch {
	case global && view == patches.EtaView:
		return "Z (cm)", "R (cm)"
	case global:
		return "X (cm)", "Y (cm)"
	case view == patches.EtaView:
		return "y (cm)", "z (cm)"
	}
	return "x (cm)", "z (cm)"
}
