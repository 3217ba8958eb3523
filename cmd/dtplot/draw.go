package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/banshee-data/dtplot/internal/config"
	"github.com/banshee-data/dtplot/internal/geometry"
	"github.com/banshee-data/dtplot/internal/patches"
	"github.com/banshee-data/dtplot/internal/render"
	"github.com/banshee-data/dtplot/internal/segments"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type drawOptions struct {
	sel      selection
	plot     plotFlags
	out      string
	segments string
	groupBy  []string
}

func newDrawCmd(a *app) *cobra.Command {
	var o drawOptions
	cmd := &cobra.Command{
		Use:   "draw",
		Short: "Draw one station or a whole wheel",
		Long: `Draws the station and super layer outlines and the drift cells of the
selected stations. Local views write one figure per station; global views
draw every station in one figure.

Examples:
  dtplot draw --wheel=-2 --sector 1 --station 1 --cellinfo hits.json
  dtplot draw --wheel 0 --global --view eta --format svg
  dtplot draw --event 5b2f... --global --colorbar`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDraw(cmd, &o)
		},
	}
	o.sel.register(cmd)
	o.plot.register(cmd)
	cmd.Flags().StringVarP(&o.out, "out", "o", "", "Output file for a single figure (format from extension)")
	cmd.Flags().StringVar(&o.segments, "segments", "", "JSON or YAML file of segments to overlay on a single station")
	cmd.Flags().StringSliceVar(&o.groupBy, "group-by", nil, "Segment fields that split segments into colored groups")
	return cmd
}

// figureJob is one figure to write.
type figureJob struct {
	title string
	sps   []*patches.StationPatch
	path  string
}

func (a *app) runDraw(cmd *cobra.Command, o *drawOptions) error {
	base, err := a.loadConfig()
	if err != nil {
		return err
	}
	cfg, err := o.plot.config(cmd, base)
	if err != nil {
		return err
	}
	stations, err := a.stations(cmd, &o.sel, cfg)
	if err != nil {
		return err
	}
	sps, err := stationPatches(stations, cfg)
	if err != nil {
		return err
	}

	view := cfg.GetView()
	format := cfg.GetFormat()
	dir := render.MakeOutputDir(cfg.GetOutputDir(), o.sel.source(), a.now())

	var jobs []figureJob
	switch {
	case cfg.GetGlobal() || len(sps) == 1:
		title := "CMS DT " + string(view) + " view"
		name := fmt.Sprintf("global_%s.%s", view, format)
		if len(sps) == 1 {
			title = stations[0].Name()
			if !cfg.GetGlobal() {
				name = render.StationFileName(stations[0].Key(), string(view), format)
			}
		}
		jobs = append(jobs, figureJob{title: title, sps: sps, path: filepath.Join(dir, name)})
	default:
		for i, sp := range sps {
			jobs = append(jobs, figureJob{
				title: stations[i].Name(),
				sps:   []*patches.StationPatch{sp},
				path:  filepath.Join(dir, render.StationFileName(stations[i].Key(), string(view), format)),
			})
		}
	}
	if o.out != "" {
		if len(jobs) != 1 {
			return fmt.Errorf("--out needs a single figure, the selection draws %d", len(jobs))
		}
		jobs[0].path = o.out
	}
	if o.segments != "" && len(stations) != 1 {
		return errors.New("--segments needs a single station")
	}

	for _, job := range jobs {
		fig := render.NewFigure(job.title, "", "")
		fig.XLabel, fig.YLabel = axisLabels(view, cfg.GetGlobal())
		for _, sp := range job.sps {
			fig.AddStation(sp)
		}
		if o.segments != "" {
			if err := a.addSegments(fig, stations[0], cfg, o); err != nil {
				return err
			}
		}
		if err := fig.Save(a.fsys, job.path, cfg.GetWidth()); err != nil {
			return err
		}
		a.log.Info("wrote figure", zap.String("path", job.path), zap.Int("stations", len(job.sps)))
		fmt.Fprintln(cmd.OutOrStdout(), job.path)

		if cfg.GetColorBar() {
			if err := a.saveColorBar(cmd, job, cfg); err != nil {
				return err
			}
		}
	}
	return nil
}

// addSegments overlays the segments of o.segments on fig, one color per
// group.
func (a *app) addSegments(fig *render.Figure, st *geometry.Station, cfg *config.PlotConfig, o *drawOptions) error {
	records, err := segments.LoadRecords(a.fsys, o.segments)
	if err != nil {
		return err
	}
	ds, err := segments.NewDTSegments(st, records)
	if err != nil {
		return err
	}
	sopts := patches.SegmentsOptions{
		View:     cfg.GetView(),
		Global:   cfg.GetGlobal(),
		Inverted: cfg.GetInverted(),
	}
	if len(o.groupBy) == 0 {
		sp, err := patches.NewSegmentsPatch(ds, sopts)
		if err != nil {
			return err
		}
		fig.Add(sp.Lines())
		return nil
	}

	groups, err := ds.GroupBy(o.groupBy...)
	if err != nil {
		return err
	}
	colors := render.DistinctColors(len(groups))
	for i, grp := range groups {
		gopts := sopts
		gopts.Style = patches.DefaultLineStyle()
		gopts.Style.Edge = colors[i]
		sp, err := patches.NewSegmentsPatch(ds.Subset(grp.Segments), gopts)
		if err != nil {
			return err
		}
		fig.Add(sp.Lines())
		fig.AddLegend(groupLabel(o.groupBy, grp.Key), sp.Lines())
	}
	return nil
}

func groupLabel(attrs []string, key []any) string {
	parts := make([]string, len(attrs))
	for i, a := range attrs {
		parts[i] = fmt.Sprintf("%s=%v", a, key[i])
	}
	return strings.Join(parts, " ")
}

func (a *app) saveColorBar(cmd *cobra.Command, job figureJob, cfg *config.PlotConfig) error {
	cm, err := patches.ColorMapByName(cfg.GetColorMap())
	if err != nil {
		return err
	}
	norm := job.sps[0].Cells().Norm()
	if n := cfg.GetNorm(); n != nil {
		norm = *n
	}
	ext := filepath.Ext(job.path)
	path := strings.TrimSuffix(job.path, ext) + "_colorbar" + ext
	if err := render.SaveColorBar(a.fsys, path, job.sps[0].VMap(), cm, norm); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
