package main

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/banshee-data/dtplot/internal/fsutil"
	"github.com/banshee-data/dtplot/internal/render"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type htmlOptions struct {
	sel        selection
	plot       plotFlags
	out        string
	assetsHost string
}

func newHTMLCmd(a *app) *cobra.Command {
	var o htmlOptions
	cmd := &cobra.Command{
		Use:   "html",
		Short: "Write an interactive cell map",
		Long: `Writes an HTML page with one marker per drawn cell, colored by the mapped
cell value. Hovering a marker shows the cell address and value.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runHTML(cmd, &o)
		},
	}
	o.sel.register(cmd)
	o.plot.register(cmd)
	cmd.Flags().StringVarP(&o.out, "out", "o", "", "Output HTML file")
	cmd.Flags().StringVar(&o.assetsHost, "assets-host", "", "Location of the echarts scripts")
	return cmd
}

func (a *app) runHTML(cmd *cobra.Command, o *htmlOptions) error {
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

	title := fmt.Sprintf("DT cells, %s view", cfg.GetView())
	if len(stations) == 1 {
		title = stations[0].Name()
	}
	var buf bytes.Buffer
	if err := render.HTMLCellMap(&buf, render.HTMLOptions{Title: title, AssetsHost: o.assetsHost}, sps...); err != nil {
		return err
	}

	path := o.out
	if path == "" {
		dir := render.MakeOutputDir(cfg.GetOutputDir(), o.sel.source(), a.now())
		path = filepath.Join(dir, fmt.Sprintf("cells_%s.html", cfg.GetView()))
	}
	if err := fsutil.WriteTo(a.fsys, path, &buf); err != nil {
		return err
	}
	a.log.Info("wrote cell map", zap.String("path", path), zap.Int("stations", len(sps)))
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
