package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/banshee-data/dtplot/internal/geometry"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"
)

type inspectOptions struct {
	sel      selection
	cells    bool
	validate bool
	tol      float64
}

func newInspectCmd(a *app) *cobra.Command {
	var o inspectOptions
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the frames of one station",
		Long: `Prints the station, super layer and layer frames of one station with their
local (station frame) and global (CMS frame) centers. --cells adds every drift
cell; --validate checks that every frame encloses its children and that the
geometry global centers match the computed transforms.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInspect(cmd, &o)
		},
	}
	o.sel.register(cmd)
	cmd.Flags().BoolVar(&o.cells, "cells", false, "Print every drift cell")
	cmd.Flags().BoolVar(&o.validate, "validate", false, "Check the station geometry")
	cmd.Flags().Float64Var(&o.tol, "tolerance", 1e-3, "Validation tolerance in cm")
	return cmd
}

func (a *app) runInspect(cmd *cobra.Command, o *inspectOptions) error {
	if !o.sel.single(cmd) {
		return errors.New("inspect needs --wheel, --sector and --station")
	}
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	stations, err := a.stations(cmd, &o.sel, cfg)
	if err != nil {
		return err
	}
	st := stations[0]
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "%s (rawId %d)\n", st.Name(), st.ID)
	printFrame(w, "", &st.Frame)
	for _, sl := range st.SuperLayers() {
		fmt.Fprintf(w, "  SL%d (rawId %d)\n", sl.Number, sl.ID)
		printFrame(w, "  ", &sl.Frame)
		for _, l := range sl.Layers() {
			first, last := l.CellRange()
			fmt.Fprintf(w, "    L%d (rawId %d) wires %d-%d\n", l.Number, l.ID, first, last)
			printFrame(w, "    ", &l.Frame)
			if !o.cells {
				continue
			}
			for _, c := range l.Cells() {
				fmt.Fprintf(w, "      W%d local %s global %s", c.Number, vec(c.LocalCenter), vec(c.GlobalCenter))
				for _, name := range c.ValueNames() {
					fmt.Fprintf(w, " %s=%g", name, c.Value(name))
				}
				fmt.Fprintln(w)
			}
		}
	}

	if o.validate {
		if err := st.Validate(o.tol); err != nil {
			return err
		}
		fmt.Fprintln(w, "geometry ok")
	}
	return nil
}

func printFrame(w io.Writer, indent string, f *geometry.Frame) {
	fmt.Fprintf(w, "%s  local %s global %s\n", indent, vec(f.LocalCenter), vec(f.GlobalCenter))
	fmt.Fprintf(w, "%s  bounds width %g height %g length %g\n", indent, f.Bounds.Width, f.Bounds.Height, f.Bounds.Length)
}

func vec(v r3.Vec) string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v.X, v.Y, v.Z)
}
