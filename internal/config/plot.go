package config

import (
	"encoding/json"
	"fmt"
	"image/color"
	"path/filepath"

	"github.com/banshee-data/dtplot/internal/fsutil"
	"github.com/banshee-data/dtplot/internal/patches"
	"github.com/banshee-data/dtplot/internal/render"
	"gonum.org/v1/plot/vg"
)

// DefaultConfigPath is the path to the canonical plot defaults file.
const DefaultConfigPath = "config/dtplot.defaults.json"

const maxFileSize = 1 * 1024 * 1024 // 1MB

// PlotConfig holds the drawing settings. Unset fields fall back to the
// defaults of the Get* methods, so partial configs are safe.
type PlotConfig struct {
	// Drawing
	View     *string `json:"view,omitempty"` // "phi" or "eta"
	Global   *bool   `json:"global,omitempty"`
	Inverted *bool   `json:"inverted,omitempty"`
	VMap     *string `json:"vmap,omitempty"`

	// Color mapping
	ColorMap *string  `json:"colormap,omitempty"`
	NormMin  *float64 `json:"norm_min,omitempty"`
	NormMax  *float64 `json:"norm_max,omitempty"`
	Clip     *bool    `json:"clip,omitempty"`
	ColorBar *bool    `json:"colorbar,omitempty"`

	// Styles
	CellEdgeColor   *string  `json:"cell_edge_color,omitempty"`
	CellFillColor   *string  `json:"cell_fill_color,omitempty"`
	BoundsEdgeColor *string  `json:"bounds_edge_color,omitempty"`
	LineWidth       *float64 `json:"line_width,omitempty"` // points

	// Output
	Format    *string  `json:"format,omitempty"`
	OutputDir *string  `json:"output_dir,omitempty"`
	Width     *float64 `json:"width,omitempty"` // inches

	// Processing
	Workers           *int     `json:"workers,omitempty"`
	ValidateTolerance *float64 `json:"validate_tolerance,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyPlotConfig returns a PlotConfig with all fields set to nil.
func EmptyPlotConfig() *PlotConfig {
	return &PlotConfig{}
}

// LoadPlotConfig loads a PlotConfig from a JSON file.
func LoadPlotConfig(fsys fsutil.FileSystem, path string) (*PlotConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	data, err := fsys.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if len(data) > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", len(data), maxFileSize)
	}

	cfg := EmptyPlotConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Merge returns c with every field set in o overriding it.
func (c *PlotConfig) Merge(o *PlotConfig) *PlotConfig {
	out := *c
	if o == nil {
		return &out
	}
	if o.View != nil {
		out.View = o.View
	}
	if o.Global != nil {
		out.Global = o.Global
	}
	if o.Inverted != nil {
		out.Inverted = o.Inverted
	}
	if o.VMap != nil {
		out.VMap = o.VMap
	}
	if o.ColorMap != nil {
		out.ColorMap = o.ColorMap
	}
	if o.NormMin != nil {
		out.NormMin = o.NormMin
	}
	if o.NormMax != nil {
		out.NormMax = o.NormMax
	}
	if o.Clip != nil {
		out.Clip = o.Clip
	}
	if o.ColorBar != nil {
		out.ColorBar = o.ColorBar
	}
	if o.CellEdgeColor != nil {
		out.CellEdgeColor = o.CellEdgeColor
	}
	if o.CellFillColor != nil {
		out.CellFillColor = o.CellFillColor
	}
	if o.BoundsEdgeColor != nil {
		out.BoundsEdgeColor = o.BoundsEdgeColor
	}
	if o.LineWidth != nil {
		out.LineWidth = o.LineWidth
	}
	if o.Format != nil {
		out.Format = o.Format
	}
	if o.OutputDir != nil {
		out.OutputDir = o.OutputDir
	}
	if o.Width != nil {
		out.Width = o.Width
	}
	if o.Workers != nil {
		out.Workers = o.Workers
	}
	if o.ValidateTolerance != nil {
		out.ValidateTolerance = o.ValidateTolerance
	}
	return &out
}

// Validate checks that the configuration values are valid.
func (c *PlotConfig) Validate() error {
	if c.View != nil {
		if _, err := patches.ParseView(*c.View); err != nil {
			return err
		}
	}
	if c.ColorMap != nil {
		if _, err := patches.ColorMapByName(*c.ColorMap); err != nil {
			return err
		}
	}
	if (c.NormMin == nil) != (c.NormMax == nil) {
		return fmt.Errorf("norm_min and norm_max must be set together")
	}
	if c.NormMin != nil && *c.NormMin >= *c.NormMax {
		return fmt.Errorf("norm_min %g must be below norm_max %g", *c.NormMin, *c.NormMax)
	}
	for name, v := range map[string]*string{
		"cell_edge_color":   c.CellEdgeColor,
		"cell_fill_color":   c.CellFillColor,
		"bounds_edge_color": c.BoundsEdgeColor,
	} {
		if v == nil {
			continue
		}
		if _, err := patches.ParseColor(*v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	if c.LineWidth != nil && *c.LineWidth < 0 {
		return fmt.Errorf("line_width must be non-negative, got %f", *c.LineWidth)
	}
	if c.Format != nil {
		if _, err := render.Format("x." + *c.Format); err != nil {
			return err
		}
	}
	if c.Width != nil && *c.Width <= 0 {
		return fmt.Errorf("width must be positive, got %f", *c.Width)
	}
	if c.Workers != nil && *c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", *c.Workers)
	}
	if c.ValidateTolerance != nil && *c.ValidateTolerance < 0 {
		return fmt.Errorf("validate_tolerance must be non-negative, got %f", *c.ValidateTolerance)
	}
	return nil
}

// GetView returns the view or the default.
func (c *PlotConfig) GetView() patches.View {
	if c.View == nil {
		return patches.PhiView
	}
	v, err := patches.ParseView(*c.View)
	if err != nil {
		return patches.PhiView
	}
	return v
}

// GetGlobal returns the global value or the default.
func (c *PlotConfig) GetGlobal() bool {
	if c.Global == nil {
		return false
	}
	return *c.Global
}

// GetInverted returns the inverted value or the default.
func (c *PlotConfig) GetInverted() bool {
	if c.Inverted == nil {
		return false
	}
	return *c.Inverted
}

// GetVMap returns the mapped cell annotation or the default.
func (c *PlotConfig) GetVMap() string {
	if c.VMap == nil || *c.VMap == "" {
		return "time"
	}
	return *c.VMap
}

// GetColorMap returns the colormap name or the default.
func (c *PlotConfig) GetColorMap() string {
	if c.ColorMap == nil {
		return "viridis"
	}
	return *c.ColorMap
}

// GetNorm returns the fixed color normalization, or nil when the range
// follows the data.
func (c *PlotConfig) GetNorm() *patches.Norm {
	if c.NormMin == nil || c.NormMax == nil {
		return nil
	}
	return &patches.Norm{Min: *c.NormMin, Max: *c.NormMax, Clip: c.GetClip()}
}

// GetClip returns the clip value or the default.
func (c *PlotConfig) GetClip() bool {
	if c.Clip == nil {
		return true
	}
	return *c.Clip
}

// GetColorBar returns the colorbar value or the default.
func (c *PlotConfig) GetColorBar() bool {
	if c.ColorBar == nil {
		return false
	}
	return *c.ColorBar
}

func colorOr(s *string, def color.Color) color.Color {
	if s == nil {
		return def
	}
	col, err := patches.ParseColor(*s)
	if err != nil {
		return def
	}
	return col
}

// GetLineWidth returns the outline width or the default.
func (c *PlotConfig) GetLineWidth() vg.Length {
	if c.LineWidth == nil {
		return vg.Points(0.5)
	}
	return vg.Points(*c.LineWidth)
}

// CellsStyle builds the style of the cell patches.
func (c *PlotConfig) CellsStyle() (patches.Style, error) {
	s := patches.Style{
		Edge:      colorOr(c.CellEdgeColor, color.Gray{Y: 0x80}),
		Fill:      colorOr(c.CellFillColor, nil),
		LineWidth: c.GetLineWidth(),
		Norm:      c.GetNorm(),
	}
	cm, err := patches.ColorMapByName(c.GetColorMap())
	if err != nil {
		return patches.Style{}, err
	}
	s.ColorMap = cm
	return s, nil
}

// BoundsStyle builds the style of the station and super layer outlines.
func (c *PlotConfig) BoundsStyle() patches.Style {
	return patches.Style{
		Edge:      colorOr(c.BoundsEdgeColor, color.Black),
		LineWidth: c.GetLineWidth(),
	}
}

// StationOptions assembles the station drawing options.
func (c *PlotConfig) StationOptions() (patches.Options, error) {
	cells, err := c.CellsStyle()
	if err != nil {
		return patches.Options{}, err
	}
	return patches.Options{
		View:        c.GetView(),
		Global:      c.GetGlobal(),
		Inverted:    c.GetInverted(),
		VMap:        c.GetVMap(),
		BoundsStyle: c.BoundsStyle(),
		CellsStyle:  cells,
	}, nil
}

// GetFormat returns the output format or the default.
func (c *PlotConfig) GetFormat() string {
	if c.Format == nil {
		return "png"
	}
	return *c.Format
}

// GetOutputDir returns the output directory or the default.
func (c *PlotConfig) GetOutputDir() string {
	if c.OutputDir == nil || *c.OutputDir == "" {
		return "plots"
	}
	return *c.OutputDir
}

// GetWidth returns the figure width or the default.
func (c *PlotConfig) GetWidth() vg.Length {
	if c.Width == nil {
		return 6 * vg.Inch
	}
	return vg.Length(*c.Width) * vg.Inch
}

// GetWorkers returns the station build concurrency or the default.
func (c *PlotConfig) GetWorkers() int {
	if c.Workers == nil {
		return 4
	}
	return *c.Workers
}

// GetValidateTolerance returns the geometry check tolerance or the default.
func (c *PlotConfig) GetValidateTolerance() float64 {
	if c.ValidateTolerance == nil {
		return 1e-3
	}
	return *c.ValidateTolerance
}
