package render

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/banshee-data/dtplot/internal/geometry"
)

// FormatTimestamp generates a timestamp string for directory naming.
func FormatTimestamp(t time.Time) string {
	return t.Format("20060102_150405")
}

// MakeOutputDir returns a timestamped output directory for plots.
// For an input file: <base>/<file basename>/<timestamp>
// Otherwise: <base>/dtplot_<timestamp>
func MakeOutputDir(baseDir, inputFile string, now time.Time) string {
	ts := FormatTimestamp(now)
	if inputFile != "" {
		base := filepath.Base(inputFile)
		name := strings.TrimSuffix(base, filepath.Ext(base))
		return filepath.Join(baseDir, name, ts)
	}
	return filepath.Join(baseDir, "dtplot_"+ts)
}

// StationFileName names the output file of one station drawing,
// e.g. "wh-2_sec01_st1_phi.png".
func StationFileName(k geometry.ChamberKey, view, ext string) string {
	return fmt.Sprintf("wh%d_sec%02d_st%d_%s.%s", k.Wheel, k.Sector, k.Station, view, strings.TrimPrefix(ext, "."))
}
