package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/banshee-data/dtplot/internal/fsutil"
	"github.com/banshee-data/dtplot/internal/geometry"
	"github.com/banshee-data/dtplot/internal/patches"
	"github.com/banshee-data/dtplot/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var fixedNow = time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)

const stamp = "20260102_120000"

func testApp(t *testing.T, chambers ...testutil.Chamber) (*app, *fsutil.MemoryFileSystem) {
	t.Helper()
	for _, env := range []string{"DTPLOT_GEOMETRY", "DTPLOT_CONFIG", "DTPLOT_DB"} {
		t.Setenv(env, "")
		os.Unsetenv(env)
	}
	fsys := fsutil.NewMemoryFileSystem()
	testutil.WriteGeometry(fsys, "geom.xml", chambers...)
	return &app{
		fsys: fsys,
		log:  zaptest.NewLogger(t),
		now:  func() time.Time { return fixedNow },
	}, fsys
}

func runCLI(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(a)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	a, _ := testApp(t)
	out, err := runCLI(t, a, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "dtplot dev")
}

func TestDrawSingleStation(t *testing.T) {
	a, fsys := testApp(t)
	out, err := runCLI(t, a, "draw", "-g", "geom.xml", "--wheel=-2", "--sector", "1", "--station", "1",
		"--format", "svg", "--output-dir", "out")
	require.NoError(t, err)

	want := filepath.Join("out", "dtplot_"+stamp, "wh-2_sec01_st1_phi.svg")
	assert.Equal(t, want+"\n", out)
	data, err := fsys.ReadFile(want)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
	assert.Contains(t, string(data), "Wheel -2, Sector 1, Station 1")
}

func TestDrawWheel(t *testing.T) {
	chambers := []testutil.Chamber{{Wheel: 1, Sector: 5, Station: 1}, {Wheel: 1, Sector: 6, Station: 1}, {Wheel: 2, Sector: 2, Station: 1}}

	t.Run("local", func(t *testing.T) {
		a, fsys := testApp(t, chambers...)
		_, err := runCLI(t, a, "draw", "-g", "geom.xml", "--wheel", "1", "--view", "eta", "--format", "svg", "--output-dir", "out")
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join("out", "dtplot_"+stamp, "wh1_sec05_st1_eta.svg"),
			filepath.Join("out", "dtplot_"+stamp, "wh1_sec06_st1_eta.svg"),
		}, fsys.Files("out"))
	})

	t.Run("global", func(t *testing.T) {
		a, fsys := testApp(t, chambers...)
		out, err := runCLI(t, a, "draw", "-g", "geom.xml", "--wheel", "1", "--global", "--format", "svg", "--output-dir", "out")
		require.NoError(t, err)
		want := filepath.Join("out", "dtplot_"+stamp, "global_phi.svg")
		assert.Equal(t, want+"\n", out)
		assert.Equal(t, []string{want}, fsys.Files("out"))
	})

	t.Run("empty wheel", func(t *testing.T) {
		a, _ := testApp(t, chambers...)
		_, err := runCLI(t, a, "draw", "-g", "geom.xml", "--wheel=-1")
		assert.ErrorIs(t, err, geometry.ErrNotFound)
	})
}

func TestDrawCellInfoWithColorBar(t *testing.T) {
	a, fsys := testApp(t)
	fsys.WriteFile("runs/run1.yaml", []byte(`
- {sl: 1, l: 1, w: 1, time: 120}
- {sl: 1, l: 2, w: 3, time: 380, adc: 7}
- {sl: 3, l: 9, w: 1, time: 50}
`))
	out, err := runCLI(t, a, "draw", "-g", "geom.xml", "--wheel", "0", "--sector", "4", "--station", "2",
		"--cellinfo", "runs/run1.yaml", "--colorbar", "--vmin", "100", "--vmax", "400", "--format", "png", "--output-dir", "out")
	require.NoError(t, err)

	dir := filepath.Join("out", "run1", stamp)
	lines := strings.Fields(out)
	assert.Equal(t, []string{
		filepath.Join(dir, "wh0_sec04_st2_phi.png"),
		filepath.Join(dir, "wh0_sec04_st2_phi_colorbar.png"),
	}, lines)
	for _, p := range lines {
		assert.True(t, fsys.Exists(p), p)
	}
}

func TestDrawOutAndConfig(t *testing.T) {
	a, fsys := testApp(t)
	fsys.WriteFile("cfg.json", []byte(`{"view": "eta", "colormap": "heat", "width": 3}`))

	_, err := runCLI(t, a, "draw", "-g", "geom.xml", "-c", "cfg.json", "--wheel", "2", "--sector", "2", "--station", "1", "-o", "figs/mb1.pdf")
	require.NoError(t, err)
	data, err := fsys.ReadFile("figs/mb1.pdf")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestDrawSegments(t *testing.T) {
	a, fsys := testApp(t)
	fsys.WriteFile("segs.json", []byte(`[
  {"index": 1, "x": -3, "y": 0, "z": 0, "phi": 10, "theta": 0, "kind": "HH"},
  {"index": 2, "x": 4, "y": 0, "z": 0, "phi": -5, "theta": 0, "kind": "HL"}
]`))

	_, err := runCLI(t, a, "draw", "-g", "geom.xml", "--wheel=-2", "--sector", "1", "--station", "1",
		"--segments", "segs.json", "--group-by", "kind", "-o", "segs.svg")
	require.NoError(t, err)
	data, err := fsys.ReadFile("segs.svg")
	require.NoError(t, err)
	assert.Contains(t, string(data), "kind=HH")
	assert.Contains(t, string(data), "kind=HL")

	_, err = runCLI(t, a, "draw", "-g", "geom.xml", "--wheel=-2", "--sector", "1", "--station", "1",
		"--segments", "segs.json", "--view", "eta", "-o", "eta.svg")
	assert.ErrorIs(t, err, patches.ErrUnsupportedView)
}

func TestDrawErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no geometry", []string{"draw", "--wheel", "0"}, "no geometry file"},
		{"no selection", []string{"draw", "-g", "geom.xml"}, "select a station"},
		{"sector alone", []string{"draw", "-g", "geom.xml", "--sector", "1"}, "station"},
		{"unknown station", []string{"draw", "-g", "geom.xml", "--wheel", "2", "--sector", "9", "--station", "3"}, "not found"},
		{"bad view", []string{"draw", "-g", "geom.xml", "--wheel", "0", "--view", "rho"}, "rho"},
		{"bad format", []string{"draw", "-g", "geom.xml", "--wheel", "0", "--format", "gif"}, "unsupported output format"},
		{"both sources", []string{"draw", "-g", "geom.xml", "--wheel", "0", "--cellinfo", "a.json", "--event", "x"}, "cellinfo"},
		{"out for many", []string{"draw", "-g", "geom.xml", "--wheel", "0", "-o", "x.png"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := testApp(t, testutil.Chamber{Wheel: 0, Sector: 4, Station: 2}, testutil.Chamber{Wheel: 0, Sector: 5, Station: 1})
			_, err := runCLI(t, a, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestInspect(t *testing.T) {
	a, fsys := testApp(t)
	fsys.WriteFile("info.json", []byte(`[{"sl": 2, "l": 1, "w": 3, "time": 42}]`))

	out, err := runCLI(t, a, "inspect", "-g", "geom.xml", "--wheel=-2", "--sector", "1", "--station", "1",
		"--cells", "--validate", "--cellinfo", "info.json")
	require.NoError(t, err)
	assert.Contains(t, out, "Wheel -2, Sector 1, Station 1 (rawId 1011000)")
	assert.Contains(t, out, "SL2 (rawId 1011200)")
	assert.Contains(t, out, "L4 (rawId 1011340) wires 1-6")
	assert.Contains(t, out, "W3 local")
	assert.Contains(t, out, "time=42")
	assert.Contains(t, out, "geometry ok")

	_, err = runCLI(t, a, "inspect", "-g", "geom.xml", "--wheel", "1")
	assert.Error(t, err)
}

func TestEnvFileDefaults(t *testing.T) {
	a, _ := testApp(t)
	env := filepath.Join(t.TempDir(), "dtplot.env")
	require.NoError(t, os.WriteFile(env, []byte("DTPLOT_GEOMETRY=geom.xml\n"), 0o644))

	cmd := newRootCmd(a)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--env-file", env, "inspect", "--wheel", "1", "--sector", "5", "--station", "1"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Wheel 1, Sector 5, Station 1")
	assert.Equal(t, "geom.xml", a.geometry)
}

func TestHitsAndEvents(t *testing.T) {
	a, fsys := testApp(t)
	dbPath := filepath.Join(t.TempDir(), "hits.db")
	fsys.WriteFile("event.yaml", []byte(`
- {wheel: -2, sector: 1, station: 1, sl: 1, l: 1, w: 2, time: 300}
- {wheel: 1, sector: 5, station: 1, sl: 3, l: 4, w: 6, time: 90}
`))

	out, err := runCLI(t, a, "--db", dbPath, "hits", "import", "event.yaml", "--label", "cosmic")
	require.NoError(t, err)
	id := strings.TrimSpace(out)
	require.Len(t, id, 36)

	out, err = runCLI(t, a, "--db", dbPath, "hits", "list")
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "2 cells")
	assert.Contains(t, out, "cosmic")

	out, err = runCLI(t, a, "--db", dbPath, "draw", "-g", "geom.xml", "--event", id, "--global", "--format", "svg", "--output-dir", "out")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("out", "event_"+id, stamp, "global_phi.svg")+"\n", out)

	_, err = runCLI(t, a, "--db", dbPath, "html", "-g", "geom.xml", "--event", id, "-o", "event.html")
	require.NoError(t, err)
	html, err := fsys.ReadFile("event.html")
	require.NoError(t, err)
	assert.Contains(t, string(html), "Wh:1 St:1 Se:5 SL3 L4 W6")

	out, err = runCLI(t, a, "--db", dbPath, "hits", "delete", id)
	require.NoError(t, err)
	assert.Contains(t, out, "deleted "+id)

	out, err = runCLI(t, a, "--db", dbPath, "hits", "list")
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = runCLI(t, a, "hits", "list")
	assert.ErrorContains(t, err, "no database")

	fsys.WriteFile("bad.yaml", []byte("- {sector: 1, station: 1, sl: 1, l: 1, w: 1}\n"))
	_, err = runCLI(t, a, "--db", dbPath, "hits", "import", "bad.yaml")
	assert.ErrorContains(t, err, `missing "wheel"`)
}

func TestMigrateCmd(t *testing.T) {
	a, _ := testApp(t)
	dbPath := filepath.Join(t.TempDir(), "m.db")

	steps := []struct {
		args []string
		want string
	}{
		{[]string{"version"}, "version 0 (dirty: false)"},
		{[]string{"up"}, "version 2 (dirty: false)"},
		{[]string{"down"}, "version 1 (dirty: false)"},
		{[]string{"to", "2"}, "version 2 (dirty: false)"},
		{[]string{"force", "1"}, "version 1 (dirty: false)"},
	}
	for _, s := range steps {
		out, err := runCLI(t, a, append([]string{"--db", dbPath, "migrate"}, s.args...)...)
		require.NoError(t, err, s.args)
		assert.Equal(t, s.want+"\n", out, s.args)
	}

	_, err := runCLI(t, a, "--db", dbPath, "migrate", "to", "two")
	assert.ErrorContains(t, err, "invalid version number")
}

func TestHTMLCmd(t *testing.T) {
	a, fsys := testApp(t)
	out, err := runCLI(t, a, "html", "-g", "geom.xml", "--wheel=-2", "--sector", "1", "--station", "1", "--output-dir", "out")
	require.NoError(t, err)

	want := filepath.Join("out", "dtplot_"+stamp, "cells_phi.html")
	assert.Equal(t, want+"\n", out)
	data, err := fsys.ReadFile(want)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Wh:-2 St:1 Se:1 SL1 L1 W1")
}
