package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/banshee-data/dtplot/internal/config"
	"github.com/banshee-data/dtplot/internal/db"
	"github.com/banshee-data/dtplot/internal/fsutil"
	"github.com/banshee-data/dtplot/internal/geometry"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// app holds the state shared by every command.
type app struct {
	fsys fsutil.FileSystem
	log  *zap.Logger
	now  func() time.Time

	verbose    bool
	envFile    string
	geometry   string
	configPath string
	dbPath     string
}

func newApp() *app {
	return &app{fsys: fsutil.OSFileSystem{}, now: time.Now}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "dtplot",
		Short: "Draw CMS drift tube chambers",
		Long: `dtplot reads the DT geometry description and draws stations, super layers,
layers and drift cells in the local station frame or in the global CMS frame,
optionally coloring cells by per-cell values from a file or the hits database.

Defaults for --geometry, --config and --db are read from DTPLOT_GEOMETRY,
DTPLOT_CONFIG and DTPLOT_DB, which may also be set in a .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")
	pf.StringVar(&a.envFile, "env-file", ".env", "Environment file with DTPLOT_* defaults")
	pf.StringVarP(&a.geometry, "geometry", "g", "", "DT geometry XML file (or set DTPLOT_GEOMETRY)")
	pf.StringVarP(&a.configPath, "config", "c", "", "Plot config JSON file (or set DTPLOT_CONFIG)")
	pf.StringVar(&a.dbPath, "db", "", "Hits database file (or set DTPLOT_DB)")

	root.AddCommand(newDrawCmd(a))
	root.AddCommand(newInspectCmd(a))
	root.AddCommand(newHTMLCmd(a))
	root.AddCommand(newHitsCmd(a))
	root.AddCommand(newMigrateCmd(a))
	root.AddCommand(newVersionCmd())
	return root
}

// setup loads the environment file, fills unset flags from the
// environment and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", a.envFile, err)
	}
	envDefault(cmd, "geometry", "DTPLOT_GEOMETRY", &a.geometry)
	envDefault(cmd, "config", "DTPLOT_CONFIG", &a.configPath)
	envDefault(cmd, "db", "DTPLOT_DB", &a.dbPath)

	if a.log != nil {
		return nil
	}
	cfg := zap.NewProductionConfig()
	if a.verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.log = l
	return nil
}

func envDefault(cmd *cobra.Command, flag, env string, dst *string) {
	if f := cmd.Flag(flag); f != nil && f.Changed {
		return
	}
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

func (a *app) loadConfig() (*config.PlotConfig, error) {
	if a.configPath == "" {
		return config.EmptyPlotConfig(), nil
	}
	return config.LoadPlotConfig(a.fsys, a.configPath)
}

func (a *app) loadGeometry() (*geometry.Geometry, error) {
	if a.geometry == "" {
		return nil, errors.New("no geometry file: use --geometry or set DTPLOT_GEOMETRY")
	}
	g, err := geometry.LoadGeometry(a.fsys, a.geometry)
	if err != nil {
		return nil, err
	}
	a.log.Debug("loaded geometry", zap.String("path", a.geometry), zap.Int("chambers", len(g.Chambers())))
	return g, nil
}

// openDB opens the hits database, migrating it unless raw is set.
func (a *app) openDB(raw bool) (*db.DB, error) {
	if a.dbPath == "" {
		return nil, errors.New("no database: use --db or set DTPLOT_DB")
	}
	if raw {
		return db.OpenDB(a.dbPath, db.WithLogger(a.log))
	}
	return db.NewDB(a.dbPath, db.WithLogger(a.log))
}
