package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/raykavin/pricechart/pkg/config"
	"github.com/raykavin/pricechart/pkg/core"
	"github.com/raykavin/pricechart/pkg/logger"
	"github.com/raykavin/pricechart/pkg/logger/zerolog"
	"github.com/raykavin/pricechart/pkg/storage"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const timeLayout = "2006-01-02 15:04:05"

// Global flags
var (
	configFile string
	logLevel   string
)

// Loaded once the command line is parsed
var (
	cfg *config.Config
	log logger.Logger
)

func main() {
	// Create root command
	rootCmd := &cobra.Command{
		Use:               "pricechart",
		Short:             "Daily price charts with volume and prediction overlays",
		Version:           "1.0.0",
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "pricechart.yaml", "Configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")

	// Add commands
	rootCmd.AddCommand(
		buildRenderCmd(),
		buildInspectCmd(),
		buildImportCmd(),
		buildServeCmd(),
	)

	// Execute
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setup(_ *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(configFile)
	if err != nil {
		return err
	}

	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	log, err = zerolog.New(zerolog.Options{
		Level:      cfg.Log.Level,
		TimeLayout: timeLayout,
		Colored:    true,
		JSON:       cfg.Log.JSON,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	return err
}

// openStore opens the configured batch store
func openStore() (storage.Store, error) {
	if dir := filepath.Dir(cfg.Store.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	switch cfg.Store.Driver {
	case "sqlite":
		return storage.FromSQL(sqlite.Open(cfg.Store.Path), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
	default:
		return storage.FromFile(cfg.Store.Path, log)
	}
}

// chartFlags are the chart settings every drawing command accepts
type chartFlags struct {
	kind   string
	window string
	theme  string
	height int
}

func (f *chartFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.kind, "kind", "k", "", "Chart kind (candlestick, line, area)")
	cmd.Flags().StringVarP(&f.window, "range", "r", "", "Time range (1D, 5D, 1M, 6M, 1Y, 2Y)")
	cmd.Flags().StringVar(&f.theme, "theme", "", "Color theme (dark, light)")
	cmd.Flags().IntVar(&f.height, "height", 0, "Chart height in pixels")
}

// resolve overrides the configured chart defaults with the flags that were set
func (f *chartFlags) resolve() (core.ChartConfiguration, error) {
	chart := cfg.Chart

	if f.kind != "" {
		kind, err := core.ParseChartKind(f.kind)
		if err != nil {
			return chart, err
		}
		chart.ChartKind = kind
	}

	if f.window != "" {
		window, err := core.ParseTimeRange(f.window)
		if err != nil {
			return chart, err
		}
		chart.TimeRange = window
	}

	if f.theme != "" {
		theme, err := core.ParseTheme(f.theme)
		if err != nil {
			return chart, err
		}
		chart.Theme = theme
	}

	if f.height > 0 {
		chart.HeightPx = f.height
	}

	return chart, chart.Validate()
}

// symbolOf derives a symbol from a file name such as data/gp.csv
func symbolOf(path string) string {
	base := filepath.Base(path)
	return strings.ToUpper(strings.TrimSuffix(base, filepath.Ext(base)))
}
