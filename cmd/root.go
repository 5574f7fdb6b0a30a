package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/wegman-software/osm2raster-go/internal/config"
	"github.com/wegman-software/osm2raster-go/internal/logger"
)

var (
	cfg        = config.DefaultConfig()
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "osm2raster-go",
	Short: "Rasterise OSM roads, waterways and buildings onto a grid",
	Long: `osm2raster-go turns OSM data into binary raster layers aligned with an
elevation grid.

Features:
  - Single forward pass per layer over OSM XML (.osm, .osm.gz, .osm.bz2) or PBF
  - Multipolygon relations with holes for river areas
  - Grid taken from flags, a YAML job file or an ESRI ASCII grid header
  - Layers written as plain PGM images`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configFile != "" {
			if err := mergeConfigFile(cmd, configFile); err != nil {
				return err
			}
		}
		logger.Init(logger.Options{Verbose: cfg.Verbose, File: cfg.LogFile})
		return nil
	},
}

// Execute runs the root command and logs the error it fails with
func Execute() error {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		logger.Get().Error("Command failed", zap.Error(err))
		return err
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML job file; flags given on the command line override it")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfg.LogFile, "log-file", "", "Path to log file for persistent logging (JSON format)")
	rootCmd.PersistentFlags().DurationVar(&cfg.MetricsInterval, "metrics-interval", cfg.MetricsInterval, "Interval for process metrics logging (e.g., 10s, 1m)")
	rootCmd.PersistentFlags().BoolVar(&cfg.Progress, "progress", false, "Show a progress bar while reading the input")
	rootCmd.PersistentFlags().IntVar(&cfg.PBFProcs, "pbf-procs", cfg.PBFProcs, "Decoder goroutines per PBF pass")
}

// flagFields copies the value behind a flag from one config to another
var flagFields = map[string]func(dst, src *config.Config){
	"verbose":          func(d, s *config.Config) { d.Verbose = s.Verbose },
	"log-file":         func(d, s *config.Config) { d.LogFile = s.LogFile },
	"metrics-interval": func(d, s *config.Config) { d.MetricsInterval = s.MetricsInterval },
	"progress":         func(d, s *config.Config) { d.Progress = s.Progress },
	"pbf-procs":        func(d, s *config.Config) { d.PBFProcs = s.PBFProcs },
	"workers":          func(d, s *config.Config) { d.Workers = s.Workers },
	"output-dir":       func(d, s *config.Config) { d.OutputDir = s.OutputDir },
	"layers":           func(d, s *config.Config) { d.Layers = s.Layers },
	"origin-lon":       func(d, s *config.Config) { d.Grid.OriginLon = s.Grid.OriginLon },
	"origin-lat":       func(d, s *config.Config) { d.Grid.OriginLat = s.Grid.OriginLat },
	"cell-size":        func(d, s *config.Config) { d.Grid.CellSize = s.Grid.CellSize },
	"width":            func(d, s *config.Config) { d.Grid.Width = s.Grid.Width },
	"height":           func(d, s *config.Config) { d.Grid.Height = s.Grid.Height },
	"grid-file":        func(d, s *config.Config) { d.GridFile = s.GridFile },
	"grid-scale":       func(d, s *config.Config) { d.GridScale = s.GridScale },
}

// mergeConfigFile loads the job file into cfg, then puts back every value
// that was set explicitly on the command line
func mergeConfigFile(cmd *cobra.Command, path string) error {
	fromFlags := *cfg
	if err := cfg.MergeFile(path); err != nil {
		return err
	}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if copyField, ok := flagFields[f.Name]; ok {
			copyField(cfg, &fromFlags)
		}
	})
	return nil
}

// since formats an elapsed time for log fields
func since(start time.Time) zap.Field {
	return zap.Duration("duration", time.Since(start).Round(time.Millisecond))
}
