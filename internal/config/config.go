package config

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wegman-software/osm2raster-go/internal/grid"
	"github.com/wegman-software/osm2raster-go/internal/layer"
)

// Config holds the settings of one rasterisation job
type Config struct {
	// Input settings. Without an input file only the elevation image of
	// GridFile is written.
	InputFile string `yaml:"input"`
	PBFProcs  int    `yaml:"pbf_procs"` // decoder goroutines per PBF pass
	Progress  bool   `yaml:"progress"`  // byte progress bar while reading

	// Grid settings. GridFile, when set, takes precedence over Grid.
	Grid      grid.Params `yaml:"grid"`
	GridFile  string      `yaml:"grid_file"` // ESRI ASCII grid whose header defines the raster
	GridScale int         `yaml:"grid_scale"`

	// Output settings
	OutputDir string   `yaml:"output_dir"`
	Layers    []string `yaml:"layers"`

	// Processing settings
	Workers int `yaml:"workers"` // layers rendered concurrently

	// Logging and metrics
	Verbose         bool          `yaml:"verbose"`
	LogFile         string        `yaml:"log_file"`
	MetricsInterval time.Duration `yaml:"metrics_interval"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		PBFProcs:        runtime.NumCPU(),
		GridScale:       1,
		OutputDir:       ".",
		Workers:         1,
		MetricsInterval: 30 * time.Second,
	}
}

// MergeFile overwrites the fields present in a YAML job file
func (c *Config) MergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config YAML: %w", err)
	}
	return nil
}

// GridParams returns the grid of the job, reading the grid file header
// when one is configured
func (c *Config) GridParams() (grid.Params, error) {
	if c.GridFile != "" {
		return grid.ReadASCHeaderFile(c.GridFile, c.GridScale)
	}
	return c.Grid, c.Grid.Validate()
}

// LayerNames returns the validated layer selection
func (c *Config) LayerNames() ([]layer.Name, error) {
	return layer.ParseNames(c.Layers)
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.InputFile == "" && c.GridFile == "" {
		return fmt.Errorf("input file is required unless a grid file is given")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	if c.GridScale < 1 {
		return fmt.Errorf("grid scale must be at least 1")
	}
	if c.GridFile == "" {
		if err := c.Grid.Validate(); err != nil {
			return fmt.Errorf("grid: %w (set the grid parameters or a grid file)", err)
		}
	}
	if _, err := c.LayerNames(); err != nil {
		return err
	}
	return nil
}
