package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wegman-software/osm2raster-go/internal/grid"
	"github.com/wegman-software/osm2raster-go/internal/layer"
	"github.com/wegman-software/osm2raster-go/internal/logger"
	"github.com/wegman-software/osm2raster-go/internal/metrics"
	"github.com/wegman-software/osm2raster-go/internal/pgm"
	"github.com/wegman-software/osm2raster-go/internal/source"
)

var renderCmd = &cobra.Command{
	Use:   "render [<input.osm>]",
	Short: "Render raster layers from an OSM file",
	Long: `Read the input once per layer and draw it onto the grid.

Layers:
  - roads      motorway, trunk, primary, secondary and tertiary highways
  - waterways  waterway lines plus water=river multipolygon relations
  - buildings  building and amenity ways, closed ways filled

Each layer is written to <output-dir>/<layer>.pgm with the southern row first.
With --grid-file the elevation grid is also written to heights.pgm, scaled
to 0..255; without an input file only heights.pgm is written.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	f := renderCmd.Flags()
	f.StringVarP(&cfg.OutputDir, "output-dir", "o", cfg.OutputDir, "Directory for the layer images")
	f.IntVarP(&cfg.Workers, "workers", "j", cfg.Workers, "Number of layers rendered concurrently")
	f.StringSliceVarP(&cfg.Layers, "layers", "l", nil, "Layers to render (default: all)")

	f.Float64Var(&cfg.Grid.OriginLon, "origin-lon", 0, "Longitude of the grid's lower left corner")
	f.Float64Var(&cfg.Grid.OriginLat, "origin-lat", 0, "Latitude of the grid's lower left corner")
	f.Float64Var(&cfg.Grid.CellSize, "cell-size", 0, "Cell size in degrees")
	f.IntVar(&cfg.Grid.Width, "width", 0, "Grid width in cells")
	f.IntVar(&cfg.Grid.Height, "height", 0, "Grid height in cells")
	f.StringVar(&cfg.GridFile, "grid-file", "", "ESRI ASCII elevation grid defining the raster grid, also written to heights.pgm")
	f.IntVar(&cfg.GridScale, "grid-scale", cfg.GridScale, "Raster cells per grid file cell along each axis")
}

// stopSignals cancel a running render
var stopSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

// meteredSink logs a metrics snapshot after every written layer
type meteredSink struct {
	*pgm.DirSink
	collector *metrics.Collector
}

func (s meteredSink) Write(name layer.Name, c *grid.Canvas) error {
	if err := s.DirSink.Write(name, c); err != nil {
		return err
	}
	s.collector.Log("Layer metrics", zap.String("layer", string(name)))
	return nil
}

func runRender(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		cfg.InputFile = args[0]
	}
	log := logger.Get()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	names, err := cfg.LayerNames()
	if err != nil {
		return fmt.Errorf("invalid layers: %w", err)
	}

	sink := &pgm.DirSink{Dir: cfg.OutputDir}
	start := time.Now()

	var params grid.Params
	if cfg.GridFile != "" {
		var heights *grid.Heights
		params, heights, err = grid.ReadASCFile(cfg.GridFile, cfg.GridScale)
		if err != nil {
			return fmt.Errorf("invalid grid file: %w", err)
		}
		if err := sink.WriteHeights(heights.Normalize()); err != nil {
			return err
		}
		log.Info("Wrote heights",
			zap.String("path", sink.HeightsPath()),
			zap.Int("width", heights.Width),
			zap.Int("height", heights.Height),
			since(start),
		)
	} else {
		params = cfg.Grid
	}
	if cfg.InputFile == "" {
		return nil
	}

	proj, err := grid.NewProjector(params)
	if err != nil {
		return fmt.Errorf("invalid grid: %w", err)
	}

	if cfg.Progress && cfg.Workers > 1 {
		log.Warn("Progress bar disabled when rendering layers concurrently")
		cfg.Progress = false
	}

	ctx, stop := signal.NotifyContext(context.Background(), stopSignals...)
	defer stop()

	collector := metrics.NewCollector(cfg.MetricsInterval, log)
	mctx, cancelMetrics := context.WithCancel(ctx)
	defer cancelMetrics()
	go collector.Start(mctx)

	log.Info("Starting render",
		zap.String("input", cfg.InputFile),
		zap.String("output", cfg.OutputDir),
		zap.Float64("origin_lon", params.OriginLon),
		zap.Float64("origin_lat", params.OriginLat),
		zap.Float64("cell_size", params.CellSize),
		zap.Int("width", params.Width),
		zap.Int("height", params.Height),
		zap.Int("layers", len(names)),
		zap.Int("workers", cfg.Workers),
	)

	opts := source.Options{Progress: cfg.Progress, PBFProcs: cfg.PBFProcs}
	open := func(ctx context.Context) (layer.Source, error) {
		h, err := source.Open(ctx, cfg.InputFile, opts)
		if err != nil {
			return nil, err
		}
		return h, nil
	}

	renderer := layer.NewRenderer(proj, open, log)
	all, err := renderer.RenderAll(ctx, names, cfg.Workers, meteredSink{DirSink: sink, collector: collector})
	if err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	for _, s := range all {
		log.Info("Wrote layer", zap.String("layer", string(s.Layer)), zap.String("path", sink.Path(s.Layer)))
	}
	collector.Log("Render metrics")
	log.Info("Render complete", since(start))
	return nil
}
