package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	humanize "github.com/dustin/go-humanize"
	"github.com/paulmach/orb"
	"github.com/spf13/cobra"

	"github.com/wegman-software/osm2raster-go/internal/element"
	"github.com/wegman-software/osm2raster-go/internal/geometry"
	"github.com/wegman-software/osm2raster-go/internal/grid"
	"github.com/wegman-software/osm2raster-go/internal/source"
)

var infoJSON bool

// Info summarises one full pass over an input file
type Info struct {
	Nodes       int64     `json:"nodes"`
	Ways        int64     `json:"ways"`
	ClosedWays  int64     `json:"closed_ways"`
	Relations   int64     `json:"relations"`
	DroppedTags int64     `json:"dropped_tags"`
	Bound       orb.Bound `json:"bound"`

	// Set when a grid is configured
	Grid        *grid.Params `json:"grid,omitempty"`
	NodesOnGrid int64        `json:"nodes_on_grid,omitempty"`
}

var infoCmd = &cobra.Command{
	Use:   "info <input.osm>",
	Short: "Print element counts and extent of an OSM file",
	Long: `Drain the nodes, ways and relations of the input once, in order, and print
their counts and the extent of the nodes. Useful for choosing grid
parameters and for checking that the input is in node, way, relation order.

When grid parameters or a grid file are given, also report how many nodes
fall on the grid; the rest are clamped onto its border when rendering.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
	infoCmd.Flags().BoolVar(&infoJSON, "json", false, "Print information as JSON")
}

func runInfo(cmd *cobra.Command, args []string) error {
	var gp *grid.Params
	if cfg.GridFile != "" || cfg.Grid.Validate() == nil {
		p, err := cfg.GridParams()
		if err != nil {
			return fmt.Errorf("invalid grid: %w", err)
		}
		gp = &p
	}

	h, err := source.Open(context.Background(), args[0], source.Options{
		Progress: cfg.Progress && !infoJSON,
		PBFProcs: cfg.PBFProcs,
	})
	if err != nil {
		return err
	}
	defer h.Close()

	info, err := collectInfo(element.NewReader(h), gp)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	if infoJSON {
		b, err := json.Marshal(info)
		if err != nil {
			return fmt.Errorf("failed to encode info: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return nil
	}
	printInfo(cmd.OutOrStdout(), info)
	return nil
}

// collectInfo drains r. With a grid, nodes within half a cell of the cell
// centres are counted as on the grid.
func collectInfo(r *element.Reader, g *grid.Params) (*Info, error) {
	nodes, err := geometry.CollectNodes(r.Points())
	if err != nil {
		return nil, err
	}
	info := &Info{Bound: nodes.Bound(), Grid: g}
	if g != nil {
		area := g.Bound().Pad(g.CellSize / 2)
		for _, pt := range nodes {
			if area.Contains(pt) {
				info.NodesOnGrid++
			}
		}
	}

	for el, err := range r.Polylines() {
		if err != nil {
			return nil, err
		}
		if el.Polyline.Closed {
			info.ClosedWays++
		}
	}
	for _, err := range r.Areas() {
		if err != nil {
			return nil, err
		}
	}

	stats := r.Stats()
	info.Nodes = stats.Points
	info.Ways = stats.Polylines
	info.Relations = stats.Areas
	info.DroppedTags = stats.DroppedTags
	return info, nil
}

func printInfo(w io.Writer, info *Info) {
	fmt.Fprintf(w, "Nodes: %s\n", humanize.Comma(info.Nodes))
	fmt.Fprintf(w, "Ways: %s (%s closed)\n", humanize.Comma(info.Ways), humanize.Comma(info.ClosedWays))
	fmt.Fprintf(w, "Relations: %s\n", humanize.Comma(info.Relations))
	if info.DroppedTags > 0 {
		fmt.Fprintf(w, "DroppedTags: %s\n", humanize.Comma(info.DroppedTags))
	}
	if info.Nodes > 0 {
		fmt.Fprintf(w, "Bound: lon %.7f..%.7f lat %.7f..%.7f\n",
			info.Bound.Min.Lon(), info.Bound.Max.Lon(), info.Bound.Min.Lat(), info.Bound.Max.Lat())
	}
	if info.Grid != nil && info.Nodes > 0 {
		fmt.Fprintf(w, "Nodes on grid: %s of %s (%.1f%%)\n",
			humanize.Comma(info.NodesOnGrid), humanize.Comma(info.Nodes),
			100*float64(info.NodesOnGrid)/float64(info.Nodes))
	}
}
