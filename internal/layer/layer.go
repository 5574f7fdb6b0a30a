package layer

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wegman-software/osm2raster-go/internal/element"
	"github.com/wegman-software/osm2raster-go/internal/grid"
)

// Name identifies an output layer
type Name string

const (
	Roads     Name = "roads"
	Waterways Name = "waterways"
	Buildings Name = "buildings"
)

// All lists every layer in output order
var All = []Name{Roads, Waterways, Buildings}

// ParseNames validates layer names. An empty list selects all layers.
func ParseNames(names []string) ([]Name, error) {
	if len(names) == 0 {
		return All, nil
	}
	out := make([]Name, 0, len(names))
	seen := make(map[Name]bool, len(names))
	for _, s := range names {
		n := Name(strings.ToLower(strings.TrimSpace(s)))
		switch n {
		case Roads, Waterways, Buildings:
		case "rivers":
			n = Waterways
		default:
			return nil, fmt.Errorf("unknown layer %q (supported: roads, waterways, buildings)", s)
		}
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out, nil
}

// Source is one open pass over the input
type Source interface {
	element.MarkerSource
	io.Closer
}

// Opener opens a fresh source. It is called once per layer because a
// source can only be read once.
type Opener func(ctx context.Context) (Source, error)

// Sink receives finished layers
type Sink interface {
	Write(name Name, c *grid.Canvas) error
}

// Stats describes one layer pass
type Stats struct {
	Layer           Name
	Points          int64 // nodes read
	Polylines       int64 // ways read
	Areas           int64 // relations read
	Drawn           int64 // ways and relations drawn
	MissingNodes    int64 // node refs not found in the node table
	SkippedMembers  int64 // relation members not found or not closed
	ForegroundCells int
	Duration        time.Duration
}

// Fields returns the stats as zap fields
func (s Stats) Fields() []zap.Field {
	return []zap.Field{
		zap.String("layer", string(s.Layer)),
		zap.Int64("nodes", s.Points),
		zap.Int64("ways", s.Polylines),
		zap.Int64("relations", s.Areas),
		zap.Int64("drawn", s.Drawn),
		zap.Int64("missing_nodes", s.MissingNodes),
		zap.Int64("skipped_members", s.SkippedMembers),
		zap.Int("foreground_cells", s.ForegroundCells),
		zap.Duration("duration", s.Duration.Round(time.Millisecond)),
	}
}
