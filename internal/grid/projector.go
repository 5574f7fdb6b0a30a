package grid

import (
	"fmt"
	"image"
	"math"

	"github.com/paulmach/orb"
)

// Params describes the raster grid in geographic terms.
// The origin is the lower left corner of cell (0, 0).
type Params struct {
	OriginLon float64 `yaml:"origin_lon"`
	OriginLat float64 `yaml:"origin_lat"`
	CellSize  float64 `yaml:"cell_size"` // degrees per cell
	Width     int     `yaml:"width"`
	Height    int     `yaml:"height"`
}

// Validate checks that the grid is usable
func (p Params) Validate() error {
	if p.Width < 1 || p.Height < 1 {
		return fmt.Errorf("grid must be at least 1x1, got %dx%d", p.Width, p.Height)
	}
	if !(p.CellSize > 0) || math.IsInf(p.CellSize, 0) {
		return fmt.Errorf("cell size must be positive, got %v", p.CellSize)
	}
	return nil
}

// Bound returns the geographic extent covered by cell centres
func (p Params) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{p.OriginLon, p.OriginLat},
		Max: orb.Point{
			p.OriginLon + p.CellSize*float64(p.Width-1),
			p.OriginLat + p.CellSize*float64(p.Height-1),
		},
	}
}

// Projector maps lon/lat linearly onto grid cells
type Projector struct {
	params Params
}

// NewProjector creates a projector for p
func NewProjector(p Params) (*Projector, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Projector{params: p}, nil
}

// Params returns the grid the projector maps onto
func (pr *Projector) Params() Params {
	return pr.params
}

// Project returns the cell for a coordinate. Half cells round to even.
// Coordinates off the grid are clamped onto the border cells, so the
// result is always in bounds.
func (pr *Projector) Project(lon, lat float64) (x, y int) {
	p := pr.params
	x = int(math.RoundToEven(clamp((lon-p.OriginLon)/p.CellSize, 0, float64(p.Width-1))))
	y = int(math.RoundToEven(clamp((lat-p.OriginLat)/p.CellSize, 0, float64(p.Height-1))))
	return x, y
}

// ProjectPoint projects an orb point (lon, lat)
func (pr *Projector) ProjectPoint(pt orb.Point) image.Point {
	x, y := pr.Project(pt.Lon(), pt.Lat())
	return image.Pt(x, y)
}

// ProjectPath projects every point of a path in order
func (pr *Projector) ProjectPath(path []orb.Point) []image.Point {
	if len(path) == 0 {
		return nil
	}
	out := make([]image.Point, len(path))
	for i, pt := range path {
		out[i] = pr.ProjectPoint(pt)
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	// NaN lands on the low border
	if !(v >= lo) {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
