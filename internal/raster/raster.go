// Package raster draws projected geometry onto a grid canvas without
// anti-aliasing. Polygons are filled with the even-odd rule everywhere,
// including self-intersecting rings.
package raster

import (
	"image"
	"math"
	"sort"

	"github.com/wegman-software/osm2raster-go/internal/geometry"
	"github.com/wegman-software/osm2raster-go/internal/grid"
)

// StrokePolyline draws a straight line between each consecutive pair of
// points. Fewer than two points draw nothing.
func StrokePolyline(pts []image.Point, c *grid.Canvas, v uint8) {
	for i := 1; i < len(pts); i++ {
		Line(pts[i-1], pts[i], c, v)
	}
}

// Line draws a one-cell wide Bresenham line from a to b, both ends included
func Line(a, b image.Point, c *grid.Canvas, v uint8) {
	dx := abs(b.X - a.X)
	dy := -abs(b.Y - a.Y)
	sx, sy := 1, 1
	if a.X > b.X {
		sx = -1
	}
	if a.Y > b.Y {
		sy = -1
	}

	x, y := a.X, a.Y
	e := dx + dy
	for {
		c.Set(x, y, v)
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x += sx
		}
		if e2 <= dx {
			e += dx
			y += sy
		}
	}
}

// FillRing fills the polygon outlined by pts with v. A cell is filled
// when its centre is inside by the even-odd rule or the outline passes
// through it. The ring is closed implicitly. Rings with fewer than three
// distinct vertices draw nothing.
func FillRing(pts []image.Point, c *grid.Canvas, v uint8) {
	if distinct(pts) < 3 {
		return
	}

	minY, maxY := pts[0].Y, pts[0].Y
	for _, p := range pts[1:] {
		minY = min(minY, p.Y)
		maxY = max(maxY, p.Y)
	}
	minY = max(minY, 0)
	maxY = min(maxY, c.Height-1)

	xs := make([]float64, 0, 8)
	for y := minY; y <= maxY; y++ {
		xs = crossings(pts, y, xs[:0])
		sort.Float64s(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			x0 := int(math.Ceil(xs[i]))
			x1 := int(math.Floor(xs[i+1]))
			if x0 <= x1 {
				c.SetSpan(y, x0, x1, v)
			}
		}
	}

	StrokePolyline(pts, c, v)
	Line(pts[len(pts)-1], pts[0], c, v)
}

// RenderCompositeArea fills every outer ring with Foreground and then
// punches every inner ring with Background. All outer rings are drawn
// before the first inner ring so no hole is covered again.
func RenderCompositeArea(r geometry.Resolved, c *grid.Canvas) {
	for _, ring := range r.Outer {
		FillRing(ring, c, grid.Foreground)
	}
	for _, ring := range r.Inner {
		FillRing(ring, c, grid.Background)
	}
}

// crossings appends the x positions where row y crosses the ring's edges.
// Edges are half open in y so shared vertices count once.
func crossings(pts []image.Point, y int, xs []float64) []float64 {
	n := len(pts)
	for i := 0; i < n; i++ {
		a, b := pts[i], pts[(i+1)%n]
		if a.Y == b.Y {
			continue
		}
		if (a.Y <= y && y < b.Y) || (b.Y <= y && y < a.Y) {
			t := float64(y-a.Y) / float64(b.Y-a.Y)
			xs = append(xs, float64(a.X)+t*float64(b.X-a.X))
		}
	}
	return xs
}

func distinct(pts []image.Point) int {
	seen := make(map[image.Point]struct{}, len(pts))
	for _, p := range pts {
		seen[p] = struct{}{}
		if len(seen) >= 3 {
			break
		}
	}
	return len(seen)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
