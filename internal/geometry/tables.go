package geometry

import (
	"iter"

	"github.com/paulmach/orb"

	"github.com/wegman-software/osm2raster-go/internal/element"
)

// NodeTable holds node positions (lon, lat) by id for one layer pass
type NodeTable map[uint64]orb.Point

// WayTable holds ways by id for one layer pass
type WayTable map[uint64]*element.Polyline

// CollectNodes drains a point sequence into a node table
func CollectNodes(points iter.Seq2[element.PointElement, error]) (NodeTable, error) {
	nodes := make(NodeTable)
	for el, err := range points {
		if err != nil {
			return nil, err
		}
		nodes.Add(el.ID, el.Point)
	}
	return nodes, nil
}

// Add stores a node position
func (t NodeTable) Add(id uint64, p element.Point) {
	t[id] = orb.Point{p.Lon, p.Lat}
}

// Path resolves refs in order. Refs missing from the table are left out
// and counted.
func (t NodeTable) Path(refs []uint64) (path []orb.Point, missing int) {
	path = make([]orb.Point, 0, len(refs))
	for _, ref := range refs {
		pt, ok := t[ref]
		if !ok {
			missing++
			continue
		}
		path = append(path, pt)
	}
	return path, missing
}

// Runs resolves refs into maximal runs of consecutive known nodes.
// A missing ref breaks the line, dropping the segments on either side.
func (t NodeTable) Runs(refs []uint64) (runs [][]orb.Point, missing int) {
	var cur []orb.Point
	for _, ref := range refs {
		pt, ok := t[ref]
		if !ok {
			missing++
			if len(cur) > 0 {
				runs = append(runs, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, pt)
	}
	if len(cur) > 0 {
		runs = append(runs, cur)
	}
	return runs, missing
}

// Bound returns the extent of the table, empty for an empty table
func (t NodeTable) Bound() orb.Bound {
	first := true
	var b orb.Bound
	for _, pt := range t {
		if first {
			b = pt.Bound()
			first = false
			continue
		}
		b = b.Extend(pt)
	}
	return b
}
