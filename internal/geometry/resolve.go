package geometry

import (
	"image"

	"github.com/wegman-software/osm2raster-go/internal/element"
	"github.com/wegman-software/osm2raster-go/internal/grid"
)

// Resolved holds the projected rings of one relation
type Resolved struct {
	Outer [][]image.Point
	Inner [][]image.Point

	// SkippedMembers counts outer/inner members that were missing from the
	// way table or not closed.
	SkippedMembers int
	// MissingNodes counts node refs of used rings that were not in the node table.
	MissingNodes int
}

// Resolve looks up the outer and inner ways of a relation and projects
// their rings. Members that are unknown or not closed rings are skipped;
// the relation itself never fails.
func Resolve(area *element.CompositeArea, ways WayTable, nodes NodeTable, proj *grid.Projector) Resolved {
	var res Resolved
	res.Outer = res.rings(area.OuterWayRefs, ways, nodes, proj)
	res.Inner = res.rings(area.InnerWayRefs, ways, nodes, proj)
	return res
}

func (res *Resolved) rings(refs []uint64, ways WayTable, nodes NodeTable, proj *grid.Projector) [][]image.Point {
	var out [][]image.Point
	for _, ref := range refs {
		w, ok := ways[ref]
		if !ok || !w.Closed {
			res.SkippedMembers++
			continue
		}
		path, missing := nodes.Path(w.NodeRefs)
		res.MissingNodes += missing
		out = append(out, proj.ProjectPath(path))
	}
	return out
}
