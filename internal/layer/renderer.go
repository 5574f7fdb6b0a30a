package layer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wegman-software/osm2raster-go/internal/classify"
	"github.com/wegman-software/osm2raster-go/internal/element"
	"github.com/wegman-software/osm2raster-go/internal/geometry"
	"github.com/wegman-software/osm2raster-go/internal/grid"
	"github.com/wegman-software/osm2raster-go/internal/raster"
)

// checkEvery is how many elements are read between context checks
const checkEvery = 4096

// Renderer rasterises layers. Every layer is a separate pass over a
// freshly opened source with its own node table, way table and canvas.
type Renderer struct {
	proj   *grid.Projector
	open   Opener
	logger *zap.Logger
}

// NewRenderer creates a renderer drawing onto proj's grid
func NewRenderer(proj *grid.Projector, open Opener, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{proj: proj, open: open, logger: logger}
}

// Render produces one layer
func (r *Renderer) Render(ctx context.Context, name Name) (*grid.Canvas, Stats, error) {
	start := time.Now()
	stats := Stats{Layer: name}
	log := r.logger.With(zap.String("layer", string(name)))
	log.Info("Rendering layer")

	src, err := r.open(ctx)
	if err != nil {
		return nil, stats, fmt.Errorf("failed to open source for %s: %w", name, err)
	}
	defer src.Close()

	p := &pass{
		ctx:    ctx,
		proj:   r.proj,
		reader: element.NewReader(src),
		canvas: grid.NewCanvas(r.proj.Params().Width, r.proj.Params().Height),
		stats:  &stats,
		log:    log,
	}

	switch name {
	case Roads:
		err = p.roads()
	case Waterways:
		err = p.waterways()
	case Buildings:
		err = p.buildings()
	default:
		err = fmt.Errorf("unknown layer %q", name)
	}

	rs := p.reader.Stats()
	stats.Points, stats.Polylines, stats.Areas = rs.Points, rs.Polylines, rs.Areas
	if err != nil {
		return nil, stats, fmt.Errorf("%s layer: %w", name, err)
	}

	stats.ForegroundCells = p.canvas.Count(grid.Foreground)
	stats.Duration = time.Since(start)
	log.Info("Layer complete", stats.Fields()...)
	return p.canvas, stats, nil
}

// RenderAll renders names with up to workers layers in flight and hands
// each finished canvas to sink. The first error cancels the other layers.
func (r *Renderer) RenderAll(ctx context.Context, names []Name, workers int, sink Sink) ([]Stats, error) {
	if workers < 1 {
		workers = 1
	}
	all := make([]Stats, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, name := range names {
		g.Go(func() error {
			canvas, stats, err := r.Render(gctx, name)
			all[i] = stats
			if err != nil {
				return err
			}
			if err := sink.Write(name, canvas); err != nil {
				return fmt.Errorf("failed to write %s layer: %w", name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return all, err
	}
	return all, nil
}

// pass is the state of one layer computation
type pass struct {
	ctx    context.Context
	proj   *grid.Projector
	reader *element.Reader
	canvas *grid.Canvas
	stats  *Stats
	log    *zap.Logger
	seen   int
}

func (p *pass) roads() error {
	nodes, err := p.nodes()
	if err != nil {
		return err
	}
	for el, err := range p.reader.Polylines() {
		if err != nil {
			return err
		}
		if err := p.tick(); err != nil {
			return err
		}
		if classify.IsRoad(el.Tags) {
			p.stroke(el.Polyline, nodes)
		}
	}
	return nil
}

func (p *pass) waterways() error {
	nodes, err := p.nodes()
	if err != nil {
		return err
	}

	ways := make(geometry.WayTable)
	for el, err := range p.reader.Polylines() {
		if err != nil {
			return err
		}
		if err := p.tick(); err != nil {
			return err
		}
		if classify.IsWaterway(el.Tags) {
			p.stroke(el.Polyline, nodes)
		}
		ways[el.ID] = el.Polyline
	}

	for el, err := range p.reader.Areas() {
		if err != nil {
			return err
		}
		if err := p.tick(); err != nil {
			return err
		}
		if !classify.IsWaterArea(el.Tags) {
			continue
		}
		res := geometry.Resolve(el.Area, ways, nodes, p.proj)
		if res.SkippedMembers > 0 {
			p.log.Debug("Skipped relation members",
				zap.Uint64("relation", el.ID),
				zap.Int("skipped", res.SkippedMembers),
			)
		}
		p.stats.SkippedMembers += int64(res.SkippedMembers)
		p.stats.MissingNodes += int64(res.MissingNodes)
		if len(el.Area.SubAreaRefs) > 0 {
			p.log.Debug("Relation has sub-relations, not flattened",
				zap.Uint64("relation", el.ID),
				zap.Int("sub_relations", len(el.Area.SubAreaRefs)),
			)
		}
		raster.RenderCompositeArea(res, p.canvas)
		p.stats.Drawn++
	}
	return nil
}

func (p *pass) buildings() error {
	nodes, err := p.nodes()
	if err != nil {
		return err
	}
	for el, err := range p.reader.Polylines() {
		if err != nil {
			return err
		}
		if err := p.tick(); err != nil {
			return err
		}
		if !classify.IsBuilding(el.Tags) {
			continue
		}
		if el.Polyline.Closed {
			p.fill(el.Polyline, nodes)
		} else {
			p.stroke(el.Polyline, nodes)
		}
	}
	return nil
}

// nodes drains the point sequence into the node table
func (p *pass) nodes() (geometry.NodeTable, error) {
	nodes := make(geometry.NodeTable)
	for el, err := range p.reader.Points() {
		if err != nil {
			return nil, err
		}
		if err := p.tick(); err != nil {
			return nil, err
		}
		nodes.Add(el.ID, el.Point)
	}
	p.log.Debug("Node table built", zap.Int("nodes", len(nodes)))
	return nodes, nil
}

// stroke draws a way as a line. A dangling node ref drops the segments
// touching it.
func (p *pass) stroke(w *element.Polyline, nodes geometry.NodeTable) {
	runs, missing := nodes.Runs(w.NodeRefs)
	p.noteMissing(w.ID, missing)
	for _, run := range runs {
		raster.StrokePolyline(p.proj.ProjectPath(run), p.canvas, grid.Foreground)
	}
	p.stats.Drawn++
}

// fill draws a closed way as a solid polygon. Dangling node refs are left
// out of the ring.
func (p *pass) fill(w *element.Polyline, nodes geometry.NodeTable) {
	path, missing := nodes.Path(w.NodeRefs)
	p.noteMissing(w.ID, missing)
	raster.FillRing(p.proj.ProjectPath(path), p.canvas, grid.Foreground)
	p.stats.Drawn++
}

func (p *pass) noteMissing(way uint64, missing int) {
	if missing == 0 {
		return
	}
	p.stats.MissingNodes += int64(missing)
	p.log.Debug("Way references unknown nodes",
		zap.Uint64("way", way),
		zap.Int("missing", missing),
	)
}

// tick checks for cancellation every checkEvery elements
func (p *pass) tick() error {
	p.seen++
	if p.seen%checkEvery != 0 {
		return nil
	}
	return p.ctx.Err()
}
