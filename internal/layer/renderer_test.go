package layer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/wegman-software/osm2raster-go/internal/element"
	"github.com/wegman-software/osm2raster-go/internal/grid"
	"github.com/wegman-software/osm2raster-go/internal/source"
)

// 9x9 unit grid; node lon/lat equal cell x/y
const layerOSM = `<osm>
  <node id="1" lat="0" lon="0"/>
  <node id="2" lat="0" lon="8"/>
  <node id="3" lat="8" lon="8"/>
  <node id="4" lat="8" lon="0"/>
  <node id="5" lat="3" lon="3"/>
  <node id="6" lat="3" lon="5"/>
  <node id="7" lat="5" lon="5"/>
  <node id="8" lat="5" lon="3"/>
  <node id="20" lat="0" lon="0"/>
  <node id="21" lat="2" lon="0"/>
  <node id="22" lat="2" lon="2"/>

  <way id="100"><nd ref="1"/><nd ref="3"/><tag k="highway" v="primary"/></way>
  <way id="101"><nd ref="2"/><nd ref="4"/><tag k="highway" v="residential"/></way>
  <way id="102"><nd ref="4"/><nd ref="3"/><tag k="waterway" v="river"/></way>
  <way id="103"><nd ref="1"/><nd ref="2"/><nd ref="3"/><nd ref="4"/><nd ref="1"/></way>
  <way id="104"><nd ref="5"/><nd ref="6"/><nd ref="7"/><nd ref="8"/><nd ref="5"/></way>
  <way id="105"><nd ref="20"/><nd ref="21"/><nd ref="22"/><nd ref="20"/><tag k="building" v="yes"/></way>
  <way id="106"><nd ref="6"/><nd ref="2"/><tag k="amenity" v="bench"/></way>
  <way id="107"><nd ref="7"/><tag k="building" v="yes"/></way>
  <way id="108"><nd ref="1"/><nd ref="999"/><nd ref="4"/><tag k="highway" v="trunk"/></way>

  <relation id="200">
    <member type="way" ref="103" role="outer"/>
    <member type="way" ref="104" role="inner"/>
    <member type="way" ref="404" role="outer"/>
    <member type="relation" ref="201" role=""/>
    <tag k="water" v="river"/>
  </relation>
  <relation id="201">
    <member type="way" ref="105" role="outer"/>
    <tag k="type" v="multipolygon"/>
  </relation>
</osm>`

type nopCloser struct{ element.MarkerSource }

func (nopCloser) Close() error { return nil }

func stringOpener(doc string, opened *atomic.Int32) Opener {
	return func(ctx context.Context) (Source, error) {
		if opened != nil {
			opened.Add(1)
		}
		return nopCloser{source.NewXMLSource(strings.NewReader(doc))}, nil
	}
}

func newTestRenderer(t *testing.T, doc string, opened *atomic.Int32) *Renderer {
	t.Helper()
	proj, err := grid.NewProjector(grid.Params{CellSize: 1, Width: 9, Height: 9})
	require.NoError(t, err)
	return NewRenderer(proj, stringOpener(doc, opened), zaptest.NewLogger(t))
}

func TestRenderRoads(t *testing.T) {
	r := newTestRenderer(t, layerOSM, nil)
	c, stats, err := r.Render(context.Background(), Roads)
	require.NoError(t, err)

	// primary diagonal drawn, residential anti-diagonal not
	for i := 0; i < 9; i++ {
		assert.Equal(t, grid.Foreground, c.At(i, i), "diagonal cell %d", i)
	}
	assert.Equal(t, grid.Background, c.At(8, 0))
	assert.Equal(t, grid.Background, c.At(1, 7))

	// the trunk's segments touching the missing node are dropped
	assert.Equal(t, grid.Background, c.At(0, 4))
	assert.Equal(t, int64(1), stats.MissingNodes)
	assert.Equal(t, int64(2), stats.Drawn)
	assert.Equal(t, 9, stats.ForegroundCells)
	assert.Equal(t, int64(11), stats.Points)
	// roads never reads relations
	assert.Equal(t, int64(0), stats.Areas)
}

func TestRenderWaterways(t *testing.T) {
	r := newTestRenderer(t, layerOSM, nil)
	c, stats, err := r.Render(context.Background(), Waterways)
	require.NoError(t, err)

	// outer ring filled, inner ring punched
	assert.Equal(t, grid.Foreground, c.At(0, 0))
	assert.Equal(t, grid.Foreground, c.At(1, 4))
	assert.Equal(t, grid.Foreground, c.At(8, 8))
	for y := 3; y <= 5; y++ {
		for x := 3; x <= 5; x++ {
			assert.Equal(t, grid.Background, c.At(x, y), "hole cell %d,%d", x, y)
		}
	}
	assert.Equal(t, 81-9, stats.ForegroundCells)
	assert.Equal(t, int64(1), stats.SkippedMembers)
	assert.Equal(t, int64(2), stats.Areas)
	// the waterway line and the river relation
	assert.Equal(t, int64(2), stats.Drawn)
}

func TestRenderBuildings(t *testing.T) {
	r := newTestRenderer(t, layerOSM, nil)
	c, stats, err := r.Render(context.Background(), Buildings)
	require.NoError(t, err)

	// closed triangle 20-21-22 filled
	assert.Equal(t, grid.Foreground, c.At(0, 0))
	assert.Equal(t, grid.Foreground, c.At(0, 1))
	assert.Equal(t, grid.Foreground, c.At(0, 2))
	assert.Equal(t, grid.Foreground, c.At(1, 1))
	assert.Equal(t, grid.Foreground, c.At(2, 2))
	assert.Equal(t, grid.Background, c.At(1, 0))

	// open amenity stroked from (5,3) to (8,0)
	assert.Equal(t, grid.Foreground, c.At(5, 3))
	assert.Equal(t, grid.Foreground, c.At(6, 2))
	assert.Equal(t, grid.Foreground, c.At(8, 0))

	// single node building draws nothing
	assert.Equal(t, grid.Background, c.At(5, 5))
	assert.Equal(t, int64(3), stats.Drawn)
}

func TestRenderUnknownLayer(t *testing.T) {
	r := newTestRenderer(t, layerOSM, nil)
	_, _, err := r.Render(context.Background(), Name("railways"))
	assert.Error(t, err)
}

func TestRenderMalformedFails(t *testing.T) {
	r := newTestRenderer(t, `<osm><node id="1" lat="x" lon="0"/></osm>`, nil)
	_, _, err := r.Render(context.Background(), Roads)
	require.Error(t, err)
	assert.ErrorIs(t, err, element.ErrMalformedElement)
}

func TestRenderOutOfOrderFails(t *testing.T) {
	doc := `<osm>
  <node id="1" lat="0" lon="0"/>
  <way id="2"><nd ref="1"/></way>
  <node id="3" lat="0" lon="0"/>
</osm>`
	r := newTestRenderer(t, doc, nil)
	_, _, err := r.Render(context.Background(), Buildings)
	assert.ErrorIs(t, err, element.ErrOutOfOrderElement)
}

type memorySink struct {
	mu     sync.Mutex
	layers map[Name]*grid.Canvas
	fail   bool
}

func (s *memorySink) Write(name Name, c *grid.Canvas) error {
	if s.fail {
		return errors.New("disk full")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.layers == nil {
		s.layers = make(map[Name]*grid.Canvas)
	}
	s.layers[name] = c
	return nil
}

func TestRenderAll(t *testing.T) {
	var opened atomic.Int32
	r := newTestRenderer(t, layerOSM, &opened)
	sink := &memorySink{}

	stats, err := r.RenderAll(context.Background(), All, 3, sink)
	require.NoError(t, err)
	require.Len(t, stats, 3)
	assert.Equal(t, int32(3), opened.Load(), "one fresh source per layer")

	for i, name := range All {
		assert.Equal(t, name, stats[i].Layer)
		require.Contains(t, sink.layers, name)
	}

	// concurrent rendering matches sequential rendering
	seq, _, err := r.Render(context.Background(), Waterways)
	require.NoError(t, err)
	assert.Equal(t, seq.Pix, sink.layers[Waterways].Pix)
}

func TestRenderAllPropagatesErrors(t *testing.T) {
	r := newTestRenderer(t, layerOSM, nil)
	_, err := r.RenderAll(context.Background(), []Name{Roads}, 1, &memorySink{fail: true})
	assert.ErrorContains(t, err, "disk full")

	bad := newTestRenderer(t, `<osm><node lat="0" lon="0"/></osm>`, nil)
	_, err = bad.RenderAll(context.Background(), All, 2, &memorySink{})
	assert.ErrorIs(t, err, element.ErrMalformedElement)
}

func TestParseNames(t *testing.T) {
	names, err := ParseNames(nil)
	require.NoError(t, err)
	assert.Equal(t, All, names)

	names, err = ParseNames([]string{"Buildings", " roads ", "rivers", "waterways"})
	require.NoError(t, err)
	assert.Equal(t, []Name{Buildings, Roads, Waterways}, names)

	_, err = ParseNames([]string{"contours"})
	assert.Error(t, err)
}
