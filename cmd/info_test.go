package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wegman-software/osm2raster-go/internal/element"
	"github.com/wegman-software/osm2raster-go/internal/grid"
	"github.com/wegman-software/osm2raster-go/internal/source"
)

const infoOSM = `<osm>
  <node id="1" lat="43.72" lon="7.40"/>
  <node id="2" lat="43.75" lon="7.41"/>
  <node id="3" lat="43.73" lon="7.44"/>
  <way id="10"><nd ref="1"/><nd ref="2"/><nd ref="3"/><nd ref="1"/></way>
  <way id="11"><nd ref="1"/><nd ref="2"/></way>
  <relation id="20"><member type="way" ref="10" role="outer"/></relation>
</osm>`

func TestCollectInfo(t *testing.T) {
	r := element.NewReader(source.NewXMLSource(strings.NewReader(infoOSM)))
	info, err := collectInfo(r, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(3), info.Nodes)
	assert.Equal(t, int64(2), info.Ways)
	assert.Equal(t, int64(1), info.ClosedWays)
	assert.Equal(t, int64(1), info.Relations)
	assert.InDelta(t, 7.40, info.Bound.Min.Lon(), 1e-9)
	assert.InDelta(t, 43.75, info.Bound.Max.Lat(), 1e-9)

	var buf bytes.Buffer
	printInfo(&buf, info)
	assert.Contains(t, buf.String(), "Ways: 2 (1 closed)")
	assert.Contains(t, buf.String(), "Relations: 1")
	assert.NotContains(t, buf.String(), "on grid")
}

func TestCollectInfoCountsNodesOnGrid(t *testing.T) {
	g := &grid.Params{OriginLon: 7.40, OriginLat: 43.72, CellSize: 0.01, Width: 3, Height: 2}
	r := element.NewReader(source.NewXMLSource(strings.NewReader(infoOSM)))
	info, err := collectInfo(r, g)
	require.NoError(t, err)

	// node 2 is north of the grid, node 3 east of it
	assert.Equal(t, int64(1), info.NodesOnGrid)

	var buf bytes.Buffer
	printInfo(&buf, info)
	assert.Contains(t, buf.String(), "Nodes on grid: 1 of 3 (33.3%)")
}

func TestCollectInfoReportsOrderErrors(t *testing.T) {
	doc := `<osm><way id="1"><nd ref="1"/></way><node id="1" lat="0" lon="0"/></osm>`
	_, err := collectInfo(element.NewReader(source.NewXMLSource(strings.NewReader(doc))), nil)
	assert.ErrorIs(t, err, element.ErrOutOfOrderElement)
}
