package cmd

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wegman-software/osm2raster-go/internal/config"
)

const renderASC = `ncols 3
nrows 3
xllcorner 0
yllcorner 0
cellsize 1
NODATA_value -9999
6 7 8
3 4 5
0 1 2
`

const renderOSM = `<osm>
  <node id="1" lat="0" lon="0"/>
  <node id="2" lat="2" lon="2"/>
  <way id="10"><nd ref="1"/><nd ref="2"/><tag k="highway" v="primary"/></way>
</osm>`

// useConfig swaps the command configuration for the duration of a test
func useConfig(t *testing.T, c *config.Config) {
	t.Helper()
	old := cfg
	cfg = c
	t.Cleanup(func() { cfg = old })
}

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func readOutput(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(data)
}

func TestRenderWritesHeightsAndLayers(t *testing.T) {
	dir := t.TempDir()
	c := config.DefaultConfig()
	c.GridFile = writeTemp(t, dir, "dem.asc", renderASC)
	c.OutputDir = filepath.Join(dir, "out")
	c.Workers = 2
	useConfig(t, c)

	input := writeTemp(t, dir, "in.osm", renderOSM)
	require.NoError(t, runRender(renderCmd, []string{input}))

	assert.Equal(t, "P2\n3\n3\n255\n0 31 63\n95 127 159\n191 223 255\n", readOutput(t, c.OutputDir, "heights.pgm"))
	assert.Equal(t, "P2\n3\n3\n1\n1 0 0\n0 1 0\n0 0 1\n", readOutput(t, c.OutputDir, "roads.pgm"))
	assert.Equal(t, "P2\n3\n3\n1\n0 0 0\n0 0 0\n0 0 0\n", readOutput(t, c.OutputDir, "waterways.pgm"))
	assert.FileExists(t, filepath.Join(c.OutputDir, "buildings.pgm"))
}

func TestRenderHeightsOnly(t *testing.T) {
	dir := t.TempDir()
	c := config.DefaultConfig()
	c.GridFile = writeTemp(t, dir, "dem.asc", renderASC)
	c.GridScale = 2
	c.OutputDir = dir
	useConfig(t, c)

	require.NoError(t, runRender(renderCmd, nil))

	heights := readOutput(t, dir, "heights.pgm")
	assert.Contains(t, heights, "P2\n6\n6\n255\n0 0 31 31 63 63\n")
	assert.NoFileExists(t, filepath.Join(dir, "roads.pgm"))
}

func TestRenderRejectsMissingInput(t *testing.T) {
	useConfig(t, config.DefaultConfig())
	err := runRender(renderCmd, nil)
	assert.ErrorContains(t, err, "input file is required")
}

func TestRenderFailsOnBadInput(t *testing.T) {
	dir := t.TempDir()
	c := config.DefaultConfig()
	c.Grid.CellSize = 1
	c.Grid.Width = 3
	c.Grid.Height = 3
	c.OutputDir = dir
	useConfig(t, c)

	input := writeTemp(t, dir, "bad.osm", `<osm><node id="x" lat="0" lon="0"/></osm>`)
	err := runRender(renderCmd, []string{input})
	assert.ErrorContains(t, err, "render failed")
}

func TestRenderStopsOnInterruptAndTerm(t *testing.T) {
	assert.Contains(t, stopSignals, os.Interrupt)
	assert.Contains(t, stopSignals, os.Signal(syscall.SIGTERM))
}
