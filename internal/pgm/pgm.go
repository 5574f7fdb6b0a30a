// Package pgm writes canvases as plain (P2) portable graymaps.
package pgm

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/wegman-software/osm2raster-go/internal/grid"
	"github.com/wegman-software/osm2raster-go/internal/layer"
)

// HeightsName is the file name stem of the elevation image
const HeightsName = "heights"

// Encode writes c as a P2 image. Rows are written in canvas order, so the
// first image row is the southernmost one, matching the elevation grids
// the layers are paired with. The max value is 1 for binary layers.
func Encode(w io.Writer, c *grid.Canvas) error {
	return EncodeMax(w, c, max(c.Max(), grid.Foreground))
}

// EncodeMax writes c as a P2 image declaring maxVal as the white level
func EncodeMax(w io.Writer, c *grid.Canvas, maxVal uint8) error {
	bw := bufio.NewWriter(w)

	if _, err := fmt.Fprintf(bw, "P2\n%d\n%d\n%d\n", c.Width, c.Height, maxVal); err != nil {
		return err
	}

	buf := make([]byte, 0, c.Width*4)
	for y := 0; y < c.Height; y++ {
		buf = buf[:0]
		for x := 0; x < c.Width; x++ {
			if x > 0 {
				buf = append(buf, ' ')
			}
			buf = strconv.AppendUint(buf, uint64(c.At(x, y)), 10)
		}
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// DirSink writes every layer to <Dir>/<layer>.pgm
type DirSink struct {
	Dir string
}

var _ layer.Sink = (*DirSink)(nil)

// Write implements layer.Sink
func (s *DirSink) Write(name layer.Name, c *grid.Canvas) error {
	return s.write(string(name), c, max(c.Max(), grid.Foreground))
}

// WriteHeights writes a normalised elevation canvas to <Dir>/heights.pgm
// with a white level of 255
func (s *DirSink) WriteHeights(c *grid.Canvas) error {
	return s.write(HeightsName, c, 255)
}

// Path returns the file a layer is written to
func (s *DirSink) Path(name layer.Name) string {
	return s.file(string(name))
}

// HeightsPath returns the file the elevation image is written to
func (s *DirSink) HeightsPath() string {
	return s.file(HeightsName)
}

func (s *DirSink) file(stem string) string {
	return filepath.Join(s.Dir, stem+".pgm")
}

func (s *DirSink) write(stem string, c *grid.Canvas, maxVal uint8) error {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	path := s.file(stem)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := EncodeMax(f, c, maxVal); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
