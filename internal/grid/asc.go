package grid

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// maxASCLine bounds one row of an elevation grid
const maxASCLine = 64 << 20

// Heights is an elevation grid resampled onto the raster grid.
// Row 0 holds the lowest latitude, like Canvas.
type Heights struct {
	Width  int
	Height int
	Values []int
}

// At returns the height of (x, y)
func (h *Heights) At(x, y int) int {
	return h.Values[y*h.Width+x]
}

// Normalize maps the heights linearly onto 0..255. A flat grid maps to 0.
func (h *Heights) Normalize() *Canvas {
	c := NewCanvas(h.Width, h.Height)
	if len(h.Values) == 0 {
		return c
	}
	lo, hi := h.Values[0], h.Values[0]
	for _, v := range h.Values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	span := int64(hi - lo)
	if span == 0 {
		return c
	}
	for i, v := range h.Values {
		c.Pix[i] = uint8(int64(v-lo) * 255 / span)
	}
	return c
}

// ReadASCHeaderFile reads grid parameters from the header of an ESRI
// ASCII elevation grid. The height values are not read.
func ReadASCHeaderFile(path string, scale int) (Params, error) {
	f, err := os.Open(path)
	if err != nil {
		return Params{}, fmt.Errorf("failed to open grid file: %w", err)
	}
	defer f.Close()
	return ReadASCHeader(f, scale)
}

// ReadASCHeader parses ncols, nrows, xllcorner, yllcorner and cellsize.
// scale subdivides every elevation cell into scale x scale raster cells.
func ReadASCHeader(r io.Reader, scale int) (Params, error) {
	a, err := newASCReader(r, scale)
	if err != nil {
		return Params{}, err
	}
	return a.params, nil
}

// ReadASCFile reads a whole ESRI ASCII elevation grid
func ReadASCFile(path string, scale int) (Params, *Heights, error) {
	f, err := os.Open(path)
	if err != nil {
		return Params{}, nil, fmt.Errorf("failed to open grid file: %w", err)
	}
	defer f.Close()
	return ReadASC(f, scale)
}

// ReadASC reads the header and the height rows of an ESRI ASCII grid.
// The file lists rows north first; every value is truncated to an integer
// and repeated over scale x scale raster cells.
func ReadASC(r io.Reader, scale int) (Params, *Heights, error) {
	a, err := newASCReader(r, scale)
	if err != nil {
		return Params{}, nil, err
	}

	h := &Heights{
		Width:  a.params.Width,
		Height: a.params.Height,
		Values: make([]int, a.params.Width*a.params.Height),
	}
	row := make([]int, a.cols)
	for fileRow := 0; fileRow < a.rows; fileRow++ {
		fields, err := a.nextRow()
		if err != nil {
			return Params{}, nil, err
		}
		if fields == nil {
			return Params{}, nil, fmt.Errorf("grid file: header says %d rows, found %d", a.rows, fileRow)
		}
		if len(fields) < a.cols {
			return Params{}, nil, fmt.Errorf("grid file: row %d has %d values, want %d", fileRow+1, len(fields), a.cols)
		}
		for col := range row {
			v, err := strconv.ParseFloat(fields[col], 64)
			if err != nil {
				return Params{}, nil, fmt.Errorf("grid file: row %d: invalid height %q: %w", fileRow+1, fields[col], err)
			}
			row[col] = int(v)
		}

		for dy := 0; dy < scale; dy++ {
			y := h.Height - 1 - (fileRow*scale + dy)
			out := h.Values[y*h.Width : (y+1)*h.Width]
			for x := range out {
				out[x] = row[x/scale]
			}
		}
	}
	return a.params, h, nil
}

// ascReader reads an ASC file line by line. The header is parsed up front
// and the first data row is held back for nextRow.
type ascReader struct {
	sc         *bufio.Scanner
	params     Params
	cols, rows int
	pending    []string
}

func newASCReader(r io.Reader, scale int) (*ascReader, error) {
	if scale < 1 {
		return nil, fmt.Errorf("scale must be at least 1, got %d", scale)
	}

	a := &ascReader{sc: bufio.NewScanner(r)}
	a.sc.Buffer(make([]byte, 0, 64*1024), maxASCLine)

	values := make(map[string]string, 6)
	for a.sc.Scan() {
		fields := strings.Fields(a.sc.Text())
		if len(fields) == 0 {
			continue
		}
		key := strings.ToLower(fields[0])
		if len(fields) != 2 || !isHeaderKey(key) {
			a.pending = fields
			break
		}
		values[key] = fields[1]
	}
	if err := a.sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read grid header: %w", err)
	}

	p := &a.params
	var err error
	if a.cols, err = headerInt(values, "ncols"); err != nil {
		return nil, err
	}
	if a.rows, err = headerInt(values, "nrows"); err != nil {
		return nil, err
	}
	if p.OriginLon, err = headerFloat(values, "xllcorner"); err != nil {
		return nil, err
	}
	if p.OriginLat, err = headerFloat(values, "yllcorner"); err != nil {
		return nil, err
	}
	if p.CellSize, err = headerFloat(values, "cellsize"); err != nil {
		return nil, err
	}

	p.Width = a.cols * scale
	p.Height = a.rows * scale
	p.CellSize /= float64(scale)

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// nextRow returns the fields of the next non-empty line, nil at the end
func (a *ascReader) nextRow() ([]string, error) {
	if a.pending != nil {
		row := a.pending
		a.pending = nil
		return row, nil
	}
	for a.sc.Scan() {
		if fields := strings.Fields(a.sc.Text()); len(fields) > 0 {
			return fields, nil
		}
	}
	if err := a.sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read grid rows: %w", err)
	}
	return nil, nil
}

func isHeaderKey(k string) bool {
	switch k {
	case "ncols", "nrows", "xllcorner", "yllcorner", "xllcenter", "yllcenter", "cellsize", "nodata_value":
		return true
	}
	return false
}

func headerInt(values map[string]string, key string) (int, error) {
	s, ok := values[key]
	if !ok {
		return 0, fmt.Errorf("grid header: missing %s", key)
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("grid header: invalid %s %q: %w", key, s, err)
	}
	return v, nil
}

func headerFloat(values map[string]string, key string) (float64, error) {
	s, ok := values[key]
	if !ok {
		return 0, fmt.Errorf("grid header: missing %s", key)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("grid header: invalid %s %q: %w", key, s, err)
	}
	return v, nil
}
