package grid

import "fmt"

// Cell values of a binary layer
const (
	Background uint8 = 0
	Foreground uint8 = 1
)

// Canvas is a width x height grid of cell values, row-major.
// Row 0 holds the lowest latitude.
type Canvas struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewCanvas returns a canvas filled with Background
func NewCanvas(width, height int) *Canvas {
	return &Canvas{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height),
	}
}

// In reports whether (x, y) is a cell of the canvas
func (c *Canvas) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < c.Width && y < c.Height
}

// Set writes v to (x, y); cells outside the canvas are ignored
func (c *Canvas) Set(x, y int, v uint8) {
	if !c.In(x, y) {
		return
	}
	c.Pix[y*c.Width+x] = v
}

// At returns the value of (x, y), Background outside the canvas
func (c *Canvas) At(x, y int) uint8 {
	if !c.In(x, y) {
		return Background
	}
	return c.Pix[y*c.Width+x]
}

// SetSpan writes v to cells x0..x1 (inclusive) of row y
func (c *Canvas) SetSpan(y, x0, x1 int, v uint8) {
	if y < 0 || y >= c.Height {
		return
	}
	if x0 < 0 {
		x0 = 0
	}
	if x1 >= c.Width {
		x1 = c.Width - 1
	}
	row := c.Pix[y*c.Width : (y+1)*c.Width]
	for x := x0; x <= x1; x++ {
		row[x] = v
	}
}

// Count returns how many cells hold v
func (c *Canvas) Count(v uint8) int {
	n := 0
	for _, p := range c.Pix {
		if p == v {
			n++
		}
	}
	return n
}

// Max returns the largest cell value
func (c *Canvas) Max() uint8 {
	var m uint8
	for _, p := range c.Pix {
		if p > m {
			m = p
		}
	}
	return m
}

func (c *Canvas) String() string {
	return fmt.Sprintf("canvas %dx%d", c.Width, c.Height)
}
