package tui

import "strings"

// Color is a foreground color for a canvas cell.
type Color uint8

// Colors used for floor elements.
const (
	ColorDefault Color = iota
	ColorGray
	ColorRed
	ColorGreen
	ColorYellow
	ColorCyan
	ColorOrange
	ColorBrightWhite
)

// Glyph is one colored character.
type Glyph struct {
	Rune  rune
	Color Color
}

// Canvas is a 2D character buffer the floor is drawn into before styling.
type Canvas struct {
	width  int
	height int
	cells  [][]Glyph
}

// NewCanvas creates a canvas filled with spaces.
func NewCanvas(width, height int) *Canvas {
	c := &Canvas{width: width, height: height}
	c.cells = make([][]Glyph, height)
	for y := range c.cells {
		c.cells[y] = make([]Glyph, width)
	}
	c.Clear()
	return c
}

// Width returns the canvas width in characters.
func (c *Canvas) Width() int { return c.width }

// Height returns the canvas height in characters.
func (c *Canvas) Height() int { return c.height }

// Clear fills the canvas with uncolored spaces.
func (c *Canvas) Clear() {
	for y := range c.cells {
		for x := range c.cells[y] {
			c.cells[y][x] = Glyph{Rune: ' '}
		}
	}
}

// Set places a glyph. Out-of-bounds coordinates are ignored.
func (c *Canvas) Set(x, y int, r rune, color Color) {
	if x < 0 || x >= c.width || y < 0 || y >= c.height {
		return
	}
	c.cells[y][x] = Glyph{Rune: r, Color: color}
}

// Get returns the glyph at (x, y), or a space when out of bounds.
func (c *Canvas) Get(x, y int) Glyph {
	if x < 0 || x >= c.width || y < 0 || y >= c.height {
		return Glyph{Rune: ' '}
	}
	return c.cells[y][x]
}

// DrawText writes text horizontally starting at (x, y), clipped to the canvas.
func (c *Canvas) DrawText(x, y int, text string, color Color) {
	i := 0
	for _, r := range text {
		c.Set(x+i, y, r, color)
		i++
	}
}

// String returns the canvas without styling, rows joined by newlines.
func (c *Canvas) String() string {
	var sb strings.Builder
	sb.Grow(c.width*c.height + c.height)
	for y := 0; y < c.height; y++ {
		if y > 0 {
			sb.WriteRune('\n')
		}
		for x := 0; x < c.width; x++ {
			sb.WriteRune(c.cells[y][x].Rune)
		}
	}
	return sb.String()
}
