package tui

import (
	"strings"
	"unicode"

	"github.com/vovakirdan/beltworks/internal/factory"
	"github.com/vovakirdan/beltworks/internal/factory/belt"
	"github.com/vovakirdan/beltworks/internal/factory/grid"
	"github.com/vovakirdan/beltworks/internal/factory/machine"
)

// Floor glyphs.
const (
	glyphEmpty  = '·'
	glyphItem   = '●'
	glyphBroken = '!'
)

var arrows = map[grid.Orientation]rune{
	grid.North: '↑',
	grid.East:  '→',
	grid.South: '↓',
	grid.West:  '←',
}

// DrawFloor draws the factory grid with a one-character border. Row 0 of
// the canvas is the northernmost grid row.
func DrawFloor(f *factory.Factory) *Canvas {
	g := f.Grid()
	c := NewCanvas(g.Cols+2, g.Rows+2)

	c.Set(0, 0, '┌', ColorGray)
	c.Set(g.Cols+1, 0, '┐', ColorGray)
	c.Set(0, g.Rows+1, '└', ColorGray)
	c.Set(g.Cols+1, g.Rows+1, '┘', ColorGray)
	for x := 1; x <= g.Cols; x++ {
		c.Set(x, 0, '─', ColorGray)
		c.Set(x, g.Rows+1, '─', ColorGray)
	}
	for y := 1; y <= g.Rows; y++ {
		c.Set(0, y, '│', ColorGray)
		c.Set(g.Cols+1, y, '│', ColorGray)
	}

	for y := 0; y < g.Rows; y++ {
		for x := 0; x < g.Cols; x++ {
			cell := grid.C(x, y)
			r, color := floorGlyph(f, cell)
			c.Set(x+1, g.Rows-y, r, color)
		}
	}
	return c
}

func floorGlyph(f *factory.Factory, cell grid.Cell) (rune, Color) {
	switch occ := f.Grid().At(cell).(type) {
	case nil:
		return glyphEmpty, ColorGray
	case *belt.Belt:
		if it, ok := occ.Item(); ok {
			return materialGlyph(string(it.Material)), ColorYellow
		}
		color := ColorCyan
		if occ.IsCorner() {
			color = ColorOrange
		}
		return arrows[occ.ForwardDir()], color
	case *machine.Machine:
		return machineGlyph(occ)
	default:
		return '?', ColorDefault
	}
}

func machineGlyph(m *machine.Machine) (rune, Color) {
	r := kindGlyph(m.Kind())
	switch m.Status() {
	case machine.Broken:
		return glyphBroken, ColorRed
	case machine.Producing:
		return r, ColorGreen
	case machine.OutputsPending:
		return r, ColorYellow
	default:
		return r, ColorBrightWhite
	}
}

func kindGlyph(kind string) rune {
	for _, r := range kind {
		return unicode.ToUpper(r)
	}
	return '?'
}

func materialGlyph(material string) rune {
	for _, r := range strings.ToLower(material) {
		return r
	}
	return glyphItem
}
