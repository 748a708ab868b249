package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// colorStyles maps canvas colors to lipgloss styles.
var colorStyles = map[Color]lipgloss.Style{
	ColorDefault:     lipgloss.NewStyle(),
	ColorGray:        lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	ColorRed:         lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	ColorGreen:       lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	ColorYellow:      lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	ColorCyan:        lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
	ColorOrange:      lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
	ColorBrightWhite: lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true),
}

// RenderCanvas converts a canvas to a styled string.
// Adjacent cells with the same color share one style run.
func RenderCanvas(c *Canvas) string {
	var sb strings.Builder
	sb.Grow(c.Width()*c.Height()*2 + c.Height())

	for y := range c.Height() {
		if y > 0 {
			sb.WriteRune('\n')
		}

		x := 0
		for x < c.Width() {
			start := c.Get(x, y).Color

			var run strings.Builder
			for x < c.Width() {
				g := c.Get(x, y)
				if g.Color != start {
					break
				}
				run.WriteRune(g.Rune)
				x++
			}

			style, ok := colorStyles[start]
			if !ok {
				style = colorStyles[ColorDefault]
			}
			sb.WriteString(style.Render(run.String()))
		}
	}
	return sb.String()
}
