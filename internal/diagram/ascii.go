package diagram

import (
	"fmt"
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/alexiusacademia/gopic/internal/geometry"
)

// layerFill is the raster glyph of each layer, by first appearance
var layerFill = []rune{'█', '░', '▒', '+', '*', '#'}

// DrawASCIILayout rasterizes a layout into a character grid of the given
// width. The height follows the aspect ratio of the layout bounds, halved
// because terminal cells are about twice as tall as they are wide.
func DrawASCIILayout(l *geometry.Layout, width int) string {
	var sb strings.Builder

	b := l.Bounds()
	if width < 10 {
		width = 10
	}
	if b.Width() <= 0 || b.Height() <= 0 {
		sb.WriteString("  (empty layout)\n")
		return sb.String()
	}
	height := int(math.Round(float64(width) * b.Height() / b.Width() / 2))
	height = min(max(height, 3), 40)

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}
	dx := b.Width() / float64(width)
	dy := b.Height() / float64(height)

	layers := l.Layers()
	glyph := make(map[geometry.Layer]rune, len(layers))
	for i, layer := range layers {
		glyph[layer] = layerFill[i%len(layerFill)]
	}

	// first layer drawn last so the device core stays on top
	for li := len(layers) - 1; li >= 0; li-- {
		for _, e := range l.ElementsOn(layers[li]) {
			eb := e.Bounds()
			for row := 0; row < height; row++ {
				y := b.MaxY - (float64(row)+0.5)*dy
				if y < eb.MinY || y > eb.MaxY {
					continue
				}
				for col := 0; col < width; col++ {
					x := b.MinX + (float64(col)+0.5)*dx
					if x < eb.MinX || x > eb.MaxX {
						continue
					}
					if contains(e.Points, geometry.Point{X: x, Y: y}) {
						grid[row][col] = glyph[layers[li]]
					}
				}
			}
		}
	}

	for _, p := range l.Ports() {
		col := int((p.Position.X - b.MinX) / dx)
		row := int((b.MaxY - p.Position.Y) / dy)
		col = min(max(col, 0), width-1)
		row = min(max(row, 0), height-1)
		grid[row][col] = '●'
	}

	sb.WriteString(fmt.Sprintf("  ┌%s┐\n", strings.Repeat("─", width)))
	for _, line := range grid {
		sb.WriteString(fmt.Sprintf("  │%s│\n", string(line)))
	}
	sb.WriteString(fmt.Sprintf("  └%s┘\n", strings.Repeat("─", width)))

	sb.WriteString("\n  Legend:\n")
	for _, layer := range layers {
		sb.WriteString(fmt.Sprintf("  %s = %s\n", strings.Repeat(string(glyph[layer]), 3), layer))
	}
	sb.WriteString("  ●   = Port\n")
	sb.WriteString(fmt.Sprintf("  Extent: %.3f × %.3f µm\n", b.Width(), b.Height()))

	return sb.String()
}

// contains reports whether p lies inside the polygon (even-odd rule)
func contains(poly []geometry.Point, p geometry.Point) bool {
	inside := false
	n := len(poly)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, c := poly[i], poly[j]
		if (a.Y > p.Y) != (c.Y > p.Y) {
			x := a.X + (p.Y-a.Y)*(c.X-a.X)/(c.Y-a.Y)
			if p.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

// DrawASCIISpectrum plots a transmission spectrum in dB against wavelength
func DrawASCIISpectrum(title string, wavelengths, db []float64, height int) string {
	if len(db) == 0 {
		return "  (no data)\n"
	}
	data := make([]float64, len(db))
	for i, v := range db {
		// keep deep nulls from flattening the passband
		data[i] = math.Max(v, -100)
	}
	caption := title
	if len(wavelengths) > 0 {
		caption = fmt.Sprintf("%s  [%.4f .. %.4f µm]", title, wavelengths[0], wavelengths[len(wavelengths)-1])
	}
	graph := asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(min(len(data), 72)),
		asciigraph.Caption(caption),
	)
	return graph + "\n"
}

// DrawSummaryBox creates a summary box for results
func DrawSummaryBox(title string, lines []string) string {
	var sb strings.Builder

	maxLen := len([]rune(title))
	for _, line := range lines {
		maxLen = max(maxLen, len([]rune(line)))
	}
	maxLen += 4

	pad := func(s string) string {
		return s + strings.Repeat(" ", maxLen-4-len([]rune(s)))
	}

	border := strings.Repeat("═", maxLen)
	sb.WriteString(fmt.Sprintf("  ╔%s╗\n", border))
	sb.WriteString(fmt.Sprintf("  ║  %s  ║\n", pad(title)))
	sb.WriteString(fmt.Sprintf("  ╠%s╣\n", border))
	for _, line := range lines {
		sb.WriteString(fmt.Sprintf("  ║  %s  ║\n", pad(line)))
	}
	sb.WriteString(fmt.Sprintf("  ╚%s╝\n", border))

	return sb.String()
}
