package diagram

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/alexiusacademia/gopic/internal/geometry"
)

// layerColors fill the layers of an exported layout, by first appearance
var layerColors = []color.RGBA{
	{R: 100, G: 149, B: 237, A: 220},
	{R: 211, G: 211, B: 211, A: 120},
	{R: 255, G: 165, B: 0, A: 160},
	{R: 60, G: 179, B: 113, A: 160},
}

// Series is one curve of a spectrum plot
type Series struct {
	Label string
	Y     []float64
}

// ExportLayout draws every element of a layout as a filled polygon, one
// color per layer, with ports marked and labelled
func ExportLayout(l *geometry.Layout, filename string) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s (%s)", l.Name, l.Mode)
	p.X.Label.Text = "x (µm)"
	p.Y.Label.Text = "y (µm)"

	layers := l.Layers()
	// cladding under the core
	for li := len(layers) - 1; li >= 0; li-- {
		c := layerColors[li%len(layerColors)]
		for _, e := range l.ElementsOn(layers[li]) {
			pts := make(plotter.XYs, len(e.Points))
			for i, pt := range e.Points {
				pts[i] = plotter.XY{X: pt.X, Y: pt.Y}
			}
			poly, err := plotter.NewPolygon(pts)
			if err != nil {
				return err
			}
			poly.Color = c
			poly.LineStyle.Width = vg.Points(0.3)
			poly.LineStyle.Color = color.RGBA{R: c.R / 2, G: c.G / 2, B: c.B / 2, A: 255}
			p.Add(poly)
		}
	}

	ports := l.Ports()
	if len(ports) > 0 {
		xys := make(plotter.XYs, len(ports))
		names := make([]string, len(ports))
		for i, port := range ports {
			xys[i] = plotter.XY{X: port.Position.X, Y: port.Position.Y}
			names[i] = port.Name
		}
		marks, err := plotter.NewScatter(xys)
		if err != nil {
			return err
		}
		marks.GlyphStyle.Color = color.RGBA{R: 255, G: 0, B: 0, A: 255}
		marks.GlyphStyle.Radius = vg.Points(3)
		marks.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(marks)

		labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: names})
		if err != nil {
			return err
		}
		p.Add(labels)
	}

	return save(p, 10*vg.Inch, 4*vg.Inch, filename)
}

// ExportSpectrum plots one or more curves against wavelength (µm)
func ExportSpectrum(title, yLabel string, wavelengths []float64, series []Series, filename string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Wavelength (µm)"
	p.Y.Label.Text = yLabel
	p.Legend.Top = true

	for i, s := range series {
		if len(s.Y) != len(wavelengths) {
			return fmt.Errorf("series %q has %d points, want %d", s.Label, len(s.Y), len(wavelengths))
		}
		pts := make(plotter.XYs, len(s.Y))
		for k := range s.Y {
			pts[k] = plotter.XY{X: wavelengths[k], Y: s.Y[k]}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = plotColor(i)
		p.Add(line)
		p.Legend.Add(s.Label, line)
	}

	return save(p, 8*vg.Inch, 5*vg.Inch, filename)
}

func plotColor(i int) color.Color {
	palette := []color.RGBA{
		{R: 0, G: 0, B: 139, A: 255},
		{R: 200, G: 0, B: 0, A: 255},
		{R: 0, G: 100, B: 0, A: 255},
		{R: 139, G: 69, B: 19, A: 255},
	}
	return palette[i%len(palette)]
}

// save writes the plot, creating the directory if needed. Unknown
// extensions are saved as PNG.
func save(p *plot.Plot, width, height vg.Length, filename string) error {
	dir := filepath.Dir(filename)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png", ".svg", ".pdf", ".eps", ".jpg", ".jpeg":
		return p.Save(width, height, filename)
	default:
		return p.Save(width, height, filename+".png")
	}
}
