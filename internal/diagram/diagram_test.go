package diagram_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexiusacademia/gopic/internal/diagram"
	"github.com/alexiusacademia/gopic/internal/geometry"
)

func sampleLayout(t *testing.T) *geometry.Layout {
	t.Helper()
	l := geometry.NewLayout("sample", geometry.Full)
	l.AddElements(
		geometry.Rectangle(geometry.LayerSi, geometry.Point{X: 5, Y: 0}, 10, 1),
		geometry.Rectangle(geometry.LayerSiCladding, geometry.Point{X: 5, Y: 0}, 10, 4),
	)
	require.NoError(t, l.AddPort(geometry.Port{Name: "in", Position: geometry.Point{X: 0, Y: 0}, Angle: 180}))
	require.NoError(t, l.AddPort(geometry.Port{Name: "out", Position: geometry.Point{X: 10, Y: 0}, Angle: 0}))
	return l
}

func TestDrawASCIILayout(t *testing.T) {
	out := diagram.DrawASCIILayout(sampleLayout(t), 40)

	lines := strings.Split(out, "\n")
	require.Greater(t, len(lines), 5)
	assert.True(t, strings.HasPrefix(lines[0], "  ┌"))
	assert.Contains(t, out, "█")
	assert.Contains(t, out, "░")
	assert.Contains(t, out, "●")
	assert.Contains(t, out, "SI(1/0)")
	assert.Contains(t, out, "10.000 × 4.000 µm")
}

func TestDrawASCIILayoutEmpty(t *testing.T) {
	out := diagram.DrawASCIILayout(geometry.NewLayout("empty", geometry.Full), 40)
	assert.Contains(t, out, "empty layout")
}

func TestDrawASCIISpectrum(t *testing.T) {
	wl := []float64{1.5, 1.55, 1.6}
	out := diagram.DrawASCIISpectrum("through", wl, []float64{-1, -30, -1}, 8)
	assert.Contains(t, out, "through")
	assert.Contains(t, out, "1.5000 .. 1.6000")

	assert.Contains(t, diagram.DrawASCIISpectrum("none", nil, nil, 8), "no data")
}

func TestDrawSummaryBox(t *testing.T) {
	out := diagram.DrawSummaryBox("RESULT", []string{"peak: -0.1 dB", "λ: 1.55 µm"})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 6)
	width := len([]rune(lines[0]))
	for _, line := range lines {
		assert.Equal(t, width, len([]rune(line)), line)
	}
	assert.Contains(t, lines[1], "RESULT")
	assert.Contains(t, lines[3], "peak: -0.1 dB")
	assert.Contains(t, lines[4], "λ: 1.55 µm")
}

func TestExportLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "layout.png")
	require.NoError(t, diagram.ExportLayout(sampleLayout(t), path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestExportSpectrum(t *testing.T) {
	dir := t.TempDir()
	wl := []float64{1.5, 1.55, 1.6}
	series := []diagram.Series{{Label: "through", Y: []float64{-1, -20, -1}}}

	require.NoError(t, diagram.ExportSpectrum("bragg", "dB", wl, series, filepath.Join(dir, "s.svg")))
	_, err := os.Stat(filepath.Join(dir, "s.svg"))
	require.NoError(t, err)

	require.NoError(t, diagram.ExportSpectrum("bragg", "dB", wl, series, filepath.Join(dir, "s")))
	_, err = os.Stat(filepath.Join(dir, "s.png"))
	require.NoError(t, err)

	bad := []diagram.Series{{Label: "short", Y: []float64{1}}}
	assert.Error(t, diagram.ExportSpectrum("bragg", "dB", wl, bad, filepath.Join(dir, "x.png")))
}
