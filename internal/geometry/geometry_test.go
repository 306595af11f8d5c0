package geometry_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexiusacademia/gopic/internal/geometry"
)

func TestRectangle(t *testing.T) {
	r := geometry.Rectangle(geometry.LayerSi, geometry.Point{X: 1, Y: 2}, 4, 2)
	require.Len(t, r.Points, 4)
	w, h := r.Size()
	assert.InDelta(t, 4, w, 1e-12)
	assert.InDelta(t, 2, h, 1e-12)
	assert.Equal(t, geometry.Point{X: 1, Y: 2}, r.Center())
	assert.InDelta(t, 8, r.Area(), 1e-12)
}

func TestNormalizeAngle(t *testing.T) {
	cases := map[float64]float64{
		0: 0, 360: 0, -90: 270, 450: 90, 180: 180, -360: 0, 720.5: 0.5,
	}
	for in, want := range cases {
		assert.InDelta(t, want, geometry.NormalizeAngle(in), 1e-12, "angle %v", in)
	}
}

// TestTransformRotation checks that quarter turns are exact and ports turn with the device.
func TestTransformRotation(t *testing.T) {
	tr := geometry.Transform{X: 10, Y: 5, Angle: 90}
	p := tr.Apply(geometry.Point{X: 1, Y: 0})
	assert.Equal(t, geometry.Point{X: 10, Y: 6}, p)

	port := geometry.Port{Name: "out", Position: geometry.Point{X: 2, Y: 0}, Angle: 0}
	moved := tr.ApplyPort(port)
	assert.Equal(t, geometry.Point{X: 10, Y: 7}, moved.Position)
	assert.Equal(t, 90.0, moved.Angle)

	back := geometry.Transform{Angle: 270}.ApplyPort(geometry.Port{Angle: 180})
	assert.Equal(t, 90.0, back.Angle)
}

// TestTransformIsRigid checks distances survive an arbitrary rotation.
func TestTransformIsRigid(t *testing.T) {
	tr := geometry.Transform{X: -3, Y: 7, Angle: 33}
	a := geometry.Point{X: 0.5, Y: 1}
	b := geometry.Point{X: 4, Y: -2}
	assert.InDelta(t, a.Distance(b), tr.Apply(a).Distance(tr.Apply(b)), 1e-12)

	r := geometry.Rectangle(geometry.LayerSi, geometry.Point{X: 1, Y: 1}, 2, 3)
	assert.InDelta(t, r.Area(), tr.ApplyElement(r).Area(), 1e-12)
}

func TestLayoutPorts(t *testing.T) {
	l := geometry.NewLayout("dev", geometry.Full)
	require.NoError(t, l.AddPort(geometry.Port{Name: "a", Angle: -180}))
	require.NoError(t, l.AddPort(geometry.Port{Name: "b", Position: geometry.Point{X: 3}}))
	require.Error(t, l.AddPort(geometry.Port{Name: "a"}))

	assert.Equal(t, []string{"a", "b"}, l.PortNames())
	a, ok := l.Port("a")
	require.True(t, ok)
	assert.Equal(t, 180.0, a.Angle)
	_, ok = l.Port("zz")
	assert.False(t, ok)
}

func TestLayoutBoundsAndLayers(t *testing.T) {
	l := geometry.NewLayout("dev", geometry.Full)
	l.AddElements(
		geometry.Rectangle(geometry.LayerSi, geometry.Point{X: 0, Y: 0}, 2, 2),
		geometry.Rectangle(geometry.LayerSiCladding, geometry.Point{X: 5, Y: 0}, 2, 4),
		geometry.Rectangle(geometry.LayerSi, geometry.Point{X: 1, Y: 0}, 2, 2),
	)
	b := l.Bounds()
	assert.Equal(t, geometry.Box{MinX: -1, MinY: -2, MaxX: 6, MaxY: 2}, b)
	assert.Equal(t, []geometry.Layer{geometry.LayerSi, geometry.LayerSiCladding}, l.Layers())
	assert.Len(t, l.ElementsOn(geometry.LayerSi), 2)
}

// TestLayoutWriteJSON checks the exported polygon list carries layer ids and vertices.
func TestLayoutWriteJSON(t *testing.T) {
	l := geometry.NewLayout("dev", geometry.Simulation)
	l.AddElements(geometry.Rectangle(geometry.LayerSiCladding, geometry.Point{}, 2, 2))
	require.NoError(t, l.AddPort(geometry.Port{Name: "in1", Angle: 180}))

	var buf bytes.Buffer
	require.NoError(t, l.WriteJSON(&buf))

	var doc geometry.Export
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "simulation", doc.Mode)
	require.Len(t, doc.Polygons, 1)
	assert.Equal(t, 2, doc.Polygons[0].Layer)
	assert.Equal(t, [2]float64{-1, -1}, doc.Polygons[0].Points[0])
	require.Len(t, doc.Ports, 1)
	assert.Equal(t, "in1", doc.Ports[0].Name)
}

func TestParseMode(t *testing.T) {
	m, err := geometry.ParseMode("sim")
	require.NoError(t, err)
	assert.Equal(t, geometry.Simulation, m)
	m, err = geometry.ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, geometry.Full, m)
	_, err = geometry.ParseMode("half")
	assert.Error(t, err)
}
