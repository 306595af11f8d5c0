package geometry

import "math"

// Transform is a rigid 2D placement: rotation about the device origin
// followed by translation. No scaling or mirroring.
type Transform struct {
	X     float64 `json:"x" yaml:"x"`
	Y     float64 `json:"y" yaml:"y"`
	Angle float64 `json:"angle" yaml:"angle"` // degrees, counter-clockwise
}

// Translation returns a pure translation
func Translation(x, y float64) Transform {
	return Transform{X: x, Y: y}
}

// sinCos returns exact values on multiples of 90 degrees so Manhattan
// placements keep rectangles axis-aligned without round-off.
func (t Transform) sinCos() (float64, float64) {
	a := NormalizeAngle(t.Angle)
	switch a {
	case 0:
		return 0, 1
	case 90:
		return 1, 0
	case 180:
		return 0, -1
	case 270:
		return -1, 0
	}
	rad := a * math.Pi / 180
	return math.Sin(rad), math.Cos(rad)
}

// Apply transforms a point
func (t Transform) Apply(p Point) Point {
	sin, cos := t.sinCos()
	return Point{
		X: cos*p.X - sin*p.Y + t.X,
		Y: sin*p.X + cos*p.Y + t.Y,
	}
}

// ApplyElement transforms every vertex of an element
func (t Transform) ApplyElement(e Element) Element {
	out := Element{Layer: e.Layer, Points: make([]Point, len(e.Points))}
	for i, p := range e.Points {
		out.Points[i] = t.Apply(p)
	}
	return out
}

// ApplyPort transforms a port's position and outward angle
func (t Transform) ApplyPort(p Port) Port {
	p.Position = t.Apply(p.Position)
	p.Angle = NormalizeAngle(p.Angle + t.Angle)
	return p
}
