package geometry

import (
	"fmt"
	"math"
)

// Point represents a 2D coordinate in µm
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Add returns the sum of two points
func (p Point) Add(other Point) Point {
	return Point{X: p.X + other.X, Y: p.Y + other.Y}
}

// Sub returns the difference of two points
func (p Point) Sub(other Point) Point {
	return Point{X: p.X - other.X, Y: p.Y - other.Y}
}

// Distance returns the Euclidean distance to another point
func (p Point) Distance(other Point) float64 {
	return math.Hypot(p.X-other.X, p.Y-other.Y)
}

// Layer identifies a mask layer by GDS-style number and datatype
type Layer struct {
	Name     string `json:"name" yaml:"name"`
	Number   int    `json:"number" yaml:"number"`
	Datatype int    `json:"datatype" yaml:"datatype"`
}

func (l Layer) String() string {
	if l.Name == "" {
		return fmt.Sprintf("%d/%d", l.Number, l.Datatype)
	}
	return fmt.Sprintf("%s(%d/%d)", l.Name, l.Number, l.Datatype)
}

// Default process layers
var (
	LayerSi         = Layer{Name: "SI", Number: 1, Datatype: 0}
	LayerSiCladding = Layer{Name: "SI_CLADDING", Number: 2, Datatype: 0}
)

// TraceTemplate describes the waveguide cross-section a port expects
type TraceTemplate struct {
	Name      string  `json:"name" yaml:"name"`
	Width     float64 `json:"width" yaml:"width"` // core width (µm)
	CoreLayer Layer   `json:"core_layer" yaml:"core_layer"`
}

// SiWire is the default single-mode silicon wire waveguide
func SiWire() TraceTemplate {
	return TraceTemplate{Name: "SiWire", Width: 0.45, CoreLayer: LayerSi}
}

// Element is a filled polygon on one layer
type Element struct {
	Layer  Layer   `json:"layer" yaml:"layer"`
	Points []Point `json:"points" yaml:"points"`
}

// Rectangle builds an axis-aligned rectangle element from its center and size.
// Vertices are counter-clockwise starting at the lower-left corner.
func Rectangle(layer Layer, center Point, width, height float64) Element {
	hw, hh := width/2, height/2
	return Element{
		Layer: layer,
		Points: []Point{
			{X: center.X - hw, Y: center.Y - hh},
			{X: center.X + hw, Y: center.Y - hh},
			{X: center.X + hw, Y: center.Y + hh},
			{X: center.X - hw, Y: center.Y + hh},
		},
	}
}

// Bounds returns the bounding box of the element
func (e Element) Bounds() Box {
	return boundsOf(e.Points)
}

// Center returns the center of the element's bounding box
func (e Element) Center() Point {
	return e.Bounds().Center()
}

// Size returns the width and height of the element's bounding box
func (e Element) Size() (float64, float64) {
	b := e.Bounds()
	return b.Width(), b.Height()
}

// Area returns the polygon area using the shoelace formula
func (e Element) Area() float64 {
	n := len(e.Points)
	if n < 3 {
		return 0
	}
	var a float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		a += e.Points[i].X*e.Points[j].Y - e.Points[j].X*e.Points[i].Y
	}
	return math.Abs(a) / 2
}

// Box is an axis-aligned bounding box
type Box struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// Width of the box
func (b Box) Width() float64 { return b.MaxX - b.MinX }

// Height of the box
func (b Box) Height() float64 { return b.MaxY - b.MinY }

// Center of the box
func (b Box) Center() Point {
	return Point{X: (b.MinX + b.MaxX) / 2, Y: (b.MinY + b.MaxY) / 2}
}

// Union returns the smallest box containing both boxes
func (b Box) Union(other Box) Box {
	return Box{
		MinX: math.Min(b.MinX, other.MinX),
		MinY: math.Min(b.MinY, other.MinY),
		MaxX: math.Max(b.MaxX, other.MaxX),
		MaxY: math.Max(b.MaxY, other.MaxY),
	}
}

func boundsOf(points []Point) Box {
	if len(points) == 0 {
		return Box{}
	}
	b := Box{MinX: points[0].X, MaxX: points[0].X, MinY: points[0].Y, MaxY: points[0].Y}
	for _, p := range points[1:] {
		b.MinX = math.Min(b.MinX, p.X)
		b.MaxX = math.Max(b.MaxX, p.X)
		b.MinY = math.Min(b.MinY, p.Y)
		b.MaxY = math.Max(b.MaxY, p.Y)
	}
	return b
}

// Port is an optical port on the boundary of a device.
// Angle is measured counter-clockwise from +x and always faces outward.
type Port struct {
	Name          string        `json:"name" yaml:"name"`
	Position      Point         `json:"position" yaml:"position"`
	Angle         float64       `json:"angle" yaml:"angle"` // degrees, [0, 360)
	TraceTemplate TraceTemplate `json:"trace_template" yaml:"trace_template"`
}

// Direction returns the unit vector the port faces
func (p Port) Direction() Point {
	rad := p.Angle * math.Pi / 180
	return Point{X: math.Cos(rad), Y: math.Sin(rad)}
}

// IsHorizontal reports whether the port faces along the x axis
func (p Port) IsHorizontal() bool {
	d := p.Direction()
	return math.Abs(d.X) >= math.Abs(d.Y)
}

// NormalizeAngle folds an angle in degrees into [0, 360)
func NormalizeAngle(deg float64) float64 {
	a := math.Mod(deg, 360)
	if a < 0 {
		a += 360
	}
	// -0 and 360 from rounding
	if a == 0 || a >= 360 {
		return 0
	}
	return a
}

// Mode selects which lifecycle of a device geometry is generated
type Mode int

const (
	// Full draws the physical device with all periods
	Full Mode = iota
	// Simulation draws a truncated device with ports in a canonical window
	Simulation
)

func (m Mode) String() string {
	switch m {
	case Full:
		return "full"
	case Simulation:
		return "simulation"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses "full" or "simulation" (also "sim")
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "full":
		return Full, nil
	case "sim", "simulation":
		return Simulation, nil
	default:
		return Full, fmt.Errorf("unknown geometry mode %q", s)
	}
}
