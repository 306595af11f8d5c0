package geometry

import (
	"encoding/json"
	"fmt"
	"io"
)

// Layout is the geometry of one device: ordered elements and ordered ports.
// A Layout is produced for exactly one Mode and is not modified once returned
// by a generator.
type Layout struct {
	Name     string
	Mode     Mode
	elements []Element
	ports    []Port
	index    map[string]int
}

// NewLayout creates an empty layout
func NewLayout(name string, mode Mode) *Layout {
	return &Layout{Name: name, Mode: mode, index: make(map[string]int)}
}

// AddElements appends elements in order
func (l *Layout) AddElements(elems ...Element) {
	l.elements = append(l.elements, elems...)
}

// AddPort appends a port. Port names are unique within a layout.
func (l *Layout) AddPort(p Port) error {
	if _, exists := l.index[p.Name]; exists {
		return fmt.Errorf("layout %s: duplicate port %q", l.Name, p.Name)
	}
	p.Angle = NormalizeAngle(p.Angle)
	l.index[p.Name] = len(l.ports)
	l.ports = append(l.ports, p)
	return nil
}

// Elements returns a copy of the element list
func (l *Layout) Elements() []Element {
	out := make([]Element, len(l.elements))
	copy(out, l.elements)
	return out
}

// Ports returns the ports in declaration order
func (l *Layout) Ports() []Port {
	out := make([]Port, len(l.ports))
	copy(out, l.ports)
	return out
}

// PortNames returns the port names in declaration order
func (l *Layout) PortNames() []string {
	names := make([]string, len(l.ports))
	for i, p := range l.ports {
		names[i] = p.Name
	}
	return names
}

// Port looks up a port by name
func (l *Layout) Port(name string) (Port, bool) {
	i, ok := l.index[name]
	if !ok {
		return Port{}, false
	}
	return l.ports[i], true
}

// ElementsOn returns the elements on one layer, in order
func (l *Layout) ElementsOn(layer Layer) []Element {
	var out []Element
	for _, e := range l.elements {
		if e.Layer == layer {
			out = append(out, e)
		}
	}
	return out
}

// Layers returns the distinct layers in first-use order
func (l *Layout) Layers() []Layer {
	seen := make(map[Layer]bool)
	var out []Layer
	for _, e := range l.elements {
		if !seen[e.Layer] {
			seen[e.Layer] = true
			out = append(out, e.Layer)
		}
	}
	return out
}

// Bounds returns the bounding box of all elements
func (l *Layout) Bounds() Box {
	if len(l.elements) == 0 {
		return Box{}
	}
	b := l.elements[0].Bounds()
	for _, e := range l.elements[1:] {
		b = b.Union(e.Bounds())
	}
	return b
}

// Transformed returns a copy of the layout with t applied to every element and port
func (l *Layout) Transformed(t Transform) *Layout {
	out := NewLayout(l.Name, l.Mode)
	out.elements = make([]Element, len(l.elements))
	for i, e := range l.elements {
		out.elements[i] = t.ApplyElement(e)
	}
	for _, p := range l.ports {
		// names are already unique
		_ = out.AddPort(t.ApplyPort(p))
	}
	return out
}

// Polygon is the exported form of an element
type Polygon struct {
	Layer    int          `json:"layer"`
	Datatype int          `json:"datatype"`
	Name     string       `json:"layer_name,omitempty"`
	Points   [][2]float64 `json:"points"`
}

// Polygons returns the layer-tagged polygon list of the layout
func (l *Layout) Polygons() []Polygon {
	out := make([]Polygon, len(l.elements))
	for i, e := range l.elements {
		pts := make([][2]float64, len(e.Points))
		for j, p := range e.Points {
			pts[j] = [2]float64{p.X, p.Y}
		}
		out[i] = Polygon{Layer: e.Layer.Number, Datatype: e.Layer.Datatype, Name: e.Layer.Name, Points: pts}
	}
	return out
}

// Export is the document written by WriteJSON
type Export struct {
	Name     string    `json:"name"`
	Mode     string    `json:"mode"`
	Polygons []Polygon `json:"polygons"`
	Ports    []Port    `json:"ports"`
}

// WriteJSON writes the polygon list and ports as indented JSON
func (l *Layout) WriteJSON(w io.Writer) error {
	doc := Export{
		Name:     l.Name,
		Mode:     l.Mode.String(),
		Polygons: l.Polygons(),
		Ports:    l.Ports(),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
