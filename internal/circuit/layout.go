package circuit

import (
	"math"

	"github.com/alexiusacademia/gopic/internal/geometry"
)

const routeTolerance = 1e-9

// Route is the connector drawn for one connection
type Route struct {
	Connection Connection
	Points     []geometry.Point // centerline, first port to second port
	Width      float64
	Layer      geometry.Layer
}

// ElbowRoute returns the centerline between two placed ports: a straight
// segment when they share an axis, otherwise one corner. The corner is
// chosen so the route leaves the first port along its own axis.
func ElbowRoute(a, b geometry.Port) []geometry.Point {
	p, q := a.Position, b.Position
	if math.Abs(p.X-q.X) < routeTolerance || math.Abs(p.Y-q.Y) < routeTolerance {
		return []geometry.Point{p, q}
	}
	corner := geometry.Point{X: p.X, Y: q.Y}
	if a.IsHorizontal() {
		corner = geometry.Point{X: q.X, Y: p.Y}
	}
	return []geometry.Point{p, corner, q}
}

// Elements draws the route as one rectangle per segment, each extended by
// half the width at both ends so corners are filled
func (r Route) Elements() []geometry.Element {
	var out []geometry.Element
	for i := 1; i < len(r.Points); i++ {
		p, q := r.Points[i-1], r.Points[i]
		if p.Distance(q) < routeTolerance {
			continue
		}
		center := geometry.Point{X: (p.X + q.X) / 2, Y: (p.Y + q.Y) / 2}
		w := math.Abs(q.X-p.X) + r.Width
		h := math.Abs(q.Y-p.Y) + r.Width
		out = append(out, geometry.Rectangle(r.Layer, center, w, h))
	}
	return out
}

// Length returns the centerline length of the route
func (r Route) Length() float64 {
	total := 0.0
	for i := 1; i < len(r.Points); i++ {
		total += r.Points[i-1].Distance(r.Points[i])
	}
	return total
}

// placedLayouts returns every instance layout in a mode, transformed by its placement
func (c *Circuit) placedLayouts(mode geometry.Mode) ([]*geometry.Layout, error) {
	out := make([]*geometry.Layout, len(c.instances))
	for i, inst := range c.instances {
		l, err := inst.Device.Layout(mode)
		if err != nil {
			return nil, err
		}
		out[i] = l.Transformed(inst.Placement)
	}
	return out, nil
}

// Routes returns the connectors of every connection in declaration order
func (c *Circuit) Routes(mode geometry.Mode) ([]Route, error) {
	placed, err := c.placedLayouts(mode)
	if err != nil {
		return nil, err
	}
	return c.routes(placed), nil
}

func (c *Circuit) routes(placed []*geometry.Layout) []Route {
	out := make([]Route, len(c.links))
	for i, l := range c.links {
		a, _ := placed[l.a.inst].Port(l.a.port)
		b, _ := placed[l.b.inst].Port(l.b.port)
		out[i] = Route{
			Connection: Connection{A: c.ref(l.a), B: c.ref(l.b)},
			Points:     ElbowRoute(a, b),
			Width:      a.TraceTemplate.Width,
			Layer:      a.TraceTemplate.CoreLayer,
		}
	}
	return out
}

// Layout composes the placed instance layouts, the routed connectors and the
// exposed ports renamed to their external names
func (c *Circuit) Layout(mode geometry.Mode) (*geometry.Layout, error) {
	placed, err := c.placedLayouts(mode)
	if err != nil {
		return nil, err
	}

	out := geometry.NewLayout(c.name, mode)
	for _, l := range placed {
		out.AddElements(l.Elements()...)
	}
	for _, r := range c.routes(placed) {
		out.AddElements(r.Elements()...)
	}
	for _, e := range c.exposures {
		port, _ := placed[e.key.inst].Port(e.key.port)
		port.Name = e.name
		if err := out.AddPort(port); err != nil {
			return nil, err
		}
	}
	return out, nil
}
