// Package contradc composes two Bragg gratings into a contra-directional
// coupler: a wide bus waveguide at y=0 and a narrow drop waveguide above it,
// separated by a gap and sharing one cladding.
package contradc

import (
	"sync"

	"github.com/alexiusacademia/gopic/internal/errs"
	"github.com/alexiusacademia/gopic/internal/geometry"
	"github.com/alexiusacademia/gopic/internal/grating"
	"github.com/alexiusacademia/gopic/internal/smodel"
)

// Port names, in the order used by simulation exports: left side first
const (
	Port1 = "Port1" // bus input
	Port2 = "Port2" // drop input
	Port3 = "Port3" // bus output
	Port4 = "Port4" // drop output
)

// Params defines a contra-directional coupler.
// All lengths are in µm.
type Params struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	Period    float64 `json:"period" yaml:"period"`
	PeriodNum int     `json:"period_num" yaml:"period_num"`
	DW1       float64 `json:"dw1" yaml:"dw1"`             // corrugation of the bus waveguide
	DW2       float64 `json:"dw2" yaml:"dw2"`             // corrugation of the drop waveguide
	WG1Width  float64 `json:"wg1_width" yaml:"wg1_width"` // bus waveguide width
	WG2Width  float64 `json:"wg2_width" yaml:"wg2_width"` // drop waveguide width
	Gap       float64 `json:"gap" yaml:"gap"`
	DutyCycle float64 `json:"dutycycle" yaml:"dutycycle"`
	SWG       bool    `json:"swg" yaml:"swg"`

	DeviceLayer    geometry.Layer `json:"device_layer" yaml:"device_layer"`
	Cladding       bool           `json:"cladding" yaml:"cladding"`
	CladdingLayer  geometry.Layer `json:"cladding_layer" yaml:"cladding_layer"`
	CladdingMargin float64        `json:"cladding_margin" yaml:"cladding_margin"`

	// Network data
	Touchstone    string         `json:"touchstone" yaml:"touchstone"`
	PortMap       map[string]int `json:"port_map,omitempty" yaml:"port_map,omitempty"` // port name to table index, mode 0
	Degree        int            `json:"degree" yaml:"degree"`
	Extrapolation string         `json:"extrapolation,omitempty" yaml:"extrapolation,omitempty"`
}

// DefaultParams returns the default coupler
func DefaultParams() Params {
	return Params{
		Name:           "ContraDC",
		Period:         0.324,
		PeriodNum:      100,
		DW1:            0.05,
		DW2:            0.03,
		WG1Width:       0.6,
		WG2Width:       0.4,
		Gap:            0.15,
		DutyCycle:      0.5,
		DeviceLayer:    geometry.LayerSi,
		Cladding:       true,
		CladdingLayer:  geometry.LayerSiCladding,
		CladdingMargin: 2.0,
		Touchstone:     "CDC_sparam.s4p",
		PortMap:        DefaultPortMap(),
		Degree:         smodel.DefaultDegree,
	}
}

// DefaultPortMap maps Port1..Port4 to table indices 0..3
func DefaultPortMap() map[string]int {
	return map[string]int{Port1: 0, Port2: 1, Port3: 2, Port4: 3}
}

// GapOffset returns the y position of the drop waveguide axis
func (p Params) GapOffset() float64 {
	return p.WG1Width/2 + p.DW1/2 + p.Gap + p.WG2Width/2 + p.DW2/2
}

// Validate checks the parameters owned by the coupler itself.
// Sub-grating parameters are checked when the gratings are built.
func (p Params) Validate() error {
	name := p.Name
	if name == "" {
		name = "ContraDC"
	}
	if p.DutyCycle > 1 || p.DutyCycle < 0 {
		return errs.InvalidParameter(name, "dutycycle", p.DutyCycle, "only values between 0 and 1 are accepted")
	}
	if p.Gap <= 0 {
		return errs.InvalidParameter(name, "gap", p.Gap, "must be positive")
	}
	if p.Cladding && p.CladdingMargin < 0 {
		return errs.InvalidParameter(name, "cladding_margin", p.CladdingMargin, "must be non-negative")
	}
	if _, ok := smodel.ParseExtrapolation(p.Extrapolation); !ok {
		return errs.InvalidParameter(name, "extrapolation", 0, "must be error, hold or linear")
	}
	return nil
}

// ContraDC is a validated coupler with its two sub-gratings
type ContraDC struct {
	params Params
	bottom *grating.Bragg
	top    *grating.Bragg
	opts   []smodel.Option

	once  sync.Once
	model smodel.Model
	err   error
}

// New validates the parameters and builds both gratings.
// opts are applied to the tabulated model.
func New(p Params, opts ...smodel.Option) (*ContraDC, error) {
	if p.Name == "" {
		p.Name = "ContraDC"
	}
	if p.PortMap == nil {
		p.PortMap = DefaultPortMap()
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	bottom, err := grating.New(p.subgrating("_wg1", p.DW1, p.WG1Width, 0))
	if err != nil {
		return nil, err
	}
	top, err := grating.New(p.subgrating("_wg2", p.DW2, p.WG2Width, p.GapOffset()))
	if err != nil {
		return nil, err
	}
	return Compose(p, bottom, top, opts...), nil
}

func (p Params) subgrating(suffix string, dw, width, y float64) grating.Params {
	g := grating.DefaultParams()
	g.Name = p.Name + suffix
	g.Period = p.Period
	g.PeriodNum = p.PeriodNum
	g.DW = dw
	g.DutyCycle = p.DutyCycle
	g.WGWidth = width
	g.SWG = p.SWG
	g.DeviceLayer = p.DeviceLayer
	g.Cladding = false
	g.YPos = y
	g.TraceTemplate = geometry.SiWire()
	g.TraceTemplate.Width = width
	g.TraceTemplate.CoreLayer = p.DeviceLayer
	return g
}

// Compose assembles a coupler from two already validated gratings.
// Both must be drawn without cladding; the top one sits at the gap offset.
func Compose(p Params, bottom, top *grating.Bragg, opts ...smodel.Option) *ContraDC {
	return &ContraDC{params: p, bottom: bottom, top: top, opts: opts}
}

// Name returns the device name
func (c *ContraDC) Name() string { return c.params.Name }

// Params returns a copy of the parameters
func (c *ContraDC) Params() Params { return c.params }

// Length returns the drawn length in a mode
func (c *ContraDC) Length(mode geometry.Mode) float64 {
	return c.bottom.Length(mode)
}

// Elements returns both gratings followed by the shared cladding
func (c *ContraDC) Elements(mode geometry.Mode) []geometry.Element {
	p := c.params
	elems := c.bottom.Elements(mode)
	elems = append(elems, c.top.Elements(mode)...)

	if p.Cladding {
		length := c.Length(mode)
		center := geometry.Point{X: length / 2, Y: p.WG2Width/2 + p.DW2/2 + p.Gap/2}
		height := p.WG1Width + p.DW1 + p.Gap + p.WG2Width + p.DW2 + p.CladdingMargin
		elems = append(elems, geometry.Rectangle(p.CladdingLayer, center, length, height))
	}
	return elems
}

// Ports returns Port1..Port4
func (c *ContraDC) Ports(mode geometry.Mode) []geometry.Port {
	p := c.params
	y := p.GapOffset()
	inX, outX := 0.0, float64(p.PeriodNum)*p.Period
	if mode == geometry.Simulation {
		inX = grating.SimulationInputOffset * p.Period
		outX = grating.SimulationOutputOffset * p.Period
	}
	bus := c.bottom.Params().TraceTemplate
	drop := c.top.Params().TraceTemplate
	return []geometry.Port{
		{Name: Port1, Position: geometry.Point{X: inX, Y: 0}, Angle: 180, TraceTemplate: bus},
		{Name: Port2, Position: geometry.Point{X: inX, Y: y}, Angle: 180, TraceTemplate: drop},
		{Name: Port3, Position: geometry.Point{X: outX, Y: 0}, Angle: 0, TraceTemplate: bus},
		{Name: Port4, Position: geometry.Point{X: outX, Y: y}, Angle: 0, TraceTemplate: drop},
	}
}

// Layout generates the coupler geometry for a mode
func (c *ContraDC) Layout(mode geometry.Mode) (*geometry.Layout, error) {
	l := geometry.NewLayout(c.params.Name, mode)
	l.AddElements(c.Elements(mode)...)
	for _, port := range c.Ports(mode) {
		if err := l.AddPort(port); err != nil {
			return nil, err
		}
	}
	return l, nil
}
