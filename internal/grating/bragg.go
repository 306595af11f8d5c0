package grating

import (
	"github.com/alexiusacademia/gopic/internal/errs"
	"github.com/alexiusacademia/gopic/internal/geometry"
	"github.com/alexiusacademia/gopic/internal/smodel"
)

// SimulationPeriods is the fixed period count drawn in simulation mode
const SimulationPeriods = 5

// Simulation-mode port window, in periods from the local origin
const (
	SimulationInputOffset  = 2
	SimulationOutputOffset = 3
)

// Port names of a straight Bragg grating
const (
	PortIn  = "in1"
	PortOut = "out1"
)

// Params defines a corrugated straight Bragg grating.
// All lengths are in µm.
type Params struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Grating
	Period    float64 `json:"period" yaml:"period"`         // distance between two teeth
	PeriodNum int     `json:"period_num" yaml:"period_num"` // number of periods
	DW        float64 `json:"dw" yaml:"dw"`                 // corrugation width
	DutyCycle float64 `json:"dutycycle" yaml:"dutycycle"`   // tooth fraction of a period, 0..1
	WGWidth   float64 `json:"wg_width" yaml:"wg_width"`     // base waveguide width
	SWG       bool    `json:"swg" yaml:"swg"`               // drop the continuous spine under the teeth

	// Layers
	DeviceLayer    geometry.Layer `json:"device_layer" yaml:"device_layer"`
	Cladding       bool           `json:"cladding" yaml:"cladding"`
	CladdingLayer  geometry.Layer `json:"cladding_layer" yaml:"cladding_layer"`
	CladdingMargin float64        `json:"cladding_margin" yaml:"cladding_margin"`

	// CladdingFollowsOffset centers the cladding on (XPos, YPos).
	// When false the cladding keeps its historical anchoring at the origin.
	CladdingFollowsOffset bool `json:"cladding_follows_offset" yaml:"cladding_follows_offset"`

	// Position of the input end
	XPos float64 `json:"x_pos" yaml:"x_pos"`
	YPos float64 `json:"y_pos" yaml:"y_pos"`

	// Port cross-section; the zero value is an SiWire of WGWidth on DeviceLayer
	TraceTemplate geometry.TraceTemplate `json:"trace_template" yaml:"trace_template"`

	// Analytic model
	Model ModelParams `json:"model" yaml:"model"`
}

// DefaultParams returns the default 100-period silicon Bragg grating
func DefaultParams() Params {
	return Params{
		Name:           "BraggStraight",
		Period:         0.32,
		PeriodNum:      100,
		DW:             0.04,
		DutyCycle:      0.5,
		WGWidth:        0.5,
		DeviceLayer:    geometry.LayerSi,
		Cladding:       true,
		CladdingLayer:  geometry.LayerSiCladding,
		CladdingMargin: 2.0,
		Model:          DefaultModelParams(),
	}
}

// Validate checks the grating parameters
func (p Params) Validate() error {
	name := p.Name
	if name == "" {
		name = "BraggStraight"
	}
	if p.DutyCycle > 1 || p.DutyCycle < 0 {
		return errs.InvalidParameter(name, "dutycycle", p.DutyCycle, "only values between 0 and 1 are accepted")
	}
	if p.Period <= 0 {
		return errs.InvalidParameter(name, "period", p.Period, "must be positive")
	}
	if p.PeriodNum < 1 {
		return errs.InvalidParameter(name, "period_num", float64(p.PeriodNum), "must be a positive integer")
	}
	if p.WGWidth <= 0 {
		return errs.InvalidParameter(name, "wg_width", p.WGWidth, "must be positive")
	}
	if p.DW < 0 {
		return errs.InvalidParameter(name, "dw", p.DW, "must be non-negative")
	}
	if !p.SWG && p.WGWidth-p.DW <= 0 {
		return errs.InvalidParameter(name, "dw", p.DW, "spine width wg_width-dw must be positive")
	}
	if p.Cladding && p.CladdingMargin < 0 {
		return errs.InvalidParameter(name, "cladding_margin", p.CladdingMargin, "must be non-negative")
	}
	return p.Model.Validate(name)
}

// Bragg is a validated straight Bragg grating
type Bragg struct {
	params Params
	opts   []smodel.Option
}

// New validates the parameters and returns the grating.
// opts are passed to the analytic model.
func New(p Params, opts ...smodel.Option) (*Bragg, error) {
	if p.Name == "" {
		p.Name = "BraggStraight"
	}
	if p.TraceTemplate.Width == 0 {
		p.TraceTemplate = geometry.SiWire()
		p.TraceTemplate.Width = p.WGWidth
		p.TraceTemplate.CoreLayer = p.DeviceLayer
	}
	if p.Model == (ModelParams{}) {
		p.Model = DefaultModelParams()
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Bragg{params: p, opts: opts}, nil
}

// Name returns the device name
func (b *Bragg) Name() string { return b.params.Name }

// Params returns a copy of the parameters
func (b *Bragg) Params() Params { return b.params }

// Periods returns the number of periods drawn in a mode
func (b *Bragg) Periods(mode geometry.Mode) int {
	if mode == geometry.Simulation {
		return SimulationPeriods
	}
	return b.params.PeriodNum
}

// Length returns the drawn length in a mode
func (b *Bragg) Length(mode geometry.Mode) float64 {
	return float64(b.Periods(mode)) * b.params.Period
}

// Elements returns the grating elements for a mode, without ports
func (b *Bragg) Elements(mode geometry.Mode) []geometry.Element {
	p := b.params
	n := b.Periods(mode)
	length := b.Length(mode)

	elems := make([]geometry.Element, 0, n+2)

	// Teeth
	toothWidth := p.Period * p.DutyCycle
	for i := 0; i < n; i++ {
		center := geometry.Point{
			X: p.XPos + toothWidth/2 + float64(i)*p.Period,
			Y: p.YPos,
		}
		elems = append(elems, geometry.Rectangle(p.DeviceLayer, center, toothWidth, p.WGWidth+p.DW))
	}

	// Continuous spine under the teeth
	if !p.SWG {
		center := geometry.Point{X: p.XPos + length/2, Y: p.YPos}
		elems = append(elems, geometry.Rectangle(p.DeviceLayer, center, length, p.WGWidth-p.DW))
	}

	if p.Cladding {
		elems = append(elems, geometry.Rectangle(p.CladdingLayer, b.claddingCenter(length), length, p.WGWidth+2*p.DW+p.CladdingMargin))
	}

	return elems
}

func (b *Bragg) claddingCenter(length float64) geometry.Point {
	if b.params.CladdingFollowsOffset {
		return geometry.Point{X: b.params.XPos + length/2, Y: b.params.YPos}
	}
	return geometry.Point{X: length / 2, Y: 0}
}

// CladdingMisaligned reports whether the cladding is drawn away from the
// device because of the origin anchoring.
func (b *Bragg) CladdingMisaligned() bool {
	p := b.params
	return p.Cladding && !p.CladdingFollowsOffset && (p.XPos != 0 || p.YPos != 0)
}

// Ports returns the two ports for a mode.
// In simulation mode both ports sit in the canonical window at 2 and 3
// periods from the local origin, not at the structure ends.
func (b *Bragg) Ports(mode geometry.Mode) []geometry.Port {
	p := b.params
	inX, outX := p.XPos, p.XPos+float64(p.PeriodNum)*p.Period
	if mode == geometry.Simulation {
		inX = p.XPos + SimulationInputOffset*p.Period
		outX = p.XPos + SimulationOutputOffset*p.Period
	}
	return []geometry.Port{
		{Name: PortIn, Position: geometry.Point{X: inX, Y: p.YPos}, Angle: 180, TraceTemplate: p.TraceTemplate},
		{Name: PortOut, Position: geometry.Point{X: outX, Y: p.YPos}, Angle: 0, TraceTemplate: p.TraceTemplate},
	}
}

// Layout generates the device geometry for a mode
func (b *Bragg) Layout(mode geometry.Mode) (*geometry.Layout, error) {
	l := geometry.NewLayout(b.params.Name, mode)
	l.AddElements(b.Elements(mode)...)
	for _, port := range b.Ports(mode) {
		if err := l.AddPort(port); err != nil {
			return nil, err
		}
	}
	return l, nil
}
