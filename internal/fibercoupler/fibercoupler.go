// Package fibercoupler provides a vertical fiber grating coupler: a
// subwavelength grating fed by a short access waveguide, modelled by a
// Gaussian passband.
package fibercoupler

import (
	"github.com/alexiusacademia/gopic/internal/errs"
	"github.com/alexiusacademia/gopic/internal/geometry"
	"github.com/alexiusacademia/gopic/internal/grating"
	"github.com/alexiusacademia/gopic/internal/smodel"
)

// Port names
const (
	PortOut      = smodel.GaussianWaveguide
	PortVertical = smodel.GaussianVertical
)

// Params defines a grating coupler. Lengths are in µm.
type Params struct {
	Name      string  `json:"name,omitempty" yaml:"name,omitempty"`
	LineWidth float64 `json:"line_width" yaml:"line_width"` // width of each grating line along the axis
	Period    float64 `json:"period" yaml:"period"`
	Periods   int     `json:"n_o_periods" yaml:"n_o_periods"`
	Width     float64 `json:"width" yaml:"width"`   // lateral width of the grating
	Access    float64 `json:"access" yaml:"access"` // access waveguide length
	WGWidth   float64 `json:"wg_width" yaml:"wg_width"`

	DeviceLayer geometry.Layer `json:"device_layer" yaml:"device_layer"`

	Model smodel.GaussianParams `json:"model" yaml:"model"`
}

// DefaultParams returns a 15-period C-band coupler
func DefaultParams() Params {
	return Params{
		Name:        "GratingCoupler",
		LineWidth:   0.83,
		Period:      1.2,
		Periods:     15,
		Width:       10,
		Access:      5,
		WGWidth:     0.45,
		DeviceLayer: geometry.LayerSi,
		Model:       smodel.DefaultGaussianParams(),
	}
}

// Validate checks the coupler parameters
func (p Params) Validate() error {
	name := p.Name
	if name == "" {
		name = "GratingCoupler"
	}
	if p.Period <= 0 {
		return errs.InvalidParameter(name, "period", p.Period, "must be positive")
	}
	if p.LineWidth <= 0 || p.LineWidth > p.Period {
		return errs.InvalidParameter(name, "line_width", p.LineWidth, "must be positive and not exceed the period")
	}
	if p.Width <= 0 {
		return errs.InvalidParameter(name, "width", p.Width, "must be positive")
	}
	if p.Access < 0 {
		return errs.InvalidParameter(name, "access", p.Access, "must be non-negative")
	}
	if p.WGWidth <= 0 {
		return errs.InvalidParameter(name, "wg_width", p.WGWidth, "must be positive")
	}
	return p.Model.Validate()
}

// Coupler is a validated grating coupler
type Coupler struct {
	params  Params
	grating *grating.Bragg
	model   *smodel.Gaussian
}

// New builds the coupler. The grating lines are drawn by the Bragg
// synthesizer with the spine removed.
func New(p Params, opts ...smodel.Option) (*Coupler, error) {
	if p.Name == "" {
		p.Name = "GratingCoupler"
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	g := grating.DefaultParams()
	g.Name = p.Name + "_lines"
	g.Period = p.Period
	g.PeriodNum = p.Periods
	g.DutyCycle = p.LineWidth / p.Period
	g.WGWidth = p.Width
	g.DW = 0
	g.SWG = true
	g.Cladding = false
	g.DeviceLayer = p.DeviceLayer
	g.XPos = p.Access
	lines, err := grating.New(g)
	if err != nil {
		return nil, err
	}

	model, err := smodel.NewGaussian(p.Model, opts...)
	if err != nil {
		return nil, err
	}
	return &Coupler{params: p, grating: lines, model: model}, nil
}

// Name returns the device name
func (c *Coupler) Name() string { return c.params.Name }

// Params returns a copy of the parameters
func (c *Coupler) Params() Params { return c.params }

// Layout draws the access waveguide and grating lines. The waveguide port
// faces -x at the origin; the vertical port marks the grating center.
// Both modes draw the same geometry.
func (c *Coupler) Layout(mode geometry.Mode) (*geometry.Layout, error) {
	p := c.params
	l := geometry.NewLayout(p.Name, mode)

	if p.Access > 0 {
		l.AddElements(geometry.Rectangle(p.DeviceLayer, geometry.Point{X: p.Access / 2}, p.Access, p.WGWidth))
	}
	l.AddElements(c.grating.Elements(geometry.Full)...)

	tt := geometry.SiWire()
	tt.Width = p.WGWidth
	tt.CoreLayer = p.DeviceLayer
	center := p.Access + c.grating.Length(geometry.Full)/2
	ports := []geometry.Port{
		{Name: PortOut, Position: geometry.Point{}, Angle: 180, TraceTemplate: tt},
		{Name: PortVertical, Position: geometry.Point{X: center}, Angle: 90, TraceTemplate: tt},
	}
	for _, port := range ports {
		if err := l.AddPort(port); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Model returns the Gaussian passband model
func (c *Coupler) Model() (smodel.Model, error) {
	return c.model, nil
}
