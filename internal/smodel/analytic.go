package smodel

import (
	"fmt"
	"math"

	"github.com/alexiusacademia/gopic/internal/errs"
	"github.com/alexiusacademia/gopic/internal/optics"
)

// Gaussian port names
const (
	GaussianVertical  = "vertical_in"
	GaussianWaveguide = "out"
)

// GaussianParams describes a fiber grating coupler passband.
// Wavelengths are in µm, losses in dB, reflections are amplitudes.
type GaussianParams struct {
	CenterWavelength   float64 `json:"center_wavelength" yaml:"center_wavelength"`
	Bandwidth1dB       float64 `json:"bandwidth_1db" yaml:"bandwidth_1db"`
	PeakILdB           float64 `json:"peak_il_db" yaml:"peak_il_db"`
	Reflection         float64 `json:"reflection" yaml:"reflection"`
	ReflectionVertical float64 `json:"reflection_vertical_in" yaml:"reflection_vertical_in"`
}

// DefaultGaussianParams returns a C-band coupler centered at 1.55 µm
func DefaultGaussianParams() GaussianParams {
	return GaussianParams{
		CenterWavelength:   1.55,
		Bandwidth1dB:       0.03,
		PeakILdB:           math.Sqrt(0.6),
		Reflection:         math.Sqrt(0.05),
		ReflectionVertical: math.Sqrt(0.05),
	}
}

// Validate checks the passband parameters
func (p GaussianParams) Validate() error {
	const name = "gaussian model"
	if p.CenterWavelength <= 0 {
		return errs.InvalidParameter(name, "center_wavelength", p.CenterWavelength, "must be positive")
	}
	if p.Bandwidth1dB <= 0 {
		return errs.InvalidParameter(name, "bandwidth_1db", p.Bandwidth1dB, "must be positive")
	}
	if p.PeakILdB < 0 {
		return errs.InvalidParameter(name, "peak_il_db", p.PeakILdB, "must be non-negative")
	}
	if p.Reflection < 0 || p.Reflection > 1 {
		return errs.InvalidParameter(name, "reflection", p.Reflection, "only values between 0 and 1 are accepted")
	}
	if p.ReflectionVertical < 0 || p.ReflectionVertical > 1 {
		return errs.InvalidParameter(name, "reflection_vertical_in", p.ReflectionVertical, "only values between 0 and 1 are accepted")
	}
	return nil
}

// Gaussian is a two-term bandpass model: the insertion loss in dB grows
// quadratically away from the center and reaches peak+1 dB at the edges of
// the 1 dB bandwidth. Reflections are in quadrature with the transmission.
type Gaussian struct {
	params  GaussianParams
	terms   []Term
	workers int
}

// NewGaussian validates the parameters and returns the model.
// Terms are vertical_in then out.
func NewGaussian(p GaussianParams, opts ...Option) (*Gaussian, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Gaussian{
		params:  p,
		terms:   PortTerms(GaussianVertical, GaussianWaveguide),
		workers: o.workers,
	}, nil
}

// Params returns the passband parameters
func (g *Gaussian) Params() GaussianParams { return g.params }

// Terms returns vertical_in, out
func (g *Gaussian) Terms() []Term {
	return PortTerms(GaussianVertical, GaussianWaveguide)
}

// InsertionLossDB returns the insertion loss at a wavelength in µm
func (g *Gaussian) InsertionLossDB(wavelength float64) float64 {
	x := (wavelength - g.params.CenterWavelength) / (g.params.Bandwidth1dB / 2)
	return g.params.PeakILdB + x*x
}

// Evaluate returns the coupler response at each frequency
func (g *Gaussian) Evaluate(frequencies []float64) (*SMatrix, error) {
	rv := complex(0, g.params.ReflectionVertical)
	ro := complex(0, g.params.Reflection)
	return Sweep(g.terms, frequencies, g.workers, func(_ int, f float64, m []complex128) error {
		if f <= 0 {
			return errs.InvalidParameter("gaussian model", "frequency", f, "must be positive")
		}
		t := complex(optics.AmplitudeFromDB(g.InsertionLossDB(optics.FrequencyToWavelength(f))), 0)
		m[0], m[1] = rv, t
		m[2], m[3] = t, ro
		return nil
	})
}

// Constant is a frequency-independent model
type Constant struct {
	terms  []Term
	matrix []complex128
}

// NewConstant builds a model returning the same matrix at every frequency.
// rows must be square and match the number of terms.
func NewConstant(terms []Term, rows [][]complex128) (*Constant, error) {
	n := len(terms)
	if len(rows) != n {
		return nil, fmt.Errorf("constant model: %d rows for %d terms", len(rows), n)
	}
	flat := make([]complex128, 0, n*n)
	for i, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("constant model: row %d has %d entries, want %d", i, len(row), n)
		}
		flat = append(flat, row...)
	}
	if _, err := NewSMatrix(terms, nil); err != nil {
		return nil, err
	}
	ts := make([]Term, n)
	copy(ts, terms)
	return &Constant{terms: ts, matrix: flat}, nil
}

// Terms returns the model axis order
func (c *Constant) Terms() []Term {
	out := make([]Term, len(c.terms))
	copy(out, c.terms)
	return out
}

// Evaluate repeats the matrix at every frequency
func (c *Constant) Evaluate(frequencies []float64) (*SMatrix, error) {
	return Sweep(c.terms, frequencies, 1, func(_ int, _ float64, m []complex128) error {
		copy(m, c.matrix)
		return nil
	})
}
