package grating

import (
	"math"
	"math/cmplx"

	"github.com/alexiusacademia/gopic/internal/errs"
	"github.com/alexiusacademia/gopic/internal/geometry"
	"github.com/alexiusacademia/gopic/internal/optics"
	"github.com/alexiusacademia/gopic/internal/smodel"
)

// ModelParams holds the coupled-mode parameters of a uniform grating
type ModelParams struct {
	Kappa            float64 `json:"kappa" yaml:"kappa"`                         // coupling coefficient, 1/µm
	NEff             float64 `json:"neff" yaml:"neff"`                           // effective index at CenterWavelength
	NGroup           float64 `json:"ngroup" yaml:"ngroup"`                       // group index
	CenterWavelength float64 `json:"center_wavelength" yaml:"center_wavelength"` // dispersion reference, µm
	LossDBPerCM      float64 `json:"loss_db_per_cm" yaml:"loss_db_per_cm"`
}

// DefaultModelParams returns values typical of a 500 nm silicon wire
func DefaultModelParams() ModelParams {
	return ModelParams{
		Kappa:            0.02,
		NEff:             2.42,
		NGroup:           4.2,
		CenterWavelength: 1.55,
	}
}

// Validate checks the model parameters
func (m ModelParams) Validate(device string) error {
	if m.Kappa < 0 {
		return errs.InvalidParameter(device, "kappa", m.Kappa, "must be non-negative")
	}
	if m.NEff <= 0 {
		return errs.InvalidParameter(device, "neff", m.NEff, "must be positive")
	}
	if m.NGroup <= 0 {
		return errs.InvalidParameter(device, "ngroup", m.NGroup, "must be positive")
	}
	if m.CenterWavelength <= 0 {
		return errs.InvalidParameter(device, "center_wavelength", m.CenterWavelength, "must be positive")
	}
	if m.LossDBPerCM < 0 {
		return errs.InvalidParameter(device, "loss_db_per_cm", m.LossDBPerCM, "must be non-negative")
	}
	return nil
}

// BraggModel is the closed-form coupled-mode response of a uniform grating.
// Terms are in1 then out1; the response is symmetric.
type BraggModel struct {
	params  ModelParams
	period  float64
	length  float64
	terms   []smodel.Term
	workers int
}

// NewBraggModel builds the analytic model for a grating of the given period
// and length (µm)
func NewBraggModel(m ModelParams, period, length float64, opts ...smodel.Option) (*BraggModel, error) {
	const device = "bragg model"
	if err := m.Validate(device); err != nil {
		return nil, err
	}
	if period <= 0 {
		return nil, errs.InvalidParameter(device, "period", period, "must be positive")
	}
	if length <= 0 {
		return nil, errs.InvalidParameter(device, "length", length, "must be positive")
	}

	return &BraggModel{
		params:  m,
		period:  period,
		length:  length,
		terms:   smodel.PortTerms(PortIn, PortOut),
		workers: smodel.Workers(opts...),
	}, nil
}

// Model returns the analytic coupled-mode model of the full-length grating
func (b *Bragg) Model() (smodel.Model, error) {
	return NewBraggModel(b.params.Model, b.params.Period, b.Length(geometry.Full), b.opts...)
}

// Terms returns in1, out1
func (m *BraggModel) Terms() []smodel.Term {
	return smodel.PortTerms(PortIn, PortOut)
}

// EffectiveIndex returns the first-order dispersive effective index at a
// wavelength in µm
func (m *BraggModel) EffectiveIndex(wavelength float64) float64 {
	p := m.params
	return p.NEff - (p.NGroup-p.NEff)*(wavelength-p.CenterWavelength)/p.CenterWavelength
}

// BraggWavelength returns the wavelength (µm) at which the detuning vanishes
func (m *BraggModel) BraggWavelength() float64 {
	p := m.params
	return 2 * m.period * p.NGroup / (1 + 2*m.period*(p.NGroup-p.NEff)/p.CenterWavelength)
}

// Response returns the reflection and transmission amplitudes at a wavelength in µm
func (m *BraggModel) Response(wavelength float64) (r, t complex128) {
	kappa := complex(m.params.Kappa, 0)
	// field attenuation per µm
	alpha := -math.Log(optics.PropagationLoss(m.params.LossDBPerCM, 1))
	beta := 2 * math.Pi * m.EffectiveIndex(wavelength) / wavelength
	delta := complex(beta-math.Pi/m.period, -alpha)
	l := complex(m.length, 0)

	s := cmplx.Sqrt(kappa*kappa - delta*delta)

	// sinh(sL)/s, finite as s goes to zero at the band edge
	sinhc := l
	if cmplx.Abs(s) > 1e-12 {
		sinhc = cmplx.Sinh(s*l) / s
	}
	denom := cmplx.Cosh(s*l) + 1i*delta*sinhc

	r = -1i * kappa * sinhc / denom
	t = cmplx.Exp(complex(0, -math.Pi*m.length/m.period)) / denom
	return r, t
}

// Evaluate returns the grating response at each frequency
func (m *BraggModel) Evaluate(frequencies []float64) (*smodel.SMatrix, error) {
	return smodel.Sweep(m.terms, frequencies, m.workers, func(_ int, f float64, s []complex128) error {
		if f <= 0 {
			return errs.InvalidParameter("bragg model", "frequency", f, "must be positive")
		}
		r, t := m.Response(optics.FrequencyToWavelength(f))
		s[0], s[1] = r, t
		s[2], s[3] = t, r
		return nil
	})
}
