// Package smodel implements frequency-dependent scattering-parameter models.
//
// A Model has a fixed, ordered list of terms and evaluates to one square
// complex matrix per requested frequency. Tabulated models interpolate
// measured or simulated data; analytic models evaluate a closed form.
package smodel

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/alexiusacademia/gopic/internal/optics"
)

// Model is the uniform contract of every network parameter model
type Model interface {
	// Terms returns the axis order of the evaluated matrices
	Terms() []Term
	// Evaluate returns one matrix per frequency (Hz)
	Evaluate(frequencies []float64) (*SMatrix, error)
}

// EvaluateWavelengths evaluates a model at vacuum wavelengths in µm
func EvaluateWavelengths(m Model, wavelengths []float64) (*SMatrix, error) {
	return m.Evaluate(optics.WavelengthsToFrequencies(wavelengths))
}

// Extrapolation selects what a tabulated model does outside its data range
type Extrapolation int

const (
	// ExtrapolateError fails with an OutOfRangeError
	ExtrapolateError Extrapolation = iota
	// ExtrapolateHold repeats the edge sample
	ExtrapolateHold
	// ExtrapolateLinear continues the edge interval linearly; accuracy
	// degrades with distance from the sampled range
	ExtrapolateLinear
)

func (e Extrapolation) String() string {
	switch e {
	case ExtrapolateError:
		return "error"
	case ExtrapolateHold:
		return "hold"
	case ExtrapolateLinear:
		return "linear"
	default:
		return "unknown"
	}
}

// ParseExtrapolation parses "error", "hold" or "linear"
func ParseExtrapolation(s string) (Extrapolation, bool) {
	switch s {
	case "", "error":
		return ExtrapolateError, true
	case "hold":
		return ExtrapolateHold, true
	case "linear":
		return ExtrapolateLinear, true
	}
	return ExtrapolateError, false
}

// DefaultDegree is the default interpolation polynomial degree
const DefaultDegree = 3

type options struct {
	degree        int
	extrapolation Extrapolation
	workers       int
}

func defaultOptions() options {
	return options{degree: DefaultDegree, extrapolation: ExtrapolateError, workers: 1}
}

// Option configures a model
type Option func(*options)

// WithDegree sets the interpolation degree of a tabulated model (0, 1 or 3)
func WithDegree(d int) Option {
	return func(o *options) { o.degree = d }
}

// WithExtrapolation sets the out-of-range policy of a tabulated model
func WithExtrapolation(e Extrapolation) Option {
	return func(o *options) { o.extrapolation = e }
}

// WithWorkers splits frequency sweeps across n goroutines.
// n <= 0 uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n <= 0 {
			n = runtime.GOMAXPROCS(0)
		}
		o.workers = n
	}
}

// Workers returns the worker count selected by opts
func Workers(opts ...Option) int {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o.workers
}

// PointFunc fills the row-major matrix m for one frequency point
type PointFunc func(k int, frequency float64, m []complex128) error

// Sweep allocates the result and calls fn for every frequency.
// With more than one worker, frequency indices are split into contiguous
// chunks; each worker writes only its own matrices.
func Sweep(terms []Term, frequencies []float64, workers int, fn PointFunc) (*SMatrix, error) {
	s, err := NewSMatrix(terms, frequencies)
	if err != nil {
		return nil, err
	}
	n := len(frequencies)
	if workers <= 1 || n < 2 {
		for k, f := range s.Frequencies {
			if err := fn(k, f, s.data[k]); err != nil {
				return nil, err
			}
		}
		return s, nil
	}
	if workers > n {
		workers = n
	}

	chunk := (n + workers - 1) / workers
	chunkErrs := make([]error, (n+chunk-1)/chunk)
	var g errgroup.Group
	for c := range chunkErrs {
		lo, hi := c*chunk, min((c+1)*chunk, n)
		g.Go(func() error {
			for k := lo; k < hi; k++ {
				if err := fn(k, s.Frequencies[k], s.data[k]); err != nil {
					chunkErrs[c] = err
					return err
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	// report the error of the lowest frequency index, as a serial sweep would
	for _, err := range chunkErrs {
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}
