package smodel

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/interp"

	"github.com/alexiusacademia/gopic/internal/errs"
)

// Table is raw multi-port S-parameter data indexed 0..NumPorts-1
type Table struct {
	NumPorts    int
	Frequencies []float64      // Hz, strictly increasing
	Data        [][]complex128 // per frequency, row-major NumPorts×NumPorts
}

// TermMap assigns each (port, mode) term to a table index
type TermMap map[Term]int

// Tabulated interpolates a Table over frequency.
// Real and imaginary parts of every entry are fitted independently.
type Tabulated struct {
	terms  []Term
	table  Table
	fits   []entryFit // row-major in model term order
	opts   options
	fmin   float64
	fmax   float64
	margin float64
}

type entryFit struct {
	re, im interp.Predictor
}

// NewTabulated validates the term mapping and fits the interpolants.
// The model's term order is the table index order.
func NewTabulated(table Table, termMap TermMap, opts ...Option) (*Tabulated, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	terms, err := termsFromMap(table.NumPorts, termMap)
	if err != nil {
		return nil, err
	}
	if err := validateTable(table); err != nil {
		return nil, err
	}
	if err := checkDegree(o.degree, len(table.Frequencies)); err != nil {
		return nil, err
	}

	n := table.NumPorts
	t := &Tabulated{
		terms: terms,
		table: table,
		fits:  make([]entryFit, n*n),
		opts:  o,
		fmin:  table.Frequencies[0],
		fmax:  table.Frequencies[len(table.Frequencies)-1],
	}
	t.margin = 1e-12 * math.Max(math.Abs(t.fmin), math.Abs(t.fmax))

	re := make([]float64, len(table.Frequencies))
	im := make([]float64, len(table.Frequencies))
	for e := 0; e < n*n; e++ {
		for k, m := range table.Data {
			re[k] = real(m[e])
			im[k] = imag(m[e])
		}
		fre, err := fitPredictor(o.degree, table.Frequencies, re)
		if err != nil {
			return nil, fmt.Errorf("fitting S[%d][%d] real part: %w", e/n, e%n, err)
		}
		fim, err := fitPredictor(o.degree, table.Frequencies, im)
		if err != nil {
			return nil, fmt.Errorf("fitting S[%d][%d] imaginary part: %w", e/n, e%n, err)
		}
		t.fits[e] = entryFit{re: fre, im: fim}
	}

	return t, nil
}

// termsFromMap checks the mapping is a bijection onto 0..n-1 and returns
// the terms ordered by index.
func termsFromMap(n int, termMap TermMap) ([]Term, error) {
	if n <= 0 {
		return nil, &errs.PortMappingError{Index: n, Reason: "table has no ports"}
	}
	terms := make([]Term, n)
	assigned := make([]bool, n)

	// deterministic error reporting
	keys := make([]Term, 0, len(termMap))
	for t := range termMap {
		keys = append(keys, t)
	}
	sort.Slice(keys, func(i, j int) bool {
		if termMap[keys[i]] != termMap[keys[j]] {
			return termMap[keys[i]] < termMap[keys[j]]
		}
		if keys[i].Port != keys[j].Port {
			return keys[i].Port < keys[j].Port
		}
		return keys[i].Mode < keys[j].Mode
	})

	for _, t := range keys {
		idx := termMap[t]
		if idx < 0 || idx >= n {
			return nil, &errs.PortMappingError{Port: t.Port, Mode: t.Mode, Index: idx, Reason: fmt.Sprintf("index outside table range 0..%d", n-1)}
		}
		if assigned[idx] {
			return nil, &errs.PortMappingError{Port: t.Port, Mode: t.Mode, Index: idx, Reason: fmt.Sprintf("index already mapped to %s", terms[idx])}
		}
		if t.Port == "" || t.Mode < 0 {
			return nil, &errs.PortMappingError{Port: t.Port, Mode: t.Mode, Index: idx, Reason: "invalid term"}
		}
		assigned[idx] = true
		terms[idx] = t
	}
	for i, ok := range assigned {
		if !ok {
			return nil, &errs.PortMappingError{Index: i, Reason: "table index has no term"}
		}
	}
	return terms, nil
}

func validateTable(table Table) error {
	if len(table.Frequencies) == 0 {
		return fmt.Errorf("tabulated model: empty frequency axis")
	}
	if len(table.Data) != len(table.Frequencies) {
		return fmt.Errorf("tabulated model: %d matrices for %d frequencies", len(table.Data), len(table.Frequencies))
	}
	n := table.NumPorts
	for k, m := range table.Data {
		if len(m) != n*n {
			return fmt.Errorf("tabulated model: matrix %d has %d entries, want %d", k, len(m), n*n)
		}
		if k > 0 && table.Frequencies[k] <= table.Frequencies[k-1] {
			return fmt.Errorf("tabulated model: frequencies must be strictly increasing at index %d", k)
		}
	}
	return nil
}

func checkDegree(degree, points int) error {
	switch degree {
	case 0, 1:
		if points < 2 && degree == 1 {
			return errs.InvalidParameter("tabulated model", "points", float64(points), "linear interpolation needs at least 2 samples")
		}
	case 3:
		if points < 3 {
			return errs.InvalidParameter("tabulated model", "points", float64(points), "cubic interpolation needs at least 3 samples")
		}
	default:
		return errs.InvalidParameter("tabulated model", "degree", float64(degree), "supported degrees are 0, 1 and 3")
	}
	return nil
}

func fitPredictor(degree int, xs, ys []float64) (interp.Predictor, error) {
	if len(xs) == 1 {
		return constant(ys[0]), nil
	}
	var fp interp.FittablePredictor
	switch degree {
	case 0:
		fp = &interp.PiecewiseConstant{}
	case 1:
		fp = &interp.PiecewiseLinear{}
	default:
		fp = &interp.NaturalCubic{}
	}
	if err := fp.Fit(xs, ys); err != nil {
		return nil, err
	}
	return fp, nil
}

type constant float64

func (c constant) Predict(float64) float64 { return float64(c) }

// Terms returns the model axis order
func (t *Tabulated) Terms() []Term {
	out := make([]Term, len(t.terms))
	copy(out, t.terms)
	return out
}

// Range returns the sampled frequency range in Hz
func (t *Tabulated) Range() (float64, float64) {
	return t.fmin, t.fmax
}

// Table returns the underlying data
func (t *Tabulated) Table() Table {
	return t.table
}

// Evaluate interpolates the table at each frequency
func (t *Tabulated) Evaluate(frequencies []float64) (*SMatrix, error) {
	return Sweep(t.terms, frequencies, t.opts.workers, t.point)
}

func (t *Tabulated) point(_ int, f float64, m []complex128) error {
	freqs := t.table.Frequencies

	switch {
	case f < t.fmin-t.margin || f > t.fmax+t.margin:
		return t.extrapolate(f, m)
	case f < t.fmin:
		f = t.fmin
	case f > t.fmax:
		f = t.fmax
	}

	// anchors return the stored samples verbatim
	if k := sort.SearchFloat64s(freqs, f); k < len(freqs) && freqs[k] == f {
		copy(m, t.table.Data[k])
		return nil
	}

	for e, fit := range t.fits {
		m[e] = complex(fit.re.Predict(f), fit.im.Predict(f))
	}
	return nil
}

func (t *Tabulated) extrapolate(f float64, m []complex128) error {
	freqs := t.table.Frequencies
	last := len(freqs) - 1

	switch t.opts.extrapolation {
	case ExtrapolateHold:
		edge := 0
		if f > t.fmax {
			edge = last
		}
		copy(m, t.table.Data[edge])
		return nil

	case ExtrapolateLinear:
		if last == 0 {
			copy(m, t.table.Data[0])
			return nil
		}
		a, b := 0, 1
		if f > t.fmax {
			a, b = last-1, last
		}
		x := complex((f-freqs[a])/(freqs[b]-freqs[a]), 0)
		for e := range m {
			ya, yb := t.table.Data[a][e], t.table.Data[b][e]
			m[e] = ya + (yb-ya)*x
		}
		return nil
	}

	return &errs.OutOfRangeError{Frequency: f, Min: t.fmin, Max: t.fmax}
}
