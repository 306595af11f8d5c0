package smodel_test

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/alexiusacademia/gopic/internal/errs"
	"github.com/alexiusacademia/gopic/internal/optics"
	"github.com/alexiusacademia/gopic/internal/smodel"
)

// sampleTable is a 2-port table on 1..4 Hz whose entries are linear in f.
func sampleTable() smodel.Table {
	freqs := []float64{1, 2, 3, 4}
	data := make([][]complex128, len(freqs))
	for k, f := range freqs {
		data[k] = []complex128{
			complex(0.1*f, 0), complex(0.5, 0.1*f),
			complex(0.5, -0.1*f), complex(0, 0.2*f),
		}
	}
	return smodel.Table{NumPorts: 2, Frequencies: freqs, Data: data}
}

func sampleMap() smodel.TermMap {
	return smodel.TermMap{smodel.T("a"): 0, smodel.T("b"): 1}
}

// TabulatedSuite groups tests for the interpolated table model.
type TabulatedSuite struct {
	suite.Suite
	table smodel.Table
}

func (s *TabulatedSuite) SetupTest() {
	s.table = sampleTable()
}

// TestAnchorsExact: queries at sample frequencies return the stored values bit for bit.
func (s *TabulatedSuite) TestAnchorsExact() {
	for _, degree := range []int{0, 1, 3} {
		m, err := smodel.NewTabulated(s.table, sampleMap(), smodel.WithDegree(degree))
		require.NoError(s.T(), err)

		sm, err := m.Evaluate(s.table.Frequencies)
		require.NoError(s.T(), err)
		for k := range s.table.Frequencies {
			require.Equal(s.T(), s.table.Data[k], sm.Matrix(k), "degree %d anchor %d", degree, k)
		}
	}
}

// TestTermOrderFollowsIndex: the model axis order is the table index order.
func (s *TabulatedSuite) TestTermOrderFollowsIndex() {
	m, err := smodel.NewTabulated(s.table, smodel.TermMap{smodel.T("z"): 0, smodel.T("a"): 1})
	require.NoError(s.T(), err)
	require.Equal(s.T(), smodel.PortTerms("z", "a"), m.Terms())
}

// TestLinearBetweenAnchors: degree 1 halfway between samples is the mean.
func (s *TabulatedSuite) TestLinearBetweenAnchors() {
	m, err := smodel.NewTabulated(s.table, sampleMap(), smodel.WithDegree(1))
	require.NoError(s.T(), err)

	sm, err := m.Evaluate([]float64{2.5})
	require.NoError(s.T(), err)
	v := sm.At(0, 0, 1)
	require.InDelta(s.T(), 0.5, real(v), 1e-12)
	require.InDelta(s.T(), 0.25, imag(v), 1e-12)
}

// TestCubicReproducesLinearData: a natural spline through collinear points is the line.
func (s *TabulatedSuite) TestCubicReproducesLinearData() {
	m, err := smodel.NewTabulated(s.table, sampleMap())
	require.NoError(s.T(), err)

	sm, err := m.Evaluate([]float64{1.3, 3.7})
	require.NoError(s.T(), err)
	require.InDelta(s.T(), 0.13, real(sm.At(0, 0, 0)), 1e-9)
	require.InDelta(s.T(), 0.74, imag(sm.At(1, 1, 1)), 1e-9)
}

// TestOutOfRange yields OutOfRangeError by default.
func (s *TabulatedSuite) TestOutOfRange() {
	m, err := smodel.NewTabulated(s.table, sampleMap())
	require.NoError(s.T(), err)

	_, err = m.Evaluate([]float64{2, 5})
	var oe *errs.OutOfRangeError
	require.True(s.T(), errors.As(err, &oe), "error must be OutOfRangeError")
	require.Equal(s.T(), 5.0, oe.Frequency)
	require.Equal(s.T(), 1.0, oe.Min)
	require.Equal(s.T(), 4.0, oe.Max)
}

// TestHoldAndLinearExtrapolation covers both continuation policies.
func (s *TabulatedSuite) TestHoldAndLinearExtrapolation() {
	hold, err := smodel.NewTabulated(s.table, sampleMap(), smodel.WithExtrapolation(smodel.ExtrapolateHold))
	require.NoError(s.T(), err)
	sm, err := hold.Evaluate([]float64{0.5, 5})
	require.NoError(s.T(), err)
	require.Equal(s.T(), s.table.Data[0], sm.Matrix(0))
	require.Equal(s.T(), s.table.Data[3], sm.Matrix(1))

	lin, err := smodel.NewTabulated(s.table, sampleMap(), smodel.WithExtrapolation(smodel.ExtrapolateLinear))
	require.NoError(s.T(), err)
	sm, err = lin.Evaluate([]float64{5})
	require.NoError(s.T(), err)
	require.InDelta(s.T(), 0.5, real(sm.At(0, 0, 0)), 1e-12)
	require.InDelta(s.T(), 1.0, imag(sm.At(0, 1, 1)), 1e-12)
}

// TestPortMapping rejects every kind of broken term map.
func (s *TabulatedSuite) TestPortMapping() {
	cases := map[string]smodel.TermMap{
		"missing index":   {smodel.T("a"): 0},
		"duplicate index": {smodel.T("a"): 0, smodel.T("b"): 0},
		"out of range":    {smodel.T("a"): 0, smodel.T("b"): 2},
		"negative":        {smodel.T("a"): -1, smodel.T("b"): 1},
	}
	for name, tm := range cases {
		_, err := smodel.NewTabulated(s.table, tm)
		var pe *errs.PortMappingError
		require.True(s.T(), errors.As(err, &pe), "%s: error must be PortMappingError, got %v", name, err)
	}
}

// TestUnsupportedDegree yields InvalidParameterError.
func (s *TabulatedSuite) TestUnsupportedDegree() {
	_, err := smodel.NewTabulated(s.table, sampleMap(), smodel.WithDegree(2))
	var ie *errs.InvalidParameterError
	require.True(s.T(), errors.As(err, &ie))
	require.Equal(s.T(), "degree", ie.Param)
}

// TestParallelMatchesSerial: splitting the sweep across workers changes nothing.
func (s *TabulatedSuite) TestParallelMatchesSerial() {
	freqs := optics.Linspace(1, 4, 37)
	serial, err := smodel.NewTabulated(s.table, sampleMap())
	require.NoError(s.T(), err)
	parallel, err := smodel.NewTabulated(s.table, sampleMap(), smodel.WithWorkers(4))
	require.NoError(s.T(), err)

	a, err := serial.Evaluate(freqs)
	require.NoError(s.T(), err)
	b, err := parallel.Evaluate(freqs)
	require.NoError(s.T(), err)
	for k := range freqs {
		require.Equal(s.T(), a.Matrix(k), b.Matrix(k))
	}
}

func TestTabulatedSuite(t *testing.T) {
	suite.Run(t, new(TabulatedSuite))
}

func TestSweepReportsLowestIndexError(t *testing.T) {
	terms := smodel.PortTerms("a")
	freqs := optics.Linspace(0, 9, 10)
	_, err := smodel.Sweep(terms, freqs, 4, func(k int, _ float64, _ []complex128) error {
		if k == 3 || k == 8 {
			return &errs.SingularNetworkError{Frequency: float64(k)}
		}
		return nil
	})
	var se *errs.SingularNetworkError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 3.0, se.Frequency)
}

func TestGaussianPassband(t *testing.T) {
	g, err := smodel.NewGaussian(smodel.DefaultGaussianParams())
	require.NoError(t, err)

	p := g.Params()
	wl := []float64{p.CenterWavelength, p.CenterWavelength + p.Bandwidth1dB/2}
	sm, err := smodel.EvaluateWavelengths(g, wl)
	require.NoError(t, err)

	db, err := sm.TransmissionDB(smodel.T(smodel.GaussianWaveguide), smodel.T(smodel.GaussianVertical))
	require.NoError(t, err)
	assert.InDelta(t, -p.PeakILdB, db[0], 1e-9)
	assert.InDelta(t, -p.PeakILdB-1, db[1], 1e-6)

	r, err := sm.Lookup(smodel.GaussianVertical, smodel.GaussianVertical)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(0.05), cmplx.Abs(r[0]), 1e-12)

	ok, worst, err := sm.Passive(1e-12)
	require.NoError(t, err)
	assert.True(t, ok, "largest singular value %v", worst)
	assert.True(t, sm.Reciprocal(1e-15))
}

func TestGaussianRejectsBadParams(t *testing.T) {
	p := smodel.DefaultGaussianParams()
	p.Bandwidth1dB = 0
	_, err := smodel.NewGaussian(p)
	var ie *errs.InvalidParameterError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "bandwidth_1db", ie.Param)
}

func TestConstantAndReorder(t *testing.T) {
	c, err := smodel.NewConstant(smodel.PortTerms("a", "b"), [][]complex128{{0.1, 0.9}, {0.8, 0.2}})
	require.NoError(t, err)

	sm, err := c.Evaluate([]float64{1, 2})
	require.NoError(t, err)
	v, err := sm.Get(1, smodel.T("b"), smodel.T("a"))
	require.NoError(t, err)
	assert.Equal(t, complex128(0.8), v)

	re, err := sm.Reorder(smodel.PortTerms("b", "a"))
	require.NoError(t, err)
	assert.Equal(t, complex128(0.2), re.At(0, 0, 0))
	assert.Equal(t, complex128(0.8), re.At(0, 0, 1))
	assert.Equal(t, complex128(0.9), re.At(0, 1, 0))
	assert.Equal(t, complex128(0.1), re.At(0, 1, 1))
	assert.False(t, sm.Reciprocal(1e-3))

	_, err = smodel.NewConstant(smodel.PortTerms("a", "a"), [][]complex128{{0, 1}, {1, 0}})
	assert.Error(t, err)
}

func TestPassiveDetectsGain(t *testing.T) {
	c, err := smodel.NewConstant(smodel.PortTerms("a", "b"), [][]complex128{{0, 1.2}, {1.2, 0}})
	require.NoError(t, err)
	sm, err := c.Evaluate([]float64{1})
	require.NoError(t, err)

	ok, worst, err := sm.Passive(1e-9)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.InDelta(t, 1.2, worst, 1e-12)
}

func TestParseExtrapolation(t *testing.T) {
	e, ok := smodel.ParseExtrapolation("linear")
	require.True(t, ok)
	assert.Equal(t, smodel.ExtrapolateLinear, e)
	_, ok = smodel.ParseExtrapolation("cubic")
	assert.False(t, ok)
}
