package smodel

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"

	"github.com/alexiusacademia/gopic/internal/optics"
)

// Term is one axis of an S-matrix: a port and a mode index on that port
type Term struct {
	Port string `json:"port" yaml:"port"`
	Mode int    `json:"mode" yaml:"mode"`
}

// T returns the fundamental-mode term of a port
func T(port string) Term {
	return Term{Port: port}
}

func (t Term) String() string {
	if t.Mode == 0 {
		return t.Port
	}
	return fmt.Sprintf("%s[%d]", t.Port, t.Mode)
}

// PortTerms returns the fundamental-mode terms of the given ports
func PortTerms(ports ...string) []Term {
	out := make([]Term, len(ports))
	for i, p := range ports {
		out[i] = T(p)
	}
	return out
}

// SMatrix is a frequency sweep of square scattering matrices.
// At(k, i, j) is the wave leaving term i per unit wave entering term j
// at Frequencies[k].
type SMatrix struct {
	terms       []Term
	index       map[Term]int
	Frequencies []float64
	data        [][]complex128
}

// NewSMatrix allocates a zero sweep over the given terms and frequencies
func NewSMatrix(terms []Term, frequencies []float64) (*SMatrix, error) {
	index := make(map[Term]int, len(terms))
	for i, t := range terms {
		if _, exists := index[t]; exists {
			return nil, fmt.Errorf("duplicate term %s", t)
		}
		index[t] = i
	}
	n := len(terms)
	data := make([][]complex128, len(frequencies))
	for k := range data {
		data[k] = make([]complex128, n*n)
	}
	freqs := make([]float64, len(frequencies))
	copy(freqs, frequencies)
	ts := make([]Term, n)
	copy(ts, terms)
	return &SMatrix{terms: ts, index: index, Frequencies: freqs, data: data}, nil
}

// Terms returns the axis terms in order
func (s *SMatrix) Terms() []Term {
	out := make([]Term, len(s.terms))
	copy(out, s.terms)
	return out
}

// Size returns the matrix dimension
func (s *SMatrix) Size() int { return len(s.terms) }

// Len returns the number of frequency points
func (s *SMatrix) Len() int { return len(s.Frequencies) }

// Index returns the axis position of a term
func (s *SMatrix) Index(t Term) (int, bool) {
	i, ok := s.index[t]
	return i, ok
}

// At returns S[i][j] at frequency index k
func (s *SMatrix) At(k, i, j int) complex128 {
	return s.data[k][i*len(s.terms)+j]
}

// Set assigns S[i][j] at frequency index k
func (s *SMatrix) Set(k, i, j int, v complex128) {
	s.data[k][i*len(s.terms)+j] = v
}

// Matrix returns the row-major matrix at frequency index k.
// The slice aliases the sweep's storage.
func (s *SMatrix) Matrix(k int) []complex128 {
	return s.data[k]
}

// Get returns S[out][in] at frequency index k
func (s *SMatrix) Get(k int, out, in Term) (complex128, error) {
	i, ok := s.index[out]
	if !ok {
		return 0, fmt.Errorf("unknown term %s", out)
	}
	j, ok := s.index[in]
	if !ok {
		return 0, fmt.Errorf("unknown term %s", in)
	}
	return s.At(k, i, j), nil
}

// Trace returns S[out][in] across the sweep
func (s *SMatrix) Trace(out, in Term) ([]complex128, error) {
	i, ok := s.index[out]
	if !ok {
		return nil, fmt.Errorf("unknown term %s", out)
	}
	j, ok := s.index[in]
	if !ok {
		return nil, fmt.Errorf("unknown term %s", in)
	}
	vals := make([]complex128, s.Len())
	for k := range vals {
		vals[k] = s.At(k, i, j)
	}
	return vals, nil
}

// TransmissionDB returns 10·log10|S[out][in]|² across the sweep
func (s *SMatrix) TransmissionDB(out, in Term) ([]float64, error) {
	vals, err := s.Trace(out, in)
	if err != nil {
		return nil, err
	}
	db := make([]float64, len(vals))
	for k, v := range vals {
		db[k] = optics.PowerDB(real(v), imag(v))
	}
	return db, nil
}

// Wavelengths returns the sweep axis in µm
func (s *SMatrix) Wavelengths() []float64 {
	return optics.FrequenciesToWavelengths(s.Frequencies)
}

// Reorder returns a copy of the sweep with the axes permuted to terms.
// terms must be a permutation of the current terms.
func (s *SMatrix) Reorder(terms []Term) (*SMatrix, error) {
	if len(terms) != len(s.terms) {
		return nil, fmt.Errorf("reorder: got %d terms, want %d", len(terms), len(s.terms))
	}
	perm := make([]int, len(terms))
	for i, t := range terms {
		j, ok := s.index[t]
		if !ok {
			return nil, fmt.Errorf("reorder: unknown term %s", t)
		}
		perm[i] = j
	}
	out, err := NewSMatrix(terms, s.Frequencies)
	if err != nil {
		return nil, err
	}
	for k := range s.data {
		for i := range perm {
			for j := range perm {
				out.Set(k, i, j, s.At(k, perm[i], perm[j]))
			}
		}
	}
	return out, nil
}

// MaxSingularValue returns the largest singular value of the matrix at
// frequency index k. It is computed from the real 2n×2n embedding
// [[Re -Im] [Im Re]], whose singular values are those of S, each twice.
func (s *SMatrix) MaxSingularValue(k int) (float64, error) {
	n := len(s.terms)
	if n == 0 {
		return 0, nil
	}
	r := mat.NewDense(2*n, 2*n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := s.At(k, i, j)
			r.Set(i, j, real(v))
			r.Set(i, j+n, -imag(v))
			r.Set(i+n, j, imag(v))
			r.Set(i+n, j+n, real(v))
		}
	}
	var svd mat.SVD
	if ok := svd.Factorize(r, mat.SVDNone); !ok {
		return 0, fmt.Errorf("singular value decomposition failed at %.6g Hz", s.Frequencies[k])
	}
	vals := svd.Values(nil)
	return vals[0], nil
}

// Passive reports whether no frequency point amplifies power, i.e. every
// singular value is at most 1+tol. It also returns the worst value seen.
func (s *SMatrix) Passive(tol float64) (bool, float64, error) {
	worst := 0.0
	for k := range s.data {
		sv, err := s.MaxSingularValue(k)
		if err != nil {
			return false, worst, err
		}
		worst = math.Max(worst, sv)
	}
	return worst <= 1+tol, worst, nil
}

// Reciprocal reports whether S equals its transpose within tol at every point
func (s *SMatrix) Reciprocal(tol float64) bool {
	n := len(s.terms)
	for k := range s.data {
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				if cmplx.Abs(s.At(k, i, j)-s.At(k, j, i)) > tol {
					return false
				}
			}
		}
	}
	return true
}

// Lookup returns S[out][in] across the sweep for the fundamental modes of
// two ports
func (s *SMatrix) Lookup(outPort, inPort string) ([]complex128, error) {
	return s.Trace(T(outPort), T(inPort))
}
