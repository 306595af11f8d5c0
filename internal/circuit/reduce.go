package circuit

import (
	"fmt"
	"math/cmplx"

	"github.com/edp1096/sparse"

	"github.com/alexiusacademia/gopic/internal/errs"
)

// singularTolerance bounds the join denominator below which a connection is
// treated as a lossless resonant loop
const singularTolerance = 1e-12

// reducePairwise joins the term pairs of s (n×n, row-major) one at a time and
// returns the submatrix over keep. Multiple reflections between the joined
// terms are kept exactly.
func reducePairwise(s []complex128, n int, pairs [][2]int, keep []int, frequency float64) ([]complex128, error) {
	cur := append([]complex128(nil), s...)
	next := make([]complex128, len(cur))
	active := make([]bool, n)
	for i := range active {
		active[i] = true
	}
	at := func(m []complex128, i, j int) complex128 { return m[i*n+j] }

	for _, pr := range pairs {
		k, l := pr[0], pr[1]
		skk, sll := at(cur, k, k), at(cur, l, l)
		skl, slk := at(cur, k, l), at(cur, l, k)

		den := (1-skl)*(1-slk) - skk*sll
		if cmplx.Abs(den) < singularTolerance {
			return nil, &errs.SingularNetworkError{Frequency: frequency, Detail: fmt.Sprintf("join of terms %d and %d has no solution", k, l)}
		}

		active[k], active[l] = false, false
		copy(next, cur)
		for i := 0; i < n; i++ {
			if !active[i] {
				continue
			}
			sik, sil := at(cur, i, k), at(cur, i, l)
			for j := 0; j < n; j++ {
				if !active[j] {
					continue
				}
				skj, slj := at(cur, k, j), at(cur, l, j)
				num := skj*sil*(1-slk) + slj*sik*(1-skl) + skj*sll*sik + slj*skk*sil
				next[i*n+j] = cur[i*n+j] + num/den
			}
		}
		cur, next = next, cur
	}

	return submatrix(cur, n, keep), nil
}

// reduceSimultaneous eliminates every internal term at once. With C the
// permutation pairing internal terms, it solves (I - S_II C) X = S_IE and
// returns S_EE + S_EI C X over keep.
func reduceSimultaneous(s []complex128, n int, pairs [][2]int, keep []int, frequency float64) ([]complex128, error) {
	if len(pairs) == 0 {
		return submatrix(s, n, keep), nil
	}

	internal := make([]int, 0, 2*len(pairs))
	for _, pr := range pairs {
		internal = append(internal, pr[0], pr[1])
	}
	// partner of internal position a is a^1
	ni := len(internal)
	at := func(i, j int) complex128 { return s[i*n+j] }

	cfg := &sparse.Configuration{
		Real:                    true,
		Complex:                 true,
		SeparatedComplexVectors: true,
		Expandable:              false,
		Translate:               false,
		ModifiedNodal:           false,
		TiesMultiplier:          5,
		PrinterWidth:            140,
		Annotate:                0,
	}
	mat, err := sparse.Create(int64(ni), cfg)
	if err != nil {
		return nil, fmt.Errorf("creating reduction matrix: %w", err)
	}
	defer mat.Destroy()

	for a := 0; a < ni; a++ {
		for b := 0; b < ni; b++ {
			v := -at(internal[a], internal[b^1])
			if a == b {
				v++
			}
			if v == 0 {
				continue
			}
			el := mat.GetElement(int64(a+1), int64(b+1))
			el.Real = real(v)
			el.Imag = imag(v)
		}
	}
	// every diagonal must exist for the factorization
	for a := 1; a <= ni; a++ {
		mat.GetElement(int64(a), int64(a))
	}

	if err := mat.Factor(); err != nil {
		return nil, &errs.SingularNetworkError{Frequency: frequency, Detail: err.Error()}
	}

	// X, one column per kept term
	x := make([][]complex128, len(keep))
	for e, col := range keep {
		rhs := make([]float64, ni+1)
		rhsImag := make([]float64, ni+1)
		for a := 0; a < ni; a++ {
			v := at(internal[a], col)
			rhs[a+1], rhsImag[a+1] = real(v), imag(v)
		}
		sol, solImag, err := mat.SolveComplex(rhs, rhsImag)
		if err != nil {
			return nil, &errs.SingularNetworkError{Frequency: frequency, Detail: err.Error()}
		}
		x[e] = make([]complex128, ni)
		for a := 0; a < ni; a++ {
			v := complex(sol[a+1], solImag[a+1])
			if cmplx.IsNaN(v) || cmplx.IsInf(v) {
				return nil, &errs.SingularNetworkError{Frequency: frequency, Detail: "multiple-reflection system is singular"}
			}
			x[e][a] = v
		}
	}

	out := submatrix(s, n, keep)
	m := len(keep)
	for i, row := range keep {
		for j := 0; j < m; j++ {
			var sum complex128
			for a := 0; a < ni; a++ {
				sum += at(row, internal[a]) * x[j][a^1]
			}
			out[i*m+j] += sum
		}
	}
	return out, nil
}

func submatrix(s []complex128, n int, keep []int) []complex128 {
	m := len(keep)
	out := make([]complex128, m*m)
	for i, r := range keep {
		for j, c := range keep {
			out[i*m+j] = s[r*n+c]
		}
	}
	return out
}
