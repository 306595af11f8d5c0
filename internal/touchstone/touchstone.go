// Package touchstone reads S-parameter data in the Touchstone (.sNp) format.
package touchstone

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"math/cmplx"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/alexiusacademia/gopic/internal/smodel"
)

// Format is the pair encoding of a complex value
type Format string

const (
	RealImaginary  Format = "RI"
	MagnitudeAngle Format = "MA"
	DecibelAngle   Format = "DB"
)

var unitMap = map[string]float64{
	"HZ":  1,
	"KHZ": 1e3,
	"MHZ": 1e6,
	"GHZ": 1e9,
	"THZ": 1e12,
}

var extPattern = regexp.MustCompile(`(?i)^\.s(\d+)p$`)

// File is the parsed content of a Touchstone file
type File struct {
	NumPorts    int
	Unit        string
	Format      Format
	Z0          float64
	Frequencies []float64      // Hz
	Data        [][]complex128 // row-major NumPorts×NumPorts, S[i][j] = out i per in j
}

// Table returns the data in the form consumed by smodel.NewTabulated
func (f *File) Table() smodel.Table {
	return smodel.Table{NumPorts: f.NumPorts, Frequencies: f.Frequencies, Data: f.Data}
}

// PortsFromName returns the port count encoded in a .sNp extension
func PortsFromName(path string) (int, error) {
	m := extPattern.FindStringSubmatch(filepath.Ext(path))
	if m == nil {
		return 0, fmt.Errorf("%s: not a .sNp file name", path)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s: invalid port count %q", path, m[1])
	}
	return n, nil
}

// ReadFile reads a Touchstone file; the port count comes from its extension
func ReadFile(path string) (*File, error) {
	n, err := PortsFromName(path)
	if err != nil {
		return nil, err
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening touchstone file %s", path)
	}
	defer fh.Close()

	f, err := Read(fh, n)
	if err != nil {
		return nil, errors.Wrapf(err, "reading touchstone file %s", path)
	}
	return f, nil
}

// Read parses Touchstone data for nports ports.
// Comments start with '!'. A frequency row may span several lines.
func Read(r io.Reader, nports int) (*File, error) {
	if nports < 1 {
		return nil, fmt.Errorf("invalid port count %d", nports)
	}
	f := &File{NumPorts: nports, Unit: "GHZ", Format: MagnitudeAngle, Z0: 50}

	var values []float64
	seenOptions := false
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		// Strip comments
		if idx := strings.Index(line, "!"); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		if strings.HasPrefix(line, "#") {
			// only the first option line counts
			if !seenOptions {
				if err := f.parseOptions(line); err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNo, err)
				}
				seenOptions = true
			}
			continue
		}
		if strings.HasPrefix(line, "[") {
			return nil, fmt.Errorf("line %d: keyword %q not supported", lineNo, line)
		}

		for _, field := range strings.Fields(line) {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid number %q", lineNo, field)
			}
			values = append(values, v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if err := f.fill(values); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) parseOptions(line string) error {
	fields := strings.Fields(strings.ToUpper(strings.TrimPrefix(line, "#")))
	for i := 0; i < len(fields); i++ {
		tok := fields[i]
		switch {
		case unitMap[tok] != 0:
			f.Unit = tok
		case tok == string(RealImaginary) || tok == string(MagnitudeAngle) || tok == string(DecibelAngle):
			f.Format = Format(tok)
		case tok == "S":
		case tok == "Y" || tok == "Z" || tok == "H" || tok == "G":
			return fmt.Errorf("parameter type %s not supported", tok)
		case tok == "R":
			if i+1 >= len(fields) {
				return fmt.Errorf("missing reference impedance after R")
			}
			z0, err := strconv.ParseFloat(fields[i+1], 64)
			if err != nil {
				return fmt.Errorf("invalid reference impedance %q", fields[i+1])
			}
			f.Z0 = z0
			i++
		default:
			return fmt.Errorf("unknown option %q", tok)
		}
	}
	return nil
}

func (f *File) fill(values []float64) error {
	n := f.NumPorts
	rowLen := 1 + 2*n*n
	if len(values) == 0 {
		return fmt.Errorf("no data rows")
	}
	if len(values)%rowLen != 0 {
		return fmt.Errorf("%d values do not form rows of %d for %d ports", len(values), rowLen, n)
	}

	scale := unitMap[f.Unit]
	rows := len(values) / rowLen
	f.Frequencies = make([]float64, rows)
	f.Data = make([][]complex128, rows)
	for k := 0; k < rows; k++ {
		row := values[k*rowLen : (k+1)*rowLen]
		f.Frequencies[k] = row[0] * scale
		if k > 0 && f.Frequencies[k] <= f.Frequencies[k-1] {
			return fmt.Errorf("row %d: frequency %g not increasing", k+1, row[0])
		}

		m := make([]complex128, n*n)
		for p := 0; p < n*n; p++ {
			i, j := p/n, p%n
			// two-port data is column-major: S11 S21 S12 S22
			if n == 2 {
				i, j = p%n, p/n
			}
			m[i*n+j] = f.decode(row[1+2*p], row[2+2*p])
		}
		f.Data[k] = m
	}
	return nil
}

func (f *File) decode(a, b float64) complex128 {
	switch f.Format {
	case RealImaginary:
		return complex(a, b)
	case DecibelAngle:
		return cmplx.Rect(math.Pow(10, a/20), b*math.Pi/180)
	default:
		return cmplx.Rect(a, b*math.Pi/180)
	}
}

// Write emits the data in RI format with frequencies in GHz
func Write(w io.Writer, f *File) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "! %d-port S-parameters\n", f.NumPorts)
	fmt.Fprintf(bw, "# GHZ S RI R %g\n", f.Z0)

	n := f.NumPorts
	for k, freq := range f.Frequencies {
		fmt.Fprintf(bw, "%.15g", freq/1e9)
		for p := 0; p < n*n; p++ {
			i, j := p/n, p%n
			if n == 2 {
				i, j = p%n, p/n
			}
			v := f.Data[k][i*n+j]
			// four pairs per line keeps large port counts readable
			if p > 0 && p%4 == 0 {
				fmt.Fprint(bw, "\n ")
			}
			fmt.Fprintf(bw, " %.12g %.12g", real(v), imag(v))
		}
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}

// FromSMatrix converts a sweep into a File in the sweep's term order.
// Rows are sorted by increasing frequency.
func FromSMatrix(s *smodel.SMatrix) *File {
	order := make([]int, s.Len())
	for k := range order {
		order[k] = k
	}
	sort.SliceStable(order, func(a, b int) bool {
		return s.Frequencies[order[a]] < s.Frequencies[order[b]]
	})

	f := &File{NumPorts: s.Size(), Unit: "GHZ", Format: RealImaginary, Z0: 50}
	f.Frequencies = make([]float64, len(order))
	f.Data = make([][]complex128, len(order))
	for row, k := range order {
		f.Frequencies[row] = s.Frequencies[k]
		f.Data[row] = append([]complex128(nil), s.Matrix(k)...)
	}
	return f
}
