package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/alexiusacademia/gopic/internal/diagram"
	"github.com/alexiusacademia/gopic/internal/geometry"
	"github.com/alexiusacademia/gopic/internal/optics"
	"github.com/alexiusacademia/gopic/internal/smodel"
)

const rule = "───────────────────────────────────────────────────────────────"

func logf(format string, args ...any) {
	if verbose {
		log.Printf(format, args...)
	}
}

func printBanner(title string) {
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Printf("     %s\n", title)
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println()
}

func printSection(name string) {
	fmt.Printf("%s:\n", name)
	fmt.Println(rule)
}

func printLayoutSummary(l *geometry.Layout) {
	printSection("LAYOUT")
	b := l.Bounds()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  Mode:\t%s\n", l.Mode)
	fmt.Fprintf(w, "  Elements:\t%d\n", len(l.Elements()))
	fmt.Fprintf(w, "  Extent:\t%.3f × %.3f µm\n", b.Width(), b.Height())
	fmt.Fprintf(w, "  Origin:\t(%.3f, %.3f) µm\n", b.MinX, b.MinY)
	w.Flush()
	fmt.Println()

	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  Layer\tElements\n")
	fmt.Fprintf(w, "  ─────\t────────\n")
	for _, layer := range l.Layers() {
		fmt.Fprintf(w, "  %s\t%d\n", layer, len(l.ElementsOn(layer)))
	}
	w.Flush()
	fmt.Println()

	printSection("PORTS")
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  Name\tX (µm)\tY (µm)\tAngle\tWidth (µm)\n")
	fmt.Fprintf(w, "  ────\t──────\t──────\t─────\t──────────\n")
	for _, p := range l.Ports() {
		fmt.Fprintf(w, "  %s\t%.4f\t%.4f\t%.0f°\t%.3f\n", p.Name, p.Position.X, p.Position.Y, p.Angle, p.TraceTemplate.Width)
	}
	w.Flush()
	fmt.Println()
}

// writeLayout exports a layout as JSON or, for image extensions, as a plot
func writeLayout(l *geometry.Layout, path string) error {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		fh, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := l.WriteJSON(fh); err != nil {
			fh.Close()
			return err
		}
		return fh.Close()
	}
	return diagram.ExportLayout(l, path)
}

type termPair struct {
	out, in smodel.Term
}

func (p termPair) String() string {
	return fmt.Sprintf("S(%s←%s)", p.out, p.in)
}

// parsePairs parses "out:in,out:in". An empty spec selects every output
// for the first input term.
func parsePairs(spec string, terms []smodel.Term) ([]termPair, error) {
	if strings.TrimSpace(spec) == "" {
		if len(terms) == 0 {
			return nil, nil
		}
		out := make([]termPair, len(terms))
		for i, t := range terms {
			out[i] = termPair{out: t, in: terms[0]}
		}
		return out, nil
	}
	var out []termPair
	for _, item := range strings.Split(spec, ",") {
		o, i, ok := strings.Cut(strings.TrimSpace(item), ":")
		if !ok || o == "" || i == "" {
			return nil, fmt.Errorf("invalid pair %q, want out:in", item)
		}
		out = append(out, termPair{out: smodel.T(o), in: smodel.T(i)})
	}
	return out, nil
}

// printSpectrum prints |S|² in dB of each pair at every sweep point and
// returns the traces for plotting
func printSpectrum(sm *smodel.SMatrix, pairs []termPair) ([]diagram.Series, error) {
	series := make([]diagram.Series, len(pairs))
	for i, p := range pairs {
		db, err := sm.TransmissionDB(p.out, p.in)
		if err != nil {
			return nil, err
		}
		series[i] = diagram.Series{Label: p.String(), Y: db}
	}

	printSection("S-PARAMETERS (dB)")
	wl := sm.Wavelengths()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(w, "  λ (µm)\t")
	for _, s := range series {
		fmt.Fprintf(w, "%s\t", s.Label)
	}
	fmt.Fprintln(w)
	for k := range wl {
		fmt.Fprintf(w, "  %.5f\t", wl[k])
		for _, s := range series {
			fmt.Fprintf(w, "%.3f\t", s.Y[k])
		}
		fmt.Fprintln(w)
	}
	w.Flush()
	fmt.Println()
	return series, nil
}

// printChecks reports passivity and reciprocity of a sweep
func printChecks(sm *smodel.SMatrix) error {
	passive, worst, err := sm.Passive(1e-9)
	if err != nil {
		return err
	}
	printSection("PHYSICAL CHECKS")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  Max singular value:\t%.6f\n", worst)
	fmt.Fprintf(w, "  Passive:\t%s\n", yesNo(passive))
	fmt.Fprintf(w, "  Reciprocal:\t%s\n", yesNo(sm.Reciprocal(1e-9)))
	w.Flush()
	fmt.Println()
	return nil
}

func yesNo(b bool) string {
	if b {
		return "✓ yes"
	}
	return "✗ no"
}

// sweepWavelengths validates and expands a --start/--stop/--points sweep
func sweepWavelengths(start, stop float64, points int) ([]float64, error) {
	if start <= 0 || stop < start {
		return nil, fmt.Errorf("invalid sweep %g..%g µm", start, stop)
	}
	if points < 1 {
		return nil, fmt.Errorf("sweep needs at least one point, got %d", points)
	}
	return optics.Linspace(start, stop, points), nil
}
