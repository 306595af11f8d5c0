package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/alexiusacademia/gopic/internal/circuit"
	"github.com/alexiusacademia/gopic/internal/config"
	"github.com/alexiusacademia/gopic/internal/diagram"
	"github.com/alexiusacademia/gopic/internal/geometry"
	"github.com/alexiusacademia/gopic/internal/smodel"
	"github.com/spf13/cobra"
)

var (
	circuitFile    string
	circuitLayout  string
	circuitPlot    string
	circuitStart   float64
	circuitStop    float64
	circuitPoints  int
	circuitPairs   string
	circuitCheck   bool
	circuitASCII   bool
	circuitSim     bool
	circuitSolver  string
	circuitWorkers int
)

var circuitCmd = &cobra.Command{
	Use:   "circuit",
	Short: "Assemble and evaluate a circuit from a definition file",
	Long: `Assemble a hierarchical circuit defined in a JSON or YAML file.

The file names devices (bragg, contradc, grating_coupler) with their
parameters, places instances of them, connects instance ports and exposes
the remaining ports under external names. Every instance port must be
connected, exposed or declared open.

The circuit layout is composed from the placed instance layouts and the
routed connectors; its S-parameter model reduces every connection.

Examples:
  gopic circuit --file filter.yaml
  gopic circuit -f filter.json --layout filter.png --plot spectrum.png
  gopic circuit -f filter.yaml --start 1.54 --stop 1.56 --points 101 --check`,
	Run: runCircuit,
}

func init() {
	rootCmd.AddCommand(circuitCmd)

	circuitCmd.Flags().StringVarP(&circuitFile, "file", "f", "", "Path to circuit JSON or YAML file [required]")
	circuitCmd.MarkFlagRequired("file")

	circuitCmd.Flags().StringVar(&circuitLayout, "layout", "", "Export layout (json, png, svg, pdf)")
	circuitCmd.Flags().StringVar(&circuitPlot, "plot", "", "Export spectrum plot (png, svg, pdf)")
	circuitCmd.Flags().BoolVar(&circuitASCII, "ascii", false, "Show ASCII layout and spectrum")
	circuitCmd.Flags().BoolVar(&circuitSim, "sim", false, "Compose simulation layouts of the instances")

	// Sweep overrides
	circuitCmd.Flags().Float64Var(&circuitStart, "start", 0, "Sweep start wavelength (µm)")
	circuitCmd.Flags().Float64Var(&circuitStop, "stop", 0, "Sweep stop wavelength (µm)")
	circuitCmd.Flags().IntVar(&circuitPoints, "points", 0, "Number of sweep points")
	circuitCmd.Flags().StringVar(&circuitSolver, "solver", "", "Reduction solver (simultaneous, pairwise)")
	circuitCmd.Flags().IntVar(&circuitWorkers, "workers", -1, "Sweep goroutines (0 = all CPUs)")

	circuitCmd.Flags().StringVar(&circuitPairs, "pairs", "", "Port pairs to print as out:in,... (default: all from the first port)")
	circuitCmd.Flags().BoolVar(&circuitCheck, "check", false, "Check passivity and reciprocity")
}

func runCircuit(cmd *cobra.Command, args []string) {
	f, err := config.LoadFromFile(circuitFile)
	if err != nil {
		fmt.Printf("Error loading circuit: %v\n", err)
		return
	}
	if cmd.Flags().Changed("start") {
		f.Sweep.Start = circuitStart
	}
	if cmd.Flags().Changed("stop") {
		f.Sweep.Stop = circuitStop
	}
	if cmd.Flags().Changed("points") {
		f.Sweep.Points = circuitPoints
	}
	if cmd.Flags().Changed("solver") {
		f.Solver = circuitSolver
	}
	if cmd.Flags().Changed("workers") {
		f.Workers = circuitWorkers
	}
	if err := f.Validate(); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	logf("building %d instances of %d devices", len(f.Instances), len(f.Devices))
	c, err := f.Build()
	if err != nil {
		fmt.Printf("Error assembling circuit: %v\n", err)
		return
	}

	printBanner("CIRCUIT ASSEMBLY")
	if f.Name != "" {
		fmt.Printf("  Circuit: %s\n", f.Name)
	}
	if f.Description != "" {
		fmt.Printf("  Description: %s\n", f.Description)
	}
	fmt.Println()

	printSection("DEVICES")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  Name\tType\n")
	fmt.Fprintf(w, "  ────\t────\n")
	for _, name := range f.DeviceNames() {
		fmt.Fprintf(w, "  %s\t%s\n", name, f.Devices[name].Type)
	}
	w.Flush()
	fmt.Println()

	printSection("INSTANCES")
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  Name\tDevice\tX (µm)\tY (µm)\tAngle\n")
	fmt.Fprintf(w, "  ────\t──────\t──────\t──────\t─────\n")
	for _, is := range f.Instances {
		fmt.Fprintf(w, "  %s\t%s\t%.3f\t%.3f\t%.0f°\n", is.Name, is.Device, is.X, is.Y, is.Angle)
	}
	w.Flush()
	fmt.Println()

	mode := geometry.Full
	if circuitSim {
		mode = geometry.Simulation
	}
	routes, err := c.Routes(mode)
	if err != nil {
		fmt.Printf("Error routing circuit: %v\n", err)
		return
	}
	printSection("CONNECTIONS")
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  From\tTo\tRoute (µm)\tBends\n")
	fmt.Fprintf(w, "  ────\t──\t──────────\t─────\n")
	for _, r := range routes {
		fmt.Fprintf(w, "  %s\t%s\t%.3f\t%d\n", r.Connection.A, r.Connection.B, r.Length(), len(r.Points)-2)
	}
	w.Flush()
	fmt.Println()

	l, err := c.Layout(mode)
	if err != nil {
		fmt.Printf("Error building layout: %v\n", err)
		return
	}
	printLayoutSummary(l)
	if circuitASCII {
		fmt.Print(diagram.DrawASCIILayout(l, 72))
		fmt.Println()
	}
	if circuitLayout != "" {
		if err := writeLayout(l, circuitLayout); err != nil {
			fmt.Printf("Error exporting layout: %v\n", err)
			return
		}
		fmt.Printf("  ✓ Layout exported to: %s\n\n", circuitLayout)
	}

	m, err := c.Model()
	if err != nil {
		fmt.Printf("Error building model: %v\n", err)
		return
	}
	wl := f.Sweep.Wavelengths()
	solver, _ := circuit.ParseSolver(f.Solver)
	logf("reducing %d connections at %d points with the %s solver", len(routes), len(wl), solver)
	sm, err := smodel.EvaluateWavelengths(m, wl)
	if err != nil {
		fmt.Printf("Error evaluating circuit: %v\n", err)
		return
	}
	pairs, err := parsePairs(circuitPairs, m.Terms())
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	series, err := printSpectrum(sm, pairs)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if circuitCheck {
		if err := printChecks(sm); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
	}
	if circuitASCII && len(series) > 0 {
		fmt.Print(diagram.DrawASCIISpectrum(series[0].Label, wl, series[0].Y, 10))
		fmt.Println()
	}

	fmt.Print(diagram.DrawSummaryBox("SUMMARY", []string{
		fmt.Sprintf("Instances: %d", len(f.Instances)),
		fmt.Sprintf("Connections: %d", len(routes)),
		fmt.Sprintf("External ports: %d", len(c.ExternalPorts())),
		fmt.Sprintf("Solver: %s", solver),
	}))
	fmt.Println()

	if circuitPlot != "" {
		if err := diagram.ExportSpectrum(f.Name, "|S|² (dB)", wl, series, circuitPlot); err != nil {
			fmt.Printf("Error exporting plot: %v\n", err)
			return
		}
		fmt.Printf("  ✓ Spectrum exported to: %s\n\n", circuitPlot)
	}
}
