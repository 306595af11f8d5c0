package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/alexiusacademia/gopic/internal/contradc"
	"github.com/alexiusacademia/gopic/internal/diagram"
	"github.com/alexiusacademia/gopic/internal/geometry"
	"github.com/alexiusacademia/gopic/internal/optics"
	"github.com/alexiusacademia/gopic/internal/smodel"
	"github.com/spf13/cobra"
)

var (
	cdcPeriod   float64
	cdcPeriods  int
	cdcDW1      float64
	cdcDW2      float64
	cdcWG1      float64
	cdcWG2      float64
	cdcGap      float64
	cdcDuty     float64
	cdcSWG      bool
	cdcCladding bool
	cdcMargin   float64

	cdcLayoutSim    bool
	cdcLayoutOutput string
	cdcLayoutASCII  bool

	cdcTouchstone  string
	cdcDegree      int
	cdcExtrapolate string
	cdcStart       float64
	cdcStop        float64
	cdcPoints      int
	cdcWorkers     int
	cdcPairs       string
	cdcPlot        string
	cdcCheck       bool
)

var contradcCmd = &cobra.Command{
	Use:   "contradc",
	Short: "Contra-directional coupler",
	Long: `Compose a contra-directional coupler from two Bragg gratings.

The bus grating sits on y = 0 and the drop grating at the gap offset
wg1/2 + dw1/2 + gap + wg2/2 + dw2/2, inside one shared cladding.

Use one of the subcommands:
  layout   - generate the full or simulation layout
  smatrix  - evaluate the Touchstone-backed S-parameter model

Examples:
  gopic contradc layout --gap 0.2 -o cdc.svg
  gopic contradc smatrix --touchstone CDC_sparam.s4p --pairs Port3:Port1,Port4:Port1`,
}

var contradcLayoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Generate the coupler layout",
	Run:   runContraDCLayout,
}

var contradcSMatrixCmd = &cobra.Command{
	Use:   "smatrix",
	Short: "Evaluate the coupler S-parameters from Touchstone data",
	Run:   runContraDCSMatrix,
}

func init() {
	rootCmd.AddCommand(contradcCmd)
	contradcCmd.AddCommand(contradcLayoutCmd)
	contradcCmd.AddCommand(contradcSMatrixCmd)

	def := contradc.DefaultParams()
	f := contradcCmd.PersistentFlags()
	f.Float64Var(&cdcPeriod, "period", def.Period, "Grating period (µm)")
	f.IntVar(&cdcPeriods, "periods", def.PeriodNum, "Number of periods")
	f.Float64Var(&cdcDW1, "dw1", def.DW1, "Bus corrugation width (µm)")
	f.Float64Var(&cdcDW2, "dw2", def.DW2, "Drop corrugation width (µm)")
	f.Float64Var(&cdcWG1, "wg1", def.WG1Width, "Bus waveguide width (µm)")
	f.Float64Var(&cdcWG2, "wg2", def.WG2Width, "Drop waveguide width (µm)")
	f.Float64Var(&cdcGap, "gap", def.Gap, "Gap between the waveguides (µm)")
	f.Float64Var(&cdcDuty, "duty", def.DutyCycle, "Duty cycle, 0 to 1")
	f.BoolVar(&cdcSWG, "swg", def.SWG, "Sub-wavelength gratings (no spines)")
	f.BoolVar(&cdcCladding, "cladding", def.Cladding, "Draw the shared cladding")
	f.Float64Var(&cdcMargin, "margin", def.CladdingMargin, "Cladding margin (µm)")

	contradcLayoutCmd.Flags().BoolVar(&cdcLayoutSim, "sim", false, "Generate the 5-period simulation layout")
	contradcLayoutCmd.Flags().StringVarP(&cdcLayoutOutput, "output", "o", "", "Export layout (json, png, svg, pdf)")
	contradcLayoutCmd.Flags().BoolVar(&cdcLayoutASCII, "ascii", false, "Show ASCII layout")

	s := contradcSMatrixCmd.Flags()
	s.StringVar(&cdcTouchstone, "touchstone", def.Touchstone, "Touchstone .s4p file")
	s.IntVar(&cdcDegree, "degree", def.Degree, "Interpolation degree (0, 1 or 3)")
	s.StringVar(&cdcExtrapolate, "extrapolate", "error", "Out-of-range policy (error, hold, linear)")
	s.Float64Var(&cdcStart, "start", 1.5, "Sweep start wavelength (µm)")
	s.Float64Var(&cdcStop, "stop", 1.6, "Sweep stop wavelength (µm)")
	s.IntVar(&cdcPoints, "points", 21, "Number of sweep points")
	s.IntVar(&cdcWorkers, "workers", 0, "Sweep goroutines (0 = all CPUs)")
	s.StringVar(&cdcPairs, "pairs", "", "Term pairs to print as out:in,... (default: all from Port1)")
	s.StringVar(&cdcPlot, "plot", "", "Export spectrum plot (png, svg, pdf)")
	s.BoolVar(&cdcCheck, "check", false, "Check passivity and reciprocity")
}

func contradcParams() contradc.Params {
	p := contradc.DefaultParams()
	p.Period = cdcPeriod
	p.PeriodNum = cdcPeriods
	p.DW1 = cdcDW1
	p.DW2 = cdcDW2
	p.WG1Width = cdcWG1
	p.WG2Width = cdcWG2
	p.Gap = cdcGap
	p.DutyCycle = cdcDuty
	p.SWG = cdcSWG
	p.Cladding = cdcCladding
	p.CladdingMargin = cdcMargin
	return p
}

func printContraDCParams(c *contradc.ContraDC) {
	p := c.Params()
	printSection("COUPLER PARAMETERS")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  Period:\t%.4f µm × %d\n", p.Period, p.PeriodNum)
	fmt.Fprintf(w, "  Bus (wg1 / dw1):\t%.4f / %.4f µm\n", p.WG1Width, p.DW1)
	fmt.Fprintf(w, "  Drop (wg2 / dw2):\t%.4f / %.4f µm\n", p.WG2Width, p.DW2)
	fmt.Fprintf(w, "  Gap:\t%.4f µm\n", p.Gap)
	fmt.Fprintf(w, "  Gap offset:\t%.4f µm\n", p.GapOffset())
	fmt.Fprintf(w, "  Duty cycle:\t%.3f\n", p.DutyCycle)
	fmt.Fprintf(w, "  Length:\t%.4f µm\n", c.Length(geometry.Full))
	w.Flush()
	fmt.Println()
}

func runContraDCLayout(cmd *cobra.Command, args []string) {
	c, err := contradc.New(contradcParams())
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	mode := geometry.Full
	if cdcLayoutSim {
		mode = geometry.Simulation
	}
	logf("building %s layout of %s", mode, c.Name())
	l, err := c.Layout(mode)
	if err != nil {
		fmt.Printf("Error building layout: %v\n", err)
		return
	}

	printBanner("CONTRA-DIRECTIONAL COUPLER LAYOUT")
	printContraDCParams(c)
	printLayoutSummary(l)

	if cdcLayoutASCII {
		fmt.Print(diagram.DrawASCIILayout(l, 72))
		fmt.Println()
	}
	if cdcLayoutOutput != "" {
		if err := writeLayout(l, cdcLayoutOutput); err != nil {
			fmt.Printf("Error exporting layout: %v\n", err)
			return
		}
		fmt.Printf("  ✓ Layout exported to: %s\n\n", cdcLayoutOutput)
	}
}

func runContraDCSMatrix(cmd *cobra.Command, args []string) {
	p := contradcParams()
	p.Touchstone = cdcTouchstone
	p.Degree = cdcDegree
	p.Extrapolation = cdcExtrapolate
	c, err := contradc.New(p, smodel.WithWorkers(cdcWorkers))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	logf("loading %s", p.Touchstone)
	m, err := c.Model()
	if err != nil {
		fmt.Printf("Error loading model: %v\n", err)
		return
	}
	wl, err := sweepWavelengths(cdcStart, cdcStop, cdcPoints)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	sm, err := smodel.EvaluateWavelengths(m, wl)
	if err != nil {
		fmt.Printf("Error evaluating model: %v\n", err)
		return
	}
	pairs, err := parsePairs(cdcPairs, m.Terms())
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	printBanner("CONTRA-DIRECTIONAL COUPLER S-PARAMETERS")
	printContraDCParams(c)

	if tab, ok := m.(*smodel.Tabulated); ok {
		lo, hi := tab.Range()
		printSection("TABULATED MODEL")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "  Source:\t%s\n", p.Touchstone)
		fmt.Fprintf(w, "  Samples:\t%d\n", len(tab.Table().Frequencies))
		fmt.Fprintf(w, "  Range:\t%.5f .. %.5f µm\n", optics.FrequencyToWavelength(hi), optics.FrequencyToWavelength(lo))
		fmt.Fprintf(w, "  Degree:\t%d\n", p.Degree)
		fmt.Fprintf(w, "  Extrapolation:\t%s\n", p.Extrapolation)
		w.Flush()
		fmt.Println()
	}

	series, err := printSpectrum(sm, pairs)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if cdcCheck {
		if err := printChecks(sm); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
	}
	if len(series) > 0 {
		fmt.Print(diagram.DrawASCIISpectrum(series[0].Label, wl, series[0].Y, 10))
		fmt.Println()
	}

	if cdcPlot != "" {
		if err := diagram.ExportSpectrum("Contra-directional coupler", "|S|² (dB)", wl, series, cdcPlot); err != nil {
			fmt.Printf("Error exporting plot: %v\n", err)
			return
		}
		fmt.Printf("  ✓ Spectrum exported to: %s\n\n", cdcPlot)
	}
}
