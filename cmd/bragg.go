package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/alexiusacademia/gopic/internal/diagram"
	"github.com/alexiusacademia/gopic/internal/geometry"
	"github.com/alexiusacademia/gopic/internal/grating"
	"github.com/alexiusacademia/gopic/internal/smodel"
	"github.com/spf13/cobra"
)

var (
	braggPeriod    float64
	braggPeriods   int
	braggDW        float64
	braggDuty      float64
	braggWidth     float64
	braggSWG       bool
	braggCladding  bool
	braggMargin    float64
	braggX         float64
	braggY         float64
	braggFollowOff bool

	braggLayoutSim    bool
	braggLayoutOutput string
	braggLayoutASCII  bool

	braggKappa   float64
	braggNEff    float64
	braggNGroup  float64
	braggCenter  float64
	braggLoss    float64
	braggStart   float64
	braggStop    float64
	braggPoints  int
	braggWorkers int
	braggPairs   string
	braggPlot    string
	braggCheck   bool
)

var braggCmd = &cobra.Command{
	Use:   "bragg",
	Short: "Corrugated straight Bragg grating",
	Long: `Synthesize a corrugated straight Bragg grating.

The grating is a row of teeth of width wg_width+dw on a spine of width
wg_width-dw (omitted with --swg), optionally inside a cladding rectangle.

Use one of the subcommands:
  layout   - generate the full or simulation layout
  smatrix  - evaluate the coupled-mode S-parameter model

Examples:
  gopic bragg layout --periods 200 -o bragg.png
  gopic bragg smatrix --kappa 0.03 --start 1.54 --stop 1.56 --points 41`,
}

var braggLayoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Generate the grating layout",
	Run:   runBraggLayout,
}

var braggSMatrixCmd = &cobra.Command{
	Use:   "smatrix",
	Short: "Evaluate the grating S-parameters",
	Run:   runBraggSMatrix,
}

func init() {
	rootCmd.AddCommand(braggCmd)
	braggCmd.AddCommand(braggLayoutCmd)
	braggCmd.AddCommand(braggSMatrixCmd)

	def := grating.DefaultParams()
	f := braggCmd.PersistentFlags()
	f.Float64Var(&braggPeriod, "period", def.Period, "Grating period (µm)")
	f.IntVar(&braggPeriods, "periods", def.PeriodNum, "Number of periods")
	f.Float64Var(&braggDW, "dw", def.DW, "Corrugation width (µm)")
	f.Float64Var(&braggDuty, "duty", def.DutyCycle, "Duty cycle, 0 to 1")
	f.Float64Var(&braggWidth, "width", def.WGWidth, "Waveguide width (µm)")
	f.BoolVar(&braggSWG, "swg", def.SWG, "Sub-wavelength grating (no spine)")
	f.BoolVar(&braggCladding, "cladding", def.Cladding, "Draw the cladding rectangle")
	f.Float64Var(&braggMargin, "margin", def.CladdingMargin, "Cladding margin (µm)")
	f.Float64Var(&braggX, "x", def.XPos, "X position of the input end (µm)")
	f.Float64Var(&braggY, "y", def.YPos, "Y position of the input end (µm)")
	f.BoolVar(&braggFollowOff, "cladding-follows-offset", false, "Center the cladding on the offset grating")

	braggLayoutCmd.Flags().BoolVar(&braggLayoutSim, "sim", false, "Generate the 5-period simulation layout")
	braggLayoutCmd.Flags().StringVarP(&braggLayoutOutput, "output", "o", "", "Export layout (json, png, svg, pdf)")
	braggLayoutCmd.Flags().BoolVar(&braggLayoutASCII, "ascii", false, "Show ASCII layout")

	m := grating.DefaultModelParams()
	s := braggSMatrixCmd.Flags()
	s.Float64Var(&braggKappa, "kappa", m.Kappa, "Coupling coefficient (1/µm)")
	s.Float64Var(&braggNEff, "neff", m.NEff, "Effective index at the center wavelength")
	s.Float64Var(&braggNGroup, "ng", m.NGroup, "Group index")
	s.Float64Var(&braggCenter, "center", m.CenterWavelength, "Center wavelength of the index model (µm)")
	s.Float64Var(&braggLoss, "loss", m.LossDBPerCM, "Propagation loss (dB/cm)")
	s.Float64Var(&braggStart, "start", 1.5, "Sweep start wavelength (µm)")
	s.Float64Var(&braggStop, "stop", 1.6, "Sweep stop wavelength (µm)")
	s.IntVar(&braggPoints, "points", 21, "Number of sweep points")
	s.IntVar(&braggWorkers, "workers", 0, "Sweep goroutines (0 = all CPUs)")
	s.StringVar(&braggPairs, "pairs", "", "Term pairs to print as out:in,... (default: all from in1)")
	s.StringVar(&braggPlot, "plot", "", "Export spectrum plot (png, svg, pdf)")
	s.BoolVar(&braggCheck, "check", false, "Check passivity and reciprocity")
}

func braggParams() grating.Params {
	p := grating.DefaultParams()
	p.Period = braggPeriod
	p.PeriodNum = braggPeriods
	p.DW = braggDW
	p.DutyCycle = braggDuty
	p.WGWidth = braggWidth
	p.SWG = braggSWG
	p.Cladding = braggCladding
	p.CladdingMargin = braggMargin
	p.XPos = braggX
	p.YPos = braggY
	p.CladdingFollowsOffset = braggFollowOff
	return p
}

func printBraggParams(b *grating.Bragg) {
	p := b.Params()
	printSection("GRATING PARAMETERS")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  Period:\t%.4f µm\n", p.Period)
	fmt.Fprintf(w, "  Periods:\t%d\n", p.PeriodNum)
	fmt.Fprintf(w, "  Corrugation (dw):\t%.4f µm\n", p.DW)
	fmt.Fprintf(w, "  Duty cycle:\t%.3f\n", p.DutyCycle)
	fmt.Fprintf(w, "  Waveguide width:\t%.4f µm\n", p.WGWidth)
	fmt.Fprintf(w, "  Sub-wavelength:\t%s\n", yesNo(p.SWG))
	fmt.Fprintf(w, "  Length:\t%.4f µm\n", b.Length(geometry.Full))
	w.Flush()
	fmt.Println()
}

func runBraggLayout(cmd *cobra.Command, args []string) {
	b, err := grating.New(braggParams())
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	mode := geometry.Full
	if braggLayoutSim {
		mode = geometry.Simulation
	}
	logf("building %s layout of %s", mode, b.Name())
	l, err := b.Layout(mode)
	if err != nil {
		fmt.Printf("Error building layout: %v\n", err)
		return
	}

	printBanner("BRAGG GRATING LAYOUT")
	printBraggParams(b)
	printLayoutSummary(l)
	if b.CladdingMisaligned() {
		fmt.Println("  ⚠ Cladding is anchored at the origin and does not follow the offset grating.")
		fmt.Println("    Use --cladding-follows-offset to center it on the grating.")
		fmt.Println()
	}

	if braggLayoutASCII {
		fmt.Print(diagram.DrawASCIILayout(l, 72))
		fmt.Println()
	}
	if braggLayoutOutput != "" {
		if err := writeLayout(l, braggLayoutOutput); err != nil {
			fmt.Printf("Error exporting layout: %v\n", err)
			return
		}
		fmt.Printf("  ✓ Layout exported to: %s\n\n", braggLayoutOutput)
	}
}

func runBraggSMatrix(cmd *cobra.Command, args []string) {
	p := braggParams()
	p.Model = grating.ModelParams{
		Kappa:            braggKappa,
		NEff:             braggNEff,
		NGroup:           braggNGroup,
		CenterWavelength: braggCenter,
		LossDBPerCM:      braggLoss,
	}
	b, err := grating.New(p, smodel.WithWorkers(braggWorkers))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	bm, err := grating.NewBraggModel(p.Model, p.Period, b.Length(geometry.Full), smodel.WithWorkers(braggWorkers))
	if err != nil {
		fmt.Printf("Error building model: %v\n", err)
		return
	}
	wl, err := sweepWavelengths(braggStart, braggStop, braggPoints)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	logf("evaluating %d points", len(wl))
	sm, err := smodel.EvaluateWavelengths(bm, wl)
	if err != nil {
		fmt.Printf("Error evaluating model: %v\n", err)
		return
	}
	pairs, err := parsePairs(braggPairs, bm.Terms())
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	printBanner("BRAGG GRATING S-PARAMETERS")
	printBraggParams(b)

	printSection("COUPLED-MODE MODEL")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  κ:\t%.4f 1/µm\n", p.Model.Kappa)
	fmt.Fprintf(w, "  n_eff / n_g:\t%.4f / %.4f\n", p.Model.NEff, p.Model.NGroup)
	fmt.Fprintf(w, "  Bragg wavelength:\t%.5f µm\n", bm.BraggWavelength())
	w.Flush()
	fmt.Println()

	series, err := printSpectrum(sm, pairs)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	if braggCheck {
		if err := printChecks(sm); err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
	}

	r, _ := bm.Response(bm.BraggWavelength())
	peak := real(r)*real(r) + imag(r)*imag(r)
	fmt.Print(diagram.DrawSummaryBox("SUMMARY", []string{
		fmt.Sprintf("Bragg wavelength: %.5f µm", bm.BraggWavelength()),
		fmt.Sprintf("Peak reflectance: %.4f", peak),
		fmt.Sprintf("Grating length: %.3f µm", b.Length(geometry.Full)),
	}))
	fmt.Println()

	if braggPlot != "" {
		if err := diagram.ExportSpectrum("Bragg grating", "|S|² (dB)", wl, series, braggPlot); err != nil {
			fmt.Printf("Error exporting plot: %v\n", err)
			return
		}
		fmt.Printf("  ✓ Spectrum exported to: %s\n\n", braggPlot)
	}
}
