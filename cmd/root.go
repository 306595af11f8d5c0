package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/alexiusacademia/gopic/internal/version"
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "gopic",
	Short: "Parametric photonic building-block compiler",
	Long: `gopic - Go Photonic Integrated Circuit compiler

A CLI tool that turns parameters into photonic building blocks:
layout geometry with named ports, and S-parameter models that can be
evaluated over wavelength.

This tool provides:
  - Corrugated Bragg gratings with a coupled-mode model
  - Contra-directional couplers with Touchstone-backed models
  - Grating couplers with a Gaussian passband model
  - Hierarchical circuits from JSON or YAML definitions

Lengths are in µm and wavelengths in µm.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.SetFlags(log.Ltime | log.Lmicroseconds)
		log.SetPrefix("gopic: ")
		log.SetOutput(os.Stderr)
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println()
		fmt.Println("  ╔═══════════════════════════════════════════════════════════╗")
		fmt.Println("  ║                                                           ║")
		fmt.Printf("  ║   gopic v%-49s║\n", version.Version)
		fmt.Println("  ║   Go Photonic Integrated Circuit compiler                 ║")
		fmt.Println("  ║                                                           ║")
		fmt.Println("  ╚═══════════════════════════════════════════════════════════╝")
		fmt.Println()
		fmt.Println("  Parametric photonic building blocks with layout and")
		fmt.Println("  S-parameter models.")
		fmt.Println()
		fmt.Println("  Features:")
		fmt.Println("    • Bragg grating synthesis (full and simulation layouts)")
		fmt.Println("    • Contra-directional coupler composition")
		fmt.Println("    • Tabulated and analytic S-parameter models")
		fmt.Println("    • Circuit assembly with sparse network reduction")
		fmt.Println()
		fmt.Println("  Use 'gopic --help' to see available commands.")
		fmt.Println()
		fmt.Println("  ─────────────────────────────────────────────────────────────")
		fmt.Printf("  Copyright © %s %s. All rights reserved.\n", version.Year, version.Author)
		fmt.Println()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log progress to stderr")
}
