package cmd

import (
	"fmt"

	"github.com/alexiusacademia/gopic/internal/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of gopic",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("gopic v%s\n", version.Version)
		fmt.Println("Parametric photonic building-block compiler")
		fmt.Printf("Built %s from commit %s\n", version.BuildTime, version.GitCommit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
