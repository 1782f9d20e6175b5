package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spigell/salary-intel/internal/intel"
)

// Actual version can be specified in build command.
var version = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("%s version: %s (schema %s, methodology %s)\n", app, version, intel.SchemaVersion, intel.MethodologyVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
