package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/telemetrydp/dprelease/cmd/dprelease/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dprelease",
		Short: "Differentially private release of aggregate telemetry tables",
		Long: `dprelease injects calibrated Gaussian or Laplace noise into baseline
aggregate query tables, restores their output invariants, scores how much of
each query's analytical conclusion survives, and persists the noised tables
together with a per-run metric summary.`,
		Version: "0.1.0",
	}

	rootCmd.AddCommand(commands.NewRunCmd())
	rootCmd.AddCommand(commands.NewRegistryCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
