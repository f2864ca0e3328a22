package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pit64ctl",
	Short: "Inspect and simulate the PIT64B timer driver",
	Long: `pit64ctl works with the PIT64B clock source / clock event driver on the host.

It can compute the prescaler the driver would pick, list the known SoC
targets and run the driver against a simulated timer block.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(prescalerCmd, targetsCmd, simulateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
