package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"omibyte.io/pit64/peripheral/pit64"
	"omibyte.io/pit64/peripheral/pit64/chip"
)

var (
	prescalerOpts = struct {
		rate    uint64
		maxRate uint64
		tickHz  uint64
	}{}

	prescalerCmd = &cobra.Command{
		Use:   "prescaler",
		Short: "Compute the prescaler for a reference clock",
		Long:  "Compute the divisor, mode register field and resulting rates the driver derives from a reference clock rate",
		RunE: func(cmd *cobra.Command, args []string) error {
			if prescalerOpts.rate == 0 {
				return fmt.Errorf("--rate must be non-zero")
			}
			if prescalerOpts.tickHz == 0 {
				return fmt.Errorf("--hz must be non-zero")
			}

			div := pit64.ComputePrescaler(prescalerOpts.rate, prescalerOpts.maxRate)
			hz := prescalerOpts.rate / uint64(div)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "divisor:      %d\n", div)
			fmt.Fprintf(out, "MR.PRES:      0x%x\n", chip.DivisorConvention.Encode(div)>>8)
			fmt.Fprintf(out, "timer rate:   %d Hz\n", hz)
			if hz > prescalerOpts.maxRate {
				fmt.Fprintf(out, "warning:      rate exceeds ceiling of %d Hz\n", prescalerOpts.maxRate)
			}
			fmt.Fprintf(out, "tick cycles:  %d (at %d Hz)\n", pit64.TickCycles(hz, prescalerOpts.tickHz), prescalerOpts.tickHz)
			return nil
		},
	}
)

func init() {
	prescalerCmd.Flags().Uint64VarP(&prescalerOpts.rate, "rate", "r", 0, "reference clock rate in Hz")
	prescalerCmd.Flags().Uint64VarP(&prescalerOpts.maxRate, "max", "m", pit64.DefaultMaxRate, "highest acceptable timer rate in Hz")
	prescalerCmd.Flags().Uint64Var(&prescalerOpts.tickHz, "hz", pit64.DefaultTickHz, "scheduler tick rate")
}
