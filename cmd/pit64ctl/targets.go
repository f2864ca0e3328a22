package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"omibyte.io/pit64/targets"
)

var targetsCmd = &cobra.Command{
	Use:   "targets [series|chip]",
	Short: "List SoC targets with PIT64B timers",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		all := targets.All()
		names := all.Series()
		if len(args) == 1 {
			target, err := all.Find(args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			names = []string{target.Series}
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SERIES\tTIMER\tCOMPATIBLE\tROLE\tBASE\tIRQ\tCLOCK")
		for _, name := range names {
			target, err := all.FindBySeries(name)
			if err != nil {
				return err
			}
			for _, timer := range target.Timers {
				role := "unknown"
				if r, ok := timer.Role(); ok {
					role = r.String()
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t0x%08x\t%d\t%d\n",
					target.Series, timer.Name, timer.Compatible, role, timer.Base, timer.IRQ, timer.ClockRate)
			}
		}
		return w.Flush()
	},
}
