package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"omibyte.io/pit64/peripheral/pit64"
	"omibyte.io/pit64/sim"
	"omibyte.io/pit64/targets"
)

var (
	simulateOpts = struct {
		chip      string
		ticks     int
		mode      string
		delta     uint64
		tickHz    uint64
		suspendAt int
		verbose   bool
	}{}

	simulateCmd = &cobra.Command{
		Use:   "simulate",
		Short: "Run the driver against simulated timer blocks",
		Long:  "Probe every PIT64B of a target on a simulated board, run the clock event for a number of ticks and report the tick interval statistics measured with the clock source",
		RunE: func(cmd *cobra.Command, args []string) error {
			var mode pit64.State
			switch simulateOpts.mode {
			case "periodic":
				mode = pit64.StatePeriodic
			case "oneshot":
				mode = pit64.StateOneShot
			default:
				return fmt.Errorf("unknown mode %q (want periodic or oneshot)", simulateOpts.mode)
			}
			if simulateOpts.ticks < 2 {
				return errors.New("--ticks must be at least 2")
			}

			target, err := targets.All().Find(simulateOpts.chip)
			if err != nil {
				return fmt.Errorf("%s: %w", simulateOpts.chip, err)
			}
			cfg, err := target.Config()
			if err != nil {
				return err
			}
			if simulateOpts.tickHz != 0 {
				cfg.TickHz = simulateOpts.tickHz
			}
			logOut := io.Discard
			if simulateOpts.verbose {
				logOut = os.Stderr
			}
			cfg.Logger = log.New(logOut, "pit64: ", 0)

			report, err := simulate(cmd.Context(), target, cfg, mode)
			if err != nil {
				return err
			}
			report.print(cmd.OutOrStdout())
			return nil
		},
	}
)

func init() {
	simulateCmd.Flags().StringVarP(&simulateOpts.chip, "chip", "c", "sama7g54", "chip or series to simulate")
	simulateCmd.Flags().IntVarP(&simulateOpts.ticks, "ticks", "n", 100, "number of ticks to run")
	simulateCmd.Flags().StringVarP(&simulateOpts.mode, "mode", "m", "periodic", "clock event mode (periodic, oneshot)")
	simulateCmd.Flags().Uint64Var(&simulateOpts.delta, "delta", 25000, "cycles per one-shot event")
	simulateCmd.Flags().Uint64Var(&simulateOpts.tickHz, "hz", 0, "override the target tick rate")
	simulateCmd.Flags().IntVar(&simulateOpts.suspendAt, "suspend-at", 0, "suspend and resume the clock event after this many ticks")
	simulateCmd.Flags().BoolVarP(&simulateOpts.verbose, "verbose", "v", false, "print driver diagnostics")
}

type simReport struct {
	target    string
	mode      pit64.State
	event     *pit64.ClockEvent
	source    *pit64.ClockSource
	ticks     int
	elapsed   time.Duration
	expected  float64
	intervals []float64
	resumed   bool
}

func simulate(ctx context.Context, target targets.TargetInfo, cfg pit64.Config, mode pit64.State) (*simReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	board := sim.NewBoard()
	reg := pit64.NewRegistry(cfg)
	fw := &sim.Framework{
		Mode:  mode,
		Delta: simulateOpts.delta,
		Clock: func() uint64 { return uint64(board.Now()) },
	}

	for _, timer := range target.Timers {
		role, ok := timer.Role()
		if !ok {
			cfg.Logger.Printf("%s: skipping unknown compatible %q", timer.Name, timer.Compatible)
			continue
		}
		dev := sim.NewDevice(cfg.Layout)
		node := board.Attach(timer.Name, dev, sim.NewClock(timer.ClockRate), timer.IRQ, true)
		if err := reg.Probe(ctx, node, role, fw); err != nil {
			cfg.Logger.Printf("%s: probe as %s failed: %v", timer.Name, role, err)
		}
	}

	ce := reg.ClockEvent()
	if ce == nil {
		return nil, fmt.Errorf("%s: no clock event bound", target.Series)
	}

	report := &simReport{
		target: target.Series,
		mode:   mode,
		event:  ce,
		source: reg.ClockSource(),
	}

	// Simulated seconds per tick, used for both the step size and the
	// expected interval.
	perTick := 1 / float64(cfg.TickHz)
	if mode == pit64.StateOneShot {
		perTick = float64(simulateOpts.delta) / float64(ce.Hz())
	}
	report.expected = perTick * 1e6

	step := time.Duration(perTick * float64(time.Second) / 16)
	if step <= 0 {
		step = time.Microsecond
	}
	limit := time.Duration(float64(simulateOpts.ticks+2) * perTick * 4 * float64(time.Second))

	for fw.Ticks() < simulateOpts.ticks && board.Now() < limit {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if simulateOpts.suspendAt > 0 && !report.resumed && fw.Ticks() >= simulateOpts.suspendAt {
			ce.Suspend()
			board.Step(time.Duration(perTick * float64(time.Second)))
			if err := ce.Resume(ctx); err != nil {
				return nil, err
			}
			report.resumed = true
		}
		board.Step(step)
	}
	if err := fw.RearmErr(); err != nil {
		return nil, err
	}

	report.ticks = fw.Ticks()
	report.elapsed = board.Now()
	report.intervals = intervals(fw, report)
	return report, nil
}

// intervals converts consecutive tick stamps to microseconds.
func intervals(fw *sim.Framework, report *simReport) []float64 {
	stamps := fw.Stamps()
	scale := 1e-3 // board nanoseconds
	if _, hz := fw.SchedClock(); hz != 0 {
		scale = 1e6 / float64(hz)
	}

	out := make([]float64, 0, len(stamps))
	for i := 1; i < len(stamps); i++ {
		// Skip the interval that spans the suspend.
		if report.resumed && i == simulateOpts.suspendAt {
			continue
		}
		out = append(out, float64(stamps[i]-stamps[i-1])*scale)
	}
	return out
}

func (r *simReport) print(w io.Writer) {
	fmt.Fprintf(w, "target:        %s\n", r.target)
	fmt.Fprintf(w, "mode:          %s\n", r.mode)
	fmt.Fprintf(w, "clock event:   %d Hz (prescaler %d, %d cycles/tick)\n", r.event.Hz(), r.event.Prescaler(), r.event.Cycles())
	if r.source != nil {
		fmt.Fprintf(w, "clock source:  %d Hz (prescaler %d)\n", r.source.Hz(), r.source.Prescaler())
	} else {
		fmt.Fprintln(w, "clock source:  none (stamps from board time)")
	}
	fmt.Fprintf(w, "ticks:         %d in %s\n", r.ticks, r.elapsed)
	if r.resumed {
		fmt.Fprintf(w, "suspend:       resumed in %s mode\n", r.event.State())
	}
	if len(r.intervals) == 0 {
		return
	}

	mean, std := stat.MeanStdDev(r.intervals, nil)
	fmt.Fprintf(w, "interval:      mean %.3f us, stddev %.3f us, min %.3f us, max %.3f us\n",
		mean, std, floats.Min(r.intervals), floats.Max(r.intervals))
	fmt.Fprintf(w, "expected:      %.3f us (drift %.3f us)\n", r.expected, mean-r.expected)
}
