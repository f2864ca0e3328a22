package pit64_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"omibyte.io/pit64/peripheral/pit64"
	"omibyte.io/pit64/peripheral/pit64/chip"
	"omibyte.io/pit64/sim"
)

func TestSecondClockSourceConflicts(t *testing.T) {
	r := newRig(t)
	cs := r.probeSource(t)
	r.srcDev.Advance(1234)
	before := r.srcDev.Snapshot()

	dev := sim.NewDevice(chip.DefaultLayout)
	clk := sim.NewClock(refRate)
	node := r.board.Attach("pit64b2", dev, clk, 0, false)

	if _, err := r.reg.ProbeClockSource(context.Background(), node, r.fw); !errors.Is(err, pit64.ErrAlreadyBound) {
		t.Fatalf("got %v, want ErrAlreadyBound", err)
	}
	if r.reg.ClockSource() != cs {
		t.Errorf("first clock source was replaced")
	}
	if after := r.srcDev.Snapshot(); after != before {
		t.Errorf("first clock source changed: %+v -> %+v", before, after)
	}
	if snap := dev.Snapshot(); snap.Mapped || snap.Running || clk.Enabled() != 0 || clk.Puts() != 0 {
		t.Errorf("conflicting node was touched: %+v, clock %d", snap, clk.Enabled())
	}
}

func TestSecondClockEventConflicts(t *testing.T) {
	r := newRig(t)
	ce := r.probeEvent(t)
	if err := ce.SetPeriodic(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before := r.evtDev.Snapshot()

	dev := sim.NewDevice(chip.DefaultLayout)
	clk := sim.NewClock(refRate)
	node := r.board.Attach("pit64b3", dev, clk, eventIRQ+1, true)

	if _, err := r.reg.ProbeClockEvent(context.Background(), node, r.fw); !errors.Is(err, pit64.ErrAlreadyBound) {
		t.Fatalf("got %v, want ErrAlreadyBound", err)
	}
	if r.reg.ClockEvent() != ce || ce.State() != pit64.StatePeriodic {
		t.Errorf("first clock event was disturbed")
	}
	if after := r.evtDev.Snapshot(); after != before {
		t.Errorf("first clock event changed: %+v -> %+v", before, after)
	}
	if len(r.board.Controller.Handlers(eventIRQ+1)) != 0 {
		t.Errorf("conflicting probe requested an interrupt")
	}
}

func TestProbeClockSourceUnwinds(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name    string
		setup   func(*rig)
		errKind error
		mapped  bool
		puts    int
	}{
		{"map", func(r *rig) { r.srcNode.MapErr = boom }, pit64.ErrProvisioning, false, 0},
		{"clock lookup", func(r *rig) { r.srcNode.ClockErr = boom }, pit64.ErrProvisioning, false, 0},
		{"clock enable", func(r *rig) { r.srcClk.FailEnable(boom) }, pit64.ErrClockEnable, false, 1},
		{"register", func(r *rig) { r.fw.SourceErr = boom }, pit64.ErrProvisioning, false, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := newRig(t)
			tc.setup(r)

			_, err := r.reg.ProbeClockSource(context.Background(), r.srcNode, r.fw)
			if !errors.Is(err, tc.errKind) || !errors.Is(err, boom) {
				t.Fatalf("got %v, want %v wrapping boom", err, tc.errKind)
			}
			if r.reg.ClockSource() != nil {
				t.Errorf("slot still bound after failure")
			}
			snap := r.srcDev.Snapshot()
			if snap.Mapped != tc.mapped || snap.Running {
				t.Errorf("device left mapped=%v running=%v", snap.Mapped, snap.Running)
			}
			if r.srcClk.Enabled() != 0 {
				t.Errorf("clock left enabled")
			}
			if r.srcClk.Puts() != tc.puts {
				t.Errorf("clock put %d times, want %d", r.srcClk.Puts(), tc.puts)
			}

			// The slot is free again.
			r.srcNode.MapErr, r.srcNode.ClockErr, r.fw.SourceErr = nil, nil, nil
			r.srcClk.FailEnable(nil)
			r.probeSource(t)
		})
	}
}

func TestProbeClockEventUnwinds(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name     string
		setup    func(*rig)
		errKind  error
		puts     int
		disposed bool
	}{
		{"map", func(r *rig) { r.evtNode.MapErr = boom }, pit64.ErrProvisioning, 0, false},
		{"irq lookup", func(r *rig) { r.evtNode.IRQErr = boom }, pit64.ErrProvisioning, 1, false},
		{"clock enable", func(r *rig) { r.evtClk.FailEnable(boom) }, pit64.ErrClockEnable, 1, true},
		{"irq request", func(r *rig) { r.evtNode.Line.FailRequest(boom) }, pit64.ErrProvisioning, 1, true},
		{"register", func(r *rig) { r.fw.EventErr = boom }, pit64.ErrProvisioning, 1, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := newRig(t)
			tc.setup(r)

			_, err := r.reg.ProbeClockEvent(context.Background(), r.evtNode, r.fw)
			if !errors.Is(err, tc.errKind) || !errors.Is(err, boom) {
				t.Fatalf("got %v, want %v wrapping boom", err, tc.errKind)
			}
			if r.reg.ClockEvent() != nil {
				t.Errorf("slot still bound after failure")
			}
			if snap := r.evtDev.Snapshot(); snap.Mapped || snap.Running {
				t.Errorf("device left %+v", snap)
			}
			if r.evtClk.Enabled() != 0 {
				t.Errorf("clock left enabled")
			}
			if r.evtClk.Puts() != tc.puts {
				t.Errorf("clock put %d times, want %d", r.evtClk.Puts(), tc.puts)
			}
			if r.evtNode.Line.Disposed() != tc.disposed {
				t.Errorf("irq mapping disposed = %v, want %v", r.evtNode.Line.Disposed(), tc.disposed)
			}
			if len(r.board.Controller.Handlers(eventIRQ)) != 0 {
				t.Errorf("interrupt handler left installed")
			}
		})
	}
}

func TestProbeClockEventWithoutIRQ(t *testing.T) {
	r := newRig(t)
	_, err := r.reg.ProbeClockEvent(context.Background(), r.srcNode, r.fw)
	if !errors.Is(err, pit64.ErrProvisioning) || !errors.Is(err, sim.ErrNoIRQ) {
		t.Fatalf("got %v, want provisioning failure", err)
	}
}

func TestProbeCancelledContext(t *testing.T) {
	r := newRig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.reg.ProbeClockSource(ctx, r.srcNode, r.fw)
	if !errors.Is(err, pit64.ErrClockEnable) || !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want ErrClockEnable wrapping context.Canceled", err)
	}
}

func TestProbeRoles(t *testing.T) {
	r := newRig(t)
	ctx := context.Background()

	if err := r.reg.Probe(ctx, r.srcNode, pit64.RoleClockSource, r.fw); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.reg.Probe(ctx, r.evtNode, pit64.RoleClockEvent, r.fw); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.reg.Probe(ctx, r.evtNode, pit64.Role(42), r.fw); !errors.Is(err, pit64.ErrUnknownRole) {
		t.Errorf("got %v, want ErrUnknownRole", err)
	}
}

func TestProbeAuto(t *testing.T) {
	board := sim.NewBoard()
	reg := pit64.NewRegistry(pit64.DefaultConfig())
	fw := &sim.Framework{}
	ctx := context.Background()

	first := board.Attach("pit64b0", sim.NewDevice(chip.DefaultLayout), sim.NewClock(refRate), 70, true)
	second := board.Attach("pit64b1", sim.NewDevice(chip.DefaultLayout), sim.NewClock(refRate), 71, true)
	third := board.Attach("pit64b2", sim.NewDevice(chip.DefaultLayout), sim.NewClock(refRate), 72, true)

	if err := reg.Probe(ctx, first, pit64.RoleAuto, fw); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reg.ClockEvent() == nil || reg.ClockSource() != nil {
		t.Fatalf("first auto probe should bind the clock event")
	}
	if err := reg.Probe(ctx, second, pit64.RoleAuto, fw); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reg.ClockSource() == nil {
		t.Fatalf("second auto probe should bind the clock source")
	}
	if err := reg.Probe(ctx, third, pit64.RoleAuto, fw); !errors.Is(err, pit64.ErrAlreadyBound) {
		t.Errorf("third auto probe: got %v, want ErrAlreadyBound", err)
	}
}

func TestRoleForCompatible(t *testing.T) {
	tests := []struct {
		compatible string
		role       pit64.Role
		ok         bool
	}{
		{"microchip,pit64-clksrc", pit64.RoleClockSource, true},
		{"microchip,pit64-clkevt", pit64.RoleClockEvent, true},
		{"microchip,sam9x60-pit64b", pit64.RoleAuto, true},
		{"atmel,at91sam9260-pit", 0, false},
	}
	for _, tc := range tests {
		role, ok := pit64.RoleForCompatible(tc.compatible)
		if ok != tc.ok || (ok && role != tc.role) {
			t.Errorf("RoleForCompatible(%q) = %s, %v", tc.compatible, role, ok)
		}
	}
}

func TestTicksOnBoard(t *testing.T) {
	r := newRig(t)
	r.fw.Mode = pit64.StatePeriodic
	cs := r.probeSource(t)
	ce := r.probeEvent(t)

	for r.fw.Ticks() < 10 {
		r.board.Step(time.Duration(ce.Cycles() * uint64(time.Second) / ce.Hz() / 4))
	}

	stamps := r.fw.Stamps()
	for i := 1; i < len(stamps); i++ {
		delta := stamps[i] - stamps[i-1]
		// Both blocks share the same rate, so a tick spans Cycles source ticks
		// give or take the board step granularity.
		if diff := int64(delta) - int64(ce.Cycles()); diff < -int64(ce.Cycles()/2) || diff > int64(ce.Cycles()/2) {
			t.Errorf("tick %d spans %d source cycles, want about %d", i, delta, ce.Cycles())
		}
	}
	if cs.Read() == 0 {
		t.Errorf("clock source did not count")
	}
}
