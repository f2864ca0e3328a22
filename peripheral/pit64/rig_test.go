package pit64_test

import (
	"context"
	"testing"

	"omibyte.io/pit64/peripheral/pit64"
	"omibyte.io/pit64/peripheral/pit64/chip"
	"omibyte.io/pit64/sim"
)

const (
	refRate  = 32_000_000
	eventIRQ = 70
)

type rig struct {
	board *sim.Board
	reg   *pit64.Registry
	fw    *sim.Framework

	srcDev  *sim.Device
	srcClk  *sim.Clock
	srcNode *sim.Node

	evtDev  *sim.Device
	evtClk  *sim.Clock
	evtNode *sim.Node
}

func newRig(t *testing.T) *rig {
	t.Helper()

	r := &rig{
		board:  sim.NewBoard(),
		reg:    pit64.NewRegistry(pit64.DefaultConfig()),
		fw:     &sim.Framework{},
		srcDev: sim.NewDevice(chip.DefaultLayout),
		srcClk: sim.NewClock(refRate),
		evtDev: sim.NewDevice(chip.DefaultLayout),
		evtClk: sim.NewClock(refRate),
	}
	r.srcNode = r.board.Attach("pit64b1", r.srcDev, r.srcClk, 0, false)
	r.evtNode = r.board.Attach("pit64b0", r.evtDev, r.evtClk, eventIRQ, true)
	return r
}

func (r *rig) probeSource(t *testing.T) *pit64.ClockSource {
	t.Helper()
	cs, err := r.reg.ProbeClockSource(context.Background(), r.srcNode, r.fw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return cs
}

func (r *rig) probeEvent(t *testing.T) *pit64.ClockEvent {
	t.Helper()
	ce, err := r.reg.ProbeClockEvent(context.Background(), r.evtNode, r.fw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return ce
}
