// Package pit64 drives the Microchip 64-bit Periodic Interval Timer (PIT64B).
//
// One timer block serves as a free-running clock source and another as the
// clock event device for the scheduler tick. Both are bound through a
// Registry, which holds at most one instance per role.
package pit64

import (
	"math"

	"omibyte.io/pit64/peripheral"
	"omibyte.io/pit64/peripheral/pit64/chip"
)

const (
	Name    = "pit64"
	IRQName = "pit64_tick"
	Rating  = 250

	// DefaultMaxRate is the ceiling used when choosing a prescaler.
	DefaultMaxRate = 2_500_000
	DefaultTickHz  = 100
)

type Role uint8

const (
	RoleClockSource Role = iota
	RoleClockEvent

	// RoleAuto binds the clock event first and the clock source second.
	RoleAuto
)

func (r Role) String() string {
	switch r {
	case RoleClockSource:
		return "clksrc"
	case RoleClockEvent:
		return "clkevt"
	case RoleAuto:
		return "auto"
	default:
		return "unknown"
	}
}

var compatibles = map[string]Role{
	"microchip,pit64-clksrc":   RoleClockSource,
	"microchip,pit64-clkevt":   RoleClockEvent,
	"microchip,sam9x60-pit64b": RoleAuto,
	"microchip,sama7g5-pit64b": RoleAuto,
}

// RoleForCompatible maps a device-tree compatible string to a role.
func RoleForCompatible(compatible string) (Role, bool) {
	role, ok := compatibles[compatible]
	return role, ok
}

type Config struct {
	// TickHz is the scheduler tick rate the clock event runs at in periodic mode.
	TickHz        uint64
	SourceMaxRate uint64
	EventMaxRate  uint64
	Layout        chip.Layout

	// GenericClock gates the counter from the generic clock (MR.SGCLK).
	GenericClock bool
	Logger       peripheral.Logger
}

func DefaultConfig() Config {
	return Config{
		TickHz:        DefaultTickHz,
		SourceMaxRate: DefaultMaxRate,
		EventMaxRate:  DefaultMaxRate,
		Layout:        chip.DefaultLayout,
		Logger:        peripheral.Discard,
	}
}

// timer is the state shared by both roles.
type timer struct {
	block
	window    peripheral.Window
	clk       peripheral.Clock
	prescaler uint8
	cycles    uint64
	hz        uint64
	sgclk     bool
}

// setup derives the prescaler and tick rate from the reference clock.
func (t *timer) setup(maxRate uint64) {
	rate := t.clk.Rate()
	t.prescaler = ComputePrescaler(rate, maxRate)
	t.hz = rate / uint64(t.prescaler)
}

// reset reprograms the block from scratch and starts it.
func (t *timer) reset(mode uint32, irq bool) {
	mode |= chip.DivisorConvention.Encode(t.prescaler)
	if t.sgclk {
		mode |= chip.MR_SGCLK
	}

	t.stop()
	t.write(t.layout.MR, mode)
	t.SetPeriod(t.cycles)
	if irq {
		t.write(t.layout.IER, chip.IRQ_PERIOD)
	}
	t.start()
}

// Prescaler returns the divisor applied to the reference clock.
func (t *timer) Prescaler() uint8 { return t.prescaler }

// Hz returns the counting rate after the prescaler.
func (t *timer) Hz() uint64 { return t.hz }

// Cycles returns the reload value programmed on reset.
func (t *timer) Cycles() uint64 { return t.cycles }

const maxCycles uint64 = math.MaxUint64
