package pit64

import (
	"context"
	"errors"

	"omibyte.io/pit64/peripheral"
	"omibyte.io/pit64/peripheral/pit64/chip"
)

type State uint8

const (
	StateShutdown State = iota
	StatePeriodic
	StateOneShot
)

func (s State) String() string {
	switch s {
	case StateShutdown:
		return "shutdown"
	case StatePeriodic:
		return "periodic"
	case StateOneShot:
		return "oneshot"
	default:
		return "unknown"
	}
}

// Delta bounds, in timer cycles, accepted by SetNextEvent.
const (
	MinDelta uint64 = 1
	MaxDelta        = maxCycles
)

// ClockEvent raises the scheduler tick, either periodically or once per
// programmed deadline.
//
// Callers serialize access: the host disables interrupts around
// SetNextEvent, and everything else runs from init or suspend paths.
type ClockEvent struct {
	timer
	irq     peripheral.IRQLine
	token   peripheral.Token
	handler func()
	log     peripheral.Logger

	state     State
	saved     State
	suspended bool
}

func (ce *ClockEvent) Name() string { return Name }
func (ce *ClockEvent) Rating() int  { return Rating }

// CPU is the only CPU the device delivers ticks to.
func (ce *ClockEvent) CPU() int { return 0 }

func (ce *ClockEvent) IRQ() peripheral.IRQLine { return ce.irq }
func (ce *ClockEvent) Token() peripheral.Token { return ce.token }
func (ce *ClockEvent) State() State            { return ce.state }
func (ce *ClockEvent) Suspended() bool         { return ce.suspended }

// SetEventHandler installs the tick callback. It runs in interrupt context.
func (ce *ClockEvent) SetEventHandler(fn func()) {
	ce.handler = fn
}

func (ce *ClockEvent) Shutdown() error {
	ce.stop()
	ce.state = StateShutdown
	return nil
}

func (ce *ClockEvent) SetPeriodic() error {
	ce.reset(chip.MR_CONT, true)
	ce.state = StatePeriodic
	return nil
}

// SetOneShot arms single-shot mode. The counter only heads for a real
// deadline once SetNextEvent supplies one.
func (ce *ClockEvent) SetOneShot() error {
	ce.reset(chip.MR_SMOD, true)
	ce.state = StateOneShot
	return nil
}

// SetNextEvent fires the tick delta cycles from now. It leaves the mode
// register alone and never sleeps.
func (ce *ClockEvent) SetNextEvent(delta uint64) error {
	if ce.state != StateOneShot {
		return ErrNotOneShot
	}
	ce.SetPeriod(delta)
	ce.start()
	return nil
}

// Suspend stops an armed device and gates its clock. An idle device is left
// as is.
func (ce *ClockEvent) Suspend() {
	if ce.suspended || ce.state == StateShutdown {
		return
	}
	ce.saved = ce.state
	ce.stop()
	ce.clk.Disable()
	ce.state = StateShutdown
	ce.suspended = true
}

// Resume re-enables the clock and returns to the mode held before Suspend.
// If the clock cannot be enabled the device stays stopped and Resume may be
// retried.
func (ce *ClockEvent) Resume(ctx context.Context) error {
	if !ce.suspended {
		return nil
	}
	if err := ce.clk.Enable(ctx); err != nil {
		ce.log.Printf("%s: failed to enable clock on resume: %v", RoleClockEvent, err)
		return errors.Join(ErrClockEnable, err)
	}
	ce.suspended = false

	mode := chip.MR_SMOD
	if ce.saved == StatePeriodic {
		mode = chip.MR_CONT
	}
	ce.reset(mode, true)
	ce.state = ce.saved
	return nil
}

// interrupt acknowledges a period match. The status register clears on read.
func (ce *ClockEvent) interrupt() peripheral.IRQResult {
	if ce.read(ce.layout.ISR)&chip.IRQ_PERIOD == 0 {
		return peripheral.IRQNone
	}
	if ce.handler != nil {
		ce.handler()
	}
	return peripheral.IRQHandled
}
