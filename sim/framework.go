package sim

import (
	"sync"

	"omibyte.io/pit64/peripheral/pit64"
)

// Framework stands in for the timekeeping and tick cores. It records what
// the driver registers, picks the clock event mode and counts ticks.
type Framework struct {
	// Mode is entered right after the clock event registers.
	// StateShutdown leaves the device idle.
	Mode pit64.State

	// Delta is the cycle count programmed for every one-shot event.
	Delta uint64

	// Clock stamps ticks when no scheduler clock has been registered.
	Clock func() uint64

	SourceErr error
	EventErr  error

	mu        sync.Mutex
	source    *pit64.ClockSource
	sourceHz  uint64
	sched     func() uint64
	schedBits uint
	schedHz   uint64
	event     *pit64.ClockEvent
	eventHz   uint64
	minDelta  uint64
	maxDelta  uint64
	stamps    []uint64
	rearmErr  error
}

func (f *Framework) RegisterClockSource(cs *pit64.ClockSource, hz uint64) error {
	if f.SourceErr != nil {
		return f.SourceErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.source = cs
	f.sourceHz = hz
	return nil
}

func (f *Framework) RegisterSchedClock(read func() uint64, bits uint, hz uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sched = read
	f.schedBits = bits
	f.schedHz = hz
}

func (f *Framework) RegisterClockEvent(ce *pit64.ClockEvent, hz uint64, minDelta, maxDelta uint64) error {
	if f.EventErr != nil {
		return f.EventErr
	}

	f.mu.Lock()
	f.event = ce
	f.eventHz = hz
	f.minDelta = minDelta
	f.maxDelta = maxDelta
	f.mu.Unlock()

	ce.SetEventHandler(f.tick)
	switch f.Mode {
	case pit64.StatePeriodic:
		return ce.SetPeriodic()
	case pit64.StateOneShot:
		if err := ce.SetOneShot(); err != nil {
			return err
		}
		return ce.SetNextEvent(f.delta())
	}
	return nil
}

func (f *Framework) delta() uint64 {
	if f.Delta < pit64.MinDelta {
		return pit64.MinDelta
	}
	return f.Delta
}

// tick runs in interrupt context.
func (f *Framework) tick() {
	f.mu.Lock()
	var stamp uint64
	if f.sched != nil {
		stamp = f.sched()
	} else if f.Clock != nil {
		stamp = f.Clock()
	}
	f.stamps = append(f.stamps, stamp)
	ce := f.event
	f.mu.Unlock()

	if ce != nil && ce.State() == pit64.StateOneShot {
		if err := ce.SetNextEvent(f.delta()); err != nil {
			f.mu.Lock()
			f.rearmErr = err
			f.mu.Unlock()
		}
	}
}

// Ticks returns how many ticks were delivered.
func (f *Framework) Ticks() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.stamps)
}

// Stamps returns the scheduler clock value read at each tick.
func (f *Framework) Stamps() []uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint64(nil), f.stamps...)
}

func (f *Framework) ClockSource() (*pit64.ClockSource, uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.source, f.sourceHz
}

// SchedClock reports the width and rate of the registered scheduler clock.
// hz is zero when none was registered.
func (f *Framework) SchedClock() (bits uint, hz uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.schedBits, f.schedHz
}

// ClockEvent returns the registered device and its declared rate and delta
// range.
func (f *Framework) ClockEvent() (ce *pit64.ClockEvent, hz, minDelta, maxDelta uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.event, f.eventHz, f.minDelta, f.maxDelta
}

// RearmErr returns the last error seen while re-arming a one-shot event.
func (f *Framework) RearmErr() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rearmErr
}

var _ pit64.Framework = (*Framework)(nil)
