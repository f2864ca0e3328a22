// Package sim models the platform around a PIT64B on the host: the timer
// block itself, its reference clock, the interrupt controller and the
// timekeeping framework the driver registers with.
package sim

import (
	"sync"

	"omibyte.io/pit64/peripheral"
	"omibyte.io/pit64/peripheral/pit64/chip"
)

// InterruptSink receives the device's period-match pulses.
type InterruptSink interface {
	Raise(irq uint32) peripheral.IRQResult
}

// Access is one register access as seen by the device.
type Access struct {
	Write  bool
	Offset uint32
	Value  uint32
}

// Device is a PIT64B register block. It only counts when told to through
// Advance or AdvanceClock.
type Device struct {
	layout chip.Layout
	sink   InterruptSink
	irq    uint32

	mu       sync.Mutex
	mode     uint32
	period   uint64
	staged   uint32
	imr      uint32
	isr      uint32
	wpmr     uint32
	counter  uint64
	latched  uint32
	prescale uint64
	running  bool
	mapped   bool
	trace    func(Access)
}

func NewDevice(layout chip.Layout) *Device {
	return &Device{layout: layout}
}

// Connect routes period-match interrupts to sink on line irq.
func (d *Device) Connect(sink InterruptSink, irq uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sink = sink
	d.irq = irq
}

// OnAccess installs a hook called for every register access, with the device
// lock held. fn must not touch the device.
func (d *Device) OnAccess(fn func(Access)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.trace = fn
}

func (d *Device) Read32(offset uint32) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()

	var val uint32
	switch offset {
	case d.layout.MR:
		val = d.mode
	case d.layout.LSBR:
		val = uint32(d.period)
	case d.layout.MSBR:
		val = uint32(d.period >> 32)
	case d.layout.IMR:
		val = d.imr
	case d.layout.ISR:
		val = d.isr
		d.isr = 0
	case d.layout.TLSB:
		// Reading the low half latches the high half.
		d.latched = uint32(d.counter >> 32)
		val = uint32(d.counter)
	case d.layout.TMSB:
		val = d.latched
	case d.layout.WPMR:
		val = d.wpmr
	}

	if d.trace != nil {
		d.trace(Access{Offset: offset, Value: val})
	}
	return val
}

func (d *Device) Write32(offset uint32, value uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.trace != nil {
		d.trace(Access{Write: true, Offset: offset, Value: value})
	}

	switch offset {
	case d.layout.CR:
		if value&chip.CR_SWRST != 0 {
			d.resetLocked()
		}
		if value&chip.CR_START != 0 {
			d.counter = 0
			d.running = true
		}
	case d.layout.MR:
		d.mode = value
	case d.layout.MSBR:
		d.staged = value
	case d.layout.LSBR:
		// The low half commits the staged high half.
		d.period = uint64(d.staged)<<32 | uint64(value)
	case d.layout.IER:
		d.imr |= value
	case d.layout.IDR:
		d.imr &^= value
	case d.layout.WPMR:
		d.wpmr = value
	}
}

func (d *Device) resetLocked() {
	d.mode = 0
	d.period = 0
	d.staged = 0
	d.imr = 0
	d.isr = 0
	d.counter = 0
	d.latched = 0
	d.prescale = 0
	d.running = false
}

// Unmap marks the window as released.
func (d *Device) Unmap() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mapped = false
}

func (d *Device) mapWindow() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mapped = true
}

// AdvanceClock feeds cycles of the reference clock through the prescaler
// selected in the mode register.
func (d *Device) AdvanceClock(cycles uint64) int {
	d.mu.Lock()
	div := uint64(chip.DivisorConvention.Decode(d.mode))
	total := d.prescale + cycles
	d.prescale = total % div
	d.mu.Unlock()
	return d.Advance(total / div)
}

// Advance counts ticks timer ticks and returns how many period matches
// occurred. Each match is delivered to the sink before counting resumes.
func (d *Device) Advance(ticks uint64) int {
	matches := 0
	for {
		d.mu.Lock()
		if ticks == 0 || !d.running {
			d.mu.Unlock()
			return matches
		}
		step := d.period - d.counter
		if step == 0 {
			step = 1
		}
		if ticks < step {
			d.counter += ticks
			d.mu.Unlock()
			return matches
		}
		ticks -= step
		d.counter += step
		matches++
		d.isr |= chip.IRQ_PERIOD
		if d.mode&chip.MR_CONT != 0 {
			d.counter = 0
		} else {
			d.running = false
		}
		pulse := d.imr&chip.IRQ_PERIOD != 0 && d.sink != nil
		sink, irq := d.sink, d.irq
		d.mu.Unlock()

		if pulse {
			sink.Raise(irq)
		}
	}
}

// SetCounter overwrites the current value, as if the counter had run there.
func (d *Device) SetCounter(v uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.counter = v
}

// Snapshot is a side-effect free view of the device state.
type Snapshot struct {
	Mode    uint32
	Period  uint64
	IMR     uint32
	ISR     uint32
	Counter uint64
	Running bool
	Mapped  bool
}

func (d *Device) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Snapshot{
		Mode:    d.mode,
		Period:  d.period,
		IMR:     d.imr,
		ISR:     d.isr,
		Counter: d.counter,
		Running: d.running,
		Mapped:  d.mapped,
	}
}

// Assert sets status bits without a period match, as a stray event would.
func (d *Device) Assert(status uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.isr |= status
}

var _ peripheral.Window = (*Device)(nil)
