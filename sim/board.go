package sim

import (
	"math/bits"
	"time"
)

const nsPerSecond = uint64(time.Second)

type slot struct {
	dev  *Device
	clk  *Clock
	frac uint64
}

// Board drives a set of devices from a shared notion of elapsed time. A
// device only counts while its reference clock is enabled.
type Board struct {
	Controller *Controller

	slots []*slot
	now   time.Duration
}

func NewBoard() *Board {
	return &Board{Controller: NewController()}
}

// Attach wires a block into the board and returns its node. irq is ignored
// when hasIRQ is false.
func (b *Board) Attach(name string, dev *Device, clk *Clock, irq uint32, hasIRQ bool) *Node {
	b.slots = append(b.slots, &slot{dev: dev, clk: clk})

	var line *Line
	if hasIRQ {
		line = b.Controller.Line(irq)
		dev.Connect(b.Controller, irq)
	}
	return NewNode(name, dev, clk, line)
}

// Now returns the simulated time since the board was created.
func (b *Board) Now() time.Duration { return b.now }

// Step moves every device forward by d.
func (b *Board) Step(d time.Duration) {
	if d <= 0 {
		return
	}
	b.now += d
	for _, s := range b.slots {
		if s.clk.Enabled() == 0 {
			continue
		}
		hi, lo := bits.Mul64(s.clk.Rate(), uint64(d))
		lo, carry := bits.Add64(lo, s.frac, 0)
		hi += carry
		cycles, rem := bits.Div64(hi, lo, nsPerSecond)
		s.frac = rem
		s.dev.AdvanceClock(cycles)
	}
}
