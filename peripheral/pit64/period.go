package pit64

import (
	"omibyte.io/pit64/peripheral"
	"omibyte.io/pit64/peripheral/pit64/chip"
)

type block struct {
	regs   peripheral.Registers
	layout chip.Layout
}

func (b *block) read(offset uint32) uint32 {
	return b.regs.Read32(offset)
}

func (b *block) write(offset uint32, value uint32) {
	b.regs.Write32(offset, value)
}

// read64 samples lo before hi. The hardware carries from the low half into
// the high half, so this order never pairs halves from different epochs.
func (b *block) read64(lo, hi uint32) uint64 {
	lsb := b.read(lo)
	msb := b.read(hi)
	return uint64(msb)<<32 | uint64(lsb)
}

// Period returns the programmed period.
func (b *block) Period() uint64 {
	return b.read64(b.layout.LSBR, b.layout.MSBR)
}

// SetPeriod programs the period. The LSB write commits the pair, so it must
// come last.
func (b *block) SetPeriod(cycles uint64) {
	b.write(b.layout.MSBR, uint32(cycles>>32))
	b.write(b.layout.LSBR, uint32(cycles))
}

// Counter returns the current timer value.
func (b *block) Counter() uint64 {
	return b.read64(b.layout.TLSB, b.layout.TMSB)
}

func (b *block) start() {
	b.write(b.layout.CR, chip.CR_START)
}

func (b *block) stop() {
	b.write(b.layout.CR, chip.CR_SWRST)
}
