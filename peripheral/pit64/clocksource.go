package pit64

import "omibyte.io/pit64/peripheral/pit64/chip"

// ClockSource is a free-running 64-bit counter. It never raises interrupts.
type ClockSource struct {
	timer
}

func (cs *ClockSource) Name() string { return Name }
func (cs *ClockSource) Rating() int  { return Rating }

// Mask covers the full 64-bit counter.
func (cs *ClockSource) Mask() uint64 { return maxCycles }

// Continuous reports that the counter runs without gaps.
func (cs *ClockSource) Continuous() bool { return true }

// Read returns the current counter value.
func (cs *ClockSource) Read() uint64 {
	return cs.Counter()
}

// program starts free-running counting with the match interrupt masked.
func (cs *ClockSource) program() {
	cs.cycles = maxCycles
	cs.reset(chip.MR_CONT, false)
}
