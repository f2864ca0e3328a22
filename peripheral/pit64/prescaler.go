package pit64

import "omibyte.io/pit64/peripheral/pit64/chip"

// ComputePrescaler returns the smallest divisor whose output rate does not
// exceed maxRate. When even the largest divisor is too fast the largest one
// is used anyway.
func ComputePrescaler(rate, maxRate uint64) uint8 {
	c := chip.DivisorConvention
	for div := c.Min; div < c.Max; div++ {
		if rate/uint64(div) <= maxRate {
			return div
		}
	}
	return c.Max
}

// TickCycles returns the reload value that makes a timer running at hz fire
// tickHz times per second.
func TickCycles(hz, tickHz uint64) uint64 {
	return divRoundClosest(hz, tickHz)
}

// divRoundClosest divides rounding half away from zero.
func divRoundClosest(n, d uint64) uint64 {
	if d == 0 {
		return 0
	}
	q := n / d
	if n%d >= d-d/2 {
		q++
	}
	return q
}
