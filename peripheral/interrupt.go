package peripheral

// IRQResult is what an interrupt handler reports back to the controller.
type IRQResult uint8

const (
	IRQNone IRQResult = iota
	IRQHandled
)

func (r IRQResult) String() string {
	if r == IRQHandled {
		return "handled"
	}
	return "none"
}

// Token identifies one interrupt registration. The controller hands it back
// to the handler unchanged on every invocation.
type Token uint64

type IRQHandler func(token Token) IRQResult

// IRQLine is a mapped interrupt line.
type IRQLine interface {
	Number() uint32

	// Request attaches handler to the line. Timer lines are edge triggered
	// and may be shared with other devices.
	Request(name string, token Token, handler IRQHandler) error
	Free(token Token)

	// Dispose releases the mapping itself.
	Dispose()
}
