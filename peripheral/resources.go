package peripheral

import "context"

// Registers is a memory-mapped register window accessed as 32-bit words.
type Registers interface {
	Read32(offset uint32) uint32
	Write32(offset uint32, value uint32)
}

type Window interface {
	Registers
	Unmap()
}

// Clock is a reference clock handle owned by the clock provider.
type Clock interface {
	Rate() uint64

	// Enable may sleep while the provider waits for the clock to settle.
	Enable(ctx context.Context) error
	Disable()

	// Put returns the handle to the provider.
	Put()
}

// Node is a platform description of one timer block.
type Node interface {
	Name() string
	Map() (Window, error)
	Clock() (Clock, error)
	IRQ() (IRQLine, error)
}

// Logger receives driver diagnostics. *log.Logger satisfies it.
type Logger interface {
	Printf(format string, v ...any)
}

type discard struct{}

func (discard) Printf(string, ...any) {}

// Discard is a Logger that drops everything.
var Discard Logger = discard{}
