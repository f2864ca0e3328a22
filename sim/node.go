package sim

import (
	"omibyte.io/pit64/peripheral"
)

// Node is the platform description of one simulated timer block.
type Node struct {
	name   string
	Device *Device
	Ref    *Clock
	Line   *Line

	// Errors returned by the matching lookups when set.
	MapErr   error
	ClockErr error
	IRQErr   error
}

// NewNode describes dev clocked by clk. line may be nil for a block without
// an interrupt.
func NewNode(name string, dev *Device, clk *Clock, line *Line) *Node {
	return &Node{name: name, Device: dev, Ref: clk, Line: line}
}

func (n *Node) Name() string { return n.name }

func (n *Node) Map() (peripheral.Window, error) {
	if n.MapErr != nil {
		return nil, n.MapErr
	}
	n.Device.mapWindow()
	return n.Device, nil
}

func (n *Node) Clock() (peripheral.Clock, error) {
	if n.ClockErr != nil {
		return nil, n.ClockErr
	}
	return n.Ref, nil
}

func (n *Node) IRQ() (peripheral.IRQLine, error) {
	if n.IRQErr != nil {
		return nil, n.IRQErr
	}
	if n.Line == nil {
		return nil, ErrNoIRQ
	}
	return n.Line, nil
}

var _ peripheral.Node = (*Node)(nil)
