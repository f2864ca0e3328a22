package sim

import (
	"sync"

	"omibyte.io/pit64/peripheral"
)

type action struct {
	name    string
	token   peripheral.Token
	handler peripheral.IRQHandler
}

type lineState struct {
	actions []action
	raised  int
	handled int
}

// Controller is an interrupt controller with shareable lines.
type Controller struct {
	mu    sync.Mutex
	lines map[uint32]*lineState
}

func NewController() *Controller {
	return &Controller{lines: make(map[uint32]*lineState)}
}

// Line maps irq and returns its handle.
func (c *Controller) Line(irq uint32) *Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.lines[irq]; !ok {
		c.lines[irq] = &lineState{}
	}
	return &Line{owner: c, irq: irq}
}

// Raise runs every handler on irq and reports whether any claimed it.
func (c *Controller) Raise(irq uint32) peripheral.IRQResult {
	c.mu.Lock()
	st, ok := c.lines[irq]
	if !ok {
		c.mu.Unlock()
		return peripheral.IRQNone
	}
	st.raised++
	actions := append([]action(nil), st.actions...)
	c.mu.Unlock()

	result := peripheral.IRQNone
	for _, a := range actions {
		if a.handler(a.token) == peripheral.IRQHandled {
			result = peripheral.IRQHandled
		}
	}

	if result == peripheral.IRQHandled {
		c.mu.Lock()
		st.handled++
		c.mu.Unlock()
	}
	return result
}

// Handlers returns the names of the handlers attached to irq.
func (c *Controller) Handlers(irq uint32) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.lines[irq]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(st.actions))
	for _, a := range st.actions {
		names = append(names, a.name)
	}
	return names
}

// Stats returns how often irq was raised and how often it was handled.
func (c *Controller) Stats(irq uint32) (raised, handled int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok := c.lines[irq]; ok {
		return st.raised, st.handled
	}
	return 0, 0
}

// Line is a mapped interrupt line.
type Line struct {
	owner    *Controller
	irq      uint32
	disposed bool
	failErr  error
}

func (l *Line) Number() uint32 { return l.irq }

func (l *Line) Request(name string, token peripheral.Token, handler peripheral.IRQHandler) error {
	l.owner.mu.Lock()
	defer l.owner.mu.Unlock()
	if l.disposed {
		return ErrLineDisposed
	}
	if l.failErr != nil {
		return l.failErr
	}
	st := l.owner.lines[l.irq]
	for _, a := range st.actions {
		if a.token == token {
			return ErrLineBusy
		}
	}
	st.actions = append(st.actions, action{name: name, token: token, handler: handler})
	return nil
}

func (l *Line) Free(token peripheral.Token) {
	l.owner.mu.Lock()
	defer l.owner.mu.Unlock()
	st := l.owner.lines[l.irq]
	for i, a := range st.actions {
		if a.token == token {
			st.actions = append(st.actions[:i], st.actions[i+1:]...)
			return
		}
	}
}

func (l *Line) Dispose() {
	l.owner.mu.Lock()
	defer l.owner.mu.Unlock()
	l.disposed = true
}

// Disposed reports whether the mapping was released.
func (l *Line) Disposed() bool {
	l.owner.mu.Lock()
	defer l.owner.mu.Unlock()
	return l.disposed
}

// FailRequest makes the next Request calls return err.
func (l *Line) FailRequest(err error) {
	l.owner.mu.Lock()
	defer l.owner.mu.Unlock()
	l.failErr = err
}

var _ peripheral.IRQLine = (*Line)(nil)
