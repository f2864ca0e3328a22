package pit64

import (
	"context"
	"errors"

	"omibyte.io/pit64/peripheral"
)

// unwind collects release steps and runs them newest first.
type unwind []func()

func (u *unwind) push(fn func()) { *u = append(*u, fn) }

func (u unwind) run() {
	for i := len(u) - 1; i >= 0; i-- {
		u[i]()
	}
}

// Probe binds node to role. RoleAuto takes the clock event slot when it is
// free and the clock source slot otherwise.
func (r *Registry) Probe(ctx context.Context, node peripheral.Node, role Role, fw Framework) error {
	switch role {
	case RoleClockSource:
		_, err := r.ProbeClockSource(ctx, node, fw)
		return err
	case RoleClockEvent:
		_, err := r.ProbeClockEvent(ctx, node, fw)
		return err
	case RoleAuto:
		_, err := r.ProbeClockEvent(ctx, node, fw)
		if errors.Is(err, ErrAlreadyBound) {
			_, err = r.ProbeClockSource(ctx, node, fw)
		}
		return err
	default:
		return ErrUnknownRole
	}
}

// ProbeClockSource maps node, starts it counting and registers it with fw.
func (r *Registry) ProbeClockSource(ctx context.Context, node peripheral.Node, fw SourceFramework) (*ClockSource, error) {
	cs := &ClockSource{}
	if !r.source.CompareAndSwap(nil, cs) {
		return nil, ErrAlreadyBound
	}

	var undo unwind
	err := r.mapBlock(node, RoleClockSource, &cs.timer, &undo)
	if err == nil {
		err = r.enableClock(ctx, node, RoleClockSource, &cs.timer, &undo)
	}
	if err != nil {
		undo.run()
		r.source.Store(nil)
		return nil, err
	}

	cs.setup(r.cfg.SourceMaxRate)
	cs.program()
	undo.push(cs.stop)

	if err := fw.RegisterClockSource(cs, cs.hz); err != nil {
		r.cfg.Logger.Printf("%s: %s: failed to register clock source: %v", node.Name(), RoleClockSource, err)
		undo.run()
		r.source.Store(nil)
		return nil, errors.Join(ErrProvisioning, err)
	}
	fw.RegisterSchedClock(cs.Read, 64, cs.hz)

	return cs, nil
}

// ProbeClockEvent maps node, claims its interrupt and registers it with fw.
// The device is left shut down until fw selects a mode.
func (r *Registry) ProbeClockEvent(ctx context.Context, node peripheral.Node, fw EventFramework) (*ClockEvent, error) {
	ce := &ClockEvent{
		token: r.nextToken(),
		log:   r.cfg.Logger,
	}
	if !r.event.CompareAndSwap(nil, ce) {
		return nil, ErrAlreadyBound
	}

	fail := func(undo unwind, err error) (*ClockEvent, error) {
		undo.run()
		r.event.Store(nil)
		return nil, err
	}

	var undo unwind
	if err := r.mapBlock(node, RoleClockEvent, &ce.timer, &undo); err != nil {
		return fail(undo, err)
	}

	irq, err := node.IRQ()
	if err != nil {
		r.cfg.Logger.Printf("%s: %s: failed to map interrupt: %v", node.Name(), RoleClockEvent, err)
		return fail(undo, errors.Join(ErrProvisioning, err))
	}
	ce.irq = irq
	undo.push(irq.Dispose)

	if err := r.enableClock(ctx, node, RoleClockEvent, &ce.timer, &undo); err != nil {
		return fail(undo, err)
	}

	ce.setup(r.cfg.EventMaxRate)
	ce.cycles = TickCycles(ce.hz, r.cfg.TickHz)
	ce.Shutdown()

	if err := irq.Request(IRQName, ce.token, r.HandleIRQ); err != nil {
		r.cfg.Logger.Printf("%s: %s: failed to request irq %d: %v", node.Name(), RoleClockEvent, irq.Number(), err)
		return fail(undo, errors.Join(ErrProvisioning, err))
	}
	undo.push(func() { irq.Free(ce.token) })

	if err := fw.RegisterClockEvent(ce, ce.hz, MinDelta, MaxDelta); err != nil {
		r.cfg.Logger.Printf("%s: %s: failed to register clock event: %v", node.Name(), RoleClockEvent, err)
		ce.Shutdown()
		return fail(undo, errors.Join(ErrProvisioning, err))
	}

	return ce, nil
}

// mapBlock maps the register window and takes the reference clock, pushing
// the matching release for each onto undo.
func (r *Registry) mapBlock(node peripheral.Node, role Role, t *timer, undo *unwind) error {
	window, err := node.Map()
	if err != nil {
		r.cfg.Logger.Printf("%s: %s: could not map registers: %v", node.Name(), role, err)
		return errors.Join(ErrProvisioning, err)
	}
	undo.push(window.Unmap)

	clk, err := node.Clock()
	if err != nil {
		r.cfg.Logger.Printf("%s: %s: failed to get clock: %v", node.Name(), role, err)
		return errors.Join(ErrProvisioning, err)
	}
	undo.push(clk.Put)

	t.block = block{regs: window, layout: r.cfg.Layout}
	t.window = window
	t.clk = clk
	t.sgclk = r.cfg.GenericClock
	return nil
}

func (r *Registry) enableClock(ctx context.Context, node peripheral.Node, role Role, t *timer, undo *unwind) error {
	if err := t.clk.Enable(ctx); err != nil {
		r.cfg.Logger.Printf("%s: %s: failed to enable clock: %v", node.Name(), role, err)
		return errors.Join(ErrClockEnable, err)
	}
	undo.push(t.clk.Disable)
	return nil
}
