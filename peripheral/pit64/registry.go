package pit64

import (
	"sync/atomic"

	"omibyte.io/pit64/peripheral"
	"omibyte.io/pit64/peripheral/pit64/chip"
)

// SourceFramework is the timekeeping core a clock source registers with.
type SourceFramework interface {
	RegisterClockSource(cs *ClockSource, hz uint64) error
	RegisterSchedClock(read func() uint64, bits uint, hz uint64)
}

// EventFramework is the tick core a clock event registers with. It is
// expected to install a handler with SetEventHandler.
type EventFramework interface {
	RegisterClockEvent(ce *ClockEvent, hz uint64, minDelta, maxDelta uint64) error
}

type Framework interface {
	SourceFramework
	EventFramework
}

// Registry owns the single clock source slot and the single clock event slot.
type Registry struct {
	cfg    Config
	source atomic.Pointer[ClockSource]
	event  atomic.Pointer[ClockEvent]
	tokens atomic.Uint64
}

func NewRegistry(cfg Config) *Registry {
	if cfg.Logger == nil {
		cfg.Logger = peripheral.Discard
	}
	if cfg.TickHz == 0 {
		cfg.TickHz = DefaultTickHz
	}
	if cfg.SourceMaxRate == 0 {
		cfg.SourceMaxRate = DefaultMaxRate
	}
	if cfg.EventMaxRate == 0 {
		cfg.EventMaxRate = DefaultMaxRate
	}
	if cfg.Layout == (chip.Layout{}) {
		cfg.Layout = chip.DefaultLayout
	}
	return &Registry{cfg: cfg}
}

func (r *Registry) Config() Config { return r.cfg }

// ClockSource returns the bound clock source, if any.
func (r *Registry) ClockSource() *ClockSource { return r.source.Load() }

// ClockEvent returns the bound clock event, if any.
func (r *Registry) ClockEvent() *ClockEvent { return r.event.Load() }

// HandleIRQ is the interrupt entry point. It only claims the interrupt when
// token belongs to the bound clock event and the period-match flag is set.
func (r *Registry) HandleIRQ(token peripheral.Token) peripheral.IRQResult {
	ce := r.event.Load()
	if ce == nil || ce.token != token {
		return peripheral.IRQNone
	}
	return ce.interrupt()
}

func (r *Registry) nextToken() peripheral.Token {
	return peripheral.Token(r.tokens.Add(1))
}
