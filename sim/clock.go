package sim

import (
	"context"
	"sync"
)

// Clock is a fixed-rate reference clock.
type Clock struct {
	rate uint64

	mu      sync.Mutex
	enabled int
	puts    int
	failErr error
}

func NewClock(rate uint64) *Clock {
	return &Clock{rate: rate}
}

func (c *Clock) Rate() uint64 { return c.rate }

func (c *Clock) Enable(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failErr != nil {
		return c.failErr
	}
	c.enabled++
	return nil
}

func (c *Clock) Disable() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.enabled > 0 {
		c.enabled--
	}
}

func (c *Clock) Put() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.puts++
}

// FailEnable makes every following Enable return err. A nil err clears it.
func (c *Clock) FailEnable(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failErr = err
}

// Enabled returns the enable count.
func (c *Clock) Enabled() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// Puts returns how many times the handle was given back.
func (c *Clock) Puts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.puts
}
