package scan

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrStalled is returned by Wait when ticks stop arriving.
var ErrStalled = errors.New("scan: tick source stalled")

// Clock counts scan ticks and lets one foreground goroutine block on them.
type Clock struct {
	ticksPerMS uint64
	stall      time.Duration

	now    atomic.Uint64
	notify chan struct{}
}

// NewClock returns a clock advanced ticksPerMS times per millisecond. A
// positive stall makes Wait fail with ErrStalled once no tick has arrived
// for that long.
func NewClock(ticksPerMS int, stall time.Duration) *Clock {
	if ticksPerMS <= 0 {
		ticksPerMS = 1
	}
	return &Clock{
		ticksPerMS: uint64(ticksPerMS),
		stall:      stall,
		notify:     make(chan struct{}, 1),
	}
}

// Advance records one tick. It never blocks.
func (c *Clock) Advance() {
	c.now.Add(1)
	select {
	case c.notify <- struct{}{}:
	default:
	}
}

func (c *Clock) Now() uint64 {
	return c.now.Load()
}

func (c *Clock) TicksPerMS() int {
	return int(c.ticksPerMS)
}

// Ticks converts a duration to a tick count, rounding down but never below
// one tick for a positive duration.
func (c *Clock) Ticks(d time.Duration) uint64 {
	if d <= 0 {
		return 0
	}
	n := uint64(d) * c.ticksPerMS / uint64(time.Millisecond)
	if n == 0 {
		n = 1
	}
	return n
}

// Wait blocks until d worth of ticks have elapsed. Only one goroutine may
// wait at a time.
func (c *Clock) Wait(ctx context.Context, d time.Duration) error {
	target := c.Now() + c.Ticks(d)

	var stall <-chan time.Time
	var timer *time.Timer
	var deadline time.Time
	if c.stall > 0 {
		deadline = time.Now().Add(c.stall)
		timer = time.NewTimer(c.stall)
		defer timer.Stop()
		stall = timer.C
	}

	for c.Now() < target {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stall:
			// the deadline moves with every tick; the timer only checks it
			if left := time.Until(deadline); left > 0 {
				timer.Reset(left)
				continue
			}
			return ErrStalled
		case <-c.notify:
			if timer != nil {
				deadline = time.Now().Add(c.stall)
			}
		}
	}
	return nil
}

// WaitMS is Wait with a millisecond count.
func (c *Clock) WaitMS(ctx context.Context, ms int) error {
	return c.Wait(ctx, time.Duration(ms)*time.Millisecond)
}
