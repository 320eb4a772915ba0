package scan

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const DFLT_TICK_HZ = 2000

// Looper plays the timer interrupt: it calls Driver.Tick from its own
// goroutine at a fixed rate until stopped.
type Looper struct {
	drv    *Driver
	period time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewLooper(d *Driver, tickHz int) *Looper {
	if tickHz <= 0 {
		tickHz = DFLT_TICK_HZ
	}
	return &Looper{
		drv:    d,
		period: time.Second / time.Duration(tickHz),
	}
}

func (l *Looper) Period() time.Duration {
	return l.period
}

func (l *Looper) refresh(ctx context.Context) {
	defer l.wg.Done()

	ticker := time.NewTicker(l.period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.drv.Tick()
		case <-ctx.Done():
			return
		}
	}
}

// Start starts the hardware and begins ticking. Calling Start on a running
// Looper is a no-op.
func (l *Looper) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		return nil
	}
	if err := l.drv.Start(); err != nil {
		return err
	}

	ctx, l.cancel = context.WithCancel(ctx)
	l.wg.Add(1)
	go l.refresh(ctx)

	log.Info().Dur("period", l.period).Msg("scan loop started")
	return nil
}

// Stop halts ticking, waits for the loop goroutine and darkens the matrix.
func (l *Looper) Stop() error {
	l.mu.Lock()
	cancel := l.cancel
	l.cancel = nil
	l.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	l.wg.Wait()

	log.Info().
		Uint64("activations", l.drv.Activations()).
		Uint32("faults", l.drv.Faults()).
		Msg("scan loop stopped")
	return l.drv.Stop()
}
