// Package animation runs the tree's light show: a colour wash followed by a
// fade chase that ripples down the tree.
package animation

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-treelights/model"
)

// Lights is the part of the light buffer the controller writes.
type Lights interface {
	SetLED(i int, r, g, b uint8)
	SetRed(i int, v uint8)
	SetGreen(i int, v uint8)
	SetBlue(i int, v uint8)
	Red(i int) uint8
	Green(i int) uint8
	Blue(i int) uint8
}

// Waiter blocks for a duration measured by the scan clock.
type Waiter interface {
	Wait(ctx context.Context, d time.Duration) error
}

type Phase string

const (
	Stopped  Phase = "stopped"
	Testing  Phase = "self_test"
	Washing  Phase = "wash"
	Chasing  Phase = "chase"
	Finished Phase = "finished"
)

type Options struct {
	WashRepeats int
	WashHold    time.Duration
	ChasePasses int
	ChaseStep   time.Duration
	SelfTest    bool
	TestHold    time.Duration
	Cycles      int // wash+chase rounds; 0 runs until cancelled
}

func DefaultOptions() Options {
	return Options{
		WashRepeats: 5,
		WashHold:    200 * time.Millisecond,
		ChasePasses: 10000,
		ChaseStep:   2 * time.Millisecond,
		TestHold:    250 * time.Millisecond,
	}
}

// washColors is the order each wash repeat paints the tree in.
var washColors = [...]model.ColorVal{model.Blue, model.Green, model.Red}

type Controller struct {
	lights Lights
	wait   Waiter
	opts   Options
	phase  Phase
	states [model.LedCount]FadeState
}

func NewController(l Lights, w Waiter, opts Options) *Controller {
	return &Controller{lights: l, wait: w, opts: opts, phase: Stopped}
}

func (c *Controller) Phase() Phase {
	return c.phase
}

func (c *Controller) setPhase(p Phase) {
	c.phase = p
	log.Info().Str("phase", string(p)).Msg("animation phase")
}

// Wash paints every light blue, then green, then red, one light at a time
// with a hold after each, WashRepeats times. The tree ends all red.
func (c *Controller) Wash(ctx context.Context) error {
	c.setPhase(Washing)
	for rep := 0; rep < c.opts.WashRepeats; rep++ {
		for _, col := range washColors {
			for i := 0; i < model.LedCount; i++ {
				c.lights.SetLED(i, col.GetR(), col.GetG(), col.GetB())
				if err := c.wait.Wait(ctx, c.opts.WashHold); err != nil {
					return err
				}
			}
		}
		log.Debug().Int("repeat", rep+1).Msg("wash done")
	}
	return nil
}

// Chase seeds light 0 and runs ChasePasses passes with a ChaseStep pause
// after each.
func (c *Controller) Chase(ctx context.Context) error {
	c.setPhase(Chasing)
	c.StartChase()
	for pass := 0; pass < c.opts.ChasePasses; pass++ {
		c.Pass()
		if err := c.wait.Wait(ctx, c.opts.ChaseStep); err != nil {
			return err
		}
	}
	log.Debug().Interface("states", c.states).Msg("chase done")
	return nil
}

// Run plays wash then chase, over and over, until ctx is cancelled or Cycles
// rounds are done. Cancellation is not an error; the lights keep whatever
// values they last had.
func (c *Controller) Run(ctx context.Context) error {
	err := c.run(ctx)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		log.Info().Str("phase", string(c.phase)).Msg("animation cancelled")
		return nil
	}
	if err != nil {
		log.Error().Err(err).Str("phase", string(c.phase)).Msg("animation failed")
		return err
	}
	c.setPhase(Finished)
	return nil
}

func (c *Controller) run(ctx context.Context) error {
	if c.opts.SelfTest {
		if err := c.SelfTest(ctx); err != nil {
			return err
		}
	}
	for round := 1; c.opts.Cycles == 0 || round <= c.opts.Cycles; round++ {
		if err := c.Wash(ctx); err != nil {
			return err
		}
		if err := c.Chase(ctx); err != nil {
			return err
		}
		log.Debug().Int("round", round).Msg("show round done")
	}
	return nil
}
