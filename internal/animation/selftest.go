package animation

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/coreman2200/funtimes-treelights/model"
)

type TestKind string

const (
	NoTest     TestKind = ""
	IndexSweep TestKind = "index_sweep"
	RGBTest    TestKind = "rgb_channels"
)

// TestRunner produces the frames of one wiring test.
type TestRunner struct {
	kind TestKind
	step int
}

func NewTestRunner(kind TestKind) *TestRunner { return &TestRunner{kind: kind} }

func (r *TestRunner) Kind() TestKind { return r.kind }

// Step paints the next frame; returns false when complete.
func (r *TestRunner) Step(l Lights) bool {
	var frame func(i int) model.ColorVal
	switch r.kind {
	case IndexSweep:
		if r.step >= model.LedCount {
			return false
		}
		lit := r.step
		frame = func(i int) model.ColorVal {
			if i == lit {
				return model.White
			}
			return model.Black
		}
	case RGBTest:
		if r.step >= 3 {
			return false
		}
		col := [3]model.ColorVal{model.Red, model.Green, model.Blue}[r.step]
		frame = func(int) model.ColorVal { return col }
	default:
		return false
	}
	for i := 0; i < model.LedCount; i++ {
		c := frame(i)
		l.SetLED(i, c.GetR(), c.GetG(), c.GetB())
	}
	r.step++
	return true
}

// SelfTest lights each LED white in turn, then the whole tree red, green and
// blue, holding each frame for TestHold. The tree is dark afterwards.
func (c *Controller) SelfTest(ctx context.Context) error {
	c.setPhase(Testing)
	for _, kind := range []TestKind{IndexSweep, RGBTest} {
		r := NewTestRunner(kind)
		for r.Step(c.lights) {
			if err := c.wait.Wait(ctx, c.opts.TestHold); err != nil {
				return err
			}
		}
		log.Debug().Str("test", string(kind)).Msg("self test done")
	}
	for i := 0; i < model.LedCount; i++ {
		c.lights.SetLED(i, 0, 0, 0)
	}
	return nil
}
