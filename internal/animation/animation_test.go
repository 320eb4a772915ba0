package animation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/funtimes-treelights/internal/led"
	"github.com/coreman2200/funtimes-treelights/internal/scan"
	"github.com/coreman2200/funtimes-treelights/model"
)

type fakeWaiter struct {
	calls  int
	total  time.Duration
	failAt int // 1-based call that returns err; 0 never fails
	err    error
	onWait func()
}

func (w *fakeWaiter) Wait(_ context.Context, d time.Duration) error {
	w.calls++
	w.total += d
	if w.onWait != nil {
		w.onWait()
	}
	if w.failAt > 0 && w.calls == w.failAt {
		return w.err
	}
	return nil
}

type countingLights struct {
	*model.Lights
	setLED int
}

func (c *countingLights) SetLED(i int, r, g, b uint8) {
	c.setLED++
	c.Lights.SetLED(i, r, g, b)
}

func rgb(l *model.Lights, i int) [3]uint8 {
	return [3]uint8{l.Red(i), l.Green(i), l.Blue(i)}
}

func TestWashPaintsTreeRed(t *testing.T) {
	l := &countingLights{Lights: model.NewLights()}
	w := &fakeWaiter{}
	c := NewController(l, w, DefaultOptions())

	require.NoError(t, c.Wash(context.Background()))
	assert.Equal(t, 195, l.setLED)
	assert.Equal(t, 195, w.calls)
	assert.Equal(t, 195*200*time.Millisecond, w.total)
	for i := 0; i < model.LedCount; i++ {
		assert.Equal(t, [3]uint8{255, 0, 0}, rgb(l.Lights, i), "led %d", i)
	}
}

func TestWashOrder(t *testing.T) {
	l := model.NewLights()
	w := &fakeWaiter{}
	var seen [][3]uint8
	w.onWait = func() {
		if len(seen) < 2*model.LedCount {
			seen = append(seen, rgb(l, len(seen)%model.LedCount))
		}
	}
	opts := DefaultOptions()
	opts.WashRepeats = 1
	c := NewController(l, w, opts)
	require.NoError(t, c.Wash(context.Background()))

	for i := 0; i < model.LedCount; i++ {
		assert.Equal(t, [3]uint8{0, 0, 255}, seen[i])
		assert.Equal(t, [3]uint8{0, 255, 0}, seen[model.LedCount+i])
	}
}

func TestStartChaseSeedsFirstLight(t *testing.T) {
	l := model.NewLights()
	for i := 0; i < model.LedCount; i++ {
		l.SetLED(i, 255, 0, 0)
	}
	c := NewController(l, &fakeWaiter{}, DefaultOptions())
	c.StartChase()

	assert.Equal(t, [3]uint8{}, rgb(l, 0))
	assert.Equal(t, [3]uint8{255, 0, 0}, rgb(l, 1))
	states := c.States()
	assert.Equal(t, BlueToRed, states[0])
	for i := 1; i < model.LedCount; i++ {
		assert.Equal(t, Idle, states[i])
	}
}

func TestFadeClampsAtZero(t *testing.T) {
	l := model.NewLights()
	c := NewController(l, &fakeWaiter{}, DefaultOptions())
	c.StartChase()
	l.SetBlue(0, 3)

	var blues, reds []uint8
	for i := 0; i < 5; i++ {
		c.StepLED(0)
		blues = append(blues, l.Blue(0))
		reds = append(reds, l.Red(0))
	}
	assert.Equal(t, []uint8{2, 1, 0, 0, 0}, blues)
	assert.Equal(t, []uint8{1, 2, 3, 4, 5}, reds)
}

func TestChasePropagatesOnRedWrap(t *testing.T) {
	l := model.NewLights()
	for i := 1; i < model.LedCount; i++ {
		l.SetLED(i, 255, 0, 0)
	}
	c := NewController(l, &fakeWaiter{}, DefaultOptions())
	c.StartChase()

	for i := 0; i < 255; i++ {
		c.StepLED(0)
	}
	assert.Equal(t, [3]uint8{255, 0, 0}, rgb(l, 0))
	assert.Equal(t, Idle, c.State(1))

	c.StepLED(0)
	assert.Equal(t, RedToGreen, c.State(0))
	assert.Equal(t, BlueToRed, c.State(1))
	assert.Equal(t, [3]uint8{0, 0, 0}, rgb(l, 1))
	for i := 2; i < model.LedCount; i++ {
		assert.Equal(t, Idle, c.State(i), "led %d", i)
		assert.Equal(t, [3]uint8{255, 0, 0}, rgb(l, i), "led %d", i)
	}
}

func TestSeededLightStepsInSamePass(t *testing.T) {
	l := model.NewLights()
	c := NewController(l, &fakeWaiter{}, DefaultOptions())
	c.StartChase()

	for i := 0; i < 256; i++ {
		c.Pass()
	}
	assert.Equal(t, RedToGreen, c.State(0))
	assert.Equal(t, BlueToRed, c.State(1))
	assert.Equal(t, uint8(1), l.Red(1))
	assert.Equal(t, Idle, c.State(2))
}

func TestFadeCycle(t *testing.T) {
	l := model.NewLights()
	c := NewController(l, &fakeWaiter{}, DefaultOptions())
	c.StartChase()

	var transitions []FadeState
	prev := c.State(0)
	for i := 0; i < 3*768; i++ {
		c.StepLED(0)
		s := c.State(0)
		require.NotEqual(t, Idle, s)
		if s != prev {
			transitions = append(transitions, s)
			prev = s
		}
	}
	assert.Equal(t, []FadeState{
		RedToGreen, GreenToBlue, BlueToRed,
		RedToGreen, GreenToBlue, BlueToRed,
		RedToGreen, GreenToBlue, BlueToRed,
	}, transitions)
	assert.Equal(t, [3]uint8{0, 0, 255}, rgb(l, 0))
}

func TestLastLightDoesNotSeed(t *testing.T) {
	l := model.NewLights()
	c := NewController(l, &fakeWaiter{}, DefaultOptions())
	c.states[model.LedCount-1] = BlueToRed
	l.SetRed(model.LedCount-1, 255)

	assert.NotPanics(t, func() { c.StepLED(model.LedCount - 1) })
	assert.Equal(t, RedToGreen, c.State(model.LedCount-1))
}

func TestStepLEDOutOfRange(t *testing.T) {
	c := NewController(model.NewLights(), &fakeWaiter{}, DefaultOptions())
	assert.Panics(t, func() { c.StepLED(13) })
	assert.Panics(t, func() { c.StepLED(-1) })
}

func TestChase(t *testing.T) {
	l := model.NewLights()
	w := &fakeWaiter{}
	opts := DefaultOptions()
	opts.ChasePasses = 300
	c := NewController(l, w, opts)

	require.NoError(t, c.Chase(context.Background()))
	assert.Equal(t, 300, w.calls)
	assert.Equal(t, 600*time.Millisecond, w.total)
	assert.Equal(t, [3]uint8{211, 44, 0}, rgb(l, 0))
	assert.Equal(t, [3]uint8{45, 0, 0}, rgb(l, 1))
	assert.Equal(t, Chasing, c.Phase())
}

func TestRunCancelled(t *testing.T) {
	l := model.NewLights()
	w := &fakeWaiter{failAt: 20, err: context.Canceled}
	c := NewController(l, w, DefaultOptions())

	require.NoError(t, c.Run(context.Background()))
	assert.Equal(t, Washing, c.Phase())
	assert.Equal(t, 20, w.calls)
}

func TestRunLoopsUntilCancelled(t *testing.T) {
	opts := DefaultOptions()
	opts.ChasePasses = 5
	// third wash of the third round
	w := &fakeWaiter{failAt: 2*(195+5) + 3, err: context.Canceled}
	c := NewController(model.NewLights(), w, opts)

	require.NoError(t, c.Run(context.Background()))
	assert.Equal(t, Washing, c.Phase())
}

func TestRunSelfTestFirst(t *testing.T) {
	opts := DefaultOptions()
	opts.SelfTest = true
	opts.ChasePasses = 1
	opts.Cycles = 1
	w := &fakeWaiter{}
	c := NewController(model.NewLights(), w, opts)

	require.NoError(t, c.Run(context.Background()))
	assert.Equal(t, model.LedCount+3+195+1, w.calls)
	assert.Equal(t, opts.TestHold*time.Duration(model.LedCount+3)+195*opts.WashHold+opts.ChaseStep, w.total)
}

func TestRunStalled(t *testing.T) {
	w := &fakeWaiter{failAt: 1, err: scan.ErrStalled}
	c := NewController(model.NewLights(), w, DefaultOptions())
	assert.ErrorIs(t, c.Run(context.Background()), scan.ErrStalled)
}

func TestRunFinishes(t *testing.T) {
	opts := DefaultOptions()
	opts.ChasePasses = 10
	opts.Cycles = 2
	w := &fakeWaiter{}
	c := NewController(model.NewLights(), w, opts)

	require.NoError(t, c.Run(context.Background()))
	assert.Equal(t, Finished, c.Phase())
	assert.Equal(t, 2*(195+10), w.calls)
}

func TestSelfTest(t *testing.T) {
	l := model.NewLights()
	var frames [][model.LedCount]model.ColorVal
	w := &fakeWaiter{}
	w.onWait = func() {
		var f [model.LedCount]model.ColorVal
		for i := range f {
			f[i] = l.LED(i)
		}
		frames = append(frames, f)
	}
	c := NewController(l, w, DefaultOptions())

	require.NoError(t, c.SelfTest(context.Background()))
	require.Len(t, frames, model.LedCount+3)
	for step := 0; step < model.LedCount; step++ {
		for i, col := range frames[step] {
			if i == step {
				assert.Equal(t, model.White, col)
			} else {
				assert.Equal(t, model.Black, col)
			}
		}
	}
	for k, want := range []model.ColorVal{model.Red, model.Green, model.Blue} {
		for _, col := range frames[model.LedCount+k] {
			assert.Equal(t, want, col)
		}
	}
	for i := 0; i < model.LedCount; i++ {
		assert.Equal(t, model.Black, l.LED(i))
	}
}

func TestTestRunnerUnknownKind(t *testing.T) {
	r := NewTestRunner(NoTest)
	assert.False(t, r.Step(model.NewLights()))
}

func TestRunOnScanClock(t *testing.T) {
	l := model.NewLights()
	src := led.NewSimSource()
	clk := scan.NewClock(2, time.Second)
	lp := scan.NewLooper(scan.NewDriver(l, led.NewSimBank(), src, clk, 0), 2000)
	require.NoError(t, lp.Start(context.Background()))
	defer lp.Stop()

	opts := Options{WashRepeats: 1, WashHold: time.Millisecond, ChasePasses: 20, ChaseStep: time.Millisecond, Cycles: 1}
	c := NewController(l, clk, opts)
	require.NoError(t, c.Run(context.Background()))
	assert.Equal(t, Finished, c.Phase())
	assert.Equal(t, uint8(20), l.Red(0))
	assert.Zero(t, src.Violations())
}
