package animation

import (
	"fmt"

	"github.com/coreman2200/funtimes-treelights/model"
)

// FadeState is the chase state of one light.
type FadeState uint8

const (
	Idle        FadeState = iota
	BlueToRed             // fade out blue, fade in red
	RedToGreen            // fade out red, fade in green
	GreenToBlue           // fade out green, fade in blue
)

func (s FadeState) String() string {
	switch s {
	case Idle:
		return "idle"
	case BlueToRed:
		return "blue->red"
	case RedToGreen:
		return "red->green"
	case GreenToBlue:
		return "green->blue"
	default:
		return "invalid"
	}
}

// StartChase resets every light to Idle and seeds light 0, black.
func (c *Controller) StartChase() {
	for i := range c.states {
		c.states[i] = Idle
	}
	c.states[0] = BlueToRed
	c.lights.SetLED(0, 0, 0, 0)
}

// StepLED advances light i by one fade step. The fading out channel stops at
// 0 and the fading in channel stops at 255; reaching 255 moves the light to
// its next state instead of incrementing. Leaving BlueToRed seeds the next
// light when it is still idle.
func (c *Controller) StepLED(i int) {
	if !model.ValidIndex(i) {
		panic(fmt.Sprintf("animation: led index %d out of range [0,%d)", i, model.LedCount))
	}
	switch c.states[i] {
	case BlueToRed:
		if b := c.lights.Blue(i); b > 0 {
			c.lights.SetBlue(i, b-1)
		}
		if r := c.lights.Red(i); r == 255 {
			c.states[i] = RedToGreen
			if i < model.LedCount-1 && c.states[i+1] == Idle {
				c.states[i+1] = BlueToRed
				c.lights.SetLED(i+1, 0, 0, 0)
			}
		} else {
			c.lights.SetRed(i, r+1)
		}
	case RedToGreen:
		if r := c.lights.Red(i); r > 0 {
			c.lights.SetRed(i, r-1)
		}
		if g := c.lights.Green(i); g == 255 {
			c.states[i] = GreenToBlue
		} else {
			c.lights.SetGreen(i, g+1)
		}
	case GreenToBlue:
		if g := c.lights.Green(i); g > 0 {
			c.lights.SetGreen(i, g-1)
		}
		if b := c.lights.Blue(i); b == 255 {
			c.states[i] = BlueToRed
		} else {
			c.lights.SetBlue(i, b+1)
		}
	}
}

// Pass steps every light once, in topology order. A light seeded during the
// pass is stepped in the same pass.
func (c *Controller) Pass() {
	for i := 0; i < model.LedCount; i++ {
		c.StepLED(i)
	}
}

func (c *Controller) State(i int) FadeState {
	return c.states[i]
}

func (c *Controller) States() [model.LedCount]FadeState {
	return c.states
}
