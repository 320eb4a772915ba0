package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("invalid config")

type Wash struct {
	Repeats int `yaml:"repeats"`
	HoldMs  int `yaml:"hold_ms"`
}

type Chase struct {
	Passes int `yaml:"passes"`
	StepMs int `yaml:"step_ms"`
}

// Pins names periph GPIO pins. Rows are used by both the pins and pca9685
// drivers unless row_source is cdev.
type Pins struct {
	Compare []string `yaml:"compare"` // 12 PWM capable pins, column order
	Rows    []string `yaml:"rows"`    // 4 row-select pins
	PWMHz   int      `yaml:"pwm_hz"`
}

type PCA9685 struct {
	Bus   string `yaml:"bus"`  // "" = first I2C bus
	Addr  uint16 `yaml:"addr"` // 0 = 0x40
	PWMHz int    `yaml:"pwm_hz"`
}

type Cdev struct {
	Chip string `yaml:"chip"` // e.g. gpiochip0
	Rows []int  `yaml:"rows"` // line offsets
}

type Mirror struct {
	Enabled       bool   `yaml:"enabled"`
	Kind          string `yaml:"kind"`    // "spi" | "screen"
	SPIDev        string `yaml:"spi_dev"` // "" = first SPI port
	FPS           int    `yaml:"fps"`
	MaxBrightness uint8  `yaml:"max_brightness"`
}

type Config struct {
	Driver         string `yaml:"driver"`               // "sim" | "pins" | "pca9685"
	RowSource      string `yaml:"row_source,omitempty"` // "" | "cdev"
	LogLevel       string `yaml:"log_level"`
	TickHz         int    `yaml:"tick_hz"`
	BlankTicks     int    `yaml:"blank_ticks"`
	StallTimeoutMs int    `yaml:"stall_timeout_ms"`
	SelfTest       bool   `yaml:"self_test"`
	Cycles         int    `yaml:"cycles"` // 0 = forever

	Wash  Wash  `yaml:"wash"`
	Chase Chase `yaml:"chase"`

	Pins    Pins    `yaml:"pins,omitempty"`
	PCA9685 PCA9685 `yaml:"pca9685,omitempty"`
	Cdev    Cdev    `yaml:"cdev,omitempty"`
	Mirror  Mirror  `yaml:"mirror,omitempty"`
}

// Defaults mirrors the original board: a 2kHz tick (2 ticks per ms), a 4 tick
// blanking counter, 5 washes of 200ms holds and a 10000 pass chase at 2ms.
func Defaults() *Config {
	return &Config{
		Driver:         "sim",
		LogLevel:       "info",
		TickHz:         2000,
		BlankTicks:     4,
		StallTimeoutMs: 1000,
		Wash:           Wash{Repeats: 5, HoldMs: 200},
		Chase:          Chase{Passes: 10000, StepMs: 2},
		Cdev:           Cdev{Chip: "gpiochip0"},
		Mirror:         Mirror{Kind: "screen", FPS: 20, MaxBrightness: 200},
	}
}

// TicksPerMS is the number of scan ticks per millisecond.
func (c *Config) TicksPerMS() int {
	return c.TickHz / 1000
}

func (c *Config) Validate() error {
	switch c.Driver {
	case "sim", "pins", "pca9685":
	default:
		return fmt.Errorf("%w: unknown driver %q", ErrInvalid, c.Driver)
	}
	switch c.RowSource {
	case "", "cdev":
	default:
		return fmt.Errorf("%w: unknown row_source %q", ErrInvalid, c.RowSource)
	}
	if c.TickHz < 1000 || c.TickHz%1000 != 0 {
		return fmt.Errorf("%w: tick_hz must be a positive multiple of 1000, got %d", ErrInvalid, c.TickHz)
	}
	if c.BlankTicks < 1 || c.BlankTicks > 255 {
		return fmt.Errorf("%w: blank_ticks %d out of range [1,255]", ErrInvalid, c.BlankTicks)
	}
	// 4 rows x (blank+1) ticks per full refresh; below 60Hz it flickers
	if refresh := c.TickHz / (4 * (c.BlankTicks + 1)); refresh < 60 {
		return fmt.Errorf("%w: full refresh %dHz is below 60Hz", ErrInvalid, refresh)
	}
	if c.Wash.Repeats < 0 || c.Wash.HoldMs < 0 || c.Chase.Passes < 0 || c.Chase.StepMs < 0 || c.Cycles < 0 {
		return fmt.Errorf("%w: negative phase timing", ErrInvalid)
	}
	if c.Driver == "pins" && len(c.Pins.Compare) != 12 {
		return fmt.Errorf("%w: pins driver needs 12 compare pins", ErrInvalid)
	}
	if c.Driver != "sim" {
		if c.RowSource == "cdev" && len(c.Cdev.Rows) != 4 {
			return fmt.Errorf("%w: cdev row source needs 4 line offsets", ErrInvalid)
		}
		if c.RowSource == "" && len(c.Pins.Rows) != 4 {
			return fmt.Errorf("%w: %s driver needs 4 row pins", ErrInvalid, c.Driver)
		}
	}
	if c.Mirror.Enabled && c.Mirror.Kind != "spi" && c.Mirror.Kind != "screen" {
		return fmt.Errorf("%w: unknown mirror kind %q", ErrInvalid, c.Mirror.Kind)
	}
	return nil
}

// Load reads path over the defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Defaults()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}
	return c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
