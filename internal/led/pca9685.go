package led

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/pca9685"

	"github.com/coreman2200/funtimes-treelights/internal/scan"
	"github.com/coreman2200/funtimes-treelights/model"
)

const pcaMaxCount = 4095

// PCA9685Channels drives the columns from the first 12 outputs of a PCA9685
// 16 channel PWM controller.
type PCA9685Channels struct {
	dev  *pca9685.Dev
	bus  i2c.BusCloser
	freq physic.Frequency
}

var _ scan.Channels = (*PCA9685Channels)(nil)

// OpenPCA9685 opens the named I2C bus ("" for the first one) and binds the
// controller at addr. host.Init must have run.
func OpenPCA9685(busName string, addr uint16, freq physic.Frequency) (*PCA9685Channels, error) {
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("led: open i2c %q: %w", busName, err)
	}
	if addr == 0 {
		addr = pca9685.I2CAddr
	}
	dev, err := pca9685.NewI2C(bus, addr)
	if err != nil {
		_ = bus.Close()
		return nil, fmt.Errorf("led: pca9685 at %#x: %w", addr, err)
	}
	if freq <= 0 {
		freq = 1500 * physic.Hertz
	}
	return &PCA9685Channels{dev: dev, bus: bus, freq: freq}, nil
}

func (p *PCA9685Channels) Start() error {
	if err := p.dev.SetPwmFreq(p.freq); err != nil {
		return fmt.Errorf("led: pca9685 frequency: %w", err)
	}
	return p.dev.SetAllPwm(0, 0)
}

func (p *PCA9685Channels) SetCompare(ch int, v uint8) error {
	if ch < 0 || ch >= model.ColumnCount {
		return fmt.Errorf("led: pca9685 channel %d out of range", ch)
	}
	return p.dev.SetPwm(ch, 0, gpio.Duty(uint32(v)*pcaMaxCount/255))
}

func (p *PCA9685Channels) Close() error {
	if p.bus == nil {
		return nil
	}
	_ = p.dev.SetAllPwm(0, 0)
	err := p.bus.Close()
	p.bus = nil
	return err
}
