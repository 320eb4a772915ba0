package led

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/funtimes-treelights/internal/scan"
	"github.com/coreman2200/funtimes-treelights/model"
)

const DFLT_PWM_FREQ = 20 * physic.KiloHertz

// Duty scales an 8 bit channel value to a periph duty cycle.
func Duty(v uint8) gpio.Duty {
	return gpio.Duty(uint64(v) * uint64(gpio.DutyMax) / 255)
}

// PinChannels drives each matrix column from a hardware PWM capable pin.
type PinChannels struct {
	pins [model.ColumnCount]gpio.PinOut
	freq physic.Frequency
}

var _ scan.Channels = (*PinChannels)(nil)

func NewPinChannels(pins []gpio.PinOut, freq physic.Frequency) (*PinChannels, error) {
	if len(pins) != model.ColumnCount {
		return nil, fmt.Errorf("led: need %d compare pins, got %d", model.ColumnCount, len(pins))
	}
	if freq <= 0 {
		freq = DFLT_PWM_FREQ
	}
	p := &PinChannels{freq: freq}
	for i, pin := range pins {
		if pin == nil {
			return nil, fmt.Errorf("led: compare pin %d is nil", i)
		}
		p.pins[i] = pin
	}
	return p, nil
}

func (p *PinChannels) Start() error {
	for i, pin := range p.pins {
		if err := pin.PWM(0, p.freq); err != nil {
			return fmt.Errorf("led: start %s (channel %d): %w", pin, i, err)
		}
	}
	return nil
}

func (p *PinChannels) SetCompare(ch int, v uint8) error {
	return p.pins[ch].PWM(Duty(v), p.freq)
}

// PinSource drives the row-select lines. Lines are active low.
type PinSource struct {
	rows [model.RowCount]gpio.PinOut
}

var _ scan.Source = (*PinSource)(nil)

func NewPinSource(rows []gpio.PinOut) (*PinSource, error) {
	if len(rows) != model.RowCount {
		return nil, fmt.Errorf("led: need %d row pins, got %d", model.RowCount, len(rows))
	}
	s := &PinSource{}
	for i, pin := range rows {
		if pin == nil {
			return nil, fmt.Errorf("led: row pin %d is nil", i)
		}
		s.rows[i] = pin
	}
	return s, nil
}

func (s *PinSource) SetSource(mask uint8) error {
	for r, pin := range s.rows {
		if err := pin.Out(gpio.Level(mask&(1<<uint(r)) != 0)); err != nil {
			return err
		}
	}
	return nil
}

// LookupPins resolves pin names through the periph registry. host.Init must
// have run.
func LookupPins(names []string) ([]gpio.PinOut, error) {
	out := make([]gpio.PinOut, len(names))
	for i, n := range names {
		p := gpioreg.ByName(n)
		if p == nil {
			return nil, fmt.Errorf("led: no gpio pin named %q", n)
		}
		out[i] = p
	}
	return out, nil
}

// OpenPins builds a column bank and a row source on host GPIO pins.
func OpenPins(compare, rows []string, freq physic.Frequency) (*PinChannels, *PinSource, error) {
	cp, err := LookupPins(compare)
	if err != nil {
		return nil, nil, err
	}
	rp, err := LookupPins(rows)
	if err != nil {
		return nil, nil, err
	}
	ch, err := NewPinChannels(cp, freq)
	if err != nil {
		return nil, nil, err
	}
	src, err := NewPinSource(rp)
	if err != nil {
		return nil, nil, err
	}
	return ch, src, nil
}
