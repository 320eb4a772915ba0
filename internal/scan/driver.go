// Package scan multiplexes the light buffer onto the 4x12 matrix.
//
// Driver.Tick is the interrupt context: it is called at a fixed rate by Looper
// and must never block, allocate or fail.
package scan

import (
	"sync/atomic"

	"github.com/coreman2200/funtimes-treelights/model"
)

const (
	// DefaultBlankTicks is the blanking counter reload value. A row stays
	// selected for DefaultBlankTicks+1 ticks; its compare channels are zeroed
	// on the last of them.
	DefaultBlankTicks = 4

	// AllRowsOff releases every source line. Lines are active low.
	AllRowsOff uint8 = 0x0F
)

// Channels is the bank of PWM compare outputs, one per matrix column.
type Channels interface {
	Start() error
	SetCompare(ch int, v uint8) error
}

// Source drives the four row-select lines. Bit n of mask is the level of
// row line n; a row is asserted when its bit is low.
type Source interface {
	SetSource(mask uint8) error
}

// RowMask is the source pattern that asserts only row.
func RowMask(row int) uint8 {
	return ^(uint8(1) << uint(row)) & AllRowsOff
}

// AssertedRows counts the rows a source mask selects.
func AssertedRows(mask uint8) int {
	n := 0
	for r := 0; r < model.RowCount; r++ {
		if mask&(1<<uint(r)) == 0 {
			n++
		}
	}
	return n
}

type Driver struct {
	lights *model.Lights
	chans  Channels
	src    Source
	clock  *Clock

	blankReload uint8
	blank       uint8
	row         int
	values      [model.ColumnCount]uint8

	faults atomic.Uint32
	rows   atomic.Uint64
}

func NewDriver(l *model.Lights, ch Channels, src Source, clk *Clock, blankTicks int) *Driver {
	if blankTicks <= 0 || blankTicks > 255 {
		blankTicks = DefaultBlankTicks
	}
	return &Driver{
		lights:      l,
		chans:       ch,
		src:         src,
		clock:       clk,
		blankReload: uint8(blankTicks),
	}
}

// Start starts the compare channels and releases all rows. It must be called
// once before the first Tick.
func (d *Driver) Start() error {
	if err := d.chans.Start(); err != nil {
		return err
	}
	return d.src.SetSource(AllRowsOff)
}

func (d *Driver) Tick() {
	if d.clock != nil {
		d.clock.Advance()
	}

	if d.blank > 0 {
		d.blank--
		if d.blank == 0 {
			for ch := 0; ch < model.ColumnCount; ch++ {
				d.fault(d.chans.SetCompare(ch, 0))
			}
		}
		return
	}

	d.blank = d.blankReload

	d.fault(d.src.SetSource(AllRowsOff))
	d.lights.Row(d.row, &d.values)
	for ch, v := range d.values {
		d.fault(d.chans.SetCompare(ch, v))
	}
	d.fault(d.src.SetSource(RowMask(d.row)))

	d.rows.Add(1)
	d.row++
	if d.row >= model.RowCount {
		d.row = 0
	}
}

func (d *Driver) fault(err error) {
	if err != nil {
		d.faults.Add(1)
	}
}

// Row is the row the next activation will select. Only meaningful from the
// goroutine calling Tick.
func (d *Driver) Row() int {
	return d.row
}

// Faults is the number of hardware writes that returned an error.
func (d *Driver) Faults() uint32 {
	return d.faults.Load()
}

// Activations is the number of row activations performed so far.
func (d *Driver) Activations() uint64 {
	return d.rows.Load()
}

// Stop releases all rows and darkens every channel.
func (d *Driver) Stop() error {
	if err := d.src.SetSource(AllRowsOff); err != nil {
		return err
	}
	for ch := 0; ch < model.ColumnCount; ch++ {
		if err := d.chans.SetCompare(ch, 0); err != nil {
			return err
		}
	}
	return nil
}
