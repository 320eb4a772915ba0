// Package led holds the hardware collaborators of the scan driver: the bank
// of PWM compare outputs feeding the matrix columns and the row-select
// source lines.
package led

import (
	"errors"
	"fmt"

	"github.com/coreman2200/funtimes-treelights/internal/scan"
	"github.com/coreman2200/funtimes-treelights/model"
)

// OutputCount is the number of output-driver peripherals on the board.
const OutputCount = 8

var ErrNotStarted = errors.New("led: output not started")

// Output abstracts one output-driver peripheral with one or two compare
// units.
type Output interface {
	Start() error
	SetCompare(unit int, v uint8) error
}

type channelRef struct {
	out  int
	unit int
}

// ChannelMap routes each matrix column to its output and compare unit. The
// first four outputs have two compare units, the last four one.
var ChannelMap = [model.ColumnCount]channelRef{
	{0, 0}, {0, 1},
	{1, 0}, {1, 1},
	{2, 0}, {2, 1},
	{3, 0}, {3, 1},
	{4, 0},
	{5, 0},
	{6, 0},
	{7, 0},
}

// Bank presents the outputs as the 12 compare channels the scan driver
// expects.
type Bank struct {
	outs [OutputCount]Output
}

var _ scan.Channels = (*Bank)(nil)

func NewBank(outs ...Output) (*Bank, error) {
	if len(outs) != OutputCount {
		return nil, fmt.Errorf("led: bank needs %d outputs, got %d", OutputCount, len(outs))
	}
	b := &Bank{}
	copy(b.outs[:], outs)
	return b, nil
}

// NewSimBank returns a bank of in-memory outputs.
func NewSimBank() *Bank {
	b := &Bank{}
	for i := range b.outs {
		units := 1
		if i < 4 {
			units = 2
		}
		b.outs[i] = &SimOutput{units: units}
	}
	return b
}

func (b *Bank) Start() error {
	for i, o := range b.outs {
		if err := o.Start(); err != nil {
			return fmt.Errorf("led: start output %d: %w", i+1, err)
		}
	}
	return nil
}

func (b *Bank) SetCompare(ch int, v uint8) error {
	ref := ChannelMap[ch]
	return b.outs[ref.out].SetCompare(ref.unit, v)
}

// Output returns the i'th output-driver peripheral.
func (b *Bank) Output(i int) Output {
	return b.outs[i]
}

// Compare reads back a channel value when the underlying output is
// simulated.
func (b *Bank) Compare(ch int) (uint8, bool) {
	ref := ChannelMap[ch]
	s, ok := b.outs[ref.out].(*SimOutput)
	if !ok {
		return 0, false
	}
	return s.Compare(ref.unit), true
}
