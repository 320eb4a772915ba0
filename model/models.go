package model

import (
	"fmt"
	"image"
	"sync/atomic"
)

const (
	LedCount     = 13
	RowCount     = 4
	ColumnCount  = 12
	ChannelCount = RowCount * ColumnCount
)

// Topology maps a logical LED to the buffer indices of its red, green and
// blue channels. Buffer index = row*ColumnCount + column.
type Topology [LedCount][3]uint8

// TreeTopology is the wiring of the tree, top light first, then three levels
// of four lights (front-right, front-left, back-left, back-right).
var TreeTopology = Topology{
	{4, 6, 5}, // top

	{39, 42, 40},
	{37, 47, 38},
	{41, 46, 43},
	{36, 45, 44},

	{25, 24, 31},
	{33, 27, 32},
	{26, 28, 30},
	{35, 34, 29},

	{17, 16, 18},
	{14, 21, 23},
	{22, 13, 12},
	{20, 19, 15},
}

const (
	red = iota
	green
	blue
)

// Lights is the channel brightness buffer shared between the scan loop and
// the animation controller.
//
// Every channel lives in its own atomic word: a single channel read or write
// never tears, but SetLED writes three channels one after the other and a
// concurrent row scan may observe a partially updated light.
type Lights struct {
	topo     *Topology
	channels [ChannelCount]atomic.Uint32
}

func NewLights() *Lights {
	return NewLightsWithTopology(&TreeTopology)
}

func NewLightsWithTopology(t *Topology) *Lights {
	for i, tri := range t {
		for _, idx := range tri {
			if int(idx) >= ChannelCount {
				panic(fmt.Sprintf("model: topology entry %d refers to channel %d", i, idx))
			}
		}
	}
	return &Lights{topo: t}
}

func (l *Lights) Topology() *Topology {
	return l.topo
}

// ValidIndex reports whether i names a logical LED.
func ValidIndex(i int) bool {
	return i >= 0 && i < LedCount
}

func (l *Lights) slot(i, c int) *atomic.Uint32 {
	if !ValidIndex(i) {
		panic(fmt.Sprintf("model: led index %d out of range [0,%d)", i, LedCount))
	}
	return &l.channels[l.topo[i][c]]
}

func (l *Lights) SetLED(i int, r, g, b uint8) {
	l.slot(i, red).Store(uint32(r))
	l.slot(i, green).Store(uint32(g))
	l.slot(i, blue).Store(uint32(b))
}

func (l *Lights) SetColor(i int, c ColorVal) {
	l.SetLED(i, c.GetR(), c.GetG(), c.GetB())
}

func (l *Lights) SetRed(i int, v uint8)   { l.slot(i, red).Store(uint32(v)) }
func (l *Lights) SetGreen(i int, v uint8) { l.slot(i, green).Store(uint32(v)) }
func (l *Lights) SetBlue(i int, v uint8)  { l.slot(i, blue).Store(uint32(v)) }

func (l *Lights) Red(i int) uint8   { return uint8(l.slot(i, red).Load()) }
func (l *Lights) Green(i int) uint8 { return uint8(l.slot(i, green).Load()) }
func (l *Lights) Blue(i int) uint8  { return uint8(l.slot(i, blue).Load()) }

func (l *Lights) LED(i int) ColorVal {
	return RGB(l.Red(i), l.Green(i), l.Blue(i))
}

// Channel returns the raw value at buffer index idx.
func (l *Lights) Channel(idx int) uint8 {
	return uint8(l.channels[idx].Load())
}

// Row copies the ColumnCount channel values of row into dst. It does not
// allocate, so it is safe to call from the scan loop.
func (l *Lights) Row(row int, dst *[ColumnCount]uint8) {
	base := row * ColumnCount
	for c := range dst {
		dst[c] = uint8(l.channels[base+c].Load())
	}
}

func (l *Lights) Clear() {
	for i := range l.channels {
		l.channels[i].Store(0)
	}
}

// Image renders the logical LEDs as a LedCount x 1 strip.
func (l *Lights) Image() *image.NRGBA {
	im := image.NewNRGBA(image.Rect(0, 0, LedCount, 1))
	for x := 0; x < LedCount; x++ {
		c := l.LED(x)
		im.SetNRGBA(x, 0, c.ToNRGBA())
	}
	return im
}
