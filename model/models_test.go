package model_test

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/coreman2200/funtimes-treelights/model"
)

var TestRGBIsExpectedColor = []struct {
	R      uint8
	G      uint8
	B      uint8
	Expect uint32
}{
	{0x11, 0x22, 0x33, 0x112233},
	{0x44, 0x2A, 0x34, 0x442A34},
	{0x88, 0x3B, 0x35, 0x883B35},
	{0xFF, 0x00, 0xFF, 0xFF00FF},
}

func TestColorsRGB(t *testing.T) {
	for k, v := range TestRGBIsExpectedColor {
		t.Run("Given RGB"+strconv.Itoa(k), func(t *testing.T) {
			col := RGB(v.R, v.G, v.B)
			assert.Equal(t, v.Expect, col.Color(), "should be same val")
			assert.Equal(t, v.R, col.GetR())
			assert.Equal(t, v.G, col.GetG())
			assert.Equal(t, v.B, col.GetB())
		})
	}
}

func TestColorScale(t *testing.T) {
	assert.Equal(t, RGB(128, 0, 0), Red.Scale(128))
	assert.Equal(t, Black, White.Scale(0))
	assert.Equal(t, White, White.Scale(255))
}

func TestTopologyCoversDistinctChannels(t *testing.T) {
	seen := map[uint8]int{}
	for i, tri := range TreeTopology {
		for _, idx := range tri {
			require.Less(t, int(idx), ChannelCount)
			prev, dup := seen[idx]
			assert.False(t, dup, "channel %d used by led %d and %d", idx, prev, i)
			seen[idx] = i
		}
	}
	assert.Len(t, seen, LedCount*3)
}

func TestAccessorRoundTrip(t *testing.T) {
	l := NewLights()
	for i := 0; i < LedCount; i++ {
		for _, v := range []uint8{0, 1, 127, 254, 255} {
			l.SetRed(i, v)
			assert.Equal(t, v, l.Red(i), "red led %d", i)
			l.SetGreen(i, v)
			assert.Equal(t, v, l.Green(i), "green led %d", i)
			l.SetBlue(i, v)
			assert.Equal(t, v, l.Blue(i), "blue led %d", i)
		}
	}
}

func TestSetLEDWritesTopologyChannels(t *testing.T) {
	l := NewLights()
	l.SetLED(11, 10, 20, 30)

	tri := TreeTopology[11]
	assert.Equal(t, uint8(10), l.Channel(int(tri[0])))
	assert.Equal(t, uint8(20), l.Channel(int(tri[1])))
	assert.Equal(t, uint8(30), l.Channel(int(tri[2])))
	assert.Equal(t, RGB(10, 20, 30), l.LED(11))

	for idx := 0; idx < ChannelCount; idx++ {
		if idx == int(tri[0]) || idx == int(tri[1]) || idx == int(tri[2]) {
			continue
		}
		assert.Zero(t, l.Channel(idx), "channel %d", idx)
	}
}

func TestRowReadsContiguousBlock(t *testing.T) {
	l := NewLights()
	// led 0 sits on row 0 (channels 4,6,5), led 1 on row 3.
	l.SetLED(0, 1, 2, 3)
	l.SetLED(1, 7, 8, 9)

	var row [ColumnCount]uint8
	l.Row(0, &row)
	assert.Equal(t, [ColumnCount]uint8{0, 0, 0, 0, 1, 3, 2, 0, 0, 0, 0, 0}, row)

	l.Row(3, &row)
	assert.Equal(t, uint8(7), row[39-36])
	assert.Equal(t, uint8(8), row[42-36])
	assert.Equal(t, uint8(9), row[40-36])
}

func TestOutOfRangeIndexPanics(t *testing.T) {
	l := NewLights()
	for _, i := range []int{-1, LedCount, 255} {
		assert.Panics(t, func() { l.SetLED(i, 1, 1, 1) }, "SetLED(%d)", i)
		assert.Panics(t, func() { l.SetRed(i, 1) }, "SetRed(%d)", i)
		assert.Panics(t, func() { _ = l.Green(i) }, "Green(%d)", i)
		assert.Panics(t, func() { _ = l.Blue(i) }, "Blue(%d)", i)
	}
	assert.False(t, ValidIndex(LedCount))
	assert.True(t, ValidIndex(0))
}

func TestBadTopologyPanics(t *testing.T) {
	bad := TreeTopology
	bad[3][1] = ChannelCount
	assert.Panics(t, func() { NewLightsWithTopology(&bad) })
}

func TestImageAndClear(t *testing.T) {
	l := NewLights()
	l.SetColor(12, Red)
	im := l.Image()
	require.Equal(t, LedCount, im.Bounds().Dx())
	assert.Equal(t, Red.ToNRGBA(), im.NRGBAAt(12, 0))

	l.Clear()
	for i := 0; i < LedCount; i++ {
		assert.Equal(t, Black, l.LED(i))
	}
}
