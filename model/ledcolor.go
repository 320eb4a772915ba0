package model

import (
	"fmt"
	"image/color"
)

const (
	RED_OFFSET   uint8 = 0x10
	GREEN_OFFSET uint8 = 0x08
	BLUE_OFFSET  uint8 = 0x0
)

// ColorVal is a packed 0x00RRGGBB light colour.
type ColorVal struct {
	val uint32
}

var (
	Black = RGB(0, 0, 0)
	Red   = RGB(255, 0, 0)
	Green = RGB(0, 255, 0)
	Blue  = RGB(0, 0, 255)
	White = RGB(255, 255, 255)
)

func NewColor(c uint32) ColorVal {
	return ColorVal{val: c & 0x00FFFFFF}
}

func RGB(r, g, b uint8) ColorVal {
	var c ColorVal
	c.SetR(r)
	c.SetG(g)
	c.SetB(b)
	return c
}

func (c ColorVal) Color() uint32 {
	return c.val
}

func (c ColorVal) ToRGBA() color.RGBA {
	return color.RGBA{c.GetR(), c.GetG(), c.GetB(), 255}
}

func (c ColorVal) ToNRGBA() color.NRGBA {
	return color.NRGBA{c.GetR(), c.GetG(), c.GetB(), 255}
}

// Scale returns the colour with every channel multiplied by max/255.
func (c ColorVal) Scale(max uint8) ColorVal {
	s := func(v uint8) uint8 { return uint8(uint16(v) * uint16(max) / 255) }
	return RGB(s(c.GetR()), s(c.GetG()), s(c.GetB()))
}

func (c ColorVal) String() string {
	return fmt.Sprintf("#%06x", c.val)
}

func setcolor(c uint32, n uint8, off uint8) uint32 {
	var val uint32 = uint32(n) << off
	var mask uint32 = 0xFF << off
	return (c & (^mask)) | val
}

func getcolor(c uint32, off uint8) uint8 {
	var mask uint32 = 0xFF << off
	return uint8((c & (mask)) >> off)
}

func (c *ColorVal) SetR(r uint8) {
	c.val = setcolor(c.val, r, RED_OFFSET)
}
func (c *ColorVal) SetG(g uint8) {
	c.val = setcolor(c.val, g, GREEN_OFFSET)
}
func (c *ColorVal) SetB(b uint8) {
	c.val = setcolor(c.val, b, BLUE_OFFSET)
}

func (c ColorVal) GetR() uint8 {
	return getcolor(c.val, RED_OFFSET)
}
func (c ColorVal) GetG() uint8 {
	return getcolor(c.val, GREEN_OFFSET)
}
func (c ColorVal) GetB() uint8 {
	return getcolor(c.val, BLUE_OFFSET)
}
