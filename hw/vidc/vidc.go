// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package vidc implements the video controller: the palette and
// timing register bank, and the pull-model framebuffer scan the
// teacher's television package models as a PixelRenderer being fed
// pixels, here inverted into a scan that produces a finished buffer on
// demand rather than one pixel at a time.
package vidc

import (
	"github.com/ZacGeurts/acornarc-AI/hw/bus/addresses"
	"github.com/ZacGeurts/acornarc-AI/internal/logger"
)

// Register word offsets from the VIDC base (spec.md §4.4).
const (
	offControl       = 0
	offPaletteBase    = 1
	offPaletteCount   = 255
	offBorderColour   = 256
	offCursorBase     = 257
	offCursorCount    = 3
	offHTimingBase    = 260
	offHTimingCount   = 7
	offVTimingBase    = 267
	offVTimingCount   = 7
	offSoundFrequency = 274
	offSoundControl   = 275
	offVideoBase      = 276
	offLatchC         = 277
)

// Horizontal/vertical timing register indices, relative to their base.
const (
	timCycle        = 0
	timSync         = 1
	timBorderStart  = 2
	timDisplayStart = 3
	timDisplayEnd   = 4
	timBorderEnd    = 5
	timCursorEdge   = 6 // cursor start (H) / cursor end (V)
)

// flybackSource lets VIDC assert VFLY in IOC's IRQ Request A after
// scan-out (spec.md §4.4), without VIDC depending on the whole ioc.IOC
// type.
type flybackSource interface {
	AssertVFLY()
}

// VIDC holds the register bank and implements bus.Register.
type VIDC struct {
	Control uint32

	palette [255]uint16 // 13-bit RGB each, masked on write
	border  uint16
	cursor  [3]uint16

	hTiming [7]uint32
	vTiming [7]uint32

	soundFrequency uint32
	soundControl   uint32
	videoBase      uint32
	latchC         uint32

	width, height int

	ioc flybackSource
}

// New returns a VIDC with every register zeroed and the derived frame
// dimensions at zero, wired to assert VFLY in ioc after each scan-out.
func New(ioc flybackSource) *VIDC {
	return &VIDC{ioc: ioc}
}

// Dimensions returns the frame size derived from the last write to the
// horizontal/vertical display-start/end registers.
func (v *VIDC) Dimensions() (width, height int) {
	return v.width, v.height
}

func (v *VIDC) recomputeDimensions() {
	w := int(v.hTiming[timDisplayEnd]) - int(v.hTiming[timDisplayStart])
	h := int(v.vTiming[timDisplayEnd]) - int(v.vTiming[timDisplayStart])
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	v.width, v.height = w, h
}

// vflyReader is implemented by a flybackSource that can report whether
// a vertical flyback request is currently pending; used to compose the
// Control register's status-shadow bit.
type vflyReader interface {
	VFLYRequested() bool
}

// ReadRegister implements bus.Register.
func (v *VIDC) ReadRegister(offset uint32) uint32 {
	switch {
	case offset == offControl:
		ctrl := v.Control
		if r, ok := v.ioc.(vflyReader); ok && r.VFLYRequested() {
			ctrl |= 1 << 3
		}
		return ctrl

	case offset >= offPaletteBase && offset <= offPaletteBase+offPaletteCount-1:
		return uint32(v.palette[offset-offPaletteBase])

	case offset == offBorderColour:
		return uint32(v.border)

	case offset >= offCursorBase && offset <= offCursorBase+offCursorCount-1:
		return uint32(v.cursor[offset-offCursorBase])

	case offset >= offHTimingBase && offset <= offHTimingBase+offHTimingCount-1:
		return v.hTiming[offset-offHTimingBase]

	case offset >= offVTimingBase && offset <= offVTimingBase+offVTimingCount-1:
		return v.vTiming[offset-offVTimingBase]

	case offset == offSoundFrequency:
		return v.soundFrequency
	case offset == offSoundControl:
		return v.soundControl
	case offset == offVideoBase:
		return v.videoBase
	case offset == offLatchC:
		return v.latchC
	}

	logger.Logf(logger.Debug, "vidc", "read from unknown offset %d", offset)
	return 0
}

// WriteRegister implements bus.Register.
func (v *VIDC) WriteRegister(offset uint32, value uint32) {
	switch {
	case offset == offControl:
		v.Control = value

	case offset >= offPaletteBase && offset <= offPaletteBase+offPaletteCount-1:
		v.palette[offset-offPaletteBase] = uint16(value) & 0x1FFF

	case offset == offBorderColour:
		v.border = uint16(value) & 0x1FFF

	case offset >= offCursorBase && offset <= offCursorBase+offCursorCount-1:
		v.cursor[offset-offCursorBase] = uint16(value) & 0x1FFF

	case offset >= offHTimingBase && offset <= offHTimingBase+offHTimingCount-1:
		v.hTiming[offset-offHTimingBase] = value
		if offset-offHTimingBase == timDisplayStart || offset-offHTimingBase == timDisplayEnd {
			v.recomputeDimensions()
		}

	case offset >= offVTimingBase && offset <= offVTimingBase+offVTimingCount-1:
		v.vTiming[offset-offVTimingBase] = value
		if offset-offVTimingBase == timDisplayStart || offset-offVTimingBase == timDisplayEnd {
			v.recomputeDimensions()
		}

	case offset == offSoundFrequency:
		v.soundFrequency = value & 0xFF
	case offset == offSoundControl:
		v.soundControl = value
	case offset == offVideoBase:
		v.videoBase = value & addresses.AddressMask
	case offset == offLatchC:
		v.latchC = value & 0xFF

	default:
		logger.Logf(logger.Debug, "vidc", "write to unknown offset %d", offset)
	}
}

// expandRGB13 expands a 13-bit VIDC palette entry (4 bits each of
// blue/green/red in the low 12 bits, top bit unused) into an 8-8-8-8
// ARGB value and a 5-6-5 value in the byte order render_frame writes
// to its output buffer.
func expandRGB13(v uint16) (argb uint32, rgb565 uint16) {
	r4 := uint32(v & 0xF)
	g4 := uint32((v >> 4) & 0xF)
	b4 := uint32((v >> 8) & 0xF)

	r8 := r4<<4 | r4
	g8 := g4<<4 | g4
	b8 := b4<<4 | b4
	argb = 0xFF000000 | r8<<16 | g8<<8 | b8

	r5 := uint16(r4<<1 | r4>>3)
	g6 := uint16(g4<<2 | g4>>2)
	b5 := uint16(b4<<1 | b4>>3)
	rgb565 = r5<<11 | g6<<5 | b5

	return argb, rgb565
}

// RenderFrame scans RAM as 8bpp paletted video memory starting at
// video_base, expands each pixel through the palette, and writes the
// derived-size frame into out in 5-6-5 little-endian order. ram is a
// read-only view the Machine borrows from the Bus for the duration of
// the call (spec.md §9: "VIDC borrows a read-only view of RAM at
// scan-out time" rather than holding a back-pointer into it).
func (v *VIDC) RenderFrame(ram []byte) []byte {
	width, height := v.width, v.height
	if width <= 0 || height <= 0 {
		if v.ioc != nil {
			v.ioc.AssertVFLY()
		}
		return nil
	}

	out := make([]byte, width*height*2)
	base := int(v.videoBase) - addresses.RAMBase

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			idx := base + y*width + x
			var entry uint8
			if idx >= 0 && idx < len(ram) {
				entry = ram[idx]
			}

			var palette uint16
			if int(entry) < len(v.palette) {
				palette = v.palette[entry]
			}

			_, rgb565 := expandRGB13(palette)

			o := (y*width + x) * 2
			out[o] = byte(rgb565)
			out[o+1] = byte(rgb565 >> 8)
		}
	}

	if v.ioc != nil {
		v.ioc.AssertVFLY()
	}
	return out
}
