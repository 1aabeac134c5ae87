package bitmap

import (
	"encoding/binary"
)

// Signature marks the start of a BMP container ("BM").
var Signature = []byte{'B', 'M'}

const (
	// MinFileHeader is the smallest byte span a candidate must provide:
	// the 14-byte file header plus a 40-byte BITMAPINFOHEADER.
	MinFileHeader = 54

	minStructSize = 12
	maxStructSize = 4096

	// Extent limits. Candidates up to 10000px per side are considered
	// during discovery; anything a decoder will actually touch must fit
	// in 4096px per side.
	MaxScanExtent = 10000
	MaxSaneExtent = 4096

	// Firmware dumps are routinely truncated or padded, so the declared
	// file size and pixel payload are checked with slack rather than
	// exactly.
	declaredSizeSlack = 16384
	pixelPayloadSlack = 64 << 10
	swapSlack         = 1024
)

// Header holds the container fields the extractor cares about, parsed
// from a candidate offset. Height keeps its sign: negative means rows
// are stored top-down.
type Header struct {
	FileSize        uint32
	PixelDataOffset uint32
	StructSize      uint32
	Width           int32
	Height          int32
	BitsPerPixel    uint16
}

// Parse reads the header fields at off. The caller must have checked
// that at least MinFileHeader bytes are available.
func Parse(buf []byte, off int) Header {
	h := buf[off:]
	return Header{
		FileSize:        binary.LittleEndian.Uint32(h[2:6]),
		PixelDataOffset: binary.LittleEndian.Uint32(h[10:14]),
		StructSize:      binary.LittleEndian.Uint32(h[14:18]),
		Width:           int32(binary.LittleEndian.Uint32(h[18:22])),
		Height:          int32(binary.LittleEndian.Uint32(h[22:26])),
		BitsPerPixel:    binary.LittleEndian.Uint16(h[28:30]),
	}
}

// ValidDepth reports whether bpp is one of the uncompressed depths the
// extractor handles.
func ValidDepth(bpp uint16) bool {
	switch bpp {
	case 1, 4, 8, 16, 24, 32:
		return true
	}
	return false
}

// TopDown reports whether pixel rows are stored first-row-first.
func (h Header) TopDown() bool {
	return h.Height < 0
}

// AbsWidth and AbsHeight return the magnitudes of the declared extents.
func (h Header) AbsWidth() int {
	if h.Width < 0 {
		return int(-h.Width)
	}
	return int(h.Width)
}

func (h Header) AbsHeight() int {
	if h.Height < 0 {
		return int(-h.Height)
	}
	return int(h.Height)
}

// BytesPerPixel returns the storage size of one pixel, rounding
// sub-byte depths up.
func (h Header) BytesPerPixel() int {
	return (int(h.BitsPerPixel) + 7) / 8
}

// Plausible applies the discovery-time sanity checks to the bytes at
// off. It is deliberately loose: its job is to reject random data that
// happens to start with "BM", not to guarantee a decodable image.
func Plausible(buf []byte, off int) bool {
	if off < 0 || off+MinFileHeader > len(buf) {
		return false
	}
	if buf[off] != Signature[0] || buf[off+1] != Signature[1] {
		return false
	}
	h := Parse(buf, off)
	if h.StructSize < minStructSize || h.StructSize > maxStructSize {
		return false
	}
	if h.AbsWidth() > MaxScanExtent || h.AbsHeight() > MaxScanExtent {
		return false
	}
	if !ValidDepth(h.BitsPerPixel) {
		return false
	}
	if h.PixelDataOffset <= MinFileHeader || int(h.PixelDataOffset) >= len(buf) {
		return false
	}
	// A nonzero declared size may overshoot a truncated dump a little.
	if h.FileSize != 0 && int64(h.FileSize) > int64(len(buf))+declaredSizeSlack {
		return false
	}
	return true
}

// Sane applies the stricter post-selection test: positive extents that
// a decoder will actually iterate, and a pixel payload that fits the
// buffer with some slack for padded dumps.
func (h Header) Sane(bufLen, off int) bool {
	if h.Width <= 0 || h.Width > MaxSaneExtent {
		return false
	}
	if h.AbsHeight() == 0 || h.AbsHeight() > MaxSaneExtent {
		return false
	}
	if h.PixelDataOffset <= MinFileHeader || off+int(h.PixelDataOffset) >= bufLen {
		return false
	}
	payload := int64(h.Width) * int64(h.AbsHeight()) * int64(h.BytesPerPixel())
	return int64(off)+int64(h.PixelDataOffset)+payload <= int64(bufLen)+pixelPayloadSlack
}

// RepairSwap detects the width/height field swap seen in some dumps
// (an extremely wide, extremely short logo) and swaps the fields back,
// but only when the swapped geometry still fits the buffer. The second
// return reports whether a swap was applied, the third whether a
// candidate swap was considered and rejected.
func RepairSwap(h Header, bufLen, off int) (Header, bool, bool) {
	if !(h.Width > h.Height && h.Width > 2000 && h.Height >= 0 && h.Height < 200) {
		return h, false, false
	}
	swapped := h
	swapped.Width, swapped.Height = h.Height, h.Width
	payload := int64(swapped.Width) * int64(swapped.AbsHeight()) * int64(swapped.BytesPerPixel())
	if int64(off)+int64(swapped.PixelDataOffset)+payload > int64(bufLen)+swapSlack {
		return h, false, true
	}
	return swapped, true, false
}
