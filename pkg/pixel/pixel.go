// Package pixel decodes 16-bit 5-6-5 packed pixel data into RGBA.
package pixel

import (
	"encoding/binary"
	"image"
	"image/color"
)

// Order is the channel ordering of a 16-bit 5-6-5 pixel.
type Order int

const (
	RGB565 Order = iota
	BGR565
)

func (o Order) String() string {
	if o == BGR565 {
		return "BGR565"
	}
	return "RGB565"
}

// Expand5 widens a 5-bit sample to 8 bits by bit replication.
func Expand5(v uint8) uint8 {
	return v<<3 | v>>2
}

// Expand6 widens a 6-bit sample to 8 bits by bit replication.
func Expand6(v uint8) uint8 {
	return v<<2 | v>>4
}

// DetectOrder classifies the channel order of 5-6-5 data by sampling
// its first pixel: when the decoded blue sample exceeds the red one,
// the data is taken to be BGR565. This is a heuristic, not a format
// flag; a boot logo whose top-left pixel is genuinely blue-dominant
// will be misclassified.
func DetectOrder(data []byte) Order {
	if len(data) < 2 {
		return RGB565
	}
	v := binary.LittleEndian.Uint16(data)
	r := Expand5(uint8(v >> 11 & 0x1f))
	b := Expand5(uint8(v & 0x1f))
	if b > r {
		return BGR565
	}
	return RGB565
}

// Decode converts 5-6-5 packed data into an RGBA image of the given
// extents. Rows are laid out bottom-up unless topDown is set, exactly
// width*2 bytes each with no 4-byte row alignment (boot logo payloads
// are written without padding). When data runs out before the grid is
// filled, decoding stops and the partial image is returned.
func Decode(data []byte, width, height int, topDown bool, order Order) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	i := 0
	for row := 0; row < height; row++ {
		y := height - row - 1
		if topDown {
			y = row
		}
		for x := 0; x < width; x++ {
			if i+2 > len(data) {
				return img
			}
			v := binary.LittleEndian.Uint16(data[i:])
			i += 2
			r := Expand5(uint8(v >> 11 & 0x1f))
			g := Expand6(uint8(v >> 5 & 0x3f))
			b := Expand5(uint8(v & 0x1f))
			if order == BGR565 {
				r, b = b, r
			}
			img.Set(x, y, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return img
}
