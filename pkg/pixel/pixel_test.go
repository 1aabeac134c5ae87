package pixel

import (
	"encoding/binary"
	"image/color"
	"testing"
)

func TestExpand5(t *testing.T) {
	if Expand5(0) != 0 {
		t.Errorf("Expand5(0) = %d, want 0", Expand5(0))
	}
	if Expand5(31) != 255 {
		t.Errorf("Expand5(31) = %d, want 255", Expand5(31))
	}
	prev := -1
	for v := uint8(0); v < 32; v++ {
		got := int(Expand5(v))
		if got <= prev {
			t.Fatalf("Expand5 not monotonic at %d: %d <= %d", v, got, prev)
		}
		prev = got
	}
}

func TestExpand6(t *testing.T) {
	if Expand6(0) != 0 {
		t.Errorf("Expand6(0) = %d, want 0", Expand6(0))
	}
	if Expand6(63) != 255 {
		t.Errorf("Expand6(63) = %d, want 255", Expand6(63))
	}
	prev := -1
	for v := uint8(0); v < 64; v++ {
		got := int(Expand6(v))
		if got <= prev {
			t.Fatalf("Expand6 not monotonic at %d: %d <= %d", v, got, prev)
		}
		prev = got
	}
}

func pack(vals ...uint16) []byte {
	out := make([]byte, 2*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint16(out[i*2:], v)
	}
	return out
}

func TestDetectOrder(t *testing.T) {
	// Red channel maxed in the high bits: normal RGB565 data.
	if got := DetectOrder(pack(0xf800)); got != RGB565 {
		t.Errorf("pure red first pixel classified as %s", got)
	}
	// Value maxed in the low bits: reads as blue-dominant, so the data
	// is taken to be byte-swapped.
	if got := DetectOrder(pack(0x001f)); got != BGR565 {
		t.Errorf("pure blue first pixel classified as %s", got)
	}
	if got := DetectOrder(nil); got != RGB565 {
		t.Errorf("empty data classified as %s, want RGB565 default", got)
	}
}

func TestDecodeBottomUp(t *testing.T) {
	// 2x2: stored rows are red,red then green,green. Bottom-up storage
	// means red ends up on the bottom output row.
	data := pack(0xf800, 0xf800, 0x07e0, 0x07e0)
	img := Decode(data, 2, 2, false, RGB565)

	if got := img.RGBAAt(0, 1); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("bottom row = %v, want pure red", got)
	}
	if got := img.RGBAAt(0, 0); got != (color.RGBA{0, 255, 0, 255}) {
		t.Errorf("top row = %v, want pure green", got)
	}
}

func TestDecodeTopDown(t *testing.T) {
	data := pack(0xf800, 0xf800, 0x07e0, 0x07e0)
	img := Decode(data, 2, 2, true, RGB565)

	if got := img.RGBAAt(0, 0); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("top row = %v, want pure red", got)
	}
	if got := img.RGBAAt(0, 1); got != (color.RGBA{0, 255, 0, 255}) {
		t.Errorf("bottom row = %v, want pure green", got)
	}
}

func TestDecodeSwappedOrder(t *testing.T) {
	img := Decode(pack(0xf800), 1, 1, true, BGR565)
	if got := img.RGBAAt(0, 0); got != (color.RGBA{0, 0, 255, 255}) {
		t.Errorf("pixel = %v, want pure blue under BGR565", got)
	}
}

func TestDecodeTruncated(t *testing.T) {
	// Declared 4x4 but only two rows of data present: the decode stops
	// quietly and the unwritten pixels stay zero.
	data := pack(0xf800, 0xf800, 0xf800, 0xf800, 0xf800, 0xf800, 0xf800, 0xf800)
	img := Decode(data, 4, 4, false, RGB565)

	if got := img.RGBAAt(0, 3); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("first stored row = %v, want pure red", got)
	}
	if got := img.RGBAAt(0, 0); got != (color.RGBA{}) {
		t.Errorf("unwritten pixel = %v, want zero value", got)
	}
}
