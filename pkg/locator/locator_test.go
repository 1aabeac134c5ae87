package locator

import (
	"encoding/binary"
	"testing"
)

// putHeader writes a header that passes both the plausibility and the
// strict sanity checks.
func putHeader(buf []byte, off int, width, height int32, bpp uint16) {
	buf[off] = 'B'
	buf[off+1] = 'M'
	binary.LittleEndian.PutUint32(buf[off+10:], 70)
	binary.LittleEndian.PutUint32(buf[off+14:], 40)
	binary.LittleEndian.PutUint32(buf[off+18:], uint32(width))
	binary.LittleEndian.PutUint32(buf[off+22:], uint32(height))
	binary.LittleEndian.PutUint16(buf[off+28:], bpp)
}

func TestLocateAlignedPriority(t *testing.T) {
	buf := make([]byte, 64*1024)
	// A valid header at an unaligned offset before the aligned one must
	// not win: the 0x400-stride pass runs first.
	putHeader(buf, 0x403, 32, 32, 16)
	putHeader(buf, 0x800, 64, 64, 16)

	off, degraded, ok := Locate(buf)
	if !ok || degraded {
		t.Fatalf("ok=%v degraded=%v, want clean find", ok, degraded)
	}
	if off != 0x800 {
		t.Errorf("offset = 0x%x, want 0x800", off)
	}
}

func TestLocateUnalignedFallback(t *testing.T) {
	buf := make([]byte, 64*1024)
	// 0x3f7 is hit by neither the 0x400, 0x1000 nor 4 strides.
	putHeader(buf, 0x3f7, 32, 32, 16)

	off, degraded, ok := Locate(buf)
	if !ok || degraded {
		t.Fatalf("ok=%v degraded=%v, want clean find", ok, degraded)
	}
	if off != 0x3f7 {
		t.Errorf("offset = 0x%x, want 0x3f7", off)
	}
}

func TestLocateDegradedFallback(t *testing.T) {
	buf := make([]byte, 4096)
	// Bare signature with garbage fields: fails validation everywhere,
	// but its raw occurrence is still the best answer available.
	buf[100] = 'B'
	buf[101] = 'M'

	off, degraded, ok := Locate(buf)
	if !ok {
		t.Fatal("signature present, should be found")
	}
	if !degraded {
		t.Error("invalid header should be reported as degraded")
	}
	if off != 100 {
		t.Errorf("offset = %d, want 100", off)
	}
}

func TestLocateNotFound(t *testing.T) {
	if _, _, ok := Locate(make([]byte, 4096)); ok {
		t.Error("empty buffer should not yield an offset")
	}
}

func TestRescanStrict(t *testing.T) {
	buf := make([]byte, 64*1024)
	// First occurrence is plausible but declares extents the decoder
	// will not touch; the later one is fully sane.
	putHeader(buf, 0x400, 9000, 9000, 16)
	putHeader(buf, 0x701, 64, 64, 16)

	off, ok := RescanStrict(buf)
	if !ok {
		t.Fatal("sane header present, should be found")
	}
	if off != 0x701 {
		t.Errorf("offset = 0x%x, want 0x701", off)
	}

	if _, ok := RescanStrict(make([]byte, 4096)); ok {
		t.Error("buffer without headers should not rescan successfully")
	}
}
