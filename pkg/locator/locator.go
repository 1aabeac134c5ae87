// Package locator finds embedded bitmap headers in firmware dumps.
//
// Vendors place boot logos at flash-erase-block boundaries, so aligned
// strides are tried before falling back to an exhaustive byte scan.
package locator

import (
	"bytes"

	"github.com/itsRealM12C/mbn/pkg/bitmap"
)

// Scan strides, in priority order. First match wins.
var strides = []int{0x400, 0x1000, 4, 1}

// Locate returns the byte offset of the most plausible bitmap header in
// buf. When no candidate passes validation, the first raw signature
// occurrence is returned as a degraded fallback; degraded is true in
// that case. ok is false only when the signature appears nowhere.
func Locate(buf []byte) (off int, degraded bool, ok bool) {
	for _, stride := range strides {
		if off, ok := scan(buf, stride, bitmap.Plausible); ok {
			return off, false, true
		}
	}
	if off := bytes.Index(buf, bitmap.Signature); off >= 0 {
		return off, true, true
	}
	return 0, false, false
}

// scan walks buf at the given stride and returns the first offset whose
// signature matches and whose header satisfies valid.
func scan(buf []byte, stride int, valid func([]byte, int) bool) (int, bool) {
	for off := 0; off+bitmap.MinFileHeader <= len(buf); off += stride {
		if buf[off] != bitmap.Signature[0] || buf[off+1] != bitmap.Signature[1] {
			continue
		}
		if valid(buf, off) {
			return off, true
		}
	}
	return 0, false
}

// RescanStrict enumerates every raw signature occurrence in buf and
// returns the first whose parsed header passes the strict sanity test.
// Used to recover when the candidate picked by Locate declares
// geometry a decoder cannot trust.
func RescanStrict(buf []byte) (int, bool) {
	base := 0
	for {
		rel := bytes.Index(buf[base:], bitmap.Signature)
		if rel < 0 {
			return 0, false
		}
		off := base + rel
		if off+bitmap.MinFileHeader <= len(buf) {
			if h := bitmap.Parse(buf, off); h.Sane(len(buf), off) {
				return off, true
			}
		}
		base = off + 1
	}
}
