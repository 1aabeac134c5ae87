// Package mbn extracts embedded boot logo bitmaps from firmware dumps.
//
// The bitmap's offset inside a dump is unknown and has to be located
// heuristically; 16bpp payloads additionally carry no flag saying
// whether they are RGB565 or BGR565. The extractor is best-effort
// throughout: every recoverable problem degrades the output instead of
// aborting, and the degradation is reported on the Result for callers
// that care.
package mbn

import (
	"bytes"
	"image"
	"image/png"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/itsRealM12C/mbn/pkg/bitmap"
	"github.com/itsRealM12C/mbn/pkg/locator"
	"github.com/itsRealM12C/mbn/pkg/pixel"
)

// SuggestedFilename is offered for every extracted artifact, including
// PNG re-encodes. Keeping the .bmp name for those is a long-standing
// quirk of this tool that downstream scripts depend on.
const SuggestedFilename = "bootlogo.bmp"

const (
	MIMEBitmap = "image/bmp"
	MIMEPNG    = "image/png"
)

// ErrNoSignature is returned when the buffer contains no bitmap
// signature at all. It is the only fatal condition.
var ErrNoSignature = errors.New("no bitmap signature found in buffer")

// Sink receives everything the extractor produces. Implementations own
// all presentation; the extractor itself holds no UI state.
type Sink interface {
	Logf(format string, args ...interface{})
	Preview(img *image.RGBA)
	Downloadable(blob []byte, mime string, filename string)
}

// Result summarizes one extraction. Image is nil for non-16bpp inputs,
// which are handed out as their original container bytes.
type Result struct {
	Offset         int    `json:"offset"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	BitsPerPixel   uint16 `json:"bits_per_pixel"`
	ChannelOrder   string `json:"channel_order,omitempty"`
	Swapped        bool   `json:"dimensions_swapped,omitempty"`
	Degraded       bool   `json:"degraded,omitempty"`
	DegradedReason string `json:"degraded_reason,omitempty"`

	Image    *image.RGBA `json:"-"`
	Blob     []byte      `json:"-"`
	MIME     string      `json:"mime"`
	Filename string      `json:"filename"`
}

func (r *Result) degrade(reason string) {
	r.Degraded = true
	if r.DegradedReason == "" {
		r.DegradedReason = reason
	} else {
		r.DegradedReason += "; " + reason
	}
}

// Extract locates the embedded bitmap in buf, repairs its geometry if
// needed and emits the decoded artifact through sink. The returned
// Result carries the same data plus degradation flags; err is non-nil
// only for ErrNoSignature.
func Extract(buf []byte, sink Sink) (*Result, error) {
	off, degraded, ok := locator.Locate(buf)
	if !ok {
		sink.Logf("no bitmap signature found in %d bytes", len(buf))
		return nil, ErrNoSignature
	}

	res := &Result{Offset: off, Filename: SuggestedFilename}
	if degraded {
		res.degrade("no candidate passed validation, using first raw signature match")
		sink.Logf("warning: no header passed validation, falling back to raw signature at offset 0x%x", off)
	}

	if off+bitmap.MinFileHeader > len(buf) {
		// Raw fallback landed in the buffer's tail; nothing to parse,
		// hand out whatever bytes are there.
		res.degrade("signature too close to end of buffer to parse a header")
		res.Blob = buf[off:]
		res.MIME = MIMEBitmap
		sink.Logf("warning: signature at 0x%x leaves no room for a header, passing through %d raw bytes",
			off, len(res.Blob))
		sink.Downloadable(res.Blob, res.MIME, res.Filename)
		return res, nil
	}

	hdr := bitmap.Parse(buf, off)
	sink.Logf("bitmap header at offset 0x%x: %dx%d, %d bpp, pixel data at +%d",
		off, hdr.Width, hdr.Height, hdr.BitsPerPixel, hdr.PixelDataOffset)

	if !hdr.Sane(len(buf), off) {
		logrus.Debugf("candidate at 0x%x fails strict sanity, re-scanning all signature occurrences", off)
		if strict, found := locator.RescanStrict(buf); found {
			off = strict
			hdr = bitmap.Parse(buf, off)
			res.Offset = off
			sink.Logf("suspicious geometry, recovered better header at offset 0x%x: %dx%d, %d bpp",
				off, hdr.Width, hdr.Height, hdr.BitsPerPixel)
		} else {
			res.degrade("header failed strict sanity and no better candidate exists")
			sink.Logf("warning: header geometry is suspicious and no better candidate exists, decoding anyway")
		}
	}

	if repaired, swapped, rejected := bitmap.RepairSwap(hdr, len(buf), off); swapped {
		hdr = repaired
		res.Swapped = true
		sink.Logf("dimensions look swapped, using %dx%d instead", hdr.Width, hdr.Height)
	} else if rejected {
		sink.Logf("dimensions look swapped but swapping would overrun the buffer, keeping %dx%d",
			hdr.Width, hdr.Height)
	}

	res.Width = hdr.AbsWidth()
	res.Height = hdr.AbsHeight()
	res.BitsPerPixel = hdr.BitsPerPixel

	if hdr.BitsPerPixel != 16 {
		// Directly displayable by any stock decoder, hand the container
		// bytes through untouched.
		res.Blob = rawBlob(buf, off, hdr)
		res.MIME = MIMEBitmap
		sink.Logf("%d bpp bitmap, passing through %d container bytes", hdr.BitsPerPixel, len(res.Blob))
		sink.Downloadable(res.Blob, res.MIME, res.Filename)
		return res, nil
	}

	start := off + int(hdr.PixelDataOffset)
	if res.Width <= 0 || res.Height <= 0 ||
		res.Width > bitmap.MaxScanExtent || res.Height > bitmap.MaxScanExtent ||
		start < 0 || start >= len(buf) {
		// Degraded candidate with geometry no decoder should iterate.
		res.degrade("geometry not decodable, passing through raw bytes")
		res.Blob = rawBlob(buf, off, hdr)
		res.MIME = MIMEBitmap
		sink.Logf("warning: cannot decode %dx%d at +%d, passing through %d raw bytes",
			hdr.Width, hdr.Height, hdr.PixelDataOffset, len(res.Blob))
		sink.Downloadable(res.Blob, res.MIME, res.Filename)
		return res, nil
	}

	data := buf[start:]
	order := pixel.DetectOrder(data)
	res.ChannelOrder = order.String()
	sink.Logf("16 bpp payload, first pixel suggests %s", order)

	img := pixel.Decode(data, res.Width, res.Height, hdr.TopDown(), order)
	res.Image = img
	sink.Preview(img)

	var out bytes.Buffer
	if err := png.Encode(&out, img); err != nil {
		// Hand out the raw container instead; colors may be swapped.
		res.degrade("png encode failed: " + err.Error())
		res.Blob = rawBlob(buf, off, hdr)
		res.MIME = MIMEBitmap
		sink.Logf("warning: png encode failed (%v), falling back to raw bitmap bytes", err)
	} else {
		res.Blob = out.Bytes()
		res.MIME = MIMEPNG
	}
	sink.Downloadable(res.Blob, res.MIME, res.Filename)
	return res, nil
}

// rawBlob slices the original container out of the dump, honoring the
// declared file size when it is believable and taking the whole tail
// otherwise.
func rawBlob(buf []byte, off int, hdr bitmap.Header) []byte {
	end := len(buf)
	if hdr.FileSize > bitmap.MinFileHeader && off+int(hdr.FileSize) <= len(buf) {
		end = off + int(hdr.FileSize)
	}
	return buf[off:end]
}
