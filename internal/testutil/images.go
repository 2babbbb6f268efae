package testutil

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

// Quadrant colours of Quadrants images.
var (
	TopLeft     = color.NRGBA{R: 255, A: 255}
	TopRight    = color.NRGBA{G: 255, A: 255}
	BottomLeft  = color.NRGBA{B: 255, A: 255}
	BottomRight = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

// Quadrants returns a w×h image split into four solid quadrants, so any
// flip or rotation is observable from the corner colours.
func Quadrants(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var c color.NRGBA
			switch {
			case x < w/2 && y < h/2:
				c = TopLeft
			case y < h/2:
				c = TopRight
			case x < w/2:
				c = BottomLeft
			default:
				c = BottomRight
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// Translucent returns a w×h image with a partially transparent alpha.
func Translucent(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 200, G: 100, B: 50, A: 128})
		}
	}
	return img
}

// EncodeJPEG encodes img as a baseline JPEG.
func EncodeJPEG(tb testing.TB, img image.Image) []byte {
	tb.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		tb.Fatalf("jpeg encode: %v", err)
	}
	return buf.Bytes()
}

// EncodePNG encodes img as PNG.
func EncodePNG(tb testing.TB, img image.Image) []byte {
	tb.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		tb.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

// EXIF lists the IFD0 tags written by JPEGWithEXIF. Zero values are omitted.
type EXIF struct {
	Orientation int
	Make        string
	DateTime    string // "2006:01:02 15:04:05"
}

// JPEGWithEXIF encodes img as JPEG and inserts an APP1 EXIF segment
// carrying the given tags directly after the SOI marker.
func JPEGWithEXIF(tb testing.TB, img image.Image, tags EXIF) []byte {
	tb.Helper()
	plain := EncodeJPEG(tb, img)

	payload := append([]byte("Exif\x00\x00"), tiffIFD0(tags)...)
	segment := []byte{0xFF, 0xE1, 0, 0}
	binary.BigEndian.PutUint16(segment[2:], uint16(len(payload)+2))
	segment = append(segment, payload...)

	out := make([]byte, 0, len(plain)+len(segment))
	out = append(out, plain[:2]...)
	out = append(out, segment...)
	out = append(out, plain[2:]...)
	return out
}

type ifdEntry struct {
	tag   uint16
	typ   uint16
	count uint32
	value []byte
}

// tiffIFD0 builds a little-endian TIFF header with a single IFD.
func tiffIFD0(tags EXIF) []byte {
	var entries []ifdEntry
	if tags.Make != "" {
		entries = append(entries, asciiEntry(0x010F, tags.Make))
	}
	if tags.Orientation != 0 {
		v := make([]byte, 2)
		binary.LittleEndian.PutUint16(v, uint16(tags.Orientation))
		entries = append(entries, ifdEntry{tag: 0x0112, typ: 3, count: 1, value: v})
	}
	if tags.DateTime != "" {
		entries = append(entries, asciiEntry(0x0132, tags.DateTime))
	}

	le := binary.LittleEndian
	header := []byte{'I', 'I', 42, 0, 8, 0, 0, 0}
	dataOffset := uint32(8 + 2 + 12*len(entries) + 4)

	ifd := make([]byte, 2)
	le.PutUint16(ifd, uint16(len(entries)))
	var data []byte
	for _, e := range entries {
		b := make([]byte, 12)
		le.PutUint16(b[0:], e.tag)
		le.PutUint16(b[2:], e.typ)
		le.PutUint32(b[4:], e.count)
		if len(e.value) <= 4 {
			copy(b[8:], e.value)
		} else {
			le.PutUint32(b[8:], dataOffset+uint32(len(data)))
			data = append(data, e.value...)
			if len(data)%2 == 1 {
				data = append(data, 0)
			}
		}
		ifd = append(ifd, b...)
	}
	ifd = append(ifd, 0, 0, 0, 0)

	out := append(header, ifd...)
	return append(out, data...)
}

func asciiEntry(tag uint16, s string) ifdEntry {
	v := append([]byte(s), 0)
	return ifdEntry{tag: tag, typ: 2, count: uint32(len(v)), value: v}
}

// SameColor reports whether two colours match within tolerance per
// channel, to absorb JPEG loss.
func SameColor(a, b color.Color, tolerance uint32) bool {
	ar, ag, ab, aa := a.RGBA()
	br, bg, bb, ba := b.RGBA()
	diff := func(x, y uint32) uint32 {
		if x > y {
			return (x - y) >> 8
		}
		return (y - x) >> 8
	}
	return diff(ar, br) <= tolerance && diff(ag, bg) <= tolerance &&
		diff(ab, bb) <= tolerance && diff(aa, ba) <= tolerance
}
