package render

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register decoders
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// RenderedImage is an encoded image. Exactly one of Data and DataURL is set.
type RenderedImage struct {
	Data     []byte `json:"-"`
	DataURL  string `json:"dataURL,omitempty"`
	MimeType string `json:"mimeType"`
}

func newRendered(data []byte, mimeType string, dataURL bool) *RenderedImage {
	r := &RenderedImage{Data: data, MimeType: mimeType}
	if dataURL {
		return r.AsDataURL()
	}
	return r
}

// AsDataURL returns a copy carrying a base64 data URI instead of bytes.
func (r *RenderedImage) AsDataURL() *RenderedImage {
	if r.DataURL != "" {
		return r
	}
	return &RenderedImage{
		DataURL:  "data:" + r.MimeType + ";base64," + base64.StdEncoding.EncodeToString(r.Data),
		MimeType: r.MimeType,
	}
}

// Orient re-rasterises img so that it displays upright for the given EXIF
// orientation. Unknown orientations return img unchanged.
func Orient(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	}
	return img
}

// coverSize scales (srcW, srcH) uniformly so the result covers (w, h):
// neither side ends up smaller than the target.
func coverSize(srcW, srcH, w, h int) (int, int) {
	if srcW <= 0 || srcH <= 0 || w <= 0 || h <= 0 {
		return srcW, srcH
	}
	scale := math.Max(float64(w)/float64(srcW), float64(h)/float64(srcH))
	dw := int(math.Round(float64(srcW) * scale))
	dh := int(math.Round(float64(srcH) * scale))
	return max(dw, w), max(dh, h)
}

// scaleCover resizes img to cover the target box.
func scaleCover(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	dw, dh := coverSize(b.Dx(), b.Dy(), w, h)
	if dw == b.Dx() && dh == b.Dy() {
		return img
	}
	return imaging.Resize(img, dw, dh, imaging.Lanczos)
}

// hasAlpha reports whether img carries an alpha channel, whether or not
// any pixel is translucent. Decoders return premultiplied RGBA for
// sources stored without alpha, so those count only when a pixel is
// actually translucent.
func hasAlpha(img image.Image) bool {
	switch m := img.(type) {
	case *image.NRGBA, *image.NRGBA64, *image.NYCbCrA, *image.Alpha, *image.Alpha16:
		return true
	case *image.Paletted:
		for _, c := range m.Palette {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return true
			}
		}
		return false
	case *image.RGBA:
		return !m.Opaque()
	case *image.RGBA64:
		return !m.Opaque()
	}
	return false
}

// jpegQuality maps a 0.0–1.0 quality to the encoder's 1–100 range.
func jpegQuality(q float64) int {
	v := int(math.Round(q * 100))
	return min(max(v, 1), 100)
}

// encode writes PNG when the source had an alpha channel, JPEG at
// quality otherwise. Scaling turns every bitmap into NRGBA, so alpha is
// taken from the decoded source rather than from img.
func encode(img image.Image, alpha bool, quality float64) ([]byte, string, error) {
	var buf bytes.Buffer
	if alpha {
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return nil, "", fmt.Errorf("png encode: %w", err)
		}
		return buf.Bytes(), "image/png", nil
	}
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality(quality))); err != nil {
		return nil, "", fmt.Errorf("jpeg encode: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}

// decode parses encoded image bytes without applying orientation.
func decode(data []byte) (image.Image, error) {
	return imaging.Decode(bytes.NewReader(data))
}

var errVipsUnavailable = errors.New("libvips not available")
