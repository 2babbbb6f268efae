package metadata

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// ErrNoMetadata is returned when the bytes carry no EXIF block.
var ErrNoMetadata = errors.New("no embedded metadata")

// Extended is the metadata block attached to an enriched image item.
type Extended struct {
	Orientation *int       `json:"orientation,omitempty"`
	Exif        *ExifBlock `json:"exif,omitempty"`
	GPS         *GPSBlock  `json:"gps,omitempty"`
	TIFF        *TIFFBlock `json:"tiff,omitempty"`

	taken time.Time
}

// ExifBlock holds capture settings from the Exif sub-IFD.
type ExifBlock struct {
	DateTimeOriginal *string           `json:"DateTimeOriginal,omitempty"`
	ExposureTime     *float64          `json:"ExposureTime,omitempty"`
	FNumber          *float64          `json:"FNumber,omitempty"`
	ISOSpeedRatings  *int              `json:"ISOSpeedRatings,omitempty"`
	FocalLength      *float64          `json:"FocalLength,omitempty"`
	LensModel        *string           `json:"LensModel,omitempty"`
	PixelXDimension  *int              `json:"PixelXDimension,omitempty"`
	PixelYDimension  *int              `json:"PixelYDimension,omitempty"`
	Other            map[string]string `json:"other,omitempty"`
}

// GPSBlock holds location data. Speed is in the unit named by the image's
// GPSSpeedRef tag; SpeedMetersPerSecond converts it.
type GPSBlock struct {
	Latitude  *float64          `json:"Latitude,omitempty"`
	Longitude *float64          `json:"Longitude,omitempty"`
	Altitude  *float64          `json:"Altitude,omitempty"`
	Speed     *float64          `json:"Speed,omitempty"`
	SpeedRef  *string           `json:"SpeedRef,omitempty"`
	Other     map[string]string `json:"other,omitempty"`
}

// TIFFBlock holds IFD0 device and resolution tags.
type TIFFBlock struct {
	Make        *string           `json:"Make,omitempty"`
	Model       *string           `json:"Model,omitempty"`
	Software    *string           `json:"Software,omitempty"`
	DateTime    *string           `json:"DateTime,omitempty"`
	XResolution *float64          `json:"XResolution,omitempty"`
	YResolution *float64          `json:"YResolution,omitempty"`
	Other       map[string]string `json:"other,omitempty"`
}

// Parse decodes the EXIF block embedded in an image.
func Parse(data []byte) (*Extended, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads the EXIF block from r.
func Decode(r io.Reader) (*Extended, error) {
	x, err := exif.Decode(r)
	if err != nil {
		if exif.IsCriticalError(err) {
			return nil, fmt.Errorf("%w: %v", ErrNoMetadata, err)
		}
		// Non-critical errors leave a usable partial result.
		if x == nil {
			return nil, fmt.Errorf("%w: %v", ErrNoMetadata, err)
		}
	}
	return extract(x), nil
}

func extract(x *exif.Exif) *Extended {
	ext := &Extended{}

	if v, ok := intTag(x, exif.Orientation); ok {
		ext.Orientation = &v
	}
	if t, err := x.DateTime(); err == nil {
		ext.taken = t
	}

	e := &ExifBlock{
		DateTimeOriginal: stringTag(x, exif.DateTimeOriginal),
		ExposureTime:     ratTag(x, exif.ExposureTime),
		FNumber:          ratTag(x, exif.FNumber),
		ISOSpeedRatings:  intPtr(x, exif.ISOSpeedRatings),
		FocalLength:      ratTag(x, exif.FocalLength),
		LensModel:        stringTag(x, exif.LensModel),
		PixelXDimension:  intPtr(x, exif.PixelXDimension),
		PixelYDimension:  intPtr(x, exif.PixelYDimension),
	}

	g := &GPSBlock{
		Altitude: ratTag(x, exif.GPSAltitude),
		Speed:    ratTag(x, exif.GPSSpeed),
		SpeedRef: stringTag(x, exif.GPSSpeedRef),
	}
	if lat, lon, err := x.LatLong(); err == nil {
		g.Latitude, g.Longitude = &lat, &lon
	}
	if g.Altitude != nil {
		if ref, ok := intTag(x, exif.GPSAltitudeRef); ok && ref == 1 {
			alt := -*g.Altitude
			g.Altitude = &alt
		}
	}

	t := &TIFFBlock{
		Make:        stringTag(x, exif.Make),
		Model:       stringTag(x, exif.Model),
		Software:    stringTag(x, exif.Software),
		DateTime:    stringTag(x, exif.DateTime),
		XResolution: ratTag(x, exif.XResolution),
		YResolution: ratTag(x, exif.YResolution),
	}

	_ = x.Walk(&walker{exif: e, gps: g, tiff: t})

	if !e.empty() {
		ext.Exif = e
	}
	if !g.empty() {
		ext.GPS = g
	}
	if !t.empty() {
		ext.TIFF = t
	}
	return ext
}

// Taken returns the capture time recorded in the metadata.
func (e *Extended) Taken() (time.Time, bool) {
	if e == nil || e.taken.IsZero() {
		return time.Time{}, false
	}
	return e.taken, true
}

// OrientationValue returns the EXIF orientation, 1 when absent or invalid.
func (e *Extended) OrientationValue() int {
	if e == nil || e.Orientation == nil || *e.Orientation < 1 || *e.Orientation > 8 {
		return 1
	}
	return *e.Orientation
}

// SwapsAxes reports whether displaying an image with orientation o
// exchanges its width and height.
func SwapsAxes(o int) bool {
	return o >= 5 && o <= 8
}

// SpeedMetersPerSecond converts the GPS speed to metres per second.
func (g *GPSBlock) SpeedMetersPerSecond() (float64, bool) {
	if g == nil || g.Speed == nil {
		return 0, false
	}
	ref := "K"
	if g.SpeedRef != nil {
		ref = strings.ToUpper(*g.SpeedRef)
	}
	switch ref {
	case "M":
		return *g.Speed * 0.44704, true
	case "N":
		return *g.Speed * 0.514444, true
	default:
		return *g.Speed / 3.6, true
	}
}

func (b *ExifBlock) empty() bool {
	return b.DateTimeOriginal == nil && b.ExposureTime == nil && b.FNumber == nil &&
		b.ISOSpeedRatings == nil && b.FocalLength == nil && b.LensModel == nil &&
		b.PixelXDimension == nil && b.PixelYDimension == nil && len(b.Other) == 0
}

func (b *GPSBlock) empty() bool {
	return b.Latitude == nil && b.Longitude == nil && b.Altitude == nil &&
		b.Speed == nil && b.SpeedRef == nil && len(b.Other) == 0
}

func (b *TIFFBlock) empty() bool {
	return b.Make == nil && b.Model == nil && b.Software == nil && b.DateTime == nil &&
		b.XResolution == nil && b.YResolution == nil && len(b.Other) == 0
}

func stringTag(x *exif.Exif, name exif.FieldName) *string {
	tag, err := x.Get(name)
	if err != nil {
		return nil
	}
	s, err := tag.StringVal()
	if err != nil {
		s = strings.Trim(tag.String(), `"`)
	}
	s = strings.TrimRight(s, "\x00 ")
	if s == "" {
		return nil
	}
	return &s
}

func intTag(x *exif.Exif, name exif.FieldName) (int, bool) {
	tag, err := x.Get(name)
	if err != nil {
		return 0, false
	}
	v, err := tag.Int(0)
	if err != nil {
		return 0, false
	}
	return v, true
}

func intPtr(x *exif.Exif, name exif.FieldName) *int {
	if v, ok := intTag(x, name); ok {
		return &v
	}
	return nil
}

func ratTag(x *exif.Exif, name exif.FieldName) *float64 {
	tag, err := x.Get(name)
	if err != nil {
		return nil
	}
	if tag.Format() == tiff.RatVal {
		r, err := tag.Rat(0)
		if err != nil {
			return nil
		}
		f, _ := r.Float64()
		return &f
	}
	if v, err := tag.Int(0); err == nil {
		f := float64(v)
		return &f
	}
	return nil
}
