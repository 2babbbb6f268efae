package metadata

import (
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// Tags stored in IFD0 of a TIFF header.
var tiffFields = map[exif.FieldName]bool{
	exif.ImageWidth:                true,
	exif.ImageLength:               true,
	exif.BitsPerSample:             true,
	exif.Compression:               true,
	exif.PhotometricInterpretation: true,
	exif.SamplesPerPixel:           true,
	exif.PlanarConfiguration:       true,
	exif.YCbCrSubSampling:          true,
	exif.YCbCrPositioning:          true,
	exif.ResolutionUnit:            true,
	exif.ImageDescription:          true,
	exif.Artist:                    true,
	exif.Copyright:                 true,
}

// Tags consumed elsewhere or meaningless to callers.
var skippedFields = map[exif.FieldName]bool{
	exif.Orientation:                      true,
	exif.ExifIFDPointer:                   true,
	exif.GPSInfoIFDPointer:                true,
	exif.InteroperabilityIFDPointer:       true,
	exif.ThumbJPEGInterchangeFormat:       true,
	exif.ThumbJPEGInterchangeFormatLength: true,
	exif.MakerNote:                        true,
	exif.UserComment:                      true,

	exif.DateTimeOriginal: true,
	exif.ExposureTime:     true,
	exif.FNumber:          true,
	exif.ISOSpeedRatings:  true,
	exif.FocalLength:      true,
	exif.LensModel:        true,
	exif.PixelXDimension:  true,
	exif.PixelYDimension:  true,

	exif.GPSLatitude:     true,
	exif.GPSLatitudeRef:  true,
	exif.GPSLongitude:    true,
	exif.GPSLongitudeRef: true,
	exif.GPSAltitude:     true,
	exif.GPSAltitudeRef:  true,
	exif.GPSSpeed:        true,
	exif.GPSSpeedRef:     true,

	exif.Make:        true,
	exif.Model:       true,
	exif.Software:    true,
	exif.DateTime:    true,
	exif.XResolution: true,
	exif.YResolution: true,
}

// walker files every untyped tag into the Other map of its block.
type walker struct {
	exif *ExifBlock
	gps  *GPSBlock
	tiff *TIFFBlock
}

func (w *walker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	if skippedFields[name] {
		return nil
	}

	val := strings.Trim(tag.String(), `"`)
	switch {
	case strings.HasPrefix(string(name), "GPS"):
		w.gps.Other = put(w.gps.Other, name, val)
	case tiffFields[name]:
		w.tiff.Other = put(w.tiff.Other, name, val)
	default:
		w.exif.Other = put(w.exif.Other, name, val)
	}
	return nil
}

func put(m map[string]string, name exif.FieldName, val string) map[string]string {
	if m == nil {
		m = make(map[string]string)
	}
	m[string(name)] = val
	return m
}
