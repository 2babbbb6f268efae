//go:build !vips

package render

import "image"

// InitVips is a no-op in builds without libvips.
func InitVips() error { return nil }

// ShutdownVips is a no-op in builds without libvips.
func ShutdownVips() {}

// IsVipsAvailable always reports false in builds without libvips.
func IsVipsAvailable() bool { return false }

func vipsThumbnail(data []byte, w, h int) (image.Image, error) {
	return nil, errVipsUnavailable
}
