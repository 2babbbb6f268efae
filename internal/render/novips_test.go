//go:build !vips

package render

import (
	"errors"
	"testing"

	"media-library/internal/testutil"
)

func TestVipsStubs(t *testing.T) {
	if err := InitVips(); err != nil {
		t.Fatalf("InitVips() = %v, want nil", err)
	}
	if IsVipsAvailable() {
		t.Error("IsVipsAvailable() = true without libvips compiled in")
	}
	ShutdownVips()

	if _, err := vipsThumbnail(testutil.EncodeJPEG(t, testutil.Quadrants(8, 8)), 4, 4); !errors.Is(err, errVipsUnavailable) {
		t.Errorf("vipsThumbnail() error = %v, want errVipsUnavailable", err)
	}

	// The pure-Go path still renders.
	img, alpha, err := thumbnailBitmap(testutil.EncodeJPEG(t, testutil.Quadrants(8, 8)), 4, 4)
	if err != nil {
		t.Fatalf("thumbnailBitmap failed: %v", err)
	}
	if alpha || img.Bounds().Dx() != 4 {
		t.Errorf("thumbnailBitmap = %dx%d alpha=%v, want 4x4 without alpha", img.Bounds().Dx(), img.Bounds().Dy(), alpha)
	}
}
