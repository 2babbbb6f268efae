package render

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"media-library/internal/catalog"
	"media-library/internal/mediaerr"
	"media-library/internal/mediatypes"
	"media-library/internal/testutil"
)

// addFile writes data to a temporary file and catalogues it.
func addFile(t *testing.T, s *catalog.Store, name, mime string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	a := &catalog.Asset{
		FileName:         name,
		OriginalFileName: name,
		Path:             path,
		MimeType:         mime,
		Kind:             mediatypes.KindOf(mime),
		Origin:           catalog.OriginIndexed,
		CreationDate:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Size:             int64(len(data)),
	}
	if err := s.InsertAsset(context.Background(), a); err != nil {
		t.Fatalf("InsertAsset failed: %v", err)
	}
	return a.ID
}

func decodeRendered(t *testing.T, img *RenderedImage) image.Image {
	t.Helper()
	decoded, err := decode(img.Data)
	if err != nil {
		t.Fatalf("rendered bytes do not decode: %v", err)
	}
	return decoded
}

// checkUpright samples the centre of each quadrant.
func checkUpright(t *testing.T, img image.Image) {
	t.Helper()
	b := img.Bounds()
	qx, qy := b.Dx()/4, b.Dy()/4
	corners := []struct {
		name string
		x, y int
		want color.Color
	}{
		{"top-left", qx, qy, testutil.TopLeft},
		{"top-right", 3 * qx, qy, testutil.TopRight},
		{"bottom-left", qx, 3 * qy, testutil.BottomLeft},
		{"bottom-right", 3 * qx, 3 * qy, testutil.BottomRight},
	}
	for _, c := range corners {
		got := img.At(b.Min.X+c.x, b.Min.Y+c.y)
		if !testutil.SameColor(got, c.want, 40) {
			t.Errorf("%s pixel = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestThumbnailOrientsAndCovers(t *testing.T) {
	s := testutil.NewStore(t)
	ref := testutil.Quadrants(64, 48)
	data := testutil.JPEGWithEXIF(t, stored(ref, 6), testutil.EXIF{Orientation: 6})
	id := addFile(t, s, "rotated.jpg", "image/jpeg", data)

	r := NewRenderer(s, nil)
	img, err := r.Thumbnail(context.Background(), id, Spec{Width: 64, Height: 48, Quality: 0.9})
	if err != nil {
		t.Fatalf("Thumbnail failed: %v", err)
	}
	if img.MimeType != "image/jpeg" {
		t.Errorf("MimeType = %s, want image/jpeg", img.MimeType)
	}

	decoded := decodeRendered(t, img)
	if decoded.Bounds().Dx() != 64 || decoded.Bounds().Dy() != 48 {
		t.Fatalf("thumbnail is %dx%d, want 64x48", decoded.Bounds().Dx(), decoded.Bounds().Dy())
	}
	checkUpright(t, decoded)
}

func TestThumbnailSizes(t *testing.T) {
	s := testutil.NewStore(t)
	opaque := addFile(t, s, "opaque.jpg", "image/jpeg", testutil.EncodeJPEG(t, testutil.Quadrants(200, 100)))
	alpha := addFile(t, s, "alpha.png", "image/png", testutil.EncodePNG(t, testutil.Translucent(100, 100)))
	rgb := addFile(t, s, "rgb.png", "image/png", testutil.EncodePNG(t, testutil.Quadrants(100, 100)))

	// A palette with a transparent entry is written with a tRNS chunk,
	// giving the file an alpha channel although no pixel uses it.
	paletted := image.NewPaletted(image.Rect(0, 0, 100, 100), color.Palette{testutil.TopLeft, color.NRGBA{}})
	unusedAlpha := addFile(t, s, "unused-alpha.png", "image/png", testutil.EncodePNG(t, paletted))

	tests := []struct {
		name         string
		id           string
		spec         Spec
		wantMime     string
		wantW, wantH int
	}{
		{"downscale keeps aspect", opaque, Spec{Width: 50, Height: 50, Quality: 0.5}, "image/jpeg", 100, 50},
		{"upscale to cover", opaque, Spec{Width: 400, Height: 100, Quality: 0.5}, "image/jpeg", 400, 200},
		{"alpha stays png", alpha, Spec{Width: 20, Height: 10, Quality: 0.5}, "image/png", 20, 20},
		{"zero size uses default", alpha, Spec{Quality: 0.5}, "image/png", 512, 512},
		{"png without alpha becomes jpeg", rgb, Spec{Width: 20, Height: 20, Quality: 0.5}, "image/jpeg", 20, 20},
		{"opaque pixels in alpha png stay png", unusedAlpha, Spec{Width: 20, Height: 20, Quality: 0.5}, "image/png", 20, 20},
	}

	r := NewRenderer(s, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := r.Thumbnail(context.Background(), tt.id, tt.spec)
			if err != nil {
				t.Fatalf("Thumbnail failed: %v", err)
			}
			if img.MimeType != tt.wantMime {
				t.Errorf("MimeType = %s, want %s", img.MimeType, tt.wantMime)
			}
			b := decodeRendered(t, img).Bounds()
			if b.Dx() != tt.wantW || b.Dy() != tt.wantH {
				t.Errorf("thumbnail is %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestThumbnailDataURL(t *testing.T) {
	s := testutil.NewStore(t)
	id := addFile(t, s, "a.jpg", "image/jpeg", testutil.EncodeJPEG(t, testutil.Quadrants(16, 16)))

	img, err := NewRenderer(s, nil).Thumbnail(context.Background(), id, Spec{Width: 8, Height: 8, Quality: 0.5, DataURL: true})
	if err != nil {
		t.Fatalf("Thumbnail failed: %v", err)
	}
	if !strings.HasPrefix(img.DataURL, "data:image/jpeg;base64,") {
		t.Errorf("DataURL = %.40q, want jpeg data URI", img.DataURL)
	}
	if img.Data != nil {
		t.Error("Data should be empty for a data URL render")
	}
}

func TestThumbnailErrors(t *testing.T) {
	s := testutil.NewStore(t)
	garbage := addFile(t, s, "broken.jpg", "image/jpeg", []byte("not a jpeg"))
	audio := addFile(t, s, "song.mp3", "audio/mpeg", []byte("ID3"))
	video := addFile(t, s, "clip.mp4", "video/mp4", []byte("ftyp"))

	tests := []struct {
		name string
		id   string
		want error
	}{
		{"unknown id", "missing", mediaerr.ErrNotFound},
		{"undecodable image", garbage, mediaerr.ErrUnavailable},
		{"audio", audio, mediaerr.ErrUnavailable},
		{"video without ffmpeg", video, mediaerr.ErrUnavailable},
	}

	r := NewRenderer(s, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Thumbnail(context.Background(), tt.id, DefaultSpec())
			if !errors.Is(err, tt.want) {
				t.Errorf("Thumbnail() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPhotoUprightReturnsStoredBytes(t *testing.T) {
	s := testutil.NewStore(t)
	data := testutil.JPEGWithEXIF(t, testutil.Quadrants(32, 24), testutil.EXIF{Orientation: 1, Make: "Acme"})
	// Catalogued with a wrong mime; the stored bytes decide.
	id := addFile(t, s, "a.jpg", "image/png", data)

	img, err := NewRenderer(s, nil).Photo(context.Background(), id, false)
	if err != nil {
		t.Fatalf("Photo failed: %v", err)
	}
	if !bytes.Equal(img.Data, data) {
		t.Error("upright photo was re-encoded")
	}
	if img.MimeType != "image/jpeg" {
		t.Errorf("MimeType = %s, want image/jpeg", img.MimeType)
	}
}

func TestPhotoNormalisesOrientation(t *testing.T) {
	s := testutil.NewStore(t)
	ref := testutil.Quadrants(64, 48)
	data := testutil.JPEGWithEXIF(t, stored(ref, 8), testutil.EXIF{Orientation: 8})
	id := addFile(t, s, "rotated.jpg", "image/jpeg", data)

	img, err := NewRenderer(s, nil).Photo(context.Background(), id, false)
	if err != nil {
		t.Fatalf("Photo failed: %v", err)
	}
	if bytes.Equal(img.Data, data) {
		t.Fatal("rotated photo returned as stored")
	}
	if img.MimeType != "image/jpeg" {
		t.Errorf("MimeType = %s, want image/jpeg", img.MimeType)
	}

	decoded := decodeRendered(t, img)
	if decoded.Bounds().Dx() != 64 || decoded.Bounds().Dy() != 48 {
		t.Fatalf("photo is %dx%d, want 64x48", decoded.Bounds().Dx(), decoded.Bounds().Dy())
	}
	checkUpright(t, decoded)
}

func TestPhotoUndecodable(t *testing.T) {
	s := testutil.NewStore(t)
	data := []byte("plain text pretending to be a photo")
	id := addFile(t, s, "odd.heic", "image/heic", data)

	img, err := NewRenderer(s, nil).Photo(context.Background(), id, true)
	if err != nil {
		t.Fatalf("Photo failed: %v", err)
	}
	if !strings.HasPrefix(img.MimeType, "text/plain") {
		t.Errorf("MimeType = %s, want sniffed text/plain", img.MimeType)
	}
	if !strings.HasPrefix(img.DataURL, "data:text/plain") {
		t.Errorf("DataURL = %.40q, want sniffed data URI", img.DataURL)
	}
}

func TestPhotoMissingFile(t *testing.T) {
	s := testutil.NewStore(t)
	a := &catalog.Asset{
		FileName:     "gone.jpg",
		Path:         filepath.Join(t.TempDir(), "gone.jpg"),
		MimeType:     "image/jpeg",
		Kind:         mediatypes.KindImage,
		CreationDate: time.Now(),
	}
	if err := s.InsertAsset(context.Background(), a); err != nil {
		t.Fatalf("InsertAsset failed: %v", err)
	}

	_, err := NewRenderer(s, nil).Photo(context.Background(), a.ID, false)
	if !errors.Is(err, mediaerr.ErrNotFound) {
		t.Errorf("Photo() error = %v, want ErrNotFound", err)
	}
	if got := mediaerr.AssetID(err); got != a.ID {
		t.Errorf("AssetID(err) = %q, want %q", got, a.ID)
	}
}

func TestBytes(t *testing.T) {
	s := testutil.NewStore(t)
	jpg := testutil.EncodeJPEG(t, testutil.Quadrants(8, 8))
	photo := addFile(t, s, "a.jpg", "image/jpeg", jpg)
	clip := addFile(t, s, "b.mp4", "video/mp4", []byte("fake video bytes"))
	audio := addFile(t, s, "c.mp3", "audio/mpeg", []byte("ID3"))

	r := NewRenderer(s, nil)

	data, mime, err := r.Bytes(context.Background(), photo)
	if err != nil {
		t.Fatalf("Bytes(image) failed: %v", err)
	}
	if !bytes.Equal(data, jpg) || mime != "image/jpeg" {
		t.Errorf("Bytes(image) = %d bytes %s, want %d bytes image/jpeg", len(data), mime, len(jpg))
	}

	data, mime, err = r.Bytes(context.Background(), clip)
	if err != nil {
		t.Fatalf("Bytes(video) failed: %v", err)
	}
	if string(data) != "fake video bytes" || mime != "video/mp4" {
		t.Errorf("Bytes(video) = %q %s", data, mime)
	}

	if _, _, err := r.Bytes(context.Background(), audio); !errors.Is(err, mediaerr.ErrUnavailable) {
		t.Errorf("Bytes(audio) error = %v, want ErrUnavailable", err)
	}
}
