package library

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"media-library/internal/catalog"
	"media-library/internal/mediatypes"
	"media-library/internal/testutil"
)

func TestMetadataEnricher(t *testing.T) {
	s := testutil.NewStore(t)
	ctx := context.Background()
	dir := t.TempDir()

	photoPath := filepath.Join(dir, "photo.jpg")
	photo := testutil.JPEGWithEXIF(t, testutil.Quadrants(8, 6), testutil.EXIF{Orientation: 3, Make: "Acme"})
	if err := os.WriteFile(photoPath, photo, 0o644); err != nil {
		t.Fatal(err)
	}
	plainPath := filepath.Join(dir, "plain.png")
	if err := os.WriteFile(plainPath, testutil.EncodePNG(t, testutil.Quadrants(4, 4)), 0o644); err != nil {
		t.Fatal(err)
	}
	clipPath := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(clipPath, []byte("not really a video"), 0o644); err != nil {
		t.Fatal(err)
	}

	now := time.Now()
	assets := []catalog.Asset{
		{FileName: "photo.jpg", Path: photoPath, MimeType: "image/jpeg", Kind: mediatypes.KindImage, CreationDate: now},
		{FileName: "plain.png", Path: plainPath, MimeType: "image/png", Kind: mediatypes.KindImage, CreationDate: now},
		{FileName: "clip.mp4", Path: clipPath, MimeType: "video/mp4", Kind: mediatypes.KindVideo, CreationDate: now},
		{FileName: "render.mov", Path: filepath.Join(dir, "Edited", "render.mov"), MimeType: "video/quicktime", Kind: mediatypes.KindVideo, CreationDate: now,
			SandboxToken: "media-library.sandbox;read;Edited/render.mov;/renders/render.mov"},
		{FileName: "gone.jpg", Path: filepath.Join(dir, "gone.jpg"), MimeType: "image/jpeg", Kind: mediatypes.KindImage, CreationDate: now},
		{FileName: "gone.mp4", Path: filepath.Join(dir, "gone.mp4"), MimeType: "video/mp4", Kind: mediatypes.KindVideo, CreationDate: now},
		{FileName: "song.mp3", Path: filepath.Join(dir, "song.mp3"), MimeType: "audio/mpeg", Kind: mediatypes.KindAudio, CreationDate: now},
	}
	if err := s.UpsertAssets(ctx, assets, now); err != nil {
		t.Fatalf("UpsertAssets failed: %v", err)
	}

	tests := []struct {
		name         string
		asset        catalog.Asset
		wantPath     string
		wantMetadata bool
	}{
		{"image with exif", assets[0], photoPath, true},
		{"image without exif", assets[1], plainPath, false},
		{"direct video", assets[2], clipPath, false},
		{"composed video", assets[3], "/renders/render.mov", false},
		{"missing image", assets[4], "", false},
		{"missing video", assets[5], "", false},
		{"audio", assets[6], "", false},
	}

	e := NewMetadataEnricher(s)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := ItemFromAsset(tt.asset, false)
			if item.FilePath != nil {
				t.Fatal("FilePath set before enrichment")
			}

			e.Enrich(ctx, &item)

			switch {
			case tt.wantPath == "" && item.FilePath != nil:
				t.Errorf("FilePath = %q, want nil", *item.FilePath)
			case tt.wantPath != "" && (item.FilePath == nil || *item.FilePath != tt.wantPath):
				t.Errorf("FilePath = %v, want %q", item.FilePath, tt.wantPath)
			}
			if (item.Metadata != nil) != tt.wantMetadata {
				t.Errorf("Metadata = %+v, want present=%v", item.Metadata, tt.wantMetadata)
			}
		})
	}

	item := ItemFromAsset(assets[0], false)
	e.Enrich(ctx, &item)
	if got := item.Metadata.OrientationValue(); got != 3 {
		t.Errorf("orientation = %d, want 3", got)
	}
}

func TestItemFromAsset(t *testing.T) {
	lat := 51.5
	created := time.Date(2024, 2, 29, 13, 45, 30, 123_000_000, time.UTC)
	a := catalog.Asset{
		ID:               "id-1",
		FileName:         "IMG_0001.MOV",
		OriginalFileName: "holiday.mov",
		MimeType:         "video/quicktime",
		Kind:             mediatypes.KindVideo,
		Width:            1920,
		Height:           1080,
		CreationDate:     created,
		Latitude:         &lat,
		Duration:         4.5,
		BurstIdentifier:  "burst-1",
		RepresentsBurst:  true,
	}

	item := ItemFromAsset(a, false)
	if item.FileName != "IMG_0001.MOV" {
		t.Errorf("FileName = %q, want IMG_0001.MOV", item.FileName)
	}
	if item.CreationDate != "2024-02-29T13:45:30.123Z" {
		t.Errorf("CreationDate = %q", item.CreationDate)
	}
	if item.Duration == nil || *item.Duration != 4.5 {
		t.Errorf("Duration = %v, want 4.5", item.Duration)
	}
	if item.Longitude != nil {
		t.Errorf("Longitude = %v, want nil", *item.Longitude)
	}
	if item.BurstIdentifier == nil || *item.BurstIdentifier != "burst-1" || item.RepresentsBurst == nil || !*item.RepresentsBurst {
		t.Errorf("burst fields = %v %v", item.BurstIdentifier, item.RepresentsBurst)
	}
	if item.IsFavorite == nil || *item.IsFavorite {
		t.Errorf("IsFavorite = %v, want false", item.IsFavorite)
	}

	if got := ItemFromAsset(a, true).FileName; got != "holiday.mov" {
		t.Errorf("original FileName = %q, want holiday.mov", got)
	}

	a.Kind = mediatypes.KindImage
	a.BurstIdentifier = ""
	still := ItemFromAsset(a, false)
	if still.Duration != nil || still.BurstIdentifier != nil || still.RepresentsBurst != nil {
		t.Errorf("image item has video/burst fields: %+v", still)
	}
}
