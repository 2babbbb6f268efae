package indexer

import (
	"testing"

	"media-library/internal/mediatypes"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		relPath string
		kind    mediatypes.Kind
		want    placement
	}{
		{
			name:    "root file",
			relPath: "IMG_0001.jpg",
			kind:    mediatypes.KindImage,
			want:    placement{source: mediatypes.SourceLocal},
		},
		{
			name:    "folder album",
			relPath: "Holiday/day1/IMG_0001.jpg",
			kind:    mediatypes.KindImage,
			want:    placement{source: mediatypes.SourceLocal, album: "Holiday"},
		},
		{
			name:    "shared is cloud",
			relPath: "Shared/Family/IMG_0001.jpg",
			kind:    mediatypes.KindImage,
			want:    placement{source: mediatypes.SourceCloud, album: "Family"},
		},
		{
			name:    "synced",
			relPath: "Synced/clip.mp4",
			kind:    mediatypes.KindVideo,
			want:    placement{source: mediatypes.SourceSynced},
		},
		{
			name:    "edited video is composed",
			relPath: "Holiday/Edited/clip.mp4",
			kind:    mediatypes.KindVideo,
			want:    placement{source: mediatypes.SourceLocal, album: "Holiday", composed: true},
		},
		{
			name:    "edited image is not composed",
			relPath: "Edited/IMG_0001.jpg",
			kind:    mediatypes.KindImage,
			want:    placement{source: mediatypes.SourceLocal},
		},
		{
			name:    "burst cover",
			relPath: "IMG_20240101_BURST001_COVER.jpg",
			kind:    mediatypes.KindImage,
			want:    placement{source: mediatypes.SourceLocal, burstID: "001", representsBurst: true},
		},
		{
			name:    "burst member",
			relPath: "Trip/IMG_20240101_burst001.JPG",
			kind:    mediatypes.KindImage,
			want:    placement{source: mediatypes.SourceLocal, album: "Trip", burstID: "001"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classify(tt.relPath, tt.kind)
			if got != tt.want {
				t.Errorf("Expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestSandboxToken(t *testing.T) {
	t.Parallel()

	got := sandboxToken("Trip/Edited/clip.mp4", "/media/Trip/Edited/clip.mp4")
	want := "media-library.sandbox;read;Trip/Edited/clip.mp4;/media/Trip/Edited/clip.mp4"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}
