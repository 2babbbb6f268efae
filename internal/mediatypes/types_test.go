package mediatypes

import "testing"

func TestMimeTypeFor(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"IMG_0001.JPG", "image/jpeg"},
		{"scan.tif", "image/tiff"},
		{"clip.MOV", "video/quicktime"},
		{"live.m3u8", "application/x-mpegURL"},
		{"segment.ts", "video/MP2T"},
		{"notes.txt", DefaultMimeType},
		{"no-extension", DefaultMimeType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MimeTypeFor(tt.name); got != tt.want {
				t.Errorf("MimeTypeFor(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		mime string
		want Kind
	}{
		{"image/jpeg", KindImage},
		{"IMAGE/PNG", KindImage},
		{"video/mp4; codecs=avc1", KindVideo},
		{"application/x-mpegURL", KindVideo},
		{"audio/mpeg", KindAudio},
		{"application/octet-stream", KindOther},
		{"", KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			if got := KindOf(tt.mime); got != tt.want {
				t.Errorf("KindOf(%q) = %q, want %q", tt.mime, got, tt.want)
			}
		})
	}
}

func TestIsCatalogued(t *testing.T) {
	if !IsCatalogued("a.heic") {
		t.Error("IsCatalogued(a.heic) = false, want true")
	}
	if IsCatalogued("a.pdf") {
		t.Error("IsCatalogued(a.pdf) = true, want false")
	}
}

func TestExtensionFor(t *testing.T) {
	if got := ExtensionFor("image/png"); got != ".png" {
		t.Errorf("ExtensionFor(image/png) = %q, want .png", got)
	}
	if got := ExtensionFor("video/quicktime; foo=bar"); got != ".mov" {
		t.Errorf("ExtensionFor(video/quicktime) = %q, want .mov", got)
	}
	if got := ExtensionFor("text/plain"); got != "" {
		t.Errorf("ExtensionFor(text/plain) = %q, want empty", got)
	}
}
