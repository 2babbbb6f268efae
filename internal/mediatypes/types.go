package mediatypes

import (
	"path/filepath"
	"strings"
)

// Kind is the media kind of an asset.
type Kind string

const (
	// KindImage is a still image.
	KindImage Kind = "image"
	// KindVideo is a video or streaming playlist.
	KindVideo Kind = "video"
	// KindAudio is an audio recording.
	KindAudio Kind = "audio"
	// KindOther is anything not recognised.
	KindOther Kind = "other"
)

// Source records where an asset's bytes live.
type Source string

const (
	// SourceLocal assets are stored on this device.
	SourceLocal Source = "local"
	// SourceSynced assets were synced from a desktop library.
	SourceSynced Source = "synced"
	// SourceCloud assets are network-only (shared streams, cloud albums).
	SourceCloud Source = "cloud"
)

// DefaultMimeType is reported for extensions with no known mapping.
const DefaultMimeType = "application/octet-stream"

// MimeTypes maps lowercase extensions (with leading dot) to MIME types.
var MimeTypes = map[string]string{
	// Images
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".heic": "image/heic",
	".heif": "image/heif",

	// Videos
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".3gp":  "video/3gpp",
	".avi":  "video/avi",
	".wmv":  "video/x-ms-wmv",
	".flv":  "video/x-flv",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".ts":   "video/MP2T",
	".m3u8": "application/x-mpegURL",

	// Audio
	".mp3": "audio/mpeg",
	".m4a": "audio/mp4",
	".wav": "audio/wav",
	".aac": "audio/aac",
}

// Extensions for generated files written by MediaWriter.
var extensionsByMime = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/bmp":       ".bmp",
	"image/webp":      ".webp",
	"image/tiff":      ".tiff",
	"image/heic":      ".heic",
	"video/mp4":       ".mp4",
	"video/quicktime": ".mov",
	"video/x-m4v":     ".m4v",
	"video/3gpp":      ".3gp",
}

// MimeTypeFor returns the MIME type for a file name based on its extension.
func MimeTypeFor(name string) string {
	if mime, ok := MimeTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return mime
	}
	return DefaultMimeType
}

// ExtensionFor returns the preferred file extension for a MIME type, or
// an empty string when there is none.
func ExtensionFor(mimeType string) string {
	return extensionsByMime[normalizeMime(mimeType)]
}

// KindOf derives the media kind from a MIME type.
func KindOf(mimeType string) Kind {
	mimeType = normalizeMime(mimeType)
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return KindImage
	case strings.HasPrefix(mimeType, "video/"), mimeType == "application/x-mpegurl":
		return KindVideo
	case strings.HasPrefix(mimeType, "audio/"):
		return KindAudio
	}
	return KindOther
}

// KindOfFile classifies a file name. Unknown extensions are KindOther.
func KindOfFile(name string) Kind {
	return KindOf(MimeTypeFor(name))
}

// IsCatalogued reports whether the indexer should record a file.
func IsCatalogued(name string) bool {
	return KindOfFile(name) != KindOther
}

func normalizeMime(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}
