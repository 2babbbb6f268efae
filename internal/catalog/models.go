package catalog

import (
	"strings"
	"time"

	"media-library/internal/mediatypes"
)

// Origin records how an asset entered the catalogue.
type Origin string

const (
	// OriginIndexed assets were discovered by the indexer and are removed
	// when their file disappears.
	OriginIndexed Origin = "indexed"
	// OriginImported assets were written by MediaWriter.
	OriginImported Origin = "imported"
)

// CollectionKind distinguishes user albums, smart albums and moments.
type CollectionKind string

const (
	KindAlbum  CollectionKind = "album"
	KindSmart  CollectionKind = "smart"
	KindMoment CollectionKind = "moment"
)

// Asset is one catalogued media item.
type Asset struct {
	ID               string
	FileName         string
	OriginalFileName string
	Path             string // absolute path of the stored bytes
	MimeType         string
	Kind             mediatypes.Kind
	Source           mediatypes.Source
	Origin           Origin
	Width            int
	Height           int
	CreationDate     time.Time
	Latitude         *float64
	Longitude        *float64
	Speed            *float64
	IsFavorite       bool
	BurstIdentifier  string
	RepresentsBurst  bool
	Duration         float64 // seconds, videos only
	SandboxToken     string  // set for composed assets (edited video renders)
	Size             int64
}

// Composed reports whether the asset is a composed/virtual render whose
// bytes are reached through its sandbox token rather than Path.
func (a Asset) Composed() bool {
	return a.SandboxToken != ""
}

// Collection is an album, smart album or moment.
type Collection struct {
	ID        string
	Title     string
	Kind      CollectionKind
	StartDate *time.Time
	EndDate   *time.Time
	Locations []string
}

// Filter selects assets for enumeration.
type Filter struct {
	IncludeImages bool
	IncludeVideos bool
	IncludeCloud  bool
	// Limit caps the number of rows; 0 means unbounded.
	Limit int
}

// Moment is a clustered collection produced by the indexer.
type Moment struct {
	Title     string
	StartDate time.Time
	EndDate   time.Time
	Locations []string
	AssetIDs  []string
}

// VideoResource describes how to reach a video's bytes.
type VideoResource struct {
	// Path is set for assets backed by a direct file.
	Path string
	// SandboxToken is set for composed assets.
	SandboxToken string
}

// FilePath returns the path of the video bytes. For composed assets it is
// the last ';'-separated segment of the sandbox token.
func (r VideoResource) FilePath() string {
	if r.SandboxToken != "" {
		return SandboxPath(r.SandboxToken)
	}
	return r.Path
}

// SandboxPath extracts the file path from a sandbox token.
func SandboxPath(token string) string {
	if i := strings.LastIndexByte(token, ';'); i >= 0 {
		return token[i+1:]
	}
	return token
}
