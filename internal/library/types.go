package library

import (
	"time"

	"media-library/internal/catalog"
	"media-library/internal/mediatypes"
	"media-library/internal/metadata"
)

// DateLayout formats item creation dates.
const DateLayout = "2006-01-02T15:04:05.000Z07:00"

// LibraryItem is one entry of a library chunk.
type LibraryItem struct {
	ID              string             `json:"id"`
	FileName        string             `json:"fileName"`
	MimeType        string             `json:"mimeType"`
	Width           int                `json:"width"`
	Height          int                `json:"height"`
	CreationDate    string             `json:"creationDate"`
	Latitude        *float64           `json:"latitude,omitempty"`
	Longitude       *float64           `json:"longitude,omitempty"`
	Speed           *float64           `json:"speed,omitempty"`
	IsFavorite      *bool              `json:"isFavorite,omitempty"`
	BurstIdentifier *string            `json:"burstIdentifier,omitempty"`
	RepresentsBurst *bool              `json:"representsBurst,omitempty"`
	Duration        *float64           `json:"duration,omitempty"`
	AlbumIDs        []string           `json:"albumIds,omitempty"`
	FilePath        *string            `json:"filePath,omitempty"`
	Metadata        *metadata.Extended `json:"metadata,omitempty"`
}

// Kind returns the media kind derived from the item's MIME type.
func (i *LibraryItem) Kind() mediatypes.Kind {
	return mediatypes.KindOf(i.MimeType)
}

// ItemFromAsset converts a catalogue row to a bare, unenriched item.
func ItemFromAsset(a catalog.Asset, useOriginalFileName bool) LibraryItem {
	name := a.FileName
	if useOriginalFileName && a.OriginalFileName != "" {
		name = a.OriginalFileName
	}

	favorite := a.IsFavorite
	item := LibraryItem{
		ID:           a.ID,
		FileName:     name,
		MimeType:     a.MimeType,
		Width:        a.Width,
		Height:       a.Height,
		CreationDate: a.CreationDate.Format(DateLayout),
		Latitude:     a.Latitude,
		Longitude:    a.Longitude,
		Speed:        a.Speed,
		IsFavorite:   &favorite,
	}

	if a.BurstIdentifier != "" {
		burst := a.BurstIdentifier
		represents := a.RepresentsBurst
		item.BurstIdentifier = &burst
		item.RepresentsBurst = &represents
	}
	if a.Kind == mediatypes.KindVideo && a.Duration > 0 {
		d := a.Duration
		item.Duration = &d
	}
	return item
}

// Options configures a getLibrary call.
type Options struct {
	ThumbnailWidth       int     `json:"thumbnailWidth"`
	ThumbnailHeight      int     `json:"thumbnailHeight"`
	Quality              float64 `json:"quality"`
	ItemsInChunk         int     `json:"itemsInChunk"`
	ChunkTimeSec         float64 `json:"chunkTimeSec"`
	UseOriginalFileNames bool    `json:"useOriginalFileNames"`
	IncludeImages        bool    `json:"includeImages"`
	IncludeVideos        bool    `json:"includeVideos"`
	IncludeAlbumData     bool    `json:"includeAlbumData"`
	IncludeCloudData     bool    `json:"includeCloudData"`
	MaxItems             int     `json:"maxItems"`
}

// DefaultOptions returns the options used when a caller sets none.
func DefaultOptions() Options {
	return Options{
		ThumbnailWidth:   512,
		ThumbnailHeight:  384,
		Quality:          0.5,
		ItemsInChunk:     100,
		ChunkTimeSec:     0.5,
		IncludeImages:    true,
		IncludeVideos:    false,
		IncludeAlbumData: false,
		IncludeCloudData: true,
		MaxItems:         0,
	}
}

// Filter returns the catalogue filter selected by the options.
func (o Options) Filter() catalog.Filter {
	return catalog.Filter{
		IncludeImages: o.IncludeImages,
		IncludeVideos: o.IncludeVideos,
		IncludeCloud:  o.IncludeCloudData,
		Limit:         o.MaxItems,
	}
}

func (o Options) chunkInterval() time.Duration {
	if o.ChunkTimeSec <= 0 {
		return 0
	}
	return time.Duration(o.ChunkTimeSec * float64(time.Second))
}

// Chunk is one batch of a library stream.
type Chunk struct {
	Library     []LibraryItem `json:"library"`
	ChunkNum    int           `json:"chunkNum"`
	IsLastChunk bool          `json:"isLastChunk"`
}

// Stream delivers the chunks of one getLibrary call.
type Stream struct {
	// C yields chunks in emission order and is closed when the stream
	// ends, whether complete, failed or cancelled.
	C <-chan Chunk

	cancel func()
	done   chan struct{}
	err    error
}

// Err blocks until the stream has ended and returns why it ended early,
// or nil after a final chunk was delivered.
func (s *Stream) Err() error {
	<-s.done
	return s.err
}

// Close cancels the stream and releases its resources.
func (s *Stream) Close() {
	s.cancel()
	for range s.C {
	}
	<-s.done
}

// Collect reads every chunk and returns them with the stream's error.
func (s *Stream) Collect() ([]Chunk, error) {
	var chunks []Chunk
	for c := range s.C {
		chunks = append(chunks, c)
	}
	return chunks, s.Err()
}
