package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register decoders
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"media-library/internal/catalog"
	"media-library/internal/filesystem"
	"media-library/internal/library"
	"media-library/internal/logging"
	"media-library/internal/mediaerr"
	"media-library/internal/mediatypes"
	"media-library/internal/metadata"
	"media-library/internal/metrics"
	"media-library/internal/video"
)

// Containers the media store accepts for video imports.
var compatibleContainers = []string{
	"video/mp4",
	"video/quicktime",
	"video/x-m4v",
	"video/3gpp",
}

// Store is the catalogue view the writer needs.
type Store interface {
	ImportDir() string
	InsertAsset(ctx context.Context, a *catalog.Asset) error
	AddToAlbum(ctx context.Context, title string, assetIDs ...string) (catalog.Collection, bool, error)
	RefreshSmartAlbums(ctx context.Context) error
	CollectionsContaining(ctx context.Context, assetID string) ([]string, error)
}

// Config tunes the writer.
type Config struct {
	// FetchTimeout bounds http(s) source downloads.
	FetchTimeout time.Duration
	// Client fetches http(s) sources; http.DefaultClient when nil.
	Client *http.Client
}

// Writer imports external media into the store.
type Writer struct {
	store        Store
	prober       *video.Prober
	client       *http.Client
	fetchTimeout time.Duration
	now          func() time.Time
}

// NewWriter returns a writer. prober may be nil, in which case video
// codecs are not checked.
func NewWriter(store Store, prober *video.Prober, cfg Config) *Writer {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 30 * time.Second
	}
	if cfg.Client == nil {
		cfg.Client = http.DefaultClient
	}
	return &Writer{
		store:        store,
		prober:       prober,
		client:       cfg.Client,
		fetchTimeout: cfg.FetchTimeout,
		now:          time.Now,
	}
}

// SaveImage stores the image behind source in album, creating the album
// if needed, and returns the new item with its album ids.
func (w *Writer) SaveImage(ctx context.Context, source, album string) (item library.LibraryItem, err error) {
	const op = "importer.SaveImage"
	defer func() { observeImport(mediatypes.KindImage, err) }()

	p, err := w.resolve(ctx, op, source)
	if err != nil {
		return item, err
	}

	mime := mimetype.Detect(p.data)
	cfg, _, err := image.DecodeConfig(bytes.NewReader(p.data))
	if err != nil {
		return item, importErr(op, mediaerr.ErrDecodeFailed, fmt.Errorf("%s: %w", mime, err))
	}

	a := &catalog.Asset{
		MimeType:     mime.String(),
		Kind:         mediatypes.KindImage,
		Width:        cfg.Width,
		Height:       cfg.Height,
		CreationDate: w.now(),
	}
	if ext, err := metadata.Parse(p.data); err == nil {
		if taken, ok := ext.Taken(); ok {
			a.CreationDate = taken
		}
		if metadata.SwapsAxes(ext.OrientationValue()) {
			a.Width, a.Height = a.Height, a.Width
		}
		if ext.GPS != nil {
			a.Latitude, a.Longitude = ext.GPS.Latitude, ext.GPS.Longitude
			if speed, ok := ext.GPS.SpeedMetersPerSecond(); ok {
				a.Speed = &speed
			}
		}
	}

	if err := w.write(ctx, op, a, p, album); err != nil {
		return item, err
	}

	item = library.ItemFromAsset(*a, false)
	item.FilePath = &a.Path
	item.AlbumIDs, err = w.store.CollectionsContaining(ctx, a.ID)
	if err != nil {
		return item, mediaerr.New(mediaerr.ErrImportFailed, op, err).WithAsset(a.ID)
	}
	return item, nil
}

// SaveVideo stores the video behind source in album. The container and,
// when ffprobe is installed, the codec are checked before anything is
// written.
func (w *Writer) SaveVideo(ctx context.Context, source, album string) (err error) {
	const op = "importer.SaveVideo"
	defer func() { observeImport(mediatypes.KindVideo, err) }()

	p, err := w.resolve(ctx, op, source)
	if err != nil {
		return err
	}

	mime := mimetype.Detect(p.data)
	if !compatibleContainer(mime) {
		return mediaerr.New(mediaerr.ErrIncompatibleMedia, op, fmt.Errorf("unsupported container %s", mime))
	}

	a := &catalog.Asset{
		MimeType:     mime.String(),
		Kind:         mediatypes.KindVideo,
		CreationDate: w.now(),
	}

	if w.prober.CanProbe() {
		info, err := w.prober.ProbeBytes(ctx, w.store.ImportDir(), p.data)
		if err != nil {
			return mediaerr.New(mediaerr.ErrIncompatibleMedia, op, err)
		}
		if !video.IsCompatibleCodec(info.Codec) {
			return mediaerr.New(mediaerr.ErrIncompatibleMedia, op, fmt.Errorf("unsupported codec %q", info.Codec))
		}
		a.Width, a.Height, a.Duration = info.Width, info.Height, info.Duration
	} else {
		logging.Debug("ffprobe unavailable, accepting %s on container alone", mime)
	}

	if err := w.write(ctx, op, a, p, album); err != nil {
		return err
	}
	if err := w.store.RefreshSmartAlbums(ctx); err != nil {
		logging.Warn("Failed to refresh smart albums after import of %s: %v", a.ID, err)
	}
	return nil
}

// write stores the bytes, catalogues the new asset and links it into
// album. The album is created in the same transaction as the link, so an
// index pass pruning empty albums cannot remove it in between.
func (w *Writer) write(ctx context.Context, op string, a *catalog.Asset, p *payload, album string) error {
	album = strings.TrimSpace(album)
	if album == "" {
		return mediaerr.New(mediaerr.ErrImportFailed, op, errors.New("album title is empty"))
	}

	ext := mediatypes.ExtensionFor(a.MimeType)
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(p.name))
	}

	a.ID = uuid.NewString()
	a.FileName = a.ID + ext
	a.OriginalFileName = p.name
	if a.OriginalFileName == "" {
		a.OriginalFileName = a.FileName
	}
	a.Path = filepath.Join(w.store.ImportDir(), a.FileName)
	a.Origin = catalog.OriginImported
	a.Source = mediatypes.SourceLocal
	a.Size = int64(len(p.data))

	if err := filesystem.WriteFileAtomic(a.Path, p.data, 0o644, filesystem.DefaultRetryConfig()); err != nil {
		return mediaerr.New(mediaerr.ErrImportFailed, op, err)
	}
	metrics.ImportBytes.WithLabelValues(string(a.Kind)).Add(float64(a.Size))

	if err := w.store.InsertAsset(ctx, a); err != nil {
		return mediaerr.New(mediaerr.ErrImportFailed, op, err).WithAsset(a.ID)
	}
	col, created, err := w.store.AddToAlbum(ctx, album, a.ID)
	if err != nil {
		return mediaerr.New(mediaerr.ErrImportFailed, op, fmt.Errorf("link to album %q: %w", album, err)).WithAsset(a.ID)
	}
	if created {
		logging.Info("Created album %q (%s)", album, col.ID)
	}

	logging.Info("Imported %s %s into album %q (%d bytes)", a.Kind, a.ID, album, a.Size)
	return nil
}

func compatibleContainer(m *mimetype.MIME) bool {
	for _, c := range compatibleContainers {
		if m.Is(c) {
			return true
		}
	}
	return false
}

func observeImport(kind mediatypes.Kind, err error) {
	status := "success"
	if err != nil {
		status = strings.ToLower(mediaerr.Code(err))
	}
	metrics.ImportsTotal.WithLabelValues(string(kind), status).Inc()
}
