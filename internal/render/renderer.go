package render

import (
	"context"
	"errors"
	"image"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"media-library/internal/catalog"
	"media-library/internal/filesystem"
	"media-library/internal/logging"
	"media-library/internal/mediaerr"
	"media-library/internal/mediatypes"
	"media-library/internal/metadata"
	"media-library/internal/metrics"
	"media-library/internal/video"
)

// Source gives access to catalogued assets and their bytes.
type Source interface {
	GetAsset(ctx context.Context, id string) (catalog.Asset, error)
	ReadAsset(ctx context.Context, id string) ([]byte, catalog.Asset, error)
	VideoResource(ctx context.Context, id string) (catalog.VideoResource, error)
}

// Spec is a thumbnail request.
type Spec struct {
	Width   int
	Height  int
	Quality float64
	DataURL bool
}

// DefaultSpec returns the thumbnail size used when a caller sets none.
func DefaultSpec() Spec {
	return Spec{Width: 512, Height: 384, Quality: 0.5}
}

// Renderer renders assets on demand.
type Renderer struct {
	source Source
	prober *video.Prober
}

// NewRenderer returns a renderer. prober may be nil, in which case video
// assets have no thumbnail.
func NewRenderer(source Source, prober *video.Prober) *Renderer {
	return &Renderer{source: source, prober: prober}
}

// Thumbnail renders asset id to cover spec's box.
func (r *Renderer) Thumbnail(ctx context.Context, id string, spec Spec) (img *RenderedImage, err error) {
	start := time.Now()
	defer observeRender("thumbnail", start, &err)

	if spec.Width <= 0 || spec.Height <= 0 {
		d := DefaultSpec()
		spec.Width, spec.Height = d.Width, d.Height
	}

	asset, err := r.source.GetAsset(ctx, id)
	if err != nil {
		return nil, err
	}

	var bitmap image.Image
	var alpha bool
	switch mediatypes.KindOf(asset.MimeType) {
	case mediatypes.KindImage:
		data, _, err := r.source.ReadAsset(ctx, id)
		if err != nil {
			return nil, err
		}
		bitmap, alpha, err = thumbnailBitmap(data, spec.Width, spec.Height)
		if err != nil {
			return nil, unavailable("render.Thumbnail", id, err)
		}

	case mediatypes.KindVideo:
		frame, err := r.posterFrame(ctx, id)
		if err != nil {
			return nil, unavailable("render.Thumbnail", id, err)
		}
		alpha = hasAlpha(frame)
		bitmap = scaleCover(frame, spec.Width, spec.Height)

	default:
		return nil, unavailable("render.Thumbnail", id, errors.New("no renderable content"))
	}

	data, mimeType, err := encode(bitmap, alpha, spec.Quality)
	if err != nil {
		return nil, unavailable("render.Thumbnail", id, err)
	}
	return newRendered(data, mimeType, spec.DataURL), nil
}

// thumbnailBitmap decodes, orients and scales image bytes, and reports
// whether the decoded source had an alpha channel. libvips is tried first
// when compiled in.
func thumbnailBitmap(data []byte, w, h int) (image.Image, bool, error) {
	if img, err := vipsThumbnail(data, w, h); err == nil {
		return img, hasAlpha(img), nil
	} else if !errors.Is(err, errVipsUnavailable) {
		logging.Debug("vips thumbnail failed, using fallback: %v", err)
	}

	img, err := decode(data)
	if err != nil {
		return nil, false, err
	}
	ext, _ := metadata.Parse(data)
	return scaleCover(Orient(img, ext.OrientationValue()), w, h), hasAlpha(img), nil
}

// Photo returns the full-size image for asset id. Bytes that need no
// orientation fix are returned as stored; bytes that decode but are
// rotated are normalised and re-encoded at full quality; bytes that do
// not decode are returned as stored with a sniffed MIME type.
func (r *Renderer) Photo(ctx context.Context, id string, dataURL bool) (img *RenderedImage, err error) {
	start := time.Now()
	defer observeRender("photo", start, &err)

	asset, err := r.source.GetAsset(ctx, id)
	if err != nil {
		return nil, err
	}

	if mediatypes.KindOf(asset.MimeType) == mediatypes.KindVideo {
		frame, err := r.posterFrame(ctx, id)
		if err != nil {
			return nil, unavailable("render.Photo", id, err)
		}
		data, mimeType, err := encode(frame, hasAlpha(frame), 1.0)
		if err != nil {
			return nil, unavailable("render.Photo", id, err)
		}
		return newRendered(data, mimeType, dataURL), nil
	}

	data, _, err := r.source.ReadAsset(ctx, id)
	if err != nil {
		return nil, err
	}

	sniffed := mimetype.Detect(data).String()
	bitmap, err := decode(data)
	if err != nil {
		logging.Debug("Photo %s does not decode (%s), returning stored bytes", id, sniffed)
		return newRendered(data, sniffed, dataURL), nil
	}

	ext, _ := metadata.Parse(data)
	orientation := ext.OrientationValue()
	if orientation == 1 {
		return newRendered(data, sniffed, dataURL), nil
	}

	out, mimeType, err := encode(Orient(bitmap, orientation), hasAlpha(bitmap), 1.0)
	if err != nil {
		return nil, unavailable("render.Photo", id, err)
	}
	return newRendered(out, mimeType, dataURL), nil
}

// Bytes returns the raw stored bytes of an image or video asset.
func (r *Renderer) Bytes(ctx context.Context, id string) (data []byte, mimeType string, err error) {
	start := time.Now()
	defer observeRender("bytes", start, &err)

	asset, err := r.source.GetAsset(ctx, id)
	if err != nil {
		return nil, "", err
	}

	switch mediatypes.KindOf(asset.MimeType) {
	case mediatypes.KindImage:
		data, _, err = r.source.ReadAsset(ctx, id)
	case mediatypes.KindVideo:
		var res catalog.VideoResource
		res, err = r.source.VideoResource(ctx, id)
		if err == nil {
			data, err = filesystem.ReadFileWithRetry(res.FilePath(), filesystem.DefaultRetryConfig())
			if err != nil {
				err = unavailable("render.Bytes", id, err)
			}
		}
	default:
		err = unavailable("render.Bytes", id, errors.New("not an image or video"))
	}
	if err != nil {
		return nil, "", err
	}

	mimeType = asset.MimeType
	if mimeType == "" || mimeType == mediatypes.DefaultMimeType {
		mimeType = mimetype.Detect(data).String()
	}
	return data, mimeType, nil
}

func (r *Renderer) posterFrame(ctx context.Context, id string) (image.Image, error) {
	if !r.prober.CanExtractFrames() {
		return nil, video.ErrUnavailable
	}
	res, err := r.source.VideoResource(ctx, id)
	if err != nil {
		return nil, err
	}
	return r.prober.PosterFrame(ctx, res.FilePath())
}

func unavailable(op, id string, err error) error {
	return mediaerr.New(mediaerr.ErrUnavailable, op, err).WithAsset(id)
}

func observeRender(kind string, start time.Time, err *error) {
	status := "success"
	if *err != nil {
		status = "unavailable"
	}
	metrics.RendersTotal.WithLabelValues(kind, status).Inc()
	metrics.RenderDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}
