package indexer

import (
	"context"
	"fmt"
	"image"
	_ "image/gif" // register decoders for DecodeConfig
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"media-library/internal/catalog"
	"media-library/internal/filesystem"
	"media-library/internal/logging"
	"media-library/internal/mediatypes"
	"media-library/internal/metadata"
	"media-library/internal/video"
)

// describe turns a walked file into a catalogue entry. Files the
// catalogue does not record yield a nil entry.
func describe(ctx context.Context, prober *video.Prober, job fileJob) (*Entry, error) {
	name := job.info.Name()
	if !mediatypes.IsCatalogued(name) {
		return nil, nil
	}
	mime := mediatypes.MimeTypeFor(name)
	kind := mediatypes.KindOf(mime)
	if kind == mediatypes.KindAudio {
		return nil, nil
	}

	place := classify(job.relPath, kind)
	a := catalog.Asset{
		FileName:         name,
		OriginalFileName: name,
		Path:             job.path,
		MimeType:         mime,
		Kind:             kind,
		Source:           place.source,
		Origin:           catalog.OriginIndexed,
		CreationDate:     job.info.ModTime(),
		BurstIdentifier:  place.burstID,
		RepresentsBurst:  place.representsBurst,
		Size:             job.info.Size(),
	}
	if place.composed {
		a.SandboxToken = sandboxToken(job.relPath, job.path)
	}

	switch kind {
	case mediatypes.KindImage:
		if err := describeImage(&a); err != nil {
			return nil, fmt.Errorf("%s: %w", job.relPath, err)
		}
	case mediatypes.KindVideo:
		describeVideo(ctx, prober, &a)
	}

	return &Entry{Asset: a, Album: place.album}, nil
}

// describeImage reads dimensions and EXIF date, position and orientation.
// Undecodable images are still catalogued with what is known.
func describeImage(a *catalog.Asset) error {
	f, err := filesystem.OpenWithRetry(a.Path, filesystem.DefaultRetryConfig())
	if err != nil {
		return err
	}
	defer f.Close()

	if cfg, _, err := image.DecodeConfig(f); err == nil {
		a.Width, a.Height = cfg.Width, cfg.Height
	} else {
		logging.Debug("No dimensions for %s: %v", a.Path, err)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	ext, err := metadata.Decode(f)
	if err != nil {
		return nil
	}

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
	return nil
}

// describeVideo fills duration and display size when ffprobe is present.
func describeVideo(ctx context.Context, prober *video.Prober, a *catalog.Asset) {
	if !prober.CanProbe() || a.MimeType == "application/x-mpegURL" {
		return
	}
	info, err := prober.Probe(ctx, a.Path)
	if err != nil {
		logging.Debug("Probe failed for %s: %v", a.Path, err)
		return
	}
	a.Width, a.Height, a.Duration = info.Width, info.Height, info.Duration
}
