package catalog

import (
	"context"
	"errors"
	"os"

	"media-library/internal/filesystem"
	"media-library/internal/mediaerr"
)

// ReadAsset returns the stored bytes of an asset together with its record.
// A row whose file has vanished yields mediaerr.ErrNotFound.
func (s *Store) ReadAsset(ctx context.Context, id string) ([]byte, Asset, error) {
	a, err := s.GetAsset(ctx, id)
	if err != nil {
		return nil, Asset{}, err
	}
	if err := ctx.Err(); err != nil {
		return nil, a, err
	}

	data, err := filesystem.ReadFileWithRetry(a.Path, filesystem.DefaultRetryConfig())
	if err != nil {
		kind := mediaerr.ErrUnavailable
		if errors.Is(err, os.ErrNotExist) {
			kind = mediaerr.ErrNotFound
		}
		return nil, a, mediaerr.New(kind, "catalog.ReadAsset", err).WithAsset(id)
	}
	return data, a, nil
}

// VideoResource returns how to reach a video's bytes: its sandbox token
// for composed renders, otherwise its file path.
func (s *Store) VideoResource(ctx context.Context, id string) (VideoResource, error) {
	a, err := s.GetAsset(ctx, id)
	if err != nil {
		return VideoResource{}, err
	}
	if a.Composed() {
		return VideoResource{SandboxToken: a.SandboxToken}, nil
	}
	if _, err := filesystem.StatWithRetry(a.Path, filesystem.DefaultRetryConfig()); err != nil {
		return VideoResource{}, mediaerr.New(mediaerr.ErrNotFound, "catalog.VideoResource", err).WithAsset(id)
	}
	return VideoResource{Path: a.Path}, nil
}
