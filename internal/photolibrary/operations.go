package photolibrary

import (
	"context"

	"media-library/internal/albums"
	"media-library/internal/authz"
	"media-library/internal/library"
	"media-library/internal/render"
)

// AuthorizationOptions selects the capabilities RequestAuthorization asks for.
type AuthorizationOptions struct {
	Read  bool `json:"read"`
	Write bool `json:"write"`
}

// DefaultAuthorizationOptions asks for read access only.
func DefaultAuthorizationOptions() AuthorizationOptions {
	return AuthorizationOptions{Read: true}
}

// MomentOptions bounds GetMoments. Dates use albums.QueryDateLayout; an
// empty bound is open.
type MomentOptions struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// ThumbnailOptions shapes a thumbnail. Zero fields take the defaults of
// render.DefaultSpec.
type ThumbnailOptions struct {
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	Quality float64 `json:"quality"`
	DataURL bool    `json:"dataURL"`
}

func (o ThumbnailOptions) spec() render.Spec {
	spec := render.DefaultSpec()
	if o.Width > 0 {
		spec.Width = o.Width
	}
	if o.Height > 0 {
		spec.Height = o.Height
	}
	if o.Quality > 0 {
		spec.Quality = o.Quality
	}
	spec.DataURL = o.DataURL
	return spec
}

// PhotoOptions shapes GetPhoto.
type PhotoOptions struct {
	DataURL bool `json:"dataURL"`
}

// GetLibrary streams the library in chunks. It starts a prefetch session
// sized by the options' thumbnail fields, replacing any earlier session,
// and feeds it the ids of every emitted chunk.
func (s *Service) GetLibrary(ctx context.Context, opts library.Options) (*library.Stream, error) {
	if err := s.gate.Require(authz.Read); err != nil {
		return nil, err
	}

	s.cache.Start(ThumbnailOptions{
		Width:   opts.ThumbnailWidth,
		Height:  opts.ThumbnailHeight,
		Quality: opts.Quality,
	}.spec())

	return s.pipeline.Run(ctx, opts, s.cache)
}

// RequestAuthorization asks for the selected capabilities, prompting for
// any that are undecided.
func (s *Service) RequestAuthorization(ctx context.Context, opts AuthorizationOptions) error {
	return s.gate.Request(ctx, opts.Read, opts.Write)
}

// IsAuthorized reports whether read access has been granted.
func (s *Service) IsAuthorized() bool {
	return s.gate.IsAuthorized()
}

// AuthorizationState returns the stored decision for c.
func (s *Service) AuthorizationState(c authz.Capability) authz.State {
	return s.gate.State(c)
}

// ResetAuthorization forgets the decision for c.
func (s *Service) ResetAuthorization(ctx context.Context, c authz.Capability) error {
	return s.gate.Reset(ctx, c)
}

// GetAlbums lists user and smart albums.
func (s *Service) GetAlbums(ctx context.Context) ([]albums.AlbumItem, error) {
	if err := s.gate.Require(authz.Read); err != nil {
		return nil, err
	}
	return s.albums.ListAlbums(ctx)
}

// GetMoments lists moments overlapping the range.
func (s *Service) GetMoments(ctx context.Context, opts MomentOptions) ([]albums.AlbumItem, error) {
	if err := s.gate.Require(authz.Read); err != nil {
		return nil, err
	}
	return s.albums.ListMoments(ctx, opts.From, opts.To)
}

// GetThumbnail returns an orientation-corrected thumbnail, from the
// prefetch cache when the active session has it.
func (s *Service) GetThumbnail(ctx context.Context, id string, opts ThumbnailOptions) (*render.RenderedImage, error) {
	if err := s.gate.Require(authz.Read); err != nil {
		return nil, err
	}
	return s.cache.Thumbnail(ctx, id, opts.spec())
}

// GetPhoto returns the full-size image, upright.
func (s *Service) GetPhoto(ctx context.Context, id string, opts PhotoOptions) (*render.RenderedImage, error) {
	if err := s.gate.Require(authz.Read); err != nil {
		return nil, err
	}
	return s.renderer.Photo(ctx, id, opts.DataURL)
}

// GetLibraryItemBytes returns the stored bytes of an asset and their mime type.
func (s *Service) GetLibraryItemBytes(ctx context.Context, id string) ([]byte, string, error) {
	if err := s.gate.Require(authz.Read); err != nil {
		return nil, "", err
	}
	return s.renderer.Bytes(ctx, id)
}

// StopCaching ends the prefetch session and releases its entries.
func (s *Service) StopCaching() {
	s.cache.Stop()
}

// SaveImage imports an image from url (data URI, path or http(s) URL)
// into the named album, creating the album if needed.
func (s *Service) SaveImage(ctx context.Context, url, album string) (library.LibraryItem, error) {
	if err := s.gate.Require(authz.Write); err != nil {
		return library.LibraryItem{}, err
	}
	item, err := s.writer.SaveImage(ctx, url, album)
	if err != nil {
		return library.LibraryItem{}, err
	}
	return item, nil
}

// SaveVideo imports a video into the named album.
func (s *Service) SaveVideo(ctx context.Context, url, album string) error {
	if err := s.gate.Require(authz.Write); err != nil {
		return err
	}
	return s.writer.SaveVideo(ctx, url, album)
}

// SetFavorite flags or unflags an asset and refreshes the Favorites album.
func (s *Service) SetFavorite(ctx context.Context, id string, favorite bool) error {
	if err := s.gate.Require(authz.Write); err != nil {
		return err
	}
	return s.store.SetFavorite(ctx, id, favorite)
}
