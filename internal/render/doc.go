// Package render produces thumbnails and full-size images for catalogued
// assets, and holds the prefetch cache that renders thumbnails ahead of
// requests.
//
// Images are decoded with the standard decoders plus golang.org/x/image
// (webp, bmp, tiff), re-rasterised upright according to their EXIF
// orientation, and scaled to cover the requested box without cropping.
// Output is PNG when the bitmap carries alpha and JPEG otherwise. Video
// assets are rendered from an ffmpeg poster frame when ffmpeg is present.
//
// Builds with the vips tag decode and shrink thumbnails with libvips
// first and fall back to the pure Go path on failure.
package render
