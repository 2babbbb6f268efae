// Package mediatypes classifies catalogue assets by media kind and maps
// file extensions to MIME types.
//
// It has no dependencies outside the standard library so that the catalog,
// indexer, library and importer packages can all share it without cycles.
//
// # Media Kinds
//
// Every asset has exactly one Kind. The kind drives enrichment (images are
// parsed for EXIF, videos resolve a file or sandbox path) and the renderer's
// choice of decoder:
//
//	kind := mediatypes.KindOf(item.MimeType)
//	switch kind {
//	case mediatypes.KindImage:
//	case mediatypes.KindVideo:
//	}
//
// # MIME Types
//
// MimeTypeFor maps a file name's extension to the MIME type reported on
// LibraryItem.mimeType, falling back to application/octet-stream:
//
//	mediatypes.MimeTypeFor("IMG_0001.JPG") // "image/jpeg"
//	mediatypes.MimeTypeFor("stream.m3u8")  // "application/x-mpegURL"
package mediatypes
