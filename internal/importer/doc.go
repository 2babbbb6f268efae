// Package importer writes external images and videos into the media
// store and files them under a user album.
//
// Sources may be base64 data URIs, file URLs, plain paths or http(s)
// URLs. Validation happens before anything is written; once the bytes
// are on disk, later failures report the new asset id so callers can
// find the orphan.
package importer
