// Package handlers provides HTTP request handlers for the media library API.
//
// It includes handlers for:
//   - The chunked library stream (newline-delimited JSON)
//   - Authorization state and requests
//   - Albums, smart albums and moments
//   - Thumbnails, full-size photos and raw asset bytes
//   - Imports into albums
//   - Health checks, version and re-indexing
//
// Errors are JSON objects {"error", "code"} with the status chosen by
// mediaerr.HTTPStatus; asset errors add "assetId" and a permanent
// authorization denial adds "settingsUrl" when one is configured.
package handlers
