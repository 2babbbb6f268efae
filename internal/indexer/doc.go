// Package indexer keeps the catalogue in step with the media directory.
//
// A full index walks MEDIA_DIR with a pool of workers that read EXIF
// dates, GPS positions and video properties, then:
//   - upserts every catalogued file, keeping ids stable across runs
//   - links files to a user album named after their top-level folder
//   - removes indexed rows whose file has disappeared
//   - refreshes the smart albums and re-clusters moments
//
// Directory layout conventions:
//   - Shared/ holds cloud-only assets, Synced/ holds synced assets;
//     the next folder level names the album
//   - videos inside an Edited/ folder are composed renders reached
//     through a sandbox token
//   - hidden files and directories (prefixed with '.') are skipped,
//     which keeps the .imports store out of the walk
//
// Runs are triggered at startup, on a fixed interval, by fsnotify
// change events (debounced) and on demand.
package indexer
