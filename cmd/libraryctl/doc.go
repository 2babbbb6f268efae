// Command libraryctl runs single media library operations against the
// catalogue without starting the HTTP server.
//
// Usage:
//
//	libraryctl [--media-dir DIR] [--database-dir DIR] [--auth-mode MODE] <command>
//
// Commands:
//
//	index          Scan MEDIA_DIR and refresh the catalogue.
//	authorize      Request read (and with --write, write) access.
//	library        Stream the library to stdout as NDJSON chunks.
//	albums         List albums as JSON.
//	moments        List moments as JSON, optionally bounded by --from/--to.
//	thumbnail <id> Render a thumbnail.
//	photo <id>     Render a full-size photo.
//	bytes <id>     Copy an item's original bytes.
//	save-image     Import an image into an album.
//	save-video     Import a video into an album.
//	favorite <id>  Set or clear the favorite flag.
//	version        Print build information.
//
// Configuration is read from the same environment variables as the
// server (MEDIA_DIR, DATABASE_DIR, AUTH_MODE, SETTINGS_URL, MOMENT_GAP,
// PLACES_FILE, FETCH_TIMEOUT and so on). With AUTH_MODE=prompt the
// authorization question is asked on the terminal.
//
// Authorization answers are stored in the catalogue, so a grant given
// once carries over to later invocations and to the server.
package main
