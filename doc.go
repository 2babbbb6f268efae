// Command media-library serves a media library over HTTP.
//
// Startup order:
//
//  1. Memory: GOMEMLIMIT is taken from the environment or derived from
//     MEMORY_LIMIT, and the heap monitor throttles thumbnail prefetch.
//  2. Configuration: environment variables are read and validated.
//  3. Library: the SQLite catalogue is opened under DATABASE_DIR, the
//     authorization gate restores its stored state and the indexer starts
//     scanning MEDIA_DIR (periodically and, with WATCH_ENABLED, on change).
//  4. HTTP: the /api operations, health probes and /version are served on
//     PORT; Prometheus metrics on METRICS_PORT when METRICS_ENABLED.
//
// SIGINT or SIGTERM stops both servers, the metrics collector and the
// library, in that order, waiting up to 30 seconds for in-flight requests.
//
// Library streams (/api/library) are newline-delimited JSON with one chunk
// per line; the server sets no write timeout and streams enforce their own.
//
// See cmd/libraryctl for running the same operations from a shell.
package main
