/*
Package filesystem wraps the file operations used to read and write media
assets with retry logic for NFS stale file handle errors (ESTALE).

# Background

Media libraries are commonly served from NFS. A stale file handle occurs
when a file or directory a client holds a handle to is replaced on the
server: an import that renames a temp file into place, a sync tool
rewriting a folder, a server failover. The error is transient; reopening
the path usually succeeds a few milliseconds later.

Only ESTALE is retried. ENOENT, EACCES and every other error are returned
on the first attempt, so a missing asset is reported as missing without
delay.

# Operations

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())
	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	data, err := filesystem.ReadFileWithRetry(path, filesystem.DefaultRetryConfig())
	err := filesystem.WriteFileAtomic(path, data, 0o644, filesystem.DefaultRetryConfig())

Within the service they are used as follows:

  - the catalogue checks that an asset still has a local file (Stat) and
    serves original bytes (ReadFile);
  - the renderer loads source bitmaps (ReadFile);
  - the indexer reads EXIF headers (Open);
  - the importer reads local sources (ReadFile) and writes imported
    assets (WriteFileAtomic).

WriteFileAtomic writes to a temporary file in the target directory and
renames it into place. Readers of the media directory, including the
watcher-driven indexer, never see a partially written asset. The target
directory is created if needed.

# Retry Behavior

DefaultRetryConfig retries up to three times with exponential backoff:

	attempt 1: immediate
	attempt 2: after 50ms
	attempt 3: after 100ms
	attempt 4: after 200ms

Backoff doubles after each attempt and is capped at MaxBackoff (500ms).
After the last attempt the final ESTALE error is returned unchanged, so
callers can still match it with errors.Is(err, syscall.ESTALE).

# Metrics

Measurements go to the Observer installed with SetObserver. The package
never imports the metrics package; main wires the Prometheus
implementation:

	filesystem.SetObserver(metrics.NewFilesystemObserver())

Without an observer nothing is recorded. Each operation reports its
duration and error, and the retry loop reports stale errors, attempts,
successes after retry, final failures and total time spent.

# Volumes

Metrics are labelled with a volume name rather than a path. A
VolumeResolver maps paths to names by longest prefix:

	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
	    "media":    config.MediaDir,
	    "database": config.DatabaseDir,
	}))

Paths outside every configured volume are labelled "unknown". A
RetryConfig may carry its own VolumeResolver, which then takes precedence
over the default.

# Thread Safety

The operations are safe for concurrent use. SetObserver and
SetDefaultVolumeResolver are meant to be called once during startup,
before any file is touched.
*/
package filesystem
