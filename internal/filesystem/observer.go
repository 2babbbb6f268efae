package filesystem

// Observer records filesystem metrics. The metrics package implements it,
// which keeps this package free of a Prometheus import.
type Observer interface {
	// ObserveOperation records one attempt of an operation ("stat", "read",
	// "write", "readdir") against a volume ("media", "database").
	ObserveOperation(volume, operation string, durationSeconds float64, err error)

	// Retry bookkeeping for stale NFS handles. retryOp is one of "stat",
	// "open", "readfile", "write".
	ObserveRetryAttempt(retryOp, volume string)
	ObserveRetrySuccess(retryOp, volume string)
	ObserveRetryFailure(retryOp, volume string)
	ObserveRetryDuration(retryOp, volume string, durationSeconds float64)
	ObserveStaleError(retryOp, volume string)
}

// defaultObserver is nil in tests, which disables recording.
var defaultObserver Observer

// SetObserver installs the package-level observer. Call once at startup.
func SetObserver(o Observer) {
	defaultObserver = o
}

func observe() Observer {
	return defaultObserver
}
