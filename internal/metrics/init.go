package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	volumes := []string{"media", "database", "unknown"}
	fsOps := []string{"read", "write", "stat", "readdir"}

	for _, vol := range volumes {
		for _, op := range fsOps {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
		}
		for _, op := range []string{"stat", "open", "readfile", "write"} {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}

	for _, status := range []string{"complete", "canceled", "error", "denied"} {
		EnumerationsTotal.WithLabelValues(status)
	}
	for _, trigger := range []string{"last", "size", "time"} {
		ChunksEmitted.WithLabelValues(trigger)
	}

	for _, kind := range []string{"image", "video", "audio", "other"} {
		EnrichmentsTotal.WithLabelValues(kind, "resolved")
		EnrichmentsTotal.WithLabelValues(kind, "unresolved")
		EnrichmentDuration.WithLabelValues(kind)
		AssetsTotal.WithLabelValues(kind)
	}

	for _, t := range []string{"thumbnail", "photo", "bytes"} {
		RendersTotal.WithLabelValues(t, "success")
		RendersTotal.WithLabelValues(t, "unavailable")
		RenderDuration.WithLabelValues(t)
	}
	for _, status := range []string{"rendered", "dropped", "unavailable"} {
		PrefetchTotal.WithLabelValues(status)
	}

	for _, capability := range []string{"read", "write"} {
		for _, outcome := range []string{"authorized", "denied", "redirected", "error"} {
			AuthorizationRequestsTotal.WithLabelValues(capability, outcome)
		}
	}

	for _, kind := range []string{"image", "video"} {
		for _, status := range []string{"success", "decode_failed", "incompatible", "import_failed"} {
			ImportsTotal.WithLabelValues(kind, status)
		}
		ImportBytes.WithLabelValues(kind)
	}

	for _, kind := range []string{"album", "smart", "moment"} {
		CollectionsTotal.WithLabelValues(kind)
	}

	for _, op := range []string{"create", "write", "remove", "rename", "chmod"} {
		WatcherEventsTotal.WithLabelValues(op)
	}

	for _, file := range []string{"main", "wal"} {
		DBSizeBytes.WithLabelValues(file)
	}

	for _, op := range []string{"initialize_schema", "list_assets", "get_asset", "collections_containing",
		"list_collections", "collection_assets", "get_or_create_album", "add_to_album", "insert_asset", "link_asset",
		"upsert_asset", "delete_missing_assets", "replace_moments", "refresh_smart_albums", "get_metadata", "set_metadata"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	for _, t := range []string{"commit", "rollback"} {
		DBTransactionDuration.WithLabelValues(t)
	}
}
