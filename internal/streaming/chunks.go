package streaming

import (
	"context"
	"encoding/json"
	"net/http"

	"media-library/internal/library"
	"media-library/internal/logging"
	"media-library/internal/mediaerr"
)

// ContentTypeNDJSON is the media type of chunk streams.
const ContentTypeNDJSON = "application/x-ndjson"

// errorLine terminates a chunk stream that failed after it started.
type errorLine struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// WriteChunks writes every chunk of stream as one JSON line. It always
// closes stream. The returned error is the stream's own error, or the
// write error that ended it early.
func WriteChunks(ctx context.Context, w http.ResponseWriter, stream *library.Stream, config TimeoutWriterConfig) error {
	defer stream.Close()

	tw := NewTimeoutWriter(ctx, w, config)
	defer func() {
		if err := tw.Close(); err != nil {
			logging.Warn("Failed to close timeout writer: %v", err)
		}
	}()

	w.Header().Set("Content-Type", ContentTypeNDJSON)
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(tw)
	chunks := 0
	for {
		select {
		case chunk, ok := <-stream.C:
			if !ok {
				return finish(enc, tw, stream.Err(), chunks)
			}
			if err := enc.Encode(chunk); err != nil {
				logging.Debug("Chunk stream ended after %d chunks: %v", chunks, err)
				return err
			}
			tw.Flush()
			chunks++

		case <-tw.Done():
			err := tw.contextError()
			logging.Debug("Chunk stream ended after %d chunks: %v", chunks, err)
			return err
		}
	}
}

func finish(enc *json.Encoder, tw *TimeoutWriter, err error, chunks int) error {
	bytesWritten, duration := tw.Stats()
	if err == nil {
		logging.Debug("Chunk stream completed: %d chunks, %d bytes in %v", chunks, bytesWritten, duration)
		return nil
	}

	if encErr := enc.Encode(errorLine{Error: err.Error(), Code: mediaerr.Code(err)}); encErr != nil {
		logging.Debug("Failed to write stream error line: %v", encErr)
	}
	tw.Flush()
	return err
}
