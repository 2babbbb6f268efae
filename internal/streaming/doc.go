/*
Package streaming writes long-running HTTP responses with timeout
protection.

# Overview

Two responses in the media library can outlive a normal request: the
library enumeration, which emits chunks for as long as the catalogue has
items, and the original bytes of large assets. Both are served with the
server's WriteTimeout disabled, so this package bounds them instead.
Without it a slow or vanished client would pin an enumeration, its
enrichment workers and the thumbnail prefetch session.

# TimeoutWriter

TimeoutWriter wraps an http.ResponseWriter:

  - every Write must finish within WriteTimeout (ErrWriteTimeout);
  - a stream with no successful write for IdleTimeout is cancelled;
  - the request context ending stops the stream (ErrClientGone);
  - Close or an idle timeout stops it as well (ErrStreamCanceled).

DefaultTimeoutWriterConfig allows 30 seconds per write and two minutes
between writes. The idle limit is generous on purpose: a chunk is only
written once the assembler flushes it, and a library on slow storage can
go a while between chunks.

	tw := streaming.NewTimeoutWriter(r.Context(), w, streaming.DefaultTimeoutWriterConfig())
	defer tw.Close()

Done is closed as soon as the writer can no longer write, so a producer
can select on it next to its own channel.

# Chunk Streams

WriteChunks renders a library.Stream as newline-delimited JSON
(ContentTypeNDJSON), one chunk per line, flushing after each line so the
client receives chunks as the assembler emits them:

	stream, err := svc.GetLibrary(r.Context(), opts)
	if err != nil {
	    ... // authorization and option errors still get a normal status
	}
	err = streaming.WriteChunks(r.Context(), w, stream, streaming.DefaultTimeoutWriterConfig())

The 200 status is committed before the first chunk. If the stream fails
after that, a final line reports the failure instead:

	{"error":"catalog: query failed","code":"Unavailable"}

The code is mediaerr.Code of the error, the same value the JSON error
body of other endpoints carries. A client should treat a stream without
a chunk whose isLastChunk is true as incomplete.

WriteChunks always closes the stream. When the client goes away or the
writer times out, closing the stream cancels enumeration and enrichment,
so no work continues for a response nobody reads.

# Raw Bytes

StreamWithTimeout copies an io.Reader to the response through a
TimeoutWriter. It is used for original asset bytes, where the caller has
already set Content-Type.

# Errors

ErrClientGone is the expected end of most aborted streams and is not
worth logging above debug level; handlers filter it out. ErrWriteTimeout
and ErrStreamCanceled indicate a stuck client or network and are logged
as warnings.
*/
package streaming
