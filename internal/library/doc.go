// Package library implements the asset retrieval pipeline behind
// getLibrary.
//
// A Pipeline runs three goroutine stages joined by bounded channels:
//
//	enumerate ──items──▶ enrich (bounded fan-out) ──completions──▶ assemble ──▶ Stream.C
//
// The enumerator walks a catalogue cursor newest first and converts each
// row to a bare LibraryItem, looking one row ahead so the final item is
// known before it is dispatched. Enrichment adds the file path and, for
// images, the EXIF block; items finish in any order. The assembler groups
// completions into chunks and flushes on three triggers, in priority
// order:
//
//  1. the final item is known and every item has completed (isLastChunk)
//  2. the chunk holds ItemsInChunk items
//  3. ChunkTimeSec has elapsed since the previous flush
//
// The time trigger is evaluated only when an item completes.
//
// Cancelling the context passed to Run ends the stream without a final
// chunk; Stream.Err then reports the cancellation.
package library
