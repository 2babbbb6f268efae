package library

import "time"

// assembler groups completed items into chunks. It is owned by a single
// goroutine.
type assembler struct {
	itemsInChunk int
	interval     time.Duration
	now          func() time.Time

	items     []LibraryItem
	chunkNum  int
	started   time.Time
	completed int64
}

func newAssembler(opts Options, now func() time.Time) *assembler {
	return &assembler{
		itemsInChunk: opts.ItemsInChunk,
		interval:     opts.chunkInterval(),
		now:          now,
		started:      now(),
	}
}

// add records a completion. total is the number of enumerated items, or
// negative while enumeration is still running. The returned trigger names
// the rule that flushed, if any.
func (a *assembler) add(item LibraryItem, total int64) (Chunk, string, bool) {
	a.items = append(a.items, item)
	a.completed++

	switch {
	case total >= 0 && a.completed >= total:
		return a.flush(true), "last", true
	case a.itemsInChunk > 0 && len(a.items) >= a.itemsInChunk:
		return a.flush(false), "size", true
	case a.interval > 0 && a.now().Sub(a.started) >= a.interval:
		return a.flush(false), "time", true
	}
	return Chunk{}, "", false
}

// finish flushes whatever remains as the final chunk.
func (a *assembler) finish() Chunk {
	return a.flush(true)
}

func (a *assembler) flush(last bool) Chunk {
	c := Chunk{
		Library:     a.items,
		ChunkNum:    a.chunkNum,
		IsLastChunk: last,
	}
	if c.Library == nil {
		c.Library = []LibraryItem{}
	}
	a.items = nil
	a.chunkNum++
	a.started = a.now()
	return c
}
