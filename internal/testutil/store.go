package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"media-library/internal/catalog"
)

// NewStore opens a catalogue in a temporary directory, closed on cleanup.
func NewStore(tb testing.TB) *catalog.Store {
	tb.Helper()
	dir := tb.TempDir()
	s, err := catalog.Open(context.Background(), catalog.DefaultPath(dir), filepath.Join(dir, ".imports"))
	if err != nil {
		tb.Fatalf("catalog.Open: %v", err)
	}
	tb.Cleanup(func() { s.Close() })
	return s
}
