package indexer

import (
	"os"
	"path/filepath"
	"testing"
)

// writeTree creates files below root; paths use forward slashes.
func writeTree(t testing.TB, root string, files map[string][]byte) {
	t.Helper()
	for rel, data := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("MkdirAll failed: %v", err)
		}
		if data == nil {
			data = []byte("data")
		}
		if err := os.WriteFile(p, data, 0o644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}
}

func ptr(f float64) *float64 { return &f }
