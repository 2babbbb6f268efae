package indexer

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"media-library/internal/catalog"
	"media-library/internal/mediatypes"
	"media-library/internal/testutil"
)

func newTestIndexer(t *testing.T, root string) (*Indexer, *catalog.Store) {
	t.Helper()
	s := testutil.NewStore(t)
	idx := New(s, nil, Config{MediaDir: root})
	idx.SetParallelConfig(ParallelWalkerConfig{NumWorkers: 2, BatchSize: 2, ChannelBuffer: 4, SkipHidden: true})
	return idx, s
}

func listAssets(t *testing.T, s *catalog.Store) map[string]catalog.Asset {
	t.Helper()
	cursor, err := s.Assets(context.Background(), catalog.Filter{IncludeImages: true, IncludeVideos: true, IncludeCloud: true})
	if err != nil {
		t.Fatalf("Assets failed: %v", err)
	}
	defer cursor.Close()

	byName := make(map[string]catalog.Asset)
	for cursor.Next() {
		a := cursor.Asset()
		byName[a.FileName] = a
	}
	if err := cursor.Err(); err != nil {
		t.Fatalf("cursor error: %v", err)
	}
	return byName
}

func albumTitles(t *testing.T, s *catalog.Store) []string {
	t.Helper()
	cols, err := s.ListCollections(context.Background(), catalog.KindAlbum)
	if err != nil {
		t.Fatalf("ListCollections failed: %v", err)
	}
	titles := []string{}
	for _, c := range cols {
		titles = append(titles, c.Title)
	}
	return titles
}

func TestIndexPopulatesCatalogue(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string][]byte{
		"root.jpg":              nil,
		"Trip/one.jpg":          nil,
		"Trip/sub/two.jpg":      nil,
		"Shared/Family/fam.jpg": nil,
		"Trip/Edited/cut.mp4":   nil,
		".imports/ignored.jpg":  nil,
	})

	idx, s := newTestIndexer(t, root)
	var completed atomic.Int32
	idx.SetOnIndexComplete(func() { completed.Add(1) })

	if err := idx.Index(context.Background()); err != nil {
		t.Fatalf("Index failed: %v", err)
	}

	assets := listAssets(t, s)
	if len(assets) != 5 {
		t.Fatalf("Expected 5 assets, got %d", len(assets))
	}
	if _, ok := assets["ignored.jpg"]; ok {
		t.Error("Expected hidden .imports directory to be skipped")
	}
	if got := assets["fam.jpg"].Source; got != mediatypes.SourceCloud {
		t.Errorf("Expected fam.jpg to be cloud, got %s", got)
	}
	if !assets["cut.mp4"].Composed() {
		t.Error("Expected cut.mp4 to be a composed render")
	}

	if got := albumTitles(t, s); !slices.Equal(got, []string{"Family", "Trip"}) {
		t.Errorf("Expected albums [Family Trip], got %v", got)
	}

	trip, _, err := s.GetOrCreateAlbum(context.Background(), "Trip")
	if err != nil {
		t.Fatalf("GetOrCreateAlbum failed: %v", err)
	}
	members, err := s.CollectionAssetIDs(context.Background(), trip.ID)
	if err != nil {
		t.Fatalf("CollectionAssetIDs failed: %v", err)
	}
	if len(members) != 3 {
		t.Errorf("Expected 3 Trip members, got %d", len(members))
	}

	videos, _ := s.CollectionAssetIDs(context.Background(), catalog.SmartAlbumID(catalog.SmartVideos))
	if !slices.Equal(videos, []string{assets["cut.mp4"].ID}) {
		t.Errorf("Expected Videos smart album to hold cut.mp4, got %v", videos)
	}

	if completed.Load() != 1 {
		t.Errorf("Expected completion callback once, got %d", completed.Load())
	}
	if !idx.IsReady() || idx.IsIndexing() || idx.LastIndexTime().IsZero() {
		t.Errorf("Expected ready idle indexer with a last index time, got ready=%v indexing=%v", idx.IsReady(), idx.IsIndexing())
	}
}

func TestIndexKeepsIDsAndRemovesMissing(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string][]byte{
		"Keep/a.jpg": nil,
		"Gone/b.jpg": nil,
	})

	idx, s := newTestIndexer(t, root)
	ctx := context.Background()
	if err := idx.Index(ctx); err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	before := listAssets(t, s)

	// An imported asset has no file under the media root and must survive.
	imported := &catalog.Asset{
		FileName:     "imp.png",
		Path:         filepath.Join(s.ImportDir(), "imp.png"),
		MimeType:     "image/png",
		Kind:         mediatypes.KindImage,
		CreationDate: time.Now(),
	}
	if err := s.InsertAsset(ctx, imported); err != nil {
		t.Fatalf("InsertAsset failed: %v", err)
	}
	if err := s.SetFavorite(ctx, before["a.jpg"].ID, true); err != nil {
		t.Fatalf("SetFavorite failed: %v", err)
	}

	if err := os.RemoveAll(filepath.Join(root, "Gone")); err != nil {
		t.Fatalf("RemoveAll failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if err := idx.Index(ctx); err != nil {
		t.Fatalf("second Index failed: %v", err)
	}

	after := listAssets(t, s)
	if _, ok := after["b.jpg"]; ok {
		t.Error("Expected b.jpg to be removed")
	}
	if _, ok := after["imp.png"]; !ok {
		t.Error("Expected imported asset to survive re-index")
	}
	a := after["a.jpg"]
	if a.ID != before["a.jpg"].ID {
		t.Errorf("Expected stable id %s, got %s", before["a.jpg"].ID, a.ID)
	}
	if !a.IsFavorite {
		t.Error("Expected favorite flag to survive re-index")
	}
	if got := albumTitles(t, s); !slices.Equal(got, []string{"Keep"}) {
		t.Errorf("Expected empty album Gone to be pruned, got %v", got)
	}
}

func TestIndexMissingRootKeepsCatalogue(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string][]byte{"a.jpg": nil})
	idx, s := newTestIndexer(t, root)
	if err := idx.Index(context.Background()); err != nil {
		t.Fatalf("Index failed: %v", err)
	}

	idx.config.MediaDir = filepath.Join(root, "unmounted")
	if err := idx.Index(context.Background()); err == nil {
		t.Error("Expected an error for a missing media directory")
	}
	if n := len(listAssets(t, s)); n != 1 {
		t.Errorf("Expected catalogue to keep 1 asset, got %d", n)
	}
}

func TestIndexBuildsMoments(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTree(t, root, map[string][]byte{"a.jpg": nil, "b.jpg": nil})
	// Spread the files over two days so they form two moments.
	old := time.Date(2020, 1, 1, 12, 0, 0, 0, time.UTC)
	if err := os.Chtimes(filepath.Join(root, "a.jpg"), old, old); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}

	idx, s := newTestIndexer(t, root)
	if err := idx.Index(context.Background()); err != nil {
		t.Fatalf("Index failed: %v", err)
	}

	moments, err := s.ListMoments(context.Background(), time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("ListMoments failed: %v", err)
	}
	if len(moments) != 2 {
		t.Errorf("Expected 2 moments, got %d", len(moments))
	}
}

func TestHealthStatus(t *testing.T) {
	t.Parallel()

	idx, _ := newTestIndexer(t, t.TempDir())
	status := idx.GetHealthStatus()
	if status.Ready || status.Indexing {
		t.Errorf("Expected fresh indexer to be neither ready nor indexing, got %+v", status)
	}

	idx.indexMu.Lock()
	idx.isIndexing = true
	idx.indexMu.Unlock()
	idx.updateProgress(time.Now())
	status = idx.GetHealthStatus()
	if status.IndexProgress == nil || !status.IndexProgress.IsIndexing {
		t.Error("Expected progress while indexing")
	}

	data, err := json.Marshal(status)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"indexProgress"`) {
		t.Errorf("Expected indexProgress in %s", data)
	}
}

func TestConcurrentIndexIsSkipped(t *testing.T) {
	t.Parallel()

	idx, _ := newTestIndexer(t, t.TempDir())
	if !idx.tryStartIndexing() {
		t.Fatal("Expected first start to succeed")
	}
	if err := idx.Index(context.Background()); err != nil {
		t.Errorf("Expected skipped index to return nil, got %v", err)
	}
	idx.finishIndexing()
	if idx.IsIndexing() {
		t.Error("Expected indexing to be finished")
	}
}

func TestStartWatchAndStop(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	s := testutil.NewStore(t)
	idx := New(s, nil, Config{MediaDir: root, Watch: true, Debounce: 50 * time.Millisecond, IndexInterval: time.Hour})

	var runs atomic.Int32
	idx.SetOnIndexComplete(func() { runs.Add(1) })

	if err := idx.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer idx.Stop()

	waitUntil(t, func() bool { return runs.Load() >= 1 })

	writeTree(t, root, map[string][]byte{"Later/new.jpg": nil})
	waitUntil(t, func() bool { return len(listAssets(t, s)) == 1 })

	idx.Stop()
	idx.Stop()
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("Timed out waiting for condition")
		}
		time.Sleep(20 * time.Millisecond)
	}
}
