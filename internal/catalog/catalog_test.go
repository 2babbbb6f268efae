package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"media-library/internal/mediaerr"
	"media-library/internal/mediatypes"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(context.Background(), DefaultPath(dir), filepath.Join(dir, ".imports"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testAsset(path string, kind mediatypes.Kind, created time.Time) Asset {
	mime := "image/jpeg"
	if kind == mediatypes.KindVideo {
		mime = "video/mp4"
	}
	name := filepath.Base(path)
	return Asset{
		FileName:         name,
		OriginalFileName: "orig-" + name,
		Path:             path,
		MimeType:         mime,
		Kind:             kind,
		Width:            640,
		Height:           480,
		CreationDate:     created,
	}
}

func collectIDs(t *testing.T, c *Cursor) []string {
	t.Helper()
	defer c.Close()
	ids := []string{}
	for c.Next() {
		ids = append(ids, c.Asset().ID)
	}
	if err := c.Err(); err != nil {
		t.Fatalf("cursor error: %v", err)
	}
	return ids
}

func TestAssetsOrderingAndFilter(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	assets := []Asset{
		testAsset("/m/a.jpg", mediatypes.KindImage, base),
		testAsset("/m/b.jpg", mediatypes.KindImage, base.Add(2*time.Hour)),
		testAsset("/m/c.mp4", mediatypes.KindVideo, base.Add(time.Hour)),
		testAsset("/m/Shared/d.jpg", mediatypes.KindImage, base.Add(3*time.Hour)),
	}
	assets[3].Source = mediatypes.SourceCloud

	if err := s.UpsertAssets(ctx, assets, time.Now()); err != nil {
		t.Fatalf("UpsertAssets failed: %v", err)
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{
			name:   "images only with cloud",
			filter: Filter{IncludeImages: true, IncludeCloud: true},
			want:   []string{assets[3].ID, assets[1].ID, assets[0].ID},
		},
		{
			name:   "images without cloud",
			filter: Filter{IncludeImages: true},
			want:   []string{assets[1].ID, assets[0].ID},
		},
		{
			name:   "images and videos",
			filter: Filter{IncludeImages: true, IncludeVideos: true},
			want:   []string{assets[1].ID, assets[2].ID, assets[0].ID},
		},
		{
			name:   "limit",
			filter: Filter{IncludeImages: true, IncludeVideos: true, Limit: 2},
			want:   []string{assets[1].ID, assets[2].ID},
		},
		{
			name:   "nothing selected",
			filter: Filter{IncludeCloud: true},
			want:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := s.Assets(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Assets failed: %v", err)
			}
			got := collectIDs(t, c)
			if len(got) != len(tt.want) {
				t.Fatalf("Assets returned %d ids, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("id[%d] = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestUpsertAssetsKeepsIdentity(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	first := []Asset{testAsset("/m/a.jpg", mediatypes.KindImage, time.Now())}
	if err := s.UpsertAssets(ctx, first, time.Now()); err != nil {
		t.Fatalf("UpsertAssets failed: %v", err)
	}
	if err := s.SetFavorite(ctx, first[0].ID, true); err != nil {
		t.Fatalf("SetFavorite failed: %v", err)
	}

	second := []Asset{testAsset("/m/a.jpg", mediatypes.KindImage, time.Now())}
	second[0].Width = 1024
	if err := s.UpsertAssets(ctx, second, time.Now()); err != nil {
		t.Fatalf("UpsertAssets failed: %v", err)
	}

	if second[0].ID != first[0].ID {
		t.Errorf("ID = %s, want %s", second[0].ID, first[0].ID)
	}

	got, err := s.GetAsset(ctx, first[0].ID)
	if err != nil {
		t.Fatalf("GetAsset failed: %v", err)
	}
	if got.Width != 1024 {
		t.Errorf("Width = %d, want 1024", got.Width)
	}
	if !got.IsFavorite {
		t.Error("favorite flag should survive a re-index")
	}
	if got.Origin != OriginIndexed {
		t.Errorf("Origin = %s, want %s", got.Origin, OriginIndexed)
	}
}

func TestGetAssetOptionalFields(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	lat, lon := 48.85, 2.35
	a := testAsset("/m/geo.jpg", mediatypes.KindImage, time.UnixMilli(1700000000123))
	a.Latitude = &lat
	a.Longitude = &lon
	if err := s.InsertAsset(ctx, &a); err != nil {
		t.Fatalf("InsertAsset failed: %v", err)
	}

	got, err := s.GetAsset(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetAsset failed: %v", err)
	}
	if got.Latitude == nil || *got.Latitude != lat {
		t.Errorf("Latitude = %v, want %v", got.Latitude, lat)
	}
	if got.Speed != nil {
		t.Errorf("Speed = %v, want nil", *got.Speed)
	}
	if !got.CreationDate.Equal(a.CreationDate) {
		t.Errorf("CreationDate = %v, want %v", got.CreationDate, a.CreationDate)
	}
	if got.Origin != OriginImported {
		t.Errorf("Origin = %s, want %s", got.Origin, OriginImported)
	}
}

func TestGetAssetNotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.GetAsset(context.Background(), "missing")
	if !errors.Is(err, mediaerr.ErrNotFound) {
		t.Errorf("GetAsset error = %v, want ErrNotFound", err)
	}
	if got := mediaerr.AssetID(err); got != "missing" {
		t.Errorf("AssetID = %q, want %q", got, "missing")
	}
}

func TestDeleteMissingAssetsSparesImports(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	indexed := []Asset{testAsset("/m/old.jpg", mediatypes.KindImage, time.Now())}
	if err := s.UpsertAssets(ctx, indexed, time.Now().Add(-time.Hour)); err != nil {
		t.Fatalf("UpsertAssets failed: %v", err)
	}
	imported := testAsset("/m/.imports/new.jpg", mediatypes.KindImage, time.Now())
	if err := s.InsertAsset(ctx, &imported); err != nil {
		t.Fatalf("InsertAsset failed: %v", err)
	}

	n, err := s.DeleteMissingAssets(ctx, time.Now())
	if err != nil {
		t.Fatalf("DeleteMissingAssets failed: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d rows, want 1", n)
	}
	if _, err := s.GetAsset(ctx, imported.ID); err != nil {
		t.Errorf("imported asset removed: %v", err)
	}
}

func TestGetOrCreateAlbumIdempotent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	first, created, err := s.GetOrCreateAlbum(ctx, "Trips")
	if err != nil {
		t.Fatalf("GetOrCreateAlbum failed: %v", err)
	}
	if !created {
		t.Error("first call should create the album")
	}

	second, created, err := s.GetOrCreateAlbum(ctx, "Trips")
	if err != nil {
		t.Fatalf("GetOrCreateAlbum failed: %v", err)
	}
	if created {
		t.Error("second call should not create the album")
	}
	if second.ID != first.ID {
		t.Errorf("ID = %s, want %s", second.ID, first.ID)
	}

	albums, err := s.ListCollections(ctx, KindAlbum)
	if err != nil {
		t.Fatalf("ListCollections failed: %v", err)
	}
	if len(albums) != 1 {
		t.Errorf("got %d albums, want 1", len(albums))
	}
}

func TestSmartAlbumsFollowFlags(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	assets := []Asset{
		testAsset("/m/a.jpg", mediatypes.KindImage, time.Now()),
		testAsset("/m/b.mp4", mediatypes.KindVideo, time.Now()),
	}
	if err := s.UpsertAssets(ctx, assets, time.Now()); err != nil {
		t.Fatalf("UpsertAssets failed: %v", err)
	}
	if err := s.RefreshSmartAlbums(ctx); err != nil {
		t.Fatalf("RefreshSmartAlbums failed: %v", err)
	}
	if err := s.SetFavorite(ctx, assets[0].ID, true); err != nil {
		t.Fatalf("SetFavorite failed: %v", err)
	}

	favs, err := s.CollectionAssetIDs(ctx, SmartAlbumID(SmartFavorites))
	if err != nil {
		t.Fatalf("CollectionAssetIDs failed: %v", err)
	}
	if len(favs) != 1 || favs[0] != assets[0].ID {
		t.Errorf("Favorites = %v, want [%s]", favs, assets[0].ID)
	}

	videos, err := s.CollectionAssetIDs(ctx, SmartAlbumID(SmartVideos))
	if err != nil {
		t.Fatalf("CollectionAssetIDs failed: %v", err)
	}
	if len(videos) != 1 || videos[0] != assets[1].ID {
		t.Errorf("Videos = %v, want [%s]", videos, assets[1].ID)
	}

	containing, err := s.CollectionsContaining(ctx, assets[0].ID)
	if err != nil {
		t.Fatalf("CollectionsContaining failed: %v", err)
	}
	if len(containing) != 1 || containing[0] != SmartAlbumID(SmartFavorites) {
		t.Errorf("CollectionsContaining = %v", containing)
	}

	if err := s.SetFavorite(ctx, "missing", true); !errors.Is(err, mediaerr.ErrNotFound) {
		t.Errorf("SetFavorite(missing) error = %v, want ErrNotFound", err)
	}
}

func TestLinkAssetsAndMembership(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assets := []Asset{
		testAsset("/m/a.jpg", mediatypes.KindImage, base),
		testAsset("/m/b.jpg", mediatypes.KindImage, base.Add(time.Minute)),
	}
	if err := s.UpsertAssets(ctx, assets, time.Now()); err != nil {
		t.Fatalf("UpsertAssets failed: %v", err)
	}
	album, _, err := s.GetOrCreateAlbum(ctx, "Holiday")
	if err != nil {
		t.Fatalf("GetOrCreateAlbum failed: %v", err)
	}

	for range 2 {
		if err := s.LinkAssets(ctx, album.ID, assets[0].ID, assets[1].ID); err != nil {
			t.Fatalf("LinkAssets failed: %v", err)
		}
	}

	ids, err := s.CollectionAssetIDs(ctx, album.ID)
	if err != nil {
		t.Fatalf("CollectionAssetIDs failed: %v", err)
	}
	want := []string{assets[1].ID, assets[0].ID}
	if len(ids) != len(want) {
		t.Fatalf("got %d members, want %d", len(ids), len(want))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("member[%d] = %s, want %s", i, ids[i], want[i])
		}
	}

	if err := s.DeleteAsset(ctx, assets[0].ID); err != nil {
		t.Fatalf("DeleteAsset failed: %v", err)
	}
	ids, _ = s.CollectionAssetIDs(ctx, album.ID)
	if len(ids) != 1 {
		t.Errorf("got %d members after delete, want 1", len(ids))
	}
}

func TestAddToAlbum(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	assets := []Asset{
		testAsset("/m/a.jpg", mediatypes.KindImage, time.Now()),
		testAsset("/m/b.jpg", mediatypes.KindImage, time.Now()),
	}
	if err := s.UpsertAssets(ctx, assets, time.Now()); err != nil {
		t.Fatalf("UpsertAssets failed: %v", err)
	}

	first, created, err := s.AddToAlbum(ctx, "Imports", assets[0].ID)
	if err != nil {
		t.Fatalf("AddToAlbum failed: %v", err)
	}
	if !created {
		t.Error("first call should create the album")
	}

	second, created, err := s.AddToAlbum(ctx, "Imports", assets[1].ID)
	if err != nil {
		t.Fatalf("AddToAlbum failed: %v", err)
	}
	if created || second.ID != first.ID {
		t.Errorf("second call = %s created=%v, want existing %s", second.ID, created, first.ID)
	}

	ids, err := s.CollectionAssetIDs(ctx, first.ID)
	if err != nil {
		t.Fatalf("CollectionAssetIDs failed: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("got %d members, want 2", len(ids))
	}
}

func TestAddToAlbumSurvivesConcurrentPrune(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	const n = 20
	assets := make([]Asset, n)
	for i := range assets {
		assets[i] = testAsset(fmt.Sprintf("/imports/%02d.jpg", i), mediatypes.KindImage, time.Now())
	}
	if err := s.UpsertAssets(ctx, assets, time.Now()); err != nil {
		t.Fatalf("UpsertAssets failed: %v", err)
	}

	done := make(chan struct{})
	pruned := make(chan error, 1)
	go func() {
		for {
			select {
			case <-done:
				pruned <- nil
				return
			default:
			}
			if _, err := s.PruneEmptyAlbums(ctx); err != nil {
				pruned <- err
				return
			}
		}
	}()

	for i, a := range assets {
		if _, _, err := s.AddToAlbum(ctx, fmt.Sprintf("Album %02d", i), a.ID); err != nil {
			t.Errorf("AddToAlbum(%d) failed: %v", i, err)
		}
	}
	close(done)
	if err := <-pruned; err != nil {
		t.Fatalf("PruneEmptyAlbums failed: %v", err)
	}

	albums, err := s.ListCollections(ctx, KindAlbum)
	if err != nil {
		t.Fatalf("ListCollections failed: %v", err)
	}
	if len(albums) != n {
		t.Fatalf("got %d albums, want %d: pruning removed an album mid-import", len(albums), n)
	}
	for _, album := range albums {
		ids, err := s.CollectionAssetIDs(ctx, album.ID)
		if err != nil || len(ids) != 1 {
			t.Errorf("album %q members = %v, %v; want one", album.Title, ids, err)
		}
	}
}

func TestMomentsRangeAndLocations(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	day := func(d int) time.Time { return time.Date(2024, 3, d, 10, 0, 0, 0, time.UTC) }

	moments := []Moment{
		{Title: "early", StartDate: day(1), EndDate: day(2), Locations: []string{"Paris", "Lyon"}},
		{Title: "late", StartDate: day(10), EndDate: day(11)},
	}
	if err := s.ReplaceMoments(ctx, moments); err != nil {
		t.Fatalf("ReplaceMoments failed: %v", err)
	}

	all, err := s.ListMoments(ctx, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("ListMoments failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d moments, want 2", len(all))
	}
	if all[0].Title != "late" {
		t.Errorf("first moment = %s, want late", all[0].Title)
	}
	if got := all[1].Locations; len(got) != 2 || got[0] != "Paris" || got[1] != "Lyon" {
		t.Errorf("Locations = %v, want [Paris Lyon]", got)
	}

	ranged, err := s.ListMoments(ctx, day(1), day(5))
	if err != nil {
		t.Fatalf("ListMoments failed: %v", err)
	}
	if len(ranged) != 1 || ranged[0].Title != "early" {
		t.Errorf("ranged moments = %+v, want [early]", ranged)
	}

	if err := s.ReplaceMoments(ctx, nil); err != nil {
		t.Fatalf("ReplaceMoments failed: %v", err)
	}
	all, _ = s.ListMoments(ctx, time.Time{}, time.Time{})
	if len(all) != 0 {
		t.Errorf("got %d moments after replace, want 0", len(all))
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if _, ok, err := s.GetMetadata(ctx, "auth.read"); err != nil || ok {
		t.Fatalf("GetMetadata = ok %v err %v, want missing", ok, err)
	}
	if err := s.SetMetadata(ctx, "auth.read", "denied"); err != nil {
		t.Fatalf("SetMetadata failed: %v", err)
	}
	if err := s.SetMetadata(ctx, "auth.read", "authorized"); err != nil {
		t.Fatalf("SetMetadata failed: %v", err)
	}
	v, ok, err := s.GetMetadata(ctx, "auth.read")
	if err != nil || !ok || v != "authorized" {
		t.Errorf("GetMetadata = %q %v %v, want authorized", v, ok, err)
	}
}

func TestReadAssetAndVideoResource(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	dir := t.TempDir()

	path := filepath.Join(dir, "clip.mp4")
	if err := os.WriteFile(path, []byte("video-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	composed := testAsset(filepath.Join(dir, "Edited", "render.mov"), mediatypes.KindVideo, time.Now())
	composed.SandboxToken = "media-library.sandbox;read;Edited/render.mov;/tmp/render.mov"

	assets := []Asset{testAsset(path, mediatypes.KindVideo, time.Now()), composed}
	if err := s.UpsertAssets(ctx, assets, time.Now()); err != nil {
		t.Fatalf("UpsertAssets failed: %v", err)
	}

	data, a, err := s.ReadAsset(ctx, assets[0].ID)
	if err != nil {
		t.Fatalf("ReadAsset failed: %v", err)
	}
	if string(data) != "video-bytes" || a.Path != path {
		t.Errorf("ReadAsset = %q %s", data, a.Path)
	}

	res, err := s.VideoResource(ctx, assets[0].ID)
	if err != nil || res.Path != path {
		t.Errorf("VideoResource = %+v %v, want path %s", res, err, path)
	}
	res, err = s.VideoResource(ctx, assets[1].ID)
	if err != nil || res.SandboxToken != composed.SandboxToken {
		t.Errorf("VideoResource = %+v %v, want sandbox token", res, err)
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.ReadAsset(ctx, assets[0].ID); !errors.Is(err, mediaerr.ErrNotFound) {
		t.Errorf("ReadAsset after removal error = %v, want ErrNotFound", err)
	}
}

func TestStats(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	assets := []Asset{
		testAsset("/m/a.jpg", mediatypes.KindImage, time.Now()),
		testAsset("/m/b.mp4", mediatypes.KindVideo, time.Now()),
	}
	if err := s.UpsertAssets(ctx, assets, time.Now()); err != nil {
		t.Fatalf("UpsertAssets failed: %v", err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Images != 1 || stats.Videos != 1 {
		t.Errorf("Stats = %+v, want 1 image and 1 video", stats)
	}
	if stats.Smart != 2 {
		t.Errorf("Smart = %d, want 2", stats.Smart)
	}
	if stats.DBBytes == 0 {
		t.Error("DBBytes should be non-zero")
	}
}

func TestVideoResourceFilePath(t *testing.T) {
	tests := []struct {
		name string
		res  VideoResource
		want string
	}{
		{"direct", VideoResource{Path: "/media/a.mp4"}, "/media/a.mp4"},
		{"composed", VideoResource{SandboxToken: "media-library.sandbox;read;a/b.mov;/abs/a/b.mov"}, "/abs/a/b.mov"},
		{"bare token", VideoResource{SandboxToken: "/plain/path.mov"}, "/plain/path.mov"},
		{"trailing separator", VideoResource{SandboxToken: "trailing;"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.res.FilePath(); got != tt.want {
				t.Errorf("FilePath() = %q, want %q", got, tt.want)
			}
		})
	}
}
