package albums

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"media-library/internal/catalog"
	"media-library/internal/mediatypes"
	"media-library/internal/testutil"
)

func seedAssets(t *testing.T, s *catalog.Store, dates ...time.Time) []string {
	t.Helper()
	ids := make([]string, len(dates))
	for i, d := range dates {
		a := &catalog.Asset{
			FileName:     d.Format("20060102-150405") + ".jpg",
			Path:         "/media/" + d.Format("20060102-150405") + ".jpg",
			MimeType:     "image/jpeg",
			Kind:         mediatypes.KindImage,
			Origin:       catalog.OriginIndexed,
			CreationDate: d,
		}
		if err := s.InsertAsset(context.Background(), a); err != nil {
			t.Fatalf("InsertAsset failed: %v", err)
		}
		ids[i] = a.ID
	}
	return ids
}

func TestListAlbums(t *testing.T) {
	s := testutil.NewStore(t)
	ctx := context.Background()
	ids := seedAssets(t, s,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	)

	trip, _, err := s.GetOrCreateAlbum(ctx, "Trip")
	if err != nil {
		t.Fatalf("GetOrCreateAlbum failed: %v", err)
	}
	if err := s.LinkAssets(ctx, trip.ID, ids...); err != nil {
		t.Fatalf("LinkAssets failed: %v", err)
	}
	if err := s.SetFavorite(ctx, ids[0], true); err != nil {
		t.Fatalf("SetFavorite failed: %v", err)
	}

	got, err := NewCatalog(s, time.UTC).ListAlbums(ctx)
	if err != nil {
		t.Fatalf("ListAlbums failed: %v", err)
	}

	want := []struct {
		id    string
		title string
	}{
		{trip.ID, "Trip"},
		{catalog.SmartAlbumID(catalog.SmartFavorites), catalog.SmartFavorites},
		{catalog.SmartAlbumID(catalog.SmartVideos), catalog.SmartVideos},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d albums, want %d: %+v", len(got), len(want), got)
	}
	for i, w := range want {
		if got[i].ID != w.id || got[i].Title != w.title {
			t.Errorf("album %d = %s %q, want %s %q", i, got[i].ID, got[i].Title, w.id, w.title)
		}
		// Members are not listed for albums, even non-empty ones.
		if got[i].ItemIDs == nil || len(got[i].ItemIDs) != 0 {
			t.Errorf("album %q items = %v, want an empty list", w.title, got[i].ItemIDs)
		}
		if got[i].Location != nil || got[i].StartDate != nil {
			t.Errorf("album %q should carry no moment fields", w.title)
		}
	}

	data, err := json.Marshal(got[0])
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"itemIds":[]`) {
		t.Errorf("album JSON = %s, want empty itemIds", data)
	}
}

func TestListMoments(t *testing.T) {
	s := testutil.NewStore(t)
	ctx := context.Background()
	at := func(month time.Month, day, hour int) time.Time {
		return time.Date(2024, month, day, hour, 0, 0, 0, time.UTC)
	}

	paris := seedAssets(t, s, at(3, 1, 10), at(3, 5, 18))
	rome := seedAssets(t, s, at(4, 10, 9))
	moments := []catalog.Moment{
		{Title: "Paris", StartDate: at(3, 1, 10), EndDate: at(3, 5, 18), Locations: []string{"Paris", "Lyon"}, AssetIDs: paris},
		{Title: "Unplaced", StartDate: at(3, 2, 8), EndDate: at(3, 3, 8)},
		{Title: "Rome", StartDate: at(4, 10, 9), EndDate: at(4, 10, 9), Locations: []string{"Rome"}, AssetIDs: rome},
	}
	if err := s.ReplaceMoments(ctx, moments); err != nil {
		t.Fatalf("ReplaceMoments failed: %v", err)
	}

	tests := []struct {
		name     string
		from, to string
		want     []string
	}{
		{"open range", "", "", []string{"Rome", "Paris"}},
		{"to covers whole day", "2024-03-01", "2024-03-05", []string{"Paris"}},
		{"end after range", "2024-03-01", "2024-03-04", []string{}},
		{"start before range", "2024-03-02", "", []string{"Rome"}},
		{"single day", "2024-04-10", "2024-04-10", []string{"Rome"}},
	}

	c := NewCatalog(s, time.UTC)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.ListMoments(ctx, tt.from, tt.to)
			if err != nil {
				t.Fatalf("ListMoments failed: %v", err)
			}
			titles := []string{}
			for _, m := range got {
				titles = append(titles, m.Title)
			}
			if !slices.Equal(titles, tt.want) {
				t.Errorf("moments = %v, want %v", titles, tt.want)
			}
		})
	}

	got, err := c.ListMoments(ctx, "2024-03-01", "2024-03-31")
	if err != nil || len(got) != 1 {
		t.Fatalf("ListMoments = %+v, %v", got, err)
	}
	m := got[0]
	if m.Location == nil || *m.Location != "Paris, Lyon" {
		t.Errorf("Location = %v, want %q", m.Location, "Paris, Lyon")
	}
	if m.StartDate == nil || *m.StartDate != "2024-03-01T10:00:00.000Z" {
		t.Errorf("StartDate = %v, want 2024-03-01T10:00:00.000Z", m.StartDate)
	}
	if m.EndDate == nil || *m.EndDate != "2024-03-05T18:00:00.000Z" {
		t.Errorf("EndDate = %v, want 2024-03-05T18:00:00.000Z", m.EndDate)
	}
	if !slices.Equal(m.ItemIDs, []string{paris[1], paris[0]}) {
		t.Errorf("ItemIDs = %v, want newest first %v", m.ItemIDs, []string{paris[1], paris[0]})
	}
}

func TestListMomentsInvalidDate(t *testing.T) {
	c := NewCatalog(testutil.NewStore(t), time.UTC)

	for _, r := range [][2]string{{"03/01/2024", ""}, {"", "2024-13-01"}, {"yesterday", "today"}} {
		_, err := c.ListMoments(context.Background(), r[0], r[1])
		if !errors.Is(err, ErrInvalidDate) {
			t.Errorf("ListMoments(%q, %q) error = %v, want ErrInvalidDate", r[0], r[1], err)
		}
	}
}
