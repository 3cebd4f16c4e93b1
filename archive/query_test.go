package archive

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"bestai/models"
)

func str(s string) *string { return &s }

func TestListDistinctYears(t *testing.T) {
	store := &fakeStore{distinct: map[string][]string{
		FieldYear: {"2016", "2014", "2015", "2014"},
	}}
	svc := NewQueryService(store)

	got, err := svc.ListDistinctYears(context.Background())
	if err != nil {
		t.Fatalf("ListDistinctYears: %v", err)
	}
	if want := []string{"2014", "2015", "2016"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ListDistinctYears() = %v, want %v", got, want)
	}
}

func TestListDistinctAuthors(t *testing.T) {
	store := &fakeStore{distinct: map[string][]string{
		FieldAuthor: {"Bob", "", "Alice", "Bob"},
	}}
	svc := NewQueryService(store)

	got, err := svc.ListDistinctAuthors(context.Background())
	if err != nil {
		t.Fatalf("ListDistinctAuthors: %v", err)
	}
	if want := []string{"Alice", "Bob"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ListDistinctAuthors() = %v, want %v", got, want)
	}
}

func TestListDistinctEmptyStore(t *testing.T) {
	svc := NewQueryService(&fakeStore{})

	got, err := svc.ListDistinctAuthors(context.Background())
	if err != nil {
		t.Fatalf("ListDistinctAuthors: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("ListDistinctAuthors() = %#v, want empty non-nil slice", got)
	}
}

func TestListPlaylistsEmptyFilterSkipsStore(t *testing.T) {
	store := &fakeStore{tracks: []models.Track{{Playlist: "P"}}}
	svc := NewQueryService(store)

	got, err := svc.ListPlaylists(context.Background(), models.Filter{})
	if err != nil {
		t.Fatalf("ListPlaylists: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("ListPlaylists(empty) = %#v, want empty non-nil slice", got)
	}
	if store.calls != 0 {
		t.Errorf("store called %d times, want 0", store.calls)
	}
}

func TestListPlaylistsPassesFilterAndOrder(t *testing.T) {
	tests := []struct {
		name   string
		filter models.Filter
		want   []SortKey
	}{
		{
			name:   "year_only",
			filter: models.Filter{Year: "2020"},
			want:   []SortKey{{Field: FieldPlaylist}, {Field: FieldTrackNumber}},
		},
		{
			name:   "author_only",
			filter: models.Filter{Author: "Bob"},
			want:   []SortKey{{Field: FieldYear, Descending: true}, {Field: FieldPlaylist}, {Field: FieldTrackNumber}},
		},
		{
			name:   "both",
			filter: models.Filter{Year: "2020", Author: "Bob"},
			want:   []SortKey{{Field: FieldYear, Descending: true}, {Field: FieldPlaylist}, {Field: FieldTrackNumber}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			if _, err := NewQueryService(store).ListPlaylists(context.Background(), tt.filter); err != nil {
				t.Fatalf("ListPlaylists: %v", err)
			}
			if store.lastFilter != tt.filter {
				t.Errorf("filter = %+v, want %+v", store.lastFilter, tt.filter)
			}
			if !reflect.DeepEqual(store.lastSort, tt.want) {
				t.Errorf("sort = %+v, want %+v", store.lastSort, tt.want)
			}
		})
	}
}

func TestListPlaylistsErrors(t *testing.T) {
	tests := []struct {
		name     string
		storeErr error
		want     error
	}{
		{"unavailable", StoreUnavailable("find tracks", errors.New("connection refused")), ErrStoreUnavailable},
		{"query_failed", QueryFailed("find tracks", errors.New("bad filter")), ErrQueryFailed},
		{"unclassified", errors.New("weird"), ErrQueryFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewQueryService(&fakeStore{err: tt.storeErr})
			_, err := svc.ListPlaylists(context.Background(), models.Filter{Year: "2020"})
			if !errors.Is(err, tt.want) {
				t.Errorf("ListPlaylists() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestGroupPlaylists(t *testing.T) {
	tracks := []models.Track{
		{Year: "2020", Playlist: "B", PlaylistFolder: "Fb", Track: "b1", TrackNumber: 1, Author: str("Bob")},
		{Year: "2020", Playlist: "A", PlaylistFolder: "Fa", Track: "a1", TrackNumber: 1, Author: str("Ann")},
		{Year: "2020", Playlist: "B", PlaylistFolder: "Fb", Track: "b2", TrackNumber: 2, Author: str("Bob")},
		{Year: "2019", Playlist: "A", PlaylistFolder: "Fx", Track: "a2", TrackNumber: 1},
	}

	got := GroupPlaylists(tracks)
	if len(got) != 2 {
		t.Fatalf("got %d playlists, want 2", len(got))
	}

	if got[0].Playlist != "B" || got[1].Playlist != "A" {
		t.Errorf("playlist order = %q, %q; want first-seen order B, A", got[0].Playlist, got[1].Playlist)
	}
	if n := len(got[0].Tracks); n != 2 || got[0].Tracks[0].Track != "b1" || got[0].Tracks[1].Track != "b2" {
		t.Errorf("playlist B tracks = %+v", got[0].Tracks)
	}

	// Same-named playlists are merged; metadata comes from the first track.
	a := got[1]
	if len(a.Tracks) != 2 || a.Year != "2020" || a.PlaylistFolder != "Fa" || a.Author == nil || *a.Author != "Ann" {
		t.Errorf("playlist A = %+v", a)
	}
}

func TestGroupPlaylistsEmpty(t *testing.T) {
	got := GroupPlaylists(nil)
	if got == nil || len(got) != 0 {
		t.Errorf("GroupPlaylists(nil) = %#v, want empty non-nil slice", got)
	}
}

func TestErrorKinds(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := StoreUnavailable("list years", cause)

	if !errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrQueryFailed) {
		t.Errorf("errors.Is mismatch for %v", err)
	}
	if !errors.Is(err, cause) {
		t.Error("cause should be reachable through Unwrap")
	}
	if KindOf(err) != KindStoreUnavailable {
		t.Errorf("KindOf() = %v", KindOf(err))
	}
	if KindOf(errors.New("x")) != KindQueryFailed {
		t.Error("foreign errors should classify as query failures")
	}
	if got, want := err.Error(), "list years: store unavailable: dial tcp: connection refused"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(InvalidQuery("search", "empty"), ErrInvalidQuery) {
		t.Error("InvalidQuery should match ErrInvalidQuery")
	}
}
