package archive

import (
	"context"
	"sort"

	log "github.com/sirupsen/logrus"

	"bestai/models"
	"bestai/sentryhelper"
)

// QueryService answers the listing operations: years, authors and playlists.
type QueryService struct {
	store Store
}

func NewQueryService(store Store) *QueryService {
	return &QueryService{store: store}
}

// ListDistinctYears returns every year present in the archive, sorted as
// strings.
func (s *QueryService) ListDistinctYears(ctx context.Context) ([]string, error) {
	span := sentryhelper.StartSpan(ctx, "db.query", "distinct year")
	defer span.Finish()

	years, err := s.store.Distinct(span.Context(), FieldYear)
	if err != nil {
		return nil, wrap("list years", err)
	}
	return sortedSet(years, true), nil
}

// ListDistinctAuthors returns every non-empty author, sorted.
func (s *QueryService) ListDistinctAuthors(ctx context.Context) ([]string, error) {
	span := sentryhelper.StartSpan(ctx, "db.query", "distinct author")
	defer span.Finish()

	authors, err := s.store.Distinct(span.Context(), FieldAuthor)
	if err != nil {
		return nil, wrap("list authors", err)
	}
	return sortedSet(authors, false), nil
}

// ListPlaylists fetches the tracks matching filter and groups them into
// playlists. An empty filter yields no playlists and no store access.
func (s *QueryService) ListPlaylists(ctx context.Context, filter models.Filter) ([]models.Playlist, error) {
	if filter.IsEmpty() {
		return []models.Playlist{}, nil
	}

	span := sentryhelper.StartSpan(ctx, "db.query", "find tracks")
	defer span.Finish()

	tracks, err := s.store.FindTracks(span.Context(), filter, PlaylistOrder(filter))
	if err != nil {
		return nil, wrap("list playlists", err)
	}

	playlists := GroupPlaylists(tracks)
	log.WithFields(log.Fields{
		"year":      filter.Year,
		"author":    filter.Author,
		"tracks":    len(tracks),
		"playlists": len(playlists),
	}).Debug("Listed playlists")
	return playlists, nil
}

// PlaylistOrder is the track ordering used for a playlist listing. Listings
// that involve an author span several years and show the newest first.
func PlaylistOrder(filter models.Filter) []SortKey {
	byPlaylist := []SortKey{
		{Field: FieldPlaylist},
		{Field: FieldTrackNumber},
	}
	if filter.Author == "" {
		return byPlaylist
	}
	return append([]SortKey{{Field: FieldYear, Descending: true}}, byPlaylist...)
}

// GroupPlaylists groups an ordered track list by playlist name. Playlists come
// out in order of first appearance and keep the incoming track order. Tracks
// with the same playlist name are merged even if their year or author differ.
func GroupPlaylists(tracks []models.Track) []models.Playlist {
	playlists := []models.Playlist{}
	index := make(map[string]int)

	for _, t := range tracks {
		i, ok := index[t.Playlist]
		if !ok {
			i = len(playlists)
			index[t.Playlist] = i
			playlists = append(playlists, models.Playlist{
				Playlist:       t.Playlist,
				PlaylistFolder: t.PlaylistFolder,
				Author:         t.Author,
				Year:           t.Year,
			})
		}
		playlists[i].Tracks = append(playlists[i].Tracks, t)
	}
	return playlists
}

func sortedSet(values []string, keepEmpty bool) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" && !keepEmpty {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
