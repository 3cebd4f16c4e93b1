package archive

import (
	"context"

	"bestai/models"
)

// Track document fields the core queries by name.
const (
	FieldYear        = "year"
	FieldAuthor      = "author"
	FieldPlaylist    = "playlist"
	FieldTrack       = "track"
	FieldArtist      = "artist"
	FieldAlbum       = "album"
	FieldTrackNumber = "trackNumber"
)

// SortKey orders FindTracks results. Stores break any remaining ties by
// insertion order.
type SortKey struct {
	Field      string
	Descending bool
}

// FieldWeight is a relative score multiplier for one searchable field.
type FieldWeight struct {
	Field  string
	Weight float64
}

// ScoredTrack is a search candidate with the relevance score the store gave it.
type ScoredTrack struct {
	Track models.Track
	Score float64
}

// FuzzyOptions tunes autocomplete matching.
type FuzzyOptions struct {
	MaxEdits     int
	PrefixLength int
}

// Store is the document store the query service reads from.
type Store interface {
	// Distinct returns the distinct values of field across all tracks, in no
	// particular order.
	Distinct(ctx context.Context, field string) ([]string, error)
	FindTracks(ctx context.Context, filter models.Filter, sort []SortKey) ([]models.Track, error)
	Ping(ctx context.Context) error
	Close() error
}

// WeightedTextSearch scores tracks against a free-text query with per-field
// weights. A track needs to match only one of the fields.
type WeightedTextSearch interface {
	WeightedSearch(ctx context.Context, query string, fields []FieldWeight, limit int) ([]ScoredTrack, error)
}

// BooleanTextSearch is the plain OR-matched text search over fields, ordered
// by a single relevance metric.
type BooleanTextSearch interface {
	TextSearch(ctx context.Context, query string, fields []string, limit int) ([]ScoredTrack, error)
}

// Autocompleter returns up to limit distinct values of field that fuzzily
// match query as a prefix.
type Autocompleter interface {
	Autocomplete(ctx context.Context, field, query string, opts FuzzyOptions, limit int) ([]string, error)
}
