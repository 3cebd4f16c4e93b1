package archive

import (
	"context"
	"fmt"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"bestai/models"
	"bestai/sentryhelper"
)

// SearchMode selects how RankedSearch scores tracks.
type SearchMode string

const (
	// SearchWeighted uses the store's weighted, fuzzy-tolerant relevance search.
	SearchWeighted SearchMode = "weighted"
	// SearchBoolean uses a plain OR-matched text search across the fields.
	SearchBoolean SearchMode = "boolean"
)

const (
	DefaultSearchLimit       = 100
	DefaultMinScore          = 1.0
	DefaultAutocompleteLimit = 5
)

// SearchWeights are the field multipliers of the weighted search.
var SearchWeights = []FieldWeight{
	{Field: FieldTrack, Weight: 3},
	{Field: FieldArtist, Weight: 2},
	{Field: FieldAlbum, Weight: 1.5},
}

// AutocompleteFuzziness allows one edit after an exact first character.
var AutocompleteFuzziness = FuzzyOptions{MaxEdits: 1, PrefixLength: 1}

type suggestionField struct {
	field string
	label string
}

var autocompleteFields = []suggestionField{
	{field: FieldTrack, label: "Tracks"},
	{field: FieldArtist, label: "Artists"},
	{field: FieldAlbum, label: "Albums"},
}

type SearchOptions struct {
	Mode              SearchMode
	Limit             int
	MinScore          float64
	AutocompleteLimit int
}

// SearchRanker answers free-text search and autocomplete.
type SearchRanker struct {
	mode     SearchMode
	limit    int
	minScore float64
	acLimit  int

	weighted WeightedTextSearch
	boolean  BooleanTextSearch
	complete Autocompleter
}

// NewSearchRanker checks that backend supports the configured mode. A mode the
// backend cannot serve is an error; the ranker never switches modes on its own.
func NewSearchRanker(backend any, opts SearchOptions) (*SearchRanker, error) {
	r := &SearchRanker{
		mode:     opts.Mode,
		limit:    opts.Limit,
		minScore: opts.MinScore,
		acLimit:  opts.AutocompleteLimit,
	}
	if r.mode == "" {
		r.mode = SearchWeighted
	}
	if r.limit <= 0 {
		r.limit = DefaultSearchLimit
	}
	if r.acLimit <= 0 {
		r.acLimit = DefaultAutocompleteLimit
	}

	var ok bool
	switch r.mode {
	case SearchWeighted:
		if r.weighted, ok = backend.(WeightedTextSearch); !ok {
			return nil, fmt.Errorf("store %T does not support weighted search", backend)
		}
	case SearchBoolean:
		if r.boolean, ok = backend.(BooleanTextSearch); !ok {
			return nil, fmt.Errorf("store %T does not support text search", backend)
		}
	default:
		return nil, fmt.Errorf("unknown search mode %q", r.mode)
	}

	if r.complete, ok = backend.(Autocompleter); !ok {
		return nil, fmt.Errorf("store %T does not support autocomplete", backend)
	}
	return r, nil
}

func (r *SearchRanker) Mode() SearchMode {
	return r.mode
}

// RankedSearch returns the tracks best matching query, most relevant first.
func (r *SearchRanker) RankedSearch(ctx context.Context, query string) ([]models.Track, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, InvalidQuery("search", "search query required")
	}

	span := sentryhelper.StartSpan(ctx, "db.search", string(r.mode))
	defer span.Finish()

	var (
		ranked []ScoredTrack
		err    error
	)
	switch r.mode {
	case SearchBoolean:
		ranked, err = r.boolean.TextSearch(span.Context(), query, searchFields(), r.limit)
		if err == nil {
			ranked = Rank(ranked, 0, r.limit)
		}
	default:
		ranked, err = r.weighted.WeightedSearch(span.Context(), query, SearchWeights, r.limit)
		if err == nil {
			ranked = Rank(ranked, r.minScore, r.limit)
		}
	}
	if err != nil {
		return nil, wrap("search", err)
	}

	log.WithFields(log.Fields{
		"query":   query,
		"mode":    r.mode,
		"results": len(ranked),
	}).Debug("Ranked search")

	tracks := make([]models.Track, len(ranked))
	for i, st := range ranked {
		tracks[i] = st.Track
	}
	return tracks, nil
}

// Rank keeps candidates scoring at least minScore, orders them by descending
// score and caps the result at limit. Equal scores keep their incoming order.
func Rank(candidates []ScoredTrack, minScore float64, limit int) []ScoredTrack {
	out := make([]ScoredTrack, 0, len(candidates))
	for _, c := range candidates {
		if c.Score >= minScore {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Autocomplete looks query up as a fuzzy prefix of track titles, artists and
// albums concurrently. Fields without suggestions are left out. Any failing
// lookup fails the whole call.
func (r *SearchRanker) Autocomplete(ctx context.Context, query string) ([]models.SuggestionGroup, error) {
	if strings.TrimSpace(query) == "" {
		return nil, InvalidQuery("autocomplete", "search query required")
	}

	span := sentryhelper.StartSpan(ctx, "db.search", "autocomplete")
	defer span.Finish()

	results := make([][]string, len(autocompleteFields))
	g, gctx := errgroup.WithContext(span.Context())
	for i, f := range autocompleteFields {
		g.Go(func() error {
			values, err := r.complete.Autocomplete(gctx, f.field, query, AutocompleteFuzziness, r.acLimit)
			if err != nil {
				return err
			}
			results[i] = dedupe(values, r.acLimit)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, wrap("autocomplete", err)
	}

	groups := []models.SuggestionGroup{}
	for i, f := range autocompleteFields {
		if len(results[i]) == 0 {
			continue
		}
		groups = append(groups, models.SuggestionGroup{
			Type:        f.field,
			Label:       f.label,
			Suggestions: results[i],
		})
	}
	return groups, nil
}

func searchFields() []string {
	fields := make([]string, len(SearchWeights))
	for i, fw := range SearchWeights {
		fields[i] = fw.Field
	}
	return fields
}

func dedupe(values []string, limit int) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
		if len(out) == limit {
			break
		}
	}
	return out
}
