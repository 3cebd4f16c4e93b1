package database

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/adrg/strutil/metrics"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"bestai/archive"
	"bestai/models"
)

// Match quality of one query term within one field. A term is a full hit
// when a word of the field equals it, and a partial hit when a word only
// starts with it or is one edit away from it.
const (
	fullHit    = 1.0
	partialHit = 0.75
)

// fuzzyMinRunes is the shortest query term that is expanded to vocabulary
// words one edit away. Shorter terms only match as prefixes.
const fuzzyMinRunes = 4

const searchMaxEdits = 1

// queryTerm is one folded query word and the indexed words within
// searchMaxEdits of it.
type queryTerm struct {
	text  string
	fuzzy map[string]bool
}

// WeightedSearch finds candidates with an FTS5 MATCH over the weighted
// columns and scores them by match quality. Each field contributes its weight
// times the share of query terms it matches, so a title matching every term
// scores the full track weight however common the term is. Terms match as
// prefixes, and terms of fuzzyMinRunes or more also match indexed words one
// edit away.
func (d *Database) WeightedSearch(ctx context.Context, query string, fields []archive.FieldWeight, limit int) ([]archive.ScoredTrack, error) {
	words := tokenize(fold(query))
	if len(words) == 0 {
		return []archive.ScoredTrack{}, nil
	}

	var cols []string
	for _, fw := range fields {
		col, ok := column[fw.Field]
		if !ok || !isFTSColumn(col) {
			return nil, archive.QueryFailed("weighted search", fmt.Errorf("field %q is not searchable", fw.Field))
		}
		cols = append(cols, col)
	}

	terms, err := d.expandTerms(ctx, words)
	if err != nil {
		return nil, err
	}
	match := fmt.Sprintf("{%s} : (%s)", strings.Join(cols, " "), ftsMatch(terms))
	q := fmt.Sprintf(`SELECT %s
		FROM tracks_fts JOIN tracks t ON t.id = tracks_fts.rowid
		WHERE tracks_fts MATCH ?
		ORDER BY t.id ASC`, trackColumns)

	rows, err := d.db.QueryContext(ctx, q, match)
	if err != nil {
		return nil, classify("weighted search", err)
	}
	defer rows.Close()

	results := []archive.ScoredTrack{}
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, classify("weighted search", err)
		}
		if score := matchScore(t, terms, fields); score > 0 {
			results = append(results, archive.ScoredTrack{Track: t, Score: score})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, classify("weighted search", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if limit >= 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// expandTerms looks up, for each word long enough, the indexed words sharing
// its first letter and within searchMaxEdits of it.
func (d *Database) expandTerms(ctx context.Context, words []string) ([]queryTerm, error) {
	lev := metrics.NewLevenshtein()
	terms := make([]queryTerm, len(words))
	for i, w := range words {
		terms[i] = queryTerm{text: w, fuzzy: map[string]bool{}}
		if utf8.RuneCountInString(w) < fuzzyMinRunes {
			continue
		}

		rows, err := d.db.QueryContext(ctx,
			`SELECT term FROM tracks_vocab WHERE substr(term, 1, 1) = ?`, firstRunes(w, 1))
		if err != nil {
			return nil, classify("weighted search", err)
		}
		for rows.Next() {
			var v string
			if err := rows.Scan(&v); err != nil {
				rows.Close()
				return nil, classify("weighted search", err)
			}
			if strings.HasPrefix(v, w) {
				continue
			}
			if lev.Distance(v, w) <= searchMaxEdits {
				terms[i].fuzzy[v] = true
			}
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, classify("weighted search", err)
		}
	}
	return terms, nil
}

// matchScore sums, per field, its weight times the average hit of the query
// terms in that field.
func matchScore(t models.Track, terms []queryTerm, fields []archive.FieldWeight) float64 {
	var score float64
	for _, fw := range fields {
		words := tokenize(fold(fieldValue(t, fw.Field)))
		if len(words) == 0 {
			continue
		}
		var hits float64
		for _, term := range terms {
			hits += termHit(term, words)
		}
		score += fw.Weight * hits / float64(len(terms))
	}
	return score
}

func termHit(term queryTerm, words []string) float64 {
	best := 0.0
	for _, w := range words {
		switch {
		case w == term.text:
			return fullHit
		case strings.HasPrefix(w, term.text), term.fuzzy[w]:
			best = partialHit
		}
	}
	return best
}

func fieldValue(t models.Track, field string) string {
	switch field {
	case archive.FieldTrack:
		return t.Track
	case archive.FieldArtist:
		return t.Artist
	case archive.FieldAlbum:
		return t.Album
	}
	return ""
}

// TextSearch is the boolean fallback: a track matches when any field contains
// any query term, and its score is the number of field/term hits.
func (d *Database) TextSearch(ctx context.Context, query string, fields []string, limit int) ([]archive.ScoredTrack, error) {
	terms := tokenize(query)
	if len(terms) == 0 {
		return []archive.ScoredTrack{}, nil
	}

	var (
		hits []string
		args []any
	)
	for _, f := range fields {
		col, ok := column[f]
		if !ok {
			return nil, archive.QueryFailed("text search", fmt.Errorf("unknown field %q", f))
		}
		for _, term := range terms {
			hits = append(hits, fmt.Sprintf(`(t.%s LIKE ? ESCAPE '\')`, col))
			args = append(args, "%"+escapeLike(term)+"%")
		}
	}
	score := strings.Join(hits, " + ")
	q := fmt.Sprintf(`SELECT %s, score FROM (
			SELECT t.*, (%s) AS score FROM tracks t
		) t
		WHERE score > 0
		ORDER BY score DESC, t.id ASC
		LIMIT ?`, trackColumns, score)

	return d.scoredQuery(ctx, "text search", q, append(args, limit)...)
}

func (d *Database) scoredQuery(ctx context.Context, op, q string, args ...any) ([]archive.ScoredTrack, error) {
	rows, err := d.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	results := []archive.ScoredTrack{}
	for rows.Next() {
		var score float64
		t, err := scanTrack(rows, &score)
		if err != nil {
			return nil, classify(op, err)
		}
		results = append(results, archive.ScoredTrack{Track: t, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return results, nil
}

// Autocomplete returns distinct values of field where some word, or the value
// as a whole, starts with query within opts.MaxEdits edits. The first
// opts.PrefixLength characters must match exactly. Case and diacritics are
// ignored. Closer matches come first, then values in alphabetical order.
func (d *Database) Autocomplete(ctx context.Context, field, query string, opts archive.FuzzyOptions, limit int) ([]string, error) {
	col, ok := column[field]
	if !ok {
		return nil, archive.QueryFailed("autocomplete", fmt.Errorf("unknown field %q", field))
	}
	q := fold(strings.TrimSpace(query))
	if q == "" {
		return []string{}, nil
	}

	// SQLite folds only ASCII case, so matching happens in Go.
	rows, err := d.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT DISTINCT %[1]s FROM tracks WHERE %[1]s <> '' ORDER BY %[1]s`, col))
	if err != nil {
		return nil, classify("autocomplete", err)
	}
	defer rows.Close()

	type candidate struct {
		value string
		dist  int
	}
	var matches []candidate
	lev := metrics.NewLevenshtein()
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, classify("autocomplete", err)
		}
		if dist, ok := prefixDistance(lev, v, q, opts); ok {
			matches = append(matches, candidate{value: v, dist: dist})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, classify("autocomplete", err)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].dist < matches[j].dist
	})
	out := make([]string, 0, limit)
	for _, m := range matches {
		if len(out) == limit {
			break
		}
		out = append(out, m.value)
	}
	return out, nil
}

// prefixDistance reports the smallest edit distance between q and a prefix of
// value or of one of its words.
func prefixDistance(lev *metrics.Levenshtein, value, q string, opts archive.FuzzyOptions) (int, bool) {
	lower := fold(value)
	candidates := append([]string{lower}, tokenize(lower)...)
	qLen := utf8.RuneCountInString(q)
	qPrefix := firstRunes(q, opts.PrefixLength)

	best := -1
	for _, word := range candidates {
		if !strings.HasPrefix(word, qPrefix) {
			continue
		}
		runes := []rune(word)
		minLen := max(qLen-opts.MaxEdits, opts.PrefixLength, 1)
		maxLen := min(qLen+opts.MaxEdits, len(runes))
		for n := minLen; n <= maxLen; n++ {
			dist := lev.Distance(string(runes[:n]), q)
			if best < 0 || dist < best {
				best = dist
			}
		}
	}
	return best, best >= 0 && best <= opts.MaxEdits
}

// ftsMatch turns query terms into an FTS5 expression of OR-ed quoted terms:
// each term as a prefix plus its fuzzy variants as whole words. User input
// never reaches the FTS5 query syntax.
func ftsMatch(terms []queryTerm) string {
	var parts []string
	for _, t := range terms {
		parts = append(parts, quote(t.text)+"*")
		variants := make([]string, 0, len(t.fuzzy))
		for v := range t.fuzzy {
			variants = append(variants, v)
		}
		sort.Strings(variants)
		for _, v := range variants {
			parts = append(parts, quote(v))
		}
	}
	return strings.Join(parts, " OR ")
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// fold lowercases s and strips combining marks, the way the unicode61
// tokenizer with remove_diacritics does.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func isFTSColumn(col string) bool {
	for _, c := range ftsColumns {
		if c == col {
			return true
		}
	}
	return false
}

func firstRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) < n {
		return s
	}
	return string(runes[:n])
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

var _ interface {
	archive.Store
	archive.WeightedTextSearch
	archive.BooleanTextSearch
	archive.Autocompleter
} = (*Database)(nil)
