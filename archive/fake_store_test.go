package archive

import (
	"context"
	"sync"

	"bestai/models"
)

// fakeStore records calls and returns canned values.
type fakeStore struct {
	mu sync.Mutex

	distinct     map[string][]string
	tracks       []models.Track
	scored       []ScoredTrack
	autocomplete map[string][]string
	err          error
	fieldErr     map[string]error

	calls       int
	lastSort    []SortKey
	lastFilter  models.Filter
	lastWeights []FieldWeight
}

func (f *fakeStore) record() {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
}

func (f *fakeStore) Distinct(_ context.Context, field string) ([]string, error) {
	f.record()
	if f.err != nil {
		return nil, f.err
	}
	return f.distinct[field], nil
}

func (f *fakeStore) FindTracks(_ context.Context, filter models.Filter, sort []SortKey) ([]models.Track, error) {
	f.record()
	f.lastFilter, f.lastSort = filter, sort
	if f.err != nil {
		return nil, f.err
	}
	return f.tracks, nil
}

func (f *fakeStore) Ping(context.Context) error { return f.err }

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) WeightedSearch(_ context.Context, _ string, fields []FieldWeight, _ int) ([]ScoredTrack, error) {
	f.record()
	f.lastWeights = fields
	if f.err != nil {
		return nil, f.err
	}
	return f.scored, nil
}

func (f *fakeStore) TextSearch(_ context.Context, _ string, _ []string, _ int) ([]ScoredTrack, error) {
	f.record()
	if f.err != nil {
		return nil, f.err
	}
	return f.scored, nil
}

func (f *fakeStore) Autocomplete(_ context.Context, field, _ string, _ FuzzyOptions, _ int) ([]string, error) {
	f.record()
	if err := f.fieldErr[field]; err != nil {
		return nil, err
	}
	return f.autocomplete[field], nil
}

// weightedOnly has no boolean text search.
type weightedOnly struct {
	WeightedTextSearch
	Autocompleter
}
