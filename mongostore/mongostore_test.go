package mongostore

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"bestai/archive"
	"bestai/models"
)

func TestFilterDoc(t *testing.T) {
	tests := []struct {
		name   string
		filter models.Filter
		want   bson.D
	}{
		{"empty", models.Filter{}, bson.D{}},
		{"year", models.Filter{Year: "2014"}, bson.D{{Key: "year", Value: "2014"}}},
		{"author", models.Filter{Author: "Bob"}, bson.D{{Key: "author", Value: "Bob"}}},
		{"both", models.Filter{Year: "2014", Author: "Bob"}, bson.D{{Key: "year", Value: "2014"}, {Key: "author", Value: "Bob"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := filterDoc(tt.filter); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("filterDoc() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSortDoc(t *testing.T) {
	got := sortDoc(archive.PlaylistOrder(models.Filter{Author: "Bob"}))
	want := bson.D{
		{Key: "year", Value: -1},
		{Key: "playlist", Value: 1},
		{Key: "trackNumber", Value: 1},
		{Key: "_id", Value: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("sortDoc() = %v, want %v", got, want)
	}
}

func TestWeightedSearchPipeline(t *testing.T) {
	p := weightedSearchPipeline("default", "abba", archive.SearchWeights, 100)
	if len(p) != 4 {
		t.Fatalf("pipeline has %d stages, want 4", len(p))
	}

	search := p[0].Map()["$search"].(bson.D).Map()
	if search["index"] != "default" {
		t.Errorf("index = %v, want default", search["index"])
	}
	compound := search["compound"].(bson.D).Map()
	if compound["minimumShouldMatch"] != 1 {
		t.Errorf("minimumShouldMatch = %v, want 1", compound["minimumShouldMatch"])
	}
	should := compound["should"].(bson.A)
	if len(should) != len(archive.SearchWeights) {
		t.Fatalf("should has %d clauses, want %d", len(should), len(archive.SearchWeights))
	}
	for i, fw := range archive.SearchWeights {
		text := should[i].(bson.D).Map()["text"].(bson.D).Map()
		if text["path"] != fw.Field || text["query"] != "abba" {
			t.Errorf("clause %d = %v", i, text)
		}
		boost := text["score"].(bson.D).Map()["boost"].(bson.D).Map()
		if boost["value"] != fw.Weight {
			t.Errorf("clause %d boost = %v, want %v", i, boost["value"], fw.Weight)
		}
	}

	if limit := p[3].Map()["$limit"]; limit != 100 {
		t.Errorf("$limit = %v, want 100", limit)
	}
}

func TestAutocompletePipeline(t *testing.T) {
	p := autocompletePipeline("default", "artist", "ab", archive.AutocompleteFuzziness, 5)

	ac := p[0].Map()["$search"].(bson.D).Map()["autocomplete"].(bson.D).Map()
	if ac["path"] != "artist" || ac["query"] != "ab" {
		t.Errorf("autocomplete = %v", ac)
	}
	fuzzy := ac["fuzzy"].(bson.D).Map()
	if fuzzy["maxEdits"] != 1 || fuzzy["prefixLength"] != 1 {
		t.Errorf("fuzzy = %v, want maxEdits 1 prefixLength 1", fuzzy)
	}
	if v := p[1].Map()["$project"].(bson.D).Map()["value"]; v != "$artist" {
		t.Errorf("projected value = %v, want $artist", v)
	}
	if limit := p[len(p)-1].Map()["$limit"]; limit != 5 {
		t.Errorf("final $limit = %v, want 5", limit)
	}
}

func TestNormalize(t *testing.T) {
	empty, genre := "", "Jazz"
	tr := models.Track{Author: &empty, Genre: &genre, Time: &empty}
	normalize(&tr)
	if tr.Author != nil || tr.Time != nil {
		t.Errorf("empty optional fields should be nil: %+v", tr)
	}
	if tr.Genre == nil || *tr.Genre != "Jazz" {
		t.Errorf("genre lost: %+v", tr)
	}
}

func TestCoerceString(t *testing.T) {
	tests := []struct {
		in   interface{}
		want string
	}{
		{nil, ""},
		{"2014", "2014"},
		{int32(2015), "2015"},
		{float64(2016), "2016"},
	}
	for _, tt := range tests {
		if got := coerceString(tt.in); got != tt.want {
			t.Errorf("coerceString(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"deadline", fmt.Errorf("find: %w", context.DeadlineExceeded), archive.ErrStoreUnavailable},
		{"disconnected", mongo.ErrClientDisconnected, archive.ErrStoreUnavailable},
		{"server_selection", errors.New("server selection error: context deadline exceeded"), archive.ErrStoreUnavailable},
		{"command", mongo.CommandError{Code: 2, Message: "bad $search stage"}, archive.ErrQueryFailed},
		{"other", errors.New("boom"), archive.ErrQueryFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classify("op", tt.err); !errors.Is(got, tt.want) {
				t.Errorf("classify() = %v, want kind %v", got, tt.want)
			}
		})
	}
	if classify("op", nil) != nil {
		t.Error("classify(nil) should be nil")
	}
}
