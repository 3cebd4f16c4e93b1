package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bestai/archive"
	"bestai/models"
)

type scoredDoc struct {
	models.Track `bson:",inline"`
	Score        float64 `bson:"score"`
}

// WeightedSearch runs an Atlas Search compound query with one boosted text
// clause per field; a document has to match at least one clause.
func (s *Store) WeightedSearch(ctx context.Context, query string, fields []archive.FieldWeight, limit int) ([]archive.ScoredTrack, error) {
	cursor, err := s.coll.Aggregate(ctx, weightedSearchPipeline(s.searchIndex, query, fields, limit))
	if err != nil {
		return nil, classify("weighted search", err)
	}
	return decodeScored(ctx, "weighted search", cursor)
}

// TextSearch uses the collection's $text index, which covers every field it
// was built with; fields only documents the intended scope.
func (s *Store) TextSearch(ctx context.Context, query string, fields []string, limit int) ([]archive.ScoredTrack, error) {
	score := bson.D{{Key: "score", Value: bson.D{{Key: "$meta", Value: "textScore"}}}}
	opts := options.Find().
		SetProjection(score).
		SetSort(score).
		SetLimit(int64(limit))

	cursor, err := s.coll.Find(ctx, bson.D{{Key: "$text", Value: bson.D{{Key: "$search", Value: query}}}}, opts)
	if err != nil {
		return nil, classify("text search", err)
	}
	return decodeScored(ctx, "text search", cursor)
}

// Autocomplete runs an Atlas Search autocomplete query on field and returns
// the best scoring distinct values.
func (s *Store) Autocomplete(ctx context.Context, field, query string, opts archive.FuzzyOptions, limit int) ([]string, error) {
	if limit <= 0 {
		return []string{}, nil
	}
	cursor, err := s.coll.Aggregate(ctx, autocompletePipeline(s.searchIndex, field, query, opts, limit))
	if err != nil {
		return nil, classify("autocomplete", err)
	}

	var docs []struct {
		Value interface{} `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, classify("autocomplete", err)
	}
	values := make([]string, 0, len(docs))
	for _, d := range docs {
		if v := coerceString(d.Value); v != "" {
			values = append(values, v)
		}
	}
	return values, nil
}

func decodeScored(ctx context.Context, op string, cursor *mongo.Cursor) ([]archive.ScoredTrack, error) {
	var docs []scoredDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, classify(op, err)
	}
	out := make([]archive.ScoredTrack, len(docs))
	for i, d := range docs {
		normalize(&d.Track)
		out[i] = archive.ScoredTrack{Track: d.Track, Score: d.Score}
	}
	return out, nil
}

func weightedSearchPipeline(index, query string, fields []archive.FieldWeight, limit int) mongo.Pipeline {
	should := bson.A{}
	for _, fw := range fields {
		should = append(should, bson.D{{Key: "text", Value: bson.D{
			{Key: "query", Value: query},
			{Key: "path", Value: fw.Field},
			{Key: "fuzzy", Value: bson.D{{Key: "maxEdits", Value: 1}}},
			{Key: "score", Value: bson.D{{Key: "boost", Value: bson.D{{Key: "value", Value: fw.Weight}}}}},
		}}})
	}

	return mongo.Pipeline{
		{{Key: "$search", Value: bson.D{
			{Key: "index", Value: index},
			{Key: "compound", Value: bson.D{
				{Key: "should", Value: should},
				{Key: "minimumShouldMatch", Value: 1},
			}},
		}}},
		{{Key: "$addFields", Value: bson.D{{Key: "score", Value: bson.D{{Key: "$meta", Value: "searchScore"}}}}}},
		{{Key: "$sort", Value: bson.D{{Key: "score", Value: -1}}}},
		{{Key: "$limit", Value: limit}},
	}
}

// autocompletePipeline over-fetches before grouping so that duplicate values
// do not eat into the limit.
func autocompletePipeline(index, field, query string, opts archive.FuzzyOptions, limit int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$search", Value: bson.D{
			{Key: "index", Value: index},
			{Key: "autocomplete", Value: bson.D{
				{Key: "query", Value: query},
				{Key: "path", Value: field},
				{Key: "fuzzy", Value: bson.D{
					{Key: "maxEdits", Value: opts.MaxEdits},
					{Key: "prefixLength", Value: opts.PrefixLength},
				}},
			}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "value", Value: fmt.Sprintf("$%s", field)},
			{Key: "score", Value: bson.D{{Key: "$meta", Value: "searchScore"}}},
		}}},
		{{Key: "$limit", Value: limit * 10}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$value"},
			{Key: "score", Value: bson.D{{Key: "$max", Value: "$score"}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "score", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	}
}

var _ interface {
	archive.Store
	archive.WeightedTextSearch
	archive.BooleanTextSearch
	archive.Autocompleter
} = (*Store)(nil)
