// Package mongostore reads the track archive from a MongoDB collection.
// Weighted search and autocomplete run on an Atlas Search index; the boolean
// fallback uses a classic $text index.
package mongostore

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bestai/archive"
	"bestai/models"
)

type Options struct {
	URI         string
	Database    string
	Collection  string
	SearchIndex string
	Timeout     time.Duration
}

// Store is a MongoDB backed archive.Store. The client connects lazily on the
// first operation and is released by Close.
type Store struct {
	client      *mongo.Client
	coll        *mongo.Collection
	searchIndex string
	timeout     time.Duration
}

func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.SearchIndex == "" {
		opts.SearchIndex = "default"
	}

	clientOpts := options.Client().
		ApplyURI(opts.URI).
		SetAppName("bestai").
		SetServerSelectionTimeout(opts.Timeout)
	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	log.WithFields(log.Fields{
		"database":   opts.Database,
		"collection": opts.Collection,
	}).Info("MongoDB client created")

	return &Store{
		client:      client,
		coll:        client.Database(opts.Database).Collection(opts.Collection),
		searchIndex: opts.SearchIndex,
		timeout:     opts.Timeout,
	}, nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		return classify("ping", err)
	}
	return nil
}

// EnsureIndexes creates the filter indexes and the $text index used by the
// boolean search fallback. Atlas Search indexes are managed in Atlas itself.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	names, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "year", Value: 1}, {Key: "playlist", Value: 1}, {Key: "trackNumber", Value: 1}},
			Options: options.Index().SetName("year_playlist_track"),
		},
		{
			Keys:    bson.D{{Key: "author", Value: 1}, {Key: "year", Value: -1}},
			Options: options.Index().SetName("author_year"),
		},
		{
			Keys: bson.D{
				{Key: archive.FieldTrack, Value: "text"},
				{Key: archive.FieldArtist, Value: "text"},
				{Key: archive.FieldAlbum, Value: "text"},
			},
			Options: options.Index().SetName("track_artist_album_text"),
		},
	})
	if err != nil {
		return classify("ensure indexes", err)
	}
	log.WithField("indexes", names).Info("MongoDB indexes ensured")
	return nil
}

// Distinct returns the distinct values of field. Non-string values are
// formatted as strings and missing values come back as "".
func (s *Store) Distinct(ctx context.Context, field string) ([]string, error) {
	raw, err := s.coll.Distinct(ctx, field, bson.D{})
	if err != nil {
		return nil, classify("distinct", err)
	}
	values := make([]string, 0, len(raw))
	for _, v := range raw {
		values = append(values, coerceString(v))
	}
	return values, nil
}

func (s *Store) FindTracks(ctx context.Context, filter models.Filter, sort []archive.SortKey) ([]models.Track, error) {
	opts := options.Find().SetSort(sortDoc(sort))
	cursor, err := s.coll.Find(ctx, filterDoc(filter), opts)
	if err != nil {
		return nil, classify("find tracks", err)
	}

	tracks := []models.Track{}
	if err := cursor.All(ctx, &tracks); err != nil {
		return nil, classify("find tracks", err)
	}
	for i := range tracks {
		normalize(&tracks[i])
	}
	return tracks, nil
}

func filterDoc(filter models.Filter) bson.D {
	doc := bson.D{}
	if filter.Year != "" {
		doc = append(doc, bson.E{Key: archive.FieldYear, Value: filter.Year})
	}
	if filter.Author != "" {
		doc = append(doc, bson.E{Key: archive.FieldAuthor, Value: filter.Author})
	}
	return doc
}

// sortDoc appends _id so equal keys keep insertion order.
func sortDoc(keys []archive.SortKey) bson.D {
	doc := bson.D{}
	for _, k := range keys {
		dir := 1
		if k.Descending {
			dir = -1
		}
		doc = append(doc, bson.E{Key: k.Field, Value: dir})
	}
	return append(doc, bson.E{Key: "_id", Value: 1})
}

// normalize turns stored empty strings in optional fields into absent values.
func normalize(t *models.Track) {
	for _, p := range []**string{&t.AlbumArtist, &t.Time, &t.Genre, &t.Author} {
		if *p != nil && **p == "" {
			*p = nil
		}
	}
}

func coerceString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}
