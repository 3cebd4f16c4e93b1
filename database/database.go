package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"bestai/archive"
	"bestai/models"
)

// Database is the SQLite track store. Full-text search runs on an FTS5
// index over track, artist and album kept in sync by triggers.
type Database struct {
	db *sql.DB
}

// column maps document field names to table columns. Only these fields can be
// filtered, sorted or searched.
var column = map[string]string{
	archive.FieldYear:        "year",
	archive.FieldAuthor:      "author",
	archive.FieldPlaylist:    "playlist",
	archive.FieldTrack:       "track",
	archive.FieldArtist:      "artist",
	archive.FieldAlbum:       "album",
	archive.FieldTrackNumber: "track_number",
}

// ftsColumns are the columns indexed by tracks_fts.
var ftsColumns = []string{"track", "artist", "album"}

const trackColumns = `t.year, t.playlist_folder, t.playlist, t.track, t.album, t.artist,
	t.album_artist, t.duration, t.time, t.genre, t.track_number, t.author`

// New opens the SQLite database at path and runs migrations. Paths starting
// with "file:" are passed through as DSNs, which lets tests use shared
// in-memory databases.
func New(path string) (*Database, error) {
	dsn := path
	inMemory := strings.Contains(path, "mode=memory") || path == ":memory:"
	if !strings.HasPrefix(path, "file:") && !inMemory {
		// Ensure parent directory exists
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if inMemory {
		// Every new connection to a private in-memory database is empty.
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	d := &Database{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Infof("Database initialized at %s", path)
	return d, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return classify("ping", err)
	}
	return nil
}

func (d *Database) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS tracks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			year TEXT NOT NULL DEFAULT '',
			playlist_folder TEXT NOT NULL DEFAULT '',
			playlist TEXT NOT NULL DEFAULT '',
			track TEXT NOT NULL DEFAULT '',
			album TEXT NOT NULL DEFAULT '',
			artist TEXT NOT NULL DEFAULT '',
			album_artist TEXT,
			duration REAL NOT NULL DEFAULT 0,
			time TEXT,
			genre TEXT,
			track_number INTEGER NOT NULL DEFAULT 0,
			author TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tracks_year ON tracks(year, playlist, track_number)`,
		`CREATE INDEX IF NOT EXISTS idx_tracks_author ON tracks(author, year DESC)`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS tracks_fts USING fts5(
			track, artist, album,
			content='tracks', content_rowid='id',
			tokenize='unicode61 remove_diacritics 2'
		)`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS tracks_vocab USING fts5vocab(tracks_fts, 'row')`,
		`CREATE TRIGGER IF NOT EXISTS tracks_ai AFTER INSERT ON tracks BEGIN
			INSERT INTO tracks_fts(rowid, track, artist, album) VALUES (new.id, new.track, new.artist, new.album);
		END`,
		`CREATE TRIGGER IF NOT EXISTS tracks_ad AFTER DELETE ON tracks BEGIN
			INSERT INTO tracks_fts(tracks_fts, rowid, track, artist, album) VALUES ('delete', old.id, old.track, old.artist, old.album);
		END`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	return nil
}

// InsertTracks bulk-loads tracks in one transaction, keeping their order as
// the tie-break order of later queries. It exists for test fixtures and
// seeding a local database; the API itself never writes.
func (d *Database) InsertTracks(ctx context.Context, tracks []models.Track) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return classify("insert tracks", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO tracks (year, playlist_folder, playlist, track, album, artist, album_artist, duration, time, genre, track_number, author)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return classify("insert tracks", err)
	}
	defer stmt.Close()

	for _, t := range tracks {
		if _, err := stmt.ExecContext(ctx,
			t.Year, t.PlaylistFolder, t.Playlist, t.Track, t.Album, t.Artist,
			nullable(t.AlbumArtist), t.Duration, nullable(t.Time), nullable(t.Genre),
			t.TrackNumber, nullable(t.Author),
		); err != nil {
			return classify("insert tracks", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return classify("insert tracks", err)
	}
	return nil
}

// Distinct returns the distinct values of field. NULLs come back as "".
func (d *Database) Distinct(ctx context.Context, field string) ([]string, error) {
	col, ok := column[field]
	if !ok {
		return nil, archive.QueryFailed("distinct", fmt.Errorf("unknown field %q", field))
	}

	rows, err := d.db.QueryContext(ctx, fmt.Sprintf(`SELECT DISTINCT COALESCE(%s, '') FROM tracks`, col))
	if err != nil {
		return nil, classify("distinct", err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, classify("distinct", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("distinct", err)
	}
	return values, nil
}

// FindTracks returns the tracks matching every non-empty filter field, in
// sort order with insertion order as the final tie-break.
func (d *Database) FindTracks(ctx context.Context, filter models.Filter, sort []archive.SortKey) ([]models.Track, error) {
	var (
		where []string
		args  []any
	)
	if filter.Year != "" {
		where = append(where, "t.year = ?")
		args = append(args, filter.Year)
	}
	if filter.Author != "" {
		where = append(where, "t.author = ?")
		args = append(args, filter.Author)
	}

	var order []string
	for _, key := range sort {
		col, ok := column[key.Field]
		if !ok {
			return nil, archive.QueryFailed("find tracks", fmt.Errorf("unknown sort field %q", key.Field))
		}
		dir := "ASC"
		if key.Descending {
			dir = "DESC"
		}
		order = append(order, fmt.Sprintf("t.%s %s", col, dir))
	}
	order = append(order, "t.id ASC")

	query := "SELECT " + trackColumns + " FROM tracks t"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY " + strings.Join(order, ", ")

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("find tracks", err)
	}
	defer rows.Close()

	tracks := []models.Track{}
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, classify("find tracks", err)
		}
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("find tracks", err)
	}
	return tracks, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTrack(row scanner, extra ...any) (models.Track, error) {
	var (
		t                                models.Track
		albumArtist, length, genre, auth sql.NullString
	)
	dest := []any{
		&t.Year, &t.PlaylistFolder, &t.Playlist, &t.Track, &t.Album, &t.Artist,
		&albumArtist, &t.Duration, &length, &genre, &t.TrackNumber, &auth,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return t, err
	}
	t.AlbumArtist = models.OptionalString(albumArtist.String)
	t.Time = models.OptionalString(length.String)
	t.Genre = models.OptionalString(genre.String)
	t.Author = models.OptionalString(auth.String)
	return t, nil
}

func nullable(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}
