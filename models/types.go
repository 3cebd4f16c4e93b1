package models

// Track is one song entry of the archive, stored one document per track.
type Track struct {
	Year           string  `json:"year" bson:"year"`
	PlaylistFolder string  `json:"playlistFolder" bson:"playlistFolder"`
	Playlist       string  `json:"playlist" bson:"playlist"`
	Track          string  `json:"track" bson:"track"`
	Album          string  `json:"album" bson:"album"`
	Artist         string  `json:"artist" bson:"artist"`
	AlbumArtist    *string `json:"albumArtist,omitempty" bson:"albumArtist,omitempty"`
	Duration       float64 `json:"duration" bson:"duration"`
	Time           *string `json:"time,omitempty" bson:"time,omitempty"`
	Genre          *string `json:"genre,omitempty" bson:"genre,omitempty"`
	TrackNumber    int     `json:"trackNumber" bson:"trackNumber"`
	Author         *string `json:"author,omitempty" bson:"author,omitempty"`
}

// Playlist is built at query time from the tracks sharing a playlist name.
// Folder, author and year come from the first track seen for that name.
type Playlist struct {
	Playlist       string  `json:"playlist"`
	PlaylistFolder string  `json:"playlistFolder"`
	Author         *string `json:"author,omitempty"`
	Year           string  `json:"year"`
	Tracks         []Track `json:"tracks"`
}

// Filter selects tracks by exact match. An empty field is not applied.
type Filter struct {
	Year   string
	Author string
}

func (f Filter) IsEmpty() bool {
	return f.Year == "" && f.Author == ""
}

// SuggestionGroup holds the autocomplete suggestions for one field.
type SuggestionGroup struct {
	Type        string   `json:"type"`
	Label       string   `json:"label"`
	Suggestions []string `json:"suggestions"`
}

// OptionalString turns "" into nil so absent values stay absent in JSON.
func OptionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
