package models

import (
	"encoding/json"
	"strings"
)

// Track is a catalog entry. It is never mutated after the catalog is loaded.
type Track struct {
	ID                  string   `json:"filename"`
	Title               string   `json:"title"`
	Artists             []string `json:"artists"`
	Cover               string   `json:"albumImgSrc"`
	Background          string   `json:"backgroundImage"`
	Media               string   `json:"song,omitempty"`
	LyricsPath          string   `json:"lyricsPath,omitempty"`
	MetaLyrics          string   `json:"metaLyrics,omitempty"`
	HasDuet             bool     `json:"hasDuet"`
	HasBackgroundVocals bool     `json:"hasBackgroundVocals"`
	HasAudio            bool     `json:"hasAudio"`
}

// UnmarshalJSON accepts artists as either an array or a single delimited string.
func (t *Track) UnmarshalJSON(data []byte) error {
	type alias Track
	var raw struct {
		alias
		Artists json.RawMessage `json:"artists"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = Track(raw.alias)
	t.Artists = nil

	if len(raw.Artists) == 0 || string(raw.Artists) == "null" {
		return nil
	}

	var list []string
	if err := json.Unmarshal(raw.Artists, &list); err == nil {
		t.Artists = list
		return nil
	}

	var single string
	if err := json.Unmarshal(raw.Artists, &single); err == nil {
		t.Artists = SplitArtists(single)
	}
	return nil
}

// SplitArtists splits a joined artist string on the common separators.
func SplitArtists(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '/' || r == ',' || r == ';' || r == '、'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// ArtistLine joins the artists for display.
func (t Track) ArtistLine() string {
	if len(t.Artists) == 0 {
		return "Unknown artist"
	}
	return strings.Join(t.Artists, ", ")
}

// DisplayTitle falls back to the id when the title is empty.
func (t Track) DisplayTitle() string {
	if t.Title != "" {
		return t.Title
	}
	return t.ID
}

// LyricsSource returns the main lyrics path. Inline "kind::path" markers resolve to their path part.
func (t Track) LyricsSource() string {
	raw := t.MetaLyrics
	if raw == "" {
		raw = t.LyricsPath
	}
	if _, after, ok := strings.Cut(raw, "::"); ok {
		return after
	}
	return raw
}

// HasLyrics reports whether the track carries any lyrics descriptor.
func (t Track) HasLyrics() bool {
	return t.LyricsPath != "" || t.MetaLyrics != ""
}

// Library is the ordered catalog.
type Library struct {
	tracks []Track
	index  map[string]int
}

// NewLibrary indexes tracks by id. Later duplicates of an id are dropped.
func NewLibrary(tracks []Track) Library {
	lib := Library{index: make(map[string]int, len(tracks))}
	for _, t := range tracks {
		if t.ID == "" {
			continue
		}
		if _, ok := lib.index[t.ID]; ok {
			continue
		}
		lib.index[t.ID] = len(lib.tracks)
		lib.tracks = append(lib.tracks, t)
	}
	return lib
}

func (l Library) Len() int { return len(l.tracks) }

// Tracks returns a copy of the catalog in order.
func (l Library) Tracks() []Track {
	out := make([]Track, len(l.tracks))
	copy(out, l.tracks)
	return out
}

func (l Library) At(i int) Track { return l.tracks[i] }

// Get looks a track up by id.
func (l Library) Get(id string) (Track, bool) {
	i, ok := l.index[id]
	if !ok {
		return Track{}, false
	}
	return l.tracks[i], true
}

// IDs returns the catalog ids in order.
func (l Library) IDs() []string {
	ids := make([]string, len(l.tracks))
	for i, t := range l.tracks {
		ids[i] = t.ID
	}
	return ids
}
