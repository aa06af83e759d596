package models

// Playlist is an insertion-ordered set of track ids.
type Playlist struct {
	ID     string   `json:"id" yaml:"id"`
	Name   string   `json:"name" yaml:"name"`
	Tracks []string `json:"tracks" yaml:"tracks"`
}

// Contains reports whether id is in the playlist.
func (p Playlist) Contains(id string) bool {
	for _, t := range p.Tracks {
		if t == id {
			return true
		}
	}
	return false
}

// Clone copies the track slice.
func (p Playlist) Clone() Playlist {
	p.Tracks = append([]string{}, p.Tracks...)
	return p
}

// LibraryState is the persisted playlists and history pair.
type LibraryState struct {
	Playlists []Playlist `json:"playlists"`
	History   []string   `json:"history"`
}

// DefaultPlaylists returns the playlists every fresh install starts with.
func DefaultPlaylists() []Playlist {
	return []Playlist{{ID: LikedPlaylistID, Name: LikedPlaylistName, Tracks: []string{}}}
}

// EnsureLiked appends the liked playlist when it is missing.
func EnsureLiked(playlists []Playlist) []Playlist {
	for _, p := range playlists {
		if p.ID == LikedPlaylistID {
			return playlists
		}
	}
	return append(playlists, DefaultPlaylists()...)
}

// Dedupe returns ids with later duplicates and empty ids removed.
func Dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
