// Package playlists keeps the user's playlists and play history in memory and mirrors every change to durable
// storage.
package playlists

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lyricsphere/internal/models"
	"github.com/desertthunder/lyricsphere/internal/shared"
)

// Persister is the durable side of a [Collection].
type Persister interface {
	LibraryState() models.LibraryState
	SaveLibraryState(models.LibraryState) error
}

// Canonicalizer maps stored ids to catalog ids, keeping unresolved ids.
type Canonicalizer interface {
	Canonicalize(ids []string) []string
}

// Collection is the in-memory playlists and history.
type Collection struct {
	mu      sync.Mutex
	store   Persister
	logger  *log.Logger
	state   models.LibraryState
	newID   func() string
	changed func(models.LibraryState)
}

// Options configures a [Collection].
type Options struct {
	Logger *log.Logger
	// NewID generates playlist ids; defaults to [shared.GenerateID].
	NewID func() string
	// OnChange is called with a copy of the state after each successful write. It must not call back into the
	// collection.
	OnChange func(models.LibraryState)
}

// New loads the collection from store.
func New(store Persister, opts Options) *Collection {
	if opts.Logger == nil {
		opts.Logger = shared.DiscardLogger()
	}
	if opts.NewID == nil {
		opts.NewID = shared.GenerateID
	}
	c := &Collection{store: store, logger: opts.Logger, newID: opts.NewID, changed: opts.OnChange}
	c.state = store.LibraryState()
	return c
}

// Reload replaces the in-memory copy with the durable one.
func (c *Collection) Reload() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = c.store.LibraryState()
}

// State returns a deep copy of playlists and history.
func (c *Collection) State() models.LibraryState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneState(c.state)
}

// Playlists returns copies of all playlists in order.
func (c *Collection) Playlists() []models.Playlist {
	return c.State().Playlists
}

// History returns the play history, most recent first.
func (c *Collection) History() []string {
	return c.State().History
}

// Playlist returns one playlist by id.
func (c *Collection) Playlist(id string) (models.Playlist, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(id)
	if i < 0 {
		return models.Playlist{}, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
	}
	return c.state.Playlists[i].Clone(), nil
}

// Create adds an empty playlist with a trimmed, non-empty name.
func (c *Collection) Create(name string) (models.Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Playlist{}, fmt.Errorf("%w: playlist name", shared.ErrMissingArgument)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	p := models.Playlist{ID: c.newID(), Name: name, Tracks: []string{}}
	next := cloneState(c.state)
	next.Playlists = append(next.Playlists, p)
	if err := c.commit(next); err != nil {
		return models.Playlist{}, err
	}
	c.logger.Info("created playlist", "id", p.ID, "name", name)
	return p, nil
}

// AddTracks appends ids not already present, in order.
func (c *Collection) AddTracks(playlistID string, trackIDs ...string) error {
	return c.update(playlistID, func(p *models.Playlist) {
		p.Tracks = models.Dedupe(append(p.Tracks, trackIDs...))
	})
}

// RemoveTrack removes one id from a playlist.
func (c *Collection) RemoveTrack(playlistID, trackID string) error {
	return c.update(playlistID, func(p *models.Playlist) {
		out := p.Tracks[:0]
		for _, id := range p.Tracks {
			if id != trackID {
				out = append(out, id)
			}
		}
		p.Tracks = out
	})
}

// Delete removes a playlist. The liked playlist cannot be deleted.
func (c *Collection) Delete(playlistID string) error {
	if playlistID == models.LikedPlaylistID {
		return fmt.Errorf("%w: the liked playlist is permanent", shared.ErrInvalidArgument)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(playlistID)
	if i < 0 {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}
	next := cloneState(c.state)
	next.Playlists = append(next.Playlists[:i], next.Playlists[i+1:]...)
	return c.commit(next)
}

// ToggleLike adds the track to the liked playlist, or removes it if present, and reports the new state.
func (c *Collection) ToggleLike(trackID string) (bool, error) {
	if trackID == "" {
		return false, fmt.Errorf("%w: track id", shared.ErrMissingArgument)
	}
	var liked bool
	err := c.update(models.LikedPlaylistID, func(p *models.Playlist) {
		if p.Contains(trackID) {
			out := p.Tracks[:0]
			for _, id := range p.Tracks {
				if id != trackID {
					out = append(out, id)
				}
			}
			p.Tracks = out
			return
		}
		p.Tracks = append(p.Tracks, trackID)
		liked = true
	})
	return liked, err
}

// IsLiked reports whether the track is in the liked playlist.
func (c *Collection) IsLiked(trackID string) bool {
	p, err := c.Playlist(models.LikedPlaylistID)
	return err == nil && p.Contains(trackID)
}

// PushHistory moves trackID to the front of the history, capped to [models.MaxHistory].
func (c *Collection) PushHistory(trackID string) error {
	if trackID == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	next := cloneState(c.state)
	history := make([]string, 0, len(next.History)+1)
	history = append(history, trackID)
	for _, id := range next.History {
		if id != trackID {
			history = append(history, id)
		}
	}
	if len(history) > models.MaxHistory {
		history = history[:models.MaxHistory]
	}
	next.History = history
	return c.commit(next)
}

// Normalize canonicalizes every stored id and removes the duplicates that produces. It only writes when something
// changed and reports whether it did.
func (c *Collection) Normalize(lookup Canonicalizer) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next := cloneState(c.state)
	changed := false
	for i := range next.Playlists {
		tracks := lookup.Canonicalize(next.Playlists[i].Tracks)
		if !slices.Equal(tracks, next.Playlists[i].Tracks) {
			next.Playlists[i].Tracks = tracks
			changed = true
		}
	}
	if history := lookup.Canonicalize(next.History); !slices.Equal(history, next.History) {
		next.History = history
		changed = true
	}
	if !changed {
		return false, nil
	}
	return true, c.commit(next)
}

// Replace writes a merged state back.
func (c *Collection) Replace(state models.LibraryState) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := cloneState(state)
	next.Playlists = models.EnsureLiked(next.Playlists)
	return c.commit(next)
}

func (c *Collection) update(playlistID string, fn func(p *models.Playlist)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexOf(playlistID)
	if i < 0 {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
	}
	next := cloneState(c.state)
	fn(&next.Playlists[i])
	return c.commit(next)
}

// commit persists next and only then adopts it.
func (c *Collection) commit(next models.LibraryState) error {
	if err := c.store.SaveLibraryState(next); err != nil {
		return fmt.Errorf("failed to save playlists: %w", err)
	}
	c.state = next
	if c.changed != nil {
		c.changed(cloneState(next))
	}
	return nil
}

func (c *Collection) indexOf(id string) int {
	for i, p := range c.state.Playlists {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func cloneState(s models.LibraryState) models.LibraryState {
	out := models.LibraryState{
		Playlists: make([]models.Playlist, len(s.Playlists)),
		History:   append([]string{}, s.History...),
	}
	for i, p := range s.Playlists {
		out.Playlists[i] = p.Clone()
	}
	return out
}
