package playback

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/lyricsphere/internal/services"
	"github.com/desertthunder/lyricsphere/internal/shared"
	"github.com/desertthunder/lyricsphere/internal/surface"
)

// MediaState is one reading of a media source. Times are in seconds.
type MediaState struct {
	Position float64
	// Duration is 0 when unknown.
	Duration float64
	Playing  bool
	Ended    bool
	// Title and Artists identify the song for sources that report it.
	Title   string
	Artists []string
}

// Identity returns a key for the reported song, or "" when the source reports none.
func (s MediaState) Identity() string {
	if s.Title == "" {
		return ""
	}
	return s.Title + "\x00" + strings.Join(s.Artists, "\x00")
}

// Adapter is a pull-based media source the [SyncLoop] polls.
type Adapter interface {
	// Poll reads the source. ok is false when nothing is loaded.
	Poll(ctx context.Context) (state MediaState, ok bool, err error)
	Seek(t float64) error
	Play() error
	Pause() error
	// Remote reports whether Poll crosses the network and must not run on the scheduler thread.
	Remote() bool
}

// MediaProvider exposes the live media element.
type MediaProvider interface {
	ActiveMedia() surface.Media
}

// LocalAdapter polls the media element of the active surface slot.
type LocalAdapter struct {
	src MediaProvider
}

func NewLocalAdapter(src MediaProvider) *LocalAdapter {
	return &LocalAdapter{src: src}
}

func (a *LocalAdapter) Poll(context.Context) (MediaState, bool, error) {
	m := a.src.ActiveMedia()
	if m == nil {
		return MediaState{}, false, nil
	}
	ended := m.Ended()
	return MediaState{
		Position: m.CurrentTime(),
		Duration: m.Duration(),
		Playing:  !m.Paused() && !ended,
		Ended:    ended,
	}, true, nil
}

func (a *LocalAdapter) Seek(t float64) error {
	m := a.src.ActiveMedia()
	if m == nil {
		return shared.ErrNoMedia
	}
	return m.Seek(t)
}

func (a *LocalAdapter) Play() error {
	m := a.src.ActiveMedia()
	if m == nil {
		return shared.ErrNoMedia
	}
	if err := m.Play(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrPlaybackDenied, err)
	}
	return nil
}

func (a *LocalAdapter) Pause() error {
	m := a.src.ActiveMedia()
	if m == nil {
		return shared.ErrNoMedia
	}
	return m.Pause()
}

func (a *LocalAdapter) Remote() bool { return false }

// StateSource reports the external playback authority's snapshot.
type StateSource interface {
	State(ctx context.Context) (services.AuthorityState, error)
}

// PassiveAdapter mirrors an external playback authority. The authority has no pause signal, so playback is
// considered active whenever the reported position moved since the previous poll.
type PassiveAdapter struct {
	src     StateSource
	lastPos float64
	primed  bool
}

func NewPassiveAdapter(src StateSource) *PassiveAdapter {
	return &PassiveAdapter{src: src}
}

func (a *PassiveAdapter) Poll(ctx context.Context) (MediaState, bool, error) {
	st, err := a.src.State(ctx)
	if err != nil {
		return MediaState{}, false, err
	}

	playing := a.primed && st.Position != a.lastPos
	a.lastPos = st.Position
	a.primed = true

	return MediaState{
		Position: st.Position,
		Duration: st.Song.Duration,
		Playing:  playing,
		Title:    st.Song.Title,
		Artists:  st.Song.Artists,
	}, true, nil
}

func (a *PassiveAdapter) Seek(float64) error { return shared.ErrNotSupported }
func (a *PassiveAdapter) Play() error        { return shared.ErrNotSupported }
func (a *PassiveAdapter) Pause() error       { return shared.ErrNotSupported }
func (a *PassiveAdapter) Remote() bool       { return true }
