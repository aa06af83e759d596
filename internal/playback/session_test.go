package playback

import (
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/lyricsphere/internal/clock"
	"github.com/desertthunder/lyricsphere/internal/models"
	"github.com/desertthunder/lyricsphere/internal/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inline runs calls on the test goroutine, which is the fake scheduler's thread.
type inline struct{ err error }

func (c inline) Call(_ context.Context, f func()) error {
	if c.err != nil {
		return c.err
	}
	f()
	return nil
}

func TestSession(t *testing.T) {
	ctx := context.Background()

	t.Run("Drives The Engine", func(t *testing.T) {
		r := newRig(t, nil)
		s := NewSession(inline{}, r.e)
		require.NoError(t, s.SetLibrary(ctx, tracks("a", "b", "c")))

		var got []string
		unsubscribe, err := s.Subscribe(ctx, func(snap Snapshot) {
			if snap.Track != nil {
				got = append(got, snap.Track.ID)
			}
		})
		require.NoError(t, err)
		require.Equal(t, []string{"a"}, got, "subscribe delivers the current snapshot")

		require.NoError(t, s.Play(ctx, "b", nil))
		require.NoError(t, s.Next(ctx))
		snap, err := s.Snapshot(ctx)
		require.NoError(t, err)
		assert.Equal(t, "c", snap.Track.ID)

		require.NoError(t, s.Previous(ctx))
		require.NoError(t, s.CycleMode(ctx))
		snap, _ = s.Snapshot(ctx)
		assert.Equal(t, "b", snap.Track.ID)
		assert.Equal(t, models.ModeShuffle, snap.Mode)

		require.NoError(t, s.SetMode(ctx, models.ModeSingle))
		snap, _ = s.Snapshot(ctx)
		assert.Equal(t, models.ModeSingle, snap.Mode)

		unsubscribe()
		n := len(got)
		require.NoError(t, s.Next(ctx))
		assert.Len(t, got, n, "no snapshots after unsubscribe")
	})

	t.Run("Unknown Track", func(t *testing.T) {
		r := newRig(t, nil)
		s := NewSession(inline{}, r.e)
		s.SetLibrary(ctx, tracks("a"))

		err := s.Play(ctx, "missing", nil)
		assert.ErrorIs(t, err, shared.ErrTrackNotFound)
	})

	t.Run("Loop Unavailable", func(t *testing.T) {
		r := newRig(t, nil)
		s := NewSession(inline{err: context.Canceled}, r.e)

		err := s.Next(ctx)
		assert.True(t, errors.Is(err, context.Canceled))
		_, err = s.Subscribe(ctx, func(Snapshot) {})
		assert.Error(t, err)
	})
}

var _ Caller = (*clock.Loop)(nil)
