package surface_test

import (
	"testing"
	"time"

	"github.com/desertthunder/lyricsphere/internal/clock"
	"github.com/desertthunder/lyricsphere/internal/surface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockMedia(t *testing.T) {
	fake := clock.NewFake(time.Unix(1_700_000_000, 0))

	t.Run("Advances Only While Playing", func(t *testing.T) {
		m := surface.NewClockMedia(fake, 10)
		assert.True(t, m.Paused())

		fake.Advance(3 * time.Second)
		assert.Equal(t, 0.0, m.CurrentTime())

		require.NoError(t, m.Play())
		fake.Advance(4 * time.Second)
		assert.InDelta(t, 4.0, m.CurrentTime(), 1e-6)

		require.NoError(t, m.Pause())
		fake.Advance(2 * time.Second)
		assert.InDelta(t, 4.0, m.CurrentTime(), 1e-6)
	})

	t.Run("Ends And Restarts", func(t *testing.T) {
		m := surface.NewClockMedia(fake, 5)
		require.NoError(t, m.Play())
		fake.Advance(7 * time.Second)
		assert.True(t, m.Ended())
		assert.True(t, m.Paused())
		assert.Equal(t, 5.0, m.CurrentTime())

		require.NoError(t, m.Play())
		assert.False(t, m.Ended())
		assert.InDelta(t, 0.0, m.CurrentTime(), 1e-6)
	})

	t.Run("Seek Clamps", func(t *testing.T) {
		m := surface.NewClockMedia(fake, 5)
		require.NoError(t, m.Seek(9))
		assert.Equal(t, 5.0, m.CurrentTime())
		require.NoError(t, m.Seek(-1))
		assert.Equal(t, 0.0, m.CurrentTime())
	})

	t.Run("Unknown Length Never Ends", func(t *testing.T) {
		m := surface.NewClockMedia(fake, 0)
		require.NoError(t, m.Play())
		fake.Advance(time.Hour)
		assert.False(t, m.Ended())
		assert.Equal(t, 0.0, m.Duration())
	})
}

func TestClockHostDrivesController(t *testing.T) {
	fake := clock.NewFake(time.Unix(1_700_000_000, 0))
	host := surface.NewClockHost(fake, 30)
	c := surface.NewController(surface.Options{Scheduler: fake, Host: host})
	host.OnReady(c.SlotReady)
	t.Cleanup(c.Close)

	c.RequestAutoplay()
	c.Assign("song")
	assert.False(t, c.ActiveReady())

	fake.Flush()
	require.True(t, c.ActiveReady())
	media := c.ActiveMedia()
	require.NotNil(t, media)
	assert.False(t, media.Paused())
	assert.Equal(t, 30.0, media.Duration())
	assert.Equal(t, 1.0, host.Opacity(surface.SlotA))
}
