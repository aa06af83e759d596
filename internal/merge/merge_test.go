package merge

import (
	"fmt"
	"testing"

	"github.com/desertthunder/lyricsphere/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestHistory(t *testing.T) {
	t.Run("primary order wins", func(t *testing.T) {
		got := History([]string{"b", "a"}, []string{"a", "c", "b", "d"})
		assert.Equal(t, []string{"b", "a", "c", "d"}, got)
	})

	t.Run("idempotent", func(t *testing.T) {
		h := []string{"a", "b", "c"}
		assert.Equal(t, h, History(h, h))
		assert.Equal(t, h, History(h, nil))
	})

	t.Run("disjoint sets", func(t *testing.T) {
		assert.ElementsMatch(t, History([]string{"a"}, []string{"b"}), History([]string{"b"}, []string{"a"}))
	})

	t.Run("truncates", func(t *testing.T) {
		var primary, secondary []string
		for i := range 40 {
			primary = append(primary, fmt.Sprintf("p%d", i))
			secondary = append(secondary, fmt.Sprintf("s%d", i))
		}
		got := History(primary, secondary)
		assert.Len(t, got, models.MaxHistory)
		assert.Equal(t, "p0", got[0])
		assert.Equal(t, "s9", got[49])
	})

	t.Run("nil inputs", func(t *testing.T) {
		assert.Empty(t, History(nil, nil))
	})
}

func TestListenStats(t *testing.T) {
	t.Run("secondary then primary", func(t *testing.T) {
		got := ListenStats(
			models.StatsMap{"x": {Completions: []int{100}, Listens: []int64{3}}},
			models.StatsMap{"x": {Completions: []int{80, 90}, Listens: []int64{1, 2}}},
		)
		assert.Equal(t, []int{80, 90, 100}, got["x"].Completions)
		assert.Equal(t, []int64{1, 2, 3}, got["x"].Listens)
	})

	t.Run("one sided entries kept", func(t *testing.T) {
		got := ListenStats(
			models.StatsMap{"a": {Completions: []int{10}}},
			models.StatsMap{"b": {Listens: []int64{7}}},
		)
		assert.Equal(t, []int{10}, got["a"].Completions)
		assert.Equal(t, []int64{7}, got["b"].Listens)
	})

	t.Run("caps favor primary tail", func(t *testing.T) {
		var sec, pri []int
		for i := range 45 {
			sec = append(sec, i)
		}
		for i := range 10 {
			pri = append(pri, 100-i)
		}
		got := ListenStats(models.StatsMap{"x": {Completions: pri}}, models.StatsMap{"x": {Completions: sec}})
		c := got["x"].Completions
		assert.Len(t, c, models.MaxStatsEntries)
		assert.Equal(t, pri, c[len(c)-10:])
		assert.Equal(t, 5, c[0])
	})

	t.Run("empty secondary is identity", func(t *testing.T) {
		primary := models.StatsMap{"x": {Completions: []int{1, 2}, Listens: []int64{5}}}
		assert.Equal(t, primary["x"], ListenStats(primary, nil)["x"])
	})

	t.Run("does not alias inputs", func(t *testing.T) {
		secondary := models.StatsMap{"x": {Completions: []int{1}}}
		got := ListenStats(nil, secondary)
		got["x"].Completions[0] = 99
		assert.Equal(t, 1, secondary["x"].Completions[0])
	})
}

func TestPlaylists(t *testing.T) {
	t.Run("union keeps primary order", func(t *testing.T) {
		got := Playlists(
			[]models.Playlist{{ID: "p", Name: "Mine", Tracks: []string{"b", "a"}}},
			[]models.Playlist{{ID: "p", Name: "Theirs", Tracks: []string{"a", "c", "b"}}},
		)
		assert.Len(t, got, 1)
		assert.Equal(t, "Mine", got[0].Name)
		assert.Equal(t, []string{"b", "a", "c"}, got[0].Tracks)
	})

	t.Run("empty name filled from secondary", func(t *testing.T) {
		got := Playlists(
			[]models.Playlist{{ID: "p"}},
			[]models.Playlist{{ID: "p", Name: "Named"}},
		)
		assert.Equal(t, "Named", got[0].Name)
	})

	t.Run("one sided playlists kept in order", func(t *testing.T) {
		got := Playlists(
			[]models.Playlist{{ID: "a"}, {ID: "b"}},
			[]models.Playlist{{ID: "c"}, {ID: "a"}},
		)
		ids := make([]string, len(got))
		for i, p := range got {
			ids[i] = p.ID
		}
		assert.Equal(t, []string{"a", "b", "c"}, ids)
	})

	t.Run("no duplicate tracks", func(t *testing.T) {
		got := Playlists(
			[]models.Playlist{{ID: "p", Tracks: []string{"a", "a", "b"}}},
			[]models.Playlist{{ID: "p", Tracks: []string{"b", "c", "c"}}},
		)
		assert.Equal(t, []string{"a", "b", "c"}, got[0].Tracks)
	})

	t.Run("drops playlists without id", func(t *testing.T) {
		got := Playlists([]models.Playlist{{Name: "orphan"}}, nil)
		assert.Empty(t, got)
	})

	t.Run("idempotent with empty secondary", func(t *testing.T) {
		primary := []models.Playlist{{ID: "p", Name: "x", Tracks: []string{"a", "b"}}}
		assert.Equal(t, primary, Playlists(primary, nil))
		assert.Equal(t, primary, Playlists(primary, primary))
	})
}

func TestData(t *testing.T) {
	local := models.BackupData{
		Playlists:   []models.Playlist{{ID: "like", Name: "liked", Tracks: []string{"a"}}},
		History:     []string{"a"},
		ListenStats: models.StatsMap{"a": {Completions: []int{100}, Listens: []int64{1}}},
	}
	remote := models.BackupData{
		Playlists:   []models.Playlist{{ID: "like", Tracks: []string{"b"}}, {ID: "road", Name: "Road"}},
		History:     []string{"b", "a"},
		ListenStats: models.StatsMap{"b": {Listens: []int64{2}}},
	}

	got := Data(local, remote)
	assert.Len(t, got.Playlists, 2)
	assert.Equal(t, []string{"a", "b"}, got.Playlists[0].Tracks)
	assert.Equal(t, []string{"a", "b"}, got.History)
	assert.Contains(t, got.ListenStats, "b")
}

func TestDropIdentical(t *testing.T) {
	local := models.StatsMap{
		"same":    {Completions: []int{80}, Listens: []int64{1}},
		"changed": {Completions: []int{80}},
	}
	remote := models.StatsMap{
		"same":    {Completions: []int{80}, Listens: []int64{1}},
		"changed": {Completions: []int{80, 90}},
		"new":     {Listens: []int64{4}},
	}

	got := DropIdentical(local, remote)
	assert.NotContains(t, got, "same")
	assert.Contains(t, got, "changed")
	assert.Contains(t, got, "new")

	roundTrip := ListenStats(local, DropIdentical(local, local))
	assert.Equal(t, local["same"], roundTrip["same"])
}
