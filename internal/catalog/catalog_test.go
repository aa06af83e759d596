package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/desertthunder/lyricsphere/internal/models"
	"github.com/desertthunder/lyricsphere/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLibrary() models.Library {
	return models.NewLibrary([]models.Track{
		{ID: "Song One.json", Cover: "/songs/one.jpg"},
		{ID: "two.json", Background: "http://127.0.0.1:5000/songs/Two%20BG.png"},
		{ID: "three"},
	})
}

func TestCandidates(t *testing.T) {
	got := Candidates("/songs/Song%20One.json")
	assert.Contains(t, got, "/songs/Song%20One.json")
	assert.Contains(t, got, "Song One.json")
	assert.Contains(t, got, "Song One")
	assert.Contains(t, got, "song one")

	assert.Contains(t, Candidates("https://host/songs/x.json"), "x")
	assert.Nil(t, Candidates("   "))
}

func TestLookup(t *testing.T) {
	l := NewLookup(testLibrary())

	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"two.json", "two.json", true},
		{"songs/two.json", "two.json", true},
		{"TWO", "two.json", true},
		{"/songs/Song%20One.json", "Song One.json", true},
		{"song one", "Song One.json", true},
		{"http://localhost:5000/songs/one.jpg", "Song One.json", true},
		{"two bg.png", "two.json", true},
		{"three.json", "three", true},
		{"gone.json", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := l.Resolve(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("Track", func(t *testing.T) {
		track, ok := l.Track("songs/three")
		require.True(t, ok)
		assert.Equal(t, "three", track.ID)
	})

	t.Run("Canonicalize keeps unresolved ids", func(t *testing.T) {
		got := l.Canonicalize([]string{"songs/two.json", "gone", "two.json", "TWO", "gone"})
		assert.Equal(t, []string{"two.json", "gone"}, got)
	})
}

func TestHTTPSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","songs":[{"filename":"a.json"},{"filename":"a.json"},{"filename":"b.json"}]}`))
	}))
	defer server.Close()

	src := NewHTTPSource(services.NewCatalogService(services.NewAPIService(server.URL, nil)))
	lib, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.json", "b.json"}, lib.IDs())

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer failing.Close()
	_, err = NewHTTPSource(services.NewCatalogService(services.NewAPIService(failing.URL, nil))).Load(context.Background())
	assert.ErrorContains(t, err, "failed to load catalog")
}

func TestDirSource(t *testing.T) {
	root := t.TempDir()
	album := filepath.Join(root, "Album")
	require.NoError(t, os.MkdirAll(album, 0o755))
	for name, content := range map[string]string{
		"Album/b track.mp3":  "not really audio",
		"Album/b track.ttml": "<tt/>",
		"Album/cover.jpg":    "jpg",
		"a.flac":             "flac",
		"notes.txt":          "skip me",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0o644))
	}

	lib, err := NewDirSource(root, nil).Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"Album/b track.mp3", "a.flac"}, lib.IDs())

	b, _ := lib.Get("Album/b track.mp3")
	assert.Equal(t, "b track", b.Title, "untagged files fall back to the file name")
	assert.Equal(t, "/songs/Album/cover.jpg", b.Cover)
	assert.Equal(t, "/songs/Album/b track.ttml", b.LyricsPath)
	assert.True(t, b.HasAudio)

	a, _ := lib.Get("a.flac")
	assert.Empty(t, a.Cover)

	_, err = NewDirSource("", nil).Load(context.Background())
	assert.Error(t, err)
}
